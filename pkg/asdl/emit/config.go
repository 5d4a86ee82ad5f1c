// Copyright Consensys Software Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with
// the License. You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

// Package emit turns an atomized program into a backend-specific textual
// netlist.  Backends are described by a registry file mapping backend names
// to device templates and formatting flags; a default registry covering
// "sim.ngspice" is compiled in.
package emit

import (
	_ "embed"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// DefaultBackend is the backend selected when none is named.
const DefaultBackend = "sim.ngspice"

// SubcktTemplate is the registry key of the generic module-instantiation
// template.
const SubcktTemplate = "subckt"

//go:embed backends.yaml
var defaultBackends []byte

// Backend describes one emission target: its file extension, comment prefix,
// intrinsic device templates and formatting flags.
type Backend struct {
	// Backend name, filled from the registry key.
	Name string `yaml:"-"`
	// Extension of emitted files (including the dot).
	Extension string `yaml:"extension"`
	// Comment prefix placed at column one.
	Comment string `yaml:"comment"`
	// Templates for intrinsic device categories, plus the "subckt"
	// instantiation template.
	DeviceTemplates map[string]string `yaml:"device_templates"`
	// Formatting flags.
	Flags Flags `yaml:"flags"`
}

// Flags holds a backend's formatting flags.
type Flags struct {
	// Emit the top module as a subcircuit (default true); nil means unset.
	TopAsSubckt *bool `yaml:"top_as_subckt"`
}

// TopAsSubckt resolves the top-wrapper flag, defaulting to true.
func (b *Backend) TopAsSubckt() bool {
	return b.Flags.TopAsSubckt == nil || *b.Flags.TopAsSubckt
}

// CommentPrefix resolves the comment prefix, defaulting to "*".
func (b *Backend) CommentPrefix() string {
	if b.Comment == "" {
		return "*"
	}
	//
	return b.Comment
}

// Template looks up an intrinsic device template.
func (b *Backend) Template(kind string) (string, bool) {
	t, ok := b.DeviceTemplates[kind]
	return t, ok
}

// Registry maps backend names to their configurations.
type Registry struct {
	Backends map[string]*Backend `yaml:"backends"`
}

// LoadRegistry reads a backend registry from a YAML file.
func LoadRegistry(path string) (*Registry, error) {
	bytes, err := os.ReadFile(path)
	//
	if err != nil {
		return nil, err
	}
	//
	return parseRegistry(bytes)
}

// DefaultRegistry returns the compiled-in registry.
func DefaultRegistry() *Registry {
	registry, err := parseRegistry(defaultBackends)
	// The embedded registry is part of the build; it cannot fail to parse.
	if err != nil {
		panic(err)
	}
	//
	return registry
}

func parseRegistry(bytes []byte) (*Registry, error) {
	var registry Registry
	//
	if err := yaml.Unmarshal(bytes, &registry); err != nil {
		return nil, err
	}
	//
	if registry.Backends == nil {
		return nil, fmt.Errorf("backend registry declares no backends")
	}
	//
	for name, backend := range registry.Backends {
		backend.Name = name
	}
	//
	return &registry, nil
}

// Get looks up a backend by name.
func (r *Registry) Get(name string) (*Backend, bool) {
	backend, ok := r.Backends[name]
	return backend, ok
}

// Names returns the configured backend names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.Backends))
	//
	for name := range r.Backends {
		names = append(names, name)
	}
	//
	sort.Strings(names)
	//
	return names
}
