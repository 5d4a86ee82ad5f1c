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

// Package asdl wires the compilation pipeline together: import resolution,
// lowering to the patterned graph, atomization, verification and netlist
// emission.  The pipeline is a pure synchronous function from an entry file
// and a configuration to a netlist string plus diagnostics; each stage runs
// only while no upstream stage has reported an error.
package asdl

import (
	"github.com/asdl-lang/asdl-go/pkg/asdl/compiler"
	"github.com/asdl-lang/asdl-go/pkg/asdl/diag"
	"github.com/asdl-lang/asdl-go/pkg/asdl/emit"
	"github.com/asdl-lang/asdl-go/pkg/asdl/pattern"
	"github.com/asdl-lang/asdl-go/pkg/asdl/resolver"
	"github.com/asdl-lang/asdl-go/pkg/util/source"
)

// Config encapsulates the options affecting a single compilation.
type Config struct {
	// Library search roots, in precedence order (CLI roots first, then
	// environment roots).
	Roots []string
	// Name of the backend to emit for.
	Backend string
	// Backend registry; nil selects the compiled-in default.
	Registry *emit.Registry
	// Enables the verification passes.
	Verify bool
	// Overrides the backend's top-wrapper flag when non-nil.
	TopAsSubckt *bool
	// Bound on the expansion length of a single pattern expression.
	MaxExpansion int
	// Downgrades MissingPort on module instances to a warning during
	// verification; the emitter still reports each unconnected port as an
	// UnconnectedPort error.
	AllowMissingModulePorts bool
}

// DefaultConfig returns the standard compilation options.
func DefaultConfig() Config {
	return Config{
		Backend:      emit.DefaultBackend,
		Verify:       true,
		MaxExpansion: pattern.DefaultMaxExpansion,
	}
}

// Result carries everything a caller needs from one compilation.
type Result struct {
	// Emitted netlist; empty whenever any error diagnostic exists.
	Netlist string
	// Backend the netlist was emitted for (nil if the name was unknown).
	Backend *emit.Backend
	// All diagnostics, in deterministic reporting order.
	Diagnostics []diag.Diagnostic
	// Source files read during resolution, for diagnostic highlights.
	Files map[string]*source.File
}

// Failed reports whether any error diagnostic was produced.
func (r *Result) Failed() bool {
	for _, d := range r.Diagnostics {
		if d.Severity == diag.ERROR {
			return true
		}
	}
	//
	return false
}

// Netlist compiles the program rooted at the given entry file down to a
// netlist for the configured backend.
func Netlist(entry string, cfg Config) Result {
	sink := diag.NewBag()
	// Select the backend up front so a bad name fails fast.
	registry := cfg.Registry
	//
	if registry == nil {
		registry = emit.DefaultRegistry()
	}
	//
	name := cfg.Backend
	//
	if name == "" {
		name = emit.DefaultBackend
	}
	//
	backend, ok := registry.Get(name)
	//
	if !ok {
		sink.Errorf(diag.UnknownModel, "", source.Span{}, "unknown backend %q", name)
	}
	// Stage 1: import resolution.
	db := resolver.Resolve(entry, cfg.Roots, sink)
	//
	ccfg := compiler.Config{
		MaxExpansion:            cfg.MaxExpansion,
		AllowMissingModulePorts: cfg.AllowMissingModulePorts,
		WarnMissingDevicePins:   true,
	}
	//
	var netlist string
	// Stages 2-5 each run only on an error-free upstream.
	if !sink.HasErrors() {
		prog := compiler.Lower(db, ccfg, sink)
		//
		if !sink.HasErrors() {
			aprog := compiler.Atomize(prog, ccfg, sink)
			//
			if cfg.Verify && !sink.HasErrors() {
				compiler.Verify(db, aprog, ccfg, sink)
			}
			//
			if !sink.HasErrors() {
				if top, ok := compiler.FindTop(db, aprog, sink); ok {
					topAsSubckt := backend.TopAsSubckt()
					//
					if cfg.TopAsSubckt != nil {
						topAsSubckt = *cfg.TopAsSubckt
					}
					//
					netlist = emit.Emit(aprog, backend, top, topAsSubckt, sink)
				}
			}
		}
	}
	// The emitter's own errors also suppress the output.
	if sink.HasErrors() {
		netlist = ""
	}
	//
	return Result{netlist, backend, sink.Sorted(), db.Files()}
}
