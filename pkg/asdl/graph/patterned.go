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

// Package graph defines the canonical semantic core of the compiler: the
// patterned program graph produced by lowering, and the atomized graph
// derived from it.  Entities are identified by dense numeric identifiers
// allocated per kind; ordered slices sit beside every index map so that all
// iteration is deterministic.
package graph

import (
	"github.com/asdl-lang/asdl-go/pkg/asdl/pattern"
	"github.com/asdl-lang/asdl-go/pkg/util/source"
)

// RefKind discriminates what an instance's type token resolved to.
type RefKind uint8

const (
	// MODULE_REF marks a reference to a module.
	MODULE_REF RefKind = iota
	// DEVICE_REF marks a reference to a device.
	DEVICE_REF
)

func (k RefKind) String() string {
	if k == MODULE_REF {
		return "module"
	}
	//
	return "device"
}

// ModuleID identifies a module within a program.
type ModuleID uint

// DeviceID identifies a device within a program.
type DeviceID uint

// InstID identifies an instance within a module.
type InstID uint

// NetID identifies a net within a module.
type NetID uint

// EndpointID identifies an endpoint within a module.
type EndpointID uint

// Symbol is the identity of a module or device: the canonical path of its
// defining file paired with its declared name.
type Symbol struct {
	File string
	Name string
}

// Program is the patterned program graph: every module and device of the
// program database, lowered but not yet atomized.
type Program struct {
	// Modules indexed by ModuleID.
	Modules []*Module
	// Devices indexed by DeviceID.
	Devices []*Device
	//
	moduleIndex map[Symbol]ModuleID
	deviceIndex map[Symbol]DeviceID
}

// NewProgram constructs an empty program graph.
func NewProgram() *Program {
	return &Program{
		moduleIndex: make(map[Symbol]ModuleID),
		deviceIndex: make(map[Symbol]DeviceID),
	}
}

// AddModule allocates an identifier for a module and records it under its
// symbol.
func (p *Program) AddModule(m *Module) ModuleID {
	id := ModuleID(len(p.Modules))
	m.ID = id
	p.Modules = append(p.Modules, m)
	p.moduleIndex[Symbol{m.File, m.Name}] = id
	//
	return id
}

// AddDevice allocates an identifier for a device and records it under its
// symbol.
func (p *Program) AddDevice(d *Device) DeviceID {
	id := DeviceID(len(p.Devices))
	d.ID = id
	p.Devices = append(p.Devices, d)
	p.deviceIndex[Symbol{d.File, d.Name}] = id
	//
	return id
}

// LookupModule resolves a symbol to a module identifier.
func (p *Program) LookupModule(sym Symbol) (ModuleID, bool) {
	id, ok := p.moduleIndex[sym]
	return id, ok
}

// LookupDevice resolves a symbol to a device identifier.
func (p *Program) LookupDevice(sym Symbol) (DeviceID, bool) {
	id, ok := p.deviceIndex[sym]
	return id, ok
}

// Module is the patterned graph of a single module.
type Module struct {
	ID ModuleID
	// Declared name and defining file.
	Name string
	File string
	Span source.Span
	// Pattern expression registry of this module.
	Patterns *pattern.Registry
	// Exported nets in appearance order; their name expressions define the
	// module's port order.
	PortOrder []NetID
	// Nets indexed by NetID, in authored order.
	Nets []*Net
	// Instances indexed by InstID, in authored order.
	Instances []*Instance
	// Endpoints indexed by EndpointID, in creation order.
	Endpoints []*Endpoint
	// Module-local variables (immutable defaults).
	Variables []Param
	// Schematic hints keyed by owning net.
	Hints map[NetID]*NetHints
}

// NewModule constructs an empty module graph.
func NewModule(name string, file string, span source.Span) *Module {
	return &Module{
		Name:     name,
		File:     file,
		Span:     span,
		Patterns: pattern.NewRegistry(),
		Hints:    make(map[NetID]*NetHints),
	}
}

// AddNet allocates an identifier for a net bundle.
func (m *Module) AddNet(n *Net) NetID {
	n.ID = NetID(len(m.Nets))
	m.Nets = append(m.Nets, n)
	//
	return n.ID
}

// AddInstance allocates an identifier for an instance bundle.
func (m *Module) AddInstance(inst *Instance) InstID {
	inst.ID = InstID(len(m.Instances))
	m.Instances = append(m.Instances, inst)
	//
	return inst.ID
}

// AddEndpoint allocates an identifier for an endpoint bundle and appends it
// to its owning net.
func (m *Module) AddEndpoint(e *Endpoint) EndpointID {
	e.ID = EndpointID(len(m.Endpoints))
	m.Endpoints = append(m.Endpoints, e)
	m.Nets[e.Net].Endpoints = append(m.Nets[e.Net].Endpoints, e.ID)
	//
	return e.ID
}

// Variable looks up a module variable by name.
func (m *Module) Variable(name string) (string, bool) {
	for _, v := range m.Variables {
		if v.Key == name {
			return v.Value, true
		}
	}
	//
	return "", false
}

// Net is a patterned net bundle.  Nets own their endpoints.
type Net struct {
	ID NetID
	// Name expression of this net (export prefix stripped).
	Name pattern.ExprID
	// Indicates the net is exported as a port.
	Exported bool
	// Endpoints owned by this net, in authored order.
	Endpoints []EndpointID
	Span      source.Span
}

// Instance is a patterned instance bundle.
type Instance struct {
	ID InstID
	// Name expression of this instance.
	Name pattern.ExprID
	// What the type token resolved to.
	RefKind   RefKind
	RefModule ModuleID
	RefDevice DeviceID
	// Unresolved type token as authored.
	RefRaw string
	// Parameter value expressions in authored order.
	Params []InstParam
	Span   source.Span
}

// Ref returns the referenced symbol's graph entity name, for messages.
func (inst *Instance) Ref(p *Program) string {
	if inst.RefKind == MODULE_REF {
		return p.Modules[inst.RefModule].Name
	}
	//
	return p.Devices[inst.RefDevice].Name
}

// InstParam is one "key=value" parameter of an instance expression, its value
// held as a pattern expression.
type InstParam struct {
	Key   string
	Value pattern.ExprID
	Span  source.Span
}

// Endpoint is a patterned endpoint bundle: a port expression bound to its
// owning net.
type Endpoint struct {
	ID EndpointID
	// Owning net.
	Net NetID
	// Port expression; each expanded atom splits into instance and pin.
	Port pattern.ExprID
	// Binding plan between the net's name expression and this expression.
	Plan *pattern.Plan
	Span source.Span
}

// Param is a rendered key/value pair (device defaults, backend overrides,
// module variables, atomized instance parameters).
type Param struct {
	Key   string
	Value string
}

// Device is a lowered device definition.  Devices carry no pattern state:
// their port tokens are expanded at lowering time.
type Device struct {
	ID   DeviceID
	Name string
	File string
	Span source.Span
	// Literal port names in declared order.
	Ports []string
	// Default parameters in authored order.
	Params []Param
	// Device variables (immutable defaults).
	Variables []Param
	// Backend entries in authored order.
	Backends []BackendDef
}

// Backend looks up this device's entry for a given backend name.
func (d *Device) Backend(name string) *BackendDef {
	for i := range d.Backends {
		if d.Backends[i].Name == name {
			return &d.Backends[i]
		}
	}
	//
	return nil
}

// HasPort checks whether the device declares a given port.
func (d *Device) HasPort(name string) bool {
	for _, p := range d.Ports {
		if p == name {
			return true
		}
	}
	//
	return false
}

// BackendDef is one backend entry of a device.
type BackendDef struct {
	Name string
	// Emission template.
	Template string
	// Backend-specific parameter overrides.
	Params []Param
	// Free-form properties.
	Props []Param
}

// NetHints records the authored group slices of a net's endpoint list, for
// consumption by schematic tooling.  Slices are relative to the flattened
// endpoint token list before binding.
type NetHints struct {
	// Authored groups as (start, count) slices.
	Groups []HintGroup
	// Index of the designated hub group.
	Hub int
}

// HintGroup is one authored group slice.
type HintGroup struct {
	Start, Count int
}
