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
package graph

import (
	"github.com/asdl-lang/asdl-go/pkg/util/source"
)

// AtomProgram is the atomized program graph: the same shape as Program, but
// every name is literal and every endpoint carries an explicit instance and
// pin.  Atomized entities link back to their patterned origins through From
// identifiers; devices need no atomization and are shared with the patterned
// program.
type AtomProgram struct {
	// Atomized modules, aligned with the patterned ModuleIDs.
	Modules []*AtomModule
	// Devices indexed by DeviceID (shared with the patterned program).
	Devices []*Device
}

// Module returns the atomized module with the given identifier.
func (p *AtomProgram) Module(id ModuleID) *AtomModule {
	return p.Modules[id]
}

// Device returns the device with the given identifier.
func (p *AtomProgram) Device(id DeviceID) *Device {
	return p.Devices[id]
}

// AtomModule is the atomized graph of a single module.
type AtomModule struct {
	ID   ModuleID
	Name string
	File string
	Span source.Span
	// Literal port names in port order.
	Ports []string
	// Instance atoms in expansion order.
	Instances []*AtomInstance
	// Net atoms in expansion order.
	Nets []*AtomNet
	// Endpoint atoms in creation order.
	Endpoints []*AtomEndpoint
	// Schematic hints keyed by atomized net, as groups of endpoint atoms.
	Hints map[NetID]*AtomHints
	//
	instIndex map[string]InstID
	netIndex  map[string]NetID
}

// NewAtomModule constructs an empty atomized module.
func NewAtomModule(m *Module) *AtomModule {
	return &AtomModule{
		ID:        m.ID,
		Name:      m.Name,
		File:      m.File,
		Span:      m.Span,
		Hints:     make(map[NetID]*AtomHints),
		instIndex: make(map[string]InstID),
		netIndex:  make(map[string]NetID),
	}
}

// AddInstance allocates an identifier for an instance atom.  The result
// indicates whether the literal name was fresh; a collision leaves the
// existing atom in place.
func (m *AtomModule) AddInstance(inst *AtomInstance) (InstID, bool) {
	if _, ok := m.instIndex[inst.Name]; ok {
		return 0, false
	}
	//
	inst.ID = InstID(len(m.Instances))
	m.Instances = append(m.Instances, inst)
	m.instIndex[inst.Name] = inst.ID
	//
	return inst.ID, true
}

// AddNet allocates an identifier for a net atom, failing on a literal name
// collision.
func (m *AtomModule) AddNet(n *AtomNet) (NetID, bool) {
	if _, ok := m.netIndex[n.Name]; ok {
		return 0, false
	}
	//
	n.ID = NetID(len(m.Nets))
	m.Nets = append(m.Nets, n)
	m.netIndex[n.Name] = n.ID
	//
	return n.ID, true
}

// AddEndpoint allocates an identifier for an endpoint atom and appends it to
// its owning net.
func (m *AtomModule) AddEndpoint(e *AtomEndpoint) EndpointID {
	e.ID = EndpointID(len(m.Endpoints))
	m.Endpoints = append(m.Endpoints, e)
	m.Nets[e.Net].Endpoints = append(m.Nets[e.Net].Endpoints, e.ID)
	//
	return e.ID
}

// Instance resolves a literal instance name.
func (m *AtomModule) Instance(name string) (InstID, bool) {
	id, ok := m.instIndex[name]
	return id, ok
}

// Net resolves a literal net name.
func (m *AtomModule) Net(name string) (NetID, bool) {
	id, ok := m.netIndex[name]
	return id, ok
}

// HasName checks whether a literal name is taken by either an instance or a
// net of this module.
func (m *AtomModule) HasName(name string) bool {
	if _, ok := m.instIndex[name]; ok {
		return true
	}
	//
	_, ok := m.netIndex[name]
	//
	return ok
}

// AtomInstance is a single instance atom.
type AtomInstance struct {
	ID InstID
	// Literal instance name.
	Name string
	// Resolved reference, copied from the patterned bundle.
	RefKind   RefKind
	RefModule ModuleID
	RefDevice DeviceID
	RefRaw    string
	// Parameter values after variable substitution, in authored order.
	Params []Param
	// Patterned instance this atom was expanded from.
	From InstID
	Span source.Span
}

// AtomNet is a single net atom.
type AtomNet struct {
	ID NetID
	// Literal net name.
	Name string
	// Indicates the net is exported as a port.
	Exported bool
	// Endpoint atoms on this net, in creation order.
	Endpoints []EndpointID
	// Patterned net this atom was expanded from.
	From NetID
	Span source.Span
}

// AtomEndpoint is a single endpoint atom: one net atom connected to one
// (instance, port) pair.
type AtomEndpoint struct {
	ID EndpointID
	// Owning net atom.
	Net NetID
	// Connected instance atom.
	Inst InstID
	// Literal pin name on the instance.
	Port string
	// Patterned endpoint this atom was expanded from.
	From EndpointID
	Span source.Span
}

// AtomHints is the atomized form of a net's schematic hints: the authored
// group slices translated into groups of endpoint atoms.
type AtomHints struct {
	Groups [][]EndpointID
	Hub    int
}
