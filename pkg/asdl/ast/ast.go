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

// Package ast defines the authoring AST consumed by the compiler: a document
// per source file holding modules, devices and imports.  All mappings of the
// YAML dialect are order-preserving, hence the AST stores slices rather than
// Go maps.  Token strings may contain pattern syntax; the AST does not
// interpret it.
package ast

import (
	"github.com/asdl-lang/asdl-go/pkg/util/source"
)

// Document is the parsed form of a single ".asdl" source file.
type Document struct {
	// Canonical path of the file this document was parsed from.
	Path string
	// Name of the entry module, if declared.
	Top string
	// Span of the "top" declaration.
	TopSpan source.Span
	// Imports in authored order.
	Imports []*Import
	// Modules in authored order.
	Modules []*Module
	// Devices in authored order.
	Devices []*Device
}

// Import binds a local alias to a logical path naming another source file.
type Import struct {
	// Local alias used to qualify cross-file references.
	Alias string
	// Logical path of the imported file.
	Target string
	// Span of the import entry.
	Span source.Span
}

// Module is a hierarchical cell: an ordered set of instances plus an ordered
// set of nets.  Ports are not declared separately; a net whose name carries
// the "$" prefix is exported as a port.
type Module struct {
	// Declared module name.
	Name string
	// Span of the module name.
	Span source.Span
	// Module-local variables in authored order.
	Variables []*Variable
	// Instances in authored order.
	Instances []*Instance
	// Nets in authored order.
	Nets []*Net
}

// Variable is an immutable module-local default, substituted into instance
// parameter values before atomization.
type Variable struct {
	Name string
	// Canonically rendered value (booleans as "1"/"0", numbers in decimal).
	Value string
	Span  source.Span
}

// Instance maps an instance-name token to its raw instance expression
// ("<type-token> key=value ...").
type Instance struct {
	// Instance-name token (may contain pattern syntax).
	Name string
	// Raw instance expression.
	Expr string
	// Span of the name token.
	Span source.Span
	// Span of the expression value.
	ExprSpan source.Span
}

// Net maps a net-name token to its endpoint tokens.  The authored value is
// either a flat list or a list-of-lists; the latter is flattened here, with
// the authored group slices preserved for schematic hints.
type Net struct {
	// Net-name token, including any "$" export prefix.
	Name string
	// Span of the name token.
	Span source.Span
	// Flattened endpoint tokens in authored order.
	Endpoints []*EndpointRef
	// Authored group slices into Endpoints (nil when the value was flat).
	Groups []GroupSlice
}

// EndpointRef is one endpoint token of a net.
type EndpointRef struct {
	// Endpoint token ("instance.pin", possibly patterned).
	Token string
	Span  source.Span
}

// GroupSlice records one authored group of a list-of-lists net value, as a
// slice into the flattened endpoint list.
type GroupSlice struct {
	Start, Count int
}

// Device is a leaf cell with declared ports, default parameters and one or
// more backend templates.  Devices are never elaborated into subcircuits.
type Device struct {
	// Declared device name.
	Name string
	// Span of the device name.
	Span source.Span
	// Ordered port tokens (may contain pattern syntax).
	Ports []*PortRef
	// Default parameters in authored order.
	Params []*Param
	// Device variables, treated as immutable defaults.
	Variables []*Variable
	// Backend entries in authored order.
	Backends []*BackendEntry
}

// PortRef is one declared port token of a device.
type PortRef struct {
	Token string
	Span  source.Span
}

// Param is a key/value parameter entry with its value canonically rendered.
type Param struct {
	Key   string
	Value string
	Span  source.Span
}

// BackendEntry holds a device's emission template and overrides for one
// backend.
type BackendEntry struct {
	// Backend name, e.g. "sim.ngspice".
	Name string
	Span source.Span
	// Emission template; required.
	Template string
	// Span of the template value.
	TemplateSpan source.Span
	// Backend-specific parameter overrides in authored order.
	Params []*Param
	// Free-form properties in authored order.
	Props []*Param
}

// Device looks up a device of this document by name.
func (d *Document) Device(name string) *Device {
	for _, dev := range d.Devices {
		if dev.Name == name {
			return dev
		}
	}
	//
	return nil
}

// Module looks up a module of this document by name.
func (d *Document) Module(name string) *Module {
	for _, mod := range d.Modules {
		if mod.Name == name {
			return mod
		}
	}
	//
	return nil
}
