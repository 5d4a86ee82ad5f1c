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
package compiler

import (
	"slices"
	"strings"

	"github.com/asdl-lang/asdl-go/pkg/asdl/diag"
	"github.com/asdl-lang/asdl-go/pkg/asdl/graph"
	"github.com/asdl-lang/asdl-go/pkg/asdl/resolver"
	"github.com/asdl-lang/asdl-go/pkg/util/source"
)

// Verify runs the non-mutating verification passes over the atomized
// program: structural uniqueness, reference closure against the referenced
// module/device port sets, and the unused-import lint.
func Verify(db *resolver.Database, aprog *graph.AtomProgram, cfg Config, sink *diag.Bag) {
	v := &verifier{db, aprog, cfg, sink}
	//
	for _, m := range aprog.Modules {
		v.verifyStructure(m)
		v.verifyClosure(m)
	}
	//
	v.verifyImports()
}

type verifier struct {
	db    *resolver.Database
	aprog *graph.AtomProgram
	cfg   Config
	sink  *diag.Bag
}

// verifyStructure re-checks the literal-name invariants of one atomized
// module: names free of pattern delimiters, unique ports, and unique
// endpoint tuples.
func (v *verifier) verifyStructure(m *graph.AtomModule) {
	for _, inst := range m.Instances {
		v.checkLiteral(m, inst.Name, inst.Span)
	}
	//
	for _, n := range m.Nets {
		v.checkLiteral(m, n.Name, n.Span)
	}
	//
	ports := make(map[string]bool)
	//
	for _, port := range m.Ports {
		if ports[port] {
			v.sink.Errorf(diag.DuplicateName, m.File, m.Span,
				"port %q declared more than once on module %q", port, m.Name)
		}
		//
		ports[port] = true
	}
	// Endpoint tuples must be unique per module.
	tuples := make(map[graph.AtomEndpoint]bool)
	//
	for _, e := range m.Endpoints {
		tuple := graph.AtomEndpoint{Net: e.Net, Inst: e.Inst, Port: e.Port}
		//
		if tuples[tuple] {
			v.sink.Errorf(diag.DuplicateEndpointBinding, m.File, e.Span,
				"(%s, %s) bound to net %q more than once",
				m.Instances[e.Inst].Name, e.Port, m.Nets[e.Net].Name)
		}
		//
		tuples[tuple] = true
	}
}

func (v *verifier) checkLiteral(m *graph.AtomModule, name string, span source.Span) {
	if strings.ContainsAny(name, "<>;") {
		v.sink.Errorf(diag.AtomNameCollision, m.File, span,
			"atomized name %q retains pattern delimiters", name)
	}
}

// verifyClosure checks every instance's connected pins against the port set
// of whatever it references.  Modules demand exact port closure; devices
// demand a subset, with missing pins reported as warnings.
func (v *verifier) verifyClosure(m *graph.AtomModule) {
	// Group connected pins by instance.
	connected := make([]map[string]bool, len(m.Instances))
	//
	for i := range connected {
		connected[i] = make(map[string]bool)
	}
	//
	for _, e := range m.Endpoints {
		connected[e.Inst][e.Port] = true
	}
	//
	for _, inst := range m.Instances {
		var (
			ports []string
			kind  string
			name  string
		)
		//
		if inst.RefKind == graph.MODULE_REF {
			ref := v.aprog.Module(inst.RefModule)
			ports, kind, name = ref.Ports, "module", ref.Name
		} else {
			ref := v.aprog.Device(inst.RefDevice)
			ports, kind, name = ref.Ports, "device", ref.Name
		}
		// No unknown pins, on either kind of reference.
		for pin := range connected[inst.ID] {
			if !slices.Contains(ports, pin) {
				v.sink.Errorf(diag.UnknownPort, m.File, inst.Span,
					"%s %q has no port %q (connected on instance %q)", kind, name, pin, inst.Name)
			}
		}
		// Unconnected ports: exact closure for modules, tolerated with a
		// warning for devices.
		for _, port := range ports {
			if connected[inst.ID][port] {
				continue
			}
			//
			switch {
			case inst.RefKind == graph.MODULE_REF && !v.cfg.AllowMissingModulePorts:
				v.sink.Errorf(diag.MissingPort, m.File, inst.Span,
					"port %q of module %q is not connected on instance %q", port, name, inst.Name)
			case inst.RefKind == graph.MODULE_REF:
				v.sink.Warnf(diag.MissingPort, m.File, inst.Span,
					"port %q of module %q is not connected on instance %q", port, name, inst.Name)
			case v.cfg.WarnMissingDevicePins:
				v.sink.Warnf(diag.MissingPort, m.File, inst.Span,
					"pin %q of device %q is not connected on instance %q", port, name, inst.Name)
			}
		}
	}
}

// verifyImports emits the unused-import lint: aliases bound by resolution
// but never referenced by any type token.
func (v *verifier) verifyImports() {
	for _, doc := range v.db.Documents() {
		env := v.db.Env(doc.Path)
		//
		for _, alias := range env.Aliases() {
			if !env.Used(alias) {
				v.sink.Infof(diag.UnusedImport, doc.Path, env.Span(alias),
					"import alias %q is never used", alias)
			}
		}
	}
}

// FindTop determines the module to emit: the document-declared top of the
// entry file if present, otherwise the sole module of the program.
func FindTop(db *resolver.Database, aprog *graph.AtomProgram, sink *diag.Bag) (graph.ModuleID, bool) {
	entry, ok := db.Document(db.Entry)
	//
	if ok && entry.Top != "" {
		for _, m := range aprog.Modules {
			if m.File == db.Entry && m.Name == entry.Top {
				return m.ID, true
			}
		}
		//
		sink.Errorf(diag.UnresolvedReference, db.Entry, entry.TopSpan,
			"top module %q not found", entry.Top)
		//
		return 0, false
	}
	// With no declared top, a single module program-wide is the implicit
	// top.
	if len(aprog.Modules) == 1 {
		return aprog.Modules[0].ID, true
	}
	//
	sink.Errorf(diag.UnresolvedReference, db.Entry, source.Span{},
		"no top module declared and %d modules exist", len(aprog.Modules))
	//
	return 0, false
}

