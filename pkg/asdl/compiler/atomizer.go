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
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/asdl-lang/asdl-go/pkg/asdl/diag"
	"github.com/asdl-lang/asdl-go/pkg/asdl/graph"
	"github.com/asdl-lang/asdl-go/pkg/asdl/pattern"
	"github.com/asdl-lang/asdl-go/pkg/util/source"
)

// Atomize materializes a pattern-free atomized graph from the patterned
// program.  Modules atomize independently; a failure inside one module does
// not abort its siblings.  Provenance back-links are carried on every atom.
func Atomize(prog *graph.Program, cfg Config, sink *diag.Bag) *graph.AtomProgram {
	aprog := &graph.AtomProgram{Devices: prog.Devices}
	//
	for _, m := range prog.Modules {
		a := &atomizer{prog, m, graph.NewAtomModule(m), cfg, sink, nil}
		aprog.Modules = append(aprog.Modules, a.run())
	}
	//
	return aprog
}

type atomizer struct {
	prog *graph.Program
	src  *graph.Module
	dst  *graph.AtomModule
	cfg  Config
	sink *diag.Bag
	// Atomized net identifiers of each patterned net, indexed by atom.
	netAtoms [][]graph.NetID
}

func (a *atomizer) run() *graph.AtomModule {
	a.atomizeInstances()
	a.atomizeNets()
	a.atomizePorts()
	a.atomizeEndpoints()
	//
	log.Debugf("atomized module %s (%d instance atoms, %d net atoms, %d endpoints)",
		a.dst.Name, len(a.dst.Instances), len(a.dst.Nets), len(a.dst.Endpoints))
	//
	return a.dst
}

// atomizeInstances expands every instance bundle into instance atoms,
// substituting module variables into per-atom parameter values.
func (a *atomizer) atomizeInstances() {
	vars := variableTable(a.src.Variables)
	//
	for _, inst := range a.src.Instances {
		atoms, errs := a.src.Patterns.Expand(a.src.Patterns.Get(inst.Name), a.cfg.MaxExpansion)
		//
		if a.report(inst.Span, errs) {
			continue
		}
		// Expand each parameter once: a scalar value is shared by all atoms,
		// otherwise the value must expand pairwise with the name.
		params := make([][]graph.Param, len(atoms))
		//
		for i := range params {
			params[i] = make([]graph.Param, 0, len(inst.Params))
		}
		//
		for _, p := range inst.Params {
			values, errs := a.src.Patterns.Expand(a.src.Patterns.Get(p.Value), a.cfg.MaxExpansion)
			//
			if a.report(p.Span, errs) {
				continue
			}
			//
			if len(values) != 1 && len(values) != len(atoms) {
				a.sink.Errorf(diag.BindingLengthMismatch, a.src.File, p.Span,
					"parameter %q expands to %d values for %d instance atoms",
					p.Key, len(values), len(atoms))
				//
				continue
			}
			//
			for i := range atoms {
				value := values[0].Text
				//
				if len(values) > 1 {
					value = values[i].Text
				}
				//
				value, missing := substitute(value, vars)
				//
				for _, name := range missing {
					a.sink.Errorf(diag.UndefinedVariable, a.src.File, p.Span,
						"undefined variable %q in parameter %q", name, p.Key)
				}
				//
				params[i] = append(params[i], graph.Param{Key: p.Key, Value: value})
			}
		}
		//
		for i, atom := range atoms {
			ok := !a.dst.HasName(atom.Text)
			//
			if ok {
				_, ok = a.dst.AddInstance(&graph.AtomInstance{
					Name:      atom.Text,
					RefKind:   inst.RefKind,
					RefModule: inst.RefModule,
					RefDevice: inst.RefDevice,
					RefRaw:    inst.RefRaw,
					Params:    params[i],
					From:      inst.ID,
					Span:      inst.Span,
				})
			}
			//
			if !ok {
				a.sink.Errorf(diag.AtomNameCollision, a.src.File, inst.Span,
					"name %q collides with another atom in module %q", atom.Text, a.src.Name)
			}
		}
	}
}

// atomizeNets expands every net bundle into net atoms.
func (a *atomizer) atomizeNets() {
	a.netAtoms = make([][]graph.NetID, len(a.src.Nets))
	//
	for _, n := range a.src.Nets {
		atoms, errs := a.src.Patterns.Expand(a.src.Patterns.Get(n.Name), a.cfg.MaxExpansion)
		//
		if a.report(n.Span, errs) {
			continue
		}
		//
		ids := make([]graph.NetID, 0, len(atoms))
		//
		for _, atom := range atoms {
			ok := !a.dst.HasName(atom.Text)
			//
			var id graph.NetID
			//
			if ok {
				id, ok = a.dst.AddNet(&graph.AtomNet{
					Name:     atom.Text,
					Exported: n.Exported,
					From:     n.ID,
					Span:     n.Span,
				})
			}
			//
			if !ok {
				a.sink.Errorf(diag.AtomNameCollision, a.src.File, n.Span,
					"name %q collides with another atom in module %q", atom.Text, a.src.Name)
				//
				continue
			}
			//
			ids = append(ids, id)
		}
		//
		a.netAtoms[n.ID] = ids
	}
}

// atomizePorts derives the literal port order from the exported nets.
func (a *atomizer) atomizePorts() {
	for _, id := range a.src.PortOrder {
		for _, atomID := range a.netAtoms[id] {
			a.dst.Ports = append(a.dst.Ports, a.dst.Nets[atomID].Name)
		}
	}
}

// atomizeEndpoints expands every endpoint bundle and routes each atom to its
// net atom (via the binding plan) and instance atom (via the instance
// table).  Schematic hints are translated along the way.
func (a *atomizer) atomizeEndpoints() {
	// Endpoint atom sets per (patterned net, net atom index), used to carry
	// the authored hint groups over to the atomized nets.
	type origin struct {
		token   int
		atomNet graph.NetID
		id      graph.EndpointID
	}
	//
	var (
		seen    = make(map[string]bool)
		origins = make(map[graph.NetID][]origin)
	)
	//
	for _, e := range a.src.Endpoints {
		var (
			net   = a.src.Nets[e.Net]
			atoms []graph.NetID = a.netAtoms[e.Net]
		)
		// Position of this bundle within its net's endpoint list is the
		// authored token index the hint slices refer to.
		token := indexOf(net.Endpoints, e.ID)
		//
		endAtoms, errs := a.src.Patterns.Expand(a.src.Patterns.Get(e.Port), a.cfg.MaxExpansion)
		//
		if a.report(e.Span, errs) {
			continue
		}
		//
		for i, atom := range endAtoms {
			dot := strings.IndexByte(atom.Text, '.')
			//
			if dot <= 0 || dot == len(atom.Text)-1 || strings.Count(atom.Text, ".") != 1 {
				a.sink.Errorf(diag.EndpointMissingDot, a.src.File, e.Span,
					"endpoint %q must contain exactly one '.'", atom.Text)
				//
				continue
			}
			//
			instName, pin := atom.Text[:dot], atom.Text[dot+1:]
			//
			instID, ok := a.dst.Instance(instName)
			//
			if !ok {
				a.sink.Errorf(diag.UnresolvedReference, a.src.File, e.Span,
					"endpoint %q references unknown instance %q", atom.Text, instName)
				//
				continue
			}
			//
			index := e.Plan.NetAtom(i)
			//
			if index >= len(atoms) {
				// The target net atom collided away; its diagnostic has
				// already been reported.
				continue
			}
			//
			netID := atoms[index]
			// A pin connects to exactly one net, hence (instance, port) must
			// be unique module-wide.
			key := fmt.Sprintf("%d.%s", instID, pin)
			//
			if seen[key] {
				a.sink.Errorf(diag.DuplicateEndpointBinding, a.src.File, e.Span,
					"(%s, %s) is already bound to a net", instName, pin)
				//
				continue
			}
			//
			seen[key] = true
			//
			id := a.dst.AddEndpoint(&graph.AtomEndpoint{
				Net:  netID,
				Inst: instID,
				Port: pin,
				From: e.ID,
				Span: e.Span,
			})
			//
			origins[net.ID] = append(origins[net.ID], origin{token, netID, id})
		}
	}
	// Translate the authored hint groups through the expansion: each
	// atomized net receives, per authored group, the endpoint atoms whose
	// originating token fell inside the group's slice.
	for netID, hints := range a.src.Hints {
		for _, atomNet := range a.netAtoms[netID] {
			translated := &graph.AtomHints{Hub: hints.Hub}
			//
			for _, g := range hints.Groups {
				var group []graph.EndpointID
				//
				for _, o := range origins[netID] {
					if o.atomNet == atomNet && o.token >= g.Start && o.token < g.Start+g.Count {
						group = append(group, o.id)
					}
				}
				//
				translated.Groups = append(translated.Groups, group)
			}
			//
			a.dst.Hints[atomNet] = translated
		}
	}
}

func (a *atomizer) report(span source.Span, errs []pattern.Error) bool {
	for _, e := range errs {
		a.sink.Report(diag.New(diag.ERROR, e.Code, a.src.File, span, "%s", e.Message))
	}
	//
	return len(errs) > 0
}

func indexOf(ids []graph.EndpointID, id graph.EndpointID) int {
	for i, candidate := range ids {
		if candidate == id {
			return i
		}
	}
	//
	return -1
}
