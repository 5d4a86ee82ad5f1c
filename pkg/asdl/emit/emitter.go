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
package emit

import (
	"fmt"
	"hash/fnv"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/asdl-lang/asdl-go/pkg/asdl/diag"
	"github.com/asdl-lang/asdl-go/pkg/asdl/graph"
)

// Emit renders the atomized program as a netlist for the given backend.
// Subcircuits appear in dependency order, children before parents, with the
// top module last.  When topAsSubckt is false the top module's wrapper lines
// are commented out rather than omitted.
func Emit(aprog *graph.AtomProgram, backend *Backend, top graph.ModuleID, topAsSubckt bool, sink *diag.Bag) string {
	e := &emitter{aprog, backend, top, sink, nil}
	//
	order, ok := e.order()
	//
	if !ok {
		return ""
	}
	//
	e.names = subcktNames(aprog, order)
	//
	var blocks []string
	//
	for _, id := range order {
		blocks = append(blocks, e.emitModule(aprog.Module(id), id == top, topAsSubckt))
	}
	//
	log.Debugf("emitted %d subcircuits for backend %s", len(order), backend.Name)
	//
	return strings.Join(blocks, "\n") + "\n"
}

type emitter struct {
	aprog   *graph.AtomProgram
	backend *Backend
	top     graph.ModuleID
	sink    *diag.Bag
	// Disambiguated subcircuit names, filled after ordering.
	names map[graph.ModuleID]string
}

// order computes the emission order of the modules reachable from the top:
// depth-first post-order, so that every module follows the modules it
// references.  A reference cycle aborts emission.
func (e *emitter) order() ([]graph.ModuleID, bool) {
	const (
		unvisited = iota
		visiting
		visited
	)
	//
	var (
		order  []graph.ModuleID
		states = make([]uint8, len(e.aprog.Modules))
		ok     = true
	)
	//
	var visit func(id graph.ModuleID)
	//
	visit = func(id graph.ModuleID) {
		states[id] = visiting
		//
		for _, inst := range e.aprog.Module(id).Instances {
			if inst.RefKind != graph.MODULE_REF {
				continue
			}
			//
			switch states[inst.RefModule] {
			case unvisited:
				visit(inst.RefModule)
			case visiting:
				m := e.aprog.Module(id)
				e.sink.Errorf(diag.UnresolvedReference, m.File, inst.Span,
					"module reference cycle through %q", e.aprog.Module(inst.RefModule).Name)
				//
				ok = false
			}
		}
		//
		states[id] = visited
		order = append(order, id)
	}
	//
	visit(e.top)
	//
	return order, ok
}

// emitModule renders one subcircuit.
func (e *emitter) emitModule(m *graph.AtomModule, isTop bool, topAsSubckt bool) string {
	var (
		lines   []string
		comment = e.backend.CommentPrefix() + " "
	)
	//
	header := strings.TrimRight(fmt.Sprintf(".subckt %s %s", e.names[m.ID], strings.Join(m.Ports, " ")), " ")
	footer := ".ends"
	// A flat top keeps its wrapper lines, commented at column one.
	if isTop && !topAsSubckt {
		header = comment + header
		footer = comment + footer
	}
	//
	lines = append(lines, header)
	// Connections, grouped per instance.
	conns := connections(m)
	//
	for _, inst := range m.Instances {
		if line, ok := e.emitInstance(m, inst, conns[inst.ID]); ok {
			lines = append(lines, line)
		}
	}
	//
	lines = append(lines, footer)
	//
	return strings.Join(lines, "\n")
}

// emitInstance renders a single instance line, via the subckt template for
// module references and the device template otherwise.
func (e *emitter) emitInstance(m *graph.AtomModule, inst *graph.AtomInstance, conns map[string]string) (string, bool) {
	if inst.RefKind == graph.MODULE_REF {
		return e.emitModuleInstance(m, inst, conns)
	}
	//
	return e.emitDeviceInstance(m, inst, conns)
}

func (e *emitter) emitModuleInstance(m *graph.AtomModule, inst *graph.AtomInstance, conns map[string]string) (string, bool) {
	ref := e.aprog.Module(inst.RefModule)
	//
	ports, ok := e.portNets(m, inst, ref.Ports, conns)
	//
	if !ok {
		return "", false
	}
	//
	template, ok := e.backend.Template(SubcktTemplate)
	//
	if !ok {
		template = "X{name} {ports} {model}"
	}
	//
	values := e.values(m, inst, ports)
	values["model"] = e.names[ref.ID]
	values["sym_name"] = e.names[ref.ID]
	//
	line, ok := e.expand(m, inst, template, values)
	//
	if !ok {
		return "", false
	}
	// Instance parameters ride along after the instantiation.
	if len(inst.Params) > 0 {
		line += " " + joinParams(inst.Params)
	}
	//
	return line, true
}

func (e *emitter) emitDeviceInstance(m *graph.AtomModule, inst *graph.AtomInstance, conns map[string]string) (string, bool) {
	dev := e.aprog.Device(inst.RefDevice)
	//
	ports, ok := e.portNets(m, inst, dev.Ports, conns)
	//
	if !ok {
		return "", false
	}
	// The device's own backend entry wins; intrinsic registry templates are
	// the fallback.
	var (
		entry    = dev.Backend(e.backend.Name)
		template string
		overlay  []graph.Param
	)
	//
	if entry != nil && entry.Template != "" {
		template = entry.Template
		overlay = entry.Params
	} else if fallback, ok := e.backend.Template(dev.Name); ok {
		template = fallback
	} else {
		e.sink.Errorf(diag.UnknownModel, m.File, inst.Span,
			"device %q has no template for backend %q", dev.Name, e.backend.Name)
		//
		return "", false
	}
	//
	merged, unknown := mergeParams(dev.Params, overlay, inst.Params, templateRefs(template))
	//
	for _, key := range unknown {
		e.sink.Warnf(diag.UnknownParameter, m.File, inst.Span,
			"unknown parameter %q on instance %q of device %q", key, inst.Name, dev.Name)
	}
	//
	values := e.values(m, inst, ports)
	values["param"] = joinParams(merged)
	values["sym_name"] = dev.Name
	//
	for _, p := range merged {
		values[p.Key] = p.Value
	}
	//
	return e.expand(m, inst, template, values)
}

// portNets maps a port list onto the nets connected on an instance, in port
// order.  An unconnected port suppresses the instance line.
func (e *emitter) portNets(m *graph.AtomModule, inst *graph.AtomInstance, ports []string, conns map[string]string) ([]string, bool) {
	nets := make([]string, 0, len(ports))
	ok := true
	//
	for _, port := range ports {
		net, bound := conns[port]
		//
		if !bound {
			e.sink.Errorf(diag.UnconnectedPort, m.File, inst.Span,
				"port %q of %q is not connected on instance %q", port, inst.RefRaw, inst.Name)
			//
			ok = false
			//
			continue
		}
		//
		nets = append(nets, net)
	}
	//
	return nets, ok
}

// values builds the base placeholder table shared by all templates.
func (e *emitter) values(m *graph.AtomModule, inst *graph.AtomInstance, ports []string) map[string]string {
	return map[string]string{
		"name":         inst.Name,
		"ports":        strings.Join(ports, " "),
		"file_id":      m.File,
		"top_sym_name": e.names[e.top],
	}
}

func (e *emitter) expand(m *graph.AtomModule, inst *graph.AtomInstance, template string, values map[string]string) (string, bool) {
	line, unresolved := expand(template, values)
	//
	for _, name := range unresolved {
		e.sink.Errorf(diag.UnresolvedPlaceholder, m.File, inst.Span,
			"unresolved placeholder {%s} in template for instance %q", name, inst.Name)
	}
	//
	return line, len(unresolved) == 0
}

// connections indexes, per instance, which net each pin is bound to.
func connections(m *graph.AtomModule) map[graph.InstID]map[string]string {
	conns := make(map[graph.InstID]map[string]string, len(m.Instances))
	//
	for _, ep := range m.Endpoints {
		if conns[ep.Inst] == nil {
			conns[ep.Inst] = make(map[string]string)
		}
		//
		conns[ep.Inst][ep.Port] = m.Nets[ep.Net].Name
	}
	//
	return conns
}

// subcktNames assigns the emitted subcircuit names.  A module name shared by
// several files is disambiguated with a canonical escape derived from the
// file: first the file's base name, then (if still ambiguous) a short hash
// of the canonical path.
func subcktNames(aprog *graph.AtomProgram, order []graph.ModuleID) map[graph.ModuleID]string {
	var (
		counts = make(map[string]int)
		names  = make(map[graph.ModuleID]string, len(order))
	)
	//
	for _, id := range order {
		counts[aprog.Module(id).Name]++
	}
	//
	taken := make(map[string]bool)
	//
	for _, id := range order {
		m := aprog.Module(id)
		name := m.Name
		//
		if counts[name] > 1 {
			name = fmt.Sprintf("%s_%s", m.Name, fileStem(m.File))
		}
		//
		if taken[name] {
			name = fmt.Sprintf("%s_%s", m.Name, fileHash(m.File))
		}
		//
		taken[name] = true
		names[id] = name
	}
	//
	return names
}

func fileStem(path string) string {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	// Keep the escape well-formed as an identifier.
	var builder strings.Builder
	//
	for _, c := range stem {
		if c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') {
			builder.WriteRune(c)
		} else {
			builder.WriteRune('_')
		}
	}
	//
	return builder.String()
}

func fileHash(path string) string {
	h := fnv.New32a()
	h.Write([]byte(path))
	//
	return fmt.Sprintf("%08x", h.Sum32())
}
