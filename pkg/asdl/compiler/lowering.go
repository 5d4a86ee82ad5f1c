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
	"regexp"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/asdl-lang/asdl-go/pkg/asdl/ast"
	"github.com/asdl-lang/asdl-go/pkg/asdl/diag"
	"github.com/asdl-lang/asdl-go/pkg/asdl/graph"
	"github.com/asdl-lang/asdl-go/pkg/asdl/pattern"
	"github.com/asdl-lang/asdl-go/pkg/asdl/resolver"
	"github.com/asdl-lang/asdl-go/pkg/util/source"
)

// Instance parameters must be "key=value" with no spaces around "=".
var kvRegexp = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)=(.+)$`)

// Type tokens are either "name" or "alias.name".
var typeRegexp = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// Lower builds the patterned program graph from a resolved program database.
// Symbols are lowered first (devices, plus module shells) so that instance
// type tokens can resolve forward and across files; module bodies follow.
func Lower(db *resolver.Database, cfg Config, sink *diag.Bag) *graph.Program {
	l := &lowerer{db, cfg, graph.NewProgram(), sink, nil}
	//
	l.lowerSymbols()
	//
	for _, pending := range l.pending {
		l.lowerModule(pending.doc, pending.src, pending.dst)
	}
	//
	return l.prog
}

type lowerer struct {
	db   *resolver.Database
	cfg  Config
	prog *graph.Program
	sink *diag.Bag
	// Module bodies awaiting lowering, in database order.
	pending []pendingModule
}

type pendingModule struct {
	doc *ast.Document
	src *ast.Module
	dst *graph.Module
}

// lowerSymbols registers every module and device of every file, enforcing the
// per-file namespace shared between the two.
func (l *lowerer) lowerSymbols() {
	for _, doc := range l.db.Documents() {
		names := make(map[string]bool)
		//
		for _, m := range doc.Modules {
			if names[m.Name] {
				l.sink.Errorf(diag.DuplicateName, doc.Path, m.Span,
					"%q already defined in this file", m.Name)
				continue
			}
			//
			names[m.Name] = true
			dst := graph.NewModule(m.Name, doc.Path, m.Span)
			l.prog.AddModule(dst)
			l.pending = append(l.pending, pendingModule{doc, m, dst})
		}
		//
		for _, d := range doc.Devices {
			if names[d.Name] {
				l.sink.Errorf(diag.DuplicateName, doc.Path, d.Span,
					"%q already defined in this file", d.Name)
				continue
			}
			//
			names[d.Name] = true
			l.lowerDevice(doc, d)
		}
	}
}

// lowerDevice expands a device's port tokens into literal ports and applies
// device-variable substitution to its parameter defaults.
func (l *lowerer) lowerDevice(doc *ast.Document, d *ast.Device) {
	dst := &graph.Device{Name: d.Name, File: doc.Path, Span: d.Span}
	// Device ports get a registry of their own; device port patterns cannot
	// reference module axes.
	reg := pattern.NewRegistry()
	ids := make([]pattern.ExprID, 0, len(d.Ports))
	//
	for _, port := range d.Ports {
		id, errs := reg.Register(port.Token)
		//
		if l.reportPattern(doc.Path, port.Span, errs) {
			continue
		}
		//
		ids = append(ids, id)
	}
	//
	l.reportPattern(doc.Path, d.Span, reg.CollectAxes())
	//
	seen := make(map[string]bool)
	//
	for _, id := range ids {
		atoms, errs := reg.Expand(reg.Get(id), l.cfg.MaxExpansion)
		//
		if l.reportPattern(doc.Path, d.Span, errs) {
			continue
		}
		//
		for _, atom := range atoms {
			if seen[atom.Text] {
				l.sink.Errorf(diag.DuplicateName, doc.Path, d.Span,
					"device %q declares port %q more than once", d.Name, atom.Text)
				continue
			}
			//
			seen[atom.Text] = true
			dst.Ports = append(dst.Ports, atom.Text)
		}
	}
	// Device variables are immutable defaults substituted into the device's
	// own parameter values.
	vars := make(map[string]string)
	//
	for _, v := range d.Variables {
		if _, ok := vars[v.Name]; ok {
			l.sink.Errorf(diag.DuplicateName, doc.Path, v.Span,
				"variable %q already defined on device %q", v.Name, d.Name)
			continue
		}
		//
		vars[v.Name] = v.Value
		dst.Variables = append(dst.Variables, graph.Param{Key: v.Name, Value: v.Value})
	}
	//
	dst.Params = l.substituteParams(doc.Path, d.Params, vars)
	//
	for _, b := range d.Backends {
		dst.Backends = append(dst.Backends, graph.BackendDef{
			Name:     b.Name,
			Template: b.Template,
			Params:   l.substituteParams(doc.Path, b.Params, vars),
			Props:    renderParams(b.Props),
		})
	}
	//
	l.prog.AddDevice(dst)
}

// lowerModule lowers one module body: variables, then instances, then nets.
func (l *lowerer) lowerModule(doc *ast.Document, src *ast.Module, dst *graph.Module) {
	l.lowerVariables(doc, src, dst)
	// Instances, in authored order.
	instNames := make(map[string]bool)
	//
	for _, inst := range src.Instances {
		if instNames[inst.Name] {
			l.sink.Errorf(diag.DuplicateName, doc.Path, inst.Span,
				"instance %q already defined in module %q", inst.Name, src.Name)
			continue
		}
		//
		instNames[inst.Name] = true
		l.lowerInstance(doc, dst, inst)
	}
	// Nets, first pass: names, export markers, schematic hints.
	var (
		netNames = make(map[string]bool)
		lowered  []*graph.Net
		sources  []*ast.Net
	)
	//
	for _, net := range src.Nets {
		raw := strings.TrimPrefix(net.Name, "$")
		//
		if raw == "" {
			l.sink.Errorf(diag.InvalidPatternSyntax, doc.Path, net.Span, "empty net name")
			continue
		} else if netNames[raw] {
			l.sink.Errorf(diag.DuplicateName, doc.Path, net.Span,
				"net %q already defined in module %q", raw, src.Name)
			continue
		}
		//
		netNames[raw] = true
		//
		id, errs := dst.Patterns.Register(raw)
		//
		if l.reportPattern(doc.Path, net.Span, errs) {
			continue
		}
		//
		n := &graph.Net{Name: id, Exported: net.Name != raw, Span: net.Span}
		dst.AddNet(n)
		//
		if n.Exported {
			dst.PortOrder = append(dst.PortOrder, n.ID)
		}
		//
		if len(net.Groups) > 0 {
			hints := &graph.NetHints{}
			//
			for _, g := range net.Groups {
				hints.Groups = append(hints.Groups, graph.HintGroup{Start: g.Start, Count: g.Count})
			}
			//
			dst.Hints[n.ID] = hints
		}
		//
		lowered = append(lowered, n)
		sources = append(sources, net)
	}
	// With every expression of the module registered, the named-axis table
	// can be built.
	l.reportPattern(doc.Path, src.Span, dst.Patterns.CollectAxes())
	// Instance atoms are needed up front for wildcard endpoints.
	instAtoms := l.expandInstanceNames(doc, dst)
	// Nets, second pass: endpoints and binding plans.
	for i, n := range lowered {
		l.lowerNet(doc, dst, n, sources[i], instAtoms)
	}
	//
	log.Debugf("lowered module %s (%d instances, %d nets, %d endpoints)",
		dst.Name, len(dst.Instances), len(dst.Nets), len(dst.Endpoints))
}

func (l *lowerer) lowerVariables(doc *ast.Document, src *ast.Module, dst *graph.Module) {
	seen := make(map[string]bool)
	//
	for _, v := range src.Variables {
		if seen[v.Name] {
			l.sink.Errorf(diag.DuplicateName, doc.Path, v.Span,
				"variable %q already defined in module %q", v.Name, src.Name)
			continue
		}
		//
		seen[v.Name] = true
		dst.Variables = append(dst.Variables, graph.Param{Key: v.Name, Value: v.Value})
		// A variable sharing its name with an authored parameter key is
		// almost certainly a mistake.
		for _, inst := range src.Instances {
			if containsParamKey(inst.Expr, v.Name) {
				l.sink.Warnf(diag.VariableShadowsParameter, doc.Path, v.Span,
					"variable %q shadows a parameter of instance %q", v.Name, inst.Name)
				break
			}
		}
	}
}

// lowerInstance parses one instance expression, resolves its type token and
// registers its name and parameter expressions.
func (l *lowerer) lowerInstance(doc *ast.Document, dst *graph.Module, inst *ast.Instance) {
	fields := strings.Fields(inst.Expr)
	//
	if len(fields) == 0 {
		l.sink.Errorf(diag.InvalidInstanceExpression, doc.Path, inst.ExprSpan,
			"empty instance expression for %q", inst.Name)
		//
		return
	}
	// Remaining tokens must be key=value parameters.
	var (
		params []graph.InstParam
		keys   = make(map[string]bool)
		ok     = true
	)
	//
	for _, field := range fields[1:] {
		kv := kvRegexp.FindStringSubmatch(field)
		//
		if kv == nil {
			l.sink.Errorf(diag.InvalidInstanceExpression, doc.Path, inst.ExprSpan,
				"malformed parameter %q (expected key=value)", field)
			//
			ok = false
			//
			continue
		} else if keys[kv[1]] {
			l.sink.Errorf(diag.InvalidInstanceExpression, doc.Path, inst.ExprSpan,
				"parameter %q given more than once", kv[1])
			//
			ok = false
			//
			continue
		}
		//
		keys[kv[1]] = true
		//
		id, errs := dst.Patterns.Register(kv[2])
		//
		if l.reportPattern(doc.Path, inst.ExprSpan, errs) {
			ok = false
			continue
		}
		//
		params = append(params, graph.InstParam{Key: kv[1], Value: id, Span: inst.ExprSpan})
	}
	// Resolve the type token.
	kind, refModule, refDevice, resolved := l.resolveType(doc, fields[0], inst.ExprSpan)
	//
	if !ok || !resolved {
		return
	}
	// Register the name expression.
	id, errs := dst.Patterns.Register(inst.Name)
	//
	if l.reportPattern(doc.Path, inst.Span, errs) {
		return
	}
	//
	expr := dst.Patterns.Get(id)
	//
	switch {
	case expr.HasWildcard():
		l.sink.Errorf(diag.WildcardNotAllowed, doc.Path, inst.Span,
			"wildcard not allowed in instance name %q", inst.Name)
		return
	case strings.Contains(inst.Name, "."):
		l.sink.Errorf(diag.InvalidPatternSyntax, doc.Path, inst.Span,
			"instance name %q cannot contain '.'", inst.Name)
		return
	}
	//
	dst.AddInstance(&graph.Instance{
		Name:      id,
		RefKind:   kind,
		RefModule: refModule,
		RefDevice: refDevice,
		RefRaw:    fields[0],
		Params:    params,
		Span:      inst.Span,
	})
}

// resolveType binds a type token to a module or device.  Qualified tokens
// ("alias.name") resolve through the file's name environment; unqualified
// tokens resolve locally, modules before devices.
func (l *lowerer) resolveType(doc *ast.Document, token string, span source.Span) (graph.RefKind, graph.ModuleID, graph.DeviceID, bool) {
	if !typeRegexp.MatchString(token) {
		l.sink.Errorf(diag.InvalidInstanceExpression, doc.Path, span,
			"malformed type token %q", token)
		//
		return 0, 0, 0, false
	}
	//
	sym := graph.Symbol{File: doc.Path, Name: token}
	//
	if i := strings.IndexByte(token, '.'); i >= 0 {
		alias, name := token[:i], token[i+1:]
		//
		fileID, ok := l.db.Env(doc.Path).Lookup(alias)
		//
		if !ok {
			l.sink.Errorf(diag.UnknownImportAlias, doc.Path, span,
				"unknown import alias %q", alias)
			//
			return 0, 0, 0, false
		}
		//
		sym = graph.Symbol{File: fileID, Name: name}
	}
	//
	if id, ok := l.prog.LookupModule(sym); ok {
		return graph.MODULE_REF, id, 0, true
	} else if id, ok := l.prog.LookupDevice(sym); ok {
		return graph.DEVICE_REF, 0, id, true
	}
	//
	l.sink.Errorf(diag.UnresolvedReference, doc.Path, span,
		"unknown module or device %q", token)
	//
	return 0, 0, 0, false
}

// expandInstanceNames materializes every instance atom of the module, in
// authored then expansion order.  These drive wildcard endpoints and early
// expansion-bound errors.
func (l *lowerer) expandInstanceNames(doc *ast.Document, dst *graph.Module) []string {
	var names []string
	//
	for _, inst := range dst.Instances {
		atoms, errs := dst.Patterns.Expand(dst.Patterns.Get(inst.Name), l.cfg.MaxExpansion)
		//
		if l.reportPattern(doc.Path, inst.Span, errs) {
			continue
		}
		//
		for _, atom := range atoms {
			names = append(names, atom.Text)
		}
	}
	//
	return names
}

// lowerNet expands a net's name expression and binds each of its endpoint
// tokens.
func (l *lowerer) lowerNet(doc *ast.Document, dst *graph.Module, n *graph.Net, src *ast.Net, instAtoms []string) {
	netExpr := dst.Patterns.Get(n.Name)
	//
	if netExpr.HasWildcard() {
		l.sink.Errorf(diag.WildcardNotAllowed, doc.Path, n.Span,
			"wildcard not allowed in net name %q", netExpr.Raw)
		//
		return
	}
	//
	netAtoms, errs := dst.Patterns.Expand(netExpr, l.cfg.MaxExpansion)
	//
	if l.reportPattern(doc.Path, n.Span, errs) {
		return
	}
	//
	for _, ep := range src.Endpoints {
		l.lowerEndpoint(doc, dst, n, netExpr, netAtoms, ep, instAtoms)
	}
}

// lowerEndpoint registers one endpoint token, expands it (materializing
// wildcards against the instance atoms) and computes its binding plan.
func (l *lowerer) lowerEndpoint(doc *ast.Document, dst *graph.Module, n *graph.Net,
	netExpr *pattern.Expr, netAtoms []pattern.Atom, ep *ast.EndpointRef, instAtoms []string) {
	//
	reg := dst.Patterns
	id, errs := reg.Register(ep.Token)
	//
	if l.reportPattern(doc.Path, ep.Span, errs) {
		return
	}
	//
	var (
		expr     = reg.Get(id)
		endAtoms []pattern.Atom
	)
	//
	if expr.HasWildcard() {
		// The wildcard stands for instance atoms; it requires a scalar net
		// and is materialized here, after instance lowering.
		if len(netAtoms) != 1 {
			l.sink.Errorf(diag.WildcardNotAllowed, doc.Path, ep.Span,
				"wildcard endpoint %q requires a scalar net", ep.Token)
			//
			return
		}
		//
		names, ok := l.matchWildcard(doc, ep, instAtoms)
		//
		if !ok {
			return
		}
		//
		id = reg.RegisterLiterals(names)
		expr = reg.Get(id)
	}
	//
	endAtoms, errs = reg.Expand(expr, l.cfg.MaxExpansion)
	//
	if l.reportPattern(doc.Path, ep.Span, errs) {
		return
	}
	// Every endpoint atom must split into an instance atom and a pin atom.
	for _, atom := range endAtoms {
		if strings.Count(atom.Text, ".") != 1 {
			l.sink.Errorf(diag.EndpointMissingDot, doc.Path, ep.Span,
				"endpoint %q must contain exactly one '.'", atom.Text)
			//
			return
		}
		//
		if i := strings.IndexByte(atom.Text, '.'); i == 0 || i == len(atom.Text)-1 {
			l.sink.Errorf(diag.InvalidEndpointExpression, doc.Path, ep.Span,
				"endpoint %q lacks an instance or pin name", atom.Text)
			//
			return
		}
	}
	//
	plan, errs := reg.Bind(netExpr, expr, netAtoms, endAtoms)
	//
	if l.reportPattern(doc.Path, ep.Span, errs) {
		return
	}
	//
	dst.AddEndpoint(&graph.Endpoint{Net: n.ID, Port: id, Plan: plan, Span: ep.Span})
}

// matchWildcard resolves a wildcard endpoint token against the module's
// instance atoms, producing the literal endpoint names it stands for.
func (l *lowerer) matchWildcard(doc *ast.Document, ep *ast.EndpointRef, instAtoms []string) ([]string, bool) {
	if strings.Count(ep.Token, ".") != 1 || strings.Count(ep.Token, "*") != 1 {
		l.sink.Errorf(diag.InvalidEndpointExpression, doc.Path, ep.Span,
			"wildcard endpoint %q must be of the form prefix*suffix.pin", ep.Token)
		//
		return nil, false
	}
	//
	dot := strings.IndexByte(ep.Token, '.')
	instPat, pin := ep.Token[:dot], ep.Token[dot+1:]
	star := strings.IndexByte(instPat, '*')
	//
	if star < 0 || strings.ContainsAny(instPat, "<>;:|") || strings.ContainsAny(pin, "<>;:|*") || pin == "" {
		l.sink.Errorf(diag.InvalidEndpointExpression, doc.Path, ep.Span,
			"wildcard endpoint %q allows only literal text around '*'", ep.Token)
		//
		return nil, false
	}
	//
	prefix, suffix := instPat[:star], instPat[star+1:]
	//
	var names []string
	//
	for _, name := range instAtoms {
		if len(name) >= len(prefix)+len(suffix) &&
			strings.HasPrefix(name, prefix) && strings.HasSuffix(name, suffix) {
			names = append(names, name+"."+pin)
		}
	}
	//
	return names, true
}

// substituteParams renders a parameter list, applying variable substitution
// to each value.
func (l *lowerer) substituteParams(file string, params []*ast.Param, vars map[string]string) []graph.Param {
	var result []graph.Param
	//
	for _, p := range params {
		value, missing := substitute(p.Value, vars)
		//
		for _, name := range missing {
			l.sink.Errorf(diag.UndefinedVariable, file, p.Span,
				"undefined variable %q in parameter %q", name, p.Key)
		}
		//
		result = append(result, graph.Param{Key: p.Key, Value: value})
	}
	//
	return result
}

func renderParams(params []*ast.Param) []graph.Param {
	var result []graph.Param
	//
	for _, p := range params {
		result = append(result, graph.Param{Key: p.Key, Value: p.Value})
	}
	//
	return result
}

// containsParamKey checks whether an instance expression authors the given
// parameter key.
func containsParamKey(expr string, key string) bool {
	fields := strings.Fields(expr)
	//
	for i := 1; i < len(fields); i++ {
		if kv := kvRegexp.FindStringSubmatch(fields[i]); kv != nil && kv[1] == key {
			return true
		}
	}
	//
	return false
}

// reportPattern converts pattern service errors into diagnostics anchored at
// the given span, refining the column by the error offset where possible.
func (l *lowerer) reportPattern(file string, span source.Span, errs []pattern.Error) bool {
	for _, e := range errs {
		at := span
		//
		if e.Offset > 0 && span.Start.Line == span.End.Line {
			at.Start.Column += e.Offset
			at.End = at.Start
		}
		//
		l.sink.Report(diag.New(diag.ERROR, e.Code, file, at, "%s", e.Message))
	}
	//
	return len(errs) > 0
}
