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
package pattern

import (
	"fmt"
	"slices"
	"strings"

	"github.com/asdl-lang/asdl-go/pkg/asdl/diag"
)

// Registry holds all pattern expressions of a single module, keyed by opaque
// expression identifiers, together with the module's named-axis table.  The
// axis table is populated by CollectAxes once every expression of the module
// has been registered.
type Registry struct {
	exprs []*Expr
	axes  map[string]*Axis
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{nil, make(map[string]*Axis)}
}

// Register parses a raw token and records the resulting expression, returning
// its identifier.  An identifier is returned even when parsing failed, so
// that graph construction can proceed; expressions registered with errors
// must not be expanded.
func (r *Registry) Register(raw string) (ExprID, []Error) {
	expr, errs := Parse(raw)
	id := ExprID(len(r.exprs))
	r.exprs = append(r.exprs, expr)
	//
	return id, errs
}

// RegisterLiterals records an expression whose atoms are exactly the given
// literal texts, one spliced segment per text.  This is how wildcard
// endpoints are materialized once the instance atoms they stand for are
// known.
func (r *Registry) RegisterLiterals(texts []string) ExprID {
	var expr Expr
	//
	for _, text := range texts {
		expr.Segments = append(expr.Segments,
			Segment{[]Token{{Kind: LITERAL, Text: text}}})
	}
	// An empty expansion still needs one (empty) segment removed.
	if len(texts) == 0 {
		expr.Segments = []Segment{}
	}
	//
	expr.Raw = strings.Join(texts, ";")
	id := ExprID(len(r.exprs))
	r.exprs = append(r.exprs, &expr)
	//
	return id
}

// Get returns the expression registered under the given identifier.
func (r *Registry) Get(id ExprID) *Expr {
	return r.exprs[id]
}

// Count returns the number of registered expressions.
func (r *Registry) Count() int {
	return len(r.exprs)
}

// CollectAxes scans every registered expression for tagged groups and builds
// the module's named-axis table.  Two tagged groups sharing an axis
// identifier must agree exactly on their labels; a disagreement is reported
// as a conflict.
func (r *Registry) CollectAxes() []Error {
	var errors []Error
	//
	for _, expr := range r.exprs {
		for _, g := range expr.groups() {
			// Only groups carrying their own labels define an axis.
			if g.Tag == "" || g.Kind == NAMED_REF {
				continue
			}
			//
			if axis, ok := r.axes[g.Tag]; ok {
				if !slices.Equal(axis.Labels, g.Labels) {
					errors = append(errors, Error{diag.DuplicateAxisId, 0,
						fmt.Sprintf("axis %q defined with conflicting labels", g.Tag)})
				}
			} else {
				r.axes[g.Tag] = &Axis{g.Tag, g.Kind, g.Labels, len(r.axes)}
			}
		}
	}
	//
	return errors
}

// Axis looks up a named axis in the module's axis table.
func (r *Registry) Axis(name string) (*Axis, bool) {
	axis, ok := r.axes[name]
	return axis, ok
}

// Axes returns the named axes of this module in definition order.
func (r *Registry) Axes() []*Axis {
	axes := make([]*Axis, 0, len(r.axes))
	//
	for _, axis := range r.axes {
		axes = append(axes, axis)
	}
	//
	slices.SortFunc(axes, func(l, r *Axis) int { return l.Order - r.Order })
	//
	return axes
}

// labels returns the label sequence of a group, resolving named references
// through the axis table.
func (r *Registry) labels(g *Group) ([]string, *Error) {
	if g.Kind != NAMED_REF {
		return g.Labels, nil
	}
	//
	if axis, ok := r.axes[g.Ref]; ok {
		return axis.Labels, nil
	}
	//
	err := Error{diag.UnresolvedReference, 0, fmt.Sprintf("unknown named pattern %q", "@"+g.Ref)}
	//
	return nil, &err
}
