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

// Plan records how the atoms of an endpoint expression bind to the atoms of
// its net expression.  The three legal shapes are index-pairwise binding
// (equal lengths), scalar broadcast (single net atom), and named-axis
// broadcast (net axes form a subsequence of endpoint axes).
type Plan struct {
	// Flattened expansion lengths of the two sides.
	NetLen, EndLen int
	// Axes shared by both sides (named-axis broadcast only).
	Shared []string
	// Axes of the endpoint side not present on the net side.
	Extra []string
	// Net atom index for each endpoint atom index.
	Table []int
}

// NetAtom returns the net atom index a given endpoint atom binds to.
func (p *Plan) NetAtom(endIndex int) int {
	return p.Table[endIndex]
}

// Bind computes the binding plan between a net expression and one of its
// endpoint expressions, given their expanded atoms.
func (r *Registry) Bind(netExpr *Expr, endExpr *Expr, netAtoms []Atom, endAtoms []Atom) (*Plan, []Error) {
	plan := &Plan{NetLen: len(netAtoms), EndLen: len(endAtoms)}
	//
	switch {
	case plan.NetLen == plan.EndLen:
		// Pairwise binding by index.
		plan.Table = make([]int, plan.EndLen)
		//
		for i := range plan.Table {
			plan.Table[i] = i
		}
	case plan.NetLen == 1:
		// Scalar broadcast: every endpoint atom binds the single net atom.
		plan.Table = make([]int, plan.EndLen)
	case plan.NetLen > 1:
		if errs := r.broadcast(plan, netExpr, endExpr, netAtoms, endAtoms); len(errs) > 0 {
			return nil, errs
		}
	default:
		return nil, []Error{mismatch(netExpr, endExpr, plan)}
	}
	//
	return plan, nil
}

// broadcast computes the named-axis broadcast mapping, in which each net atom
// is replicated across the Cartesian product of the endpoint side's extra
// axes.
func (r *Registry) broadcast(plan *Plan, netExpr *Expr, endExpr *Expr, netAtoms []Atom, endAtoms []Atom) []Error {
	// Both sides must be pattern-closed.
	if netExpr.HasAnonymousGroups() || endExpr.HasAnonymousGroups() {
		return []Error{{diag.BindingLengthMismatch, 0, fmt.Sprintf(
			"cannot broadcast %q onto %q: anonymous pattern groups participate", netExpr.Raw, endExpr.Raw)}}
	}
	//
	var (
		netAxes = netExpr.AxisSequence()
		endAxes = endExpr.AxisSequence()
	)
	// Net axes must occur as a left-to-right subsequence of endpoint axes.
	if len(netAxes) == 0 || !isSubsequence(netAxes, endAxes) {
		return []Error{{diag.BindingLengthMismatch, 0, fmt.Sprintf(
			"axes of %q do not form a subsequence of the axes of %q", netExpr.Raw, endExpr.Raw)}}
	}
	// Shared axes must agree on size; extra axes determine the replication
	// factor.
	factor := 1
	//
	for _, axis := range endAxes {
		size, err := r.axisSize(endExpr, axis)
		//
		if err != nil {
			return []Error{*err}
		}
		//
		if slices.Contains(netAxes, axis) {
			netSize, err := r.axisSize(netExpr, axis)
			//
			if err != nil {
				return []Error{*err}
			} else if netSize != size {
				return []Error{{diag.AxisSizeMismatch, 0, fmt.Sprintf(
					"axis %q has size %d in %q but %d in %q", axis, netSize, netExpr.Raw, size, endExpr.Raw)}}
			}
			//
			plan.Shared = append(plan.Shared, axis)
		} else {
			factor *= size
			plan.Extra = append(plan.Extra, axis)
		}
	}
	//
	if plan.EndLen != plan.NetLen*factor {
		return []Error{mismatch(netExpr, endExpr, plan)}
	}
	// Index net atoms by their coordinates along the net axes.
	index := make(map[string]int, plan.NetLen)
	//
	for i, atom := range netAtoms {
		key, ok := project(atom, netAxes)
		//
		if !ok {
			return []Error{mismatch(netExpr, endExpr, plan)}
		}
		//
		index[key] = i
	}
	// Map each endpoint atom through its shared coordinates.
	plan.Table = make([]int, plan.EndLen)
	//
	for i, atom := range endAtoms {
		key, ok := project(atom, netAxes)
		//
		if !ok {
			return []Error{mismatch(netExpr, endExpr, plan)}
		}
		//
		target, ok := index[key]
		//
		if !ok {
			return []Error{mismatch(netExpr, endExpr, plan)}
		}
		//
		plan.Table[i] = target
	}
	//
	return nil
}

// axisSize determines the size of a given axis within an expression.
func (r *Registry) axisSize(expr *Expr, axis string) (int, *Error) {
	for _, g := range expr.groups() {
		if g.AxisID() == axis {
			labels, err := r.labels(g)
			//
			if err != nil {
				return 0, err
			}
			//
			return len(labels), nil
		}
	}
	// Unreachable provided the axis came from the expression's own sequence.
	err := Error{diag.BindingLengthMismatch, 0, fmt.Sprintf("axis %q not present in %q", axis, expr.Raw)}
	//
	return 0, &err
}

// project renders an atom's coordinates along the given axes as a lookup key.
func project(atom Atom, axes []string) (string, bool) {
	var builder strings.Builder
	//
	for _, axis := range axes {
		index, ok := atom.Coord(axis)
		//
		if !ok {
			return "", false
		}
		//
		fmt.Fprintf(&builder, "%d,", index)
	}
	//
	return builder.String(), true
}

// isSubsequence checks whether xs occurs (in order, not necessarily
// contiguously) within ys.
func isSubsequence(xs []string, ys []string) bool {
	i := 0
	//
	for _, y := range ys {
		if i < len(xs) && xs[i] == y {
			i++
		}
	}
	//
	return i == len(xs)
}

func mismatch(netExpr *Expr, endExpr *Expr, plan *Plan) Error {
	return Error{diag.BindingLengthMismatch, 0, fmt.Sprintf(
		"cannot bind %d atoms of %q onto %d atoms of %q", plan.EndLen, endExpr.Raw, plan.NetLen, netExpr.Raw)}
}
