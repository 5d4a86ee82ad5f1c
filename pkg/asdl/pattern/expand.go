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

	"github.com/asdl-lang/asdl-go/pkg/asdl/diag"
)

// DefaultMaxExpansion bounds how many atoms a single expression may expand
// to, unless overridden by configuration.
const DefaultMaxExpansion = 10000

// Atom is a single literal name produced by pattern expansion, together with
// its coordinates along the non-anonymous axes of the originating expression.
// Coordinates drive the broadcast binding algebra.
type Atom struct {
	// Literal text of this atom.
	Text string
	// Label index along each non-anonymous axis this atom was produced from.
	coords map[string]int
}

// Coord returns this atom's label index along the given axis, if the atom
// carries a coordinate for it.
func (a Atom) Coord(axis string) (int, bool) {
	index, ok := a.coords[axis]
	return index, ok
}

// Length computes the expansion length of an expression without materializing
// its atoms: the product of group sizes within each segment, summed across
// spliced segments.  This runs before expansion proper so that oversized
// expansions are rejected early.
func (r *Registry) Length(e *Expr) (int, []Error) {
	var (
		total  int
		errors []Error
	)
	//
	for _, seg := range e.Segments {
		size := 1
		//
		for _, tok := range seg.Tokens {
			switch tok.Kind {
			case GROUP:
				labels, err := r.labels(tok.Group)
				//
				if err != nil {
					errors = append(errors, *err)
				} else {
					size *= len(labels)
				}
			case WILDCARD:
				errors = append(errors, Error{diag.WildcardNotAllowed, 0,
					fmt.Sprintf("wildcard in %q cannot be expanded directly", e.Raw)})
			}
		}
		//
		total += size
	}
	//
	return total, errors
}

// Expand materializes the atoms of an expression.  The limit bounds the
// expansion length (DefaultMaxExpansion when zero); exceeding it is an error
// and nothing is materialized.
func (r *Registry) Expand(e *Expr, limit int) ([]Atom, []Error) {
	if limit <= 0 {
		limit = DefaultMaxExpansion
	}
	// Determine length before materializing anything.
	length, errors := r.Length(e)
	//
	if len(errors) > 0 {
		return nil, errors
	} else if length > limit {
		return nil, []Error{{diag.ExpansionTooLarge, 0,
			fmt.Sprintf("%q expands to %d atoms, exceeding the maximum of %d", e.Raw, length, limit)}}
	}
	//
	atoms := make([]Atom, 0, length)
	//
	for _, seg := range e.Segments {
		atoms = append(atoms, r.expandSegment(seg)...)
	}
	//
	return atoms, nil
}

// expandSegment expands one segment via a running Cartesian product over its
// tokens.  Label substitution renders a group as "_<label>" whenever text
// precedes it within the atom, and as the bare label otherwise.
func (r *Registry) expandSegment(seg Segment) []Atom {
	partials := []Atom{{Text: "", coords: nil}}
	//
	for _, tok := range seg.Tokens {
		switch tok.Kind {
		case LITERAL:
			for i := range partials {
				partials[i].Text += tok.Text
			}
		case GROUP:
			labels, err := r.labels(tok.Group)
			// Unresolvable references were rejected by Length already.
			if err != nil {
				return nil
			}
			//
			axis := tok.Group.AxisID()
			next := make([]Atom, 0, len(partials)*len(labels))
			//
			for _, partial := range partials {
				for i, label := range labels {
					text := partial.Text
					//
					if text != "" {
						text += "_"
					}
					//
					next = append(next, Atom{text + label, extend(partial.coords, axis, i)})
				}
			}
			//
			partials = next
		}
	}
	//
	return partials
}

// extend copies a coordinate map, adding one coordinate for non-anonymous
// axes.
func extend(coords map[string]int, axis string, index int) map[string]int {
	if axis == "" && coords == nil {
		return nil
	}
	//
	extended := make(map[string]int, len(coords)+1)
	//
	for k, v := range coords {
		extended[k] = v
	}
	//
	if axis != "" {
		extended[axis] = index
	}
	//
	return extended
}
