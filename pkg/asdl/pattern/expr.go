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

// Package pattern implements the pattern expression service: parsing of
// pattern tokens, axis tagging and the named-axis table, expansion into
// literal atoms, and the broadcast binding algebra between net and endpoint
// expressions.  Everything in this package is a pure function over a
// per-module registry.
package pattern

import (
	"strconv"

	"github.com/asdl-lang/asdl-go/pkg/asdl/diag"
)

// ExprID is an opaque identifier for a pattern expression within a module's
// registry.
type ExprID uint

// GroupKind discriminates the forms a pattern group can take.
type GroupKind uint8

const (
	// ENUM is an enumeration group, e.g. "<a|b|c>".
	ENUM GroupKind = iota
	// RANGE is an inclusive numeric range group, e.g. "<7:0>".
	RANGE
	// NAMED_REF is a reference to a module-local named axis, e.g. "<@bits>".
	NAMED_REF
)

// TokenKind discriminates the forms a token can take within a segment.
type TokenKind uint8

const (
	// LITERAL is a fragment of literal text.
	LITERAL TokenKind = iota
	// GROUP is a pattern group enclosed in angle brackets.
	GROUP
	// WILDCARD is the reserved "*" token, valid only in the instance-name
	// position of an endpoint expression.
	WILDCARD
)

// Token is a single element of a segment: a literal fragment, a pattern
// group, or the wildcard.  Tokens are tagged variants; exactly one of the
// payload fields is meaningful for a given kind.
type Token struct {
	Kind TokenKind
	// Literal text (LITERAL only).
	Text string
	// Pattern group (GROUP only).
	Group *Group
}

// Group is a single pattern group.  Regardless of kind, expansion of a group
// substitutes one label per atom.
type Group struct {
	Kind GroupKind
	// Explicit axis tag (empty if the group is untagged).
	Tag string
	// Referenced named axis (NAMED_REF only).
	Ref string
	// Ordered labels of this group (empty for NAMED_REF, whose labels live in
	// the axis table).
	Labels []string
	// Range endpoints (RANGE only); the range is inclusive and runs in the
	// authored direction.
	From, To int
}

// AxisID returns the axis identifier contributed by this group: the explicit
// tag if present, otherwise the referenced axis name, otherwise empty (the
// group is anonymous).
func (g *Group) AxisID() string {
	if g.Tag != "" {
		return g.Tag
	}
	//
	return g.Ref
}

// Anonymous reports whether this group carries no axis identifier.
func (g *Group) Anonymous() bool {
	return g.AxisID() == ""
}

// Segment is a sequence of tokens; segments are joined by the splice
// operator ";" and expand independently of one another.
type Segment struct {
	Tokens []Token
}

// Expr is a parsed pattern expression: one or more spliced segments.  A
// pattern-free token still parses to an expression with a single literal
// segment.
type Expr struct {
	// Raw text this expression was parsed from.
	Raw string
	// Spliced segments in authored order.
	Segments []Segment
}

// IsPattern reports whether this expression contains any pattern construct
// (group, wildcard or splice).
func (e *Expr) IsPattern() bool {
	if len(e.Segments) > 1 {
		return true
	}
	//
	for _, seg := range e.Segments {
		for _, tok := range seg.Tokens {
			if tok.Kind != LITERAL {
				return true
			}
		}
	}
	//
	return false
}

// HasWildcard reports whether this expression contains the "*" token.
func (e *Expr) HasWildcard() bool {
	for _, seg := range e.Segments {
		for _, tok := range seg.Tokens {
			if tok.Kind == WILDCARD {
				return true
			}
		}
	}
	//
	return false
}

// HasAnonymousGroups reports whether any group of this expression carries no
// axis identifier.  Broadcast binding requires pattern-closed expressions,
// i.e. no anonymous groups on either side.
func (e *Expr) HasAnonymousGroups() bool {
	for _, g := range e.groups() {
		if g.Anonymous() {
			return true
		}
	}
	//
	return false
}

// AxisSequence returns the non-anonymous axis identifiers of this expression
// in left-to-right first-appearance order.
func (e *Expr) AxisSequence() []string {
	var (
		seen = make(map[string]bool)
		seq  []string
	)
	//
	for _, g := range e.groups() {
		if id := g.AxisID(); id != "" && !seen[id] {
			seen[id] = true
			seq = append(seq, id)
		}
	}
	//
	return seq
}

// groups returns all groups of this expression in appearance order.
func (e *Expr) groups() []*Group {
	var groups []*Group
	//
	for _, seg := range e.Segments {
		for _, tok := range seg.Tokens {
			if tok.Kind == GROUP {
				groups = append(groups, tok.Group)
			}
		}
	}
	//
	return groups
}

// Axis describes one labeled dimension of the pattern algebra, as recorded in
// a module's named-axis table.
type Axis struct {
	// Axis identifier (tag or named-pattern name).
	ID string
	// Kind of the defining group.
	Kind GroupKind
	// Ordered labels of this axis.
	Labels []string
	// Appearance order within the module (used for deterministic reporting).
	Order int
}

// Size returns the number of labels along this axis.
func (a *Axis) Size() int {
	return len(a.Labels)
}

// Error is a problem detected by the pattern service.  It carries the
// diagnostic code the problem maps onto, plus a rune offset into the raw
// expression so callers can refine the reported source column.
type Error struct {
	Code    diag.Code
	Offset  int
	Message string
}

func (e Error) Error() string {
	return e.Message
}

// rangeLabels materializes the inclusive label sequence of a range group,
// honouring the authored direction.
func rangeLabels(from int, to int) []string {
	var labels []string
	//
	if from <= to {
		for i := from; i <= to; i++ {
			labels = append(labels, strconv.Itoa(i))
		}
	} else {
		for i := from; i >= to; i-- {
			labels = append(labels, strconv.Itoa(i))
		}
	}
	//
	return labels
}
