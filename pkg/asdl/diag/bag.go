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
package diag

import (
	"slices"

	"github.com/asdl-lang/asdl-go/pkg/util/source"
)

// Bag is an append-only collector of diagnostics.  Diagnostics are appended in
// arrival order as the pipeline runs; the deterministic (severity, file,
// position, code) sort is applied once, at output time.  A bag is threaded
// through the pipeline explicitly, never held in global state.
type Bag struct {
	items []Diagnostic
	// Number of ERROR diagnostics appended so far.
	errors int
}

// NewBag constructs an initially empty diagnostics bag.
func NewBag() *Bag {
	return &Bag{}
}

// Report appends one or more diagnostics to this bag.
func (b *Bag) Report(diagnostics ...Diagnostic) {
	for _, d := range diagnostics {
		if d.Severity == ERROR {
			b.errors++
		}
	}
	//
	b.items = append(b.items, diagnostics...)
}

// Errorf appends an ERROR diagnostic.
func (b *Bag) Errorf(code Code, file string, span source.Span, format string, args ...any) {
	b.Report(New(ERROR, code, file, span, format, args...))
}

// Warnf appends a WARNING diagnostic.
func (b *Bag) Warnf(code Code, file string, span source.Span, format string, args ...any) {
	b.Report(New(WARNING, code, file, span, format, args...))
}

// Infof appends an INFO diagnostic.
func (b *Bag) Infof(code Code, file string, span source.Span, format string, args ...any) {
	b.Report(New(INFO, code, file, span, format, args...))
}

// HasErrors reports whether any ERROR diagnostic has been appended.  Pipeline
// stages use this to decide whether downstream stages should run.
func (b *Bag) HasErrors() bool {
	return b.errors > 0
}

// Len returns the number of diagnostics collected so far.
func (b *Bag) Len() int {
	return len(b.items)
}

// Items returns the collected diagnostics in arrival order.  The returned
// slice is shared with the bag and must not be mutated.
func (b *Bag) Items() []Diagnostic {
	return b.items
}

// Sorted returns the collected diagnostics in the deterministic reporting
// order.  The sort is stable, hence diagnostics which compare equal retain
// their arrival order.
func (b *Bag) Sorted() []Diagnostic {
	sorted := slices.Clone(b.items)
	slices.SortStableFunc(sorted, Compare)
	//
	return sorted
}
