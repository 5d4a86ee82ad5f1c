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
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/asdl-lang/asdl-go/pkg/asdl/diag"
)

func Test_Expand_01(t *testing.T) {
	checkExpand(t, "MN", []string{"MN"})
}

func Test_Expand_02(t *testing.T) {
	checkExpand(t, "d<p|n>", []string{"d_p", "d_n"})
}

func Test_Expand_03(t *testing.T) {
	// Single-element enumeration expands to one atom.
	checkExpand(t, "d<a>", []string{"d_a"})
}

func Test_Expand_04(t *testing.T) {
	checkExpand(t, "bus<0:3>", []string{"bus_0", "bus_1", "bus_2", "bus_3"})
}

func Test_Expand_05(t *testing.T) {
	checkExpand(t, "bus<3:0>", []string{"bus_3", "bus_2", "bus_1", "bus_0"})
}

func Test_Expand_06(t *testing.T) {
	// Cartesian product of groups within one segment.
	checkExpand(t, "m<a|b><0:1>", []string{"m_a_0", "m_a_1", "m_b_0", "m_b_1"})
}

func Test_Expand_07(t *testing.T) {
	// Splice sums segments.
	checkExpand(t, "x<0:1>;y", []string{"x_0", "x_1", "y"})
}

func Test_Expand_08(t *testing.T) {
	// A group at the start of an atom takes no separator.
	checkExpand(t, "<p|n>x", []string{"px", "nx"})
}

func Test_Expand_09(t *testing.T) {
	// Endpoint-shaped expansions keep the dot delimiter intact.
	checkExpand(t, "MN_IN<x=p|n>.d", []string{"MN_IN_p.d", "MN_IN_n.d"})
}

func Test_Expand_10(t *testing.T) {
	// Named references resolve through the axis table.
	reg := NewRegistry()
	registerOk(t, reg, "d<bits=0:2>")
	id := registerOk(t, reg, "q<@bits>")
	//
	if errs := reg.CollectAxes(); len(errs) != 0 {
		t.Fatalf("unexpected axis errors: %v", errs)
	}
	//
	atoms, errs := reg.Expand(reg.Get(id), 0)
	//
	if len(errs) != 0 {
		t.Fatalf("unexpected expansion errors: %v", errs)
	}
	//
	checkAtoms(t, atoms, []string{"q_0", "q_1", "q_2"})
}

func Test_Expand_Length(t *testing.T) {
	// The reported length always equals the number of atoms produced.
	for _, raw := range []string{"a", "a<p|n>", "a<0:9><x|y>", "a<1:3>;b;c<0:0>"} {
		reg := NewRegistry()
		id := registerOk(t, reg, raw)
		//
		length, errs := reg.Length(reg.Get(id))
		//
		if len(errs) != 0 {
			t.Fatalf("unexpected length errors for %q: %v", raw, errs)
		}
		//
		atoms, _ := reg.Expand(reg.Get(id), 0)
		//
		if length != len(atoms) {
			t.Errorf("%q: reported length %d but %d atoms", raw, length, len(atoms))
		}
	}
}

func Test_Expand_TooLarge(t *testing.T) {
	reg := NewRegistry()
	id := registerOk(t, reg, "a<0:10000>")
	//
	_, errs := reg.Expand(reg.Get(id), 0)
	//
	if len(errs) != 1 || errs[0].Code != diag.ExpansionTooLarge {
		t.Fatalf("expected ExpansionTooLarge, got %v", errs)
	}
	// Exactly at the bound (10000 atoms) is fine.
	id = registerOk(t, reg, "a<1:10000>")
	//
	if atoms, errs := reg.Expand(reg.Get(id), 0); len(errs) != 0 || len(atoms) != 10000 {
		t.Fatalf("expected 10000 atoms, got %d (%v)", len(atoms), errs)
	}
}

func Test_Expand_UnknownRef(t *testing.T) {
	reg := NewRegistry()
	id := registerOk(t, reg, "q<@nowhere>")
	//
	if errs := reg.CollectAxes(); len(errs) != 0 {
		t.Fatalf("unexpected axis errors: %v", errs)
	}
	//
	_, errs := reg.Expand(reg.Get(id), 0)
	//
	if len(errs) == 0 || errs[0].Code != diag.UnresolvedReference {
		t.Fatalf("expected UnresolvedReference, got %v", errs)
	}
}

func Test_Axes_Conflict(t *testing.T) {
	reg := NewRegistry()
	registerOk(t, reg, "d<x=p|n>")
	registerOk(t, reg, "e<x=a|b>")
	//
	errs := reg.CollectAxes()
	//
	if len(errs) != 1 || errs[0].Code != diag.DuplicateAxisId {
		t.Fatalf("expected DuplicateAxisId, got %v", errs)
	}
}

// ===================================================================
// Test Helpers
// ===================================================================

func registerOk(t *testing.T, reg *Registry, raw string) ExprID {
	t.Helper()
	//
	id, errs := reg.Register(raw)
	//
	if len(errs) != 0 {
		t.Fatalf("unexpected errors registering %q: %v", raw, errs)
	}
	//
	return id
}

func checkExpand(t *testing.T, raw string, want []string) {
	t.Helper()
	//
	reg := NewRegistry()
	id := registerOk(t, reg, raw)
	//
	if errs := reg.CollectAxes(); len(errs) != 0 {
		t.Fatalf("unexpected axis errors: %v", errs)
	}
	//
	atoms, errs := reg.Expand(reg.Get(id), 0)
	//
	if len(errs) != 0 {
		t.Fatalf("unexpected expansion errors for %q: %v", raw, errs)
	}
	//
	checkAtoms(t, atoms, want)
}

func checkAtoms(t *testing.T, atoms []Atom, want []string) {
	t.Helper()
	//
	got := make([]string, len(atoms))
	//
	for i, atom := range atoms {
		got[i] = atom.Text
	}
	//
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("unexpected atoms (-want +got):\n%s", diff)
	}
}
