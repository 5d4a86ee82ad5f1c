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
package ast

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/asdl-lang/asdl-go/pkg/util/source"
)

func Test_Decode_01(t *testing.T) {
	doc := parseOk(t, `
top: inv
modules:
  inv:
    instances:
      MN: nfet m=1
      MP: pfet m=1
    nets:
      $in:  [MN.g, MP.g]
      $out: [MN.d, MP.d]
devices:
  nfet:
    ports: [d, g, s]
    backends: { sim.ngspice: { template: "M{name} {ports} nmos m={m}" } }
`)
	//
	if doc.Top != "inv" {
		t.Errorf("expected top %q, got %q", "inv", doc.Top)
	}
	//
	if len(doc.Modules) != 1 || len(doc.Devices) != 1 {
		t.Fatalf("expected 1 module and 1 device")
	}
	//
	m := doc.Modules[0]
	// Authored order must be preserved.
	if m.Instances[0].Name != "MN" || m.Instances[1].Name != "MP" {
		t.Errorf("instance order not preserved")
	}
	//
	if m.Nets[0].Name != "$in" || m.Nets[1].Name != "$out" {
		t.Errorf("net order not preserved")
	}
	//
	if diff := cmp.Diff("nfet m=1", m.Instances[0].Expr); diff != "" {
		t.Errorf("unexpected instance expression (-want +got):\n%s", diff)
	}
	//
	d := doc.Devices[0]
	//
	if diff := cmp.Diff([]string{"d", "g", "s"}, portTokens(d)); diff != "" {
		t.Errorf("unexpected ports (-want +got):\n%s", diff)
	}
	//
	if len(d.Backends) != 1 || d.Backends[0].Name != "sim.ngspice" {
		t.Fatalf("expected one backend entry")
	}
	//
	if d.Backends[0].Template != "M{name} {ports} nmos m={m}" {
		t.Errorf("unexpected template %q", d.Backends[0].Template)
	}
}

func Test_Decode_02(t *testing.T) {
	// List-of-lists net values flatten, with group slices preserved.
	doc := parseOk(t, `
modules:
  m:
    nets:
      x: [[A.p, B.p], [C.p]]
      y: [A.q]
`)
	//
	net := doc.Modules[0].Nets[0]
	//
	if len(net.Endpoints) != 3 {
		t.Fatalf("expected 3 flattened endpoints, got %d", len(net.Endpoints))
	}
	//
	want := []GroupSlice{{0, 2}, {2, 1}}
	//
	if diff := cmp.Diff(want, net.Groups); diff != "" {
		t.Errorf("unexpected groups (-want +got):\n%s", diff)
	}
	// Flat values carry no groups.
	if doc.Modules[0].Nets[1].Groups != nil {
		t.Errorf("expected no groups on flat net")
	}
}

func Test_Decode_03(t *testing.T) {
	// Scalar rendering: booleans to 1/0, numbers in decimal.
	doc := parseOk(t, `
modules:
  m:
    variables:
      flag: true
      off: false
      count: 4
      ratio: 0.5
      size: 2u
`)
	//
	var got []string
	//
	for _, v := range doc.Modules[0].Variables {
		got = append(got, v.Name+"="+v.Value)
	}
	//
	want := []string{"flag=1", "off=0", "count=4", "ratio=0.5", "size=2u"}
	//
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("unexpected variables (-want +got):\n%s", diff)
	}
}

func Test_Decode_04(t *testing.T) {
	// Imports preserve authored order, and spans carry positions.
	doc := parseOk(t, `
imports:
  first: lib/one
  second: lib/two
`)
	//
	if len(doc.Imports) != 2 || doc.Imports[0].Alias != "first" || doc.Imports[1].Alias != "second" {
		t.Fatalf("import order not preserved")
	}
	//
	if doc.Imports[0].Span.IsZero() {
		t.Errorf("expected a span on the import entry")
	}
}

func Test_Decode_05(t *testing.T) {
	// Backend entries split params from free-form properties.
	doc := parseOk(t, `
devices:
  nfet:
    ports: [d, g, s]
    params: { m: 1, w: 2u }
    backends:
      sim.ngspice:
        template: "M{name} {ports} nmos"
        params: { m: 2 }
        model: nmos_lv
`)
	//
	entry := doc.Devices[0].Backends[0]
	//
	if len(entry.Params) != 1 || entry.Params[0].Key != "m" || entry.Params[0].Value != "2" {
		t.Errorf("unexpected backend params: %v", entry.Params)
	}
	//
	if len(entry.Props) != 1 || entry.Props[0].Key != "model" || entry.Props[0].Value != "nmos_lv" {
		t.Errorf("unexpected backend props: %v", entry.Props)
	}
	//
	if len(doc.Devices[0].Params) != 2 {
		t.Errorf("unexpected device params: %v", doc.Devices[0].Params)
	}
}

func Test_Decode_Malformed(t *testing.T) {
	file := source.NewFile("bad.asdl", []byte("modules: [a, b\n"))
	//
	if _, err := ParseDocument(file); err == nil {
		t.Errorf("expected a parse error")
	}
}

// ===================================================================
// Test Helpers
// ===================================================================

func parseOk(t *testing.T, contents string) *Document {
	t.Helper()
	//
	doc, err := ParseDocument(source.NewFile("test.asdl", []byte(contents)))
	//
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	//
	return doc
}

func portTokens(d *Device) []string {
	var tokens []string
	//
	for _, p := range d.Ports {
		tokens = append(tokens, p.Token)
	}
	//
	return tokens
}
