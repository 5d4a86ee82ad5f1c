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
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/asdl-lang/asdl-go/pkg/asdl/diag"
	"github.com/asdl-lang/asdl-go/pkg/asdl/graph"
	"github.com/asdl-lang/asdl-go/pkg/asdl/resolver"
)

const deviceLib = `
devices:
  nfet:
    ports: [d, g, s]
    params: { m: 1 }
    backends: { sim.ngspice: { template: "M{name} {ports} nmos m={m}" } }
  pfet:
    ports: [d, g, s]
    backends: { sim.ngspice: { template: "M{name} {ports} pmos m={m}" } }
`

func Test_Lower_Instances(t *testing.T) {
	_, aprog, bag := compile(t, `
modules:
  m:
    instances:
      MN: nfet m=2
    nets:
      $d: [MN.d]
      $g: [MN.g]
      $s: [MN.s]
`+deviceLib)
	//
	checkNoErrors(t, bag)
	//
	m := aprog.Modules[0]
	//
	if len(m.Instances) != 1 || m.Instances[0].Name != "MN" {
		t.Fatalf("expected instance MN")
	}
	//
	if m.Instances[0].RefKind != graph.DEVICE_REF {
		t.Errorf("expected a device reference")
	}
	//
	want := []graph.Param{{Key: "m", Value: "2"}}
	//
	if diff := cmp.Diff(want, m.Instances[0].Params); diff != "" {
		t.Errorf("unexpected params (-want +got):\n%s", diff)
	}
}

func Test_Atomize_TaggedBroadcast(t *testing.T) {
	// Tagged axis broadcast: two atomized nets, each collecting its slice of
	// the endpoints.
	_, aprog, bag := compile(t, `
modules:
  m:
    instances:
      MN_IN<diffpair=p|n>: nfet
      MP_LOAD<diffpair=p|n>: pfet
    nets:
      d<diffpair=p|n>: [MN_IN<diffpair=p|n>.d, MP_LOAD<diffpair=p|n>.d]
      $g<diffpair=p|n>: [MN_IN<diffpair=p|n>.g, MP_LOAD<diffpair=p|n>.g]
      $s<diffpair=p|n>: [MN_IN<diffpair=p|n>.s, MP_LOAD<diffpair=p|n>.s]
`+deviceLib)
	//
	checkNoErrors(t, bag)
	//
	m := aprog.Modules[0]
	//
	checkEndpoints(t, m, "d_p", []string{"MN_IN_p.d", "MP_LOAD_p.d"})
	checkEndpoints(t, m, "d_n", []string{"MN_IN_n.d", "MP_LOAD_n.d"})
}

func Test_Atomize_ScalarBroadcast(t *testing.T) {
	_, aprog, bag := compile(t, `
modules:
  m:
    instances:
      MN<p|n>: nfet
      MTAIL: nfet
    nets:
      $VSS: [MN<p|n>.s, MTAIL.s]
      $d<0:2>: [MN<p|n>.d;MTAIL.d]
      $g<0:2>: [MN<p|n>.g;MTAIL.g]
`+deviceLib)
	//
	checkNoErrors(t, bag)
	//
	checkEndpoints(t, aprog.Modules[0], "VSS", []string{"MN_p.s", "MN_n.s", "MTAIL.s"})
}

func Test_Atomize_RangePorts(t *testing.T) {
	// Port order preserves declaration order of exported nets, and range
	// direction is honoured.
	_, aprog, bag := compile(t, `
modules:
  m:
    instances:
      BUF<7:0>: buf
    nets:
      $bus<7:0>: [BUF<7:0>.y]
      $a<7:0>: [BUF<7:0>.a]
devices:
  buf:
    ports: [a, y]
    backends: { sim.ngspice: { template: "X{name} {ports} buffer" } }
`)
	//
	checkNoErrors(t, bag)
	//
	want := []string{
		"bus_7", "bus_6", "bus_5", "bus_4", "bus_3", "bus_2", "bus_1", "bus_0",
		"a_7", "a_6", "a_5", "a_4", "a_3", "a_2", "a_1", "a_0",
	}
	//
	if diff := cmp.Diff(want, aprog.Modules[0].Ports); diff != "" {
		t.Errorf("unexpected ports (-want +got):\n%s", diff)
	}
}

func Test_Atomize_Wildcard(t *testing.T) {
	// The wildcard stands for every matching instance atom, in declaration
	// order, and demands a scalar net.
	_, aprog, bag := compile(t, `
modules:
  m:
    instances:
      M1: nfet
      M2: nfet
    nets:
      $VSS: [M*.s]
      $d: [M1.d, M2.d]
      $g: [M1.g, M2.g]
`+deviceLib)
	//
	checkNoErrors(t, bag)
	//
	checkEndpoints(t, aprog.Modules[0], "VSS", []string{"M1.s", "M2.s"})
}

func Test_Atomize_WildcardNotAllowed(t *testing.T) {
	_, _, bag := compile(t, `
modules:
  m:
    instances:
      M1: nfet
      M2: nfet
    nets:
      v<p|n>: [M*.s]
`+deviceLib)
	//
	checkCode(t, bag, diag.WildcardNotAllowed)
}

func Test_Atomize_NameCollision(t *testing.T) {
	_, _, bag := compile(t, `
modules:
  m:
    instances:
      M_p: nfet
      M<p|n>: nfet
    nets:
      $x: [M_p.d]
`+deviceLib)
	//
	checkCode(t, bag, diag.AtomNameCollision)
}

func Test_Atomize_DuplicateEndpoint(t *testing.T) {
	_, _, bag := compile(t, `
modules:
  m:
    instances:
      MN: nfet
    nets:
      $x: [MN.d, MN.d]
`+deviceLib)
	//
	checkCode(t, bag, diag.DuplicateEndpointBinding)
}

func Test_Lower_UnknownAlias(t *testing.T) {
	_, _, bag := compile(t, `
modules:
  m:
    instances:
      MN: lib.nfet
    nets:
      $x: [MN.d]
`)
	//
	checkCode(t, bag, diag.UnknownImportAlias)
}

func Test_Lower_Unresolved(t *testing.T) {
	_, _, bag := compile(t, `
modules:
  m:
    instances:
      MN: missing
    nets:
      $x: [MN.d]
`)
	//
	checkCode(t, bag, diag.UnresolvedReference)
}

func Test_Lower_BadParam(t *testing.T) {
	_, _, bag := compile(t, `
modules:
  m:
    instances:
      MN: nfet m =1
    nets:
      $x: [MN.d]
`+deviceLib)
	//
	checkCode(t, bag, diag.InvalidInstanceExpression)
}

func Test_Lower_MissingDot(t *testing.T) {
	_, _, bag := compile(t, `
modules:
  m:
    instances:
      MN: nfet
    nets:
      $x: [MN]
`+deviceLib)
	//
	checkCode(t, bag, diag.EndpointMissingDot)
}

func Test_Vars_Substitution(t *testing.T) {
	_, aprog, bag := compile(t, `
modules:
  m:
    variables:
      mult: 4
    instances:
      MN: nfet m=$mult
    nets:
      $d: [MN.d]
      $g: [MN.g]
      $s: [MN.s]
`+deviceLib)
	//
	checkNoErrors(t, bag)
	//
	params := aprog.Modules[0].Instances[0].Params
	//
	if len(params) != 1 || params[0].Value != "4" {
		t.Errorf("expected m=4, got %v", params)
	}
}

func Test_Vars_Undefined(t *testing.T) {
	_, _, bag := compile(t, `
modules:
  m:
    instances:
      MN: nfet m=$nope
    nets:
      $d: [MN.d]
      $g: [MN.g]
      $s: [MN.s]
`+deviceLib)
	//
	checkCode(t, bag, diag.UndefinedVariable)
}

func Test_Vars_Shadowing(t *testing.T) {
	_, _, bag := compile(t, `
modules:
  m:
    variables:
      m: 4
    instances:
      MN: nfet m=2
    nets:
      $d: [MN.d]
      $g: [MN.g]
      $s: [MN.s]
`+deviceLib)
	//
	checkSeverity(t, bag, diag.VariableShadowsParameter, diag.WARNING)
}

func Test_Verify_UnknownPort(t *testing.T) {
	_, _, bag := compile(t, `
modules:
  someMod:
    instances:
      MN: nfet
    nets:
      $d: [MN.d]
      $g: [MN.g]
      $s: [MN.s]
  m:
    instances:
      X: someMod
    nets:
      $n: [X.z]
`+deviceLib)
	//
	checkCode(t, bag, diag.UnknownPort)
}

func Test_Verify_MissingPort(t *testing.T) {
	_, _, bag := compile(t, `
modules:
  someMod:
    instances:
      MN: nfet
    nets:
      $d: [MN.d]
      $g: [MN.g]
      $s: [MN.s]
  m:
    instances:
      X: someMod
    nets:
      $n: [X.d]
`+deviceLib)
	//
	checkCode(t, bag, diag.MissingPort)
}

func Test_Verify_UnusedImport(t *testing.T) {
	_, _, bag := compileFiles(t, map[string]string{
		"top.asdl": `
imports:
  lib: devices
modules:
  m:
    nets: {}
`,
		"devices.asdl": deviceLib,
	}, "top.asdl")
	//
	checkSeverity(t, bag, diag.UnusedImport, diag.INFO)
}

func Test_Verify_CrossFile(t *testing.T) {
	// Qualified references resolve through the name environment; devices
	// defined in another file close over their declared pins.
	_, aprog, bag := compileFiles(t, map[string]string{
		"top.asdl": `
imports:
  lib: devices
modules:
  m:
    instances:
      MN: lib.nfet m=2
    nets:
      $d: [MN.d]
      $g: [MN.g]
      $s: [MN.s]
`,
		"devices.asdl": deviceLib,
	}, "top.asdl")
	//
	checkNoErrors(t, bag)
	//
	if aprog.Modules[0].Instances[0].RefKind != graph.DEVICE_REF {
		t.Errorf("expected a device reference across files")
	}
}

// ===================================================================
// Test Helpers
// ===================================================================

// compile a single-file program from source text; extra files may be given
// via compileFiles.
func compile(t *testing.T, contents string) (*graph.Program, *graph.AtomProgram, *diag.Bag) {
	t.Helper()
	//
	return compileFiles(t, map[string]string{"top.asdl": contents}, "top.asdl")
}

func compileFiles(t *testing.T, files map[string]string, entry string) (*graph.Program, *graph.AtomProgram, *diag.Bag) {
	t.Helper()
	//
	root := t.TempDir()
	//
	for name, contents := range files {
		if err := os.WriteFile(filepath.Join(root, name), []byte(contents), 0644); err != nil {
			t.Fatal(err)
		}
	}
	//
	bag := diag.NewBag()
	db := resolver.Resolve(filepath.Join(root, entry), []string{root}, bag)
	//
	if bag.HasErrors() {
		t.Fatalf("unexpected resolution errors: %v", bag.Items())
	}
	//
	prog := Lower(db, DefaultConfig(), bag)
	aprog := Atomize(prog, DefaultConfig(), bag)
	Verify(db, aprog, DefaultConfig(), bag)
	//
	return prog, aprog, bag
}

func checkNoErrors(t *testing.T, bag *diag.Bag) {
	t.Helper()
	//
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %v", bag.Items())
	}
}

func checkCode(t *testing.T, bag *diag.Bag, code diag.Code) {
	t.Helper()
	//
	for _, d := range bag.Items() {
		if d.Code == code {
			return
		}
	}
	//
	t.Fatalf("expected %s diagnostic, got %v", code, bag.Items())
}

func checkSeverity(t *testing.T, bag *diag.Bag, code diag.Code, severity diag.Severity) {
	t.Helper()
	//
	for _, d := range bag.Items() {
		if d.Code == code {
			if d.Severity != severity {
				t.Fatalf("expected %s to be %s, got %s", code, severity, d.Severity)
			}
			//
			return
		}
	}
	//
	t.Fatalf("expected %s diagnostic, got %v", code, bag.Items())
}

// checkEndpoints verifies the endpoint atoms of a named net.
func checkEndpoints(t *testing.T, m *graph.AtomModule, net string, want []string) {
	t.Helper()
	//
	id, ok := m.Net(net)
	//
	if !ok {
		t.Fatalf("net %q not found", net)
	}
	//
	var got []string
	//
	for _, epID := range m.Nets[id].Endpoints {
		ep := m.Endpoints[epID]
		got = append(got, m.Instances[ep.Inst].Name+"."+ep.Port)
	}
	//
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("unexpected endpoints on %q (-want +got):\n%s", net, diff)
	}
}
