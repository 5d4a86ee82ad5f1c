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
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/asdl-lang/asdl-go/pkg/util/source"
)

func Test_Bag_Sorting(t *testing.T) {
	bag := NewBag()
	// Arrival order deliberately scrambled.
	bag.Infof(UnusedImport, "a.asdl", source.At(1, 1), "third")
	bag.Errorf(DuplicateName, "b.asdl", source.At(9, 1), "second")
	bag.Errorf(DuplicateName, "a.asdl", source.At(4, 2), "first")
	//
	var got []string
	//
	for _, d := range bag.Sorted() {
		got = append(got, d.Message)
	}
	//
	if diff := cmp.Diff([]string{"first", "second", "third"}, got); diff != "" {
		t.Errorf("unexpected order (-want +got):\n%s", diff)
	}
	// Arrival order is preserved on Items.
	if bag.Items()[0].Message != "third" {
		t.Errorf("arrival order not preserved")
	}
}

func Test_Bag_Errors(t *testing.T) {
	bag := NewBag()
	bag.Warnf(MissingPort, "a.asdl", source.Span{}, "warning only")
	//
	if bag.HasErrors() {
		t.Errorf("warnings must not count as errors")
	}
	//
	bag.Errorf(UnknownPort, "a.asdl", source.Span{}, "boom")
	//
	if !bag.HasErrors() {
		t.Errorf("expected errors")
	}
}

func Test_Print_Highlight(t *testing.T) {
	file := source.NewFile("x.asdl", []byte("top: inv\nmodules: {}\n"))
	files := map[string]*source.File{"x.asdl": file}
	//
	d := New(ERROR, UnresolvedReference, "x.asdl",
		source.NewSpan(source.Position{Line: 1, Column: 6}, source.Position{Line: 1, Column: 9}),
		"top module %q not found", "inv")
	//
	var buffer bytes.Buffer
	//
	NewPrinter(&buffer, files, false).Print([]Diagnostic{d})
	//
	output := buffer.String()
	//
	if !strings.Contains(output, "top: inv") {
		t.Errorf("expected source line in output:\n%s", output)
	}
	//
	if !strings.Contains(output, "     ^^^") {
		t.Errorf("expected highlight in output:\n%s", output)
	}
}

func Test_Print_JSON(t *testing.T) {
	d := New(WARNING, UnusedImport, "x.asdl", source.At(3, 5), "import alias %q is never used", "lib")
	//
	var buffer bytes.Buffer
	//
	if err := PrintJSON(&buffer, []Diagnostic{d}); err != nil {
		t.Fatal(err)
	}
	//
	var records []map[string]any
	//
	if err := json.Unmarshal(buffer.Bytes(), &records); err != nil {
		t.Fatal(err)
	}
	//
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	//
	if records[0]["code"] != "UnusedImport" || records[0]["severity"] != "warning" {
		t.Errorf("unexpected record: %v", records[0])
	}
	//
	if records[0]["line"] != float64(3) || records[0]["column"] != float64(5) {
		t.Errorf("unexpected position: %v", records[0])
	}
}
