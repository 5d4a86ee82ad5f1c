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
package resolver

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/asdl-lang/asdl-go/pkg/asdl/diag"
)

func Test_Resolve_01(t *testing.T) {
	// A single file with no imports.
	root := writeFiles(t, map[string]string{
		"top.asdl": "modules:\n  m:\n    nets:\n      n: []\n",
	})
	//
	db, bag := resolve(t, filepath.Join(root, "top.asdl"), nil)
	//
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %v", bag.Items())
	}
	//
	if len(db.Documents()) != 1 {
		t.Errorf("expected 1 document, got %d", len(db.Documents()))
	}
}

func Test_Resolve_02(t *testing.T) {
	// Imports resolve through a search root and bind aliases.
	root := writeFiles(t, map[string]string{
		"top.asdl":     "imports:\n  lib: devices\nmodules:\n  m:\n    nets:\n      n: []\n",
		"devices.asdl": "devices:\n  r:\n    ports: [a, b]\n",
	})
	//
	db, bag := resolve(t, filepath.Join(root, "top.asdl"), []string{root})
	//
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %v", bag.Items())
	}
	//
	env := db.Env(db.Entry)
	//
	target, ok := env.Lookup("lib")
	//
	if !ok {
		t.Fatalf("alias %q not bound", "lib")
	}
	//
	if _, ok := db.Document(target); !ok {
		t.Errorf("imported document missing from database")
	}
}

func Test_Resolve_03(t *testing.T) {
	// Relative imports fall back to the importing file's directory.
	root := writeFiles(t, map[string]string{
		"sub/top.asdl": "imports:\n  lib: ./devices\n",
		"sub/devices.asdl": "devices:\n  r:\n    ports: [a]\n",
	})
	//
	_, bag := resolve(t, filepath.Join(root, "sub", "top.asdl"), nil)
	//
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %v", bag.Items())
	}
}

func Test_Resolve_NotFound(t *testing.T) {
	root := writeFiles(t, map[string]string{
		"top.asdl": "imports:\n  lib: nowhere\n",
	})
	//
	_, bag := resolve(t, filepath.Join(root, "top.asdl"), []string{root})
	//
	checkCode(t, bag, diag.ImportNotFound)
	// The diagnostic carries the probe list.
	for _, d := range bag.Items() {
		if d.Code == diag.ImportNotFound && len(d.Notes) == 0 {
			t.Errorf("expected probe notes on ImportNotFound")
		}
	}
}

func Test_Resolve_Circular(t *testing.T) {
	root := writeFiles(t, map[string]string{
		"a.asdl": "imports:\n  b: b\nmodules:\n  ma:\n    nets:\n      n: []\n",
		"b.asdl": "imports:\n  a: a\nmodules:\n  mb:\n    nets:\n      n: []\n",
	})
	//
	db, bag := resolve(t, filepath.Join(root, "a.asdl"), []string{root})
	//
	checkCode(t, bag, diag.CircularImport)
	// Both files remain (partially) loaded.
	if len(db.Documents()) != 2 {
		t.Errorf("expected 2 documents, got %d", len(db.Documents()))
	}
	// Exactly one cycle diagnostic.
	count := 0
	//
	for _, d := range bag.Items() {
		if d.Code == diag.CircularImport {
			count++
		}
	}
	//
	if count != 1 {
		t.Errorf("expected 1 CircularImport, got %d", count)
	}
}

func Test_Resolve_DuplicateAlias(t *testing.T) {
	root := writeFiles(t, map[string]string{
		"top.asdl": "imports:\n  lib: a\n  lib: b\n",
		"a.asdl":   "devices:\n  r:\n    ports: [a]\n",
		"b.asdl":   "devices:\n  r:\n    ports: [a]\n",
	})
	//
	_, bag := resolve(t, filepath.Join(root, "top.asdl"), []string{root})
	//
	checkCode(t, bag, diag.DuplicateImportAlias)
}

func Test_Resolve_Ambiguous(t *testing.T) {
	// The same logical path exists under two roots.
	root1 := writeFiles(t, map[string]string{"lib.asdl": "devices:\n  r:\n    ports: [a]\n"})
	root2 := writeFiles(t, map[string]string{"lib.asdl": "devices:\n  r:\n    ports: [b]\n"})
	entry := writeFiles(t, map[string]string{"top.asdl": "imports:\n  lib: lib\n"})
	//
	_, bag := resolve(t, filepath.Join(entry, "top.asdl"), []string{root1, root2})
	//
	checkCode(t, bag, diag.AmbiguousImport)
}

func Test_Resolve_ParseFailed(t *testing.T) {
	root := writeFiles(t, map[string]string{
		"top.asdl": "imports:\n  lib: broken\n",
		"broken.asdl": "modules: [not: a mapping\n",
	})
	//
	_, bag := resolve(t, filepath.Join(root, "top.asdl"), []string{root})
	//
	checkCode(t, bag, diag.ImportParseFailed)
}

func Test_Resolve_Idempotent(t *testing.T) {
	// Resolving twice yields databases with equal key sets.
	root := writeFiles(t, map[string]string{
		"top.asdl": "imports:\n  lib: devices\n",
		"devices.asdl": "devices:\n  r:\n    ports: [a]\n",
	})
	//
	db1, _ := resolve(t, filepath.Join(root, "top.asdl"), []string{root})
	db2, _ := resolve(t, filepath.Join(root, "top.asdl"), []string{root})
	//
	if len(db1.Documents()) != len(db2.Documents()) {
		t.Fatalf("databases differ in size")
	}
	//
	for _, doc := range db1.Documents() {
		if _, ok := db2.Document(doc.Path); !ok {
			t.Errorf("document %q missing from second resolve", doc.Path)
		}
	}
}

// ===================================================================
// Test Helpers
// ===================================================================

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	//
	root := t.TempDir()
	//
	for name, contents := range files {
		path := filepath.Join(root, name)
		//
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		//
		if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
			t.Fatal(err)
		}
	}
	//
	return root
}

func resolve(t *testing.T, entry string, roots []string) (*Database, *diag.Bag) {
	t.Helper()
	//
	bag := diag.NewBag()
	db := Resolve(entry, roots, bag)
	//
	return db, bag
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
