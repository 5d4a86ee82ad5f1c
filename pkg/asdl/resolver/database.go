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
	"github.com/asdl-lang/asdl-go/pkg/asdl/ast"
	"github.com/asdl-lang/asdl-go/pkg/util/source"
)

// Database is the set of parsed documents making up one program, keyed by
// canonical file path, together with the per-file name environments built
// during import resolution.  Files are read eagerly, exactly once, and cached
// here for the remainder of the invocation.
type Database struct {
	// Canonical path of the entry file.
	Entry string
	// Load order (depth-first over authored imports); drives deterministic
	// iteration.
	order []string
	// Parsed documents keyed by canonical path.
	docs map[string]*ast.Document
	// Raw source files keyed by canonical path (also used for diagnostic
	// highlights).
	files map[string]*source.File
	// Name environments keyed by canonical path.
	envs map[string]*NameEnv
}

// NewDatabase constructs an empty program database.
func NewDatabase() *Database {
	return &Database{
		docs:  make(map[string]*ast.Document),
		files: make(map[string]*source.File),
		envs:  make(map[string]*NameEnv),
	}
}

// Documents returns all parsed documents in load order.
func (db *Database) Documents() []*ast.Document {
	docs := make([]*ast.Document, 0, len(db.order))
	//
	for _, id := range db.order {
		if doc, ok := db.docs[id]; ok {
			docs = append(docs, doc)
		}
	}
	//
	return docs
}

// Document returns the document loaded from the given file, if any.
func (db *Database) Document(fileID string) (*ast.Document, bool) {
	doc, ok := db.docs[fileID]
	return doc, ok
}

// Env returns the name environment of the given file.
func (db *Database) Env(fileID string) *NameEnv {
	return db.envs[fileID]
}

// Files returns the raw source files keyed by canonical path.
func (db *Database) Files() map[string]*source.File {
	return db.files
}

// record a freshly loaded file and its document.
func (db *Database) record(fileID string, file *source.File, doc *ast.Document) {
	db.order = append(db.order, fileID)
	db.files[fileID] = file
	db.docs[fileID] = doc
	db.envs[fileID] = newNameEnv()
}

// NameEnv maps the import aliases of one file to the canonical paths they
// resolved to, preserving authored order.  Alias usage is tracked so that the
// unused-import lint can run after lowering.
type NameEnv struct {
	bindings map[string]string
	spans    map[string]source.Span
	order    []string
	used     map[string]bool
}

func newNameEnv() *NameEnv {
	return &NameEnv{
		bindings: make(map[string]string),
		spans:    make(map[string]source.Span),
		used:     make(map[string]bool),
	}
}

// Bind records the resolution of an alias.
func (e *NameEnv) Bind(alias string, fileID string, span source.Span) {
	e.bindings[alias] = fileID
	e.spans[alias] = span
	e.order = append(e.order, alias)
}

// IsBound checks whether an alias is already bound in this environment.
func (e *NameEnv) IsBound(alias string) bool {
	_, ok := e.bindings[alias]
	return ok
}

// Lookup resolves an alias to a canonical path, marking it used.
func (e *NameEnv) Lookup(alias string) (string, bool) {
	fileID, ok := e.bindings[alias]
	//
	if ok {
		e.used[alias] = true
	}
	//
	return fileID, ok
}

// Aliases returns the bound aliases in authored order.
func (e *NameEnv) Aliases() []string {
	return e.order
}

// Span returns the span of the import entry which bound the given alias.
func (e *NameEnv) Span(alias string) source.Span {
	return e.spans[alias]
}

// Used reports whether an alias was ever referenced by a type-token lookup.
func (e *NameEnv) Used(alias string) bool {
	return e.used[alias]
}
