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

// Package resolver assembles the multi-file program graph: starting from an
// entry file it follows imports through the configured search roots, parsing
// each file exactly once, detecting cycles, and building the per-file name
// environment which later binds qualified type tokens.
package resolver

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/asdl-lang/asdl-go/pkg/asdl/ast"
	"github.com/asdl-lang/asdl-go/pkg/asdl/diag"
	"github.com/asdl-lang/asdl-go/pkg/util/source"
)

// Extension is the configured extension of authoring files, appended to
// logical import paths which omit it.
const Extension = ".asdl"

// Resolve loads the entry file and, transitively, everything it imports,
// producing the program database.  Search roots are probed in the given order
// (CLI roots first, then environment roots); logical paths starting with "./"
// or "../" additionally fall back to the importing file's own directory.
// Resolution recovers and continues on every failure: a missing, unparsable
// or cyclic import skips only the offending descent.
func Resolve(entry string, roots []string, sink *diag.Bag) *Database {
	loader := &loader{NewDatabase(), roots, nil, sink}
	//
	entryID, ok := canonicalize(entry)
	//
	if !ok {
		sink.Report(diag.New(diag.ERROR, diag.ImportNotFound, "", source.Span{},
			"entry file %q not found", entry))
		//
		return loader.db
	}
	//
	loader.db.Entry = entryID
	loader.load(entryID, "", source.Span{})
	//
	return loader.db
}

// loader carries the state of one resolution: the database under
// construction, the search roots, and the loading stack used for cycle
// detection.
type loader struct {
	db    *Database
	roots []string
	// Canonical paths of the files currently being loaded, outermost first.
	stack []string
	sink  *diag.Bag
}

// load parses a single file (identified by canonical path) and recurses into
// its imports.  The stack entry is pushed before recursion and popped on
// exit, regardless of whether the descent produced diagnostics.
func (l *loader) load(fileID string, importer string, span source.Span) {
	file, err := source.ReadFile(fileID)
	//
	if err != nil {
		l.sink.Report(diag.New(diag.ERROR, diag.ImportNotFound, importer, span,
			"cannot read %q: %v", fileID, err))
		//
		return
	}
	//
	doc, err := ast.ParseDocument(file)
	//
	if err != nil {
		l.sink.Report(diag.New(diag.ERROR, diag.ImportParseFailed, fileID, source.Span{},
			"parse failed: %v", err))
		//
		return
	}
	//
	log.Debugf("loaded %s (%d modules, %d devices, %d imports)",
		fileID, len(doc.Modules), len(doc.Devices), len(doc.Imports))
	//
	l.db.record(fileID, file, doc)
	l.stack = append(l.stack, fileID)
	//
	for _, imp := range doc.Imports {
		l.resolveImport(fileID, imp)
	}
	//
	l.stack = l.stack[:len(l.stack)-1]
}

// resolveImport binds one (alias, logical path) entry of a file.
func (l *loader) resolveImport(fileID string, imp *ast.Import) {
	env := l.db.envs[fileID]
	//
	if env.IsBound(imp.Alias) {
		l.sink.Report(diag.New(diag.ERROR, diag.DuplicateImportAlias, fileID, imp.Span,
			"import alias %q already bound", imp.Alias))
		//
		return
	}
	//
	target, ok := l.probe(fileID, imp)
	//
	if !ok {
		return
	}
	// A target already on the loading stack closes a cycle: report it and
	// abandon only this descent.
	if at := slices.Index(l.stack, target); at >= 0 {
		cycle := append(slices.Clone(l.stack[at:]), target)
		l.sink.Report(diag.New(diag.ERROR, diag.CircularImport, fileID, imp.Span,
			"circular import: %s", formatCycle(cycle)))
		//
		return
	}
	// Load the target unless it is already cached.
	if _, ok := l.db.docs[target]; !ok {
		l.load(target, fileID, imp.Span)
	}
	//
	if _, ok := l.db.docs[target]; ok {
		env.Bind(imp.Alias, target, imp.Span)
	}
}

// probe enumerates the candidate paths of a logical import in precedence
// order, recording them for diagnostics.  Exactly one distinct canonical
// target must be found: none is ImportNotFound, several under different roots
// is AmbiguousImport.
func (l *loader) probe(fileID string, imp *ast.Import) (string, bool) {
	var (
		probes  []string
		targets []string
		logical = imp.Target
	)
	//
	if !strings.HasSuffix(logical, Extension) {
		logical += Extension
	}
	//
	relative := strings.HasPrefix(imp.Target, "./") || strings.HasPrefix(imp.Target, "../")
	roots := l.roots
	// Logical paths anchored at the importing file probe its directory last.
	if relative {
		roots = append(slices.Clone(roots), filepath.Dir(fileID))
	}
	//
	for _, root := range roots {
		candidate := filepath.Join(root, logical)
		probes = append(probes, candidate)
		//
		if target, ok := canonicalize(candidate); ok {
			if !slices.Contains(targets, target) {
				targets = append(targets, target)
			}
		}
	}
	//
	switch {
	case len(targets) == 0:
		l.sink.Report(diag.New(diag.ERROR, diag.ImportNotFound, fileID, imp.Span,
			"import %q not found", imp.Target).WithNotes(noteProbes(probes)...))
		//
		return "", false
	case len(targets) > 1:
		l.sink.Report(diag.New(diag.ERROR, diag.AmbiguousImport, fileID, imp.Span,
			"import %q resolves to multiple files", imp.Target).WithNotes(noteTargets(targets)...))
		//
		return "", false
	}
	//
	return targets[0], true
}

// canonicalize maps a path onto its canonical absolute form, resolving
// symlinks where possible.  The boolean result indicates whether the path
// names an existing regular file.
func canonicalize(path string) (string, bool) {
	abs, err := filepath.Abs(path)
	//
	if err != nil {
		return "", false
	}
	//
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}
	//
	info, err := os.Stat(abs)
	//
	if err != nil || info.IsDir() {
		return "", false
	}
	//
	return filepath.Clean(abs), true
}

func formatCycle(cycle []string) string {
	names := make([]string, len(cycle))
	//
	for i, path := range cycle {
		names[i] = strings.TrimSuffix(filepath.Base(path), Extension)
	}
	//
	return strings.Join(names, " -> ")
}

func noteProbes(probes []string) []string {
	notes := make([]string, len(probes))
	//
	for i, probe := range probes {
		notes[i] = fmt.Sprintf("probed %s", probe)
	}
	//
	return notes
}

func noteTargets(targets []string) []string {
	notes := make([]string, len(targets))
	//
	for i, target := range targets {
		notes[i] = fmt.Sprintf("candidate %s", target)
	}
	//
	return notes
}
