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

// Package diag provides the structured diagnostics bus used throughout the
// compiler.  Every pipeline stage reports user-facing problems as diagnostics
// appended to a shared bag, rather than as Go errors; Go errors are reserved
// for host-level failures (e.g. an unwritable output file).
package diag

import (
	"fmt"
	"strings"

	"github.com/asdl-lang/asdl-go/pkg/util/source"
)

// Severity classifies how serious a diagnostic is.  Only ERROR diagnostics
// suppress downstream pipeline stages and force a non-zero exit.
type Severity uint8

const (
	// ERROR indicates a problem which prevents a netlist being emitted.
	ERROR Severity = iota
	// WARNING indicates a suspicious construct which does not prevent
	// emission.
	WARNING
	// INFO indicates purely advisory information (e.g. lints).
	INFO
)

func (s Severity) String() string {
	switch s {
	case ERROR:
		return "error"
	case WARNING:
		return "warning"
	case INFO:
		return "info"
	}
	//
	return "unknown"
}

// Code identifies the kind of a diagnostic, independent of any numbering
// scheme.  Codes are stable strings intended for machine consumption.
type Code string

// Lexical / parse kinds.
const (
	InvalidPatternSyntax      Code = "InvalidPatternSyntax"
	InvalidInstanceExpression Code = "InvalidInstanceExpression"
	InvalidEndpointExpression Code = "InvalidEndpointExpression"
)

// Naming kinds.
const (
	DuplicateName        Code = "DuplicateName"
	DuplicateImportAlias Code = "DuplicateImportAlias"
	AtomNameCollision    Code = "AtomNameCollision"
)

// Reference kinds.
const (
	UnknownImportAlias  Code = "UnknownImportAlias"
	UnresolvedReference Code = "UnresolvedReference"
	ImportNotFound      Code = "ImportNotFound"
	CircularImport      Code = "CircularImport"
	AmbiguousImport     Code = "AmbiguousImport"
	ImportParseFailed   Code = "ImportParseFailed"
)

// Structural kinds.
const (
	UnknownPort              Code = "UnknownPort"
	MissingPort              Code = "MissingPort"
	WildcardNotAllowed       Code = "WildcardNotAllowed"
	EndpointMissingDot       Code = "EndpointMissingDot"
	DuplicateEndpointBinding Code = "DuplicateEndpointBinding"
)

// Pattern kinds.
const (
	DuplicateAxisId       Code = "DuplicateAxisId"
	AxisSizeMismatch      Code = "AxisSizeMismatch"
	BindingLengthMismatch Code = "BindingLengthMismatch"
	ExpansionTooLarge     Code = "ExpansionTooLarge"
)

// Emission kinds.
const (
	UnresolvedPlaceholder Code = "UnresolvedPlaceholder"
	UnknownModel          Code = "UnknownModel"
	UnconnectedPort       Code = "UnconnectedPort"
)

// Lint kinds.
const (
	UnusedImport             Code = "UnusedImport"
	VariableShadowsParameter Code = "VariableShadowsParameter"
	UndefinedVariable        Code = "UndefinedVariable"
	UnknownParameter         Code = "UnknownParameter"
)

// Diagnostic is a single structured report about the program being compiled.
// A diagnostic is always associated with a file (by canonical path) and,
// whenever possible, a span within that file.
type Diagnostic struct {
	// Kind of this diagnostic.
	Code Code
	// Severity of this diagnostic.
	Severity Severity
	// Canonical path of the file this diagnostic concerns (may be empty for
	// program-wide reports).
	File string
	// Region of the file this diagnostic concerns (may be zero).
	Span source.Span
	// Human-readable message.
	Message string
	// Additional free-form notes (e.g. the probe list of a failed import).
	Notes []string
}

// New constructs a diagnostic with the given severity.
func New(severity Severity, code Code, file string, span source.Span, format string, args ...any) Diagnostic {
	return Diagnostic{code, severity, file, span, fmt.Sprintf(format, args...), nil}
}

// WithNotes returns a copy of this diagnostic carrying the given notes.
func (d Diagnostic) WithNotes(notes ...string) Diagnostic {
	d.Notes = append(d.Notes[:len(d.Notes):len(d.Notes)], notes...)
	return d
}

func (d Diagnostic) String() string {
	var builder strings.Builder
	//
	if d.File != "" {
		builder.WriteString(d.File)
		//
		if !d.Span.IsZero() {
			builder.WriteString(fmt.Sprintf(":%s", d.Span.Start))
		}
		//
		builder.WriteString(": ")
	}
	//
	builder.WriteString(fmt.Sprintf("%s: %s [%s]", d.Severity, d.Message, d.Code))
	//
	return builder.String()
}

// Compare orders diagnostics by (severity, file, start line, start column,
// code), which is the deterministic order in which they are reported.
func Compare(l Diagnostic, r Diagnostic) int {
	if l.Severity != r.Severity {
		return int(l.Severity) - int(r.Severity)
	}
	//
	if c := strings.Compare(l.File, r.File); c != 0 {
		return c
	}
	//
	if c := l.Span.Start.Compare(r.Span.Start); c != 0 {
		return c
	}
	//
	return strings.Compare(string(l.Code), string(r.Code))
}
