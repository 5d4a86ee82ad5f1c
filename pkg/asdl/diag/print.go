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
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/asdl-lang/asdl-go/pkg/util/source"
)

// ANSI colour codes used when printing to a terminal.
const (
	ansiReset  = "\033[0m"
	ansiRed    = "\033[31m"
	ansiYellow = "\033[33m"
	ansiCyan   = "\033[36m"
)

// Printer renders diagnostics for human consumption, including a highlight of
// the offending source line whenever the relevant file is available.
type Printer struct {
	out io.Writer
	// Source files keyed by canonical path, used for line highlights.
	files map[string]*source.File
	// Enables ANSI severity colouring.
	colour bool
}

// NewPrinter constructs a printer over the given output stream.
func NewPrinter(out io.Writer, files map[string]*source.File, colour bool) *Printer {
	return &Printer{out, files, colour}
}

// Print renders all given diagnostics, in the order given.
func (p *Printer) Print(diagnostics []Diagnostic) {
	for _, d := range diagnostics {
		p.printOne(d)
	}
}

// Print a single diagnostic with appropriate highlighting.
func (p *Printer) printOne(d Diagnostic) {
	fmt.Fprintf(p.out, "%s%s%s\n", p.paint(d.Severity), d.String(), p.unpaint())
	// Print highlight of the offending line (if we have the file).
	if file, ok := p.files[d.File]; ok && !d.Span.IsZero() {
		if line, ok := file.Line(d.Span.Start.Line); ok {
			indent := d.Span.Start.Column - 1
			// Calculate length (ensures don't overflow line)
			length := 1
			//
			if d.Span.End.Line == d.Span.Start.Line {
				length = max(1, d.Span.End.Column-d.Span.Start.Column)
			}
			//
			length = min(length, max(1, len(line)-indent))
			//
			fmt.Fprintln(p.out, line)
			fmt.Fprint(p.out, strings.Repeat(" ", max(0, indent)))
			fmt.Fprintln(p.out, strings.Repeat("^", length))
		}
	}
	// Print notes
	for _, note := range d.Notes {
		fmt.Fprintf(p.out, "  note: %s\n", note)
	}
}

func (p *Printer) paint(severity Severity) string {
	if !p.colour {
		return ""
	}
	//
	switch severity {
	case ERROR:
		return ansiRed
	case WARNING:
		return ansiYellow
	default:
		return ansiCyan
	}
}

func (p *Printer) unpaint() string {
	if !p.colour {
		return ""
	}
	//
	return ansiReset
}

// jsonDiagnostic is the wire shape of a diagnostic when reported as JSON.
type jsonDiagnostic struct {
	Code      string   `json:"code"`
	Severity  string   `json:"severity"`
	File      string   `json:"file,omitempty"`
	Line      int      `json:"line,omitempty"`
	Column    int      `json:"column,omitempty"`
	EndLine   int      `json:"end_line,omitempty"`
	EndColumn int      `json:"end_column,omitempty"`
	Message   string   `json:"message"`
	Notes     []string `json:"notes,omitempty"`
}

// PrintJSON renders all given diagnostics as a JSON array of records, for
// machine consumption (e.g. by editor integrations).
func PrintJSON(out io.Writer, diagnostics []Diagnostic) error {
	records := make([]jsonDiagnostic, len(diagnostics))
	//
	for i, d := range diagnostics {
		records[i] = jsonDiagnostic{
			Code:      string(d.Code),
			Severity:  d.Severity.String(),
			File:      d.File,
			Line:      d.Span.Start.Line,
			Column:    d.Span.Start.Column,
			EndLine:   d.Span.End.Line,
			EndColumn: d.Span.End.Column,
			Message:   d.Message,
			Notes:     d.Notes,
		}
	}
	//
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	//
	return encoder.Encode(records)
}
