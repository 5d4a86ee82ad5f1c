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
package source

import (
	"os"
	"strings"
)

// File represents a given source file (typically stored on disk), whose
// filename is the canonical absolute path by which the file is identified
// throughout the pipeline.
type File struct {
	// Canonical path of this source file.
	path string
	// Contents of this file.
	contents []byte
	// Lines of this file, split lazily on first access.
	lines []string
}

// NewFile constructs a new source file from a given byte array.
func NewFile(path string, contents []byte) *File {
	return &File{path, contents, nil}
}

// ReadFile reads a source file from disk, or produces an error.
func ReadFile(path string) (*File, error) {
	bytes, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	//
	return NewFile(path, bytes), nil
}

// Path returns the canonical path identifying this source file.
func (f *File) Path() string {
	return f.path
}

// Contents returns the raw contents of this source file.
func (f *File) Contents() []byte {
	return f.contents
}

// NumLines returns the number of lines in this source file.
func (f *File) NumLines() int {
	f.split()
	return len(f.lines)
}

// Line returns the text of the given line (counting from 1), excluding its
// terminator.  The second result indicates whether the line exists.
func (f *File) Line(number int) (string, bool) {
	f.split()
	//
	if number < 1 || number > len(f.lines) {
		return "", false
	}
	//
	return f.lines[number-1], true
}

func (f *File) split() {
	if f.lines == nil {
		text := strings.ReplaceAll(string(f.contents), "\r\n", "\n")
		f.lines = strings.Split(text, "\n")
	}
}
