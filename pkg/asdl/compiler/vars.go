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
	"regexp"

	"github.com/asdl-lang/asdl-go/pkg/asdl/graph"
)

// Variable references inside parameter values are written "$name"; the name
// is substituted as a whole token.
var varRefRegexp = regexp.MustCompile(`\$([A-Za-z_][A-Za-z0-9_]*)`)

// substitute replaces every "$name" reference in a raw parameter value with
// the corresponding variable value.  References to undefined variables are
// left in place and returned so the caller can report them.
func substitute(raw string, vars map[string]string) (string, []string) {
	var missing []string
	//
	result := varRefRegexp.ReplaceAllStringFunc(raw, func(ref string) string {
		name := ref[1:]
		//
		if value, ok := vars[name]; ok {
			return value
		}
		//
		missing = append(missing, name)
		//
		return ref
	})
	//
	return result, missing
}

// variableTable builds the substitution table of a module's variables.
func variableTable(params []graph.Param) map[string]string {
	table := make(map[string]string, len(params))
	//
	for _, p := range params {
		table[p.Key] = p.Value
	}
	//
	return table
}
