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
package emit

import (
	"regexp"
	"strings"

	"github.com/asdl-lang/asdl-go/pkg/asdl/graph"
)

var placeholderRegexp = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// mergeParams merges the three parameter layers of a device instance, in
// increasing precedence: device defaults, backend-specific overrides,
// instance parameters.  Key order is deterministic: the defaults in authored
// order, then fresh backend keys in backend order, then fresh instance keys
// in instance order; an override keeps the position of the key it overrides.
// An instance key absent from both lower layers is still merged when the
// template references it as a placeholder; otherwise it is dropped and
// returned as unknown.
func mergeParams(defaults []graph.Param, backend []graph.Param, instance []graph.Param,
	referenced map[string]bool) ([]graph.Param, []string) {
	//
	var (
		merged   []graph.Param
		position = make(map[string]int)
	)
	//
	for _, p := range defaults {
		position[p.Key] = len(merged)
		merged = append(merged, p)
	}
	//
	for _, p := range backend {
		if at, ok := position[p.Key]; ok {
			merged[at] = p
		} else {
			position[p.Key] = len(merged)
			merged = append(merged, p)
		}
	}
	//
	var unknown []string
	//
	for _, p := range instance {
		if at, ok := position[p.Key]; ok {
			merged[at] = p
		} else if referenced[p.Key] {
			position[p.Key] = len(merged)
			merged = append(merged, p)
		} else {
			unknown = append(unknown, p.Key)
		}
	}
	//
	return merged, unknown
}

// templateRefs collects the placeholder names a template references.
func templateRefs(template string) map[string]bool {
	refs := make(map[string]bool)
	//
	for _, match := range placeholderRegexp.FindAllStringSubmatch(template, -1) {
		refs[match[1]] = true
	}
	//
	return refs
}

// joinParams renders a merged parameter list as space-joined "key=value"
// tokens.
func joinParams(params []graph.Param) string {
	tokens := make([]string, len(params))
	//
	for i, p := range params {
		tokens[i] = p.Key + "=" + p.Value
	}
	//
	return strings.Join(tokens, " ")
}

// expand substitutes placeholders of the form "{name}" against the given
// value table, returning any placeholders which could not be resolved.
func expand(template string, values map[string]string) (string, []string) {
	var unresolved []string
	//
	result := placeholderRegexp.ReplaceAllStringFunc(template, func(ref string) string {
		name := ref[1 : len(ref)-1]
		//
		if value, ok := values[name]; ok {
			return value
		}
		//
		unresolved = append(unresolved, name)
		//
		return ref
	})
	//
	return result, unresolved
}
