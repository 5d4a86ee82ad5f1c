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
package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/asdl-lang/asdl-go/pkg/asdl/emit"
)

var backendsCmd = &cobra.Command{
	Use:   "backends [flags]",
	Short: "list the configured backends.",
	Long:  `List every backend of the active registry together with its extension and device templates.`,
	Run: func(cmd *cobra.Command, args []string) {
		configureLogging(cmd)
		//
		registry := loadRegistry(GetString(cmd, "backends"))
		//
		if registry == nil {
			registry = emit.DefaultRegistry()
		}
		//
		for _, name := range registry.Names() {
			backend, _ := registry.Get(name)
			fmt.Printf("%s (extension %q)\n", name, backend.Extension)
			//
			for _, kind := range templateKinds(backend) {
				fmt.Printf("  %s: %s\n", kind, backend.DeviceTemplates[kind])
			}
		}
	},
}

func templateKinds(backend *emit.Backend) []string {
	kinds := make([]string, 0, len(backend.DeviceTemplates))
	//
	for kind := range backend.DeviceTemplates {
		kinds = append(kinds, kind)
	}
	// Deterministic listing.
	sort.Strings(kinds)
	//
	return kinds
}

//nolint:errcheck
func init() {
	rootCmd.AddCommand(backendsCmd)
	backendsCmd.Flags().String("backends", "", "specify backend registry file.")
}
