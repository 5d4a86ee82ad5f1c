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
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/asdl-lang/asdl-go/pkg/asdl"
	"github.com/asdl-lang/asdl-go/pkg/asdl/diag"
	"github.com/asdl-lang/asdl-go/pkg/asdl/emit"
)

var netlistCmd = &cobra.Command{
	Use:   "netlist [flags] entry_file",
	Short: "compile an ASDL design into a netlist.",
	Long: `Compile the design rooted at the given entry file into a textual netlist for
	 the selected backend (ngspice by default).`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		configureLogging(cmd)
		//
		cfg := asdl.DefaultConfig()
		cfg.Backend = GetString(cmd, "backend")
		cfg.Verify = GetFlag(cmd, "verify") && !GetFlag(cmd, "no-verify")
		cfg.MaxExpansion = GetInt(cmd, "max-expansion")
		cfg.Roots = searchRoots(GetStringArray(cmd, "include"))
		cfg.Registry = loadRegistry(GetString(cmd, "backends"))
		//
		topAsSubckt := GetFlag(cmd, "top-as-subckt")
		cfg.TopAsSubckt = &topAsSubckt
		//
		result := asdl.Netlist(args[0], cfg)
		// Report diagnostics on stderr, netlist on disk.
		if GetFlag(cmd, "json") {
			if err := diag.PrintJSON(os.Stderr, result.Diagnostics); err != nil {
				fmt.Println(err)
				os.Exit(1)
			}
		} else {
			colour := term.IsTerminal(int(os.Stderr.Fd()))
			diag.NewPrinter(os.Stderr, result.Files, colour).Print(result.Diagnostics)
		}
		//
		if result.Failed() {
			os.Exit(1)
		}
		//
		output := GetString(cmd, "output")
		//
		if output == "" {
			output = defaultOutput(args[0], result.Backend)
		}
		//
		if err := os.WriteFile(output, []byte(result.Netlist), 0644); err != nil {
			fmt.Printf("error writing %s: %s\n", output, err.Error())
			os.Exit(1)
		}
	},
}

// searchRoots combines the CLI roots (in order) with any environment roots.
func searchRoots(cli []string) []string {
	roots := cli
	//
	if env := os.Getenv(PathEnvVar); env != "" {
		roots = append(roots, filepath.SplitList(env)...)
	}
	//
	return roots
}

// loadRegistry resolves the backend registry: the explicit path, then the
// environment, then the compiled-in default.
func loadRegistry(path string) *emit.Registry {
	if path == "" {
		path = os.Getenv(BackendsEnvVar)
	}
	//
	if path == "" {
		return nil
	}
	//
	registry, err := emit.LoadRegistry(path)
	//
	if err != nil {
		fmt.Printf("error loading backend registry: %s\n", err.Error())
		os.Exit(1)
	}
	//
	return registry
}

// defaultOutput derives the output filename from the entry file and the
// backend's extension.
func defaultOutput(entry string, backend *emit.Backend) string {
	extension := ".net"
	//
	if backend != nil && backend.Extension != "" {
		extension = backend.Extension
	}
	//
	base := strings.TrimSuffix(entry, filepath.Ext(entry))
	//
	return base + extension
}

//nolint:errcheck
func init() {
	rootCmd.AddCommand(netlistCmd)
	netlistCmd.Flags().StringP("output", "o", "", "specify output file.")
	netlistCmd.Flags().String("backend", emit.DefaultBackend, "specify target backend.")
	netlistCmd.Flags().String("backends", "", "specify backend registry file.")
	netlistCmd.Flags().Bool("verify", true, "enable verification passes")
	netlistCmd.Flags().Bool("no-verify", false, "disable verification passes")
	netlistCmd.Flags().Bool("top-as-subckt", true, "emit the top module as a subcircuit")
	netlistCmd.Flags().Bool("json", false, "report diagnostics as JSON")
	netlistCmd.Flags().Int("max-expansion", asdl.DefaultConfig().MaxExpansion,
		"maximum expansion length of a single pattern")
	netlistCmd.Flags().StringArrayP("include", "I", []string{}, "prepend a library search root.")
}
