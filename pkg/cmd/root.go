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
	"runtime/debug"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// Version is filled when building with make, but *not* when installing via
// "go install".
var Version string

// Name of the environment variable holding additional library roots
// (colon-separated, semicolon on Windows), probed after any roots given on
// the command line.
const PathEnvVar = "ASDL_PATH"

// Name of the environment variable pointing at the backend registry file,
// used when --backends is not given.
const BackendsEnvVar = "ASDL_BACKENDS"

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "asdl",
	Short: "A compiler for the ASDL hardware description language.",
	Long:  "A compiler (and general toolbox) for the ASDL analog hardware description language.",
	Run: func(cmd *cobra.Command, args []string) {
		if GetFlag(cmd, "version") {
			fmt.Print("asdl ")
			if Version != "" {
				// Built via "make"
				fmt.Printf("%s", Version)
			} else if info, ok := debug.ReadBuildInfo(); ok {
				// Built via "go install"
				fmt.Printf("%s", info.Main.Version)
			} else {
				// Unknown, perhaps "go run"
				fmt.Printf("(unknown version)")
			}
			fmt.Println()
		}
	},
}

// Execute adds all child commands to the root command and sets flags
// appropriately.  This is called by main.main(), and only needs to happen
// once.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

//nolint:errcheck
func init() {
	log.SetOutput(os.Stderr)
	//
	rootCmd.Flags().Bool("version", false, "print version information")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging")
}

// configureLogging raises the log level when requested.
func configureLogging(cmd *cobra.Command) {
	if GetFlag(cmd, "verbose") {
		log.SetLevel(log.DebugLevel)
	}
}
