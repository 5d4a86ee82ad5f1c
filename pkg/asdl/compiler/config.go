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

// Package compiler lowers the authoring AST into the patterned program
// graph, atomizes it into the literal-named graph, and verifies the result.
// Every stage reports problems through the diagnostics bag and recovers to
// continue with sibling entities: a broken instance does not abort its
// module, nor a broken module its siblings.
package compiler

import (
	"github.com/asdl-lang/asdl-go/pkg/asdl/pattern"
)

// Config encapsulates the options affecting lowering and verification.
type Config struct {
	// Bound on the expansion length of a single pattern expression.
	MaxExpansion int
	// Permits instances to leave ports of a referenced module unconnected
	// (downgrades MissingPort to a warning).
	AllowMissingModulePorts bool
	// Emits a warning when an instance leaves device pins unconnected.
	WarnMissingDevicePins bool
}

// DefaultConfig returns the standard compilation options.
func DefaultConfig() Config {
	return Config{
		MaxExpansion:          pattern.DefaultMaxExpansion,
		WarnMissingDevicePins: true,
	}
}
