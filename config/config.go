// Copyright (c) 2024 The smvcore Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config centralizes the compiler's command-line-configurable
// knobs. Flags are registered against a caller-supplied *flag.FlagSet rather
// than the global flag.CommandLine, so that both the standalone CLI
// (cmd/smvc) and tests can construct independent Configs.
package config

import "flag"

// OutputFormat selects what cmd/smvc prints after running the pipeline.
type OutputFormat string

const (
	// OutputFlat renders the flattened module dump (see package dump).
	OutputFlat OutputFormat = "flat"
	// OutputCNF renders the Tseitin CNF of the booleanised model.
	OutputCNF OutputFormat = "cnf"
	// OutputBoth renders both, flat dump first.
	OutputBoth OutputFormat = "both"
)

// Config holds every user-tunable parameter of the compilation pipeline.
type Config struct {
	// VarOrderFile, if non-empty, names a variable-ordering file consumed by
	// SymbolTable.SortBoolVars (see package symtab).
	VarOrderFile string

	// AllowNondet controls whether bexp.Converter.Determinize may introduce
	// fresh determinisation input variables to choose among several
	// alternative values; when false, Determinize fails with
	// NondetNotAllowed. The BDD path (Converter.Reduce) does not consult it
	// and introduces no determinisation variables.
	AllowNondet bool

	// Output selects the CLI's dump format.
	Output OutputFormat

	// StableRoundLimit bounds the number of fix-point iterations the cone-
	// of-influence closure is allowed to run before the compiler concludes
	// it has stabilized; it is a development/testing safety valve against
	// a malformed dependency graph; it should never actually be reached
	// because the fix-point is provably monotone and finite.
	StableRoundLimit int
}

// Default returns a Config with the pipeline's default behavior: no
// ordering file, determinisation allowed, and a flat-only dump.
func Default() *Config {
	return &Config{
		AllowNondet:      true,
		Output:           OutputFlat,
		StableRoundLimit: 64,
	}
}

// RegisterFlags installs the Config's fields onto fs, mirroring the
// teacher's pattern of lifting an analyzer's flags so callers can bind them
// to their own FlagSet (e.g. the top-level CLI flag.CommandLine).
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.VarOrderFile, "var-order", c.VarOrderFile,
		"path to a variable-ordering file consumed before boolean encoding")
	fs.BoolVar(&c.AllowNondet, "allow-nondet", c.AllowNondet,
		"allow the sexp-to-bexp converter to introduce determinisation input variables")
	fs.IntVar(&c.StableRoundLimit, "stable-round-limit", c.StableRoundLimit,
		"safety bound on cone-of-influence fix-point iterations")

	fs.Func("output", "one of: flat, cnf, both (default \"flat\")", func(v string) error {
		c.Output = OutputFormat(v)
		return nil
	})
}
