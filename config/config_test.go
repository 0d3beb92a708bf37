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

package config

import (
	"flag"
	"testing"
)

func TestRegisterFlagsOverridesDefaults(t *testing.T) {
	c := Default()
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	c.RegisterFlags(fs)

	err := fs.Parse([]string{"-allow-nondet=false", "-output=cnf", "-var-order=/tmp/order.txt"})
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	if c.AllowNondet {
		t.Errorf("expected AllowNondet=false after parsing")
	}
	if c.Output != OutputCNF {
		t.Errorf("expected Output=cnf, got %v", c.Output)
	}
	if c.VarOrderFile != "/tmp/order.txt" {
		t.Errorf("expected var-order flag to be applied")
	}
}
