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

package cnf

import (
	"fmt"
	"strings"
	"testing"

	"github.com/go-smv/smvcore/rbc"
	"github.com/stretchr/testify/require"
	"golang.org/x/tools/txtar"
)

// goldenScenarios is a txtar archive describing named CNF translation
// scenarios: each scenario is a pair of files, "<name>.gate" (how the RBC
// circuit is built, one instruction per line) and "<name>.clauses" (the
// expected clause set, one clause per line, literals space-separated), the
// same archive-of-named-files shape tools/cmd/golden-test uses for its own
// integration fixtures.
const goldenScenarios = `
-- and.gate --
and v0 v1
-- and.clauses --
-3 1
-3 2
3 -1 -2

-- iff.gate --
iff v0 v1
-- iff.clauses --
-3 -1 2
-3 1 -2
3 1 2
3 -1 -2
`

// runGate interprets one ".gate" scenario body (currently "and" and "iff" of
// the first two declared vars) and returns the translator's clause set.
func runGate(t *testing.T, body string) []Clause {
	t.Helper()
	fields := strings.Fields(strings.TrimSpace(body))
	require.Len(t, fields, 3, "gate line must be '<op> v0 v1'")

	m := rbc.NewManager()
	x, y := m.Var(0), m.Var(1)

	var gate rbc.Lit
	switch fields[0] {
	case "and":
		gate = m.And(x, y, rbc.Positive)
	case "iff":
		gate = m.Iff(x, y, rbc.Positive)
	default:
		t.Fatalf("unknown gate op %q", fields[0])
	}

	tr := NewTranslator(m)
	tr.Encode(x)
	tr.Encode(y)
	tr.Encode(gate)
	return tr.Clauses()
}

func formatClauses(clauses []Clause) string {
	var b strings.Builder
	for _, c := range clauses {
		lits := make([]string, len(c))
		for i, l := range c {
			lits[i] = fmt.Sprint(l)
		}
		fmt.Fprintln(&b, strings.Join(lits, " "))
	}
	return b.String()
}

// TestTseitinClausesMatchGoldenFixtures walks every "<name>.gate" entry in
// goldenScenarios, translates it, and checks the clause text against the
// matching "<name>.clauses" entry.
func TestTseitinClausesMatchGoldenFixtures(t *testing.T) {
	archive := txtar.Parse([]byte(goldenScenarios))

	files := make(map[string]string, len(archive.Files))
	for _, f := range archive.Files {
		files[f.Name] = string(f.Data)
	}

	for name, gate := range files {
		name, gate := name, gate
		if !strings.HasSuffix(name, ".gate") {
			continue
		}
		scenario := strings.TrimSuffix(name, ".gate")
		t.Run(scenario, func(t *testing.T) {
			want, ok := files[scenario+".clauses"]
			require.True(t, ok, "missing %s.clauses fixture", scenario)

			got := formatClauses(runGate(t, gate))
			require.Equal(t, strings.TrimSpace(want), strings.TrimSpace(got))
		})
	}
}
