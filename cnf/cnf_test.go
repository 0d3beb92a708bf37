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
	"testing"

	"github.com/go-smv/smvcore/rbc"
	"github.com/stretchr/testify/require"
)

// eval interprets a signed literal against an assignment keyed by
// unsigned variable number.
func eval(lit int, assign map[int]bool) bool {
	if lit < 0 {
		return !assign[-lit]
	}
	return assign[lit]
}

func satisfies(clauses []Clause, assign map[int]bool) bool {
	for _, c := range clauses {
		ok := false
		for _, lit := range c {
			if eval(lit, assign) {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	return true
}

func TestAddRootAssertsUnitClause(t *testing.T) {
	m := rbc.NewManager()
	x := m.Var(0)

	tr := NewTranslator(m)
	lit := tr.AddRoot(x)

	require.True(t, satisfies(tr.Clauses(), map[int]bool{1: true, lit: true}))
	require.False(t, satisfies(tr.Clauses(), map[int]bool{1: true, lit: false}))
}

func TestAndGateClausesMatchTruthTable(t *testing.T) {
	m := rbc.NewManager()
	x, y := m.Var(0), m.Var(1)
	and := m.And(x, y, rbc.Positive)

	tr := NewTranslator(m)
	zLit := tr.Encode(and)
	xLit := tr.Encode(x)
	yLit := tr.Encode(y)

	for _, xv := range []bool{true, false} {
		for _, yv := range []bool{true, false} {
			assign := map[int]bool{1: true}
			assign[abs(xLit)] = xv
			assign[abs(yLit)] = yv
			assign[abs(zLit)] = xv && yv
			require.True(t, satisfies(tr.Clauses(), assign), "x=%v y=%v", xv, yv)
		}
	}
}

func abs(i int) int {
	if i < 0 {
		return -i
	}
	return i
}

func TestTranslationIsMemoizedAcrossRoots(t *testing.T) {
	m := rbc.NewManager()
	x, y := m.Var(0), m.Var(1)
	shared := m.And(x, y, rbc.Positive)

	tr := NewTranslator(m)
	tr.AddRoot(shared)
	before := tr.NumVars()
	tr.AddRoot(shared)
	require.Equal(t, before, tr.NumVars())
}

func TestConstantsUseTrueVar(t *testing.T) {
	m := rbc.NewManager()
	tr := NewTranslator(m)

	require.Equal(t, 1, tr.Encode(rbc.One()))
	require.Equal(t, -1, tr.Encode(rbc.Zero()))
}

func TestNewSinceReturnsOnlyDelta(t *testing.T) {
	m := rbc.NewManager()
	x := m.Var(0)
	y := m.Var(1)

	tr := NewTranslator(m)
	tr.AddRoot(x)
	mark := tr.Watermark()
	tr.AddRoot(y)
	delta := tr.NewSince(mark)
	require.NotEmpty(t, delta)
	require.Equal(t, tr.Clauses()[mark:], delta)
}
