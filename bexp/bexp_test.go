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

package bexp

import (
	"testing"

	"github.com/go-smv/smvcore/compileerr"
	"github.com/go-smv/smvcore/node"
	"github.com/go-smv/smvcore/rbc"
	"github.com/go-smv/smvcore/symtab"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*node.Pool, *symtab.SymbolTable, *rbc.Manager) {
	t.Helper()
	pool := node.NewPool()
	st := symtab.New(pool)
	return pool, st, rbc.NewManager()
}

func TestConvertAndMatchesRBCAnd(t *testing.T) {
	pool, st, rm := setup(t)
	x, y := pool.Atom("x"), pool.Atom("y")
	require.NoError(t, st.DeclareStateVar(x, symtab.BooleanRange))
	require.NoError(t, st.DeclareStateVar(y, symtab.BooleanRange))

	c := NewConverter(pool, st, rm, 64, false)
	expr := pool.Binary(node.And, x, y)
	got, err := c.Convert(expr, false)
	require.NoError(t, err)

	xLit, err := c.Convert(x, false)
	require.NoError(t, err)
	yLit, err := c.Convert(y, false)
	require.NoError(t, err)
	require.Equal(t, rm.And(xLit, yLit, rbc.Positive), got)
}

func TestConvertNextUsesDisjointVariable(t *testing.T) {
	pool, st, rm := setup(t)
	x := pool.Atom("x")
	require.NoError(t, st.DeclareStateVar(x, symtab.BooleanRange))

	c := NewConverter(pool, st, rm, 64, false)
	plain, err := c.Convert(x, false)
	require.NoError(t, err)
	next, err := c.Convert(pool.Next(x), false)
	require.NoError(t, err)
	require.NotEqual(t, plain, next)
}

func TestConvertCaseBuildsIte(t *testing.T) {
	pool, st, rm := setup(t)
	x, y, z := pool.Atom("x"), pool.Atom("y"), pool.Atom("z")
	require.NoError(t, st.DeclareStateVar(x, symtab.BooleanRange))
	require.NoError(t, st.DeclareStateVar(y, symtab.BooleanRange))
	require.NoError(t, st.DeclareStateVar(z, symtab.BooleanRange))

	c := NewConverter(pool, st, rm, 64, false)
	caseExpr := pool.Binary(node.Case, pool.Binary(node.Colon, x, y), z)
	got, err := c.Convert(caseExpr, false)
	require.NoError(t, err)

	xLit, _ := c.Convert(x, false)
	yLit, _ := c.Convert(y, false)
	zLit, _ := c.Convert(z, false)
	require.Equal(t, rm.Ite(xLit, yLit, zLit, rbc.Positive), got)
}

func TestReduceAgreesWithConvertOnTruthTable(t *testing.T) {
	pool, st, rm := setup(t)
	x, y := pool.Atom("x"), pool.Atom("y")
	require.NoError(t, st.DeclareStateVar(x, symtab.BooleanRange))
	require.NoError(t, st.DeclareStateVar(y, symtab.BooleanRange))

	c := NewConverter(pool, st, rm, 64, false)
	expr := pool.Binary(node.Iff, x, y)

	direct, err := c.Convert(expr, false)
	require.NoError(t, err)
	reduced, err := c.Reduce(expr, false)
	require.NoError(t, err)
	require.Equal(t, direct, reduced)
}

func TestNonBooleanVariableRejected(t *testing.T) {
	pool, st, rm := setup(t)
	y := pool.Atom("y")
	rng := symtab.Range{Values: []node.ID{pool.Number(0), pool.Number(1), pool.Number(2)}}
	require.NoError(t, st.DeclareStateVar(y, rng))

	c := NewConverter(pool, st, rm, 64, false)
	_, err := c.Convert(y, false)
	require.Error(t, err)
	require.True(t, compileerr.Is(err, compileerr.TypeError))
}

// TestIndexOfBandsDoNotCollide checks that, when capacity is sized as
// cmd/smvc's renderCNF sizes it (2*n+1 for n boolean state/input vars), the
// current-state band and the NEXT-state band never hand out the same index
// even when every variable appears in both forms.
func TestIndexOfBandsDoNotCollide(t *testing.T) {
	pool, st, rm := setup(t)
	n := 5
	names := make([]node.ID, n)
	for i := range names {
		name := pool.Atom(string(rune('a' + i)))
		require.NoError(t, st.DeclareStateVar(name, symtab.BooleanRange))
		names[i] = name
	}

	c := NewConverter(pool, st, rm, 2*n+1, false)

	seen := make(map[int]bool)
	for _, name := range names {
		idx := c.indexOf(name, false)
		require.False(t, seen[idx], "current-state index %d reused", idx)
		seen[idx] = true
	}
	for _, name := range names {
		idx := c.indexOf(name, true)
		require.False(t, seen[idx], "NEXT-state index %d collides with a current-state index", idx)
		seen[idx] = true
	}
}

func TestDeterminizeRefusedWithoutAllowNondet(t *testing.T) {
	pool, st, rm := setup(t)
	c := NewConverter(pool, st, rm, 64, false)
	_, _, err := c.Determinize("p1.x", []rbc.Lit{rbc.One(), rbc.Zero()})
	require.Error(t, err)
	require.True(t, compileerr.Is(err, compileerr.NondetNotAllowed))
}

func TestDeterminizeBuildsSelectorOverWitnesses(t *testing.T) {
	pool, st, rm := setup(t)
	c := NewConverter(pool, st, rm, 64, true)

	branches := []rbc.Lit{rm.Var(100), rm.Var(101), rm.Var(102)}
	tree, witnesses, err := c.Determinize("p1.x", branches)
	require.NoError(t, err)
	require.Len(t, witnesses, 2) // ceil(log2(3))
	require.Equal(t, rbc.SymIte, rm.Sym(tree))

	require.Len(t, st.DetermVars(), 2)
	for _, name := range st.DetermVars() {
		require.True(t, st.IsInputVar(name))
		require.False(t, st.IsModelInputVar(name))
	}
}

func TestDeterminizeSingleBranchIsIdentity(t *testing.T) {
	pool, st, rm := setup(t)
	c := NewConverter(pool, st, rm, 64, true)
	only := rm.Var(5)

	tree, witnesses, err := c.Determinize("p1.x", []rbc.Lit{only})
	require.NoError(t, err)
	require.Empty(t, witnesses)
	require.Equal(t, only, tree)
}
