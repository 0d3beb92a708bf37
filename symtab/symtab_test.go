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

package symtab

import (
	"testing"

	"github.com/go-smv/smvcore/compileerr"
	"github.com/go-smv/smvcore/node"
	"github.com/stretchr/testify/require"
)

func TestDeclareStateVarAndLookup(t *testing.T) {
	pool := node.NewPool()
	st := New(pool)

	x := pool.Atom("x")
	require.NoError(t, st.DeclareStateVar(x, BooleanRange))
	require.True(t, st.IsVar(x))
	require.True(t, st.IsStateVar(x))
	require.False(t, st.IsInputVar(x))
	require.True(t, st.IsBooleanVar(x))
	require.Equal(t, []node.ID{x}, st.StateVars())
	require.Equal(t, []node.ID{x}, st.BoolStateVars())
}

func TestRedeclarationFails(t *testing.T) {
	pool := node.NewPool()
	st := New(pool)
	x := pool.Atom("x")
	require.NoError(t, st.DeclareStateVar(x, BooleanRange))

	err := st.DeclareDefine(x, "main", pool.Number(1))
	require.Error(t, err)
	require.True(t, compileerr.Is(err, compileerr.Redefined))
}

func TestPushPopEnumerationRoundTrip(t *testing.T) {
	pool := node.NewPool()
	st := New(pool)
	x := pool.Atom("x")
	require.NoError(t, st.DeclareStateVar(x, BooleanRange))

	before := append([]node.ID(nil), st.StateVars()...)

	child, err := st.Push()
	require.NoError(t, err)

	// The tableau can still see the base alphabet through the child...
	require.True(t, child.IsVar(x))
	// ...but child declarations do not leak into the parent's enumerations.
	y := pool.Atom("y")
	require.NoError(t, child.DeclareStateVar(y, BooleanRange))
	require.Equal(t, before, st.StateVars())

	// A second push is rejected while one is outstanding.
	_, err = st.Push()
	require.Error(t, err)

	require.NoError(t, st.Pop())
	require.Equal(t, before, st.StateVars())
}

func TestConstantDeclarationIsIdempotent(t *testing.T) {
	pool := node.NewPool()
	st := New(pool)
	two := pool.Number(2)
	require.NoError(t, st.DeclareConstant(two))
	require.NoError(t, st.DeclareConstant(two))
	require.Len(t, st.Constants(), 1)
}

func TestSortBoolVarsRules(t *testing.T) {
	pool := node.NewPool()
	st := New(pool)

	y := pool.Atom("y")
	bit0 := pool.Bit(y, 0)
	bit1 := pool.Bit(y, 1)
	require.NoError(t, st.DeclareStateVar(bit0, BooleanRange))
	require.NoError(t, st.DeclareStateVar(bit1, BooleanRange))
	st.Groups().RegisterScalar(y, []node.ID{bit0, bit1})

	z := pool.Atom("z")
	require.NoError(t, st.DeclareStateVar(z, BooleanRange))

	unknown := pool.Atom("not_declared")
	_ = unknown

	warnings, err := st.SortBoolVars([]string{"z", "not_declared", "y"})
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	require.Contains(t, warnings[0], "not_declared")

	got := st.BoolStateVars()
	require.Equal(t, []node.ID{z, bit0, bit1}, got)
}

func TestSortBoolVarsAppendsMissingBitsWithWarning(t *testing.T) {
	pool := node.NewPool()
	st := New(pool)
	y := pool.Atom("y")
	bit0 := pool.Bit(y, 0)
	bit1 := pool.Bit(y, 1)
	require.NoError(t, st.DeclareStateVar(bit0, BooleanRange))
	require.NoError(t, st.DeclareStateVar(bit1, BooleanRange))
	st.Groups().RegisterScalar(y, []node.ID{bit0, bit1})

	warnings, err := st.SortBoolVars(nil)
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	require.Contains(t, warnings[0], "MissingVarsWarning")
	require.Equal(t, []node.ID{bit0, bit1}, st.BoolStateVars())
}
