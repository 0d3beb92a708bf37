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

// This file lives in the symtab_test external package (rather than
// symtab's own internal test package) so it can import depend, the
// package that supplies SymbolTable.ModelSymbols's DependencyResolver,
// without symtab itself ever importing depend.
package symtab_test

import (
	"testing"

	"github.com/go-smv/smvcore/depend"
	"github.com/go-smv/smvcore/node"
	"github.com/go-smv/smvcore/symtab"
	"github.com/stretchr/testify/require"
)

// TestModelSymbolsPartitionsDefines declares one state variable, one input
// variable, and three defines — one depending on the state variable only,
// one on the input variable only, and one on both — and checks that
// ModelSymbols sorts each define into the matching partition.
func TestModelSymbolsPartitionsDefines(t *testing.T) {
	pool := node.NewPool()
	st := symtab.New(pool)

	s := pool.Atom("s")
	i := pool.Atom("i")
	require.NoError(t, st.DeclareStateVar(s, symtab.BooleanRange))
	require.NoError(t, st.DeclareInputVar(i, symtab.BooleanRange))

	stateOnly := pool.Atom("stateOnly")
	inputOnly := pool.Atom("inputOnly")
	both := pool.Atom("both")
	require.NoError(t, st.DeclareDefine(stateOnly, "", s))
	require.NoError(t, st.DeclareDefine(inputOnly, "", i))
	require.NoError(t, st.DeclareDefine(both, "", pool.Binary(node.And, s, i)))

	analyzer := depend.NewAnalyzer(pool, st)

	gotStateOnly, gotInputOnly, gotBoth, err := st.ModelSymbols(analyzer)
	require.NoError(t, err)
	require.Equal(t, []node.ID{stateOnly}, gotStateOnly)
	require.Equal(t, []node.ID{inputOnly}, gotInputOnly)
	require.Equal(t, []node.ID{both}, gotBoth)
}

// TestModelSymbolsExcludesClosedDefines checks that a define whose body is
// a closed constant (no variable dependencies at all) lands in none of the
// three partitions.
func TestModelSymbolsExcludesClosedDefines(t *testing.T) {
	pool := node.NewPool()
	st := symtab.New(pool)

	closed := pool.Atom("closed")
	require.NoError(t, st.DeclareDefine(closed, "", pool.True()))

	analyzer := depend.NewAnalyzer(pool, st)

	stateOnly, inputOnly, both, err := st.ModelSymbols(analyzer)
	require.NoError(t, err)
	require.Empty(t, stateOnly)
	require.Empty(t, inputOnly)
	require.Empty(t, both)
}
