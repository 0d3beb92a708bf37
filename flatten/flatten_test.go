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

package flatten

import (
	"testing"

	"github.com/go-smv/smvcore/compileerr"
	"github.com/go-smv/smvcore/node"
	"github.com/go-smv/smvcore/symtab"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"
)

func newPoolAndTable() (*node.Pool, *symtab.SymbolTable) {
	pool := node.NewPool()
	return pool, symtab.New(pool)
}

// TestFlattenSimpleHierarchy instantiates a submodule and checks that its
// declarations end up qualified under the instance name and owned by the
// right variable in the FSM.
func TestFlattenSimpleHierarchy(t *testing.T) {
	pool, st := newPoolAndTable()
	y := pool.Atom("y")

	counter := &Module{
		Name: "counter",
		Decls: []Decl{
			VarBlock{Fields: []VarField{{Name: y, Spec: VarSpec{Kind: KindBoolean}}}},
			AssignBlock{Target: pool.SmallInit(y), Expr: pool.False()},
			AssignBlock{Target: pool.Next(y), Expr: pool.Unary(node.Not, y)},
		},
	}
	main := &Module{
		Name: "main",
		Decls: []Decl{
			VarBlock{Fields: []VarField{{
				Name: pool.Atom("c"),
				Spec: VarSpec{Kind: KindModuleInstance, ModuleName: "counter"},
			}}},
		},
	}
	prog := &Program{Modules: map[string]*Module{"main": main, "counter": counter}}

	fl := New(pool, st, prog)
	model, err := fl.FlattenHierarchy("main", "main", nil)
	require.NoError(t, err)
	require.NotNil(t, model)

	qy := pool.Dot(pool.Dot(pool.Atom("main"), pool.Atom("c")), y)
	require.True(t, st.IsStateVar(qy))
	require.Len(t, fl.pending, 2)
	require.Equal(t, qy, fl.pending[0].owner)
}

// TestSingletonRangeDowngradesToConstant exercises the ad hoc downgrade path:
// a range with Lo==Hi never becomes a state variable, and is reported as a
// warning rather than a fatal error.
func TestSingletonRangeDowngradesToConstant(t *testing.T) {
	pool, st := newPoolAndTable()
	z := pool.Atom("z")

	main := &Module{
		Name: "main",
		Decls: []Decl{
			VarBlock{Fields: []VarField{{Name: z, Spec: VarSpec{Kind: KindRange, Lo: 3, Hi: 3}}}},
		},
	}
	prog := &Program{Modules: map[string]*Module{"main": main}}

	fl := New(pool, st, prog)
	_, err := fl.FlattenHierarchy("main", "main", nil)
	require.NoError(t, err)

	qz := pool.Dot(pool.Atom("main"), z)
	require.False(t, st.IsStateVar(qz))
	require.True(t, st.IsDefine(qz))
	require.NotEmpty(t, fl.Warnings)
}

// TestEmptyRangeIsFatal checks that b<a is rejected rather than silently
// producing an empty variable.
func TestEmptyRangeIsFatal(t *testing.T) {
	pool, st := newPoolAndTable()
	z := pool.Atom("z")
	main := &Module{
		Name: "main",
		Decls: []Decl{
			VarBlock{Fields: []VarField{{Name: z, Spec: VarSpec{Kind: KindRange, Lo: 5, Hi: 1}}}},
		},
	}
	prog := &Program{Modules: map[string]*Module{"main": main}}
	fl := New(pool, st, prog)
	_, err := fl.FlattenHierarchy("main", "main", nil)
	require.Error(t, err)
}

// TestProcessAxisGuardsNextAssigns builds two processes sharing a variable
// kind and checks that the axis declares the selector input and rewrites
// each process's own NEXT-assign into a CASE guarded by its running define.
func TestProcessAxisGuardsNextAssigns(t *testing.T) {
	pool, st := newPoolAndTable()
	v := pool.Atom("v")

	proc := &Module{
		Name: "proc",
		Decls: []Decl{
			VarBlock{Fields: []VarField{{Name: v, Spec: VarSpec{Kind: KindBoolean}}}},
			AssignBlock{Target: pool.Next(v), Expr: pool.Unary(node.Not, v)},
		},
	}
	main := &Module{
		Name: "main",
		Decls: []Decl{
			VarBlock{Fields: []VarField{
				{Name: pool.Atom("p1"), Spec: VarSpec{Kind: KindProcess, ModuleName: "proc"}},
				{Name: pool.Atom("p2"), Spec: VarSpec{Kind: KindProcess, ModuleName: "proc"}},
			}},
		},
	}
	prog := &Program{Modules: map[string]*Module{"main": main, "proc": proc}}

	fl := New(pool, st, prog)
	model, err := fl.FlattenHierarchy("main", "main", nil)
	require.NoError(t, err)
	require.Len(t, model.Procs, 2)

	selector := pool.Atom(processSelectorName)
	require.True(t, st.IsInputVar(selector))

	for _, p := range fl.pending {
		require.Equal(t, node.Case, pool.Tag(p.rhs))
	}
}

// TestSingleProcessLeavesAssignsUnguarded confirms the axis is a no-op with
// fewer than two processes: a lone process always runs.
func TestSingleProcessLeavesAssignsUnguarded(t *testing.T) {
	pool, st := newPoolAndTable()
	v := pool.Atom("v")
	proc := &Module{
		Name: "proc",
		Decls: []Decl{
			VarBlock{Fields: []VarField{{Name: v, Spec: VarSpec{Kind: KindBoolean}}}},
			AssignBlock{Target: pool.Next(v), Expr: pool.Unary(node.Not, v)},
		},
	}
	main := &Module{
		Name: "main",
		Decls: []Decl{
			VarBlock{Fields: []VarField{
				{Name: pool.Atom("p1"), Spec: VarSpec{Kind: KindProcess, ModuleName: "proc"}},
			}},
		},
	}
	prog := &Program{Modules: map[string]*Module{"main": main, "proc": proc}}

	fl := New(pool, st, prog)
	_, err := fl.FlattenHierarchy("main", "main", nil)
	require.NoError(t, err)

	selector := pool.Atom(processSelectorName)
	require.False(t, st.IsInputVar(selector))
	for _, p := range fl.pending {
		require.NotEqual(t, node.Case, pool.Tag(p.rhs))
	}
}

// TestAssignOutOfRangeConstantIsFatal checks that init(z):=5 against a
// 1..3 range raises RangeOutOfDomain rather than compiling clean.
func TestAssignOutOfRangeConstantIsFatal(t *testing.T) {
	pool, st := newPoolAndTable()
	z := pool.Atom("z")
	main := &Module{
		Name: "main",
		Decls: []Decl{
			VarBlock{Fields: []VarField{{Name: z, Spec: VarSpec{Kind: KindRange, Lo: 1, Hi: 3}}}},
			AssignBlock{Target: pool.SmallInit(z), Expr: pool.Number(5)},
		},
	}
	prog := &Program{Modules: map[string]*Module{"main": main}}
	fl := New(pool, st, prog)
	_, err := fl.FlattenHierarchy("main", "main", nil)
	require.Error(t, err)
	require.True(t, compileerr.Is(err, compileerr.RangeOutOfDomain))
}

// TestAssignInRangeConstantIsAccepted is the positive counterpart: a
// constant within the declared range must not trip the domain check.
func TestAssignInRangeConstantIsAccepted(t *testing.T) {
	pool, st := newPoolAndTable()
	z := pool.Atom("z")
	main := &Module{
		Name: "main",
		Decls: []Decl{
			VarBlock{Fields: []VarField{{Name: z, Spec: VarSpec{Kind: KindRange, Lo: 1, Hi: 3}}}},
			AssignBlock{Target: pool.SmallInit(z), Expr: pool.Number(2)},
		},
	}
	prog := &Program{Modules: map[string]*Module{"main": main}}
	fl := New(pool, st, prog)
	_, err := fl.FlattenHierarchy("main", "main", nil)
	require.NoError(t, err)
}

// TestCircularDefineDetected checks expandDefine's in-progress sentinel.
func TestCircularDefineDetected(t *testing.T) {
	pool, st := newPoolAndTable()
	a := pool.Atom("a")
	b := pool.Atom("b")
	main := &Module{
		Name: "main",
		Decls: []Decl{
			DefineBlock{Name: a, Body: b},
			DefineBlock{Name: b, Body: a},
			ConstraintBlock{Tag: node.Invar, Expr: a},
		},
	}
	prog := &Program{Modules: map[string]*Module{"main": main}}
	fl := New(pool, st, prog)
	_, err := fl.FlattenHierarchy("main", "main", nil)
	require.Error(t, err)
}

// counterHierarchy builds the same two-module program used by
// TestFlattenSimpleHierarchy against a fresh pool/table pair, so callers can
// flatten it twice and compare the results.
func counterHierarchy(pool *node.Pool) *Program {
	y := pool.Atom("y")
	counter := &Module{
		Name: "counter",
		Decls: []Decl{
			VarBlock{Fields: []VarField{{Name: y, Spec: VarSpec{Kind: KindBoolean}}}},
			AssignBlock{Target: pool.SmallInit(y), Expr: pool.False()},
			AssignBlock{Target: pool.Next(y), Expr: pool.Unary(node.Not, y)},
		},
	}
	main := &Module{
		Name: "main",
		Decls: []Decl{
			VarBlock{Fields: []VarField{{
				Name: pool.Atom("c"),
				Spec: VarSpec{Kind: KindModuleInstance, ModuleName: "counter"},
			}}},
		},
	}
	return &Program{Modules: map[string]*Module{"main": main, "counter": counter}}
}

// TestFlattenIsDeterministic flattens the same hierarchy twice, from two
// independent pools built in the same allocation order, and checks that the
// resulting FlatModels agree node-for-node: the flattener must not depend on
// map iteration order or any other source of nondeterminism. The FSM field
// carries unexported bookkeeping (owning pool/analyzer pointers) that is
// intentionally excluded from the comparison.
func TestFlattenIsDeterministic(t *testing.T) {
	pool1, st1 := newPoolAndTable()
	model1, err := New(pool1, st1, counterHierarchy(pool1)).FlattenHierarchy("main", "main", nil)
	require.NoError(t, err)

	pool2, st2 := newPoolAndTable()
	model2, err := New(pool2, st2, counterHierarchy(pool2)).FlattenHierarchy("main", "main", nil)
	require.NoError(t, err)

	if diff := cmp.Diff(model1, model2, cmpopts.IgnoreFields(FlatModel{}, "FSM")); diff != "" {
		t.Errorf("flattening the same hierarchy twice produced different models (-first +second):\n%s", diff)
	}
}
