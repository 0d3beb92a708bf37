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

package dump

import (
	"strings"
	"testing"

	"github.com/go-smv/smvcore/bexp"
	"github.com/go-smv/smvcore/flatten"
	"github.com/go-smv/smvcore/node"
	"github.com/go-smv/smvcore/rbc"
	"github.com/go-smv/smvcore/symtab"
	"github.com/stretchr/testify/require"
)

// buildCounter flattens a two-variable counter module: y is toggled every
// step, and a constant-downgraded singleton range z exercises the DEFINE
// section.
func buildCounter(t *testing.T) (*node.Pool, *symtab.SymbolTable, *flatten.FlatModel) {
	t.Helper()
	pool := node.NewPool()
	st := symtab.New(pool)
	y := pool.Atom("y")
	z := pool.Atom("z")

	main := &flatten.Module{
		Name: "main",
		Decls: []flatten.Decl{
			flatten.VarBlock{Fields: []flatten.VarField{
				{Name: y, Spec: flatten.VarSpec{Kind: flatten.KindBoolean}},
				{Name: z, Spec: flatten.VarSpec{Kind: flatten.KindRange, Lo: 0, Hi: 0}},
			}},
			flatten.AssignBlock{Target: pool.SmallInit(y), Expr: pool.False()},
			flatten.AssignBlock{Target: pool.Next(y), Expr: pool.Unary(node.Not, y)},
			flatten.ConstraintBlock{Tag: node.Invar, Expr: pool.True()},
			flatten.SpecBlock{Tag: node.Spec, Expr: pool.Unary(node.AG, y)},
		},
	}
	prog := &flatten.Program{Modules: map[string]*flatten.Module{"main": main}}

	fl := flatten.New(pool, st, prog)
	model, err := fl.FlattenHierarchy("main", "main", nil)
	require.NoError(t, err)
	return pool, st, model
}

func TestRenderModuleIncludesDeclaredSections(t *testing.T) {
	pool, st, model := buildCounter(t)
	r := New(pool, st)

	text, warnings := r.RenderModule("main", model)
	require.Empty(t, warnings)

	require.True(t, strings.HasPrefix(text, "MODULE main\n"))
	require.Contains(t, text, "VAR\n")
	require.Contains(t, text, "y: boolean;")
	require.Contains(t, text, "DEFINE\n")
	require.Contains(t, text, "ASSIGN\n")
	require.Contains(t, text, "init(")
	require.Contains(t, text, "next(")
	require.Contains(t, text, "SPEC AG")
}

func TestRenderModuleReportsPslspecWarning(t *testing.T) {
	pool := node.NewPool()
	st := symtab.New(pool)
	model := &flatten.FlatModel{
		Pslspec: []node.ID{pool.Atom("always_x")},
		Assign:  pool.True(),
	}
	r := New(pool, st)
	text, warnings := r.RenderModule("main", model)
	require.Contains(t, text, "-- PSLSPEC")
	require.Len(t, warnings, 1)
}

func TestCaseRendersAllBranchesAndDefault(t *testing.T) {
	pool := node.NewPool()
	st := symtab.New(pool)
	r := New(pool, st)

	a, b, c := pool.Atom("a"), pool.Atom("b"), pool.Atom("c")
	inner := pool.Binary(node.Case, pool.Binary(node.Colon, b, pool.Number(2)), pool.Number(3))
	outer := pool.Binary(node.Case, pool.Binary(node.Colon, a, pool.Number(1)), inner)
	_ = c

	rendered := r.renderExpr(outer)
	require.True(t, strings.HasPrefix(rendered, "CASE "))
	require.Contains(t, rendered, "a : 1;")
	require.Contains(t, rendered, "b : 2;")
	require.Contains(t, rendered, "TRUE : 3;")
	require.True(t, strings.HasSuffix(rendered, "ESAC"))
}

// TestFormulaBuilderRoundTripsAndGate checks that an AND gate built directly
// in RBC renders back to a sexp whose two conjuncts are the same two
// variables it started from.
func TestFormulaBuilderRoundTripsAndGate(t *testing.T) {
	pool := node.NewPool()
	st := symtab.New(pool)
	require.NoError(t, st.DeclareStateVar(pool.Atom("x"), symtab.BooleanRange))
	require.NoError(t, st.DeclareStateVar(pool.Atom("y"), symtab.BooleanRange))

	rm := rbc.NewManager()
	conv := bexp.NewConverter(pool, st, rm, 8, false)

	x, err := conv.Convert(pool.Atom("x"), false)
	require.NoError(t, err)
	y, err := conv.Convert(pool.Atom("y"), false)
	require.NoError(t, err)
	and := rm.And(x, y, rbc.Positive)

	fb := NewFormulaBuilder(pool, conv)
	formula := fb.ToFormula(and)

	require.Equal(t, node.And, pool.Tag(formula))
	rendered := New(pool, st).renderExpr(formula)
	require.Contains(t, rendered, "x")
	require.Contains(t, rendered, "y")
	require.Contains(t, rendered, "&")
}

// TestFormulaBuilderRendersNegation confirms a negated literal round-trips
// through a NOT wrapper rather than silently dropping the polarity.
func TestFormulaBuilderRendersNegation(t *testing.T) {
	pool := node.NewPool()
	st := symtab.New(pool)
	require.NoError(t, st.DeclareStateVar(pool.Atom("x"), symtab.BooleanRange))

	rm := rbc.NewManager()
	conv := bexp.NewConverter(pool, st, rm, 4, false)
	x, err := conv.Convert(pool.Atom("x"), false)
	require.NoError(t, err)

	fb := NewFormulaBuilder(pool, conv)
	formula := fb.ToFormula(rbc.Not(x))
	require.Equal(t, node.Not, pool.Tag(formula))
}
