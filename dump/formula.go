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
	"github.com/go-smv/smvcore/bexp"
	"github.com/go-smv/smvcore/node"
	"github.com/go-smv/smvcore/rbc"
)

// FormulaBuilder rebuilds a surface sexp from an RBC literal, the reverse
// direction of package bexp's sexp-to-RBC lowering. It exists so a
// diagnostic dump can show the circuit an ASSIGN/TRANS fragment reduced
// to, after BDD-based simplification folded together subexpressions that
// looked different in the original source.
type FormulaBuilder struct {
	pool *node.Pool
	rm   *rbc.Manager
	conv *bexp.Converter
	memo map[rbc.ID]node.ID
}

// NewFormulaBuilder constructs a FormulaBuilder over conv's manager, using
// conv to recover the variable names RBC leaves were allocated for.
func NewFormulaBuilder(pool *node.Pool, conv *bexp.Converter) *FormulaBuilder {
	return &FormulaBuilder{
		pool: pool,
		rm:   conv.RBC(),
		conv: conv,
		memo: make(map[rbc.ID]node.ID),
	}
}

// ToFormula renders lit as a sexp. Shared RBC nodes are rebuilt once and
// reused via the pool's own hash-consing, mirroring the sharing the DAG
// already expresses.
func (fb *FormulaBuilder) ToFormula(lit rbc.Lit) node.ID {
	if lit.IsOne() {
		return fb.pool.True()
	}
	if lit.IsZero() {
		return fb.pool.False()
	}

	pos := lit.Positive()
	body, ok := fb.memo[pos.NodeID()]
	if !ok {
		body = fb.buildPositive(pos)
		fb.memo[pos.NodeID()] = body
	}
	if lit.Negated() {
		return fb.pool.Unary(node.Not, body)
	}
	return body
}

func (fb *FormulaBuilder) buildPositive(pos rbc.Lit) node.ID {
	switch fb.rm.Sym(pos) {
	case rbc.SymVar:
		name, inNext, ok := fb.conv.VarName(fb.rm.VarIndex(pos))
		if !ok {
			return fb.pool.Atom("?")
		}
		if inNext {
			return fb.pool.Next(name)
		}
		return name

	case rbc.SymAnd:
		ops := fb.rm.Operands(pos)
		return fb.pool.Binary(node.And, fb.ToFormula(ops[0]), fb.ToFormula(ops[1]))

	case rbc.SymIff:
		ops := fb.rm.Operands(pos)
		return fb.pool.Binary(node.Iff, fb.ToFormula(ops[0]), fb.ToFormula(ops[1]))

	case rbc.SymIte:
		ops := fb.rm.Operands(pos)
		i, t, e := fb.ToFormula(ops[0]), fb.ToFormula(ops[1]), fb.ToFormula(ops[2])
		colon := fb.pool.Binary(node.Colon, i, t)
		return fb.pool.Binary(node.Case, colon, e)

	default:
		return fb.pool.False()
	}
}
