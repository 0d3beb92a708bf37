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

// Package cnf translates an RBC circuit to conjunctive normal form using
// Tseitin's construction, incrementally: a Translator remembers which RBC
// nodes it has already given a CNF variable through the owning
// rbc.Manager's own RBC↔CNF bijections, so the mapping survives a GC and
// a new root added to an already-translated circuit only costs clauses for
// the newly reachable fragment.
package cnf

import "github.com/go-smv/smvcore/rbc"

// Clause is a disjunction of DIMACS-style signed literals: a positive
// entry asserts the variable, a negative entry asserts its complement.
// Variable 0 never appears.
type Clause []int

// RootConstant is the root-literal sentinel ToCNF returns when the
// translated formula is constant, matching the CNF output contract's
// "INT_MAX" value; true and false are then told apart by whether the
// clause list is empty or holds one empty clause.
const RootConstant = 1<<31 - 1

// Translator incrementally Tseitin-encodes literals drawn from a single
// rbc.Manager into a growing CNF clause set. A Manager is meant to be
// shared by exactly one Translator for the compiler's lifetime, mirroring
// the process-wide CNF id watermark the specification describes; two
// independent Translators over the same Manager would each see a node's
// existing RBC→CNF mapping and wrongly conclude its defining clauses have
// already been emitted into their own clause list.
type Translator struct {
	m       *rbc.Manager
	clauses []Clause

	trueVar   int // lazily allocated; fixes a constant literal for Encode/AddRoot composition
	watermark int // clause count as of the last AddRoot call
}

// NewTranslator constructs a Translator over m, fixing m's CNF watermark
// (identity-mapping m's already-declared RBC variables onto CNF variables
// 1..MaxUnchanged) on first use.
func NewTranslator(m *rbc.Manager) *Translator {
	m.EnsureCNFWatermark()
	return &Translator{m: m}
}

func (t *Translator) alloc() int {
	t.m.MaxCNFVar++
	return t.m.MaxCNFVar
}

// Clauses returns every clause emitted so far. The returned slice must not
// be mutated by the caller.
func (t *Translator) Clauses() []Clause { return t.clauses }

// NumVars returns the number of CNF variables allocated so far, including
// the identity-mapped ones below the watermark.
func (t *Translator) NumVars() int { return t.m.MaxCNFVar }

// MaxUnchanged returns the watermark separating identity-mapped CNF
// variables (1..MaxUnchanged, one per RBC variable declared before the
// first translation) from freshly allocated Tseitin variables.
func (t *Translator) MaxUnchanged() int { return t.m.MaxUnchanged }

// AddRoot Tseitin-encodes l (allocating clauses only for nodes not already
// translated), asserts it as a unit clause, and returns its signed
// literal. Unlike ToCNF, AddRoot always allocates an ordinary variable for
// a constant l (fixed true/false by its own unit clause): it is meant for
// composing one root alongside others already asserted in the same clause
// set, not for reporting "this formula is a constant" to an external
// caller, which is what ToCNF's RootConstant sentinel is for.
func (t *Translator) AddRoot(l rbc.Lit) int {
	lit := t.literalFor(l)
	t.clauses = append(t.clauses, Clause{lit})
	t.watermark = len(t.clauses)
	return lit
}

// Encode translates l without asserting it, returning its signed literal.
// Useful when the caller wants to combine several roots under a further
// gate (e.g. checking satisfiability of a conjunction) before asserting.
func (t *Translator) Encode(l rbc.Lit) int { return t.literalFor(l) }

// NewSince returns the clauses appended since mark, supporting incremental
// SAT solvers that only want the delta.
func (t *Translator) NewSince(mark int) []Clause { return t.clauses[mark:] }

// Watermark returns the clause count as of the most recent AddRoot call.
func (t *Translator) Watermark() int { return t.watermark }

// VarToRBCIndex returns the 0-based external RBC variable index identity-
// mapped to CNF variable k, or -1 if k is an internal Tseitin variable (or
// out of range), matching cnf_var_to_rbc_index.
func (t *Translator) VarToRBCIndex(k int) int {
	if k < 1 || k > t.m.MaxUnchanged {
		return -1
	}
	return k - 1
}

// ToCNF translates root per the documented external contract: the clauses
// newly needed for root, the identity-mapped (original model) CNF
// variables reachable from it, its root literal, and the current maximum
// CNF variable. A constant root short-circuits per the CNF output
// contract: One produces no clauses, Zero produces a single empty clause,
// and both report RootConstant rather than allocating a variable.
func (t *Translator) ToCNF(root rbc.Lit) (clauses []Clause, vars []int, rootLiteral int, maxVar int) {
	if root.IsOne() {
		return nil, nil, RootConstant, t.m.MaxCNFVar
	}
	if root.IsZero() {
		return []Clause{{}}, nil, RootConstant, t.m.MaxCNFVar
	}

	before := len(t.clauses)
	lit := t.AddRoot(root)

	seen := make(map[int]bool)
	var walk func(l rbc.Lit)
	walk = func(l rbc.Lit) {
		pos := l.Positive()
		if v, ok := t.m.RBCToCNF[pos.NodeID()]; ok && v <= t.m.MaxUnchanged && !seen[v] {
			seen[v] = true
			vars = append(vars, v)
		}
		switch t.m.Sym(pos) {
		case rbc.SymAnd, rbc.SymIff:
			ops := t.m.Operands(pos)
			walk(ops[0])
			walk(ops[1])
		case rbc.SymIte:
			ops := t.m.Operands(pos)
			walk(ops[0])
			walk(ops[1])
			walk(ops[2])
		}
	}
	walk(root)

	return t.clauses[before:], vars, lit, t.m.MaxCNFVar
}

func (t *Translator) literalFor(l rbc.Lit) int {
	if l.IsOne() {
		return t.constVar()
	}
	if l.IsZero() {
		return -t.constVar()
	}
	v := t.varFor(l.Positive())
	if l.Negated() {
		return -v
	}
	return v
}

// constVar returns a CNF variable permanently fixed true, allocating it
// (with its defining unit clause) on first use. Used only when a constant
// literal appears as an operand or an AddRoot/Encode argument; ToCNF's
// root-level constant handling never reaches here.
func (t *Translator) constVar() int {
	if t.trueVar == 0 {
		t.trueVar = t.alloc()
		t.clauses = append(t.clauses, Clause{t.trueVar})
	}
	return t.trueVar
}

func (t *Translator) varFor(pos rbc.Lit) int {
	id := pos.NodeID()
	if v, ok := t.m.RBCToCNF[id]; ok {
		return v
	}
	v := t.alloc()
	t.m.RBCToCNF[id] = v
	t.m.CNFToRBC[v] = id

	switch t.m.Sym(pos) {
	case rbc.SymVar:
		// leaf declared after EnsureCNFWatermark ran, e.g. a determinisation
		// witness: no defining clauses, the SAT assignment picks it freely.
	case rbc.SymAnd:
		ops := t.m.Operands(pos)
		a := t.literalFor(ops[0])
		b := t.literalFor(ops[1])
		t.clauses = append(t.clauses,
			Clause{-v, a},
			Clause{-v, b},
			Clause{v, -a, -b},
		)
	case rbc.SymIff:
		ops := t.m.Operands(pos)
		a := t.literalFor(ops[0])
		b := t.literalFor(ops[1])
		t.clauses = append(t.clauses,
			Clause{-v, -a, b},
			Clause{-v, a, -b},
			Clause{v, a, b},
			Clause{v, -a, -b},
		)
	case rbc.SymIte:
		ops := t.m.Operands(pos)
		i := t.literalFor(ops[0])
		th := t.literalFor(ops[1])
		el := t.literalFor(ops[2])
		t.clauses = append(t.clauses,
			Clause{-v, -i, th},
			Clause{-v, i, el},
			Clause{v, -i, -th},
			Clause{v, i, -el},
		)
	}
	return v
}
