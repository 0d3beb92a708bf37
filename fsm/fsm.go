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

// Package fsm assembles the flattened INIT/INVAR/TRANS fragments of a
// module hierarchy into a variable-partitioned finite state machine: each
// functional (ASSIGN-derived) fragment is attached to the single variable
// it defines, while every other constraint lives in a dedicated global
// slot rather than being attached to an arbitrary variable it happens to
// mention first — the redesign this package implements in place of the
// original source's "attach every constraint to some variable's bucket"
// bookkeeping (see DESIGN.md).
package fsm

import (
	"github.com/bits-and-blooms/bitset"

	"github.com/go-smv/smvcore/bexp"
	"github.com/go-smv/smvcore/compileerr"
	"github.com/go-smv/smvcore/depend"
	"github.com/go-smv/smvcore/node"
	"github.com/go-smv/smvcore/rbc"
	"github.com/go-smv/smvcore/symtab"
)

// FragmentKind distinguishes the three constraint classes a module
// hierarchy flattens into.
type FragmentKind int

const (
	FragInit FragmentKind = iota
	FragInvar
	FragTrans
	numFragKinds
)

type generalConstraint struct {
	expr node.ID
	deps *bitset.BitSet
}

// FSM collects INIT/INVAR/TRANS fragments per variable, plus a global
// bucket for constraints that are not a single variable's functional
// definition.
type FSM struct {
	pool     *node.Pool
	st       *symtab.SymbolTable
	analyzer *depend.Analyzer

	owned  [numFragKinds]map[node.ID][]node.ID // owner -> deduped fragment list
	global [numFragKinds][]generalConstraint
	seen   [numFragKinds]map[node.ID]bool // global dedup, by expr id
}

// NewFSM constructs an empty FSM bound to the given analyzer, which
// supplies the dependency sets general constraints need for COI
// propagation.
func NewFSM(pool *node.Pool, st *symtab.SymbolTable, analyzer *depend.Analyzer) *FSM {
	f := &FSM{pool: pool, st: st, analyzer: analyzer}
	for k := range f.owned {
		f.owned[k] = make(map[node.ID][]node.ID)
		f.seen[k] = make(map[node.ID]bool)
	}
	return f
}

// AddAssign attaches a functional fragment (an ASSIGN-derived constraint
// that defines owner's value) to owner's own list. Only owner's COI
// dependency set grows from this fragment; other variables it mentions do
// not gain owner in their own COI merely by being read here.
func (f *FSM) AddAssign(kind FragmentKind, owner, expr node.ID) error {
	if owner == node.Nil {
		return compileerr.Newf(compileerr.TypeError, "AddAssign requires a non-nil owner")
	}
	list := f.owned[kind][owner]
	for _, e := range list {
		if e == expr {
			return nil
		}
	}
	f.owned[kind][owner] = append(list, expr)
	return nil
}

// AddConstraint attaches a general (non-functional) INIT/INVAR/TRANS
// conjunct to the global bucket. Every variable the constraint mentions
// gets every other such variable folded into its COI (see DirectDeps).
// A bare constant conjunct (TRUE/FALSE, contributing nothing but clutter)
// is still recorded, but AddConstraint returns a non-fatal
// ConstantInConstraint warning for the caller to report or ignore per
// config.
func (f *FSM) AddConstraint(kind FragmentKind, expr node.ID) error {
	if f.seen[kind][expr] {
		return nil
	}
	f.seen[kind][expr] = true

	deps, err := f.analyzer.Deps(expr)
	if err != nil {
		return err
	}
	f.global[kind] = append(f.global[kind], generalConstraint{expr: expr, deps: deps})

	if f.pool.Tag(expr) == node.True || f.pool.Tag(expr) == node.False {
		return compileerr.Newf(compileerr.ConstantInConstraint, "%s", kindName(kind))
	}
	return nil
}

// GlobalConstraints returns kind's general (non-ASSIGN-derived) conjuncts
// in addition order, for a renderer that wants to print INIT/INVAR/TRANS as
// individual statements rather than one big conjunction.
func (f *FSM) GlobalConstraints(kind FragmentKind) []node.ID {
	out := make([]node.ID, len(f.global[kind]))
	for i, g := range f.global[kind] {
		out[i] = g.expr
	}
	return out
}

func kindName(k FragmentKind) string {
	switch k {
	case FragInit:
		return "INIT"
	case FragInvar:
		return "INVAR"
	case FragTrans:
		return "TRANS"
	default:
		return "?"
	}
}

// Formula conjoins every fragment of kind (owned and global) into one
// sexp, in declaration order (owned fragments grouped by the symbol
// table's StateVars/InputVars order, global fragments in addition order).
// Returns pool.True() if kind has no fragments at all.
func (f *FSM) Formula(kind FragmentKind) node.ID {
	var parts []node.ID
	for _, v := range f.st.StateVars() {
		parts = append(parts, f.owned[kind][v]...)
	}
	for _, v := range f.st.InputVars() {
		parts = append(parts, f.owned[kind][v]...)
	}
	for _, g := range f.global[kind] {
		parts = append(parts, g.expr)
	}
	if len(parts) == 0 {
		return f.pool.True()
	}
	acc := parts[0]
	for _, p := range parts[1:] {
		acc = f.pool.Binary(node.And, acc, p)
	}
	return acc
}

// ToRBC lowers every fragment of kind through conv and conjoins them
// directly in RBC, rather than building one large sexp first, so shared
// subexpressions across fragments are hash-consed immediately.
func (f *FSM) ToRBC(kind FragmentKind, conv *bexp.Converter) (rbc.Lit, error) {
	rm := conv.RBC()
	acc := rbc.One()

	conjoin := func(e node.ID) error {
		l, err := conv.Convert(e, false)
		if err != nil {
			return err
		}
		acc = rm.And(acc, l, rbc.Positive)
		return nil
	}

	for _, v := range f.st.StateVars() {
		for _, e := range f.owned[kind][v] {
			if err := conjoin(e); err != nil {
				return rbc.Lit{}, err
			}
		}
	}
	for _, v := range f.st.InputVars() {
		for _, e := range f.owned[kind][v] {
			if err := conjoin(e); err != nil {
				return rbc.Lit{}, err
			}
		}
	}
	for _, g := range f.global[kind] {
		if err := conjoin(g.expr); err != nil {
			return rbc.Lit{}, err
		}
	}
	return acc, nil
}

// DirectDeps implements depend.DirectDeps: varIndex's own functional
// fragments contribute their dependency set directly, and every global
// constraint mentioning varIndex contributes every other variable it
// mentions (the symmetric COI-propagation rule general constraints
// require).
func (f *FSM) DirectDeps(varIndex uint) *bitset.BitSet {
	result := bitset.New(0)
	name := f.analyzer.VarAt(varIndex)

	for k := FragmentKind(0); k < numFragKinds; k++ {
		for _, e := range f.owned[k][name] {
			d, err := f.analyzer.Deps(e)
			if err != nil {
				continue
			}
			result.InPlaceUnion(d)
		}
		for _, g := range f.global[k] {
			if g.deps.Test(varIndex) {
				result.InPlaceUnion(g.deps)
			}
		}
	}
	return result
}
