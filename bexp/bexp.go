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

// Package bexp converts a boolean-encoded sexp (the output of package
// encode, over atoms that are now plain boolean variables) into an RBC
// literal. Convert lowers the sexp structurally, one RBC gate per
// connective; Reduce instead routes it through a BDD so that the circuit
// handed to package rbc is already reduced and ordered, rather than carrying
// whatever redundancy the surface syntax happened to write. Determinize
// makes a choice among several alternative values deterministic by
// introducing fresh witness variables.
package bexp

import (
	"github.com/dalzilio/rudd"

	"github.com/go-smv/smvcore/compileerr"
	"github.com/go-smv/smvcore/node"
	"github.com/go-smv/smvcore/rbc"
	"github.com/go-smv/smvcore/symtab"
)

// memoKey distinguishes a current-state conversion from a next-state
// conversion of the same sexp, since NEXT(x) and x are different atoms once
// lowered to RBC variables.
type memoKey struct {
	expr   node.ID
	inNext bool
}

// Converter lowers boolean sexps to RBC literals for one compilation unit.
// A single BDD manager is shared across every call so that the variable
// ordering (and therefore the reduction BDDs provide) stays consistent for
// the whole model.
type Converter struct {
	pool *node.Pool
	st   *symtab.SymbolTable
	rm   *rbc.Manager

	bdd          *rudd.BDD
	varIndex     map[node.ID]int // current-state name -> rbc/bdd variable index
	nextVarIndex map[node.ID]int // NEXT-state name -> rbc/bdd variable index
	nextBase     int             // first index available to next-state copies
	nextUsed     int

	memo map[memoKey]rbc.Lit

	determCount int
	allowNondet bool
}

// NewConverter constructs a Converter. varCapacity should be a generous
// upper bound on the number of distinct boolean variables (state, input,
// and determinisation witnesses) the unit will ever need; rudd grows its
// manager lazily in practice, but sizing it up front avoids repeated
// internal resizes during a large flatten pass. varCapacity must be at
// least 1; rudd.New's only documented failure is an out-of-range variable
// count, which a positive, caller-chosen capacity never triggers.
func NewConverter(pool *node.Pool, st *symtab.SymbolTable, rm *rbc.Manager, varCapacity int, allowNondet bool) *Converter {
	if varCapacity < 1 {
		varCapacity = 1
	}
	bdd, _ := rudd.New(varCapacity)
	return &Converter{
		pool:         pool,
		st:           st,
		rm:           rm,
		bdd:          bdd,
		varIndex:     make(map[node.ID]int),
		nextVarIndex: make(map[node.ID]int),
		nextBase:     varCapacity / 2,
		memo:         make(map[memoKey]rbc.Lit),
		allowNondet:  allowNondet,
	}
}

// indexOf returns the RBC/BDD variable index for name, allocating one on
// first use. Current-state and NEXT-state copies of the same name live in
// disjoint index bands so NEXT(x) and x are never confused.
func (c *Converter) indexOf(name node.ID, inNext bool) int {
	if inNext {
		if idx, ok := c.nextVarIndex[name]; ok {
			return idx
		}
		idx := c.nextBase + c.nextUsed
		c.nextUsed++
		c.nextVarIndex[name] = idx
		return idx
	}
	if idx, ok := c.varIndex[name]; ok {
		return idx
	}
	idx := len(c.varIndex)
	c.varIndex[name] = idx
	return idx
}

// RBC returns the manager this converter lowers literals into, so that
// callers assembling several converted fragments (see package fsm) can
// combine them without going through Convert again.
func (c *Converter) RBC() *rbc.Manager { return c.rm }

// VarName reverses indexOf: given an RBC/BDD variable index, it reports the
// qualified name that owns it and whether it was allocated from the
// NEXT-state band, for a formula renderer (see package dump) reconstructing
// surface syntax from an RBC literal.
func (c *Converter) VarName(index int) (name node.ID, inNext bool, ok bool) {
	for n, idx := range c.varIndex {
		if idx == index {
			return n, false, true
		}
	}
	for n, idx := range c.nextVarIndex {
		if idx == index {
			return n, true, true
		}
	}
	return node.Nil, false, false
}

// Convert lowers expr (a boolean sexp built of NOT/AND/OR/XOR/XNOR/IFF/
// IMPLIES/CASE/COLON/TRUE/FALSE/boolean atoms) to an RBC literal. inNext
// reports whether expr sits inside a NEXT(...) wrapper, shifting every
// atom it contains into the next-state variable band.
func (c *Converter) Convert(expr node.ID, inNext bool) (rbc.Lit, error) {
	k := memoKey{expr: expr, inNext: inNext}
	if v, ok := c.memo[k]; ok {
		return v, nil
	}
	l, err := c.convert(expr, inNext)
	if err != nil {
		return rbc.Lit{}, err
	}
	c.memo[k] = l
	return l, nil
}

func (c *Converter) convert(expr node.ID, inNext bool) (rbc.Lit, error) {
	switch c.pool.Tag(expr) {
	case node.True:
		return rbc.One(), nil
	case node.False:
		return rbc.Zero(), nil
	case node.Next:
		if inNext {
			return rbc.Lit{}, compileerr.Newf(compileerr.TypeError, "nested NEXT")
		}
		return c.convert(c.pool.Car(expr), true)
	case node.Not:
		a, err := c.Convert(c.pool.Car(expr), inNext)
		if err != nil {
			return rbc.Lit{}, err
		}
		return rbc.Not(a), nil
	case node.And:
		return c.binaryGate(expr, inNext, c.rm.And)
	case node.Or:
		return c.binaryGate(expr, inNext, c.rm.Or)
	case node.Xor:
		return c.binaryGate(expr, inNext, c.rm.Xor)
	case node.Xnor:
		l, err := c.binaryGate(expr, inNext, c.rm.Xor)
		if err != nil {
			return rbc.Lit{}, err
		}
		return rbc.Not(l), nil
	case node.Iff:
		return c.binaryGate(expr, inNext, c.rm.Iff)
	case node.Implies:
		a, err := c.Convert(c.pool.Car(expr), inNext)
		if err != nil {
			return rbc.Lit{}, err
		}
		b, err := c.Convert(c.pool.Cdr(expr), inNext)
		if err != nil {
			return rbc.Lit{}, err
		}
		return c.rm.Or(rbc.Not(a), b, rbc.Positive), nil
	case node.Case:
		return c.convertCase(expr, inNext)
	case node.Equal:
		return c.scalarEqual(c.pool.Car(expr), c.pool.Cdr(expr), inNext)
	case node.NotEqual:
		l, err := c.scalarEqual(c.pool.Car(expr), c.pool.Cdr(expr), inNext)
		if err != nil {
			return rbc.Lit{}, err
		}
		return rbc.Not(l), nil
	case node.Lt, node.Le, node.Gt, node.Ge:
		return c.scalarCompare(c.pool.Tag(expr), c.pool.Car(expr), c.pool.Cdr(expr), inNext)
	case node.Atom, node.Dot, node.Array, node.Bit:
		if !c.st.IsBooleanVar(expr) {
			return rbc.Lit{}, compileerr.Newf(compileerr.TypeError, "%s: not a boolean variable", c.st.Render(expr))
		}
		idx := c.indexOf(expr, inNext)
		return c.rm.Var(idx), nil
	default:
		return rbc.Lit{}, compileerr.Newf(compileerr.TypeError, "%s: not a boolean sexp", c.pool.Tag(expr))
	}
}

func (c *Converter) binaryGate(expr node.ID, inNext bool, op func(a, b rbc.Lit, sigma rbc.Polarity) rbc.Lit) (rbc.Lit, error) {
	a, err := c.Convert(c.pool.Car(expr), inNext)
	if err != nil {
		return rbc.Lit{}, err
	}
	b, err := c.Convert(c.pool.Cdr(expr), inNext)
	if err != nil {
		return rbc.Lit{}, err
	}
	return op(a, b, rbc.Positive), nil
}

// convertCase lowers a CASE(COLON(cond,then),else) chain to nested Ite.
func (c *Converter) convertCase(expr node.ID, inNext bool) (rbc.Lit, error) {
	colon := c.pool.Car(expr)
	els := c.pool.Cdr(expr)
	cond, err := c.Convert(c.pool.Car(colon), inNext)
	if err != nil {
		return rbc.Lit{}, err
	}
	then, err := c.Convert(c.pool.Cdr(colon), inNext)
	if err != nil {
		return rbc.Lit{}, err
	}
	elseLit, err := c.Convert(els, inNext)
	if err != nil {
		return rbc.Lit{}, err
	}
	return c.rm.Ite(cond, then, elseLit, rbc.Positive), nil
}

// Reduce runs expr through the BDD manager and reads its reduced
// if-then-else structure back, producing an RBC circuit with no
// locally-redundant branches. It is the preferred entry point for large
// TRANS/INIT right-hand sides; Convert alone is sufficient for small
// expressions where BDD overhead is not worthwhile.
func (c *Converter) Reduce(expr node.ID, inNext bool) (rbc.Lit, error) {
	bddNode, err := c.toBDD(expr, inNext)
	if err != nil {
		return rbc.Lit{}, err
	}
	return c.bddToRBC(bddNode), nil
}

func (c *Converter) toBDD(expr node.ID, inNext bool) (rudd.Node, error) {
	switch c.pool.Tag(expr) {
	case node.True:
		return c.bdd.True(), nil
	case node.False:
		return c.bdd.False(), nil
	case node.Next:
		return c.toBDD(c.pool.Car(expr), true)
	case node.Not:
		a, err := c.toBDD(c.pool.Car(expr), inNext)
		if err != nil {
			return nil, err
		}
		return c.bdd.Not(a), nil
	case node.And:
		return c.toBDDBinary(expr, inNext, rudd.OPand)
	case node.Or:
		return c.toBDDBinary(expr, inNext, rudd.OPor)
	case node.Xor:
		b, err := c.toBDDBinary(expr, inNext, rudd.OPbiimp)
		if err != nil {
			return nil, err
		}
		return c.bdd.Not(b), nil
	case node.Iff:
		return c.toBDDBinary(expr, inNext, rudd.OPbiimp)
	case node.Implies:
		return c.toBDDBinary(expr, inNext, rudd.OPimp)
	case node.Case:
		colon := c.pool.Car(expr)
		cond, err := c.toBDD(c.pool.Car(colon), inNext)
		if err != nil {
			return nil, err
		}
		then, err := c.toBDD(c.pool.Cdr(colon), inNext)
		if err != nil {
			return nil, err
		}
		els, err := c.toBDD(c.pool.Cdr(expr), inNext)
		if err != nil {
			return nil, err
		}
		return c.bdd.Ite(cond, then, els), nil
	case node.Equal:
		return c.bddScalarEqual(c.pool.Car(expr), c.pool.Cdr(expr), inNext)
	case node.NotEqual:
		b, err := c.bddScalarEqual(c.pool.Car(expr), c.pool.Cdr(expr), inNext)
		if err != nil {
			return nil, err
		}
		return c.bdd.Not(b), nil
	case node.Lt, node.Le, node.Gt, node.Ge:
		return c.bddScalarCompare(c.pool.Tag(expr), c.pool.Car(expr), c.pool.Cdr(expr), inNext)
	case node.Atom, node.Dot, node.Array, node.Bit:
		if !c.st.IsBooleanVar(expr) {
			return nil, compileerr.Newf(compileerr.TypeError, "%s: not a boolean variable", c.st.Render(expr))
		}
		return c.bdd.Ithvar(c.indexOf(expr, inNext)), nil
	default:
		return nil, compileerr.Newf(compileerr.TypeError, "%s: not a boolean sexp", c.pool.Tag(expr))
	}
}

func (c *Converter) toBDDBinary(expr node.ID, inNext bool, op rudd.Operator) (rudd.Node, error) {
	a, err := c.toBDD(c.pool.Car(expr), inNext)
	if err != nil {
		return nil, err
	}
	b, err := c.toBDD(c.pool.Cdr(expr), inNext)
	if err != nil {
		return nil, err
	}
	return c.bdd.Apply(a, b, op), nil
}

// bddToRBC walks a reduced BDD and rebuilds it as an RBC Ite-DAG. The walk
// goes through Allnodes rather than following Low/High node pointers one
// call at a time, since rudd hands back node identity as a plain int (the
// two constants are fixed at id 0 and 1) and that is the only shape the
// public BDD interface guarantees is stable enough to memoise on.
func (c *Converter) bddToRBC(root rudd.Node) rbc.Lit {
	type shape struct{ level, low, high int }
	nodes := make(map[int]shape)
	_ = c.bdd.Allnodes(func(id, level, low, high int) error {
		nodes[id] = shape{level: level, low: low, high: high}
		return nil
	}, root)

	memo := make(map[int]rbc.Lit)
	var walk func(id int) rbc.Lit
	walk = func(id int) rbc.Lit {
		switch id {
		case 0:
			return rbc.Zero()
		case 1:
			return rbc.One()
		}
		if v, ok := memo[id]; ok {
			return v
		}
		n := nodes[id]
		lo := walk(n.low)
		hi := walk(n.high)
		result := c.rm.Ite(c.rm.Var(n.level), hi, lo, rbc.Positive)
		memo[id] = result
		return result
	}
	return walk(rootID(root))
}

// rootID recovers the node id Allnodes would have reported for root,
// matching the doc comment that fixes False/True at ids 0/1.
func rootID(n rudd.Node) int {
	if n == nil {
		return 0
	}
	return *n
}
