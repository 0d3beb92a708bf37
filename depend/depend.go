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

// Package depend computes, for any flattened expression, the set of
// state/input variables it transitively references, and the cone-of-
// influence closure of a seed set of variables. Both are backed by
// github.com/bits-and-blooms/bitset, keyed by each variable's dense
// universe index (symtab.StateVar.Index / symtab.InputVar.Index unioned
// into one compiler-wide index space via Analyzer.IndexOf), since both
// operations are dominated by repeated membership tests and set unions.
package depend

import (
	"github.com/bits-and-blooms/bitset"
	"github.com/go-smv/smvcore/compileerr"
	"github.com/go-smv/smvcore/node"
	"github.com/go-smv/smvcore/symtab"
)

// Analyzer computes and memoises dependency sets over a fixed symbol table
// and node pool.
type Analyzer struct {
	pool *node.Pool
	st   *symtab.SymbolTable

	// universe assigns every state/input variable (including determ vars) a
	// dense index shared by the bitsets this package returns.
	universe   map[node.ID]uint
	universeOf []node.ID

	cache      map[node.ID]*bitset.BitSet
	inProgress map[node.ID]bool // CircularDefine sentinel (invariant 8)
}

// NewAnalyzer builds an Analyzer whose universe starts with st's currently
// declared state and input variables, in that order. A variable declared
// later gets the next free index the first time IndexOf or Deps meets it.
func NewAnalyzer(pool *node.Pool, st *symtab.SymbolTable) *Analyzer {
	a := &Analyzer{
		pool:       pool,
		st:         st,
		universe:   make(map[node.ID]uint),
		cache:      make(map[node.ID]*bitset.BitSet),
		inProgress: make(map[node.ID]bool),
	}
	for _, v := range st.StateVars() {
		a.index(v)
	}
	for _, v := range st.InputVars() {
		a.index(v)
	}
	return a
}

func (a *Analyzer) index(v node.ID) uint {
	if i, ok := a.universe[v]; ok {
		return i
	}
	i := uint(len(a.universeOf))
	a.universe[v] = i
	a.universeOf = append(a.universeOf, v)
	return i
}

// VarAt returns the variable qualified name at universe index i.
func (a *Analyzer) VarAt(i uint) node.ID { return a.universeOf[i] }

// IndexOf returns the dense universe index of v, allocating one if v was
// declared after the Analyzer was constructed (e.g. a determinisation
// witness created mid-booleanisation).
func (a *Analyzer) IndexOf(v node.ID) uint { return a.index(v) }

// Deps computes (and memoises) the set of state/input variables that expr
// transitively depends on.
func (a *Analyzer) Deps(expr node.ID) (*bitset.BitSet, error) {
	if bs, ok := a.cache[expr]; ok {
		return bs, nil
	}
	if a.inProgress[expr] {
		return nil, compileerr.Newf(compileerr.CircularDefine, "%s", a.st.Render(expr))
	}
	a.inProgress[expr] = true
	bs, err := a.computeDeps(expr)
	delete(a.inProgress, expr)
	if err != nil {
		return nil, err
	}
	a.cache[expr] = bs
	return bs, nil
}

func (a *Analyzer) computeDeps(expr node.ID) (*bitset.BitSet, error) {
	pool := a.pool
	switch pool.Tag(expr) {
	case node.True, node.False, node.Number, node.Self:
		return bitset.New(0), nil

	case node.Next:
		// NEXT does not introduce new variables: dependencies are those of
		// the inner expression taken on the current state.
		return a.Deps(pool.Car(expr))

	case node.SmallInit:
		return a.Deps(pool.Car(expr))

	case node.Context:
		return a.Deps(pool.Cdr(expr))

	case node.Bit:
		return a.leafDeps(pool.Car(expr))

	case node.Atom, node.Dot, node.Array:
		return a.leafDeps(expr)

	default:
		return a.structuralDeps(expr)
	}
}

// leafDeps resolves a reference (ATOM/DOT/ARRAY/BIT-owner) to either a
// declared variable (a single bit in the result set), a define (whose
// flattened body's deps are substituted in, memoised through the shared
// cache/inProgress map so circular defines are caught at first reentry), a
// constant (no dependencies), or fails as UndefinedSymbol.
func (a *Analyzer) leafDeps(ref node.ID) (*bitset.BitSet, error) {
	if a.st.IsVar(ref) {
		bs := bitset.New(0)
		bs.Set(a.index(ref))
		return bs, nil
	}
	if a.st.IsConstant(ref) {
		return bitset.New(0), nil
	}
	if a.st.IsDefine(ref) {
		flat, err := a.st.FlattenedDefine(ref, func(body node.ID) (node.ID, error) { return body, nil })
		if err != nil {
			return nil, err
		}
		return a.Deps(flat)
	}
	return nil, compileerr.Newf(compileerr.UndefinedSymbol, "%s", a.st.Render(ref))
}

func (a *Analyzer) structuralDeps(expr node.ID) (*bitset.BitSet, error) {
	pool := a.pool
	result := bitset.New(0)
	l, r := pool.Car(expr), pool.Cdr(expr)
	if l != node.Nil {
		ld, err := a.Deps(l)
		if err != nil {
			return nil, err
		}
		result.InPlaceUnion(ld)
	}
	if r != node.Nil {
		rd, err := a.Deps(r)
		if err != nil {
			return nil, err
		}
		result.InPlaceUnion(rd)
	}
	return result, nil
}
