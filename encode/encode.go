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

// Package encode implements the scalar-boolean encoder: it assigns a
// balanced binary decoding tree to every finite-range scalar variable.
package encode

import (
	"math/bits"

	"github.com/go-smv/smvcore/compileerr"
	"github.com/go-smv/smvcore/node"
	"github.com/go-smv/smvcore/symtab"
)

// Encoder builds encoding trees for scalar variables over a shared node
// pool and symbol table.
type Encoder struct {
	pool *node.Pool
	st   *symtab.SymbolTable
	tree *EncCache
}

// NewEncoder constructs an Encoder.
func NewEncoder(pool *node.Pool, st *symtab.SymbolTable) *Encoder {
	return &Encoder{pool: pool, st: st, tree: newEncCache()}
}

// Encode builds and registers the bit decomposition and encoding tree for
// the non-boolean scalar variable varName with range rng. varName must
// already be declared (as a StateVar or InputVar) with this exact range.
// Each bit is declared in the symbol table as a fresh boolean variable of
// the same kind (state or input) as varName, and grouped contiguously via
// symtab.Groups.RegisterScalar.
func (e *Encoder) Encode(varName node.ID, rng symtab.Range) (bits []node.ID, tree node.ID, err error) {
	if rng.Boolean {
		return nil, node.Nil, compileerr.Newf(compileerr.TypeError, "%s: boolean variables use the trivial encoding, not Encode", e.st.Render(varName))
	}
	if rng.Singleton() {
		return nil, node.Nil, compileerr.Newf(compileerr.TypeError, "%s: singleton ranges must be downgraded to a Constant define before encoding", e.st.Render(varName))
	}
	if len(rng.Values) == 0 {
		return nil, node.Nil, compileerr.Newf(compileerr.EmptyRange, "%s", e.st.Render(varName))
	}

	isState := e.st.IsStateVar(varName)
	isInput := e.st.IsInputVar(varName)

	shape := e.tree.shapeFor(len(rng.Values))

	var bitList []node.ID
	getBit := func(level int) (node.ID, error) {
		for len(bitList) <= level {
			b := e.pool.Bit(varName, len(bitList))
			if isState {
				if err := e.st.DeclareStateVar(b, symtab.BooleanRange); err != nil {
					return node.Nil, err
				}
			} else if isInput {
				if err := e.st.DeclareInputVar(b, symtab.BooleanRange); err != nil {
					return node.Nil, err
				}
			} else {
				return node.Nil, compileerr.Newf(compileerr.TypeError, "%s is neither a state nor an input variable", e.st.Render(varName))
			}
			bitList = append(bitList, b)
		}
		return bitList[level], nil
	}

	for _, v := range rng.Values {
		if err := e.st.DeclareConstant(v); err != nil {
			return nil, node.Nil, err
		}
	}

	root, err := e.buildTree(rng.Values, shape, 0, getBit)
	if err != nil {
		return nil, node.Nil, err
	}

	e.st.Groups().RegisterScalar(varName, bitList)
	return bitList, root, nil
}

// buildTree recurses according to the EncCache-provided split shape: at
// each level it partitions the remaining range values by index parity
// (even-indexed values go left, odd-indexed go right), producing
//
//	IFTHENELSE(COLON(BIT(v,level), encode(even)), encode(odd))
//
// represented with the node pool's CASE/COLON tags, matching the
// specification's recursive balanced-splitting algorithm.
func (e *Encoder) buildTree(values []node.ID, shape *encShape, level int, getBit func(int) (node.ID, error)) (node.ID, error) {
	if len(values) == 1 {
		return values[0], nil
	}
	evens, odds := partition(values)
	bit, err := getBit(level)
	if err != nil {
		return node.Nil, err
	}
	left, err := e.buildTree(evens, shape, level+1, getBit)
	if err != nil {
		return node.Nil, err
	}
	right, err := e.buildTree(odds, shape, level+1, getBit)
	if err != nil {
		return node.Nil, err
	}
	thenBranch := e.pool.Binary(node.Colon, bit, left)
	return e.pool.Binary(node.Case, thenBranch, right), nil
}

func partition(values []node.ID) (evens, odds []node.ID) {
	for i, v := range values {
		if i%2 == 0 {
			evens = append(evens, v)
		} else {
			odds = append(odds, v)
		}
	}
	return evens, odds
}

// BitsNeeded returns ceil(log2(n)) for a range of cardinality n, n>=2.
func BitsNeeded(n int) int {
	if n <= 1 {
		return 0
	}
	return bits.Len(uint(n - 1))
}
