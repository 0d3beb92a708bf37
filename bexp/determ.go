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

package bexp

import (
	"fmt"
	"math/bits"

	"github.com/go-smv/smvcore/compileerr"
	"github.com/go-smv/smvcore/rbc"
)

// Determinize picks exactly one of branches using fresh boolean witness
// variables, the way a TRANS/ASSIGN right hand side that is a set literal
// (rather than a single deterministic expression) is made deterministic:
// instead of leaving the choice to the model checker's own nondeterminism,
// the compiler introduces ceil(log2(n)) new input variables whose value
// selects the branch, and conjoins that selection as an ordinary
// constraint. branches[i] is the RBC literal asserting "the assignment
// takes its i-th possible value"; Determinize returns the disjunction of
// (selector pattern for i) AND branches[i] over every i, plus the RBC
// variable indices of the witnesses, least-significant first: witnesses[k]
// splits the branches on bit k of their index, a true witness selecting
// the even half.
//
// If c.allowNondet is false, Determinize refuses (NondetNotAllowed) rather
// than silently introducing witnesses a caller did not ask for.
func (c *Converter) Determinize(label string, branches []rbc.Lit) (rbc.Lit, []int, error) {
	if !c.allowNondet {
		return rbc.Lit{}, nil, compileerr.Newf(compileerr.NondetNotAllowed, "%s", label)
	}
	if len(branches) == 0 {
		return rbc.Lit{}, nil, compileerr.Newf(compileerr.EmptyRange, "%s", label)
	}
	if len(branches) == 1 {
		return branches[0], nil, nil
	}

	depth := bitsNeeded(len(branches))
	witnesses := make([]int, depth)
	for i := range witnesses {
		idx := c.nextDetermIndex()
		witnesses[i] = idx
		name := c.pool.Atom(WitnessName(label, c.determCount))
		if err := c.st.DeclareDetermVar(name); err != nil {
			return rbc.Lit{}, nil, err
		}
		c.determCount++
	}

	tree := c.selectorTree(branches, witnesses, 0)
	return tree, witnesses, nil
}

func (c *Converter) nextDetermIndex() int {
	idx := c.nextBase + c.nextUsed
	c.nextUsed++
	return idx
}

// selectorTree builds the same even/odd balanced split package encode
// uses, except the leaves here are already-built RBC literals rather than
// node-pool constant leaves, and the split bit is a determinisation
// witness rather than an encoded-range bit.
func (c *Converter) selectorTree(branches []rbc.Lit, witnesses []int, level int) rbc.Lit {
	if len(branches) == 1 {
		return branches[0]
	}
	var evens, odds []rbc.Lit
	for i, b := range branches {
		if i%2 == 0 {
			evens = append(evens, b)
		} else {
			odds = append(odds, b)
		}
	}
	bitVar := c.rm.Var(witnesses[level])
	left := c.selectorTree(evens, witnesses, level+1)
	right := c.selectorTree(odds, witnesses, level+1)
	return c.rm.Ite(bitVar, left, right, rbc.Positive)
}

func bitsNeeded(n int) int {
	if n <= 1 {
		return 0
	}
	return bits.Len(uint(n - 1))
}

// WitnessName renders a synthetic determinisation variable name (e.g.
// "p1.x$determ3"); Determinize declares each such name in the symbol table
// as a determinisation variable.
func WitnessName(owner string, i int) string {
	return fmt.Sprintf("%s$determ%d", owner, i)
}
