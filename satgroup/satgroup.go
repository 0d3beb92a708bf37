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

// Package satgroup adapts the specification's solver group contract
// (opaque group ids, permanent group -1, create/destroy/move-to-permanent/
// solve-under-groups/solve-excluding-groups/add-clauses-to-group) onto
// github.com/irifrance/gini, which has no native grouping concept of its
// own. Each non-permanent group gets a fresh selector literal; a clause
// added to group g is really the clause with ¬selector(g) disjoined onto
// it, so the clause is vacuously satisfied whenever the group is not
// assumed active. This package exists for integration tests of the CNF
// translator (package cnf) and is never imported by the core pipeline.
package satgroup

import (
	"fmt"

	"github.com/irifrance/gini"
	"github.com/irifrance/gini/z"
)

// Group is an opaque group id. Permanent is the fixed id of the permanent
// group, whose clauses are never guarded by a selector.
type Group int

// Permanent is the group every solve implicitly includes.
const Permanent Group = -1

// Solver wraps a gini.Gini instance with the group bookkeeping the
// specification's solver contract requires.
type Solver struct {
	g        *gini.Gini
	nextVar  int
	selector map[Group]z.Lit
	alive    map[Group]bool
	nextID   int
}

// NewSolver constructs a Solver whose own selector variables start above
// maxCNFVar, the highest variable already used by the clauses it will load
// (typically cnf.Translator.NumVars()).
func NewSolver(maxCNFVar int) *Solver {
	return &Solver{
		g:        gini.New(),
		nextVar:  maxCNFVar + 1,
		selector: make(map[Group]z.Lit),
		alive:    make(map[Group]bool),
	}
}

func (s *Solver) freshLit() z.Lit {
	v := s.nextVar
	s.nextVar++
	return z.Dimacs(v)
}

// CreateGroup allocates a fresh group id with its own selector literal.
func (s *Solver) CreateGroup() Group {
	s.nextID++
	g := Group(s.nextID)
	s.selector[g] = s.freshLit()
	s.alive[g] = true
	return g
}

// Destroy retires g: its clauses remain in the solver's clause database
// (gini has no clause retraction) but are never again assumed active, so
// they are vacuously satisfied by leaving the selector unassigned-false.
func (s *Solver) Destroy(g Group) error {
	if g == Permanent {
		return fmt.Errorf("satgroup: cannot destroy the permanent group")
	}
	if !s.alive[g] {
		return fmt.Errorf("satgroup: unknown group %d", g)
	}
	delete(s.alive, g)
	return nil
}

// MoveToPermanent asserts g's selector as a permanent unit clause, folding
// its clauses into the permanent group, then destroys g.
func (s *Solver) MoveToPermanent(g Group) error {
	if g == Permanent {
		return nil
	}
	sel, ok := s.selector[g]
	if !ok {
		return fmt.Errorf("satgroup: unknown group %d", g)
	}
	s.g.Add(sel)
	s.g.Add(0)
	return s.Destroy(g)
}

// AddClause adds one clause, expressed as non-zero dimacs-style signed
// integer literals (matching the CNF output contract), to group g.
func (s *Solver) AddClause(g Group, lits []int) error {
	if g != Permanent {
		sel, ok := s.selector[g]
		if !ok {
			return fmt.Errorf("satgroup: unknown group %d", g)
		}
		s.g.Add(sel.Not())
	}
	for _, l := range lits {
		s.g.Add(z.Dimacs(l))
	}
	s.g.Add(0)
	return nil
}

// SolveUnderGroups assumes every listed group's selector true and every
// other known non-permanent group's selector false, then solves.
func (s *Solver) SolveUnderGroups(groups []Group) (bool, error) {
	return s.solveWith(groups, true)
}

// SolveExcludingGroups assumes every known non-permanent group's selector
// true except the listed ones, then solves.
func (s *Solver) SolveExcludingGroups(groups []Group) (bool, error) {
	excluded := make(map[Group]bool, len(groups))
	for _, g := range groups {
		excluded[g] = true
	}
	var active []Group
	for g := range s.alive {
		if !excluded[g] {
			active = append(active, g)
		}
	}
	return s.solveWith(active, true)
}

func (s *Solver) solveWith(active []Group, _ bool) (bool, error) {
	activeSet := make(map[Group]bool, len(active))
	assumptions := make([]z.Lit, 0, len(s.alive))
	for _, g := range active {
		activeSet[g] = true
	}
	for g := range s.alive {
		sel := s.selector[g]
		if activeSet[g] {
			assumptions = append(assumptions, sel)
		} else {
			assumptions = append(assumptions, sel.Not())
		}
	}
	s.g.Assume(assumptions...)
	switch s.g.Solve() {
	case 1:
		return true, nil
	case -1:
		return false, nil
	default:
		return false, fmt.Errorf("satgroup: solver returned an indeterminate result")
	}
}

// Value reports the model value gini assigned to the dimacs literal lit
// after a satisfying Solve call.
func (s *Solver) Value(lit int) bool {
	return s.g.Value(z.Dimacs(lit))
}
