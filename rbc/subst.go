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

package rbc

// VarMap supplies a replacement literal for a variable index, or reports
// ok=false to leave that variable untouched.
type VarMap func(varIndex int) (Lit, bool)

// Subst rewrites l by replacing each variable leaf through f, rebuilding
// only the portion of the DAG that actually changes and hash-consing the
// result through the owning manager so shared structure is preserved.
func (m *Manager) Subst(l Lit, f VarMap) Lit {
	memo := make(map[ID]Lit)
	return m.substLit(l, f, memo)
}

func (m *Manager) substLit(l Lit, f VarMap, memo map[ID]Lit) Lit {
	base := m.substID(l.id, f, memo)
	if l.neg {
		return Not(base)
	}
	return base
}

func (m *Manager) substID(id ID, f VarMap, memo map[ID]Lit) Lit {
	if v, ok := memo[id]; ok {
		return v
	}
	n := m.nodes[id]
	var result Lit
	switch n.sym {
	case symTop:
		result = One()
	case symVar:
		if rep, ok := f(n.varIndex); ok {
			result = rep
		} else {
			result = Lit{id: id, neg: false}
		}
	case symAnd:
		a := m.substLit(n.c[0], f, memo)
		b := m.substLit(n.c[1], f, memo)
		result = m.and(a, b)
	case symIff:
		a := m.substLit(n.c[0], f, memo)
		b := m.substLit(n.c[1], f, memo)
		result = m.iff(a, b)
	case symIte:
		i := m.substLit(n.c[0], f, memo)
		t := m.substLit(n.c[1], f, memo)
		e := m.substLit(n.c[2], f, memo)
		result = m.ite(i, t, e)
	default:
		result = Lit{id: id, neg: false}
	}
	memo[id] = result
	return result
}

// Shift renumbers every variable leaf i to i+delta, used when a fragment
// built over a local index space (e.g. a determinization gadget) is
// spliced into the manager's global variable space.
func (m *Manager) Shift(l Lit, delta int) Lit {
	return m.Subst(l, func(i int) (Lit, bool) {
		return m.Var(i + delta), true
	})
}

// Restrict fixes a single variable to a constant value and simplifies,
// the basic Shannon-cofactor step.
func (m *Manager) Restrict(l Lit, varIndex int, value bool) Lit {
	return m.Subst(l, func(i int) (Lit, bool) {
		if i != varIndex {
			return Lit{}, false
		}
		if value {
			return One(), true
		}
		return Zero(), true
	})
}
