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

// Package rbc implements the Reduced Boolean Circuit engine: a hash-consed
// AND/IFF/ITE DAG with local boolean simplification and negation carried on
// edges rather than on nodes. Per the specification's redesign notes, edge
// polarity is an explicit (NodeID, Polarity) pair (type Lit) rather than a
// tagged pointer.
package rbc

import "sort"

// Symbol is the tag of an RBC DAG node.
type Symbol uint8

const (
	symTop Symbol = iota // the constant-true leaf; ID 0
	symVar
	symAnd
	symIff
	symIte
	symTomb // swept node; its slot is retired, never reused
)

// Exported symbol constants, for packages (cnf, dump) that need to
// dispatch on a node's shape without reaching into unexported state.
const (
	SymTop = symTop
	SymVar = symVar
	SymAnd = symAnd
	SymIff = symIff
	SymIte = symIte
)

// ID is an opaque handle into a Manager's node pool.
type ID int32

// topID is the reserved constant node; Lit{topID, false} is "one",
// Lit{topID, true} is "zero".
const topID ID = 0

// Lit is a polarity-tagged edge to an RBC node: the DAG node itself is
// always stored in canonical (positive) form, and every consumer carries
// its own negation bit alongside the ID, matching invariant 6.
type Lit struct {
	id  ID
	neg bool
}

// One is the constant-true literal.
func One() Lit { return Lit{id: topID, neg: false} }

// Zero is the constant-false literal.
func Zero() Lit { return Lit{id: topID, neg: true} }

// IsOne reports whether l is the constant-true literal.
func (l Lit) IsOne() bool { return l.id == topID && !l.neg }

// IsZero reports whether l is the constant-false literal.
func (l Lit) IsZero() bool { return l.id == topID && l.neg }

// IsConst reports whether l is a constant literal (One or Zero).
func (l Lit) IsConst() bool { return l.id == topID }

// NodeID returns the underlying node identity, ignoring polarity.
func (l Lit) NodeID() ID { return l.id }

// Negated reports whether l carries a negation relative to its node's
// canonical (positive) form.
func (l Lit) Negated() bool { return l.neg }

// Positive returns l with its negation cleared.
func (l Lit) Positive() Lit { return Lit{id: l.id, neg: false} }

func (l Lit) less(o Lit) bool {
	if l.id != o.id {
		return l.id < o.id
	}
	return !l.neg && o.neg
}

// node is the stored shape of one canonical (positive) RBC node.
type node struct {
	sym      Symbol
	varIndex int    // valid when sym == symVar
	c        [3]Lit // operands; AND uses c[0],c[1]; IFF uses c[0],c[1]; ITE uses c[0]=if,c[1]=then,c[2]=else
}

type key struct {
	sym  Symbol
	a, b, c Lit
	v    int
}

// Manager owns the node pool, the variable-index table, and the
// incremental RBC↔CNF variable bijections consumed by package cnf.
type Manager struct {
	nodes []node
	index map[key]ID

	varOf []ID // external variable index -> RBC leaf node

	// CNF bookkeeping (see package cnf): RBC node id -> CNF var, and back.
	// Kept here because both directions must stay consistent with the
	// manager's lifetime, and the watermark separates identity-mapped CNF
	// vars from freshly allocated ones.
	RBCToCNF     map[ID]int
	CNFToRBC     map[int]ID
	MaxUnchanged int
	MaxCNFVar    int
	cnfReady     bool
}

// EnsureCNFWatermark fixes MaxUnchanged/MaxCNFVar and the identity part of
// the RBC↔CNF bijections the first time it is called, mapping each already-
// declared external RBC variable k (1-indexed) onto CNF variable k, per the
// to_cnf precondition in the specification. Later calls are no-ops, so
// package cnf can call it unconditionally before allocating Tseitin
// variables.
func (m *Manager) EnsureCNFWatermark() {
	if m.cnfReady {
		return
	}
	m.cnfReady = true
	m.MaxUnchanged = len(m.varOf)
	m.MaxCNFVar = len(m.varOf)
	for i, id := range m.varOf {
		v := i + 1
		m.RBCToCNF[id] = v
		m.CNFToRBC[v] = id
	}
}

// NewManager constructs a Manager with only the constant-true node.
func NewManager() *Manager {
	m := &Manager{
		nodes: make([]node, 1, 256),
		index: make(map[key]ID, 256),
		RBCToCNF: make(map[ID]int),
		CNFToRBC: make(map[int]ID),
	}
	m.nodes[0] = node{sym: symTop}
	return m
}

func (m *Manager) lookupOrCreate(k key, n node) ID {
	if id, ok := m.index[k]; ok {
		return id
	}
	m.nodes = append(m.nodes, n)
	id := ID(len(m.nodes) - 1)
	m.index[k] = id
	return id
}

// Var returns the literal for the i-th external boolean variable,
// allocating a fresh RBC leaf node on first use.
func (m *Manager) Var(i int) Lit {
	for len(m.varOf) <= i {
		idx := len(m.varOf)
		k := key{sym: symVar, v: idx}
		id := m.lookupOrCreate(k, node{sym: symVar, varIndex: idx})
		m.varOf = append(m.varOf, id)
	}
	return Lit{id: m.varOf[i], neg: false}
}

// Not returns the negation of l. This never touches the node pool.
func Not(l Lit) Lit { return Lit{id: l.id, neg: !l.neg} }

// applySigma flips l's polarity once more if sigma requests it.
func applySigma(l Lit, sigma Polarity) Lit {
	if sigma == Negative {
		return Not(l)
	}
	return l
}

// Polarity selects whether a constructor's result should be returned as
// computed (Positive) or negated (Negative).
type Polarity bool

const (
	Positive Polarity = false
	Negative Polarity = true
)

// And returns a∧b (after sign flipping by sigma), applying the
// simplification table and hash-consing the result.
func (m *Manager) And(a, b Lit, sigma Polarity) Lit {
	r := m.and(a, b)
	return applySigma(r, sigma)
}

func (m *Manager) and(a, b Lit) Lit {
	switch {
	case a == b:
		return a
	case a == Not(b):
		return Zero()
	case a.IsZero() || b.IsZero():
		return Zero()
	case a.IsOne():
		return b
	case b.IsOne():
		return a
	}
	// and(and(x,y), x) == and(x,y); and(not(and(x,y)), x) == and(not(y), x)
	if s := m.simplifyAndWithAndChild(a, b); s != nil {
		return *s
	}
	if s := m.simplifyAndWithAndChild(b, a); s != nil {
		return *s
	}

	x, y := a, b
	if y.less(x) {
		x, y = y, x
	}
	k := key{sym: symAnd, a: x, b: y}
	id := m.lookupOrCreate(k, node{sym: symAnd, c: [3]Lit{x, y, Lit{}}})
	return Lit{id: id, neg: false}
}

// simplifyAndWithAndChild implements and(and(x,y),x) == and(x,y) and
// and(¬and(x,y),x) == and(¬y,x), trying "maybe" as the and(x,y) operand and
// "other" as the bare literal being absorbed.
func (m *Manager) simplifyAndWithAndChild(maybe, other Lit) *Lit {
	if maybe.id == topID || m.nodes[maybe.id].sym != symAnd {
		return nil
	}
	x, y := m.nodes[maybe.id].c[0], m.nodes[maybe.id].c[1]
	if maybe.neg {
		// ¬and(x,y) ∧ other: if other == x, result is and(¬y, other).
		if other == x {
			r := m.and(Not(y), other)
			return &r
		}
		if other == y {
			r := m.and(Not(x), other)
			return &r
		}
		return nil
	}
	if other == x || other == y {
		return &maybe
	}
	return nil
}

// Or returns a∨b via De Morgan: ¬(¬a∧¬b). OR has no dedicated node symbol;
// only TOP, VAR, AND, IFF, and ITE are physical RBC symbols.
func (m *Manager) Or(a, b Lit, sigma Polarity) Lit {
	r := Not(m.and(Not(a), Not(b)))
	return applySigma(r, sigma)
}

// Iff returns a⟺b, lifting negation onto the returned edge: both operands
// are normalized to positive polarity before hash-consing, and the result's
// polarity is the xor of the operands' original polarities (and sigma).
func (m *Manager) Iff(a, b Lit, sigma Polarity) Lit {
	r := m.iff(a, b)
	return applySigma(r, sigma)
}

func (m *Manager) iff(a, b Lit) Lit {
	switch {
	case a == b:
		return One()
	case a == Not(b):
		return Zero()
	case a.IsZero():
		return Not(b)
	case b.IsZero():
		return Not(a)
	case a.IsOne():
		return b
	case b.IsOne():
		return a
	}
	outNeg := a.neg != b.neg
	pa, pb := Lit{id: a.id, neg: false}, Lit{id: b.id, neg: false}
	if pb.less(pa) {
		pa, pb = pb, pa
	}
	k := key{sym: symIff, a: pa, b: pb}
	id := m.lookupOrCreate(k, node{sym: symIff, c: [3]Lit{pa, pb, Lit{}}})
	return Lit{id: id, neg: outNeg}
}

// Xor returns a⊕b, the complement of Iff.
func (m *Manager) Xor(a, b Lit, sigma Polarity) Lit {
	r := Not(m.iff(a, b))
	return applySigma(r, sigma)
}

// Ite returns if i then t else e, applying the simplification table.
func (m *Manager) Ite(i, t, e Lit, sigma Polarity) Lit {
	r := m.ite(i, t, e)
	return applySigma(r, sigma)
}

func (m *Manager) ite(i, t, e Lit) Lit {
	switch {
	case i.IsOne():
		return t
	case i.IsZero():
		return e
	case t == e:
		return t
	case t.IsOne() && e.IsZero():
		return i
	case t.IsZero() && e.IsOne():
		return Not(i)
	case i == t:
		return m.Or(i, e, Positive)
	case i == Not(t):
		return m.and(Not(i), e)
	case t == Not(e):
		return m.iff(i, t)
	}

	outNeg := false
	ct, ce := t, e
	if ct.neg {
		ct, ce = Not(ct), Not(ce)
		outNeg = true
	}
	k := key{sym: symIte, a: i, b: ct, c: ce}
	id := m.lookupOrCreate(k, node{sym: symIte, c: [3]Lit{i, ct, ce}})
	return Lit{id: id, neg: outNeg}
}

// Sym returns the symbol of l's node.
func (m *Manager) Sym(l Lit) Symbol { return m.nodes[l.id].sym }

// children returns the canonical (positive-node) children of l, in the
// order (if, then, else) for ITE, (a, b) for AND/IFF, and none for VAR/TOP.
// Their polarities must be combined with the caller's own traversal state.
func (m *Manager) children(l Lit) [3]Lit { return m.nodes[l.id].c }

// Operands returns the operand literals stored in l's node, exactly as
// children does: l's own negation is not applied to them, so a caller
// holding a negated literal must negate the rebuilt result as a whole.
func (m *Manager) Operands(l Lit) [3]Lit { return m.children(l) }

// VarIndex returns the external variable index of l, valid only when
// Sym(l) == symVar.
func (m *Manager) VarIndex(l Lit) int { return m.nodes[l.id].varIndex }

// sortedLits is a helper for deterministic iteration in tests/dumps.
func sortedLits(ls []Lit) []Lit {
	out := append([]Lit(nil), ls...)
	sort.Slice(out, func(i, j int) bool { return out[i].less(out[j]) })
	return out
}
