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

// Package symtab implements the scoped symbol table: a map from qualified
// names (node.ID of a DOT-chain, or a plain ATOM at the top level) to
// exactly one binding variant (state var, input var, determinisation
// witness, define, or constant).
package symtab

import (
	"fmt"

	"github.com/bits-and-blooms/bitset"
	"github.com/go-smv/smvcore/compileerr"
	"github.com/go-smv/smvcore/node"
	"github.com/go-smv/smvcore/util/orderedmap"
)

// Binding is the sum type of everything a qualified name can be bound to.
type Binding interface {
	isBinding()
}

// StateVar is a variable controlled by INIT/INVAR/TRANS (as opposed to an
// environment input).
type StateVar struct {
	Range Range
	Index int // dense index into the compiler's variable universe
}

// InputVar is an environment-controlled variable.
type InputVar struct {
	Range Range
	Index int
}

// DetermVar is a fresh boolean input variable introduced by the sexp→bexp
// converter to make a nondeterministic assignment deterministic. It behaves
// like a boolean InputVar for dependency/encoding purposes but is excluded
// from IsModelInputVar.
type DetermVar struct {
	Index int
}

// Define is a macro: its Body is the unflattened expression as written; the
// flattened form is memoised the first time it is needed.
type Define struct {
	Context      string
	Body         node.ID
	flattened    node.ID
	flattenedSet bool
}

// Constant is a leaf-value symbol: a range element or other closed literal
// that may appear in expressions and encoding-tree leaves.
type Constant struct {
	Value node.ID
}

func (StateVar) isBinding()  {}
func (InputVar) isBinding()  {}
func (DetermVar) isBinding() {}
func (*Define) isBinding()   {}
func (Constant) isBinding()  {}

// SymbolTable is a scoped map from qualified names to bindings. A
// SymbolTable may have at most one outstanding child, created by Push and
// destroyed by Pop; this replaces the source's literal save/restore of
// primitive fields (see DESIGN.md) with an explicit derived context: the
// child's own enumeration lists start empty, but Lookup falls back to the
// parent, so expressions built during the pushed session can still
// reference the original alphabet.
type SymbolTable struct {
	pool   *node.Pool
	parent *SymbolTable
	child  *SymbolTable

	bindings *orderedmap.OrderedMap[node.ID, Binding]

	stateVars     []node.ID
	inputVars     []node.ID // includes determinisation witnesses
	determVars    []node.ID
	boolStateVars []node.ID
	boolInputVars []node.ID
	defines       []node.ID
	constants     []node.ID

	groups   *Groups
	decodeOf map[node.ID]node.ID // scalar var -> its encoding-tree root (see package encode)
}

// New constructs an empty, top-level symbol table.
func New(pool *node.Pool) *SymbolTable {
	return &SymbolTable{
		pool:     pool,
		bindings: orderedmap.New[node.ID, Binding](),
		groups:   NewGroups(),
		decodeOf: make(map[node.ID]node.ID),
	}
}

// Pool returns the node pool this table's names and defines are interned
// into, so that a caller holding only a SymbolTable (e.g. cmd/smvc, wiring
// package dump and package bexp after flattening) does not also have to
// thread the pool through separately.
func (st *SymbolTable) Pool() *node.Pool { return st.pool }

// Groups returns the variable-bit grouping set backing this table (shared
// with the child across a push, since groups are an encoding-time artifact
// rather than part of the name scope being extended).
func (st *SymbolTable) Groups() *Groups {
	if st.groups == nil {
		return st.parent.Groups()
	}
	return st.groups
}

// RegisterEncodingTree records tree as the decoding tree the scalar-boolean
// encoder built for the scalar variable name, so the sexp→bexp converter can
// later lower EQUAL/NOTEQUAL/LT/LE/GT/GE predicates over name against it
// instead of treating name as an opaque non-boolean leaf.
func (st *SymbolTable) RegisterEncodingTree(name, tree node.ID) {
	if st.decodeOf == nil {
		st.parent.RegisterEncodingTree(name, tree)
		return
	}
	st.decodeOf[name] = tree
}

// EncodingTreeOf returns the decoding tree registered for name, if any.
func (st *SymbolTable) EncodingTreeOf(name node.ID) (node.ID, bool) {
	if t, ok := st.decodeOf[name]; ok {
		return t, true
	}
	if st.parent != nil {
		return st.parent.EncodingTreeOf(name)
	}
	return node.Nil, false
}

func (st *SymbolTable) lookupLocal(name node.ID) (Binding, bool) {
	return st.bindings.Load(name)
}

// Lookup returns the binding for name, searching the parent chain.
func (st *SymbolTable) Lookup(name node.ID) (Binding, bool) {
	if b, ok := st.lookupLocal(name); ok {
		return b, true
	}
	if st.parent != nil {
		return st.parent.Lookup(name)
	}
	return nil, false
}

func (st *SymbolTable) declare(name node.ID, b Binding) error {
	if existing, ok := st.Lookup(name); ok {
		if sameBindingShape(existing, b) {
			return nil // idempotent re-declaration (e.g. a shared constant)
		}
		return compileerr.Newf(compileerr.Redefined, "%s", st.Render(name))
	}
	st.bindings.Store(name, b)
	return nil
}

// sameBindingShape allows idempotent re-declaration of Constant symbols
// only: every other kind must be declared exactly once.
func sameBindingShape(existing, b Binding) bool {
	ec, eok := existing.(Constant)
	bc, bok := b.(Constant)
	return eok && bok && ec.Value == bc.Value
}

// DeclareStateVar binds name as a state variable with the given range.
func (st *SymbolTable) DeclareStateVar(name node.ID, rng Range) error {
	idx := len(st.stateVars)
	if err := st.declare(name, StateVar{Range: rng, Index: idx}); err != nil {
		return err
	}
	st.stateVars = append(st.stateVars, name)
	if rng.Boolean {
		st.boolStateVars = append(st.boolStateVars, name)
	}
	return nil
}

// DeclareInputVar binds name as an environment input variable.
func (st *SymbolTable) DeclareInputVar(name node.ID, rng Range) error {
	idx := len(st.inputVars)
	if err := st.declare(name, InputVar{Range: rng, Index: idx}); err != nil {
		return err
	}
	st.inputVars = append(st.inputVars, name)
	if rng.Boolean {
		st.boolInputVars = append(st.boolInputVars, name)
	}
	return nil
}

// DeclareDetermVar binds name as a fresh boolean determinisation witness.
func (st *SymbolTable) DeclareDetermVar(name node.ID) error {
	idx := len(st.inputVars)
	if err := st.declare(name, DetermVar{Index: idx}); err != nil {
		return err
	}
	st.inputVars = append(st.inputVars, name)
	st.determVars = append(st.determVars, name)
	st.boolInputVars = append(st.boolInputVars, name)
	return nil
}

// DeclareDefine binds name to an unflattened macro body.
func (st *SymbolTable) DeclareDefine(name node.ID, context string, body node.ID) error {
	if err := st.declare(name, &Define{Context: context, Body: body}); err != nil {
		return err
	}
	st.defines = append(st.defines, name)
	return nil
}

// DeclareConstant binds name as a Constant symbol. Declaring the same
// constant more than once is a no-op rather than a Redefined error, since
// the same literal commonly appears in several variables' ranges.
func (st *SymbolTable) DeclareConstant(name node.ID) error {
	if st.IsConstant(name) {
		return nil
	}
	if err := st.declare(name, Constant{Value: name}); err != nil {
		return err
	}
	st.constants = append(st.constants, name)
	return nil
}

// IsConstant reports whether name is bound to a Constant symbol.
func (st *SymbolTable) IsConstant(name node.ID) bool {
	b, ok := st.Lookup(name)
	if !ok {
		return false
	}
	_, ok = b.(Constant)
	return ok
}

// FlattenedDefine returns the memoised flattened body of a define,
// computing and caching it via compute on first use. compute must not be
// called again once it has returned a result for this name (it is the
// caller's responsibility to detect recursive reentry using a sentinel,
// e.g. package depend's in-progress map).
func (st *SymbolTable) FlattenedDefine(name node.ID, compute func(body node.ID) (node.ID, error)) (node.ID, error) {
	b, ok := st.Lookup(name)
	if !ok {
		return node.Nil, compileerr.Newf(compileerr.UndefinedSymbol, "%s", st.Render(name))
	}
	d, ok := b.(*Define)
	if !ok {
		return node.Nil, compileerr.Newf(compileerr.TypeError, "%s is not a define", st.Render(name))
	}
	if d.flattenedSet {
		return d.flattened, nil
	}
	flat, err := compute(d.Body)
	if err != nil {
		return node.Nil, err
	}
	d.flattened = flat
	d.flattenedSet = true
	return flat, nil
}

// IsVar reports whether name is bound to a state or input variable
// (including determinisation witnesses).
func (st *SymbolTable) IsVar(name node.ID) bool {
	b, ok := st.Lookup(name)
	if !ok {
		return false
	}
	switch b.(type) {
	case StateVar, InputVar, DetermVar:
		return true
	default:
		return false
	}
}

// IsDefine reports whether name is bound to a define.
func (st *SymbolTable) IsDefine(name node.ID) bool {
	b, ok := st.Lookup(name)
	if !ok {
		return false
	}
	_, ok = b.(*Define)
	return ok
}

// IsStateVar reports whether name is bound to a state variable.
func (st *SymbolTable) IsStateVar(name node.ID) bool {
	b, ok := st.Lookup(name)
	if !ok {
		return false
	}
	_, ok = b.(StateVar)
	return ok
}

// IsInputVar reports whether name is bound to an input variable or a
// determinisation witness.
func (st *SymbolTable) IsInputVar(name node.ID) bool {
	b, ok := st.Lookup(name)
	if !ok {
		return false
	}
	switch b.(type) {
	case InputVar, DetermVar:
		return true
	default:
		return false
	}
}

// IsModelInputVar reports whether name is a user-visible input variable,
// excluding internal determinisation witnesses.
func (st *SymbolTable) IsModelInputVar(name node.ID) bool {
	b, ok := st.Lookup(name)
	if !ok {
		return false
	}
	_, ok = b.(InputVar)
	return ok
}

// IsBooleanVar reports whether name is bound to a variable (state, input, or
// determinisation witness) whose range is boolean. This is meaningful for
// scalar variables' bits only once the scalar-boolean encoder has declared
// them, hence the specification's "(set once encoding is done)".
func (st *SymbolTable) IsBooleanVar(name node.ID) bool {
	b, ok := st.Lookup(name)
	if !ok {
		return false
	}
	switch v := b.(type) {
	case StateVar:
		return v.Range.Boolean
	case InputVar:
		return v.Range.Boolean
	case DetermVar:
		return true
	default:
		return false
	}
}

// RangeOf returns the range of a state or input variable.
func (st *SymbolTable) RangeOf(name node.ID) (Range, bool) {
	b, ok := st.Lookup(name)
	if !ok {
		return Range{}, false
	}
	switch v := b.(type) {
	case StateVar:
		return v.Range, true
	case InputVar:
		return v.Range, true
	case DetermVar:
		return BooleanRange, true
	default:
		return Range{}, false
	}
}

// StateVars returns the ordered list of declared state variables (this
// table's own, not the parent's, matching the "reset" semantics of Push).
func (st *SymbolTable) StateVars() []node.ID { return st.stateVars }

// InputVars returns the ordered list of declared input variables, including
// determinisation witnesses.
func (st *SymbolTable) InputVars() []node.ID { return st.inputVars }

// ModelInputVars returns InputVars with determinisation witnesses excluded.
func (st *SymbolTable) ModelInputVars() []node.ID {
	out := make([]node.ID, 0, len(st.inputVars))
	det := make(map[node.ID]bool, len(st.determVars))
	for _, d := range st.determVars {
		det[d] = true
	}
	for _, v := range st.inputVars {
		if !det[v] {
			out = append(out, v)
		}
	}
	return out
}

// DetermVars returns the ordered list of determinisation witnesses.
func (st *SymbolTable) DetermVars() []node.ID { return st.determVars }

// BoolStateVars returns the declared boolean state variables in declaration order.
func (st *SymbolTable) BoolStateVars() []node.ID { return st.boolStateVars }

// BoolInputVars returns the declared boolean input variables (including
// determinisation witnesses) in declaration order.
func (st *SymbolTable) BoolInputVars() []node.ID { return st.boolInputVars }

// Defines returns the ordered list of declared defines.
func (st *SymbolTable) Defines() []node.ID { return st.defines }

// Constants returns the ordered list of declared constant symbols.
func (st *SymbolTable) Constants() []node.ID { return st.constants }

// DependencyResolver supplies the transitive variable-dependency set of an
// expression, keyed by the resolver's own dense universe index. Package
// depend's *Analyzer implements this; symtab cannot import depend directly
// (depend already imports symtab), so ModelSymbols takes the resolver as a
// parameter instead, the same inversion package depend itself uses for
// DirectDeps (there, depend needs something only fsm can supply; here,
// symtab needs something only depend can supply).
type DependencyResolver interface {
	Deps(expr node.ID) (*bitset.BitSet, error)
	VarAt(i uint) node.ID
}

// ModelSymbols partitions every declared define into three groups by the
// set of state/input variables its flattened body transitively depends on
// (via dr): defines that depend on state variables only, defines that
// depend on input variables only, and defines that depend on both. A
// define with an empty dependency set (a closed body) appears in none of
// the three lists. Each list preserves declaration order.
func (st *SymbolTable) ModelSymbols(dr DependencyResolver) (stateOnly, inputOnly, stateAndInput []node.ID, err error) {
	for _, name := range st.defines {
		body, ferr := st.FlattenedDefine(name, func(b node.ID) (node.ID, error) { return b, nil })
		if ferr != nil {
			return nil, nil, nil, ferr
		}
		deps, derr := dr.Deps(body)
		if derr != nil {
			return nil, nil, nil, derr
		}

		var hasState, hasInput bool
		for i, ok := deps.NextSet(0); ok; i, ok = deps.NextSet(i + 1) {
			v := dr.VarAt(i)
			switch {
			case st.IsStateVar(v):
				hasState = true
			case st.IsInputVar(v):
				hasInput = true
			}
		}

		switch {
		case hasState && hasInput:
			stateAndInput = append(stateAndInput, name)
		case hasState:
			stateOnly = append(stateOnly, name)
		case hasInput:
			inputOnly = append(inputOnly, name)
		}
	}
	return stateOnly, inputOnly, stateAndInput, nil
}

// Push creates and returns a child SymbolTable with empty enumeration lists
// whose Lookup delegates to st for anything it does not itself bind. It
// fails if st already has an outstanding child, matching "exactly one push
// may be outstanding".
func (st *SymbolTable) Push() (*SymbolTable, error) {
	if st.child != nil {
		return nil, compileerr.Newf(compileerr.Redefined, "symbol table already has a pushed child")
	}
	child := &SymbolTable{
		pool:     st.pool,
		parent:   st,
		bindings: orderedmap.New[node.ID, Binding](),
	}
	st.child = child
	return child, nil
}

// Pop discards st's outstanding child. Because the parent's own fields were
// never mutated by Push, every enumeration method on st already returns
// exactly what it returned before the Push, satisfying the push/pop
// round-trip property without needing to restore saved fields.
func (st *SymbolTable) Pop() error {
	if st.child == nil {
		return fmt.Errorf("symtab: Pop called with no outstanding child")
	}
	st.child = nil
	return nil
}

// Render renders a qualified-name node back to its dotted textual form,
// e.g. "p1.x" or "y" or "arr[2]", for diagnostics and for the variable
// ordering file format.
func (st *SymbolTable) Render(id node.ID) string {
	return renderName(st.pool, id)
}

func renderName(pool *node.Pool, id node.ID) string {
	switch pool.Tag(id) {
	case node.Atom:
		return pool.Str(id)
	case node.Dot:
		ctx := pool.Car(id)
		name := pool.Cdr(id)
		if ctx == node.Nil {
			return renderName(pool, name)
		}
		return renderName(pool, ctx) + "." + renderName(pool, name)
	case node.Array:
		return fmt.Sprintf("%s[%d]", renderName(pool, pool.Car(id)), pool.Num(pool.Cdr(id)))
	case node.Bit:
		return fmt.Sprintf("BIT(%s,%d)", renderName(pool, pool.Car(id)), pool.Num(id))
	case node.Number:
		return fmt.Sprintf("%d", pool.Num(id))
	case node.Self:
		return "self"
	default:
		return fmt.Sprintf("<node %d>", id)
	}
}
