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

package flatten

import (
	"fmt"

	"github.com/go-smv/smvcore/compileerr"
	"github.com/go-smv/smvcore/depend"
	"github.com/go-smv/smvcore/encode"
	"github.com/go-smv/smvcore/fsm"
	"github.com/go-smv/smvcore/node"
	"github.com/go-smv/smvcore/symtab"
)

// ProcessInstance is one entry of FlatModel.Procs: an instantiated
// PROCESS and the (already context-qualified) conjunction of its own
// ASSIGN declarations, prior to the inertia rewrite the process axis
// applies once every process is known.
type ProcessInstance struct {
	InstanceName string
	NameID       node.ID // the qualified ATOM/DOT naming this instance
	Assign       node.ID
}

// FlatModel is the fully flattened, symbol-resolved transition system a
// module hierarchy reduces to.
type FlatModel struct {
	FSM *fsm.FSM

	Spec       []node.ID
	Ltlspec    []node.ID
	Invarspec  []node.ID
	Pslspec    []node.ID
	Compute    []node.ID
	Justice    []node.ID
	Compassion []node.ID

	Procs []ProcessInstance

	Assign node.ID // every ASSIGN-derived constraint, conjoined, for the dump renderer
}

// frame is one instantiation's resolution context: its qualifying prefix
// expression and its formal-parameter bindings.
type frame struct {
	ctxBase node.ID
	params  map[node.ID]node.ID // formal ATOM -> resolved actual
}

// Flattener walks a Program's module hierarchy, starting from one root
// instantiation, and produces a FlatModel.
type Flattener struct {
	pool *node.Pool
	st   *symtab.SymbolTable
	prog *Program

	analyzer *depend.Analyzer
	fsmB     *fsm.FSM
	enc      *encode.Encoder

	frames      []frame
	moduleStack map[string]bool

	defineInProgress map[node.ID]bool

	model *FlatModel

	pending     []pendingAssign
	assignParts []node.ID

	currentProcess string // instance name of the enclosing PROCESS, "" at top level

	Warnings []string
}

// pendingAssign buffers one ASSIGN declaration until the whole hierarchy
// has been walked, so the process axis can rewrite NEXT-assigns owned by
// a process before they are committed to the FSM.
type pendingAssign struct {
	owner   node.ID
	kind    fsm.FragmentKind
	target  node.ID // the resolved LHS name, unwrapped of NEXT/init
	rawTag  node.Kind
	rhs     node.ID
	process string
}

// New constructs a Flattener over prog, bound to st (which it declares
// into) and pool.
func New(pool *node.Pool, st *symtab.SymbolTable, prog *Program) *Flattener {
	analyzer := depend.NewAnalyzer(pool, st)
	fsmB := fsm.NewFSM(pool, st, analyzer)
	return &Flattener{
		pool:             pool,
		st:               st,
		prog:             prog,
		analyzer:         analyzer,
		fsmB:             fsmB,
		enc:              encode.NewEncoder(pool, st),
		moduleStack:      make(map[string]bool),
		defineInProgress: make(map[node.ID]bool),
		model: &FlatModel{
			FSM: fsmB,
		},
	}
}

func (fl *Flattener) frame() *frame { return &fl.frames[len(fl.frames)-1] }

// FlattenHierarchy instantiates rootModule as instanceName with actuals
// (already-resolved expressions in the caller's own, typically empty,
// context) and returns the fully flattened model.
func (fl *Flattener) FlattenHierarchy(rootModule, instanceName string, actuals []node.ID) (*FlatModel, error) {
	if err := fl.instantiateByName(rootModule, instanceName, actuals); err != nil {
		return nil, err
	}
	if err := fl.applyProcessAxis(); err != nil {
		return nil, err
	}
	if err := fl.commitPending(); err != nil {
		return nil, err
	}
	if len(fl.assignParts) == 0 {
		fl.model.Assign = fl.pool.True()
	} else {
		acc := fl.assignParts[0]
		for _, p := range fl.assignParts[1:] {
			acc = fl.pool.Binary(node.And, acc, p)
		}
		fl.model.Assign = acc
	}
	return fl.model, nil
}

// instantiateByName recurses into module mod under instanceName, pushing
// a fresh frame whose parameter table binds mod's formals to actuals
// (already wrapped by the caller in the parent's CONTEXT where that
// applies).
func (fl *Flattener) instantiateByName(modName, instanceName string, actuals []node.ID) error {
	mod, ok := fl.prog.Modules[modName]
	if !ok {
		return compileerr.Newf(compileerr.UndefinedSymbol, "module %s", modName)
	}
	if fl.moduleStack[modName] {
		return compileerr.Newf(compileerr.RecursiveModule, "%s", modName)
	}
	if len(actuals) != len(mod.Params) {
		return compileerr.Newf(compileerr.TypeError, "%s: expected %d parameters, got %d", modName, len(mod.Params), len(actuals))
	}
	fl.moduleStack[modName] = true
	defer delete(fl.moduleStack, modName)

	parentCtx := node.Nil
	if len(fl.frames) > 0 {
		parentCtx = fl.frame().ctxBase
	}
	var ctxBase node.ID
	if parentCtx == node.Nil {
		ctxBase = fl.pool.Atom(instanceName)
	} else {
		ctxBase = fl.pool.Dot(parentCtx, fl.pool.Atom(instanceName))
	}

	params := make(map[node.ID]node.ID, len(mod.Params))
	for i, p := range mod.Params {
		params[fl.pool.Atom(p)] = actuals[i]
	}
	fl.frames = append(fl.frames, frame{ctxBase: ctxBase, params: params})
	err := fl.instantiateModule(mod)
	fl.frames = fl.frames[:len(fl.frames)-1]
	return err
}

// instantiateModule runs the two-pass algorithm over mod's body in the
// frame fl.frame() most recently pushed.
func (fl *Flattener) instantiateModule(mod *Module) error {
	// Pre-pass: bind every DEFINE first, so later VAR sizes may reference
	// them, and so ISA-included bodies see them too.
	ctxName := fl.renderCtx()
	for _, d := range mod.Decls {
		if def, ok := d.(DefineBlock); ok {
			name := fl.qualify(def.Name)
			if err := fl.st.DeclareDefine(name, ctxName, def.Body); err != nil {
				return err
			}
		}
		if isa, ok := d.(IsaBlock); ok {
			included, ok := fl.prog.Modules[isa.ModuleName]
			if !ok {
				return compileerr.Newf(compileerr.UndefinedSymbol, "module %s", isa.ModuleName)
			}
			for _, id := range included.Decls {
				if def, ok := id.(DefineBlock); ok {
					name := fl.qualify(def.Name)
					if err := fl.st.DeclareDefine(name, ctxName, def.Body); err != nil {
						return err
					}
				}
			}
		}
	}

	// Main pass.
	for _, d := range mod.Decls {
		if err := fl.dispatch(d, ctxName); err != nil {
			return err
		}
	}
	for _, d := range mod.Decls {
		if isa, ok := d.(IsaBlock); ok {
			included := fl.prog.Modules[isa.ModuleName]
			for _, id := range included.Decls {
				if _, ok := id.(DefineBlock); ok {
					continue // already bound in the pre-pass
				}
				if err := fl.dispatch(id, ctxName); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (fl *Flattener) renderCtx() string {
	ctx := fl.frame().ctxBase
	if ctx == node.Nil {
		return ""
	}
	return fl.st.Render(ctx)
}

func (fl *Flattener) dispatch(d Decl, ctxName string) error {
	switch v := d.(type) {
	case DefineBlock:
		return nil // handled in the pre-pass
	case IsaBlock:
		return nil // handled around the main pass
	case VarBlock:
		for _, field := range v.Fields {
			if err := fl.instantiateVar(field.Name, field.Spec, v.IsInput); err != nil {
				return err
			}
		}
		return nil
	case ConstraintBlock:
		expr, err := fl.flattenSexp(v.Expr)
		if err != nil {
			return err
		}
		wrapped := fl.pool.Context(ctxName, expr)
		kind := constraintKind(v.Tag)
		werr := fl.fsmB.AddConstraint(kind, wrapped)
		if werr != nil && !compileerr.Is(werr, compileerr.ConstantInConstraint) {
			return werr
		}
		if werr != nil {
			fl.Warnings = append(fl.Warnings, werr.Error())
		}
		return nil
	case SpecBlock:
		expr, err := fl.flattenSexp(v.Expr)
		if err != nil {
			return err
		}
		wrapped := fl.pool.Context(ctxName, expr)
		fl.appendSpec(v.Tag, wrapped)
		return nil
	case AssignBlock:
		rawTag := fl.pool.Tag(v.Target)
		bare := v.Target
		kind := fsm.FragInvar
		switch rawTag {
		case node.SmallInit:
			bare = fl.pool.Car(v.Target)
			kind = fsm.FragInit
		case node.Next:
			bare = fl.pool.Car(v.Target)
			kind = fsm.FragTrans
		}
		target, err := fl.resolveName(bare)
		if err != nil {
			return err
		}
		rhs, err := fl.flattenSexp(v.Expr)
		if err != nil {
			return err
		}
		if err := fl.checkAssignDomain(target, rhs); err != nil {
			return err
		}
		fl.pending = append(fl.pending, pendingAssign{
			owner:   target,
			kind:    kind,
			target:  target,
			rawTag:  rawTag,
			rhs:     rhs,
			process: fl.currentProcess,
		})
		return nil
	default:
		return fmt.Errorf("flatten: unknown declaration %T", d)
	}
}

// checkAssignDomain raises RangeOutOfDomain when rhs is a closed constant
// leaf (a NUMBER/TRUE/FALSE literal, or a reference to a declared Constant
// symbol — an enumeration value or a downgraded singleton range) that falls
// outside target's declared range. Non-constant right-hand sides (the
// common case: an expression over other variables) are left for the FSM and
// SAT backends to constrain at solve time, exactly as init(x):=y needs no
// domain check here since y's own range already bounds it.
func (fl *Flattener) checkAssignDomain(target, rhs node.ID) error {
	rng, ok := fl.st.RangeOf(target)
	if !ok {
		return nil // target isn't a scalar var (e.g. a process-owned define)
	}
	switch fl.pool.Tag(rhs) {
	case node.Number, node.True, node.False:
	case node.Atom:
		if !fl.st.IsConstant(rhs) {
			return nil
		}
	default:
		return nil
	}
	if !rng.Contains(fl.pool, rhs) {
		return compileerr.Newf(compileerr.RangeOutOfDomain, "%s: %s not in declared range", fl.st.Render(target), fl.st.Render(rhs))
	}
	return nil
}

// rebuildEqdef reconstructs the EQDEF node a pending assignment denotes,
// wrapping the target in NEXT/init the same way the ASSIGN section itself
// did.
func (fl *Flattener) rebuildEqdef(p pendingAssign) node.ID {
	switch p.rawTag {
	case node.SmallInit:
		return fl.pool.Binary(node.Eqdef, fl.pool.SmallInit(p.target), p.rhs)
	case node.Next:
		return fl.pool.Binary(node.Eqdef, fl.pool.Next(p.target), p.rhs)
	default:
		return fl.pool.Binary(node.Eqdef, p.target, p.rhs)
	}
}

// commitPending registers every buffered ASSIGN declaration with the FSM,
// after the process axis has had a chance to rewrite the NEXT-assigns that
// belong to a process.
func (fl *Flattener) commitPending() error {
	for _, p := range fl.pending {
		eq := fl.rebuildEqdef(p)
		if err := fl.fsmB.AddAssign(p.kind, p.owner, eq); err != nil {
			return err
		}
		fl.assignParts = append(fl.assignParts, eq)
	}
	return nil
}

func constraintKind(tag node.Kind) fsm.FragmentKind {
	switch tag {
	case node.Init:
		return fsm.FragInit
	case node.Invar:
		return fsm.FragInvar
	default:
		return fsm.FragTrans
	}
}

func (fl *Flattener) appendSpec(tag node.Kind, wrapped node.ID) {
	switch tag {
	case node.Spec:
		fl.model.Spec = append(fl.model.Spec, wrapped)
	case node.Ltlspec:
		fl.model.Ltlspec = append(fl.model.Ltlspec, wrapped)
	case node.Invarspec:
		fl.model.Invarspec = append(fl.model.Invarspec, wrapped)
	case node.Pslspec:
		fl.model.Pslspec = append(fl.model.Pslspec, wrapped)
	case node.Compute:
		fl.model.Compute = append(fl.model.Compute, wrapped)
	case node.Justice:
		fl.model.Justice = append(fl.model.Justice, wrapped)
	case node.Compassion:
		fl.model.Compassion = append(fl.model.Compassion, wrapped)
	}
}
