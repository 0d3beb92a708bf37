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
	"github.com/go-smv/smvcore/node"
	"github.com/go-smv/smvcore/symtab"
)

// instantiateVar normalises one VAR/IVAR field and declares whatever it
// expands to, dispatching on VarSpec.Kind. This is the core algorithm of
// the flattener.
func (fl *Flattener) instantiateVar(name node.ID, spec VarSpec, isInput bool) error {
	qname := fl.qualify(name)

	switch spec.Kind {
	case KindBoolean:
		return fl.declareScalar(qname, symtab.BooleanRange, isInput)

	case KindRange:
		if spec.Hi < spec.Lo {
			return compileerr.Newf(compileerr.EmptyRange, "%s", fl.st.Render(qname))
		}
		if spec.Hi == spec.Lo {
			fl.Warnings = append(fl.Warnings, fmt.Sprintf("%s: singleton range %d..%d downgraded to a constant", fl.st.Render(qname), spec.Lo, spec.Hi))
			v := fl.pool.Number(spec.Lo)
			if err := fl.st.DeclareConstant(v); err != nil {
				return err
			}
			return fl.st.DeclareDefine(qname, fl.renderCtx(), v)
		}
		values := make([]node.ID, 0, spec.Hi-spec.Lo+1)
		for i := spec.Lo; i <= spec.Hi; i++ {
			values = append(values, fl.pool.Number(i))
		}
		return fl.declareScalar(qname, symtab.Range{Values: values}, isInput)

	case KindEnum:
		if len(spec.Enum) == 0 {
			return compileerr.Newf(compileerr.EmptyRange, "%s", fl.st.Render(qname))
		}
		if len(spec.Enum) == 1 {
			fl.Warnings = append(fl.Warnings, fmt.Sprintf("%s: singleton enumeration downgraded to a constant", fl.st.Render(qname)))
			if err := fl.st.DeclareConstant(spec.Enum[0]); err != nil {
				return err
			}
			return fl.st.DeclareDefine(qname, fl.renderCtx(), spec.Enum[0])
		}
		return fl.declareScalar(qname, symtab.Range{Values: spec.Enum}, isInput)

	case KindModuleInstance:
		actuals := fl.contextualizeActuals(spec.Actuals)
		return fl.instantiateByName(spec.ModuleName, fl.st.Render(name), actuals)

	case KindProcess:
		actuals := fl.contextualizeActuals(spec.Actuals)
		localName := fl.st.Render(name)
		qualifiedName := fl.st.Render(qname) // globally unique, used as the process's label
		before := len(fl.pending)
		outerProcess := fl.currentProcess
		fl.currentProcess = qualifiedName
		err := fl.instantiateByName(spec.ModuleName, localName, actuals)
		fl.currentProcess = outerProcess
		if err != nil {
			return err
		}
		procAssign := fl.pool.True()
		for _, p := range fl.pending[before:] {
			procAssign = fl.pool.Binary(node.And, procAssign, fl.rebuildEqdef(p))
		}
		fl.model.Procs = append(fl.model.Procs, ProcessInstance{InstanceName: qualifiedName, NameID: qname, Assign: procAssign})
		return nil

	case KindArray:
		if spec.ElemKind == nil {
			return compileerr.Newf(compileerr.TypeError, "%s: array with no element type", fl.st.Render(qname))
		}
		for i := spec.Lo; i <= spec.Hi; i++ {
			elemName := fl.pool.Array(name, fl.pool.Number(i))
			if err := fl.instantiateVar(elemName, *spec.ElemKind, isInput); err != nil {
				return err
			}
		}
		return nil

	default:
		return compileerr.Newf(compileerr.TypeError, "%s: unrecognised variable kind", fl.st.Render(qname))
	}
}

// declareScalar declares name with range rng, then — for a non-boolean
// range — runs the scalar-boolean encoder over it immediately, so every
// later pass (dependency analysis, sexp→bexp conversion) sees name's
// encoding bits and decode tree already registered, exactly as a VAR
// declaration's bit decomposition is available as soon as the declaration
// is processed in the source compiler.
func (fl *Flattener) declareScalar(name node.ID, rng symtab.Range, isInput bool) error {
	if isInput {
		if err := fl.st.DeclareInputVar(name, rng); err != nil {
			return err
		}
	} else if err := fl.st.DeclareStateVar(name, rng); err != nil {
		return err
	}
	if rng.Boolean {
		return nil
	}
	_, tree, err := fl.enc.Encode(name, rng)
	if err != nil {
		return err
	}
	fl.st.RegisterEncodingTree(name, tree)
	return nil
}

// contextualizeActuals wraps every actual parameter in CONTEXT(instance,_)
// so that free identifiers inside it keep resolving against the caller's
// own scope once evaluated from inside the callee.
func (fl *Flattener) contextualizeActuals(actuals []node.ID) []node.ID {
	ctxName := fl.renderCtx()
	out := make([]node.ID, len(actuals))
	for i, a := range actuals {
		resolved, err := fl.resolveName(a)
		if err != nil {
			resolved = a
		}
		out[i] = fl.pool.Context(ctxName, resolved)
	}
	return out
}
