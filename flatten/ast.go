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

// Package flatten walks a parsed module hierarchy (the parser itself is
// out of scope; this package consumes the abstract syntax tree it would
// have produced) and builds a flat, symbol-resolved transition system: it
// is the core two-pass algorithm of the compiler.
package flatten

import "github.com/go-smv/smvcore/node"

// VarKind distinguishes the shapes instantiate_var must normalise.
type VarKind int

const (
	KindBoolean VarKind = iota
	KindRange
	KindEnum
	KindModuleInstance
	KindProcess
	KindArray
)

// VarSpec is one VAR/IVAR declaration's right hand side, already parsed
// into a normalised shape (boolean | a..b | {e1,...,en} | modtype(actuals)
// | process modtype(actuals) | array a..b of elem).
type VarSpec struct {
	Kind VarKind

	Lo, Hi int64 // KindRange
	Enum   []node.ID // KindEnum

	ModuleName string    // KindModuleInstance / KindProcess
	Actuals    []node.ID // KindModuleInstance / KindProcess

	ElemKind *VarSpec // KindArray
}

// VarField is one (name, spec) pair inside a VAR or IVAR block.
type VarField struct {
	Name node.ID // ATOM
	Spec VarSpec
}

// Decl is one top-level declaration inside a module body.
type Decl interface{ isDecl() }

// VarBlock declares state (IsInput=false) or input (IsInput=true)
// variables.
type VarBlock struct {
	IsInput bool
	Fields  []VarField
}

// ConstraintBlock is a TRANS/INIT/INVAR section.
type ConstraintBlock struct {
	Tag  node.Kind // node.Trans, node.Init, or node.Invar
	Expr node.ID
}

// SpecBlock is a SPEC/LTLSPEC/INVARSPEC/COMPUTE/JUSTICE/COMPASSION section.
type SpecBlock struct {
	Tag  node.Kind
	Expr node.ID
}

// AssignBlock is one ASSIGN section; Target is wrapped in node.Next or
// node.SmallInit when the assignment is next(v):=e or init(v):=e, or is
// the bare variable for a plain v:=e.
type AssignBlock struct {
	Target node.ID
	Expr   node.ID
}

// DefineBlock is one DEFINE section.
type DefineBlock struct {
	Name node.ID
	Body node.ID
}

// IsaBlock textually includes another module's body in this one.
type IsaBlock struct {
	ModuleName string
}

func (VarBlock) isDecl()        {}
func (ConstraintBlock) isDecl() {}
func (SpecBlock) isDecl()       {}
func (AssignBlock) isDecl()     {}
func (DefineBlock) isDecl()     {}
func (IsaBlock) isDecl()        {}

// Module is one MODULE declaration: a name, its formal parameters, and its
// body in source order.
type Module struct {
	Name   string
	Params []string
	Decls  []Decl
}

// Program is the whole parsed hierarchy: every MODULE declaration, keyed
// by name.
type Program struct {
	Modules map[string]*Module
}
