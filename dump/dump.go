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

// Package dump renders a flattened model back to NuSMV-style surface
// syntax: one MODULE with IVAR/VAR/DEFINE declarations, ASSIGN/INIT/INVAR/
// TRANS constraints and SPEC/LTLSPEC/INVARSPEC/COMPUTE/JUSTICE/COMPASSION
// properties, matching the variable and declaration ordering the symbol
// table and FSM already keep. It never interprets PSL: a PSLSPEC is
// rendered as a comment and reported back as a warning, since this package
// has no PSL semantics of its own.
package dump

import (
	"fmt"
	"strings"

	"github.com/go-smv/smvcore/flatten"
	"github.com/go-smv/smvcore/fsm"
	"github.com/go-smv/smvcore/node"
	"github.com/go-smv/smvcore/symtab"
)

// Renderer renders flattened models over a shared pool/symbol table.
type Renderer struct {
	pool *node.Pool
	st   *symtab.SymbolTable
}

// New constructs a Renderer.
func New(pool *node.Pool, st *symtab.SymbolTable) *Renderer {
	return &Renderer{pool: pool, st: st}
}

// RenderModule renders fm as a single MODULE named name. It returns the
// rendered text plus any non-fatal warnings (currently: one per PSLSPEC
// section, since PSL is carried but not interpreted).
func (r *Renderer) RenderModule(name string, fm *flatten.FlatModel) (string, []string) {
	var b strings.Builder
	var warnings []string

	fmt.Fprintf(&b, "MODULE %s\n", name)

	r.renderVarSection(&b, "IVAR", r.st.ModelInputVars())
	r.renderVarSection(&b, "VAR", r.st.StateVars())
	r.renderDefines(&b)
	r.renderAssign(&b, fm.Assign)
	r.renderGlobalSection(&b, "INIT", fm.FSM.GlobalConstraints(fsm.FragInit))
	r.renderGlobalSection(&b, "INVAR", fm.FSM.GlobalConstraints(fsm.FragInvar))
	r.renderGlobalSection(&b, "TRANS", fm.FSM.GlobalConstraints(fsm.FragTrans))
	r.renderSpecSection(&b, "JUSTICE", fm.Justice)
	r.renderSpecSection(&b, "COMPASSION", fm.Compassion)
	r.renderSpecSection(&b, "SPEC", fm.Spec)
	r.renderSpecSection(&b, "LTLSPEC", fm.Ltlspec)
	r.renderSpecSection(&b, "INVARSPEC", fm.Invarspec)
	r.renderSpecSection(&b, "COMPUTE", fm.Compute)

	if len(fm.Pslspec) > 0 {
		b.WriteString("-- PSLSPEC (not interpreted, shown for reference only)\n")
		for _, p := range fm.Pslspec {
			fmt.Fprintf(&b, "--   %s\n", r.renderExpr(p))
		}
		warnings = append(warnings, "PSLSPEC sections are carried but not interpreted")
	}

	return b.String(), warnings
}

func (r *Renderer) renderVarSection(b *strings.Builder, header string, vars []node.ID) {
	if len(vars) == 0 {
		return
	}
	fmt.Fprintf(b, "%s\n", header)
	for _, v := range vars {
		rng, ok := r.st.RangeOf(v)
		if !ok {
			continue
		}
		fmt.Fprintf(b, "  %s: %s;\n", r.st.Render(v), r.renderRange(rng))
	}
}

func (r *Renderer) renderRange(rng symtab.Range) string {
	if rng.Boolean {
		return "boolean"
	}
	parts := make([]string, len(rng.Values))
	for i, v := range rng.Values {
		parts[i] = r.renderExpr(v)
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func (r *Renderer) renderDefines(b *strings.Builder) {
	defines := r.st.Defines()
	if len(defines) == 0 {
		return
	}
	b.WriteString("DEFINE\n")
	for _, name := range defines {
		body, err := r.st.FlattenedDefine(name, func(n node.ID) (node.ID, error) { return n, nil })
		if err != nil {
			continue
		}
		fmt.Fprintf(b, "  %s := %s;\n", r.st.Render(name), r.renderExpr(body))
	}
}

// renderAssign walks the left-leaning AND-tree flatten.FlatModel.Assign
// conjoins every ASSIGN-derived EQDEF into, printing each conjunct as its
// own ASSIGN statement.
func (r *Renderer) renderAssign(b *strings.Builder, assign node.ID) {
	parts := r.flattenAnd(assign)
	if len(parts) == 0 {
		return
	}
	b.WriteString("ASSIGN\n")
	for _, p := range parts {
		if r.pool.Tag(p) != node.Eqdef {
			continue
		}
		fmt.Fprintf(b, "  %s := %s;\n", r.renderExpr(r.pool.Car(p)), r.renderExpr(r.pool.Cdr(p)))
	}
}

func (r *Renderer) renderGlobalSection(b *strings.Builder, header string, exprs []node.ID) {
	if len(exprs) == 0 {
		return
	}
	fmt.Fprintf(b, "%s\n", header)
	for _, e := range exprs {
		fmt.Fprintf(b, "  %s;\n", r.renderExpr(e))
	}
}

func (r *Renderer) renderSpecSection(b *strings.Builder, header string, exprs []node.ID) {
	if len(exprs) == 0 {
		return
	}
	for _, e := range exprs {
		fmt.Fprintf(b, "%s %s;\n", header, r.renderExpr(e))
	}
}

// flattenAnd splits a left-leaning AND-tree into its conjuncts, in the
// order they were originally conjoined.
func (r *Renderer) flattenAnd(id node.ID) []node.ID {
	if id == node.Nil {
		return nil
	}
	if r.pool.Tag(id) != node.And {
		if id == r.pool.True() {
			return nil
		}
		return []node.ID{id}
	}
	return append(r.flattenAnd(r.pool.Car(id)), r.flattenAnd(r.pool.Cdr(id))...)
}
