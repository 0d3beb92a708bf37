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

package dump

import (
	"fmt"

	"github.com/go-smv/smvcore/node"
)

var infix = map[node.Kind]string{
	node.And: "&", node.Or: "|", node.Xor: "xor", node.Xnor: "xnor",
	node.Iff: "<->", node.Implies: "->", node.Equal: "=", node.NotEqual: "!=",
	node.Lt: "<", node.Le: "<=", node.Gt: ">", node.Ge: ">=",
	node.Plus: "+", node.Minus: "-", node.Times: "*", node.Divide: "/",
	node.Mod: "mod", node.Union: "union", node.Setin: "in",
	node.Until: "U", node.Releases: "V", node.Since: "S", node.Triggered: "T",
}

var unaryPrefix = map[node.Kind]string{
	node.Not: "!", node.UnaryMinus: "-",
	node.EX: "EX", node.EG: "EG", node.EF: "EF",
	node.AX: "AX", node.AG: "AG", node.AF: "AF",
}

// renderExpr renders a flattened sexp back to NuSMV surface syntax. Every
// subexpression is parenthesized; the goal is an unambiguous dump rather
// than a minimally-parenthesized one a human would hand-write.
func (r *Renderer) renderExpr(id node.ID) string {
	pool := r.pool
	switch tag := pool.Tag(id); tag {
	case node.True:
		return "TRUE"
	case node.False:
		return "FALSE"
	case node.Number, node.Atom, node.Dot, node.Array, node.Bit, node.Self:
		return r.st.Render(id)

	case node.Context:
		return r.renderExpr(pool.Cdr(id))

	case node.Next:
		return fmt.Sprintf("next(%s)", r.renderExpr(pool.Car(id)))
	case node.SmallInit:
		return fmt.Sprintf("init(%s)", r.renderExpr(pool.Car(id)))

	case node.Eqdef:
		return fmt.Sprintf("%s := %s", r.renderExpr(pool.Car(id)), r.renderExpr(pool.Cdr(id)))

	case node.Twodots:
		return fmt.Sprintf("%s..%s", r.renderExpr(pool.Car(id)), r.renderExpr(pool.Cdr(id)))

	case node.Case:
		return r.renderCase(id)
	case node.Colon:
		return fmt.Sprintf("%s: %s", r.renderExpr(pool.Car(id)), r.renderExpr(pool.Cdr(id)))

	case node.EU:
		return fmt.Sprintf("E[%s U %s]", r.renderExpr(pool.Car(id)), r.renderExpr(pool.Cdr(id)))
	case node.AU:
		return fmt.Sprintf("A[%s U %s]", r.renderExpr(pool.Car(id)), r.renderExpr(pool.Cdr(id)))

	default:
		if op, ok := unaryPrefix[tag]; ok {
			return r.renderUnaryTemporal(tag, op, id)
		}
		if op, ok := infix[tag]; ok {
			return fmt.Sprintf("(%s %s %s)", r.renderExpr(pool.Car(id)), op, r.renderExpr(pool.Cdr(id)))
		}
		return fmt.Sprintf("<node %d>", id)
	}
}

// renderUnaryTemporal handles NOT/UNARYMINUS and the six unary bounded or
// unbounded temporal operators: EF lo..hi p is TWODOTS(lo,hi) in the left
// child and p in the right child (see package wff); an unbounded operator
// has p as its sole (left) child.
func (r *Renderer) renderUnaryTemporal(tag node.Kind, op string, id node.ID) string {
	pool := r.pool
	l, rhs := pool.Car(id), pool.Cdr(id)
	if tag == node.Not || tag == node.UnaryMinus {
		return fmt.Sprintf("%s%s", op, r.renderExpr(l))
	}
	if pool.Tag(l) == node.Twodots {
		return fmt.Sprintf("%s %s %s", op, r.renderExpr(l), r.renderExpr(rhs))
	}
	return fmt.Sprintf("%s %s", op, r.renderExpr(l))
}

// renderCase walks a CASE(COLON(cond,then), rest) chain, where rest is
// either another CASE node (the next branch) or the trailing default.
func (r *Renderer) renderCase(id node.ID) string {
	pool := r.pool
	var branches []string
	for pool.Tag(id) == node.Case {
		colon := pool.Car(id)
		branches = append(branches, fmt.Sprintf("%s : %s;", r.renderExpr(pool.Car(colon)), r.renderExpr(pool.Cdr(colon))))
		id = pool.Cdr(id)
	}
	branches = append(branches, fmt.Sprintf("TRUE : %s;", r.renderExpr(id)))
	out := "CASE "
	for _, br := range branches {
		out += br + " "
	}
	return out + "ESAC"
}
