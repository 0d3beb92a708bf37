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

// Package staticeval partially evaluates a boolean sexp that happens to be
// closed — built only from constants, defines that expand to constants,
// and EQUAL/NOTEQUAL comparisons between closed scalar leaves — to a
// definite True/False, without requiring a state/input assignment. The
// flattener uses it to fold CASE branch conditions that turn out to be
// trivially true or false once defines are expanded, the same static
// folding compileBEval.c performs during flattening in the source this
// module is modeled on.
package staticeval

import (
	"github.com/go-smv/smvcore/node"
	"github.com/go-smv/smvcore/symtab"
)

// Result is the outcome of evaluating a subexpression: a definite boolean,
// or Unknown when the expression is not closed (it mentions a state/input
// variable or determinisation witness) or is not one of the connectives
// this package interprets.
type Result int

const (
	Unknown Result = iota
	True
	False
)

// Eval evaluates expr, expanding defines as it descends.
func Eval(pool *node.Pool, st *symtab.SymbolTable, expr node.ID) Result {
	switch pool.Tag(expr) {
	case node.True:
		return True
	case node.False:
		return False

	case node.Not:
		return negate(Eval(pool, st, pool.Car(expr)))

	case node.And:
		l, r := Eval(pool, st, pool.Car(expr)), Eval(pool, st, pool.Cdr(expr))
		switch {
		case l == False || r == False:
			return False
		case l == True && r == True:
			return True
		default:
			return Unknown
		}

	case node.Or:
		l, r := Eval(pool, st, pool.Car(expr)), Eval(pool, st, pool.Cdr(expr))
		switch {
		case l == True || r == True:
			return True
		case l == False && r == False:
			return False
		default:
			return Unknown
		}

	case node.Xor, node.Xnor:
		l, r := Eval(pool, st, pool.Car(expr)), Eval(pool, st, pool.Cdr(expr))
		if l == Unknown || r == Unknown {
			return Unknown
		}
		differ := (l == True) != (r == True)
		if pool.Tag(expr) == node.Xnor {
			differ = !differ
		}
		return boolResult(differ)

	case node.Iff:
		l, r := Eval(pool, st, pool.Car(expr)), Eval(pool, st, pool.Cdr(expr))
		if l == Unknown || r == Unknown {
			return Unknown
		}
		return boolResult(l == r)

	case node.Implies:
		l, r := Eval(pool, st, pool.Car(expr)), Eval(pool, st, pool.Cdr(expr))
		switch {
		case l == False || r == True:
			return True
		case l == True && r == False:
			return False
		default:
			return Unknown
		}

	case node.Equal:
		return evalEqual(pool, st, expr, false)
	case node.NotEqual:
		return evalEqual(pool, st, expr, true)

	case node.Atom, node.Dot, node.Array:
		if st.IsDefine(expr) {
			flat, err := st.FlattenedDefine(expr, func(body node.ID) (node.ID, error) { return body, nil })
			if err != nil {
				return Unknown
			}
			return Eval(pool, st, flat)
		}
		return Unknown

	default:
		return Unknown
	}
}

func negate(r Result) Result {
	switch r {
	case True:
		return False
	case False:
		return True
	default:
		return Unknown
	}
}

func boolResult(b bool) Result {
	if b {
		return True
	}
	return False
}

func evalEqual(pool *node.Pool, st *symtab.SymbolTable, expr node.ID, negated bool) Result {
	l := closedValue(pool, st, pool.Car(expr))
	r := closedValue(pool, st, pool.Cdr(expr))
	if l == node.Nil || r == node.Nil {
		return Unknown
	}
	eq := l == r
	if negated {
		eq = !eq
	}
	return boolResult(eq)
}

// closedValue returns expr's value if it reduces, without any state/input
// assignment, to a single interned leaf (a NUMBER, TRUE/FALSE, or a define
// that expands to one); it returns node.Nil ("not closed") for a variable
// reference or anything this package does not interpret.
func closedValue(pool *node.Pool, st *symtab.SymbolTable, expr node.ID) node.ID {
	switch pool.Tag(expr) {
	case node.Number, node.True, node.False:
		return expr
	case node.Atom, node.Dot, node.Array:
		if st.IsDefine(expr) {
			flat, err := st.FlattenedDefine(expr, func(body node.ID) (node.ID, error) { return body, nil })
			if err != nil {
				return node.Nil
			}
			return closedValue(pool, st, flat)
		}
		return node.Nil
	default:
		return node.Nil
	}
}
