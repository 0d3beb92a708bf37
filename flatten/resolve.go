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
	"github.com/go-smv/smvcore/compileerr"
	"github.com/go-smv/smvcore/node"
	"github.com/go-smv/smvcore/staticeval"
)

// qualify prepends the active instance context onto a bare name, the way
// every leaf reference gets anchored to the instance that wrote it.
func (fl *Flattener) qualify(name node.ID) node.ID {
	ctx := fl.frame().ctxBase
	if ctx == node.Nil {
		return name
	}
	return fl.pool.Dot(ctx, name)
}

// resolveName evaluates ATOM/DOT/ARRAY/SELF/BIT/NUMBER under the current
// context: a parameter reference substitutes the actual expression bound
// at instantiation time, a bare identifier is qualified by the current
// instance, and DOT/ARRAY recurse into their base.
func (fl *Flattener) resolveName(expr node.ID) (node.ID, error) {
	pool := fl.pool
	switch pool.Tag(expr) {
	case node.Number, node.True, node.False:
		return expr, nil
	case node.Self:
		if fl.frame().ctxBase == node.Nil {
			return expr, nil
		}
		return fl.frame().ctxBase, nil
	case node.Atom:
		if actual, ok := fl.frame().params[expr]; ok {
			return actual, nil
		}
		return fl.qualify(expr), nil
	case node.Dot:
		base, err := fl.resolveName(pool.Car(expr))
		if err != nil {
			return node.Nil, err
		}
		switch pool.Tag(base) {
		case node.Atom, node.Dot, node.Array, node.Self:
			return pool.Dot(base, pool.Cdr(expr)), nil
		default:
			return node.Nil, compileerr.Newf(compileerr.TypeError, "dot applied to a non-base expression")
		}
	case node.Array:
		base, err := fl.resolveName(pool.Car(expr))
		if err != nil {
			return node.Nil, err
		}
		return pool.Array(base, pool.Cdr(expr)), nil
	case node.Bit:
		return expr, nil
	default:
		return node.Nil, compileerr.Newf(compileerr.TypeError, "%s is not a name", pool.Tag(expr))
	}
}

// flattenSexp rebuilds expr bottom-up, resolving every leaf reference and
// expanding define symbols into their own flattened body. A per-name
// in-progress sentinel detects a define that (directly or transitively)
// references itself.
func (fl *Flattener) flattenSexp(expr node.ID) (node.ID, error) {
	pool := fl.pool
	switch pool.Tag(expr) {
	case node.Number, node.True, node.False:
		return expr, nil

	case node.Atom, node.Dot, node.Array, node.Self:
		resolved, err := fl.resolveName(expr)
		if err != nil {
			return node.Nil, err
		}
		if fl.st.IsDefine(resolved) {
			return fl.expandDefine(resolved)
		}
		return resolved, nil

	case node.Next:
		inner, err := fl.flattenSexp(pool.Car(expr))
		if err != nil {
			return node.Nil, err
		}
		// Invariant 5: NEXT may not appear anywhere under another NEXT,
		// including through an expanded define.
		for stack := []node.ID{inner}; len(stack) > 0; {
			n := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if n == node.Nil {
				continue
			}
			if pool.Tag(n) == node.Next {
				return node.Nil, compileerr.Newf(compileerr.TypeError, "nested NEXT")
			}
			stack = append(stack, pool.Car(n), pool.Cdr(n))
		}
		return pool.Next(inner), nil

	case node.SmallInit:
		inner, err := fl.flattenSexp(pool.Car(expr))
		if err != nil {
			return node.Nil, err
		}
		return pool.SmallInit(inner), nil

	case node.Bit:
		return expr, nil

	case node.Case:
		return fl.flattenCase(expr)

	default:
		return fl.flattenStructural(expr)
	}
}

// flattenCase flattens a CASE(COLON(cond,then),else) node and, once cond is
// closed (no free variables, possibly after define expansion), folds away
// the branch statically rather than leaving a redundant ITE for the RBC
// layer to simplify later, matching compileBEval.c's flatten-time role.
func (fl *Flattener) flattenCase(expr node.ID) (node.ID, error) {
	pool := fl.pool
	colon := pool.Car(expr)

	cond, err := fl.flattenSexp(pool.Car(colon))
	if err != nil {
		return node.Nil, err
	}
	then, err := fl.flattenSexp(pool.Cdr(colon))
	if err != nil {
		return node.Nil, err
	}
	els, err := fl.flattenSexp(pool.Cdr(expr))
	if err != nil {
		return node.Nil, err
	}

	switch staticeval.Eval(pool, fl.st, cond) {
	case staticeval.True:
		return then, nil
	case staticeval.False:
		return els, nil
	default:
		return pool.Binary(node.Case, pool.Binary(node.Colon, cond, then), els), nil
	}
}

func (fl *Flattener) flattenStructural(expr node.ID) (node.ID, error) {
	pool := fl.pool
	tag := pool.Tag(expr)
	l, r := pool.Car(expr), pool.Cdr(expr)

	var fl2, fr node.ID
	var err error
	if l != node.Nil {
		fl2, err = fl.flattenSexp(l)
		if err != nil {
			return node.Nil, err
		}
	}
	if r != node.Nil {
		fr, err = fl.flattenSexp(r)
		if err != nil {
			return node.Nil, err
		}
	}
	if l == node.Nil {
		return pool.Unary(tag, fr), nil
	}
	if r == node.Nil {
		return pool.Unary(tag, fl2), nil
	}
	return pool.Binary(tag, fl2, fr), nil
}

// expandDefine substitutes name with the flattened form of its body,
// detecting circular defines via a per-Flattener in-progress set (the
// same sentinel pattern package depend uses for its own, independent,
// memoisation of dependency sets over defines).
func (fl *Flattener) expandDefine(name node.ID) (node.ID, error) {
	if fl.defineInProgress[name] {
		return node.Nil, compileerr.Newf(compileerr.CircularDefine, "%s", fl.st.Render(name))
	}
	fl.defineInProgress[name] = true
	flat, err := fl.st.FlattenedDefine(name, func(body node.ID) (node.ID, error) {
		return fl.flattenSexp(body)
	})
	delete(fl.defineInProgress, name)
	return flat, err
}
