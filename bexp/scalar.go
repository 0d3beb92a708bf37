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

package bexp

import (
	"github.com/dalzilio/rudd"

	"github.com/go-smv/smvcore/compileerr"
	"github.com/go-smv/smvcore/node"
	"github.com/go-smv/smvcore/rbc"
	"github.com/go-smv/smvcore/symtab"
)

// scalarInfo reports whether expr names a scalar variable the encoder has
// already built a decoding tree for, and if so its tree and range.
func (c *Converter) scalarInfo(expr node.ID) (tree node.ID, rng symtab.Range, ok bool) {
	switch c.pool.Tag(expr) {
	case node.Atom, node.Dot, node.Array:
		t, has := c.st.EncodingTreeOf(expr)
		if !has {
			return node.Nil, symtab.Range{}, false
		}
		r, _ := c.st.RangeOf(expr)
		return t, r, true
	default:
		return node.Nil, symtab.Range{}, false
	}
}

func numOf(pool *node.Pool, id node.ID) (int64, bool) {
	if pool.Tag(id) == node.Number {
		return pool.Num(id), true
	}
	return 0, false
}

// decodeCompare walks a scalar variable's decoding tree (built by package
// encode), evaluating test at each leaf and combining results with the
// tree's own BIT conditions via Ite, exactly mirroring the recursive
// structure the tree was built with. It is the shared engine behind both
// EQUAL/NOTEQUAL (test is "leaf == value") and LT/LE/GT/GE (test is a
// numeric comparison against a fixed operand), matching compileBEval.c's
// role of folding a scalar predicate down to its boolean encoding.
func (c *Converter) decodeCompare(tree node.ID, test func(leaf node.ID) bool, inNext bool) (rbc.Lit, error) {
	if c.pool.Tag(tree) != node.Case {
		if test(tree) {
			return rbc.One(), nil
		}
		return rbc.Zero(), nil
	}
	colon := c.pool.Car(tree)
	els := c.pool.Cdr(tree)
	bitAtom := c.pool.Car(colon)
	then := c.pool.Cdr(colon)

	cond, err := c.Convert(bitAtom, inNext)
	if err != nil {
		return rbc.Lit{}, err
	}
	thenLit, err := c.decodeCompare(then, test, inNext)
	if err != nil {
		return rbc.Lit{}, err
	}
	elseLit, err := c.decodeCompare(els, test, inNext)
	if err != nil {
		return rbc.Lit{}, err
	}
	return c.rm.Ite(cond, thenLit, elseLit, rbc.Positive), nil
}

func (c *Converter) decodeEquals(tree, value node.ID, inNext bool) (rbc.Lit, error) {
	return c.decodeCompare(tree, func(leaf node.ID) bool { return leaf == value }, inNext)
}

// scalarEqual lowers EQUAL(lhs,rhs) to a boolean literal. Exactly one of
// lhs/rhs being a registered scalar variable is the common "v = const" (or
// "const = v") case; both being scalar variables falls back to iterating
// their shared range values; neither being a scalar variable means both
// sides are ordinary boolean-valued expressions, for which equality is
// IFF.
func (c *Converter) scalarEqual(lhs, rhs node.ID, inNext bool) (rbc.Lit, error) {
	lTree, lRng, lIsVar := c.scalarInfo(lhs)
	rTree, rRng, rIsVar := c.scalarInfo(rhs)

	switch {
	case lIsVar && !rIsVar:
		return c.decodeEquals(lTree, rhs, inNext)
	case rIsVar && !lIsVar:
		return c.decodeEquals(rTree, lhs, inNext)
	case lIsVar && rIsVar:
		shared := make(map[node.ID]bool, len(lRng.Values))
		for _, v := range lRng.Values {
			shared[v] = true
		}
		acc := rbc.Zero()
		for _, v := range rRng.Values {
			if !shared[v] {
				continue
			}
			lp, err := c.decodeEquals(lTree, v, inNext)
			if err != nil {
				return rbc.Lit{}, err
			}
			rp, err := c.decodeEquals(rTree, v, inNext)
			if err != nil {
				return rbc.Lit{}, err
			}
			acc = c.rm.Or(acc, c.rm.And(lp, rp, rbc.Positive), rbc.Positive)
		}
		return acc, nil
	default:
		a, err := c.Convert(lhs, inNext)
		if err != nil {
			return rbc.Lit{}, err
		}
		b, err := c.Convert(rhs, inNext)
		if err != nil {
			return rbc.Lit{}, err
		}
		return c.rm.Iff(a, b, rbc.Positive), nil
	}
}

// scalarCompare lowers LT/LE/GT/GE over integer-valued scalar operands,
// reusing decodeCompare with a numeric relation instead of an equality
// test. Non-numeric operands (symbolic enumerations on either side of an
// ordering comparison) are a TypeError: ordering is only meaningful over
// the integer ranges produced by a `lo..hi` VAR declaration.
func (c *Converter) scalarCompare(tag node.Kind, lhs, rhs node.ID, inNext bool) (rbc.Lit, error) {
	rel := func(a, b int64) bool {
		switch tag {
		case node.Lt:
			return a < b
		case node.Le:
			return a <= b
		case node.Gt:
			return a > b
		default:
			return a >= b
		}
	}

	lTree, lRng, lIsVar := c.scalarInfo(lhs)
	rTree, rRng, rIsVar := c.scalarInfo(rhs)

	switch {
	case lIsVar && rIsVar:
		acc := rbc.Zero()
		for _, a := range lRng.Values {
			an, ok := numOf(c.pool, a)
			if !ok {
				continue
			}
			for _, b := range rRng.Values {
				bn, ok := numOf(c.pool, b)
				if !ok || !rel(an, bn) {
					continue
				}
				la, err := c.decodeEquals(lTree, a, inNext)
				if err != nil {
					return rbc.Lit{}, err
				}
				lb, err := c.decodeEquals(rTree, b, inNext)
				if err != nil {
					return rbc.Lit{}, err
				}
				acc = c.rm.Or(acc, c.rm.And(la, lb, rbc.Positive), rbc.Positive)
			}
		}
		return acc, nil
	case lIsVar:
		bn, ok := numOf(c.pool, rhs)
		if !ok {
			return rbc.Lit{}, compileerr.Newf(compileerr.TypeError, "%s: not an integer operand", c.st.Render(rhs))
		}
		return c.decodeCompare(lTree, func(leaf node.ID) bool {
			n, ok := numOf(c.pool, leaf)
			return ok && rel(n, bn)
		}, inNext)
	case rIsVar:
		an, ok := numOf(c.pool, lhs)
		if !ok {
			return rbc.Lit{}, compileerr.Newf(compileerr.TypeError, "%s: not an integer operand", c.st.Render(lhs))
		}
		return c.decodeCompare(rTree, func(leaf node.ID) bool {
			n, ok := numOf(c.pool, leaf)
			return ok && rel(an, n)
		}, inNext)
	default:
		an, aok := numOf(c.pool, lhs)
		bn, bok := numOf(c.pool, rhs)
		if !aok || !bok {
			return rbc.Lit{}, compileerr.Newf(compileerr.TypeError, "comparison requires integer operands")
		}
		if rel(an, bn) {
			return rbc.One(), nil
		}
		return rbc.Zero(), nil
	}
}

// bddDecodeCompare is decodeCompare's counterpart for the Reduce path: the
// same recursive walk over a scalar variable's decoding tree, built out of
// rudd BDD nodes instead of RBC literals.
func (c *Converter) bddDecodeCompare(tree node.ID, test func(leaf node.ID) bool, inNext bool) (rudd.Node, error) {
	if c.pool.Tag(tree) != node.Case {
		if test(tree) {
			return c.bdd.True(), nil
		}
		return c.bdd.False(), nil
	}
	colon := c.pool.Car(tree)
	els := c.pool.Cdr(tree)
	bitAtom := c.pool.Car(colon)
	then := c.pool.Cdr(colon)

	cond, err := c.toBDD(bitAtom, inNext)
	if err != nil {
		return nil, err
	}
	thenNode, err := c.bddDecodeCompare(then, test, inNext)
	if err != nil {
		return nil, err
	}
	elseNode, err := c.bddDecodeCompare(els, test, inNext)
	if err != nil {
		return nil, err
	}
	return c.bdd.Ite(cond, thenNode, elseNode), nil
}

func (c *Converter) bddDecodeEquals(tree, value node.ID, inNext bool) (rudd.Node, error) {
	return c.bddDecodeCompare(tree, func(leaf node.ID) bool { return leaf == value }, inNext)
}

// bddScalarEqual is scalarEqual's BDD-path counterpart, used by Reduce.
func (c *Converter) bddScalarEqual(lhs, rhs node.ID, inNext bool) (rudd.Node, error) {
	lTree, lRng, lIsVar := c.scalarInfo(lhs)
	rTree, rRng, rIsVar := c.scalarInfo(rhs)

	switch {
	case lIsVar && !rIsVar:
		return c.bddDecodeEquals(lTree, rhs, inNext)
	case rIsVar && !lIsVar:
		return c.bddDecodeEquals(rTree, lhs, inNext)
	case lIsVar && rIsVar:
		shared := make(map[node.ID]bool, len(lRng.Values))
		for _, v := range lRng.Values {
			shared[v] = true
		}
		acc := c.bdd.False()
		for _, v := range rRng.Values {
			if !shared[v] {
				continue
			}
			lp, err := c.bddDecodeEquals(lTree, v, inNext)
			if err != nil {
				return nil, err
			}
			rp, err := c.bddDecodeEquals(rTree, v, inNext)
			if err != nil {
				return nil, err
			}
			acc = c.bdd.Apply(acc, c.bdd.Apply(lp, rp, rudd.OPand), rudd.OPor)
		}
		return acc, nil
	default:
		a, err := c.toBDD(lhs, inNext)
		if err != nil {
			return nil, err
		}
		b, err := c.toBDD(rhs, inNext)
		if err != nil {
			return nil, err
		}
		return c.bdd.Apply(a, b, rudd.OPbiimp), nil
	}
}

// bddScalarCompare is scalarCompare's BDD-path counterpart, used by Reduce.
func (c *Converter) bddScalarCompare(tag node.Kind, lhs, rhs node.ID, inNext bool) (rudd.Node, error) {
	rel := func(a, b int64) bool {
		switch tag {
		case node.Lt:
			return a < b
		case node.Le:
			return a <= b
		case node.Gt:
			return a > b
		default:
			return a >= b
		}
	}

	lTree, lRng, lIsVar := c.scalarInfo(lhs)
	rTree, rRng, rIsVar := c.scalarInfo(rhs)

	switch {
	case lIsVar && rIsVar:
		acc := c.bdd.False()
		for _, a := range lRng.Values {
			an, ok := numOf(c.pool, a)
			if !ok {
				continue
			}
			for _, b := range rRng.Values {
				bn, ok := numOf(c.pool, b)
				if !ok || !rel(an, bn) {
					continue
				}
				la, err := c.bddDecodeEquals(lTree, a, inNext)
				if err != nil {
					return nil, err
				}
				lb, err := c.bddDecodeEquals(rTree, b, inNext)
				if err != nil {
					return nil, err
				}
				acc = c.bdd.Apply(acc, c.bdd.Apply(la, lb, rudd.OPand), rudd.OPor)
			}
		}
		return acc, nil
	case lIsVar:
		bn, ok := numOf(c.pool, rhs)
		if !ok {
			return nil, compileerr.Newf(compileerr.TypeError, "%s: not an integer operand", c.st.Render(rhs))
		}
		return c.bddDecodeCompare(lTree, func(leaf node.ID) bool {
			n, ok := numOf(c.pool, leaf)
			return ok && rel(n, bn)
		}, inNext)
	case rIsVar:
		an, ok := numOf(c.pool, lhs)
		if !ok {
			return nil, compileerr.Newf(compileerr.TypeError, "%s: not an integer operand", c.st.Render(lhs))
		}
		return c.bddDecodeCompare(rTree, func(leaf node.ID) bool {
			n, ok := numOf(c.pool, leaf)
			return ok && rel(an, n)
		}, inNext)
	default:
		an, aok := numOf(c.pool, lhs)
		bn, bok := numOf(c.pool, rhs)
		if !aok || !bok {
			return nil, compileerr.Newf(compileerr.TypeError, "comparison requires integer operands")
		}
		if rel(an, bn) {
			return c.bdd.True(), nil
		}
		return c.bdd.False(), nil
	}
}
