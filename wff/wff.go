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

// Package wff runs the well-formedness pass over a flattened expression
// before it is handed to the encoder: temporal operators may only appear
// under SPEC/LTLSPEC/INVARSPEC/COMPUTE, and a bounded temporal operator's
// range must not be empty or reversed.
package wff

import (
	"github.com/go-smv/smvcore/compileerr"
	"github.com/go-smv/smvcore/node"
)

// temporalOps is the set of temporal operators. A bounded operator carries
// a TWODOTS(lo,hi) bound as its first child, e.g. EBF lo..hi p is
// represented as EF(TWODOTS(lo,hi), p).
var temporalOps = map[node.Kind]bool{
	node.EX: true, node.EG: true, node.EF: true,
	node.AX: true, node.AG: true, node.AF: true,
	node.EU: true, node.AU: true, node.Until: true,
	node.Releases: true, node.Since: true, node.Triggered: true,
}

// Checker walks an expression tree checking temporal well-formedness.
type Checker struct {
	pool *node.Pool
}

// New constructs a Checker over pool.
func New(pool *node.Pool) *Checker {
	return &Checker{pool: pool}
}

// CheckSpec validates expr as the body of a SPEC/LTLSPEC/INVARSPEC/COMPUTE/
// JUSTICE/COMPASSION section, where temporal operators are permitted.
func (c *Checker) CheckSpec(expr node.ID) error {
	return c.check(expr, true)
}

// CheckConstraint validates expr as the body of a TRANS/INIT/INVAR section
// or an ASSIGN right-hand side, where temporal operators are not permitted.
func (c *Checker) CheckConstraint(expr node.ID) error {
	return c.check(expr, false)
}

func (c *Checker) check(expr node.ID, allowTemporal bool) error {
	pool := c.pool
	tag := pool.Tag(expr)

	if temporalOps[tag] {
		if !allowTemporal {
			return compileerr.Newf(compileerr.TypeError,
				"%s used outside SPEC/LTLSPEC/INVARSPEC/COMPUTE", tag)
		}
		l := pool.Car(expr)
		if pool.Tag(l) == node.Twodots {
			if err := c.checkBound(l); err != nil {
				return err
			}
			// The range bound itself carries no further structure to check;
			// recurse only into the operator's remaining operand below.
		}
	}

	l, r := pool.Car(expr), pool.Cdr(expr)
	if l != node.Nil && pool.Tag(l) != node.Twodots {
		if err := c.check(l, allowTemporal); err != nil {
			return err
		}
	}
	if r != node.Nil {
		if err := c.check(r, allowTemporal); err != nil {
			return err
		}
	}
	return nil
}

func (c *Checker) checkBound(twodots node.ID) error {
	pool := c.pool
	lo := pool.Num(pool.Car(twodots))
	hi := pool.Num(pool.Cdr(twodots))
	if hi < lo || lo < 0 {
		return compileerr.Newf(compileerr.InvalidSubrange, "%d..%d", lo, hi)
	}
	return nil
}
