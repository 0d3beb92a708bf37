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

package node

import "testing"

func TestInternStructuralIdentity(t *testing.T) {
	p := NewPool()

	a1 := p.Atom("x")
	a2 := p.Atom("x")
	if a1 != a2 {
		t.Fatalf("expected structurally identical atoms to share an ID, got %d != %d", a1, a2)
	}

	b1 := p.Binary(And, a1, a1)
	b2 := p.Binary(And, a2, a2)
	if b1 != b2 {
		t.Fatalf("expected and(x,x) built from separately-interned atoms to be the same node")
	}

	other := p.Atom("y")
	b3 := p.Binary(And, a1, other)
	if b3 == b1 {
		t.Fatalf("expected and(x,y) to differ from and(x,x)")
	}
}

func TestInternDistinguishesTagsAndPayloads(t *testing.T) {
	p := NewPool()

	n1 := p.Number(1)
	n2 := p.Number(2)
	if n1 == n2 {
		t.Fatalf("numbers with different payloads must not collide")
	}

	bit0 := p.Bit(p.Atom("y"), 0)
	bit1 := p.Bit(p.Atom("y"), 1)
	if bit0 == bit1 {
		t.Fatalf("BIT(y,0) and BIT(y,1) must be distinct nodes")
	}

	// AND and OR over the same children must not collide even though the
	// shape (two children) is identical.
	x, y := p.Atom("x"), p.Atom("y")
	if p.Binary(And, x, y) == p.Binary(Or, x, y) {
		t.Fatalf("AND(x,y) and OR(x,y) must not collide")
	}
}

func TestAccessors(t *testing.T) {
	p := NewPool()
	x := p.Atom("x")
	nx := p.Unary(Not, x)

	if p.Tag(nx) != Not {
		t.Fatalf("expected NOT tag")
	}
	if p.Car(nx) != x {
		t.Fatalf("expected car(NOT(x)) == x")
	}
	if p.Str(x) != "x" {
		t.Fatalf("expected atom payload 'x', got %q", p.Str(x))
	}
}

func TestNilIsNeverAFreshNode(t *testing.T) {
	p := NewPool()
	if p.True() == Nil {
		t.Fatalf("True() must not collide with Nil")
	}
}
