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

package encode

import "github.com/go-smv/smvcore/symtab"

// GroupSet is the variable-bit grouping set a scalar variable's bits are
// registered into (see symtab.Groups), re-exported under the encoder's own
// package so callers thinking in terms of "the encoder's group set" do not
// need to know the type physically lives in symtab: it must, since the
// symbol table is what hands out bit names in the first place and several
// non-encoder callers (the var-order file reader) need to see the same
// groups the encoder built.
type GroupSet = symtab.Groups

// encShape is the cached shape of an encoding tree for a given range
// cardinality: just the bit depth, since the parity-split recursion is a
// pure function of index alone and needs no further memoised state. Two
// scalar variables whose ranges have the same cardinality (e.g. two
// separate "0..3" variables) share the same encShape.
type encShape struct {
	depth int
}

// EncCache memoises encoding-tree shapes by range cardinality, avoiding
// recomputation of the bit-depth arithmetic for every variable that shares
// a range size, matching the role of the original EncCache in the source
// this package is modeled on.
type EncCache struct {
	byCardinality map[int]*encShape
	Hits, Misses  int
}

func newEncCache() *EncCache {
	return &EncCache{byCardinality: make(map[int]*encShape)}
}

func (c *EncCache) shapeFor(n int) *encShape {
	if s, ok := c.byCardinality[n]; ok {
		c.Hits++
		return s
	}
	c.Misses++
	s := &encShape{depth: BitsNeeded(n)}
	c.byCardinality[n] = s
	return s
}
