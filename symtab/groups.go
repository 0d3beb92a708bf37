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

package symtab

import "github.com/go-smv/smvcore/node"

// Groups tracks which boolean variables (or bits) must stay contiguous
// under dynamic BDD reordering. One group is created per scalar variable's
// bit decomposition by default.
type Groups struct {
	order   [][]node.ID     // groups in creation order
	groupOf map[node.ID]int // var/bit -> index into order

	bitsOf   map[node.ID][]node.ID // scalar var -> its encoding bits, in bit order
	scalarOf map[node.ID]node.ID   // bit -> owning scalar var
}

// NewGroups constructs an empty grouping set.
func NewGroups() *Groups {
	return &Groups{
		groupOf:  make(map[node.ID]int),
		bitsOf:   make(map[node.ID][]node.ID),
		scalarOf: make(map[node.ID]node.ID),
	}
}

// RegisterScalar records that bits is the ordered bit decomposition of the
// scalar variable named scalar, and groups those bits contiguously. Called
// by the scalar-boolean encoder once per encoded variable.
func (g *Groups) RegisterScalar(scalar node.ID, bits []node.ID) {
	g.Add(bits...)
	g.bitsOf[scalar] = append([]node.ID(nil), bits...)
	for _, b := range bits {
		g.scalarOf[b] = scalar
	}
}

// Add registers members as a single new contiguous group. It is an error
// (ignored here, caller's responsibility) to Add a member that is already
// in another group; callers that need to extend a group should use Merge.
func (g *Groups) Add(members ...node.ID) {
	if len(members) == 0 {
		return
	}
	idx := len(g.order)
	g.order = append(g.order, append([]node.ID(nil), members...))
	for _, m := range members {
		g.groupOf[m] = idx
	}
}

// Merge appends extra to the group containing anchor, creating a new group
// if anchor is not yet grouped.
func (g *Groups) Merge(anchor node.ID, extra ...node.ID) {
	idx, ok := g.groupOf[anchor]
	if !ok {
		g.Add(append([]node.ID{anchor}, extra...)...)
		return
	}
	g.order[idx] = append(g.order[idx], extra...)
	for _, m := range extra {
		g.groupOf[m] = idx
	}
}

// Split removes member from whatever group it is in, placing it alone in a
// fresh singleton group. Used when a sort_bool_vars ordering file pulls one
// bit of a scalar variable away from its siblings explicitly.
func (g *Groups) Split(member node.ID) {
	idx, ok := g.groupOf[member]
	if !ok {
		return
	}
	grp := g.order[idx]
	for i, m := range grp {
		if m == member {
			g.order[idx] = append(grp[:i:i], grp[i+1:]...)
			break
		}
	}
	g.Add(member)
}

// GroupOf returns the group containing member, or nil if ungrouped.
func (g *Groups) GroupOf(member node.ID) []node.ID {
	idx, ok := g.groupOf[member]
	if !ok {
		return nil
	}
	return g.order[idx]
}

// All returns every group, in creation order.
func (g *Groups) All() [][]node.ID { return g.order }
