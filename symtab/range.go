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

// Range describes the domain of a scalar variable: either the shared
// boolean range {0,1} or an ordered list of distinct interned constants.
// Two Ranges with the same Values in the same order are considered the same
// shape by the scalar-boolean encoder's EncCache.
type Range struct {
	Boolean bool
	Values  []node.ID // unused when Boolean is true
}

// BooleanRange is the shared singleton boolean range, matching the data
// model's "special boolean range {0,1} (shared singleton)".
var BooleanRange = Range{Boolean: true}

// Len returns the cardinality of the range.
func (r Range) Len() int {
	if r.Boolean {
		return 2
	}
	return len(r.Values)
}

// Singleton reports whether the range has exactly one value, the condition
// under which invariant 3 requires the variable be downgraded to a
// Constant define instead of being declared as a variable.
func (r Range) Singleton() bool {
	return !r.Boolean && len(r.Values) == 1
}

// Contains reports whether v is a member of the range, used to check
// RangeOutOfDomain for constant assignments.
func (r Range) Contains(pool *node.Pool, v node.ID) bool {
	if r.Boolean {
		return v == pool.True() || v == pool.False()
	}
	for _, c := range r.Values {
		if c == v {
			return true
		}
	}
	return false
}

// Signature returns a comparable key identifying the range's shape
// (ordered sequence of constant IDs, or the boolean sentinel), used by the
// scalar encoder's EncCache to share encoding-tree shapes between variables
// whose ranges happen to coincide.
func (r Range) Signature() string {
	if r.Boolean {
		return "bool"
	}
	b := make([]byte, 0, 4*len(r.Values))
	for _, v := range r.Values {
		b = appendVarint(b, int64(v))
	}
	return string(b)
}

func appendVarint(b []byte, n int64) []byte {
	u := uint64(n)
	for u >= 0x80 {
		b = append(b, byte(u)|0x80)
		u >>= 7
	}
	return append(b, byte(u))
}
