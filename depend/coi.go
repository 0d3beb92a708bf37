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

package depend

import (
	"fmt"

	"github.com/bits-and-blooms/bitset"
)

// DirectDeps supplies, for a variable's dense universe index, the set of
// variables that appear directly in that variable's own INIT/INVAR/TRANS
// fragments. Package fsm implements this interface; it is also responsible
// for folding in the propagation rule ("whenever v has a non-assign
// constraint mentioning w, then w must have v in its COI") into the set it
// returns for w, so that ComputeCOI itself only has to perform the
// fix-point union.
type DirectDeps interface {
	DirectDeps(varIndex uint) *bitset.BitSet
}

// ComputeCOI computes the cone-of-influence closure of seed: the smallest
// superset of seed closed under direct.DirectDeps. The closure is unique
// (a least fixed point of a monotone function over a finite lattice) and is
// reached in at most len(universe) rounds; roundLimit is a development
// safety valve (see config.StableRoundLimit) that should never actually be
// hit.
func ComputeCOI(direct DirectDeps, seed *bitset.BitSet, roundLimit int) (*bitset.BitSet, error) {
	result := seed.Clone()
	for round := 0; round < roundLimit; round++ {
		grew := false
		// Snapshot the members before mutating so we iterate over a stable
		// set for this round; newly added members are picked up next round.
		members := make([]uint, 0, result.Count())
		for i, ok := result.NextSet(0); ok; i, ok = result.NextSet(i + 1) {
			members = append(members, i)
		}
		for _, i := range members {
			before := result.Count()
			result.InPlaceUnion(direct.DirectDeps(i))
			if result.Count() != before {
				grew = true
			}
		}
		if !grew {
			return result, nil
		}
	}
	return result, fmt.Errorf("depend: cone-of-influence did not stabilize within %d rounds", roundLimit)
}

// Monotone reports whether coi(a) is a superset of coi(b) whenever a is a
// superset of b; exposed for property-based tests of the monotonicity
// testable property, not used by the pipeline itself.
func Monotone(direct DirectDeps, a, b *bitset.BitSet, roundLimit int) (bool, error) {
	if !a.IsSuperSet(b) {
		return false, fmt.Errorf("depend: precondition violated, a is not a superset of b")
	}
	coiA, err := ComputeCOI(direct, a, roundLimit)
	if err != nil {
		return false, err
	}
	coiB, err := ComputeCOI(direct, b, roundLimit)
	if err != nil {
		return false, err
	}
	return coiA.IsSuperSet(coiB), nil
}
