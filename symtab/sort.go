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

import (
	"fmt"
	"strings"

	"github.com/go-smv/smvcore/node"
)

// SortBoolVars reorders the boolean state/input variable lists (and their
// groups) according to an external ordering file, one qualified name per
// non-comment line ("--" or "#" prefix). It implements the four rules of
// the specification:
//
//  1. unknown names warn and are skipped;
//  2. a line naming a scalar variable contributes all of its not-yet-placed
//     bits, which stay in one group iff none of that scalar's bits appeared
//     explicitly elsewhere in the file;
//  3. bits never mentioned are appended in their original declaration
//     order, with a warning listing them;
//  4. determinisation witnesses are always appended last to the input list,
//     without warning.
func (st *SymbolTable) SortBoolVars(lines []string) ([]string, error) {
	g := st.Groups()

	determSet := make(map[node.ID]bool, len(st.determVars))
	for _, d := range st.determVars {
		determSet[d] = true
	}

	// The original declaration order of every plain boolean name, scalar
	// bit, or other entry point we might need to append back as "missing".
	// Determinisation witnesses are excluded; rule 4 handles them
	// separately.
	origAll := make([]node.ID, 0, len(st.boolStateVars)+len(st.boolInputVars))
	for _, v := range st.boolStateVars {
		if !determSet[v] {
			origAll = append(origAll, v)
		}
	}
	for _, v := range st.boolInputVars {
		if !determSet[v] {
			origAll = append(origAll, v)
		}
	}

	nameIndex := make(map[string]node.ID, len(origAll))
	for _, v := range origAll {
		nameIndex[st.Render(v)] = v
	}
	scalarIndex := make(map[string]node.ID)
	for scalar := range g.bitsOf {
		scalarIndex[st.Render(scalar)] = scalar
	}

	// Pre-scan: does any bit of a given scalar appear explicitly (by its
	// own BIT(...) name) anywhere in the file? This governs whether rule 2
	// keeps the scalar's not-yet-placed bits in a single group.
	explicitBit := make(map[node.ID]bool)
	for _, raw := range lines {
		line := cleanLine(raw)
		if line == "" {
			continue
		}
		if id, ok := nameIndex[line]; ok {
			if scalar, ok2 := g.scalarOf[id]; ok2 {
				explicitBit[scalar] = true
			}
		}
	}

	var warnings []string
	seen := make(map[node.ID]bool, len(origAll))
	var ordered []node.ID

	for _, raw := range lines {
		line := cleanLine(raw)
		if line == "" {
			continue
		}
		if id, ok := nameIndex[line]; ok {
			if seen[id] {
				continue
			}
			seen[id] = true
			ordered = append(ordered, id)
			if _, isBit := g.scalarOf[id]; isBit {
				g.Split(id)
			}
			continue
		}
		if scalar, ok := scalarIndex[line]; ok {
			bits := g.bitsOf[scalar]
			var fresh []node.ID
			for _, b := range bits {
				if seen[b] {
					continue
				}
				seen[b] = true
				ordered = append(ordered, b)
				fresh = append(fresh, b)
			}
			if !explicitBit[scalar] && len(fresh) > 0 {
				g.Add(fresh...)
			} else {
				for _, b := range fresh {
					g.Split(b)
				}
			}
			continue
		}
		warnings = append(warnings, fmt.Sprintf("NotDeclaredWarning: %q is not a declared variable", line))
	}

	var missing []string
	for _, id := range origAll {
		if seen[id] {
			continue
		}
		seen[id] = true
		ordered = append(ordered, id)
		missing = append(missing, st.Render(id))
	}
	if len(missing) > 0 {
		warnings = append(warnings, fmt.Sprintf("MissingVarsWarning: bits missing from ordering file, appended in declaration order: %s", strings.Join(missing, ", ")))
	}

	var newState, newInput []node.ID
	for _, id := range ordered {
		if st.IsStateVar(id) {
			newState = append(newState, id)
		} else {
			newInput = append(newInput, id)
		}
	}
	st.boolStateVars = newState
	st.boolInputVars = append(newInput, st.determVars...)

	return warnings, nil
}

func cleanLine(raw string) string {
	line := strings.TrimSpace(raw)
	if strings.HasPrefix(line, "--") || strings.HasPrefix(line, "#") {
		return ""
	}
	return line
}
