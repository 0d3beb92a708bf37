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

import (
	"bytes"
	"encoding/gob"
)

// gobEntry is entry's exported mirror: gob only encodes exported fields, so
// Pool's own entry slice (deliberately kept unexported everywhere else)
// cannot be handed to gob directly.
type gobEntry struct {
	Tag   Kind
	Left  ID
	Right ID
	Str   string
	Num   int64
}

// GobEncode serializes the pool's interned entries, letting a compiled
// FlatModel travel across compiler invocations (model caching) the way the
// teacher's inference package gob-encodes its own InferredMap.
func (p *Pool) GobEncode() ([]byte, error) {
	entries := make([]gobEntry, len(p.entries))
	for i, e := range p.entries {
		entries[i] = gobEntry{Tag: e.tag, Left: e.left, Right: e.right, Str: e.str, Num: e.num}
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(entries); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GobDecode rebuilds the pool from a GobEncode payload, reconstructing the
// structural index and string-interning table rather than serializing them
// directly: both are pure functions of the entry slice, and rebuilding them
// keeps a decoded pool's interning behaviour identical to a freshly built
// one (a later Atom/Dot/... call will hash-cons into the same entries
// instead of accidentally duplicating them).
func (p *Pool) GobDecode(data []byte) error {
	var entries []gobEntry
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&entries); err != nil {
		return err
	}
	p.entries = make([]entry, len(entries))
	p.index = make(map[key]ID, len(entries))
	p.strs = make(map[string]string, len(entries))
	for i, g := range entries {
		str := p.internStr(g.Str)
		p.entries[i] = entry{tag: g.Tag, left: g.Left, right: g.Right, str: str, num: g.Num}
		if i == 0 {
			continue // entries[0] is the unused sentinel, never indexed
		}
		k := key{tag: g.Tag, left: g.Left, right: g.Right, str: str, num: g.Num}
		p.index[k] = ID(i)
	}
	return nil
}
