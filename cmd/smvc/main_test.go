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

package main

import (
	"bufio"
	"encoding/gob"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-smv/smvcore/compileerr"
	"github.com/go-smv/smvcore/config"
	"github.com/go-smv/smvcore/flatten"
	"github.com/go-smv/smvcore/node"
	"github.com/stretchr/testify/require"
)

// writeBundle builds a one-module toggling-bit hierarchy (VAR x : boolean;
// ASSIGN init(x):=0; next(x):=!x;) and gob-encodes it to dir/bundle.gob,
// mirroring the shape a separate parsing tool would hand to smvc.
func writeBundle(t *testing.T, dir string) string {
	t.Helper()

	pool := node.NewPool()
	x := pool.Atom("x")
	main := &flatten.Module{
		Name: "main",
		Decls: []flatten.Decl{
			flatten.VarBlock{Fields: []flatten.VarField{{Name: x, Spec: flatten.VarSpec{Kind: flatten.KindBoolean}}}},
			flatten.AssignBlock{Target: pool.SmallInit(x), Expr: pool.False()},
			flatten.AssignBlock{Target: pool.Next(x), Expr: pool.Unary(node.Not, x)},
		},
	}
	prog := &flatten.Program{Modules: map[string]*flatten.Module{"main": main}}

	b := bundle{Pool: pool, Program: prog, Root: "main", Instance: "main"}

	path := filepath.Join(dir, "bundle.gob")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	w := bufio.NewWriter(f)
	require.NoError(t, gob.NewEncoder(w).Encode(&b))
	require.NoError(t, w.Flush())
	return path
}

func TestRunFlatOutput(t *testing.T) {
	dir := t.TempDir()
	path := writeBundle(t, dir)

	outPath := filepath.Join(dir, "out.txt")
	errPath := filepath.Join(dir, "err.txt")
	out, err := os.Create(outPath)
	require.NoError(t, err)
	errw, err := os.Create(errPath)
	require.NoError(t, err)

	cfg := config.Default()
	cfg.Output = config.OutputFlat
	require.NoError(t, run(cfg, path, out, errw))
	require.NoError(t, out.Close())
	require.NoError(t, errw.Close())

	text, err := os.ReadFile(outPath)
	require.NoError(t, err)
	require.Contains(t, string(text), "MODULE main")
	require.Contains(t, string(text), ": boolean;")
}

func TestRunCNFOutput(t *testing.T) {
	dir := t.TempDir()
	path := writeBundle(t, dir)

	outPath := filepath.Join(dir, "out.cnf")
	out, err := os.Create(outPath)
	require.NoError(t, err)

	cfg := config.Default()
	cfg.Output = config.OutputCNF
	require.NoError(t, run(cfg, path, out, os.Stderr))
	require.NoError(t, out.Close())

	text, err := os.ReadFile(outPath)
	require.NoError(t, err)
	require.Contains(t, string(text), "p cnf")
}

// TestRunRejectsInvalidSubrange checks that run() actually invokes the
// well-formedness pass: a SPEC whose bounded temporal operator has a
// reversed lo..hi range must fail the well-formedness check run() makes
// after flattening, not compile clean.
func TestRunRejectsInvalidSubrange(t *testing.T) {
	dir := t.TempDir()

	pool := node.NewPool()
	x := pool.Atom("x")
	bound := pool.Binary(node.Twodots, pool.Number(1), pool.Number(-1))
	badSpec := pool.Binary(node.EF, bound, x)

	main := &flatten.Module{
		Name: "main",
		Decls: []flatten.Decl{
			flatten.VarBlock{Fields: []flatten.VarField{{Name: x, Spec: flatten.VarSpec{Kind: flatten.KindBoolean}}}},
			flatten.SpecBlock{Tag: node.Spec, Expr: badSpec},
		},
	}
	prog := &flatten.Program{Modules: map[string]*flatten.Module{"main": main}}
	b := bundle{Pool: pool, Program: prog, Root: "main", Instance: "main"}

	path := filepath.Join(dir, "bundle.gob")
	f, err := os.Create(path)
	require.NoError(t, err)
	w := bufio.NewWriter(f)
	require.NoError(t, gob.NewEncoder(w).Encode(&b))
	require.NoError(t, w.Flush())
	require.NoError(t, f.Close())

	cfg := config.Default()
	err = run(cfg, path, os.Stdout, os.Stderr)
	require.Error(t, err)
	require.True(t, compileerr.Is(err, compileerr.InvalidSubrange))
}

func TestRunRejectsMissingBundle(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	err := run(cfg, filepath.Join(dir, "missing.gob"), os.Stdout, os.Stderr)
	require.Error(t, err)
}
