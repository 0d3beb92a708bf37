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

// Command smvc is the standalone driver for the compilation pipeline: it
// decodes a gob-encoded module hierarchy (parsing a surface syntax file is
// out of this module's scope; a separate tool is expected to produce this
// bundle), flattens it starting from the named root module/instance, and
// prints either the flattened surface-syntax dump, the Tseitin CNF of the
// booleanised model, or both, mirroring the shape of the teacher's own
// cmd/nilaway/main.go: flags registered against a Config, a single run
// that returns an error, and a thin main that only handles exit codes.
package main

import (
	"bufio"
	"encoding/gob"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-smv/smvcore/bexp"
	"github.com/go-smv/smvcore/cnf"
	"github.com/go-smv/smvcore/config"
	"github.com/go-smv/smvcore/dump"
	"github.com/go-smv/smvcore/flatten"
	"github.com/go-smv/smvcore/fsm"
	"github.com/go-smv/smvcore/node"
	"github.com/go-smv/smvcore/rbc"
	"github.com/go-smv/smvcore/symtab"
	"github.com/go-smv/smvcore/wff"
)

func init() {
	gob.Register(flatten.VarBlock{})
	gob.Register(flatten.ConstraintBlock{})
	gob.Register(flatten.SpecBlock{})
	gob.Register(flatten.AssignBlock{})
	gob.Register(flatten.DefineBlock{})
	gob.Register(flatten.IsaBlock{})
}

// bundle is the on-disk shape a separate parsing tool is expected to
// produce: an interned node pool plus the module hierarchy it refers into,
// and the root module/instance name to flatten from.
type bundle struct {
	Pool     *node.Pool
	Program  *flatten.Program
	Root     string
	Instance string
}

func main() {
	cfg := config.Default()
	cfg.RegisterFlags(flag.CommandLine)
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] <bundle.gob>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	if err := run(cfg, flag.Arg(0), os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run executes the whole pipeline against the bundle at path, writing the
// requested output to out and any warnings to errw. It is split out from
// main so tests can drive it without touching process exit codes.
func run(cfg *config.Config, path string, out, errw *os.File) error {
	b, err := loadBundle(path)
	if err != nil {
		return fmt.Errorf("load bundle: %w", err)
	}

	st := symtab.New(b.Pool)
	fl := flatten.New(b.Pool, st, b.Program)

	fm, err := fl.FlattenHierarchy(b.Root, b.Instance, nil)
	if err != nil {
		return fmt.Errorf("flatten %s: %w", b.Root, err)
	}
	for _, w := range fl.Warnings {
		fmt.Fprintln(errw, "warning:", w)
	}

	if err := checkWellFormed(b.Pool, fm); err != nil {
		return fmt.Errorf("well-formedness check: %w", err)
	}

	if cfg.VarOrderFile != "" {
		lines, err := readLines(cfg.VarOrderFile)
		if err != nil {
			return fmt.Errorf("read var-order file: %w", err)
		}
		warnings, err := st.SortBoolVars(lines)
		if err != nil {
			return fmt.Errorf("sort bool vars: %w", err)
		}
		for _, w := range warnings {
			fmt.Fprintln(errw, "warning:", w)
		}
	}

	switch cfg.Output {
	case config.OutputFlat:
		return renderFlat(st, fm, out, errw)
	case config.OutputCNF:
		return renderCNF(cfg, st, fm, out)
	case config.OutputBoth:
		if err := renderFlat(st, fm, out, errw); err != nil {
			return err
		}
		fmt.Fprintln(out)
		return renderCNF(cfg, st, fm, out)
	default:
		return fmt.Errorf("unknown output format %q", cfg.Output)
	}
}

func loadBundle(path string) (*bundle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var b bundle
	if err := gob.NewDecoder(bufio.NewReader(f)).Decode(&b); err != nil {
		return nil, err
	}
	if b.Pool == nil || b.Program == nil {
		return nil, fmt.Errorf("bundle missing pool or program")
	}
	return &b, nil
}

func readLines(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return strings.Split(string(data), "\n"), nil
}

// checkWellFormed runs the temporal-context/bounded-range well-formedness
// pass (package wff) over every constraint and property fm carries, before
// anything is rendered or booleanised: INIT/INVAR/TRANS/ASSIGN bodies may
// not contain a temporal operator, and SPEC/LTLSPEC/INVARSPEC/COMPUTE/
// JUSTICE/COMPASSION bodies may, but any bounded operator's range must not
// be empty or reversed. PSLSPEC is skipped, since this module interprets
// no PSL semantics at all (see package dump).
func checkWellFormed(pool *node.Pool, fm *flatten.FlatModel) error {
	c := wff.New(pool)

	for _, kind := range []fsm.FragmentKind{fsm.FragInit, fsm.FragInvar, fsm.FragTrans} {
		if err := c.CheckConstraint(fm.FSM.Formula(kind)); err != nil {
			return err
		}
	}
	if err := c.CheckConstraint(fm.Assign); err != nil {
		return err
	}

	for _, group := range [][]node.ID{
		fm.Spec, fm.Ltlspec, fm.Invarspec, fm.Compute, fm.Justice, fm.Compassion,
	} {
		for _, expr := range group {
			if err := c.CheckSpec(expr); err != nil {
				return err
			}
		}
	}
	return nil
}

func renderFlat(st *symtab.SymbolTable, fm *flatten.FlatModel, out, errw *os.File) error {
	r := dump.New(st.Pool(), st)
	text, warnings := r.RenderModule("main", fm)
	for _, w := range warnings {
		fmt.Fprintln(errw, "warning:", w)
	}
	_, err := fmt.Fprint(out, text)
	return err
}

// renderCNF booleanises every INIT/INVAR/TRANS fragment of fm's FSM and
// prints the resulting CNF in a DIMACS-like line format: a "c root" line
// with the root literal (or "const"), a "c vars" line listing every
// original variable on one line, the "p cnf" header, then one clause per
// line.
func renderCNF(cfg *config.Config, st *symtab.SymbolTable, fm *flatten.FlatModel, out *os.File) error {
	// bexp.Converter.indexOf hands out current-state indices from 0 and
	// NEXT-state indices from nextBase=capacity/2 up; since every boolean
	// state/input variable can appear in both a current and a NEXT(x) form
	// across INIT/INVAR/TRANS, each band needs room for all of them, so
	// capacity must be at least 2*n, not n+1 — otherwise a current-state
	// index above n/2 would land in the NEXT band and collide with an
	// actual NEXT(x) index.
	n := len(st.BoolStateVars()) + len(st.BoolInputVars())
	capacity := 2*n + 1
	rm := rbc.NewManager()
	conv := bexp.NewConverter(st.Pool(), st, rm, capacity, cfg.AllowNondet)

	init, err := fm.FSM.ToRBC(fsm.FragInit, conv)
	if err != nil {
		return fmt.Errorf("booleanise INIT: %w", err)
	}
	invar, err := fm.FSM.ToRBC(fsm.FragInvar, conv)
	if err != nil {
		return fmt.Errorf("booleanise INVAR: %w", err)
	}
	trans, err := fm.FSM.ToRBC(fsm.FragTrans, conv)
	if err != nil {
		return fmt.Errorf("booleanise TRANS: %w", err)
	}

	root := rm.And(rm.And(init, invar, rbc.Positive), trans, rbc.Positive)

	tr := cnf.NewTranslator(rm)
	clauses, vars, rootLiteral, maxVar := tr.ToCNF(root)

	fmt.Fprintf(out, "c root %s\n", rootLiteralString(rootLiteral))
	fmt.Fprintf(out, "c vars %s\n", joinInts(vars))
	fmt.Fprintf(out, "p cnf %d %d\n", maxVar, len(clauses))
	for _, c := range clauses {
		fmt.Fprintln(out, clauseString(c))
	}
	return nil
}

func rootLiteralString(l int) string {
	if l == cnf.RootConstant {
		return "const"
	}
	return strconv.Itoa(l)
}

func joinInts(vs []int) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, " ")
}

func clauseString(c cnf.Clause) string {
	parts := make([]string, len(c)+1)
	for i, lit := range c {
		parts[i] = strconv.Itoa(lit)
	}
	parts[len(c)] = "0"
	return strings.Join(parts, " ")
}
