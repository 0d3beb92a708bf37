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

package flatten

import (
	"github.com/go-smv/smvcore/node"
	"github.com/go-smv/smvcore/symtab"
)

const processSelectorName = "_process_selector_"

// applyProcessAxis implements asynchronous composition: with more than one
// PROCESS instance in the model, a fresh input variable chooses which one
// runs on a given step, and every process's own NEXT-assigns are guarded so
// a process that did not run leaves its variables unchanged.
//
// With zero or one process the axis is a no-op: a lone process always runs.
func (fl *Flattener) applyProcessAxis() error {
	procs := fl.model.Procs
	if len(procs) < 2 {
		return nil
	}

	labels := make([]node.ID, len(procs))
	for i, p := range procs {
		label := fl.pool.Atom(p.InstanceName)
		if err := fl.st.DeclareConstant(label); err != nil {
			return err
		}
		labels[i] = label
	}

	selector := fl.pool.Atom(processSelectorName)
	if err := fl.st.DeclareInputVar(selector, symtab.Range{Values: labels}); err != nil {
		return err
	}

	// p.running is declared as a DEFINE so SPEC/INVARSPEC sections can refer
	// to it; the CASE guards below embed the equality directly, since the
	// rewrite runs after flattenSexp and a DEFINE reference would otherwise
	// reach the RBC lowering stage unexpanded.
	guards := make(map[string]node.ID, len(procs))
	for i, p := range procs {
		runningName := fl.pool.Dot(p.NameID, fl.pool.Atom("running"))
		body := fl.pool.Binary(node.Equal, selector, labels[i])
		if err := fl.st.DeclareDefine(runningName, "", body); err != nil {
			return err
		}
		guards[p.InstanceName] = body
	}

	for i, p := range fl.pending {
		if p.process == "" || p.rawTag != node.Next {
			continue
		}
		colon := fl.pool.Binary(node.Colon, guards[p.process], p.rhs)
		fl.pending[i].rhs = fl.pool.Binary(node.Case, colon, p.target)
	}
	return nil
}
