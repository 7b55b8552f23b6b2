// Copyright 2024 The Memo Authors
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

package memo

import "github.com/kr/pretty"

// cellDump is the shape DumpCell renders; kept separate from Cell itself
// so the dump is stable even as Cell's internal fields evolve.
type cellDump struct {
	ID               int64
	Function         string
	Input            any
	LastValidatedRun int64
	LastChangedRun   int64
	DepCount         int
	Kind             resultKind
}

// DumpCell renders a human-readable snapshot of c's bookkeeping fields,
// useful when a test or an interactive debugging session needs to see why
// a cell did or didn't restore.
func (e *Engine) DumpCell(c *Cell) string {
	e.mu.Lock()
	d := cellDump{
		ID:               c.id,
		Function:         c.fnName,
		Input:            c.input,
		LastValidatedRun: c.lastValidatedRun,
		LastChangedRun:   c.lastChangedRun,
		DepCount:         len(c.deps),
		Kind:             c.cached.kind,
	}
	e.mu.Unlock()
	return pretty.Sprint(d)
}
