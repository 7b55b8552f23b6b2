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

import (
	"fmt"
	"strings"
	"sync"
	"text/template"
)

// PerfCounters holds the introspection counters spec §4.7/§6 require:
// how much restore/compute work a run did, and the current size of the
// cycle detector's graph.
//
// Grounded in the teacher's cue/stats.Counts: a plain counter struct with
// a text/template-rendered String() rather than a bespoke formatter.
type PerfCounters struct {
	Restored       int64
	Computed       int64
	TraversedEdges int64
	CycleNodes     int64
	CycleEdges     int64
	CyclePaths     int64
}

var perfTemplate = sync.OnceValue(func() *template.Template {
	return template.Must(template.New("perf").Parse(`{{"" -}}
Restored:       {{.Restored}}
Computed:       {{.Computed}}
TraversedEdges: {{.TraversedEdges}}{{if or .CycleNodes .CycleEdges .CyclePaths}}

CycleNodes: {{.CycleNodes}}
CycleEdges: {{.CycleEdges}}
CyclePaths: {{.CyclePaths}}{{end}}`))
})

func (c PerfCounters) String() string {
	buf := &strings.Builder{}
	if err := perfTemplate().Execute(buf, c); err != nil {
		panic(err)
	}
	return buf.String()
}

// EnablePerf toggles whether restoreCell/computeTyped update e's
// counters. Counting is off by default to avoid paying for bookkeeping
// nobody reads.
func (e *Engine) EnablePerf(enabled bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.perfEnabled = enabled
}

// ResetPerf zeroes e's accumulated Restored/Computed/TraversedEdges
// counters (spec's Perf_counters.reset), independent of EnablePerf's on/off
// state. Engine.Reset zeroes the same counters itself, so
// ReportForCurrentRun reflects only the run just started, not every run
// since EnablePerf(true).
func (e *Engine) ResetPerf() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.perf = PerfCounters{}
}

// ReportForCurrentRun returns a snapshot of e's perf counters as of this
// call (spec's report_for_current_run). It is a snapshot, not a live view:
// later computation does not retroactively change a previously returned
// PerfCounters value.
func (e *Engine) ReportForCurrentRun() PerfCounters {
	e.mu.Lock()
	defer e.mu.Unlock()
	nodes, edges, paths := e.cycles.Counts()
	c := e.perf
	c.CycleNodes = int64(nodes)
	c.CycleEdges = int64(edges)
	c.CyclePaths = int64(paths)
	return c
}

// AssertInvariants walks every cell the engine has ever created and checks
// that no recorded dependency changed in a later run than the cell was last
// validated in, returning the first violation found. It checks no other
// invariant. It is meant for tests and debugging, not for use on a hot path.
func (e *Engine) AssertInvariants() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, st := range e.stores {
		for _, bucket := range st.buckets {
			for _, c := range bucket {
				// A cell with lastValidatedRun == 0 is either never computed
				// (cached.kind == resultUnevaluated) or was explicitly
				// invalidated since its last compute; both are expected
				// transient states, not violations.
				if c.lastValidatedRun == 0 {
					continue
				}
				for _, d := range c.deps {
					if d.dep.lastChangedRun > c.lastValidatedRun {
						return fmt.Errorf("memo: invariant violated for cell %d (%s): dependency %d changed after this cell was last validated", c.id, c.fnName, d.dep.id)
					}
				}
			}
		}
	}
	return nil
}
