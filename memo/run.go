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
	"context"

	"github.com/recoules/dune/internal/task"
)

// Run is an opaque run number: a monotonically increasing counter bumped
// by every Reset (spec's run boundary).
type Run int64

// currentRunFunc backs CurrentRun: a single shared Func, interned per-Engine
// the same way any other memoized function is, whose cell Reset always
// invalidates regardless of what Invalidation was passed in (see below).
// Its body has no cutoff, so every time it is forced to recompute its
// last_changed_run advances to the new run, which is exactly what makes it
// usable as a dependency edge standing in for "the global run counter."
var currentRunFunc = NewFunc[IntKey, Run]("current_run", func(ctx *Ctx, _ IntKey) Task[Run] {
	return Return(Run(ctx.engine.CurrentRun()))
})

// CurrentRun returns the engine's current Run, recording a dependency edge
// from ctx's cell onto the run counter exactly as any other Exec call would
// (spec §4.1/§4.7's "current_run() -> Task<Run>"). Because the run-counter
// cell's cached value is invalidated on every Reset (see below) and its
// Func carries no cutoff, a cell that calls CurrentRun depends on the run
// counter and re-restores every run; with its own cutoff it may still
// return the cached value, leaving higher-level dependents untouched
// (spec.md's "global run itself is a dep" note, §4.5).
func CurrentRun(ctx *Ctx) Task[Run] {
	return Exec(ctx, currentRunFunc, IntKey(0))
}

// invalidateFuncCells zeroes last_validated_run for every existing cell of
// the named function, without discarding the cells themselves.
func invalidateFuncCells(e *Engine, name string) {
	st, ok := e.stores[name]
	if !ok {
		return
	}
	for _, bucket := range st.buckets {
		for _, c := range bucket {
			c.lastValidatedRun = 0
		}
	}
}

// Reset applies inv and advances the engine to a new run: every cell is
// once again Unvisited for the new run number, the invalidated cells (or
// functions, or everything, per inv) lose their cached validity, and the
// cycle detector's graph is cleared (spec §4.4/§4.5).
func (e *Engine) Reset(inv Invalidation) Run {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.currentRun++
	e.cycles.Reset()
	e.perf = PerfCounters{}
	e.logf("reset -> run %d", e.currentRun)

	if inv.clearAll {
		e.stores = make(map[string]*cellStore)
		e.cellsByID = make(map[int64]*Cell)
		return Run(e.currentRun)
	}

	// The run counter itself changes on every Reset, so its cell is always
	// invalidated here, independent of whatever Invalidation the caller
	// passed in (see CurrentRun's doc comment).
	invalidateFuncCells(e, currentRunFunc.name)

	for name := range inv.fns {
		invalidateFuncCells(e, name)
	}
	for _, c := range inv.cells {
		c.lastValidatedRun = 0
	}
	return Run(e.currentRun)
}

// RunWith drives a top-level task to completion against ctx's engine,
// returning the body's value or error (spec's run(Task<T>) -> T entry
// point into the cooperative task runtime).
func RunWith[T any](ctx context.Context, e *Engine, t func(ctx *Ctx) task.Task[T]) (T, error) {
	return task.Run(ctx, t(e.Root()))
}
