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
	"sync"

	"github.com/google/uuid"

	"github.com/recoules/dune/internal/cycledag"
	"github.com/recoules/dune/internal/nodeid"
	"github.com/recoules/dune/internal/task"
)

// Engine owns every cell ever created, the current run number, and the
// per-run cycle detector. All bookkeeping is guarded by a single mutex:
// fork-joined cell bodies run on real goroutines (internal/task), but the
// engine state itself is never concurrently mutated, satisfying spec §6's
// "no shared mutable state is updated from two OS threads at once" the way
// the teacher's single run loop does, without requiring the computation
// itself to be single-threaded. See DESIGN.md's "Concurrency model" entry.
type Engine struct {
	mu sync.Mutex

	id uuid.UUID

	stores    map[string]*cellStore
	cellsByID map[int64]*Cell
	ids       nodeid.Allocator
	stack     nodeid.Stack
	cycles    *cycledag.Graph

	currentRun int64

	perf        PerfCounters
	perfEnabled bool

	// Debug gates log.go's trace output (ambient logging, matching the
	// teacher's log.go: a boolean-gated, always-compiled-in trace rather
	// than a structured logging framework).
	Debug     bool
	logWriter logWriter
	logSeq    int
}

// NewEngine returns a fresh engine positioned at run 1 with no cells.
func NewEngine() *Engine {
	return &Engine{
		stores:     make(map[string]*cellStore),
		cellsByID:  make(map[int64]*Cell),
		cycles:     cycledag.New(),
		currentRun: 1,
		id:         uuid.New(),
	}
}

var defaultEngine = NewEngine()

// Default returns a process-wide shared engine, convenient for programs
// that only ever need a single cache (spec's external-interface surface
// does not mandate a singleton, but most callers want one).
func Default() *Engine { return defaultEngine }

// Ctx is the handle a Func body receives: it carries the engine and the
// calling cell (nil at the top level), and is threaded through every
// nested Exec call so dependency edges can be recorded (spec §4.1's
// "Exec(ctx, f, i)" entrypoint).
type Ctx struct {
	engine *Engine
	cell   *Cell
}

// Engine returns the engine this context belongs to.
func (ctx *Ctx) Engine() *Engine { return ctx.engine }

// Root returns a Ctx with no calling cell, suitable for driving a
// top-level Exec/ReadCell from outside any memoized function body.
func (e *Engine) Root() *Ctx { return &Ctx{engine: e} }

// CurrentRun is the run number this engine is currently evaluating.
func (e *Engine) CurrentRun() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.currentRun
}

// Exec requests f(in) under ctx, recording a dependency edge from ctx's
// cell (if any) to the resulting cell. This is the node engine's primary
// entrypoint (spec §4.1/§4.2).
func Exec[I Key, O any](ctx *Ctx, f *Func[I, O], in I) task.Task[O] {
	return task.FromFunc(func(s *task.Scheduler) (O, error) {
		e := ctx.engine
		c := cellFor(e, f, in)

		v, err := c.resolve(e, s, ctx.cell)

		if ctx.cell != nil {
			e.mu.Lock()
			ctx.cell.deps = append(ctx.cell.deps, depEdge{dep: c, lastChangedAtRecord: c.lastChangedRun})
			e.mu.Unlock()
		}

		var out O
		if err == nil {
			out, _ = v.(O)
		}
		return out, err
	})
}

// CellFor interns and returns the cell for (f, in) without forcing it to
// compute or restore (spec §6's "cell(F, input) -> Cell"). Pair with
// ReadCell to defer the decision of whether, and when, to force evaluation -
// useful for callers that want to hold a stable handle (for GetDeps,
// Invalidate, or DumpCell) before deciding whether they actually need the
// value this run.
func CellFor[I Key, O any](ctx *Ctx, f *Func[I, O], in I) *Cell {
	return cellFor(ctx.engine, f, in)
}

// ReadCell is Exec for callers that already hold a *Cell (e.g. obtained
// from GetDeps, PreviouslyEvaluatedCell, or CellFor) rather than a fresh
// (f, in) pair. Because Cell itself is non-generic, the caller supplies the
// expected output type as the type parameter; a stale or mismatched type
// parameter yields the zero value, matching Go's ordinary type-assertion
// behavior.
func ReadCell[O any](ctx *Ctx, c *Cell) task.Task[O] {
	return task.FromFunc(func(s *task.Scheduler) (O, error) {
		e := ctx.engine
		v, err := c.resolve(e, s, ctx.cell)
		if ctx.cell != nil {
			e.mu.Lock()
			ctx.cell.deps = append(ctx.cell.deps, depEdge{dep: c, lastChangedAtRecord: c.lastChangedRun})
			e.mu.Unlock()
		}
		var out O
		if err == nil {
			out, _ = v.(O)
		}
		return out, err
	})
}

// visitStack tracks the chain of cells currently being restored, purely
// within the scope of a single restoreCell call tree. It never touches
// internal/cycledag: that detector is reserved for the compute phase, so
// that no cycle report can ever mix a restore-phase edge with a
// compute-phase one (spec §4.2's strict phase-separation invariant).
type visitStack struct {
	cells []*Cell
	pos   map[int64]int
}

func newVisitStack() *visitStack {
	return &visitStack{pos: make(map[int64]int)}
}

func (v *visitStack) push(c *Cell) {
	v.pos[c.id] = len(v.cells)
	v.cells = append(v.cells, c)
}

func (v *visitStack) pop(c *Cell) {
	delete(v.pos, c.id)
	v.cells = v.cells[:len(v.cells)-1]
}

func (v *visitStack) find(c *Cell) (int, bool) {
	i, ok := v.pos[c.id]
	return i, ok
}

func (v *visitStack) pathFrom(i int, c *Cell) []*Cell {
	path := append([]*Cell(nil), v.cells[i:]...)
	path = append(path, c)
	return path
}

func framesForCells(cells []*Cell) []nodeid.Frame {
	out := make([]nodeid.Frame, len(cells))
	for i, c := range cells {
		out[i] = nodeid.Frame{Name: c.fnName, Input: c.input, CellID: c.id}
	}
	return out
}

func (e *Engine) cycleErrorFromCells(cells []*Cell) *CycleError {
	return &CycleError{Path: framesForCells(cells)}
}

func (e *Engine) cycleErrorFromIDs(ids []int64) *CycleError {
	e.mu.Lock()
	cells := make([]*Cell, 0, len(ids))
	for _, id := range ids {
		if c, ok := e.cellsByID[id]; ok {
			cells = append(cells, c)
		}
	}
	e.mu.Unlock()
	return e.cycleErrorFromCells(cells)
}

// execTyped drives a single cell through this run's restore-then-compute
// protocol (spec §4.2), looping until the cell settles, a cycle is
// detected, or another goroutine's in-flight compute is joined.
func execTyped[I Key, O any](e *Engine, s *task.Scheduler, caller *Cell, f *Func[I, O], in I, c *Cell) (O, error) {
	var zero O

	// Record the compute-phase dependency edge exactly once per call, before
	// deciding whether c needs to restore, compute, or is already settled:
	// the cycle detector's graph must contain every edge of the current
	// call tree, tree edges included, or a later back-edge to an ancestor
	// still on the stack (cellComputing) would have nothing to find a path
	// through and the detector would deadlock instead of reporting a cycle.
	if caller != nil {
		e.mu.Lock()
		ok, path := e.cycles.AddEdge(caller.id, c.id)
		e.mu.Unlock()
		if !ok {
			return zero, e.cycleErrorFromIDs(path)
		}
	}

	for {
		e.mu.Lock()
		if c.stateRun == e.currentRun {
			switch c.state {
			case cellSettled:
				res := c.cached
				cerr := c.runCycleErr
				e.mu.Unlock()
				if cerr != nil {
					return zero, cerr
				}
				return typedResult[O](res)
			case cellComputing:
				barrier := c.barrier
				e.mu.Unlock()
				<-barrier
				continue
			}
		}
		e.mu.Unlock()

		ok, cerr := e.restoreCell(s, c, newVisitStack())
		if cerr != nil {
			return zero, cerr
		}
		if ok {
			continue
		}

		if !e.claim(c) {
			continue
		}
		computeTyped(e, s, c, f, in)
		continue
	}
}

func typedResult[O any](res cellResult) (O, error) {
	var zero O
	switch res.kind {
	case resultOK:
		if v, ok := res.value.(O); ok {
			return v, nil
		}
		return zero, nil
	case resultErrReproducible, resultErrNonReproducible:
		return zero, res.err
	default:
		return zero, nil
	}
}

// claim transitions c from Unvisited to Computing for the current run,
// returning false if another goroutine claimed it first.
func (e *Engine) claim(c *Cell) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if c.stateRun == e.currentRun {
		return false
	}
	c.stateRun = e.currentRun
	c.state = cellComputing
	c.barrier = make(chan struct{})
	c.deps = nil
	c.runCycleErr = nil
	return true
}

func computeTyped[I Key, O any](e *Engine, s *task.Scheduler, c *Cell, f *Func[I, O], in I) {
	frame := nodeid.Frame{Name: f.name, Input: in, CellID: c.id}
	if pk, ok := any(in).(PolyKey); ok {
		frame.AsInstanceOf = pk.TypeID
	}

	e.mu.Lock()
	e.stack.Push(frame)
	e.logf("compute %s(%v) cell=%d", f.name, in, c.id)
	e.mu.Unlock()

	ctx := &Ctx{engine: e, cell: c}
	out, err := task.Run(s.Context, f.body(ctx, in))

	e.mu.Lock()
	defer e.mu.Unlock()

	e.stack.Pop()
	if e.perfEnabled {
		e.perf.Computed++
		e.perf.TraversedEdges += int64(len(c.deps))
	}
	e.cycles.MarkCompleted(c.id)

	barrier := c.barrier
	defer close(barrier)

	if err != nil {
		if cerr, ok := err.(*CycleError); ok {
			c.runCycleErr = cerr
			c.state = cellSettled
			return
		}

		inner := err
		reproducible := true
		if nr, ok := err.(*nonReproducibleErr); ok {
			inner = nr.inner
			reproducible = false
		}
		wrapped := &Error{Err: inner, Stack: e.stack.Snapshot(), Reproducible: reproducible}
		if reproducible {
			c.cached = cellResult{kind: resultErrReproducible, err: wrapped}
			c.lastChangedRun = e.currentRun
		} else {
			c.cached = cellResult{kind: resultErrNonReproducible, err: wrapped}
			// Non-reproducible errors are never trusted across runs, so
			// last_changed_run is left alone: there is nothing stable to
			// compare against on a future restore attempt, and restoreCell
			// refuses non-reproducible cells outright (see restoreCell).
		}
		c.lastValidatedRun = e.currentRun
		c.runCycleErr = nil
		c.state = cellSettled
		return
	}

	changed := true
	if f.cutoff != nil && c.cached.kind == resultOK {
		if prev, ok := c.cached.value.(O); ok && f.cutoff(prev, out) {
			changed = false
		}
	}
	c.cached = cellResult{kind: resultOK, value: out}
	if changed {
		c.lastChangedRun = e.currentRun
	}
	c.lastValidatedRun = e.currentRun
	c.runCycleErr = nil
	c.state = cellSettled
}

// restoreCell attempts phase 1 of spec §4.2: prove, without invoking c's
// own body, that c's cached result is still valid for the current run
// because every recorded dependency is itself still valid and unchanged
// since c last ran. It returns ok=true only if c is now settled-by-restore;
// ok=false means the caller must fall through to compute (claim+computeTyped).
//
// Per spec.md's "ask the dep to restore" step, judging an edge changed
// requires the dep's *new* last_changed_run - which is only meaningful once
// the dep has actually settled, by restore or by compute. A dep that cannot
// prove itself valid via phase 1 alone is therefore driven through its own
// full restore-or-compute protocol (via Cell.resolve, the same entrypoint
// Exec uses) before its last_changed_run is consulted; bailing out the
// instant phase 1 alone fails would let traversal order decide which path
// benefits from a dep's cutoff, instead of the dep's actual result.
//
// Restore-phase *cycle detection* (the visiting stack below) stays purely
// local to this call tree and never touches internal/cycledag: a restore
// cycle found among cells that are merely being walked, not computed, is
// reported without ever consulting the compute-phase graph. Only once a dep
// is handed off to resolve (because phase 1 alone could not settle it) does
// it enter the ordinary Exec path and, if it needs to compute, record edges
// in internal/cycledag the same as any other call - that dep is no longer
// restore-phase work at that point, it is compute-phase work being driven
// eagerly instead of from within its own ancestor's body.
func (e *Engine) restoreCell(s *task.Scheduler, c *Cell, visiting *visitStack) (ok bool, cerr *CycleError) {
	e.mu.Lock()
	if c.stateRun == e.currentRun {
		settled := c.state == cellSettled && c.runCycleErr == nil
		e.mu.Unlock()
		return settled, nil
	}
	if i, found := visiting.find(c); found {
		path := visiting.pathFrom(i, c)
		e.mu.Unlock()
		ce := e.cycleErrorFromCells(path)
		e.markCycleFailed(c, ce)
		return false, ce
	}
	if c.lastValidatedRun == 0 || c.cached.kind == resultUnevaluated {
		e.mu.Unlock()
		return false, nil
	}
	if c.cached.kind == resultErrNonReproducible {
		// Never restorable: a non-reproducible error carries no trustworthy
		// evidence that recomputing would behave the same way this run.
		e.mu.Unlock()
		return false, nil
	}
	deps := append([]depEdge(nil), c.deps...)
	e.mu.Unlock()

	visiting.push(c)
	defer visiting.pop(c)

	for _, d := range deps {
		depOK, depErr := e.restoreCell(s, d.dep, visiting)
		if depErr != nil {
			e.markCycleFailed(c, depErr)
			return false, depErr
		}
		if !depOK {
			// Phase 1 alone could not validate d.dep: drive it through the
			// full restore-or-compute protocol (falling to compute if it
			// must) so its last_changed_run reflects whatever its own
			// cutoff decided, rather than assuming the edge changed.
			if _, err := d.dep.resolve(e, s, c); err != nil {
				if ce, isCycle := err.(*CycleError); isCycle {
					e.markCycleFailed(c, ce)
					return false, ce
				}
			}
		}
		e.mu.Lock()
		changed := d.dep.lastChangedRun != d.lastChangedAtRecord
		e.mu.Unlock()
		if changed {
			return false, nil
		}
	}

	e.mu.Lock()
	if c.stateRun != e.currentRun {
		c.stateRun = e.currentRun
		c.state = cellSettled
		c.runCycleErr = nil
		c.lastValidatedRun = e.currentRun
		if e.perfEnabled {
			e.perf.Restored++
			e.perf.TraversedEdges += int64(len(deps))
		}
		e.cycles.MarkCompleted(c.id)
		e.logf("restore %s cell=%d deps=%d", c.fnName, c.id, len(deps))
	}
	settled := c.state == cellSettled && c.runCycleErr == nil
	e.mu.Unlock()
	return settled, nil
}

// markCycleFailed marks c as Failed(Cycle) for the current run, unless it
// has already settled some other way (e.g. a concurrent goroutine finished
// computing it successfully first). Every cell on a restore-phase cycle's
// path gets marked this way as the error propagates back up the call
// chain, not just the cell that first detected it (spec §4.3).
func (e *Engine) markCycleFailed(c *Cell, cerr *CycleError) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if c.stateRun == e.currentRun && c.state == cellSettled {
		return
	}
	c.stateRun = e.currentRun
	c.state = cellSettled
	c.runCycleErr = cerr
}

// PreviouslyEvaluatedCell returns the cell for (f, in) if it has ever
// completed (successfully or with an error, reproducible or not) and has
// not since been invalidated, without forcing a compute (spec §4.2's
// previously_evaluated_cell).
func PreviouslyEvaluatedCell[I Key, O any](e *Engine, f *Func[I, O], in I) (*Cell, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	st, ok := e.stores[f.name]
	if !ok {
		return nil, false
	}
	for _, c := range st.buckets[in.Hash()] {
		if c.input.Equal(in) && c.lastValidatedRun != 0 {
			return c, true
		}
	}
	return nil, false
}

// DepRef names one dependency recorded by a completed cell.
type DepRef struct {
	FunctionName string
	Input        any
}

// GetDeps returns the dependency list recorded the last time (f, in)
// completed, or ok=false if it has never completed or has been invalidated
// since (spec §4.2/§6 introspection surface).
func GetDeps[I Key, O any](e *Engine, f *Func[I, O], in I) ([]DepRef, bool) {
	c, ok := PreviouslyEvaluatedCell(e, f, in)
	if !ok {
		return nil, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]DepRef, len(c.deps))
	for i, d := range c.deps {
		out[i] = DepRef{FunctionName: d.dep.fnName, Input: d.dep.input}
	}
	return out, true
}

// GetCallStack returns the frames currently active on e, from outermost to
// innermost. Meant for diagnostics invoked from within a running body.
func (e *Engine) GetCallStack() []nodeid.Frame {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stack.Snapshot()
}

// logWriter is the minimal sink log.go's trace output is written to;
// kept as an interface (rather than importing "log" here directly) so
// tests can capture trace output without touching the package-global
// logger.
type logWriter interface {
	Printf(format string, args ...any)
}
