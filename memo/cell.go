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

import "github.com/recoules/dune/internal/task"

// resultKind tags what, if anything, a Cell's cached slot holds.
type resultKind uint8

const (
	resultUnevaluated resultKind = iota
	resultOK
	resultErrReproducible
	resultErrNonReproducible
)

// resultKindNames backs (resultKind).String(); the index must track the
// iota order above exactly, the same hand-maintained naming table pattern
// the teacher uses for its scheduler's bitmask states.
var resultKindNames = [...]string{
	resultUnevaluated:        "unevaluated",
	resultOK:                 "ok",
	resultErrReproducible:    "err_reproducible",
	resultErrNonReproducible: "err_non_reproducible",
}

func (k resultKind) String() string { return resultKindNames[k] }

// cellResult is the cached outcome of a cell's body, kept across runs until
// invalidated or superseded by a fresh compute.
type cellResult struct {
	kind  resultKind
	value any
	err   *Error
}

// cellRunState is a cell's status within the *current* run only; it is
// meaningless once stateRun != the engine's current run (spec §3's
// "Unvisited / Computing / Settled" per-run lifecycle).
type cellRunState uint8

const (
	cellUnvisited cellRunState = iota
	cellComputing
	cellSettled
)

// cellRunStateNames backs (cellRunState).String(); see resultKindNames.
var cellRunStateNames = [...]string{
	cellUnvisited: "unvisited",
	cellComputing: "computing",
	cellSettled:   "settled",
}

func (s cellRunState) String() string { return cellRunStateNames[s] }

// depEdge records one dependency recorded by a cell during its most recent
// compute: which cell it called, and the dependency's last_changed_run as
// it stood once the call returned, which restoreCell later compares against the
// dependency's current value to decide whether the edge is still valid
// (spec §3 invariant 3, §4.2 restore algorithm).
type depEdge struct {
	dep                 *Cell
	lastChangedAtRecord int64
}

// Cell is the interned (function, input) pair spec §3 describes: the unit
// of caching, dependency tracking and invalidation.
type Cell struct {
	id     int64
	fnName string
	input  Key

	// resolve is a type-erased closure over this cell's Func[I,O] and
	// input, set once at creation time so that both Exec and ReadCell can
	// drive restore/compute without needing I and O spelled out again —
	// Cell itself stays non-generic, since Go does not allow a generic
	// method set on a concrete receiver type.
	resolve func(e *Engine, s *task.Scheduler, caller *Cell) (any, error)

	cached           cellResult
	lastValidatedRun int64
	lastChangedRun   int64

	// Per-run fields below are only meaningful while stateRun equals the
	// engine's current run number; a cell from a previous run is treated
	// as cellUnvisited regardless of what these fields still hold.
	stateRun    int64
	state       cellRunState
	barrier     chan struct{}
	deps        []depEdge
	runCycleErr *CycleError
}

// ID returns the cell's process-lifetime-unique identifier.
func (c *Cell) ID() int64 { return c.id }

// FunctionName returns the name of the Func this cell belongs to.
func (c *Cell) FunctionName() string { return c.fnName }

// Input returns the cell's interned input key.
func (c *Cell) Input() Key { return c.input }

// Invalidate returns an Invalidation that, once applied via Engine.Reset,
// forces this single cell to recompute on its next access (spec §4.4).
func (c *Cell) Invalidate() Invalidation {
	return InvalidateCell(c)
}
