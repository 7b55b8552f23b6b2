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

import "github.com/mpvl/unique"

// Invalidation describes a batch of invalidations to apply at the next run
// boundary (spec §4.4): specific cells, whole functions, or everything.
// Invalidations compose via Combine, which a caller typically builds up
// across several sources (a changed file, a changed env var, ...) before
// handing the result to Engine.Reset.
type Invalidation struct {
	clearAll bool
	cells    map[int64]*Cell
	fns      map[string]bool
}

// EmptyInvalidation is the identity element for Combine: applying it
// changes nothing.
func EmptyInvalidation() Invalidation { return Invalidation{} }

// InvalidateCell returns an Invalidation that forces a single cell to
// recompute on its next access.
func InvalidateCell(c *Cell) Invalidation {
	return Invalidation{cells: map[int64]*Cell{c.id: c}}
}

// InvalidateFunc returns an Invalidation that forces every existing cell of
// the named function to recompute on its next access, without discarding
// the cells themselves (so previously obtained *Cell references, and their
// identity under Key equality, remain valid; only their cached result is
// distrusted).
func InvalidateFunc[I Key, O any](f *Func[I, O]) Invalidation {
	return Invalidation{fns: map[string]bool{f.name: true}}
}

// ClearCaches returns an Invalidation that drops every cell ever created
// and resets the cycle detector entirely, as if the engine were new.
func ClearCaches() Invalidation { return Invalidation{clearAll: true} }

// Combine merges two invalidations. If either clears everything, the
// result clears everything; otherwise the result is the union of both
// sides' cell and function sets.
func Combine(a, b Invalidation) Invalidation {
	if a.clearAll || b.clearAll {
		return Invalidation{clearAll: true}
	}
	cells := make(map[int64]*Cell, len(a.cells)+len(b.cells))
	for id, c := range a.cells {
		cells[id] = c
	}
	for id, c := range b.cells {
		cells[id] = c
	}
	fns := make(map[string]bool, len(a.fns)+len(b.fns))
	for name := range a.fns {
		fns[name] = true
	}
	for name := range b.fns {
		fns[name] = true
	}
	return Invalidation{cells: cells, fns: fns}
}

// CellIDs returns the sorted, deduplicated list of cell ids this
// invalidation names directly (not counting whole-function or clear-all
// invalidations). Exposed for logging and introspection, where a stable
// order matters even though the underlying map does not provide one.
//
// Wires mpvl/unique: id64s sorts the collected ids and mpvl/unique.Sort
// compacts the adjacent duplicates a Combine chain can accumulate when the
// same cell is invalidated from more than one source, in one pass rather
// than a separate dedup step.
func (inv Invalidation) CellIDs() []int64 {
	ids := make([]int64, 0, len(inv.cells))
	for id := range inv.cells {
		ids = append(ids, id)
	}
	unique.Sort(id64s{&ids})
	return ids
}

// id64s adapts a *[]int64 to mpvl/unique's sort+compact Interface: Len/Less
// /Swap drive an ordinary sort, and Truncate keeps only the first n
// elements once the n unique ones have been moved to the front, the same
// three-plus-one method shape sort.Interface extends for in-place dedup.
// It holds a pointer to the slice, since Truncate must shrink the caller's
// slice header in place rather than a method-local copy of it.
type id64s struct{ s *[]int64 }

func (p id64s) Len() int           { return len(*p.s) }
func (p id64s) Less(i, j int) bool { return (*p.s)[i] < (*p.s)[j] }
func (p id64s) Swap(i, j int)      { (*p.s)[i], (*p.s)[j] = (*p.s)[j], (*p.s)[i] }
func (p id64s) Truncate(n int)     { *p.s = (*p.s)[:n] }
