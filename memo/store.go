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

// cellStore interns the cells of a single registered function, bucketed by
// input hash. Invariant 1 (spec §3) requires that equal inputs always
// resolve to the same Cell, which is exactly what this interning gives:
// cellFor never allocates a new Cell for an input already present.
type cellStore struct {
	buckets map[uint64][]*Cell
}

func newCellStore() *cellStore {
	return &cellStore{buckets: make(map[uint64][]*Cell)}
}

// storeFor returns (creating if necessary) the cellStore for fn. Callers
// must already hold e.mu.
func (e *Engine) storeFor(fn string) *cellStore {
	st, ok := e.stores[fn]
	if !ok {
		st = newCellStore()
		e.stores[fn] = st
	}
	return st
}

// cellFor interns the cell for (f, in), creating it on first use. Callers
// must not hold e.mu.
func cellFor[I Key, O any](e *Engine, f *Func[I, O], in I) *Cell {
	e.mu.Lock()
	st := e.storeFor(f.name)
	h := in.Hash()
	for _, c := range st.buckets[h] {
		if c.input.Equal(in) {
			e.mu.Unlock()
			return c
		}
	}

	c := &Cell{id: e.ids.Next(), fnName: f.name, input: in}
	c.resolve = func(e *Engine, s *task.Scheduler, caller *Cell) (any, error) {
		return execTyped(e, s, caller, f, in, c)
	}
	st.buckets[h] = append(st.buckets[h], c)
	e.cellsByID[c.id] = c
	e.mu.Unlock()
	return c
}
