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

// Func is a registered memoized function: a name, a body, and an optional
// early-cutoff predicate (spec §4.6). Every cell the engine creates for
// this function shares the same body and cutoff.
type Func[I Key, O any] struct {
	name   string
	body   func(ctx *Ctx, in I) task.Task[O]
	cutoff func(prev, next O) bool
}

// NewFunc registers a memoized function under name. Two Funcs created with
// the same name address the same cell space; callers are expected to
// register each function exactly once, by convention at init time, the way
// the teacher registers builtins once at package init rather than per call.
func NewFunc[I Key, O any](name string, body func(ctx *Ctx, in I) task.Task[O]) *Func[I, O] {
	return &Func[I, O]{name: name, body: body}
}

// WithCutoff attaches an early-cutoff predicate: when a recompute's new
// output is considered equal to the cell's previous output under eq, the
// cell's last_changed_run is not advanced, so callers depending on it are
// not forced to recompute on the strength of this cell alone (spec §4.2's
// early-cutoff rule). WithCutoff returns f for chaining at registration
// time.
func (f *Func[I, O]) WithCutoff(eq func(prev, next O) bool) *Func[I, O] {
	f.cutoff = eq
	return f
}

// Name returns the function's registered name.
func (f *Func[I, O]) Name() string { return f.name }
