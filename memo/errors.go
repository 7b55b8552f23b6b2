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

	"github.com/recoules/dune/internal/nodeid"
	"github.com/recoules/dune/internal/task"
)

// Error wraps a user body's failure with the call stack active when it was
// raised and whether it is reproducible (spec §7): a reproducible error is
// cached and treated like any other value (subject to restore/cutoff); a
// non-reproducible one is never trusted across runs and always forces a
// recompute.
type Error struct {
	Err          error
	Stack        []nodeid.Frame
	Reproducible bool
}

func (e *Error) Error() string {
	var b strings.Builder
	for i, f := range e.Stack {
		if i > 0 {
			b.WriteString(" -> ")
		}
		fmt.Fprintf(&b, "%s(%v)", f.Name, f.Input)
	}
	if b.Len() > 0 {
		b.WriteString(": ")
	}
	b.WriteString(e.Err.Error())
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// CycleError reports a dependency cycle discovered during either the
// restore or the compute phase of a single run. Path lists the frames from
// the cell that closes the cycle back to the cell whose attempt to depend
// on it would close the loop, inclusive of both ends (spec §4.3).
type CycleError struct {
	Path []nodeid.Frame
}

func (e *CycleError) Error() string {
	names := make([]string, len(e.Path))
	for i, f := range e.Path {
		names[i] = fmt.Sprintf("%s(%v)", f.Name, f.Input)
	}
	return "memo: dependency cycle: " + strings.Join(names, " -> ")
}

// nonReproducibleErr marks a user error as inherently unstable (e.g. it
// observed the wall clock, a random source, or unmanaged external state) so
// the cell that raised it is never treated as settled across runs.
type nonReproducibleErr struct{ inner error }

// NonReproducible wraps err so that the cell body raising it always
// recomputes on the next run regardless of whether its recorded
// dependencies changed (spec §7).
func NonReproducible(err error) error {
	if err == nil {
		return nil
	}
	return &nonReproducibleErr{inner: err}
}

func (w *nonReproducibleErr) Error() string { return w.inner.Error() }
func (w *nonReproducibleErr) Unwrap() error { return w.inner }

// CombineErrors aggregates zero or more errors raised while evaluating
// sibling tasks, flattening nested aggregates (spec §5's fork-join error
// aggregation). It is a thin re-export of the task runtime's combinator so
// that callers composing memo.Task bodies do not need to import
// internal/task directly.
func CombineErrors(errs ...error) error { return task.CombineErrors(errs...) }
