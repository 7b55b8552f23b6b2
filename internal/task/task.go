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

// Package task implements the cooperative task runtime memo's node engine
// runs on (spec §4.1): return/bind/map, fork-join with error aggregation,
// yield, a reproducible-fiber escape hatch for external blocking work, and
// scoped error collection.
//
// This is grounded in the shape of the teacher's scheduler
// (internal/core/adt/sched.go): a single-threaded run loop that processes
// tasks to the next suspension point and resumes them later. The teacher
// achieves that single-threadedness with a panic/recover trampoline that
// is only sound because CUE's task bodies (conjunct processing) are
// idempotent and safe to re-invoke from scratch. memo's task bodies are
// arbitrary user code that may recursively call exec, so that trick does
// not generalize; instead each fork spawns a goroutine, and "single
// threaded" is enforced at the level the spec actually requires it
// (engine bookkeeping, see memo.Engine's mutex) rather than in this
// package. See DESIGN.md's "Concurrency model" entry.
package task

import (
	"context"
	"runtime"
	"sync"
)

// Unit is the empty result type, used where a Task carries no value.
type Unit struct{}

// Scheduler is threaded through every Task's execution. It currently only
// carries the ambient context.Context, but callers should treat it as
// opaque; future fields (e.g. tracing hooks) are added here, not to Task
// itself.
type Scheduler struct {
	Context context.Context
}

// Task is a suspendable computation that produces a T or fails. It is
// deliberately just a function value: composing tasks is composing
// closures, and "running" a task is calling it with a Scheduler.
type Task[T any] struct {
	run func(s *Scheduler) (T, error)
}

// Run drives t to completion against a fresh Scheduler rooted at ctx. This
// is the engine's top-level driver (spec's `run(Task<T>) -> T`).
func Run[T any](ctx context.Context, t Task[T]) (T, error) {
	return t.run(&Scheduler{Context: ctx})
}

// Return lifts a plain value into a Task that completes immediately.
func Return[T any](v T) Task[T] {
	return Task[T]{run: func(*Scheduler) (T, error) { return v, nil }}
}

// Fail lifts an error into a Task that fails immediately.
func Fail[T any](err error) Task[T] {
	return Task[T]{run: func(*Scheduler) (T, error) {
		var zero T
		return zero, err
	}}
}

// FromFunc builds a Task directly from a scheduler-driven function. It is
// the escape hatch memo's cell engine uses to hook into cell
// restore/compute, which needs access to the Scheduler itself.
func FromFunc[T any](f func(s *Scheduler) (T, error)) Task[T] {
	return Task[T]{run: f}
}

// Bind sequences t then f, short-circuiting on t's error.
func Bind[A, B any](t Task[A], f func(A) Task[B]) Task[B] {
	return Task[B]{run: func(s *Scheduler) (B, error) {
		a, err := t.run(s)
		if err != nil {
			var zero B
			return zero, err
		}
		return f(a).run(s)
	}}
}

// Map transforms a Task's successful result.
func Map[A, B any](t Task[A], f func(A) B) Task[B] {
	return Bind(t, func(a A) Task[B] { return Return(f(a)) })
}

// Pair holds the joined results of ForkAndJoin's two branches.
type Pair[A, B any] struct {
	First  A
	Second B
}

// ForkAndJoin spawns a and b concurrently and completes when both do.
// Per spec §4.1/§5, the join always waits for both children even if one
// failed, and errors from either side are aggregated rather than the
// first one winning.
func ForkAndJoin[A, B any](a Task[A], b Task[B]) Task[Pair[A, B]] {
	return Task[Pair[A, B]]{run: func(s *Scheduler) (Pair[A, B], error) {
		var (
			wg         sync.WaitGroup
			ra         A
			rb         B
			errA, errB error
		)
		wg.Add(2)
		go func() {
			defer wg.Done()
			ra, errA = a.run(s)
		}()
		go func() {
			defer wg.Done()
			rb, errB = b.run(s)
		}()
		wg.Wait()

		if err := CombineErrors(errA, errB); err != nil {
			return Pair[A, B]{}, err
		}
		return Pair[A, B]{First: ra, Second: rb}, nil
	}}
}

// ForkAndJoinUnit is ForkAndJoin for tasks whose value is not needed.
func ForkAndJoinUnit(a, b Task[Unit]) Task[Unit] {
	return Map(ForkAndJoin(a, b), func(Pair[Unit, Unit]) Unit { return Unit{} })
}

// Yield surrenders control to the Go scheduler, allowing other ready
// goroutines (other tasks) to make progress. There is no user-visible
// suspend/resume state to preserve: unlike the teacher's trampoline, Go's
// own goroutine scheduler already owns that bookkeeping.
func Yield() Task[Unit] {
	return Task[Unit]{run: func(*Scheduler) (Unit, error) {
		runtime.Gosched()
		return Unit{}, nil
	}}
}

// OfReproducibleFiber lifts a lower-level blocking computation into the
// task runtime. "Reproducible" means k does not observe side effects the
// engine can't account for, so it is safe to treat its result like any
// other cell computation. k runs on its own goroutine so it never holds
// the calling goroutine (and whatever engine lock it may be holding via a
// sibling branch) while blocked.
func OfReproducibleFiber[T any](k func() (T, error)) Task[T] {
	return Task[T]{run: func(s *Scheduler) (T, error) {
		type result struct {
			v   T
			err error
		}
		ch := make(chan result, 1)
		go func() {
			v, err := k()
			ch <- result{v, err}
		}()
		select {
		case r := <-ch:
			return r.v, r.err
		case <-s.Context.Done():
			var zero T
			return zero, s.Context.Err()
		}
	}}
}

// Result is CollectErrors' outcome: either a successful value or the full
// list of errors observed while running the scoped task.
type Result[T any] struct {
	OK    bool
	Value T
	Errs  []error
}

// CollectErrors runs f and returns Ok(v) or Err([e...]), where the error
// list is every individual error aggregated by any ForkAndJoin performed
// while evaluating f (spec §4.1).
func CollectErrors[T any](f func() Task[T]) Task[Result[T]] {
	return Task[Result[T]]{run: func(s *Scheduler) (Result[T], error) {
		v, err := f().run(s)
		if err != nil {
			return Result[T]{Errs: Flatten(err)}, nil
		}
		return Result[T]{OK: true, Value: v}, nil
	}}
}
