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

// Task, Unit, Pair and Result are aliases for the cooperative task
// runtime's types (internal/task), re-exported here since Func bodies
// return them but internal/task cannot be imported outside this module.
type (
	Task[T any]    = task.Task[T]
	Unit           = task.Unit
	Pair[A, B any] = task.Pair[A, B]
	Result[T any]  = task.Result[T]
)

// Return lifts a plain value into a Task that completes immediately.
func Return[T any](v T) Task[T] { return task.Return(v) }

// FailTask lifts an error into a Task that fails immediately.
func FailTask[T any](err error) Task[T] { return task.Fail[T](err) }

// BindTask sequences t then f, short-circuiting on t's error.
func BindTask[A, B any](t Task[A], f func(A) Task[B]) Task[B] { return task.Bind(t, f) }

// MapTask transforms a Task's successful result.
func MapTask[A, B any](t Task[A], f func(A) B) Task[B] { return task.Map(t, f) }

// ForkAndJoin spawns a and b concurrently and completes when both do,
// aggregating errors from both sides rather than stopping at the first
// one (spec §4.1/§5).
func ForkAndJoin[A, B any](a Task[A], b Task[B]) Task[Pair[A, B]] { return task.ForkAndJoin(a, b) }

// ForkAndJoinUnit is ForkAndJoin for tasks whose value is not needed.
func ForkAndJoinUnit(a, b Task[Unit]) Task[Unit] { return task.ForkAndJoinUnit(a, b) }

// YieldTask surrenders control, allowing other in-flight tasks to progress.
func YieldTask() Task[Unit] { return task.Yield() }

// OfReproducibleFiber lifts a blocking computation into the task runtime;
// see internal/task's doc comment for what "reproducible" requires of k.
func OfReproducibleFiber[T any](k func() (T, error)) Task[T] { return task.OfReproducibleFiber(k) }

// CollectErrors runs f and reports every error aggregated while evaluating
// it, rather than stopping at the first one (spec §4.1).
func CollectErrors[T any](f func() Task[T]) Task[Result[T]] { return task.CollectErrors(f) }
