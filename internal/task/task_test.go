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

package task

import (
	"context"
	"errors"
	"testing"

	"github.com/go-quicktest/qt"
)

func TestReturnAndBind(t *testing.T) {
	t1 := Return(3)
	t2 := Bind(t1, func(v int) Task[int] { return Return(v * 2) })
	got, err := Run(context.Background(), t2)
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(got, 6))
}

func TestBindShortCircuitsOnError(t *testing.T) {
	wantErr := errors.New("boom")
	t1 := Fail[int](wantErr)
	called := false
	t2 := Bind(t1, func(int) Task[int] {
		called = true
		return Return(1)
	})
	_, err := Run(context.Background(), t2)
	qt.Assert(t, qt.ErrorIs(err, wantErr))
	qt.Assert(t, qt.IsFalse(called))
}

func TestMap(t *testing.T) {
	got, err := Run(context.Background(), Map(Return(2), func(v int) string { return "x" }))
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(got, "x"))
}

func TestForkAndJoinSuccess(t *testing.T) {
	got, err := Run(context.Background(), ForkAndJoin(Return(1), Return("a")))
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(got.First, 1))
	qt.Assert(t, qt.Equals(got.Second, "a"))
}

func TestForkAndJoinAggregatesBothErrors(t *testing.T) {
	errA := errors.New("a failed")
	errB := errors.New("b failed")
	_, err := Run(context.Background(), ForkAndJoin(Fail[int](errA), Fail[int](errB)))
	qt.Assert(t, qt.ErrorIs(err, errA))
	qt.Assert(t, qt.ErrorIs(err, errB))

	agg, ok := err.(*AggregateError)
	qt.Assert(t, qt.IsTrue(ok))
	qt.Assert(t, qt.Equals(len(agg.Errs), 2))
}

func TestForkAndJoinWaitsForBothEvenOnError(t *testing.T) {
	ran := make(chan struct{}, 1)
	slow := FromFunc(func(*Scheduler) (int, error) {
		ran <- struct{}{}
		return 1, nil
	})
	_, err := Run(context.Background(), ForkAndJoin(Fail[int](errors.New("fail fast")), slow))
	qt.Assert(t, qt.IsTrue(err != nil))
	select {
	case <-ran:
	default:
		t.Fatal("second branch of ForkAndJoin did not run")
	}
}

func TestOfReproducibleFiberRespectsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	block := make(chan struct{})
	defer close(block)

	fiber := OfReproducibleFiber(func() (int, error) {
		<-block
		return 1, nil
	})

	cancel()
	_, err := Run(ctx, fiber)
	qt.Assert(t, qt.ErrorIs(err, context.Canceled))
}

func TestCollectErrorsFlattensAggregate(t *testing.T) {
	errA := errors.New("a")
	errB := errors.New("b")
	body := func() Task[int] {
		return Map(ForkAndJoin(Fail[int](errA), Fail[int](errB)), func(Pair[int, int]) int { return 0 })
	}
	res, err := Run(context.Background(), CollectErrors(body))
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.IsFalse(res.OK))
	qt.Assert(t, qt.Equals(len(res.Errs), 2))
}

func TestCombineErrorsFlattensNestedAggregates(t *testing.T) {
	errA := errors.New("a")
	errB := errors.New("b")
	errC := errors.New("c")
	inner := CombineErrors(errA, errB)
	got := CombineErrors(inner, errC)
	agg, ok := got.(*AggregateError)
	qt.Assert(t, qt.IsTrue(ok))
	qt.Assert(t, qt.Equals(len(agg.Errs), 3))
}

func TestCombineErrorsSingle(t *testing.T) {
	errA := errors.New("a")
	got := CombineErrors(nil, errA, nil)
	qt.Assert(t, qt.Equals(got, error(errA)))
}

func TestCombineErrorsAllNil(t *testing.T) {
	qt.Assert(t, qt.IsNil(CombineErrors(nil, nil)))
}
