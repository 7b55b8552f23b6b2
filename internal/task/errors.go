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

import "strings"

// AggregateError is raised by ForkAndJoin when both branches fail;
// CollectErrors expands it back into its individual errors. It flattens
// nested aggregates so that repeated fork-joins never nest error lists.
//
// Grounded in the teacher's CombineErrors (internal/core/adt/errors.go),
// which likewise merges a tree of child errors into one error value
// carried by the parent node rather than stopping at the first failure.
type AggregateError struct {
	Errs []error
}

func (e *AggregateError) Error() string {
	parts := make([]string, len(e.Errs))
	for i, err := range e.Errs {
		parts[i] = err.Error()
	}
	return strings.Join(parts, "; ")
}

// Unwrap exposes the individual errors to errors.Is/errors.As via the
// multi-error convention.
func (e *AggregateError) Unwrap() []error { return e.Errs }

// CombineErrors merges zero or more errors (any of which may themselves be
// *AggregateError) into a single error, flattening nested aggregates. It
// returns nil if every argument is nil, the lone error if exactly one is
// non-nil, and an *AggregateError otherwise.
func CombineErrors(errs ...error) error {
	var flat []error
	for _, e := range errs {
		flat = append(flat, Flatten(e)...)
	}
	switch len(flat) {
	case 0:
		return nil
	case 1:
		return flat[0]
	default:
		return &AggregateError{Errs: flat}
	}
}

// Flatten expands err into its constituent errors: nil becomes an empty
// slice, an *AggregateError expands to its members, anything else is a
// single-element slice.
func Flatten(err error) []error {
	if err == nil {
		return nil
	}
	if agg, ok := err.(*AggregateError); ok {
		return agg.Errs
	}
	return []error{err}
}
