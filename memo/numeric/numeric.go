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

// Package numeric supplies an early-cutoff predicate for memoized
// functions whose output is an arbitrary-precision decimal, the case
// spec §4.2 calls out: comparing two floats for "did the output really
// change" is unreliable at the bit level, so a function computing, say, a
// monetary total should cut off on decimal value equality rather than
// representation equality.
package numeric

import "github.com/cockroachdb/apd/v3"

// DecimalCutoff reports whether prev and next represent the same decimal
// value, suitable for passing to Func.WithCutoff. Two nil decimals are
// equal; a nil and a non-nil decimal are not.
func DecimalCutoff(prev, next *apd.Decimal) bool {
	if prev == nil || next == nil {
		return prev == next
	}
	return prev.Cmp(next) == 0
}

// Round rounds d to the given number of decimal digits using banker's
// rounding, the default apd.Context rounding mode, returning a new
// *apd.Decimal and leaving d untouched.
func Round(d *apd.Decimal, digits int32) (*apd.Decimal, error) {
	ctx := apd.BaseContext.WithPrecision(uint32(digits) + 16)
	var out apd.Decimal
	_, err := ctx.Quantize(&out, d, -digits)
	return &out, err
}
