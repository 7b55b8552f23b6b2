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

package numeric

import (
	"testing"

	"github.com/cockroachdb/apd/v3"
	"github.com/go-quicktest/qt"
)

func dec(s string) *apd.Decimal {
	d, _, err := apd.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestDecimalCutoffEqualRepresentations(t *testing.T) {
	qt.Assert(t, qt.IsTrue(DecimalCutoff(dec("1.50"), dec("1.5"))))
}

func TestDecimalCutoffDifferentValues(t *testing.T) {
	qt.Assert(t, qt.IsFalse(DecimalCutoff(dec("1.50"), dec("1.51"))))
}

func TestDecimalCutoffNilHandling(t *testing.T) {
	qt.Assert(t, qt.IsTrue(DecimalCutoff(nil, nil)))
	qt.Assert(t, qt.IsFalse(DecimalCutoff(nil, dec("0"))))
}
