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

package keyutil

import (
	"testing"

	"github.com/go-quicktest/qt"
)

type point struct {
	X, Y int
}

func TestDigestEqualForEqualValues(t *testing.T) {
	a, err := Digest(point{1, 2})
	qt.Assert(t, qt.IsNil(err))
	b, err := Digest(point{1, 2})
	qt.Assert(t, qt.IsNil(err))

	qt.Assert(t, qt.IsTrue(a.Equal(b)))
	qt.Assert(t, qt.Equals(a.Hash(), b.Hash()))
}

func TestDigestDiffersForDifferentValues(t *testing.T) {
	a, err := Digest(point{1, 2})
	qt.Assert(t, qt.IsNil(err))
	b, err := Digest(point{1, 3})
	qt.Assert(t, qt.IsNil(err))

	qt.Assert(t, qt.IsFalse(a.Equal(b)))
}
