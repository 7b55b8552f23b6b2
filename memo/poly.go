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

// Variant tags in with typeID so it can be used as one arm of a
// polymorphic function's PolyKey input (spec §4.6): a function whose
// logical input is "one of several Go types" registers as
// Func[PolyKey, O] and each call site wraps its concrete input with
// Variant under that type's own typeID, keeping each variant's key space
// disjoint from the others even when two variants' payloads could
// otherwise hash/compare equal.
func Variant[I Key](typeID string, in I) PolyKey {
	return PolyKey{TypeID: typeID, Payload: in}
}

// AsInstanceOf reports the typeID a PolyKey was tagged with and the
// underlying payload, the inverse of Variant; it is what a polymorphic
// function's body switches on to recover the concrete input type.
func AsInstanceOf(k PolyKey) (typeID string, payload Key) {
	return k.TypeID, k.Payload
}
