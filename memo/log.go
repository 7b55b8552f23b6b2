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
	"log"
)

// stdLogWriter adapts the standard library's package-level logger to
// logWriter, used whenever an Engine has no LogWriter of its own set.
type stdLogWriter struct{}

func (stdLogWriter) Printf(format string, args ...any) { log.Printf(format, args...) }

// SetLogWriter directs e's debug trace output (only emitted while e.Debug
// is true) to w instead of the standard logger. Grounded in the teacher's
// log.go: a single boolean switch gates an otherwise-always-compiled trace
// path, rather than a structured logging framework with levels.
func (e *Engine) SetLogWriter(w interface{ Printf(string, ...any) }) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.logWriter = w
}

// logf emits a trace line if e.Debug is set. Callers must already hold
// e.mu; logf does not acquire it.
func (e *Engine) logf(format string, args ...any) {
	if !e.Debug {
		return
	}
	w := e.logWriter
	if w == nil {
		w = stdLogWriter{}
	}
	e.logSeq++
	w.Printf(fmt.Sprintf("memo[%s] #%d %s", e.id.String()[:8], e.logSeq, format), args...)
}
