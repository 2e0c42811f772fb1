// Copyright 2025 Google LLC
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

// Package clock supplies an injectable notion of wall-clock time for
// stamping the latency observations ops.FS.withTxn records around
// every transaction envelope. It carries no part of the shadow stat
// record: ishstat has no timestamp field.
package clock

import "time"

// Clock is the one timestamp primitive OpSemantics needs. fakefs has
// no retry/backoff timers of its own (spec.md §5: no cancellation, no
// scheduled work), so unlike the teacher's clock.Clock this does not
// carry an After method — there is nothing in this module that would
// ever call it.
type Clock interface {
	Now() time.Time
}

var _ Clock = RealClock{}
var _ Clock = &SimulatedClock{}
