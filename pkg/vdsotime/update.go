// Copyright 2025 The vKern Authors.
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

package vdsotime

// Update recomputes the record from one consistent sample of (tick count,
// wall nanoseconds, monotonic nanoseconds) and a candidate (mult, shift)
// scale computed from the nominal counter frequency.
//
// Update cannot fail and never allocates: it is called between the page
// writer's seqlock brackets. Degenerate inputs on the recalibration path
// leave the previous scale in force.
func (c *Clock) Update(cycleNow, wallNs, monoNs uint64, mult, shift uint32) {
	prevCycle := c.CycleLast
	// The previous monotonic anchor, denormalized the way the ABI always
	// has: seconds scaled plus the stored (possibly shifted) remainder.
	prevNs := c.Base[Monotonic].Sec*NanosPerSec + c.Base[Monotonic].Nsec

	switch {
	case c.Mode == ClockNone:
		// No tick conversion: the monotonic anchor carries raw
		// nanoseconds and the scale is disarmed.
		c.Mult = 0
		c.Base[Monotonic] = Timestamp{Sec: monoNs / NanosPerSec, Nsec: monoNs % NanosPerSec}
		c.CycleLast = 0

	case prevCycle == 0:
		// First update ever: adopt the candidate unconditionally.
		c.rebase(cycleNow, monoNs, mult, shift)

	case !IsSentinel(mult, shift):
		// Periodic re-synchronization to the nominal frequency.
		c.rebase(cycleNow, monoNs, mult, shift)

	default:
		// The nominal scale saturated; recalibrate against the ticks
		// and nanoseconds actually observed since the last anchor.
		deltaCycles := (cycleNow - prevCycle) & c.Mask
		var deltaNs uint64
		if monoNs > prevNs {
			deltaNs = monoNs - prevNs
		}
		if deltaCycles != 0 && deltaNs > 0 {
			m, s := CalcMultShift(deltaCycles, deltaNs, 1)
			c.rebase(cycleNow, monoNs, m, s)
		}
		// Otherwise: nothing elapsed, keep the previous scale.
	}

	// The wall anchor always follows, at the record's current shift, and
	// the boot anchor mirrors the monotonic one verbatim.
	c.Base[Realtime] = Timestamp{Sec: wallNs / NanosPerSec, Nsec: (wallNs % NanosPerSec) << c.Shift}
	c.Base[Boottime] = c.Base[Monotonic]
}

// rebase adopts a new scale and re-anchors the monotonic slot and tick count
// to the current sample.
func (c *Clock) rebase(cycleNow, monoNs uint64, mult, shift uint32) {
	c.Mult = mult
	c.Shift = shift
	c.Base[Monotonic] = Timestamp{Sec: monoNs / NanosPerSec, Nsec: (monoNs % NanosPerSec) << shift}
	c.CycleLast = cycleNow
}
