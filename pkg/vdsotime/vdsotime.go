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

// Package vdsotime implements the clock state and fixed-point conversion
// algorithms behind the vDSO data page.
//
// A Clock is the writer-side image of one clock record in the page. The
// update algorithm keeps each record's timestamp anchors and (mult, shift)
// scale consistent with a single sample of the platform clocks; the page
// writer in package vdso publishes the result under its seqlock.
package vdsotime

import "fmt"

const (
	// NanosPerSec is the number of nanoseconds in a second.
	NanosPerSec = 1_000_000_000

	// Bases is the number of timestamp slots in a clock record. The slot
	// count and meaning are fixed by the userspace ABI.
	Bases = 12
)

// Timestamp slots within a clock record.
const (
	// Realtime is the wall-clock anchor.
	Realtime = 0

	// Monotonic is the monotonic anchor.
	Monotonic = 1

	// Boottime is the boot-relative anchor. It is kept as a verbatim
	// alias of Monotonic: this core does not model suspend time.
	Boottime = 7
)

// ClockMode identifies whether a record's cycle_last/mult/shift fields
// meaningfully convert hardware ticks, and which counter family backs them.
//
// All counter-backed modes encode as the same value on the page; the
// distinct names document which register each architecture reads.
type ClockMode int32

const (
	// ClockNone means the record carries no usable counter conversion;
	// the monotonic anchor holds raw nanoseconds instead.
	ClockNone ClockMode = 0

	// ClockTSC is the amd64 free-running cycle counter.
	ClockTSC ClockMode = 1

	// ClockCNTVCT is the arm64 virtual counter register.
	ClockCNTVCT ClockMode = 1

	// ClockCSR is the riscv64/loong64 time CSR.
	ClockCSR ClockMode = 1
)

// String implements fmt.Stringer.
func (m ClockMode) String() string {
	switch m {
	case ClockNone:
		return "none"
	case ClockTSC:
		return "counter"
	default:
		return fmt.Sprintf("unknown(%d)", int32(m))
	}
}

// Timestamp pairs whole seconds with a nanosecond remainder.
//
// Nsec is not always raw nanoseconds: for counter-backed anchors it is
// stored left-shifted by the record's current shift (fixed-point fractional
// nanoseconds); in ClockNone mode it is raw. Callers must know the record's
// mode to interpret it.
type Timestamp struct {
	Sec  uint64
	Nsec uint64
}

// Clock is the writer-side state of one clock record.
//
// The zero value is "never initialized": CycleLast == 0 makes the next
// Update adopt its candidate scale unconditionally.
type Clock struct {
	// Mode identifies the backing counter, if any.
	Mode ClockMode

	// CycleLast is the tick count anchoring the current scale; 0 means
	// never initialized.
	CycleLast uint64

	// MaxCycles is reserved for ABIs with multiplication overflow
	// protection. It is serialized but never computed here.
	MaxCycles uint64

	// Mask is applied to tick deltas so counters narrower than 64 bits
	// wrap correctly.
	Mask uint64

	// Mult and Shift scale ticks to nanoseconds:
	// ns ~= (ticks * Mult) >> Shift.
	Mult  uint32
	Shift uint32

	// Base holds the timestamp anchors; see the slot constants.
	Base [Bases]Timestamp
}
