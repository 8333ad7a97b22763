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

import (
	"math"
	"math/bits"
	"testing"
)

func TestCalcMultShift24MHz(t *testing.T) {
	const (
		from   = 24_000_000
		to     = NanosPerSec
		maxSec = 10
	)
	mult, shift := CalcMultShift(from, to, maxSec)

	// 41.666 ns per tick, expressed with 26 fractional bits: the largest
	// shift whose multiplier still fits 32 bits.
	if mult != 2796202667 || shift != 26 {
		t.Fatalf("CalcMultShift(%d, %d, %d) = (%d, %d), want (2796202667, 26)", from, to, maxSec, mult, shift)
	}

	for _, cycles := range []uint64{12_000_000, 24_000_000, 100_000_000, 239_999_999, from * maxSec} {
		hi, lo := bits.Mul64(cycles, uint64(mult))
		if hi != 0 {
			t.Fatalf("cycles=%d: cycles*mult overflows 64 bits", cycles)
		}
		got := lo >> shift

		// Exact cycles*to/from, via 128-bit intermediate.
		ehi, elo := bits.Mul64(cycles, to)
		want, _ := bits.Div64(ehi%from, elo, from)

		var diff uint64
		if got > want {
			diff = got - want
		} else {
			diff = want - got
		}
		// Relative error must stay under 2^-shift.
		dhi, dlo := bits.Mul64(diff, 1<<shift)
		if dhi != 0 || dlo >= want {
			t.Errorf("cycles=%d: got %d ns, want %d ns; error exceeds 2^-%d", cycles, got, want, shift)
		}
	}
}

func TestCalcMultShiftSentinel(t *testing.T) {
	// A 1 Hz counter against a huge target rate: no shift in [1, 32] can
	// represent the conversion within the accumulation budget.
	mult, shift := CalcMultShift(1, 1<<40, 1)
	if !IsSentinel(mult, shift) {
		t.Errorf("CalcMultShift(1, 1<<40, 1) = (%d, %d), want sentinel", mult, shift)
	}
}

func TestCalcMultShiftSaturatedMult(t *testing.T) {
	// An exhausted accumulation budget saturates the multiplier instead
	// of reporting the sentinel: shift stays nonzero.
	mult, shift := CalcMultShift(1<<50, 1<<51, 8192)
	if mult != math.MaxUint32 || shift != 32 {
		t.Errorf("CalcMultShift(1<<50, 1<<51, 8192) = (%d, %d), want (MaxUint32, 32)", mult, shift)
	}
	if IsSentinel(mult, shift) {
		t.Errorf("saturated multiplier with nonzero shift must not read as the sentinel")
	}
}

func TestCalcMultShiftZeroFrom(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Errorf("CalcMultShift(0, ...) did not panic")
		}
	}()
	CalcMultShift(0, NanosPerSec, 1)
}
