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
)

// Sentinel values reported by CalcMultShift when no shift in range can
// represent the conversion. The page updater treats this pair as "recalibrate
// empirically".
//
// Note that a legitimately saturated multiplier also reads math.MaxUint32;
// the pair is only a sentinel when the shift is 0. The ambiguity is inherited
// from the ABI and deliberately not resolved here.
const (
	SentinelMult  = math.MaxUint32
	SentinelShift = 0
)

// IsSentinel returns whether (mult, shift) is the CalcMultShift failure
// sentinel.
func IsSentinel(mult, shift uint32) bool {
	return mult == SentinelMult && shift == SentinelShift
}

// CalcMultShift computes a fixed-point (mult, shift) pair converting values
// in a `from` frequency domain to a `to` frequency domain, such that
//
//	to_value ~= (from_value * mult) >> shift
//
// holds without 64-bit overflow for from_value accumulated over at most
// maxSec seconds. Larger shifts give better conversion precision, so the
// largest shift (up to 32 fractional bits) that still fits the accumulation
// budget is chosen. If no shift in [1, 32] fits, the sentinel
// (SentinelMult, SentinelShift) is returned.
//
// Preconditions: from != 0.
func CalcMultShift(from, to uint64, maxSec uint32) (mult, shift uint32) {
	if from == 0 {
		panic("CalcMultShift: zero source frequency")
	}

	// Budget the accumulator bits: one bit per bit needed to represent
	// the maximum accumulated from-value beyond 32 bits.
	sftacc := int32(32)
	for tmp := (uint64(maxSec) * from) >> 32; tmp != 0; tmp >>= 1 {
		sftacc--
	}

	for sft := uint32(32); sft >= 1; sft-- {
		// q = round((to << sft) / from), in 128 bits.
		hi := to >> (64 - sft)
		lo := to << sft
		var carry uint64
		lo, carry = bits.Add64(lo, from/2, 0)
		hi += carry

		if hi >= from {
			// The quotient needs more than 64 bits; it cannot fit
			// any accumulation budget unless the budget is already
			// exhausted, in which case the multiplier saturates.
			if sftacc <= 0 {
				return math.MaxUint32, sft
			}
			continue
		}
		q, _ := bits.Div64(hi, lo, from)

		if sftacc <= 0 || q>>uint32(sftacc) == 0 {
			if q > math.MaxUint32 {
				return math.MaxUint32, sft
			}
			return uint32(q), sft
		}
	}
	return SentinelMult, SentinelShift
}
