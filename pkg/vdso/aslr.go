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

package vdso

import (
	"math/rand/v2"

	"vkern.dev/vkern/pkg/hostarch"
	"vkern.dev/vkern/pkg/platform"
)

const (
	// userAddrBase is the bottom of the randomization window in user
	// address spaces.
	userAddrBase hostarch.Addr = 0x7f00_0000

	// aslrPages is the randomization window size.
	aslrPages = 256
)

// PickAddress chooses a randomized user virtual address for mapping the
// blob at [start, end) with the given sub-page offset.
//
// base is the page-aligned mapping address, drawn from a 256-page window
// above userAddrBase. final is where the blob content itself lands: base
// plus the sub-page offset, so the blob's internal references keep the
// page congruence they were linked against.
func PickAddress(plat platform.Platform, start, end hostarch.Addr, subPageOff uint64) (base, final hostarch.Addr) {
	return pickAddress(plat.MonotonicNanos(), start, end, subPageOff)
}

func pickAddress(monoNs uint64, start, end hostarch.Addr, subPageOff uint64) (base, final hostarch.Addr) {
	// 128-bit seed: monotonic time XORed with the blob bounds, each
	// rotated left within the 128-bit word (13 and 37 bits).
	seedLo := monoNs ^ (uint64(start) << 13) ^ (uint64(end) << 37)
	seedHi := (uint64(start) >> 51) ^ (uint64(end) >> 27)
	rng := rand.NewPCG(seedHi, seedLo)

	page := rng.Uint64() % aslrPages
	base = userAddrBase + hostarch.Addr(page*hostarch.PageSize)
	final = base
	if subPageOff != 0 {
		final += hostarch.Addr(subPageOff)
	}
	return base, final
}
