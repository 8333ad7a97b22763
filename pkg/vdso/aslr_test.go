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
	"testing"

	"vkern.dev/vkern/pkg/hostarch"
	"vkern.dev/vkern/pkg/platform/faketime"
)

func TestPickAddressBounds(t *testing.T) {
	const (
		start hostarch.Addr = 0x4000_1000
		end   hostarch.Addr = 0x4000_3064
	)
	windowEnd := userAddrBase + aslrPages*hostarch.PageSize
	for mono := uint64(0); mono < 10_000; mono += 97 {
		for _, subPageOff := range []uint64{0, 100, 4095} {
			base, final := pickAddress(mono, start, end, subPageOff)
			if base < userAddrBase || base >= windowEnd {
				t.Fatalf("mono=%d off=%d: base %#x outside [%#x, %#x)", mono, subPageOff, base, userAddrBase, windowEnd)
			}
			if !base.IsPageAligned() {
				t.Fatalf("mono=%d off=%d: base %#x not page aligned", mono, subPageOff, base)
			}
			if got := final.PageOffset(); got != subPageOff {
				t.Fatalf("mono=%d off=%d: final %#x has page offset %d", mono, subPageOff, final, got)
			}
			if subPageOff == 0 && final != base {
				t.Fatalf("mono=%d: final %#x differs from base %#x with no sub-page offset", mono, final, base)
			}
		}
	}
}

func TestPickAddressDeterministic(t *testing.T) {
	b1, f1 := pickAddress(42, 0x1000, 0x2000, 100)
	b2, f2 := pickAddress(42, 0x1000, 0x2000, 100)
	if b1 != b2 || f1 != f2 {
		t.Errorf("same seed diverged: (%#x, %#x) vs (%#x, %#x)", b1, f1, b2, f2)
	}
}

func TestPickAddressSpread(t *testing.T) {
	// The window has 256 pages; distinct monotonic samples must not
	// collapse onto a handful of them.
	seen := make(map[hostarch.Addr]bool)
	for mono := uint64(0); mono < 4096; mono++ {
		base, _ := pickAddress(mono, 0x5000_0000, 0x5000_4000, 0)
		seen[base] = true
	}
	if len(seen) < 128 {
		t.Errorf("4096 seeds hit only %d distinct pages", len(seen))
	}
}

func TestPickAddressPlatformSeed(t *testing.T) {
	clocks := faketime.New(1)
	clocks.Set(0, 0, 12345)
	base, final := PickAddress(clocks, 0x1000, 0x2000, 64)
	wantBase, wantFinal := pickAddress(12345, 0x1000, 0x2000, 64)
	if base != wantBase || final != wantFinal {
		t.Errorf("got (%#x, %#x), want (%#x, %#x)", base, final, wantBase, wantFinal)
	}
}
