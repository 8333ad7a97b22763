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

package hostarch

import "testing"

func TestRoundUp(t *testing.T) {
	for _, test := range []struct {
		addr Addr
		want Addr
		ok   bool
	}{
		{addr: 0, want: 0, ok: true},
		{addr: 1, want: PageSize, ok: true},
		{addr: PageSize, want: PageSize, ok: true},
		{addr: PageSize + 1, want: 2 * PageSize, ok: true},
		{addr: 10000, want: 12288, ok: true},
		{addr: ^Addr(0) - 10, want: 0, ok: false},
	} {
		got, ok := test.addr.RoundUp()
		if ok != test.ok || (ok && got != test.want) {
			t.Errorf("Addr(%#x).RoundUp() = (%#x, %t), want (%#x, %t)", test.addr, got, ok, test.want, test.ok)
		}
	}
}

func TestAddLengthOverflow(t *testing.T) {
	if _, ok := Addr(^uintptr(0)).AddLength(2); ok {
		t.Errorf("AddLength: got ok, want overflow")
	}
	end, ok := Addr(0x1000).AddLength(0x234)
	if !ok || end != 0x1234 {
		t.Errorf("AddLength: got (%#x, %t), want (0x1234, true)", end, ok)
	}
}

func TestPageOffset(t *testing.T) {
	if got := Addr(0x7f001234).PageOffset(); got != 0x234 {
		t.Errorf("PageOffset: got %#x, want 0x234", got)
	}
	if !Addr(0x7f000000).IsPageAligned() {
		t.Errorf("IsPageAligned: got false, want true")
	}
	if Addr(0x7f000100).IsPageAligned() {
		t.Errorf("IsPageAligned: got true, want false")
	}
}
