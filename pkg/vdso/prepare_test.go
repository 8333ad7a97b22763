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
	"bytes"
	"errors"
	"testing"

	"vkern.dev/vkern/pkg/cleanup"
	"vkern.dev/vkern/pkg/hostarch"
	"vkern.dev/vkern/pkg/memutil"
	"vkern.dev/vkern/pkg/platform/faketime"
)

// testBlob maps a page-aligned region and fills [off, off+length) with a
// recognizable pattern, returning the pattern's address range.
func testBlob(t *testing.T, off, length int) (start, end hostarch.Addr) {
	t.Helper()
	size := uint64(hostarch.Addr(off + length).MustRoundUp())
	buf, err := memutil.MapAnon(size)
	if err != nil {
		t.Fatalf("MapAnon(%d): %v", size, err)
	}
	t.Cleanup(func() { memutil.Unmap(buf) })
	for i := 0; i < length; i++ {
		buf[off+i] = byte(i)
	}
	start = hostarch.Addr(memutil.AddrOf(buf)) + hostarch.Addr(off)
	return start, start + hostarch.Addr(length)
}

func TestPrepareAligned(t *testing.T) {
	start, end := testBlob(t, 0, 10000)
	info, err := Prepare(faketime.New(1), start, end)
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if info.Alloc != nil {
		t.Errorf("aligned blob allocated a copy: %+v", info.Alloc)
	}
	if info.Size != 12288 {
		t.Errorf("Size: got %d, want 12288", info.Size)
	}
	if info.PageOffset != 0 {
		t.Errorf("PageOffset: got %d, want 0", info.PageOffset)
	}
	// Identity translation: the blob is served in place.
	if info.Phys != start {
		t.Errorf("Phys: got %#x, want %#x", info.Phys, start)
	}
	if got := hostarch.Addr(memutil.AddrOf(info.Bytes)); got != start || len(info.Bytes) != 10000 {
		t.Errorf("Bytes: got %d bytes at %#x, want 10000 at %#x", len(info.Bytes), got, start)
	}
}

func TestPrepareMisaligned(t *testing.T) {
	const (
		off    = 100
		length = 5000
	)
	start, end := testBlob(t, off, length)
	info, err := Prepare(faketime.New(1), start, end)
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if info.Alloc == nil {
		t.Fatal("misaligned blob returned no allocation")
	}
	defer info.Alloc.Free()

	if info.Size != 8192 {
		t.Errorf("Size: got %d, want 8192", info.Size)
	}
	if info.PageOffset != off {
		t.Errorf("PageOffset: got %d, want %d", info.PageOffset, off)
	}
	if !info.Alloc.Address().IsPageAligned() {
		t.Errorf("allocation at %#x is not page aligned", info.Alloc.Address())
	}
	if got := info.Alloc.Pages(); got != 2 {
		t.Errorf("Pages: got %d, want 2", got)
	}
	// The copy sits at the original sub-page offset within the buffer.
	if got, want := memutil.AddrOf(info.Bytes), uintptr(info.Alloc.Address())+off; got != want {
		t.Errorf("Bytes at %#x, want %#x", got, want)
	}
	want := make([]byte, length)
	for i := range want {
		want[i] = byte(i)
	}
	if !bytes.Equal(info.Bytes, want) {
		t.Error("copied blob content does not match the original")
	}
	// Bytes outside the copy stay zero.
	page := memutil.BytesAt(uintptr(info.Alloc.Address()), int(info.Size))
	for i := 0; i < off; i++ {
		if page[i] != 0 {
			t.Fatalf("leading pad byte %d is %#x, want 0", i, page[i])
		}
	}
}

func TestPrepareInvalidRange(t *testing.T) {
	if _, err := Prepare(faketime.New(1), 0x2000, 0x1000); !errors.Is(err, ErrAllocation) {
		t.Errorf("inverted range: got %v, want ErrAllocation", err)
	}
	if _, err := Prepare(faketime.New(1), 0x1064, ^hostarch.Addr(0)); !errors.Is(err, ErrAllocation) {
		t.Errorf("overflowing range: got %v, want ErrAllocation", err)
	}
}

func TestAllocationGuard(t *testing.T) {
	start, end := testBlob(t, 100, 5000)
	info, err := Prepare(faketime.New(1), start, end)
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}

	// The mapping-layer pattern: the guard frees on early exit, Release
	// transfers ownership once the mapping is committed.
	cu := cleanup.Make(info.Alloc.Free)
	committed := info.Alloc.Address()
	free := cu.Release()
	cu.Clean()

	if got := info.Alloc.Address(); got != committed {
		t.Errorf("disarmed guard freed the allocation: address %#x, want %#x", got, committed)
	}
	free()
	if got := info.Alloc.Pages(); got != 0 {
		t.Errorf("transferred free did not release: %d pages held", got)
	}
	// Free is idempotent.
	info.Alloc.Free()
}
