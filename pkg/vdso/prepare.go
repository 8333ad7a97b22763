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
	"errors"
	"fmt"

	"vkern.dev/vkern/pkg/cleanup"
	"vkern.dev/vkern/pkg/hostarch"
	"vkern.dev/vkern/pkg/memutil"
	"vkern.dev/vkern/pkg/platform"
)

// ErrAllocation indicates that a blob could not be staged into a
// page-aligned buffer.
var ErrAllocation = errors.New("vdso blob allocation failed")

// Allocation is an owned page-aligned buffer backing a prepared blob. The
// holder must eventually Free it, or transfer that obligation with a
// cleanup guard.
type Allocation struct {
	buf []byte
}

// Address returns the buffer's address in the kernel address space.
func (a *Allocation) Address() hostarch.Addr {
	return hostarch.Addr(memutil.AddrOf(a.buf))
}

// Pages returns the buffer's length in pages.
func (a *Allocation) Pages() int {
	return len(a.buf) / hostarch.PageSize
}

// Free releases the buffer. Free is idempotent.
func (a *Allocation) Free() {
	if a.buf == nil {
		return
	}
	memutil.Unmap(a.buf)
	a.buf = nil
}

// PageInfo describes a blob staged for mapping into a user address space.
type PageInfo struct {
	// Phys is the physical address of the first page.
	Phys hostarch.Addr

	// Bytes is the blob content within the staged pages. It borrows
	// either the original blob or Alloc's buffer.
	Bytes []byte

	// Size is the staged extent in bytes, a multiple of the page size.
	Size uint64

	// PageOffset is the blob's offset within its first page.
	PageOffset uint64

	// Alloc is non-nil when staging required a copy; the caller owns it
	// once Prepare returns and must keep it alive for the lifetime of
	// the mapping.
	Alloc *Allocation
}

// Prepare stages the blob at [start, end) in the kernel address space for
// mapping into user address spaces.
//
// A page-aligned blob is served in place with no allocation. A misaligned
// blob is copied into a fresh zero-filled page-aligned buffer at its
// original sub-page offset, preserving the offset the blob's internal
// references were linked against. Failures wrap ErrAllocation and leak
// nothing.
func Prepare(plat platform.Platform, start, end hostarch.Addr) (PageInfo, error) {
	if end < start {
		return PageInfo{}, fmt.Errorf("invalid blob range [%#x, %#x): %w", start, end, ErrAllocation)
	}
	length := uint64(end - start)
	off := start.PageOffset()

	if off == 0 {
		size, ok := hostarch.Addr(length).RoundUp()
		if !ok {
			return PageInfo{}, fmt.Errorf("blob size %#x overflows when aligned: %w", length, ErrAllocation)
		}
		return PageInfo{
			Phys:  plat.VirtToPhys(start),
			Bytes: memutil.BytesAt(uintptr(start), int(length)),
			Size:  uint64(size),
		}, nil
	}

	size, ok := hostarch.Addr(off).AddLength(length)
	if !ok {
		return PageInfo{}, fmt.Errorf("blob size %#x at offset %#x overflows: %w", length, off, ErrAllocation)
	}
	size, ok = size.RoundUp()
	if !ok {
		return PageInfo{}, fmt.Errorf("blob size %#x at offset %#x overflows when aligned: %w", length, off, ErrAllocation)
	}

	buf, err := memutil.MapAnon(uint64(size))
	if err != nil {
		return PageInfo{}, fmt.Errorf("cannot allocate %d bytes for blob copy: %w (%w)", size, err, ErrAllocation)
	}
	cu := cleanup.Make(func() {
		memutil.Unmap(buf)
	})
	defer cu.Clean()

	copy(buf[off:], memutil.BytesAt(uintptr(start), int(length)))

	cu.Release()
	return PageInfo{
		Phys:       plat.VirtToPhys(hostarch.Addr(memutil.AddrOf(buf))),
		Bytes:      buf[off : off+length],
		Size:       uint64(size),
		PageOffset: uint64(off),
		Alloc:      &Allocation{buf: buf},
	}, nil
}
