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

// Package memutil provides utilities for working with raw, page-aligned
// memory.
package memutil

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// MapAnon returns a zero-filled, page-aligned anonymous mapping of the given
// size. size must be a multiple of the page size.
func MapAnon(size uint64) ([]byte, error) {
	p, _, errno := unix.RawSyscall6(
		unix.SYS_MMAP,
		0, // suggested address
		uintptr(size),
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_PRIVATE|unix.MAP_ANONYMOUS,
		^uintptr(0), // fd
		0)           // offset
	if errno != 0 {
		return nil, errno
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(p)), int(size)), nil
}

// Unmap unmaps a mapping returned by MapAnon.
func Unmap(slice []byte) error {
	ptr := unsafe.SliceData(slice)
	_, _, errno := unix.RawSyscall6(unix.SYS_MUNMAP, uintptr(unsafe.Pointer(ptr)), uintptr(cap(slice)), 0, 0, 0, 0)
	if errno != 0 {
		return errno
	}
	return nil
}

// BytesAt returns the bytes in [start, start+length) as a slice.
//
// The caller must guarantee that the range stays mapped for the lifetime of
// the returned slice.
func BytesAt(start uintptr, length int) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(start)), length)
}

// AddrOf returns the address of the first byte of slice.
func AddrOf(slice []byte) uintptr {
	return uintptr(unsafe.Pointer(unsafe.SliceData(slice)))
}
