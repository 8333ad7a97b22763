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
	"sync/atomic"
	"unsafe"
)

// word32 returns the 4-byte word at off in the image as an atomic.
//
// Record fields are published word-at-a-time so that in-process diagnostic
// readers are exact; external readers see the same bytes since every
// supported architecture is little-endian. Every layout keeps 4-byte fields
// 4-aligned and 8-byte fields 8-aligned; the layout test checks this.
func (d *DataPage) word32(off int) *atomic.Uint32 {
	return (*atomic.Uint32)(unsafe.Pointer(&d.buf[off]))
}

// word64 returns the 8-byte word at off in the image as an atomic.
func (d *DataPage) word64(off int) *atomic.Uint64 {
	return (*atomic.Uint64)(unsafe.Pointer(&d.buf[off]))
}
