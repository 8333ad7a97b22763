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

// Package vdso maintains the kernel's vDSO time distribution pages.
//
// The kernel owns one process-wide data page image holding seqlocked clock
// records in the byte-exact layout the userspace vDSO expects for the
// running architecture. A periodic timer tick refreshes the records; the
// mapping layer hands the page to user address spaces read-only.
//
// The package also prepares prebuilt vDSO code blobs for mapping (page
// alignment with ownership-guarded allocation) and picks randomized load
// addresses for them.
package vdso

import (
	"sync"

	"vkern.dev/vkern/pkg/hostarch"
	"vkern.dev/vkern/pkg/log"
	"vkern.dev/vkern/pkg/platform"
)

// The process-wide data page. Guarded by initOnce; after Init succeeds the
// only mutator is TickUpdate, and that is serialized by the caller's timer.
var (
	initOnce sync.Once
	initErr  error
	dataPage *DataPage
)

// Init builds the process-wide data page for the native architecture, arms
// userspace access to the hardware counter, and publishes the first time
// sample. Init is idempotent; every call returns the first call's result.
func Init(plat platform.Platform) error {
	initOnce.Do(func() {
		var d *DataPage
		d, initErr = NewDataPage(Native(), plat)
		if initErr != nil {
			return
		}
		plat.EnableUserCounterAccess()
		d.Update()
		dataPage = d
		log.Infof("vdso: %s data page initialized at physical address %#x", d.layout.Arch, d.PhysicalAddress())
	})
	return initErr
}

// Page returns the process-wide data page, or nil before Init.
func Page() *DataPage {
	return dataPage
}

// TickUpdate refreshes the process-wide data page with a fresh time sample.
// It is called from the periodic timer tick, strictly one invocation at a
// time. Init must have succeeded.
func TickUpdate() {
	dataPage.Update()
}

// DataPagePhysicalAddress returns the physical address of the process-wide
// data page for installation into target address spaces. Init must have
// succeeded.
func DataPagePhysicalAddress() hostarch.Addr {
	return dataPage.PhysicalAddress()
}
