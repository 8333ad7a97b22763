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

// Package platform defines the interface between the timekeeping core and
// the machine it runs on.
//
// The timekeeping core never defines what "now" means; it only converts and
// redistributes the values a Platform hands it.
package platform

import "vkern.dev/vkern/pkg/hostarch"

// Platform provides the clocks and address translation the vDSO data page
// is built from.
type Platform interface {
	// Cycles returns the current hardware tick count.
	Cycles() uint64

	// WallNanos returns the current wall-clock time in nanoseconds.
	WallNanos() uint64

	// MonotonicNanos returns the current monotonic time in nanoseconds.
	MonotonicNanos() uint64

	// TicksPerSecond returns the nominal counter frequency in Hz.
	//
	// Must be nonzero and constant for the life of the platform.
	TicksPerSecond() uint64

	// VirtToPhys translates a kernel virtual address to the physical
	// address userspace mappings are built from.
	VirtToPhys(addr hostarch.Addr) hostarch.Addr

	// EnableUserCounterAccess performs any privileged setup required
	// before userspace may read the cycle counter directly (e.g.
	// unlocking the virtual counter registers on arm64). Idempotent.
	EnableUserCounterAccess()
}
