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

package platform

import (
	"golang.org/x/sys/unix"

	"vkern.dev/vkern/pkg/hostarch"
	"vkern.dev/vkern/pkg/log"
)

// Host is a Platform backed by the host's clock_gettime.
//
// It exists for tests and inspection tools running as an ordinary process:
// the host monotonic-raw clock stands in for the hardware counter (so the
// nominal frequency is 1 GHz), and address translation is the identity.
type Host struct{}

// NewHost returns a host-clock Platform.
func NewHost() *Host {
	return &Host{}
}

// Cycles implements Platform.Cycles.
func (*Host) Cycles() uint64 {
	return nanos(unix.CLOCK_MONOTONIC_RAW)
}

// WallNanos implements Platform.WallNanos.
func (*Host) WallNanos() uint64 {
	return nanos(unix.CLOCK_REALTIME)
}

// MonotonicNanos implements Platform.MonotonicNanos.
func (*Host) MonotonicNanos() uint64 {
	return nanos(unix.CLOCK_MONOTONIC)
}

// TicksPerSecond implements Platform.TicksPerSecond.
func (*Host) TicksPerSecond() uint64 {
	return 1_000_000_000
}

// VirtToPhys implements Platform.VirtToPhys. A host process has no view of
// physical memory; translation is the identity.
func (*Host) VirtToPhys(addr hostarch.Addr) hostarch.Addr {
	return addr
}

// EnableUserCounterAccess implements Platform.EnableUserCounterAccess. The
// host kernel already arms its own counters.
func (*Host) EnableUserCounterAccess() {
	log.Debugf("host platform: user counter access already armed")
}

func nanos(clockID int32) uint64 {
	var ts unix.Timespec
	if err := unix.ClockGettime(clockID, &ts); err != nil {
		// clock_gettime on the supported clock IDs cannot fail with a
		// valid timespec pointer.
		panic(err)
	}
	return uint64(ts.Nano())
}
