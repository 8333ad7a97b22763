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

// Package faketime provides a deterministic platform.Platform for tests.
package faketime

import (
	"sync"

	"vkern.dev/vkern/pkg/hostarch"
)

// Clocks is a platform.Platform that returns exactly the values stored in
// it. The zero value has all clocks at zero; most tests want New.
type Clocks struct {
	mu        sync.Mutex
	ticks     uint64
	wall      uint64
	mono      uint64
	frequency uint64
	armed     bool
}

// New returns Clocks with the given nominal counter frequency.
func New(frequency uint64) *Clocks {
	return &Clocks{frequency: frequency}
}

// Set replaces the current tick count, wall nanoseconds and monotonic
// nanoseconds.
func (c *Clocks) Set(ticks, wallNs, monoNs uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ticks, c.wall, c.mono = ticks, wallNs, monoNs
}

// Advance moves all clocks forward: the counter by ticks, both time clocks
// by ns.
func (c *Clocks) Advance(ticks, ns uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ticks += ticks
	c.wall += ns
	c.mono += ns
}

// Cycles implements platform.Platform.Cycles.
func (c *Clocks) Cycles() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ticks
}

// WallNanos implements platform.Platform.WallNanos.
func (c *Clocks) WallNanos() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.wall
}

// MonotonicNanos implements platform.Platform.MonotonicNanos.
func (c *Clocks) MonotonicNanos() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mono
}

// TicksPerSecond implements platform.Platform.TicksPerSecond.
func (c *Clocks) TicksPerSecond() uint64 {
	return c.frequency
}

// VirtToPhys implements platform.Platform.VirtToPhys with the identity
// translation.
func (c *Clocks) VirtToPhys(addr hostarch.Addr) hostarch.Addr {
	return addr
}

// EnableUserCounterAccess implements
// platform.Platform.EnableUserCounterAccess.
func (c *Clocks) EnableUserCounterAccess() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.armed = true
}

// Armed returns whether EnableUserCounterAccess has been called.
func (c *Clocks) Armed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.armed
}
