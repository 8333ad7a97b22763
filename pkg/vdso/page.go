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
	"fmt"
	"time"

	"vkern.dev/vkern/pkg/hostarch"
	"vkern.dev/vkern/pkg/log"
	"vkern.dev/vkern/pkg/memutil"
	"vkern.dev/vkern/pkg/platform"
	"vkern.dev/vkern/pkg/vdsotime"
)

// recalibrationLog bounds the noise from degenerate recalibrations on the
// timer tick path.
var recalibrationLog = log.BasicRateLimitedLogger(30 * time.Second)

// DataPage is the kernel-side writer handle over the time distribution
// image.
//
// The image is a single page-aligned allocation, mutated in place for the
// lifetime of the kernel. Userspace maps the same memory read-only and
// synchronizes with the writer only through each record's generation
// counter; everything the reader protocol depends on (seq parity, field
// ordering, one consistent sample per update) is maintained here.
//
// DataPage methods other than Snapshot and Bytes must be called from a
// single logical writer.
type DataPage struct {
	layout Layout
	plat   platform.Platform
	buf    []byte

	// clocks shadows the embedded records. The updater works on the
	// shadow; the result is published to buf under the seqlock.
	clocks [2]vdsotime.Clock
}

// NewDataPage allocates and initializes a data page for arch.
func NewDataPage(arch Arch, plat platform.Platform) (*DataPage, error) {
	l, err := LayoutFor(arch)
	if err != nil {
		return nil, err
	}
	buf, err := memutil.MapAnon(uint64(l.Size))
	if err != nil {
		return nil, fmt.Errorf("cannot allocate %d byte data page: %w", l.Size, err)
	}
	d := &DataPage{layout: l, plat: plat, buf: buf}
	for i := range d.clocks {
		c := &d.clocks[i]
		c.Mode = l.Mode
		c.Mask = ^uint64(0)
		// The pristine image advertises 32 fractional bits; the first
		// update replaces this with a real scale.
		c.Shift = 32
		d.storeRecord(i)
	}
	d.word32(l.HRTimerRes).Store(1)
	return d, nil
}

// Layout returns the page's ABI schema.
func (d *DataPage) Layout() Layout {
	return d.layout
}

// Bytes returns the raw image for the mapping layer. Callers must treat the
// contents as read-only; the writer mutates it in place.
func (d *DataPage) Bytes() []byte {
	return d.buf
}

// PhysicalAddress returns the physical address of the image's first page,
// for installation into target address spaces.
func (d *DataPage) PhysicalAddress() hostarch.Addr {
	return d.plat.VirtToPhys(hostarch.Addr(memutil.AddrOf(d.buf)))
}

// Update publishes a fresh time sample to every embedded record.
//
// The platform clocks are sampled exactly once, and one candidate scale is
// computed from the nominal frequency, so all records in the page stay
// mutually consistent. Each record is rewritten between its seqlock
// brackets; nothing in that window blocks, allocates or fails.
func (d *DataPage) Update() {
	cycleNow := d.plat.Cycles()
	wallNs := d.plat.WallNanos()
	monoNs := d.plat.MonotonicNanos()
	mult, shift := vdsotime.CalcMultShift(d.plat.TicksPerSecond(), vdsotime.NanosPerSec, 10)

	for i := range d.clocks {
		c := &d.clocks[i]
		prevCycle := c.CycleLast

		seq := d.writeSeqCountBegin(i)
		c.Mode = d.layout.Mode
		c.Mask = ^uint64(0)
		c.Update(cycleNow, wallNs, monoNs, mult, shift)
		d.storeRecord(i)
		d.writeSeqCountEnd(i)

		if seq < 10 {
			log.Debugf("vdso: clock %d updated: seq=%d cycle_last=%d mono_ns=%d mult=%d shift=%d",
				i, seq, c.CycleLast, monoNs, c.Mult, c.Shift)
		}
		if vdsotime.IsSentinel(mult, shift) && prevCycle != 0 && c.CycleLast == prevCycle {
			recalibrationLog.Warningf("vdso: clock %d: nothing elapsed since last anchor, keeping previous scale", i)
		}
	}
}

// SetTimezone sets the legacy timezone metadata.
//
// The timezone words are outside every record's seqlock by ABI design;
// configure them before the page is exposed to readers.
func (d *DataPage) SetTimezone(minutesWest, dstTime int32) {
	d.word32(d.layout.TZMinutesWest).Store(uint32(minutesWest))
	d.word32(d.layout.TZDSTTime).Store(uint32(dstTime))
}

// Snapshot returns a consistent copy of record i using the reader protocol:
// retry until the generation counter is even and unchanged across the field
// reads.
//
// The real readers live in the mapped userspace image; Snapshot serves
// kernel-side diagnostics and tests.
func (d *DataPage) Snapshot(i int) vdsotime.Clock {
	for {
		seq := d.readSeqCountBegin(i)
		c := d.loadRecord(i)
		if d.readSeqCountRetry(i, seq) {
			continue
		}
		return c
	}
}

// Seq returns record i's current generation counter.
func (d *DataPage) Seq(i int) uint32 {
	return d.seqWord(i).Load()
}

// storeRecord publishes the shadow record i to the image. The caller holds
// the record's write section open (or is single-threaded initialization).
func (d *DataPage) storeRecord(i int) {
	r := d.layout.Record
	off := d.layout.Clock[i]
	c := &d.clocks[i]

	d.word32(off + r.Mode).Store(uint32(c.Mode))
	d.word64(off + r.CycleLast).Store(c.CycleLast)
	if r.HasMaxCycles {
		d.word64(off + r.MaxCycles).Store(c.MaxCycles)
	}
	d.word64(off + r.Mask).Store(c.Mask)
	d.word32(off + r.Mult).Store(c.Mult)
	d.word32(off + r.Shift).Store(c.Shift)

	base := off + r.Base
	for _, ts := range c.Base {
		d.word64(base).Store(ts.Sec)
		d.word64(base + 8).Store(ts.Nsec)
		base += 16
	}
}

// loadRecord decodes record i from the image.
func (d *DataPage) loadRecord(i int) vdsotime.Clock {
	r := d.layout.Record
	off := d.layout.Clock[i]

	c := vdsotime.Clock{
		Mode:      vdsotime.ClockMode(d.word32(off + r.Mode).Load()),
		CycleLast: d.word64(off + r.CycleLast).Load(),
		Mask:      d.word64(off + r.Mask).Load(),
		Mult:      d.word32(off + r.Mult).Load(),
		Shift:     d.word32(off + r.Shift).Load(),
	}
	if r.HasMaxCycles {
		c.MaxCycles = d.word64(off + r.MaxCycles).Load()
	}
	base := off + r.Base
	for s := range c.Base {
		c.Base[s] = vdsotime.Timestamp{
			Sec:  d.word64(base).Load(),
			Nsec: d.word64(base + 8).Load(),
		}
		base += 16
	}
	return c
}
