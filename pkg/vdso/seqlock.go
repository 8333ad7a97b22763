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
	"runtime"
	"sync/atomic"
)

// Each clock record is guarded by a generation counter at the front of the
// record: even while stable, odd while a write is in progress, starting at
// 0. Readers never block the writer; they retry until they observe the same
// even generation on both sides of their field reads.
//
// There is exactly one logical writer per page; multi-core callers must
// serialize their updates externally. The begin/end pair asserts that
// invariant rather than enforcing it.

// seqWord returns record i's generation counter.
func (d *DataPage) seqWord(i int) *atomic.Uint32 {
	return d.word32(d.layout.Clock[i] + d.layout.Record.Seq)
}

// writeSeqCountBegin opens a write section on record i and returns the
// pre-write generation. Go's atomics are sequentially consistent, giving
// the release store and full fence the reader protocol requires.
func (d *DataPage) writeSeqCountBegin(i int) uint32 {
	w := d.seqWord(i)
	seq := w.Load()
	if seq%2 != 0 {
		panic("vdso: overlapping write sections on one clock record")
	}
	w.Store(seq + 1)
	return seq
}

// writeSeqCountEnd closes the write section on record i.
func (d *DataPage) writeSeqCountEnd(i int) {
	w := d.seqWord(i)
	seq := w.Load()
	if seq%2 != 1 {
		panic("vdso: out-of-order sequence count")
	}
	w.Store(seq + 1)
}

// readSeqCountBegin returns an even generation for record i, spinning out
// any in-progress write.
func (d *DataPage) readSeqCountBegin(i int) uint32 {
	for {
		if seq := d.seqWord(i).Load(); seq%2 == 0 {
			return seq
		}
		runtime.Gosched()
	}
}

// readSeqCountRetry returns whether a read section that started at seq must
// be retried.
func (d *DataPage) readSeqCountRetry(i int, seq uint32) bool {
	return d.seqWord(i).Load() != seq
}
