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
	"runtime"

	"vkern.dev/vkern/pkg/vdsotime"
)

// Arch identifies one of the supported data-page ABIs.
type Arch string

// Supported architectures.
const (
	AMD64   Arch = "amd64"
	ARM64   Arch = "arm64"
	RISCV64 Arch = "riscv64"
	LOONG64 Arch = "loong64"
)

// Native returns the Arch of the running program.
func Native() Arch {
	return Arch(runtime.GOARCH)
}

// RecordLayout gives the byte offsets of one clock record's fields within
// the record, and the record's total size.
type RecordLayout struct {
	// Size is the record size in bytes, including trailing padding.
	Size int

	// HasMaxCycles is set on ABIs with multiplication overflow
	// protection; their records carry an extra max_cycles word.
	HasMaxCycles bool

	Seq       int
	Mode      int
	CycleLast int
	MaxCycles int
	Mask      int
	Mult      int
	Shift     int
	Base      int
}

var (
	// genericRecord is the clock record shared by ABIs without overflow
	// protection.
	genericRecord = RecordLayout{
		Size:      232,
		Seq:       0,
		Mode:      4,
		CycleLast: 8,
		Mask:      16,
		Mult:      24,
		Shift:     28,
		Base:      32,
	}

	// overflowRecord additionally carries max_cycles between cycle_last
	// and mask.
	overflowRecord = RecordLayout{
		Size:         240,
		HasMaxCycles: true,
		Seq:          0,
		Mode:         4,
		CycleLast:    8,
		MaxCycles:    16,
		Mask:         24,
		Mult:         32,
		Shift:        36,
		Base:         40,
	}
)

// Layout is the byte-exact schema of one architecture's data page.
//
// Every value here is an external contract consumed by the userspace vDSO:
// changing any offset or size breaks deployed binaries and must never happen
// implicitly. The layout test pins each value.
type Layout struct {
	// Arch is the architecture tag this schema belongs to.
	Arch Arch

	// Mode is the counter family backing the records.
	Mode vdsotime.ClockMode

	// VVARPages is the total reserved page count of the mapping,
	// including legacy padding pages beyond the data image.
	VVARPages int

	// Size is the byte size of the data page image, a multiple of the
	// page size.
	Size int

	// Record describes the embedded clock records.
	Record RecordLayout

	// Clock holds each embedded record's byte offset within the image.
	Clock [2]int

	// Timezone and resolution metadata offsets.
	TZMinutesWest int
	TZDSTTime     int
	HRTimerRes    int
}

// layouts is the supported ABI table. A new architecture adds a row here;
// nothing else in the package is architecture-conditional.
var layouts = map[Arch]Layout{
	// Two overflow-protected records behind a 128-byte header pad, with
	// two extra reserved pages in the mapping.
	AMD64: {
		Arch:          AMD64,
		Mode:          vdsotime.ClockTSC,
		VVARPages:     4,
		Size:          4096,
		Record:        overflowRecord,
		Clock:         [2]int{128, 368},
		TZMinutesWest: 608,
		TZDSTTime:     612,
		HRTimerRes:    616,
	},
	// One record at the bottom of each of two pages, metadata between;
	// the split placement satisfies legacy reader expectations.
	ARM64: {
		Arch:          ARM64,
		Mode:          vdsotime.ClockCNTVCT,
		VVARPages:     5,
		Size:          8192,
		Record:        genericRecord,
		Clock:         [2]int{0, 4032},
		TZMinutesWest: 1880,
		TZDSTTime:     1884,
		HRTimerRes:    1888,
	},
	// Two records end to end followed by metadata.
	RISCV64: {
		Arch:          RISCV64,
		Mode:          vdsotime.ClockCSR,
		VVARPages:     2,
		Size:          4096,
		Record:        genericRecord,
		Clock:         [2]int{0, 232},
		TZMinutesWest: 464,
		TZDSTTime:     468,
		HRTimerRes:    472,
	},
	// Same data image as riscv64; the mapping reserves a large legacy
	// region.
	LOONG64: {
		Arch:          LOONG64,
		Mode:          vdsotime.ClockCSR,
		VVARPages:     44,
		Size:          4096,
		Record:        genericRecord,
		Clock:         [2]int{0, 232},
		TZMinutesWest: 464,
		TZDSTTime:     468,
		HRTimerRes:    472,
	},
}

// LayoutFor returns the data page schema for arch.
func LayoutFor(arch Arch) (Layout, error) {
	l, ok := layouts[arch]
	if !ok {
		return Layout{}, fmt.Errorf("no data page layout for architecture %q", arch)
	}
	return l, nil
}
