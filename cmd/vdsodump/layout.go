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

package main

import (
	"context"
	"flag"
	"fmt"
	"runtime"

	"github.com/google/subcommands"

	"vkern.dev/vkern/pkg/vdso"
)

// layoutCmd implements subcommands.Command for the "layout" command.
type layoutCmd struct {
	arch string
}

// Name implements subcommands.Command.
func (*layoutCmd) Name() string {
	return "layout"
}

// Synopsis implements subcommands.Command.
func (*layoutCmd) Synopsis() string {
	return "prints the data page ABI schema for an architecture"
}

// Usage implements subcommands.Command.
func (*layoutCmd) Usage() string {
	return `layout [-arch <arch>]
`
}

// SetFlags implements subcommands.Command.
func (l *layoutCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&l.arch, "arch", runtime.GOARCH, "architecture to describe")
}

// Execute implements subcommands.Command.Execute.
func (l *layoutCmd) Execute(context.Context, *flag.FlagSet, ...any) subcommands.ExitStatus {
	layout, err := vdso.LayoutFor(vdso.Arch(l.arch))
	if err != nil {
		fatalf("%v", err)
	}

	fmt.Printf("arch:           %s\n", layout.Arch)
	fmt.Printf("counter mode:   %s\n", layout.Mode)
	fmt.Printf("image size:     %d bytes\n", layout.Size)
	fmt.Printf("reserved pages: %d\n", layout.VVARPages)
	fmt.Printf("tz_minuteswest: %d\n", layout.TZMinutesWest)
	fmt.Printf("tz_dsttime:     %d\n", layout.TZDSTTime)
	fmt.Printf("hrtimer_res:    %d\n", layout.HRTimerRes)

	r := layout.Record
	fmt.Printf("record size:    %d bytes\n", r.Size)
	for i, off := range layout.Clock {
		fmt.Printf("clock %d at %d:\n", i, off)
		fmt.Printf("  seq        %d\n", off+r.Seq)
		fmt.Printf("  mode       %d\n", off+r.Mode)
		fmt.Printf("  cycle_last %d\n", off+r.CycleLast)
		if r.HasMaxCycles {
			fmt.Printf("  max_cycles %d\n", off+r.MaxCycles)
		}
		fmt.Printf("  mask       %d\n", off+r.Mask)
		fmt.Printf("  mult       %d\n", off+r.Mult)
		fmt.Printf("  shift      %d\n", off+r.Shift)
		fmt.Printf("  base       %d\n", off+r.Base)
	}
	return subcommands.ExitSuccess
}
