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
	"time"

	"github.com/google/subcommands"

	"vkern.dev/vkern/pkg/platform"
	"vkern.dev/vkern/pkg/vdso"
	"vkern.dev/vkern/pkg/vdsotime"
)

// dumpCmd implements subcommands.Command for the "dump" command.
type dumpCmd struct {
	count    int
	interval time.Duration
}

// Name implements subcommands.Command.
func (*dumpCmd) Name() string {
	return "dump"
}

// Synopsis implements subcommands.Command.
func (*dumpCmd) Synopsis() string {
	return "runs the updater on host clocks and prints record snapshots"
}

// Usage implements subcommands.Command.
func (*dumpCmd) Usage() string {
	return `dump [-count <n>] [-interval <duration>]
`
}

// SetFlags implements subcommands.Command.
func (d *dumpCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&d.count, "count", 3, "number of tick updates to run")
	f.DurationVar(&d.interval, "interval", 100*time.Millisecond, "delay between tick updates")
}

// Execute implements subcommands.Command.Execute.
func (d *dumpCmd) Execute(context.Context, *flag.FlagSet, ...any) subcommands.ExitStatus {
	if err := vdso.Init(platform.NewHost()); err != nil {
		fatalf("initializing data page: %v", err)
	}
	page := vdso.Page()
	fmt.Printf("data page: arch=%s phys=%#x\n", page.Layout().Arch, vdso.DataPagePhysicalAddress())

	for n := 0; n < d.count; n++ {
		if n > 0 {
			time.Sleep(d.interval)
			vdso.TickUpdate()
		}
		for i := range page.Layout().Clock {
			printClock(i, page.Seq(i), page.Snapshot(i))
		}
	}
	return subcommands.ExitSuccess
}

func printClock(i int, seq uint32, c vdsotime.Clock) {
	fmt.Printf("clock %d: seq=%d mode=%s cycle_last=%d mask=%#x mult=%d shift=%d\n",
		i, seq, c.Mode, c.CycleLast, c.Mask, c.Mult, c.Shift)
	for _, s := range []struct {
		slot int
		name string
	}{
		{vdsotime.Realtime, "realtime"},
		{vdsotime.Monotonic, "monotonic"},
		{vdsotime.Boottime, "boottime"},
	} {
		ts := c.Base[s.slot]
		fmt.Printf("  %-9s sec=%d nsec=%d (>>%d: %d ns)\n", s.name, ts.Sec, ts.Nsec, c.Shift, ts.Nsec>>c.Shift)
	}
}
