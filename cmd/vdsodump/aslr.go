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

	"github.com/google/subcommands"

	"vkern.dev/vkern/pkg/cleanup"
	"vkern.dev/vkern/pkg/hostarch"
	"vkern.dev/vkern/pkg/memutil"
	"vkern.dev/vkern/pkg/platform"
	"vkern.dev/vkern/pkg/vdso"
)

// aslrCmd implements subcommands.Command for the "aslr" command.
type aslrCmd struct {
	samples int
	offset  uint64
	size    uint64
}

// Name implements subcommands.Command.
func (*aslrCmd) Name() string {
	return "aslr"
}

// Synopsis implements subcommands.Command.
func (*aslrCmd) Synopsis() string {
	return "prepares a synthetic blob and samples randomized load addresses"
}

// Usage implements subcommands.Command.
func (*aslrCmd) Usage() string {
	return `aslr [-n <samples>] [-offset <bytes>] [-size <bytes>]
`
}

// SetFlags implements subcommands.Command.
func (a *aslrCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&a.samples, "n", 8, "number of placements to sample")
	f.Uint64Var(&a.offset, "offset", 100, "sub-page offset of the synthetic blob")
	f.Uint64Var(&a.size, "size", 5000, "size of the synthetic blob in bytes")
}

// Execute implements subcommands.Command.Execute.
func (a *aslrCmd) Execute(context.Context, *flag.FlagSet, ...any) subcommands.ExitStatus {
	if a.offset >= hostarch.PageSize {
		fatalf("offset %d is not a sub-page offset", a.offset)
	}

	// Stage a synthetic blob the way the mapping layer would stage a real
	// vDSO image.
	backing, err := memutil.MapAnon(uint64(hostarch.Addr(a.offset + a.size).MustRoundUp()))
	if err != nil {
		fatalf("allocating synthetic blob: %v", err)
	}
	defer memutil.Unmap(backing)
	start := hostarch.Addr(memutil.AddrOf(backing)) + hostarch.Addr(a.offset)
	end := start + hostarch.Addr(a.size)

	host := platform.NewHost()
	info, err := vdso.Prepare(host, start, end)
	if err != nil {
		fatalf("preparing blob: %v", err)
	}
	if info.Alloc != nil {
		cu := cleanup.Make(info.Alloc.Free)
		defer cu.Clean()
	}
	fmt.Printf("blob: [%#x, %#x) staged at phys=%#x size=%d sub-page offset=%d copied=%t\n",
		start, end, info.Phys, info.Size, info.PageOffset, info.Alloc != nil)

	for n := 0; n < a.samples; n++ {
		base, final := vdso.PickAddress(host, start, end, info.PageOffset)
		fmt.Printf("  base=%#x final=%#x\n", base, final)
	}
	return subcommands.ExitSuccess
}
