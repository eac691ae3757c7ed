// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package version provides version subcommand.
package version

import (
	"fmt"
	"io"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/klauspost/cpuid/v2"
	"github.com/maruel/subcommands"
)

// Cmd returns the Command for the `version` subcommand provided by this package.
func Cmd(ver string) *subcommands.Command {
	return &subcommands.Command{
		UsageLine: "version",
		ShortDesc: "prints the executable version",
		LongDesc:  "Prints the executable version, the Go runtime and the host CPU.",
		CommandRun: func() subcommands.CommandRun {
			r := &versionRun{version: ver}
			r.init()
			return r
		},
	}
}

type versionRun struct {
	subcommands.CommandRunBase
	version string
	cpu     bool
}

func (c *versionRun) init() {
	c.Flags.BoolVar(&c.cpu, "cpu", true, "show host cpu info.")
}

func (c *versionRun) Run(a subcommands.Application, args []string, env subcommands.Env) int {
	if len(args) != 0 {
		fmt.Fprintf(a.GetErr(), "%s: position arguments not expected\n", a.GetName())
		return 1
	}
	fmt.Fprintln(a.GetOut(), c.version)
	printBuildInfo(a.GetOut())
	if c.cpu {
		printCPUInfo(a.GetOut())
	}
	return 0
}

func printBuildInfo(w io.Writer) {
	fmt.Fprintf(w, "go\t%s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
	buildInfo, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	for _, s := range buildInfo.Settings {
		if strings.HasPrefix(s.Key, "vcs.") {
			fmt.Fprintf(w, "build\t%s=%s\n", s.Key, s.Value)
		}
	}
}

func printCPUInfo(w io.Writer) {
	fmt.Fprintf(w, "cpu\t%s\n", cpuid.CPU.BrandName)
	fmt.Fprintf(w, "cores\tphysical=%d logical=%d threads/core=%d\n", cpuid.CPU.PhysicalCores, cpuid.CPU.LogicalCores, cpuid.CPU.ThreadsPerCore)
	fmt.Fprintf(w, "numcpu\t%d\n", runtime.NumCPU())
}
