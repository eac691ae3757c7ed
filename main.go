// Copyright 2023 The Chromium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// bldcpp is an incremental build tool for C/C++ projects.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/google/uuid"
	"github.com/maruel/subcommands"

	"go.chromium.org/luci/common/cli"

	"go.chromium.org/infra/build/bldcpp/o11y/clog"
	"go.chromium.org/infra/build/bldcpp/subcmd/buildcmd"
	"go.chromium.org/infra/build/bldcpp/subcmd/clean"
	"go.chromium.org/infra/build/bldcpp/subcmd/help"
	"go.chromium.org/infra/build/bldcpp/subcmd/pkgcmd"
	"go.chromium.org/infra/build/bldcpp/subcmd/version"
	"go.chromium.org/infra/build/bldcpp/ui"
)

const executableVersion = "v0.1.0"

func getApplication(logger *clog.Logger) *cli.Application {
	return &cli.Application{
		Name:  "bldcpp",
		Title: "Incremental build tool for C/C++ projects",
		Context: func(ctx context.Context) context.Context {
			return clog.NewContext(ctx, logger)
		},
		Commands: []*subcommands.Command{
			buildcmd.Cmd(),
			buildcmd.RunCmd(),
			clean.Cmd(),
			pkgcmd.Cmd(),

			help.Cmd(),
			version.Cmd(executableVersion),
		},
		EnvVars: map[string]subcommands.EnvVarDefinition{
			"BLDCPP_LOG_LEVEL": {ShortDesc: "default log level"},
			"BLDCPP_LIMITS":    {ShortDesc: "concurrency limits, e.g. compile=8,scan=16"},
		},
	}
}

func main() {
	os.Exit(bldcppMain())
}

func bldcppMain() (exitCode int) {
	ui.Init()
	defer ui.Restore()

	logLevel := flag.String("log_level", os.Getenv("BLDCPP_LOG_LEVEL"), "log level: debug, info, warn or error")
	flag.Usage = func() {
		out := flag.CommandLine.Output()
		fmt.Fprintf(out, "Usage of %s:\n", os.Args[0])
		fmt.Fprintf(out, "  %s [global flags] <command> [flags]\n", os.Args[0])
		fmt.Fprintf(out, "global flags:\n")
		flag.PrintDefaults()
		fmt.Fprintf(out, "Run `%s help` for commands.\n", os.Args[0])
	}
	flag.Parse()

	level, err := clog.ParseLevel(*logLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	logger := clog.Stderr(level)
	clog.SetDefault(logger)
	logger.Debugf("build id: %s", uuid.New())

	// Print a stack trace when a panic occurs.
	defer func() {
		if r := recover(); r != nil {
			const size = 64 << 10
			buf := make([]byte, size)
			buf = buf[:runtime.Stack(buf, false)]
			logger.Errorf("panic: %v\n%s", r, buf)
			exitCode = 1
		}
	}()

	buildinfo, ok := debug.ReadBuildInfo()
	if ok {
		logger.Debugf("main module: %s %s", moduleInfo(&buildinfo.Main), vcsInfo(buildinfo))
		for _, m := range buildinfo.Deps {
			logger.Debugf("deps module: %s", moduleInfo(m))
		}
	}

	args := flag.Args()
	if len(args) == 0 {
		args = []string{"help"}
	}
	return subcommands.Run(getApplication(logger), args)
}

func moduleInfo(m *debug.Module) string {
	if m == nil {
		return "<nil>"
	}
	return fmt.Sprintf("path:%s version:%s sum:%s replace:%s", m.Path, m.Version, m.Sum, moduleInfo(m.Replace))
}

func vcsInfo(buildinfo *debug.BuildInfo) string {
	m := make(map[string]string)
	for _, bs := range buildinfo.Settings {
		if strings.HasPrefix(bs.Key, "vcs.") {
			m[bs.Key] = bs.Value
		}
	}
	return fmt.Sprintf("vcs[revision=%s time=%s modified=%s]", m["vcs.revision"], m["vcs.time"], m["vcs.modified"])
}
