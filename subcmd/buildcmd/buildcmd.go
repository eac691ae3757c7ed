// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package buildcmd implements the subcommands `build` and `run` which
// build the targets of config_<os>.toml incrementally.
package buildcmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/maruel/subcommands"

	"go.chromium.org/luci/common/cli"
	"go.chromium.org/luci/common/system/signals"

	"go.chromium.org/infra/build/bldcpp/build"
	"go.chromium.org/infra/build/bldcpp/build/buildconfig"
	"go.chromium.org/infra/build/bldcpp/execute"
	"go.chromium.org/infra/build/bldcpp/execute/localexec"
	"go.chromium.org/infra/build/bldcpp/o11y/clog"
	"go.chromium.org/infra/build/bldcpp/pkgs"
	"go.chromium.org/infra/build/bldcpp/sync/semaphore"
	"go.chromium.org/infra/build/bldcpp/ui"
)

const buildUsage = `build the targets in config_<os>.toml.

 $ bldcpp build [-C <dir>] [options]

Sources are compiled only when they or headers they include have changed
since the last successful build.
`

const runUsage = `build the targets, then run the executable.

 $ bldcpp run [-C <dir>] [options] [-- args...]

`

// Cmd returns the Command for the `build` subcommand.
func Cmd() *subcommands.Command {
	return &subcommands.Command{
		UsageLine: "build [-C <dir>] [options]",
		ShortDesc: "build the targets incrementally",
		LongDesc:  buildUsage,
		CommandRun: func() subcommands.CommandRun {
			r := &buildCmdRun{}
			r.init()
			return r
		},
	}
}

// RunCmd returns the Command for the `run` subcommand.
func RunCmd() *subcommands.Command {
	return &subcommands.Command{
		UsageLine: "run [-C <dir>] [options] [-- args...]",
		ShortDesc: "build the targets and run the executable",
		LongDesc:  runUsage,
		CommandRun: func() subcommands.CommandRun {
			r := &buildCmdRun{run: true}
			r.init()
			return r
		},
	}
}

type buildCmdRun struct {
	subcommands.CommandRunBase
	started time.Time
	run     bool

	// flag values
	dir         string
	jobs        int
	genCompdb   bool
	checkDupSrc bool
	configName  string
	verbose     bool
}

func (c *buildCmdRun) init() {
	c.Flags.StringVar(&c.dir, "C", ".", "project directory where config_<os>.toml is")
	c.Flags.IntVar(&c.jobs, "j", 0, "run N compiles in parallel. 0 means number of logical cores")
	c.Flags.BoolVar(&c.genCompdb, "gen_cc", false, "generate compile_commands.json")
	c.Flags.BoolVar(&c.checkDupSrc, "check_dup_src", true, "check sources with the same name in a target")
	c.Flags.StringVar(&c.configName, "config", "", "manifest file name. default is config_<os>.toml")
	c.Flags.BoolVar(&c.verbose, "verbose", false, "show full command lines")
}

// Run runs the `build` or `run` subcommand.
func (c *buildCmdRun) Run(a subcommands.Application, args []string, env subcommands.Env) int {
	c.started = time.Now()
	ctx := cli.GetContext(a, c, env)
	if !c.run && len(args) > 0 {
		fmt.Fprintf(a.GetErr(), "%s: position arguments not expected\n", a.GetName())
		return 2
	}
	stats, err := c.build(ctx, args)
	dur := ui.FormatDuration(time.Since(c.started))
	if err != nil {
		var errFlag flagError
		var errBuild buildError
		var errRun runError
		switch {
		case errors.As(err, &errFlag):
			fmt.Fprintf(os.Stderr, "%v\n", err)
			return 2
		case errors.As(err, &errRun):
			var exitErr execute.ExitError
			if errors.As(errRun.err, &exitErr) {
				return exitErr.ExitCode
			}
			fmt.Fprintf(os.Stderr, "failed to run: %v\n", errRun.err)
		case errors.As(err, &errBuild):
			msgPrefix := "Build Failure"
			var errConfig *build.ConfigError
			if errors.As(errBuild.err, &errConfig) {
				msgPrefix = "Config Failure"
			}
			if ui.IsTerminal() {
				dur = ui.SGR(ui.Bold, dur)
				msgPrefix = ui.SGR(ui.BackgroundRed, msgPrefix)
			}
			fmt.Fprintf(os.Stderr, "\n%6s %s: %d compiled %d failed %d remaining\n %v\n", dur, msgPrefix, stats.Compiled, stats.Fail, stats.Total-stats.Done, errBuild.err)
		default:
			msgPrefix := "Error"
			if ui.IsTerminal() {
				msgPrefix = ui.SGR(ui.BackgroundRed, msgPrefix)
			}
			fmt.Fprintf(os.Stderr, "\n%6s %s: %v\n", dur, msgPrefix, err)
		}
		return 1
	}
	return 0
}

type buildError struct {
	err error
}

func (b buildError) Error() string {
	return b.err.Error()
}

func (b buildError) Unwrap() error {
	return b.err
}

type flagError struct {
	err error
}

func (f flagError) Error() string {
	return f.err.Error()
}

type runError struct {
	err error
}

func (r runError) Error() string {
	return r.err.Error()
}

type errInterrupted struct{}

func (errInterrupted) Error() string        { return "interrupt by signal" }
func (errInterrupted) Is(target error) bool { return target == context.Canceled }

func (c *buildCmdRun) build(ctx context.Context, args []string) (stats build.Stats, err error) {
	ctx, cancel := context.WithCancelCause(ctx)
	defer signals.HandleInterrupt(func() {
		cancel(errInterrupted{})
	})()

	if c.jobs < 0 {
		return stats, flagError{err: fmt.Errorf("-j must be >= 0: %d", c.jobs)}
	}
	err = os.Chdir(c.dir)
	if err != nil {
		return stats, flagError{err: fmt.Errorf("failed to chdir to %s: %w", c.dir, err)}
	}
	wd, err := os.Getwd()
	if err != nil {
		return stats, err
	}
	clog.Infof(ctx, "wd: %s", wd)

	layout := buildconfig.DefaultLayout()
	configName := c.configName
	if configName == "" {
		configName = layout.ManifestName()
	}
	manifest, err := buildconfig.Load(ctx, configName)
	if err != nil {
		return stats, flagError{err: err}
	}

	err = os.MkdirAll(layout.Dir, 0755)
	if err != nil {
		return stats, err
	}
	lock, err := acquireLock(layout.LockFile())
	if err != nil {
		return stats, err
	}
	defer func() {
		if err := lock.release(); err != nil {
			clog.Warningf(ctx, "failed to release %s: %v", layout.LockFile(), err)
		}
	}()

	executor := localexec.LocalExec{}
	err = build.RunHook(ctx, executor, "pre_build", manifest.Build.PreBuild)
	if err != nil {
		return stats, err
	}

	packages, err := c.resolvePackages(ctx, layout, manifest.Build)
	if err != nil {
		return stats, buildError{err: err}
	}

	err = buildconfig.ValidateRoot(ctx, manifest.Targets)
	if err != nil {
		return stats, buildError{err: &build.ConfigError{Msg: err.Error()}}
	}
	if c.checkDupSrc {
		for _, tc := range manifest.Targets {
			err := buildconfig.CheckSources(ctx, tc)
			if err != nil {
				return stats, buildError{err: &build.ConfigError{Target: tc.Name, Msg: "bad sources", Err: err}}
			}
		}
	}

	b, err := build.New(ctx, build.Options{
		Jobs:     c.jobs,
		Executor: executor,
		Layout:   layout,
		Verbose:  c.verbose,
	})
	if err != nil {
		return stats, err
	}
	results, err := b.BuildTargets(ctx, manifest.Build, manifest.Targets, packages)
	stats = b.Stats()
	logSemaphores(ctx)
	if err != nil {
		return stats, buildError{err: err}
	}
	if c.genCompdb {
		err = writeCompdb(ctx, wd, b.Targets())
		if err != nil {
			return stats, err
		}
	}
	c.report(stats, results)

	err = build.RunHook(ctx, executor, "post_build", manifest.Build.PostBuild)
	if err != nil {
		return stats, err
	}
	if !c.run {
		return stats, nil
	}
	return stats, runExecutable(ctx, executor, layout, manifest.Targets, args)
}

func (c *buildCmdRun) resolvePackages(ctx context.Context, layout buildconfig.Layout, bc buildconfig.BuildConfig) ([]*pkgs.Package, error) {
	if len(bc.Packages) == 0 {
		return nil, nil
	}
	spin := ui.Default.NewSpinner()
	spin.Start("resolving %d packages", len(bc.Packages))
	r := &pkgs.Resolver{
		Layout:   layout,
		Fetcher:  pkgs.GitFetcher{},
		Compiler: bc.Compiler,
	}
	packages, err := r.Resolve(ctx, bc.Packages)
	if err != nil {
		spin.Stop(err)
		return nil, err
	}
	spin.Done("resolved %d packages", len(packages))
	return packages, nil
}

func logSemaphores(ctx context.Context) {
	if !clog.V(ctx) {
		return
	}
	for _, name := range semaphore.Names() {
		s, err := semaphore.Lookup(name)
		if err != nil {
			continue
		}
		clog.Debugf(ctx, "semaphore %s: capacity=%d requests=%d", name, s.Capacity(), s.NumRequests())
	}
}

func writeCompdb(ctx context.Context, wd string, targets []*build.Target) error {
	var entries []build.CompdbEntry
	for _, t := range targets {
		entries = append(entries, t.CompileCommands(wd)...)
	}
	const fname = "compile_commands.json"
	err := build.WriteCompdb(fname, entries)
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", fname, err)
	}
	clog.Infof(ctx, "generated %s: %d entries", fname, len(entries))
	return nil
}

func (c *buildCmdRun) report(stats build.Stats, results []build.Result) {
	for _, r := range results {
		for _, w := range r.Warnings {
			msg := r.Target + ": " + w
			if ui.IsTerminal() {
				msg = ui.SGR(ui.Yellow, msg)
			}
			fmt.Fprintln(os.Stderr, msg)
		}
	}
	d := time.Since(c.started)
	dur := ui.FormatDuration(d)
	if stats.Compiled == 0 && stats.Linked == 0 {
		msgPrefix := "Everything is up-to-date"
		if ui.IsTerminal() {
			msgPrefix = ui.SGR(ui.Green, msgPrefix)
		}
		fmt.Fprintf(os.Stderr, "%s Nothing to do.\n", msgPrefix)
		return
	}
	msgPrefix := "Build Succeeded"
	if ui.IsTerminal() {
		dur = ui.SGR(ui.Bold, dur)
		msgPrefix = ui.SGR(ui.Green, msgPrefix)
	}
	fmt.Fprintf(os.Stderr, "%6s %s: %d compiled, %d linked, %d up-to-date, %d warnings - %.02f/s\n", dur, msgPrefix, stats.Compiled, stats.Linked, stats.UpToDate, stats.Warnings, float64(stats.Compiled)/d.Seconds())
}

func runExecutable(ctx context.Context, executor execute.Executor, layout buildconfig.Layout, targets []buildconfig.TargetConfig, args []string) error {
	for _, tc := range targets {
		if tc.IsLibrary() {
			continue
		}
		binPath := layout.BinPath(tc)
		clog.Infof(ctx, "run %s %q", binPath, args)
		cmd := &execute.Cmd{
			ID:      tc.Name,
			Desc:    "RUN " + binPath,
			Args:    append([]string{binPath}, args...),
			Console: true,
		}
		err := executor.Run(ctx, cmd)
		if err != nil {
			return runError{err: err}
		}
		return nil
	}
	return flagError{err: errors.New("no executable target to run")}
}
