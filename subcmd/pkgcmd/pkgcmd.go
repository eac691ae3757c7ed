// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package pkgcmd provides pkg subcommand to maintain fetched packages.
package pkgcmd

import (
	"context"
	"fmt"
	"os"

	"github.com/hashicorp/go-multierror"
	"github.com/maruel/subcommands"

	"go.chromium.org/luci/common/cli"

	"go.chromium.org/infra/build/bldcpp/build/buildconfig"
	"go.chromium.org/infra/build/bldcpp/execute"
	"go.chromium.org/infra/build/bldcpp/execute/localexec"
	"go.chromium.org/infra/build/bldcpp/pkgs"
	"go.chromium.org/infra/build/bldcpp/ui"
)

const pkgUsage = `maintain packages fetched in .bld_cpp/sources.

 $ bldcpp pkg [-C <dir>] update
    pull the latest commit of each package's branch.

 $ bldcpp pkg [-C <dir>] restore
    reset each package to its branch, discarding local changes.
`

// Cmd returns the Command for the `pkg` subcommand provided by this package.
func Cmd() *subcommands.Command {
	return &subcommands.Command{
		UsageLine: "pkg [-C <dir>] update|restore",
		ShortDesc: "update or restore packages",
		LongDesc:  pkgUsage,
		CommandRun: func() subcommands.CommandRun {
			r := &pkgRun{}
			r.init()
			return r
		},
	}
}

type pkgRun struct {
	subcommands.CommandRunBase
	dir        string
	configName string
}

func (c *pkgRun) init() {
	c.Flags.StringVar(&c.dir, "C", ".", "project directory where config_<os>.toml is")
	c.Flags.StringVar(&c.configName, "config", "", "manifest file name. default is config_<os>.toml")
}

func (c *pkgRun) Run(a subcommands.Application, args []string, env subcommands.Env) int {
	ctx := cli.GetContext(a, c, env)
	if len(args) != 1 {
		fmt.Fprintf(a.GetErr(), "%s: need update or restore\n", a.GetName())
		return 2
	}
	var op Op
	switch args[0] {
	case "update":
		op = Update
	case "restore":
		op = Restore
	default:
		fmt.Fprintf(a.GetErr(), "%s: unknown pkg command %q. need update or restore\n", a.GetName(), args[0])
		return 2
	}
	err := os.Chdir(c.dir)
	if err != nil {
		fmt.Fprintf(a.GetErr(), "failed to chdir to %s: %v\n", c.dir, err)
		return 1
	}
	layout := buildconfig.DefaultLayout()
	configName := c.configName
	if configName == "" {
		configName = layout.ManifestName()
	}
	manifest, err := buildconfig.Load(ctx, configName)
	if err != nil {
		fmt.Fprintf(a.GetErr(), "%v\n", err)
		return 1
	}
	r := &pkgs.Resolver{
		Layout:   layout,
		Fetcher:  pkgs.GitFetcher{},
		Compiler: manifest.Build.Compiler,
	}
	packages, err := r.Resolve(ctx, manifest.Build.Packages)
	if err != nil {
		fmt.Fprintf(a.GetErr(), "%v\n", err)
		return 1
	}
	spin := ui.Default.NewSpinner()
	spin.Start("%s %d packages", args[0], len(packages))
	err = Apply(ctx, localexec.LocalExec{}, layout, packages, op)
	if err != nil {
		spin.Stop(err)
		return 1
	}
	spin.Done("%s %d packages", args[0], len(packages))
	return 0
}

// Op is an operation on a package.
type Op int

const (
	Update Op = iota
	Restore
)

// Apply applies op to all packages, and reports all failures.
func Apply(ctx context.Context, executor execute.Executor, layout buildconfig.Layout, packages []*pkgs.Package, op Op) error {
	var errs *multierror.Error
	for _, p := range packages {
		var err error
		switch op {
		case Update:
			err = p.Update(ctx, executor, layout)
		case Restore:
			err = p.Restore(ctx, executor, layout)
		default:
			err = fmt.Errorf("unknown op %d", op)
		}
		if err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	return errs.ErrorOrNil()
}
