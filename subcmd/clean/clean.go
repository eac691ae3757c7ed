// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package clean provides clean subcommand.
package clean

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/hashicorp/go-multierror"
	"github.com/maruel/subcommands"

	"go.chromium.org/luci/common/cli"

	"go.chromium.org/infra/build/bldcpp/build/buildconfig"
	"go.chromium.org/infra/build/bldcpp/o11y/clog"
)

// Cmd returns the Command for the `clean` subcommand provided by this package.
func Cmd() *subcommands.Command {
	return &subcommands.Command{
		UsageLine: "clean [-C <dir>] [-packages]",
		ShortDesc: "removes build outputs",
		LongDesc:  "Removes object files, hash files and binaries of the targets, so next build compiles everything.",
		CommandRun: func() subcommands.CommandRun {
			r := &cleanRun{}
			r.init()
			return r
		},
	}
}

type cleanRun struct {
	subcommands.CommandRunBase
	dir        string
	configName string
	packages   bool
}

func (c *cleanRun) init() {
	c.Flags.StringVar(&c.dir, "C", ".", "project directory where config_<os>.toml is")
	c.Flags.StringVar(&c.configName, "config", "", "manifest file name. default is config_<os>.toml")
	c.Flags.BoolVar(&c.packages, "packages", false, "also remove binaries of packages")
}

func (c *cleanRun) Run(a subcommands.Application, args []string, env subcommands.Env) int {
	ctx := cli.GetContext(a, c, env)
	if len(args) != 0 {
		fmt.Fprintf(a.GetErr(), "%s: position arguments not expected\n", a.GetName())
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
	n, err := Clean(ctx, layout, manifest.Targets, c.packages)
	if err != nil {
		fmt.Fprintf(a.GetErr(), "clean failed: %v\n", err)
		return 1
	}
	fmt.Printf("%d files removed\n", n)
	return 0
}

// Clean removes the object dir, hash files and binaries of targets.
// If packages is true, it removes all binaries including package libraries.
// It returns the number of removed files or directories, and continues
// after failures to report them all.
func Clean(ctx context.Context, layout buildconfig.Layout, targets []buildconfig.TargetConfig, packages bool) (int, error) {
	removes := []string{layout.ObjDir()}
	hashes, err := filepath.Glob(path.Join(layout.Dir, "*."+layout.OS+".hash"))
	if err != nil {
		return 0, err
	}
	removes = append(removes, hashes...)
	if packages {
		removes = append(removes, layout.BinDir())
	} else {
		for _, tc := range targets {
			removes = append(removes, layout.BinPath(tc))
		}
	}

	var errs *multierror.Error
	n := 0
	for _, fname := range removes {
		_, err := os.Lstat(fname)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		err = os.RemoveAll(fname)
		if err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		clog.Debugf(ctx, "removed %s", fname)
		n++
	}
	return n, errs.ErrorOrNil()
}
