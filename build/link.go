// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package build

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"go.chromium.org/infra/build/bldcpp/build/buildconfig"
	"go.chromium.org/infra/build/bldcpp/execute"
	"go.chromium.org/infra/build/bldcpp/o11y/clog"
)

// LinkArgs returns the linker command line of t.
func (t *Target) LinkArgs() []string {
	args := []string{t.Build.Compiler, "-o", t.BinPath}
	for _, s := range t.Sources {
		args = append(args, s.ObjPath)
	}
	if t.Config.IsLibrary() {
		args = append(args, "-shared")
	}
	args = append(args, t.cflags...)
	for _, d := range t.Deps {
		args = append(args, "-I"+d.Config.IncludeDir, t.libFlag(d.Config))
	}
	for _, p := range t.Packages {
		for _, tc := range p.Targets {
			args = append(args, "-I"+tc.IncludeDir, t.libFlag(tc))
		}
	}
	if len(t.Deps)+len(t.Packages) > 0 {
		args = append(args, "-L"+t.layout.BinDir())
		if !t.layout.IsWindows() {
			args = append(args, "-Wl,-rpath,$ORIGIN")
		}
	}
	args = append(args, t.libs...)
	return args
}

// libFlag returns a linker flag to link with library tc.
// "libfoo" is linked as "-lfoo". Other names are linked by file name.
func (t *Target) libFlag(tc buildconfig.TargetConfig) string {
	if name, ok := strings.CutPrefix(tc.Name, "lib"); ok && name != "" {
		return "-l" + name
	}
	return "-l:" + t.layout.BinName(tc)
}

func (t *Target) link(ctx context.Context, executor execute.Executor) error {
	cmd := &execute.Cmd{
		ID:      uuid.New().String(),
		Desc:    "LINK " + t.BinPath,
		Args:    t.LinkArgs(),
		Outputs: []string{t.BinPath},
	}
	clog.Debugf(ctx, "link %s: %s", t.Name(), cmd.Command())
	err := executor.Run(ctx, cmd)
	if err != nil {
		return &LinkError{
			Target: t.Name(),
			Args:   cmd.Args,
			Stdout: cmd.Stdout(),
			Stderr: cmd.Stderr(),
			Err:    err,
		}
	}
	if out := strings.TrimSpace(string(cmd.Stderr())); out != "" {
		clog.Warningf(ctx, "link %s: %s", t.Name(), out)
	}
	return nil
}
