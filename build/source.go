// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package build

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/google/uuid"

	"go.chromium.org/infra/build/bldcpp/execute"
	"go.chromium.org/infra/build/bldcpp/hashfs"
	"go.chromium.org/infra/build/bldcpp/o11y/clog"
)

// SourceUnit is a source file compiled into one object file.
type SourceUnit struct {
	Path string
	// Name is the logical name, i.e. file stem.
	Name    string
	ObjPath string
	// Includes is the header closure, in discovery order.
	Includes []string

	binPath string
}

// NeedsRebuild reports whether the source must be recompiled, with
// a human readable reason. hashes are only read.
func (s *SourceUnit) NeedsRebuild(ctx context.Context, hashes hashfs.PathHash) (bool, string, error) {
	_, err := os.Stat(s.binPath)
	if errors.Is(err, fs.ErrNotExist) {
		return true, "binary does not exist: " + s.binPath, nil
	}
	if err != nil {
		return false, "", err
	}
	_, err = os.Stat(s.ObjPath)
	if errors.Is(err, fs.ErrNotExist) {
		return true, "object does not exist: " + s.ObjPath, nil
	}
	if err != nil {
		return false, "", err
	}
	changed, err := hashes.IsChanged(ctx, s.Path)
	if err != nil {
		return false, "", err
	}
	if changed {
		return true, "source file changed: " + s.Path, nil
	}
	for _, inc := range s.Includes {
		changed, err := hashes.IsChanged(ctx, inc)
		if err != nil {
			return false, "", err
		}
		if changed {
			return true, fmt.Sprintf("source file %s depends on changed include file: %s", s.Path, inc), nil
		}
	}
	return false, "", nil
}

// CompileArgs returns the compiler command line of the source in t.
func (s *SourceUnit) CompileArgs(t *Target) []string {
	args := []string{t.Build.Compiler, "-c", s.Path, "-o", s.ObjPath}
	for _, dir := range t.includeDirs() {
		args = append(args, "-I"+dir)
	}
	args = append(args, t.cflags...)
	if t.Config.IsLibrary() && !t.layout.IsWindows() {
		args = append(args, "-fPIC")
	}
	return args
}

// Compile compiles the source. It returns compiler's stderr as warning
// if the compile succeeded with diagnostics.
func (s *SourceUnit) Compile(ctx context.Context, executor execute.Executor, t *Target) (string, error) {
	cmd := &execute.Cmd{
		ID:      uuid.New().String(),
		Desc:    "CXX " + s.Path,
		Args:    s.CompileArgs(t),
		Outputs: []string{s.ObjPath},
	}
	clog.Debugf(ctx, "compile %s: %s", s.Name, cmd.Command())
	err := executor.Run(ctx, cmd)
	if err != nil {
		return "", &CompileError{
			Source: s.Path,
			Args:   cmd.Args,
			Stdout: cmd.Stdout(),
			Stderr: cmd.Stderr(),
			Err:    err,
		}
	}
	if out := cmd.Stdout(); len(out) > 0 {
		clog.Infof(ctx, "compile %s stdout: %s", s.Name, out)
	}
	return string(cmd.Stderr()), nil
}
