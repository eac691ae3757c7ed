// Copyright 2023 The Chromium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package localexec implements local command execution.
package localexec

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"go.chromium.org/infra/build/bldcpp/execute"
	"go.chromium.org/infra/build/bldcpp/o11y/clog"
	"go.chromium.org/infra/build/bldcpp/sync/semaphore"
)

// LocalExec implements execute.Executor interface that runs commands locally.
type LocalExec struct{}

// Run runs cmd with LocalExec.
func Run(ctx context.Context, cmd *execute.Cmd) error {
	return LocalExec{}.Run(ctx, cmd)
}

// Run runs a cmd.
func (LocalExec) Run(ctx context.Context, cmd *execute.Cmd) error {
	if len(cmd.Args) == 0 {
		return fmt.Errorf("no arguments in the command. ID: %s", cmd.ID)
	}
	for _, out := range cmd.Outputs {
		err := os.MkdirAll(filepath.Dir(out), 0755)
		if err != nil {
			return fmt.Errorf("failed to prepare output dir for %s: %w", out, err)
		}
	}
	c := exec.CommandContext(ctx, cmd.Args[0], cmd.Args[1:]...)
	if len(cmd.Env) > 0 {
		c.Env = cmd.Env
	}
	c.Dir = cmd.Dir
	if cmd.Console {
		c.Stdin = os.Stdin
		c.Stdout = os.Stdout
		c.Stderr = os.Stderr
	} else {
		c.Stdout = cmd.StdoutWriter()
		c.Stderr = cmd.StderrWriter()
	}
	s := time.Now()
	err := forkSema.Do(ctx, func(ctx context.Context) error {
		return c.Start()
	})
	if err == nil {
		err = c.Wait()
	}
	d := time.Since(s)
	code := exitCode(err)
	cmd.SetResult(code, d)
	var u *execute.Rusage
	if c.ProcessState != nil {
		u = rusage(c)
		cmd.SetRusage(u)
	}
	if clog.V(ctx) {
		clog.Debugf(ctx, "%s exit=%d stdout=%d stderr=%d duration=%s rusage=%v", cmd.ID, code, len(cmd.Stdout()), len(cmd.Stderr()), d, u)
	}
	if code != 0 {
		var eerr *exec.ExitError
		if err != nil && !errors.As(err, &eerr) {
			// failed to start, e.g. compiler not found.
			cmd.AppendStderr(fmt.Appendf(nil, "\ncmd: %q dir: %q error: %v", cmd.Args, cmd.Dir, err))
		}
		return execute.ExitError{ExitCode: code}
	}
	return nil
}

// fix for windows: fork/exec: Not enough memory resources are available to process this command.
var forkSema = semaphore.New("fork", runtime.NumCPU())

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var eerr *exec.ExitError
	if !errors.As(err, &eerr) {
		return 1
	}
	if w, ok := eerr.ProcessState.Sys().(syscall.WaitStatus); ok {
		return w.ExitStatus()
	}
	return 1
}
