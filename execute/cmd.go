// Copyright 2023 The Chromium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package execute runs commands.
package execute

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"go.chromium.org/infra/build/bldcpp/toolsupport/shutil"
)

// Executor is an interface to run the cmd.
// Run returns ExitError if the cmd exited with non-zero status.
type Executor interface {
	Run(ctx context.Context, cmd *Cmd) error
}

// Cmd includes all the information required to run a compiler, linker
// or hook command.
type Cmd struct {
	// ID is used as a unique identifier for this cmd in logs.
	// It does not have to be human-readable, so using a UUID is fine.
	ID string

	// Desc is a short, human-readable identifier that is shown to the user.
	// Example: "CXX src/main.cpp"
	Desc string

	// Args holds command line arguments.
	Args []string

	// Env specifies the environment of the process.
	// If empty, the current process environment is used.
	Env []string

	// Dir specifies the working directory of the cmd.
	// Empty means the current directory.
	Dir string

	// Outputs are output files of the cmd.
	// Parent directories are created before the cmd runs.
	Outputs []string

	// Console connects stdin/stdout/stderr to the terminal
	// instead of capturing them.
	Console bool

	stdout, stderr output

	exitCode int
	duration time.Duration
	rusage   *Rusage
}

// Rusage is resource usage of the finished cmd.
type Rusage struct {
	// MaxRSS is max resident set size in kilobytes.
	MaxRSS int64
	Utime  time.Duration
	Stime  time.Duration
}

func (u *Rusage) String() string {
	if u == nil {
		return "<nil>"
	}
	return fmt.Sprintf("maxrss=%d utime=%s stime=%s", u.MaxRSS, u.Utime, u.Stime)
}

// String returns an ID of the cmd.
func (c *Cmd) String() string {
	return c.ID
}

// Command returns a command line string.
func (c *Cmd) Command() string {
	if len(c.Args) == 3 && (c.Args[0] == "/bin/sh" || c.Args[0] == "sh") && c.Args[1] == "-c" {
		return c.Args[2]
	}
	return shutil.Join(c.Args)
}

// output captures a stream of the cmd, optionally teeing to w.
type output struct {
	w   io.Writer
	buf bytes.Buffer
}

func (o *output) writer() io.Writer {
	o.buf.Reset()
	if o.w == nil {
		return &o.buf
	}
	return io.MultiWriter(o.w, &o.buf)
}

// SetStdoutWriter sets w to receive stdout in addition to capture.
func (c *Cmd) SetStdoutWriter(w io.Writer) { c.stdout.w = w }

// SetStderrWriter sets w to receive stderr in addition to capture.
func (c *Cmd) SetStderrWriter(w io.Writer) { c.stderr.w = w }

// StdoutWriter returns a writer for stdout of a new run.
// It discards output captured by a previous run.
func (c *Cmd) StdoutWriter() io.Writer { return c.stdout.writer() }

// StderrWriter returns a writer for stderr of a new run.
// It discards output captured by a previous run.
func (c *Cmd) StderrWriter() io.Writer { return c.stderr.writer() }

// Stdout returns captured stdout.
func (c *Cmd) Stdout() []byte { return c.stdout.buf.Bytes() }

// Stderr returns captured stderr.
func (c *Cmd) Stderr() []byte { return c.stderr.buf.Bytes() }

// AppendStderr appends diagnostics of the executor, e.g. failure to
// start the process, to stderr.
func (c *Cmd) AppendStderr(b []byte) {
	c.stderr.buf.Write(b)
	if c.stderr.w != nil {
		_, _ = c.stderr.w.Write(b)
	}
}

// SetRusage records resource usage of the finished cmd.
func (c *Cmd) SetRusage(u *Rusage) {
	c.rusage = u
}

// Rusage returns resource usage of the finished cmd, if available.
func (c *Cmd) Rusage() *Rusage {
	return c.rusage
}

// SetResult records exit code and duration of the finished cmd.
func (c *Cmd) SetResult(exitCode int, d time.Duration) {
	c.exitCode = exitCode
	c.duration = d
}

// ExitCode returns the exit code recorded by SetResult.
func (c *Cmd) ExitCode() int {
	return c.exitCode
}

// Duration returns the duration recorded by SetResult.
func (c *Cmd) Duration() time.Duration {
	return c.duration
}

// ExitError is an error of cmd exit.
type ExitError struct {
	ExitCode int
}

func (e ExitError) Error() string {
	return fmt.Sprintf("exit=%d", e.ExitCode)
}
