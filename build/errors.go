// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package build

import (
	"fmt"
	"strings"

	"go.chromium.org/infra/build/bldcpp/toolsupport/shutil"
)

// ConfigError is an error in target configuration, detected before
// any compile runs.
type ConfigError struct {
	Target string
	Msg    string
	Err    error
}

func (e *ConfigError) Error() string {
	var sb strings.Builder
	sb.WriteString("config error")
	if e.Target != "" {
		fmt.Fprintf(&sb, " in target %s", e.Target)
	}
	sb.WriteString(": ")
	sb.WriteString(e.Msg)
	if e.Err != nil {
		fmt.Fprintf(&sb, ": %v", e.Err)
	}
	return sb.String()
}

func (e *ConfigError) Unwrap() error { return e.Err }

// CompileError is an error when compiling a source failed.
type CompileError struct {
	Source string
	Args   []string
	Stdout []byte
	Stderr []byte
	Err    error
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("failed to compile %s: %v\ncmd: %s\n%s", e.Source, e.Err, shutil.Join(e.Args), output(e.Stdout, e.Stderr))
}

func (e *CompileError) Unwrap() error { return e.Err }

// LinkError is an error when linking a target failed.
type LinkError struct {
	Target string
	Args   []string
	Stdout []byte
	Stderr []byte
	Err    error
}

func (e *LinkError) Error() string {
	return fmt.Sprintf("failed to link %s: %v\ncmd: %s\n%s", e.Target, e.Err, shutil.Join(e.Args), output(e.Stdout, e.Stderr))
}

func (e *LinkError) Unwrap() error { return e.Err }

func output(stdout, stderr []byte) string {
	var sb strings.Builder
	sb.Write(stdout)
	if len(stdout) > 0 && len(stderr) > 0 && stdout[len(stdout)-1] != '\n' {
		sb.WriteByte('\n')
	}
	sb.Write(stderr)
	return strings.TrimRight(sb.String(), "\n")
}
