// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package build

import (
	"context"
	"fmt"
	"runtime"

	"github.com/google/uuid"

	"go.chromium.org/infra/build/bldcpp/execute"
	"go.chromium.org/infra/build/bldcpp/o11y/clog"
)

// HookArgs returns args to run command line in the platform shell.
func HookArgs(command string) []string {
	if runtime.GOOS == "windows" {
		return []string{"cmd", "/C", command}
	}
	return []string{"sh", "-c", command}
}

// RunHook runs pre_build or post_build command with the console.
// It does nothing if command is empty.
func RunHook(ctx context.Context, executor execute.Executor, name, command string) error {
	if command == "" {
		return nil
	}
	clog.Infof(ctx, "running %s: %s", name, command)
	cmd := &execute.Cmd{
		ID:      uuid.New().String(),
		Desc:    name,
		Args:    HookArgs(command),
		Console: true,
	}
	err := executor.Run(ctx, cmd)
	if err != nil {
		return fmt.Errorf("%s %q failed: %w", name, command, err)
	}
	return nil
}
