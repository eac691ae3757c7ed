// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package pkgs

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"go.chromium.org/infra/build/bldcpp/build/buildconfig"
	"go.chromium.org/infra/build/bldcpp/execute"
	"go.chromium.org/infra/build/bldcpp/o11y/clog"
)

// Update pulls the latest commit of the package's branch.
func (p *Package) Update(ctx context.Context, executor execute.Executor, layout buildconfig.Layout) error {
	clog.Infof(ctx, "updating package: %s", p.Name)
	return p.git(ctx, executor, layout, "pull", "origin", p.Branch)
}

// Restore resets the package to the last fetched commit of its branch.
func (p *Package) Restore(ctx context.Context, executor execute.Executor, layout buildconfig.Layout) error {
	clog.Infof(ctx, "restoring package: %s", p.Name)
	return p.git(ctx, executor, layout, "reset", "--hard", p.Branch)
}

func (p *Package) git(ctx context.Context, executor execute.Executor, layout buildconfig.Layout, args ...string) error {
	cmd := &execute.Cmd{
		ID:   uuid.New().String(),
		Desc: fmt.Sprintf("GIT %s %s", args[0], p.Name),
		Args: append([]string{"git"}, args...),
		Dir:  layout.SourceDir(p.Name),
	}
	err := executor.Run(ctx, cmd)
	if err != nil {
		return fmt.Errorf("failed to %s package %s: %w\n%s", args[0], p.Name, err, cmd.Stderr())
	}
	clog.Infof(ctx, "%s %s: %s", args[0], p.Name, strings.TrimSpace(string(cmd.Stdout())))
	return nil
}
