// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package pkgcmd

import (
	"context"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"go.chromium.org/infra/build/bldcpp/build/buildconfig"
	"go.chromium.org/infra/build/bldcpp/execute"
	"go.chromium.org/infra/build/bldcpp/pkgs"
)

type fakeGit struct {
	cmds [][]string
	dirs []string
	fail map[string]bool
}

func (f *fakeGit) Run(ctx context.Context, cmd *execute.Cmd) error {
	f.cmds = append(f.cmds, cmd.Args)
	f.dirs = append(f.dirs, cmd.Dir)
	if f.fail[cmd.Dir] {
		return execute.ExitError{ExitCode: 128}
	}
	return nil
}

func TestApply(t *testing.T) {
	ctx := context.Background()
	layout := buildconfig.Layout{Dir: ".bld_cpp", OS: "linux"}
	packages := []*pkgs.Package{
		{Name: "liba", Branch: "main"},
		{Name: "libb", Branch: "v2"},
	}
	fg := &fakeGit{}
	err := Apply(ctx, fg, layout, packages, Update)
	if err != nil {
		t.Fatalf("Apply(Update)=%v; want nil", err)
	}
	err = Apply(ctx, fg, layout, packages, Restore)
	if err != nil {
		t.Fatalf("Apply(Restore)=%v; want nil", err)
	}
	want := [][]string{
		{"git", "pull", "origin", "main"},
		{"git", "pull", "origin", "v2"},
		{"git", "reset", "--hard", "main"},
		{"git", "reset", "--hard", "v2"},
	}
	if diff := cmp.Diff(want, fg.cmds); diff != "" {
		t.Errorf("git commands diff -want +got:\n%s", diff)
	}
	wantDirs := []string{".bld_cpp/sources/liba", ".bld_cpp/sources/libb", ".bld_cpp/sources/liba", ".bld_cpp/sources/libb"}
	if diff := cmp.Diff(wantDirs, fg.dirs); diff != "" {
		t.Errorf("dirs diff -want +got:\n%s", diff)
	}
}

func TestApply_errors(t *testing.T) {
	ctx := context.Background()
	layout := buildconfig.Layout{Dir: ".bld_cpp", OS: "linux"}
	packages := []*pkgs.Package{
		{Name: "liba", Branch: "main"},
		{Name: "libb", Branch: "main"},
		{Name: "libc", Branch: "main"},
	}
	fg := &fakeGit{fail: map[string]bool{
		".bld_cpp/sources/liba": true,
		".bld_cpp/sources/libc": true,
	}}
	err := Apply(ctx, fg, layout, packages, Update)
	if err == nil {
		t.Fatal("Apply()=nil; want error")
	}
	if len(fg.cmds) != 3 {
		t.Errorf("ran %d commands; want 3", len(fg.cmds))
	}
	for _, name := range []string{"liba", "libc"} {
		if !strings.Contains(err.Error(), "package "+name) {
			t.Errorf("Apply()=%v; want error about %s", err, name)
		}
	}
}
