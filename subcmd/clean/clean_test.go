// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package clean

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"testing"

	"go.chromium.org/infra/build/bldcpp/build/buildconfig"
)

func setup(t *testing.T) buildconfig.Layout {
	t.Helper()
	dir := filepath.ToSlash(t.TempDir())
	layout := buildconfig.Layout{Dir: path.Join(dir, ".bld_cpp"), OS: "linux"}
	for _, fname := range []string{
		layout.ObjPath("app", "main"),
		layout.HashFile("app"),
		layout.HashFile("libfoo"),
		path.Join(layout.BinDir(), "app"),
		path.Join(layout.BinDir(), "libfoo.so"),
		path.Join(layout.BinDir(), "libpkg.so"),
		path.Join(layout.SourceDir("pkg"), "config_linux.toml"),
	} {
		err := os.MkdirAll(path.Dir(fname), 0755)
		if err != nil {
			t.Fatal(err)
		}
		err = os.WriteFile(fname, nil, 0644)
		if err != nil {
			t.Fatal(err)
		}
	}
	return layout
}

var targets = []buildconfig.TargetConfig{
	{Name: "app", Type: buildconfig.Executable},
	{Name: "libfoo", Type: buildconfig.SharedLibrary},
}

func exists(t *testing.T, fname string) bool {
	t.Helper()
	_, err := os.Stat(fname)
	if errors.Is(err, fs.ErrNotExist) {
		return false
	}
	if err != nil {
		t.Fatal(err)
	}
	return true
}

func TestClean(t *testing.T) {
	ctx := context.Background()
	layout := setup(t)
	n, err := Clean(ctx, layout, targets, false)
	if err != nil {
		t.Fatalf("Clean()=%v; want nil", err)
	}
	// obj dir, 2 hash files, 2 binaries.
	if n != 5 {
		t.Errorf("Clean()=%d; want 5", n)
	}
	for _, fname := range []string{
		layout.ObjDir(),
		layout.HashFile("app"),
		path.Join(layout.BinDir(), "app"),
		path.Join(layout.BinDir(), "libfoo.so"),
	} {
		if exists(t, fname) {
			t.Errorf("%s exists after clean", fname)
		}
	}
	for _, fname := range []string{
		path.Join(layout.BinDir(), "libpkg.so"),
		path.Join(layout.SourceDir("pkg"), "config_linux.toml"),
	} {
		if !exists(t, fname) {
			t.Errorf("%s removed; want kept", fname)
		}
	}

	n, err = Clean(ctx, layout, targets, false)
	if err != nil || n != 0 {
		t.Errorf("Clean() again=%d, %v; want 0, nil", n, err)
	}
}

func TestClean_packages(t *testing.T) {
	ctx := context.Background()
	layout := setup(t)
	_, err := Clean(ctx, layout, targets, true)
	if err != nil {
		t.Fatalf("Clean()=%v; want nil", err)
	}
	if exists(t, layout.BinDir()) {
		t.Errorf("%s exists after clean -packages", layout.BinDir())
	}
	if !exists(t, layout.SourceDir("pkg")) {
		t.Errorf("%s removed; want kept", layout.SourceDir("pkg"))
	}
}
