// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package buildconfig

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func setupSources(t *testing.T, dir string, files ...string) {
	t.Helper()
	for _, f := range files {
		fname := filepath.Join(dir, f)
		err := os.MkdirAll(filepath.Dir(fname), 0755)
		if err != nil {
			t.Fatal(err)
		}
		err = os.WriteFile(fname, nil, 0644)
		if err != nil {
			t.Fatal(err)
		}
	}
}

func TestSourceFiles(t *testing.T) {
	dir := t.TempDir()
	setupSources(t, dir, "main.cpp", "sub/util.c", "sub/kernel.cu", "include/util.h", "README.md", "sub/deeper/x.c")
	src := filepath.ToSlash(dir)
	got, err := SourceFiles(dir)
	if err != nil {
		t.Fatalf("SourceFiles()=%v; want nil error", err)
	}
	want := []string{
		src + "/main.cpp",
		src + "/sub/deeper/x.c",
		src + "/sub/kernel.cu",
		src + "/sub/util.c",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("SourceFiles() diff -want +got:\n%s", diff)
	}
}

func TestSourceFiles_notExist(t *testing.T) {
	_, err := SourceFiles(filepath.Join(t.TempDir(), "nosrc"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("SourceFiles()=%v; want ErrNotExist", err)
	}
}

func TestLogicalName(t *testing.T) {
	for fname, want := range map[string]string{
		"src/main.cpp":   "main",
		"src/sub/util.c": "util",
		"kernel.cu":      "kernel",
		"src/a.b.c":      "a.b",
	} {
		if got := LogicalName(fname); got != want {
			t.Errorf("LogicalName(%q)=%q; want %q", fname, got, want)
		}
	}
}

func TestCheckSources(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	setupSources(t, dir, "ok/main.c", "ok/util.cpp", "dup/main.c", "dup/sub/main.cpp", "empty/include/a.h")

	err := CheckSources(ctx, TargetConfig{Name: "ok", Src: filepath.Join(dir, "ok")})
	if err != nil {
		t.Errorf("CheckSources(ok)=%v; want nil error", err)
	}

	err = CheckSources(ctx, TargetConfig{Name: "dup", Src: filepath.Join(dir, "dup")})
	var derr *DuplicateSourceError
	if !errors.As(err, &derr) {
		t.Fatalf("CheckSources(dup)=%v; want DuplicateSourceError", err)
	}
	if derr.Name != "main" || len(derr.Paths) != 2 {
		t.Errorf("CheckSources(dup)=%#v; want main with 2 paths", derr)
	}

	err = CheckSources(ctx, TargetConfig{Name: "empty", Src: filepath.Join(dir, "empty")})
	if err == nil {
		t.Errorf("CheckSources(empty)=nil; want error")
	}
}

func TestLayout(t *testing.T) {
	exe := TargetConfig{Name: "main", Type: Executable}
	lib := TargetConfig{Name: "libfoo", Type: SharedLibrary}
	l := Layout{Dir: ".bld_cpp", OS: "linux"}
	w := Layout{Dir: ".bld_cpp", OS: "win32"}
	for _, tc := range []struct {
		got, want string
	}{
		{l.BinPath(exe), ".bld_cpp/bin/main"},
		{l.BinPath(lib), ".bld_cpp/bin/libfoo.so"},
		{w.BinPath(exe), ".bld_cpp/bin/main.exe"},
		{w.BinPath(lib), ".bld_cpp/bin/libfoo.dll"},
		{l.ObjPath("main", "util"), ".bld_cpp/obj_linux/main_util.o"},
		{w.ObjDir(), ".bld_cpp/obj_win32"},
		{l.HashFile("main"), ".bld_cpp/main.linux.hash"},
		{l.SourceDir("libfoo"), ".bld_cpp/sources/libfoo"},
		{l.IncludeDir("libfoo"), ".bld_cpp/includes/libfoo"},
		{l.ManifestName(), "config_linux.toml"},
		{w.ManifestName(), "config_win32.toml"},
	} {
		if tc.got != tc.want {
			t.Errorf("got %q; want %q", tc.got, tc.want)
		}
	}
	if got, want := OSTag("windows"), "win32"; got != want {
		t.Errorf("OSTag(windows)=%q; want %q", got, want)
	}
}
