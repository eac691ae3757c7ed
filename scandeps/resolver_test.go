// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package scandeps

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func setupFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		fname := filepath.Join(dir, name)
		err := os.MkdirAll(filepath.Dir(fname), 0755)
		if err != nil {
			t.Fatal(err)
		}
		err = os.WriteFile(fname, []byte(content), 0644)
		if err != nil {
			t.Fatal(err)
		}
	}
}

func TestDependantIncludes(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	setupFiles(t, dir, map[string]string{
		"src/main.c":         "#include <stdio.h>\n#include \"app.h\"\n#include \"util/str.h\"\n",
		"src/other.c":        "#include \"util/str.h\"\n",
		"src/plain.c":        "int x;\n",
		"include/app.h":      "#include \"util/str.h\"\n#include \"config.h\"\n",
		"include/config.h":   "#define N 1\n",
		"include/util/str.h": "#include \"config.h\"\n",
	})
	inc := filepath.ToSlash(filepath.Join(dir, "include"))
	r := NewResolver(inc)

	got, err := r.DependantIncludes(ctx, filepath.Join(dir, "src/main.c"))
	if err != nil {
		t.Fatalf("DependantIncludes(main.c)=%v; want nil error", err)
	}
	want := []string{
		inc + "/config.h",
		inc + "/util/str.h",
		inc + "/app.h",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("DependantIncludes(main.c) diff -want +got:\n%s", diff)
	}
	nscans := r.NumScans()

	// memoized headers still appear in the closure of another source.
	got, err = r.DependantIncludes(ctx, filepath.Join(dir, "src/other.c"))
	if err != nil {
		t.Fatalf("DependantIncludes(other.c)=%v; want nil error", err)
	}
	want = []string{
		inc + "/config.h",
		inc + "/util/str.h",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("DependantIncludes(other.c) diff -want +got:\n%s", diff)
	}
	if got, want := r.NumScans(), nscans+1; got != want {
		t.Errorf("NumScans=%d; want %d (headers scanned once)", got, want)
	}

	got, err = r.DependantIncludes(ctx, filepath.Join(dir, "src/plain.c"))
	if err != nil || len(got) != 0 {
		t.Errorf("DependantIncludes(plain.c)=%q, %v; want empty, nil", got, err)
	}
}

func TestDependantIncludes_cycle(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	setupFiles(t, dir, map[string]string{
		"src/a.c":     "#include \"a.h\"\n",
		"src/b.c":     "#include \"b.h\"\n",
		"include/a.h": "#include \"b.h\"\n",
		"include/b.h": "#include \"a.h\"\n#include \"c.h\"\n",
		"include/c.h": "",
	})
	inc := filepath.ToSlash(filepath.Join(dir, "include"))
	r := NewResolver(inc)

	got, err := r.DependantIncludes(ctx, filepath.Join(dir, "src/a.c"))
	if err != nil {
		t.Fatalf("DependantIncludes(a.c)=%v; want nil error", err)
	}
	want := []string{
		inc + "/c.h",
		inc + "/b.h",
		inc + "/a.h",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("DependantIncludes(a.c) diff -want +got:\n%s", diff)
	}

	// b.h was cut by the cycle while scanning a.c, so its closure must
	// still include a.h when entered directly.
	got, err = r.DependantIncludes(ctx, filepath.Join(dir, "src/b.c"))
	if err != nil {
		t.Fatalf("DependantIncludes(b.c)=%v; want nil error", err)
	}
	want = []string{
		inc + "/c.h",
		inc + "/b.h",
		inc + "/a.h",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("DependantIncludes(b.c) diff -want +got:\n%s", diff)
	}
}

func TestDependantIncludes_selfInclude(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	setupFiles(t, dir, map[string]string{
		"src/a.c":     "#include \"a.h\"\n",
		"include/a.h": "#include \"a.h\"\n",
	})
	inc := filepath.ToSlash(filepath.Join(dir, "include"))
	got, err := NewResolver(inc).DependantIncludes(ctx, filepath.Join(dir, "src/a.c"))
	if err != nil {
		t.Fatalf("DependantIncludes(a.c)=%v; want nil error", err)
	}
	if diff := cmp.Diff([]string{inc + "/a.h"}, got); diff != "" {
		t.Errorf("DependantIncludes(a.c) diff -want +got:\n%s", diff)
	}
}

func TestDependantIncludes_missing(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	setupFiles(t, dir, map[string]string{
		"src/main.c":    "#include \"app.h\"\n",
		"include/app.h": "#include \"gone.h\"\n",
	})
	inc := filepath.ToSlash(filepath.Join(dir, "include"))
	_, err := NewResolver(inc).DependantIncludes(ctx, filepath.Join(dir, "src/main.c"))
	var merr *MissingIncludeError
	if !errors.As(err, &merr) {
		t.Fatalf("DependantIncludes(main.c)=%v; want MissingIncludeError", err)
	}
	if got, want := merr.Path, inc+"/gone.h"; got != want {
		t.Errorf("Path=%q; want %q", got, want)
	}
	if got, want := merr.IncludedFrom, inc+"/app.h"; got != want {
		t.Errorf("IncludedFrom=%q; want %q", got, want)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("errors.Is(%v, os.ErrNotExist)=false; want true", err)
	}
}
