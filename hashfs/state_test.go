// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package hashfs_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"go.chromium.org/infra/build/bldcpp/hashfs"
)

func writeFile(t *testing.T, fname, content string) {
	t.Helper()
	err := os.MkdirAll(filepath.Dir(fname), 0755)
	if err != nil {
		t.Fatal(err)
	}
	err = os.WriteFile(fname, []byte(content), 0644)
	if err != nil {
		t.Fatal(err)
	}
}

func TestLoad_notExist(t *testing.T) {
	ctx := context.Background()
	ph, err := hashfs.Load(ctx, filepath.Join(t.TempDir(), "main.linux.hash"))
	if err != nil {
		t.Fatalf("Load()=%v; want nil error", err)
	}
	if len(ph) != 0 {
		t.Errorf("Load()=%v; want empty", ph)
	}
}

func TestLoad_readError(t *testing.T) {
	ctx := context.Background()
	// a directory exists but can't be read as a file.
	_, err := hashfs.Load(ctx, t.TempDir())
	if err == nil {
		t.Errorf("Load(dir)=nil; want error")
	}
}

func TestPersistLoad(t *testing.T) {
	ctx := context.Background()
	fname := filepath.Join(t.TempDir(), "main.linux.hash")
	want := hashfs.PathHash{
		"src/main.c":            "0123abcd",
		"src/with space/util.c": "4567ef01",
		"include/util.h":        "89ab",
	}
	err := want.Persist(fname)
	if err != nil {
		t.Fatalf("Persist()=%v; want nil error", err)
	}
	b, err := os.ReadFile(fname)
	if err != nil {
		t.Fatal(err)
	}
	wantContent := "include/util.h 89ab\nsrc/main.c 0123abcd\nsrc/with space/util.c 4567ef01\n"
	if diff := cmp.Diff(wantContent, string(b)); diff != "" {
		t.Errorf("persisted content diff -want +got:\n%s", diff)
	}
	got, err := hashfs.Load(ctx, fname)
	if err != nil {
		t.Fatalf("Load()=%v; want nil error", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Load() diff -want +got:\n%s", diff)
	}
}

func TestLoad_malformed(t *testing.T) {
	ctx := context.Background()
	fname := filepath.Join(t.TempDir(), "main.linux.hash")
	writeFile(t, fname, "src/main.c 0123\nnoseparator\n\nsrc/trailing \r\nsrc/a.c ff\r\n")
	got, err := hashfs.Load(ctx, fname)
	if err != nil {
		t.Fatalf("Load()=%v; want nil error", err)
	}
	want := hashfs.PathHash{
		"src/main.c": "0123",
		"src/a.c":    "ff",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Load() diff -want +got:\n%s", diff)
	}
}

func TestIsChangedSave(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	fname := filepath.Join(dir, "main.c")
	writeFile(t, fname, "int main() { return 0; }\n")

	ph := hashfs.PathHash{}
	changed, err := ph.IsChanged(ctx, fname)
	if err != nil || !changed {
		t.Errorf("IsChanged(absent)=%t, %v; want true, nil", changed, err)
	}

	updated, err := ph.Save(ctx, fname)
	if err != nil || !updated {
		t.Fatalf("Save()=%t, %v; want true, nil", updated, err)
	}
	changed, err = ph.IsChanged(ctx, fname)
	if err != nil || changed {
		t.Errorf("IsChanged(after save)=%t, %v; want false, nil", changed, err)
	}
	updated, err = ph.Save(ctx, fname)
	if err != nil || updated {
		t.Errorf("Save(again)=%t, %v; want false, nil", updated, err)
	}

	// touch without content change.
	future := time.Now().Add(time.Hour)
	err = os.Chtimes(fname, future, future)
	if err != nil {
		t.Fatal(err)
	}
	changed, err = ph.IsChanged(ctx, fname)
	if err != nil || changed {
		t.Errorf("IsChanged(touched)=%t, %v; want false, nil", changed, err)
	}

	writeFile(t, fname, "int main() { return 1; }\n")
	changed, err = ph.IsChanged(ctx, fname)
	if err != nil || !changed {
		t.Errorf("IsChanged(modified)=%t, %v; want true, nil", changed, err)
	}
}

func TestIsChanged_removed(t *testing.T) {
	ctx := context.Background()
	fname := filepath.Join(t.TempDir(), "gone.h")
	ph := hashfs.PathHash{fname: "00"}
	_, err := ph.IsChanged(ctx, fname)
	if err == nil {
		t.Errorf("IsChanged(removed)=nil error; want error")
	}
}

func TestDigest(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	a := filepath.Join(dir, "a.h")
	b := filepath.Join(dir, "b.h")
	big := filepath.Join(dir, "big.h")
	writeFile(t, a, "#pragma once\n")
	writeFile(t, b, "#pragma once\n")
	content := make([]byte, 3<<20+17)
	for i := range content {
		content[i] = byte(i)
	}
	writeFile(t, big, string(content))

	da, err := hashfs.Digest(ctx, a)
	if err != nil {
		t.Fatal(err)
	}
	db, err := hashfs.Digest(ctx, b)
	if err != nil {
		t.Fatal(err)
	}
	if da != db {
		t.Errorf("Digest(a)=%q Digest(b)=%q; want same digest for same content", da, db)
	}
	if len(da) != 64 {
		t.Errorf("len(Digest(a))=%d; want 64", len(da))
	}
	dbig, err := hashfs.Digest(ctx, big)
	if err != nil {
		t.Fatal(err)
	}
	if dbig == da {
		t.Errorf("Digest(big)=%q; want different from %q", dbig, da)
	}
}
