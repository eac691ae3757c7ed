// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package buildconfig

import (
	"context"
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// SourceExts are file extensions of compilable sources.
var SourceExts = []string{".c", ".cpp", ".cu"}

// IsSource reports whether fname is a compilable source.
func IsSource(fname string) bool {
	ext := path.Ext(fname)
	for _, e := range SourceExts {
		if ext == e {
			return true
		}
	}
	return false
}

// LogicalName returns a logical name of the source, i.e. its file stem.
// It is used to name the object file, so it must be unique in a target.
func LogicalName(fname string) string {
	base := path.Base(filepath.ToSlash(fname))
	return strings.TrimSuffix(base, path.Ext(base))
}

// SourceFiles returns sources under dir, walked recursively in lexical
// order. Paths are slash separated and prefixed with dir.
func SourceFiles(dir string) ([]string, error) {
	var srcs []string
	err := filepath.WalkDir(dir, func(fname string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !IsSource(d.Name()) {
			return nil
		}
		srcs = append(srcs, filepath.ToSlash(fname))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("could not read src dir %s: %w", dir, err)
	}
	return srcs, nil
}

// DuplicateSourceError is an error when sources in a target share the
// same logical name, so their object files would collide.
type DuplicateSourceError struct {
	Target string
	Name   string
	Paths  []string
}

func (e *DuplicateSourceError) Error() string {
	return fmt.Sprintf("duplicate source files found for target %s: %s (%s). source file names must be unique", e.Target, e.Name, strings.Join(e.Paths, ", "))
}

// CheckSources checks tc has at least one source and no two sources
// share a logical name.
func CheckSources(ctx context.Context, tc TargetConfig) error {
	srcs, err := SourceFiles(tc.Src)
	if err != nil {
		return err
	}
	if len(srcs) == 0 {
		return fmt.Errorf("no source files found for target %s in %s", tc.Name, tc.Src)
	}
	byName := make(map[string][]string)
	var names []string
	for _, src := range srcs {
		name := LogicalName(src)
		if _, ok := byName[name]; !ok {
			names = append(names, name)
		}
		byName[name] = append(byName[name], src)
	}
	sort.Strings(names)
	for _, name := range names {
		if paths := byName[name]; len(paths) > 1 {
			return &DuplicateSourceError{Target: tc.Name, Name: name, Paths: paths}
		}
	}
	return nil
}
