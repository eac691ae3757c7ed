// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package scandeps

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// MissingIncludeError is an error when a source or header can not be
// read while computing dependant includes.
type MissingIncludeError struct {
	// Path is the file that could not be read.
	Path string
	// IncludedFrom is the file that included Path.
	// Empty for the source file itself.
	IncludedFrom string
	Err          error
}

func (e *MissingIncludeError) Error() string {
	if e.IncludedFrom == "" {
		return fmt.Sprintf("failed to scan %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("missing include %s (included from %s): %v", e.Path, e.IncludedFrom, e.Err)
}

func (e *MissingIncludeError) Unwrap() error { return e.Err }

// Resolver computes dependant includes of sources in a target.
// Results are memoized by include path as written, so each header is
// scanned once per target.
// It is not safe for concurrent use.
type Resolver struct {
	includeDir string

	// memo holds complete closures. The header itself is the last element.
	memo map[string][]string

	// inProgress holds depth of headers being scanned, for cycle detection.
	inProgress map[string]int

	nscans int
}

// NewResolver creates a resolver for a target whose headers live in
// includeDir.
func NewResolver(includeDir string) *Resolver {
	return &Resolver{
		includeDir: includeDir,
		memo:       make(map[string][]string),
		inProgress: make(map[string]int),
	}
}

// IncludeDir returns the include dir of the resolver.
func (r *Resolver) IncludeDir() string {
	return r.includeDir
}

// NumScans returns the number of files scanned so far.
func (r *Resolver) NumScans() int {
	return r.nscans
}

// DependantIncludes returns the transitive closure of header paths
// that path includes with #include "...". Each header appears once,
// after the headers it includes.
// Mutually including headers terminate the recursion.
func (r *Resolver) DependantIncludes(ctx context.Context, path string) ([]string, error) {
	closure, _, err := r.closure(ctx, path, "", 0)
	if err != nil {
		return nil, err
	}
	return closure, nil
}

// closure returns the closure of fname and the lowest depth of the
// in-progress headers it hit. If low is less than depth, the closure
// was cut by a cycle through an ancestor and is incomplete.
func (r *Resolver) closure(ctx context.Context, fname, from string, depth int) (result []string, low int, err error) {
	buf, err := os.ReadFile(fname)
	if err != nil {
		return nil, 0, &MissingIncludeError{Path: fname, IncludedFrom: from, Err: err}
	}
	r.nscans++
	low = depth
	for _, inc := range CPPScan(ctx, fname, buf) {
		if c, ok := r.memo[inc]; ok {
			result = append(result, c...)
			continue
		}
		if d, ok := r.inProgress[inc]; ok {
			low = min(low, d)
			continue
		}
		dep := filepath.ToSlash(filepath.Join(r.includeDir, inc))
		r.inProgress[inc] = depth + 1
		sub, sublow, err := r.closure(ctx, dep, fname, depth+1)
		delete(r.inProgress, inc)
		if err != nil {
			return nil, 0, err
		}
		c := uniq(append(sub, dep))
		if sublow > depth {
			r.memo[inc] = c
		} else {
			low = min(low, sublow)
		}
		result = append(result, c...)
	}
	return uniq(result), low, nil
}

// uniq removes duplicates, keeping the first occurrence.
func uniq(paths []string) []string {
	seen := make(map[string]bool, len(paths))
	ret := paths[:0]
	for _, p := range paths {
		if seen[p] {
			continue
		}
		seen[p] = true
		ret = append(ret, p)
	}
	return ret
}
