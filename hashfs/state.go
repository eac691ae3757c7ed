// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package hashfs records content digests of build inputs between builds.
package hashfs

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io/fs"
	"os"
	"sort"
	"strings"

	"go.chromium.org/infra/build/bldcpp/o11y/clog"
)

// PathHash maps a file path to the hex digest of its content at the
// time of the last successful build.
type PathHash map[string]string

// Load loads PathHash from fname.
// It returns empty PathHash if fname doesn't exist.
// Each line is "<path> <hexdigest>". The digest is taken after the last
// space, so paths may contain spaces. Malformed lines are skipped, which
// makes the path look changed.
func Load(ctx context.Context, fname string) (PathHash, error) {
	b, err := os.ReadFile(fname)
	if errors.Is(err, fs.ErrNotExist) {
		clog.Debugf(ctx, "no hash file %s", fname)
		return PathHash{}, nil
	}
	if err != nil {
		return nil, err
	}
	ph := PathHash{}
	s := bufio.NewScanner(bytes.NewReader(b))
	s.Buffer(make([]byte, 0, 64*1024), 1<<20)
	lineno := 0
	for s.Scan() {
		lineno++
		line := strings.TrimRight(s.Text(), "\r")
		if line == "" {
			continue
		}
		i := strings.LastIndexByte(line, ' ')
		if i <= 0 || i == len(line)-1 {
			clog.Warningf(ctx, "%s:%d: ignore malformed line %q", fname, lineno, line)
			continue
		}
		ph[line[:i]] = line[i+1:]
	}
	if err := s.Err(); err != nil {
		return nil, err
	}
	clog.Debugf(ctx, "loaded %d hashes from %s", len(ph), fname)
	return ph, nil
}

// IsChanged reports whether path is absent from ph or its current
// content digest differs from the stored one.
// It always reads the whole file and never trusts mtime.
func (ph PathHash) IsChanged(ctx context.Context, path string) (bool, error) {
	old, ok := ph[path]
	if !ok {
		return true, nil
	}
	d, err := Digest(ctx, path)
	if err != nil {
		return false, err
	}
	return d != old, nil
}

// Save recomputes the digest of path and stores it if it differs.
// It reports whether the stored value changed.
func (ph PathHash) Save(ctx context.Context, path string) (bool, error) {
	d, err := Digest(ctx, path)
	if err != nil {
		return false, err
	}
	if ph[path] == d {
		return false, nil
	}
	clog.Infof(ctx, "updated hash of %s", path)
	ph[path] = d
	return true, nil
}

// Persist overwrites fname with all entries in ph, sorted by path.
// The write is not atomic; an interrupted write leaves a partial file
// whose missing entries are treated as changed on the next build.
func (ph PathHash) Persist(fname string) error {
	paths := make([]string, 0, len(ph))
	for p := range ph {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	var buf bytes.Buffer
	for _, p := range paths {
		buf.WriteString(p)
		buf.WriteByte(' ')
		buf.WriteString(ph[p])
		buf.WriteByte('\n')
	}
	return os.WriteFile(fname, buf.Bytes(), 0644)
}
