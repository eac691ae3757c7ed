// Copyright 2024 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package buildcmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// errLocked is returned when another build holds the lock.
var errLocked = errors.New("locked by other build")

// lockFile is an exclusive lock held while building a project.
// The lock file records pid of the holder.
type lockFile struct {
	f *os.File
}

func acquireLock(fname string) (*lockFile, error) {
	f, err := os.OpenFile(fname, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, err
	}
	err = tryLock(f)
	if errors.Is(err, errLocked) {
		holder := lockHolder(f)
		f.Close()
		return nil, fmt.Errorf("%s: %w (%s)", fname, errLocked, holder)
	}
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to lock %s: %w", fname, err)
	}
	// windows doesn't allow to write the locked region via other
	// handles, so holder info is best effort.
	if err := f.Truncate(0); err == nil {
		_, _ = f.WriteAt(fmt.Appendf(nil, "pid=%d", os.Getpid()), 0)
	}
	return &lockFile{f: f}, nil
}

func lockHolder(f *os.File) string {
	buf, err := io.ReadAll(io.NewSectionReader(f, 0, 64))
	if err != nil || len(buf) == 0 {
		return "unknown holder"
	}
	return strings.TrimSpace(string(buf))
}

func (l *lockFile) release() error {
	var errs *multierror.Error
	if err := unlock(l.f); err != nil {
		errs = multierror.Append(errs, err)
	}
	if err := l.f.Close(); err != nil {
		errs = multierror.Append(errs, err)
	}
	return errs.ErrorOrNil()
}
