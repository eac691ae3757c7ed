// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package hashfs

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"runtime"
	"sync"

	"golang.org/x/crypto/blake2b"

	"go.chromium.org/infra/build/bldcpp/sync/semaphore"
)

// DigestSemaphore is a semaphore to control concurrent digest calculation.
var DigestSemaphore = semaphore.New("file-digest", runtime.NumCPU())

// bufSize is the size of read buffer used for digest calculation.
// Files are streamed, so memory use doesn't depend on file size.
const bufSize = 1 << 20

var bufPool = sync.Pool{
	New: func() any {
		b := make([]byte, bufSize)
		return &b
	},
}

// Digest returns hex-encoded BLAKE2b-256 digest of the file content.
func Digest(ctx context.Context, fname string) (string, error) {
	var d string
	err := DigestSemaphore.Do(ctx, func(ctx context.Context) error {
		f, err := os.Open(fname)
		if err != nil {
			return err
		}
		defer f.Close()
		d, err = digestReader(f)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", fname, err)
		}
		return nil
	})
	return d, err
}

func digestReader(r io.Reader) (string, error) {
	h, err := blake2b.New256(nil)
	if err != nil {
		return "", err
	}
	bp := bufPool.Get().(*[]byte)
	defer bufPool.Put(bp)
	_, err = io.CopyBuffer(h, r, *bp)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
