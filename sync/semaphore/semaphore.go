// Copyright 2023 The Chromium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package semaphore provides named counting semaphores used to bound
// concurrent file digests and process forks.
package semaphore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

var registry sync.Map // name -> *Semaphore

// Semaphore is a named counting semaphore.
type Semaphore struct {
	name     string
	capacity int
	w        *semaphore.Weighted

	served atomic.Int64
	waits  atomic.Int64
	reqs   atomic.Int64
}

// New creates a new semaphore with name and capacity, and registers it
// for Lookup. n less than 1 is treated as 1.
func New(name string, n int) *Semaphore {
	n = max(n, 1)
	s := &Semaphore{
		name:     name,
		capacity: n,
		w:        semaphore.NewWeighted(int64(n)),
	}
	registry.Store(name, s)
	return s
}

// Lookup returns the semaphore registered with name.
func Lookup(name string) (*Semaphore, error) {
	v, ok := registry.Load(name)
	if !ok {
		return nil, fmt.Errorf("semaphore %q not found", name)
	}
	return v.(*Semaphore), nil
}

// Names returns names of all registered semaphores.
func Names() []string {
	var names []string
	registry.Range(func(k, _ any) bool {
		names = append(names, k.(string))
		return true
	})
	sort.Strings(names)
	return names
}

// WaitAcquire blocks until a slot is available or ctx is done.
// It returns a func to release the slot; calling it more than once is
// no-op.
func (s *Semaphore) WaitAcquire(ctx context.Context) (func(), error) {
	s.waits.Add(1)
	err := s.w.Acquire(ctx, 1)
	s.waits.Add(-1)
	if err != nil {
		if cause := context.Cause(ctx); cause != nil {
			err = cause
		}
		return func() {}, err
	}
	s.reqs.Add(1)
	s.served.Add(1)
	var once sync.Once
	return func() {
		once.Do(func() {
			s.served.Add(-1)
			s.w.Release(1)
		})
	}, nil
}

// Do runs f while holding a slot.
func (s *Semaphore) Do(ctx context.Context, f func(ctx context.Context) error) error {
	release, err := s.WaitAcquire(ctx)
	if err != nil {
		return err
	}
	defer release()
	return f(ctx)
}

// Name returns name of the semaphore.
func (s *Semaphore) Name() string {
	return s.name
}

// Capacity returns capacity of the semaphore.
func (s *Semaphore) Capacity() int {
	if s == nil {
		return 0
	}
	return s.capacity
}

// NumServs returns number of slots currently held.
func (s *Semaphore) NumServs() int {
	return int(s.served.Load())
}

// NumWaits returns number of waiters.
func (s *Semaphore) NumWaits() int {
	return int(s.waits.Load())
}

// NumRequests returns total number of acquired slots.
func (s *Semaphore) NumRequests() int {
	return int(s.reqs.Load())
}
