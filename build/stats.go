// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package build

import (
	"sync"
)

type stats struct {
	mu sync.Mutex
	s  Stats
}

func (s *stats) addTarget(total int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.s.Targets++
	s.s.Sources += total
}

func (s *stats) addTotal(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.s.Total += n
}

func (s *stats) done(err error, warned bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.s.Done++
	if err != nil {
		s.s.Fail++
		return
	}
	s.s.Compiled++
	if warned {
		s.s.Warnings++
	}
}

func (s *stats) finish(state State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch state {
	case UpToDate:
		s.s.UpToDate++
	case Linked:
		s.s.Linked++
	case LinkFailed:
		s.s.LinkFailed++
	}
}

// Stats keeps statistics about the build, such as the number of compiled sources or linked targets.
type Stats struct {
	Targets    int // targets evaluated
	Sources    int // sources in evaluated targets
	Total      int // sources that needed compile
	Done       int // finished compiles, including failed
	Compiled   int // succeeded compiles
	Fail       int // failed compiles
	Warnings   int // succeeded compiles with diagnostics
	UpToDate   int // targets that were up to date
	Linked     int // linked targets
	LinkFailed int // targets that failed to link
}

func (s *stats) stats() Stats {
	if s == nil {
		return Stats{}
	}
	s.mu.Lock()
	stats := s.s
	s.mu.Unlock()
	return stats
}
