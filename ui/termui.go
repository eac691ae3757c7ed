// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package ui

import (
	"fmt"
	"os"
	"sync"
	"time"
)

const clearLine = "\r\033[K"

// TermUI is a terminal-based UI, which keeps one status line at the
// bottom of the terminal.
type TermUI struct {
	width int

	mu     sync.Mutex
	status bool
}

// Status replaces the status line with msg, elided to the terminal width.
func (t *TermUI) Status(msg string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprint(os.Stdout, clearLine+fitWidth(msg, t.width))
	t.status = true
}

// println prints a message line above the status line.
func (t *TermUI) println(w *os.File, msg string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status {
		fmt.Fprint(os.Stdout, clearLine)
		t.status = false
	}
	fmt.Fprintln(w, msg)
}

// NewSpinner returns a terminal-based spinner.
func (t *TermUI) NewSpinner() Spinner {
	return &termSpinner{}
}

// Infof prints a message line to stdout.
func (t *TermUI) Infof(format string, args ...any) {
	t.println(os.Stdout, fmt.Sprintf(format, args...))
}

// Warningf prints a warning message to stderr.
func (t *TermUI) Warningf(format string, args ...any) {
	t.println(os.Stderr, SGR(Yellow, fmt.Sprintf(format, args...)))
}

// Errorf prints an error message to stderr.
func (t *TermUI) Errorf(format string, args ...any) {
	t.println(os.Stderr, SGR(Red, fmt.Sprintf(format, args...)))
}

type termSpinner struct {
	msg     string
	started time.Time
	stop    chan struct{}
	stopped chan struct{}
}

// Start prints msg followed by a spinning bar.
func (s *termSpinner) Start(format string, args ...any) {
	s.msg = fmt.Sprintf(format, args...)
	s.started = time.Now()
	s.stop = make(chan struct{})
	s.stopped = make(chan struct{})
	fmt.Printf("%s... ", s.msg)
	go func() {
		defer close(s.stopped)
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		const bars = `/-\|`
		for i := 0; ; i++ {
			select {
			case <-s.stop:
				return
			case <-ticker.C:
				fmt.Printf("\b%c", bars[i%len(bars)])
			}
		}
	}()
}

func (s *termSpinner) finish() time.Duration {
	close(s.stop)
	<-s.stopped
	fmt.Print(clearLine)
	return time.Since(s.started)
}

// Stop stops the spinner. It prints the result only if the operation
// failed or took long.
func (s *termSpinner) Stop(err error) {
	d := s.finish()
	switch {
	case err != nil:
		fmt.Printf("%6s %s failed: %v\n", FormatDuration(d), s.msg, err)
	case d >= DurationThreshold:
		fmt.Printf("%6s %s\n", FormatDuration(d), s.msg)
	}
}

// Done finishes the spinner with message.
func (s *termSpinner) Done(format string, args ...any) {
	d := s.finish()
	fmt.Printf("%6s %s\n", FormatDuration(d), fmt.Sprintf(format, args...))
}
