// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package ui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/log"
)

// LogUI is a log-based UI, used when stdout is not a terminal.
// Escape sequences are stripped from all messages.
type LogUI struct{}

// Status logs msg at debug level, since status lines are frequent.
func (LogUI) Status(msg string) {
	log.Debug(StripANSIEscapeCodes(msg))
}

// NewSpinner returns a spinner that logs start and finish.
func (LogUI) NewSpinner() Spinner {
	return &logSpinner{}
}

// Infof logs a message at info level.
func (LogUI) Infof(format string, args ...any) {
	log.Helper()
	log.Info(StripANSIEscapeCodes(fmt.Sprintf(format, args...)))
}

// Warningf logs a message at warn level.
func (LogUI) Warningf(format string, args ...any) {
	log.Helper()
	log.Warn(StripANSIEscapeCodes(fmt.Sprintf(format, args...)))
}

// Errorf logs a message at error level.
func (LogUI) Errorf(format string, args ...any) {
	log.Helper()
	log.Error(StripANSIEscapeCodes(fmt.Sprintf(format, args...)))
}

type logSpinner struct {
	msg     string
	started time.Time
}

func (l *logSpinner) Start(format string, args ...any) {
	l.msg = fmt.Sprintf(format, args...)
	l.started = time.Now()
	log.Info(l.msg)
}

func (l *logSpinner) Stop(err error) {
	d := FormatDuration(time.Since(l.started))
	if err != nil {
		log.Warnf("%s: failed in %s: %v", l.msg, d, err)
		return
	}
	log.Infof("%s: done in %s", l.msg, d)
}

func (l *logSpinner) Done(format string, args ...any) {
	log.Infof("%s in %s", fmt.Sprintf(format, args...), FormatDuration(time.Since(l.started)))
}
