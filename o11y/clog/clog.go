// Copyright 2023 The Chromium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package clog provides context aware logging.
// It can store arbitrary labels to each context.
// The main use case is to add build target and source unit context
// to each log entry automatically.
package clog

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
)

type contextKeyType int

var contextKey contextKeyType

// Logger holds arbitrary labels of the context.
// Logging is done by the underlying charmbracelet logger, whose
// level is decided once when the logger is created.
type Logger struct {
	l      *log.Logger
	labels map[string]string
}

// New creates a new Logger writing to w at level.
func New(w io.Writer, level log.Level) *Logger {
	return &Logger{
		l: log.NewWithOptions(w, log.Options{
			Level:           level,
			ReportTimestamp: false,
		}),
	}
}

// ParseLevel parses a log level name, such as "debug", "info", "warn" or "error".
// Empty string means info.
func ParseLevel(s string) (log.Level, error) {
	if s == "" {
		return log.InfoLevel, nil
	}
	lv, err := log.ParseLevel(strings.ToLower(s))
	if err != nil {
		return log.InfoLevel, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return lv, nil
}

// NewContext sets the given logger to the context.
func NewContext(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, contextKey, logger)
}

// NewSpan sets a new logger with the given labels added to the context.
func NewSpan(ctx context.Context, labels map[string]string) context.Context {
	return NewContext(ctx, FromContext(ctx).Span(labels))
}

// FromContext returns a logger in the context.
// If it's not set, it returns a logger using the default charmbracelet logger.
func FromContext(ctx context.Context) *Logger {
	logger, ok := ctx.Value(contextKey).(*Logger)
	if !ok {
		return &Logger{l: log.Default()}
	}
	return logger
}

// Span returns a sub logger with labels added.
func (l *Logger) Span(labels map[string]string) *Logger {
	merged := make(map[string]string, len(l.labels)+len(labels))
	for k, v := range l.labels {
		merged[k] = v
	}
	for k, v := range labels {
		merged[k] = v
	}
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	kvs := make([]any, 0, 2*len(keys))
	for _, k := range keys {
		kvs = append(kvs, k, labels[k])
	}
	return &Logger{
		l:      l.l.With(kvs...),
		labels: merged,
	}
}

// Labels returns the labels of the logger.
func (l *Logger) Labels() map[string]string {
	return l.labels
}

// Enabled reports whether messages at level are logged.
func (l *Logger) Enabled(level log.Level) bool {
	return l.l.GetLevel() <= level
}

// Debugf logs at debug log level in the manner of fmt.Printf.
func (l *Logger) Debugf(format string, args ...any) {
	l.l.Helper()
	l.l.Debugf(format, args...)
}

// Infof logs at info log level in the manner of fmt.Printf.
func (l *Logger) Infof(format string, args ...any) {
	l.l.Helper()
	l.l.Infof(format, args...)
}

// Warningf logs at warning log level in the manner of fmt.Printf.
func (l *Logger) Warningf(format string, args ...any) {
	l.l.Helper()
	l.l.Warnf(format, args...)
}

// Errorf logs at error log level in the manner of fmt.Printf.
func (l *Logger) Errorf(format string, args ...any) {
	l.l.Helper()
	l.l.Errorf(format, args...)
}

// Debugf logs at debug log level in the manner of fmt.Printf.
func Debugf(ctx context.Context, format string, args ...any) {
	logger := FromContext(ctx)
	logger.l.Helper()
	logger.l.Debugf(format, args...)
}

// Infof logs at info log level in the manner of fmt.Printf.
func Infof(ctx context.Context, format string, args ...any) {
	logger := FromContext(ctx)
	logger.l.Helper()
	logger.l.Infof(format, args...)
}

// Warningf logs at warning log level in the manner of fmt.Printf.
func Warningf(ctx context.Context, format string, args ...any) {
	logger := FromContext(ctx)
	logger.l.Helper()
	logger.l.Warnf(format, args...)
}

// Errorf logs at error log level in the manner of fmt.Printf.
func Errorf(ctx context.Context, format string, args ...any) {
	logger := FromContext(ctx)
	logger.l.Helper()
	logger.l.Errorf(format, args...)
}

// V reports whether debug logging is enabled for ctx.
func V(ctx context.Context) bool {
	return FromContext(ctx).Enabled(log.DebugLevel)
}

// SetDefault installs logger as the process default, so that
// packages logging with charmbracelet/log directly use the same level.
func SetDefault(logger *Logger) {
	log.SetDefault(logger.l)
}

// Stderr returns a logger writing to stderr at level.
func Stderr(level log.Level) *Logger {
	return New(os.Stderr, level)
}
