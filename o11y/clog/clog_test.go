// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package clog_test is a test for clog package.
package clog_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/google/go-cmp/cmp"

	"go.chromium.org/infra/build/bldcpp/o11y/clog"
)

func TestLevel(t *testing.T) {
	var buf bytes.Buffer
	ctx := clog.NewContext(context.Background(), clog.New(&buf, log.WarnLevel))

	clog.Debugf(ctx, "debug message")
	clog.Infof(ctx, "info message")
	clog.Warningf(ctx, "warning message")
	clog.Errorf(ctx, "error message")

	got := buf.String()
	for _, s := range []string{"debug message", "info message"} {
		if strings.Contains(got, s) {
			t.Errorf("log contains %q at warn level:\n%s", s, got)
		}
	}
	for _, s := range []string{"warning message", "error message"} {
		if !strings.Contains(got, s) {
			t.Errorf("log doesn't contain %q:\n%s", s, got)
		}
	}
	if clog.V(ctx) {
		t.Errorf("clog.V=true at warn level; want false")
	}
}

func TestSpan(t *testing.T) {
	var buf bytes.Buffer
	ctx := clog.NewContext(context.Background(), clog.New(&buf, log.DebugLevel))
	ctx = clog.NewSpan(ctx, map[string]string{"target": "main"})
	ctx = clog.NewSpan(ctx, map[string]string{"src": "src/main.c"})

	clog.Infof(ctx, "compiled")
	got := buf.String()
	for _, s := range []string{"compiled", "target=main", "src=src/main.c"} {
		if !strings.Contains(got, s) {
			t.Errorf("log doesn't contain %q:\n%s", s, got)
		}
	}
	want := map[string]string{"target": "main", "src": "src/main.c"}
	if diff := cmp.Diff(want, clog.FromContext(ctx).Labels()); diff != "" {
		t.Errorf("Labels diff -want +got:\n%s", diff)
	}
	if !clog.V(ctx) {
		t.Errorf("clog.V=false at debug level; want true")
	}
}

func TestParseLevel(t *testing.T) {
	for _, tc := range []struct {
		in      string
		want    log.Level
		wantErr bool
	}{
		{in: "", want: log.InfoLevel},
		{in: "debug", want: log.DebugLevel},
		{in: "Warn", want: log.WarnLevel},
		{in: "ERROR", want: log.ErrorLevel},
		{in: "loud", wantErr: true},
	} {
		got, err := clog.ParseLevel(tc.in)
		if (err != nil) != tc.wantErr {
			t.Errorf("ParseLevel(%q)=_, %v; want err=%t", tc.in, err, tc.wantErr)
			continue
		}
		if err == nil && got != tc.want {
			t.Errorf("ParseLevel(%q)=%v; want %v", tc.in, got, tc.want)
		}
	}
}
