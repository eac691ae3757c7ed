// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package scandeps

import (
	"bytes"
	"context"
	"time"

	"go.chromium.org/infra/build/bldcpp/o11y/clog"
)

// CPPScan scans C preprocessor directives for #include "..." in buf.
// It returns include paths as written, without quotes, in file order.
func CPPScan(ctx context.Context, fname string, buf []byte) []string {
	started := time.Now()
	v := clog.V(ctx)

	var includes []string
	for len(buf) > 0 {
		var line []byte
		line, buf, _ = bytes.Cut(buf, []byte("\n"))
		inc, reason := quotedInclude(line)
		switch {
		case inc != "":
			includes = append(includes, inc)
		case reason != "" && v:
			clog.Debugf(ctx, "%s: %s %q", fname, reason, bytes.TrimSpace(line))
		}
	}
	if dur := time.Since(started); dur > time.Second {
		clog.Infof(ctx, "slow cppScan %s %s", fname, dur)
	}
	return includes
}

// quotedInclude returns the path of `#include "path"` in line.
// For an include directive it can not use, it returns the reason
// instead. Other lines return empty for both.
func quotedInclude(line []byte) (string, string) {
	line = bytes.TrimSpace(line)
	rest, ok := bytes.CutPrefix(line, []byte("#"))
	if !ok {
		return "", ""
	}
	rest, ok = bytes.CutPrefix(bytes.TrimSpace(rest), []byte("include"))
	if !ok {
		return "", ""
	}
	if len(rest) == 0 {
		return "", "no include path"
	}
	switch rest[0] {
	case ' ', '\t', '"':
	default:
		// e.g. #include_next
		return "", ""
	}
	rest = bytes.TrimSpace(rest)
	path, ok := bytes.CutPrefix(rest, []byte(`"`))
	if !ok {
		return "", "skip system or macro include"
	}
	path, _, ok = bytes.Cut(path, []byte(`"`))
	if !ok {
		return "", "unclosed include path"
	}
	return string(path), ""
}
