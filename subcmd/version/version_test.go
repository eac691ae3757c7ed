// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package version

import (
	"bytes"
	"runtime"
	"strings"
	"testing"
)

func TestPrintBuildInfo(t *testing.T) {
	var buf bytes.Buffer
	printBuildInfo(&buf)
	if !strings.HasPrefix(buf.String(), "go\t"+runtime.Version()) {
		t.Errorf("printBuildInfo()=%q; want prefix go\\t%s", buf.String(), runtime.Version())
	}
}

func TestPrintCPUInfo(t *testing.T) {
	var buf bytes.Buffer
	printCPUInfo(&buf)
	for _, key := range []string{"cpu\t", "cores\t", "numcpu\t"} {
		if !strings.Contains(buf.String(), key) {
			t.Errorf("printCPUInfo()=%q; want %q", buf.String(), key)
		}
	}
}
