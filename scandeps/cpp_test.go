// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package scandeps

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestCPPScan(t *testing.T) {
	ctx := context.Background()
	for _, tc := range []struct {
		name string
		buf  string
		want []string
	}{
		{
			name: "helloworld",
			buf: `
#include <stdio.h>

int main(int arg, char *argv[]) {
  printf("hello, world\n");
}
`,
			want: nil,
		},
		{
			name: "local",
			buf: `
// Copyright 2012 The Chromium Authors

#ifndef BASE_VERSION_H_
#define BASE_VERSION_H_

#include <stdint.h>
#include <string>

#include "base/base_export.h"
#include "base/strings/string_piece.h"

namespace base {
 ...
}
`,
			want: []string{
				"base/base_export.h",
				"base/strings/string_piece.h",
			},
		},
		{
			name: "spaces",
			buf:  "  #include \"a.h\"\n#  include\t\"b.h\"\n#include\"c.h\" // comment\n",
			want: []string{
				"a.h",
				"b.h",
				"c.h",
			},
		},
		{
			name: "ignored",
			buf: `
#include_next "next.h"
#include CONFIG_H
#include "unclosed.h
#include ""
#include
#define FOO "foo.h"
#import "objc.h"
`,
			want: nil,
		},
		{
			name: "crlf",
			buf:  "#include \"win.h\"\r\n#include \"other.h\"\r\n",
			want: []string{
				"win.h",
				"other.h",
			},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got := CPPScan(ctx, tc.name, []byte(tc.buf))
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("CPPScan(ctx, %q, buf) diff -want +got:\n%s", tc.name, diff)
			}
		})
	}
}
