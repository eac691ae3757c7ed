// Copyright 2023 The Chromium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package shutil

import "strings"

// Join joins a command line args to a single string.
// Args that contain shell metachars are quoted, so the result can be
// pasted into a shell to rerun the same command.
func Join(args []string) string {
	var sb strings.Builder
	for i, arg := range args {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(quote(arg))
	}
	return sb.String()
}

func quote(arg string) string {
	if arg == "" {
		return `""`
	}
	if !strings.ContainsAny(arg, " \t\n\"'\\$`;&|<>()*?#") {
		return arg
	}
	var sb strings.Builder
	sb.WriteByte('"')
	for _, ch := range arg {
		switch ch {
		case '"', '\\', '$', '`':
			sb.WriteByte('\\')
		}
		sb.WriteRune(ch)
	}
	sb.WriteByte('"')
	return sb.String()
}
