// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package shutil

import (
	"fmt"
	"strings"

	"github.com/mattn/go-shellwords"
)

// Split splits a command line.
// It would return error for complicated pipe line.
func Split(cmdline string) ([]string, error) {
	return split(cmdline, shellwords.NewParser())
}

// SplitFlags splits compiler or linker flags.
// Backquoted commands, such as `pkg-config --variable=prefix gtk+-3.0`,
// are run in dir and replaced with their trimmed output.
func SplitFlags(flags, dir string) ([]string, error) {
	p := shellwords.NewParser()
	p.ParseBacktick = true
	p.Dir = dir
	return split(flags, p)
}

func split(cmdline string, p *shellwords.Parser) ([]string, error) {
	args, err := p.Parse(cmdline)
	if err != nil {
		return nil, fmt.Errorf("failed to split %q: %w", cmdline, err)
	}
	if p.Position >= 0 {
		return nil, fmt.Errorf("failed to split: cmdline contains shell metachar %c", cmdline[p.Position])
	}
	if len(args) >= 1 && strings.Contains(args[0], "=") && !strings.HasPrefix(args[0], "-") {
		// if initial args contains =, it would set env var and need to invoke via sh
		return nil, fmt.Errorf("argv[0] is env set %q", args[0])
	}
	return args, nil
}
