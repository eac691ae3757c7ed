// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package ui provides user interface functionalities.
package ui

import (
	"os"
	"strings"

	"golang.org/x/term"
)

// Spinner shows progress of a long operation, such as package fetch.
type Spinner interface {
	// Start starts the spinner with the specified formatted string.
	Start(format string, args ...any)
	// Stop stops the spinner, outputting an error if provided.
	Stop(err error)
	// Done finishes the spinner with message.
	Done(format string, args ...any)
}

// UI is a user interface.
type UI interface {
	// Status replaces the status line, e.g. the running compile.
	Status(msg string)
	// NewSpinner returns a new spinner.
	NewSpinner() Spinner
	// Infof reports a message line.
	Infof(format string, args ...any)
	// Warningf reports a warning message.
	Warningf(format string, args ...any)
	// Errorf reports an error message.
	Errorf(format string, args ...any)
}

// Default holds the default UI interface.
// It is decided at init and must not be changed later.
var Default UI

func init() {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		Default = LogUI{}
		return
	}
	width, _, err := term.GetSize(fd)
	if err != nil {
		width = 0
	}
	Default = &TermUI{width: width}
}

// IsTerminal returns whether currently using a terminal UI.
func IsTerminal() bool {
	_, ok := Default.(*TermUI)
	return ok
}

// fitWidth elides the middle of msg so it fits in width columns.
// width <= 0 means unlimited.
func fitWidth(msg string, width int) string {
	const marker = "..."
	if width <= 0 || len(msg) < width {
		return msg
	}
	keep := width - 1 - len(marker)
	if keep <= 1 {
		return msg
	}
	head := keep / 2
	tail := keep - head
	return msg[:head] + marker + msg[len(msg)-tail:]
}

// SGRCode is a select graphic rendition code.
// https://en.wikipedia.org/wiki/ANSI_escape_code#SGR_(Select_Graphic_Rendition)_parameters
type SGRCode int

const (
	Reset SGRCode = iota
	Bold
	Red
	Green
	Yellow
	BackgroundRed
)

func (s SGRCode) String() string {
	switch s {
	case Bold:
		return "\033[1m"
	case Red:
		return "\033[31;1m"
	case Green:
		return "\033[32m"
	case Yellow:
		return "\033[33m"
	case BackgroundRed:
		return "\033[41;37m"
	}
	return "\033[0m"
}

// SGR decorates s with code n, and resets the rendition after s.
func SGR(n SGRCode, s string) string {
	return n.String() + s + Reset.String()
}

// StripANSIEscapeCodes strips CSI sequences, e.g. colors in compiler
// diagnostics, so that messages can be logged as plain text.
func StripANSIEscapeCodes(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for {
		i := strings.IndexByte(s, '\033')
		if i < 0 {
			sb.WriteString(s)
			return sb.String()
		}
		sb.WriteString(s[:i])
		s = s[i+1:]
		if !strings.HasPrefix(s, "[") {
			continue
		}
		// CSI ends with a letter.
		j := strings.IndexFunc(s[1:], func(r rune) bool {
			return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		})
		if j < 0 {
			return sb.String()
		}
		s = s[1+j+1:]
	}
}
