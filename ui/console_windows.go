// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package ui

import (
	"os"

	"github.com/charmbracelet/log"
	"golang.org/x/sys/windows"
)

// savedMode is the console mode before Init, or 0 if unchanged.
var savedMode uint32

// Init enables virtual terminal processing of the console, so that
// SGR sequences are rendered.
func Init() {
	h := windows.Handle(os.Stdout.Fd())
	var mode uint32
	err := windows.GetConsoleMode(h, &mode)
	if err != nil {
		log.Debugf("not a console: %v", err)
		return
	}
	if mode&windows.ENABLE_VIRTUAL_TERMINAL_PROCESSING != 0 {
		return
	}
	err = windows.SetConsoleMode(h, mode|windows.ENABLE_VIRTUAL_TERMINAL_PROCESSING)
	if err != nil {
		log.Warnf("failed to enable virtual terminal processing: %v", err)
		return
	}
	savedMode = mode
}

// Restore restores the console mode changed by Init.
func Restore() {
	if savedMode == 0 {
		return
	}
	err := windows.SetConsoleMode(windows.Handle(os.Stdout.Fd()), savedMode)
	if err != nil {
		log.Errorf("failed to restore console mode 0x%x: %v", savedMode, err)
	}
}
