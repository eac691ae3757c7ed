// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package scandeps provides forged C/C++ dependency scanner.
// Compared with the compiler's *.d outputs, it only supports simple
// form of C preprocessor directives, and only follows local headers.
//
// It only checks the following form of #include
//
//	#include "foo.h"
//
// Angle-bracket includes are system headers and are not tracked.
// Quoted include paths are resolved relative to the target's
// include dir only, not relative to the including file.
//
// Since it doesn't process `#if` or `#ifdef`, it follows all
// #include in the file. Using extra inputs is not a problem for
// change detection; it may rebuild a bit more than needed.
//
// It doesn't allow comments nor multiline (\ at the end of line)
// for the directives.
package scandeps
