// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package build

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// CompdbEntry is an entry of compile_commands.json.
// https://clang.llvm.org/docs/JSONCompilationDatabase.html
type CompdbEntry struct {
	Directory string   `json:"directory"`
	File      string   `json:"file"`
	Output    string   `json:"output"`
	Arguments []string `json:"arguments"`
}

// CompileCommand returns the compdb entry to compile s in t, run in dir.
func CompileCommand(dir string, t *Target, s *SourceUnit) CompdbEntry {
	return CompdbEntry{
		Directory: dir,
		File:      s.Path,
		Output:    s.ObjPath,
		Arguments: s.CompileArgs(t),
	}
}

// CompileCommands returns compdb entries of all sources in t.
func (t *Target) CompileCommands(dir string) []CompdbEntry {
	var entries []CompdbEntry
	for _, s := range t.Sources {
		entries = append(entries, CompileCommand(dir, t, s))
	}
	return entries
}

// WriteCompdb writes entries to fname in compile_commands.json format.
func WriteCompdb(fname string, entries []CompdbEntry) error {
	if entries == nil {
		entries = []CompdbEntry{}
	}
	b, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')
	err = os.MkdirAll(filepath.Dir(fname), 0755)
	if err != nil {
		return err
	}
	return os.WriteFile(fname, b, 0644)
}
