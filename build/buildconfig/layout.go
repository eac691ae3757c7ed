// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package buildconfig

import (
	"path"
	"runtime"
)

// DefaultDir is a directory for build outputs and caches, relative to
// the project root.
const DefaultDir = ".bld_cpp"

// Layout describes where build outputs live.
// All paths are slash separated and relative to the project root.
type Layout struct {
	// Dir is the top directory, usually ".bld_cpp".
	Dir string
	// OS is the os tag used in file names: "linux" or "win32".
	OS string
}

// DefaultLayout returns the layout for the running platform.
func DefaultLayout() Layout {
	return Layout{
		Dir: DefaultDir,
		OS:  OSTag(runtime.GOOS),
	}
}

// OSTag returns the os tag used in file names for goos.
func OSTag(goos string) string {
	if goos == "windows" {
		return "win32"
	}
	return "linux"
}

// IsWindows reports whether the layout targets windows.
func (l Layout) IsWindows() bool {
	return l.OS == "win32"
}

// ManifestName returns the manifest file name for the platform.
func (l Layout) ManifestName() string {
	return "config_" + l.OS + ".toml"
}

// BinDir returns the directory of linked binaries.
func (l Layout) BinDir() string {
	return path.Join(l.Dir, "bin")
}

// ObjDir returns the directory of object files.
func (l Layout) ObjDir() string {
	return path.Join(l.Dir, "obj_"+l.OS)
}

// HashFile returns the hash store path of target.
func (l Layout) HashFile(target string) string {
	return path.Join(l.Dir, target+"."+l.OS+".hash")
}

// SourceDir returns the directory where package pkg is fetched.
func (l Layout) SourceDir(pkg string) string {
	return path.Join(l.Dir, "sources", pkg)
}

// IncludeDir returns the directory where headers of package pkg are
// copied.
func (l Layout) IncludeDir(pkg string) string {
	return path.Join(l.Dir, "includes", pkg)
}

// LockFile returns the path of the build lock file.
func (l Layout) LockFile() string {
	return path.Join(l.Dir, ".lock")
}

// ObjPath returns the object file path of the source named name in
// target.
func (l Layout) ObjPath(target, name string) string {
	return path.Join(l.ObjDir(), target+"_"+name+".o")
}

// BinName returns the file name of the linked binary of tc.
func (l Layout) BinName(tc TargetConfig) string {
	switch {
	case tc.IsLibrary() && l.IsWindows():
		return tc.Name + ".dll"
	case tc.IsLibrary():
		return tc.Name + ".so"
	case l.IsWindows():
		return tc.Name + ".exe"
	}
	return tc.Name
}

// BinPath returns the path of the linked binary of tc.
func (l Layout) BinPath(tc TargetConfig) string {
	return path.Join(l.BinDir(), l.BinName(tc))
}
