// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package build

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.chromium.org/infra/build/bldcpp/build/buildconfig"
	"go.chromium.org/infra/build/bldcpp/hashfs"
	"go.chromium.org/infra/build/bldcpp/o11y/clog"
	"go.chromium.org/infra/build/bldcpp/pkgs"
	"go.chromium.org/infra/build/bldcpp/scandeps"
	"go.chromium.org/infra/build/bldcpp/toolsupport/shutil"
)

// Target is a target instantiated for a build invocation.
type Target struct {
	Config buildconfig.TargetConfig
	Build  buildconfig.BuildConfig

	// Deps are library targets this target links with.
	Deps []*Target
	// Packages supply include dirs and libraries.
	Packages []*pkgs.Package

	BinPath  string
	HashFile string
	// Hashes are digests recorded by the last successful build.
	Hashes hashfs.PathHash

	Sources []*SourceUnit

	cflags []string
	libs   []string
	layout buildconfig.Layout
	state  State
}

// State returns the current build state of the target.
func (t *Target) State() State {
	return t.state
}

// Name returns the target name.
func (t *Target) Name() string {
	return t.Config.Name
}

// NewTarget creates a target for tc. Library deps are resolved from all
// and constructed recursively; deps may also name package libraries.
// It scans sources under tc.Src and computes their dependant includes.
func NewTarget(ctx context.Context, bc buildconfig.BuildConfig, tc buildconfig.TargetConfig, all []buildconfig.TargetConfig, packages []*pkgs.Package, layout buildconfig.Layout) (*Target, error) {
	return newTarget(ctx, bc, tc, all, packages, layout, make(map[string]bool))
}

func newTarget(ctx context.Context, bc buildconfig.BuildConfig, tc buildconfig.TargetConfig, all []buildconfig.TargetConfig, packages []*pkgs.Package, layout buildconfig.Layout, visiting map[string]bool) (*Target, error) {
	if visiting[tc.Name] {
		return nil, &ConfigError{Target: tc.Name, Msg: "dependency cycle"}
	}
	visiting[tc.Name] = true
	defer delete(visiting, tc.Name)

	ctx = clog.NewSpan(ctx, map[string]string{"target": tc.Name})
	t := &Target{
		Config:   tc,
		Build:    bc,
		Packages: packages,
		BinPath:  layout.BinPath(tc),
		HashFile: layout.HashFile(tc.Name),
		layout:   layout,
	}

	pkgLibs := make(map[string]bool)
	for _, p := range packages {
		for _, lib := range p.Libraries() {
			pkgLibs[lib] = true
		}
	}
	var missing []string
	for _, dep := range tc.Deps {
		dtc, ok := findTarget(all, dep)
		if !ok {
			if pkgLibs[dep] {
				clog.Debugf(ctx, "dep %s is provided by package", dep)
				continue
			}
			missing = append(missing, dep)
			continue
		}
		if !dtc.IsLibrary() {
			return nil, &ConfigError{
				Target: tc.Name,
				Msg:    fmt.Sprintf("can add only dlls as dependant libs: %s is %s", dtc.Name, dtc.Type),
			}
		}
		if !strings.HasPrefix(dtc.Name, "lib") {
			clog.Warningf(ctx, "dependant lib name should start with lib: %s", dtc.Name)
		}
		dt, err := newTarget(ctx, bc, dtc, all, packages, layout, visiting)
		if err != nil {
			return nil, err
		}
		clog.Debugf(ctx, "adding dependant lib: %s", dtc.Name)
		t.Deps = append(t.Deps, dt)
	}
	if len(missing) > 0 {
		var libs []string
		for _, c := range all {
			if c.IsLibrary() {
				libs = append(libs, c.Name)
			}
		}
		var plibs []string
		for lib := range pkgLibs {
			plibs = append(plibs, lib)
		}
		sort.Strings(plibs)
		libs = append(libs, plibs...)
		return nil, &ConfigError{
			Target: tc.Name,
			Msg:    fmt.Sprintf("dependant libs not found: %q. requested deps: %q, found libs: %q", missing, tc.Deps, libs),
		}
	}

	var err error
	t.cflags, err = shutil.SplitFlags(tc.CFlags, ".")
	if err != nil {
		return nil, &ConfigError{Target: tc.Name, Msg: "bad cflags", Err: err}
	}
	t.libs, err = shutil.SplitFlags(tc.Libs, ".")
	if err != nil {
		return nil, &ConfigError{Target: tc.Name, Msg: "bad libs", Err: err}
	}

	t.Hashes, err = hashfs.Load(ctx, t.HashFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load hashes of %s: %w", tc.Name, err)
	}

	srcs, err := buildconfig.SourceFiles(tc.Src)
	if err != nil {
		return nil, &ConfigError{Target: tc.Name, Msg: "bad src", Err: err}
	}
	if len(srcs) == 0 {
		return nil, &ConfigError{Target: tc.Name, Msg: "no source files found in " + tc.Src}
	}
	resolver := scandeps.NewResolver(tc.IncludeDir)
	for _, src := range srcs {
		name := buildconfig.LogicalName(src)
		includes, err := resolver.DependantIncludes(ctx, src)
		if err != nil {
			return nil, fmt.Errorf("target %s: %w", tc.Name, err)
		}
		t.Sources = append(t.Sources, &SourceUnit{
			Path:     src,
			Name:     name,
			ObjPath:  layout.ObjPath(tc.Name, name),
			Includes: includes,
			binPath:  t.BinPath,
		})
	}
	clog.Debugf(ctx, "%d sources, %d headers scanned", len(t.Sources), resolver.NumScans()-len(t.Sources))
	return t, nil
}

func findTarget(all []buildconfig.TargetConfig, name string) (buildconfig.TargetConfig, bool) {
	for _, tc := range all {
		if tc.Name == name {
			return tc, true
		}
	}
	return buildconfig.TargetConfig{}, false
}

// includeDirs returns include dirs to compile the target's sources.
func (t *Target) includeDirs() []string {
	dirs := []string{t.Config.IncludeDir}
	for _, d := range t.Deps {
		dirs = append(dirs, d.Config.IncludeDir)
	}
	seen := make(map[string]bool)
	for _, p := range t.Packages {
		dir := t.layout.IncludeDir(p.Name)
		if seen[dir] {
			continue
		}
		seen[dir] = true
		dirs = append(dirs, dir)
	}
	return dirs
}

// headers returns all dependant includes of the target's sources.
func (t *Target) headers() []string {
	seen := make(map[string]bool)
	var hdrs []string
	for _, s := range t.Sources {
		for _, h := range s.Includes {
			if seen[h] {
				continue
			}
			seen[h] = true
			hdrs = append(hdrs, h)
		}
	}
	return hdrs
}
