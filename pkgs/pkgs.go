// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package pkgs resolves external packages that provide shared libraries.
package pkgs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"go.chromium.org/infra/build/bldcpp/build/buildconfig"
	"go.chromium.org/infra/build/bldcpp/o11y/clog"
)

// Package is an external package fetched from a git repository.
type Package struct {
	// Name is the repository name, used for cache directories.
	Name string
	// Repo is "owner/repo".
	Repo   string
	Branch string

	// Build is the package's build config, with the root project's
	// compiler.
	Build buildconfig.BuildConfig

	// Targets are library targets of the package, with src and
	// include_dir rewritten into the cache.
	Targets []buildconfig.TargetConfig
}

// Libraries returns names of libraries the package provides.
func (p *Package) Libraries() []string {
	var libs []string
	for _, tc := range p.Targets {
		libs = append(libs, tc.Name)
	}
	return libs
}

// ParseSpec parses a package spec "owner/repo branch".
func ParseSpec(spec string) (repo, branch, name string, err error) {
	fields := strings.Fields(spec)
	if len(fields) != 2 {
		return "", "", "", fmt.Errorf("packages must be in the form of \"<git_repo> <branch>\": %q", spec)
	}
	repo = strings.ReplaceAll(fields[0], ",", "")
	branch = fields[1]
	owner, name, ok := strings.Cut(repo, "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return "", "", "", fmt.Errorf("package repo must be \"owner/repo\": %q", repo)
	}
	return repo, branch, name, nil
}

// Resolver resolves package specs into packages.
type Resolver struct {
	Layout  buildconfig.Layout
	Fetcher Fetcher
	// Compiler overrides compilers of packages.
	Compiler string

	inProgress map[string]bool
}

// Resolve fetches packages of specs if needed, and loads their
// manifests. Packages required by packages are resolved recursively.
// The result is sorted by name, with one package per name.
func (r *Resolver) Resolve(ctx context.Context, specs []string) ([]*Package, error) {
	if r.inProgress == nil {
		r.inProgress = make(map[string]bool)
	}
	var pkgs []*Package
	for _, spec := range specs {
		repo, branch, name, err := ParseSpec(spec)
		if err != nil {
			return nil, err
		}
		if r.inProgress[name] {
			clog.Debugf(ctx, "package %s is being resolved", name)
			continue
		}
		r.inProgress[name] = true
		deps, pkg, err := r.resolve(ctx, repo, branch, name)
		delete(r.inProgress, name)
		if err != nil {
			return nil, fmt.Errorf("package %s: %w", repo, err)
		}
		pkgs = append(pkgs, deps...)
		pkgs = append(pkgs, pkg)
	}
	sort.SliceStable(pkgs, func(i, j int) bool {
		return pkgs[i].Name < pkgs[j].Name
	})
	var ret []*Package
	for _, p := range pkgs {
		if len(ret) > 0 && ret[len(ret)-1].Name == p.Name {
			continue
		}
		ret = append(ret, p)
	}
	return ret, nil
}

func (r *Resolver) resolve(ctx context.Context, repo, branch, name string) ([]*Package, *Package, error) {
	srcDir := r.Layout.SourceDir(name)
	_, err := os.Stat(srcDir)
	if errors.Is(err, fs.ErrNotExist) {
		if r.Fetcher == nil {
			return nil, nil, fmt.Errorf("%s not found and no fetcher", srcDir)
		}
		clog.Infof(ctx, "cloning %s into %s", repo, srcDir)
		err = r.Fetcher.Fetch(ctx, repo, branch, srcDir)
		if err != nil {
			// don't leave partial clone, or next build won't fetch.
			os.RemoveAll(srcDir)
			return nil, nil, fmt.Errorf("failed to clone %s branch %s into %s: %w", repo, branch, srcDir, err)
		}
	} else if err != nil {
		return nil, nil, err
	}
	mfname := path.Join(srcDir, r.Layout.ManifestName())
	m, err := buildconfig.Load(ctx, mfname)
	if err != nil {
		return nil, nil, err
	}
	clog.Infof(ctx, "parsed %s", mfname)

	var deps []*Package
	if len(m.Build.Packages) > 0 {
		deps, err = r.Resolve(ctx, m.Build.Packages)
		if err != nil {
			return nil, nil, err
		}
	}
	pkg := &Package{
		Name:   name,
		Repo:   repo,
		Branch: branch,
		Build:  m.Build,
	}
	pkg.Build.Compiler = r.Compiler

	incDir := r.Layout.IncludeDir(name)
	_, err = os.Stat(incDir)
	copyHeaders := errors.Is(err, fs.ErrNotExist)
	for _, tc := range m.Targets {
		if !tc.IsLibrary() {
			continue
		}
		tc.Src = path.Join(srcDir, tc.Src)
		oldInc := path.Join(srcDir, tc.IncludeDir)
		tc.IncludeDir = incDir
		if copyHeaders {
			clog.Infof(ctx, "copy headers %s -> %s", oldInc, incDir)
			err := copyDir(incDir, oldInc)
			if err != nil {
				return nil, nil, fmt.Errorf("failed to copy headers of %s: %w", tc.Name, err)
			}
		}
		pkg.Targets = append(pkg.Targets, tc)
	}
	if copyHeaders && len(pkg.Targets) == 0 {
		clog.Warningf(ctx, "package %s provides no library", name)
	}
	return deps, pkg, nil
}

// copyDir copies files under src into dst, keeping directory structure.
func copyDir(dst, src string) error {
	err := os.MkdirAll(dst, 0755)
	if err != nil {
		return err
	}
	return filepath.WalkDir(src, func(fname string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, fname)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0755)
		}
		if !d.Type().IsRegular() {
			return nil
		}
		return copyFile(target, fname)
	})
}

func copyFile(dst, src string) error {
	r, err := os.Open(src)
	if err != nil {
		return err
	}
	defer r.Close()
	w, err := os.Create(dst)
	if err != nil {
		return err
	}
	_, err = io.Copy(w, r)
	cerr := w.Close()
	if err != nil {
		return err
	}
	return cerr
}
