// Copyright 2023 The Chromium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package build implements incremental build of C/C++ targets.
package build

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"go.chromium.org/infra/build/bldcpp/build/buildconfig"
	"go.chromium.org/infra/build/bldcpp/execute"
	"go.chromium.org/infra/build/bldcpp/o11y/clog"
	"go.chromium.org/infra/build/bldcpp/pkgs"
	"go.chromium.org/infra/build/bldcpp/toolsupport/shutil"
)

// Options is options for the builder.
type Options struct {
	// Jobs is the number of concurrent compiles. 0 means DefaultLimits().Compile.
	Jobs int
	// Executor runs compile and link commands.
	Executor execute.Executor
	Layout   buildconfig.Layout
	// Verbose prints command lines instead of descriptions.
	Verbose bool
}

// Builder builds targets.
type Builder struct {
	opts  Options
	start time.Time

	stats    *stats
	progress progress

	// package libraries built (or being built) by this builder.
	pkgBuilt map[string]bool
	// targets built by this builder, in build order.
	targets []*Target
}

// Result is a result of a target build.
type Result struct {
	Target string
	State  State
	// Compiled is the number of compiled sources.
	Compiled int
	// LinkCausers are sources that needed rebuild, with reasons.
	LinkCausers []string
	Warnings    []string
}

// New creates a new builder.
func New(ctx context.Context, opts Options) (*Builder, error) {
	if opts.Executor == nil {
		return nil, errors.New("no executor")
	}
	if opts.Jobs <= 0 {
		opts.Jobs = DefaultLimits().Compile
	}
	if opts.Layout.Dir == "" {
		opts.Layout = buildconfig.DefaultLayout()
	}
	clog.Infof(ctx, "builder jobs=%d layout=%s os=%s", opts.Jobs, opts.Layout.Dir, opts.Layout.OS)
	return &Builder{
		opts:     opts,
		start:    time.Now(),
		stats:    &stats{},
		pkgBuilt: make(map[string]bool),
	}, nil
}

// Stats returns stats of the builder.
func (b *Builder) Stats() Stats {
	return b.stats.stats()
}

// Targets returns targets built by the builder, in build order.
func (b *Builder) Targets() []*Target {
	return b.targets
}

// BuildTargets arranges targets in dependency order, and builds them
// one by one with packages.
func (b *Builder) BuildTargets(ctx context.Context, bc buildconfig.BuildConfig, targets []buildconfig.TargetConfig, packages []*pkgs.Package) ([]Result, error) {
	arranged, err := ArrangeTargets(targets)
	if err != nil {
		return nil, err
	}
	var results []Result
	for _, tc := range arranged {
		t, err := NewTarget(ctx, bc, tc, arranged, packages, b.opts.Layout)
		if err != nil {
			return results, err
		}
		r, err := b.Build(ctx, t)
		results = append(results, r)
		if err != nil {
			return results, err
		}
	}
	return results, nil
}

// Build builds libraries of t's packages, then t.
// Libraries of t's deps must be built before.
func (b *Builder) Build(ctx context.Context, t *Target) (Result, error) {
	for _, p := range t.Packages {
		err := b.buildPackage(ctx, p, t.Packages)
		if err != nil {
			return Result{Target: t.Name(), State: t.State()}, err
		}
	}
	return b.buildTarget(ctx, t)
}

// buildPackage builds libraries of p once per builder, after the
// packages p requires.
func (b *Builder) buildPackage(ctx context.Context, p *pkgs.Package, avail []*pkgs.Package) error {
	if b.pkgBuilt[p.Name] {
		return nil
	}
	b.pkgBuilt[p.Name] = true
	var deps []*pkgs.Package
	for _, spec := range p.Build.Packages {
		_, _, name, err := pkgs.ParseSpec(spec)
		if err != nil {
			return fmt.Errorf("package %s: %w", p.Name, err)
		}
		for _, dp := range avail {
			if dp.Name != name {
				continue
			}
			err := b.buildPackage(ctx, dp, avail)
			if err != nil {
				return err
			}
			deps = append(deps, dp)
		}
	}
	ctx = clog.NewSpan(ctx, map[string]string{"package": p.Name})
	arranged, err := ArrangeTargets(p.Targets)
	if err != nil {
		return fmt.Errorf("package %s: %w", p.Name, err)
	}
	for _, tc := range arranged {
		t, err := NewTarget(ctx, p.Build, tc, arranged, deps, b.opts.Layout)
		if err != nil {
			return fmt.Errorf("package %s: %w", p.Name, err)
		}
		_, err = b.buildTarget(ctx, t)
		if err != nil {
			return fmt.Errorf("package %s: %w", p.Name, err)
		}
	}
	return nil
}

func (b *Builder) buildTarget(ctx context.Context, t *Target) (Result, error) {
	ctx = clog.NewSpan(ctx, map[string]string{"target": t.Name()})
	b.targets = append(b.targets, t)
	result := Result{Target: t.Name()}
	t.state = NotStarted
	b.stats.addTarget(len(t.Sources))

	todo, causers, err := b.evaluate(ctx, t)
	result.LinkCausers = causers
	result.State = t.state
	if err != nil {
		return result, err
	}
	if len(todo) == 0 {
		t.state = UpToDate
		result.State = t.state
		b.stats.finish(t.state)
		b.progress.report("%s is up to date", t.Name())
		return result, nil
	}
	b.progress.report("compiling %s: %d of %d source files have to be compiled", t.Name(), len(todo), len(t.Sources))

	t.state = Compiling
	result.State = t.state
	warnings, err := b.compile(ctx, t, todo)
	result.Warnings = warnings
	result.Compiled = len(todo)
	if len(warnings) > 0 {
		clog.Warningf(ctx, "warnings emitted during build:")
		for _, w := range warnings {
			clog.Warningf(ctx, "\t%s", w)
		}
	}
	if err != nil {
		return result, err
	}

	// refresh hashes after all compiles finished, so the map is
	// only mutated here.
	for _, s := range t.Sources {
		_, err := t.Hashes.Save(ctx, s.Path)
		if err != nil {
			return result, err
		}
	}
	for _, h := range t.headers() {
		_, err := t.Hashes.Save(ctx, h)
		if err != nil {
			return result, err
		}
	}

	t.state = LinkNeeded
	result.State = t.state
	clog.Infof(ctx, "linking %s since source files were compiled: %s", t.Name(), strings.Join(causers, ", "))
	err = os.MkdirAll(b.opts.Layout.BinDir(), 0755)
	if err != nil {
		return result, err
	}
	err = t.link(ctx, b.opts.Executor)
	if err != nil {
		t.state = LinkFailed
		result.State = t.state
		b.stats.finish(t.state)
		return result, err
	}
	// persist hashes only after the binary is linked, so a failure
	// leaves the previous store and the next build retries.
	err = t.Hashes.Persist(t.HashFile)
	if err != nil {
		return result, fmt.Errorf("failed to save hashes of %s: %w", t.Name(), err)
	}
	t.state = Linked
	result.State = t.state
	b.stats.finish(t.state)
	return result, nil
}

// evaluate runs NeedsRebuild of all sources in parallel, and returns
// sources to compile with the reasons.
func (b *Builder) evaluate(ctx context.Context, t *Target) ([]*SourceUnit, []string, error) {
	needs := make([]bool, len(t.Sources))
	reasons := make([]string, len(t.Sources))
	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(DefaultLimits().Scan)
	for i, s := range t.Sources {
		i, s := i, s // per-iteration copies (go directive < 1.22)
		eg.Go(func() error {
			need, reason, err := s.NeedsRebuild(gctx, t.Hashes)
			if err != nil {
				return fmt.Errorf("failed to check %s: %w", s.Path, err)
			}
			needs[i] = need
			reasons[i] = reason
			return nil
		})
	}
	err := eg.Wait()
	if err != nil {
		return nil, nil, err
	}
	t.state = SourcesEvaluated
	var todo []*SourceUnit
	var causers []string
	for i, s := range t.Sources {
		clog.Debugf(ctx, "%s: %t %s", s.Path, needs[i], reasons[i])
		if needs[i] {
			todo = append(todo, s)
			causers = append(causers, reasons[i])
		}
	}
	return todo, causers, nil
}

// compile compiles srcs in parallel. After a compile fails, it doesn't
// start new compiles, but running compiles finish with ctx.
func (b *Builder) compile(ctx context.Context, t *Target, srcs []*SourceUnit) ([]string, error) {
	err := os.MkdirAll(b.opts.Layout.ObjDir(), 0755)
	if err != nil {
		return nil, err
	}
	b.stats.addTotal(len(srcs))
	b.progress.start(ctx, b)
	defer b.progress.stop()

	var mu sync.Mutex
	var warnings []string
	var failed atomic.Bool
	var eg errgroup.Group
	eg.SetLimit(b.opts.Jobs)
	for _, s := range srcs {
		if failed.Load() || ctx.Err() != nil {
			break
		}
		s := s // per-iteration copy (go directive < 1.22)
		eg.Go(func() error {
			if failed.Load() {
				return nil
			}
			si := b.progress.startStep("CXX " + s.Path)
			warn, err := s.Compile(ctx, b.opts.Executor, t)
			warn = strings.TrimSpace(warn)
			b.stats.done(err, warn != "")
			b.progress.finishStep(b, si, shutil.Join(s.CompileArgs(t)), err)
			if err != nil {
				failed.Store(true)
				return err
			}
			clog.Debugf(ctx, "compiled: %s", s.Path)
			if warn != "" {
				mu.Lock()
				warnings = append(warnings, warn)
				mu.Unlock()
			}
			return nil
		})
	}
	err = eg.Wait()
	if err == nil && ctx.Err() != nil {
		err = context.Cause(ctx)
	}
	return warnings, err
}

// BinExists reports whether the binary of t exists.
func (t *Target) BinExists() bool {
	_, err := os.Stat(t.BinPath)
	return !errors.Is(err, fs.ErrNotExist)
}
