// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package build

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.chromium.org/infra/build/bldcpp/ui"
)

// progress reports compile steps of a target build.
// On a terminal it refreshes a status line with the oldest running
// step; otherwise it prints one line per finished step.
type progress struct {
	started time.Time
	verbose bool

	mu      sync.Mutex
	actives map[*stepInfo]struct{}

	done          chan struct{}
	updateStopped chan struct{}
	count         atomic.Int64
}

type stepInfo struct {
	desc    string
	started time.Time
}

func (p *progress) start(ctx context.Context, b *Builder) {
	p.started = time.Now()
	p.verbose = b.opts.Verbose
	p.mu.Lock()
	p.actives = make(map[*stepInfo]struct{})
	p.mu.Unlock()
	p.done = make(chan struct{})
	p.updateStopped = make(chan struct{})
	go p.update(ctx, b)
}

// oldest returns the longest running step, or nil.
func (p *progress) oldest() *stepInfo {
	p.mu.Lock()
	defer p.mu.Unlock()
	var si *stepInfo
	for s := range p.actives {
		if si == nil || s.started.Before(si.started) {
			si = s
		}
	}
	return si
}

func (p *progress) update(ctx context.Context, b *Builder) {
	defer close(p.updateStopped)
	if !ui.IsTerminal() || p.verbose {
		return
	}
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-p.done:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		si := p.oldest()
		if si == nil {
			continue
		}
		msg := fmt.Sprintf("[%d/%d] %s %s: %s",
			p.count.Load(), b.stats.stats().Total,
			ui.FormatDuration(time.Since(p.started)),
			ui.FormatDuration(time.Since(si.started)),
			si.desc)
		ui.Default.Status(msg)
	}
}

func (p *progress) stop() {
	close(p.done)
	<-p.updateStopped
}

// startStep registers a running step, and returns its info to pass
// to finishStep.
func (p *progress) startStep(desc string) *stepInfo {
	si := &stepInfo{
		desc:    desc,
		started: time.Now(),
	}
	p.mu.Lock()
	p.actives[si] = struct{}{}
	p.mu.Unlock()
	return si
}

func (p *progress) finishStep(b *Builder, si *stepInfo, cmdline string, err error) {
	p.mu.Lock()
	delete(p.actives, si)
	p.mu.Unlock()
	n := p.count.Add(1)
	if ui.IsTerminal() && !p.verbose && err == nil {
		return
	}
	stat := b.stats.stats()
	msg := fmt.Sprintf("[%d/%d] %s ", n, stat.Total, ui.FormatDuration(time.Since(p.started)))
	if p.verbose {
		msg += cmdline
	} else {
		msg += si.desc
	}
	if err != nil {
		msg = ui.SGR(ui.Red, "FAILED: ") + msg
	}
	ui.Default.Infof("%s", msg)
}

func (p *progress) report(format string, args ...any) {
	ui.Default.Infof(format, args...)
}
