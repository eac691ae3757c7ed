// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package build

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/hashicorp/go-multierror"
	"github.com/klauspost/cpuid/v2"

	"go.chromium.org/infra/build/bldcpp/ui"
)

// Limits specifies the resource limits used in bldcpp build process.
type Limits struct {
	// Compile limits concurrent compiles in a target.
	Compile int
	// Scan limits concurrent rebuild checks in a target.
	Scan int
}

// DefaultLimits returns default limits.
// BLDCPP_LIMITS environment variable overrides them with
// comma-separated <key>=<value> pairs, e.g.
//
//	BLDCPP_LIMITS=compile=8,scan=16
var DefaultLimits = sync.OnceValue(func() Limits {
	l := Limits{
		Compile: numCores(),
		Scan:    runtime.NumCPU(),
	}
	env := os.Getenv("BLDCPP_LIMITS")
	if env == "" {
		return l
	}
	l, err := parseLimits(l, env)
	if err != nil {
		log.Warnf("BLDCPP_LIMITS=%q: %v", env, err)
	}
	ui.Default.Warningf("use compile=%d scan=%d from BLDCPP_LIMITS", l.Compile, l.Scan)
	return l
})

// parseLimits applies overrides in s to l. Malformed entries are
// skipped and reported in the returned error.
func parseLimits(l Limits, s string) (Limits, error) {
	var errs *multierror.Error
	for _, ov := range strings.Split(s, ",") {
		ov = strings.TrimSpace(ov)
		if ov == "" {
			continue
		}
		k, v, ok := strings.Cut(ov, "=")
		if !ok {
			errs = multierror.Append(errs, fmt.Errorf("missing '=' in %q", ov))
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			errs = multierror.Append(errs, fmt.Errorf("%s: want positive integer, got %q", k, v))
			continue
		}
		switch k {
		case "compile":
			l.Compile = n
		case "scan":
			l.Scan = n
		default:
			errs = multierror.Append(errs, fmt.Errorf("unknown limits name %q", k))
		}
	}
	return l, errs.ErrorOrNil()
}

// numCores returns the number of logical cores, as detected from cpuid.
func numCores() int {
	if n := cpuid.CPU.LogicalCores; n > 0 {
		return n
	}
	return runtime.NumCPU()
}
