// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package buildconfig provides build config for `bldcpp build`.
package buildconfig

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"go.chromium.org/infra/build/bldcpp/o11y/clog"
)

// Kind is a kind of target.
type Kind string

const (
	// Executable is a target linked into an executable.
	Executable Kind = "exe"
	// SharedLibrary is a target linked into a shared library.
	SharedLibrary Kind = "dll"
)

func (k Kind) String() string {
	switch k {
	case Executable:
		return "executable"
	case SharedLibrary:
		return "shared library"
	}
	return fmt.Sprintf("unknown kind %q", string(k))
}

// BuildConfig is the [build] section of a manifest.
type BuildConfig struct {
	// Compiler is used to compile and link all targets.
	Compiler string
	// Packages are "owner/repo branch" specs of external packages.
	Packages []string
	// PreBuild is a shell command to run before build.
	PreBuild string
	// PostBuild is a shell command to run after successful build.
	PostBuild string
}

// TargetConfig is a [[targets]] entry of a manifest.
type TargetConfig struct {
	Name       string
	Src        string
	IncludeDir string
	Type       Kind
	CFlags     string
	Libs       string
	Deps       []string
}

// IsLibrary reports whether the target is a shared library.
func (tc TargetConfig) IsLibrary() bool {
	return tc.Type == SharedLibrary
}

// Manifest is a parsed manifest.
type Manifest struct {
	Build   BuildConfig
	Targets []TargetConfig
}

// Target returns a target config of name.
func (m *Manifest) Target(name string) (TargetConfig, bool) {
	for _, tc := range m.Targets {
		if tc.Name == name {
			return tc, true
		}
	}
	return TargetConfig{}, false
}

type rawManifest struct {
	Build   *rawBuild   `toml:"build"`
	Targets []rawTarget `toml:"targets"`
}

type rawBuild struct {
	Compiler  *string  `toml:"compiler"`
	Packages  []string `toml:"packages"`
	PreBuild  string   `toml:"pre_build"`
	PostBuild string   `toml:"post_build"`
}

type rawTarget struct {
	Name       *string  `toml:"name"`
	Src        *string  `toml:"src"`
	IncludeDir *string  `toml:"include_dir"`
	Type       *string  `toml:"type"`
	CFlags     *string  `toml:"cflags"`
	Libs       *string  `toml:"libs"`
	Deps       []string `toml:"deps"`
}

// Load loads a manifest from fname.
func Load(ctx context.Context, fname string) (*Manifest, error) {
	b, err := os.ReadFile(fname)
	if err != nil {
		return nil, fmt.Errorf("could not read config file: %w", err)
	}
	return Parse(ctx, fname, b)
}

// Parse parses a manifest in buf. fname is used for messages.
func Parse(ctx context.Context, fname string, buf []byte) (*Manifest, error) {
	var raw rawManifest
	md, err := toml.Decode(string(buf), &raw)
	if err != nil {
		return nil, fmt.Errorf("could not parse config file %s: %w", fname, err)
	}
	for _, key := range md.Undecoded() {
		clog.Warningf(ctx, "%s: unknown key %q", fname, key.String())
	}
	if raw.Build == nil {
		return nil, fmt.Errorf("%s: could not find [build]", fname)
	}
	if raw.Build.Compiler == nil || *raw.Build.Compiler == "" {
		return nil, fmt.Errorf("%s: could not find compiler in [build]", fname)
	}
	m := &Manifest{
		Build: BuildConfig{
			Compiler:  *raw.Build.Compiler,
			Packages:  raw.Build.Packages,
			PreBuild:  raw.Build.PreBuild,
			PostBuild: raw.Build.PostBuild,
		},
	}
	if len(raw.Targets) == 0 {
		return nil, fmt.Errorf("%s: no targets found", fname)
	}
	seen := make(map[string]bool)
	for i, rt := range raw.Targets {
		tc, err := rt.targetConfig()
		if err != nil {
			return nil, fmt.Errorf("%s: targets[%d]: %w", fname, i, err)
		}
		if seen[tc.Name] {
			return nil, fmt.Errorf("%s: duplicate target names found: %s", fname, tc.Name)
		}
		seen[tc.Name] = true
		m.Targets = append(m.Targets, tc)
	}
	return m, nil
}

func (rt rawTarget) targetConfig() (TargetConfig, error) {
	var missing []string
	get := func(key string, v *string) string {
		if v == nil {
			missing = append(missing, key)
			return ""
		}
		return *v
	}
	tc := TargetConfig{
		Name:       get("name", rt.Name),
		Src:        get("src", rt.Src),
		IncludeDir: get("include_dir", rt.IncludeDir),
		Type:       Kind(get("type", rt.Type)),
		CFlags:     get("cflags", rt.CFlags),
		Libs:       get("libs", rt.Libs),
	}
	if len(missing) > 0 {
		return tc, fmt.Errorf("could not find %s", strings.Join(missing, ", "))
	}
	if tc.Name == "" {
		return tc, errors.New("empty name")
	}
	switch tc.Type {
	case Executable, SharedLibrary:
	default:
		return tc, fmt.Errorf("target %s: type must be exe or dll, got %q", tc.Name, string(tc.Type))
	}
	for _, dep := range rt.Deps {
		// scaffolding used to emit `deps = [""]`.
		if dep == "" {
			continue
		}
		tc.Deps = append(tc.Deps, dep)
	}
	return tc, nil
}

// ValidateRoot checks target configs of the root project.
// It requires exactly one executable, and warns about libraries whose
// names don't start with "lib".
func ValidateRoot(ctx context.Context, targets []TargetConfig) error {
	var exes []string
	for _, tc := range targets {
		switch tc.Type {
		case Executable:
			exes = append(exes, tc.Name)
		case SharedLibrary:
			if !strings.HasPrefix(tc.Name, "lib") {
				clog.Warningf(ctx, "library %s should start with lib", tc.Name)
			}
		}
	}
	switch len(exes) {
	case 0:
		return errors.New("no executable target found")
	case 1:
		return nil
	}
	return fmt.Errorf("only one executable target is allowed, found %d: %s", len(exes), strings.Join(exes, ", "))
}
