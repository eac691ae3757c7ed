// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package build

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"go.chromium.org/infra/build/bldcpp/build/buildconfig"
)

func TestArrangeTargets(t *testing.T) {
	for _, tc := range []struct {
		name    string
		targets []buildconfig.TargetConfig
		want    []string
	}{
		{
			name: "chain",
			targets: []buildconfig.TargetConfig{
				{Name: "a", Deps: []string{"libb"}},
				{Name: "libb", Deps: []string{"libc"}},
				{Name: "libc"},
			},
			want: []string{"libc", "libb", "a"},
		},
		{
			name: "independent",
			targets: []buildconfig.TargetConfig{
				{Name: "x"},
				{Name: "y"},
				{Name: "z"},
			},
			want: []string{"x", "y", "z"},
		},
		{
			name: "diamond",
			targets: []buildconfig.TargetConfig{
				{Name: "app", Deps: []string{"libl", "libr"}},
				{Name: "libl", Deps: []string{"libbase"}},
				{Name: "libr", Deps: []string{"libbase"}},
				{Name: "libbase"},
			},
			want: []string{"libbase", "libl", "libr", "app"},
		},
		{
			name: "external-dep",
			targets: []buildconfig.TargetConfig{
				{Name: "app", Deps: []string{"libpkg"}},
			},
			want: []string{"app"},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ArrangeTargets(tc.targets)
			if err != nil {
				t.Fatalf("ArrangeTargets()=%v; want nil error", err)
			}
			var names []string
			for _, g := range got {
				names = append(names, g.Name)
			}
			if diff := cmp.Diff(tc.want, names); diff != "" {
				t.Errorf("ArrangeTargets() diff -want +got:\n%s", diff)
			}
		})
	}
}

func TestArrangeTargets_cycle(t *testing.T) {
	for _, tc := range []struct {
		name    string
		targets []buildconfig.TargetConfig
		want    string
	}{
		{
			name: "self",
			targets: []buildconfig.TargetConfig{
				{Name: "liba", Deps: []string{"liba"}},
			},
			want: "config error in target liba: dependency cycle: liba -> liba",
		},
		{
			name: "two",
			targets: []buildconfig.TargetConfig{
				{Name: "liba", Deps: []string{"libb"}},
				{Name: "libb", Deps: []string{"liba"}},
			},
			want: "config error in target liba: dependency cycle: liba -> libb -> liba",
		},
		{
			name: "three",
			targets: []buildconfig.TargetConfig{
				{Name: "app", Deps: []string{"liba"}},
				{Name: "liba", Deps: []string{"libb"}},
				{Name: "libb", Deps: []string{"libc"}},
				{Name: "libc", Deps: []string{"liba"}},
			},
			want: "config error in target liba: dependency cycle: liba -> libb -> libc -> liba",
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ArrangeTargets(tc.targets)
			var cerr *ConfigError
			if !errors.As(err, &cerr) {
				t.Fatalf("ArrangeTargets()=%v; want ConfigError", err)
			}
			if got := err.Error(); got != tc.want {
				t.Errorf("ArrangeTargets()=%q; want %q", got, tc.want)
			}
		})
	}
}
