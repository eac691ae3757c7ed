// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package build

import (
	"strings"

	"go.chromium.org/infra/build/bldcpp/build/buildconfig"
)

// ArrangeTargets returns targets in dependency order; a target comes
// after all targets it transitively depends on. Independent targets keep
// manifest order. Deps that are not in targets, e.g. package libraries,
// don't affect the order.
// It returns *ConfigError if deps have a cycle.
func ArrangeTargets(targets []buildconfig.TargetConfig) ([]buildconfig.TargetConfig, error) {
	index := make(map[string]int, len(targets))
	for i, tc := range targets {
		index[tc.Name] = i
	}
	const (
		unvisited = iota
		visiting
		done
	)
	marks := make([]int, len(targets))
	var stack []string
	var result []buildconfig.TargetConfig

	var visit func(i int) error
	visit = func(i int) error {
		switch marks[i] {
		case done:
			return nil
		case visiting:
			// stack has the path from the first node of the cycle.
			name := targets[i].Name
			start := 0
			for j, s := range stack {
				if s == name {
					start = j
					break
				}
			}
			path := append(append([]string(nil), stack[start:]...), name)
			return &ConfigError{
				Target: name,
				Msg:    "dependency cycle: " + strings.Join(path, " -> "),
			}
		}
		marks[i] = visiting
		stack = append(stack, targets[i].Name)
		for _, dep := range targets[i].Deps {
			j, ok := index[dep]
			if !ok {
				continue
			}
			if err := visit(j); err != nil {
				return err
			}
		}
		stack = stack[:len(stack)-1]
		marks[i] = done
		result = append(result, targets[i])
		return nil
	}
	for i := range targets {
		if err := visit(i); err != nil {
			return nil, err
		}
	}
	return result, nil
}
