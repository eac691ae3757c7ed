// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package pkgs

import (
	"context"
	"fmt"
	"os"

	"github.com/hashicorp/go-getter"
)

// Fetcher fetches a package repository into dst.
type Fetcher interface {
	Fetch(ctx context.Context, repo, branch, dst string) error
}

// GitFetcher fetches packages from github with go-getter.
type GitFetcher struct {
	// BaseURL is the git host. Default is "https://github.com".
	BaseURL string
}

// SourceURL returns go-getter source url of repo at branch.
func (f GitFetcher) SourceURL(repo, branch string) string {
	base := f.BaseURL
	if base == "" {
		base = "https://github.com"
	}
	return fmt.Sprintf("git::%s/%s.git?ref=%s", base, repo, branch)
}

// Fetch clones repo at branch into dst.
func (f GitFetcher) Fetch(ctx context.Context, repo, branch, dst string) error {
	pwd, err := os.Getwd()
	if err != nil {
		return err
	}
	client := &getter.Client{
		Ctx:  ctx,
		Src:  f.SourceURL(repo, branch),
		Dst:  dst,
		Pwd:  pwd,
		Mode: getter.ClientModeDir,
	}
	return client.Get()
}
