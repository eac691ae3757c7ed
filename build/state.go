// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package build

// State is a build state of a target.
//
//	NotStarted -> SourcesEvaluated -> UpToDate
//	                               -> Compiling -> LinkNeeded -> Linked
//	                                                          -> LinkFailed
//
// A target whose compile failed stays in Compiling.
type State int

const (
	NotStarted State = iota
	SourcesEvaluated
	UpToDate
	Compiling
	LinkNeeded
	Linked
	LinkFailed
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "not started"
	case SourcesEvaluated:
		return "sources evaluated"
	case UpToDate:
		return "up to date"
	case Compiling:
		return "compiling"
	case LinkNeeded:
		return "link needed"
	case Linked:
		return "linked"
	case LinkFailed:
		return "link failed"
	}
	return "unknown"
}
