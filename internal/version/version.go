/*
Copyright The Provisioner Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package version // import "github.com/webosbrew/provisioner/internal/version"

import (
	"runtime"
	"runtime/debug"
)

// Release builds set these with -ldflags "-X".
var (
	version      = "v0.1"
	metadata     = ""
	gitCommit    = ""
	gitTreeState = ""
)

// BuildInfo is printed by 'provisioner version'.
type BuildInfo struct {
	Version      string `json:"version,omitempty"`
	GitCommit    string `json:"git_commit,omitempty"`
	GitTreeState string `json:"git_tree_state,omitempty"`
	GoVersion    string `json:"go_version,omitempty"`
}

// GetVersion returns the version with any build metadata appended.
func GetVersion() string {
	if metadata == "" {
		return version
	}
	return version + "+" + metadata
}

// Get returns the build information. When the commit was not set at link
// time it is taken from the VCS stamp of the go command, if any.
func Get() BuildInfo {
	v := BuildInfo{
		Version:      GetVersion(),
		GitCommit:    gitCommit,
		GitTreeState: gitTreeState,
		GoVersion:    runtime.Version(),
	}
	if v.GitCommit == "" {
		if info, ok := debug.ReadBuildInfo(); ok {
			v.GitCommit, v.GitTreeState = vcsStamp(info.Settings)
		}
	}
	return v
}

func vcsStamp(settings []debug.BuildSetting) (commit, treeState string) {
	for _, s := range settings {
		switch s.Key {
		case "vcs.revision":
			commit = s.Value
		case "vcs.modified":
			treeState = "clean"
			if s.Value == "true" {
				treeState = "dirty"
			}
		}
	}
	return commit, treeState
}
