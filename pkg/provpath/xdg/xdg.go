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

// Package xdg holds the environment variables of the XDG Base Directory
// Specification used to locate per-user files.
package xdg

const (
	// CacheHomeEnvVar names the base directory for non-essential data.
	CacheHomeEnvVar = "XDG_CACHE_HOME"

	// ConfigHomeEnvVar names the base directory for configuration.
	ConfigHomeEnvVar = "XDG_CONFIG_HOME"
)
