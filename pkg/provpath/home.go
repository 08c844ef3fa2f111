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

// Package provpath locates the provisioner's per-user configuration and cache.
package provpath

const lp = lazypath("provisioner")

// ConfigPath returns the path where the provisioner stores configuration.
func ConfigPath(elem ...string) string {
	return lp.configPath(elem...)
}

// CachePath returns the path where the provisioner stores transient state.
func CachePath(elem ...string) string {
	return lp.cachePath(elem...)
}

// ConfigFile returns the default configuration file.
func ConfigFile() string { return ConfigPath("config.yaml") }

// LockFile returns the file used to serialise provision runs.
func LockFile() string { return CachePath("provision.lock") }
