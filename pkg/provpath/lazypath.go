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

package provpath

import (
	"os"
	"path/filepath"

	"k8s.io/client-go/util/homedir"

	"github.com/webosbrew/provisioner/pkg/provpath/xdg"
)

const (
	// CacheHomeEnvVar overrides the cache directory.
	CacheHomeEnvVar = "PROVISIONER_CACHE_HOME"

	// ConfigHomeEnvVar overrides the config directory.
	ConfigHomeEnvVar = "PROVISIONER_CONFIG_HOME"
)

// lazypath resolves paths from the environment each time it is asked.
type lazypath string

func (l lazypath) path(envVar, xdgEnvVar string, defaultFn func() string, elem ...string) string {
	// 1. a provisioner specific environment variable
	// 2. the XDG environment variable
	// 3. a default under the home directory
	base := os.Getenv(envVar)
	if base != "" {
		return filepath.Join(base, filepath.Join(elem...))
	}
	base = os.Getenv(xdgEnvVar)
	if base == "" {
		base = defaultFn()
	}
	return filepath.Join(base, string(l), filepath.Join(elem...))
}

func (l lazypath) cachePath(elem ...string) string {
	return l.path(CacheHomeEnvVar, xdg.CacheHomeEnvVar, cacheHome, filepath.Join(elem...))
}

func (l lazypath) configPath(elem ...string) string {
	return l.path(ConfigHomeEnvVar, xdg.ConfigHomeEnvVar, configHome, filepath.Join(elem...))
}

// If $XDG_CONFIG_HOME is either not set or empty, $HOME/.config is used.
func configHome() string {
	return filepath.Join(homedir.HomeDir(), ".config")
}

// If $XDG_CACHE_HOME is either not set or empty, $HOME/.cache is used.
func cacheHome() string {
	return filepath.Join(homedir.HomeDir(), ".cache")
}
