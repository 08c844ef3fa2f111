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

/*
Package cli describes the operating environment for the provisioner CLI.

Settings are resolved in this order, later sources winning: built-in
defaults, the configuration file, PROVISIONER_* environment variables and
command-line flags.
*/
package cli

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/pflag"

	"github.com/webosbrew/provisioner/pkg/action"
	"github.com/webosbrew/provisioner/pkg/artifact"
	"github.com/webosbrew/provisioner/pkg/osinfo"
	"github.com/webosbrew/provisioner/pkg/provpath"
)

// Environment variables read by New.
const (
	EnvDebug           = "PROVISIONER_DEBUG"
	EnvConfig          = "PROVISIONER_CONFIG"
	EnvIdentifierFile  = "PROVISIONER_IDENTIFIER_FILE"
	EnvIdentifierField = "PROVISIONER_IDENTIFIER_FIELD"
	EnvDestination     = "PROVISIONER_DESTINATION"
	EnvURLTemplate     = "PROVISIONER_URL_TEMPLATE"
	EnvTimeout         = "PROVISIONER_TIMEOUT"
	EnvUserAgent       = "PROVISIONER_USER_AGENT"
	EnvLockFile        = "PROVISIONER_LOCK_FILE"
	EnvMetricsFile     = "PROVISIONER_METRICS_FILE"
	EnvParallel        = "PROVISIONER_PARALLEL"
)

// EnvSettings describes all of the environment settings.
type EnvSettings struct {
	// Debug indicates whether or not the provisioner is running in Debug mode.
	Debug bool
	// ConfigFile is the path to the configuration file.
	ConfigFile string
	// IdentifierFile is the JSON document holding the platform identifier.
	IdentifierFile string
	// IdentifierField is the key of the platform identifier.
	IdentifierField string
	// Destination is the directory artifacts are written to.
	Destination string
	// URLTemplate builds artifact URLs.
	URLTemplate string
	// Timeout bounds each artifact fetch. Zero means no timeout.
	Timeout time.Duration
	// UserAgent is sent with requests when set.
	UserAgent string
	// LockFile serialises provision runs. Empty disables locking.
	LockFile string
	// MetricsFile, if set, receives metrics in the textfile format.
	MetricsFile string
	// Parallel fetches artifacts concurrently.
	Parallel bool
	// Artifacts can only be changed through the configuration file.
	Artifacts []artifact.Definition

	// fromEnv records settings taken from the environment, by flag name.
	fromEnv map[string]bool
}

// New returns the built-in defaults overridden by the environment.
func New() *EnvSettings {
	env := &EnvSettings{fromEnv: map[string]bool{}}
	env.ConfigFile = env.envOr("config", EnvConfig, provpath.ConfigFile())
	env.IdentifierFile = env.envOr("identifier-file", EnvIdentifierFile, osinfo.DefaultPath)
	env.IdentifierField = env.envOr("identifier-field", EnvIdentifierField, osinfo.DefaultField)
	env.Destination = env.envOr("destination", EnvDestination, action.DefaultDestination)
	env.URLTemplate = env.envOr("url-template", EnvURLTemplate, artifact.DefaultURLTemplate)
	env.UserAgent = env.envOr("user-agent", EnvUserAgent, "")
	env.LockFile = env.envOr("lock-file", EnvLockFile, provpath.LockFile())
	env.MetricsFile = env.envOr("metrics-file", EnvMetricsFile, "")
	env.Artifacts = artifact.DefaultDefinitions()

	env.Debug, _ = strconv.ParseBool(os.Getenv(EnvDebug))
	if v, ok := os.LookupEnv(EnvParallel); ok {
		env.Parallel, _ = strconv.ParseBool(v)
		env.fromEnv["parallel"] = true
	}
	if v, ok := os.LookupEnv(EnvTimeout); ok {
		if d, err := time.ParseDuration(v); err == nil {
			env.Timeout = d
			env.fromEnv["timeout"] = true
		}
	}
	return env
}

// AddFlags binds flags to the given flagset.
func (s *EnvSettings) AddFlags(fs *pflag.FlagSet) {
	fs.BoolVar(&s.Debug, "debug", s.Debug, "enable verbose output")
	fs.StringVar(&s.ConfigFile, "config", s.ConfigFile, "path to the configuration file")
	fs.StringVar(&s.IdentifierFile, "identifier-file", s.IdentifierFile, "path to the JSON document holding the platform identifier")
	fs.StringVar(&s.IdentifierField, "identifier-field", s.IdentifierField, "top-level key of the platform identifier")
	fs.StringVar(&s.Destination, "destination", s.Destination, "directory the artifacts are written to")
	fs.StringVar(&s.URLTemplate, "url-template", s.URLTemplate, "template of artifact URLs, given .Identifier and .FileType")
	fs.DurationVar(&s.Timeout, "timeout", s.Timeout, "time to wait for each artifact, 0 to wait forever")
	fs.StringVar(&s.UserAgent, "user-agent", s.UserAgent, "User-Agent header to send; none when empty")
	fs.StringVar(&s.LockFile, "lock-file", s.LockFile, "file locked while provisioning; empty to disable")
	fs.StringVar(&s.MetricsFile, "metrics-file", s.MetricsFile, "write metrics to this file in the node-exporter textfile format")
	fs.BoolVar(&s.Parallel, "parallel", s.Parallel, "fetch artifacts concurrently")
}

func (s *EnvSettings) envOr(flag, name, def string) string {
	if v, ok := os.LookupEnv(name); ok {
		s.fromEnv[flag] = true
		return v
	}
	return def
}

// EnvVars returns the effective settings keyed by environment variable.
func (s *EnvSettings) EnvVars() map[string]string {
	return map[string]string{
		"PROVISIONER_BIN":         os.Args[0],
		"PROVISIONER_CACHE_HOME":  provpath.CachePath(""),
		"PROVISIONER_CONFIG_HOME": provpath.ConfigPath(""),
		EnvDebug:                  fmt.Sprint(s.Debug),
		EnvConfig:                 s.ConfigFile,
		EnvIdentifierFile:         s.IdentifierFile,
		EnvIdentifierField:        s.IdentifierField,
		EnvDestination:            s.Destination,
		EnvURLTemplate:            s.URLTemplate,
		EnvTimeout:                s.Timeout.String(),
		EnvUserAgent:              s.UserAgent,
		EnvLockFile:               s.LockFile,
		EnvMetricsFile:            s.MetricsFile,
		EnvParallel:               fmt.Sprint(s.Parallel),
	}
}

// Layout returns the artifact layout described by the settings.
func (s *EnvSettings) Layout() action.Layout {
	return action.Layout{
		IdentifierFile:  s.IdentifierFile,
		IdentifierField: s.IdentifierField,
		Destination:     s.Destination,
		URLTemplate:     s.URLTemplate,
		Artifacts:       s.Artifacts,
	}
}

// overridden reports whether a setting came from the environment or a flag.
func (s *EnvSettings) overridden(fs *pflag.FlagSet, flag string) bool {
	if s.fromEnv[flag] {
		return true
	}
	if fs == nil {
		return false
	}
	f := fs.Lookup(flag)
	return f != nil && f.Changed
}
