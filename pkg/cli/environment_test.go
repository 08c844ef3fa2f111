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

package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webosbrew/provisioner/pkg/artifact"
	"github.com/webosbrew/provisioner/pkg/osinfo"
	"github.com/webosbrew/provisioner/pkg/provpath"
)

func TestEnvSettings(t *testing.T) {
	tests := []struct {
		name string

		// input
		args    string
		envvars map[string]string

		// expected values
		identifierFile, destination, urlTemplate string
		timeout                                  time.Duration
		debug, parallel                          bool
	}{
		{
			name:           "defaults",
			identifierFile: osinfo.DefaultPath,
			destination:    "/media/developer",
			urlTemplate:    artifact.DefaultURLTemplate,
		},
		{
			name:           "with flags set",
			args:           "--debug --destination /tmp/dev --identifier-file /tmp/os.json --timeout 30s --parallel",
			identifierFile: "/tmp/os.json",
			destination:    "/tmp/dev",
			urlTemplate:    artifact.DefaultURLTemplate,
			timeout:        30 * time.Second,
			debug:          true,
			parallel:       true,
		},
		{
			name: "with envvars set",
			envvars: map[string]string{
				"PROVISIONER_DEBUG":        "1",
				"PROVISIONER_DESTINATION":  "/env/dev",
				"PROVISIONER_URL_TEMPLATE": "file:///mirror/{{ .FileType }}",
				"PROVISIONER_TIMEOUT":      "1m",
				"PROVISIONER_PARALLEL":     "true",
			},
			identifierFile: osinfo.DefaultPath,
			destination:    "/env/dev",
			urlTemplate:    "file:///mirror/{{ .FileType }}",
			timeout:        time.Minute,
			debug:          true,
			parallel:       true,
		},
		{
			name: "with flags and envvars set",
			args: "--destination /flag/dev --timeout 5s",
			envvars: map[string]string{
				"PROVISIONER_DESTINATION": "/env/dev",
				"PROVISIONER_TIMEOUT":     "1m",
			},
			identifierFile: osinfo.DefaultPath,
			destination:    "/flag/dev",
			urlTemplate:    artifact.DefaultURLTemplate,
			timeout:        5 * time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.envvars {
				t.Setenv(k, v)
			}

			flags := pflag.NewFlagSet("testing", pflag.ContinueOnError)

			settings := New()
			settings.AddFlags(flags)
			require.NoError(t, flags.Parse(strings.Split(tt.args, " ")))

			assert.Equal(t, tt.debug, settings.Debug)
			assert.Equal(t, tt.identifierFile, settings.IdentifierFile)
			assert.Equal(t, tt.destination, settings.Destination)
			assert.Equal(t, tt.urlTemplate, settings.URLTemplate)
			assert.Equal(t, tt.timeout, settings.Timeout)
			assert.Equal(t, tt.parallel, settings.Parallel)
		})
	}
}

func TestEnvVars(t *testing.T) {
	t.Setenv(provpath.CacheHomeEnvVar, "/cache")
	settings := New()
	vars := settings.EnvVars()

	assert.Equal(t, "/media/developer", vars[EnvDestination])
	assert.Equal(t, "false", vars[EnvDebug])
	assert.Equal(t, "0s", vars[EnvTimeout])
	assert.Equal(t, "/cache/provision.lock", vars[EnvLockFile])
	assert.Equal(t, "/cache", vars["PROVISIONER_CACHE_HOME"])
}

func TestLayout(t *testing.T) {
	settings := New()
	settings.Destination = "/tmp/dev"
	l := settings.Layout()
	assert.Equal(t, "/tmp/dev", l.Destination)
	assert.Equal(t, osinfo.DefaultField, l.IdentifierField)
	assert.Equal(t, artifact.DefaultDefinitions(), l.Artifacts)
}

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfigFilePrecedence(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
destination: /file/dev
identifierField: release
timeout: 10s
parallel: true
userAgent: file-agent
artifacts:
  - name: app.conf
    fileType: conf
`)
	t.Setenv(EnvConfig, path)
	t.Setenv(EnvUserAgent, "env-agent")

	flags := pflag.NewFlagSet("testing", pflag.ContinueOnError)
	settings := New()
	settings.AddFlags(flags)
	require.NoError(t, flags.Parse([]string{"--destination", "/flag/dev"}))
	require.NoError(t, settings.LoadConfigFile(flags))

	assert.Equal(t, "/flag/dev", settings.Destination, "flag beats file")
	assert.Equal(t, "env-agent", settings.UserAgent, "env beats file")
	assert.Equal(t, "release", settings.IdentifierField)
	assert.Equal(t, 10*time.Second, settings.Timeout)
	assert.True(t, settings.Parallel)
	assert.Equal(t, []artifact.Definition{{Name: "app.conf", FileType: "conf"}}, settings.Artifacts)
}

func TestLoadConfigFileMissing(t *testing.T) {
	flags := pflag.NewFlagSet("testing", pflag.ContinueOnError)
	settings := New()
	settings.AddFlags(flags)
	settings.ConfigFile = filepath.Join(t.TempDir(), "absent.yaml")
	assert.NoError(t, settings.LoadConfigFile(flags), "default config file may be missing")

	require.NoError(t, flags.Parse([]string{"--config", filepath.Join(t.TempDir(), "absent.yaml")}))
	assert.Error(t, settings.LoadConfigFile(flags), "explicit config file must exist")
}

func TestParseConfig(t *testing.T) {
	c, err := ParseConfig("config.json", []byte(`{"destination":"/json/dev","parallel":false}`))
	require.NoError(t, err)
	assert.Equal(t, "/json/dev", c.Destination)
	require.NotNil(t, c.Parallel)
	assert.False(t, *c.Parallel)

	c, err = ParseConfig("config.toml", []byte(`
destination = "/toml/dev"
timeout = "1m30s"

[[artifacts]]
name = "jail_app.conf"
fileType = "conf"
signature = "jail_app.conf.sig"
`))
	require.NoError(t, err)
	assert.Equal(t, "/toml/dev", c.Destination)
	assert.Equal(t, "1m30s", c.Timeout)
	assert.Equal(t, []artifact.Definition{{Name: "jail_app.conf", FileType: "conf", Signature: "jail_app.conf.sig"}}, c.Artifacts)

	c, err = ParseConfig("empty.yaml", nil)
	require.NoError(t, err)
	assert.Equal(t, &Config{}, c)
}

func TestParseConfigInvalid(t *testing.T) {
	for name, content := range map[string]string{
		"unknown.yaml":   "destinaton: /typo\n",
		"type.yaml":      "parallel: yes please\n",
		"timeout.yaml":   "timeout: soon\n",
		"artifact.yaml":  "artifacts:\n  - name: x\n",
		"noitems.yaml":   "artifacts: []\n",
		"broken.yaml":    "destination: [\n",
		"broken.toml":    "destination = \n",
		"wrongtype.toml": "parallel = \"yes\"\n",
	} {
		_, err := ParseConfig(name, []byte(content))
		assert.Error(t, err, name)
	}
}
