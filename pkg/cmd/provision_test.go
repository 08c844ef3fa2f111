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

package cmd

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProvisionCmd(t *testing.T) {
	resetSettings(t)
	d := newDevice(t, "6.3.1")

	_, out, err := executeActionCommand("provision " + d.flags())
	require.NoError(t, err, out)

	assert.Contains(t, out, "Downloading jailer configuration files")
	assert.Contains(t, out, "ARTIFACT")
	assert.Equal(t, 1, strings.Count(out, "Downloading jailer configuration files"))
	assert.Less(t, strings.Index(out, "Downloading"), strings.Index(out, "ARTIFACT"),
		"queued notification is delivered before the summary")
	assert.Contains(t, out, "downloaded")
	assert.Equal(t, 2, d.calls())

	conf, err := os.ReadFile(d.path("jail_app.conf"))
	require.NoError(t, err)
	assert.Equal(t, "conf for 6.3.1", string(conf))
	sig, err := os.ReadFile(d.path("jail_app.conf.sig"))
	require.NoError(t, err)
	assert.Equal(t, "sig for 6.3.1", string(sig))

	assert.Equal(t, []string{
		"/common/file/DownloadFile.dev?sdkVersion=6.3.1&fileType=conf",
		"/common/file/DownloadFile.dev?sdkVersion=6.3.1&fileType=sig",
	}, d.seen())
}

func TestProvisionCmdAlreadyPresent(t *testing.T) {
	resetSettings(t)
	d := newDevice(t, "6.3.1")
	require.NoError(t, os.MkdirAll(d.dest, 0755))
	require.NoError(t, os.WriteFile(d.path("jail_app.conf"), []byte("old"), 0644))
	require.NoError(t, os.WriteFile(d.path("jail_app.conf.sig"), []byte("old"), 0644))

	_, out, err := executeActionCommand("provision " + d.flags())
	require.NoError(t, err, out)
	assert.Contains(t, out, "already present")
	assert.NotContains(t, out, "Downloading")
	assert.Zero(t, d.calls())

	resetSettings(t)
	_, out, err = executeActionCommand("provision --force " + d.flags())
	require.NoError(t, err, out)
	assert.Equal(t, 2, d.calls())
	conf, err := os.ReadFile(d.path("jail_app.conf"))
	require.NoError(t, err)
	assert.Equal(t, "conf for 6.3.1", string(conf))
}

func TestProvisionCmdJSON(t *testing.T) {
	resetSettings(t)
	d := newDevice(t, "6.3.1")
	require.NoError(t, os.MkdirAll(d.dest, 0755))
	require.NoError(t, os.WriteFile(d.path("jail_app.conf"), []byte("old"), 0644))
	require.NoError(t, os.WriteFile(d.path("jail_app.conf.sig"), []byte("old"), 0644))

	_, out, err := executeActionCommand("provision -o json " + d.flags())
	require.NoError(t, err, out)

	var summary provisionSummary
	require.NoError(t, json.Unmarshal([]byte(out), &summary), out)
	assert.Equal(t, provisionSummary{Identifier: "6.3.1", Skipped: true, Succeeded: true}, summary)
}

func TestProvisionCmdPartialFailure(t *testing.T) {
	resetSettings(t)
	d := newDevice(t, "6.3.1")
	d.fail("conf", http.StatusNotFound)

	_, out, err := executeActionCommand("provision " + d.flags())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jail_app.conf")
	assert.Contains(t, out, "failed: bad status")

	// The first failure does not stop the second download.
	assert.Equal(t, 2, d.calls())
	assert.NoFileExists(t, d.path("jail_app.conf"))
	assert.FileExists(t, d.path("jail_app.conf.sig"))
}

func TestProvisionCmdNoIdentifier(t *testing.T) {
	resetSettings(t)
	d := newDevice(t, "")

	_, _, err := executeActionCommand("provision " + d.flags())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "platform identifier not found")
	assert.Zero(t, d.calls())
	assert.NoDirExists(t, d.dest)
}

func TestProvisionCmdMetricsFile(t *testing.T) {
	resetSettings(t)
	d := newDevice(t, "6.3.1")
	metricsFile := filepath.Join(t.TempDir(), "provisioner.prom")

	_, out, err := executeActionCommand("provision --metrics-file " + metricsFile + " " + d.flags())
	require.NoError(t, err, out)

	data, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, `provisioner_runs_total{outcome="provisioned"} 1`)
	assert.Contains(t, text, `provisioner_fetches_total{artifact="jail_app.conf",result="ok"} 1`)
	assert.True(t, strings.Contains(text, "provisioner_fetched_bytes_total"))
}

func TestProvisionCmdConfigFile(t *testing.T) {
	resetSettings(t)
	d := newDevice(t, "6.3.1")
	config := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(config, []byte(`
artifacts:
  - name: jail_app.conf
    fileType: conf
`), 0644))

	_, out, err := executeActionCommand("provision --config " + config + " " + d.flags())
	require.NoError(t, err, out)
	assert.Equal(t, 1, d.calls())
	assert.FileExists(t, d.path("jail_app.conf"))
	assert.NoFileExists(t, d.path("jail_app.conf.sig"))
}

func TestProvisionCmdArgs(t *testing.T) {
	runTestCmd(t, []cmdTestCase{{
		name:      "rejects arguments",
		cmd:       "provision extra",
		wantError: true,
	}, {
		name:      "rejects an unknown output format",
		cmd:       "provision -o xml",
		wantError: true,
	}})
}
