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
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	shellwords "github.com/mattn/go-shellwords"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/webosbrew/provisioner/pkg/action"
	"github.com/webosbrew/provisioner/pkg/cli"
	"github.com/webosbrew/provisioner/pkg/provpath"
)

func testTimestamper() time.Time { return time.Unix(242085845, 0).UTC() }

func init() {
	action.Timestamper = testTimestamper
}

// cmdTestCase describes a test case run against a fresh root command.
type cmdTestCase struct {
	name      string
	cmd       string
	wantError bool
	// contains lists substrings the output must have.
	contains []string
}

func runTestCmd(t *testing.T, tests []cmdTestCase) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetSettings(t)
			t.Logf("running cmd: %s", tt.cmd)
			_, out, err := executeActionCommand(tt.cmd)
			if tt.wantError && err == nil {
				t.Errorf("expected error, got success with the following output:\n%s", out)
			}
			if !tt.wantError && err != nil {
				t.Errorf("expected no error, got: '%v'", err)
			}
			for _, s := range tt.contains {
				if !bytes.Contains([]byte(out), []byte(s)) {
					t.Errorf("expected output to contain %q, got:\n%s", s, out)
				}
			}
		})
	}
}

func executeActionCommand(cmd string) (*cobra.Command, string, error) {
	return executeActionCommandC(action.NewConfiguration(), cmd)
}

func executeActionCommandC(actionConfig *action.Configuration, cmd string) (*cobra.Command, string, error) {
	args, err := shellwords.Parse(cmd)
	if err != nil {
		return nil, "", err
	}

	buf := new(bytes.Buffer)

	root, err := newRootCmdWithConfig(actionConfig, buf, args)
	if err != nil {
		return nil, "", err
	}

	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)

	c, err := root.ExecuteC()

	return c, buf.String(), err
}

// resetSettings points every home directory at a temporary one and reloads
// the settings from the environment.
func resetSettings(t *testing.T) {
	t.Helper()
	t.Setenv(provpath.CacheHomeEnvVar, t.TempDir())
	t.Setenv(provpath.ConfigHomeEnvVar, t.TempDir())
	settings = cli.New()
	t.Cleanup(func() { settings = cli.New() })
}

// device is a temporary device layout served by a test endpoint.
type device struct {
	srv *httptest.Server

	osInfo string
	dest   string
	lock   string

	mu       sync.Mutex
	status   map[string]int
	requests []string
}

func newDevice(t *testing.T, release string) *device {
	t.Helper()
	dir := t.TempDir()
	d := &device{
		osInfo: filepath.Join(dir, "os_info.json"),
		dest:   filepath.Join(dir, "developer"),
		lock:   filepath.Join(dir, "provision.lock"),
		status: map[string]int{},
	}
	doc := `{"product_name":"webOS TV"}`
	if release != "" {
		doc = fmt.Sprintf(`{"product_name":"webOS TV","webos_release":%q}`, release)
	}
	require.NoError(t, os.WriteFile(d.osInfo, []byte(doc), 0644))

	d.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fileType := r.URL.Query().Get("fileType")
		d.mu.Lock()
		d.requests = append(d.requests, r.URL.RequestURI())
		code := d.status[fileType]
		d.mu.Unlock()
		if code != 0 {
			w.WriteHeader(code)
			return
		}
		fmt.Fprintf(w, "%s for %s", fileType, r.URL.Query().Get("sdkVersion"))
	}))
	t.Cleanup(d.srv.Close)
	return d
}

func (d *device) fail(fileType string, code int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.status[fileType] = code
}

func (d *device) calls() int {
	return len(d.seen())
}

func (d *device) seen() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.requests...)
}

// flags returns the global flags selecting this device.
func (d *device) flags() string {
	return fmt.Sprintf("--identifier-file %s --destination %s --lock-file %s --url-template '%s'",
		d.osInfo, d.dest, d.lock,
		d.srv.URL+"/common/file/DownloadFile.dev?sdkVersion={{ urlquery .Identifier }}&fileType={{ urlquery .FileType }}")
}

func (d *device) path(name string) string {
	return filepath.Join(d.dest, name)
}
