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

package action

import (
	"flag"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/webosbrew/provisioner/internal/logging"
	"github.com/webosbrew/provisioner/pkg/notify"
)

var verbose = flag.Bool("test.log", false, "enable test logging (debug by default)")

func actionConfigFixture(t *testing.T) *Configuration {
	t.Helper()

	var out io.Writer = io.Discard
	if *verbose {
		out = os.Stderr
	}
	cfg := NewConfiguration()
	cfg.SetLogger(logging.NewHandler(out, func() bool { return *verbose }))
	return cfg
}

// fakeEndpoint serves artifacts by fileType and records every request.
type fakeEndpoint struct {
	*httptest.Server

	mu       sync.Mutex
	requests []string
	// status per fileType; 200 when unset.
	status map[string]int
	// body per fileType; "<fileType>-body" when unset.
	body map[string]string
}

func newFakeEndpoint(t *testing.T) *fakeEndpoint {
	t.Helper()
	e := &fakeEndpoint{status: map[string]int{}, body: map[string]string{}}
	e.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ft := r.URL.Query().Get("fileType")
		e.mu.Lock()
		e.requests = append(e.requests, r.URL.RequestURI())
		status, ok := e.status[ft]
		body, hasBody := e.body[ft]
		e.mu.Unlock()
		if !ok {
			status = http.StatusOK
		}
		if !hasBody {
			body = ft + "-body"
		}
		w.WriteHeader(status)
		io.WriteString(w, body)
	}))
	t.Cleanup(e.Close)
	return e
}

func (e *fakeEndpoint) calls() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.requests...)
}

func (e *fakeEndpoint) template() string {
	return e.URL + "/common/file/DownloadFile.dev?sdkVersion={{ urlquery .Identifier }}&fileType={{ urlquery .FileType }}"
}

// layoutFixture writes an identifier document and returns a layout rooted in
// a temporary directory.
func layoutFixture(t *testing.T, osInfo string, e *fakeEndpoint) Layout {
	t.Helper()
	dir := t.TempDir()
	l := DefaultLayout()
	l.IdentifierFile = filepath.Join(dir, "os_info.json")
	l.Destination = filepath.Join(dir, "media", "developer")
	if e != nil {
		l.URLTemplate = e.template()
	}
	if osInfo != "" {
		require.NoError(t, os.WriteFile(l.IdentifierFile, []byte(osInfo), 0644))
	}
	return l
}

func recordingNotifier() (notify.Notifier, func() []string) {
	var mu sync.Mutex
	var msgs []string
	n := notify.Func(func(m notify.Message) {
		mu.Lock()
		defer mu.Unlock()
		msgs = append(msgs, m.Text)
	})
	return n, func() []string {
		mu.Lock()
		defer mu.Unlock()
		return append([]string(nil), msgs...)
	}
}
