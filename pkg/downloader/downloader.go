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

package downloader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"

	"github.com/webosbrew/provisioner/internal/fileutil"
	"github.com/webosbrew/provisioner/internal/logging"
	"github.com/webosbrew/provisioner/pkg/getter"
)

// ProgressFunc receives the cumulative bytes received and the expected total
// (0 while unknown) after every step of the poll loop.
type ProgressFunc func(href string, progress, total int64)

// Result describes a finished download.
type Result struct {
	URL    string
	Path   string
	Status int
	// Bytes is the size of the persisted body.
	Bytes int64
	// Received and Total are the byte counts last reported by the transfer.
	// Total is 0 when the remote end did not declare a length.
	Received, Total int64
	// Dir is what happened to the destination's parent directory.
	Dir fileutil.DirOutcome
}

// Downloader handles downloading a single artifact.
type Downloader struct {
	logging.LogHolder

	// Getters resolves URL schemes. Defaults to getter.All().
	Getters getter.Providers
	// Options are passed to every Connect call.
	Options []getter.Option
	// Progress, if set, is called after every poll step.
	Progress ProgressFunc
	// Mode is the permission of written files. Defaults to 0644.
	Mode os.FileMode

	write func(filename string, r io.Reader, mode os.FileMode) error
}

// New creates a Downloader using the given getters.
func New(getters getter.Providers, options ...getter.Option) *Downloader {
	return &Downloader{Getters: getters, Options: options}
}

// Fetch downloads href to dest and reports whether it succeeded. Failures are
// logged; use Download for the reason.
func (d *Downloader) Fetch(ctx context.Context, href, dest string) bool {
	_, err := d.Download(ctx, href, dest)
	return err == nil
}

// Download retrieves href and persists the body to dest.
//
// The body is only written when the transfer completed without a transport
// error, the status is 2xx and the body is not empty. dest is replaced
// atomically; on failure it keeps its previous content, if any.
func (d *Downloader) Download(ctx context.Context, href, dest string) (*Result, error) {
	log := d.Logger().With("url", href, "path", dest)
	log.Info("starting download")

	res := &Result{URL: href, Path: dest}

	dir := filepath.Dir(dest)
	outcome, err := fileutil.EnsureDir(dir)
	res.Dir = outcome
	switch outcome {
	case fileutil.DirCreated:
		log.Info("created directory", "dir", dir)
	case fileutil.DirFailed:
		// Not fatal: the write below fails and is reported then.
		log.Error("failed to create directory", "dir", dir, slog.Any("error", err))
	}

	g, err := d.getterFor(href)
	if err != nil {
		return res, d.fail(log, &Error{Kind: KindScheme, URL: href, Path: dest, Err: err})
	}

	conn, err := g.Connect(ctx, href, d.Options...)
	if err != nil {
		return res, d.fail(log, &Error{Kind: KindConnection, URL: href, Path: dest, Err: err})
	}

	xfer, err := g.NewTransfer(conn)
	if err != nil {
		// The connection is not owned by a transfer yet.
		conn.Close()
		return res, d.fail(log, &Error{Kind: KindTransfer, URL: href, Path: dest, Err: err})
	}
	log.Debug("connection initialized")

	st := newTransferState(conn, xfer)
	defer st.release()

	err = st.run(ctx, func(progress, total int64) {
		log.Debug("download progress", "progress", progress, "total", total)
		if d.Progress != nil {
			d.Progress(href, progress, total)
		}
	})
	res.Received, res.Total = st.progress, st.total
	if err != nil {
		return res, d.fail(log, &Error{Kind: KindPoll, URL: href, Path: dest, Err: err})
	}

	if err := xfer.Err(); err != nil {
		return res, d.fail(log, &Error{Kind: KindTransport, URL: href, Path: dest, Err: err})
	}

	res.Status = xfer.Status()
	log.Debug("response status", "status", res.Status)
	if res.Status/100 != 2 {
		return res, d.fail(log, &Error{Kind: KindStatus, URL: href, Path: dest, Status: res.Status})
	}

	body := xfer.Data()
	if body == nil || body.Len() == 0 {
		if body != nil {
			body.Release()
		}
		return res, d.fail(log, &Error{Kind: KindEmptyPayload, URL: href, Path: dest, Status: res.Status})
	}
	defer body.Release()
	log.Debug("response body", "len", body.Len())

	if err := d.writeFile(dest, bytes.NewReader(body.Bytes())); err != nil {
		kind := KindWrite
		var werr *fileutil.WriteError
		if errors.As(err, &werr) && werr.Op == "open" {
			kind = KindOpen
		}
		return res, d.fail(log, &Error{Kind: kind, URL: href, Path: dest, Status: res.Status, Err: err})
	}

	res.Bytes = int64(body.Len())
	log.Info("downloaded", "bytes", res.Bytes, "total", res.Total)
	return res, nil
}

func (d *Downloader) getterFor(href string) (getter.Getter, error) {
	u, err := url.Parse(href)
	if err != nil {
		return nil, fmt.Errorf("invalid URL %q: %w", href, err)
	}
	getters := d.Getters
	if getters == nil {
		getters = getter.All()
	}
	return getters.ByScheme(u.Scheme)
}

func (d *Downloader) writeFile(dest string, r io.Reader) error {
	mode := d.Mode
	if mode == 0 {
		mode = 0644
	}
	write := d.write
	if write == nil {
		write = fileutil.AtomicWriteFile
	}
	return write(dest, r, mode)
}

func (d *Downloader) fail(log *slog.Logger, err *Error) error {
	log.Error("download failed", "kind", err.Kind.String(), slog.Any("error", err.Err), "status", err.Status)
	return err
}
