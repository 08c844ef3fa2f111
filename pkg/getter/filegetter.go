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

package getter

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
)

// FileGetter serves file:// URLs from the local filesystem, for mirrors
// prepared ahead of time on offline devices. A missing file is reported as
// a 404 status so the caller applies the same status gating as for HTTP.
type FileGetter struct {
	opts getterOptions
}

// NewFileGetter constructs a Getter for file:// URLs.
func NewFileGetter(options ...Option) (Getter, error) {
	var g FileGetter
	for _, opt := range options {
		opt(&g.opts)
	}
	return &g, nil
}

func (g *FileGetter) Connect(ctx context.Context, href string, options ...Option) (Connection, error) {
	u, err := url.Parse(href)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "file" {
		return nil, fmt.Errorf("file getter cannot fetch %q", href)
	}
	if u.Path == "" {
		return nil, fmt.Errorf("file URL %q has no path", href)
	}
	return &fileConnection{ctx: ctx, href: href, path: u.Path, opts: applyOptions(g.opts, options)}, nil
}

func (g *FileGetter) NewTransfer(conn Connection) (Transfer, error) {
	c, ok := conn.(*fileConnection)
	if !ok {
		return nil, fmt.Errorf("connection %T was not created by the file getter", conn)
	}
	if c.closed {
		return nil, ErrClosed
	}
	if c.bound {
		return nil, fmt.Errorf("connection to %s already has a transfer", c.href)
	}
	c.bound = true
	return &fileTransfer{conn: c, chunk: make([]byte, c.opts.chunkSize), buf: getBuffer()}, nil
}

type fileConnection struct {
	ctx    context.Context
	href   string
	path   string
	opts   getterOptions
	file   *os.File
	done   bool
	bound  bool
	closed bool
}

func (c *fileConnection) URL() string { return c.href }

func (c *fileConnection) Done() bool { return c.done }

func (c *fileConnection) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	if c.file != nil {
		return c.file.Close()
	}
	return nil
}

type fileTransfer struct {
	conn     *fileConnection
	chunk    []byte
	buf      *bytes.Buffer
	received int64
	total    int64
	status   int
	closed   bool
}

func (t *fileTransfer) Update() (int64, int64, error) {
	if t.closed {
		return t.received, t.total, ErrClosed
	}
	c := t.conn
	if c.done {
		return t.received, t.total, nil
	}
	if err := c.ctx.Err(); err != nil {
		return t.received, t.total, err
	}

	if c.file == nil {
		f, err := os.Open(c.path)
		if os.IsNotExist(err) {
			t.status = http.StatusNotFound
			c.done = true
			return t.received, t.total, nil
		}
		if err != nil {
			return t.received, t.total, err
		}
		c.file = f
		t.status = http.StatusOK
		if fi, err := f.Stat(); err == nil {
			if fi.IsDir() {
				return t.received, t.total, fmt.Errorf("%s is a directory", c.path)
			}
			t.total = fi.Size()
		}
		return t.received, t.total, nil
	}

	n, err := c.file.Read(t.chunk)
	if n > 0 {
		t.buf.Write(t.chunk[:n])
		t.received += int64(n)
	}
	if err == io.EOF {
		c.done = true
		return t.received, t.total, nil
	}
	return t.received, t.total, err
}

func (t *fileTransfer) Err() error { return nil }

func (t *fileTransfer) Status() int { return t.status }

func (t *fileTransfer) Data() Body {
	if t.buf == nil || t.buf.Len() == 0 {
		return nil
	}
	p := &Payload{buf: t.buf}
	t.buf = nil
	return p
}

func (t *fileTransfer) Close() error {
	if t.closed {
		return nil
	}
	t.closed = true
	putBuffer(t.buf)
	t.buf = nil
	return t.conn.Close()
}
