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
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"sync"
)

// HTTPGetter is the default HTTP(/S) backend handler
type HTTPGetter struct {
	opts      getterOptions
	transport *http.Transport
	once      sync.Once
}

// NewHTTPGetter constructs a valid http/https client as a Getter
func NewHTTPGetter(options ...Option) (Getter, error) {
	var client HTTPGetter

	for _, opt := range options {
		opt(&client.opts)
	}

	return &client, nil
}

// Connect prepares a GET for href. No request body and, unless WithUserAgent
// was given, no custom headers.
func (g *HTTPGetter) Connect(ctx context.Context, href string, options ...Option) (Connection, error) {
	// Create a local copy of options to avoid data races when Connect is called concurrently
	opts := applyOptions(g.opts, options)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, href, nil)
	if err != nil {
		return nil, err
	}
	if opts.userAgent != "" {
		req.Header.Set("User-Agent", opts.userAgent)
	}

	return &httpConnection{req: req, opts: opts}, nil
}

// NewTransfer binds a transfer to a connection created by this getter.
func (g *HTTPGetter) NewTransfer(conn Connection) (Transfer, error) {
	c, ok := conn.(*httpConnection)
	if !ok {
		return nil, fmt.Errorf("connection %T was not created by the http getter", conn)
	}
	if c.closed {
		return nil, ErrClosed
	}
	if c.bound {
		return nil, fmt.Errorf("connection to %s already has a transfer", c.URL())
	}
	c.bound = true

	return &httpTransfer{
		conn:   c,
		client: g.httpClient(c.opts),
		chunk:  make([]byte, c.opts.chunkSize),
		buf:    getBuffer(),
	}, nil
}

func (g *HTTPGetter) httpClient(opts getterOptions) *http.Client {
	if opts.transport != nil {
		return &http.Client{
			Transport:     opts.transport,
			Timeout:       opts.timeout,
			CheckRedirect: noRedirect,
		}
	}

	g.once.Do(func() {
		g.transport = &http.Transport{
			DisableCompression: true,
			Proxy:              http.ProxyFromEnvironment,
			TLSClientConfig:    &tls.Config{},
		}
	})

	return &http.Client{
		Transport:     g.transport,
		Timeout:       opts.timeout,
		CheckRedirect: noRedirect,
	}
}

// noRedirect hands 3xx responses to the caller, which treats them as failures.
func noRedirect(*http.Request, []*http.Request) error {
	return http.ErrUseLastResponse
}

type httpConnection struct {
	req    *http.Request
	opts   getterOptions
	resp   *http.Response
	done   bool
	bound  bool
	closed bool
}

func (c *httpConnection) URL() string { return c.req.URL.String() }

func (c *httpConnection) Done() bool { return c.done }

func (c *httpConnection) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	if c.resp != nil {
		return c.resp.Body.Close()
	}
	return nil
}

type httpTransfer struct {
	conn     *httpConnection
	client   *http.Client
	chunk    []byte
	buf      *bytes.Buffer
	received int64
	total    int64
	status   int
	err      error
	closed   bool
}

// Update sends the request on its first call and reads one chunk of the body
// on every later call.
func (t *httpTransfer) Update() (int64, int64, error) {
	if t.closed {
		return t.received, t.total, ErrClosed
	}
	c := t.conn
	if c.done {
		return t.received, t.total, nil
	}

	if c.resp == nil {
		resp, err := t.client.Do(c.req)
		if err != nil {
			return t.received, t.total, err
		}
		c.resp = resp
		t.status = resp.StatusCode
		if resp.ContentLength > 0 {
			t.total = resp.ContentLength
		}
		return t.received, t.total, nil
	}

	n, err := c.resp.Body.Read(t.chunk)
	if n > 0 {
		t.buf.Write(t.chunk[:n])
		t.received += int64(n)
	}
	switch {
	case err == io.EOF:
		c.done = true
		if t.total > 0 && t.received != t.total {
			t.err = fmt.Errorf("body ended after %d of %d bytes", t.received, t.total)
		}
	case err != nil:
		return t.received, t.total, err
	}
	return t.received, t.total, nil
}

func (t *httpTransfer) Err() error { return t.err }

func (t *httpTransfer) Status() int { return t.status }

func (t *httpTransfer) Data() Body {
	if t.buf == nil || t.buf.Len() == 0 {
		return nil
	}
	p := &Payload{buf: t.buf}
	t.buf = nil
	return p
}

func (t *httpTransfer) Close() error {
	if t.closed {
		return nil
	}
	t.closed = true
	putBuffer(t.buf)
	t.buf = nil
	return t.conn.Close()
}
