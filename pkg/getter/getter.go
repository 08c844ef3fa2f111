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
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"time"
)

// ErrClosed is returned when a handle is used after it was released.
var ErrClosed = errors.New("getter: use of closed handle")

// getterOptions are generic parameters to be provided to the getter during instantiation.
//
// Getters may or may not ignore these parameters as they are passed in.
type getterOptions struct {
	userAgent string
	timeout   time.Duration
	transport http.RoundTripper
	chunkSize int
}

// Option allows specifying various settings configurable by the user for overriding the defaults
// used when connecting with the Getter.
type Option func(*getterOptions)

// WithUserAgent sets the request's User-Agent header to use the provided agent name.
// No User-Agent header is set by default.
func WithUserAgent(userAgent string) Option {
	return func(opts *getterOptions) {
		opts.userAgent = userAgent
	}
}

// WithTimeout sets the timeout for the whole exchange, body included.
// Zero means no timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(opts *getterOptions) {
		opts.timeout = timeout
	}
}

// WithTransport sets the http.RoundTripper to allow overwriting the HTTPGetter default.
func WithTransport(transport http.RoundTripper) Option {
	return func(opts *getterOptions) {
		opts.transport = transport
	}
}

// WithChunkSize sets how many bytes a single Update step reads at most.
func WithChunkSize(size int) Option {
	return func(opts *getterOptions) {
		if size > 0 {
			opts.chunkSize = size
		}
	}
}

// DefaultChunkSize is the read size of one Update step.
const DefaultChunkSize = 32 * 1024

// Connection is a connection context for a single GET. Nothing is sent on
// the wire until a Transfer bound to it is updated.
type Connection interface {
	// URL returns the location being fetched.
	URL() string
	// Done reports whether the exchange has reached a terminal state.
	Done() bool
	// Close releases the connection. It is only the caller's to call when no
	// Transfer was bound to it; otherwise Transfer.Close releases it.
	Close() error
}

// Transfer drives a Connection to completion one step at a time.
type Transfer interface {
	// Update advances the exchange by one step and reports the cumulative
	// bytes received and the total expected (0 while unknown).
	Update() (progress, total int64, err error)
	// Err is the transport-level error flag, inspected once Done.
	Err() error
	// Status is the response status code, 0 before headers arrived.
	Status() int
	// Data hands the received body over to the caller, who must Release it.
	// It returns nil when no bytes were received.
	Data() Body
	// Close releases the transfer and the Connection it owns.
	Close() error
}

// Body is a materialised response body.
type Body interface {
	Bytes() []byte
	Len() int
	// Release gives the buffer back. Calling it more than once is a no-op.
	Release()
}

// Getter opens connections and binds transfers for a family of URL schemes.
type Getter interface {
	// Connect creates the connection context for a GET of href.
	Connect(ctx context.Context, href string, options ...Option) (Connection, error)
	// NewTransfer binds a transfer handle to conn, taking ownership of it on success.
	NewTransfer(conn Connection) (Transfer, error)
}

// Constructor is the function for every getter which creates a specific instance
// according to the configuration
type Constructor func(options ...Option) (Getter, error)

// Provider represents any getter and the schemes that it supports.
//
// For example, an HTTP provider may provide one getter that handles both
// 'http' and 'https' schemes.
type Provider struct {
	Schemes []string
	New     Constructor
}

// Provides returns true if the given scheme is supported by this Provider.
func (p Provider) Provides(scheme string) bool {
	return slices.Contains(p.Schemes, scheme)
}

// Providers is a collection of Provider objects.
type Providers []Provider

// ByScheme returns a Getter that handles the given scheme.
//
// If no provider handles this scheme, this will return an error.
func (p Providers) ByScheme(scheme string, options ...Option) (Getter, error) {
	for _, pp := range p {
		if pp.Provides(scheme) {
			return pp.New(options...)
		}
	}
	return nil, fmt.Errorf("scheme %q not supported", scheme)
}

// All returns the built-in getters: http(s) and file.
func All(extraOpts ...Option) Providers {
	return Providers{
		Provider{
			Schemes: []string{"http", "https"},
			New: func(options ...Option) (Getter, error) {
				return NewHTTPGetter(append(options, extraOpts...)...)
			},
		},
		Provider{
			Schemes: []string{"file"},
			New: func(options ...Option) (Getter, error) {
				return NewFileGetter(append(options, extraOpts...)...)
			},
		},
	}
}

func applyOptions(base getterOptions, options []Option) getterOptions {
	opts := base
	for _, opt := range options {
		opt(&opts)
	}
	if opts.chunkSize <= 0 {
		opts.chunkSize = DefaultChunkSize
	}
	return opts
}
