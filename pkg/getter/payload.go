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
	"sync"
)

var bufferPool = sync.Pool{
	New: func() any { return new(bytes.Buffer) },
}

func getBuffer() *bytes.Buffer {
	buf := bufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	return buf
}

func putBuffer(buf *bytes.Buffer) {
	if buf != nil {
		bufferPool.Put(buf)
	}
}

// Payload is a response body owned by the caller of Transfer.Data.
type Payload struct {
	buf *bytes.Buffer
}

// NewPayload wraps b. Getters outside this package use it to hand over bodies.
func NewPayload(b []byte) *Payload {
	buf := getBuffer()
	buf.Write(b)
	return &Payload{buf: buf}
}

// Bytes returns the body. The slice is only valid until Release.
func (p *Payload) Bytes() []byte {
	if p == nil || p.buf == nil {
		return nil
	}
	return p.buf.Bytes()
}

// Len returns the body length.
func (p *Payload) Len() int {
	if p == nil || p.buf == nil {
		return 0
	}
	return p.buf.Len()
}

// Release returns the buffer to the pool. Calling it more than once is a no-op.
func (p *Payload) Release() {
	if p == nil || p.buf == nil {
		return
	}
	putBuffer(p.buf)
	p.buf = nil
}
