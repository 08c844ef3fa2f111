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
	"errors"
	"fmt"
)

// Kind classifies why a download failed.
type Kind int

const (
	// KindUnknown is never produced by the Downloader.
	KindUnknown Kind = iota
	// KindScheme means no getter handles the URL scheme.
	KindScheme
	// KindConnection means the connection context could not be created.
	KindConnection
	// KindTransfer means the transfer handle could not be created.
	KindTransfer
	// KindPoll means an advance step of the poll loop failed.
	KindPoll
	// KindTransport means the transport error flag was set after completion.
	KindTransport
	// KindStatus means the response status was not 2xx.
	KindStatus
	// KindEmptyPayload means a 2xx response carried no body.
	KindEmptyPayload
	// KindOpen means the destination could not be opened for writing.
	KindOpen
	// KindWrite means the body could not be fully written and renamed into place.
	KindWrite
)

var kindNames = map[Kind]string{
	KindUnknown:      "unknown",
	KindScheme:       "unsupported scheme",
	KindConnection:   "connection setup",
	KindTransfer:     "transfer setup",
	KindPoll:         "transfer",
	KindTransport:    "transport error",
	KindStatus:       "bad status",
	KindEmptyPayload: "empty payload",
	KindOpen:         "open destination",
	KindWrite:        "write destination",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Error is returned by Download for every per-artifact failure.
type Error struct {
	Kind   Kind
	URL    string
	Path   string
	Status int
	Err    error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("download %s: %s", e.URL, e.Kind)
	if e.Status != 0 && e.Kind == KindStatus {
		msg = fmt.Sprintf("%s %d", msg, e.Status)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %s", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the Kind of the first *Error in err's chain, or KindUnknown.
func KindOf(err error) Kind {
	var derr *Error
	if errors.As(err, &derr) {
		return derr.Kind
	}
	return KindUnknown
}
