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
	"context"

	"github.com/webosbrew/provisioner/pkg/getter"
)

// State is the phase of a transfer.
type State int

const (
	// StateConnecting is the phase before the first successful step.
	StateConnecting State = iota
	// StateTransferring means headers or body bytes are flowing.
	StateTransferring
	// StateDone means the connection reported completion.
	StateDone
	// StateFailed means a step failed or the context ended.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateTransferring:
		return "transferring"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// transferState belongs to exactly one Download call and is never shared.
type transferState struct {
	conn     getter.Connection
	xfer     getter.Transfer
	progress int64
	total    int64
	state    State
	released bool
}

func newTransferState(conn getter.Connection, xfer getter.Transfer) *transferState {
	return &transferState{conn: conn, xfer: xfer, state: StateConnecting}
}

// run drives the transfer until the connection is done. Each Update may block
// on network I/O; ctx is checked between steps.
func (s *transferState) run(ctx context.Context, report func(progress, total int64)) error {
	for !s.conn.Done() {
		if err := ctx.Err(); err != nil {
			s.state = StateFailed
			return err
		}
		progress, total, err := s.xfer.Update()
		if err != nil {
			s.state = StateFailed
			return err
		}
		s.progress, s.total = progress, total
		s.state = StateTransferring
		report(progress, total)
	}
	s.state = StateDone
	return nil
}

// release closes the transfer, which closes the connection it owns.
func (s *transferState) release() {
	if s.released {
		return
	}
	s.released = true
	s.xfer.Close()
}
