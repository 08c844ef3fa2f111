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
	"github.com/webosbrew/provisioner/pkg/artifact"
)

// Status is the action for reporting which artifacts are on disk.
//
// It provides the implementation of 'provisioner status'.
type Status struct {
	cfg *Configuration

	Layout
}

// NewStatus creates a new Status object with the given configuration.
func NewStatus(cfg *Configuration) *Status {
	return &Status{cfg: cfg, Layout: DefaultLayout()}
}

// StatusReport is the state of every artifact on disk.
type StatusReport struct {
	// Identifier is empty when it could not be read.
	Identifier string
	Reports    []artifact.Report
}

// Valid reports whether a provision run would be skipped.
func (r *StatusReport) Valid() bool {
	if r.Identifier == "" || len(r.Reports) == 0 {
		return false
	}
	for _, rep := range r.Reports {
		if !rep.Valid() {
			return false
		}
	}
	return true
}

// Run executes 'provisioner status'. A missing identifier is not an error
// here: the artifacts are still checked, without remote URLs.
func (s *Status) Run() (*StatusReport, error) {
	id, err := s.identifier()
	if err != nil {
		s.cfg.Logger().Debug("no platform identifier", "error", err)
	}

	specs, err := s.specs(id)
	if err != nil {
		return nil, err
	}
	if id == "" {
		for i := range specs {
			specs[i].URL = ""
		}
	}
	return &StatusReport{Identifier: id, Reports: artifact.CheckAll(specs)}, nil
}
