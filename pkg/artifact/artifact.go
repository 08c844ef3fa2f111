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

/*
Package artifact describes the files a provisioning run is responsible for and
checks whether they are already present on disk.

An artifact is valid when its destination, and its signature sibling if it has
one, are non-empty readable regular files. The content is not inspected.
*/
package artifact

import (
	"errors"
	"fmt"
	"os"

	securejoin "github.com/cyphar/filepath-securejoin"
)

var (
	// ErrNotRegular is reported for directories, devices and other non-regular files.
	ErrNotRegular = errors.New("not a regular file")
	// ErrEmpty is reported for zero-length files.
	ErrEmpty = errors.New("file is empty")
)

// Spec is one file to fetch. It is a value type and is never modified once built.
type Spec struct {
	// Name is the logical name used in logs and reports.
	Name string
	// FileType selects the artifact at the remote endpoint.
	FileType string
	// URL is the resolved remote location.
	URL string
	// Path is the local destination.
	Path string
	// SignaturePath is the expected detached signature next to Path. Empty
	// means the artifact has no signature sibling.
	SignaturePath string
}

// Definition is the identifier-independent part of a Spec, as it appears in
// configuration. File names are relative to the destination directory.
type Definition struct {
	Name      string `json:"name"`
	FileType  string `json:"fileType"`
	Signature string `json:"signature,omitempty"`
}

// DefaultDefinitions are the jailer configuration and its detached signature.
func DefaultDefinitions() []Definition {
	return []Definition{
		{Name: "jail_app.conf", FileType: "conf", Signature: "jail_app.conf.sig"},
		{Name: "jail_app.conf.sig", FileType: "sig"},
	}
}

// Build resolves defs against the destination directory and URL template for
// one identifier. File names may not escape dir.
func Build(dir, identifier string, tmpl *URLTemplate, defs []Definition) ([]Spec, error) {
	if len(defs) == 0 {
		return nil, errors.New("no artifacts defined")
	}
	specs := make([]Spec, 0, len(defs))
	for _, def := range defs {
		if def.Name == "" || def.FileType == "" {
			return nil, fmt.Errorf("artifact %q: name and file type are required", def.Name)
		}
		path, err := securejoin.SecureJoin(dir, def.Name)
		if err != nil {
			return nil, fmt.Errorf("artifact %q: %w", def.Name, err)
		}
		var sig string
		if def.Signature != "" {
			if sig, err = securejoin.SecureJoin(dir, def.Signature); err != nil {
				return nil, fmt.Errorf("artifact %q: %w", def.Name, err)
			}
		}
		u, err := tmpl.Expand(identifier, def.FileType)
		if err != nil {
			return nil, fmt.Errorf("artifact %q: %w", def.Name, err)
		}
		specs = append(specs, Spec{
			Name:          def.Name,
			FileType:      def.FileType,
			URL:           u,
			Path:          path,
			SignaturePath: sig,
		})
	}
	return specs, nil
}

// FileStatus is the result of checking one path.
type FileStatus struct {
	Path string
	Size int64
	// Err is nil when the file is valid.
	Err error
}

// Valid reports whether the file passed the check.
func (f FileStatus) Valid() bool { return f.Err == nil }

// Report is the result of checking one Spec.
type Report struct {
	Spec Spec
	File FileStatus
	// Signature is nil when the spec has no signature sibling.
	Signature *FileStatus
}

// Valid reports whether the destination and signature, if any, are valid.
func (r Report) Valid() bool {
	if !r.File.Valid() {
		return false
	}
	return r.Signature == nil || r.Signature.Valid()
}

// CheckFile stats and opens path.
func CheckFile(path string) FileStatus {
	st := FileStatus{Path: path}
	fi, err := os.Stat(path)
	if err != nil {
		st.Err = err
		return st
	}
	st.Size = fi.Size()
	switch {
	case !fi.Mode().IsRegular():
		st.Err = ErrNotRegular
		return st
	case fi.Size() == 0:
		st.Err = ErrEmpty
		return st
	}
	f, err := os.Open(path)
	if err != nil {
		st.Err = err
		return st
	}
	f.Close()
	return st
}

// Check reports the state of s on disk.
func (s Spec) Check() Report {
	r := Report{Spec: s, File: CheckFile(s.Path)}
	if s.SignaturePath != "" {
		sig := CheckFile(s.SignaturePath)
		r.Signature = &sig
	}
	return r
}

// Valid is shorthand for s.Check().Valid().
func (s Spec) Valid() bool {
	return s.Check().Valid()
}

// CheckAll reports on every spec, in order.
func CheckAll(specs []Spec) []Report {
	reports := make([]Report, 0, len(specs))
	for _, s := range specs {
		reports = append(reports, s.Check())
	}
	return reports
}

// AllValid returns true only if every spec is valid. An empty set is not valid.
func AllValid(specs []Spec) bool {
	if len(specs) == 0 {
		return false
	}
	for _, s := range specs {
		if !s.Valid() {
			return false
		}
	}
	return true
}
