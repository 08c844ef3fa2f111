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

package fileutil

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// DirOutcome reports what EnsureDir did.
type DirOutcome int

const (
	// DirExisted means the directory was already present.
	DirExisted DirOutcome = iota
	// DirCreated means the directory (and any missing parents) was created.
	DirCreated
	// DirFailed means the directory is missing and could not be created.
	DirFailed
)

func (d DirOutcome) String() string {
	switch d {
	case DirExisted:
		return "existed"
	case DirCreated:
		return "created"
	case DirFailed:
		return "failed"
	default:
		return fmt.Sprintf("DirOutcome(%d)", int(d))
	}
}

// EnsureDir makes sure dir exists as a directory. The returned error is only
// set together with DirFailed; callers decide whether that is fatal.
func EnsureDir(dir string) (DirOutcome, error) {
	if fi, err := os.Stat(dir); err == nil {
		if fi.IsDir() {
			return DirExisted, nil
		}
		return DirFailed, fmt.Errorf("%s exists and is not a directory", dir)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return DirFailed, err
	}
	return DirCreated, nil
}

// WriteError records which step of AtomicWriteFile failed.
type WriteError struct {
	// Op is one of "open", "write" or "rename".
	Op   string
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Op, e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// AtomicWriteFile atomically (as atomic as os.Rename allows) writes a file to a
// disk.
//
// The content goes to a temporary sibling of filename first. On any failure
// the temporary file is removed and filename is left untouched.
func AtomicWriteFile(filename string, reader io.Reader, mode os.FileMode) error {
	dir, base := filepath.Split(filename)
	if dir == "" {
		dir = "."
	}
	tempFile, err := os.CreateTemp(dir, "."+base+".*")
	if err != nil {
		return &WriteError{Op: "open", Path: filename, Err: err}
	}
	tempName := tempFile.Name()

	if _, err := io.Copy(tempFile, reader); err != nil {
		tempFile.Close() // return value is ignored as we are already on error path
		os.Remove(tempName)
		return &WriteError{Op: "write", Path: filename, Err: err}
	}

	if err := tempFile.Close(); err != nil {
		os.Remove(tempName)
		return &WriteError{Op: "write", Path: filename, Err: err}
	}

	if err := os.Chmod(tempName, mode); err != nil {
		os.Remove(tempName)
		return &WriteError{Op: "write", Path: filename, Err: err}
	}

	if err := os.Rename(tempName, filename); err != nil {
		os.Remove(tempName)
		return &WriteError{Op: "rename", Path: filename, Err: err}
	}
	return nil
}
