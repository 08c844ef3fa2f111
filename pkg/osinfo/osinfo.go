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

// Package osinfo reads the platform identifier from the device's OS
// information document.
package osinfo

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
)

const (
	// DefaultPath is where webOS publishes its OS information.
	DefaultPath = "/var/run/nyx/os_info.json"
	// DefaultField names the release string used to select artifacts.
	DefaultField = "webos_release"
	// MaxSize bounds how much of the document is read.
	MaxSize = 1 << 20
)

var (
	// ErrNotFound means the document has no usable value for the field.
	ErrNotFound = errors.New("field not found")
	// ErrNotObject means the document is not a JSON object.
	ErrNotObject = errors.New("document is not a JSON object")
	// ErrEmpty means the document has no content.
	ErrEmpty = errors.New("document is empty")
	// ErrTooLarge means the document exceeds MaxSize.
	ErrTooLarge = errors.New("document too large")
)

// Read returns the string value of field in the document at path. It never
// fails: any problem with the file or its content yields ok == false.
func Read(path, field string) (value string, ok bool) {
	v, err := ReadFile(path, field)
	if err != nil {
		return "", false
	}
	return v, true
}

// ReadFile is like Read but reports why the value is absent.
func ReadFile(path, field string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, MaxSize+1))
	if err != nil {
		return "", err
	}
	if len(data) > MaxSize {
		return "", ErrTooLarge
	}
	return Lookup(data, field)
}

// Lookup scans the top-level members of a JSON object for field and returns
// its value. The first member named field decides the outcome; later
// duplicates are not considered. A value that is not a string, or is the
// empty string, counts as absent.
func Lookup(data []byte, field string) (string, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return "", ErrEmpty
	}
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return "", fmt.Errorf("parsing document: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return "", ErrNotObject
	}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return "", fmt.Errorf("parsing document: %w", err)
		}
		key, ok := tok.(string)
		if !ok {
			return "", fmt.Errorf("parsing document: unexpected token %v", tok)
		}
		if key != field {
			if err := skipValue(dec); err != nil {
				return "", fmt.Errorf("parsing document: %w", err)
			}
			continue
		}

		tok, err = dec.Token()
		if err != nil {
			return "", fmt.Errorf("parsing document: %w", err)
		}
		s, ok := tok.(string)
		if !ok || s == "" {
			return "", fmt.Errorf("%q: %w", field, ErrNotFound)
		}
		return s, nil
	}
	return "", fmt.Errorf("%q: %w", field, ErrNotFound)
}

// skipValue consumes one complete value, nested or not.
func skipValue(dec *json.Decoder) error {
	depth := 0
	for {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		if d, ok := tok.(json.Delim); ok {
			switch d {
			case '{', '[':
				depth++
			case '}', ']':
				depth--
			}
		}
		if depth == 0 {
			return nil
		}
	}
}
