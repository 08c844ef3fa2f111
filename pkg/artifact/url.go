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

package artifact

import (
	"fmt"
	"net/url"
	"strings"
	"text/template"
)

// DefaultURLTemplate is the LG developer download endpoint. Query parameter
// order is kept as written.
const DefaultURLTemplate = "https://developer.lge.com/common/file/DownloadFile.dev?sdkVersion={{ urlquery .Identifier }}&fileType={{ urlquery .FileType }}"

// URLTemplate builds artifact URLs from an identifier and a file type.
type URLTemplate struct {
	source string
	tmpl   *template.Template
}

// ParseURLTemplate parses s. The template sees .Identifier and .FileType.
func ParseURLTemplate(s string) (*URLTemplate, error) {
	if strings.TrimSpace(s) == "" {
		return nil, fmt.Errorf("empty URL template")
	}
	t, err := template.New("url").Option("missingkey=error").Parse(s)
	if err != nil {
		return nil, fmt.Errorf("parsing URL template: %w", err)
	}
	return &URLTemplate{source: s, tmpl: t}, nil
}

// MustParseURLTemplate is like ParseURLTemplate but panics on error.
func MustParseURLTemplate(s string) *URLTemplate {
	t, err := ParseURLTemplate(s)
	if err != nil {
		panic(err)
	}
	return t
}

func (t *URLTemplate) String() string { return t.source }

// Expand renders the template and checks the result is an absolute URL.
func (t *URLTemplate) Expand(identifier, fileType string) (string, error) {
	var b strings.Builder
	data := struct {
		Identifier string
		FileType   string
	}{identifier, fileType}
	if err := t.tmpl.Execute(&b, data); err != nil {
		return "", fmt.Errorf("rendering URL template: %w", err)
	}
	out := b.String()
	u, err := url.Parse(out)
	if err != nil {
		return "", fmt.Errorf("rendered URL %q: %w", out, err)
	}
	if u.Scheme == "" {
		return "", fmt.Errorf("rendered URL %q is not absolute", out)
	}
	return out, nil
}
