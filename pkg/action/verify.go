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
	"github.com/pkg/errors"

	"github.com/webosbrew/provisioner/pkg/artifact"
)

// Verifier checks an artifact against its detached signature. No verifier is
// configured by default; presence and size are all that is checked then.
type Verifier interface {
	Verify(artifactPath, signaturePath string) error
}

// VerifierFunc adapts a function to a Verifier.
type VerifierFunc func(artifactPath, signaturePath string) error

func (f VerifierFunc) Verify(artifactPath, signaturePath string) error {
	return f(artifactPath, signaturePath)
}

// verifySpec runs v on s. Specs without a signature sibling always pass.
func verifySpec(v Verifier, s artifact.Spec) error {
	if v == nil || s.SignaturePath == "" {
		return nil
	}
	return errors.Wrapf(v.Verify(s.Path, s.SignaturePath), "verifying %s", s.Name)
}
