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

// Identify is the action for reading the platform identifier.
//
// It provides the implementation of 'provisioner identify'.
type Identify struct {
	cfg *Configuration

	Layout
}

// NewIdentify creates a new Identify object with the given configuration.
func NewIdentify(cfg *Configuration) *Identify {
	return &Identify{cfg: cfg, Layout: DefaultLayout()}
}

// Run executes 'provisioner identify'.
func (i *Identify) Run() (string, error) {
	id, err := i.identifier()
	if err != nil {
		return "", err
	}
	i.cfg.Logger().Debug("read platform identifier", "file", i.IdentifierFile, "field", i.IdentifierField)
	return id, nil
}
