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

package cli

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/xeipuuv/gojsonschema"
	"sigs.k8s.io/yaml"

	"github.com/webosbrew/provisioner/pkg/artifact"
)

//go:embed config.schema.json
var configSchema []byte

// Config is the content of a configuration file. Unset fields keep their
// current value.
type Config struct {
	IdentifierFile  string                `json:"identifierFile,omitempty"`
	IdentifierField string                `json:"identifierField,omitempty"`
	Destination     string                `json:"destination,omitempty"`
	URLTemplate     string                `json:"urlTemplate,omitempty"`
	Timeout         string                `json:"timeout,omitempty"`
	UserAgent       string                `json:"userAgent,omitempty"`
	LockFile        string                `json:"lockFile,omitempty"`
	MetricsFile     string                `json:"metricsFile,omitempty"`
	Parallel        *bool                 `json:"parallel,omitempty"`
	Artifacts       []artifact.Definition `json:"artifacts,omitempty"`
}

// ParseConfig decodes a configuration file and validates it against the
// configuration schema. Files ending in .toml are TOML; anything else is
// read as YAML, which includes JSON.
func ParseConfig(name string, data []byte) (*Config, error) {
	var (
		doc []byte
		err error
	)
	if strings.EqualFold(filepath.Ext(name), ".toml") {
		var m map[string]interface{}
		if err := toml.Unmarshal(data, &m); err != nil {
			return nil, errors.Wrapf(err, "parsing %s", name)
		}
		doc, err = json.Marshal(m)
	} else {
		doc, err = yaml.YAMLToJSON(data)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "parsing %s", name)
	}
	if bytes.Equal(doc, []byte("null")) || bytes.Equal(doc, []byte("{}")) {
		return &Config{}, nil
	}

	if err := validateConfig(doc); err != nil {
		return nil, errors.Wrapf(err, "%s is invalid", name)
	}

	var c Config
	if err := json.Unmarshal(doc, &c); err != nil {
		return nil, errors.Wrapf(err, "parsing %s", name)
	}
	return &c, nil
}

func validateConfig(doc []byte) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(configSchema),
		gojsonschema.NewBytesLoader(doc),
	)
	if err != nil {
		return err
	}
	if !result.Valid() {
		var sb strings.Builder
		for _, desc := range result.Errors() {
			sb.WriteString(fmt.Sprintf("\n- %s", desc))
		}
		return errors.New(sb.String())
	}
	return nil
}

// LoadConfigFile applies ConfigFile to every setting that was not given
// through the environment or fs. A missing file is only an error when its
// path was given explicitly.
func (s *EnvSettings) LoadConfigFile(fs *pflag.FlagSet) error {
	data, err := os.ReadFile(s.ConfigFile)
	if err != nil {
		if os.IsNotExist(err) && !s.overridden(fs, "config") {
			return nil
		}
		return errors.Wrap(err, "reading configuration")
	}
	c, err := ParseConfig(s.ConfigFile, data)
	if err != nil {
		return err
	}
	return s.apply(c, fs)
}

func (s *EnvSettings) apply(c *Config, fs *pflag.FlagSet) error {
	setString := func(flag string, dst *string, v string) {
		if v != "" && !s.overridden(fs, flag) {
			*dst = v
		}
	}
	setString("identifier-file", &s.IdentifierFile, c.IdentifierFile)
	setString("identifier-field", &s.IdentifierField, c.IdentifierField)
	setString("destination", &s.Destination, c.Destination)
	setString("url-template", &s.URLTemplate, c.URLTemplate)
	setString("user-agent", &s.UserAgent, c.UserAgent)
	setString("lock-file", &s.LockFile, c.LockFile)
	setString("metrics-file", &s.MetricsFile, c.MetricsFile)

	if c.Timeout != "" && !s.overridden(fs, "timeout") {
		d, err := time.ParseDuration(c.Timeout)
		if err != nil {
			return errors.Wrap(err, "timeout")
		}
		s.Timeout = d
	}
	if c.Parallel != nil && !s.overridden(fs, "parallel") {
		s.Parallel = *c.Parallel
	}
	if len(c.Artifacts) > 0 {
		s.Artifacts = c.Artifacts
	}
	return nil
}
