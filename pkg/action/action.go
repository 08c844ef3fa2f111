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
	"time"

	"github.com/pkg/errors"

	"github.com/webosbrew/provisioner/internal/logging"
	"github.com/webosbrew/provisioner/internal/metrics"
	"github.com/webosbrew/provisioner/pkg/artifact"
	"github.com/webosbrew/provisioner/pkg/downloader"
	"github.com/webosbrew/provisioner/pkg/getter"
	"github.com/webosbrew/provisioner/pkg/notify"
	"github.com/webosbrew/provisioner/pkg/osinfo"
)

// Timestamper is a function capable of producing a timestamp.
//
// By default, this is time.Now. This can be overridden for testing though, so
// that timestamps are predictable.
var Timestamper = time.Now

var (
	// ErrNoIdentifier indicates that the platform identifier could not be read.
	ErrNoIdentifier = errors.New("platform identifier not found")
	// errLocked indicates that another provisioner holds the lock.
	errLocked = errors.New("another provisioner is running")
)

// DefaultDestination is where the jailer looks for its configuration.
const DefaultDestination = "/media/developer"

// DefaultMessage is shown to the operator when downloads start.
const DefaultMessage = "Downloading jailer configuration files"

// Configuration injects the dependencies that all actions share.
type Configuration struct {
	// Getters resolves URL schemes to transports.
	Getters getter.Providers

	// GetterOptions are passed to every connection.
	GetterOptions []getter.Option

	// Notifier receives operator-facing messages.
	Notifier notify.Notifier

	// Metrics, if set, records fetch and run outcomes.
	Metrics *metrics.Collector

	// Progress, if set, receives byte progress of every fetch.
	Progress downloader.ProgressFunc

	logging.LogHolder
}

// NewConfiguration returns a Configuration with the built-in getters and no
// notifications.
func NewConfiguration() *Configuration {
	cfg := &Configuration{
		Getters:  getter.All(),
		Notifier: notify.Discard,
	}
	cfg.SetLogger(nil)
	return cfg
}

func (cfg *Configuration) newDownloader() *downloader.Downloader {
	d := downloader.New(cfg.Getters, cfg.GetterOptions...)
	d.Progress = cfg.Progress
	d.SetLogger(cfg.Logger().Handler())
	return d
}

func (cfg *Configuration) notify(m notify.Message) {
	if cfg.Notifier != nil {
		cfg.Notifier.Notify(m)
	}
}

// Layout locates the identifier source and the artifacts on disk and remotely.
type Layout struct {
	// IdentifierFile is the JSON document holding the platform identifier.
	IdentifierFile string
	// IdentifierField is the top-level key of the identifier.
	IdentifierField string
	// Destination is the directory artifacts are written to.
	Destination string
	// URLTemplate builds the remote URL of each artifact.
	URLTemplate string
	// Artifacts are fetched in this order.
	Artifacts []artifact.Definition
}

// DefaultLayout returns the webOS jailer configuration layout.
func DefaultLayout() Layout {
	return Layout{
		IdentifierFile:  osinfo.DefaultPath,
		IdentifierField: osinfo.DefaultField,
		Destination:     DefaultDestination,
		URLTemplate:     artifact.DefaultURLTemplate,
		Artifacts:       artifact.DefaultDefinitions(),
	}
}

// identifier reads the platform identifier. Absence is reported as ErrNoIdentifier.
func (l *Layout) identifier() (string, error) {
	id, err := osinfo.ReadFile(l.IdentifierFile, l.IdentifierField)
	if err != nil {
		return "", errors.Wrapf(ErrNoIdentifier, "%s: %s", l.IdentifierFile, err)
	}
	return id, nil
}

func (l *Layout) specs(identifier string) ([]artifact.Spec, error) {
	tmpl, err := artifact.ParseURLTemplate(l.URLTemplate)
	if err != nil {
		return nil, err
	}
	specs, err := artifact.Build(l.Destination, identifier, tmpl, l.Artifacts)
	if err != nil {
		return nil, errors.Wrap(err, "invalid artifact layout")
	}
	return specs, nil
}
