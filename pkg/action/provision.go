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
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/webosbrew/provisioner/internal/metrics"
	"github.com/webosbrew/provisioner/pkg/artifact"
	"github.com/webosbrew/provisioner/pkg/downloader"
	"github.com/webosbrew/provisioner/pkg/notify"
)

// Provision is the action for ensuring the provisioning artifacts are present.
//
// It provides the implementation of 'provisioner provision'.
type Provision struct {
	cfg *Configuration

	Layout

	// Force skips the check for artifacts already on disk.
	Force bool
	// Parallel fetches all artifacts at once instead of in order.
	Parallel bool
	// LockFile, if set, serialises provisioner processes.
	LockFile string
	// LockTimeout bounds the wait for LockFile.
	LockTimeout time.Duration
	// Verifier, if set, checks artifacts that have a signature sibling.
	Verifier Verifier
	// Message is sent to the notifier before downloading.
	Message string
}

// NewProvision creates a new Provision object with the given configuration.
func NewProvision(cfg *Configuration) *Provision {
	return &Provision{
		cfg:         cfg,
		Layout:      DefaultLayout(),
		LockTimeout: 30 * time.Second,
		Message:     DefaultMessage,
	}
}

// ArtifactResult is the outcome of fetching one artifact.
type ArtifactResult struct {
	Spec     artifact.Spec
	Result   *downloader.Result
	Duration time.Duration
	// Err is nil when the artifact was fetched (and verified, if configured).
	Err error
}

// ProvisionResult describes a provisioning run.
type ProvisionResult struct {
	Identifier string
	// Skipped is set when every artifact was already present.
	Skipped bool
	// Artifacts holds one entry per attempted fetch, in layout order.
	Artifacts []ArtifactResult
}

// Succeeded reports whether every artifact is in place.
func (r *ProvisionResult) Succeeded() bool {
	if r.Skipped {
		return true
	}
	if len(r.Artifacts) == 0 {
		return false
	}
	for _, a := range r.Artifacts {
		if a.Err != nil {
			return false
		}
	}
	return true
}

// Partial reports whether some, but not all, fetches failed.
func (r *ProvisionResult) Partial() bool {
	failed := r.failures()
	return failed > 0 && failed < len(r.Artifacts)
}

// Failed reports whether every attempted fetch failed.
func (r *ProvisionResult) Failed() bool {
	return len(r.Artifacts) > 0 && r.failures() == len(r.Artifacts)
}

// Err combines the per-artifact errors, or returns nil.
func (r *ProvisionResult) Err() error {
	var result *multierror.Error
	for _, a := range r.Artifacts {
		if a.Err != nil {
			result = multierror.Append(result, errors.Wrap(a.Err, a.Spec.Name))
		}
	}
	return result.ErrorOrNil()
}

func (r *ProvisionResult) failures() int {
	n := 0
	for _, a := range r.Artifacts {
		if a.Err != nil {
			n++
		}
	}
	return n
}

func (r *ProvisionResult) outcome() string {
	switch {
	case r.Skipped:
		return metrics.OutcomeSkipped
	case r.Succeeded():
		return metrics.OutcomeProvisioned
	case r.Partial():
		return metrics.OutcomePartial
	default:
		return metrics.OutcomeFailed
	}
}

// Provision reports whether the artifacts are in place after the run.
func (p *Provision) Provision(ctx context.Context) bool {
	res, err := p.Run(ctx)
	return err == nil && res.Succeeded()
}

// Run executes 'provisioner provision'.
//
// Without an identifier nothing is fetched and ErrNoIdentifier is returned.
// When every artifact is already valid the run is skipped. Otherwise each
// artifact is fetched, and a failure does not stop the remaining fetches; the
// returned error then combines every failure while the result tells them
// apart.
func (p *Provision) Run(ctx context.Context) (*ProvisionResult, error) {
	log := p.cfg.Logger()

	id, err := p.identifier()
	if err != nil {
		log.Error("cannot provision without a platform identifier", slog.Any("error", err))
		p.cfg.Metrics.ObserveRun(metrics.OutcomeNoID, Timestamper())
		return nil, err
	}
	log.Debug("platform identifier", "identifier", id)

	specs, err := p.specs(id)
	if err != nil {
		return nil, err
	}

	if p.LockFile != "" {
		unlock, err := p.lock(ctx)
		if err != nil {
			return nil, err
		}
		defer unlock()
	}

	res := &ProvisionResult{Identifier: id}

	if !p.Force && p.present(specs) {
		log.Info("artifacts already present", "destination", p.Destination)
		res.Skipped = true
		p.cfg.Metrics.ObserveRun(res.outcome(), Timestamper())
		return res, nil
	}

	log.Info("downloading artifacts", "identifier", id, "count", len(specs))
	p.cfg.notify(notify.Info(p.Message))

	res.Artifacts = make([]ArtifactResult, len(specs))
	if p.Parallel {
		var g errgroup.Group
		for i, spec := range specs {
			g.Go(func() error {
				res.Artifacts[i] = p.fetch(ctx, spec)
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for i, spec := range specs {
			res.Artifacts[i] = p.fetch(ctx, spec)
		}
	}

	p.verifyFetched(res)

	for _, a := range res.Artifacts {
		if a.Err != nil {
			log.Error("failed to provision artifact", "artifact", a.Spec.Name, slog.Any("error", a.Err))
		}
	}

	p.cfg.Metrics.ObserveRun(res.outcome(), Timestamper())
	if err := res.Err(); err != nil {
		return res, err
	}
	log.Info("artifacts provisioned", "destination", p.Destination)
	return res, nil
}

// present reports whether every artifact is valid on disk and, if a Verifier
// is set, passes verification.
func (p *Provision) present(specs []artifact.Spec) bool {
	if !artifact.AllValid(specs) {
		return false
	}
	for _, s := range specs {
		if err := verifySpec(p.Verifier, s); err != nil {
			p.cfg.Logger().Warn("existing artifact failed verification", "artifact", s.Name, slog.Any("error", err))
			return false
		}
	}
	return true
}

func (p *Provision) fetch(ctx context.Context, spec artifact.Spec) ArtifactResult {
	d := p.cfg.newDownloader()
	start := Timestamper()
	r, err := d.Download(ctx, spec.URL, spec.Path)
	elapsed := Timestamper().Sub(start)

	result := "ok"
	var n int64
	if err != nil {
		result = downloader.KindOf(err).String()
	} else {
		n = r.Bytes
	}
	p.cfg.Metrics.ObserveFetch(spec.Name, result, n, elapsed)

	return ArtifactResult{Spec: spec, Result: r, Duration: elapsed, Err: err}
}

// verifyFetched checks every spec with a signature once both files are on disk.
func (p *Provision) verifyFetched(res *ProvisionResult) {
	if p.Verifier == nil {
		return
	}
	for i := range res.Artifacts {
		a := &res.Artifacts[i]
		if a.Err != nil || a.Spec.SignaturePath == "" {
			continue
		}
		if !artifact.CheckFile(a.Spec.SignaturePath).Valid() {
			// The signature fetch failed and is reported on its own.
			continue
		}
		a.Err = verifySpec(p.Verifier, a.Spec)
	}
}

// lock takes LockFile, waiting up to LockTimeout.
func (p *Provision) lock(ctx context.Context) (func(), error) {
	if err := os.MkdirAll(filepath.Dir(p.LockFile), 0755); err != nil {
		return nil, errors.Wrap(err, "creating lock directory")
	}
	fileLock := flock.New(p.LockFile)
	lockCtx, cancel := context.WithTimeout(ctx, p.LockTimeout)
	defer cancel()
	locked, err := fileLock.TryLockContext(lockCtx, 250*time.Millisecond)
	if err != nil {
		return nil, errors.Wrapf(err, "acquiring lock %s", p.LockFile)
	}
	if !locked {
		return nil, errors.Wrap(errLocked, p.LockFile)
	}
	return func() { fileLock.Unlock() }, nil
}
