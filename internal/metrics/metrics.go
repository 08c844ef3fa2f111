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

// Package metrics records provisioning outcomes in a private Prometheus
// registry that can be dumped in the node-exporter textfile format.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "provisioner"

// Outcome label values for provision runs.
const (
	OutcomeProvisioned = "provisioned"
	OutcomeSkipped     = "skipped"
	OutcomePartial     = "partial"
	OutcomeFailed      = "failed"
	OutcomeNoID        = "no_identifier"
)

// Collector holds the provisioner metrics. A nil *Collector is valid and
// records nothing.
type Collector struct {
	registry *prometheus.Registry

	Fetches       *prometheus.CounterVec
	FetchBytes    *prometheus.CounterVec
	FetchDuration *prometheus.HistogramVec
	Runs          *prometheus.CounterVec
	LastRun       prometheus.Gauge
}

// New creates a Collector with its own registry.
func New() *Collector {
	reg := prometheus.NewRegistry()
	c := &Collector{
		registry: reg,
		Fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetches_total",
			Help:      "Artifact fetch attempts by artifact and result.",
		}, []string{"artifact", "result"}),
		FetchBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetched_bytes_total",
			Help:      "Bytes written to disk by successful fetches.",
		}, []string{"artifact"}),
		FetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Duration of artifact fetches in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"artifact"}),
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Provision runs by outcome.",
		}, []string{"outcome"}),
		LastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time of the last provision run.",
		}),
	}
	reg.MustRegister(c.Fetches, c.FetchBytes, c.FetchDuration, c.Runs, c.LastRun)
	return c
}

// Registry returns the private registry.
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// ObserveFetch records one artifact fetch. result is "ok" or a failure kind.
func (c *Collector) ObserveFetch(artifact, result string, bytes int64, d time.Duration) {
	if c == nil {
		return
	}
	c.Fetches.WithLabelValues(artifact, result).Inc()
	c.FetchDuration.WithLabelValues(artifact).Observe(d.Seconds())
	if bytes > 0 {
		c.FetchBytes.WithLabelValues(artifact).Add(float64(bytes))
	}
}

// ObserveRun records the outcome of one provision run.
func (c *Collector) ObserveRun(outcome string, at time.Time) {
	if c == nil {
		return
	}
	c.Runs.WithLabelValues(outcome).Inc()
	c.LastRun.Set(float64(at.Unix()))
}

// WriteTextfile writes every metric to filename for the node-exporter
// textfile collector.
func (c *Collector) WriteTextfile(filename string) error {
	if c == nil {
		return nil
	}
	return prometheus.WriteToTextfile(filename, c.registry)
}
