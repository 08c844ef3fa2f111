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

package cmd

import (
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/webosbrew/provisioner/internal/metrics"
	"github.com/webosbrew/provisioner/pkg/action"
	"github.com/webosbrew/provisioner/pkg/cmd/require"
	"github.com/webosbrew/provisioner/pkg/downloader"
	"github.com/webosbrew/provisioner/pkg/notify"
)

const provisionDesc = `
This command makes sure the jailer configuration files are present.

The platform identifier is read first; without it nothing is fetched and the
command fails. If every configuration file and its signature are already
present, nothing is fetched. Otherwise every file is downloaded for the
identifier. A failed download does not stop the others, and the command
fails if any of them failed.

Use '--force' to download the files even when they are present.
`

func newProvisionCmd(cfg *action.Configuration, out io.Writer) *cobra.Command {
	client := action.NewProvision(cfg)
	var outfmt action.OutputFormat

	cmd := &cobra.Command{
		Use:   "provision",
		Short: "fetch missing jailer configuration files",
		Long:  provisionDesc,
		Args:  require.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client.Layout = settings.Layout()
			client.Parallel = settings.Parallel
			client.LockFile = settings.LockFile

			queue := notify.NewQueue(8)
			cfg.Notifier = queue
			stopNotify := queue.Forward(notify.Multi{
				notify.NewWriter(cmd.ErrOrStderr()),
				notify.Logger{Log: cfg.Logger()},
			})
			if settings.MetricsFile != "" && cfg.Metrics == nil {
				cfg.Metrics = metrics.New()
			}
			finish := func() {}
			if cfg.Progress == nil && !settings.Parallel {
				cfg.Progress, finish = progressFunc(cmd.ErrOrStderr())
			}

			res, err := client.Run(cmd.Context())
			finish()
			stopNotify()

			if settings.MetricsFile != "" {
				if werr := cfg.Metrics.WriteTextfile(settings.MetricsFile); werr != nil {
					cfg.Logger().Warn("failed to write metrics", "file", settings.MetricsFile, slog.Any("error", werr))
				}
			}
			if res != nil {
				if werr := outfmt.Write(out, newProvisionSummary(res), provisionTable(res)); werr != nil {
					return werr
				}
			}
			return err
		},
	}

	f := cmd.Flags()
	f.BoolVar(&client.Force, "force", false, "download the files even if they are already present")
	f.DurationVar(&client.LockTimeout, "lock-timeout", client.LockTimeout, "time to wait for another provisioner to finish")
	f.StringVar(&client.Message, "message", client.Message, "message shown when downloads start")
	bindOutputFlag(cmd, &outfmt)

	return cmd
}

type provisionSummary struct {
	Identifier string            `json:"identifier"`
	Skipped    bool              `json:"skipped"`
	Succeeded  bool              `json:"succeeded"`
	Artifacts  []artifactSummary `json:"artifacts,omitempty"`
}

type artifactSummary struct {
	Name     string `json:"name"`
	URL      string `json:"url"`
	Path     string `json:"path"`
	Status   int    `json:"status,omitempty"`
	Bytes    int64  `json:"bytes"`
	Duration string `json:"duration"`
	Error    string `json:"error,omitempty"`
}

func newProvisionSummary(res *action.ProvisionResult) provisionSummary {
	s := provisionSummary{
		Identifier: res.Identifier,
		Skipped:    res.Skipped,
		Succeeded:  res.Succeeded(),
	}
	for _, a := range res.Artifacts {
		as := artifactSummary{
			Name:     a.Spec.Name,
			URL:      a.Spec.URL,
			Path:     a.Spec.Path,
			Duration: a.Duration.Round(time.Millisecond).String(),
		}
		if a.Result != nil {
			as.Status = a.Result.Status
			as.Bytes = a.Result.Bytes
		}
		if a.Err != nil {
			as.Error = a.Err.Error()
			var derr *downloader.Error
			if errors.As(a.Err, &derr) {
				as.Status = derr.Status
			}
		}
		s.Artifacts = append(s.Artifacts, as)
	}
	return s
}

func provisionTable(res *action.ProvisionResult) action.TableFunc {
	return func(tbl *uitable.Table) {
		if res.Skipped {
			tbl.AddRow("IDENTIFIER", "RESULT")
			tbl.AddRow(res.Identifier, "already present")
			return
		}
		tbl.AddRow("ARTIFACT", "RESULT", "BYTES", "DURATION", "PATH")
		for _, a := range res.Artifacts {
			result := "downloaded"
			if a.Err != nil {
				result = "failed"
				if k := downloader.KindOf(a.Err); k != downloader.KindUnknown {
					result += ": " + k.String()
				}
			}
			var n int64
			if a.Result != nil {
				n = a.Result.Bytes
			}
			tbl.AddRow(a.Spec.Name, result, n, a.Duration.Round(time.Millisecond), a.Spec.Path)
		}
	}
}
