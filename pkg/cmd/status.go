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
	"io"

	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/webosbrew/provisioner/pkg/action"
	"github.com/webosbrew/provisioner/pkg/artifact"
	"github.com/webosbrew/provisioner/pkg/cmd/require"
)

var statusHelp = `
This command shows which jailer configuration files are present.

A file is present when it is a non-empty, readable regular file. A file with a
signature is only present when its signature is present as well. The content
of the files is not checked.

The platform identifier is shown when it can be read; 'provisioner provision'
fails without it.
`

func newStatusCmd(cfg *action.Configuration, out io.Writer) *cobra.Command {
	client := action.NewStatus(cfg)
	var outfmt action.OutputFormat

	cmd := &cobra.Command{
		Use:   "status",
		Short: "show which jailer configuration files are present",
		Long:  statusHelp,
		Args:  require.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			client.Layout = settings.Layout()
			report, err := client.Run()
			if err != nil {
				return err
			}
			return outfmt.Write(out, newStatusSummary(report), statusTable(report))
		},
	}

	bindOutputFlag(cmd, &outfmt)

	return cmd
}

type statusSummary struct {
	Identifier string           `json:"identifier,omitempty"`
	Valid      bool             `json:"valid"`
	Artifacts  []artifactStatus `json:"artifacts"`
}

type artifactStatus struct {
	Name      string      `json:"name"`
	URL       string      `json:"url,omitempty"`
	File      fileStatus  `json:"file"`
	Signature *fileStatus `json:"signature,omitempty"`
}

type fileStatus struct {
	Path    string `json:"path"`
	Present bool   `json:"present"`
	Size    int64  `json:"size"`
	Error   string `json:"error,omitempty"`
}

func newFileStatus(f artifact.FileStatus) fileStatus {
	s := fileStatus{Path: f.Path, Present: f.Valid(), Size: f.Size}
	if f.Err != nil {
		s.Error = f.Err.Error()
	}
	return s
}

func newStatusSummary(r *action.StatusReport) statusSummary {
	s := statusSummary{Identifier: r.Identifier, Valid: r.Valid(), Artifacts: []artifactStatus{}}
	for _, rep := range r.Reports {
		as := artifactStatus{
			Name: rep.Spec.Name,
			URL:  rep.Spec.URL,
			File: newFileStatus(rep.File),
		}
		if rep.Signature != nil {
			sig := newFileStatus(*rep.Signature)
			as.Signature = &sig
		}
		s.Artifacts = append(s.Artifacts, as)
	}
	return s
}

func statusTable(r *action.StatusReport) action.TableFunc {
	return func(tbl *uitable.Table) {
		id := r.Identifier
		if id == "" {
			id = "<unknown>"
		}
		tbl.AddRow("IDENTIFIER:", id)
		tbl.AddRow("")
		tbl.AddRow("ARTIFACT", "STATE", "SIZE", "SIGNATURE", "PATH")
		for _, rep := range r.Reports {
			sig := "-"
			if rep.Signature != nil {
				sig = fileState(*rep.Signature)
			}
			tbl.AddRow(rep.Spec.Name, fileState(rep.File), rep.File.Size, sig, rep.Spec.Path)
		}
	}
}

func fileState(f artifact.FileStatus) string {
	switch {
	case f.Valid():
		return "present"
	case f.Err == artifact.ErrEmpty:
		return "empty"
	case f.Err == artifact.ErrNotRegular:
		return "not a file"
	default:
		return "missing"
	}
}
