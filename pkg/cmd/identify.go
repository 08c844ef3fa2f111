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
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/webosbrew/provisioner/pkg/action"
	"github.com/webosbrew/provisioner/pkg/cmd/require"
)

const identifyDesc = `
This command prints the platform identifier used to select the jailer
configuration files.

The identifier is read from the top-level field given by '--identifier-field'
of the JSON document given by '--identifier-file'. A different document can be
passed as an argument.
`

func newIdentifyCmd(cfg *action.Configuration, out io.Writer) *cobra.Command {
	client := action.NewIdentify(cfg)

	cmd := &cobra.Command{
		Use:   "identify [FILE]",
		Short: "print the platform identifier",
		Long:  identifyDesc,
		Args:  require.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			client.Layout = settings.Layout()
			if len(args) == 1 {
				client.IdentifierFile = args[0]
			}
			id, err := client.Run()
			if err != nil {
				return err
			}
			fmt.Fprintln(out, id)
			return nil
		},
	}

	return cmd
}
