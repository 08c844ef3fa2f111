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
	"sort"

	"github.com/spf13/cobra"

	"github.com/webosbrew/provisioner/pkg/action"
	"github.com/webosbrew/provisioner/pkg/cmd/require"
)

var envHelp = `
Env prints out all the environment information in use by the provisioner.
`

func newEnvCmd(out io.Writer) *cobra.Command {
	var outfmt action.OutputFormat

	cmd := &cobra.Command{
		Use:   "env [NAME]",
		Short: "provisioner client environment information",
		Long:  envHelp,
		Args:  require.MaximumNArgs(1),
		ValidArgsFunction: func(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
			if len(args) == 0 {
				return getSortedEnvVarKeys(), cobra.ShellCompDirectiveNoFileComp
			}
			return nil, cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(_ *cobra.Command, args []string) error {
			envVars := settings.EnvVars()

			if len(args) == 1 {
				fmt.Fprintf(out, "%s\n", envVars[args[0]])
				return nil
			}
			if outfmt != action.Table {
				return outfmt.Write(out, envVars, nil)
			}
			for _, k := range getSortedEnvVarKeys() {
				fmt.Fprintf(out, "%s=\"%s\"\n", k, envVars[k])
			}
			return nil
		},
	}

	bindOutputFlag(cmd, &outfmt)

	return cmd
}

func getSortedEnvVarKeys() []string {
	envVars := settings.EnvVars()

	var keys []string
	for k := range envVars {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	return keys
}
