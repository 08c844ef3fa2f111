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

	"github.com/webosbrew/provisioner/pkg/cmd/require"
)

const completionDesc = `
Generate autocompletion scripts for the provisioner for the specified shell.

To load completions in your current bash shell session:

    source <(provisioner completion bash)

To load completions in your current zsh shell session:

    source <(provisioner completion zsh)
`

var completionShells = []string{"bash", "zsh", "fish", "powershell"}

func newCompletionCmd(out io.Writer) *cobra.Command {
	var noDesc bool

	cmd := &cobra.Command{
		Use:       "completion SHELL",
		Short:     "generate autocompletion scripts for the specified shell",
		Long:      completionDesc,
		Args:      require.ExactArgs(1),
		ValidArgs: completionShells,
		RunE: func(cmd *cobra.Command, args []string) error {
			root := cmd.Root()
			switch args[0] {
			case "bash":
				return root.GenBashCompletionV2(out, !noDesc)
			case "zsh":
				if noDesc {
					return root.GenZshCompletionNoDesc(out)
				}
				return root.GenZshCompletion(out)
			case "fish":
				return root.GenFishCompletion(out, !noDesc)
			case "powershell":
				if noDesc {
					return root.GenPowerShellCompletion(out)
				}
				return root.GenPowerShellCompletionWithDesc(out)
			}
			return fmt.Errorf("unsupported shell %q", args[0])
		},
	}
	cmd.Flags().BoolVar(&noDesc, "no-descriptions", false, "disable completion descriptions")

	return cmd
}
