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

package cmd // import "github.com/webosbrew/provisioner/pkg/cmd"

import (
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/webosbrew/provisioner/internal/logging"
	"github.com/webosbrew/provisioner/pkg/action"
	"github.com/webosbrew/provisioner/pkg/cli"
	"github.com/webosbrew/provisioner/pkg/getter"
)

var globalUsage = `Fetch the jailer configuration of a webOS device.

The provisioner reads the platform identifier of the device, and if the
jailer configuration and its signature are not already present, downloads
both for that identifier.

Common actions:

- provisioner provision:  fetch missing configuration files
- provisioner status:     show which configuration files are present
- provisioner identify:   print the platform identifier

Environment variables:

| Name                           | Description                                                      |
|--------------------------------|------------------------------------------------------------------|
| $PROVISIONER_CACHE_HOME        | set an alternative location for storing cached files.            |
| $PROVISIONER_CONFIG_HOME       | set an alternative location for storing configuration.           |
| $PROVISIONER_CONFIG            | set the path to the configuration file.                          |
| $PROVISIONER_DEBUG             | indicate whether or not the provisioner is running in Debug mode |
| $PROVISIONER_DESTINATION       | set the directory the configuration files are written to.        |
| $PROVISIONER_IDENTIFIER_FILE   | set the JSON document holding the platform identifier.           |
| $PROVISIONER_IDENTIFIER_FIELD  | set the top-level key of the platform identifier.                |
| $PROVISIONER_LOCK_FILE         | set the file locked while provisioning.                          |
| $PROVISIONER_METRICS_FILE      | set the file metrics are written to after a run.                 |
| $PROVISIONER_PARALLEL          | fetch configuration files concurrently.                          |
| $PROVISIONER_TIMEOUT           | set the time to wait for each configuration file.                |
| $PROVISIONER_URL_TEMPLATE      | set the template of download URLs.                               |
| $PROVISIONER_USER_AGENT        | set the User-Agent header sent with downloads.                   |

Settings are taken from, in increasing order of precedence: built-in
defaults, the configuration file, environment variables and flags.
`

var settings = cli.New()

// NewRootCmd creates the provisioner command tree.
func NewRootCmd(out io.Writer, args []string) (*cobra.Command, error) {
	actionConfig := action.NewConfiguration()
	return newRootCmdWithConfig(actionConfig, out, args)
}

func newRootCmdWithConfig(actionConfig *action.Configuration, out io.Writer, args []string) (*cobra.Command, error) {
	cmd := &cobra.Command{
		Use:          "provisioner",
		Short:        "Fetch the jailer configuration of a webOS device.",
		Long:         globalUsage,
		SilenceUsage: true,
		PersistentPreRunE: func(c *cobra.Command, _ []string) error {
			if err := settings.LoadConfigFile(c.Root().PersistentFlags()); err != nil {
				return err
			}
			actionConfig.GetterOptions = getterOptions()
			return nil
		},
	}

	flags := cmd.PersistentFlags()
	settings.AddFlags(flags)

	// Errors are caught again by cmd.Execute. This call only gathers the
	// settings needed before then.
	flags.ParseErrorsWhitelist.UnknownFlags = true
	flags.Parse(args)

	setupLogging(actionConfig, os.Stderr)

	cmd.AddCommand(
		newProvisionCmd(actionConfig, out),
		newStatusCmd(actionConfig, out),
		newIdentifyCmd(actionConfig, out),
		newEnvCmd(out),
		newVersionCmd(out),
		newCompletionCmd(out),
	)

	return cmd, nil
}

// setupLogging routes every log record to out, with debug records gated on
// the current value of settings.Debug.
func setupLogging(actionConfig *action.Configuration, out io.Writer) {
	handler := logging.NewHandler(out, func() bool { return settings.Debug })
	actionConfig.SetLogger(handler)
	slog.SetDefault(slog.New(handler))
}

func getterOptions() []getter.Option {
	var opts []getter.Option
	if settings.Timeout > 0 {
		opts = append(opts, getter.WithTimeout(settings.Timeout))
	}
	if settings.UserAgent != "" {
		opts = append(opts, getter.WithUserAgent(settings.UserAgent))
	}
	return opts
}
