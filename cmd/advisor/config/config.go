// Package configcmder provides the config command for managing persistent
// advisor configuration stored in the .advisor/ directory.
package configcmder

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/advisor/pkg/config"
)

const configLongDesc string = `Manage persistent advisor configuration.

Configuration is stored as config.toml in the .advisor/ directory and
provides default values for command flags. CLI flags and ADVISOR_*
environment variables always take precedence over config file values.

Keys use dotted notation matching the TOML section structure:
  server.url, auth.invitation_code,
  render.debounce_ms, render.word_wrap, render.style, render.show_thinking,
  export.dir

Use subcommands to get, set, or list configuration values:
  advisor config set <key> <value>    Set a configuration value
  advisor config get <key>            Get a configuration value
  advisor config list                 List all configuration values

Examples:
  advisor config set server.url https://gaokao.example.com
  advisor config set render.style light
  advisor config get render.debounce_ms
  advisor config list`

const configShortDesc string = "Manage persistent advisor configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}

func completeKeys(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return config.ValidConfigKeys(), cobra.ShellCompDirectiveNoFileComp
	}
	return nil, cobra.ShellCompDirectiveNoFileComp
}

func checkKey(key string) error {
	if !config.IsValidConfigKey(key) {
		return fmt.Errorf("unknown config key: %q\n\nValid keys: %s",
			key, strings.Join(config.ValidConfigKeys(), ", "))
	}
	return nil
}
