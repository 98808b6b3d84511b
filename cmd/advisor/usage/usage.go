// Package usagecmder provides the usage command, which shows today's quota.
package usagecmder

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/advisor/cmd/advisor/setup"
	"github.com/papercomputeco/advisor/pkg/cliui"
	"github.com/papercomputeco/advisor/pkg/config"
)

const usageLongDesc string = `Show today's usage quota.

Asks the advisor backend how many reports have been generated today and
how many are allowed. The quota is shared by every student using the same
backend.

Examples:
  advisor usage
  advisor usage --json`

const usageShortDesc string = "Show today's usage quota"

type usageCommander struct {
	server string
	asJSON bool
}

func NewUsageCmd() *cobra.Command {
	cmder := &usageCommander{}

	cmd := &cobra.Command{
		Use:   "usage",
		Short: usageShortDesc,
		Long:  usageLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd)
		},
		SilenceUsage: true,
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagServer, &cmder.server)
	cmd.Flags().BoolVar(&cmder.asJSON, "json", false, "Print the quota as JSON")

	return cmd
}

func (c *usageCommander) run(cmd *cobra.Command) error {
	env, err := setup.Load(cmd, config.FlagServer)
	if err != nil {
		return err
	}
	defer env.Close()

	s, err := env.Client.Usage(cmd.Context())
	if err != nil {
		return fmt.Errorf("%s: %w", "今日用量: 未知", err)
	}

	out := cmd.OutOrStdout()
	if c.asJSON {
		return json.NewEncoder(out).Encode(s)
	}

	mark := cliui.SuccessMark
	if s.Exhausted() {
		mark = cliui.FailMark
	}
	fmt.Fprintf(out, "\n  %s %s\n\n",
		cliui.HeaderStyle.Render("Usage"),
		cliui.DimStyle.Render(env.Client.BaseURL()),
	)
	fmt.Fprintf(out, "  %s %s %s\n",
		mark,
		cliui.ValueStyle.Render(s.String()),
		cliui.DimStyle.Render(fmt.Sprintf("(剩余 %d 次)", s.Remaining())),
	)
	if s.Exhausted() {
		fmt.Fprintf(out, "  %s\n", cliui.WarnStyle.Render(setup.QuotaMessage))
	}
	fmt.Fprintln(out)

	return nil
}
