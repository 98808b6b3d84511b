// Package advisorcmder
package advisorcmder

import (
	"github.com/spf13/cobra"

	askcmder "github.com/papercomputeco/advisor/cmd/advisor/ask"
	chatcmder "github.com/papercomputeco/advisor/cmd/advisor/chat"
	configcmder "github.com/papercomputeco/advisor/cmd/advisor/config"
	reportscmder "github.com/papercomputeco/advisor/cmd/advisor/reports"
	usagecmder "github.com/papercomputeco/advisor/cmd/advisor/usage"
	verifycmder "github.com/papercomputeco/advisor/cmd/advisor/verify"
	versioncmder "github.com/papercomputeco/advisor/cmd/advisor/version"
)

const advisorLongDesc string = `Advisor is a terminal client for the gaokao admission advisor.

It sends a student's province, rank and questions to the advisor backend
and renders the streamed report: the model's thinking live, then the
Markdown answer.

Get started:
  advisor verify                 Check and store your invitation code
  advisor ask -p 广东 -r 12000 --stream 物理类 "冲中大还是稳华工？"
  advisor chat -p 广东 -r 12000 --stream 物理类
  advisor usage                  Show today's quota`

const advisorShortDesc string = "Advisor - gaokao admission reports in the terminal"

func NewAdvisorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "advisor",
		Short:         advisorShortDesc,
		Long:          advisorLongDesc,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override path to .advisor/ config directory")
	cmd.PersistentFlags().String("log-file", "", "Also write JSON debug logs to this file")

	// Add subcommands
	cmd.AddCommand(askcmder.NewAskCmd())
	cmd.AddCommand(chatcmder.NewChatCmd())
	cmd.AddCommand(usagecmder.NewUsageCmd())
	cmd.AddCommand(verifycmder.NewVerifyCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(reportscmder.NewReportsCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
