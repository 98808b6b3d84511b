// Package reportscmder provides the reports command for browsing exported
// admission reports.
package reportscmder

import (
	"github.com/spf13/cobra"

	"github.com/papercomputeco/advisor/cmd/advisor/setup"
	"github.com/papercomputeco/advisor/pkg/config"
	"github.com/papercomputeco/advisor/pkg/report"
)

const reportsLongDesc string = `Browse exported admission reports.

Reports saved with "advisor ask --save" are written to export.dir, or to
reports/ inside the .advisor/ directory when it is not set.

Examples:
  advisor reports                List saved reports, newest first
  advisor reports show 1         Render the newest report
  advisor reports show ./mine.md Render a report file`

const reportsShortDesc string = "Browse exported admission reports"

func NewReportsCmd() *cobra.Command {
	// Without a subcommand, reports behaves like "reports list".
	cmd := newListCmd()
	cmd.Use = "reports"
	cmd.Short = reportsShortDesc
	cmd.Long = reportsLongDesc

	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newShowCmd())

	return cmd
}

// summaries loads the environment and lists the reports in the export
// directory. flagKeys names extra registry flags the command binds.
func summaries(cmd *cobra.Command, flagKeys ...string) (*setup.Env, string, []report.Summary, error) {
	env, err := setup.Load(cmd, append([]string{config.FlagExportDir}, flagKeys...)...)
	if err != nil {
		return nil, "", nil, err
	}

	dir, err := env.ReportsDir()
	if err != nil {
		env.Close()
		return nil, "", nil, err
	}

	list, err := report.List(dir)
	if err != nil {
		env.Close()
		return nil, "", nil, err
	}

	return env, dir, list, nil
}
