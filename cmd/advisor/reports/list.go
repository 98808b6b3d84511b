package reportscmder

import (
	"fmt"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/advisor/pkg/config"
	"github.com/papercomputeco/advisor/pkg/utils"
)

type listCommander struct {
	exportDir string
}

func newListCmd() *cobra.Command {
	cmder := &listCommander{}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List saved reports, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd)
		},
		SilenceUsage: true,
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagExportDir, &cmder.exportDir)

	return cmd
}

func (c *listCommander) run(cmd *cobra.Command) error {
	env, dir, list, err := summaries(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	out := cmd.OutOrStdout()
	if len(list) == 0 {
		fmt.Fprintf(out, "No reports in %s. Save one with: advisor ask --save ...\n", dir)
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "#\tCREATED\tPROVINCE\tRANK\tSTREAM\tFILE")
	for i, s := range list {
		created := "-"
		if !s.CreatedAt.IsZero() {
			created = s.CreatedAt.Local().Format("2006-01-02 15:04")
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
			i+1,
			created,
			orDash(s.Province),
			orDash(utils.Truncate(s.Rank, 12)),
			orDash(s.Stream),
			filepath.Base(s.Path),
		)
	}
	return w.Flush()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
