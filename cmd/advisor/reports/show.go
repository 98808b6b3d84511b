package reportscmder

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/advisor/pkg/config"
	"github.com/papercomputeco/advisor/pkg/report"
)

type showCommander struct {
	exportDir string
	style     string
	wordWrap  int
}

func newShowCmd() *cobra.Command {
	cmder := &showCommander{}

	cmd := &cobra.Command{
		Use:   "show <number|file>",
		Short: "Render a saved report",
		Long: `Render a saved report as Markdown.

The argument is either the number shown by "advisor reports" (1 is the
newest) or the path to a report file.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd, args[0])
		},
		SilenceUsage: true,
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagExportDir, &cmder.exportDir)
	config.AddStringFlag(cmd, config.Flags, config.FlagStyle, &cmder.style)
	config.AddIntFlag(cmd, config.Flags, config.FlagWordWrap, &cmder.wordWrap)

	return cmd
}

func (c *showCommander) run(cmd *cobra.Command, ref string) error {
	env, _, list, err := summaries(cmd, config.FlagStyle, config.FlagWordWrap)
	if err != nil {
		return err
	}
	defer env.Close()

	path := ref
	if n, err := strconv.Atoi(ref); err == nil {
		if n < 1 || n > len(list) {
			return fmt.Errorf("no report number %d (%d saved)", n, len(list))
		}
		path = list[n-1].Path
	}

	_, body, err := report.Read(path)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	md, _, _, err := env.Markdown(out)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, md.Render(body))
	return nil
}
