// Package verifycmder provides the verify command for checking and storing
// an invitation code.
package verifycmder

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/advisor/cmd/advisor/setup"
	"github.com/papercomputeco/advisor/pkg/advisor"
	"github.com/papercomputeco/advisor/pkg/cliui"
	"github.com/papercomputeco/advisor/pkg/config"
)

const verifyLongDesc string = `Verify an invitation code and remember it.

The code is checked against the advisor backend and, once accepted, stored
as auth.invitation_code in config.toml in the .advisor/ directory so later
"advisor ask" and "advisor chat" runs do not prompt for it.

The code is read from the argument, from the first line of stdin when it is
piped, or from a hidden prompt.

Examples:
  advisor verify                    Prompt for the invitation code
  advisor verify GAOKAO2025         Verify and store a code
  echo $CODE | advisor verify       Pipe the code from stdin
  advisor verify --no-save ABC123   Verify without storing
  advisor verify --forget           Remove the stored code`

const verifyShortDesc string = "Verify and store an invitation code"

type verifyCommander struct {
	server string
	noSave bool
	forget bool
}

func NewVerifyCmd() *cobra.Command {
	cmder := &verifyCommander{}

	cmd := &cobra.Command{
		Use:   "verify [code]",
		Short: verifyShortDesc,
		Long:  verifyLongDesc,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmder.forget {
				return cmder.runForget(cmd)
			}
			return cmder.run(cmd, args)
		},
		SilenceUsage: true,
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagServer, &cmder.server)
	cmd.Flags().BoolVar(&cmder.noSave, "no-save", false, "Verify the code without storing it")
	cmd.Flags().BoolVar(&cmder.forget, "forget", false, "Remove the stored invitation code")

	return cmd
}

func (c *verifyCommander) run(cmd *cobra.Command, args []string) error {
	env, err := setup.Load(cmd, config.FlagServer)
	if err != nil {
		return err
	}
	defer env.Close()

	code, err := readCode(cmd, args)
	if err != nil {
		return err
	}

	code = strings.TrimSpace(code)
	if code == "" {
		return advisor.ErrEmptyCode
	}

	out := cmd.OutOrStdout()
	err = cliui.Step(cmd.ErrOrStderr(), "验证邀请码", func() error {
		return env.Client.VerifyCode(cmd.Context(), code)
	})
	if err != nil {
		return errors.New(setup.Describe(err))
	}

	if c.noSave {
		fmt.Fprintf(out, "\n  %s 邀请码有效\n\n", cliui.SuccessMark)
		return nil
	}

	cfger, err := config.NewConfiger(env.ConfigDir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfger.SetConfigValue("auth.invitation_code", code); err != nil {
		return err
	}

	fmt.Fprintf(out, "\n  %s 邀请码有效，已保存 %s\n\n",
		cliui.SuccessMark,
		cliui.DimStyle.Render("("+cfger.GetTarget()+")"),
	)
	return nil
}

func (c *verifyCommander) runForget(cmd *cobra.Command) error {
	configDir, _ := cmd.Flags().GetString("config-dir")

	cfger, err := config.NewConfiger(configDir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfger.SetConfigValue("auth.invitation_code", ""); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "\n  %s 已删除保存的邀请码\n\n", cliui.SuccessMark)
	return nil
}

// readCode returns the code from args, the first line of piped stdin, or a
// hidden terminal prompt.
func readCode(cmd *cobra.Command, args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}

	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && cliui.IsTerminal(f) {
		return cliui.ReadSecret(f, cmd.ErrOrStderr(), "请输入邀请码: ")
	}

	scanner := bufio.NewScanner(in)
	if scanner.Scan() {
		return scanner.Text(), nil
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("reading stdin: %w", err)
	}
	return "", errors.New("no invitation code received on stdin")
}
