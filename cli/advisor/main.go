package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	advisorcmder "github.com/papercomputeco/advisor/cmd/advisor"
	"github.com/papercomputeco/advisor/cmd/advisor/setup"
	"github.com/papercomputeco/advisor/pkg/cliui"
)

func main() {
	cmd := advisorcmder.NewAdvisorCmd()
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, context.Canceled) && !setup.IsReported(err) {
			fmt.Fprintf(os.Stderr, "%s %s\n", cliui.FailMark, cliui.ErrorStyle.Render(setup.Message(err)))
		}
		os.Exit(1)
	}
}
