package main

import (
	"context"
	"errors"
	"fmt"

	"dagger/advisor/internal/dagger"
)

// CheckGoModTidy fails when "go mod tidy" would change go.mod or go.sum.
//
// +check
func (a *Advisor) CheckGoModTidy(ctx context.Context) (string, error) {
	out, err := a.goContainer().
		WithExec([]string{"cp", "go.mod", "/tmp/go.mod"}).
		WithExec([]string{"cp", "go.sum", "/tmp/go.sum"}).
		WithExec([]string{"go", "mod", "tidy"}).
		WithExec([]string{"sh", "-c", "diff -u /tmp/go.mod go.mod && diff -u /tmp/go.sum go.sum"}).
		Stdout(ctx)

	return checkResult("go.mod and go.sum are tidy", "run 'go mod tidy' and commit the changes", out, err)
}

// CheckVet runs "go vet" over every package.
//
// +check
func (a *Advisor) CheckVet(ctx context.Context) (string, error) {
	out, err := a.goContainer().
		WithExec([]string{"go", "vet", "./..."}).
		Stdout(ctx)

	return checkResult("go vet passed", "fix the reported problems", out, err)
}

// checkResult turns the outcome of a check container into a message. A
// failed exec carries its output in the returned error.
func checkResult(ok, hint, out string, err error) (string, error) {
	var e *dagger.ExecError
	switch {
	case errors.As(err, &e):
		return "", fmt.Errorf("%s\n\n%s%s", hint, e.Stdout, e.Stderr)
	case err != nil:
		return "", fmt.Errorf("unexpected error: %w", err)
	}
	return fmt.Sprintf("%s: %s", ok, out), nil
}
