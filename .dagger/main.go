// Advisor CI/CD
//
// Package main provides reproducible builds and tests locally and in GitHub actions.
package main

import (
	"context"

	"dagger/advisor/internal/dagger"
)

// Advisor is the main module for the advisor CI/CD pipeline
type Advisor struct {
	// Project source directory
	//
	// +private
	Source *dagger.Directory
}

// New creates a new Advisor CI/CD module instance
func New(
	// Project source directory.
	//
	// +defaultPath="/"
	// +ignore=[".git", ".direnv", "build", "tmp", ".advisor"]
	source *dagger.Directory,
) *Advisor {
	return &Advisor{
		Source: source,
	}
}

// goContainer returns an Alpine-based Go container with the project source
// mounted and module and build caches attached. The advisor builds without
// CGO.
func (a *Advisor) goContainer() *dagger.Container {
	return dag.Container().
		From("golang:1.25-alpine").
		WithEnvVariable("CGO_ENABLED", "0").
		WithMountedCache("/go/pkg/mod", dag.CacheVolume("go-mod")).
		WithMountedCache("/root/.cache/go-build", dag.CacheVolume("go-build")).
		WithWorkdir("/src").
		WithDirectory("/src", a.Source)
}

// Test runs the advisor unit tests via "go test"
//
// +check
func (a *Advisor) Test(ctx context.Context) (string, error) {
	return a.goContainer().
		WithExec([]string{"go", "test", "-v", "./..."}).
		Stdout(ctx)
}
