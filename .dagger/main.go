// memvault CI/CD
//
// Package main runs the memvault tests, lint and builds in containers, the
// same way locally and in GitHub actions.
package main

import (
	"context"

	"dagger/memvault/internal/dagger"
)

// Memvault is the CI/CD module for memvault.
type Memvault struct {
	// Project source directory
	//
	// +private
	Source *dagger.Directory
}

func New(
	// Project source directory.
	//
	// +defaultPath="/"
	// +ignore=[".git", "build", "tmp", "backups", ".memvault"]
	source *dagger.Directory,
) *Memvault {
	return &Memvault{
		Source: source,
	}
}

// goContainer returns a Go container with git installed and the project
// source mounted. The backup tests drive a real git binary.
func (m *Memvault) goContainer() *dagger.Container {
	return dag.Container().
		From("golang:1.25-bookworm").
		WithExec([]string{"apt-get", "update"}).
		WithExec([]string{"apt-get", "install", "-y", "git"}).
		WithExec([]string{"git", "config", "--global", "user.email", "ci@memvault.dev"}).
		WithExec([]string{"git", "config", "--global", "user.name", "memvault ci"}).
		WithEnvVariable("CGO_ENABLED", "0").
		WithEnvVariable("PATH", "/go/bin:$PATH", dagger.ContainerWithEnvVariableOpts{Expand: true}).
		WithMountedCache("/go/pkg/mod", dag.CacheVolume("go-mod")).
		WithMountedCache("/root/.cache/go-build", dag.CacheVolume("go-build")).
		WithWorkdir("/src").
		WithDirectory("/src", m.Source)
}

// Test runs the unit tests.
//
// +check
func (m *Memvault) Test(ctx context.Context) (string, error) {
	return m.goContainer().
		WithExec([]string{"go", "test", "./..."}).
		Stdout(ctx)
}
