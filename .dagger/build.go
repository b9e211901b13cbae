package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"dagger/memvault/internal/dagger"
)

// Build returns a directory of memvault binaries, one per platform.
func (m *Memvault) Build(
	ctx context.Context,

	// Linker flags for go build
	// +optional
	// +default="-s -w"
	ldflags string,
) *dagger.Directory {
	platforms := []struct{ goos, goarch string }{
		{"linux", "amd64"},
		{"linux", "arm64"},
		{"darwin", "amd64"},
		{"darwin", "arm64"},
	}

	outputs := dag.Directory()

	golang := dag.Container().
		From("golang:1.25-alpine").
		WithEnvVariable("CGO_ENABLED", "0").
		WithMountedCache("/go/pkg/mod", dag.CacheVolume("go-mod")).
		WithMountedCache("/root/.cache/go-build", dag.CacheVolume("go-build")).
		WithDirectory("/src", m.Source).
		WithWorkdir("/src")

	for _, p := range platforms {
		path := fmt.Sprintf("%s/%s/", p.goos, p.goarch)

		build := golang.
			WithEnvVariable("GOOS", p.goos).
			WithEnvVariable("GOARCH", p.goarch).
			WithExec([]string{"go", "build", "-ldflags", ldflags, "-o", path, "./cli/memvault"})

		outputs = outputs.WithDirectory(path, build.Directory(path))
	}

	return outputs
}

// BuildRelease compiles release binaries stamped with version info.
func (m *Memvault) BuildRelease(
	ctx context.Context,

	// Version string of build
	version string,

	// Git commit SHA of build
	commit string,
) *dagger.Directory {
	ldflags := []string{
		"-s",
		"-w",
		fmt.Sprintf("-X 'github.com/papercomputeco/memvault/pkg/utils.Version=%s'", version),
		fmt.Sprintf("-X 'github.com/papercomputeco/memvault/pkg/utils.Sha=%s'", commit),
		fmt.Sprintf("-X 'github.com/papercomputeco/memvault/pkg/utils.Buildtime=%s'", time.Now().UTC().Format(time.RFC3339)),
	}

	return m.Build(ctx, strings.Join(ldflags, " "))
}
