// Package version reports which audiopen build is running. Release builds
// stamp the variables with -ldflags; other builds fall back to the VCS
// settings the Go toolchain embeds:
//
//	go build -ldflags "-X github.com/kbukum/audiopen/version.Version=1.4.0 \
//	  -X github.com/kbukum/audiopen/version.Commit=$(git rev-parse --short HEAD)" ./cmd/audiopen
package version
