//go:build mage

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/integralist/go-findroot/find"
	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
	"github.com/mholt/archiver"
	"github.com/pkg/errors"
	"github.com/wrouesnel/mailpreview/version"
)

const binDir = "bin"
const releaseDir = "release"

//nolint:gochecknoglobals
var platforms = []struct{ OS, Arch string }{
	{"linux", "amd64"},
	{"linux", "arm64"},
	{"darwin", "arm64"},
	{"windows", "amd64"},
}

// repoRoot changes into the repository root so targets work from any subdirectory.
func repoRoot() error {
	root, err := find.Repo()
	if err != nil {
		return errors.Wrap(err, "finding repository root")
	}
	return os.Chdir(root.Path)
}

func versionString() string {
	if v := os.Getenv("VERSION"); v != "" {
		return v
	}
	out, err := sh.Output("git", "describe", "--tags", "--dirty", "--always")
	if err != nil {
		return "development"
	}
	return out
}

func build(goos, goarch, output string) error {
	ldflags := fmt.Sprintf("-s -w -X github.com/wrouesnel/mailpreview/version.Version=%s", versionString())
	env := map[string]string{"GOOS": goos, "GOARCH": goarch, "CGO_ENABLED": "0"}
	return sh.RunWithV(env, "go", "build", "-trimpath", "-ldflags", ldflags, "-o", output, "./cmd/mailpreview")
}

func binaryName(goos string) string {
	if goos == "windows" {
		return version.Name + ".exe"
	}
	return version.Name
}

// Build builds the binary for the host platform.
func Build() error {
	if err := repoRoot(); err != nil {
		return err
	}
	return build(runtime.GOOS, runtime.GOARCH, filepath.Join(binDir, binaryName(runtime.GOOS)))
}

// Test runs the test suite.
func Test() error {
	if err := repoRoot(); err != nil {
		return err
	}
	return sh.RunV("go", "test", "-race", "./...")
}

// Release cross-compiles and archives a binary per platform.
func Release() error {
	mg.Deps(Test)
	if err := repoRoot(); err != nil {
		return err
	}
	if err := os.MkdirAll(releaseDir, 0o755); err != nil {
		return err
	}

	for _, p := range platforms {
		name := fmt.Sprintf("%s_%s_%s", version.Name, p.OS, p.Arch)
		output := filepath.Join(binDir, name, binaryName(p.OS))
		if err := build(p.OS, p.Arch, output); err != nil {
			return errors.Wrapf(err, "building %s", name)
		}
		archive := filepath.Join(releaseDir, name+".tar.gz")
		_ = os.Remove(archive)
		if err := archiver.Archive([]string{filepath.Dir(output)}, archive); err != nil {
			return errors.Wrapf(err, "archiving %s", name)
		}
		fmt.Println("Wrote", archive)
	}
	return nil
}

// Clean removes build outputs.
func Clean() error {
	if err := repoRoot(); err != nil {
		return err
	}
	for _, dir := range []string{binDir, releaseDir} {
		if err := sh.Rm(dir); err != nil {
			return err
		}
	}
	return nil
}
