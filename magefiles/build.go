//go:build mage

package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/magefile/mage/sh"
)

type compileParams struct {
	GOOS   string
	GOARCH string
}

func (p *compileParams) populateFromEnv() {
	if p.GOOS == "" {
		p.GOOS = os.Getenv("GOOS")
		if p.GOOS == "" {
			p.GOOS = runtime.GOOS
		}
	}

	if p.GOARCH == "" {
		p.GOARCH = os.Getenv("GOARCH")
		if p.GOARCH == "" {
			p.GOARCH = runtime.GOARCH
		}
	}
}

// Compile builds the amictl binary for the target platform. GOOS and
// GOARCH default to the current system when unset. The binary version
// comes from the most recent git tag.
//
// Example usage:
//
// ```go
// mage compile
// GOOS=linux GOARCH=amd64 mage compile
// ```
//
// **Returns:**
//
// error: An error if any issue occurs during compilation.
func Compile() error {
	var p compileParams
	p.populateFromEnv()

	version, err := sh.Output("git", "describe", "--tags", "--abbrev=0")
	if err != nil || version == "" {
		version = "dev"
	}

	fmt.Printf("Compiling the amictl binary for %s/%s, please wait.\n", p.GOOS, p.GOARCH)

	env := map[string]string{
		"GOOS":   p.GOOS,
		"GOARCH": p.GOARCH,
	}
	ldflags := fmt.Sprintf("-s -w -X main.version=%s", version)
	if err := sh.RunWithV(env, "go", "build",
		"-ldflags", ldflags,
		"-o", "amictl",
		"./cmd/amictl"); err != nil {
		return fmt.Errorf("failed to compile amictl: %v", err)
	}

	return nil
}

// RunTests executes all unit tests.
//
// Example usage:
//
// ```go
// mage runtests
// ```
//
// **Returns:**
//
// error: An error if any issue occurs while running the tests.
func RunTests() error {
	fmt.Println("Running unit tests.")
	if err := sh.RunV("go", "test", "-race", "./..."); err != nil {
		return fmt.Errorf("failed to run unit tests: %v", err)
	}
	return nil
}
