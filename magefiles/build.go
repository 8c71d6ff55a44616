//go:build mage

// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package main provides build targets for tally using Mage.
//
// Usage:
//
//	mage build          Compile the tally binary to bin/
//	mage test:all       Run all tests
//	mage test:unit      Run tests in short mode
//	mage test:race      Run all tests with the race detector
//	mage test:postgres  Run storage tests against a throwaway Postgres container
//	mage lint           Run golangci-lint
//	mage clean          Remove build artifacts
//	mage install        Install tally to GOPATH/bin
//	mage stats          Print Go LOC and documentation word counts
package main

import (
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binGo      = "go"
	binaryName = "tally"
	binaryDir  = "bin"
	cmdDir     = "./cmd/tally"
	modulePath = "github.com/mesh-intelligence/tally"
)

// ldflags stamps the version from $TALLY_VERSION when set.
func ldflags() string {
	v := os.Getenv("TALLY_VERSION")
	if v == "" {
		return ""
	}
	return "-X " + modulePath + "/internal/cli.Version=" + v
}

// Build compiles the tally binary to bin/.
func Build() error {
	if err := os.MkdirAll(binaryDir, 0o755); err != nil {
		return err
	}
	return sh.RunV(binGo, "build", "-v", "-ldflags", ldflags(), "-o", filepath.Join(binaryDir, binaryName), cmdDir)
}

// Clean removes build artifacts.
func Clean() error {
	if err := os.RemoveAll(binaryDir); err != nil {
		return err
	}
	return sh.RunV(binGo, "clean")
}

// Install builds and copies the binary to GOPATH/bin.
func Install() error {
	mg.Deps(Build)
	gopath, err := sh.Output(binGo, "env", "GOPATH")
	if err != nil {
		return err
	}
	src := filepath.Join(binaryDir, binaryName)
	dst := filepath.Join(gopath, "bin", binaryName)
	return sh.Copy(dst, src)
}
