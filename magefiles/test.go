//go:build mage

// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Test groups test targets.
type Test mg.Namespace

// All runs every test.
func (Test) All() error {
	return sh.RunV(binGo, "test", "-v", "./...")
}

// Unit runs tests in short mode.
func (Test) Unit() error {
	return sh.RunV(binGo, "test", "-short", "./...")
}

// Race runs every test with the race detector.
func (Test) Race() error {
	return sh.RunV(binGo, "test", "-race", "./...")
}

// Postgres runs the storage tests against a throwaway Postgres container.
func (Test) Postgres() error {
	rt := containerRuntime()
	if rt == "" {
		return fmt.Errorf("no container runtime found (tried podman, docker)")
	}
	if err := startPostgres(rt); err != nil {
		return err
	}
	defer stopPostgres(rt)

	env := map[string]string{"TALLY_TEST_POSTGRES_DSN": pgDSN}
	return sh.RunWithV(env, binGo, "test", "-v", "-count=1", "-run", "Postgres", "./internal/storage/...")
}
