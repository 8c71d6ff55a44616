//go:build mage

// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"os"
	"os/exec"
	"time"
)

// Postgres container constants.
const (
	pgImage     = "postgres:17-alpine"
	pgContainer = "tally-test-postgres"
	pgPort      = "55432"
	pgPassword  = "tally"
	pgDSN       = "postgres://postgres:" + pgPassword + "@127.0.0.1:" + pgPort + "/postgres?sslmode=disable"
)

// containerRuntime returns "podman" or "docker" if a working runtime
// is available, or "" if neither is usable. It checks both that the
// binary exists on PATH and that it can connect to its daemon/machine.
func containerRuntime() string {
	for _, name := range []string{"podman", "docker"} {
		if _, err := exec.LookPath(name); err != nil {
			continue
		}
		if exec.Command(name, "info").Run() != nil {
			fmt.Fprintf(os.Stderr, "WARNING: %s found on PATH but not usable (is the daemon/machine running?)\n", name)
			continue
		}
		return name
	}
	return ""
}

// startPostgres runs a disposable Postgres container and waits until it
// accepts connections.
func startPostgres(rt string) error {
	stopPostgres(rt)
	fmt.Fprintln(os.Stderr, "Starting Postgres container...")
	cmd := exec.Command(rt, "run", "-d", "--rm",
		"--name", pgContainer,
		"-e", "POSTGRES_PASSWORD="+pgPassword,
		"-p", pgPort+":5432",
		pgImage)
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("starting %s: %w", pgImage, err)
	}

	deadline := time.Now().Add(30 * time.Second)
	for time.Now().Before(deadline) {
		if exec.Command(rt, "exec", pgContainer, "pg_isready", "-U", "postgres").Run() == nil {
			return nil
		}
		time.Sleep(500 * time.Millisecond)
	}
	stopPostgres(rt)
	return fmt.Errorf("postgres container not ready after 30s")
}

// stopPostgres removes the container. Errors are ignored because the
// container may not exist.
func stopPostgres(rt string) {
	_ = exec.Command(rt, "rm", "-f", pgContainer).Run()
}
