// Package aptget drives apt-get with a dry-run-first strategy so that
// package lists shared across ROS distros survive packages that a
// particular release does not carry.
package aptget

import (
	"bytes"
	"context"
	"os"
	"os/exec"
)

// Runner executes apt-get with the given arguments.
type Runner interface {
	Run(ctx context.Context, args ...string) (stdout, stderr string, err error)
}

type cliRunner struct{}

func (cliRunner) Run(ctx context.Context, args ...string) (string, string, error) {
	cmd := exec.CommandContext(ctx, "apt-get", args...)
	cmd.Env = append(os.Environ(), "DEBIAN_FRONTEND=noninteractive")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}
