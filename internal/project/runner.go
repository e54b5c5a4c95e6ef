package project

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// Default timeout for git and pre-commit commands. pre-commit downloads
// hook environments on first install, which can take a while.
const defaultCommandTimeout = 120 * time.Second

// Runner executes an external command in a working directory and
// returns its trimmed standard output.
type Runner interface {
	Run(dir, name string, args ...string) (string, error)
}

type execRunner struct {
	timeout time.Duration
}

func (r execRunner) Run(dir, name string, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	out, err := cmd.Output()

	if ctx.Err() == context.DeadlineExceeded {
		return "", fmt.Errorf("command %s timed out after %v", name, r.timeout)
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", fmt.Errorf("command %s failed: %w\n%s", name, err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", fmt.Errorf("command %s failed: %w", name, err)
	}
	return strings.TrimSpace(string(out)), nil
}
