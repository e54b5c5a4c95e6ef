package aptget

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strings"
)

var unlocatableRe = regexp.MustCompile(`(?m)^E: Unable to locate package (\S+)$`)

// Installer installs OS packages, dropping the ones the configured apt
// sources cannot locate instead of failing the whole batch.
type Installer struct {
	run Runner
	log *slog.Logger
}

func NewInstaller(log *slog.Logger) *Installer {
	return &Installer{run: cliRunner{}, log: log}
}

// Update refreshes the apt package index.
func (i *Installer) Update(ctx context.Context) error {
	if _, stderr, err := i.run.Run(ctx, "update"); err != nil {
		return fmt.Errorf("apt-get update failed: %w\n%s", err, strings.TrimSpace(stderr))
	}
	return nil
}

// Install dry-runs the requested packages, removes exactly the ones apt
// reports as unlocatable and installs the remainder. It returns the
// skipped package names. A dry-run failure that names no unlocatable
// package is a real error and aborts the install.
func (i *Installer) Install(ctx context.Context, packages []string) ([]string, error) {
	if len(packages) == 0 {
		return nil, nil
	}

	_, stderr, err := i.run.Run(ctx, installArgs("--dry-run", packages)...)

	remaining := packages
	var skipped []string
	if err != nil {
		skipped = ParseUnlocatable(stderr)
		if len(skipped) == 0 {
			return nil, fmt.Errorf("apt-get dry run failed: %w\n%s", err, strings.TrimSpace(stderr))
		}
		for _, pkg := range skipped {
			i.log.Warn("package unavailable, skipping", "package", pkg)
		}
		remaining = exclude(packages, skipped)
	}

	if len(remaining) == 0 {
		i.log.Warn("none of the requested packages are installable", "requested", len(packages))
		return skipped, nil
	}

	if _, stderr, err := i.run.Run(ctx, installArgs("", remaining)...); err != nil {
		return skipped, fmt.Errorf("apt-get install failed: %w\n%s", err, strings.TrimSpace(stderr))
	}
	i.log.Info("installed packages", "installed", len(remaining), "skipped", len(skipped))
	return skipped, nil
}

func installArgs(extra string, packages []string) []string {
	args := []string{"install", "-y", "--no-install-recommends"}
	if extra != "" {
		args = append(args, extra)
	}
	return append(args, packages...)
}

// ParseUnlocatable extracts the package names apt-get could not locate
// from its error output, first occurrence order, deduplicated.
func ParseUnlocatable(stderr string) []string {
	var pkgs []string
	seen := make(map[string]bool)
	for _, m := range unlocatableRe.FindAllStringSubmatch(stderr, -1) {
		if !seen[m[1]] {
			pkgs = append(pkgs, m[1])
			seen[m[1]] = true
		}
	}
	return pkgs
}

// ReadPackagesFile loads a newline-separated package list. Blank lines
// and # comments are ignored.
func ReadPackagesFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read package list %s: %w", path, err)
	}
	var pkgs []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		pkgs = append(pkgs, line)
	}
	return pkgs, nil
}

func exclude(packages, drop []string) []string {
	dropSet := make(map[string]bool, len(drop))
	for _, pkg := range drop {
		dropSet[pkg] = true
	}
	var out []string
	for _, pkg := range packages {
		if !dropSet[pkg] {
			out = append(out, pkg)
		}
	}
	return out
}
