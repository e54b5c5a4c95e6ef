package identity

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"
)

// Handoff replaces the current process with argv running as the
// reconciled identity. An empty argv falls back to an interactive shell.
// When the user's home contains a non-empty environment.sh, the command
// is wrapped so the file is sourced first. Handoff only returns on error.
func (r *Reconciler) Handoff(res *Result, argv []string) error {
	if len(argv) == 0 {
		argv = []string{defaultCommand}
	}

	if r.geteuid() == 0 && res.User.UID != 0 {
		if err := unix.Setgroups(res.Groups); err != nil {
			return fmt.Errorf("failed to set supplementary groups: %w", err)
		}
		if err := unix.Setgid(res.User.GID); err != nil {
			return fmt.Errorf("failed to switch to gid %d: %w", res.User.GID, err)
		}
		if err := unix.Setuid(res.User.UID); err != nil {
			return fmt.Errorf("failed to switch to uid %d: %w", res.User.UID, err)
		}
	}

	envFile := filepath.Join(res.User.Home, "environment.sh")
	argv = wrapWithEnvFile(argv, envFile, nonEmptyFile(filepath.Join(r.root, res.User.Home, "environment.sh")))

	path, err := exec.LookPath(argv[0])
	if err != nil {
		return fmt.Errorf("command %q not found: %w", argv[0], err)
	}

	r.log.Debug("handing off", "command", strings.Join(argv, " "), "uid", res.User.UID, "gid", res.User.GID)
	return unix.Exec(path, argv, buildEnv(os.Environ(), res.User))
}

// wrapWithEnvFile rewrites argv so envFile is sourced in a login-like
// shell before the real command replaces it.
func wrapWithEnvFile(argv []string, envFile string, haveEnvFile bool) []string {
	if !haveEnvFile {
		return argv
	}
	script := fmt.Sprintf(". %s && exec \"$@\"", shellQuote(envFile))
	return append([]string{"/bin/bash", "-c", script, "--"}, argv...)
}

// buildEnv overlays the user's identity variables on the inherited
// environment.
func buildEnv(base []string, user UserEntry) []string {
	shell := user.Shell
	if shell == "" {
		shell = defaultCommand
	}
	env := setEnv(base, "HOME", user.Home)
	env = setEnv(env, "USER", user.Name)
	env = setEnv(env, "LOGNAME", user.Name)
	env = setEnv(env, "SHELL", shell)
	return env
}

func setEnv(env []string, key, value string) []string {
	prefix := key + "="
	for i, kv := range env {
		if strings.HasPrefix(kv, prefix) {
			env[i] = prefix + value
			return env
		}
	}
	return append(env, prefix+value)
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func nonEmptyFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular() && info.Size() > 0
}
