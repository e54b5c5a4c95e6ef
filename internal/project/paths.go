package project

import (
	"errors"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strings"
)

// resolveHome returns the home directory of the invoking user. Under
// sudo, SUDO_USER names the real account, so projects still land in that
// user's home rather than root's.
func resolveHome() (string, error) {
	name := os.Getenv("SUDO_USER")
	if name == "" {
		name = os.Getenv("USER")
	}
	if name == "" {
		return "", errors.New("unable to determine the active user")
	}
	u, err := user.Lookup(name)
	if err != nil {
		return "", fmt.Errorf("failed to look up user %q: %w", name, err)
	}
	return u.HomeDir, nil
}

// resolveProjectDir expands and absolutizes dir and enforces that it
// lives inside home.
func resolveProjectDir(dir, home string) (string, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return "", errors.New("project directory must be provided")
	}
	if dir == "~" {
		dir = home
	} else if strings.HasPrefix(dir, "~/") {
		dir = filepath.Join(home, dir[2:])
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve project directory %q: %w", dir, err)
	}
	if !insideDir(home, abs) {
		return "", fmt.Errorf("project directory is %q. It must be inside the home of the active user %q", abs, home)
	}
	return abs, nil
}

// insideDir reports whether path is dir or one of its descendants. Both
// arguments must be absolute.
func insideDir(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// imgUserHome mirrors where Ubuntu images put account homes.
func imgUserHome(imgUser string) string {
	if imgUser == "root" {
		return "/root"
	}
	return "/home/" + imgUser
}
