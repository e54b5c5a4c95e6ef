// Package fsutil provides the filesystem primitives project creation is
// built from. Every write is logged, and plain writes refuse to clobber
// existing files so a half-finished project is never silently overwritten.
package fsutil

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
)

// Mkdir creates dir and any missing parents, then enforces mode on dir
// itself (MkdirAll alone leaves the mode at the mercy of the umask).
func Mkdir(log *slog.Logger, dir string, mode os.FileMode) error {
	log.Info("creating directory", "path", dir)
	if err := os.MkdirAll(dir, mode); err != nil {
		return fmt.Errorf("failed to create directory %q: %w", dir, err)
	}
	if err := os.Chmod(dir, mode); err != nil {
		return fmt.Errorf("failed to set mode on %q: %w", dir, err)
	}
	return nil
}

// WriteFile writes data to a new file at path with the given mode.
// An existing file (or symlink, or anything else) at path is an error.
func WriteFile(log *slog.Logger, path string, data []byte, mode os.FileMode) error {
	if _, err := os.Lstat(path); err == nil {
		return fmt.Errorf("refusing to overwrite existing file %q", path)
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to stat %q: %w", path, err)
	}
	log.Info("creating file", "path", path)
	if err := os.WriteFile(path, data, mode); err != nil {
		return fmt.Errorf("failed to write %q: %w", path, err)
	}
	// WriteFile applies the umask; chmod enforces the requested mode.
	if err := os.Chmod(path, mode); err != nil {
		return fmt.Errorf("failed to set mode on %q: %w", path, err)
	}
	return nil
}

// CopyDir copies the tree rooted at src inside fsys to dst on disk.
// Directories are created 0755 and files 0644.
func CopyDir(log *slog.Logger, fsys fs.FS, src, dst string) error {
	return fs.WalkDir(fsys, src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return Mkdir(log, target, 0o755)
		}
		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("failed to read %q: %w", path, err)
		}
		return WriteFile(log, target, data, 0o644)
	})
}
