package project

import (
	"errors"
	"fmt"
	"os"
)

// preflight runs every environment check before the first file is
// written, so a failure cannot leave a half-created project behind.
func (c *Creator) preflight() error {
	if _, err := os.Stat(c.dir); err == nil {
		return fmt.Errorf("project dir %q already exists. Remove it manually or choose a different project directory", c.dir)
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to check project dir %q: %w", c.dir, err)
	}

	if _, err := c.lookPath("git"); err != nil {
		return errors.New("Git binary not found in the system")
	}
	if c.req.PreCommit {
		if _, err := c.lookPath("pre-commit"); err != nil {
			return errors.New("pre-commit binary not found in the system")
		}
	}
	return nil
}
