// Package identity reconciles a container's image user with an external
// uid/gid pair. It rewrites /etc/passwd and /etc/group directly, fixes
// home-directory ownership, grants access to render devices and finally
// hands execution off to the requested command under the new identity.
package identity

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	// MinExternalID is the lowest uid/gid accepted from the environment.
	// Everything below is reserved for system accounts.
	MinExternalID = 1000

	// colliderUIDFloor is where accounts displaced from a requested uid
	// are renumbered to.
	colliderUIDFloor = 2000

	// defaultCommand runs when the container is started without one.
	defaultCommand = "/bin/bash"
)

var (
	ErrPartialPair    = errors.New("EXT_UID and EXT_UPGID must be supplied together")
	ErrReservedID     = errors.New("ids below 1000 are reserved for system accounts")
	ErrNotRoot        = errors.New("renumbering accounts requires root")
	ErrUnknownUser    = errors.New("image user not found")
	ErrNoPrimaryGroup = errors.New("primary group not found")
)

// UserEntry is one /etc/passwd record.
type UserEntry struct {
	Name   string
	Passwd string
	UID    int
	GID    int
	Gecos  string
	Home   string
	Shell  string
}

// GroupEntry is one /etc/group record.
type GroupEntry struct {
	Name    string
	Passwd  string
	GID     int
	Members []string
}

func parseUserEntry(fields []string) (*UserEntry, error) {
	if len(fields) != 7 {
		return nil, fmt.Errorf("expected 7 fields, got %d", len(fields))
	}
	uid, err := strconv.Atoi(fields[2])
	if err != nil {
		return nil, fmt.Errorf("invalid uid %q: %w", fields[2], err)
	}
	gid, err := strconv.Atoi(fields[3])
	if err != nil {
		return nil, fmt.Errorf("invalid gid %q: %w", fields[3], err)
	}
	return &UserEntry{
		Name:   fields[0],
		Passwd: fields[1],
		UID:    uid,
		GID:    gid,
		Gecos:  fields[4],
		Home:   fields[5],
		Shell:  fields[6],
	}, nil
}

func formatUserEntry(e *UserEntry) string {
	return fmt.Sprintf("%s:%s:%d:%d:%s:%s:%s", e.Name, e.Passwd, e.UID, e.GID, e.Gecos, e.Home, e.Shell)
}

func parseGroupEntry(fields []string) (*GroupEntry, error) {
	if len(fields) != 4 {
		return nil, fmt.Errorf("expected 4 fields, got %d", len(fields))
	}
	gid, err := strconv.Atoi(fields[2])
	if err != nil {
		return nil, fmt.Errorf("invalid gid %q: %w", fields[2], err)
	}
	var members []string
	if fields[3] != "" {
		members = strings.Split(fields[3], ",")
	}
	return &GroupEntry{
		Name:    fields[0],
		Passwd:  fields[1],
		GID:     gid,
		Members: members,
	}, nil
}

func formatGroupEntry(e *GroupEntry) string {
	return fmt.Sprintf("%s:%s:%d:%s", e.Name, e.Passwd, e.GID, strings.Join(e.Members, ","))
}
