package identity

import (
	"fmt"
	"path/filepath"
	"slices"
)

// DB is an in-memory view of a root filesystem's passwd and group files.
// Mutations are tracked and only flushed to disk by Save when something
// actually changed.
type DB struct {
	users  *dbFile[UserEntry]
	groups *dbFile[GroupEntry]
	dirty  bool
}

// Open loads the account databases under root, normally "/".
func Open(root string) (*DB, error) {
	users, err := loadDBFile(filepath.Join(root, "etc", "passwd"), parseUserEntry, formatUserEntry)
	if err != nil {
		return nil, err
	}
	groups, err := loadDBFile(filepath.Join(root, "etc", "group"), parseGroupEntry, formatGroupEntry)
	if err != nil {
		return nil, err
	}
	return &DB{users: users, groups: groups}, nil
}

func (db *DB) User(name string) *UserEntry {
	for _, u := range db.users.entries() {
		if u.Name == name {
			return u
		}
	}
	return nil
}

func (db *DB) UserByUID(uid int) *UserEntry {
	for _, u := range db.users.entries() {
		if u.UID == uid {
			return u
		}
	}
	return nil
}

func (db *DB) Group(name string) *GroupEntry {
	for _, g := range db.groups.entries() {
		if g.Name == name {
			return g
		}
	}
	return nil
}

func (db *DB) GroupByGID(gid int) *GroupEntry {
	for _, g := range db.groups.entries() {
		if g.GID == gid {
			return g
		}
	}
	return nil
}

// NextFreeUID returns the lowest uid at or above floor that no account
// currently holds.
func (db *DB) NextFreeUID(floor int) int {
	taken := make(map[int]bool)
	for _, u := range db.users.entries() {
		taken[u.UID] = true
	}
	uid := floor
	for taken[uid] {
		uid++
	}
	return uid
}

func (db *DB) SetUserUID(name string, uid int) error {
	u := db.User(name)
	if u == nil {
		return fmt.Errorf("user %q not found", name)
	}
	if u.UID == uid {
		return nil
	}
	if other := db.UserByUID(uid); other != nil {
		return fmt.Errorf("uid %d already belongs to %q", uid, other.Name)
	}
	u.UID = uid
	db.dirty = true
	return nil
}

func (db *DB) SetUserGID(name string, gid int) error {
	u := db.User(name)
	if u == nil {
		return fmt.Errorf("user %q not found", name)
	}
	if u.GID == gid {
		return nil
	}
	u.GID = gid
	db.dirty = true
	return nil
}

func (db *DB) SetGroupGID(name string, gid int) error {
	g := db.Group(name)
	if g == nil {
		return fmt.Errorf("group %q not found", name)
	}
	if g.GID == gid {
		return nil
	}
	if other := db.GroupByGID(gid); other != nil {
		return fmt.Errorf("gid %d already belongs to group %q", gid, other.Name)
	}
	g.GID = gid
	db.dirty = true
	return nil
}

func (db *DB) RenameGroup(oldName, newName string) error {
	if db.Group(newName) != nil {
		return fmt.Errorf("group %q already exists", newName)
	}
	g := db.Group(oldName)
	if g == nil {
		return fmt.Errorf("group %q not found", oldName)
	}
	g.Name = newName
	db.dirty = true
	return nil
}

func (db *DB) AddGroup(name string, gid int) error {
	if db.Group(name) != nil {
		return fmt.Errorf("group %q already exists", name)
	}
	if other := db.GroupByGID(gid); other != nil {
		return fmt.Errorf("gid %d already belongs to group %q", gid, other.Name)
	}
	db.groups.append(&GroupEntry{Name: name, Passwd: "x", GID: gid})
	db.dirty = true
	return nil
}

// AddMember records user as a member of group. It reports whether the
// membership was new.
func (db *DB) AddMember(group, user string) (bool, error) {
	g := db.Group(group)
	if g == nil {
		return false, fmt.Errorf("group %q not found", group)
	}
	if slices.Contains(g.Members, user) {
		return false, nil
	}
	g.Members = append(g.Members, user)
	db.dirty = true
	return true, nil
}

// GroupsOf returns the user's gids: the primary gid first, then every
// group listing the user as a supplementary member.
func (db *DB) GroupsOf(name string, primaryGID int) []int {
	gids := []int{primaryGID}
	seen := map[int]bool{primaryGID: true}
	for _, g := range db.groups.entries() {
		if seen[g.GID] || !slices.Contains(g.Members, name) {
			continue
		}
		gids = append(gids, g.GID)
		seen[g.GID] = true
	}
	return gids
}

// Save flushes both databases back to disk. It is a no-op when nothing
// changed since Open.
func (db *DB) Save() error {
	if !db.dirty {
		return nil
	}
	if err := db.users.save(); err != nil {
		return err
	}
	if err := db.groups.save(); err != nil {
		return err
	}
	db.dirty = false
	return nil
}
