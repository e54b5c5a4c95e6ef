package identity

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"github.com/google/uuid"
	"golang.org/x/sys/unix"
)

// Params carries the identity request read from the container
// environment. UID and GID are pointers so an absent variable is
// distinguishable from a literal 0.
type Params struct {
	UID     *int   `env:"EXT_UID"`
	GID     *int   `env:"EXT_UPGID"`
	ImgUser string `env:"IMG_USER"`
}

// ParamsFromEnv reads EXT_UID, EXT_UPGID and IMG_USER from the process
// environment.
func ParamsFromEnv() (Params, error) {
	var p Params
	if err := env.Parse(&p); err != nil {
		return Params{}, fmt.Errorf("failed to parse environment: %w", err)
	}
	if p.ImgUser == "" {
		p.ImgUser = "root"
	}
	return p, nil
}

func (p Params) validate() error {
	if (p.UID == nil) != (p.GID == nil) {
		return ErrPartialPair
	}
	if p.UID != nil && (*p.UID < MinExternalID || *p.GID < MinExternalID) {
		return fmt.Errorf("%w: got uid %d, gid %d", ErrReservedID, *p.UID, *p.GID)
	}
	return nil
}

// Result is the identity a reconciled container should execute under.
type Result struct {
	User   UserEntry
	Groups []int
}

// Reconciler applies a Params request to the account databases under
// root. The chown, geteuid and statGID seams exist so tests can run
// against fixture trees without privileges.
type Reconciler struct {
	root    string
	log     *slog.Logger
	chown   func(path string, uid, gid int) error
	geteuid func() int
	statGID func(path string) (int, error)
}

func New(root string, log *slog.Logger) *Reconciler {
	return &Reconciler{
		root:    root,
		log:     log,
		chown:   os.Lchown,
		geteuid: os.Geteuid,
		statGID: statGID,
	}
}

// Reconcile aligns the image user's uid/gid with the request, resolves
// any accounts or groups already holding the requested ids, fixes home
// ownership and joins render device groups. Validation and privilege
// checks all happen before the first mutation.
func (r *Reconciler) Reconcile(p Params) (*Result, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}

	db, err := Open(r.root)
	if err != nil {
		return nil, err
	}

	user := db.User(p.ImgUser)
	if user == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownUser, p.ImgUser)
	}

	asRoot := r.geteuid() == 0
	renumber := p.UID != nil && user.UID != 0
	if p.UID != nil && user.UID == 0 {
		r.log.Debug("image user is the superuser, leaving ids untouched", "user", user.Name)
	}
	if renumber && !asRoot {
		return nil, ErrNotRoot
	}

	var colliderHome string
	var colliderUID int
	if renumber {
		primary := db.GroupByGID(user.GID)
		if primary == nil {
			return nil, fmt.Errorf("%w: gid %d of user %q", ErrNoPrimaryGroup, user.GID, user.Name)
		}
		if err := r.applyGroupID(db, user, primary, *p.GID); err != nil {
			return nil, err
		}
		colliderHome, colliderUID, err = r.applyUserID(db, user, *p.UID)
		if err != nil {
			return nil, err
		}
	}

	if asRoot {
		if err := r.joinDeviceGroups(db, user); err != nil {
			return nil, err
		}
	}

	if err := db.Save(); err != nil {
		return nil, err
	}

	if colliderHome != "" {
		if err := r.chownTree(colliderHome, colliderUID, -1); err != nil {
			return nil, fmt.Errorf("failed to fix ownership of %s: %w", colliderHome, err)
		}
	}
	if renumber {
		if err := r.chownTree(user.Home, user.UID, user.GID); err != nil {
			return nil, fmt.Errorf("failed to fix ownership of %s: %w", user.Home, err)
		}
	}

	return &Result{User: *user, Groups: db.GroupsOf(user.Name, user.GID)}, nil
}

// applyGroupID moves the user's primary group to gid. When another group
// already holds gid, the two groups swap names instead: the holder takes
// over the primary group's name, and the old primary group lives on with
// its old gid under a throwaway name.
func (r *Reconciler) applyGroupID(db *DB, user *UserEntry, primary *GroupEntry, gid int) error {
	if primary.GID != gid {
		holder := db.GroupByGID(gid)
		if holder == nil {
			r.log.Info("renumbering primary group", "group", primary.Name, "from", primary.GID, "to", gid)
			if err := db.SetGroupGID(primary.Name, gid); err != nil {
				return err
			}
		} else {
			placeholder := placeholderGroupName(db)
			r.log.Info("gid already taken, swapping group names",
				"gid", gid, "group", primary.Name, "holder", holder.Name, "placeholder", placeholder)
			oldName := primary.Name
			if err := db.RenameGroup(oldName, placeholder); err != nil {
				return err
			}
			if err := db.RenameGroup(holder.Name, oldName); err != nil {
				return err
			}
		}
	}
	return db.SetUserGID(user.Name, gid)
}

// applyUserID moves the user to uid. An account already holding uid is
// renumbered out of the way first and has its home re-owned.
func (r *Reconciler) applyUserID(db *DB, user *UserEntry, uid int) (colliderHome string, colliderUID int, err error) {
	if user.UID == uid {
		return "", 0, nil
	}
	if holder := db.UserByUID(uid); holder != nil && holder.Name != user.Name {
		moved := db.NextFreeUID(colliderUIDFloor)
		r.log.Info("uid already taken, renumbering holder", "holder", holder.Name, "from", uid, "to", moved)
		if err := db.SetUserUID(holder.Name, moved); err != nil {
			return "", 0, err
		}
		colliderHome, colliderUID = holder.Home, moved
	}
	r.log.Info("renumbering image user", "user", user.Name, "from", user.UID, "to", uid)
	if err := db.SetUserUID(user.Name, uid); err != nil {
		return "", 0, err
	}
	return colliderHome, colliderUID, nil
}

// joinDeviceGroups makes the user a member of the owning group of every
// node under /dev/dri, creating groups for orphaned gids as needed.
func (r *Reconciler) joinDeviceGroups(db *DB, user *UserEntry) error {
	dir := filepath.Join(r.root, "dev", "dri")
	nodes, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to scan %s: %w", dir, err)
	}
	for _, node := range nodes {
		gid, err := r.statGID(filepath.Join(dir, node.Name()))
		if err != nil {
			return err
		}
		group := db.GroupByGID(gid)
		if group == nil {
			name := fmt.Sprintf("dri%d", gid)
			r.log.Info("creating device group", "group", name, "gid", gid, "device", node.Name())
			if err := db.AddGroup(name, gid); err != nil {
				return err
			}
			group = db.Group(name)
		}
		added, err := db.AddMember(group.Name, user.Name)
		if err != nil {
			return err
		}
		if added {
			r.log.Info("joining device group", "user", user.Name, "group", group.Name, "device", node.Name())
		}
	}
	return nil
}

// chownTree re-owns dir and everything below it without following
// symlinks. A uid or gid of -1 leaves that id unchanged. Missing
// directories are skipped; accounts do not always have a home.
func (r *Reconciler) chownTree(dir string, uid, gid int) error {
	full := filepath.Join(r.root, dir)
	if _, err := os.Lstat(full); os.IsNotExist(err) {
		r.log.Debug("skipping ownership fix, directory missing", "path", full)
		return nil
	}
	return filepath.WalkDir(full, func(path string, _ fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		return r.chown(path, uid, gid)
	})
}

func placeholderGroupName(db *DB) string {
	for {
		name := "grp-" + uuid.NewString()[:8]
		if db.Group(name) == nil {
			return name
		}
	}
}

func statGID(path string) (int, error) {
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return 0, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	return int(st.Gid), nil
}
