// Package vscode writes the VSCode side of a project: the workspace
// file, editor settings, build tasks and the devcontainer wiring that
// runs the project image with the invoking user's identity.
package vscode

import (
	"errors"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/eutrob/rosforge/internal/fsutil"
	"github.com/eutrob/rosforge/internal/resources"
	"github.com/eutrob/rosforge/internal/rosdistro"
)

type Creator struct {
	variant         rosdistro.Variant
	imageID         string
	imgUser         string
	workspaceDir    string
	imgWorkspaceDir string
	log             *slog.Logger

	// The devcontainer compose file carries the invoking user's ids and
	// gitconfig; tests override these.
	uid  func() int
	gid  func() int
	home func() (string, error)
}

func New(variant rosdistro.Variant, imageID, imgUser, workspaceDir, imgWorkspaceDir string, log *slog.Logger) (*Creator, error) {
	imageID = strings.TrimSpace(imageID)
	if imageID == "" {
		return nil, errors.New("image id must be a non-empty string")
	}
	imgUser = strings.TrimSpace(imgUser)
	if imgUser == "" {
		return nil, errors.New("image user must be a non-empty string")
	}
	if strings.TrimSpace(workspaceDir) == "" {
		return nil, errors.New("workspace path must be provided")
	}
	if strings.TrimSpace(imgWorkspaceDir) == "" {
		return nil, errors.New("image workspace path must be provided")
	}
	return &Creator{
		variant:         variant,
		imageID:         imageID,
		imgUser:         imgUser,
		workspaceDir:    workspaceDir,
		imgWorkspaceDir: imgWorkspaceDir,
		log:             log,
		uid:             os.Getuid,
		gid:             os.Getgid,
		home:            os.UserHomeDir,
	}, nil
}

// Create writes ws.code-workspace, .vscode/ and .devcontainer/ into the
// workspace directory, creating it if needed.
func (c *Creator) Create() error {
	c.log.Info("creating VSCode project", "dir", c.workspaceDir)

	if err := fsutil.Mkdir(c.log, c.workspaceDir, 0o755); err != nil {
		return err
	}
	devcontainerDir := filepath.Join(c.workspaceDir, ".devcontainer")
	if err := fsutil.Mkdir(c.log, devcontainerDir, 0o755); err != nil {
		return err
	}
	vscodeDir := filepath.Join(c.workspaceDir, ".vscode")
	if err := fsutil.Mkdir(c.log, vscodeDir, 0o755); err != nil {
		return err
	}

	workspace := resources.WorkspaceData{RosDistro: c.variant.Distro}
	if err := c.render("vscode/ws.code-workspace.tmpl", filepath.Join(c.workspaceDir, "ws.code-workspace"), workspace); err != nil {
		return err
	}

	settings, err := resources.ReadFile("vscode/settings.json")
	if err != nil {
		return err
	}
	if err := fsutil.WriteFile(c.log, filepath.Join(vscodeDir, "settings.json"), settings, 0o644); err != nil {
		return err
	}

	properties := resources.CppPropertiesData{
		CStandard:   "c" + c.variant.CVersion,
		CppStandard: "c++" + c.variant.CppVersion,
		RosDistro:   c.variant.Distro,
	}
	if err := c.render("vscode/c_cpp_properties.json.tmpl", filepath.Join(vscodeDir, "c_cpp_properties.json"), properties); err != nil {
		return err
	}

	if err := c.render("vscode/tasks.json.tmpl", filepath.Join(vscodeDir, "tasks.json"), c.buildCommands()); err != nil {
		return err
	}

	devcontainer := resources.DevcontainerData{
		Service:         "devcont",
		ImgUser:         c.imgUser,
		ImgWorkspaceDir: c.imgWorkspaceDir,
	}
	if err := c.render("vscode/devcontainer.json.tmpl", filepath.Join(devcontainerDir, "devcontainer.json"), devcontainer); err != nil {
		return err
	}

	return c.render("docker/docker-compose.yaml.tmpl", filepath.Join(devcontainerDir, "docker-compose.yaml"), c.composeData())
}

// buildCommands picks the task commands for the project's build
// pipeline, catkin for ROS1 and colcon for ROS2.
func (c *Creator) buildCommands() resources.TasksData {
	if c.variant.ROS1() {
		return resources.TasksData{
			BuildReleaseCmd:        "rosbuild.sh",
			BuildDebugCmd:          "rosbuild.sh --cmake-args -DCMAKE_BUILD_TYPE=Debug",
			BuildRelWithDebInfoCmd: "rosbuild.sh --cmake-args -DCMAKE_BUILD_TYPE=RelWithDebInfo",
			CleanCmd:               "catkin clean --yes --verbose --force",
		}
	}
	return resources.TasksData{
		BuildReleaseCmd:        "rosbuild.sh",
		BuildDebugCmd:          "rosbuild.sh --mixin debug",
		BuildRelWithDebInfoCmd: "rosbuild.sh --mixin rel-with-deb-info",
		CleanCmd:               "colcon clean workspace -y",
	}
}

func (c *Creator) composeData() resources.ComposeData {
	imgHome := imgUserHome(c.imgUser)
	data := resources.ComposeData{
		Service:          "devcont",
		ImageID:          c.imageID,
		WorkspaceDir:     c.workspaceDir,
		ImgWorkspaceDir:  c.imgWorkspaceDir,
		ImgDatasetsDir:   path.Join(imgHome, "datasets"),
		ImgSSHDir:        path.Join(imgHome, ".ssh"),
		ImgGitconfigFile: path.Join(imgHome, ".gitconfig"),
		ExtUID:           strconv.Itoa(c.uid()),
		ExtGID:           strconv.Itoa(c.gid()),
	}
	if gitconfig, ok := c.detectGitconfig(); ok {
		data.UseGit = true
		data.GitconfigFile = gitconfig
	}
	return data
}

// detectGitconfig finds the invoking user's git configuration, checking
// ~/.gitconfig before the XDG location.
func (c *Creator) detectGitconfig() (string, bool) {
	home, err := c.home()
	if err != nil {
		return "", false
	}
	candidates := []string{
		filepath.Join(home, ".gitconfig"),
		filepath.Join(home, ".config", "git", "config"),
	}
	for _, candidate := range candidates {
		if info, err := os.Stat(candidate); err == nil && info.Mode().IsRegular() {
			return candidate, true
		}
	}
	return "", false
}

func (c *Creator) render(asset, dst string, data any) error {
	out, err := resources.Render(asset, data)
	if err != nil {
		return err
	}
	return fsutil.WriteFile(c.log, dst, out, 0o644)
}

func imgUserHome(imgUser string) string {
	if imgUser == "root" {
		return "/root"
	}
	return "/home/" + imgUser
}
