package project

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path"
	"path/filepath"
	"strings"

	"github.com/eutrob/rosforge/internal/fsutil"
	"github.com/eutrob/rosforge/internal/platform"
	"github.com/eutrob/rosforge/internal/resources"
	"github.com/eutrob/rosforge/internal/rosdistro"
	"github.com/eutrob/rosforge/internal/vscode"
)

// Subdirectories created inside each ROS package skeleton.
var packageDirs = []string{"config", "include", "launch", "rviz", "scripts", "src", "test"}

// Creator scaffolds one ROS project. Build it with New, which resolves
// and validates everything, then call Create once.
type Creator struct {
	req      Request
	variant  rosdistro.Variant
	platform platform.Platform
	dir      string

	imgHome         string
	imgWorkspaceDir string
	imgDatasetsDir  string
	imgSSHDir       string
	imgGitconfig    string

	vscode   *vscode.Creator
	run      Runner
	lookPath func(string) (string, error)
	log      *slog.Logger
}

func New(req Request, log *slog.Logger) (*Creator, error) {
	req.normalize()
	if err := req.validateFields(); err != nil {
		return nil, err
	}

	variant, err := rosdistro.Lookup(req.RosDistro)
	if err != nil {
		return nil, err
	}

	home, err := resolveHome()
	if err != nil {
		return nil, err
	}
	dir, err := resolveProjectDir(req.ProjectDir, home)
	if err != nil {
		return nil, err
	}

	var plat platform.Platform
	if req.Platform == "" {
		plat, err = platform.Detect()
	} else {
		plat, err = platform.Lookup(req.Platform)
	}
	if err != nil {
		return nil, err
	}

	c := &Creator{
		req:      req,
		variant:  variant,
		platform: plat,
		dir:      dir,
		imgHome:  imgUserHome(req.ImgUser),
		run:      execRunner{timeout: defaultCommandTimeout},
		lookPath: exec.LookPath,
		log:      log,
	}
	c.imgWorkspaceDir = path.Join(c.imgHome, "workspace")
	c.imgDatasetsDir = path.Join(c.imgHome, "datasets")
	c.imgSSHDir = path.Join(c.imgHome, ".ssh")
	c.imgGitconfig = path.Join(c.imgHome, ".gitconfig")

	if req.VSCode {
		vs, err := vscode.New(variant, req.ImageID, req.ImgUser, dir, c.imgWorkspaceDir, log)
		if err != nil {
			return nil, err
		}
		c.vscode = vs
	}
	return c, nil
}

// Dir returns the resolved absolute project directory.
func (c *Creator) Dir() string {
	return c.dir
}

// Create runs the preflight checks, then lays down the full project
// tree, initializes the Git repository and optionally installs the
// pre-commit hooks.
func (c *Creator) Create() error {
	c.log.Info("creating project", "project", c.req.ProjectID, "dir", c.dir)

	if err := c.preflight(); err != nil {
		return err
	}
	if err := fsutil.Mkdir(c.log, c.dir, 0o755); err != nil {
		return err
	}

	if c.vscode != nil {
		if err := c.vscode.Create(); err != nil {
			return err
		}
	}

	if err := c.scaffold(); err != nil {
		return err
	}

	out, err := c.run.Run(c.dir, "git", "init", "--initial-branch=main")
	if err != nil {
		return err
	}
	c.log.Info(out)

	if c.req.PreCommit {
		if err := c.installPreCommit(); err != nil {
			return err
		}
	}

	c.log.Info("project created", "project", c.req.ProjectID, "dir", c.dir)
	return nil
}

func (c *Creator) scaffold() error {
	if c.variant.ROS1() {
		if err := c.writeCatkinConfig(); err != nil {
			return err
		}
	}
	if err := c.writeGitFiles(); err != nil {
		return err
	}
	if err := c.writeDepsFiles(); err != nil {
		return err
	}
	if err := c.writeReadme(); err != nil {
		return err
	}
	if err := c.writeDockerTree(); err != nil {
		return err
	}
	return c.writeSourceTree()
}

// writeCatkinConfig pre-seeds the default catkin profile so the first
// in-container build already uses the project's build settings.
func (c *Creator) writeCatkinConfig() error {
	profileDir := filepath.Join(".catkin_tools", "profiles", "default")
	if err := c.mkdir(profileDir); err != nil {
		return err
	}
	return c.copyAsset("ros/catkin_config_ros1.yaml", filepath.Join(profileDir, "config.yaml"), 0o644)
}

func (c *Creator) writeGitFiles() error {
	if err := c.copyAsset("git/dot_gitignore", ".gitignore", 0o644); err != nil {
		return err
	}
	gitlab, err := resources.Sub("git/gitlab")
	if err != nil {
		return err
	}
	return fsutil.CopyDir(c.log, gitlab, ".", filepath.Join(c.dir, ".gitlab"))
}

func (c *Creator) writeDepsFiles() error {
	if err := c.copyAsset("deps/deps.repos", "deps.repos", 0o644); err != nil {
		return err
	}
	return c.copyAsset("deps/install_deps.sh", "install_deps.sh", 0o755)
}

func (c *Creator) writeReadme() error {
	content := fmt.Sprintf("# Project %s\n", c.req.ProjectID)
	return fsutil.WriteFile(c.log, filepath.Join(c.dir, "README.md"), []byte(content), 0o644)
}

// writeDockerTree lays down docker/ with the Dockerfile, compose file,
// build script and the .resources directory the image build copies in.
func (c *Creator) writeDockerTree() error {
	if err := c.mkdir("docker"); err != nil {
		return err
	}
	resDir := filepath.Join("docker", ".resources")
	if err := c.mkdir(resDir); err != nil {
		return err
	}

	copies := []struct {
		asset string
		dst   string
		mode  os.FileMode
	}{
		{"scripts/deduplicate_path.sh", filepath.Join(resDir, "deduplicate_path.sh"), 0o755},
		{"scripts/dot_bash_aliases", filepath.Join(resDir, "dot_bash_aliases"), 0o755},
		{"scripts/install_core.sh", filepath.Join(resDir, "install_core.sh"), 0o755},
		{c.mesaInstallAsset(), filepath.Join(resDir, "install_mesa_packages.sh"), 0o755},
		{fmt.Sprintf("ros/packages_ros%d.txt", c.variant.ROSVersion), filepath.Join(resDir, fmt.Sprintf("packages_ros%d.txt", c.variant.ROSVersion)), 0o644},
		{"ros/rosdep_init_update.sh", filepath.Join(resDir, "rosdep_init_update.sh"), 0o755},
		{fmt.Sprintf("ros/ros%dbuild.sh", c.variant.ROSVersion), filepath.Join(resDir, "rosbuild.sh"), 0o755},
		{"docker/dot_dockerignore", filepath.Join("docker", "dockerignore"), 0o644},
		{"docker/Dockerfile", filepath.Join("docker", "Dockerfile"), 0o644},
	}
	for _, cp := range copies {
		if err := c.copyAsset(cp.asset, cp.dst, cp.mode); err != nil {
			return err
		}
	}

	installROS := resources.InstallROSData{RosVersion: c.variant.ROSVersion}
	if err := c.renderAsset("ros/install_ros.sh.tmpl", filepath.Join(resDir, "install_ros.sh"), installROS, 0o755); err != nil {
		return err
	}

	environment := resources.EnvironmentData{RosDistro: c.variant.Distro}
	envAsset := fmt.Sprintf("ros/environment_ros%d.sh.tmpl", c.variant.ROSVersion)
	if err := c.renderAsset(envAsset, filepath.Join("docker", "environment.sh"), environment, 0o755); err != nil {
		return err
	}
	if c.req.ImgUser != "root" {
		if err := c.copyAsset("docker/environment_root.sh", filepath.Join("docker", "environment_root.sh"), 0o755); err != nil {
			return err
		}
	}

	if !c.variant.ROS1() {
		if err := c.copyAsset("ros/rosdep_ignored_keys_ros2.yaml", filepath.Join(resDir, "rosdep_ignored_keys.yaml"), 0o644); err != nil {
			return err
		}
		if err := c.copyAsset("ros/colcon_mixin_metadata.sh", filepath.Join(resDir, "colcon_mixin_metadata.sh"), 0o755); err != nil {
			return err
		}
	}

	buildImg := resources.BuildImgData{
		ProjectID:    c.req.ProjectID,
		BaseImg:      c.req.BaseImg,
		ImageID:      c.req.ImageID,
		Platform:     c.platform.ID,
		PlatformList: strings.Join(platform.IDs(), ", "),
		ImgUser:      c.req.ImgUser,
		RosDistro:    c.variant.Distro,
		RosVersion:   c.variant.ROSVersion,
	}
	if err := c.renderAsset("docker/build_img.sh.tmpl", filepath.Join("docker", "build_img.sh"), buildImg, 0o755); err != nil {
		return err
	}

	// The compose file for running on the robot itself. The uid/gid pair
	// is a placeholder for the robot account; operators adjust it when
	// deploying.
	compose := resources.ComposeData{
		Service:         "appcont",
		ImageID:         c.req.ImageID,
		WorkspaceDir:    "~/workspaces/" + c.req.ProjectID,
		ImgWorkspaceDir: c.imgWorkspaceDir,
		ImgDatasetsDir:  c.imgDatasetsDir,
		ImgSSHDir:       c.imgSSHDir,
		UseGit:          false,
		ExtUID:          "1000",
		ExtGID:          "1000",
	}
	return c.renderAsset("docker/docker-compose.yaml.tmpl", filepath.Join("docker", "docker-compose.yaml"), compose, 0o644)
}

// writeSourceTree creates src/ with the bringup and simulation package
// skeletons and the clang tooling configuration.
func (c *Creator) writeSourceTree() error {
	for _, dir := range []string{"src", filepath.Join("src", "0_deps"), filepath.Join("src", "bringup"), filepath.Join("src", "simulation")} {
		if err := c.mkdir(dir); err != nil {
			return err
		}
	}

	if err := c.copyAsset("clang/dot_clang-format", filepath.Join("src", ".clang-format"), 0o644); err != nil {
		return err
	}
	if err := c.copyAsset("clang/dot_clang-tidy", filepath.Join("src", ".clang-tidy"), 0o644); err != nil {
		return err
	}

	for _, pkg := range []string{"bringup", "simulation"} {
		for _, sub := range packageDirs {
			if err := c.mkdir(filepath.Join("src", pkg, sub)); err != nil {
				return err
			}
		}

		cmake := resources.CMakeData{CVersion: c.variant.CVersion, CppVersion: c.variant.CppVersion}
		cmakeAsset := fmt.Sprintf("ros/%s_CMakeLists_ros%d.txt.tmpl", pkg, c.variant.ROSVersion)
		if err := c.renderAsset(cmakeAsset, filepath.Join("src", pkg, "CMakeLists.txt"), cmake, 0o755); err != nil {
			return err
		}

		pkgAsset := fmt.Sprintf("ros/%s_package_ros%d.xml", pkg, c.variant.ROSVersion)
		if err := c.copyAsset(pkgAsset, filepath.Join("src", pkg, "package.xml"), 0o644); err != nil {
			return err
		}
	}
	return nil
}

func (c *Creator) installPreCommit() error {
	if err := c.copyAsset("git/dot_pre-commit-config.yaml", ".pre-commit-config.yaml", 0o644); err != nil {
		return err
	}
	out, err := c.run.Run(c.dir, "pre-commit", "install")
	if err != nil {
		return err
	}
	c.log.Info(out)
	return nil
}

func (c *Creator) mesaInstallAsset() string {
	// Ubuntu 20.04's stock mesa is too old for current GPUs; the kisak
	// PPA build replaces it there.
	if c.variant.UbuntuVersion == "20.04" {
		return "scripts/install_kisak_mesa_packages.sh"
	}
	return "scripts/install_default_mesa_packages.sh"
}

func (c *Creator) mkdir(rel string) error {
	return fsutil.Mkdir(c.log, filepath.Join(c.dir, rel), 0o755)
}

func (c *Creator) copyAsset(asset, dst string, mode os.FileMode) error {
	data, err := resources.ReadFile(asset)
	if err != nil {
		return err
	}
	return fsutil.WriteFile(c.log, filepath.Join(c.dir, dst), data, mode)
}

func (c *Creator) renderAsset(asset, dst string, data any, mode os.FileMode) error {
	out, err := resources.Render(asset, data)
	if err != nil {
		return err
	}
	return fsutil.WriteFile(c.log, filepath.Join(c.dir, dst), out, mode)
}
