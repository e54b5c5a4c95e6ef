package project

import (
	"errors"
	"os"
	"path"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eutrob/rosforge/internal/logger"
	"github.com/eutrob/rosforge/internal/platform"
	"github.com/eutrob/rosforge/internal/rosdistro"
	"github.com/eutrob/rosforge/internal/vscode"
)

type fakeRunner struct {
	calls [][]string
	dirs  []string
	fail  map[string]error
}

func (f *fakeRunner) Run(dir, name string, args ...string) (string, error) {
	f.calls = append(f.calls, append([]string{name}, args...))
	f.dirs = append(f.dirs, dir)
	if err := f.fail[name]; err != nil {
		return "", err
	}
	return "ok", nil
}

// newTestCreator wires a Creator the way New does, but with a fixed
// platform, a project dir under t.TempDir and fake external commands.
func newTestCreator(t *testing.T, req Request) (*Creator, *fakeRunner) {
	t.Helper()
	req.normalize()
	require.NoError(t, req.validateFields())

	variant, err := rosdistro.Lookup(req.RosDistro)
	require.NoError(t, err)
	plat, err := platform.Lookup("linux/amd64")
	require.NoError(t, err)

	run := &fakeRunner{}
	c := &Creator{
		req:      req,
		variant:  variant,
		platform: plat,
		dir:      filepath.Join(t.TempDir(), "robproj"),
		imgHome:  imgUserHome(req.ImgUser),
		run:      run,
		lookPath: func(string) (string, error) { return "/usr/bin/stub", nil },
		log:      logger.With("component", "project-test"),
	}
	c.imgWorkspaceDir = path.Join(c.imgHome, "workspace")
	c.imgDatasetsDir = path.Join(c.imgHome, "datasets")
	c.imgSSHDir = path.Join(c.imgHome, ".ssh")
	c.imgGitconfig = path.Join(c.imgHome, ".gitconfig")

	if req.VSCode {
		vs, err := vscode.New(variant, req.ImageID, req.ImgUser, c.dir, c.imgWorkspaceDir, c.log)
		require.NoError(t, err)
		c.vscode = vs
	}
	return c, run
}

func readProjectFile(t *testing.T, c *Creator, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(c.dir, rel))
	require.NoError(t, err)
	return string(data)
}

func assertMode(t *testing.T, c *Creator, rel string, want os.FileMode) {
	t.Helper()
	info, err := os.Stat(filepath.Join(c.dir, rel))
	require.NoError(t, err, rel)
	assert.Equal(t, want, info.Mode().Perm(), rel)
}

func TestCreateScaffoldsRos2Project(t *testing.T) {
	req := validRequest()
	req.PreCommit = true
	c, run := newTestCreator(t, req)

	require.NoError(t, c.Create())

	// Project root files.
	assert.Equal(t, "# Project robproj\n", readProjectFile(t, c, "README.md"))
	assertMode(t, c, ".gitignore", 0o644)
	assertMode(t, c, "deps.repos", 0o644)
	assertMode(t, c, "install_deps.sh", 0o755)
	assertMode(t, c, ".pre-commit-config.yaml", 0o644)
	assert.FileExists(t, filepath.Join(c.dir, ".gitlab", "merge_request_templates", "default.md"))
	assert.FileExists(t, filepath.Join(c.dir, ".gitlab", "issue_templates", "bug_report.md"))

	// ROS 2 projects have no catkin profile.
	assert.NoDirExists(t, filepath.Join(c.dir, ".catkin_tools"))

	// Docker tree.
	assertMode(t, c, "docker/Dockerfile", 0o644)
	assertMode(t, c, "docker/dockerignore", 0o644)
	assertMode(t, c, "docker/build_img.sh", 0o755)
	assertMode(t, c, "docker/docker-compose.yaml", 0o644)
	assertMode(t, c, "docker/environment.sh", 0o755)
	assertMode(t, c, "docker/environment_root.sh", 0o755)
	assert.NoFileExists(t, filepath.Join(c.dir, "docker", ".dockerignore"))

	buildImg := readProjectFile(t, c, "docker/build_img.sh")
	assert.Contains(t, buildImg, `BASE_IMG="ubuntu:24.04"`)
	assert.Contains(t, buildImg, `IMG_ID="robproj:latest"`)
	assert.Contains(t, buildImg, `PLATFORM="linux/amd64"`)
	assert.Contains(t, buildImg, `ROS_DISTRO="humble"`)
	assert.Contains(t, buildImg, `ROS_VERSION="2"`)

	compose := readProjectFile(t, c, "docker/docker-compose.yaml")
	assert.Contains(t, compose, "appcont:")
	assert.Contains(t, compose, "image: robproj:latest")
	assert.Contains(t, compose, "~/workspaces/robproj:/home/dev/workspace")
	assert.Contains(t, compose, `EXT_UID: "1000"`)

	environment := readProjectFile(t, c, "docker/environment.sh")
	assert.Contains(t, environment, "/opt/ros/humble/setup.bash")

	// Image build resources.
	assertMode(t, c, "docker/.resources/install_core.sh", 0o755)
	assertMode(t, c, "docker/.resources/install_mesa_packages.sh", 0o755)
	assertMode(t, c, "docker/.resources/install_ros.sh", 0o755)
	assertMode(t, c, "docker/.resources/rosbuild.sh", 0o755)
	assertMode(t, c, "docker/.resources/rosdep_init_update.sh", 0o755)
	assertMode(t, c, "docker/.resources/deduplicate_path.sh", 0o755)
	assertMode(t, c, "docker/.resources/dot_bash_aliases", 0o755)
	assertMode(t, c, "docker/.resources/packages_ros2.txt", 0o644)
	assertMode(t, c, "docker/.resources/rosdep_ignored_keys.yaml", 0o644)
	assertMode(t, c, "docker/.resources/colcon_mixin_metadata.sh", 0o755)

	installROS := readProjectFile(t, c, "docker/.resources/install_ros.sh")
	assert.Contains(t, installROS, "packages_ros2.txt")
	assert.Contains(t, installROS, "ros2.list")

	rosbuild := readProjectFile(t, c, "docker/.resources/rosbuild.sh")
	assert.Contains(t, rosbuild, "colcon build")

	// Mesa install: humble runs on 22.04, so the default script is used.
	mesa := readProjectFile(t, c, "docker/.resources/install_mesa_packages.sh")
	assert.NotContains(t, mesa, "kisak")

	// Source tree.
	for _, pkg := range []string{"bringup", "simulation"} {
		for _, sub := range packageDirs {
			assert.DirExists(t, filepath.Join(c.dir, "src", pkg, sub))
		}
		assertMode(t, c, filepath.Join("src", pkg, "CMakeLists.txt"), 0o755)
		assertMode(t, c, filepath.Join("src", pkg, "package.xml"), 0o644)
	}
	assert.DirExists(t, filepath.Join(c.dir, "src", "0_deps"))
	assertMode(t, c, "src/.clang-format", 0o644)
	assertMode(t, c, "src/.clang-tidy", 0o644)

	cmake := readProjectFile(t, c, "src/bringup/CMakeLists.txt")
	assert.Contains(t, cmake, "set(CMAKE_CXX_STANDARD 17)")
	assert.Contains(t, cmake, "ament_package()")

	// Commands, in order: git init then pre-commit install.
	require.Len(t, run.calls, 2)
	assert.Equal(t, []string{"git", "init", "--initial-branch=main"}, run.calls[0])
	assert.Equal(t, []string{"pre-commit", "install"}, run.calls[1])
	assert.Equal(t, []string{c.dir, c.dir}, run.dirs)
}

func TestCreateScaffoldsRos1Project(t *testing.T) {
	req := validRequest()
	req.RosDistro = "noetic"
	req.ImgUser = "root"
	c, run := newTestCreator(t, req)

	require.NoError(t, c.Create())

	assertMode(t, c, ".catkin_tools/profiles/default/config.yaml", 0o644)

	installROS := readProjectFile(t, c, "docker/.resources/install_ros.sh")
	assert.Contains(t, installROS, "packages_ros1.txt")
	assert.Contains(t, installROS, "ros1.list")

	rosbuild := readProjectFile(t, c, "docker/.resources/rosbuild.sh")
	assert.Contains(t, rosbuild, "catkin build")

	// noetic runs on 20.04, which needs the kisak mesa build.
	mesa := readProjectFile(t, c, "docker/.resources/install_mesa_packages.sh")
	assert.Contains(t, mesa, "kisak")

	// ROS 2 only assets are absent.
	assert.NoFileExists(t, filepath.Join(c.dir, "docker", ".resources", "rosdep_ignored_keys.yaml"))
	assert.NoFileExists(t, filepath.Join(c.dir, "docker", ".resources", "colcon_mixin_metadata.sh"))

	// A root image user needs no root environment shim.
	assert.NoFileExists(t, filepath.Join(c.dir, "docker", "environment_root.sh"))

	compose := readProjectFile(t, c, "docker/docker-compose.yaml")
	assert.Contains(t, compose, "~/workspaces/robproj:/root/workspace")

	cmake := readProjectFile(t, c, "src/bringup/CMakeLists.txt")
	assert.Contains(t, cmake, "catkin_package")

	// No pre-commit requested.
	require.Len(t, run.calls, 1)
	assert.Equal(t, []string{"git", "init", "--initial-branch=main"}, run.calls[0])
	assert.NoFileExists(t, filepath.Join(c.dir, ".pre-commit-config.yaml"))
}

func TestCreateWithVSCodeProject(t *testing.T) {
	req := validRequest()
	req.VSCode = true
	c, _ := newTestCreator(t, req)

	require.NoError(t, c.Create())

	assert.FileExists(t, filepath.Join(c.dir, "ws.code-workspace"))
	assert.FileExists(t, filepath.Join(c.dir, ".vscode", "tasks.json"))
	assert.FileExists(t, filepath.Join(c.dir, ".devcontainer", "devcontainer.json"))
	assert.FileExists(t, filepath.Join(c.dir, ".devcontainer", "docker-compose.yaml"))
}

func TestCreateRefusesExistingDir(t *testing.T) {
	c, run := newTestCreator(t, validRequest())
	require.NoError(t, os.MkdirAll(c.dir, 0o755))

	err := c.Create()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists. Remove it manually or choose a different project directory")
	assert.Empty(t, run.calls)
	assert.NoFileExists(t, filepath.Join(c.dir, "README.md"))
}

func TestCreateRequiresGit(t *testing.T) {
	c, run := newTestCreator(t, validRequest())
	c.lookPath = func(name string) (string, error) {
		return "", errors.New("not found")
	}

	err := c.Create()
	require.EqualError(t, err, "Git binary not found in the system")
	assert.Empty(t, run.calls)
	assert.NoDirExists(t, c.dir)
}

func TestCreateRequiresPreCommitBinary(t *testing.T) {
	req := validRequest()
	req.PreCommit = true
	c, run := newTestCreator(t, req)
	c.lookPath = func(name string) (string, error) {
		if name == "pre-commit" {
			return "", errors.New("not found")
		}
		return "/usr/bin/" + name, nil
	}

	err := c.Create()
	require.EqualError(t, err, "pre-commit binary not found in the system")
	assert.Empty(t, run.calls)
	assert.NoDirExists(t, c.dir)
}

func TestCreateSurfacesGitInitFailure(t *testing.T) {
	c, run := newTestCreator(t, validRequest())
	run.fail = map[string]error{"git": errors.New("command git failed: exit status 128")}

	err := c.Create()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "git failed")
}
