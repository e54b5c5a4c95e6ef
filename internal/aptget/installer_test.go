package aptget

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eutrob/rosforge/internal/logger"
)

type fakeCall struct {
	args    []string
	stderr  string
	failure error
}

type fakeRunner struct {
	script []fakeCall
	calls  [][]string
}

func (f *fakeRunner) Run(_ context.Context, args ...string) (string, string, error) {
	f.calls = append(f.calls, args)
	if len(f.script) == 0 {
		return "", "", fmt.Errorf("unexpected apt-get call: %v", args)
	}
	next := f.script[0]
	f.script = f.script[1:]
	return "", next.stderr, next.failure
}

func newTestInstaller(script ...fakeCall) (*Installer, *fakeRunner) {
	run := &fakeRunner{script: script}
	return &Installer{run: run, log: logger.With("component", "aptget-test")}, run
}

func TestInstallAllLocatable(t *testing.T) {
	inst, run := newTestInstaller(
		fakeCall{},
		fakeCall{},
	)

	skipped, err := inst.Install(context.Background(), []string{"curl", "git"})
	require.NoError(t, err)
	assert.Empty(t, skipped)

	require.Len(t, run.calls, 2)
	assert.Equal(t, []string{"install", "-y", "--no-install-recommends", "--dry-run", "curl", "git"}, run.calls[0])
	assert.Equal(t, []string{"install", "-y", "--no-install-recommends", "curl", "git"}, run.calls[1])
}

func TestInstallDropsUnlocatable(t *testing.T) {
	stderr := "Reading package lists...\n" +
		"E: Unable to locate package python3-catkin-tools\n" +
		"E: Unable to locate package python3-osrf-pycommon\n"
	inst, run := newTestInstaller(
		fakeCall{stderr: stderr, failure: fmt.Errorf("exit status 100")},
		fakeCall{},
	)

	skipped, err := inst.Install(context.Background(),
		[]string{"curl", "python3-catkin-tools", "git", "python3-osrf-pycommon"})
	require.NoError(t, err)
	assert.Equal(t, []string{"python3-catkin-tools", "python3-osrf-pycommon"}, skipped)

	require.Len(t, run.calls, 2)
	assert.Equal(t, []string{"install", "-y", "--no-install-recommends", "curl", "git"}, run.calls[1])
}

func TestInstallAllUnlocatable(t *testing.T) {
	stderr := "E: Unable to locate package nonexistent\n"
	inst, run := newTestInstaller(
		fakeCall{stderr: stderr, failure: fmt.Errorf("exit status 100")},
	)

	skipped, err := inst.Install(context.Background(), []string{"nonexistent"})
	require.NoError(t, err)
	assert.Equal(t, []string{"nonexistent"}, skipped)
	assert.Len(t, run.calls, 1)
}

func TestInstallDryRunHardFailure(t *testing.T) {
	inst, run := newTestInstaller(
		fakeCall{stderr: "E: Could not get lock /var/lib/dpkg/lock-frontend\n", failure: fmt.Errorf("exit status 100")},
	)

	_, err := inst.Install(context.Background(), []string{"curl"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dry run failed")
	assert.Len(t, run.calls, 1)
}

func TestInstallRealFailure(t *testing.T) {
	inst, _ := newTestInstaller(
		fakeCall{},
		fakeCall{stderr: "E: Sub-process /usr/bin/dpkg returned an error code (1)\n", failure: fmt.Errorf("exit status 100")},
	)

	_, err := inst.Install(context.Background(), []string{"curl"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "install failed")
}

func TestInstallEmptyList(t *testing.T) {
	inst, run := newTestInstaller()

	skipped, err := inst.Install(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, skipped)
	assert.Empty(t, run.calls)
}

func TestUpdate(t *testing.T) {
	inst, run := newTestInstaller(fakeCall{})
	require.NoError(t, inst.Update(context.Background()))
	assert.Equal(t, [][]string{{"update"}}, run.calls)

	inst, _ = newTestInstaller(fakeCall{stderr: "E: no network\n", failure: fmt.Errorf("exit status 100")})
	err := inst.Update(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "update failed")
}

func TestParseUnlocatable(t *testing.T) {
	stderr := "Reading package lists...\n" +
		"Building dependency tree...\n" +
		"E: Unable to locate package foo\n" +
		"E: Unable to locate package bar\n" +
		"E: Unable to locate package foo\n" +
		"E: Some other error\n"

	assert.Equal(t, []string{"foo", "bar"}, ParseUnlocatable(stderr))
	assert.Empty(t, ParseUnlocatable("E: Could not get lock\n"))
	assert.Empty(t, ParseUnlocatable(""))
}

func TestReadPackagesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "packages.txt")
	content := "# build tooling\ncurl\n\ngit\n  cmake  \n# trailing comment\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	pkgs, err := ReadPackagesFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"curl", "git", "cmake"}, pkgs)

	_, err = ReadPackagesFile(filepath.Join(t.TempDir(), "missing.txt"))
	require.Error(t, err)
}
