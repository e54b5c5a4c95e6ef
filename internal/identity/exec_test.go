package identity

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildEnvOverridesIdentityVars(t *testing.T) {
	base := []string{"PATH=/usr/bin", "HOME=/root", "USER=root", "TERM=xterm"}
	user := UserEntry{Name: "dev", Home: "/home/dev", Shell: "/bin/zsh"}

	env := buildEnv(base, user)

	assert.Contains(t, env, "PATH=/usr/bin")
	assert.Contains(t, env, "TERM=xterm")
	assert.Contains(t, env, "HOME=/home/dev")
	assert.Contains(t, env, "USER=dev")
	assert.Contains(t, env, "LOGNAME=dev")
	assert.Contains(t, env, "SHELL=/bin/zsh")
	assert.NotContains(t, env, "HOME=/root")
}

func TestBuildEnvDefaultsShell(t *testing.T) {
	env := buildEnv(nil, UserEntry{Name: "dev", Home: "/home/dev"})
	assert.Contains(t, env, "SHELL=/bin/bash")
}

func TestWrapWithEnvFile(t *testing.T) {
	argv := []string{"roslaunch", "pkg", "sim.launch"}

	assert.Equal(t, argv, wrapWithEnvFile(argv, "/home/dev/environment.sh", false))

	wrapped := wrapWithEnvFile(argv, "/home/dev/environment.sh", true)
	require.Len(t, wrapped, 7)
	assert.Equal(t, "/bin/bash", wrapped[0])
	assert.Equal(t, "-c", wrapped[1])
	assert.Equal(t, `. '/home/dev/environment.sh' && exec "$@"`, wrapped[2])
	assert.Equal(t, "--", wrapped[3])
	assert.Equal(t, argv, wrapped[4:])
}

func TestShellQuote(t *testing.T) {
	assert.Equal(t, "'/home/dev/environment.sh'", shellQuote("/home/dev/environment.sh"))
	assert.Equal(t, `'it'\''s'`, shellQuote("it's"))
}

func TestNonEmptyFile(t *testing.T) {
	dir := t.TempDir()

	missing := filepath.Join(dir, "missing.sh")
	assert.False(t, nonEmptyFile(missing))

	empty := filepath.Join(dir, "empty.sh")
	require.NoError(t, os.WriteFile(empty, nil, 0644))
	assert.False(t, nonEmptyFile(empty))

	full := filepath.Join(dir, "environment.sh")
	require.NoError(t, os.WriteFile(full, []byte("export ROS_DOMAIN_ID=42\n"), 0644))
	assert.True(t, nonEmptyFile(full))
}

func TestSetEnvAppendsWhenMissing(t *testing.T) {
	env := setEnv([]string{"PATH=/usr/bin"}, "HOME", "/home/dev")
	assert.Equal(t, []string{"PATH=/usr/bin", "HOME=/home/dev"}, env)
}
