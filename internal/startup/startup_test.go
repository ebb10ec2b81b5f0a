package startup

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandUsesAbsoluteConfigPath(t *testing.T) {
	args, err := command("config.yaml")
	require.NoError(t, err)
	require.Len(t, args, 4)

	assert.Equal(t, []string{"run", "--config"}, args[1:3])
	assert.True(t, filepath.IsAbs(args[3]))

	args, err = command("")
	require.NoError(t, err)
	assert.Len(t, args, 1)
}

func TestLinuxAutostartEntry(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("autostart entries are linux only")
	}
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	require.False(t, IsEnabled())
	require.NoError(t, Enable("/etc/launchpad/config.yaml"))
	assert.True(t, IsEnabled())

	data, err := os.ReadFile(linuxDesktopPath())
	require.NoError(t, err)
	assert.Contains(t, string(data), `"--config" "/etc/launchpad/config.yaml"`)
	assert.Contains(t, string(data), "Name=Launchpad Soundpad")

	require.NoError(t, Disable())
	assert.False(t, IsEnabled())
	assert.NoError(t, Disable(), "disabling twice is fine")
}
