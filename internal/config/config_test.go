package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	home := t.TempDir()

	c, err := Load(home)
	require.NoError(t, err)
	require.Equal(t, Default(home), c)
	require.Equal(t, filepath.Join(home, DefaultDBDir), c.DBPath())
}

func TestWriteDefaultThenLoad(t *testing.T) {
	home := t.TempDir()

	path, wrote, err := WriteDefault(home)
	require.NoError(t, err)
	require.True(t, wrote)
	require.FileExists(t, path)

	_, wrote, err = WriteDefault(home)
	require.NoError(t, err)
	require.False(t, wrote)

	c, err := Load(home)
	require.NoError(t, err)
	require.Equal(t, DefaultAddr, c.Addr)
	require.Equal(t, DefaultTransport, c.Transport)
}

func TestLoad_FileAndEnv(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(home, "config"), 0o755))
	require.NoError(t, os.WriteFile(File(home), []byte(`
addr = "tcp://0.0.0.0:36658"
transport = "grpc"
db_dir = "/var/lib/matchd"
`), 0o644))

	t.Setenv("MATCHD_LOG_LEVEL", "store:debug,*:error")

	c, err := Load(home)
	require.NoError(t, err)
	require.Equal(t, "tcp://0.0.0.0:36658", c.Addr)
	require.Equal(t, "grpc", c.Transport)
	require.Equal(t, "store:debug,*:error", c.LogLevel)
	require.Equal(t, "/var/lib/matchd", c.DBPath())
}

func TestLoad_RejectsBadTransport(t *testing.T) {
	home := t.TempDir()
	t.Setenv("MATCHD_TRANSPORT", "http")

	_, err := Load(home)
	require.ErrorContains(t, err, "transport")
}
