package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolvePathPrecedence(t *testing.T) {
	explicit := "/tmp/custom.yaml"
	resolved, err := ResolvePath(explicit)
	require.NoError(t, err)
	require.Equal(t, explicit, resolved)

	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	resolved, err = ResolvePath("")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(xdg, "parla", "config.yaml"), resolved)

	t.Setenv("XDG_CONFIG_HOME", "")
	home := t.TempDir()
	t.Setenv("HOME", home)
	resolved, err = ResolvePath("")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(home, ".config", "parla", "config.yaml"), resolved)
}

func TestStateDirAndExpandHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_STATE_HOME", "")

	dir, err := StateDir()
	require.NoError(t, err)
	require.Equal(t, filepath.Join(home, ".local", "state", "parla"), dir)

	require.Equal(t, filepath.Join(home, "models", "a.bin"), ExpandHome("~/models/a.bin"))
	require.Equal(t, "/abs/path", ExpandHome("/abs/path"))
}

func TestLoadMissingConfigUsesDefaultsWithWarning(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.yaml")

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, path, loaded.Path)
	require.False(t, loaded.Exists)
	require.Equal(t, Default(), loaded.Config)
	require.NotEmpty(t, loaded.Warnings)
	require.Contains(t, loaded.Warnings[0].Message, "not found")
}

func TestLoadExistingYAMLParsesAndAppliesEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	contents := `
stt:
  engine: openai
  openai:
    api_key: from-file
output:
  paste: false
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	t.Setenv("PARLA_OPENAI_API_KEY", "from-env")
	t.Setenv("PARLA_LOG_LEVEL", "DEBUG")

	loaded, err := Load(path)
	require.NoError(t, err)
	require.True(t, loaded.Exists)
	require.Equal(t, "openai", loaded.Config.STT.Engine)
	require.Equal(t, "from-env", loaded.Config.STT.OpenAI.APIKey)
	require.Equal(t, "debug", loaded.Config.Log.Level)
	require.False(t, loaded.Config.Output.Paste)
}

func TestLoadInvalidConfigFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("stt:\n  engine: nope\n"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "stt.engine")
}

func TestApplyEnvRejectsBadLogLevel(t *testing.T) {
	t.Setenv("PARLA_LOG_LEVEL", "loud")
	cfg := Default()
	require.Error(t, ApplyEnv(&cfg))
}
