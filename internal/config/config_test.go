package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Defaults(), c)
	assert.Equal(t, "./data/sample_metadata.csv", c.InputPath)
	assert.Equal(t, "V", c.BraakComposite)
	assert.Equal(t, 120, c.HTTPTimeoutSec)
}

func TestLoadPrecedence(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte("accession: GSE1234\nbraak_composite: VI\nretry_max_attempts: 5\n"), 0o644))
	t.Setenv("METACLEAN_RETRY_MAX_ATTEMPTS", "7")

	c, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, "GSE1234", c.Accession)
	assert.Equal(t, "VI", c.BraakComposite)
	assert.Equal(t, 7, c.RetryMaxAttempts, "env beats file")
	assert.Equal(t, "./data", c.DataDir, "unset keys fall back to defaults")
}

func TestLoadMissingExplicitFileUsesDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	c, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Defaults(), c)
}

func TestLoadMalformedFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte("accession: [unclosed\n"), 0o644))
	_, err := Load(p)
	assert.Error(t, err)
}

func TestSaveThenLoad(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	c := Defaults()
	c.OutputPath = "/tmp/out.csv"
	c.BraakComposite = "VI"
	require.NoError(t, Save(c, ""))
	_, err := os.Stat(filepath.Join(home, ".metaclean", "config.yaml"))
	require.NoError(t, err)

	got, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, c, got)
}
