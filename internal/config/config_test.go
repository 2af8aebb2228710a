package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	c, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 5, c.PreviewRows)
	assert.Equal(t, 50, c.SampleRows)
	assert.Equal(t, 0.5, c.NumericThreshold)
	assert.Equal(t, 50, c.MaxCategories)
	assert.Equal(t, 20, c.MaxClasses)
	assert.Equal(t, 100, c.NTrees)
	assert.Equal(t, 0.2, c.TestFraction)
	assert.Equal(t, int64(42), c.Seed)
	assert.Equal(t, "Unknown", c.UnknownToken)
	assert.Equal(t, filepath.Join(os.Getenv("HOME"), ".autoanalyst", "uploads"), c.DataDir)
	require.NoError(t, c.Validate())
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("max_categories: 30\nn_trees: 10\ndata_dir: /srv/data\n"), 0o644))
	t.Setenv("AUTOANALYST_N_TREES", "25")

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 30, c.MaxCategories)
	assert.Equal(t, 25, c.NTrees, "env overrides file")
	assert.Equal(t, "/srv/data", c.DataDir)
}

func TestSaveRoundTrip(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "config.yaml")
	c, err := Load(path)
	require.NoError(t, err)
	c.Model = "meta-llama/llama-3-8b-instruct"
	c.MaxClasses = 12
	require.NoError(t, Save(c, path))

	again, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "meta-llama/llama-3-8b-instruct", again.Model)
	assert.Equal(t, 12, again.MaxClasses)
}

func TestValidateAggregates(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	c, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	c.TestFraction = 1
	c.NTrees = 0
	c.Provider = "bard"

	err = c.Validate()
	require.Error(t, err)
	var merr *multierror.Error
	require.ErrorAs(t, err, &merr)
	assert.Len(t, merr.Errors, 3)
	assert.Contains(t, err.Error(), "test_fraction")
}
