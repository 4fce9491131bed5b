package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_CreatesDefaultFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "etc", "reconciler.toml")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.FileExists(t, path)
	assert.Equal(t, "/var/lib/conso_prod_reconciler", cfg.DataDir)
	assert.Equal(t, 30*time.Minute, cfg.TargetStep())
	assert.Equal(t, 15*time.Minute, cfg.ProductionStep())
	assert.Equal(t, []string{"station_power_data_*.csv", "prod_*.csv"}, cfg.Sources.ProductionPatterns)
	assert.True(t, cfg.Database.Enabled)

	again, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, again)
}

func TestLoad_FillsMissingValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reconciler.toml")
	content := `
data_dir = "/srv/energy"

[pipeline]
target_frequency = "1h"

[api]
listen_port = 8080
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, time.Hour, cfg.TargetStep())
	assert.Equal(t, "0.0.0.0:8080", cfg.ListenAddr())
	assert.Equal(t, "merged/global.csv", cfg.Pipeline.Merged)
	assert.Equal(t, filepath.Join("/srv/energy", "merged", "global.csv"), cfg.Path(cfg.Pipeline.Merged))
	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.Database.Enabled)
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"bad frequency": "[pipeline]\ntarget_frequency = \"fortnightly\"\n",
		"bad port":      "[api]\nlisten_port = 70000\n",
		"bad level":     "[log]\nlevel = \"loud\"\n",
		"bad interval":  "[pipeline]\nreload_interval = \"soon\"\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "reconciler.toml")
			require.NoError(t, os.WriteFile(path, []byte(content), 0644))
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestReloadInterval_ZeroDisables(t *testing.T) {
	cfg, err := Default()
	require.NoError(t, err)
	cfg.Pipeline.ReloadInterval = "0"
	d, err := cfg.ReloadInterval()
	require.NoError(t, err)
	assert.Zero(t, d)
}
