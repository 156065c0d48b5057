package app

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeRunConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "run_config.hcl")
	require.NoError(t, os.WriteFile(path, []byte(`
settings {
  template_path            = "/data/templates"
  statistical_model_config = "/data/model.yaml"
  run_toymc_wrapper        = "/opt/toygrid/scripts/run_toymc_wrapper.sh"
  combine_script           = "/opt/toygrid/scripts/combine.sh"
  toymc_binary             = "/opt/toygrid/bin/toygrid_run_toymc"
  workflow_id              = "from_file"
}
`), 0o644))
	return path
}

func TestNewAppLoadsRunConfig(t *testing.T) {
	var out bytes.Buffer
	a, err := NewApp(&out, &Config{
		RunConfigPath: writeRunConfig(t),
		LogFormat:     "text",
		LogLevel:      "info",
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "from_file", a.runCfg.Settings.WorkflowID)
	assert.False(t, a.runCfg.Settings.Debug)
}

func TestNewAppAppliesOverrides(t *testing.T) {
	var out bytes.Buffer
	a, err := NewApp(&out, &Config{
		RunConfigPath: writeRunConfig(t),
		WorkflowID:    "from_cli",
		Computation:   "discovery",
		Workdir:       "/elsewhere",
		Debug:         true,
		LogFormat:     "text",
		LogLevel:      "info",
	}, nil)
	require.NoError(t, err)

	s := a.runCfg.Settings
	assert.Equal(t, "from_cli", s.WorkflowID)
	assert.Equal(t, "discovery", s.Computation)
	assert.Equal(t, "/elsewhere", s.Workdir)
	assert.True(t, s.Debug)
}

func TestNewAppFailsOnBadRunConfig(t *testing.T) {
	var out bytes.Buffer
	_, err := NewApp(&out, &Config{
		RunConfigPath: filepath.Join(t.TempDir(), "missing.hcl"),
		LogFormat:     "text",
		LogLevel:      "info",
	}, nil)
	require.Error(t, err)
}

func TestNewConfig(t *testing.T) {
	_, err := NewConfig(Config{})
	require.Error(t, err)

	cfg, err := NewConfig(Config{RunConfigPath: "run.hcl"})
	require.NoError(t, err)
	assert.Equal(t, "run.hcl", cfg.RunConfigPath)
}
