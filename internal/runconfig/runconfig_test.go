package runconfig

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalConfig = `
settings {
  template_path            = "/data/templates"
  statistical_model_config = "/data/model.yaml"
  run_toymc_wrapper        = "/opt/toygrid/scripts/run_toymc_wrapper.sh"
  combine_script           = "/opt/toygrid/scripts/combine.sh"
  toymc_binary             = "/opt/toygrid/bin/toygrid_run_toymc"
}

ticket {
  command = "runner /opt/toygrid/bin/toygrid_run_toymc --toydata_mode generate"
}

ticket {
  command = "runner /opt/toygrid/bin/toygrid_run_toymc --toydata_mode generate_and_store"
}
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "run_config.hcl")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(context.Background(), writeConfig(t, minimalConfig))
	require.NoError(t, err)

	s := cfg.Settings
	assert.Equal(t, "/data/templates", s.TemplatePath)
	assert.Equal(t, DefaultSingularityImage, s.SingularityImage)
	assert.Equal(t, DefaultStagingURL, s.StagingURL)
	assert.Equal(t, DefaultCombineNOutputs, s.CombineNOutputs)
	require.NotNil(t, s.CombineNJobs)
	assert.Equal(t, DefaultCombineNJobs, *s.CombineNJobs)
	assert.Equal(t, DefaultRequestMemoryMB, s.RequestMemoryMB)
	assert.Equal(t, DefaultRequestDiskMB, s.RequestDiskMB)
	assert.Equal(t, DefaultCombineDiskMB, s.CombineDiskMB)
	assert.Equal(t, DefaultDagmanRetry, s.DagmanRetry)
	assert.False(t, s.Debug)

	require.Len(t, cfg.Tickets, 2)
	assert.Contains(t, cfg.Tickets[0].Command, "--toydata_mode generate")
}

func TestLoadKeepsExplicitValues(t *testing.T) {
	cfg, err := Load(context.Background(), writeConfig(t, `
settings {
  template_path            = "/data/templates"
  statistical_model_config = "/data/model.yaml"
  run_toymc_wrapper        = "/w.sh"
  combine_script           = "/c.sh"
  toymc_binary             = "/b"
  combine_n_outputs        = 50
  combine_n_jobs           = 4
  request_memory           = 1700
  workflow_id              = "lq_migdal"
  computation              = "discovery"
  debug                    = true
}
`))
	require.NoError(t, err)

	s := cfg.Settings
	assert.Equal(t, 50, s.CombineNOutputs)
	assert.Equal(t, 4, *s.CombineNJobs)
	assert.Equal(t, 1700, s.RequestMemoryMB)
	assert.Equal(t, "lq_migdal", s.WorkflowID)
	assert.Equal(t, "discovery", s.Computation)
	assert.True(t, s.Debug)
	assert.Empty(t, cfg.Tickets)
}

func TestLoadErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(context.Background(), filepath.Join(t.TempDir(), "nope.hcl"))
		require.Error(t, err)
	})

	t.Run("invalid syntax", func(t *testing.T) {
		_, err := Load(context.Background(), writeConfig(t, "settings {"))
		require.Error(t, err)
	})

	t.Run("no settings block", func(t *testing.T) {
		_, err := Load(context.Background(), writeConfig(t, `ticket { command = "x" }`))
		require.Error(t, err)
	})

	t.Run("missing template_path", func(t *testing.T) {
		_, err := Load(context.Background(), writeConfig(t, `
settings {
  statistical_model_config = "/data/model.yaml"
  run_toymc_wrapper        = "/w.sh"
  combine_script           = "/c.sh"
  toymc_binary             = "/b"
}
`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "template_path")
	})
}
