// Package runconfig loads the HCL run configuration that drives a
// submission: one settings block with the global knobs and an ordered list
// of ticket blocks, each carrying a single toy-MC run command produced by
// the run-request generator.
package runconfig

import (
	"context"
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/vk/toygrid/internal/ctxlog"
)

// Defaults applied to unset settings.
const (
	DefaultSingularityImage = "/cvmfs/singularity.opensciencegrid.org/xenonnt/base-environment:latest"
	DefaultStagingURL       = "gsidavs://xenon-gridftp.grid.uchicago.edu:2880"
	DefaultStagingPath      = "/xenon/scratch"

	DefaultCombineNOutputs = 100
	DefaultCombineNJobs    = 1
	DefaultClusterSize     = 1
	DefaultRequestCPUs     = 1
	DefaultRequestMemoryMB = 2000
	DefaultRequestDiskMB   = 2000000
	DefaultCombineDiskMB   = 20000000
	DefaultDagmanRetry     = 2
	DefaultDagmanMaxIdle   = 100000
	DefaultDagmanMaxJobs   = 100000
)

// Ticket is one run request, consumed in file order.
type Ticket struct {
	Command string `hcl:"command"`
}

// Settings holds the global submission knobs.
type Settings struct {
	// Workdir is the root under which generated/, runs/, outputs/ and
	// scratch/ trees are created. Defaults to /scratch/<user>/workflows.
	Workdir string `hcl:"workdir,optional"`
	// TemplatePath is the local directory holding the model templates.
	TemplatePath string `hcl:"template_path,optional"`
	// StatisticalModelConfig is the local model config YAML.
	StatisticalModelConfig string `hcl:"statistical_model_config,optional"`
	// RunToymcWrapper and CombineScript are the two wrapper executables
	// registered in the transformation catalog; ToymcBinary is the toy-MC
	// program itself, staged as a plain input.
	RunToymcWrapper string `hcl:"run_toymc_wrapper,optional"`
	CombineScript   string `hcl:"combine_script,optional"`
	ToymcBinary     string `hcl:"toymc_binary,optional"`

	SingularityImage string `hcl:"singularity_image,optional"`
	StagingURL       string `hcl:"staging_url,optional"`
	StagingPath      string `hcl:"staging_path,optional"`

	// WorkflowID is an optional operator-chosen name; combined with the
	// computation tag and a timestamp it names the whole run. When unset
	// the timestamp alone is used.
	WorkflowID  string `hcl:"workflow_id,optional"`
	Computation string `hcl:"computation,optional"`
	// OutputFolder is accepted for compatibility with local running but is
	// not used by grid submission; a warning points operators at the real
	// output location.
	OutputFolder string `hcl:"outputfolder,optional"`

	CombineNOutputs int  `hcl:"combine_n_outputs,optional"`
	CombineNJobs    *int `hcl:"combine_n_jobs,optional"`
	ClusterSize     int  `hcl:"cluster_size,optional"`

	RequestCPUs     int `hcl:"request_cpus,optional"`
	RequestMemoryMB int `hcl:"request_memory,optional"`
	RequestDiskMB   int `hcl:"request_disk,optional"`
	CombineDiskMB   int `hcl:"combine_disk,optional"`

	DagmanRetry   int `hcl:"dagman_retry,optional"`
	DagmanMaxIdle int `hcl:"dagman_maxidle,optional"`
	DagmanMaxJobs int `hcl:"dagman_maxjobs,optional"`

	Debug bool `hcl:"debug,optional"`
}

// Config is a fully loaded run configuration.
type Config struct {
	Settings *Settings `hcl:"settings,block"`
	Tickets  []Ticket  `hcl:"ticket,block"`
}

// Load parses and validates the run configuration at path, filling defaults
// for everything the operator left unset.
func Load(ctx context.Context, path string) (*Config, error) {
	logger := ctxlog.FromContext(ctx)

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("parsing run configuration %s: %w", path, diags)
	}

	var cfg Config
	if diags := gohcl.DecodeBody(file.Body, nil, &cfg); diags.HasErrors() {
		return nil, fmt.Errorf("decoding run configuration %s: %w", path, diags)
	}
	if cfg.Settings == nil {
		return nil, fmt.Errorf("run configuration %s has no settings block", path)
	}

	cfg.Settings.applyDefaults()
	if err := cfg.Settings.validate(); err != nil {
		return nil, fmt.Errorf("run configuration %s: %w", path, err)
	}

	logger.Debug("Run configuration loaded.", "path", path, "tickets", len(cfg.Tickets))
	return &cfg, nil
}

func (s *Settings) applyDefaults() {
	if s.Workdir == "" {
		s.Workdir = fmt.Sprintf("/scratch/%s/workflows", os.Getenv("USER"))
	}
	if s.SingularityImage == "" {
		s.SingularityImage = DefaultSingularityImage
	}
	if s.StagingURL == "" {
		s.StagingURL = DefaultStagingURL
	}
	if s.StagingPath == "" {
		s.StagingPath = DefaultStagingPath
	}
	if s.CombineNOutputs == 0 {
		s.CombineNOutputs = DefaultCombineNOutputs
	}
	if s.CombineNJobs == nil {
		n := DefaultCombineNJobs
		s.CombineNJobs = &n
	}
	if s.ClusterSize == 0 {
		s.ClusterSize = DefaultClusterSize
	}
	if s.RequestCPUs == 0 {
		s.RequestCPUs = DefaultRequestCPUs
	}
	if s.RequestMemoryMB == 0 {
		s.RequestMemoryMB = DefaultRequestMemoryMB
	}
	if s.RequestDiskMB == 0 {
		s.RequestDiskMB = DefaultRequestDiskMB
	}
	if s.CombineDiskMB == 0 {
		s.CombineDiskMB = DefaultCombineDiskMB
	}
	if s.DagmanRetry == 0 {
		s.DagmanRetry = DefaultDagmanRetry
	}
	if s.DagmanMaxIdle == 0 {
		s.DagmanMaxIdle = DefaultDagmanMaxIdle
	}
	if s.DagmanMaxJobs == 0 {
		s.DagmanMaxJobs = DefaultDagmanMaxJobs
	}
}

// validate rejects configurations missing required path settings, before
// any directory or catalog is created.
func (s *Settings) validate() error {
	switch {
	case s.TemplatePath == "":
		return fmt.Errorf("template_path is required")
	case s.StatisticalModelConfig == "":
		return fmt.Errorf("statistical_model_config is required")
	case s.RunToymcWrapper == "":
		return fmt.Errorf("run_toymc_wrapper is required")
	case s.CombineScript == "":
		return fmt.Errorf("combine_script is required")
	case s.ToymcBinary == "":
		return fmt.Errorf("toymc_binary is required")
	}
	return nil
}
