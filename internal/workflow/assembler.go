package workflow

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/vk/toygrid/internal/catalog"
	"github.com/vk/toygrid/internal/cohort"
	"github.com/vk/toygrid/internal/ctxlog"
	"github.com/vk/toygrid/internal/job"
	"github.com/vk/toygrid/internal/runconfig"
	"github.com/vk/toygrid/internal/template"
	"github.com/vk/toygrid/internal/ticket"
)

// Params carries everything workflow assembly needs; all paths are local
// and must exist by the time jobs reference them.
type Params struct {
	Settings *runconfig.Settings
	Tickets  []runconfig.Ticket

	// WorkflowID names this run's directory tree and cohort archives.
	WorkflowID string
	// RunConfigPath is the run configuration file, staged to every job.
	RunConfigPath string
	// ModelConfigPath is the path-corrected statistical model config in the
	// generated directory.
	ModelConfigPath string
	// TemplateTarball is the packed template archive in the generated
	// directory.
	TemplateTarball string
	// ProxyPath is the validated X509 proxy credential.
	ProxyPath string
	// User and Home describe the submitting user for site profiles.
	User string
	Home string
}

// Assembler turns the ticket sequence into a Graph. It is single-use: one
// assembler per submission.
type Assembler struct {
	p Params

	replicas *catalog.ReplicaBuilder
	factory  *job.Factory
	agg      *cohort.Aggregator

	// sharedInputs are staged into every compute job's working directory.
	sharedInputs []string
	// limitThresholdLFN is set once the first ticket registers a
	// limit-threshold file; from then on every job stages it.
	limitThresholdLFN string
	// stagedOutputs tracks every declared output name; the remote staging
	// area is flat, so a repeated name would overwrite another job's result.
	stagedOutputs map[string]struct{}
}

// NewAssembler returns an assembler over the given parameters.
func NewAssembler(p Params) *Assembler {
	return &Assembler{p: p, stagedOutputs: make(map[string]struct{})}
}

// Assemble builds the complete job graph. It fails fast: configuration
// errors surface before any catalog is constructed, and any per-ticket error
// aborts the whole build with no partial graph returned.
func (a *Assembler) Assemble(ctx context.Context) (*Graph, error) {
	logger := ctxlog.FromContext(ctx)
	s := a.p.Settings

	// Output aggregation supports exactly one flat level: cohorts of
	// outputs. Native per-job combination would nest a second level.
	if s.CombineNJobs == nil || *s.CombineNJobs != 1 {
		return nil, fmt.Errorf("this submitter cannot combine jobs, only outputs; set combine_n_jobs to 1")
	}

	g := &Graph{Name: Name, ID: a.p.WorkflowID}

	g.Catalogs.Sites = catalog.BuildSites(catalog.SiteParams{
		WorkDir:          s.Workdir,
		WorkflowID:       a.p.WorkflowID,
		User:             a.p.User,
		Home:             a.p.Home,
		ProxyPath:        a.p.ProxyPath,
		SingularityImage: s.SingularityImage,
		StagingURL:       s.StagingURL,
		StagingPath:      s.StagingPath,
	})
	g.Catalogs.Transformations = catalog.BuildTransformations(
		s.RunToymcWrapper, s.CombineScript, s.ClusterSize)

	if err := a.registerCoreReplicas(); err != nil {
		return nil, err
	}

	a.factory = &job.Factory{Requirements: catalog.Requirements(s.Debug)}

	agg, err := cohort.New(a.p.WorkflowID, s.CombineNOutputs, a.factory,
		s.RequestCPUs, s.RequestMemoryMB*2, s.CombineDiskMB)
	if err != nil {
		return nil, err
	}
	a.agg = agg

	for i, tk := range a.p.Tickets {
		if err := a.addTicket(ctx, g, i, tk.Command); err != nil {
			return nil, err
		}
	}

	g.Catalogs.Replicas = a.replicas.Catalog()

	logger.Info("Workflow assembled.",
		"workflow_id", a.p.WorkflowID,
		"compute_jobs", len(a.p.Tickets),
		"combine_jobs", a.agg.Created())
	return g, nil
}

// registerCoreReplicas maps every workflow-wide logical input to its local
// physical file. Missing files fail here, before any job exists.
func (a *Assembler) registerCoreReplicas() error {
	s := a.p.Settings
	a.replicas = catalog.NewReplicaBuilder()
	a.sharedInputs = nil

	for _, r := range []struct {
		lfn  string
		path string
	}{
		{template.ArchiveName, a.p.TemplateTarball},
		{filepath.Base(a.p.RunConfigPath), a.p.RunConfigPath},
		{filepath.Base(a.p.ModelConfigPath), a.p.ModelConfigPath},
		{filepath.Base(s.RunToymcWrapper), s.RunToymcWrapper},
		{filepath.Base(s.ToymcBinary), s.ToymcBinary},
		{filepath.Base(s.CombineScript), s.CombineScript},
	} {
		if err := a.replicas.AddLocal(r.lfn, r.path); err != nil {
			return err
		}
		a.sharedInputs = append(a.sharedInputs, r.lfn)
	}
	return nil
}

// addTicket processes one ticket: rewrite paths, validate the toy-data mode,
// build the compute job, wire it into the open cohort, and append both to
// the graph in cohort-first order.
func (a *Assembler) addTicket(ctx context.Context, g *Graph, index int, command string) error {
	logger := ctxlog.FromContext(ctx)
	s := a.p.Settings

	tk, err := ticket.Parse(command)
	if err != nil {
		return err
	}

	// The threshold file is shared by every ticket that references it;
	// register it once and stage it into all subsequent jobs.
	if lt := tk.Args.ModelArgs.LimitThreshold; lt != "" && a.limitThresholdLFN == "" {
		lfn := filepath.Base(lt)
		if err := a.replicas.AddLocal(lfn, lt); err != nil {
			return err
		}
		a.limitThresholdLFN = lfn
	}

	args := ticket.Rewrite(tk.Args, filepath.Base(a.p.ModelConfigPath))

	if err := args.ValidateMode(); err != nil {
		return err
	}

	logger.Info("Adding job to the workflow.", "job", index)
	logger.Debug("Ticket decoded.",
		"executable", tk.Executable,
		"output", args.OutputFilename,
		"toydata", args.ToydataFilename)

	j := a.factory.Create(catalog.RunToymcWrapper,
		s.RequestCPUs, s.RequestMemoryMB, s.RequestDiskMB, false)

	j.AddInputs(a.sharedInputs...)
	if a.limitThresholdLFN != "" {
		j.AddInputs(a.limitThresholdLFN)
	}

	if err := a.declareOutput(j, args.OutputFilename); err != nil {
		return err
	}
	if args.StoresToydata() {
		if err := a.declareOutput(j, args.ToydataFilename); err != nil {
			return err
		}
	}

	j.AddArgs(args.Argv()...)

	combineJob, opened := a.agg.Assign(j)
	if opened {
		logger.Info("Adding combine job to the workflow.", "cohort", a.agg.Created()-1)
		g.Jobs = append(g.Jobs, combineJob)
	}
	g.Jobs = append(g.Jobs, j)
	return nil
}

// declareOutput registers an output on the job, rejecting names that are
// already produced elsewhere in the workflow.
func (a *Assembler) declareOutput(j *job.Job, lfn string) error {
	if _, dup := a.stagedOutputs[lfn]; dup {
		return fmt.Errorf("output file name %q is not unique across the workflow", lfn)
	}
	a.stagedOutputs[lfn] = struct{}{}
	j.AddOutput(lfn, false)
	return nil
}
