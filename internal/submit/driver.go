package submit

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/vk/toygrid/internal/ctxlog"
	"github.com/vk/toygrid/internal/modelcfg"
	"github.com/vk/toygrid/internal/proxy"
	"github.com/vk/toygrid/internal/runconfig"
	"github.com/vk/toygrid/internal/shell"
	"github.com/vk/toygrid/internal/template"
	"github.com/vk/toygrid/internal/workflow"
)

// ErrRunExists indicates the target run directory is already occupied.
// Submissions never resume or overwrite; the operator has to pick a fresh
// workflow ID or clean up manually.
var ErrRunExists = errors.New("workflow run directory already exists")

// ProxyValidator checks the grid credential and returns its path.
type ProxyValidator interface {
	Validate(ctx context.Context) (string, error)
}

// Driver performs one submission from a loaded run configuration.
type Driver struct {
	cfg           *runconfig.Config
	runConfigPath string
	planner       Planner
	proxy         ProxyValidator

	// Now is the clock used for workflow IDs. Defaults to time.Now.
	Now func() time.Time
	// Run executes auxiliary commands (graph rendering). Defaults to
	// shell.Run.
	Run func(ctx context.Context, cmd shell.Command) (*shell.Result, error)
}

// NewDriver wires a driver. The planner and proxy validator are injected so
// tests can substitute recording fakes.
func NewDriver(cfg *runconfig.Config, runConfigPath string, planner Planner, proxyValidator ProxyValidator) *Driver {
	if proxyValidator == nil {
		proxyValidator = &proxy.Validator{}
	}
	return &Driver{
		cfg:           cfg,
		runConfigPath: runConfigPath,
		planner:       planner,
		proxy:         proxyValidator,
		Now:           time.Now,
		Run:           shell.Run,
	}
}

// Submit runs the whole pipeline: preflight checks, artifact generation,
// workflow assembly, serialization, and the planner call. Any failure aborts
// with no partial submission; the only side effects of a failed run are log
// output and whatever directories were already created.
func (d *Driver) Submit(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)
	s := d.cfg.Settings

	workflowID := workflow.ID(s.WorkflowID, s.Computation, d.Now())
	layout := NewLayout(s.Workdir, workflowID)

	if _, err := os.Stat(layout.RunsDir); err == nil {
		return fmt.Errorf("%w at %s", ErrRunExists, layout.RunsDir)
	}

	proxyPath, err := d.proxy.Validate(ctx)
	if err != nil {
		return err
	}

	for _, dir := range []string{layout.GeneratedDir, layout.RunsDir, layout.OutputsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating run directory %s: %w", dir, err)
		}
	}

	modelConfigPath, err := modelcfg.Rewrite(ctx, s.StatisticalModelConfig, layout.GeneratedDir)
	if err != nil {
		return err
	}

	if err := template.Validate(ctx, s.TemplatePath); err != nil {
		return err
	}
	if err := template.CheckUnique(s.TemplatePath); err != nil {
		return err
	}
	if _, err := template.Pack(ctx, s.TemplatePath, layout.TemplateTarball()); err != nil {
		return err
	}

	asm := workflow.NewAssembler(workflow.Params{
		Settings:        s,
		Tickets:         d.cfg.Tickets,
		WorkflowID:      workflowID,
		RunConfigPath:   d.runConfigPath,
		ModelConfigPath: modelConfigPath,
		TemplateTarball: layout.TemplateTarball(),
		ProxyPath:       proxyPath,
		User:            os.Getenv("USER"),
		Home:            os.Getenv("HOME"),
	})
	graph, err := asm.Assemble(ctx)
	if err != nil {
		return err
	}

	if err := workflow.Write(ctx, graph, layout.WorkflowFile()); err != nil {
		return err
	}

	if err := d.planner.Plan(ctx, NewPlanRequest(s, layout)); err != nil {
		return err
	}
	logger.Info("Workflow planned.", "runs_dir", layout.RunsDir, "submitted", !s.Debug)

	if s.Debug {
		d.renderGraph(ctx, graph, layout)
	}

	if s.OutputFolder != "" {
		logger.Warn("The outputfolder in the run configuration won't be used in this submission.",
			"configured", s.OutputFolder)
	}
	logger.Warn("Find your outputs under the workflow output directory.", "outputs_dir", layout.OutputsDir)
	return nil
}

// renderGraph writes the DOT description of the job graph and, when
// graphviz is available, an SVG next to it. Rendering is diagnostics only;
// failures are logged, never fatal.
func (d *Driver) renderGraph(ctx context.Context, graph *workflow.Graph, layout Layout) {
	logger := ctxlog.FromContext(ctx)

	dotPath := filepath.Join(layout.OutputsDir, "workflow_graph.dot")
	if err := os.WriteFile(dotPath, []byte(workflow.DOT(graph)), 0o644); err != nil {
		logger.Warn("Could not write workflow graph.", "path", dotPath, "error", err)
		return
	}

	svgPath := filepath.Join(layout.OutputsDir, "workflow_graph.svg")
	if _, err := d.Run(ctx, shell.Command{
		Binary:  "dot",
		Args:    []string{"-Tsvg", "-o", svgPath, dotPath},
		Timeout: time.Minute,
	}); err != nil {
		logger.Warn("Could not render workflow graph to SVG.", "error", err)
	}
}
