// Package submit drives a submission end to end: preflight checks, staging
// artifact generation, workflow assembly, and the hand-off to the backend
// planner with the fixed clustering/cleanup/placement policy.
package submit

import (
	"path/filepath"

	"github.com/vk/toygrid/internal/template"
)

// Layout is the on-disk directory tree of one workflow run.
type Layout struct {
	WorkflowID string
	// GeneratedDir holds the serialized workflow, the packed template
	// archive, and the rewritten model config.
	GeneratedDir string
	// RunsDir holds the planner's submission artifacts.
	RunsDir string
	// OutputsDir receives the staged-out results.
	OutputsDir string
	// ScratchDir is the planner's shared scratch on the submit host.
	ScratchDir string
}

// NewLayout derives the run directory tree for a workflow ID under workdir.
func NewLayout(workdir, workflowID string) Layout {
	return Layout{
		WorkflowID:   workflowID,
		GeneratedDir: filepath.Join(workdir, "generated", workflowID),
		RunsDir:      filepath.Join(workdir, "runs", workflowID),
		OutputsDir:   filepath.Join(workdir, "outputs", workflowID),
		ScratchDir:   filepath.Join(workdir, "scratch", workflowID),
	}
}

// WorkflowFile is the serialized workflow description path.
func (l Layout) WorkflowFile() string {
	return filepath.Join(l.GeneratedDir, "workflow.yml")
}

// TemplateTarball is the packed template archive path.
func (l Layout) TemplateTarball() string {
	return filepath.Join(l.GeneratedDir, template.ArchiveName)
}
