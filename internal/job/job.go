// Package job models a single unit of remote execution and the factory that
// stamps out jobs with the right resource and placement profiles.
package job

import "github.com/vk/toygrid/internal/catalog"

// Output is a file a job declares it will produce. StageOut marks files that
// must be persisted to the output site rather than left in scratch.
type Output struct {
	LFN      string
	StageOut bool
}

// Job is one unit of remote execution: an executable identity plus resource
// requests, placement constraints, declared inputs/outputs, and the argument
// vector handed to the executable.
type Job struct {
	// ID uniquely identifies the job inside its workflow.
	ID string
	// Transformation names the executable registered in the transformation
	// catalog.
	Transformation string
	// Profiles carries condor resource requests and requirements.
	Profiles []catalog.Profile
	// ExecutionSite pins the job to one site; empty means the planner picks.
	ExecutionSite string
	// Inputs are logical names of files staged into the working directory.
	Inputs []string
	// Outputs are logical names of files the job produces.
	Outputs []Output
	// Args is the argument vector passed to the executable.
	Args []string
}

// AddInputs declares input files by logical name.
func (j *Job) AddInputs(lfns ...string) {
	j.Inputs = append(j.Inputs, lfns...)
}

// AddOutput declares an output file by logical name.
func (j *Job) AddOutput(lfn string, stageOut bool) {
	j.Outputs = append(j.Outputs, Output{LFN: lfn, StageOut: stageOut})
}

// AddArgs appends to the job's argument vector.
func (j *Job) AddArgs(args ...string) {
	j.Args = append(j.Args, args...)
}
