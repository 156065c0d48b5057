// Package cohort groups compute jobs into fixed-size aggregation cohorts.
// Each cohort owns one combine job that consumes the declared outputs of
// every member. Cohort boundaries are purely positional, by count of jobs
// seen in ticket order, never by content or output size.
package cohort

import (
	"fmt"

	"github.com/vk/toygrid/internal/catalog"
	"github.com/vk/toygrid/internal/job"
)

// state is the aggregator's position in the ticket stream.
type state int

const (
	// awaitingCohort: no cohort is open; the next member opens one.
	awaitingCohort state = iota
	// midCohort: a cohort is open and accepting members.
	midCohort
)

// ArchiveName is the logical name of a cohort's combined output tarball.
func ArchiveName(workflowID string, index int) string {
	return fmt.Sprintf("%s-%d-combined_output.tar.gz", workflowID, index)
}

// Tag is the composite workflow/cohort identifier the combine wrapper
// receives as its sole argument.
func Tag(workflowID string, index int) string {
	return fmt.Sprintf("%s-%d", workflowID, index)
}

// Aggregator assigns compute jobs to cohorts in arrival order and builds one
// combine job per cohort. It is not safe for concurrent use; workflow
// assembly is strictly sequential.
type Aggregator struct {
	workflowID string
	size       int
	factory    *job.Factory

	cores    int
	memoryMB int
	diskMB   int

	st      state
	index   int
	members int
	current *job.Job
	created int
}

// New returns an aggregator that closes a cohort after size members. The
// resource figures are for the combine jobs it creates.
func New(workflowID string, size int, factory *job.Factory, cores, memoryMB, diskMB int) (*Aggregator, error) {
	if size <= 0 {
		return nil, fmt.Errorf("cohort size must be positive, got %d", size)
	}
	return &Aggregator{
		workflowID: workflowID,
		size:       size,
		factory:    factory,
		cores:      cores,
		memoryMB:   memoryMB,
		diskMB:     diskMB,
	}, nil
}

// Assign wires the compute job's declared outputs into the currently open
// cohort's combine job, opening a new cohort first when none is open. It
// returns the cohort's combine job and whether this call created it, so the
// caller can insert the combine job into the graph ahead of its members.
func (a *Aggregator) Assign(member *job.Job) (combine *job.Job, opened bool) {
	if a.st == awaitingCohort {
		a.open()
		opened = true
	}

	for _, out := range member.Outputs {
		a.current.AddInputs(out.LFN)
	}

	a.members++
	if a.members == a.size {
		a.close()
	}
	return a.currentOrLast(), opened
}

// open starts cohort a.index: one combine job whose sole declared output is
// the cohort archive and whose argument is the cohort tag.
func (a *Aggregator) open() {
	combine := a.factory.Create(catalog.Combine, a.cores, a.memoryMB, a.diskMB, false)
	combine.AddOutput(ArchiveName(a.workflowID, a.index), true)
	combine.AddArgs(Tag(a.workflowID, a.index))

	a.current = combine
	a.created++
	a.st = midCohort
}

// close seals the current cohort; the next member opens the next one.
func (a *Aggregator) close() {
	a.st = awaitingCohort
	a.index++
	a.members = 0
}

// currentOrLast returns the combine job members were just wired into, even
// when the cohort closed within the same Assign call.
func (a *Aggregator) currentOrLast() *job.Job {
	return a.current
}

// Created reports how many combine jobs have been built so far.
func (a *Aggregator) Created() int {
	return a.created
}
