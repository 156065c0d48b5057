package job

import (
	"fmt"

	"github.com/vk/toygrid/internal/catalog"
)

// ScaledRequest is the retry-escalation policy for memory and disk: the
// first attempt runs with the configured base, every retry n runs with
// (n+1) times the base. A job that died out-of-memory therefore comes back
// with proportionally more room instead of the whole workflow over-requesting
// up front and queueing longer on every job.
func ScaledRequest(base, attempt int) int {
	if attempt <= 0 {
		return base
	}
	return (attempt + 1) * base
}

// RetryExpression renders ScaledRequest as a classad expression evaluated by
// the scheduler itself, keyed on how often the node has been retried.
func RetryExpression(base int) string {
	return fmt.Sprintf(
		"ifthenelse(isundefined(DAGNodeRetry) || DAGNodeRetry == 0, %d, (DAGNodeRetry + 1) * %d)",
		base, base)
}

// Factory stamps out jobs with uniform placement requirements. The zero
// value is unusable; fill Requirements from catalog.Requirements.
type Factory struct {
	// Requirements is the placement predicate attached to every pool job.
	Requirements string

	sequence int
}

// Create builds one job. Memory and disk are in MB. Jobs pinned to the
// submit host get only the core-count profile; pool jobs get the
// retry-escalating memory/disk expressions plus the placement requirements.
func (f *Factory) Create(transformation string, cores, memoryMB, diskMB int, runOnSubmitHost bool) *Job {
	f.sequence++
	j := &Job{
		ID:             fmt.Sprintf("ID%07d", f.sequence),
		Transformation: transformation,
		Profiles: []catalog.Profile{
			{Namespace: catalog.NamespaceCondor, Key: "request_cpus", Value: fmt.Sprintf("%d", cores)},
		},
	}

	if runOnSubmitHost {
		j.ExecutionSite = catalog.SiteLocal
		// no other attributes on a local job
		return j
	}

	j.Profiles = append(j.Profiles,
		catalog.Profile{Namespace: catalog.NamespaceCondor, Key: "request_memory", Value: RetryExpression(memoryMB)},
		catalog.Profile{Namespace: catalog.NamespaceCondor, Key: "request_disk", Value: RetryExpression(diskMB)},
		catalog.Profile{Namespace: catalog.NamespaceCondor, Key: "requirements", Value: f.Requirements},
	)
	return j
}
