// Package workflow assembles the complete job graph for one submission: it
// iterates the ticket sequence, rewrites paths, builds compute jobs and
// their aggregation cohorts, attaches the three catalogs, and serializes the
// result into the workflow description the planner consumes.
package workflow

import (
	"strings"
	"time"

	"github.com/vk/toygrid/internal/catalog"
	"github.com/vk/toygrid/internal/job"
)

// Name is the workflow name recorded in the serialized description.
const Name = "toygrid_workflow"

// Graph is the complete set of jobs plus the catalog triple.
type Graph struct {
	Name     string
	ID       string
	Jobs     []*job.Job
	Catalogs catalog.Catalogs
}

// ID derives the workflow identifier that names the on-disk staging and
// output tree. An operator-chosen name is combined with the computation tag
// and a minute-resolution timestamp; otherwise the timestamp alone is used.
func ID(name, computation string, now time.Time) string {
	if name != "" {
		return strings.Join([]string{name, computation, now.Format("200601021504")}, "-")
	}
	return now.Format("2006-01-02-15-04-05")
}
