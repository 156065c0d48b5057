package workflow

import (
	"fmt"
	"strings"
)

// DOT renders the job graph in Graphviz format for inspection in debug
// mode. Edges run from each producing job to every job consuming one of its
// outputs, which in this workflow means from compute jobs to their combine
// job.
func DOT(g *Graph) string {
	producers := make(map[string]string)
	for _, j := range g.Jobs {
		for _, out := range j.Outputs {
			producers[out.LFN] = j.ID
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "digraph %q {\n", g.ID)
	for _, j := range g.Jobs {
		fmt.Fprintf(&b, "  %q [label=%q];\n", j.ID, j.Transformation+"_"+j.ID)
	}
	for _, j := range g.Jobs {
		seen := make(map[string]struct{})
		for _, in := range j.Inputs {
			producer, ok := producers[in]
			if !ok || producer == j.ID {
				continue
			}
			if _, dup := seen[producer]; dup {
				continue
			}
			seen[producer] = struct{}{}
			fmt.Fprintf(&b, "  %q -> %q;\n", producer, j.ID)
		}
	}
	b.WriteString("}\n")
	return b.String()
}
