package catalog

import "strconv"

// Transformation names. RunToymcWrapper runs one ticket; Combine collects
// one cohort's outputs.
const (
	RunToymcWrapper = "run_toymc_wrapper"
	Combine         = "combine"
)

// Transformation is one executable identity used by the workflow.
type Transformation struct {
	Name      string    `yaml:"name"`
	Site      string    `yaml:"site"`
	PFN       string    `yaml:"pfn"`
	Stageable bool      `yaml:"stageable"`
	Arch      string    `yaml:"arch"`
	Profiles  []Profile `yaml:"profiles,omitempty"`
}

// TransformationCatalog lists every executable the workflow can dispatch.
type TransformationCatalog struct {
	Transformations []Transformation `yaml:"transformations"`
}

// BuildTransformations registers the two wrappers the workflow needs. The
// toy-MC wrapper is clustered so the planner may batch several logical jobs
// into one physical dispatch; the combine wrapper is not, since one combine
// job per cohort is already the unit of aggregation.
func BuildTransformations(runWrapperPFN, combinePFN string, clusterSize int) TransformationCatalog {
	runWrapper := Transformation{
		Name:      RunToymcWrapper,
		Site:      SiteLocal,
		PFN:       runWrapperPFN,
		Stageable: true,
		Arch:      "x86_64",
		Profiles: []Profile{
			{NamespacePegasus, "clusters.size", strconv.Itoa(clusterSize)},
		},
	}

	combine := Transformation{
		Name:      Combine,
		Site:      SiteLocal,
		PFN:       combinePFN,
		Stageable: true,
		Arch:      "x86_64",
	}

	return TransformationCatalog{Transformations: []Transformation{runWrapper, combine}}
}
