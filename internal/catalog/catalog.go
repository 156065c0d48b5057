// Package catalog builds the three declarative catalogs a workflow ships
// with: sites (where things run and where files live), transformations
// (which executables exist), and replicas (which physical file backs each
// logical file name). Catalogs are plain value objects, constructed once per
// workflow and handed to the serializer; nothing mutates them afterwards.
package catalog

// Namespaces for site and job profiles, mirroring the planner's vocabulary.
const (
	NamespaceEnv     = "env"
	NamespaceCondor  = "condor"
	NamespacePegasus = "pegasus"
)

// Profile is a single namespaced key/value attached to a site, a
// transformation, or a job.
type Profile struct {
	Namespace string `yaml:"namespace"`
	Key       string `yaml:"key"`
	Value     string `yaml:"value"`
}

// Catalogs bundles the three catalogs of one workflow.
type Catalogs struct {
	Sites           SiteCatalog
	Transformations TransformationCatalog
	Replicas        ReplicaCatalog
}
