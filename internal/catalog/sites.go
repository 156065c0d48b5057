package catalog

import (
	"fmt"
	"path"
)

// Site names referenced throughout the workflow. The submit host is "local",
// the wide-area staging endpoint is "staging", and the pool where compute
// jobs land is "condorpool".
const (
	SiteLocal      = "local"
	SiteStaging    = "staging"
	SiteCondorPool = "condorpool"
)

// Directory kinds, matching the planner's site-catalog schema.
const (
	DirSharedScratch = "sharedScratch"
	DirLocalStorage  = "localStorage"
)

// The container environment provides its own toolchain; the submit host has
// to reach the shared one on CVMFS.
const (
	cvmfsEnvRoot = "/cvmfs/xenon.opensciencegrid.org/releases/nT/development/anaconda"
	localPath    = cvmfsEnvRoot + "/envs/XENONnT_development/bin:" + cvmfsEnvRoot + "/condabin:/usr/bin:/bin"
	localLibPath = cvmfsEnvRoot + "/envs/XENONnT_development/lib64:" + cvmfsEnvRoot + "/envs/XENONnT_development/lib"
)

// FileServer is one access protocol for a directory.
type FileServer struct {
	URL       string `yaml:"url"`
	Operation string `yaml:"operation"`
}

// Directory is a storage directory attached to a site.
type Directory struct {
	Kind        string       `yaml:"type"`
	Path        string       `yaml:"path"`
	FileServers []FileServer `yaml:"fileServers"`
}

// Site is one logical execution context.
type Site struct {
	Name        string      `yaml:"name"`
	Directories []Directory `yaml:"directories,omitempty"`
	Profiles    []Profile   `yaml:"profiles,omitempty"`
}

// SiteCatalog lists every execution context of the workflow.
type SiteCatalog struct {
	Sites []Site `yaml:"sites"`
}

// SiteParams carries everything site construction needs from the run
// configuration and the environment.
type SiteParams struct {
	// WorkDir is the workflow working-directory root on the submit host.
	WorkDir string
	// WorkflowID names the per-run scratch/output subdirectories.
	WorkflowID string
	// User is the submitting user.
	User string
	// Home is the submitting user's home directory.
	Home string
	// ProxyPath is the validated X509 proxy credential file.
	ProxyPath string
	// SingularityImage is the container image compute jobs run inside.
	SingularityImage string
	// StagingURL is the wide-area transfer endpoint of the staging site.
	StagingURL string
	// StagingPath is the scratch root on the staging site; the user name is
	// appended.
	StagingPath string
}

// BuildSites constructs the site catalog: the local submit host with its
// scratch and storage directories and propagated environment, the remote
// staging endpoint, and the condor pool tagged with the container image.
func BuildSites(p SiteParams) SiteCatalog {
	local := Site{
		Name: SiteLocal,
		Directories: []Directory{
			{
				Kind: DirSharedScratch,
				Path: fmt.Sprintf("%s/scratch/%s", p.WorkDir, p.WorkflowID),
				FileServers: []FileServer{{
					URL:       fmt.Sprintf("file://%s/scratch/%s", p.WorkDir, p.WorkflowID),
					Operation: "all",
				}},
			},
			{
				Kind: DirLocalStorage,
				Path: fmt.Sprintf("%s/outputs/%s", p.WorkDir, p.WorkflowID),
				FileServers: []FileServer{{
					URL:       fmt.Sprintf("file://%s/outputs/%s", p.WorkDir, p.WorkflowID),
					Operation: "all",
				}},
			},
		},
		Profiles: []Profile{
			{NamespaceEnv, "HOME", p.Home},
			{NamespaceEnv, "GLOBUS_LOCATION", ""},
			{NamespaceEnv, "PATH", localPath},
			{NamespaceEnv, "LD_LIBRARY_PATH", localLibPath},
			{NamespaceEnv, "PEGASUS_SUBMITTING_USER", p.User},
			{NamespaceEnv, "X509_USER_PROXY", p.ProxyPath},
		},
	}

	stagingScratch := path.Join(p.StagingPath, p.User)
	staging := Site{
		Name: SiteStaging,
		Directories: []Directory{
			{
				Kind: DirSharedScratch,
				Path: stagingScratch,
				FileServers: []FileServer{{
					URL:       p.StagingURL + stagingScratch,
					Operation: "all",
				}},
			},
		},
	}

	condorpool := Site{
		Name: SiteCondorPool,
		Profiles: []Profile{
			{NamespacePegasus, "style", "condor"},
			{NamespaceCondor, "universe", "vanilla"},
			{NamespaceCondor, "+SingularityImage", fmt.Sprintf("%q", p.SingularityImage)},
			// The container sets up its own environment; blank out whatever
			// the worker node advertises.
			{NamespaceEnv, "OSG_LOCATION", ""},
			{NamespaceEnv, "GLOBUS_LOCATION", ""},
			{NamespaceEnv, "PYTHONPATH", ""},
			{NamespaceEnv, "PERL5LIB", ""},
			{NamespaceEnv, "LD_LIBRARY_PATH", ""},
			{NamespaceEnv, "PEGASUS_SUBMITTING_USER", p.User},
			{NamespaceCondor, "x509userproxy", p.ProxyPath},
		},
	}

	return SiteCatalog{Sites: []Site{local, staging, condorpool}}
}

// Requirements renders the placement predicate every compute job carries:
// container support, the shared CVMFS filesystem, open service ports, and a
// minimum microarchitecture. In debug mode jobs are pinned to the MWT2 pool.
func Requirements(debug bool) string {
	req := `HAS_SINGULARITY && HAS_CVMFS_xenon_opensciencegrid_org` +
		` && PORT_2880 && PORT_8000 && PORT_27017` +
		` && (Microarch >= "x86_64-v3")`
	if debug {
		req += ` && GLIDEIN_ResourceName == "MWT2" `
	}
	return req
}
