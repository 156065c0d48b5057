package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSites(t *testing.T) {
	sc := BuildSites(SiteParams{
		WorkDir:          "/scratch/alice/workflows",
		WorkflowID:       "lq-2026-08-25",
		User:             "alice",
		Home:             "/home/alice",
		ProxyPath:        "/tmp/x509up_u1000",
		SingularityImage: "/cvmfs/singularity.opensciencegrid.org/env:latest",
		StagingURL:       "gsidavs://xenon-gridftp.grid.uchicago.edu:2880",
		StagingPath:      "/xenon/scratch",
	})

	require.Len(t, sc.Sites, 3)

	local := sc.Sites[0]
	assert.Equal(t, SiteLocal, local.Name)
	require.Len(t, local.Directories, 2)
	assert.Equal(t, DirSharedScratch, local.Directories[0].Kind)
	assert.Equal(t, "/scratch/alice/workflows/scratch/lq-2026-08-25", local.Directories[0].Path)
	assert.Equal(t, DirLocalStorage, local.Directories[1].Kind)
	assert.Equal(t, "/scratch/alice/workflows/outputs/lq-2026-08-25", local.Directories[1].Path)
	assert.Contains(t, local.Profiles, Profile{NamespaceEnv, "HOME", "/home/alice"})
	assert.Contains(t, local.Profiles, Profile{NamespaceEnv, "X509_USER_PROXY", "/tmp/x509up_u1000"})

	staging := sc.Sites[1]
	assert.Equal(t, SiteStaging, staging.Name)
	require.Len(t, staging.Directories, 1)
	assert.Equal(t, "/xenon/scratch/alice", staging.Directories[0].Path)
	assert.Equal(t,
		"gsidavs://xenon-gridftp.grid.uchicago.edu:2880/xenon/scratch/alice",
		staging.Directories[0].FileServers[0].URL)

	pool := sc.Sites[2]
	assert.Equal(t, SiteCondorPool, pool.Name)
	assert.Empty(t, pool.Directories)
	assert.Contains(t, pool.Profiles, Profile{NamespacePegasus, "style", "condor"})
	assert.Contains(t, pool.Profiles, Profile{NamespaceCondor, "universe", "vanilla"})
	assert.Contains(t, pool.Profiles,
		Profile{NamespaceCondor, "+SingularityImage", `"/cvmfs/singularity.opensciencegrid.org/env:latest"`})
	assert.Contains(t, pool.Profiles, Profile{NamespaceEnv, "PYTHONPATH", ""})
}

func TestRequirements(t *testing.T) {
	req := Requirements(false)
	assert.Contains(t, req, "HAS_SINGULARITY")
	assert.Contains(t, req, "HAS_CVMFS_xenon_opensciencegrid_org")
	assert.Contains(t, req, `Microarch >= "x86_64-v3"`)
	assert.NotContains(t, req, "MWT2")

	assert.Contains(t, Requirements(true), `GLIDEIN_ResourceName == "MWT2"`)
}

func TestBuildTransformations(t *testing.T) {
	tc := BuildTransformations("/opt/toygrid/scripts/run_toymc_wrapper.sh", "/opt/toygrid/scripts/combine.sh", 5)

	require.Len(t, tc.Transformations, 2)

	run := tc.Transformations[0]
	assert.Equal(t, RunToymcWrapper, run.Name)
	assert.Equal(t, SiteLocal, run.Site)
	assert.True(t, run.Stageable)
	assert.Contains(t, run.Profiles, Profile{NamespacePegasus, "clusters.size", "5"})

	combine := tc.Transformations[1]
	assert.Equal(t, Combine, combine.Name)
	assert.Empty(t, combine.Profiles)
}

func TestReplicaBuilder(t *testing.T) {
	dir := t.TempDir()
	threshold := filepath.Join(dir, "thresholds.json")
	require.NoError(t, os.WriteFile(threshold, []byte("{}"), 0o644))

	b := NewReplicaBuilder()

	t.Run("registration is idempotent", func(t *testing.T) {
		require.NoError(t, b.AddLocal("thresholds.json", threshold))
		require.NoError(t, b.AddLocal("thresholds.json", threshold))
		assert.True(t, b.Contains("thresholds.json"))

		rc := b.Catalog()
		require.Len(t, rc.Replicas, 1)
		assert.Equal(t, "thresholds.json", rc.Replicas[0].LFN)
		assert.Equal(t, SiteLocal, rc.Replicas[0].Site)
		assert.Equal(t, "file://"+threshold, rc.Replicas[0].PFN)
	})

	t.Run("missing physical file fails", func(t *testing.T) {
		err := b.AddLocal("ghost.h5", filepath.Join(dir, "ghost.h5"))
		require.Error(t, err)
		assert.False(t, b.Contains("ghost.h5"))
	})

	t.Run("catalog is sorted by lfn", func(t *testing.T) {
		other := filepath.Join(dir, "a_config.yaml")
		require.NoError(t, os.WriteFile(other, []byte("a: 1"), 0o644))
		require.NoError(t, b.AddLocal("a_config.yaml", other))

		rc := b.Catalog()
		require.Len(t, rc.Replicas, 2)
		assert.Equal(t, "a_config.yaml", rc.Replicas[0].LFN)
		assert.Equal(t, "thresholds.json", rc.Replicas[1].LFN)
	})
}
