package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Replica maps a logical file name to the physical file backing it.
type Replica struct {
	Site string `yaml:"site"`
	LFN  string `yaml:"lfn"`
	PFN  string `yaml:"pfn"`
}

// ReplicaCatalog is the finished, immutable set of replicas.
type ReplicaCatalog struct {
	Replicas []Replica `yaml:"replicas"`
}

// ReplicaBuilder accumulates replicas during workflow assembly. Insertion is
// idempotent per logical name: asking for the same LFN twice yields exactly
// one catalog entry, which is how the limit-threshold file can be referenced
// by every ticket but registered only once.
type ReplicaBuilder struct {
	replicas   []Replica
	registered map[string]struct{}
}

// NewReplicaBuilder returns an empty builder.
func NewReplicaBuilder() *ReplicaBuilder {
	return &ReplicaBuilder{registered: make(map[string]struct{})}
}

// AddLocal registers a local physical file under the given logical name.
// The file must exist; a dangling replica would only fail thousands of jobs
// later, so it fails the submission here instead.
func (b *ReplicaBuilder) AddLocal(lfn, physicalPath string) error {
	if _, ok := b.registered[lfn]; ok {
		return nil
	}

	if _, err := os.Stat(physicalPath); err != nil {
		return fmt.Errorf("replica %q: physical file %s is not accessible: %w", lfn, physicalPath, err)
	}

	abs, err := filepath.Abs(physicalPath)
	if err != nil {
		return fmt.Errorf("replica %q: %w", lfn, err)
	}

	b.registered[lfn] = struct{}{}
	b.replicas = append(b.replicas, Replica{
		Site: SiteLocal,
		LFN:  lfn,
		PFN:  "file://" + abs,
	})
	return nil
}

// Contains reports whether a logical name has already been registered.
func (b *ReplicaBuilder) Contains(lfn string) bool {
	_, ok := b.registered[lfn]
	return ok
}

// Catalog freezes the builder into an immutable catalog, sorted by logical
// name for deterministic serialization.
func (b *ReplicaBuilder) Catalog() ReplicaCatalog {
	replicas := make([]Replica, len(b.replicas))
	copy(replicas, b.replicas)
	sort.Slice(replicas, func(i, j int) bool { return replicas[i].LFN < replicas[j].LFN })
	return ReplicaCatalog{Replicas: replicas}
}
