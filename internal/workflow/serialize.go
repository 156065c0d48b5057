package workflow

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/vk/toygrid/internal/catalog"
	"github.com/vk/toygrid/internal/ctxlog"
	"github.com/vk/toygrid/internal/job"
)

// schemaVersion is the workflow description format version the planner
// understands.
const schemaVersion = "5.0"

// document is the serialized shape of a Graph.
type document struct {
	Pegasus               string                        `yaml:"pegasus"`
	Name                  string                        `yaml:"name"`
	Jobs                  []jobDocument                 `yaml:"jobs"`
	SiteCatalog           catalog.SiteCatalog           `yaml:"siteCatalog"`
	TransformationCatalog catalog.TransformationCatalog `yaml:"transformationCatalog"`
	ReplicaCatalog        catalog.ReplicaCatalog        `yaml:"replicaCatalog"`
}

type jobDocument struct {
	Type          string            `yaml:"type"`
	Name          string            `yaml:"name"`
	ID            string            `yaml:"id"`
	ExecutionSite string            `yaml:"selector,omitempty"`
	Arguments     []string          `yaml:"arguments"`
	Uses          []useDocument     `yaml:"uses"`
	Profiles      []catalog.Profile `yaml:"profiles,omitempty"`
}

type useDocument struct {
	LFN      string `yaml:"lfn"`
	Type     string `yaml:"type"`
	StageOut *bool  `yaml:"stageOut,omitempty"`
}

// Write serializes the graph to the workflow description file the planner
// consumes.
func Write(ctx context.Context, g *Graph, path string) error {
	logger := ctxlog.FromContext(ctx)

	doc := document{
		Pegasus:               schemaVersion,
		Name:                  g.Name,
		Jobs:                  make([]jobDocument, 0, len(g.Jobs)),
		SiteCatalog:           g.Catalogs.Sites,
		TransformationCatalog: g.Catalogs.Transformations,
		ReplicaCatalog:        g.Catalogs.Replicas,
	}
	for _, j := range g.Jobs {
		doc.Jobs = append(doc.Jobs, jobToDocument(j))
	}

	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("serializing workflow %s: %w", g.ID, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing workflow description %s: %w", path, err)
	}

	logger.Info("Workflow description written.", "path", path, "jobs", len(g.Jobs))
	return nil
}

func jobToDocument(j *job.Job) jobDocument {
	doc := jobDocument{
		Type:          "job",
		Name:          j.Transformation,
		ID:            j.ID,
		ExecutionSite: j.ExecutionSite,
		Arguments:     j.Args,
		Profiles:      j.Profiles,
	}
	for _, in := range j.Inputs {
		doc.Uses = append(doc.Uses, useDocument{LFN: in, Type: "input"})
	}
	for _, out := range j.Outputs {
		stageOut := out.StageOut
		doc.Uses = append(doc.Uses, useDocument{LFN: out.LFN, Type: "output", StageOut: &stageOut})
	}
	return doc
}
