// Package modelcfg rewrites the statistical-model configuration for grid
// execution. Templates referenced by the model live at arbitrary local paths,
// but on the worker node they all sit in one flat staged directory, so every
// embedded template_filename must be reduced to its base name. The source
// file is never mutated; a corrected copy is written next to the other
// generated artifacts.
package modelcfg

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/vk/toygrid/internal/ctxlog"
)

// templateFilenameKey is the mapping key whose values get path-corrected.
const templateFilenameKey = "template_filename"

// ModifiedName derives the output file name for a rewritten model config:
// the source base name with "_modified" appended before the extension.
func ModifiedName(srcPath string) string {
	base := filepath.Base(srcPath)
	ext := filepath.Ext(base)
	return strings.TrimSuffix(base, ext) + "_modified" + ext
}

// Rewrite loads the YAML model config at srcPath, replaces every
// template_filename value anywhere in the document with its base name, and
// writes the result into destDir. It returns the path of the written file.
func Rewrite(ctx context.Context, srcPath, destDir string) (string, error) {
	logger := ctxlog.FromContext(ctx)

	data, err := os.ReadFile(srcPath)
	if err != nil {
		return "", fmt.Errorf("reading statistical model config %s: %w", srcPath, err)
	}

	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return "", fmt.Errorf("parsing statistical model config %s: %w", srcPath, err)
	}

	rewriteTemplateFilenames(doc)

	out, err := yaml.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("serializing rewritten model config: %w", err)
	}

	destPath := filepath.Join(destDir, ModifiedName(srcPath))
	if err := os.WriteFile(destPath, out, 0o644); err != nil {
		return "", fmt.Errorf("writing rewritten model config %s: %w", destPath, err)
	}

	logger.Info("Modified statistical model config written.", "path", destPath)
	return destPath, nil
}

// rewriteTemplateFilenames walks the decoded document and strips directory
// components from every template_filename value in place.
func rewriteTemplateFilenames(node any) {
	switch n := node.(type) {
	case map[string]any:
		for key, value := range n {
			if key == templateFilenameKey {
				if s, ok := value.(string); ok {
					n[key] = filepath.Base(s)
				}
				continue
			}
			rewriteTemplateFilenames(value)
		}
	case []any:
		for _, item := range n {
			rewriteTemplateFilenames(item)
		}
	}
}
