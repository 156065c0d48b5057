// Package template stages the statistical-model template files: it validates
// the template directory, enforces unique base names across the whole tree,
// and packs the templates into one flat tarball for remote staging.
//
// Remote jobs unpack the archive into a single directory, so two files with
// the same base name in different subdirectories would silently overwrite
// each other. That is why name collisions abort the submission outright.
package template

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"

	"github.com/vk/toygrid/internal/ctxlog"
	"github.com/vk/toygrid/internal/fsutil"
)

// Extension of the template files that get packed.
const Extension = ".h5"

// ArchiveName is the logical name of the packed template tarball.
const ArchiveName = "templates.tar.gz"

// Validate checks that the template path is set and exists, and logs the
// tree so the operator can eyeball what will be staged.
func Validate(ctx context.Context, templatePath string) error {
	logger := ctxlog.FromContext(ctx)

	if templatePath == "" {
		return fmt.Errorf("please provide a template path")
	}
	if _, err := os.Stat(templatePath); err != nil {
		return fmt.Errorf("template path %s does not exist: %w", templatePath, err)
	}

	logger.Info("Template path file structure:")
	err := filepath.WalkDir(templatePath, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			logger.Info("Template file.", "file", d.Name(), "dir", filepath.Dir(path))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("walking template path %s: %w", templatePath, err)
	}

	hasSubdirs, err := fsutil.ContainsSubdirectories(templatePath)
	if err != nil {
		return err
	}
	if hasSubdirs {
		logger.Warn("The template path contains subdirectories. All template files will be packed into a flat archive.")
	}
	return nil
}

// CheckUnique fails if two files anywhere under the template tree share a
// base name.
func CheckUnique(templatePath string) error {
	names, err := fsutil.ListFileNames(templatePath)
	if err != nil {
		return fmt.Errorf("scanning template path %s: %w", templatePath, err)
	}

	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		if _, dup := seen[name]; dup {
			return fmt.Errorf("all files in the template path must have unique names, %q appears more than once", name)
		}
		seen[name] = struct{}{}
	}
	return nil
}

// Pack writes every template file under dir into a gzipped tar archive at
// outPath, flattening directory structure: entries are stored under their
// base names only. It returns the number of files packed.
func Pack(ctx context.Context, dir, outPath string) (int, error) {
	logger := ctxlog.FromContext(ctx)

	files, err := fsutil.FindFilesByExtension(dir, Extension)
	if err != nil {
		return 0, fmt.Errorf("scanning %s for %s templates: %w", dir, Extension, err)
	}

	out, err := os.Create(outPath)
	if err != nil {
		return 0, fmt.Errorf("creating template archive %s: %w", outPath, err)
	}
	defer out.Close()

	gz := gzip.NewWriter(out)
	tw := tar.NewWriter(gz)

	for _, file := range files {
		if err := addFlattened(tw, file); err != nil {
			return 0, fmt.Errorf("packing %s: %w", file, err)
		}
	}

	if err := tw.Close(); err != nil {
		return 0, fmt.Errorf("finalizing template archive: %w", err)
	}
	if err := gz.Close(); err != nil {
		return 0, fmt.Errorf("finalizing template archive: %w", err)
	}
	if err := out.Close(); err != nil {
		return 0, fmt.Errorf("finalizing template archive: %w", err)
	}

	if info, err := os.Stat(outPath); err == nil {
		logger.Info("Template archive written.",
			"path", outPath, "files", len(files), "size", humanize.IBytes(uint64(info.Size())))
	}
	return len(files), nil
}

func addFlattened(tw *tar.Writer, file string) error {
	info, err := os.Stat(file)
	if err != nil {
		return err
	}

	hdr, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return err
	}
	hdr.Name = filepath.Base(file)

	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}

	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = io.Copy(tw, f)
	return err
}
