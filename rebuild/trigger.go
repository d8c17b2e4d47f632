// Package rebuild decides when the derived repository database must be
// regenerated and drives a single synchronization run end to end.
package rebuild

import (
	"path/filepath"

	"github.com/input-output-hk/reposync/errors"
	"github.com/input-output-hk/reposync/fs"
)

const (
	// DatabaseFile is the composed database in the output directory.
	DatabaseFile = "repo.db"

	// ManifestFile is the metadata document written next to the database.
	ManifestFile = "repo.json"
)

// Reason explains a rebuild decision.
type Reason string

const (
	ReasonNone            Reason = ""
	ReasonSourcesChanged  Reason = "sources changed"
	ReasonDatabaseMissing Reason = "database missing"
	ReasonManifestMissing Reason = "manifest missing"
)

// Decision is the outcome of the rebuild trigger.
type Decision struct {
	Rebuild bool
	Reason  Reason
}

// Decide reports whether the output must be rebuilt: when any source changed
// or when either artifact is missing from outputDir. A missing artifact
// forces a rebuild even when nothing upstream moved.
func Decide(fsys fs.Filesystem, aggregate bool, outputDir string) (Decision, error) {
	if aggregate {
		return Decision{Rebuild: true, Reason: ReasonSourcesChanged}, nil
	}

	artifacts := []struct {
		name   string
		reason Reason
	}{
		{DatabaseFile, ReasonDatabaseMissing},
		{ManifestFile, ReasonManifestMissing},
	}

	for _, a := range artifacts {
		path := filepath.Join(outputDir, a.name)
		exists, err := fsys.Exists(path)
		if err != nil {
			return Decision{}, errors.WrapWithContext(
				err,
				errors.CodeIO,
				"failed to check output artifact",
				map[string]interface{}{
					"path": path,
				},
			)
		}
		if !exists {
			return Decision{Rebuild: true, Reason: a.reason}, nil
		}
	}

	return Decision{}, nil
}

// ShouldRebuild is Decide without the reason.
func ShouldRebuild(fsys fs.Filesystem, aggregate bool, outputDir string) (bool, error) {
	d, err := Decide(fsys, aggregate, outputDir)
	return d.Rebuild, err
}
