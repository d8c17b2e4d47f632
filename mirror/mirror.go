// Package mirror keeps local working copies in step with their remote sources
// and folds the per-source outcomes into a single freshness value.
//
// A working copy lives in a directory named after its source, relative to the
// filesystem the Synchronizer is built with. A missing directory is cloned; an
// existing one is updated with fast-forward-only semantics. Divergence is a
// failure, never resolved automatically.
package mirror

import (
	"context"
	"log/slog"

	"github.com/input-output-hk/reposync/config"
	"github.com/input-output-hk/reposync/errors"
	"github.com/input-output-hk/reposync/fs"
)

// Transport obtains and updates working copies.
type Transport interface {
	// Materialize creates a working copy of url at path.
	Materialize(ctx context.Context, url, path string) error

	// Update applies upstream changes to the working copy at path without
	// merging. It reports whether any new content arrived.
	Update(ctx context.Context, path string) (bool, error)
}

// Result is the outcome of synchronizing one source.
type Result struct {
	Source config.Source

	// Changed is true when the working copy was freshly cloned or an update
	// brought in new content.
	Changed bool
}

// Synchronizer brings working copies up to date.
// It is not safe for concurrent use.
type Synchronizer struct {
	fs        fs.Filesystem
	transport Transport
	logger    *slog.Logger
}

// Option configures a Synchronizer.
type Option func(*Synchronizer)

// WithLogger sets the logger for per-source decisions.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Synchronizer) {
		s.logger = logger
	}
}

// New returns a Synchronizer whose working copies live on filesystem.
func New(filesystem fs.Filesystem, transport Transport, opts ...Option) *Synchronizer {
	s := &Synchronizer{
		fs:        filesystem,
		transport: transport,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sync makes the working copy for source current. It clones when the
// directory is missing and pulls otherwise, returning whether anything changed.
// Running Sync twice without upstream changes returns false the second time.
func (s *Synchronizer) Sync(ctx context.Context, source config.Source) (bool, error) {
	path := source.Name

	exists, err := s.fs.Exists(path)
	if err != nil {
		return false, errors.WrapWithContext(
			err,
			errors.CodeIO,
			"failed to check working copy",
			map[string]interface{}{
				"source": source.Name,
				"path":   path,
			},
		)
	}

	if !exists {
		if s.logger != nil {
			s.logger.InfoContext(ctx, "cloning", "source", source.Name, "url", source.URL, "path", path)
		}

		if err := s.transport.Materialize(ctx, source.URL, path); err != nil {
			return false, s.failure(ctx, source, OpClone, err)
		}
		return true, nil
	}

	if s.logger != nil {
		s.logger.InfoContext(ctx, "updating", "source", source.Name, "path", path)
	}

	changed, err := s.transport.Update(ctx, path)
	if err != nil {
		return false, s.failure(ctx, source, OpUpdate, err)
	}

	if s.logger != nil {
		if changed {
			s.logger.InfoContext(ctx, "updated", "source", source.Name, "changed", true)
		} else {
			s.logger.InfoContext(ctx, "already up to date", "source", source.Name, "changed", false)
		}
	}

	return changed, nil
}

// SyncAll synchronizes sources in order and ORs their Changed flags.
//
// Every source is synchronized even once the aggregate is already true,
// because the call itself is what updates the working copy. The first
// failure stops the run; results gathered so far are returned with it.
func (s *Synchronizer) SyncAll(ctx context.Context, sources []config.Source) ([]Result, bool, error) {
	results := make([]Result, 0, len(sources))
	aggregate := false

	for _, source := range sources {
		if err := ctx.Err(); err != nil {
			return results, aggregate, err
		}

		changed, err := s.Sync(ctx, source)
		if err != nil {
			return results, aggregate, err
		}

		results = append(results, Result{Source: source, Changed: changed})
		aggregate = aggregate || changed
	}

	return results, aggregate, nil
}

func (s *Synchronizer) failure(ctx context.Context, source config.Source, op Op, err error) error {
	syncErr := &SyncError{
		Source: source.Name,
		Op:     op,
		Detail: err.Error(),
		Err:    err,
	}

	if s.logger != nil {
		s.logger.ErrorContext(ctx, "synchronization failed",
			"source", source.Name,
			"op", string(op),
			"error", err,
		)
	}

	return syncErr
}
