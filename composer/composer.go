// Package composer builds the repository database from a base working copy
// and its overlays.
//
// Each working copy is a metadata repository: an optional repo.toml with a
// [repo] table and one TOML document per album under album/. Overlays are
// applied in order on top of the base; an overlay album replaces the base
// album with the same id, and two overlays may not define the same id.
//
// The result is written to repo.db (SQLite) and repo.json in the output
// directory. Both are staged under a temporary name and renamed into place,
// so a failed composition never leaves a partial database behind. repo.json
// is renamed last and is only present next to the database it describes.
package composer

import (
	"context"
	stderrors "errors"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/input-output-hk/reposync/errors"
	"github.com/input-output-hk/reposync/fs"
	"github.com/input-output-hk/reposync/fs/billy"
	"github.com/input-output-hk/reposync/git"
	"github.com/input-output-hk/reposync/rebuild"
)

const tmpSuffix = ".tmp"

// Composer merges working copies into repo.db and repo.json.
// It implements rebuild.Composer.
type Composer struct {
	src    fs.Filesystem
	out    fs.Filesystem
	logger *slog.Logger
	now    func() time.Time
}

var _ rebuild.Composer = (*Composer)(nil)

// Option configures a Composer.
type Option func(*Composer)

// WithLogger sets the logger for composition progress.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Composer) {
		c.logger = logger
	}
}

// WithClock overrides the time recorded as last_modified.
func WithClock(now func() time.Time) Option {
	return func(c *Composer) {
		c.now = now
	}
}

// New returns a Composer reading working copies from src. Output is written
// to the native filesystem, since the database is created by SQLite itself.
func New(src fs.Filesystem, opts ...Option) *Composer {
	c := &Composer{
		src: src,
		out: billy.NewBaseOSFS(),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// source is a parsed working copy.
type source struct {
	info     RepoInfo
	albums   []entry
	revision string
}

// Compose implements rebuild.Composer.
func (c *Composer) Compose(ctx context.Context, base rebuild.WorkingCopy, overlays []rebuild.WorkingCopy, outputDir string) error {
	baseSrc, err := c.load(ctx, base)
	if err != nil {
		return err
	}

	revisions := []SourceRevision{{Name: base.Name, Revision: baseSrc.revision}}
	overlayAlbums := make([][]entry, 0, len(overlays))
	for _, wc := range overlays {
		src, err := c.load(ctx, wc)
		if err != nil {
			return err
		}
		overlayAlbums = append(overlayAlbums, src.albums)
		revisions = append(revisions, SourceRevision{Name: wc.Name, Revision: src.revision})
	}

	albums, err := merge(baseSrc.albums, overlayAlbums)
	if err != nil {
		return err
	}

	info := baseSrc.info
	if info.Name == "" {
		info.Name = base.Name
	}
	lastModified := c.now().Unix()

	if c.logger != nil {
		c.logger.InfoContext(ctx, "composing",
			"base", base.Name,
			"overlays", len(overlays),
			"albums", len(albums),
		)
	}

	if err := c.out.MkdirAll(outputDir, 0o755); err != nil {
		return errors.WrapWithContext(err, errors.CodeIO, "failed to create output directory",
			map[string]interface{}{"path": outputDir})
	}

	manifest := &Manifest{
		Name:         info.Name,
		Edition:      info.Edition,
		LastModified: lastModified,
		Sources:      revisions,
		Albums:       len(albums),
	}
	data, err := manifest.encode()
	if err != nil {
		return err
	}

	dbPath := filepath.Join(outputDir, rebuild.DatabaseFile)
	jsonPath := filepath.Join(outputDir, rebuild.ManifestFile)
	dbTmp, jsonTmp := dbPath+tmpSuffix, jsonPath+tmpSuffix
	defer c.cleanup(dbTmp, jsonTmp)

	if err := c.stage(dbTmp, func() error {
		return writeDatabase(ctx, dbTmp, info, lastModified, albums)
	}); err != nil {
		return errors.WrapWithContext(err, errors.CodeIO, "failed to write database",
			map[string]interface{}{"path": dbPath})
	}

	if err := c.stage(jsonTmp, func() error {
		return c.out.WriteFile(jsonTmp, data, 0o644)
	}); err != nil {
		return errors.WrapWithContext(err, errors.CodeIO, "failed to write manifest",
			map[string]interface{}{"path": jsonPath})
	}

	return c.commit(dbTmp, dbPath, jsonTmp, jsonPath)
}

// stage writes a temporary artifact, replacing any stale one.
func (c *Composer) stage(tmp string, write func() error) error {
	if err := c.discard(tmp); err != nil {
		return err
	}
	return write()
}

// commit moves the staged artifacts into place. repo.json marks a complete
// output: it is removed before the database is replaced and renamed last,
// so an interrupted commit leaves it missing and the next run rebuilds.
func (c *Composer) commit(dbTmp, dbPath, jsonTmp, jsonPath string) error {
	if err := c.discard(jsonPath); err != nil {
		return errors.WrapWithContext(err, errors.CodeIO, "failed to remove previous manifest",
			map[string]interface{}{"path": jsonPath})
	}

	if err := c.out.Rename(dbTmp, dbPath); err != nil {
		return errors.WrapWithContext(err, errors.CodeIO, "failed to write database",
			map[string]interface{}{"path": dbPath})
	}

	if err := c.out.Rename(jsonTmp, jsonPath); err != nil {
		return errors.WrapWithContext(err, errors.CodeIO, "failed to write manifest",
			map[string]interface{}{"path": jsonPath})
	}
	return nil
}

// cleanup removes staging files left by a failed composition.
func (c *Composer) cleanup(paths ...string) {
	for _, p := range paths {
		_ = c.discard(p)
	}
}

func (c *Composer) discard(path string) error {
	exists, err := c.out.Exists(path)
	if err != nil || !exists {
		return err
	}
	return c.out.Remove(path)
}

func (c *Composer) load(ctx context.Context, wc rebuild.WorkingCopy) (*source, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	info, err := readRepoInfo(c.src, wc.Path)
	if err != nil {
		return nil, err
	}

	albums, err := readAlbums(c.src, wc.Name, wc.Path)
	if err != nil {
		return nil, err
	}

	revision, err := c.revision(ctx, wc)
	if err != nil {
		return nil, err
	}

	return &source{info: info, albums: albums, revision: revision}, nil
}

// revision reads HEAD of the working copy. Directories that are not git
// repositories, or have no commits yet, have no revision.
func (c *Composer) revision(ctx context.Context, wc rebuild.WorkingCopy) (string, error) {
	repo, err := git.Open(ctx, &git.Options{FS: c.src, Workdir: wc.Path})
	if err != nil {
		if stderrors.Is(err, git.ErrNotRepository) {
			return "", nil
		}
		return "", errors.WrapWithContext(err, errors.CodeIO, "failed to open working copy",
			map[string]interface{}{"source": wc.Name})
	}

	head, err := repo.Head(ctx)
	if err != nil {
		if stderrors.Is(err, git.ErrResolveFailed) {
			return "", nil
		}
		return "", err
	}
	return head, nil
}
