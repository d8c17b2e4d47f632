package transport

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"sort"

	"github.com/input-output-hk/reposync/fs"
	"github.com/input-output-hk/reposync/git"
)

// Native keeps working copies up to date with go-git, without a git binary.
// Paths are relative to the filesystem given to NewNative.
type Native struct {
	fs   fs.Filesystem
	opts *options
}

// NewNative returns a transport operating on filesystem.
func NewNative(filesystem fs.Filesystem, opts ...Option) *Native {
	return &Native{
		fs:   filesystem,
		opts: newOptions(opts),
	}
}

func (n *Native) gitOptions(path string) *git.Options {
	return &git.Options{
		FS:           n.fs,
		Workdir:      path,
		Auth:         n.opts.auth,
		ShallowDepth: n.opts.depth,
	}
}

// Materialize clones url into path. A failed clone leaves nothing behind,
// matching the git client.
func (n *Native) Materialize(ctx context.Context, url, path string) error {
	n.opts.logger.DebugContext(ctx, "go-git clone", "url", url, "path", path)

	if _, err := git.Clone(ctx, url, n.gitOptions(path)); err != nil {
		if cleanupErr := removeAll(n.fs, path); cleanupErr != nil {
			n.opts.logger.WarnContext(ctx, "failed to remove partial clone",
				"path", path,
				"error", cleanupErr,
			)
		}
		return err
	}

	return nil
}

// Update opens the working copy at path and pulls with fast-forward-only
// semantics. A diverged history is reported as git.ErrNotFastForward.
func (n *Native) Update(ctx context.Context, path string) (bool, error) {
	n.opts.logger.DebugContext(ctx, "go-git pull", "path", path)

	repo, err := git.Open(ctx, n.gitOptions(path))
	if err != nil {
		return false, err
	}

	err = repo.PullFFOnly(ctx, git.DefaultRemoteName)
	switch {
	case err == nil:
		return true, nil
	case stderrors.Is(err, git.ErrAlreadyUpToDate):
		return false, nil
	default:
		return false, err
	}
}

// removeAll deletes path and everything below it.
func removeAll(fsys fs.Filesystem, path string) error {
	exists, err := fsys.Exists(path)
	if err != nil || !exists {
		return err
	}

	var paths []string
	walkErr := fsys.Walk(path, func(p string, _ os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		paths = append(paths, p)
		return nil
	})
	if walkErr != nil {
		return walkErr
	}

	// Deepest entries first so directories are empty when removed.
	sort.Slice(paths, func(i, j int) bool {
		return len(filepath.Clean(paths[i])) > len(filepath.Clean(paths[j]))
	})
	for _, p := range paths {
		if err := fsys.Remove(p); err != nil && !stderrors.Is(err, os.ErrNotExist) {
			return err
		}
	}

	return nil
}
