// Package git provides a high-level Go wrapper for go-git operations.
// This file contains synchronization operations.
package git

import (
	"context"
	"errors"

	"github.com/go-git/go-git/v5"
)

// PullFFOnly performs a fast-forward only pull from the specified remote.
// It fetches changes and updates the current branch only if it's a fast-forward merge.
// Returns ErrNotFastForward if local and remote history diverged.
// Returns ErrAlreadyUpToDate if there are no changes to pull.
//
// Context timeout/cancellation is honored during the pull operation.
func (r *Repo) PullFFOnly(ctx context.Context, remote string) error {
	if r.worktree == nil {
		return WrapError(ErrInvalidRef, "cannot pull in bare repository")
	}

	if remote == "" {
		remote = DefaultRemoteName
	}

	pullOpts := &git.PullOptions{
		RemoteName: remote,
	}

	if r.options.Auth != nil {
		url, err := r.RemoteURL(remote)
		if err != nil {
			return err
		}

		authMethod, authErr := r.options.Auth.Method(url)
		if authErr != nil {
			return WrapError(ErrAuthRequired, "failed to get authentication method")
		}
		pullOpts.Auth = authMethod
	}

	err := r.worktree.PullContext(ctx, pullOpts)
	if err != nil {
		if errors.Is(err, git.ErrRemoteNotFound) {
			return WrapError(ErrResolveFailed, "remote not found")
		}
		if errors.Is(err, git.NoErrAlreadyUpToDate) {
			return ErrAlreadyUpToDate
		}
		if errors.Is(err, git.ErrNonFastForwardUpdate) {
			return ErrNotFastForward
		}
		return WrapError(err, "failed to pull from remote")
	}

	return nil
}

// RemoteURL returns the first URL configured for remote.
func (r *Repo) RemoteURL(remote string) (string, error) {
	if remote == "" {
		remote = DefaultRemoteName
	}

	rem, err := r.repo.Remote(remote)
	if err != nil {
		if errors.Is(err, git.ErrRemoteNotFound) {
			return "", WrapError(ErrResolveFailed, "remote not found")
		}
		return "", WrapError(err, "failed to get remote configuration")
	}

	urls := rem.Config().URLs
	if len(urls) == 0 {
		return "", WrapErrorf(ErrResolveFailed, "remote %q has no URL", remote)
	}

	return urls[0], nil
}
