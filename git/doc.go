// Package git is a small facade over go-git used by the native mirror transport.
//
// It exposes only what keeping a working copy in step with its upstream
// requires: cloning, opening, fast-forward-only pulls and reading HEAD. All
// repository state is accessed through the project's fs.Filesystem, so the
// same code runs against an on-disk checkout or an in-memory filesystem.
//
// # Basic Usage
//
//	osFS := billyfs.NewOSFS("/var/lib/reposync")
//
//	repo, err := git.Clone(ctx, "https://example.com/org/base.git", &git.Options{
//	    FS:      osFS,
//	    Workdir: "base",
//	})
//
//	// Later runs reopen the working copy and pull.
//	repo, err = git.Open(ctx, &git.Options{FS: osFS, Workdir: "base"})
//	err = repo.PullFFOnly(ctx, "origin")
//	switch {
//	case errors.Is(err, git.ErrAlreadyUpToDate):
//	    // unchanged
//	case errors.Is(err, git.ErrNotFastForward):
//	    // local history diverged; nothing was merged
//	}
//
// # Authentication
//
// Options.Auth resolves a go-git AuthMethod per remote URL. The auth
// subpackage provides an HTTPS token provider and a composite provider that
// routes by URL pattern. Remotes no provider matches are accessed anonymously.
//
// # Thread Safety
//
// A Repo is not safe for concurrent use. Distinct working copies may be
// operated on from different goroutines.
package git
