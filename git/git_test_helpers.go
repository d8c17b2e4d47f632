package git

import (
	"context"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/reposync/fs"
	fsb "github.com/input-output-hk/reposync/fs/billy"
)

// testRepo bundles a repository with the filesystem it lives in.
type testRepo struct {
	repo *Repo
	fs   fs.Filesystem
	ctx  context.Context
}

var testSignature = Signature{
	Name:  "Mirror Bot",
	Email: "mirror@example.com",
}

// setupTestRepo creates a new repository on an in-memory filesystem.
func setupTestRepo(t *testing.T, bare bool) *testRepo {
	t.Helper()

	ctx := context.Background()
	memFS := fsb.NewInMemoryFS()

	repo, err := Init(ctx, &Options{
		FS:      memFS,
		Bare:    bare,
		Workdir: ".",
	})
	require.NoError(t, err, "failed to initialize test repository")
	require.NotNil(t, repo)

	return &testRepo{repo: repo, fs: memFS, ctx: ctx}
}

// setupTestRepoWithCommit creates an in-memory repository holding one commit.
func setupTestRepoWithCommit(t *testing.T) *testRepo {
	t.Helper()

	tr := setupTestRepo(t, false)
	tr.commitFile(t, "repo.toml", "[repo]\nname = \"test\"\n", "initial commit")
	return tr
}

// setupOriginOnDisk creates a non-bare repository in a temporary directory
// and returns it with its absolute path, usable as a clone URL.
func setupOriginOnDisk(t *testing.T) (*testRepo, string) {
	t.Helper()

	dir := t.TempDir()
	osFS := fsb.NewOSFS(dir)
	ctx := context.Background()

	repo, err := Init(ctx, &Options{FS: osFS})
	require.NoError(t, err, "failed to initialize origin")

	tr := &testRepo{repo: repo, fs: osFS, ctx: ctx}
	tr.commitFile(t, "repo.toml", "[repo]\nname = \"origin\"\n", "initial commit")
	return tr, dir
}

// commitFile writes path, stages it and commits, returning the new hash.
func (tr *testRepo) commitFile(t *testing.T, path, content, msg string) string {
	t.Helper()

	require.NoError(t, tr.fs.WriteFile(path, []byte(content), 0o644))
	require.NoError(t, tr.repo.Add(tr.ctx, path))

	sig := testSignature
	sig.When = time.Now()
	sha, err := tr.repo.Commit(tr.ctx, msg, sig, CommitOpts{})
	require.NoError(t, err, "failed to commit %s", path)
	return sha
}

// requireGit skips the test when local clones cannot be served.
func requireGit(t *testing.T) {
	t.Helper()

	if _, err := exec.LookPath("git"); err != nil {
		t.Skipf("git not available: %v", err)
	}
}
