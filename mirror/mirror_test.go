package mirror

import (
	"bytes"
	"context"
	stderrors "errors"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/reposync/config"
	"github.com/input-output-hk/reposync/errors"
	"github.com/input-output-hk/reposync/fs"
	"github.com/input-output-hk/reposync/fs/billy"
)

// fakeTransport materializes working copies as directories on an in-memory
// filesystem and replays scripted update outcomes.
type fakeTransport struct {
	fs fs.Filesystem

	// updates maps a path to the outcome of Update.
	updates map[string]updateOutcome
	// cloneErrs maps a URL to a Materialize failure.
	cloneErrs map[string]error

	calls []string
}

type updateOutcome struct {
	changed bool
	err     error
}

func newFakeTransport(fsys fs.Filesystem) *fakeTransport {
	return &fakeTransport{
		fs:        fsys,
		updates:   make(map[string]updateOutcome),
		cloneErrs: make(map[string]error),
	}
}

func (f *fakeTransport) Materialize(_ context.Context, url, path string) error {
	f.calls = append(f.calls, "clone "+path)
	if err := f.cloneErrs[url]; err != nil {
		return err
	}
	return f.fs.WriteFile(path+"/.git/HEAD", []byte("ref: refs/heads/main\n"), 0o644)
}

func (f *fakeTransport) Update(_ context.Context, path string) (bool, error) {
	f.calls = append(f.calls, "update "+path)
	outcome := f.updates[path]
	return outcome.changed, outcome.err
}

func sources(names ...string) []config.Source {
	out := make([]config.Source, 0, len(names))
	for _, n := range names {
		out = append(out, config.Source{Name: n, URL: "https://example.com/" + n + ".git"})
	}
	return out
}

func present(t *testing.T, fsys fs.Filesystem, names ...string) {
	t.Helper()
	for _, n := range names {
		require.NoError(t, fsys.MkdirAll(n, 0o755))
	}
}

func TestSync(t *testing.T) {
	tests := []struct {
		name        string
		existing    bool
		update      updateOutcome
		cloneErr    error
		wantChanged bool
		wantOp      Op
		wantCall    string
	}{
		{
			name:        "missing working copy is cloned",
			wantChanged: true,
			wantCall:    "clone core",
		},
		{
			name:     "clone failure",
			cloneErr: stderrors.New("fatal: repository not found"),
			wantOp:   OpClone,
			wantCall: "clone core",
		},
		{
			name:        "existing and up to date",
			existing:    true,
			wantChanged: false,
			wantCall:    "update core",
		},
		{
			name:        "existing with new content",
			existing:    true,
			update:      updateOutcome{changed: true},
			wantChanged: true,
			wantCall:    "update core",
		},
		{
			name:     "update failure",
			existing: true,
			update:   updateOutcome{err: stderrors.New("fatal: Not possible to fast-forward, aborting.")},
			wantOp:   OpUpdate,
			wantCall: "update core",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			memFS := billy.NewInMemoryFS()
			tr := newFakeTransport(memFS)
			src := sources("core")[0]
			if tt.existing {
				present(t, memFS, "core")
			}
			tr.updates["core"] = tt.update
			if tt.cloneErr != nil {
				tr.cloneErrs[src.URL] = tt.cloneErr
			}

			changed, err := New(memFS, tr).Sync(context.Background(), src)
			assert.Equal(t, []string{tt.wantCall}, tr.calls)

			if tt.wantOp == "" {
				require.NoError(t, err)
				assert.Equal(t, tt.wantChanged, changed)
				return
			}

			require.Error(t, err)
			assert.False(t, changed)

			var syncErr *SyncError
			require.True(t, stderrors.As(err, &syncErr))
			assert.Equal(t, "core", syncErr.Source)
			assert.Equal(t, tt.wantOp, syncErr.Op)
			assert.NotEmpty(t, syncErr.Detail)
		})
	}
}

func TestSync_Idempotent(t *testing.T) {
	memFS := billy.NewInMemoryFS()
	tr := newFakeTransport(memFS)
	s := New(memFS, tr)
	src := sources("core")[0]

	changed, err := s.Sync(context.Background(), src)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = s.Sync(context.Background(), src)
	require.NoError(t, err)
	assert.False(t, changed)

	assert.Equal(t, []string{"clone core", "update core"}, tr.calls)
}

func TestSync_ExistenceCheckFailure(t *testing.T) {
	tr := newFakeTransport(billy.NewInMemoryFS())
	s := New(&failingFS{Filesystem: billy.NewInMemoryFS()}, tr)

	_, err := s.Sync(context.Background(), sources("core")[0])
	require.Error(t, err)
	assert.Equal(t, errors.CodeIO, errors.GetCode(err))
	assert.Empty(t, tr.calls, "no transport call after a failed existence check")
}

func TestSyncError(t *testing.T) {
	cause := stderrors.New("network unreachable")
	err := &SyncError{Source: "extra", Op: OpClone, Detail: "network unreachable", Err: cause}

	assert.Equal(t, `CLONE_FAILED: clone of "extra" failed: network unreachable`, err.Error())
	assert.Equal(t, errors.CodeCloneFailed, errors.GetCode(err))
	assert.ErrorIs(t, err, cause)

	wrapped := errors.Wrap(&SyncError{Source: "core", Op: OpUpdate, Err: cause}, errors.CodeInternal, "run")
	var syncErr *SyncError
	require.True(t, stderrors.As(wrapped, &syncErr))
	assert.Equal(t, errors.CodeUpdateFailed, syncErr.Code())
}

func TestSyncAll_FreshSourcesAllCloned(t *testing.T) {
	for n := 1; n <= 4; n++ {
		memFS := billy.NewInMemoryFS()
		tr := newFakeTransport(memFS)
		names := []string{"base", "o1", "o2", "o3"}[:n]

		results, aggregate, err := New(memFS, tr).SyncAll(context.Background(), sources(names...))
		require.NoError(t, err)
		assert.True(t, aggregate)
		assert.Len(t, results, n)

		clones := 0
		for _, c := range tr.calls {
			if len(c) > 6 && c[:6] == "clone " {
				clones++
			}
		}
		assert.Equal(t, n, clones, "exactly one clone per source")
	}
}

func TestSyncAll_UpToDate(t *testing.T) {
	memFS := billy.NewInMemoryFS()
	present(t, memFS, "base", "o1", "o2")
	tr := newFakeTransport(memFS)

	results, aggregate, err := New(memFS, tr).SyncAll(context.Background(), sources("base", "o1", "o2"))
	require.NoError(t, err)
	assert.False(t, aggregate)
	assert.Equal(t, []string{"update base", "update o1", "update o2"}, tr.calls)
	for _, r := range results {
		assert.False(t, r.Changed)
	}
}

func TestSyncAll_NoShortCircuit(t *testing.T) {
	memFS := billy.NewInMemoryFS()
	present(t, memFS, "base", "o1", "o2")
	tr := newFakeTransport(memFS)
	tr.updates["base"] = updateOutcome{changed: true}

	results, aggregate, err := New(memFS, tr).SyncAll(context.Background(), sources("base", "o1", "o2"))
	require.NoError(t, err)
	assert.True(t, aggregate)
	assert.Equal(t, []string{"update base", "update o1", "update o2"}, tr.calls,
		"later sources are synchronized after the aggregate is already true")
	assert.Equal(t, []Result{
		{Source: sources("base")[0], Changed: true},
		{Source: sources("o1")[0], Changed: false},
		{Source: sources("o2")[0], Changed: false},
	}, results)
}

func TestSyncAll_StaleSourceDoesNotHideLaterFailure(t *testing.T) {
	memFS := billy.NewInMemoryFS()
	present(t, memFS, "base", "o1")
	tr := newFakeTransport(memFS)
	tr.updates["base"] = updateOutcome{changed: true}
	tr.updates["o1"] = updateOutcome{err: stderrors.New("fatal: Not possible to fast-forward, aborting.")}

	results, aggregate, err := New(memFS, tr).SyncAll(context.Background(), sources("base", "o1"))
	require.Error(t, err)

	var syncErr *SyncError
	require.True(t, stderrors.As(err, &syncErr))
	assert.Equal(t, "o1", syncErr.Source)
	assert.Equal(t, OpUpdate, syncErr.Op)
	assert.True(t, aggregate)
	assert.Len(t, results, 1)
}

func TestSyncAll_FailFast(t *testing.T) {
	memFS := billy.NewInMemoryFS()
	present(t, memFS, "base", "o1")
	tr := newFakeTransport(memFS)
	tr.updates["base"] = updateOutcome{err: stderrors.New("diverged")}

	results, _, err := New(memFS, tr).SyncAll(context.Background(), sources("base", "o1"))
	require.Error(t, err)
	assert.Equal(t, errors.CodeUpdateFailed, errors.GetCode(err))
	assert.Empty(t, results)
	assert.Equal(t, []string{"update base"}, tr.calls, "overlays are not attempted after a failure")
}

func TestSyncAll_CancelledContext(t *testing.T) {
	memFS := billy.NewInMemoryFS()
	tr := newFakeTransport(memFS)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := New(memFS, tr).SyncAll(ctx, sources("base"))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, tr.calls)
}

func TestSync_Logging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	memFS := billy.NewInMemoryFS()
	present(t, memFS, "o1")
	s := New(memFS, newFakeTransport(memFS), WithLogger(logger))

	_, _, err := s.SyncAll(context.Background(), sources("base", "o1"))
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "msg=cloning source=base")
	assert.Contains(t, out, `msg="already up to date" source=o1`)
}

// failingFS fails every existence check.
type failingFS struct {
	fs.Filesystem
}

func (f *failingFS) Exists(string) (bool, error) {
	return false, &os.PathError{Op: "stat", Path: "core", Err: os.ErrPermission}
}
