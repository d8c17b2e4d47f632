package rebuild

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/reposync/errors"
	"github.com/input-output-hk/reposync/fs"
	"github.com/input-output-hk/reposync/fs/billy"
)

func TestDecide(t *testing.T) {
	tests := []struct {
		name      string
		aggregate bool
		files     []string
		want      Decision
	}{
		{
			name:      "changed sources with artifacts present",
			aggregate: true,
			files:     []string{"out/repo.db", "out/repo.json"},
			want:      Decision{Rebuild: true, Reason: ReasonSourcesChanged},
		},
		{
			name:      "changed sources without artifacts",
			aggregate: true,
			want:      Decision{Rebuild: true, Reason: ReasonSourcesChanged},
		},
		{
			name:  "unchanged and complete",
			files: []string{"out/repo.db", "out/repo.json"},
			want:  Decision{},
		},
		{
			name:  "database missing",
			files: []string{"out/repo.json"},
			want:  Decision{Rebuild: true, Reason: ReasonDatabaseMissing},
		},
		{
			name:  "manifest missing",
			files: []string{"out/repo.db"},
			want:  Decision{Rebuild: true, Reason: ReasonManifestMissing},
		},
		{
			name: "output directory missing",
			want: Decision{Rebuild: true, Reason: ReasonDatabaseMissing},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			memFS := billy.NewInMemoryFS()
			for _, f := range tt.files {
				require.NoError(t, memFS.WriteFile(f, []byte("x"), 0o644))
			}

			got, err := Decide(memFS, tt.aggregate, "out")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			rebuild, err := ShouldRebuild(memFS, tt.aggregate, "out")
			require.NoError(t, err)
			assert.Equal(t, tt.want.Rebuild, rebuild)
		})
	}
}

func TestDecide_SelfHealing(t *testing.T) {
	memFS := billy.NewInMemoryFS()
	require.NoError(t, memFS.WriteFile("out/repo.db", []byte("db"), 0o644))
	require.NoError(t, memFS.WriteFile("out/repo.json", []byte("{}"), 0o644))

	rebuild, err := ShouldRebuild(memFS, false, "out")
	require.NoError(t, err)
	assert.False(t, rebuild)

	require.NoError(t, memFS.Remove("out/repo.db"))

	rebuild, err = ShouldRebuild(memFS, false, "out")
	require.NoError(t, err)
	assert.True(t, rebuild, "deleting an artifact forces a rebuild")
}

func TestDecide_StatFailure(t *testing.T) {
	_, err := Decide(&statFailFS{Filesystem: billy.NewInMemoryFS()}, false, "out")
	require.Error(t, err)
	assert.Equal(t, errors.CodeIO, errors.GetCode(err))
	assert.Contains(t, err.Error(), "out/repo.db")
}

func TestDecide_AggregateSkipsStat(t *testing.T) {
	d, err := Decide(&statFailFS{Filesystem: billy.NewInMemoryFS()}, true, "out")
	require.NoError(t, err)
	assert.True(t, d.Rebuild)
}

// statFailFS fails every existence check.
type statFailFS struct {
	fs.Filesystem
}

func (f *statFailFS) Exists(path string) (bool, error) {
	return false, &os.PathError{Op: "stat", Path: path, Err: os.ErrPermission}
}
