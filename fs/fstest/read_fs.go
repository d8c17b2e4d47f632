package fstest

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/input-output-hk/reposync/fs"
)

// TestReadFS tests read operations: Open, Stat, ReadDir, ReadFile, Exists
// and Walk.
func TestReadFS(t *testing.T, filesystem fs.Filesystem) {
	testContent := []byte("test file content")

	for _, p := range []string{"testdir/b.toml", "testdir/a.toml", "testdir/nested/c.toml"} {
		if err := filesystem.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatalf("MkdirAll(%s): setup failed: %v", filepath.Dir(p), err)
		}
		if err := filesystem.WriteFile(p, testContent, 0o644); err != nil {
			t.Fatalf("WriteFile(%s): setup failed: %v", p, err)
		}
	}

	t.Run("Open", func(t *testing.T) {
		f, err := filesystem.Open("testdir/a.toml")
		if err != nil {
			t.Fatalf("Open: %v", err)
		}
		defer func() { _ = f.Close() }()

		got, err := io.ReadAll(f)
		if err != nil {
			t.Fatalf("ReadAll: %v", err)
		}
		if !bytes.Equal(got, testContent) {
			t.Errorf("Open content = %q, want %q", got, testContent)
		}
	})

	t.Run("StatFile", func(t *testing.T) {
		info, err := filesystem.Stat("testdir/a.toml")
		if err != nil {
			t.Fatalf("Stat: %v", err)
		}
		if info.IsDir() {
			t.Error("Stat reported a directory for a file")
		}
		if info.Size() != int64(len(testContent)) {
			t.Errorf("Stat size = %d, want %d", info.Size(), len(testContent))
		}
	})

	t.Run("StatDir", func(t *testing.T) {
		info, err := filesystem.Stat("testdir/nested")
		if err != nil {
			t.Fatalf("Stat: %v", err)
		}
		if !info.IsDir() {
			t.Error("Stat reported a file for a directory")
		}
	})

	t.Run("StatNotExist", func(t *testing.T) {
		_, err := filesystem.Stat("testdir/missing")
		if !errors.Is(err, os.ErrNotExist) {
			t.Errorf("Stat(missing) error = %v, want os.ErrNotExist", err)
		}
	})

	t.Run("ReadDir", func(t *testing.T) {
		entries, err := filesystem.ReadDir("testdir")
		if err != nil {
			t.Fatalf("ReadDir: %v", err)
		}
		if len(entries) != 3 {
			t.Errorf("ReadDir returned %d entries, want 3", len(entries))
		}
	})

	t.Run("ReadFileNotExist", func(t *testing.T) {
		_, err := filesystem.ReadFile("testdir/missing.toml")
		if !errors.Is(err, os.ErrNotExist) {
			t.Errorf("ReadFile(missing) error = %v, want os.ErrNotExist", err)
		}
	})

	t.Run("Exists", func(t *testing.T) {
		for path, want := range map[string]bool{
			"testdir":             true,
			"testdir/a.toml":      true,
			"testdir/nested":      true,
			"testdir/missing":     false,
			"missing/also/absent": false,
		} {
			got, err := filesystem.Exists(path)
			if err != nil {
				t.Fatalf("Exists(%s): %v", path, err)
			}
			if got != want {
				t.Errorf("Exists(%s) = %v, want %v", path, got, want)
			}
		}
	})

	t.Run("WalkOrder", func(t *testing.T) {
		var visited []string
		err := filesystem.Walk("testdir", func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if !info.IsDir() {
				visited = append(visited, filepath.ToSlash(path))
			}
			return nil
		})
		if err != nil {
			t.Fatalf("Walk: %v", err)
		}

		want := []string{"testdir/a.toml", "testdir/b.toml", "testdir/nested/c.toml"}
		if len(visited) != len(want) {
			t.Fatalf("Walk visited %v, want %v", visited, want)
		}
		for i := range want {
			if visited[i] != want[i] {
				t.Errorf("Walk visited %v, want %v", visited, want)
				break
			}
		}
	})
}
