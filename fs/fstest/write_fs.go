package fstest

import (
	"errors"
	"os"
	"testing"

	"github.com/input-output-hk/reposync/fs"
)

// TestWriteFS tests mutating operations: Create, WriteFile, OpenFile,
// MkdirAll, Rename and Remove.
func TestWriteFS(t *testing.T, filesystem fs.Filesystem) {
	t.Run("CreateTruncates", func(t *testing.T) {
		if err := filesystem.WriteFile("create.txt", []byte("old content"), 0o644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}

		f, err := filesystem.Create("create.txt")
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		if _, err := f.Write([]byte("new")); err != nil {
			t.Fatalf("Write: %v", err)
		}
		if err := f.Close(); err != nil {
			t.Fatalf("Close: %v", err)
		}

		expectContent(t, filesystem, "create.txt", "new")
	})

	t.Run("WriteFileCreatesParents", func(t *testing.T) {
		if err := filesystem.WriteFile("deep/er/file.txt", []byte("x"), 0o644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
		expectContent(t, filesystem, "deep/er/file.txt", "x")
	})

	t.Run("OpenFileAppend", func(t *testing.T) {
		if err := filesystem.WriteFile("append.txt", []byte("a"), 0o644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
		f, err := filesystem.OpenFile("append.txt", os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			t.Fatalf("OpenFile: %v", err)
		}
		if _, err := f.Write([]byte("b")); err != nil {
			t.Fatalf("Write: %v", err)
		}
		if err := f.Close(); err != nil {
			t.Fatalf("Close: %v", err)
		}
		expectContent(t, filesystem, "append.txt", "ab")
	})

	t.Run("MkdirAllIdempotent", func(t *testing.T) {
		for i := 0; i < 2; i++ {
			if err := filesystem.MkdirAll("dirs/a/b", 0o755); err != nil {
				t.Fatalf("MkdirAll (pass %d): %v", i, err)
			}
		}
	})

	t.Run("RenameReplacesTarget", func(t *testing.T) {
		if err := filesystem.WriteFile("target.db", []byte("previous"), 0o644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
		if err := filesystem.WriteFile("target.db.tmp", []byte("staged"), 0o644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
		if err := filesystem.Rename("target.db.tmp", "target.db"); err != nil {
			t.Fatalf("Rename: %v", err)
		}

		expectContent(t, filesystem, "target.db", "staged")
		if exists, _ := filesystem.Exists("target.db.tmp"); exists {
			t.Error("Rename left the source in place")
		}
	})

	t.Run("Remove", func(t *testing.T) {
		if err := filesystem.WriteFile("remove.txt", []byte("x"), 0o644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
		if err := filesystem.Remove("remove.txt"); err != nil {
			t.Fatalf("Remove: %v", err)
		}
		if err := filesystem.Remove("remove.txt"); !errors.Is(err, os.ErrNotExist) {
			t.Errorf("second Remove error = %v, want os.ErrNotExist", err)
		}
	})
}

func expectContent(t *testing.T, filesystem fs.Filesystem, path, want string) {
	t.Helper()
	got, err := filesystem.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile(%s): %v", path, err)
	}
	if string(got) != want {
		t.Errorf("ReadFile(%s) = %q, want %q", path, got, want)
	}
}
