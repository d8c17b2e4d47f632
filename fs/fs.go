// Package fs defines the native filesystem abstraction used by reposync.
// Working copies, output artifacts, and repository content are all accessed
// through Filesystem so the synchronization pipeline can run against an
// in-memory filesystem in tests.
package fs

import (
	"os"
	"path/filepath"
)

// Filesystem is the set of filesystem operations reposync depends on.
// Paths are interpreted relative to the implementation's root.
type Filesystem interface {
	Create(name string) (File, error)
	Exists(path string) (bool, error)
	MkdirAll(path string, perm os.FileMode) error
	Open(name string) (File, error)
	OpenFile(name string, flag int, perm os.FileMode) (File, error)
	ReadDir(dirname string) ([]os.FileInfo, error)
	ReadFile(path string) ([]byte, error)
	Remove(name string) error
	Rename(oldpath, newpath string) error
	Stat(name string) (os.FileInfo, error)
	TempDir(dir, prefix string) (string, error)
	Walk(root string, walkFn filepath.WalkFunc) error
	WriteFile(filename string, data []byte, perm os.FileMode) error
}
