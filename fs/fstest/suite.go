// Package fstest provides a conformance test suite for fs.Filesystem
// implementations.
//
// The suite covers the behavior reposync relies on: missing paths report
// os.ErrNotExist through errors.Is, Rename replaces an existing target, and
// Walk visits entries in lexical order.
//
// Example usage:
//
//	func TestMyProvider(t *testing.T) {
//	    fstest.TestSuite(t, func() fs.Filesystem {
//	        return myprovider.New()
//	    })
//	}
package fstest

import (
	"testing"

	"github.com/input-output-hk/reposync/fs"
)

// TestSuite runs all conformance tests against a filesystem.
// The newFS function should return a fresh, empty filesystem for each test.
func TestSuite(t *testing.T, newFS func() fs.Filesystem) {
	TestSuiteWithSkip(t, newFS, nil)
}

// TestSuiteWithSkip runs conformance tests, skipping the named groups
// (e.g. "WriteFS").
func TestSuiteWithSkip(t *testing.T, newFS func() fs.Filesystem, skipTests []string) {
	shouldSkip := func(testName string) bool {
		for _, skip := range skipTests {
			if skip == testName {
				return true
			}
		}
		return false
	}

	groups := []struct {
		name string
		run  func(*testing.T, fs.Filesystem)
	}{
		{"ReadFS", TestReadFS},
		{"WriteFS", TestWriteFS},
	}

	for _, g := range groups {
		t.Run(g.name, func(t *testing.T) {
			if shouldSkip(g.name) {
				t.Skip("Skipped by provider configuration")
			}
			g.run(t, newFS())
		})
	}
}
