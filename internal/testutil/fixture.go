// Package testutil provides fixture and golden file helpers for tests.
package testutil

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// Fixture returns the absolute path of a Python fixture under
// testdata/python, failing the test if it does not exist.
func Fixture(t *testing.T, name string) string {
	t.Helper()

	path := filepath.Join(fixturesRoot(t), name)
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("Fixture not found: %s", path)
	}
	return path
}

// ExpectedPath returns the path of a golden file. The name includes its
// extension, e.g. "shapes.Side.yaml".
func ExpectedPath(t *testing.T, name string) string {
	t.Helper()
	return filepath.Join(fixturesRoot(t), "expected", name)
}

// fixturesRoot returns the absolute path to testdata/python.
func fixturesRoot(t *testing.T) string {
	t.Helper()

	// Get the directory of this source file
	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("Failed to get caller information")
	}

	// Navigate from internal/testutil to project root
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(thisFile)))
	return filepath.Join(projectRoot, "testdata", "python")
}
