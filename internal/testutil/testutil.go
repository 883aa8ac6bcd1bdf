// Package testutil provides common test utilities for the bookscan project.
package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestEnv is a sandboxed test directory. Every path handed out by it is
// checked to stay below the root, which is removed when the test completes.
type TestEnv struct {
	t       *testing.T
	rootDir string
}

// NewTestEnv creates a new sandboxed test environment.
func NewTestEnv(t *testing.T) *TestEnv {
	t.Helper()
	return &TestEnv{
		t:       t,
		rootDir: t.TempDir(),
	}
}

// RootDir returns the root directory of the test environment.
func (e *TestEnv) RootDir() string {
	return e.rootDir
}

// Path returns an absolute path within the test environment.
func (e *TestEnv) Path(elem ...string) string {
	e.t.Helper()

	cleanPath := filepath.Clean(filepath.Join(e.rootDir, filepath.Join(elem...)))
	if !e.isWithinSandbox(cleanPath) {
		e.t.Fatalf("path %q escapes test sandbox %q", cleanPath, e.rootDir)
	}
	return cleanPath
}

func (e *TestEnv) isWithinSandbox(path string) bool {
	cleanRoot := filepath.Clean(e.rootDir)
	return strings.HasPrefix(path, cleanRoot+string(filepath.Separator)) || path == cleanRoot
}

// WriteFile writes content to a file within the test environment, creating parent directories.
func (e *TestEnv) WriteFile(path string, content []byte) string {
	e.t.Helper()

	absPath := e.Path(path)
	require.NoError(e.t, os.MkdirAll(filepath.Dir(absPath), 0o755))
	require.NoError(e.t, os.WriteFile(absPath, content, 0o644))
	return absPath
}

// WriteFileString writes a string to a file within the test environment.
func (e *TestEnv) WriteFileString(path, content string) string {
	e.t.Helper()
	return e.WriteFile(path, []byte(content))
}

// ReadFileString reads a file within the test environment.
func (e *TestEnv) ReadFileString(path string) string {
	e.t.Helper()

	content, err := os.ReadFile(e.Path(path))
	require.NoError(e.t, err)
	return string(content)
}

// MkdirAll creates a directory and all necessary parents within the test environment.
func (e *TestEnv) MkdirAll(path string) string {
	e.t.Helper()

	absPath := e.Path(path)
	require.NoError(e.t, os.MkdirAll(absPath, 0o755))
	return absPath
}

// FileExists checks if a file exists within the test environment.
func (e *TestEnv) FileExists(path string) bool {
	e.t.Helper()

	_, err := os.Stat(e.Path(path))
	return err == nil
}

// RequireFileExists fails the test unless the file exists.
func (e *TestEnv) RequireFileExists(path string) {
	e.t.Helper()

	if !e.FileExists(path) {
		e.t.Fatalf("expected file %q to exist", e.Path(path))
	}
}

// ListFiles returns the entry names of a directory within the test environment.
func (e *TestEnv) ListFiles(path string) []string {
	e.t.Helper()

	entries, err := os.ReadDir(e.Path(path))
	require.NoError(e.t, err)

	var files []string
	for _, entry := range entries {
		files = append(files, entry.Name())
	}
	return files
}

// AssertFileContains checks if a file contains the expected string.
func (e *TestEnv) AssertFileContains(path, expected string) {
	e.t.Helper()

	if content := e.ReadFileString(path); !strings.Contains(content, expected) {
		e.t.Errorf("file %q does not contain expected string %q", path, expected)
	}
}

// Chdir changes the working directory to a path within the test environment
// and restores it when the test completes.
func (e *TestEnv) Chdir(path string) {
	e.t.Helper()

	origDir, err := os.Getwd()
	require.NoError(e.t, err)
	require.NoError(e.t, os.Chdir(e.Path(path)))

	e.t.Cleanup(func() {
		if err := os.Chdir(origDir); err != nil {
			e.t.Errorf("failed to restore directory to %q: %v", origDir, err)
		}
	})
}

// SetEnv sets an environment variable and restores it when the test completes.
func (e *TestEnv) SetEnv(key, value string) {
	e.t.Helper()
	e.t.Setenv(key, value)
}

// String returns a string representation of the test environment for debugging.
func (e *TestEnv) String() string {
	return fmt.Sprintf("TestEnv{rootDir: %q}", e.rootDir)
}
