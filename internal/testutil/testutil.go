// Package testutil provides common test utilities for the bibliofile project.
package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// TestEnv is a sandboxed directory for test file IO. Every path it hands
// out is validated to stay inside the sandbox, and the directory is
// removed when the test finishes.
type TestEnv struct {
	t       *testing.T
	rootDir string
}

// NewTestEnv creates a sandbox rooted in a fresh temp directory.
func NewTestEnv(t *testing.T) *TestEnv {
	t.Helper()
	return &TestEnv{t: t, rootDir: t.TempDir()}
}

// RootDir returns the sandbox root.
func (e *TestEnv) RootDir() string {
	return e.rootDir
}

// Path joins elem under the sandbox root and fails the test if the
// cleaned result escapes it.
func (e *TestEnv) Path(elem ...string) string {
	e.t.Helper()

	full := filepath.Clean(filepath.Join(e.rootDir, filepath.Join(elem...)))

	root := filepath.Clean(e.rootDir)
	if full != root && !strings.HasPrefix(full, root+string(filepath.Separator)) {
		e.t.Fatalf("path %q escapes test sandbox %q", full, root)
	}

	return full
}

// WriteFile writes content to path, creating parent directories.
func (e *TestEnv) WriteFile(path string, content []byte) {
	e.t.Helper()

	abs := e.Path(path)
	e.mkParents(abs)
	if err := os.WriteFile(abs, content, 0o644); err != nil {
		e.t.Fatalf("failed to write file %q: %v", abs, err)
	}
}

// WriteFileString is WriteFile for string content.
func (e *TestEnv) WriteFileString(path, content string) {
	e.t.Helper()
	e.WriteFile(path, []byte(content))
}

// ReadFile reads a file inside the sandbox, failing the test on error.
func (e *TestEnv) ReadFile(path string) []byte {
	e.t.Helper()

	abs := e.Path(path)
	content, err := os.ReadFile(abs)
	if err != nil {
		e.t.Fatalf("failed to read file %q: %v", abs, err)
	}
	return content
}

// ReadFileString is ReadFile returning a string.
func (e *TestEnv) ReadFileString(path string) string {
	e.t.Helper()
	return string(e.ReadFile(path))
}

// CopyFile copies src (an absolute path) into the sandbox at dst.
func (e *TestEnv) CopyFile(src, dst string) {
	e.t.Helper()

	content, err := os.ReadFile(src)
	if err != nil {
		e.t.Fatalf("failed to read source file %q: %v", src, err)
	}
	e.WriteFile(dst, content)
}

// MkdirAll creates path and any missing parents inside the sandbox.
func (e *TestEnv) MkdirAll(path string) {
	e.t.Helper()

	abs := e.Path(path)
	if err := os.MkdirAll(abs, 0o755); err != nil {
		e.t.Fatalf("failed to create directory %q: %v", abs, err)
	}
}

// ListFiles returns the entry names of a sandbox directory.
func (e *TestEnv) ListFiles(path string) []string {
	e.t.Helper()

	entries, err := os.ReadDir(e.Path(path))
	if err != nil {
		e.t.Fatalf("failed to read directory %q: %v", e.Path(path), err)
	}

	var names []string
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	return names
}

// FileExists reports whether path exists inside the sandbox.
func (e *TestEnv) FileExists(path string) bool {
	e.t.Helper()

	_, err := os.Stat(e.Path(path))
	return err == nil
}

// RequireFileExists fails the test when path is missing.
func (e *TestEnv) RequireFileExists(path string) {
	e.t.Helper()

	if !e.FileExists(path) {
		e.t.Fatalf("expected file %q to exist", e.Path(path))
	}
}

// RequireFileNotExists fails the test when path is present.
func (e *TestEnv) RequireFileNotExists(path string) {
	e.t.Helper()

	if e.FileExists(path) {
		e.t.Fatalf("expected file %q to not exist", e.Path(path))
	}
}

// AssertFileContains checks that the file at path contains expected.
func (e *TestEnv) AssertFileContains(path, expected string) {
	e.t.Helper()

	if content := e.ReadFileString(path); !strings.Contains(content, expected) {
		e.t.Errorf("file %q does not contain expected string %q", path, expected)
	}
}

// AssertFileEquals checks that the file at path matches expected exactly.
func (e *TestEnv) AssertFileEquals(path, expected string) {
	e.t.Helper()

	if content := e.ReadFileString(path); content != expected {
		e.t.Errorf("file %q content mismatch:\ngot:\n%s\n\nwant:\n%s", path, content, expected)
	}
}

// Remove deletes a file or empty directory inside the sandbox.
func (e *TestEnv) Remove(path string) {
	e.t.Helper()

	abs := e.Path(path)
	if err := os.Remove(abs); err != nil {
		e.t.Fatalf("failed to remove %q: %v", abs, err)
	}
}

// RemoveAll deletes path and everything under it inside the sandbox.
func (e *TestEnv) RemoveAll(path string) {
	e.t.Helper()

	abs := e.Path(path)
	if err := os.RemoveAll(abs); err != nil {
		e.t.Fatalf("failed to remove all %q: %v", abs, err)
	}
}

// SetEnv sets an environment variable for the duration of the test.
func (e *TestEnv) SetEnv(key, value string) {
	e.t.Helper()
	e.t.Setenv(key, value)
}

func (e *TestEnv) String() string {
	return fmt.Sprintf("TestEnv{rootDir: %q}", e.rootDir)
}

func (e *TestEnv) mkParents(abs string) {
	e.t.Helper()

	dir := filepath.Dir(abs)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		e.t.Fatalf("failed to create directory %q: %v", dir, err)
	}
}
