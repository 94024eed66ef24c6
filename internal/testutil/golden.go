package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// GoldenHelper compares generated content against files under a golden
// directory. Running the tests with UPDATE_GOLDEN=true rewrites the
// golden files from the actual output instead of comparing.
type GoldenHelper struct {
	t          *testing.T
	goldenDir  string
	updateMode bool
}

// NewGoldenHelper creates a helper rooted at goldenDir.
func NewGoldenHelper(t *testing.T, goldenDir string) *GoldenHelper {
	t.Helper()

	return &GoldenHelper{
		t:          t,
		goldenDir:  goldenDir,
		updateMode: os.Getenv("UPDATE_GOLDEN") == "true",
	}
}

// GoldenPath returns the full path of a golden file.
func (g *GoldenHelper) GoldenPath(name string) string {
	return filepath.Join(g.goldenDir, name)
}

// IsUpdateMode reports whether golden files are being rewritten.
func (g *GoldenHelper) IsUpdateMode() bool {
	return g.updateMode
}

// Exists reports whether the named golden file is present.
func (g *GoldenHelper) Exists(name string) bool {
	_, err := os.Stat(g.GoldenPath(name))
	return err == nil
}

// AssertGolden compares actual against the named golden file, or rewrites
// the golden file in update mode.
func (g *GoldenHelper) AssertGolden(name string, actual []byte) {
	g.t.Helper()

	path := g.GoldenPath(name)

	if g.updateMode {
		require.NoError(g.t, os.MkdirAll(filepath.Dir(path), 0o755),
			"failed to create golden file directory")
		require.NoError(g.t, os.WriteFile(path, actual, 0o644),
			"failed to update golden file")
		g.t.Logf("Updated golden file: %s", path)
		return
	}

	golden, err := os.ReadFile(path)
	require.NoError(g.t, err, "failed to read golden file %s", path)

	assert.Equal(g.t, string(golden), string(actual),
		"content does not match golden file %s", name)
}

// AssertGoldenString is AssertGolden for string content.
func (g *GoldenHelper) AssertGoldenString(name, actual string) {
	g.t.Helper()
	g.AssertGolden(name, []byte(actual))
}

// MustReadGolden returns the content of a golden file, failing the test
// when it cannot be read.
func (g *GoldenHelper) MustReadGolden(name string) []byte {
	g.t.Helper()

	content, err := os.ReadFile(g.GoldenPath(name))
	require.NoError(g.t, err, "failed to read golden file %s", g.GoldenPath(name))
	return content
}
