package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tkarvine/bibliofile/internal/config"
)

func TestTestEnvFileIO(t *testing.T) {
	t.Run("write and read back", func(t *testing.T) {
		env := NewTestEnv(t)

		env.WriteFile("raw.bin", []byte{0x1, 0x2})
		assert.Equal(t, []byte{0x1, 0x2}, env.ReadFile("raw.bin"))

		env.WriteFileString("note.md", "title: Foundation")
		assert.Equal(t, "title: Foundation", env.ReadFileString("note.md"))
	})

	t.Run("parent directories created on write", func(t *testing.T) {
		env := NewTestEnv(t)

		env.WriteFileString("books/series/note.md", "content")
		env.RequireFileExists("books/series/note.md")
	})

	t.Run("paths are absolute and sandboxed", func(t *testing.T) {
		env := NewTestEnv(t)

		path := env.Path("books", "note.md")
		assert.True(t, filepath.IsAbs(path))
		assert.True(t, filepath.IsAbs(env.RootDir()))
		assert.Contains(t, path, env.RootDir())
	})

	t.Run("copy external file into sandbox", func(t *testing.T) {
		env := NewTestEnv(t)

		src := filepath.Join(t.TempDir(), "source.txt")
		require.NoError(t, os.WriteFile(src, []byte("source content"), 0o644))

		env.CopyFile(src, "copied.txt")
		assert.Equal(t, "source content", env.ReadFileString("copied.txt"))
	})

	t.Run("list directory entries", func(t *testing.T) {
		env := NewTestEnv(t)

		env.WriteFileString("a.md", "1")
		env.WriteFileString("b.md", "2")
		env.MkdirAll("covers")

		files := env.ListFiles(".")
		assert.ElementsMatch(t, []string{"a.md", "b.md", "covers"}, files)
	})

	t.Run("remove and remove all", func(t *testing.T) {
		env := NewTestEnv(t)

		env.WriteFileString("gone.md", "x")
		env.Remove("gone.md")
		env.RequireFileNotExists("gone.md")

		env.WriteFileString("dir/nested/file.md", "x")
		env.RemoveAll("dir")
		assert.False(t, env.FileExists("dir"))
	})
}

func TestTestEnvAssertions(t *testing.T) {
	env := NewTestEnv(t)

	env.WriteFileString("note.md", "hello world")
	env.AssertFileContains("note.md", "world")
	env.AssertFileEquals("note.md", "hello world")

	assert.Contains(t, env.String(), env.RootDir())
}

func TestTestEnvSetEnv(t *testing.T) {
	t.Setenv("BIBLIOFILE_TEST_VAR", "original")

	t.Run("inner", func(t *testing.T) {
		env := NewTestEnv(t)
		env.SetEnv("BIBLIOFILE_TEST_VAR", "modified")
		assert.Equal(t, "modified", os.Getenv("BIBLIOFILE_TEST_VAR"))
	})

	assert.Equal(t, "original", os.Getenv("BIBLIOFILE_TEST_VAR"))
}

func TestGoldenHelper(t *testing.T) {
	t.Run("assert against golden file", func(t *testing.T) {
		env := NewTestEnv(t)
		env.WriteFileString("golden/note.golden", "expected content")

		gh := NewGoldenHelper(t, env.Path("golden"))
		gh.AssertGolden("note.golden", []byte("expected content"))
		gh.AssertGoldenString("note.golden", "expected content")
	})

	t.Run("path and existence", func(t *testing.T) {
		env := NewTestEnv(t)
		env.WriteFileString("golden/present.golden", "x")

		gh := NewGoldenHelper(t, env.Path("golden"))
		assert.Equal(t, env.Path("golden", "present.golden"), gh.GoldenPath("present.golden"))
		assert.True(t, gh.Exists("present.golden"))
		assert.False(t, gh.Exists("absent.golden"))
	})

	t.Run("must read", func(t *testing.T) {
		env := NewTestEnv(t)
		env.WriteFileString("golden/note.golden", "golden content")

		gh := NewGoldenHelper(t, env.Path("golden"))
		assert.Equal(t, []byte("golden content"), gh.MustReadGolden("note.golden"))
	})

	t.Run("update mode off by default", func(t *testing.T) {
		gh := NewGoldenHelper(t, "testdata")
		assert.False(t, gh.IsUpdateMode())
	})
}

func TestResetConfig(t *testing.T) {
	origOverwrite := config.OverwriteFiles
	origAPIKey := config.GoogleBooksAPIKey

	t.Run("inner", func(t *testing.T) {
		ResetConfig(t)

		config.OverwriteFiles = !origOverwrite
		config.GoogleBooksAPIKey = "modified-key"

		assert.NotEqual(t, origOverwrite, config.OverwriteFiles)
	})

	assert.Equal(t, origOverwrite, config.OverwriteFiles)
	assert.Equal(t, origAPIKey, config.GoogleBooksAPIKey)
}

func TestSetTestConfig(t *testing.T) {
	origOverwrite := config.OverwriteFiles
	origAPIKey := config.GoogleBooksAPIKey

	t.Run("inner", func(t *testing.T) {
		SetTestConfig(t)

		assert.True(t, config.OverwriteFiles)
		assert.Equal(t, "test-googlebooks-key", config.GoogleBooksAPIKey)
	})

	assert.Equal(t, origOverwrite, config.OverwriteFiles)
	assert.Equal(t, origAPIKey, config.GoogleBooksAPIKey)
}

func TestSetViperValue(t *testing.T) {
	viper.Reset()
	defer viper.Reset()

	t.Run("inner", func(t *testing.T) {
		SetViperValue(t, "test.key", "test-value")
		assert.Equal(t, "test-value", viper.GetString("test.key"))
	})
}

func TestSetupTestCache(t *testing.T) {
	viper.Reset()
	defer viper.Reset()

	env := NewTestEnv(t)
	cacheDir := SetupTestCache(t, env)

	assert.DirExists(t, cacheDir)
	assert.Contains(t, viper.GetString("cache.dbfile"), "test-cache.db")
	assert.Equal(t, "24h", viper.GetString("cache.ttl"))
}

func TestSaveRestoreConfigState(t *testing.T) {
	config.OverwriteFiles = true
	config.GoogleBooksAPIKey = "saved-key"

	state := SaveConfigState()

	config.OverwriteFiles = false
	config.GoogleBooksAPIKey = "modified"

	RestoreConfigState(state)

	assert.True(t, config.OverwriteFiles)
	assert.Equal(t, "saved-key", config.GoogleBooksAPIKey)
}
