package fileutil

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tkarvine/bibliofile/internal/testutil"
)

type volumeExport struct {
	Title  string `json:"title"`
	ISBN13 string `json:"isbn13"`
	Volume int    `json:"volume"`
}

func readVolumes(t *testing.T, env *testutil.TestEnv, name string) []volumeExport {
	t.Helper()
	var out []volumeExport
	require.NoError(t, json.Unmarshal(env.ReadFile(name), &out))
	return out
}

func TestWriteJSONFile(t *testing.T) {
	t.Run("writes a new file", func(t *testing.T) {
		env := testutil.NewTestEnv(t)
		path := env.Path("volumes.json")

		volumes := []volumeExport{
			{Title: "Thorgal - Tome 1", Volume: 1},
			{Title: "Thorgal - Tome 2", ISBN13: "9780553293357", Volume: 2},
		}

		written, err := WriteJSONFile(volumes, path, false)
		require.NoError(t, err)
		assert.True(t, written)

		got := readVolumes(t, env, "volumes.json")
		require.Len(t, got, 2)
		assert.Equal(t, "Thorgal - Tome 1", got[0].Title)
		assert.Equal(t, "9780553293357", got[1].ISBN13)
	})

	t.Run("overwrite replaces existing content", func(t *testing.T) {
		env := testutil.NewTestEnv(t)
		path := env.Path("volumes.json")

		_, err := WriteJSONFile([]volumeExport{{Title: "Old", Volume: 99}}, path, true)
		require.NoError(t, err)

		written, err := WriteJSONFile([]volumeExport{{Title: "New", Volume: 1}}, path, true)
		require.NoError(t, err)
		assert.True(t, written)

		got := readVolumes(t, env, "volumes.json")
		require.Len(t, got, 1)
		assert.Equal(t, "New", got[0].Title)
	})

	t.Run("existing file skipped without overwrite", func(t *testing.T) {
		env := testutil.NewTestEnv(t)
		path := env.Path("volumes.json")

		_, err := WriteJSONFile([]volumeExport{{Title: "Old", Volume: 99}}, path, true)
		require.NoError(t, err)

		written, err := WriteJSONFile([]volumeExport{{Title: "New", Volume: 1}}, path, false)
		require.NoError(t, err)
		assert.False(t, written)

		got := readVolumes(t, env, "volumes.json")
		require.Len(t, got, 1)
		assert.Equal(t, "Old", got[0].Title, "content must remain unchanged")
	})

	t.Run("creates missing parent directories", func(t *testing.T) {
		env := testutil.NewTestEnv(t)
		path := env.Path(filepath.Join("exports", "series", "volumes.json"))

		written, err := WriteJSONFile(volumeExport{Title: "Dune", Volume: 1}, path, false)
		require.NoError(t, err)
		assert.True(t, written)
		assert.True(t, FileExists(path))
	})

	t.Run("unmarshalable data fails without writing", func(t *testing.T) {
		env := testutil.NewTestEnv(t)
		path := env.Path("bad.json")

		written, err := WriteJSONFile(make(chan int), path, true)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to marshal JSON")
		assert.False(t, written)
		assert.False(t, FileExists(path))
	})
}
