package fetcher

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeZIP(t *testing.T, entries map[string]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.zip")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	w := zip.NewWriter(f)
	for name, content := range entries {
		e, err := w.Create(name)
		require.NoError(t, err)
		_, err = e.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return path
}

func TestOpenZIPEntry(t *testing.T) {
	path := writeZIP(t, map[string]string{
		"CIK0000320193.json": `{"cik":320193}`,
		"CIK0000789019.json": `{"cik":789019}`,
	})

	rc, err := OpenZIPEntry(path, "CIK0000789019.json")
	require.NoError(t, err)

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, `{"cik":789019}`, string(data))
	require.NoError(t, rc.Close())
}

func TestOpenZIPEntry_NotFound(t *testing.T) {
	path := writeZIP(t, map[string]string{"a.json": "{}"})

	_, err := OpenZIPEntry(path, "missing.json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found in archive")
}

func TestOpenZIPEntry_BadArchive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corrupt.zip")
	require.NoError(t, os.WriteFile(path, []byte("not a zip"), 0o644))

	_, err := OpenZIPEntry(path, "a.json")
	require.Error(t, err)
}

func TestListZIPEntries(t *testing.T) {
	path := writeZIP(t, map[string]string{
		"one.json": "{}",
		"two.json": "{}",
	})

	names, err := ListZIPEntries(path)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"one.json", "two.json"}, names)
}
