package dataset

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadManifestParsesYAML(t *testing.T) {
	const doc = `
base_url: "https://example.invalid/blobs"
blobs:
  - url: "aa/aaaa"
    local_path: "aa"
    file_id: "aaaa"
  - url: "bb/bbbb"
    local_path: "bb"
    file_id: "bbbb"
`
	m, err := LoadManifest(strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, "https://example.invalid/blobs", m.BaseURL)
	require.Len(t, m.Blobs, 2)
	assert.Equal(t, "aaaa", m.Blobs[0].FileID)
}

func TestResolveURLJoinsRelativeAgainstBase(t *testing.T) {
	assert.Equal(t, "https://x/blobs/aa/aaaa", resolveURL("https://x/blobs", "aa/aaaa"))
	assert.Equal(t, "https://x/blobs/aa/aaaa", resolveURL("https://x/blobs/", "/aa/aaaa"))
	assert.Equal(t, "https://other/file", resolveURL("https://x/blobs", "https://other/file"))
}

func TestDownloadAllFetchesEveryBlobConcurrently(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("content-for-" + r.URL.Path))
	}))
	defer srv.Close()

	m := Manifest{
		BaseURL: srv.URL,
		Blobs: []BlobSpec{
			{URL: "aa/aaaa", LocalPath: "aa", FileID: "aaaa"},
			{URL: "bb/bbbb", LocalPath: "bb", FileID: "bbbb"},
		},
	}

	dest := t.TempDir()
	d := New(Config{Concurrency: 2, MaxRetries: 1, BaseBackoff: time.Millisecond})
	require.NoError(t, d.DownloadAll(context.Background(), m, dest))

	contentA, err := os.ReadFile(filepath.Join(dest, "aa", "aaaa"))
	require.NoError(t, err)
	assert.Contains(t, string(contentA), "content-for-/aa/aaaa")

	contentB, err := os.ReadFile(filepath.Join(dest, "bb", "bbbb"))
	require.NoError(t, err)
	assert.Contains(t, string(contentB), "content-for-/bb/bbbb")
}

func TestDownloadAllReportsFailuresWithoutAbortingOthers(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "missing") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	m := Manifest{
		BaseURL: srv.URL,
		Blobs: []BlobSpec{
			{URL: "good", LocalPath: "g", FileID: "good"},
			{URL: "missing", LocalPath: "m", FileID: "missing"},
		},
	}
	dest := t.TempDir()
	d := New(Config{Concurrency: 2, MaxRetries: 1, BaseBackoff: time.Millisecond})
	err := d.DownloadAll(context.Background(), m, dest)
	require.Error(t, err)

	_, statErr := os.Stat(filepath.Join(dest, "g", "good"))
	assert.NoError(t, statErr)
}
