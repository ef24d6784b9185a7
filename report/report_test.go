package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWritesHeaderImmediately(t *testing.T) {
	var buf bytes.Buffer
	_, err := New(&buf)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "DATASET")
	assert.Contains(t, lines[0], "COMMIT_HASH")
}

func TestWriteRowOmitsBlockColumnsWhenNotBlockMode(t *testing.T) {
	var buf bytes.Buffer
	w, err := New(&buf)
	require.NoError(t, err)
	require.NoError(t, w.WriteRow(Row{
		Dataset: "ds1", NumBlobs: 10, Technique: "list", CommitHash: "abc123",
	}))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	fields := strings.Split(lines[1], ",")
	// TIME_BLOB_DECOMPRESSION(ms) and THROUGHPUT(blobs/s) are the 12th/13th columns.
	assert.Equal(t, "", fields[11])
	assert.Equal(t, "", fields[12])
}

func TestWriteRowIncludesBlockColumnsWhenBlockMode(t *testing.T) {
	var buf bytes.Buffer
	w, err := New(&buf)
	require.NoError(t, err)
	require.NoError(t, w.WriteRow(Row{
		Dataset: "ds1", NumBlobs: 10, Technique: "list", BlockMode: true,
		TimeBlobDecompressMS: 12.5, ThroughputBlobsPerSec: 80,
	}))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	fields := strings.Split(lines[1], ",")
	assert.NotEqual(t, "", fields[11])
	assert.NotEqual(t, "", fields[12])
}

func TestWriteErrorEmitsHashPrefixedLine(t *testing.T) {
	var buf bytes.Buffer
	w, err := New(&buf)
	require.NoError(t, err)
	w.WriteError("zstd/list/0", assert.AnError)
	assert.Contains(t, buf.String(), "# Error: zstd/list/0")
}
