// Package report implements the process-wide result-stream sink of
// spec.md §5/§6: one CSV header followed by one record per benchmark
// point, written to a single io.Writer with each line mutex-guarded and
// flushed so concurrent benchmark points never interleave partial lines.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"sync"
)

// Header is the fixed column set spec.md §6 documents. The
// TIME_BLOB_DECOMPRESSION(ms) and THROUGHPUT(blobs/s) columns are only
// populated in block mode; single-archive rows leave them blank.
var Header = []string{
	"DATASET", "NUM_BLOBS", "TOTAL_SIZE(GiB)", "AVG_BLOB_SIZE(KiB)", "MEDIAN_BLOB_SIZE(KiB)",
	"TECHNIQUE", "COMPRESSION_RATIO(%)", "ORDERING_TIME(s)", "COMPRESSION_TIME(s)",
	"COMPRESSION_SPEED(MiB/s)", "DECOMPRESSION_SPEED(MiB/s)",
	"TIME_BLOB_DECOMPRESSION(ms)", "THROUGHPUT(blobs/s)", "COMMIT_HASH", "NOTES",
}

// Row is one benchmark-point record. BlockMode gates whether the two
// block-only columns are emitted.
type Row struct {
	Dataset           string
	NumBlobs          int
	TotalSizeGiB      float64
	AvgBlobSizeKiB    float64
	MedianBlobSizeKiB float64
	Technique         string
	CompressionRatio  float64 // percent
	OrderingTimeS     float64
	CompressionTimeS  float64
	CompressionSpeed  float64 // MiB/s
	DecompressionSpeed float64 // MiB/s
	BlockMode              bool
	TimeBlobDecompressMS   float64
	ThroughputBlobsPerSec  float64
	CommitHash             string
	Notes                  string
}

// Writer is the mutex-guarded CSV sink. Zero value is not usable; use New.
type Writer struct {
	mu  sync.Mutex
	w   *csv.Writer
	raw io.Writer
}

// New wraps w and writes the CSV header immediately.
func New(w io.Writer) (*Writer, error) {
	rw := &Writer{w: csv.NewWriter(w), raw: w}
	if err := rw.w.Write(Header); err != nil {
		return nil, fmt.Errorf("report: writing header: %w", err)
	}
	rw.w.Flush()
	return rw, rw.w.Error()
}

// WriteRow appends one benchmark-point row and flushes immediately so a
// crash mid-run never loses a completed point.
func (rw *Writer) WriteRow(r Row) error {
	rw.mu.Lock()
	defer rw.mu.Unlock()

	blobDecomp, throughput := "", ""
	if r.BlockMode {
		blobDecomp = formatFloat(r.TimeBlobDecompressMS)
		throughput = formatFloat(r.ThroughputBlobsPerSec)
	}

	record := []string{
		r.Dataset,
		strconv.Itoa(r.NumBlobs),
		formatFloat(r.TotalSizeGiB),
		formatFloat(r.AvgBlobSizeKiB),
		formatFloat(r.MedianBlobSizeKiB),
		r.Technique,
		formatFloat(r.CompressionRatio),
		formatFloat(r.OrderingTimeS),
		formatFloat(r.CompressionTimeS),
		formatFloat(r.CompressionSpeed),
		formatFloat(r.DecompressionSpeed),
		blobDecomp,
		throughput,
		r.CommitHash,
		r.Notes,
	}
	if err := rw.w.Write(record); err != nil {
		return fmt.Errorf("report: writing row: %w", err)
	}
	rw.w.Flush()
	return rw.w.Error()
}

// WriteError emits a `# Error: ...`-prefixed diagnostic line, preserving
// the stdout stream's machine-readability (spec.md §7: no stack traces on
// the CSV sink).
func (rw *Writer) WriteError(tuple string, err error) {
	rw.mu.Lock()
	defer rw.mu.Unlock()
	rw.w.Flush()
	fmt.Fprintf(rw.raw, "# Error: %s: %v\n", tuple, err)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', 6, 64)
}
