// Package archive implements the block-partitioning and parallel
// compression/decompression harness of spec.md §4.9: given a
// permutation, it streams blobs through a Compressor either as one
// archive or as fixed-size blocks, parallelising block work over a
// bounded errgroup pool (grounded on first.go's
// errgroup.WithContext+SetLimit pattern), then measures compression and
// (sampled) decompression wall time and derives the report metrics.
package archive

import (
	"archive/tar"
	"bytes"
	"context"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/rpcpool/ppcbench/blob"
	"github.com/rpcpool/ppcbench/compressor"
)

// ErrCompressorFailed is returned when a compressor invocation fails for
// the current (compressor, permuter, block-size) tuple; per spec.md §7
// this aborts only the current tuple, not the whole benchmark run.
type ErrCompressorFailed struct {
	Tuple string
	Err   error
}

func (e *ErrCompressorFailed) Error() string {
	return fmt.Sprintf("archive: compressor failed for %s: %v", e.Tuple, e.Err)
}

func (e *ErrCompressorFailed) Unwrap() error { return e.Err }

func (e *ErrCompressorFailed) Is(target error) bool {
	_, ok := target.(*ErrCompressorFailed)
	return ok
}

// ErrWorkDirFailed is returned when the scoped per-pass working directory
// cannot be created; per spec.md §4.10 this is fatal for the whole process,
// unlike ErrCompressorFailed which only aborts the current tuple.
type ErrWorkDirFailed struct {
	Err error
}

func (e *ErrWorkDirFailed) Error() string {
	return fmt.Sprintf("archive: creating working directory: %v", e.Err)
}

func (e *ErrWorkDirFailed) Unwrap() error { return e.Err }

func (e *ErrWorkDirFailed) Is(target error) bool {
	_, ok := target.(*ErrWorkDirFailed)
	return ok
}

// acquireWorkDir creates the scoped directory for one benchmark pass,
// named `<tmpdir>/ppcbench-<pid>-<technique>-<compressor>-<uuid>` so
// concurrent passes over the same technique/compressor never collide
// (spec.md §5 "exclusive to one benchmark pass"). The returned release
// func is safe to call more than once and must be deferred immediately so
// the directory is removed on every exit path, including a panic
// recovered further up the call stack at the CLI boundary.
func acquireWorkDir(technique, compName string) (dir string, release func(), err error) {
	name := fmt.Sprintf("ppcbench-%d-%s-%s-%s", os.Getpid(), technique, compName, uuid.New().String())
	dir = filepath.Join(os.TempDir(), name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", func() {}, &ErrWorkDirFailed{Err: err}
	}
	return dir, func() { os.RemoveAll(dir) }, nil
}

// Spec bundles everything one archive pass needs.
type Spec struct {
	Dataset        string
	Technique      string
	Compressor     compressor.Compressor
	InputDir       string
	OutputDir      string
	KeepArchives   bool
	BlockSizeBytes uint64 // 0 = single archive
	BlockSizeLabel string // e.g. "0", "4MiB" — used verbatim in filenames
	Threads        int
}

// Metrics is the measured outcome of one Run, sufficient to populate a
// report.Row (minus the fields the caller already knows: dataset size
// stats, technique name, ordering time).
type Metrics struct {
	BlockMode               bool
	CompressedSize          uint64
	UncompressedSize        uint64
	CompressionTime         time.Duration
	DecompressionTime       time.Duration // full-archive time, or the block-mode extrapolation
	TimeBlobDecompression   time.Duration // block mode only: per-block decompression time
	NumBlocks               int
}

const decompressionSampleFraction = 0.10
const decompressionSampleSeed = 42

// Run executes one archive pass over ds in permutation order perm. It
// acquires the pass's scoped working directory up front and guarantees its
// release on every exit path (success, per-tuple compressor failure, or a
// panic unwinding through this call), per spec.md §3/§5's working-directory
// lifecycle.
func Run(ctx context.Context, ds blob.Dataset, perm []int, spec Spec) (Metrics, error) {
	workDir, release, err := acquireWorkDir(spec.Technique, compressorName(spec))
	if err != nil {
		return Metrics{}, err
	}
	defer release()

	if spec.BlockSizeBytes == 0 {
		return runSingle(ctx, ds, perm, spec, workDir)
	}
	return runBlocks(ctx, ds, perm, spec, workDir)
}

func runSingle(ctx context.Context, ds blob.Dataset, perm []int, spec Spec, workDir string) (Metrics, error) {
	tarBytes, uncompressed, err := buildTar(ds, spec.InputDir, workDir, "single.tar", perm)
	if err != nil {
		return Metrics{}, &ErrCompressorFailed{Tuple: tupleName(spec), Err: err}
	}

	start := time.Now()
	compressed, err := spec.Compressor.Compress(tarBytes)
	compressionTime := time.Since(start)
	if err != nil {
		return Metrics{}, &ErrCompressorFailed{Tuple: tupleName(spec), Err: err}
	}

	if spec.KeepArchives {
		if err := writeArchiveFile(spec, singleArchiveName(spec, ds), compressed); err != nil {
			return Metrics{}, &ErrCompressorFailed{Tuple: tupleName(spec), Err: err}
		}
	}

	start = time.Now()
	if err := decompressAndDiscard(spec.Compressor, compressed); err != nil {
		return Metrics{}, &ErrCompressorFailed{Tuple: tupleName(spec), Err: err}
	}
	decompressionTime := time.Since(start)

	return Metrics{
		CompressedSize:    uint64(len(compressed)),
		UncompressedSize:  uncompressed,
		CompressionTime:   compressionTime,
		DecompressionTime: decompressionTime,
	}, nil
}

// block is one contiguous permutation slice; blocks close after including
// the blob that pushes accumulated size to the soft ceiling, so a single
// oversized blob always gets its own block (spec.md's soft-ceiling
// invariant).
type block struct {
	index   int
	indices []int
	size    uint64
}

func partitionBlocks(ds blob.Dataset, perm []int, ceiling uint64) []block {
	var blocks []block
	var cur block
	for _, idx := range perm {
		cur.indices = append(cur.indices, idx)
		cur.size += ds[idx].Length
		if cur.size >= ceiling {
			cur.index = len(blocks)
			blocks = append(blocks, cur)
			cur = block{}
		}
	}
	if len(cur.indices) > 0 {
		cur.index = len(blocks)
		blocks = append(blocks, cur)
	}
	return blocks
}

type compressedBlock struct {
	block          block
	compressed     []byte
	compressedSize uint64
	filename       string
}

func runBlocks(ctx context.Context, ds blob.Dataset, perm []int, spec Spec, workDir string) (Metrics, error) {
	blocks := partitionBlocks(ds, perm, spec.BlockSizeBytes)
	results := make([]compressedBlock, len(blocks))
	var mapLines []string

	g, gctx := errgroup.WithContext(ctx)
	if spec.Threads > 0 {
		g.SetLimit(spec.Threads)
	}

	start := time.Now()
	for _, b := range blocks {
		b := b
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			tarBytes, _, err := buildTar(ds, spec.InputDir, workDir, fmt.Sprintf("block-%d.tar", b.index), b.indices)
			if err != nil {
				return fmt.Errorf("block %d: %w", b.index, err)
			}
			compressed, err := spec.Compressor.Compress(tarBytes)
			if err != nil {
				return fmt.Errorf("block %d: %w", b.index, err)
			}
			name := blockArchiveName(spec, ds, b.index)
			if spec.KeepArchives {
				if err := writeArchiveFile(spec, name, compressed); err != nil {
					return fmt.Errorf("block %d: %w", b.index, err)
				}
			}
			results[b.index] = compressedBlock{block: b, compressed: compressed, compressedSize: uint64(len(compressed)), filename: name}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Metrics{}, &ErrCompressorFailed{Tuple: tupleName(spec), Err: err}
	}
	compressionTime := time.Since(start)

	var compressedTotal, uncompressedTotal uint64
	for _, r := range results {
		compressedTotal += r.compressedSize
		for _, idx := range r.block.indices {
			uncompressedTotal += ds[idx].Length
			mapLines = append(mapLines, fmt.Sprintf("%s %s", blobRelPath(ds, idx), r.filename))
		}
	}

	if spec.KeepArchives {
		if err := writeSidecarManifest(spec, ds, mapLines); err != nil {
			return Metrics{}, &ErrCompressorFailed{Tuple: tupleName(spec), Err: err}
		}
	}

	sampleTime, timePerBlock, err := sampleDecompress(ctx, spec, blocks, results)
	if err != nil {
		return Metrics{}, &ErrCompressorFailed{Tuple: tupleName(spec), Err: err}
	}
	extrapolated := time.Duration(float64(sampleTime) / decompressionSampleFraction)

	return Metrics{
		BlockMode:             true,
		CompressedSize:        compressedTotal,
		UncompressedSize:      uncompressedTotal,
		CompressionTime:       compressionTime,
		DecompressionTime:     extrapolated,
		TimeBlobDecompression: timePerBlock,
		NumBlocks:             len(blocks),
	}, nil
}

func sampleDecompress(ctx context.Context, spec Spec, blocks []block, results []compressedBlock) (time.Duration, time.Duration, error) {
	n := len(blocks)
	if n == 0 {
		return 0, 0, nil
	}
	k := int(float64(n) * decompressionSampleFraction)
	if k == 0 {
		k = 1
	}
	sample := seededSampleIndices(n, k, decompressionSampleSeed)

	g, gctx := errgroup.WithContext(ctx)
	if spec.Threads > 0 {
		g.SetLimit(spec.Threads)
	}
	start := time.Now()
	for _, i := range sample {
		i := i
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			return decompressAndDiscard(spec.Compressor, results[i].compressed)
		})
	}
	if err := g.Wait(); err != nil {
		return 0, 0, err
	}
	sampleTime := time.Since(start)
	perBlock := time.Duration(float64(sampleTime) / float64(len(sample)))
	return sampleTime, perBlock, nil
}

func decompressAndDiscard(c compressor.Compressor, compressed []byte) error {
	tarBytes, err := c.Decompress(compressed)
	if err != nil {
		return err
	}
	tr := tar.NewReader(bytes.NewReader(tarBytes))
	for {
		_, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if _, err := io.Copy(io.Discard, tr); err != nil {
			return err
		}
	}
}

// buildTar stages a tar stream over the blobs named by indices, in that
// order, into stageName under the pass's scoped working directory, then
// reads it back — exercising the working-directory lifecycle rather than
// building the archive purely in memory. Ownership/permission bits are
// zeroed for reproducibility, the Go equivalent of the reference
// implementation's `--owner=0 --group=0 --no-same-owner
// --no-same-permissions` tar flags.
func buildTar(ds blob.Dataset, inputDir, workDir, stageName string, indices []int) ([]byte, uint64, error) {
	stagePath := filepath.Join(workDir, stageName)
	f, err := os.Create(stagePath)
	if err != nil {
		return nil, 0, err
	}
	defer os.Remove(stagePath)
	defer f.Close()

	tw := tar.NewWriter(f)
	var total uint64
	for _, idx := range indices {
		path := ds.Path(inputDir, idx)
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, 0, fmt.Errorf("reading %s: %w", path, err)
		}
		hdr := &tar.Header{
			Name:    blobRelPath(ds, idx),
			Size:    int64(len(data)),
			Mode:    0o644,
			Uid:     0,
			Gid:     0,
			ModTime: time.Unix(0, 0),
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return nil, 0, err
		}
		if _, err := tw.Write(data); err != nil {
			return nil, 0, err
		}
		total += uint64(len(data))
	}
	if err := tw.Close(); err != nil {
		return nil, 0, err
	}

	tarBytes, err := os.ReadFile(stagePath)
	if err != nil {
		return nil, 0, err
	}
	return tarBytes, total, nil
}

func blobRelPath(ds blob.Dataset, idx int) string {
	return filepath.Join(ds[idx].LocalPath, ds[idx].FileID)
}

func writeArchiveFile(spec Spec, name string, data []byte) error {
	if err := os.MkdirAll(spec.OutputDir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(spec.OutputDir, name), data, 0o644)
}

func writeSidecarManifest(spec Spec, ds blob.Dataset, lines []string) error {
	sort.Strings(lines)
	name := fmt.Sprintf("filename_archive_map_%s_%s_%sGiB_%s.txt",
		spec.Dataset, spec.Technique, sizeGiBLabel(ds), spec.BlockSizeLabel)
	content := ""
	for _, l := range lines {
		content += l + "\n"
	}
	return os.WriteFile(filepath.Join(spec.OutputDir, name), []byte(content), 0o644)
}

// compressorName returns spec's compressor token, or "external" for a nil
// Compressor (used when naming a work directory before a tuple's
// compressor has failed to resolve).
func compressorName(spec Spec) string {
	if spec.Compressor != nil {
		return spec.Compressor.Name()
	}
	return "external"
}

func tupleName(spec Spec) string {
	return fmt.Sprintf("%s/%s/%s", compressorName(spec), spec.Technique, spec.BlockSizeLabel)
}

func singleArchiveName(spec Spec, ds blob.Dataset) string {
	return fmt.Sprintf("%s_%s_%sGiB.tar.%s", spec.Dataset, spec.Technique, sizeGiBLabel(ds), compressorName(spec))
}

func blockArchiveName(spec Spec, ds blob.Dataset, blockIdx int) string {
	return fmt.Sprintf("%09d_%s_%s_%sGiB_block_compressed_%s.tar.%s",
		blockIdx, spec.Dataset, spec.Technique, sizeGiBLabel(ds), spec.BlockSizeLabel, compressorName(spec))
}

func sizeGiBLabel(ds blob.Dataset) string {
	gib := float64(ds.TotalSize()) / (1 << 30)
	return fmt.Sprintf("%.0f", gib)
}

// seededSampleIndices returns k distinct indices from [0, n), chosen by a
// seeded Fisher-Yates partial shuffle — deterministic given seed, the Go
// equivalent of the reference implementation's
// `np.random.seed(42); np.random.choice(n, k, replace=False)`.
func seededSampleIndices(n, k int, seed int64) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	r := rand.New(rand.NewSource(seed))
	for i := n - 1; i > 0 && n-i <= k; i-- {
		j := r.Intn(i + 1)
		idx[i], idx[j] = idx[j], idx[i]
	}
	if k > n {
		k = n
	}
	sample := append([]int(nil), idx[n-k:]...)
	sort.Ints(sample)
	return sample
}
