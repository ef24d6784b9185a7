// Package singleblob implements the `ppcbench singleblob` baseline
// benchmark (SPEC_FULL.md §8, from original_source/bench_single_blob.py):
// compress and decompress every blob independently, with no tar wrapping
// and no permutation step, reported under the reference script's own
// TECHNIQUE label "single_files". It is the simplest possible comparison
// point against the PPC harness's archived/permuted techniques, the same
// role bench_git_pack.py plays for the `gitpack` subcommand.
package singleblob

import (
	"context"
	"fmt"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rpcpool/ppcbench/blob"
	"github.com/rpcpool/ppcbench/compressor"
)

// Technique is the reference script's literal TECHNIQUE column value.
const Technique = "single_files"

// Result is the outcome of one singleblob pass, enough to populate a
// report.Row with TECHNIQUE=single_files and ORDERING_TIME(s)=0 (the
// reference script hardcodes ordering time to 0.0 since this baseline
// never permutes).
type Result struct {
	CompressedSize     uint64
	UncompressedSize   uint64
	CompressionTime    time.Duration
	DecompressionTime  time.Duration
	DecompressionPerBlob time.Duration
	NumBlobs           int
}

// Bench compresses then decompresses every blob in ds independently,
// bounded by threads concurrent workers — the Go equivalent of the
// reference implementation's ThreadPoolExecutor(NUM_THREAD) loop, fanned
// out with errgroup instead of submitted one future at a time.
func Bench(ctx context.Context, ds blob.Dataset, inputDir string, comp compressor.Compressor, threads int) (Result, error) {
	compressed := make([][]byte, len(ds))

	g, gctx := errgroup.WithContext(ctx)
	if threads > 0 {
		g.SetLimit(threads)
	}
	start := time.Now()
	for i := range ds {
		i := i
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			data, err := os.ReadFile(ds.Path(inputDir, i))
			if err != nil {
				return fmt.Errorf("reading blob %d: %w", i, err)
			}
			out, err := comp.Compress(data)
			if err != nil {
				return fmt.Errorf("compressing blob %d: %w", i, err)
			}
			compressed[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, fmt.Errorf("singleblob: %w", err)
	}
	compressionTime := time.Since(start)

	g2, gctx2 := errgroup.WithContext(ctx)
	if threads > 0 {
		g2.SetLimit(threads)
	}
	start = time.Now()
	for i := range ds {
		i := i
		g2.Go(func() error {
			select {
			case <-gctx2.Done():
				return gctx2.Err()
			default:
			}
			_, err := comp.Decompress(compressed[i])
			if err != nil {
				return fmt.Errorf("decompressing blob %d: %w", i, err)
			}
			return nil
		})
	}
	if err := g2.Wait(); err != nil {
		return Result{}, fmt.Errorf("singleblob: %w", err)
	}
	decompressionTime := time.Since(start)

	var compressedTotal uint64
	for _, c := range compressed {
		compressedTotal += uint64(len(c))
	}

	perBlob := time.Duration(0)
	if len(ds) > 0 {
		perBlob = decompressionTime / time.Duration(len(ds))
	}

	return Result{
		CompressedSize:       compressedTotal,
		UncompressedSize:     ds.TotalSize(),
		CompressionTime:      compressionTime,
		DecompressionTime:    decompressionTime,
		DecompressionPerBlob: perBlob,
		NumBlobs:             len(ds),
	}, nil
}
