package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/rpcpool/ppcbench/compressor"
	"github.com/rpcpool/ppcbench/manifest"
	"github.com/rpcpool/ppcbench/report"
	"github.com/rpcpool/ppcbench/singleblob"
	"github.com/urfave/cli/v2"
	"k8s.io/klog/v2"
)

// newCmd_Singleblob implements the SPEC_FULL.md §8 baseline benchmark from
// original_source/bench_single_blob.py: compress and decompress each blob
// independently, with no tar wrapping and no permutation, reported as
// TECHNIQUE=single_files — the simplest possible comparison point, the
// same role `gitpack` plays for a plain VCS pack.
func newCmd_Singleblob() *cli.Command {
	return &cli.Command{
		Name:  "singleblob",
		Usage: "Benchmark compressing/decompressing each blob independently, with no archiving or permutation.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "input", Aliases: []string{"i"}, Usage: "input directory containing manifest.csv and blobs", Required: true},
			&cli.StringFlag{Name: "manifest", Usage: "manifest CSV path (default <input>/manifest.csv)"},
			&cli.StringSliceFlag{Name: "compressor", Aliases: []string{"c"}, Usage: "compressor token, repeatable (\"zstd\" or an external executable name)", Value: cli.NewStringSlice("zstd")},
			FlagThreads,
			FlagVerbose,
		},
		Action: func(c *cli.Context) error {
			inputDir := c.String("input")
			manifestPath := c.String("manifest")
			if manifestPath == "" {
				manifestPath = filepath.Join(inputDir, "manifest.csv")
			}

			logger := slog.Default()
			ds, err := manifest.Load(manifestPath, logger)
			if err != nil {
				return cli.Exit(fmt.Errorf("singleblob: loading manifest: %w", err), 1)
			}

			rw, err := report.New(os.Stdout)
			if err != nil {
				return cli.Exit(err, 1)
			}

			datasetName := filepath.Base(inputDir)
			threads := c.Int("threads")
			avg, median := sizeStats(ds)

			for _, ctoken := range c.StringSlice("compressor") {
				comp := compressor.Resolve(ctoken)
				if c.Bool("verbose") {
					klog.Infof("singleblob: %s starting (%d blobs, %s)", ctoken, len(ds), humanize.Bytes(ds.TotalSize()))
				}

				result, err := singleblob.Bench(c.Context, ds, inputDir, comp, threads)
				if err != nil {
					rw.WriteError(fmt.Sprintf("%s/%s", ctoken, singleblob.Technique), err)
					continue
				}

				uncompressedMiB := float64(result.UncompressedSize) / (1 << 20)
				ratio := 0.0
				if result.UncompressedSize > 0 {
					ratio = float64(result.CompressedSize) / float64(result.UncompressedSize) * 100
				}
				compressionSpeed := 0.0
				if result.CompressionTime > 0 {
					compressionSpeed = uncompressedMiB / result.CompressionTime.Seconds()
				}
				decompressionSpeed := 0.0
				throughput := 0.0
				if result.DecompressionTime > 0 {
					decompressionSpeed = uncompressedMiB / result.DecompressionTime.Seconds()
					throughput = float64(result.NumBlobs) / result.DecompressionTime.Seconds()
				}

				if err := rw.WriteRow(report.Row{
					Dataset:               datasetName,
					NumBlobs:              result.NumBlobs,
					TotalSizeGiB:          float64(result.UncompressedSize) / (1 << 30),
					AvgBlobSizeKiB:        avg,
					MedianBlobSizeKiB:     median,
					Technique:             singleblob.Technique,
					CompressionRatio:      ratio,
					OrderingTimeS:         0,
					CompressionTimeS:      result.CompressionTime.Seconds(),
					CompressionSpeed:      compressionSpeed,
					DecompressionSpeed:    decompressionSpeed,
					BlockMode:             true,
					TimeBlobDecompressMS:  float64(result.DecompressionPerBlob.Microseconds()) / 1000,
					ThroughputBlobsPerSec: throughput,
					CommitHash:            GitCommit,
				}); err != nil {
					return cli.Exit(err, 1)
				}
			}
			return nil
		},
	}
}
