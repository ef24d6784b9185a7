package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/dustin/go-humanize"
	"github.com/rpcpool/ppcbench/archive"
	"github.com/rpcpool/ppcbench/blob"
	"github.com/rpcpool/ppcbench/compressor"
	"github.com/rpcpool/ppcbench/fingerprint"
	"github.com/rpcpool/ppcbench/lshgraph"
	"github.com/rpcpool/ppcbench/manifest"
	"github.com/rpcpool/ppcbench/orderer"
	"github.com/rpcpool/ppcbench/report"
	"github.com/rpcpool/ppcbench/typegroup"
	"github.com/rpcpool/ppcbench/typeoracle"
	"github.com/urfave/cli/v2"
	"k8s.io/klog/v2"
)

// graphPermuterNames and typePermuterNames extend orderer.Names with the
// lshgraph and typegroup permuters, which are not Orderer-registry
// strategies (they need more than a Dataset+inputDir to build: sketch
// width/band count, an Oracle, a sub-orderer), so `-p all` and
// resolvePermuter handle them directly instead of delegating to
// orderer.New.
var (
	graphPermuterNames = []string{"minhashgraph", "simhashgraph"}
	typePermuterNames  = []string{"typemagika", "typeminhashgraph", "typemagikatlshsort", "typemagikaminhashgraph"}
)

func allPermuterNames() []string {
	all := append([]string{}, orderer.Names...)
	all = append(all, graphPermuterNames...)
	all = append(all, typePermuterNames...)
	return all
}

// permuteFunc is the common shape every permuter (direct orderer, LSH
// graph clusterer, or type grouper) reduces to for cmd-run.go's tuple
// loop.
type permuteFunc func(ds blob.Dataset, inputDir string) ([]int, error)

func resolvePermuter(name string) (permuteFunc, error) {
	fpOpts := fingerprint.DefaultOptions()
	switch name {
	case "minhashgraph":
		opts := lshgraph.DefaultMinHashOptions(256, 64)
		return func(ds blob.Dataset, inputDir string) ([]int, error) {
			return lshgraph.Order(ds, inputDir, lshgraph.MinHashVariant, opts)
		}, nil
	case "simhashgraph":
		opts := lshgraph.DefaultSimHashOptions(128, 32)
		return func(ds blob.Dataset, inputDir string) ([]int, error) {
			return lshgraph.Order(ds, inputDir, lshgraph.SimHashVariant, opts)
		}, nil
	case "typemagika":
		oracle := typeoracle.ContentOracle()
		return func(ds blob.Dataset, inputDir string) ([]int, error) {
			return typegroup.Order(ds, inputDir, oracle, nil, typegroup.DefaultOptions())
		}, nil
	case "typeminhashgraph":
		oracle := typeoracle.TwoStage(typeoracle.ContentOracle(), typeoracle.LanguageOracle())
		sub := typegroup.MinHashGraphSubOrderer(lshgraph.DefaultMinHashOptions(256, 64))
		return func(ds blob.Dataset, inputDir string) ([]int, error) {
			return typegroup.Order(ds, inputDir, oracle, sub, typegroup.DefaultOptions())
		}, nil
	case "typemagikatlshsort":
		oracle := typeoracle.ContentOracle()
		sub := typegroup.TLSHSortSubOrderer(fpOpts)
		return func(ds blob.Dataset, inputDir string) ([]int, error) {
			return typegroup.Order(ds, inputDir, oracle, sub, typegroup.DefaultOptions())
		}, nil
	case "typemagikaminhashgraph":
		oracle := typeoracle.ContentOracle()
		sub := typegroup.MinHashGraphSubOrderer(lshgraph.DefaultMinHashOptions(256, 64))
		return func(ds blob.Dataset, inputDir string) ([]int, error) {
			return typegroup.Order(ds, inputDir, oracle, sub, typegroup.DefaultOptions())
		}, nil
	default:
		ord, err := orderer.New(name, orderer.DefaultConfig())
		if err != nil {
			return nil, err
		}
		return ord.Order, nil
	}
}

func newCmd_Run() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Run the Permute-Partition-Compress benchmark over a blob manifest.",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{Name: "compressor", Aliases: []string{"c"}, Usage: "compressor token, repeatable (\"zstd\" or an external executable name)", Value: cli.NewStringSlice("zstd")},
			&cli.StringSliceFlag{Name: "permuter", Aliases: []string{"p"}, Usage: "permuter name, repeatable, or \"all\"", Value: cli.NewStringSlice("list")},
			&cli.GenericFlag{Name: "block-size", Aliases: []string{"b"}, Usage: "block size, repeatable (\"0\" or <int>{KiB|MiB|GiB})", Value: &blockSizeList{}},
			&cli.StringFlag{Name: "input", Aliases: []string{"i"}, Usage: "input directory containing manifest.csv and blobs", Required: true},
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "output directory for archives and the CSV report sidecar", Required: true},
			&cli.StringFlag{Name: "manifest", Usage: "manifest CSV path (default <input>/manifest.csv)"},
			&cli.BoolFlag{Name: "keep", Aliases: []string{"k"}, Usage: "keep archive files in the output directory"},
			&cli.BoolFlag{Name: "stats", Aliases: []string{"s"}, Usage: "print dataset summary statistics and exit, without permuting or compressing"},
			&cli.BoolFlag{Name: "type-stats", Usage: "print a label -> count/size table from the type-grouper's oracle and exit"},
			FlagThreads,
			FlagVerbose,
			FlagVeryVerbose,
		},
		Action: runAction,
	}
}

func runAction(c *cli.Context) error {
	logger := slog.Default()
	inputDir := c.String("input")
	if !URI(inputDir).IsLocal() {
		return cli.Exit(fmt.Errorf("run: -i must be a local directory, got %q (use `ppcbench fetch` to download a remote dataset first)", inputDir), 1)
	}
	outputDir := c.String("output")
	manifestPath := c.String("manifest")
	if manifestPath == "" {
		manifestPath = filepath.Join(inputDir, "manifest.csv")
	}

	ds, err := manifest.Load(manifestPath, logger)
	if err != nil {
		return cli.Exit(fmt.Errorf("run: loading manifest: %w", err), 1)
	}
	if len(ds) == 0 {
		return cli.Exit(fmt.Errorf("run: manifest %s contains no usable blobs", manifestPath), 1)
	}

	if c.Bool("stats") {
		return runStatsOnly(ds, os.Stdout)
	}
	if c.Bool("type-stats") {
		return runTypeStats(ds, inputDir, typeoracle.ContentOracle(), os.Stdout)
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return cli.Exit(fmt.Errorf("run: creating output directory: %w", err), 1)
	}

	permuterNames := c.StringSlice("permuter")
	if len(permuterNames) == 1 && permuterNames[0] == "all" {
		permuterNames = allPermuterNames()
	}
	compressorTokens := c.StringSlice("compressor")
	blockSizes := c.Generic("block-size").(*blockSizeList).values
	if len(blockSizes) == 0 {
		blockSizes = []blockSizeSpec{{Bytes: 0, Label: "0"}}
	}

	rw, err := report.New(os.Stdout)
	if err != nil {
		return cli.Exit(err, 1)
	}

	threads := c.Int("threads")
	verbose := c.Bool("verbose") || c.Bool("vv")
	datasetName := filepath.Base(inputDir)

	for _, pname := range permuterNames {
		permute, err := resolvePermuter(pname)
		if err != nil {
			rw.WriteError(pname, err)
			continue
		}

		start := time.Now()
		perm, err := permute(ds, inputDir)
		orderingTime := time.Since(start)
		if err != nil {
			rw.WriteError(pname, err)
			continue
		}
		if err := orderer.VerifyPermutation(perm, len(ds)); err != nil {
			rw.WriteError(pname, fmt.Errorf("permutation invariant violated: %w", err))
			continue
		}
		if c.Bool("vv") {
			spew.Dump(perm)
		}

		for _, ctoken := range compressorTokens {
			comp := compressor.Resolve(ctoken)
			for _, bsize := range blockSizes {
				tuple := fmt.Sprintf("%s/%s/%s", ctoken, pname, bsize.Label)
				if verbose {
					klog.Infof("run: %s starting (%d blobs, %s)", tuple, len(ds), humanize.Bytes(ds.TotalSize()))
				}

				spec := archive.Spec{
					Dataset:        datasetName,
					Technique:      pname,
					Compressor:     comp,
					InputDir:       inputDir,
					OutputDir:      outputDir,
					KeepArchives:   c.Bool("keep"),
					BlockSizeBytes: bsize.Bytes,
					BlockSizeLabel: bsize.Label,
					Threads:        threads,
				}
				metrics, err := runArchivePass(c.Context, ds, perm, spec)
				if err != nil {
					var workDirErr *archive.ErrWorkDirFailed
					if errors.As(err, &workDirErr) {
						return cli.Exit(fmt.Errorf("run: %s: %w", tuple, err), 1)
					}
					rw.WriteError(tuple, err)
					continue
				}

				row := buildReportRow(ds, datasetName, pname, orderingTime, metrics)
				if err := rw.WriteRow(row); err != nil {
					return cli.Exit(err, 1)
				}
			}
		}
	}
	return nil
}

// runArchivePass calls archive.Run with a CLI-boundary recover: a panic
// inside one (permuter, compressor, block-size) tuple's pass must not take
// down the other tuples still queued in the loop above, and archive.Run's
// own deferred working-directory release still runs while this recover
// unwinds the stack, per spec.md §3's "guaranteed release on all exit
// paths (including failure)".
func runArchivePass(ctx context.Context, ds blob.Dataset, perm []int, spec archive.Spec) (metrics archive.Metrics, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic recovered: %v", r)
		}
	}()
	return archive.Run(ctx, ds, perm, spec)
}

func buildReportRow(ds blob.Dataset, datasetName, technique string, orderingTime time.Duration, m archive.Metrics) report.Row {
	uncompressedMiB := float64(m.UncompressedSize) / (1 << 20)
	compressionTime := orderingTime + m.CompressionTime
	compressionSpeed := 0.0
	if compressionTime > 0 {
		compressionSpeed = uncompressedMiB / compressionTime.Seconds()
	}
	decompressionSpeed := 0.0
	if m.DecompressionTime > 0 {
		decompressionSpeed = uncompressedMiB / m.DecompressionTime.Seconds()
	}
	throughput := 0.0
	if m.DecompressionTime > 0 {
		throughput = float64(len(ds)) / m.DecompressionTime.Seconds()
	}
	ratio := 0.0
	if m.UncompressedSize > 0 {
		ratio = float64(m.CompressedSize) / float64(m.UncompressedSize) * 100
	}

	avg, median := sizeStats(ds)
	return report.Row{
		Dataset:               datasetName,
		NumBlobs:              len(ds),
		TotalSizeGiB:          float64(ds.TotalSize()) / (1 << 30),
		AvgBlobSizeKiB:        avg,
		MedianBlobSizeKiB:     median,
		Technique:             technique,
		CompressionRatio:      ratio,
		OrderingTimeS:         orderingTime.Seconds(),
		CompressionTimeS:      m.CompressionTime.Seconds(),
		CompressionSpeed:      compressionSpeed,
		DecompressionSpeed:    decompressionSpeed,
		BlockMode:             m.BlockMode,
		TimeBlobDecompressMS:  float64(m.TimeBlobDecompression.Microseconds()) / 1000,
		ThroughputBlobsPerSec: throughput,
		CommitHash:            GitCommit,
	}
}

func sizeStats(ds blob.Dataset) (avgKiB, medianKiB float64) {
	if len(ds) == 0 {
		return 0, 0
	}
	sizes := make([]uint64, len(ds))
	var total uint64
	for i, r := range ds {
		sizes[i] = r.Length
		total += r.Length
	}
	avgKiB = float64(total) / float64(len(ds)) / 1024
	sort.Slice(sizes, func(i, j int) bool { return sizes[i] < sizes[j] })
	mid := len(sizes) / 2
	if len(sizes)%2 == 0 {
		medianKiB = float64(sizes[mid-1]+sizes[mid]) / 2 / 1024
	} else {
		medianKiB = float64(sizes[mid]) / 1024
	}
	return avgKiB, medianKiB
}

func runStatsOnly(ds blob.Dataset, out *os.File) error {
	avg, median := sizeStats(ds)
	fmt.Fprintf(out, "blobs: %d\n", len(ds))
	fmt.Fprintf(out, "total_size: %s\n", humanize.Bytes(ds.TotalSize()))
	fmt.Fprintf(out, "avg_blob_size: %.2f KiB\n", avg)
	fmt.Fprintf(out, "median_blob_size: %.2f KiB\n", median)

	buckets := []struct {
		label string
		max   uint64
	}{
		{"<1KiB", 1 << 10},
		{"<4KiB", 4 << 10},
		{"<16KiB", 16 << 10},
		{"<64KiB", 64 << 10},
		{"<256KiB", 256 << 10},
		{"<1MiB", 1 << 20},
		{"<4MiB", 4 << 20},
		{">=4MiB", 1<<63 - 1},
	}
	counts := make([]int, len(buckets))
	for _, r := range ds {
		for i, b := range buckets {
			if r.Length < b.max {
				counts[i]++
				break
			}
		}
	}
	fmt.Fprintln(out, "size_histogram:")
	for i, b := range buckets {
		fmt.Fprintf(out, "  %-8s %d\n", b.label, counts[i])
	}
	return nil
}
