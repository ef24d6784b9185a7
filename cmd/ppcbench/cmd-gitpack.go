package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/rpcpool/ppcbench/gitpack"
	"github.com/rpcpool/ppcbench/manifest"
	"github.com/rpcpool/ppcbench/orderer"
	"github.com/rpcpool/ppcbench/report"
	"github.com/urfave/cli/v2"
	"k8s.io/klog/v2"
)

// newCmd_Gitpack implements the SPEC_FULL.md §8 baseline benchmark: how
// does a plain `git pack-objects`/`git repack` pass over the same blob
// set compare against the PPC harness's own compressors. It reports one
// CSV row shaped identically to `run`'s, with TECHNIQUE=gitpack.
func newCmd_Gitpack() *cli.Command {
	return &cli.Command{
		Name:  "gitpack",
		Usage: "Benchmark git pack-objects/repack over a blob set as a baseline comparison point.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "input", Aliases: []string{"i"}, Usage: "input directory containing manifest.csv and blobs", Required: true},
			&cli.StringFlag{Name: "manifest", Usage: "manifest CSV path (default <input>/manifest.csv)"},
			&cli.StringFlag{Name: "permuter", Aliases: []string{"p"}, Usage: "permutation to feed git add order", Value: "list"},
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
				return cli.Exit(fmt.Errorf("gitpack: loading manifest: %w", err), 1)
			}

			ord, err := orderer.New(c.String("permuter"), orderer.DefaultConfig())
			if err != nil {
				return cli.Exit(err, 1)
			}
			perm, err := ord.Order(ds, inputDir)
			if err != nil {
				return cli.Exit(fmt.Errorf("gitpack: ordering: %w", err), 1)
			}

			workDir, err := os.MkdirTemp("", "ppcbench-gitpack-*")
			if err != nil {
				return cli.Exit(err, 1)
			}
			defer os.RemoveAll(workDir)

			klog.Infof("gitpack: benchmarking %d blobs (%s) in %s", len(ds), humanize.Bytes(ds.TotalSize()), workDir)

			result, err := gitpack.Bench(c.Context, ds, perm, inputDir, workDir, nil)
			if err != nil {
				return cli.Exit(fmt.Errorf("gitpack: %w", err), 1)
			}

			rw, err := report.New(os.Stdout)
			if err != nil {
				return cli.Exit(err, 1)
			}
			ratio := 0.0
			if result.UncompressedSize > 0 {
				ratio = float64(result.PackedSize) / float64(result.UncompressedSize) * 100
			}
			return rw.WriteRow(report.Row{
				Dataset:          filepath.Base(inputDir),
				NumBlobs:         len(ds),
				TotalSizeGiB:     float64(result.UncompressedSize) / (1 << 30),
				Technique:        "gitpack",
				CompressionRatio: ratio,
				CompressionTimeS: result.PackTime.Seconds(),
				CommitHash:       GitCommit,
			})
		},
	}
}
