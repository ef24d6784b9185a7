package main

import (
	"fmt"
	"os"

	"github.com/rpcpool/ppcbench/dataset"
	"github.com/urfave/cli/v2"
	"k8s.io/klog/v2"
)

// newCmd_Fetch implements the SPEC_FULL.md §8 dataset-download supplement:
// fetch a blob set named by a YAML manifest (dataset.Manifest) into a
// local input directory, ready for `ppcbench run -i`.
func newCmd_Fetch() *cli.Command {
	return &cli.Command{
		Name:      "fetch",
		Usage:     "Download a blob dataset named by a YAML manifest into a local directory.",
		ArgsUsage: "<dataset-manifest.yaml>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "destination directory", Required: true},
			FlagThreads,
		},
		Action: func(c *cli.Context) error {
			if c.Args().Len() != 1 {
				return cli.Exit("fetch requires exactly one argument: the dataset manifest YAML path", 1)
			}
			manifestPath := c.Args().First()
			f, err := os.Open(manifestPath)
			if err != nil {
				return cli.Exit(fmt.Errorf("fetch: %w", err), 1)
			}
			defer f.Close()

			m, err := dataset.LoadManifest(f)
			if err != nil {
				return cli.Exit(fmt.Errorf("fetch: %w", err), 1)
			}

			cfg := dataset.DefaultConfig()
			cfg.Concurrency = c.Int("threads")
			d := dataset.New(cfg)

			klog.Infof("fetch: downloading %d blobs to %s", len(m.Blobs), c.String("output"))
			if err := d.DownloadAll(c.Context, m, c.String("output")); err != nil {
				return cli.Exit(fmt.Errorf("fetch: %w", err), 1)
			}
			klog.Info("fetch: done")
			return nil
		},
	}
}
