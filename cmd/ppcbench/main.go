// Command ppcbench is the CLI front-end for the Permute-Partition-Compress
// benchmark harness: it loads a blob manifest, runs one or more permuters
// against one or more compressors and block sizes, and streams a CSV
// result row per (permuter, compressor, block-size) tuple to stdout.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/urfave/cli/v2"
	"k8s.io/klog/v2"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		interrupt := make(chan os.Signal, 1)
		signal.Notify(interrupt, syscall.SIGTERM, syscall.SIGINT)

		select {
		case <-interrupt:
			fmt.Println()
			klog.Info("received interrupt signal")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(interrupt)
	}()

	app := &cli.App{
		Name:        "ppcbench",
		Version:     GitCommit,
		Description: "Benchmark similarity-aware permutation, block partitioning, and compression over a manifest of small blobs.",
		Flags: []cli.Flag{
			FlagVerbose,
			FlagVeryVerbose,
		},
		Commands: []*cli.Command{
			newCmd_Run(),
			newCmd_Gitpack(),
			newCmd_Singleblob(),
			newCmd_Fetch(),
			newCmd_Version(),
		},
	}

	sort.Sort(cli.FlagsByName(app.Flags))
	sort.Sort(cli.CommandsByName(app.Commands))

	if err := app.RunContext(ctx, os.Args); err != nil {
		klog.Fatal(err)
	}
}
