package main

import "github.com/urfave/cli/v2"

// Global verbosity flags, mirroring the teacher's top-level FlagVerbose /
// FlagVeryVerbose pair in main.go: -v prints per-tuple progress lines,
// -vv additionally spew.Dumps each permuter's permutation for debugging.
var (
	FlagVerbose = &cli.BoolFlag{
		Name:    "verbose",
		Aliases: []string{"v"},
		Usage:   "print per-tuple progress to stderr",
	}
	FlagVeryVerbose = &cli.BoolFlag{
		Name:    "vv",
		Usage:   "verbose plus spew.Dump of intermediate structures",
	}
)

// FlagThreads is the bounded worker-pool size, overridable by the THREADS
// env var per spec.md §6's "SHOULD expose" note. Fingerprinting runs
// sequentially and does not use it.
var FlagThreads = &cli.IntFlag{
	Name:    "threads",
	Aliases: []string{"T"},
	Usage:   "bounded worker-pool size for block compression/decompression (run), per-blob work (singleblob) and downloads (fetch)",
	Value:   16,
	EnvVars: []string{"THREADS"},
}
