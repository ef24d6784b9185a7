// Package gitpack implements the `ppcbench gitpack` baseline benchmark
// (SPEC_FULL.md §8, from original_source/bench_git_pack.py): compares
// PPC-style compression against `git pack-objects`/`git repack` run over
// the same blob set. It mirrors compressor.External's os/exec wrapper
// pattern and Runner interface seam exactly, since both packages are
// "thin wrapper around an external executable" glue.
package gitpack

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/rpcpool/ppcbench/blob"
)

// Runner abstracts process execution, the same seam compressor.Runner
// provides, kept as a separate type so gitpack has no import-time
// dependency on the compressor package for an unrelated concern.
type Runner interface {
	Run(ctx context.Context, dir, name string, args []string, stdin []byte) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, dir, name string, args []string, stdin []byte) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	if stdin != nil {
		cmd.Stdin = bytes.NewReader(stdin)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("gitpack: %s %v: %w: %s", name, args, err, stderr.String())
	}
	return stdout.Bytes(), nil
}

// Result is the outcome of one gitpack benchmark pass: enough to populate
// a report.Row with TECHNIQUE=gitpack.
type Result struct {
	PackedSize    uint64
	PackTime      time.Duration
	UncompressedSize uint64
}

// Bench initializes a bare git repository in workDir, adds every blob in
// ds (in permutation order, matching the PPC harness's contract of
// feeding a single permutation into every technique under comparison),
// commits them, then runs `git repack -a -d` and measures the resulting
// pack size and wall time.
func Bench(ctx context.Context, ds blob.Dataset, perm []int, inputDir, workDir string, runner Runner) (Result, error) {
	if runner == nil {
		runner = execRunner{}
	}
	run := func(args ...string) ([]byte, error) {
		return runner.Run(ctx, workDir, "git", args, nil)
	}

	if _, err := run("init", "--bare", "-q"); err != nil {
		return Result{}, fmt.Errorf("gitpack: init: %w", err)
	}

	// A bare repo has no working tree, so blobs are added via
	// `git hash-object -w` one at a time rather than `git add`.
	var total uint64
	var tree bytes.Buffer
	for _, idx := range perm {
		path := ds.Path(inputDir, idx)
		sha, err := runner.Run(ctx, workDir, "git", []string{"hash-object", "-w", path}, nil)
		if err != nil {
			return Result{}, fmt.Errorf("gitpack: hash-object %s: %w", path, err)
		}
		fmt.Fprintf(&tree, "100644 blob %s\t%d\n", bytes.TrimSpace(sha), idx)
		total += ds[idx].Length
	}

	// `git repack -a` only packs reachable objects, so the blobs are
	// committed as one tree under refs/heads/main first.
	treeID, err := runner.Run(ctx, workDir, "git", []string{"mktree"}, tree.Bytes())
	if err != nil {
		return Result{}, fmt.Errorf("gitpack: mktree: %w", err)
	}
	commitID, err := run("-c", "user.name=ppcbench", "-c", "user.email=ppcbench@localhost", "commit-tree", string(bytes.TrimSpace(treeID)), "-m", "ppcbench")
	if err != nil {
		return Result{}, fmt.Errorf("gitpack: commit-tree: %w", err)
	}
	if _, err := run("update-ref", "refs/heads/main", string(bytes.TrimSpace(commitID))); err != nil {
		return Result{}, fmt.Errorf("gitpack: update-ref: %w", err)
	}

	start := time.Now()
	if _, err := run("repack", "-a", "-d", "-q"); err != nil {
		return Result{}, fmt.Errorf("gitpack: repack: %w", err)
	}
	elapsed := time.Since(start)

	packedSize, err := packDirSize(ctx, runner, workDir)
	if err != nil {
		return Result{}, err
	}

	return Result{
		PackedSize:       packedSize,
		PackTime:         elapsed,
		UncompressedSize: total,
	}, nil
}

func packDirSize(ctx context.Context, runner Runner, workDir string) (uint64, error) {
	out, err := runner.Run(ctx, workDir, "git", []string{"count-objects", "-v"}, nil)
	if err != nil {
		return 0, fmt.Errorf("gitpack: count-objects: %w", err)
	}
	return parseCountObjectsSize(string(out)), nil
}

// parseCountObjectsSize extracts the `size-pack` field (in KiB, per git's
// own output convention) from `git count-objects -v` output and returns
// bytes.
func parseCountObjectsSize(output string) uint64 {
	const key = "size-pack: "
	idx := bytes.Index([]byte(output), []byte(key))
	if idx < 0 {
		return 0
	}
	rest := output[idx+len(key):]
	var kib uint64
	fmt.Sscanf(rest, "%d", &kib)
	return kib * 1024
}

// PackFilePath is exposed for tests/inspection: the conventional location
// git repack leaves its single pack file, useful when a caller wants the
// pack's on-disk size directly instead of parsing count-objects.
func PackFilePath(workDir string) string {
	return filepath.Join(workDir, "objects", "pack")
}
