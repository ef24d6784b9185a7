// Package compressor wraps the two ways spec.md's archive harness can
// apply a compressor: an external executable invoked via os/exec
// (`tar | compressor`), or the in-process zstd binding pooled the way
// the teacher's gsfa/linkedlog package pools its codec pair. Either one
// satisfies the same Compressor interface, so the archive harness never
// needs to know which kind it holds.
package compressor

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"

	"github.com/klauspost/compress/zstd"
	"github.com/mostynb/zstdpool-freelist"
)

// Compressor compresses and decompresses whole byte buffers (one archive
// block's worth at a time — the harness never streams smaller than that).
type Compressor interface {
	// Name is the compressor's spec.md `<compressor>` token, used in
	// archive filenames and report rows.
	Name() string
	Compress(data []byte) ([]byte, error)
	Decompress(data []byte) ([]byte, error)
}

// Runner abstracts process execution so external-executable compressors
// are testable without actually shelling out (teacher's interface-seam
// pattern around os/exec, e.g. downloader.Downloader.SetHTTPClient).
type Runner interface {
	Run(ctx context.Context, name string, args []string, stdin []byte) ([]byte, error)
}

// execRunner is the real Runner, invoking the named executable.
type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args []string, stdin []byte) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = bytes.NewReader(stdin)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("compressor: %s %v: %w: %s", name, args, err, stderr.String())
	}
	return stdout.Bytes(), nil
}

// External wraps a named external executable used as `program -c`
// (compress, reading stdin/writing stdout) and `program -dc` (decompress).
// This is the glue spec.md §1 calls a "thin wrapper around external
// compressor executables".
type External struct {
	name   string
	runner Runner
}

// NewExternal constructs an External compressor for the named executable,
// using the real os/exec runner.
func NewExternal(name string) *External {
	return &External{name: name, runner: execRunner{}}
}

// NewExternalWithRunner is NewExternal with an injected Runner, for tests.
func NewExternalWithRunner(name string, runner Runner) *External {
	return &External{name: name, runner: runner}
}

func (e *External) Name() string { return e.name }

func (e *External) Compress(data []byte) ([]byte, error) {
	return e.runner.Run(context.Background(), e.name, []string{"-c"}, data)
}

func (e *External) Decompress(data []byte) ([]byte, error) {
	return e.runner.Run(context.Background(), e.name, []string{"-dc"}, data)
}

// zstdDecoderPool / zstdEncoderPool mirror gsfa/linkedlog/compress.go's
// package-level pools exactly: one process-wide pool of each, shared
// across every ZSTD compressor instance.
var (
	zstdDecoderPool = zstdpool.NewDecoderPool()
	zstdEncoderPool = zstdpool.NewEncoderPool(
		zstd.WithEncoderLevel(zstd.SpeedBetterCompression),
	)
)

// ZSTD is the in-process built-in compressor binding, an alternative to
// shelling out to the `zstd` executable via External.
type ZSTD struct{}

func (ZSTD) Name() string { return "zstd" }

func (ZSTD) Compress(data []byte) ([]byte, error) {
	enc, err := zstdEncoderPool.Get(nil)
	if err != nil {
		return nil, fmt.Errorf("compressor: zstd encoder from pool: %w", err)
	}
	defer zstdEncoderPool.Put(enc)
	return enc.EncodeAll(data, nil), nil
}

func (ZSTD) Decompress(data []byte) ([]byte, error) {
	dec, err := zstdDecoderPool.Get(nil)
	if err != nil {
		return nil, fmt.Errorf("compressor: zstd decoder from pool: %w", err)
	}
	defer zstdDecoderPool.Put(dec)
	content, err := dec.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("compressor: zstd decompress: %w", err)
	}
	return content, nil
}

// Resolve returns the Compressor for a spec's `<compressor>` token. "zstd"
// resolves to the in-process binding; anything else is assumed to name an
// external executable on PATH.
func Resolve(spec string) Compressor {
	if spec == "zstd" {
		return ZSTD{}
	}
	return NewExternal(spec)
}
