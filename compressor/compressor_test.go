package compressor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZSTDRoundTrips(t *testing.T) {
	z := ZSTD{}
	original := []byte("the quick brown fox jumps over the lazy dog, repeated many times. " +
		"the quick brown fox jumps over the lazy dog, repeated many times.")
	compressed, err := z.Compress(original)
	require.NoError(t, err)
	assert.NotEmpty(t, compressed)

	decompressed, err := z.Decompress(compressed)
	require.NoError(t, err)
	assert.Equal(t, original, decompressed)
}

func TestResolveDispatchesByToken(t *testing.T) {
	assert.Equal(t, "zstd", Resolve("zstd").Name())
	assert.Equal(t, "gzip", Resolve("gzip").Name())
}

// fakeRunner is a Runner test double that never shells out.
type fakeRunner struct {
	lastName string
	lastArgs []string
	lastIn   []byte
	out      []byte
	err      error
}

func (f *fakeRunner) Run(_ context.Context, name string, args []string, stdin []byte) ([]byte, error) {
	f.lastName, f.lastArgs, f.lastIn = name, args, stdin
	return f.out, f.err
}

func TestExternalCompressInvokesRunnerWithDashC(t *testing.T) {
	fr := &fakeRunner{out: []byte("compressed-bytes")}
	ext := NewExternalWithRunner("gzip", fr)
	out, err := ext.Compress([]byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, []byte("compressed-bytes"), out)
	assert.Equal(t, "gzip", fr.lastName)
	assert.Equal(t, []string{"-c"}, fr.lastArgs)
	assert.Equal(t, []byte("hello"), fr.lastIn)
}

func TestExternalDecompressInvokesRunnerWithDashDC(t *testing.T) {
	fr := &fakeRunner{out: []byte("plain-bytes")}
	ext := NewExternalWithRunner("gzip", fr)
	out, err := ext.Decompress([]byte("compressed"))
	require.NoError(t, err)
	assert.Equal(t, []byte("plain-bytes"), out)
	assert.Equal(t, []string{"-dc"}, fr.lastArgs)
}
