package fingerprint

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestSimHashFromFileSentinelAboveSizeGate(t *testing.T) {
	dir := t.TempDir()
	p := writeTemp(t, dir, "big.txt", strings.Repeat("hello world\n", 100))
	opts := DefaultOptions()
	fp, err := SimHashFromFile(p, opts.SimHashMaxSize, 128, opts)
	require.NoError(t, err)
	assert.Equal(t, KindSentinel, fp.Kind)
}

func TestSimHashFromFileNearDuplicatesAreCloser(t *testing.T) {
	dir := t.TempDir()
	base := strings.Repeat("hello world this is a test line of text\n", 50)
	edited := strings.Replace(base, "test line", "tost line", 1)
	randomContent := strings.Repeat("zzzzzzzz yyyyyyyy xxxxxxxx wwwwwwww\n", 50)

	p1 := writeTemp(t, dir, "a.txt", base)
	p2 := writeTemp(t, dir, "b.txt", edited)
	p3 := writeTemp(t, dir, "c.txt", randomContent)

	opts := DefaultOptions()
	f1, err := SimHashFromFile(p1, uint64(len(base)), 128, opts)
	require.NoError(t, err)
	f2, err := SimHashFromFile(p2, uint64(len(edited)), 128, opts)
	require.NoError(t, err)
	f3, err := SimHashFromFile(p3, uint64(len(randomContent)), 128, opts)
	require.NoError(t, err)

	hamming := func(a, b []uint64) int {
		n := 0
		for i := range a {
			x := a[i] ^ b[i]
			for x != 0 {
				n++
				x &= x - 1
			}
		}
		return n
	}

	near := hamming(f1.Words, f2.Words)
	far := hamming(f1.Words, f3.Words)
	assert.Less(t, near, far)
}

func TestTLSHFromFileSentinelAboveSizeGate(t *testing.T) {
	dir := t.TempDir()
	p := writeTemp(t, dir, "big.bin", strings.Repeat("x", 10))
	opts := DefaultOptions()
	fp, err := TLSHFromFile(p, opts.TLSHMaxSize, opts)
	require.NoError(t, err)
	assert.Equal(t, KindSentinel, fp.Kind)
}

func TestTLSHFromFileDeterministic(t *testing.T) {
	dir := t.TempDir()
	content := strings.Repeat("the quick brown fox jumps over the lazy dog ", 20)
	p := writeTemp(t, dir, "f.txt", content)
	opts := DefaultOptions()
	a, err := TLSHFromFile(p, uint64(len(content)), opts)
	require.NoError(t, err)
	b, err := TLSHFromFile(p, uint64(len(content)), opts)
	require.NoError(t, err)
	assert.Equal(t, a.TLSH, b.TLSH)
	assert.NotEmpty(t, a.TLSH)
}

func TestMinHashFromFileSentinel(t *testing.T) {
	dir := t.TempDir()
	p := writeTemp(t, dir, "big.txt", strings.Repeat("hello\n", 1000))
	opts := DefaultOptions()
	fp, err := MinHashFromFile(p, opts.SimHashMaxSize+1, 64, opts)
	require.NoError(t, err)
	assert.Equal(t, KindSentinel, fp.Kind)
}

func TestCompareWordsOrdering(t *testing.T) {
	assert.Equal(t, -1, CompareWords([]uint64{1, 0}, []uint64{2, 0}))
	assert.Equal(t, 1, CompareWords([]uint64{2, 5}, []uint64{2, 3}))
	assert.Equal(t, 0, CompareWords([]uint64{9, 9}, []uint64{9, 9}))
}

func TestLineShinglesDropsShortLines(t *testing.T) {
	content := []byte("short\nthis is a long enough line to keep\nok\n")
	toks := LineShingles(content, 10, 1)
	require.Len(t, toks, 1)
	assert.Contains(t, string(toks[0]), "long enough")
}

func TestFixedWindowShinglesWidth(t *testing.T) {
	content := make([]byte, 150)
	for i := range content {
		content[i] = byte(i)
	}
	toks := FixedWindowShingles(content)
	// width = max(1, 150-100) = 50
	require.NotEmpty(t, toks)
	assert.Equal(t, 50, len(toks[0]))
}
