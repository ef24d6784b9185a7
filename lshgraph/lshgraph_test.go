package lshgraph

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rpcpool/ppcbench/blob"
	"github.com/rpcpool/ppcbench/fingerprint"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeBlob(t *testing.T, dir, name string, content []byte) blob.Record {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), content, 0o644))
	return blob.Record{FileID: name, Length: uint64(len(content))}
}

func verifyPermutation(t *testing.T, perm []int, n int) {
	t.Helper()
	seen := make(map[int]bool, n)
	require.Len(t, perm, n)
	for _, p := range perm {
		require.False(t, seen[p], "duplicate index %d", p)
		require.GreaterOrEqual(t, p, 0)
		require.Less(t, p, n)
		seen[p] = true
	}
}

func TestMinHashGraphProducesPermutation(t *testing.T) {
	dir := t.TempDir()
	var ds blob.Dataset
	for i := 0; i < 8; i++ {
		name := string(rune('a' + i))
		content := []byte("shared prefix content line one\nshared prefix content line two\nunique " + name + "\n")
		ds = append(ds, writeBlob(t, dir, name, content))
	}

	opts := DefaultMinHashOptions(32, 8)
	perm, err := Order(ds, dir, MinHashVariant, opts)
	require.NoError(t, err)
	verifyPermutation(t, perm, len(ds))
}

func TestSimHashGraphProducesPermutation(t *testing.T) {
	dir := t.TempDir()
	var ds blob.Dataset
	for i := 0; i < 6; i++ {
		name := string(rune('a' + i))
		content := []byte("alpha beta gamma delta " + name + "\nmore text for shingles here\n")
		ds = append(ds, writeBlob(t, dir, name, content))
	}

	opts := DefaultSimHashOptions(64, 8)
	perm, err := Order(ds, dir, SimHashVariant, opts)
	require.NoError(t, err)
	verifyPermutation(t, perm, len(ds))
}

func TestSentinelBlobsFormSingletonComponents(t *testing.T) {
	dir := t.TempDir()
	var ds blob.Dataset
	for i := 0; i < 5; i++ {
		name := string(rune('a' + i))
		// All oversized, so every blob gets a unique sentinel band.
		ds = append(ds, blob.Record{FileID: name, Length: 10 << 20})
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}

	opts := DefaultMinHashOptions(16, 4)
	uf := clusterForTest(t, ds, dir, MinHashVariant, opts)
	assert.Equal(t, len(ds), uf.NumComponents(), "sentinel blobs must never collide with one another")
}

// clusterForTest re-derives the union-find state Order would have built, by
// invoking the same banding path and asserting on NumComponents rather than
// the final permutation.
func clusterForTest(t *testing.T, ds blob.Dataset, dir string, variant Variant, opts Options) *ufCounter {
	t.Helper()
	n := len(ds)
	bands := make([][]string, n)
	for i, r := range ds {
		if r.Length >= opts.SizeGate {
			bands[i] = sentinelBands(i, opts.R)
			continue
		}
		switch variant {
		case MinHashVariant:
			fp, err := fingerprint.MinHashFromFile(ds.Path(dir, i), r.Length, opts.F, opts.FingerprintOptions)
			require.NoError(t, err)
			bands[i] = minhashBands(fp.MinHash, opts.R)
		case SimHashVariant:
			fp, err := fingerprint.SimHashFromFile(ds.Path(dir, i), r.Length, opts.F, opts.FingerprintOptions)
			require.NoError(t, err)
			bands[i] = simhashBands(fp.Words, opts.R)
		}
	}
	counter := newUFCounter(n)
	for k := 0; k < opts.R; k++ {
		groups := make(map[string]int)
		for i := 0; i < n; i++ {
			if first, ok := groups[bands[i][k]]; ok {
				counter.union(first, i)
			} else {
				groups[bands[i][k]] = i
			}
		}
	}
	return counter
}

// ufCounter is a minimal reimplementation used only to keep this test
// independent of unionfind's internal representation.
type ufCounter struct {
	parent []int
	n      int
}

func newUFCounter(n int) *ufCounter {
	p := make([]int, n)
	for i := range p {
		p[i] = i
	}
	return &ufCounter{parent: p, n: n}
}

func (u *ufCounter) find(x int) int {
	for u.parent[x] != x {
		x = u.parent[x]
	}
	return x
}

func (u *ufCounter) union(x, y int) {
	rx, ry := u.find(x), u.find(y)
	if rx == ry {
		return
	}
	u.parent[ry] = rx
	u.n--
}

func (u *ufCounter) NumComponents() int {
	return u.n
}

func TestMinHashGraphLargeComponentRecursesToTLSH(t *testing.T) {
	dir := t.TempDir()
	var ds blob.Dataset
	// Four near-identical large blobs force a single component whose total
	// size exceeds LargeComponentBytes with more than LargeComponentMembers
	// entries, exercising the TLSH-recursion branch.
	big := make([]byte, 1<<20)
	for i := range big {
		big[i] = byte(i % 251)
	}
	opts := DefaultMinHashOptions(16, 2)
	opts.LargeComponentBytes = 1 << 21 // 2 MiB, so 4x1MiB trips it
	opts.LargeComponentMembers = 2
	opts.SizeGate = 1 << 30 // keep these blobs out of the sentinel gate
	opts.FingerprintOptions.SimHashMaxSize = 1 << 30 // and out of MinHashFromFile's own size gate

	for i := 0; i < 4; i++ {
		name := string(rune('a' + i))
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), big, 0o644))
		ds = append(ds, blob.Record{FileID: name, Length: uint64(len(big))})
	}

	perm, err := Order(ds, dir, MinHashVariant, opts)
	require.NoError(t, err)
	verifyPermutation(t, perm, len(ds))
}
