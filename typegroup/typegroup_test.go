package typegroup

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rpcpool/ppcbench/blob"
	"github.com/rpcpool/ppcbench/lshgraph"
	"github.com/rpcpool/ppcbench/typeoracle"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func verifyPermutation(t *testing.T, perm []int, n int) {
	t.Helper()
	seen := make(map[int]bool, n)
	require.Len(t, perm, n)
	for _, p := range perm {
		require.False(t, seen[p])
		require.GreaterOrEqual(t, p, 0)
		require.Less(t, p, n)
		seen[p] = true
	}
}

func TestOrderBucketsBySizeGatesAndLabel(t *testing.T) {
	dir := t.TempDir()
	var ds blob.Dataset
	write := func(name string, content []byte) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), content, 0o644))
		ds = append(ds, blob.Record{FileID: name, Length: uint64(len(content))})
	}

	write("tiny", []byte("x")) // too_small (<200B)
	big := make([]byte, 2<<20)
	write("huge", big) // too_big (>1MiB)
	write("doc1.txt", []byte("hello world, this is a normal sized text document"))
	write("doc2.txt", []byte("another normal sized text document right here"))

	perm, err := Order(ds, dir, typeoracle.ContentOracle(), nil, DefaultOptions())
	require.NoError(t, err)
	verifyPermutation(t, perm, len(ds))
}

func TestOrderDelegatesToSubOrdererForLargePopulousBuckets(t *testing.T) {
	dir := t.TempDir()
	var ds blob.Dataset
	for i := 0; i < 5; i++ {
		name := string(rune('a' + i))
		content := make([]byte, 600*1024) // 600 KiB each -> bucket totals ~2.9 MiB, 5 members
		for j := range content {
			content[j] = byte(i)
		}
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), content, 0o644))
		ds = append(ds, blob.Record{FileID: name, Length: uint64(len(content))})
	}

	calledWith := 0
	sub := SubOrderer(func(subDS blob.Dataset, inputDir string, indices []int) ([]int, error) {
		calledWith = len(indices)
		out := make([]int, len(indices))
		copy(out, indices)
		return out, nil
	})

	oracle := typeoracle.Func(func(string, []byte) string { return "samebucket" })
	perm, err := Order(ds, dir, oracle, sub, DefaultOptions())
	require.NoError(t, err)
	verifyPermutation(t, perm, len(ds))
	assert.Equal(t, 5, calledWith)
}

func TestOrderFallsBackToLengthSortWhenSubNil(t *testing.T) {
	dir := t.TempDir()
	ds := blob.Dataset{
		{FileID: "a", Length: 500},
		{FileID: "b", Length: 900},
		{FileID: "c", Length: 700},
	}
	for _, r := range ds {
		require.NoError(t, os.WriteFile(filepath.Join(dir, r.FileID), make([]byte, r.Length), 0o644))
	}
	oracle := typeoracle.Func(func(string, []byte) string { return "same" })
	perm, err := Order(ds, dir, oracle, nil, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 0}, perm)
}

func TestMinHashGraphSubOrdererTranslatesIndices(t *testing.T) {
	dir := t.TempDir()
	var ds blob.Dataset
	for i := 0; i < 4; i++ {
		name := string(rune('a' + i))
		content := []byte("shared content across all these blobs for lsh banding\nline two\n")
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), content, 0o644))
		ds = append(ds, blob.Record{FileID: name, Length: uint64(len(content))})
	}
	sub := MinHashGraphSubOrderer(lshgraph.DefaultMinHashOptions(16, 4))
	perm, err := sub(ds, dir, []int{0, 1, 2, 3})
	require.NoError(t, err)
	verifyPermutation(t, perm, 4)
}
