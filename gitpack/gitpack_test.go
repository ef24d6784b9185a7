package gitpack

import (
	"context"
	"testing"

	"github.com/rpcpool/ppcbench/blob"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	calls [][]string
}

func (f *fakeRunner) Run(_ context.Context, _ string, name string, args []string, _ []byte) ([]byte, error) {
	f.calls = append(f.calls, append([]string{name}, args...))
	if len(args) > 0 && args[0] == "count-objects" {
		return []byte("count: 3\nsize: 12\nin-pack: 3\npacks: 1\nsize-pack: 40\n"), nil
	}
	return nil, nil
}

func TestBenchRunsInitHashObjectsAndRepack(t *testing.T) {
	ds := blob.Dataset{
		{FileID: "a", Length: 100},
		{FileID: "b", Length: 200},
	}
	runner := &fakeRunner{}
	result, err := Bench(context.Background(), ds, []int{1, 0}, "/input", "/work", runner)
	require.NoError(t, err)
	assert.Equal(t, uint64(300), result.UncompressedSize)
	assert.Equal(t, uint64(40*1024), result.PackedSize)

	require.GreaterOrEqual(t, len(runner.calls), 4)
	assert.Equal(t, []string{"git", "init", "--bare", "-q"}, runner.calls[0])
	assert.Contains(t, runner.calls[len(runner.calls)-2], "repack")
}

func TestParseCountObjectsSizeExtractsSizePackInBytes(t *testing.T) {
	out := "count: 0\nsize-pack: 512\n"
	assert.Equal(t, uint64(512*1024), parseCountObjectsSize(out))
	assert.Equal(t, uint64(0), parseCountObjectsSize("no matching field"))
}
