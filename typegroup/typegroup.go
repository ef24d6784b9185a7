// Package typegroup implements the type-oracle grouper of spec.md §4.8:
// blobs are bucketed by an Oracle label, each bucket is internally
// ordered (sub-orderer for large/populous buckets, length-descending
// otherwise), and buckets are concatenated in lexicographic label order.
package typegroup

import (
	"os"
	"sort"
	"sync"

	"github.com/rpcpool/ppcbench/blob"
	"github.com/rpcpool/ppcbench/fingerprint"
	"github.com/rpcpool/ppcbench/lshgraph"
	"github.com/rpcpool/ppcbench/orderer"
	"github.com/rpcpool/ppcbench/typeoracle"
)

const (
	headBytesRead = 4096
)

// SubOrderer picks the internal ordering for one bucket's index set.
type SubOrderer func(ds blob.Dataset, inputDir string, indices []int) ([]int, error)

// Options configures the size gates and bucket-recursion threshold named
// in spec.md §4.8.
type Options struct {
	TooBigThreshold   uint64 // default 1 MiB: labelled "too_big", oracle never consulted
	TooSmallThreshold uint64 // default 200 B: labelled "too_small", oracle never consulted

	BucketRecurseBytes   uint64 // default 2 MiB
	BucketRecurseMembers int    // default 3

	// ContentBased selects whether the oracle is called with the first
	// headBytesRead bytes of file content (true) or just the path
	// (false, for path/extension-based oracles).
	ContentBased bool
}

// DefaultOptions returns the spec.md-documented defaults.
func DefaultOptions() Options {
	return Options{
		TooBigThreshold:       1 << 20,
		TooSmallThreshold:     200,
		BucketRecurseBytes:    2 << 20,
		BucketRecurseMembers:  3,
		ContentBased:          true,
	}
}

// Order buckets ds by oracle.Label, orders each bucket with sub (falling
// back to length-descending when a bucket doesn't clear the recursion
// gate, or when sub is nil), and concatenates buckets in lexicographic
// label order.
func Order(ds blob.Dataset, inputDir string, oracle typeoracle.Oracle, sub SubOrderer, opts Options) ([]int, error) {
	n := len(ds)
	if n == 0 {
		return nil, nil
	}

	labels := make([]string, n)
	var wg sync.WaitGroup
	var mu sync.Mutex
	buckets := make(map[string][]int)

	assign := func(i int, label string) {
		mu.Lock()
		buckets[label] = append(buckets[label], i)
		mu.Unlock()
	}

	for i := range ds {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			label := labelFor(ds, inputDir, i, oracle, opts)
			labels[i] = label
			assign(i, label)
		}()
	}
	wg.Wait()

	keys := make([]string, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var perm []int
	for _, k := range keys {
		indices := buckets[k]
		sort.Ints(indices) // deterministic before the recursion/sort decision below

		var bucketSize uint64
		for _, idx := range indices {
			bucketSize += ds[idx].Length
		}

		if bucketSize > opts.BucketRecurseBytes && len(indices) > opts.BucketRecurseMembers && sub != nil {
			ordered, err := sub(ds, inputDir, indices)
			if err != nil {
				return nil, err
			}
			perm = append(perm, ordered...)
			continue
		}
		ordered := make([]int, len(indices))
		copy(ordered, indices)
		sort.SliceStable(ordered, func(a, b int) bool {
			return ds[ordered[a]].Length > ds[ordered[b]].Length
		})
		perm = append(perm, ordered...)
	}
	return perm, nil
}

func labelFor(ds blob.Dataset, inputDir string, i int, oracle typeoracle.Oracle, opts Options) string {
	length := ds[i].Length
	switch {
	case length > opts.TooBigThreshold:
		return "too_big"
	case length < opts.TooSmallThreshold:
		return "too_small"
	}
	path := ds.Path(inputDir, i)
	if !opts.ContentBased {
		return oracle.Label(path, nil)
	}
	head, err := readHead(path, headBytesRead)
	if err != nil {
		return "too_small" // unreadable: treat as degenerate, sorts with the small bucket
	}
	return oracle.Label(path, head)
}

func readHead(path string, n int) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	buf := make([]byte, n)
	read, err := f.Read(buf)
	if err != nil && read == 0 {
		return nil, err
	}
	return buf[:read], nil
}

// MinHashGraphSubOrderer adapts lshgraph's MinHash clusterer to the
// SubOrderer signature, for the `typeminhashgraph`/`typemagikaminhashgraph`
// variants.
func MinHashGraphSubOrderer(opts lshgraph.Options) SubOrderer {
	return func(ds blob.Dataset, inputDir string, indices []int) ([]int, error) {
		sub := subsetDataset(ds, indices)
		perm, err := lshgraph.Order(sub.ds, inputDir, lshgraph.MinHashVariant, opts)
		if err != nil {
			return nil, err
		}
		return sub.translate(perm), nil
	}
}

// TLSHSortSubOrderer adapts orderer.TLSHSort to the SubOrderer signature,
// for the `typemagikatlshsort` variant.
func TLSHSortSubOrderer(opts fingerprint.Options) SubOrderer {
	tlsh := orderer.TLSHSort(opts)
	return func(ds blob.Dataset, inputDir string, indices []int) ([]int, error) {
		sub := subsetDataset(ds, indices)
		perm, err := tlsh.Order(sub.ds, inputDir)
		if err != nil {
			return nil, err
		}
		return sub.translate(perm), nil
	}
}

type indexedSubset struct {
	ds      blob.Dataset
	origIdx []int
}

func subsetDataset(ds blob.Dataset, indices []int) indexedSubset {
	sub := make(blob.Dataset, len(indices))
	for i, idx := range indices {
		sub[i] = ds[idx]
	}
	return indexedSubset{ds: sub, origIdx: indices}
}

func (s indexedSubset) translate(localPerm []int) []int {
	out := make([]int, len(localPerm))
	for i, local := range localPerm {
		out[i] = s.origIdx[local]
	}
	return out
}
