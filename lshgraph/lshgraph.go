// Package lshgraph implements the banded-LSH graph clusterer of spec.md
// §4.6: blobs are banded by sketch/hash, adjacent-sorted bands are
// unioned, and the resulting connected components are each internally
// ordered (recursively by TLSH for large components, by length otherwise)
// before being concatenated into the final permutation.
package lshgraph

import (
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/rpcpool/ppcbench/blob"
	"github.com/rpcpool/ppcbench/fingerprint"
	"github.com/rpcpool/ppcbench/unionfind"
)

// Variant selects which sketch feeds the bands.
type Variant int

const (
	MinHashVariant Variant = iota
	SimHashVariant
)

// Options bundles the thresholds named in spec.md §4.6.
type Options struct {
	F int // sketch/hash width (number of MinHash permutations, or SimHash bit width)
	R int // number of bands; b = F/R is the band width

	SizeGate uint64 // blobs at/above this size get sentinel bands (1 MiB default)

	// LargeComponentBytes / LargeComponentMembers gate the recursive
	// TLSH-ordering path: a component must exceed both to qualify.
	LargeComponentBytes   uint64 // 32 MiB
	LargeComponentMembers int    // 3 for MinHash, 5 for SimHash

	// Legacy256Unsorted reproduces the reference implementation's
	// apparent bug in the SimHash-256 branch, which returns the
	// unsorted input instead of the clustered+sorted list. Default
	// false: this port returns the clustered+sorted list, consistent
	// with the MinHash variant (see SPEC_FULL.md Open Questions).
	Legacy256Unsorted bool

	FingerprintOptions fingerprint.Options
}

// DefaultMinHashOptions returns spec.md's defaults for `minhashgraph`.
func DefaultMinHashOptions(f, r int) Options {
	return Options{
		F: f, R: r,
		SizeGate:              1 << 20,
		LargeComponentBytes:   32 << 20,
		LargeComponentMembers: 3,
		FingerprintOptions:    fingerprint.DefaultOptions(),
	}
}

// DefaultSimHashOptions returns spec.md's defaults for `simhashgraph`.
func DefaultSimHashOptions(f, r int) Options {
	return Options{
		F: f, R: r,
		SizeGate:              1 << 20,
		LargeComponentBytes:   32 << 20,
		LargeComponentMembers: 5,
		FingerprintOptions:    fingerprint.DefaultOptions(),
	}
}

// Order runs the LSH-graph clusterer over ds and returns the resulting
// permutation.
func Order(ds blob.Dataset, inputDir string, variant Variant, opts Options) ([]int, error) {
	n := len(ds)
	if n == 0 {
		return nil, nil
	}
	if opts.R <= 0 {
		return nil, fmt.Errorf("lshgraph: r must be positive")
	}

	bands := make([][]string, n)
	for i, r := range ds {
		if r.Length >= opts.SizeGate {
			bands[i] = sentinelBands(i, opts.R)
			continue
		}
		switch variant {
		case MinHashVariant:
			fp, err := fingerprint.MinHashFromFile(ds.Path(inputDir, i), r.Length, opts.F, opts.FingerprintOptions)
			if err != nil || fp.Kind == fingerprint.KindSentinel {
				bands[i] = sentinelBands(i, opts.R)
				continue
			}
			bands[i] = minhashBands(fp.MinHash, opts.R)
		case SimHashVariant:
			fp, err := fingerprint.SimHashFromFile(ds.Path(inputDir, i), r.Length, opts.F, opts.FingerprintOptions)
			if err != nil || fp.Kind == fingerprint.KindSentinel {
				bands[i] = sentinelBands(i, opts.R)
				continue
			}
			bands[i] = simhashBands(fp.Words, opts.R)
		}
	}

	uf := unionfind.New(n)
	for k := 0; k < opts.R; k++ {
		order := make([]int, n)
		for i := range order {
			order[i] = i
		}
		sort.SliceStable(order, func(a, b int) bool {
			return bands[order[a]][k] < bands[order[b]][k]
		})
		for i := 1; i < len(order); i++ {
			prev, cur := order[i-1], order[i]
			if bands[prev][k] == bands[cur][k] {
				uf.Union(prev, cur)
			}
		}
	}

	components := uf.Components()
	var perm []int
	for _, comp := range components {
		ordered, err := orderComponent(ds, inputDir, comp, variant, opts)
		if err != nil {
			return nil, err
		}
		perm = append(perm, ordered...)
	}
	if variant == SimHashVariant && opts.F > 128 && opts.Legacy256Unsorted {
		// Conformance toggle: reproduce the reference implementation's
		// unsorted passthrough for the SimHash-256 branch.
		return ds.Indices(), nil
	}
	return perm, nil
}

// orderComponent orders one connected component: large components recurse
// into a TLSH sort, small ones sort by descending length.
func orderComponent(ds blob.Dataset, inputDir string, comp []int, variant Variant, opts Options) ([]int, error) {
	threshold := opts.LargeComponentMembers
	var totalSize uint64
	for _, idx := range comp {
		totalSize += ds[idx].Length
	}
	if totalSize > opts.LargeComponentBytes && len(comp) > threshold {
		return orderByTLSH(ds, inputDir, comp, opts.FingerprintOptions), nil
	}
	sub := make([]int, len(comp))
	copy(sub, comp)
	sort.SliceStable(sub, func(i, j int) bool {
		return ds[sub[i]].Length > ds[sub[j]].Length
	})
	return sub, nil
}

func orderByTLSH(ds blob.Dataset, inputDir string, comp []int, opts fingerprint.Options) []int {
	keys := make(map[int]string, len(comp))
	for _, idx := range comp {
		fp, err := fingerprint.TLSHFromFile(ds.Path(inputDir, idx), ds[idx].Length, opts)
		if err != nil || fp.Kind == fingerprint.KindSentinel {
			keys[idx] = "0"
			continue
		}
		keys[idx] = fp.TLSH
	}
	sub := make([]int, len(comp))
	copy(sub, comp)
	sort.SliceStable(sub, func(i, j int) bool {
		return keys[sub[i]] < keys[sub[j]]
	})
	return sub
}

// sentinelBands produces per-band keys unique to blob i, so sentinel blobs
// never collide with any other blob's bands — they form their own
// singleton component instead of being (incorrectly) treated as similar.
func sentinelBands(i, r int) []string {
	bands := make([]string, r)
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(i))
	for k := range bands {
		bands[k] = "\x00sentinel\x00" + string(buf)
	}
	return bands
}

func minhashBands(sketch []uint32, r int) []string {
	b := len(sketch) / r
	if b == 0 {
		b = 1
	}
	bands := make([]string, r)
	for k := 0; k < r; k++ {
		start := k * b
		if start >= len(sketch) {
			bands[k] = ""
			continue
		}
		end := start + b
		if end > len(sketch) || k == r-1 {
			end = len(sketch)
		}
		buf := make([]byte, 4*(end-start))
		for i, v := range sketch[start:end] {
			binary.LittleEndian.PutUint32(buf[i*4:i*4+4], v)
		}
		bands[k] = string(buf)
	}
	return bands
}

func simhashBands(words []uint64, r int) []string {
	buf := make([]byte, 8*len(words))
	for i, w := range words {
		binary.BigEndian.PutUint64(buf[i*8:i*8+8], w)
	}
	bandWidth := len(buf) / r
	if bandWidth == 0 {
		bandWidth = 1
	}
	bands := make([]string, r)
	for k := 0; k < r; k++ {
		start := k * bandWidth
		if start >= len(buf) {
			bands[k] = ""
			continue
		}
		end := start + bandWidth
		if end > len(buf) || k == r-1 {
			end = len(buf)
		}
		bands[k] = string(buf[start:end])
	}
	return bands
}
