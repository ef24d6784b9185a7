// Package orderer implements the direct ordering strategies from spec.md
// §4.5: transformations of a Dataset into a total permutation of its index
// set. Every Orderer returns a permutation of the exact input indices —
// VerifyPermutation is provided for callers (and tests) to assert that.
package orderer

import (
	"fmt"
	"sort"

	"github.com/rpcpool/ppcbench/blob"
)

// Orderer produces a permutation of ds.Indices(). inputDir is only
// consulted by orderers that read blob content (simhashsort, tlshsort,
// ssdeepsort); others ignore it.
type Orderer interface {
	Order(ds blob.Dataset, inputDir string) ([]int, error)
}

// OrdererFunc adapts a plain function to the Orderer interface.
type OrdererFunc func(ds blob.Dataset, inputDir string) ([]int, error)

func (f OrdererFunc) Order(ds blob.Dataset, inputDir string) ([]int, error) { return f(ds, inputDir) }

// ErrOrdererUnavailable is returned by New for a strategy name it does
// not recognize.
var ErrOrdererUnavailable = fmt.Errorf("orderer: requested strategy not available in this build")

// VerifyPermutation asserts perm is a bijection over [0, n). Intended for
// debug builds and tests per spec.md's "Implementers MUST verify" note; on
// failure it reports the symmetric difference against [0, n).
func VerifyPermutation(perm []int, n int) error {
	if len(perm) != n {
		return fmt.Errorf("permutation has length %d, want %d", len(perm), n)
	}
	seen := make([]bool, n)
	var foreign, duplicate []int
	for _, p := range perm {
		if p < 0 || p >= n {
			foreign = append(foreign, p)
			continue
		}
		if seen[p] {
			duplicate = append(duplicate, p)
		}
		seen[p] = true
	}
	var missing []int
	for i, ok := range seen {
		if !ok {
			missing = append(missing, i)
		}
	}
	if len(foreign) > 0 || len(duplicate) > 0 || len(missing) > 0 {
		return fmt.Errorf("not a permutation of [0,%d): foreign=%v duplicate=%v missing=%v", n, foreign, duplicate, missing)
	}
	return nil
}

// stableSortByKey sorts indices [0, n) by the comparator less, preserving
// relative order of equal elements (Go's sort.SliceStable contract).
func stableSortByKey(n int, less func(i, j int) bool) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return less(idx[a], idx[b]) })
	return idx
}

// List returns the identity permutation (ascending original index).
func List() Orderer {
	return OrdererFunc(func(ds blob.Dataset, _ string) ([]int, error) {
		return ds.Indices(), nil
	})
}

// Random returns a pseudo-random permutation seeded deterministically, per
// spec.md's fixed-seed-42 contract.
func Random(seed int64) Orderer {
	return OrdererFunc(func(ds blob.Dataset, _ string) ([]int, error) {
		return fisherYatesPermutation(len(ds), seed), nil
	})
}

// LengthSort orders blobs by descending length, stable on ties.
func LengthSort() Orderer {
	return OrdererFunc(func(ds blob.Dataset, _ string) ([]int, error) {
		return stableSortByKey(len(ds), func(i, j int) bool {
			return ds[i].Length > ds[j].Length
		}), nil
	})
}

// reverseString returns s with its runes reversed, without mutating s (the
// reference implementation's filename orderer double-reverses the string in place
// as a no-op mutation; this computes the key without touching shared
// data — see SPEC_FULL.md Open Question resolutions).
func reverseString(s string) string {
	r := []rune(s)
	for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
		r[i], r[j] = r[j], r[i]
	}
	return string(r)
}

// FilenameSort orders by reversed filename ascending, then length
// descending on ties.
func FilenameSort() Orderer {
	return OrdererFunc(func(ds blob.Dataset, _ string) ([]int, error) {
		keys := make([]string, len(ds))
		for i, r := range ds {
			keys[i] = reverseString(r.Filename)
		}
		return stableSortByKey(len(ds), func(i, j int) bool {
			if keys[i] != keys[j] {
				return keys[i] < keys[j]
			}
			return ds[i].Length > ds[j].Length
		}), nil
	})
}

// FilenamePathSort orders by reversed filepath ascending, then length
// descending on ties.
func FilenamePathSort() Orderer {
	return OrdererFunc(func(ds blob.Dataset, _ string) ([]int, error) {
		keys := make([]string, len(ds))
		for i, r := range ds {
			keys[i] = reverseString(r.Filepath)
		}
		return stableSortByKey(len(ds), func(i, j int) bool {
			if keys[i] != keys[j] {
				return keys[i] < keys[j]
			}
			return ds[i].Length > ds[j].Length
		}), nil
	})
}
