package orderer

import "math/rand"

// fisherYatesPermutation returns a deterministic pseudo-random permutation
// of [0, n) using a seeded Fisher-Yates shuffle, matching spec.md's
// fixed-seed-42 reproducibility contract for the "random" orderer.
func fisherYatesPermutation(n int, seed int64) []int {
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	r := rand.New(rand.NewSource(seed))
	for i := n - 1; i > 0; i-- {
		j := r.Intn(i + 1)
		perm[i], perm[j] = perm[j], perm[i]
	}
	return perm
}
