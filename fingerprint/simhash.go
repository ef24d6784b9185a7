package fingerprint

import "github.com/rpcpool/ppcbench/hashprim"

// hashWords returns ceil(width/64) 64-bit lanes for tok, backed by the
// hashprim primitive matching the requested width.
func hashWords(tok []byte, width int) []uint64 {
	switch {
	case width <= 64:
		return []uint64{hashprim.Hash64(tok)}
	case width <= 128:
		h := hashprim.Hash128(tok)
		return h[:]
	default:
		h := hashprim.Hash256(tok)
		return h[:]
	}
}

// simHashWords computes the SimHash of a token multiset at the given bit
// width: a signed accumulator per bit position, incremented when the
// token-hash bit is set and decremented otherwise; the final bit is 1 iff
// the accumulator is positive.
func simHashWords(tokens [][]byte, width int) []uint64 {
	nWords := (width + 63) / 64
	acc := make([]int32, width)
	for _, tok := range tokens {
		words := hashWords(tok, width)
		for b := 0; b < width; b++ {
			word := words[b/64]
			if (word>>uint(b%64))&1 == 1 {
				acc[b]++
			} else {
				acc[b]--
			}
		}
	}
	out := make([]uint64, nWords)
	for b := 0; b < width; b++ {
		if acc[b] > 0 {
			out[b/64] |= 1 << uint(b%64)
		}
	}
	return out
}
