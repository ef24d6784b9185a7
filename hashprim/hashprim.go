// Package hashprim provides the deterministic, non-cryptographic hash
// primitives that every fingerprinter in this module builds on: a 64-bit
// hash, a 128-bit extension of it, a 256-bit SHA-256 hash, and a MinHash
// sketch over a token stream. All functions must agree bit-for-bit across platforms and
// runs so that fingerprints computed in one benchmark pass are reproducible.
package hashprim

import (
	"crypto/sha256"
	"encoding/binary"
	"math"

	"github.com/cespare/xxhash/v2"
)

// Hash64 returns the 64-bit xxhash of data.
func Hash64(data []byte) uint64 {
	return xxhash.Sum64(data)
}

// seeded64 hashes seed||data with xxhash. Used to derive independent-looking
// 64-bit lanes from a single fast primitive instead of pulling in a second
// hash family for the wider widths.
func seeded64(data []byte, seed uint64) uint64 {
	d := xxhash.New()
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], seed)
	d.Write(buf[:])
	d.Write(data)
	return d.Sum64()
}

// Hash128 returns a 128-bit hash as two 64-bit lanes.
func Hash128(data []byte) [2]uint64 {
	return [2]uint64{seeded64(data, 0), seeded64(data, 1)}
}

// Hash256 returns the SHA-256 digest of data as four 64-bit lanes, most
// significant lane first. SHA-256 is used directly (per spec) rather than
// composing more xxhash lanes: at f=256 the spec calls for a real
// cryptographic-strength hash as the SimHash lane source.
func Hash256(data []byte) [4]uint64 {
	sum := sha256.Sum256(data)
	var out [4]uint64
	for i := range out {
		out[i] = binary.BigEndian.Uint64(sum[i*8 : i*8+8])
	}
	return out
}

// splitmix64 constants, used to derive f independent-looking seeds and to
// mix a base hash into f independent lanes for MinHash. Grounded on the
// standard splitmix64 finalizer used for deterministic seed expansion.
const (
	mixMul1 = 0x9e3779b97f4a7c15
	mixMul2 = 0xbf58476d1ce4e5b9
	mixMul3 = 0x94d049bb133111eb
)

func splitmix64(x uint64) uint64 {
	x += mixMul1
	z := x
	z = (z ^ (z >> 30)) * mixMul2
	z = (z ^ (z >> 27)) * mixMul3
	return z ^ (z >> 31)
}

// seeds returns f deterministic seeds derived from a fixed base via
// splitmix64, so callers never need to hand-roll a seed table.
func seeds(f int) []uint64 {
	out := make([]uint64, f)
	state := uint64(0x517cc1b727220a95)
	for i := range out {
		state = splitmix64(state)
		out[i] = state
	}
	return out
}

// MinHashSketch computes the MinHash of a set of byte-string tokens under
// the standard scheme: for each of f independent hash seeds, keep the
// minimum hash value seen over all tokens. Returns f 32-bit values (the low
// 32 bits of each 64-bit minimum, which is sufficient entropy for banding).
func MinHashSketch(tokens [][]byte, f int) []uint32 {
	mins := make([]uint64, f)
	for i := range mins {
		mins[i] = math.MaxUint64
	}
	sd := seeds(f)
	for _, tok := range tokens {
		base := xxhash.Sum64(tok)
		for k := 0; k < f; k++ {
			h := splitmix64(base ^ sd[k])
			if h < mins[k] {
				mins[k] = h
			}
		}
	}
	out := make([]uint32, f)
	for i, m := range mins {
		out[i] = uint32(m)
	}
	return out
}
