// Package fingerprint computes per-blob similarity fingerprints: SimHash
// (line-shingle or fixed-window content variants), a TLSH-style digest,
// MinHash sketches, and plain size keys. Every computation reads the blob
// once and degrades to a Sentinel fingerprint for blobs outside the
// algorithm's admissible size range or that fail to read.
package fingerprint

import (
	"os"

	"github.com/rpcpool/ppcbench/hashprim"
)

// Kind tags which variant a Fingerprint holds.
type Kind int

const (
	KindSentinel Kind = iota
	KindSimHash64
	KindSimHash128
	KindSimHash256
	KindTLSH
	KindMinHash
	KindSizeKey
)

// Fingerprint is a tagged union over the fingerprint variants in spec.md §3.
// Only the field(s) matching Kind are meaningful.
type Fingerprint struct {
	Kind    Kind
	Words   []uint64 // SimHash lanes (len 1/2/4 for 64/128/256)
	TLSH    string   // TLSH body with the 8-hex-char header stripped
	MinHash []uint32
	Size    uint64
}

// Sentinel is the placeholder fingerprint for a blob that was skipped
// because it is too large, too small, or unreadable. Sentinel blobs sort
// together but are never treated as similar to one another.
func Sentinel() Fingerprint {
	return Fingerprint{Kind: KindSentinel}
}

// SizeKeyOf returns a fingerprint keyed only on byte size.
func SizeKeyOf(size uint64) Fingerprint {
	return Fingerprint{Kind: KindSizeKey, Size: size}
}

// Options configures the size gates and tokenization parameters used across
// the fingerprinters. Defaults match spec.md's documented thresholds.
type Options struct {
	LineShingleLenLimit int    // default 10: drop shingle-candidate lines at or below this length
	ShingleNum          int    // default 1: consecutive lines grouped per token
	SimHashMaxSize      uint64 // default 1 MiB: files at or above this get Sentinel for SimHash/MinHash
	TLSHMaxSize         uint64 // default 4 MiB: files at or above this get Sentinel for TLSH
}

// DefaultOptions returns the thresholds named in spec.md §4.2/§4.4/§4.5.
func DefaultOptions() Options {
	return Options{
		LineShingleLenLimit: 10,
		ShingleNum:          1,
		SimHashMaxSize:      1 << 20,
		TLSHMaxSize:         4 << 20,
	}
}

func readAll(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// SimHashFromFile computes a line-shingle SimHash of the given bit width
// (64, 128, or 256) for the file at path. Files at or above
// opts.SimHashMaxSize receive Sentinel instead, per the "large files
// dominate runtime and gain little from LSH proximity" rationale.
func SimHashFromFile(path string, size uint64, width int, opts Options) (Fingerprint, error) {
	if size >= opts.SimHashMaxSize {
		return Sentinel(), nil
	}
	content, err := readAll(path)
	if err != nil {
		return Sentinel(), err
	}
	tokens := LineShingles(content, opts.LineShingleLenLimit, opts.ShingleNum)
	words := simHashWords(tokens, width)
	kind := KindSimHash64
	switch {
	case width > 128:
		kind = KindSimHash256
	case width > 64:
		kind = KindSimHash128
	}
	return Fingerprint{Kind: kind, Words: words}, nil
}

// SimHashContentFromFile computes the fixed-window-shingle SimHash content
// variant (§4.2) at the given width, used by the alternative
// SimHash-content orderer/clusterer.
func SimHashContentFromFile(path string, size uint64, width int, opts Options) (Fingerprint, error) {
	if size >= opts.SimHashMaxSize {
		return Sentinel(), nil
	}
	content, err := readAll(path)
	if err != nil {
		return Sentinel(), err
	}
	tokens := FixedWindowShingles(content)
	words := simHashWords(tokens, width)
	kind := KindSimHash64
	switch {
	case width > 128:
		kind = KindSimHash256
	case width > 64:
		kind = KindSimHash128
	}
	return Fingerprint{Kind: kind, Words: words}, nil
}

// MinHashFromFile computes an f-wide MinHash sketch over line-shingle
// tokens. Files at or above opts.SimHashMaxSize receive Sentinel.
func MinHashFromFile(path string, size uint64, f int, opts Options) (Fingerprint, error) {
	if size >= opts.SimHashMaxSize {
		return Sentinel(), nil
	}
	content, err := readAll(path)
	if err != nil {
		return Sentinel(), err
	}
	tokens := LineShingles(content, opts.LineShingleLenLimit, opts.ShingleNum)
	sketch := hashprim.MinHashSketch(tokens, f)
	return Fingerprint{Kind: KindMinHash, MinHash: sketch}, nil
}

// TLSHFromFile computes the TLSH-style digest (§4.4). Files at or above
// opts.TLSHMaxSize receive Sentinel("0") — represented as an empty-kind
// Sentinel fingerprint, since the caller's orderer substitutes the literal
// string "0" as the sort key for Sentinel TLSH fingerprints.
func TLSHFromFile(path string, size uint64, opts Options) (Fingerprint, error) {
	if size >= opts.TLSHMaxSize {
		return Sentinel(), nil
	}
	content, err := readAll(path)
	if err != nil {
		return Sentinel(), err
	}
	body := computeTLSHBody(content)
	return Fingerprint{Kind: KindTLSH, TLSH: body}, nil
}

// CompareWords orders two equal-length SimHash lane slices as big
// integers, most-significant lane (index 0) first, so a 128/256-bit
// SimHash value can be used as a direct-orderer sort key without
// truncating it down to a single 64-bit lane.
func CompareWords(a, b []uint64) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	default:
		return 0
	}
}
