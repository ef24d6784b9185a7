package orderer

import (
	"os"

	"github.com/rpcpool/ppcbench/blob"
)

// ssdeep (spamsum-style) fuzzy digest: pure-Go piecewise rolling hash,
// grounded on the reference ssdeep implementation in the example pack.
// Not bit-compatible with the canonical ssdeep tool, but preserves its
// core idea — a rolling hash picks chunk boundaries, and each chunk
// contributes one base64 character to the digest — which is all the
// orderer needs for a lexicographic similarity proxy.
const (
	ssdeepWindow    = 7
	ssdeepDigestLen = 64
	base64Chars     = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"
)

func ssdeepBlockSize(length uint64) uint32 {
	bs := uint32(3)
	for uint64(bs)*uint64(ssdeepDigestLen) < length {
		bs *= 2
	}
	return bs
}

// ssdeepDigest computes the simplified fuzzy digest of content.
func ssdeepDigest(content []byte, blockSize uint32) string {
	var window [ssdeepWindow]byte
	var h1, h2, h3 uint32
	var n uint32
	var piece uint32 = 0x01234567
	digest := make([]byte, 0, ssdeepDigestLen)

	for _, c := range content {
		idx := n % ssdeepWindow
		h1 -= uint32(window[idx])
		h1 += uint32(c)
		h2 += h1
		h3 = (h3 << 5) ^ uint32(c)
		window[idx] = c
		n++

		piece = piece*33 + uint32(c)

		if h1%blockSize == blockSize-1 {
			digest = append(digest, base64Chars[piece%64])
			piece = 0x01234567
			if len(digest) >= ssdeepDigestLen {
				break
			}
		}
		_ = h3
	}
	if len(digest) < ssdeepDigestLen {
		digest = append(digest, base64Chars[piece%64])
	}
	return string(digest)
}

// SSDeepSort orders by ascending lexicographic ssdeep digest; files at or
// above the 8 MiB gate sort on the literal string "0".
func SSDeepSort(maxSize uint64) Orderer {
	return OrdererFunc(func(ds blob.Dataset, inputDir string) ([]int, error) {
		keys := make([]string, len(ds))
		for i, r := range ds {
			if r.Length >= maxSize {
				keys[i] = "0"
				continue
			}
			content, err := os.ReadFile(ds.Path(inputDir, i))
			if err != nil {
				keys[i] = "0"
				continue
			}
			keys[i] = ssdeepDigest(content, ssdeepBlockSize(r.Length))
		}
		return stableSortByKey(len(ds), func(i, j int) bool {
			return keys[i] < keys[j]
		}), nil
	})
}
