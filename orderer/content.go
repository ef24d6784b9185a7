package orderer

import (
	"github.com/rpcpool/ppcbench/blob"
	"github.com/rpcpool/ppcbench/fingerprint"
)

// SimHashSort orders by ascending 128-bit SimHash value; files at or above
// the SimHash size gate receive Sentinel(0), which sorts first (the zero
// value) and groups all skipped files together.
func SimHashSort(opts fingerprint.Options) Orderer {
	return OrdererFunc(func(ds blob.Dataset, inputDir string) ([]int, error) {
		words := make([][]uint64, len(ds))
		for i, r := range ds {
			fp, err := fingerprint.SimHashFromFile(ds.Path(inputDir, i), r.Length, 128, opts)
			if err != nil {
				fp = fingerprint.Sentinel()
			}
			if fp.Kind == fingerprint.KindSentinel {
				words[i] = []uint64{0, 0}
			} else {
				words[i] = fp.Words
			}
		}
		return stableSortByKey(len(ds), func(i, j int) bool {
			return fingerprint.CompareWords(words[i], words[j]) < 0
		}), nil
	})
}

// TLSHSort orders by ascending lexicographic TLSH body; files at or above
// the TLSH size gate sort on the literal string "0".
func TLSHSort(opts fingerprint.Options) Orderer {
	return OrdererFunc(func(ds blob.Dataset, inputDir string) ([]int, error) {
		keys := make([]string, len(ds))
		for i, r := range ds {
			fp, err := fingerprint.TLSHFromFile(ds.Path(inputDir, i), r.Length, opts)
			if err != nil || fp.Kind == fingerprint.KindSentinel {
				keys[i] = "0"
				continue
			}
			keys[i] = fp.TLSH
		}
		return stableSortByKey(len(ds), func(i, j int) bool {
			return keys[i] < keys[j]
		}), nil
	})
}
