package orderer

import (
	"fmt"

	"github.com/rpcpool/ppcbench/fingerprint"
)

// Config bundles every parameter a named orderer might need.
type Config struct {
	FingerprintOptions fingerprint.Options
	RandomSeed         int64
	SSDeepMaxSize      uint64 // default 8 MiB per spec.md §4.5
}

// DefaultConfig returns the spec.md-documented defaults.
func DefaultConfig() Config {
	return Config{
		FingerprintOptions: fingerprint.DefaultOptions(),
		RandomSeed:         42,
		SSDeepMaxSize:      8 << 20,
	}
}

// Names lists every strategy name New recognizes, in the order spec.md
// §4.5 presents them.
var Names = []string{
	"list", "random", "lengthsort", "filename", "filename-path",
	"simhashsort", "tlshsort", "ssdeepsort",
}

// New constructs the direct orderer named by strategy.
func New(strategy string, cfg Config) (Orderer, error) {
	switch strategy {
	case "list":
		return List(), nil
	case "random":
		return Random(cfg.RandomSeed), nil
	case "lengthsort":
		return LengthSort(), nil
	case "filename":
		return FilenameSort(), nil
	case "filename-path":
		return FilenamePathSort(), nil
	case "simhashsort":
		return SimHashSort(cfg.FingerprintOptions), nil
	case "tlshsort":
		return TLSHSort(cfg.FingerprintOptions), nil
	case "ssdeepsort":
		return SSDeepSort(cfg.SSDeepMaxSize), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrOrdererUnavailable, strategy)
	}
}
