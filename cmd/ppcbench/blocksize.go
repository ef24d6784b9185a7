package main

import (
	"fmt"
	"strconv"
	"strings"
)

// blockSizeSpec is one -b occurrence: the byte ceiling (0 meaning
// single-archive mode) and the verbatim label used in archive filenames
// (spec.md §6's `<blocksize>` filename token, e.g. "512KiB", "0").
type blockSizeSpec struct {
	Bytes uint64
	Label string
}

// blockSizeList implements cli.Generic as a repeatable flag: each -b
// occurrence calls Set again, and Set appends rather than overwrites,
// the standard trick for an accumulating flag of a custom type in
// urfave/cli/v2 (there is no built-in GenericSliceFlag).
type blockSizeList struct {
	values []blockSizeSpec
}

func (l *blockSizeList) Set(s string) error {
	spec, err := parseBlockSize(s)
	if err != nil {
		return err
	}
	l.values = append(l.values, spec)
	return nil
}

func (l *blockSizeList) String() string {
	labels := make([]string, len(l.values))
	for i, v := range l.values {
		labels[i] = v.Label
	}
	return strings.Join(labels, ",")
}

// parseBlockSize parses the spec.md §6 block-size token: "0" (single
// archive) or "<int>{KiB|MiB|GiB}".
func parseBlockSize(s string) (blockSizeSpec, error) {
	s = strings.TrimSpace(s)
	if s == "0" {
		return blockSizeSpec{Bytes: 0, Label: "0"}, nil
	}
	units := map[string]uint64{
		"KiB": 1 << 10,
		"MiB": 1 << 20,
		"GiB": 1 << 30,
	}
	for suffix, mult := range units {
		if strings.HasSuffix(s, suffix) {
			numPart := strings.TrimSuffix(s, suffix)
			n, err := strconv.ParseUint(numPart, 10, 64)
			if err != nil {
				return blockSizeSpec{}, fmt.Errorf("invalid block size %q: %w", s, err)
			}
			return blockSizeSpec{Bytes: n * mult, Label: s}, nil
		}
	}
	return blockSizeSpec{}, fmt.Errorf("invalid block size %q: want \"0\" or \"<int>{KiB|MiB|GiB}\"", s)
}
