package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/rpcpool/ppcbench/blob"
	"github.com/rpcpool/ppcbench/typeoracle"
)

// readHeadBytes reads up to n bytes from the start of path, the same
// head-of-file read typegroup.Order's labeler performs.
func readHeadBytes(path string, n int) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	buf := make([]byte, n)
	read, err := f.Read(buf)
	if err != nil && read == 0 {
		return nil, err
	}
	return buf[:read], nil
}

// labelStats is one row of the --type-stats table: spec.md §8's
// supplemented "label distribution only" mode runs the type-grouper's
// labeling step without ever reaching the ordering/archive/compression
// stages.
type labelStats struct {
	Label     string
	Count     int
	TotalSize uint64
}

// runTypeStats buckets ds by oracle.Label the same way typegroup.Order's
// first pass does (parallel, mutex-guarded), but stops there: no
// sub-ordering, no archive, no compression.
func runTypeStats(ds blob.Dataset, inputDir string, oracle typeoracle.Oracle, out io.Writer) error {
	const headBytesRead = 4096
	const tooBig = 1 << 20
	const tooSmall = 200

	var mu sync.Mutex
	stats := make(map[string]*labelStats)
	record := func(label string, size uint64) {
		mu.Lock()
		defer mu.Unlock()
		s, ok := stats[label]
		if !ok {
			s = &labelStats{Label: label}
			stats[label] = s
		}
		s.Count++
		s.TotalSize += size
	}

	var wg sync.WaitGroup
	for i := range ds {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			length := ds[i].Length
			switch {
			case length > tooBig:
				record("too_big", length)
				return
			case length < tooSmall:
				record("too_small", length)
				return
			}
			head, err := readHeadBytes(ds.Path(inputDir, i), headBytesRead)
			if err != nil {
				record("too_small", length)
				return
			}
			record(oracle.Label(ds.Path(inputDir, i), head), length)
		}()
	}
	wg.Wait()

	labels := make([]string, 0, len(stats))
	for l := range stats {
		labels = append(labels, l)
	}
	sort.Strings(labels)

	fmt.Fprintln(out, "LABEL,COUNT,TOTAL_SIZE")
	for _, l := range labels {
		s := stats[l]
		fmt.Fprintf(out, "%s,%d,%s\n", s.Label, s.Count, humanize.Bytes(s.TotalSize))
	}
	return nil
}
