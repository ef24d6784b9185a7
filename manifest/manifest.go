// Package manifest loads the blob manifest CSV into a blob.Dataset. The
// manifest's columns are fixed (spec.md §6): swhid, file_id, length,
// local_path, filename, filepath. Rows with a blank/NaN cell in a
// required column, or that fail to parse, are skipped rather than
// aborting the whole load — one bad manifest row should not sink an
// entire benchmark pass.
package manifest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/rpcpool/ppcbench/blob"
)

// Column names the manifest CSV's header row must declare, in any order;
// columns are looked up by name, not position.
const (
	colSWHID     = "swhid"
	colFileID    = "file_id"
	colLength    = "length"
	colLocalPath = "local_path"
	colFilename  = "filename"
	colFilepath  = "filepath"
)

// ErrMissingColumn is returned when the manifest header lacks a required
// column.
var ErrMissingColumn = errors.New("manifest: missing required column")

// Load reads a manifest CSV from path and returns the parsed Dataset.
// Malformed or NaN-bearing rows are skipped and logged at Warn; a
// malformed header (missing a required column) is fatal.
func Load(path string, logger *slog.Logger) (blob.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("manifest: open %s: %w", path, err)
	}
	defer f.Close()
	return LoadReader(f, logger)
}

// LoadReader parses a manifest CSV from r. Exposed separately so tests and
// the dataset package (which may stream from a downloaded file) don't need
// a file on disk.
func LoadReader(r io.Reader, logger *slog.Logger) (blob.Dataset, error) {
	if logger == nil {
		logger = slog.Default()
	}
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("manifest: reading header: %w", err)
	}
	idx, err := columnIndex(header)
	if err != nil {
		return nil, err
	}

	var ds blob.Dataset
	rowNum := 1
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			logger.Warn("manifest: skipping malformed row", "row", rowNum, "err", err)
			rowNum++
			continue
		}
		rowNum++
		rec, ok := parseRow(row, idx)
		if !ok {
			logger.Warn("manifest: skipping row with missing/invalid field", "row", rowNum)
			continue
		}
		ds = append(ds, rec)
	}
	return ds, nil
}

func columnIndex(header []string) (map[string]int, error) {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.TrimSpace(strings.ToLower(h))] = i
	}
	for _, required := range []string{colSWHID, colFileID, colLength, colLocalPath, colFilename, colFilepath} {
		if _, ok := idx[required]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrMissingColumn, required)
		}
	}
	return idx, nil
}

func parseRow(row []string, idx map[string]int) (blob.Record, bool) {
	get := func(col string) (string, bool) {
		i := idx[col]
		if i >= len(row) {
			return "", false
		}
		v := strings.TrimSpace(row[i])
		if v == "" || strings.EqualFold(v, "nan") {
			return "", false
		}
		return v, true
	}

	if _, ok := get(colSWHID); !ok {
		return blob.Record{}, false
	}
	fileID, ok := get(colFileID)
	if !ok {
		return blob.Record{}, false
	}
	lengthStr, ok := get(colLength)
	if !ok {
		return blob.Record{}, false
	}
	length, err := strconv.ParseUint(lengthStr, 10, 64)
	if err != nil {
		return blob.Record{}, false
	}
	localPath, ok := get(colLocalPath)
	if !ok {
		return blob.Record{}, false
	}
	filename, ok := get(colFilename)
	if !ok {
		return blob.Record{}, false
	}
	filepath, ok := get(colFilepath)
	if !ok {
		return blob.Record{}, false
	}
	return blob.Record{
		FileID:    fileID,
		Length:    length,
		LocalPath: localPath,
		Filename:  filename,
		Filepath:  filepath,
	}, true
}
