package fingerprint

import (
	"bytes"
	"strings"
	"unicode/utf8"
)

// decodeBestEffort reads content as best-effort UTF-8, replacing invalid
// byte sequences with the Unicode replacement character, then returns the
// result as bytes for tokenization.
func decodeBestEffort(content []byte) []byte {
	if utf8.Valid(content) {
		return content
	}
	return []byte(strings.ToValidUTF8(string(content), string(utf8.RuneError)))
}

// LineShingles splits content on '\n', trims surrounding whitespace from
// each line, drops lines of length <= lenLimit, and optionally groups
// shingleNum consecutive lines into one token.
func LineShingles(content []byte, lenLimit, shingleNum int) [][]byte {
	if shingleNum < 1 {
		shingleNum = 1
	}
	decoded := decodeBestEffort(content)
	rawLines := bytes.Split(decoded, []byte("\n"))

	var kept [][]byte
	for _, line := range rawLines {
		trimmed := bytes.TrimSpace(line)
		if len(trimmed) <= lenLimit {
			continue
		}
		kept = append(kept, trimmed)
	}

	if shingleNum == 1 {
		return kept
	}

	var tokens [][]byte
	for i := 0; i < len(kept); i += shingleNum {
		end := i + shingleNum
		if end > len(kept) {
			end = len(kept)
		}
		tokens = append(tokens, bytes.Join(kept[i:end], []byte("\n")))
	}
	return tokens
}

// FixedWindowShingles tokenizes raw byte content into overlapping windows
// of width w = max(1, len(content)-100).
func FixedWindowShingles(content []byte) [][]byte {
	w := len(content) - 100
	if w < 1 {
		w = 1
	}
	if len(content) == 0 {
		return nil
	}
	if w >= len(content) {
		return [][]byte{content}
	}
	tokens := make([][]byte, 0, len(content)-w+1)
	for i := 0; i+w <= len(content); i++ {
		tokens = append(tokens, content[i:i+w])
	}
	return tokens
}
