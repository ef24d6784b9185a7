// Package typeoracle implements the pluggable type-guessing oracle
// contract of spec.md §4.8 and §9: a single-method capability object,
// `Label(path, headBytes) string`, that the type grouper calls once per
// blob whose size falls between the "too_big"/"too_small" gates.
package typeoracle

import (
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// Oracle guesses a type label for one blob. Implementations must be safe
// for concurrent use: the grouper calls Label from multiple goroutines.
type Oracle interface {
	Label(path string, headBytes []byte) string
}

// Func adapts a plain function to the Oracle interface.
type Func func(path string, headBytes []byte) string

// Label implements Oracle.
func (f Func) Label(path string, headBytes []byte) string {
	return f(path, headBytes)
}

// ContentOracle sniffs a MIME type from the first bytes of the file,
// using the same library the rest of the example pack pulls in for
// content sniffing (gabriel-vasile/mimetype).
func ContentOracle() Oracle {
	return Func(func(_ string, headBytes []byte) string {
		mt := mimetype.Detect(headBytes)
		return mt.String()
	})
}

// PathOracle guesses a label from the file extension alone, for the
// filename-only (path-based) oracle variant spec.md §4.8 names as an
// alternative to content sniffing.
func PathOracle() Oracle {
	return Func(func(path string, _ []byte) string {
		ext := extensionOf(path)
		if ext == "" {
			return "unknown"
		}
		return ext
	})
}

func extensionOf(path string) string {
	idx := strings.LastIndexByte(path, '.')
	if idx < 0 || idx == len(path)-1 {
		return ""
	}
	slash := strings.LastIndexAny(path, "/\\")
	if slash > idx {
		return ""
	}
	return strings.ToLower(path[idx+1:])
}

// textLanguageHeuristics maps a crude keyword sniff of the first bytes to
// a coarse language label. Good enough to exercise the two-stage hook
// without pulling in a dedicated language-id library absent from the
// example pack.
var textLanguageHeuristics = []struct {
	label    string
	keywords []string
}{
	{"text/go", []string{"package ", "func ", "import ("}},
	{"text/python", []string{"def ", "import ", "elif "}},
	{"text/javascript", []string{"function ", "const ", "=>"}},
	{"text/json", []string{"{\"", "[{"}},
	{"text/markdown", []string{"# ", "## ", "```"}},
}

// LanguageOracle is the secondary oracle `typeminhashgraph` dispatches to
// when the primary MIME sniff's label contains "text".
func LanguageOracle() Oracle {
	return Func(func(_ string, headBytes []byte) string {
		head := string(headBytes)
		for _, h := range textLanguageHeuristics {
			for _, kw := range h.keywords {
				if strings.Contains(head, kw) {
					return h.label
				}
			}
		}
		return "text/plain"
	})
}

// TwoStage implements the two-stage oracle of spec.md §4.8: call primary,
// and if its label contains "text", call secondary and return that label
// instead.
func TwoStage(primary, secondary Oracle) Oracle {
	return Func(func(path string, headBytes []byte) string {
		label := primary.Label(path, headBytes)
		if strings.Contains(label, "text") {
			return secondary.Label(path, headBytes)
		}
		return label
	})
}
