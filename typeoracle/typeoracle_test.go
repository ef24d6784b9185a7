package typeoracle

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContentOracleDetectsPlainText(t *testing.T) {
	oracle := ContentOracle()
	label := oracle.Label("ignored", []byte("just some plain ascii text content"))
	assert.Contains(t, label, "text")
}

func TestPathOracleExtractsExtension(t *testing.T) {
	oracle := PathOracle()
	assert.Equal(t, "go", oracle.Label("/a/b/main.go", nil))
	assert.Equal(t, "unknown", oracle.Label("/a/b/Makefile", nil))
	assert.Equal(t, "unknown", oracle.Label("noext", nil))
}

func TestLanguageOracleRecognizesGoSource(t *testing.T) {
	oracle := LanguageOracle()
	label := oracle.Label("main.go", []byte("package main\n\nfunc main() {}\n"))
	assert.Equal(t, "text/go", label)
}

func TestTwoStageDelegatesOnlyForTextLabels(t *testing.T) {
	primary := Func(func(string, []byte) string { return "text/plain" })
	secondary := Func(func(string, []byte) string { return "secondary" })
	o := TwoStage(primary, secondary)
	assert.Equal(t, "secondary", o.Label("x", nil))

	binaryPrimary := Func(func(string, []byte) string { return "application/octet-stream" })
	o2 := TwoStage(binaryPrimary, secondary)
	assert.Equal(t, "application/octet-stream", o2.Label("x", nil))
}

func TestExtensionOfIgnoresPathSegmentsWithDots(t *testing.T) {
	assert.True(t, strings.HasSuffix("v1.2.3/main.go", "main.go"))
	assert.Equal(t, "go", extensionOf("v1.2.3/main.go"))
	assert.Equal(t, "", extensionOf("v1.2.3/noext"))
}
