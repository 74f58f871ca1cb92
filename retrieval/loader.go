// Package retrieval is the document gateway: it ingests uploaded files into a
// per-user namespace and answers similarity queries with ranked snippets.
// Namespaces isolate one user's material from another's.
package retrieval

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"
)

// supportedExtensions is the upload allow-list. Document and presentation
// formats plus plain-text variants.
var supportedExtensions = map[string]string{
	".pdf":  "application/pdf",
	".ppt":  "application/vnd.ms-powerpoint",
	".pptx": "application/vnd.openxmlformats-officedocument.presentationml.presentation",
	".txt":  "text/plain",
	".md":   "text/markdown",
}

// SupportedExtensions lists the accepted file extensions.
func SupportedExtensions() []string {
	return []string{".pdf", ".ppt", ".pptx", ".txt", ".md"}
}

// Supported reports whether the file's extension is on the allow-list.
func Supported(path string) bool {
	_, ok := supportedExtensions[strings.ToLower(filepath.Ext(path))]
	return ok
}

// DetectType returns the MIME type for an allow-listed path.
func DetectType(path string) (string, bool) {
	t, ok := supportedExtensions[strings.ToLower(filepath.Ext(path))]
	return t, ok
}

// LoadText reads a document and returns its text content. Plain-text formats
// are read verbatim; binary document formats are salvaged by extracting
// printable character runs, which recovers the uncompressed text streams
// such files embed. Unsupported extensions are rejected.
func LoadText(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if _, ok := supportedExtensions[ext]; !ok {
		return "", fmt.Errorf("unsupported file type %q", ext)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read document: %w", err)
	}
	switch ext {
	case ".txt", ".md":
		return string(raw), nil
	default:
		return salvageText(raw), nil
	}
}

// salvageText extracts runs of printable characters from binary document
// bytes, dropping runs too short to be prose.
func salvageText(raw []byte) string {
	const minRun = 4
	var b strings.Builder
	var run []rune
	flush := func() {
		if len(run) >= minRun {
			b.WriteString(string(run))
			b.WriteByte('\n')
		}
		run = run[:0]
	}
	for _, r := range string(raw) {
		if r == unicode.ReplacementChar {
			flush()
			continue
		}
		if unicode.IsPrint(r) || r == ' ' || r == '\t' {
			run = append(run, r)
			continue
		}
		flush()
	}
	flush()
	return b.String()
}
