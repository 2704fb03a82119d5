// Package extract pulls plain text out of uploaded assignment files.
package extract

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Extractor returns the text of a file, or "" if none could be read.
type Extractor interface {
	ExtractText(path string) string
}

// PDF extracts text from PDF files.
type PDF struct{}

// ExtractText returns the plain text of every page in order. Any failure,
// including a file that is not a PDF, yields "".
func (PDF) ExtractText(path string) string {
	text, err := readPDF(path)
	if err != nil {
		slog.Warn("pdf text extraction failed", "path", path, "error", err)
		return ""
	}
	return text
}

// IsPDF reports whether name has a .pdf extension.
func IsPDF(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".pdf")
}

func readPDF(path string) (text string, err error) {
	// The parser panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("parse %s: %v", path, r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var sb strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("page %d: %w", i, err)
		}
		sb.WriteString(content)
		sb.WriteString("\n")
	}
	return strings.TrimSpace(sb.String()), nil
}
