// Package pdf extracts plain text from PDF file content.
package pdf

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Extractor pulls text out of PDF bytes. It carries no state; the struct
// exists so the ingestion pipeline can depend on an interface and tests
// can substitute a fake.
type Extractor struct{}

// NewExtractor creates an Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// ExtractText parses the PDF and returns the cleaned text of all pages.
// The pdf library panics on some malformed files, so parsing is guarded
// with a recover and reported as an ordinary error.
func (e *Extractor) ExtractText(content []byte, fileName string) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("parse pdf %s: %v", fileName, r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("open pdf %s: %w", fileName, err)
	}

	var sb strings.Builder
	totalPage := reader.NumPage()
	for pageIndex := 1; pageIndex <= totalPage; pageIndex++ {
		page := reader.Page(pageIndex)
		if page.V.IsNull() {
			continue
		}
		pageText, pErr := page.GetPlainText(nil)
		if pErr != nil {
			// A single unreadable page does not fail the document.
			continue
		}
		sb.WriteString(pageText)
		sb.WriteString("\n")
	}

	return cleanText(sb.String()), nil
}

// cleanText collapses whitespace and strips common extraction artifacts.
func cleanText(text string) string {
	cleaned := strings.Join(strings.Fields(text), " ")
	cleaned = strings.ReplaceAll(cleaned, "\x00", "")
	cleaned = strings.ReplaceAll(cleaned, "�", "")
	return strings.TrimSpace(cleaned)
}
