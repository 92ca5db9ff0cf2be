// Package document reads announcement text from files.
package document

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// MaxChars bounds extracted text so a long filing fits a model request.
const MaxChars = 50000

var ErrNoText = errors.New("document contains no extractable text")

// ExtractPDFText returns the plain text of every page. Corrupt PDFs can
// panic inside the parser; that is reported as an error.
func ExtractPDFText(path string) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("panic during PDF extraction: %v", r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	var sb strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		sb.WriteString(pageText)
		sb.WriteString("\n")
		if sb.Len() > MaxChars {
			break
		}
	}

	return finish(sb.String())
}

// ReadText loads a .pdf through ExtractPDFText and any other file as
// plain text.
func ReadText(path string) (string, error) {
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		return ExtractPDFText(path)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return finish(string(b))
}

func finish(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ErrNoText
	}
	if len(s) > MaxChars {
		s = s[:MaxChars]
	}
	return s, nil
}
