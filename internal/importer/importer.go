// Package importer turns uploaded files into canonical editor markup. Each
// format is first converted to HTML, then the result always goes through the
// sanitizer.
package importer

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dgallion1/copyedit/internal/sanitize"
)

// ErrUnsupported is returned for file extensions with no converter.
var ErrUnsupported = errors.New("unsupported file type")

// Document is an imported file.
type Document struct {
	Title  string `json:"title"`
	Format string `json:"format"`
	Markup string `json:"markup"`
}

// Converter produces HTML from raw file bytes. The HTML may contain anything;
// Import sanitizes it.
type Converter interface {
	Convert(r io.Reader, filename string) (*Document, error)
}

// Options tune individual converters.
type Options struct {
	// PDFFallbackPdftotext shells out to pdftotext when the Go PDF reader
	// cannot extract text.
	PDFFallbackPdftotext bool
}

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
	".csv":      true,
	".html":     true,
	".htm":      true,
	".pdf":      true,
	".docx":     true,
}

// ForFile returns the converter for a filename.
func ForFile(filename string, opts Options) (Converter, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".txt":
		return &TextConverter{}, nil
	case ".md", ".markdown":
		return &MarkdownConverter{}, nil
	case ".csv":
		return &CSVConverter{}, nil
	case ".html", ".htm":
		return &HTMLConverter{}, nil
	case ".pdf":
		return &PDFConverter{FallbackPdftotext: opts.PDFFallbackPdftotext}, nil
	case ".docx":
		return &DOCXConverter{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupported, ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	return SupportedExtensions[strings.ToLower(filepath.Ext(filename))]
}

// Import converts r according to filename's extension and sanitizes the
// result.
func Import(r io.Reader, filename string, opts Options) (*Document, error) {
	conv, err := ForFile(filename, opts)
	if err != nil {
		return nil, err
	}
	doc, err := conv.Convert(r, filename)
	if err != nil {
		return nil, fmt.Errorf("import %s: %w", filepath.Base(filename), err)
	}
	doc.Markup = sanitize.Sanitize(doc.Markup)
	if doc.Title == "" {
		doc.Title = baseTitle(filename)
	}
	return doc, nil
}

func baseTitle(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
