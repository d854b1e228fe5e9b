// Package profile loads supplementary background documents (resume, bio,
// exported pages) and flattens them to plain text for inclusion in the
// persona prompt. The questionnaire is authoritative; attachments are
// best-effort color.
package profile

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Extractor flattens one document format to plain text.
type Extractor interface {
	Extract(r io.Reader, filename string) (string, error)
}

// SupportedExtensions lists attachment formats the service can flatten.
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

// ForFile returns the extractor for a filename.
func ForFile(filename string) (Extractor, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".txt":
		return &TextExtractor{}, nil
	case ".md", ".markdown":
		return &MarkdownExtractor{}, nil
	case ".csv":
		return &CSVExtractor{}, nil
	case ".html", ".htm":
		return &HTMLExtractor{}, nil
	case ".pdf":
		return &PDFExtractor{}, nil
	case ".docx":
		return &DOCXExtractor{}, nil
	default:
		return nil, fmt.Errorf("unsupported attachment type: %s", ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	return SupportedExtensions[strings.ToLower(filepath.Ext(filename))]
}

// Attachment is one flattened background document.
type Attachment struct {
	Name string
	Text string
}

// LoadDir flattens every supported file in dir, in name order. Per-file
// failures are logged and skipped: missing background must not take the
// persona down with it. A missing directory yields no attachments.
func LoadDir(dir string, pdfFallback bool, log *slog.Logger) []Attachment {
	if dir == "" {
		return nil
	}
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warn("profile dir unreadable", "dir", dir, "error", err)
		}
		return nil
	}

	names := make([]string, 0, len(dirEntries))
	for _, de := range dirEntries {
		if de.IsDir() || !IsSupportedExtension(de.Name()) {
			continue
		}
		names = append(names, de.Name())
	}
	sort.Strings(names)

	var out []Attachment
	for _, name := range names {
		ex, err := ForFile(name)
		if err != nil {
			continue
		}
		if p, ok := ex.(*PDFExtractor); ok {
			p.FallbackPdftotext = pdfFallback
		}
		f, err := os.Open(filepath.Join(dir, name))
		if err != nil {
			log.Warn("attachment open failed", "file", name, "error", err)
			continue
		}
		text, err := ex.Extract(f, name)
		f.Close()
		if err != nil {
			log.Warn("attachment extract failed", "file", name, "error", err)
			continue
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		out = append(out, Attachment{Name: name, Text: text})
	}
	return out
}
