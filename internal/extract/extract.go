// Package extract converts uploaded document bytes into plain text.
// Format selection goes by file extension first, then content type;
// anything unrecognized is treated as UTF-8 text.
package extract

import (
	"path/filepath"
	"strings"

	"github.com/docdex-io/docdex/internal/domain"
)

// Format identifies a supported document format.
type Format string

const (
	FormatPlain    Format = "plain"
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
	FormatDOCX     Format = "docx"
	FormatPDF      Format = "pdf"
)

// SupportedExtensions lists the file extensions the extractor handles
// natively. Other extensions fall back to a plain-text decode.
var SupportedExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
	".html":     true,
	".htm":      true,
	".docx":     true,
	".pdf":      true,
}

// IsSupportedExtension reports whether the filename carries a natively
// handled extension.
func IsSupportedExtension(filename string) bool {
	return SupportedExtensions[strings.ToLower(filepath.Ext(filename))]
}

// Result is the extracted text plus format-specific metadata such as
// page or paragraph counts.
type Result struct {
	Text     string
	Format   Format
	Metadata map[string]string
}

// Extractor turns uploaded bytes into text. Implementations must be
// safe for concurrent use.
type Extractor interface {
	Extract(filename, contentType string, data []byte) (Result, error)
}

// New returns the standard extractor.
func New() Extractor { return &registry{} }

type registry struct{}

func (*registry) Extract(filename, contentType string, data []byte) (Result, error) {
	return Extract(filename, contentType, data)
}

// Extract converts document bytes into text for the format implied by
// filename and content type. Failures wrap ExtractionError.
func Extract(filename, contentType string, data []byte) (Result, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	format := formatFor(ext, contentType)

	var (
		text  string
		extra map[string]string
		err   error
	)
	switch format {
	case FormatMarkdown:
		text, err = extractMarkdown(data)
	case FormatHTML:
		text, extra, err = extractHTML(data)
	case FormatDOCX:
		text, extra, err = extractDOCX(data)
	case FormatPDF:
		text, extra, err = extractPDF(data)
	default:
		text = extractPlain(data)
	}
	if err != nil {
		return Result{}, domain.NewExtraction(filename, err)
	}

	metadata := map[string]string{
		"source_extension": strings.TrimPrefix(ext, "."),
		"content_type":     contentType,
	}
	for k, v := range extra {
		metadata[k] = v
	}
	return Result{Text: text, Format: format, Metadata: metadata}, nil
}

func formatFor(ext, contentType string) Format {
	switch ext {
	case ".txt":
		return FormatPlain
	case ".md", ".markdown":
		return FormatMarkdown
	case ".html", ".htm":
		return FormatHTML
	case ".docx":
		return FormatDOCX
	case ".pdf":
		return FormatPDF
	}
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	switch {
	case ct == "text/markdown":
		return FormatMarkdown
	case ct == "text/html":
		return FormatHTML
	case ct == "application/pdf":
		return FormatPDF
	case ct == "application/vnd.openxmlformats-officedocument.wordprocessingml.document":
		return FormatDOCX
	}
	return FormatPlain
}

func extractPlain(data []byte) string {
	return strings.ToValidUTF8(string(data), "�")
}
