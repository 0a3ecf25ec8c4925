package extract

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	pdflib "github.com/ledongthuc/pdf"
)

// extractPDF joins the plain text of each readable page with newlines.
// Pages that fail to decode are skipped rather than failing the whole
// document.
func extractPDF(data []byte) (string, map[string]string, error) {
	reader, err := pdflib.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", nil, fmt.Errorf("open pdf: %w", err)
	}

	numPages := reader.NumPage()
	var fragments []string
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		if text != "" {
			fragments = append(fragments, text)
		}
	}
	extra := map[string]string{"pages": strconv.Itoa(numPages)}
	return strings.Join(fragments, "\n"), extra, nil
}
