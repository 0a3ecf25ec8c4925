package evaluation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/docdex-io/docdex/internal/domain"
)

var suiteEntrySchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"query":    map[string]any{"type": "string"},
		"relevant": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		"top_k":    map[string]any{"type": "integer", "minimum": 1},
	},
}

// suiteSchema accepts either {"queries": [...]} or a bare entry list.
var suiteSchema = map[string]any{
	"oneOf": []any{
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"queries": map[string]any{"type": "array", "items": suiteEntrySchema},
			},
		},
		map[string]any{"type": "array", "items": suiteEntrySchema},
	},
}

type suiteEntry struct {
	Query    string   `json:"query"`
	Relevant []string `json:"relevant"`
	TopK     int      `json:"top_k"`
}

type suiteFile struct {
	Queries []suiteEntry `json:"queries"`
}

// ParseSuite decodes a labelled query suite. Entries without a query
// are dropped; entries without relevant snippets fall back to the
// query text itself. The returned slice may be empty.
func ParseSuite(data []byte) ([]Query, error) {
	if err := validateSuite(data); err != nil {
		return nil, err
	}
	trimmed := bytes.TrimSpace(data)
	var entries []suiteEntry
	if len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &entries); err != nil {
			return nil, fmt.Errorf("parse query suite: %w", err)
		}
	} else {
		var file suiteFile
		if err := json.Unmarshal(trimmed, &file); err != nil {
			return nil, fmt.Errorf("parse query suite: %w", err)
		}
		entries = file.Queries
	}

	queries := make([]Query, 0, len(entries))
	for _, entry := range entries {
		text := strings.TrimSpace(entry.Query)
		if text == "" {
			continue
		}
		relevant := entry.Relevant
		if len(relevant) == 0 {
			relevant = []string{text}
		}
		queries = append(queries, Query{Query: text, Relevant: relevant, TopK: entry.TopK})
	}
	return queries, nil
}

// LoadSuite reads and parses a query suite file.
func LoadSuite(path string) ([]Query, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read query suite: %w", err)
	}
	return ParseSuite(data)
}

func validateSuite(data []byte) error {
	result, err := gojsonschema.Validate(gojsonschema.NewGoLoader(suiteSchema), gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("validate query suite: %w", err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			msgs = append(msgs, desc.String())
		}
		return domain.NewConfiguration("query_suite", strings.Join(msgs, "; "))
	}
	return nil
}
