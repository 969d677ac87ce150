package registry

import (
	"encoding/json"
	"strings"
	"unicode/utf8"
)

// PermissionEntry is the structured form of one route permission. Legacy
// callers may still submit permissions as JSON text; ParsePermissionList
// converts that form at the boundary so the registry itself only ever deals
// with structured entries.
type PermissionEntry struct {
	Pattern string `json:"pattern"`
	Verb    string `json:"verb"`
}

// ParsePermissionList decodes a permission payload. It accepts a JSON array
// of {pattern, verb} objects, or a JSON string whose content is such an
// array (the double-encoded form produced by older admin tooling). Invalid
// input fails with ErrMalformedPermissionPayload rather than being treated
// as an empty list.
func ParsePermissionList(raw []byte) ([]PermissionEntry, error) {
	text := strings.TrimSpace(string(raw))
	if text == "" {
		return nil, nil
	}
	if !utf8.ValidString(text) {
		text = strings.ToValidUTF8(text, "")
	}

	// Unwrap the double-encoded form first.
	if strings.HasPrefix(text, `"`) {
		var inner string
		if err := json.Unmarshal([]byte(text), &inner); err != nil {
			return nil, ErrMalformedPermissionPayload
		}
		text = inner
	}

	var entries []PermissionEntry
	if err := json.Unmarshal([]byte(text), &entries); err != nil {
		return nil, ErrMalformedPermissionPayload
	}
	return entries, nil
}

// splitCSV splits a comma-separated list into trimmed, non-empty elements.
func splitCSV(csv string) []string {
	var out []string
	for _, part := range strings.Split(csv, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
