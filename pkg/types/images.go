package types

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ImageList is the canonical representation of a product's image URLs.
type ImageList []string

// ImageParseResult carries the normalized list plus any shapes that could not
// be decoded. Warnings are collected, never silently dropped.
type ImageParseResult struct {
	Images   ImageList
	Warnings []string
}

// NormalizeImageField accepts every historical shape of the image column —
// a JSON array of URLs, nested arrays, a JSON-encoded string containing an
// array, a doubly-escaped JSON string, or a single bare URL — and produces a
// flat, de-duplicated URL list.
func NormalizeImageField(raw json.RawMessage) ImageParseResult {
	var result ImageParseResult
	if len(raw) == 0 {
		return result
	}

	seen := map[string]struct{}{}
	appendURL := func(value string) {
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			return
		}
		if _, ok := seen[trimmed]; ok {
			return
		}
		seen[trimmed] = struct{}{}
		result.Images = append(result.Images, trimmed)
	}

	var walk func(node any, depth int)
	walk = func(node any, depth int) {
		if depth > 4 {
			result.Warnings = append(result.Warnings, "image field nested deeper than 4 levels")
			return
		}
		switch v := node.(type) {
		case string:
			// A string is either a bare URL or JSON smuggled inside a string.
			candidate := strings.TrimSpace(v)
			if strings.HasPrefix(candidate, "[") || strings.HasPrefix(candidate, "\"") {
				var inner any
				if err := json.Unmarshal([]byte(candidate), &inner); err != nil {
					result.Warnings = append(result.Warnings, fmt.Sprintf("undecodable embedded JSON: %.60s", candidate))
					return
				}
				walk(inner, depth+1)
				return
			}
			appendURL(candidate)
		case []any:
			for _, item := range v {
				walk(item, depth+1)
			}
		case nil:
			// empty slot, nothing to record
		default:
			result.Warnings = append(result.Warnings, fmt.Sprintf("unsupported image field shape %T", v))
		}
	}

	var top any
	if err := json.Unmarshal(raw, &top); err != nil {
		// Not valid JSON at all; treat the raw bytes as a single URL.
		walk(string(raw), 0)
		return result
	}
	walk(top, 0)
	return result
}
