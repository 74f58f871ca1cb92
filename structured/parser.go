// Package structured extracts typed values from untrusted model output text.
// Parsing is tiered: a strict parse of the whole text, then extraction of a
// fenced code block or balanced JSON substring, and finally a caller-supplied
// fallback that always succeeds by construction. The enclosing operation
// never fails on malformed model output.
package structured

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// Tier identifies which parse tier produced a result.
type Tier int

const (
	// TierStrict means the full text parsed as JSON directly.
	TierStrict Tier = iota + 1
	// TierExtracted means a fenced block or brace substring parsed.
	TierExtracted
	// TierFallback means both parse tiers failed and the caller's fallback applied.
	TierFallback
)

// String returns a short label for the tier.
func (t Tier) String() string {
	switch t {
	case TierStrict:
		return "strict"
	case TierExtracted:
		return "extracted"
	case TierFallback:
		return "fallback"
	default:
		return "unknown"
	}
}

// Decode tries the strict and extraction tiers in order, unmarshaling into
// out. It returns the tier that succeeded, or an error when neither did.
func Decode(text string, out any) (Tier, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return 0, fmt.Errorf("empty text")
	}

	if gjson.Valid(trimmed) {
		if err := json.Unmarshal([]byte(trimmed), out); err == nil {
			return TierStrict, nil
		}
	}

	candidate, ok := ExtractJSON(trimmed)
	if !ok {
		return 0, fmt.Errorf("no JSON payload found in text")
	}
	if err := json.Unmarshal([]byte(candidate), out); err != nil {
		return 0, fmt.Errorf("extracted payload did not decode: %w", err)
	}
	return TierExtracted, nil
}

// DecodeOr decodes into a fresh T, applying fallback(raw) when both parse
// tiers fail. The returned tier reports which path produced the value.
func DecodeOr[T any](text string, fallback func(raw string) T) (T, Tier) {
	var out T
	if tier, err := Decode(text, &out); err == nil {
		return out, tier
	}
	return fallback(text), TierFallback
}

// ExtractJSON locates a JSON object or array inside free text. It prefers a
// fenced code block, then falls back to the widest balanced brace/bracket
// substring. The second return reports whether a valid candidate was found.
func ExtractJSON(text string) (string, bool) {
	if block, ok := fencedBlock(text); ok {
		if gjson.Valid(block) {
			return block, true
		}
	}
	for _, pair := range [][2]byte{{'{', '}'}, {'[', ']'}} {
		if candidate, ok := widestSpan(text, pair[0], pair[1]); ok {
			return candidate, true
		}
	}
	return "", false
}

// fencedBlock returns the body of the first ``` fence, stripping an optional
// language hint line.
func fencedBlock(text string) (string, bool) {
	start := strings.Index(text, "```")
	if start < 0 {
		return "", false
	}
	rest := text[start+3:]
	end := strings.Index(rest, "```")
	if end < 0 {
		return "", false
	}
	body := rest[:end]
	if nl := strings.IndexByte(body, '\n'); nl >= 0 {
		firstLine := strings.TrimSpace(body[:nl])
		if firstLine == "json" || firstLine == "JSON" || firstLine == "" {
			body = body[nl+1:]
		}
	}
	return strings.TrimSpace(body), true
}

// widestSpan returns the first-open to last-close substring when it forms
// valid JSON.
func widestSpan(text string, open, close byte) (string, bool) {
	first := strings.IndexByte(text, open)
	last := strings.LastIndexByte(text, close)
	if first < 0 || last <= first {
		return "", false
	}
	candidate := strings.TrimSpace(text[first : last+1])
	if !gjson.Valid(candidate) {
		return "", false
	}
	return candidate, true
}

// Field reads a single string field from a JSON-ish text without requiring
// the whole document to decode. Empty string when absent.
func Field(text, path string) string {
	if candidate, ok := ExtractJSON(text); ok {
		return gjson.Get(candidate, path).String()
	}
	return gjson.Get(text, path).String()
}
