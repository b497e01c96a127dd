package convert

import (
	"fmt"
	"sort"
	"strings"
)

var errNotTagPair = fmt.Errorf("tag entry is not a Key=Value string")
var errNotStringValue = fmt.Errorf("map value is not a string")
var errUnsupportedTags = fmt.Errorf("unsupported tag representation")

// ParseTags reads "Key=Value" pairs separated by ';' or ','. Blank and
// malformed pairs are dropped. Keys keep their case.
func ParseTags(raw string) map[string]string {
	parsed := make(map[string]string)
	for _, pair := range strings.FieldsFunc(raw, func(r rune) bool { return r == ';' || r == ',' }) {
		addTagPair(parsed, pair)
	}
	return parsed
}

func addTagPair(dst map[string]string, pair string) bool {
	parts := strings.SplitN(strings.TrimSpace(pair), "=", 2)
	if len(parts) != 2 {
		return false
	}
	key := strings.TrimSpace(parts[0])
	if key == "" {
		return false
	}
	dst[key] = strings.TrimSpace(parts[1])
	return true
}

// FormatTags renders tags as sorted "Key=Value" pairs joined by ';', the
// inverse of ParseTags.
func FormatTags(tags map[string]string) string {
	pairs := make([]string, 0, len(tags))
	for k, v := range tags {
		pairs = append(pairs, k+"="+v)
	}
	sort.Strings(pairs)
	return strings.Join(pairs, ";")
}

// ToTagMap converts the shapes a tag set arrives in from config files,
// environment variables and flags into map[string]string.
// Returns nil map if input is nil.
func ToTagMap(data any) (map[string]string, error) {
	switch v := data.(type) {
	case nil:
		return nil, nil
	case map[string]string:
		return v, nil
	case string:
		return ParseTags(v), nil
	case []string:
		out := make(map[string]string, len(v))
		for i, pair := range v {
			if !addTagPair(out, pair) {
				return nil, fmt.Errorf("index %d: %w (%q)", i, errNotTagPair, pair)
			}
		}
		return out, nil
	case []any:
		out := make(map[string]string, len(v))
		for i, item := range v {
			s, ok := item.(string)
			if !ok || !addTagPair(out, s) {
				return nil, fmt.Errorf("index %d: %w (%v)", i, errNotTagPair, item)
			}
		}
		return out, nil
	case map[string]any:
		out := make(map[string]string, len(v))
		for k, val := range v {
			s, ok := val.(string)
			if !ok {
				return nil, fmt.Errorf("key '%s': %w (type %T)", k, errNotStringValue, val)
			}
			out[k] = s
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: input type %T", errUnsupportedTags, data)
	}
}
