package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// The field-path updater is the structural-merge primitive every wizard page
// writes through. A path like "propertyInfo.propertyAddress.city" addresses a
// leaf inside the nested section structure; applying it must create missing
// intermediate objects, must never disturb sibling keys at any level, and is
// idempotent.

// SplitPath splits a dot path into section name and remainder.
// "loanDetails.loanAmount" → ("loanDetails", "loanAmount").
func SplitPath(path string) (section, rest string, err error) {
	section, rest, found := strings.Cut(path, ".")
	if !found || section == "" || rest == "" {
		return "", "", fmt.Errorf("field path %q must have the form section.field", path)
	}
	for _, seg := range strings.Split(rest, ".") {
		if seg == "" {
			return "", "", fmt.Errorf("field path %q contains an empty segment", path)
		}
	}
	return section, rest, nil
}

// ApplyPath sets the value at a dot path inside doc, mutating doc in place.
// Missing intermediate maps are created; existing siblings are untouched. If
// an intermediate key currently holds a scalar, the scalar is replaced by a
// map so the deeper write can land (the key itself is the write target, not a
// sibling). Returns an error only for malformed paths.
func ApplyPath(doc map[string]interface{}, path string, value interface{}) error {
	if doc == nil {
		return fmt.Errorf("apply to nil document")
	}
	segs := strings.Split(path, ".")
	for _, seg := range segs {
		if seg == "" {
			return fmt.Errorf("field path %q contains an empty segment", path)
		}
	}

	cur := doc
	for _, seg := range segs[:len(segs)-1] {
		next, ok := cur[seg].(map[string]interface{})
		if !ok {
			if s, isSection := cur[seg].(Section); isSection {
				next = map[string]interface{}(s)
			} else {
				next = make(map[string]interface{})
			}
			cur[seg] = next
		}
		cur = next
	}
	cur[segs[len(segs)-1]] = value
	return nil
}

// MergeSection merges data into dst one top-level key at a time, recursing
// into nested maps so partial address objects do not clobber sibling fields.
// dst may be nil; the merged section is returned.
func MergeSection(dst Section, data map[string]interface{}) Section {
	if dst == nil {
		dst = make(Section, len(data))
	}
	for k, v := range data {
		incoming, isMap := asMap(v)
		if !isMap {
			dst[k] = v
			continue
		}
		existing, ok := asMap(dst[k])
		if !ok {
			existing = make(map[string]interface{}, len(incoming))
		}
		dst[k] = map[string]interface{}(MergeSection(existing, incoming))
	}
	return dst
}

func asMap(v interface{}) (map[string]interface{}, bool) {
	switch t := v.(type) {
	case map[string]interface{}:
		return t, true
	case Section:
		return map[string]interface{}(t), true
	}
	return nil, false
}

// CoerceNumber normalizes user-entered numeric input. Strings are parsed
// after stripping currency formatting; anything unparsable coerces to 0
// rather than failing the update.
func CoerceNumber(v interface{}) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case float32:
		return float64(t)
	case int:
		return float64(t)
	case int32:
		return float64(t)
	case int64:
		return float64(t)
	case string:
		s := strings.TrimSpace(t)
		s = strings.ReplaceAll(s, ",", "")
		s = strings.TrimPrefix(s, "$")
		if s == "" {
			return 0
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

// FieldPresent reports whether a section field counts as filled in: non-nil,
// non-blank for strings, non-zero for numbers. Nested maps count when they
// have at least one present field.
func FieldPresent(v interface{}) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(t) != ""
	case float64:
		return t != 0
	case float32:
		return t != 0
	case int:
		return t != 0
	case int64:
		return t != 0
	case bool:
		return true
	case map[string]interface{}:
		for _, vv := range t {
			if FieldPresent(vv) {
				return true
			}
		}
		return false
	case Section:
		return FieldPresent(map[string]interface{}(t))
	default:
		return true
	}
}
