package client

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// rawRecord is one decoded JSON object from the CMS. WordPress payloads vary
// by plugin and post type, so fields are read through explicit fallback
// chains instead of fixed structs.
type rawRecord map[string]any

func decodeRecord(body []byte) (rawRecord, error) {
	var r rawRecord
	if err := json.Unmarshal(body, &r); err != nil {
		return nil, fmt.Errorf("decode object: %w", err)
	}
	return r, nil
}

// decodeRecords accepts a bare JSON array or an object wrapping one under
// any of keys.
func decodeRecords(body []byte, keys ...string) ([]rawRecord, error) {
	var list []rawRecord
	if err := json.Unmarshal(body, &list); err == nil {
		return list, nil
	}
	obj, err := decodeRecord(body)
	if err != nil {
		return nil, fmt.Errorf("decode list: %w", err)
	}
	for _, k := range keys {
		if items, ok := obj[k].([]any); ok {
			return toRecords(items), nil
		}
	}
	return nil, fmt.Errorf("decode list: no array under %v", keys)
}

func toRecords(items []any) []rawRecord {
	out := make([]rawRecord, 0, len(items))
	for _, it := range items {
		if m, ok := it.(map[string]any); ok {
			out = append(out, rawRecord(m))
		}
	}
	return out
}

// obj returns the nested object at key, or nil.
func (r rawRecord) obj(key string) rawRecord {
	if m, ok := r[key].(map[string]any); ok {
		return rawRecord(m)
	}
	return nil
}

// first returns the first element of the array at key when it is an object.
func (r rawRecord) first(key string) rawRecord {
	items, ok := r[key].([]any)
	if !ok || len(items) == 0 {
		return nil
	}
	if m, ok := items[0].(map[string]any); ok {
		return rawRecord(m)
	}
	return nil
}

// str returns the first non-empty string among keys.
func (r rawRecord) str(keys ...string) string {
	for _, k := range keys {
		if s := scalarString(r[k]); s != "" {
			return s
		}
	}
	return ""
}

// rendered reads WordPress {"rendered": "..."} fields, accepting plain
// strings as well.
func (r rawRecord) rendered(key string) string {
	switch v := r[key].(type) {
	case string:
		return v
	case map[string]any:
		if s, ok := v["rendered"].(string); ok {
			return s
		}
	}
	return ""
}

// num returns the first numeric value among keys, and whether one was found.
func (r rawRecord) num(keys ...string) (float64, bool) {
	for _, k := range keys {
		if f, ok := scalarNumber(r[k]); ok {
			return f, true
		}
	}
	return 0, false
}

// intOr is num truncated; def is returned when no key holds a number.
func (r rawRecord) intOr(def int64, keys ...string) int64 {
	if f, ok := r.num(keys...); ok {
		return int64(f)
	}
	return def
}

// boolean reads true/false, 1/0, "1"/"0", "true"/"false", "yes"/"no".
func (r rawRecord) boolean(key string) bool {
	switch v := unwrapSingle(r[key]).(type) {
	case bool:
		return v
	case float64:
		return v != 0
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "on":
			return true
		}
	}
	return false
}

// list reads an array of strings, or a comma-separated string.
func (r rawRecord) list(key string) []string {
	out := []string{}
	switch v := r[key].(type) {
	case []any:
		for _, it := range v {
			if s := strings.TrimSpace(scalarString(it)); s != "" {
				out = append(out, s)
			}
		}
	case string:
		for _, part := range strings.Split(v, ",") {
			if s := strings.TrimSpace(part); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

// ints reads an array of numbers.
func (r rawRecord) ints(key string) []int64 {
	items, _ := r[key].([]any)
	out := make([]int64, 0, len(items))
	for _, it := range items {
		if f, ok := scalarNumber(it); ok {
			out = append(out, int64(f))
		}
	}
	return out
}

// unwrapSingle turns WordPress non-single meta values ([x]) into x.
func unwrapSingle(v any) any {
	if items, ok := v.([]any); ok && len(items) > 0 {
		return items[0]
	}
	return v
}

func scalarString(v any) string {
	switch t := unwrapSingle(v).(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	}
	return ""
}

func scalarNumber(v any) (float64, bool) {
	switch t := unwrapSingle(v).(type) {
	case float64:
		return t, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	case bool:
		if t {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

// effectiveSlug falls back to the numeric ID when the CMS sent no slug.
func effectiveSlug(slug string, id int64) string {
	if slug != "" {
		return slug
	}
	return strconv.FormatInt(id, 10)
}

// embeddedAuthor returns the first _embedded.author entry.
func (r rawRecord) embeddedAuthor() rawRecord {
	return r.obj("_embedded").first("author")
}

// avatarURL picks the largest avatar WordPress embedded for the author.
func avatarURL(author rawRecord) string {
	urls := author.obj("avatar_urls")
	return urls.str("96", "48", "24")
}

// featuredImage returns _embedded["wp:featuredmedia"][0].source_url.
func (r rawRecord) featuredImage() string {
	return r.obj("_embedded").first("wp:featuredmedia").str("source_url")
}
