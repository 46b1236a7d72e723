// Package frontmatter reads and writes the metadata header at the top of a post file.
//
// The header is a line-oriented subset of YAML:
//
//	---
//	title: "My post"
//	tags: ["art", "process"]
//	draft: true
//	---
//
// Values are booleans, double-quoted strings, or lists of strings. Anything else is
// kept as a bare string.
package frontmatter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

const delimiter = "---"

// Attribute is a single header entry.
type Attribute struct {
	Key   string
	Value any
}

// Attributes keeps header entries in file order.
type Attributes []Attribute

// Get returns the value stored under key.
func (a Attributes) Get(key string) (any, bool) {
	for _, attr := range a {
		if attr.Key == key {
			return attr.Value, true
		}
	}
	return nil, false
}

// Set replaces the value under key in place, or appends it when the key is new.
func (a *Attributes) Set(key string, value any) {
	for i := range *a {
		if (*a)[i].Key == key {
			(*a)[i].Value = value
			return
		}
	}
	*a = append(*a, Attribute{Key: key, Value: value})
}

// String returns the value under key if it is a string.
func (a Attributes) String(key string) string {
	v, _ := a.Get(key)
	s, _ := v.(string)
	return s
}

// Bool returns true only when the value under key is the boolean true.
func (a Attributes) Bool(key string) bool {
	v, _ := a.Get(key)
	b, _ := v.(bool)
	return b
}

// List returns the value under key if it is a list.
func (a Attributes) List(key string) []string {
	v, _ := a.Get(key)
	l, _ := v.([]string)
	return l
}

// Decode splits raw into its header attributes and the trimmed body.
// Text without a complete header is returned unchanged as the body.
func Decode(raw string) (Attributes, string) {
	rest, ok := strings.CutPrefix(raw, delimiter+"\n")
	if !ok {
		return Attributes{}, raw
	}

	var block string
	switch {
	case strings.HasPrefix(rest, delimiter):
		rest = rest[len(delimiter):]
	default:
		end := strings.Index(rest, "\n"+delimiter)
		if end == -1 {
			return Attributes{}, raw
		}
		block = rest[:end]
		rest = rest[end+len(delimiter)+1:]
	}

	attrs := Attributes{}
	for _, line := range strings.Split(block, "\n") {
		key, val, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		attrs.Set(strings.TrimSpace(key), parseValue(strings.TrimSpace(val)))
	}

	return attrs, strings.TrimSpace(rest)
}

func parseValue(val string) any {
	switch {
	case val == "true":
		return true
	case val == "false":
		return false
	case len(val) >= 2 && strings.HasPrefix(val, `"`) && strings.HasSuffix(val, `"`):
		return val[1 : len(val)-1]
	case strings.HasPrefix(val, "["):
		return parseList(val)
	}
	return val
}

// parseList reads a JSON list, then a single-quoted one, then falls back to a
// plain comma split.
func parseList(val string) []string {
	if list, ok := jsonList(val); ok {
		return list
	}
	if list, ok := jsonList(strings.ReplaceAll(val, "'", `"`)); ok {
		return list
	}

	inner := ""
	if len(val) >= 2 {
		inner = val[1 : len(val)-1]
	}
	parts := strings.Split(inner, ",")
	list := make([]string, 0, len(parts))
	for _, part := range parts {
		list = append(list, trimQuote(strings.TrimSpace(part)))
	}
	return list
}

func jsonList(val string) ([]string, bool) {
	var items []any
	if err := json.Unmarshal([]byte(val), &items); err != nil {
		return nil, false
	}
	list := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			list = append(list, s)
		} else {
			list = append(list, fmt.Sprint(item))
		}
	}
	return list, true
}

// trimQuote strips at most one quote character from each end.
func trimQuote(s string) string {
	if strings.HasPrefix(s, `"`) || strings.HasPrefix(s, "'") {
		s = s[1:]
	}
	if strings.HasSuffix(s, `"`) || strings.HasSuffix(s, "'") {
		s = s[:len(s)-1]
	}
	return s
}

// Encode writes attrs as a header followed by a blank line and body.
// Nil values are skipped.
func Encode(attrs Attributes, body string) string {
	var sb strings.Builder
	sb.WriteString(delimiter + "\n")
	for _, attr := range attrs {
		if attr.Value == nil {
			continue
		}
		sb.WriteString(attr.Key)
		sb.WriteString(": ")
		sb.WriteString(formatValue(attr.Value))
		sb.WriteString("\n")
	}
	sb.WriteString(delimiter + "\n\n")
	sb.WriteString(body)
	return sb.String()
}

func formatValue(v any) string {
	switch val := v.(type) {
	case bool:
		if val {
			return "true"
		}
		return "false"
	case []string:
		return formatList(val)
	case string:
		return `"` + val + `"`
	default:
		return `"` + fmt.Sprint(val) + `"`
	}
}

func formatList(list []string) string {
	if list == nil {
		list = []string{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(list); err != nil {
		return "[]"
	}
	return strings.TrimSuffix(buf.String(), "\n")
}
