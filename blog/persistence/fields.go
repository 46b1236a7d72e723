package persistence

import (
	"encoding/json"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/dfryer1193/artblog/blog/domain"
)

type extraField struct {
	Key   string `json:"key" bson:"key"`
	Value any    `json:"value" bson:"value"`
}

func nonNilTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

func toExtraFields(fields []domain.Field) []extraField {
	out := make([]extraField, 0, len(fields))
	for _, f := range fields {
		out = append(out, extraField{Key: f.Key, Value: f.Value})
	}
	return out
}

func fromExtraFields(fields []extraField) []domain.Field {
	if len(fields) == 0 {
		return nil
	}
	out := make([]domain.Field, 0, len(fields))
	for _, f := range fields {
		out = append(out, domain.Field{Key: f.Key, Value: normalizeValue(f.Value)})
	}
	return out
}

// normalizeValue restores the frontmatter value kinds after a decode: lists of
// strings come back from JSON and BSON as generic slices.
func normalizeValue(v any) any {
	var items []any
	switch val := v.(type) {
	case []any:
		items = val
	case primitive.A:
		items = val
	case []string:
		return val
	default:
		return v
	}

	list := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			list = append(list, s)
		} else {
			list = append(list, fmt.Sprint(item))
		}
	}
	return list
}

func encodeExtra(fields []domain.Field) (string, error) {
	b, err := json.Marshal(toExtraFields(fields))
	if err != nil {
		return "", fmt.Errorf("failed to encode extra fields: %w", err)
	}
	return string(b), nil
}

func decodeExtra(raw string) ([]domain.Field, error) {
	if raw == "" {
		return nil, nil
	}
	var fields []extraField
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return nil, err
	}
	return fromExtraFields(fields), nil
}
