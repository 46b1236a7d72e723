package persistence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/dfryer1193/artblog/blog/domain"
)

func TestPostDocumentMapping(t *testing.T) {
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	p := &domain.Post{
		ID:          "hello",
		Title:       "Hello",
		Description: "desc",
		PubDate:     "2024-01-02",
		Draft:       true,
		Body:        "body",
		Extra: []domain.Field{
			{Key: "cover", Value: "hero.png"},
			{Key: "series", Value: []string{"a", "b"}},
			{Key: "featured", Value: true},
		},
		CreatedAt: created,
		UpdatedAt: created,
	}

	raw, err := bson.Marshal(newPostDocument(p))
	require.NoError(t, err)

	var fields bson.M
	require.NoError(t, bson.Unmarshal(raw, &fields))
	assert.Equal(t, "hello", fields["_id"])
	assert.Equal(t, "body", fields["content"])
	assert.Equal(t, "2024-01-02", fields["pub_date"])

	var doc postDocument
	require.NoError(t, bson.Unmarshal(raw, &doc))
	got := doc.toDomain()

	assert.Equal(t, p.ID, got.ID)
	assert.Equal(t, p.Body, got.Body)
	assert.Equal(t, []string{}, got.Tags)
	assert.True(t, got.Draft)
	assert.True(t, got.CreatedAt.Equal(created))
	require.Len(t, got.Extra, 3)
	assert.Equal(t, "hero.png", got.Extra[0].Value)
	assert.Equal(t, []string{"a", "b"}, got.Extra[1].Value)
	assert.Equal(t, true, got.Extra[2].Value)
}

func TestNormalizeValue(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want any
	}{
		{name: "string", in: "x", want: "x"},
		{name: "bool", in: true, want: true},
		{name: "generic list", in: []any{"a", 1}, want: []string{"a", "1"}},
		{name: "string list", in: []string{"a"}, want: []string{"a"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeValue(tt.in))
		})
	}
}
