package frontmatter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dfryer1193/artblog/blog/domain"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		wantAttrs Attributes
		wantBody  string
	}{
		{
			name:      "no header",
			raw:       "Just a body\n",
			wantAttrs: Attributes{},
			wantBody:  "Just a body\n",
		},
		{
			name:      "unterminated header",
			raw:       "---\ntitle: \"x\"\nbody",
			wantAttrs: Attributes{},
			wantBody:  "---\ntitle: \"x\"\nbody",
		},
		{
			name: "typed values",
			raw:  "---\ntitle: \"Hello: World\"\ndraft: true\npublished: false\ntags: [\"a\", \"b\"]\nlayout: post\n---\n\n  Body text  \n",
			wantAttrs: Attributes{
				{Key: "title", Value: "Hello: World"},
				{Key: "draft", Value: true},
				{Key: "published", Value: false},
				{Key: "tags", Value: []string{"a", "b"}},
				{Key: "layout", Value: "post"},
			},
			wantBody: "Body text",
		},
		{
			name: "single quoted list",
			raw:  "---\ntags: ['art', 'code']\n---\nx",
			wantAttrs: Attributes{
				{Key: "tags", Value: []string{"art", "code"}},
			},
			wantBody: "x",
		},
		{
			name: "unparsable list falls back to splitting",
			raw:  "---\ntags: [art, \"code\", it's]\n---\nx",
			wantAttrs: Attributes{
				{Key: "tags", Value: []string{"art", "code", "it's"}},
			},
			wantBody: "x",
		},
		{
			name: "lines without a colon are ignored",
			raw:  "---\njunk\ntitle: \"t\"\n---\nx",
			wantAttrs: Attributes{
				{Key: "title", Value: "t"},
			},
			wantBody: "x",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attrs, body := Decode(tt.raw)
			assert.Equal(t, tt.wantAttrs, attrs)
			assert.Equal(t, tt.wantBody, body)
		})
	}
}

func TestEncode(t *testing.T) {
	attrs := Attributes{
		{Key: "title", Value: "A <b> & c"},
		{Key: "tags", Value: []string{"x", "y"}},
		{Key: "draft", Value: false},
		{Key: "skipped", Value: nil},
	}

	got := Encode(attrs, "Body")
	want := "---\ntitle: \"A <b> & c\"\ntags: [\"x\",\"y\"]\ndraft: false\n---\n\nBody"
	assert.Equal(t, want, got)
}

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		attrs Attributes
		body  string
	}{
		{
			name: "all value kinds",
			attrs: Attributes{
				{Key: "title", Value: "Ink & Soil"},
				{Key: "description", Value: ""},
				{Key: "pubDate", Value: "2024-03-01"},
				{Key: "tags", Value: []string{"ecology", "process"}},
				{Key: "draft", Value: true},
			},
			body: "Line one\n\n## Heading\nLine two",
		},
		{
			name:  "empty header",
			attrs: Attributes{},
			body:  "only body",
		},
		{
			name:  "empty list",
			attrs: Attributes{{Key: "tags", Value: []string{}}},
			body:  "b",
		},
		{
			name:  "list items with apostrophe and comma",
			attrs: Attributes{{Key: "tags", Value: []string{"artist's book", "ink, soil"}}},
			body:  "Body",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attrs, body := Decode(Encode(tt.attrs, tt.body))
			assert.Equal(t, tt.attrs, attrs)
			assert.Equal(t, tt.body, body)
		})
	}
}

func TestParseKeepsExtras(t *testing.T) {
	raw := "---\ntitle: \"Field Notes\"\nheroImage: \"/images/a.png\"\npubDate: \"2024-01-02\"\ntags: [\"research\"]\ndraft: false\n---\n\nHello"

	p := Parse("field-notes", raw)
	require.Equal(t, "field-notes", p.ID)
	assert.Equal(t, "Field Notes", p.Title)
	assert.Equal(t, "2024-01-02", p.PubDate)
	assert.Equal(t, []string{"research"}, p.Tags)
	assert.False(t, p.Draft)
	assert.Equal(t, []domain.Field{{Key: "heroImage", Value: "/images/a.png"}}, p.Extra)

	again := Parse("field-notes", Format(p))
	assert.Equal(t, p, again)
}

func TestToPostDraftMustBeBool(t *testing.T) {
	p := Parse("x", "---\ndraft: \"true\"\n---\nbody")
	assert.False(t, p.Draft)
	assert.Equal(t, []string{}, p.Tags)
}
