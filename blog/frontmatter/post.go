package frontmatter

import (
	"github.com/dfryer1193/artblog/blog/domain"
)

const (
	KeyTitle       = "title"
	KeyDescription = "description"
	KeyPubDate     = "pubDate"
	KeyTags        = "tags"
	KeyDraft       = "draft"
)

var knownKeys = map[string]struct{}{
	KeyTitle:       {},
	KeyDescription: {},
	KeyPubDate:     {},
	KeyTags:        {},
	KeyDraft:       {},
}

// ToPost maps decoded attributes onto the post schema. Unknown keys land in Extra.
// A draft value that is not the boolean true counts as published.
func ToPost(id string, attrs Attributes, body string) *domain.Post {
	p := &domain.Post{
		ID:          id,
		Title:       attrs.String(KeyTitle),
		Description: attrs.String(KeyDescription),
		PubDate:     attrs.String(KeyPubDate),
		Tags:        attrs.List(KeyTags),
		Draft:       attrs.Bool(KeyDraft),
		Body:        body,
	}
	if p.Tags == nil {
		p.Tags = []string{}
	}

	for _, attr := range attrs {
		if _, ok := knownKeys[attr.Key]; ok {
			continue
		}
		p.Extra = append(p.Extra, domain.Field{Key: attr.Key, Value: attr.Value})
	}

	return p
}

// FromPost builds the header for p: the schema fields first, then any extras in
// their original order.
func FromPost(p *domain.Post) Attributes {
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}

	attrs := Attributes{
		{Key: KeyTitle, Value: p.Title},
		{Key: KeyDescription, Value: p.Description},
		{Key: KeyPubDate, Value: p.PubDate},
		{Key: KeyTags, Value: tags},
		{Key: KeyDraft, Value: p.Draft},
	}
	for _, f := range p.Extra {
		attrs.Set(f.Key, f.Value)
	}

	return attrs
}

// Parse decodes a whole post file.
func Parse(id string, raw string) *domain.Post {
	attrs, body := Decode(raw)
	return ToPost(id, attrs, body)
}

// Format encodes a whole post file.
func Format(p *domain.Post) string {
	return Encode(FromPost(p), p.Body)
}
