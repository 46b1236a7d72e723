package api

import (
	"github.com/dfryer1193/artblog/blog/application"
	"github.com/dfryer1193/artblog/blog/content"
	"github.com/dfryer1193/artblog/blog/domain"
	"github.com/dfryer1193/artblog/blog/query"
)

type Post struct {
	Slug        string   `json:"slug"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	PubDate     string   `json:"pubDate"`
	Tags        []string `json:"tags"`
	Draft       bool     `json:"draft,omitempty"`
}

type PostDetail struct {
	Post
	HTML           string            `json:"html,omitempty"`
	TOC            []content.Heading `json:"toc,omitempty"`
	ReadingMinutes int               `json:"readingMinutes"`
	Related        []Post            `json:"related"`
	RenderError    string            `json:"renderError,omitempty"`
}

// AdminPost carries the raw body for the editor.
type AdminPost struct {
	Post
	Body    string `json:"body"`
	Version string `json:"version,omitempty"`
}

type PostList struct {
	Posts  []Post         `json:"posts"`
	Facets query.Facets   `json:"facets"`
	Query  string         `json:"query"`
	Filter query.Criteria `json:"filter"`
}

type PostRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	PubDate     string   `json:"pubDate"`
	Tags        []string `json:"tags"`
	Draft       *bool    `json:"draft"`
	Body        string   `json:"body"`
}

type ShiftRequest struct {
	Days int `json:"days"`
}

type LoginRequest struct {
	Token    string `json:"token"`
	Remember bool   `json:"remember"`
}

type ErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func FromDomain(p *domain.Post) Post {
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}
	return Post{
		Slug:        p.ID,
		Title:       p.Title,
		Description: p.Description,
		PubDate:     p.PubDate,
		Tags:        tags,
		Draft:       p.Draft,
	}
}

func FromDomainList(posts []*domain.Post) []Post {
	out := make([]Post, 0, len(posts))
	for _, p := range posts {
		out = append(out, FromDomain(p))
	}
	return out
}

func FromView(v *application.PostView) PostDetail {
	d := PostDetail{
		Post:           FromDomain(v.Post),
		HTML:           v.HTML,
		TOC:            v.TOC,
		ReadingMinutes: v.ReadingMinutes,
		Related:        FromDomainList(v.Related),
	}
	if v.RenderError != nil {
		d.RenderError = v.RenderError.Error()
	}
	return d
}

func FromListResult(r *application.ListResult) PostList {
	return PostList{
		Posts:  FromDomainList(r.Posts),
		Facets: r.Facets,
		Query:  r.Query,
		Filter: r.Criteria,
	}
}

func ToAdminPost(p *domain.Post) AdminPost {
	return AdminPost{Post: FromDomain(p), Body: p.Body, Version: p.Version}
}

func (r PostRequest) ToInput() application.PostInput {
	return application.PostInput{
		Title:       r.Title,
		Description: r.Description,
		PubDate:     r.PubDate,
		Tags:        application.ParseTags(r.Tags...),
		Draft:       r.Draft,
		Body:        r.Body,
	}
}
