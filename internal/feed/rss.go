// Package feed publishes the RSS 2.0 feed of published posts.
package feed

import (
	"context"
	"encoding/xml"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/dfryer1193/artblog/blog/domain"
	"github.com/dfryer1193/artblog/internal/middleware"
)

const (
	DefaultDescription = "A tech & art blog"
	untitled           = "Untitled"
)

// Source lists the posts to syndicate. Drafts must already be excluded.
type Source interface {
	Feed(ctx context.Context) ([]*domain.Post, error)
}

type Channel struct {
	Title       string
	Description string
	SiteURL     string
}

type RSS struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel RSSChannel `xml:"channel"`
}

type RSSChannel struct {
	Title       string    `xml:"title"`
	Link        string    `xml:"link"`
	Description string    `xml:"description"`
	Items       []RSSItem `xml:"item"`
}

type RSSItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	GUID        string `xml:"guid"`
	Description string `xml:"description,omitempty"`
	PubDate     string `xml:"pubDate"`
}

type datedPost struct {
	post *domain.Post
	date time.Time
}

// Build assembles the feed. A post without a valid publication date is dated now.
func Build(posts []*domain.Post, ch Channel, now time.Time) *RSS {
	dated := make([]datedPost, 0, len(posts))
	for _, p := range posts {
		if p.Draft {
			continue
		}
		t, ok := p.PubTime()
		if !ok {
			t = now
		}
		dated = append(dated, datedPost{post: p, date: t})
	}
	slices.SortStableFunc(dated, func(a, b datedPost) int {
		return b.date.Compare(a.date)
	})

	site := strings.TrimSuffix(ch.SiteURL, "/")
	description := ch.Description
	if description == "" {
		description = DefaultDescription
	}

	items := make([]RSSItem, 0, len(dated))
	for _, d := range dated {
		title := d.post.Title
		if title == "" {
			title = untitled
		}
		link := site + "/blog/posts/" + d.post.ID + "/"
		items = append(items, RSSItem{
			Title:       title,
			Link:        link,
			GUID:        link,
			Description: d.post.Description,
			PubDate:     d.date.UTC().Format(time.RFC1123Z),
		})
	}

	return &RSS{
		Version: "2.0",
		Channel: RSSChannel{
			Title:       ch.Title,
			Link:        site + "/",
			Description: description,
			Items:       items,
		},
	}
}

// Handler serves the feed. A store failure yields an empty feed rather than an error.
func Handler(source Source, ch Channel) gin.HandlerFunc {
	return func(c *gin.Context) {
		posts, err := source.Feed(c.Request.Context())
		if err != nil {
			log.Error().Err(err).Str("requestID", middleware.GetRequestID(c)).Msg("Failed to load posts for feed")
			posts = nil
		}

		out, err := xml.MarshalIndent(Build(posts, ch, time.Now()), "", "  ")
		if err != nil {
			log.Error().Err(err).Msg("Failed to encode feed")
			c.String(http.StatusInternalServerError, "internal server error")
			return
		}
		c.Data(http.StatusOK, "application/rss+xml; charset=utf-8", append([]byte(xml.Header), out...))
	}
}
