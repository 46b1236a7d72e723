// Package web serves the server-rendered blog pages.
package web

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/dfryer1193/artblog/blog/application"
	"github.com/dfryer1193/artblog/blog/domain"
	"github.com/dfryer1193/artblog/blog/query"
	"github.com/dfryer1193/artblog/internal/middleware"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageNames = []string{"list", "post", "error"}

// Site is the chrome shared by every page.
type Site struct {
	Title string
	URL   string
}

type Pages struct {
	posts *application.PostService
	site  Site
	tmpl  map[string]*template.Template
}

type listPage struct {
	Site     Site
	Result   *application.ListResult
	Criteria query.Criteria
}

type postPage struct {
	Site Site
	View *application.PostView
	Date string
}

type errorPage struct {
	Site    Site
	Status  int
	Heading string
	Message string
}

// NewPages parses the embedded templates and registers the page routes.
func NewPages(router gin.IRouter, posts *application.PostService, site Site) (*Pages, error) {
	p := &Pages{posts: posts, site: site, tmpl: make(map[string]*template.Template, len(pageNames))}

	funcs := template.FuncMap{
		"postPath":   PostPath,
		"tagPath":    TagPath,
		"date":       formatDate,
		"filterLink": filterLink,
		"clearLink":  clearLink,
		"html":       func(s string) template.HTML { return template.HTML(s) },
	}
	for _, name := range pageNames {
		t, err := template.New("layout.html").Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s template: %w", name, err)
		}
		p.tmpl[name] = t
	}

	router.GET("/", func(c *gin.Context) { c.Redirect(http.StatusFound, "/blog/") })
	router.GET("/blog/*path", p.Serve)
	return p, nil
}

// Serve resolves the catch-all path and renders the matching page.
func (p *Pages) Serve(c *gin.Context) {
	route := Resolve(c.Request.URL.EscapedPath())
	switch route.Kind {
	case RouteList:
		p.list(c)
	case RoutePost:
		p.post(c, route.Slug)
	case RouteTag:
		c.Redirect(http.StatusFound, TagRedirect(route.Tag))
	default:
		p.notFound(c, "Page not found.")
	}
}

func (p *Pages) list(c *gin.Context) {
	criteria := query.ParseCriteria(c.Request.URL.Query())
	result, err := p.posts.List(c.Request.Context(), criteria)
	if err != nil {
		p.storeError(c, err)
		return
	}
	p.render(c, http.StatusOK, "list", listPage{Site: p.site, Result: result, Criteria: criteria})
}

func (p *Pages) post(c *gin.Context, slug string) {
	view, err := p.posts.Get(c.Request.Context(), slug)
	if errors.Is(err, domain.ErrNotFound) {
		p.notFound(c, "Post not found.")
		return
	}
	if err != nil {
		p.storeError(c, err)
		return
	}
	p.render(c, http.StatusOK, "post", postPage{Site: p.site, View: view, Date: formatDate(view.Post.PubDate)})
}

func (p *Pages) notFound(c *gin.Context, message string) {
	p.render(c, http.StatusNotFound, "error", errorPage{Site: p.site, Status: http.StatusNotFound, Heading: "404", Message: message})
}

func (p *Pages) storeError(c *gin.Context, err error) {
	log.Error().Err(err).Str("requestID", middleware.GetRequestID(c)).Str("path", c.Request.URL.Path).Msg("Failed to load page")
	p.render(c, http.StatusBadGateway, "error", errorPage{
		Site:    p.site,
		Status:  http.StatusBadGateway,
		Heading: "Unavailable",
		Message: "The posts could not be loaded. Try again in a moment.",
	})
}

func (p *Pages) render(c *gin.Context, status int, name string, data any) {
	var buf bytes.Buffer
	if err := p.tmpl[name].ExecuteTemplate(&buf, "layout.html", data); err != nil {
		log.Error().Err(err).Str("template", name).Msg("Failed to render page")
		c.String(http.StatusInternalServerError, "internal server error")
		return
	}
	c.Data(status, "text/html; charset=utf-8", buf.Bytes())
}

// formatDate renders a publication date like "March 1, 2024", or the raw value
// when it does not parse.
func formatDate(value string) string {
	t, err := domain.ParseDate(value)
	if err != nil {
		return value
	}
	return t.Format("January 2, 2006")
}

// filterLink toggles one list criterion: selecting the active value clears it.
func filterLink(c query.Criteria, key, value string) string {
	switch key {
	case query.ParamYear:
		c.Year = toggle(c.Year, value)
	case query.ParamTag:
		c.Tag = toggle(c.Tag, value)
	case query.ParamCategory:
		c.Category = toggle(c.Category, value)
	}
	return listLink(c)
}

func clearLink(c query.Criteria) string {
	return listLink(query.Criteria{Query: c.Query})
}

func listLink(c query.Criteria) string {
	if encoded := c.Encode(); encoded != "" {
		return "/blog/?" + encoded
	}
	return "/blog/"
}

func toggle(current, value string) string {
	if current == value {
		return ""
	}
	return value
}
