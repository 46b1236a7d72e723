package web

import (
	"net/url"
	"strings"
)

type RouteKind int

const (
	RouteNotFound RouteKind = iota
	RouteList
	RoutePost
	RouteTag
)

// Route is a resolved /blog/ path.
type Route struct {
	Kind RouteKind
	Slug string
	Tag  string
}

// Resolve maps an escaped request path under /blog/ to a page. Only
// /blog/posts/<slug>/ and /blog/tags/<tag>/ are known below the list; the
// trailing slash is optional and the segment is URL-decoded.
func Resolve(escapedPath string) Route {
	rest, ok := strings.CutPrefix(escapedPath, "/blog")
	if !ok {
		return Route{Kind: RouteNotFound}
	}
	if rest == "" || rest == "/" {
		return Route{Kind: RouteList}
	}

	rest = strings.TrimSuffix(strings.TrimPrefix(rest, "/"), "/")
	parts := strings.Split(rest, "/")
	if len(parts) != 2 || parts[1] == "" {
		return Route{Kind: RouteNotFound}
	}

	segment, err := url.PathUnescape(parts[1])
	if err != nil || segment == "" {
		return Route{Kind: RouteNotFound}
	}

	switch parts[0] {
	case "posts":
		return Route{Kind: RoutePost, Slug: segment}
	case "tags":
		return Route{Kind: RouteTag, Tag: segment}
	default:
		return Route{Kind: RouteNotFound}
	}
}

// TagRedirect is where a tag page sends the reader.
func TagRedirect(tag string) string {
	return "/blog/?tag=" + url.QueryEscape(tag)
}

// PostPath is the canonical detail path for a slug.
func PostPath(slug string) string {
	return "/blog/posts/" + url.PathEscape(slug) + "/"
}

// TagPath is the canonical tag path.
func TagPath(tag string) string {
	return "/blog/tags/" + url.PathEscape(tag) + "/"
}
