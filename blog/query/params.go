package query

import (
	"net/url"
	"strings"
)

const (
	ParamQuery    = "q"
	ParamYear     = "year"
	ParamTag      = "tag"
	ParamCategory = "cat"
)

// ParseCriteria reads list criteria from URL query parameters.
func ParseCriteria(values url.Values) Criteria {
	return Criteria{
		Query:    values.Get(ParamQuery),
		Year:     values.Get(ParamYear),
		Tag:      values.Get(ParamTag),
		Category: values.Get(ParamCategory),
	}
}

// Values is the inverse of ParseCriteria. Empty criteria are left out and the free
// text query is trimmed.
func (c Criteria) Values() url.Values {
	values := url.Values{}
	if q := strings.TrimSpace(c.Query); q != "" {
		values.Set(ParamQuery, q)
	}
	if c.Year != "" {
		values.Set(ParamYear, c.Year)
	}
	if c.Tag != "" {
		values.Set(ParamTag, c.Tag)
	}
	if c.Category != "" {
		values.Set(ParamCategory, c.Category)
	}
	return values
}

// Encode returns the canonical query string for c, without a leading "?".
func (c Criteria) Encode() string {
	return c.Values().Encode()
}
