// Package scraper implements the offer pipeline against the source site:
// query URL construction, page fetching, listing-card extraction and the
// poll cycle that delivers each new offer once.
package scraper

import (
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"jobmate/offer-watcher/internal/model"
)

const (
	// SiteOrigin is prepended to relative links and to every built URL.
	SiteOrigin = "https://www.olx.pl"

	// DefaultCategory is used when criteria carry no category.
	DefaultCategory = "praca"

	orderNewestFirst = "search[order]=created_at:desc"
)

// BuildURL encodes criteria into the source site's search URL:
//
//	https://www.olx.pl/{category}/{location}/q-{keyword}/?search[filter_enum_{key}][{i}]={code}&...&search[order]=created_at:desc
//
// Filters and codes are emitted in the order given, so equal criteria always
// produce byte-identical URLs. Empty fields are not rejected.
func BuildURL(c model.SearchCriteria) string {
	category := c.Category
	if category == "" {
		category = DefaultCategory
	}

	var b strings.Builder
	b.WriteString(SiteOrigin)
	b.WriteString("/")
	b.WriteString(category)
	b.WriteString("/")
	b.WriteString(slug(c.Location))
	b.WriteString("/q-")
	b.WriteString(slug(c.Keyword))
	b.WriteString("/")

	sep := "?"
	for _, sel := range c.Filters {
		for i, code := range sel.Codes {
			b.WriteString(sep)
			b.WriteString("search[filter_enum_")
			b.WriteString(sel.Key)
			b.WriteString("][")
			b.WriteString(strconv.Itoa(i))
			b.WriteString("]=")
			b.WriteString(code)
			sep = "&"
		}
	}

	b.WriteString(sep)
	b.WriteString(orderNewestFirst)
	return b.String()
}

// slug lower-cases free text and turns spaces into hyphens.
func slug(s string) string {
	// cases.Caser keeps state; one per call.
	lower := cases.Lower(language.Polish).String(s)
	return strings.ReplaceAll(lower, " ", "-")
}
