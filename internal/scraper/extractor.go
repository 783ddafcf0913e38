package scraper

import (
	"fmt"
	"io"
	"iter"
	"net/url"
	"slices"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"jobmate/offer-watcher/internal/model"
	"jobmate/offer-watcher/pkg/logging"
)

const (
	listingGridSelector = `div[data-testid="listing-grid"]`
	cardSelector        = `div[data-cy="l-card"]`
)

// Extractor turns a results page into offers. The zero value is not usable;
// use NewExtractor.
type Extractor struct {
	rules FieldRules
	base  *url.URL
	log   *logging.Logger
}

// NewExtractor returns an Extractor using DefaultRules. A nil logger discards.
func NewExtractor(log *logging.Logger) *Extractor {
	if log == nil {
		log = logging.Nop()
	}
	base, _ := url.Parse(SiteOrigin)
	return &Extractor{rules: DefaultRules, base: base, log: log}
}

var defaultExtractor = NewExtractor(nil)

// ExtractOffers parses html with the default extractor.
func ExtractOffers(html string) iter.Seq[model.Offer] {
	return defaultExtractor.Extract(strings.NewReader(html))
}

// ParseOffers collects every offer of the page read from r.
func ParseOffers(r io.Reader) []model.Offer {
	return slices.Collect(defaultExtractor.Extract(r))
}

// Extract reads the page from r on first iteration and yields one offer per
// well-formed listing card, in page order. The sequence consumes r, so it
// yields nothing when ranged over a second time.
//
// A page without the listing grid yields nothing. A card without a title or
// link, or one whose parsing panics, is skipped on its own.
func (e *Extractor) Extract(r io.Reader) iter.Seq[model.Offer] {
	return func(yield func(model.Offer) bool) {
		doc, err := goquery.NewDocumentFromReader(r)
		if err != nil {
			e.log.Warn("parse listing page failed", "err", err)
			return
		}

		grid := doc.Find(listingGridSelector).First()
		if grid.Length() == 0 {
			e.log.Debug("listing grid not found")
			return
		}

		cards := grid.Find(cardSelector)
		for i := range cards.Length() {
			offer, err := e.parseCard(cards.Eq(i))
			if err != nil {
				e.log.Debug("card skipped", "index", i, "err", err)
				continue
			}
			if !yield(offer) {
				return
			}
		}
	}
}

func (e *Extractor) parseCard(card *goquery.Selection) (offer model.Offer, err error) {
	defer func() {
		if r := recover(); r != nil {
			offer, err = model.Offer{}, fmt.Errorf("card parse panic: %v", r)
		}
	}()

	title := strings.TrimSpace(card.Find("h4").First().Text())
	if title == "" {
		title = strings.TrimSpace(card.Find("h6").First().Text())
	}
	if title == "" {
		return model.Offer{}, fmt.Errorf("no title")
	}

	link, ok := e.firstLink(card)
	if !ok {
		return model.Offer{}, fmt.Errorf("no link")
	}

	fields := make(map[Field]string, 4)
	assigned := func(f Field) bool { _, ok := fields[f]; return ok }

	card.Find("div").Each(func(_ int, div *goquery.Selection) {
		if div.Find("svg").Length() == 0 {
			return
		}
		p := div.Find("p").First()
		if p.Length() == 0 {
			return
		}
		text := strings.TrimSpace(p.Text())
		if text == "" {
			return
		}
		if f, ok := e.rules.Classify(text, assigned); ok {
			fields[f] = text
		}
	})

	get := func(f Field) string {
		if v, ok := fields[f]; ok {
			return v
		}
		return model.NotAvailable
	}

	return model.Offer{
		ID:           link,
		Title:        title,
		Price:        get(FieldPrice),
		Location:     get(FieldLocation),
		ContractType: get(FieldContractType),
		WorkLoad:     get(FieldWorkLoad),
		URL:          link,
	}, nil
}

// firstLink returns the first http(s) href of the card as an absolute URL.
func (e *Extractor) firstLink(card *goquery.Selection) (string, bool) {
	var link string
	card.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href := strings.TrimSpace(a.AttrOr("href", ""))
		if href == "" {
			return true
		}
		ref, err := url.Parse(href)
		if err != nil {
			return true
		}
		abs := e.base.ResolveReference(ref)
		if abs.Scheme != "http" && abs.Scheme != "https" {
			return true
		}
		link = abs.String()
		return false
	})
	return link, link != ""
}
