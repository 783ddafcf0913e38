// Package catalog holds the static table of search filters offered by the
// source site: a display label per filter key and an ordered list of
// (label, option code) pairs. A Catalog is built once at startup and only
// read afterwards.
package catalog

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"jobmate/offer-watcher/internal/model"
)

// Option is one selectable value of a filter.
type Option struct {
	Label string `yaml:"label"`
	Code  string `yaml:"code"`
}

// Filter is one filter key with its options in display order.
type Filter struct {
	Key     string   `yaml:"key"`
	Label   string   `yaml:"label"`
	Options []Option `yaml:"options"`
}

// Catalog is an immutable, ordered filter table.
type Catalog struct {
	filters []Filter
	byKey   map[string]int
}

type file struct {
	Filters []Filter `yaml:"filters"`
}

// New copies filters into a Catalog. Duplicate keys or codes are rejected.
func New(filters []Filter) (*Catalog, error) {
	c := &Catalog{
		filters: make([]Filter, 0, len(filters)),
		byKey:   make(map[string]int, len(filters)),
	}
	for _, f := range filters {
		if f.Key == "" {
			return nil, fmt.Errorf("catalog: filter with empty key")
		}
		if _, dup := c.byKey[f.Key]; dup {
			return nil, fmt.Errorf("catalog: duplicate filter key %q", f.Key)
		}
		seen := make(map[string]bool, len(f.Options))
		opts := make([]Option, 0, len(f.Options))
		for _, o := range f.Options {
			if o.Code == "" {
				return nil, fmt.Errorf("catalog: filter %q has an option without code", f.Key)
			}
			if seen[o.Code] {
				return nil, fmt.Errorf("catalog: filter %q repeats code %q", f.Key, o.Code)
			}
			seen[o.Code] = true
			opts = append(opts, o)
		}
		c.byKey[f.Key] = len(c.filters)
		c.filters = append(c.filters, Filter{Key: f.Key, Label: f.Label, Options: opts})
	}
	return c, nil
}

// LoadFile reads a YAML catalog:
//
//	filters:
//	  - key: type
//	    label: Wymiar pracy
//	    options:
//	      - {label: Pełny etat, code: fulltime}
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	return New(f.Filters)
}

// Default is the built-in job filter table of olx.pl.
func Default() *Catalog {
	c, err := New([]Filter{
		{Key: "agreement", Label: "Typ umowy", Options: []Option{
			{"Umowa o pracę", "part"},
			{"Umowa zlecenie", "zlecenie"},
			{"Umowa o dzieło", "contract"},
			{"Praktyka / Staż", "practice"},
		}},
		{Key: "type", Label: "Wymiar pracy", Options: []Option{
			{"Pełny etat", "fulltime"},
			{"Część etatu", "parttime"},
			{"Praca dodatkowa", "halftime"},
		}},
		{Key: "availability", Label: "Dostępność", Options: []Option{
			{"Praca zmianowa", "shift_work"},
			{"Praca w weekendy", "weekends_work"},
			{"Elastyczny czas pracy", "flexible_work"},
		}},
		{Key: "experience", Label: "Doświadczenie", Options: []Option{
			{"Wymagane doświadczenie", "exp_yes"},
			{"Bez doświadczenia", "exp_no"},
		}},
	})
	if err != nil {
		panic(err)
	}
	return c
}

// Filters returns a copy of the table in display order.
func (c *Catalog) Filters() []Filter {
	out := make([]Filter, len(c.filters))
	for i, f := range c.filters {
		out[i] = Filter{Key: f.Key, Label: f.Label, Options: append([]Option(nil), f.Options...)}
	}
	return out
}

// Lookup returns the filter for key.
func (c *Catalog) Lookup(key string) (Filter, bool) {
	i, ok := c.byKey[key]
	if !ok {
		return Filter{}, false
	}
	return c.filters[i], true
}

// OptionLabel returns the display label of code under key, or code itself
// when either is unknown.
func (c *Catalog) OptionLabel(key, code string) string {
	f, ok := c.Lookup(key)
	if !ok {
		return code
	}
	for _, o := range f.Options {
		if o.Code == code {
			return o.Label
		}
	}
	return code
}

// Validate reports the first unknown or repeated selection in filters.
// Each key and each code within a key may be selected once, so the built
// URL indexes every code exactly once.
func (c *Catalog) Validate(filters model.Filters) error {
	keys := make(map[string]bool, len(filters))
	for _, sel := range filters {
		f, ok := c.Lookup(sel.Key)
		if !ok {
			return fmt.Errorf("unknown filter %q", sel.Key)
		}
		if keys[sel.Key] {
			return fmt.Errorf("filter %q selected more than once", sel.Key)
		}
		keys[sel.Key] = true

		codes := make(map[string]bool, len(sel.Codes))
	next:
		for _, code := range sel.Codes {
			if codes[code] {
				return fmt.Errorf("option %q repeated for filter %q", code, sel.Key)
			}
			codes[code] = true
			for _, o := range f.Options {
				if o.Code == code {
					continue next
				}
			}
			return fmt.Errorf("unknown option %q for filter %q", code, sel.Key)
		}
	}
	return nil
}

// Describe renders filters for humans, e.g.
// "Typ umowy: Umowa o pracę, Umowa zlecenie | Wymiar pracy: Pełny etat".
// Unknown keys and codes are shown raw.
func (c *Catalog) Describe(filters model.Filters) string {
	if len(filters) == 0 {
		return "No filters"
	}
	parts := make([]string, 0, len(filters))
	for _, sel := range filters {
		labels := make([]string, 0, len(sel.Codes))
		for _, code := range sel.Codes {
			labels = append(labels, c.OptionLabel(sel.Key, code))
		}
		name := sel.Key
		if f, ok := c.Lookup(sel.Key); ok && f.Label != "" {
			name = f.Label
		}
		parts = append(parts, name+": "+strings.Join(labels, ", "))
	}
	return strings.Join(parts, " | ")
}
