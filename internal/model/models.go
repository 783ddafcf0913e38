// Package model defines shared data structures for the offer watcher.
package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// NotAvailable is the value of every offer field the extractor could not classify.
const NotAvailable = "N/A"

// SearchCriteria is what a saved search asks the source site for.
// Filters keep caller order so the built URL is stable.
type SearchCriteria struct {
	Location string
	Keyword  string
	Category string
	Filters  Filters
}

// FilterSelection is the ordered list of option codes chosen for one filter key.
type FilterSelection struct {
	Key   string
	Codes []string
}

// Filters is an ordered filter set. Its JSON form is the object
// {"key": ["code", ...]} stored in searches.filters; decoding keeps document order.
type Filters []FilterSelection

// MarshalJSON writes the object form, keys in slice order.
func (f Filters) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, sel := range f {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(sel.Key)
		if err != nil {
			return nil, err
		}
		codes := sel.Codes
		if codes == nil {
			codes = []string{}
		}
		v, err := json.Marshal(codes)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON accepts {"key": ["a","b"]} and the older {"key": "a"} form.
// A key may appear only once.
func (f *Filters) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*f = nil
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("filters: expected object, got %v", tok)
	}

	out := Filters{}
	seen := make(map[string]bool)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := tok.(string)
		if seen[key] {
			return fmt.Errorf("filters: duplicate key %q", key)
		}
		seen[key] = true

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("filters[%s]: %w", key, err)
		}

		var codes []string
		if err := json.Unmarshal(raw, &codes); err != nil {
			var single string
			if err2 := json.Unmarshal(raw, &single); err2 != nil {
				return fmt.Errorf("filters[%s]: want string or list of strings", key)
			}
			codes = []string{single}
		}
		out = append(out, FilterSelection{Key: key, Codes: codes})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*f = out
	return nil
}

// ParseFilters decodes the stored JSON form. Empty input means no filters.
func ParseFilters(s string) (Filters, error) {
	if s == "" {
		return nil, nil
	}
	var f Filters
	if err := json.Unmarshal([]byte(s), &f); err != nil {
		return nil, err
	}
	return f, nil
}

// Search mirrors a searches row: one saved subscription.
type Search struct {
	ID          int64
	UserID      int64
	ChannelID   int64
	URL         string
	City        string
	Query       string
	Category    string
	FiltersJSON string
	LastChecked time.Time
}

// Offer is one listing card extracted from a results page.
// ID is the absolute detail URL and doubles as the dedup key.
type Offer struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Price        string `json:"price"`
	Location     string `json:"location"`
	ContractType string `json:"contractType"`
	WorkLoad     string `json:"workLoad"`
	URL          string `json:"url"`
}

// LedgerEntry mirrors an offers row.
type LedgerEntry struct {
	OfferID     string
	SearchID    int64
	Title       string
	Price       string
	URL         string
	FirstSeenAt time.Time
}

// NewOfferEvent is what the worker hands to notification sinks.
type NewOfferEvent struct {
	SearchID  int64  `json:"searchId"`
	UserID    int64  `json:"userId"`
	ChannelID int64  `json:"channelId"`
	Query     string `json:"query"`
	Offer     Offer  `json:"offer"`
}
