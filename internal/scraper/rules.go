package scraper

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Field is an offer attribute recovered from an icon/text pair of a card.
type Field int

const (
	FieldPrice Field = iota
	FieldContractType
	FieldWorkLoad
	FieldLocation
)

func (f Field) String() string {
	switch f {
	case FieldPrice:
		return "price"
	case FieldContractType:
		return "contractType"
	case FieldWorkLoad:
		return "workLoad"
	case FieldLocation:
		return "location"
	}
	return "unknown"
}

// FieldRule assigns Field to a text fragment when Match accepts it.
// A FirstWins rule is skipped once its field already holds a value.
type FieldRule struct {
	Field     Field
	Match     func(text string) bool
	FirstWins bool
}

// FieldRules are evaluated in order; the first matching rule decides.
type FieldRules []FieldRule

const maxLocationRunes = 40

var (
	contractKeywords = []string{"Umowa", "B2B", "Kontrakt", "Samozatrudnienie"}
	workLoadKeywords = []string{"etat", "Praca"}
)

// DefaultRules classify the detail lines of an olx.pl job card.
var DefaultRules = FieldRules{
	{Field: FieldPrice, Match: func(s string) bool { return strings.Contains(s, "zł") }},
	{Field: FieldContractType, Match: containsAny(contractKeywords)},
	{Field: FieldWorkLoad, Match: containsAny(workLoadKeywords)},
	{Field: FieldLocation, Match: looksLikePlace, FirstWins: true},
}

// Classify returns the field for text. assigned reports fields already set
// on the current card and may be nil.
func (r FieldRules) Classify(text string, assigned func(Field) bool) (Field, bool) {
	for _, rule := range r {
		if rule.FirstWins && assigned != nil && assigned(rule.Field) {
			continue
		}
		if rule.Match(text) {
			return rule.Field, true
		}
	}
	return 0, false
}

func containsAny(words []string) func(string) bool {
	return func(s string) bool {
		for _, w := range words {
			if strings.Contains(s, w) {
				return true
			}
		}
		return false
	}
}

// looksLikePlace accepts "Kraków, Stare Miasto" or a short capitalised name
// that is not a relative date such as "Odświeżono dzisiaj o 10:15".
func looksLikePlace(s string) bool {
	if strings.Contains(s, ",") {
		return true
	}
	first, _ := utf8.DecodeRuneInString(s)
	return unicode.IsUpper(first) &&
		utf8.RuneCountInString(s) < maxLocationRunes &&
		!strings.Contains(strings.ToLower(s), "dzisiaj")
}
