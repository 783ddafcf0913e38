package scraper_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"jobmate/offer-watcher/internal/scraper"
)

func TestDefaultRules_Classify(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		want   scraper.Field
		wantOK bool
	}{
		{"price", "3500 zł", scraper.FieldPrice, true},
		{"price range", "4 000 - 5 500 zł / mies. brutto", scraper.FieldPrice, true},
		{"contract umowa", "Umowa o pracę", scraper.FieldContractType, true},
		{"contract b2b", "Kontrakt B2B", scraper.FieldContractType, true},
		{"self employed", "Samozatrudnienie", scraper.FieldContractType, true},
		{"full time", "Pełny etat", scraper.FieldWorkLoad, true},
		{"side job", "Praca dodatkowa", scraper.FieldWorkLoad, true},
		{"city and district", "Kraków, Stare Miasto", scraper.FieldLocation, true},
		{"city", "Warszawa", scraper.FieldLocation, true},
		{"relative date", "Odświeżono Dzisiaj o 10:15", 0, false},
		{"lower case", "warszawa", 0, false},
		{"too long", "Bardzo długa nazwa miejscowości która nie jest miastem", 0, false},
		{"price wins over contract", "Umowa o pracę 5000 zł", scraper.FieldPrice, true},
		{"contract wins over work load", "Umowa o pracę, pełny etat", scraper.FieldContractType, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := scraper.DefaultRules.Classify(tt.text, nil)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got, "got %s", got)
			}
		})
	}
}

func TestDefaultRules_LocationFirstWins(t *testing.T) {
	assigned := func(f scraper.Field) bool { return f == scraper.FieldLocation }

	_, ok := scraper.DefaultRules.Classify("Gdańsk", assigned)
	assert.False(t, ok, "second place name must not be classified once location is set")

	f, ok := scraper.DefaultRules.Classify("3500 zł", assigned)
	assert.True(t, ok)
	assert.Equal(t, scraper.FieldPrice, f)
}

func TestField_String(t *testing.T) {
	assert.Equal(t, "price", scraper.FieldPrice.String())
	assert.Equal(t, "location", scraper.FieldLocation.String())
	assert.Equal(t, "unknown", scraper.Field(42).String())
}
