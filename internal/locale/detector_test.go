package locale

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vritti-ai/invoice-extractor/internal/lookup"
)

func newTestDetector(t *testing.T) *Detector {
	t.Helper()
	tables, err := lookup.Load()
	require.NoError(t, err)
	return NewDetector(tables, "US", "USD", nil)
}

func TestDetectGermanInvoice(t *testing.T) {
	d := newTestDetector(t)

	det := d.Detect("Muster GMBH\nRechnung Nr. 4711\nBetrag inkl. MWST: 1.234,56 EUR")
	assert.Equal(t, "DE", det.Region)
	assert.Equal(t, "EUR", det.Currency)
	assert.Greater(t, det.RegionConfidence, 0.0)
	assert.Contains(t, det.Languages, "de")
}

func TestDetectIsDeterministic(t *testing.T) {
	d := newTestDetector(t)
	text := "ACME LLC\nINVOICE\nTOTAL AMOUNT DUE: $1,234.56\nNew York, NY 10001"

	first := d.Detect(text)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, d.Detect(text))
	}
}

func TestExplicitCurrencyOverridesRegionDefault(t *testing.T) {
	d := newTestDetector(t)

	// A German document invoicing in pounds: GBP evidence beats the DE
	// default of EUR.
	det := d.Detect("Beispiel GMBH, Berlin, Deutschland. MWST ausgewiesen. Gesamt: 100,00 GBP STERLING POUND")
	assert.Equal(t, "DE", det.Region)
	assert.Equal(t, "GBP", det.Currency)
}

func TestNoMatchFallsBack(t *testing.T) {
	d := newTestDetector(t)

	det := d.Detect("lorem ipsum dolor sit amet")
	assert.Equal(t, "US", det.Region)
	assert.Equal(t, "USD", det.Currency)
	assert.InDelta(t, 0.1, det.RegionConfidence, 1e-9)
	assert.InDelta(t, 0.1, det.CurrencyConfidence, 1e-9)
}

func TestRegionDefaultCurrencyWhenNoExplicitCurrency(t *testing.T) {
	d := newTestDetector(t)

	det := d.Detect("FACTURE\nSIRET 12345678901234\nSARL Boulangerie, Paris, France")
	assert.Equal(t, "FR", det.Region)
	assert.Equal(t, "EUR", det.Currency, "region default currency applies without currency evidence")
}

func TestYenDisambiguation(t *testing.T) {
	d := newTestDetector(t)

	tests := []struct {
		name string
		text string
		want string
	}{
		{"japanese context", "株式会社 Example, TOKYO. ¥11,000", "JPY"},
		{"chinese context", "Example CO LTD, BEIJING, CHINA. YUAN ¥700", "CNY"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			det := d.Detect(tt.text)
			assert.Equal(t, tt.want, det.Currency)
		})
	}
}

func TestConfidenceCappedAtOne(t *testing.T) {
	d := newTestDetector(t)

	// Pile on enough US indicators to exceed the normalization constant.
	det := d.Detect("USA UNITED STATES ZIP CODE LLC INC CORP DOLLAR USD 90210 CA 90210")
	assert.Equal(t, 1.0, det.RegionConfidence)
}
