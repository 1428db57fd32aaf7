// Package locale guesses a document's region, currency, and languages from
// raw text. Detection is deterministic: identical text always yields an
// identical result.
package locale

import (
	"log/slog"
	"sort"
	"strings"

	"github.com/vritti-ai/invoice-extractor/internal/lookup"
)

// Scoring weights. Confidence is accumulated weight divided by
// normalization, capped at 1.0.
const (
	keywordWeight        = 10
	patternWeight        = 15
	confidenceNormalizer = 50.0

	// Confidence reported for the fallback locale when the text matched
	// nothing at all.
	fallbackConfidence = 0.1
)

// Detection is the locale guess for one document. Produced once per request
// and consumed read-only by the amount and vendor extractors.
type Detection struct {
	Region             string   `json:"region"`
	Currency           string   `json:"currency"`
	RegionConfidence   float64  `json:"regionConfidence"`
	CurrencyConfidence float64  `json:"currencyConfidence"`
	Languages          []string `json:"languages,omitempty"`
}

type Detector struct {
	tables           *lookup.Tables
	fallbackRegion   string
	fallbackCurrency string
	logger           *slog.Logger

	regionCodes   []string
	currencyCodes []string
}

// NewDetector builds a detector over the shared lookup tables. The fallback
// locale applies when the text matches nothing at all.
func NewDetector(tables *lookup.Tables, fallbackRegion, fallbackCurrency string, logger *slog.Logger) *Detector {
	if logger == nil {
		logger = slog.Default()
	}
	if fallbackRegion == "" {
		fallbackRegion = "US"
	}
	if fallbackCurrency == "" {
		fallbackCurrency = "USD"
	}

	// Iterate codes in a fixed order so equal scores always resolve the
	// same way regardless of map iteration order.
	d := &Detector{
		tables:           tables,
		fallbackRegion:   fallbackRegion,
		fallbackCurrency: fallbackCurrency,
		logger:           logger,
	}
	for code := range tables.Regions {
		d.regionCodes = append(d.regionCodes, code)
	}
	sort.Strings(d.regionCodes)
	for code := range tables.Currencies {
		d.currencyCodes = append(d.currencyCodes, code)
	}
	sort.Strings(d.currencyCodes)
	return d
}

// Detect scores every known region and currency against the text and
// returns the best of each. An explicit currency indicator beats the
// detected region's default currency; with no currency evidence at all the
// region default wins.
func (d *Detector) Detect(text string) Detection {
	upper := strings.ToUpper(text)

	region, regionScore := d.scoreRegions(upper)
	currency, currencyScore := d.scoreCurrencies(upper)

	det := Detection{
		Region:             d.fallbackRegion,
		Currency:           d.fallbackCurrency,
		RegionConfidence:   fallbackConfidence,
		CurrencyConfidence: fallbackConfidence,
		Languages:          detectLanguages(upper),
	}
	if regionScore > 0 {
		det.Region = region
		det.RegionConfidence = capConfidence(float64(regionScore) / confidenceNormalizer)
	}
	if currencyScore > 0 {
		det.Currency = disambiguateYen(upper, currency)
		det.CurrencyConfidence = capConfidence(float64(currencyScore) / confidenceNormalizer)
	} else if regionScore > 0 {
		det.Currency = d.tables.DefaultCurrency(det.Region)
		det.CurrencyConfidence = det.RegionConfidence
	}

	d.logger.Debug("locale.detected",
		"region", det.Region, "currency", det.Currency,
		"region_confidence", det.RegionConfidence,
		"currency_confidence", det.CurrencyConfidence,
	)
	return det
}

func (d *Detector) scoreRegions(upper string) (string, int) {
	best, bestScore := "", 0
	for _, code := range d.regionCodes {
		r := d.tables.Regions[code]
		score := 0
		for _, kw := range r.Keywords {
			if strings.Contains(upper, strings.ToUpper(kw)) {
				score += keywordWeight
			}
		}
		for _, re := range d.tables.RegionPatterns(code) {
			if re.MatchString(upper) {
				score += patternWeight
			}
		}
		if score > bestScore {
			best, bestScore = code, score
		}
	}
	return best, bestScore
}

func (d *Detector) scoreCurrencies(upper string) (string, int) {
	best, bestScore := "", 0
	for _, code := range d.currencyCodes {
		c := d.tables.Currencies[code]
		score := 0
		for _, kw := range c.Keywords {
			if strings.Contains(upper, strings.ToUpper(kw)) {
				score += keywordWeight
			}
		}
		if score > bestScore {
			best, bestScore = code, score
		}
	}
	return best, bestScore
}

// disambiguateYen splits the shared ¥ symbol between JPY and CNY using
// surrounding vocabulary.
func disambiguateYen(upper, currency string) string {
	if currency != "JPY" && currency != "CNY" {
		return currency
	}
	if !strings.Contains(upper, "¥") {
		return currency
	}
	for _, ind := range []string{"JAPAN", "YEN", "株式会社", "TOKYO"} {
		if strings.Contains(upper, ind) {
			return "JPY"
		}
	}
	for _, ind := range []string{"CHINA", "YUAN", "人民币", "BEIJING"} {
		if strings.Contains(upper, ind) {
			return "CNY"
		}
	}
	return currency
}

func capConfidence(v float64) float64 {
	if v > 1.0 {
		return 1.0
	}
	return v
}
