// Package lookup holds the static currency, region, and business-entity
// tables. They are loaded once at start-up, validated against JSON schemas,
// and shared read-only across concurrent extraction calls.
package lookup

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

//go:embed data/currencies.json
var currenciesJSON []byte

//go:embed data/regions.json
var regionsJSON []byte

//go:embed data/business.json
var businessJSON []byte

// Currency describes one supported currency: display symbol, decimal-place
// count, and the plausible [MinRange, MaxRange] used for amount scoring.
type Currency struct {
	Symbol        string   `json:"symbol"`
	Name          string   `json:"name"`
	DecimalPlaces int      `json:"decimalPlaces"`
	MinRange      float64  `json:"minRange"`
	MaxRange      float64  `json:"maxRange"`
	Keywords      []string `json:"keywords"`
}

// Region describes the detection vocabulary and formatting conventions of
// one region. TypicalMin/TypicalMax, when set, mark the region's commonly
// seen invoice-total range and feed a small scoring bonus.
type Region struct {
	DefaultCurrency string   `json:"defaultCurrency"`
	Keywords        []string `json:"keywords"`
	RegexPatterns   []string `json:"regexPatterns"`
	DecimalSep      string   `json:"decimalSep"`
	ThousandsSep    string   `json:"thousandsSep"`
	SymbolPosition  string   `json:"symbolPosition"`
	TypicalMin      float64  `json:"typicalMin"`
	TypicalMax      float64  `json:"typicalMax"`
}

// Business holds the legal-entity suffixes recognized for one region.
type Business struct {
	Suffixes []string `json:"suffixes"`
}

// GenericRegion keys the cross-region business suffixes in the business
// table.
const GenericRegion = "GENERIC"

// Tables is the full set of lookup data. Construct with Load; never mutate
// after construction.
type Tables struct {
	Currencies map[string]Currency
	Regions    map[string]Region
	Business   map[string]Business

	regionPatterns map[string][]*regexp.Regexp
}

// Load parses and validates the embedded data files. It fails if any table
// is malformed or if a region references an unknown default currency.
func Load() (*Tables, error) {
	if err := validateAgainstSchema("currencies.json", currencySchema, currenciesJSON); err != nil {
		return nil, err
	}
	if err := validateAgainstSchema("regions.json", regionSchema, regionsJSON); err != nil {
		return nil, err
	}
	if err := validateAgainstSchema("business.json", businessSchema, businessJSON); err != nil {
		return nil, err
	}

	t := &Tables{}
	if err := json.Unmarshal(currenciesJSON, &t.Currencies); err != nil {
		return nil, fmt.Errorf("parse currencies: %w", err)
	}
	if err := json.Unmarshal(regionsJSON, &t.Regions); err != nil {
		return nil, fmt.Errorf("parse regions: %w", err)
	}
	if err := json.Unmarshal(businessJSON, &t.Business); err != nil {
		return nil, fmt.Errorf("parse business indicators: %w", err)
	}

	// Invariant: every region's default currency must exist in the
	// currency table.
	for code, r := range t.Regions {
		if _, ok := t.Currencies[r.DefaultCurrency]; !ok {
			return nil, fmt.Errorf("region %s references unknown currency %s", code, r.DefaultCurrency)
		}
	}

	t.regionPatterns = make(map[string][]*regexp.Regexp, len(t.Regions))
	for code, r := range t.Regions {
		compiled := make([]*regexp.Regexp, 0, len(r.RegexPatterns))
		for _, p := range r.RegexPatterns {
			re, err := regexp.Compile(p)
			if err != nil {
				return nil, fmt.Errorf("region %s pattern %q: %w", code, p, err)
			}
			compiled = append(compiled, re)
		}
		t.regionPatterns[code] = compiled
	}
	return t, nil
}

// Currency returns the config for a currency code.
func (t *Tables) Currency(code string) (Currency, bool) {
	c, ok := t.Currencies[strings.ToUpper(code)]
	return c, ok
}

// Range returns the plausible [min, max] range for a currency, falling back
// to USD's range for unknown codes.
func (t *Tables) Range(code string) (float64, float64) {
	if c, ok := t.Currency(code); ok {
		return c.MinRange, c.MaxRange
	}
	usd := t.Currencies["USD"]
	return usd.MinRange, usd.MaxRange
}

// Region returns the config for a region code.
func (t *Tables) Region(code string) (Region, bool) {
	r, ok := t.Regions[strings.ToUpper(code)]
	return r, ok
}

// DefaultCurrency returns a region's default currency, or USD for unknown
// regions.
func (t *Tables) DefaultCurrency(region string) string {
	if r, ok := t.Region(region); ok {
		return r.DefaultCurrency
	}
	return "USD"
}

// RegionPatterns returns the compiled tax-ID/postal-code patterns for a
// region.
func (t *Tables) RegionPatterns(region string) []*regexp.Regexp {
	return t.regionPatterns[strings.ToUpper(region)]
}

// BusinessSuffixes returns the legal-entity suffixes for a region merged
// with the generic cross-region set, deduplicated, region-specific first.
func (t *Tables) BusinessSuffixes(region string) []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(suffixes []string) {
		for _, s := range suffixes {
			u := strings.ToUpper(s)
			if _, dup := seen[u]; dup {
				continue
			}
			seen[u] = struct{}{}
			out = append(out, u)
		}
	}
	if b, ok := t.Business[strings.ToUpper(region)]; ok {
		add(b.Suffixes)
	}
	add(t.Business[GenericRegion].Suffixes)
	return out
}

// FormatAmount renders a value using the currency's decimal places and the
// region's separator and symbol-position conventions.
func (t *Tables) FormatAmount(value float64, code, region string) string {
	c, ok := t.Currency(code)
	if !ok {
		c = t.Currencies["USD"]
	}
	decSep, thouSep, pos := ".", ",", "before"
	if r, rok := t.Region(region); rok {
		decSep, thouSep, pos = r.DecimalSep, r.ThousandsSep, r.SymbolPosition
	}

	num := strconv.FormatFloat(value, 'f', c.DecimalPlaces, 64)
	intPart, fracPart, hasFrac := strings.Cut(num, ".")
	intPart = groupThousands(intPart, thouSep)
	if hasFrac {
		num = intPart + decSep + fracPart
	} else {
		num = intPart
	}

	if pos == "after" {
		return num + " " + c.Symbol
	}
	return c.Symbol + num
}

func groupThousands(digits, sep string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteString(sep)
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
