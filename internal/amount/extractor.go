package amount

import (
	"log/slog"
	"math"
	"sort"
	"strings"

	"github.com/vritti-ai/invoice-extractor/internal/locale"
	"github.com/vritti-ai/invoice-extractor/internal/lookup"
)

// Scoring constants. Priority dominates; the bonuses reorder candidates
// within and just across priority bands.
const (
	primaryPriorityBoost = 5
	priorityMultiplier   = 100
	primaryBonus         = 200
	inRangeBonus         = 300
	sweetSpotBonus       = 150
	overMaxPenalty       = -500
	underMinPenalty      = -300
	decimalsBonus        = 150
	contextualBonus      = 400
	regionalRangeBonus   = 150

	dedupTolerance = 0.02
)

// secondaryCurrencies is the fixed set scanned when the primary currency
// produced no convincing candidate.
var secondaryCurrencies = []string{"AUD", "CAD", "EUR", "GBP", "INR", "JPY", "USD"}

// Candidate is a single scored amount reading.
type Candidate struct {
	Value             float64 `json:"value"`
	Currency          string  `json:"currency"`
	Formatted         string  `json:"formatted"`
	Score             int     `json:"score"`
	Pattern           string  `json:"pattern"`
	IsPrimaryCurrency bool    `json:"isPrimaryCurrency"`
}

// Extractor finds monetary totals in raw document text.
type Extractor struct {
	tables          *lookup.Tables
	logger          *slog.Logger
	secondaryCutoff int
	patterns        map[string][]pattern
}

// NewExtractor builds the per-currency pattern sets once up front.
func NewExtractor(tables *lookup.Tables, secondaryCutoff int, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{
		tables:          tables,
		logger:          logger,
		secondaryCutoff: secondaryCutoff,
		patterns:        buildPatterns(tables),
	}
}

// Extract returns amount candidates ranked by score, best first. The primary
// currency from the locale detection is scanned first; the secondary set is
// scanned only when the primary scan produced nothing above the cutoff.
func (e *Extractor) Extract(text string, det locale.Detection) []Candidate {
	upper := strings.ToUpper(text)
	primary := strings.ToUpper(det.Currency)

	candidates := e.scanCurrency(upper, primary, det, true)

	best := 0
	for _, c := range candidates {
		if c.Score > best {
			best = c.Score
		}
	}
	if best < e.secondaryCutoff {
		for _, code := range secondaryCurrencies {
			if code == primary {
				continue
			}
			candidates = append(candidates, e.scanCurrency(upper, code, det, false)...)
		}
	}

	candidates = dedupCandidates(candidates)
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})

	e.logger.Debug("amount.extracted",
		"primaryCurrency", primary,
		"candidates", len(candidates),
	)
	return candidates
}

func (e *Extractor) scanCurrency(upper, code string, det locale.Detection, isPrimary bool) []Candidate {
	ps, ok := e.patterns[code]
	if !ok {
		return nil
	}
	cur, _ := e.tables.Currency(code)

	var out []Candidate
	for _, p := range ps {
		for _, m := range p.re.FindAllStringSubmatchIndex(upper, -1) {
			if len(m) < 4 || m[2] < 0 {
				continue
			}
			raw := upper[m[2]:m[3]]
			value, ok := ParseNumeral(raw)
			if !ok {
				continue
			}
			score := e.score(upper, value, code, cur, p, det, isPrimary, m[0])
			out = append(out, Candidate{
				Value:             value,
				Currency:          code,
				Formatted:         e.tables.FormatAmount(value, code, det.Region),
				Score:             score,
				Pattern:           p.tag,
				IsPrimaryCurrency: isPrimary,
			})
		}
	}
	return out
}

func (e *Extractor) score(upper string, value float64, code string, cur lookup.Currency, p pattern, det locale.Detection, isPrimary bool, matchStart int) int {
	priority := p.priority
	if isPrimary {
		priority += primaryPriorityBoost
	}
	score := priority * priorityMultiplier
	if isPrimary {
		score += primaryBonus
	}

	min, max := cur.MinRange, cur.MaxRange
	switch {
	case value >= min && value <= max:
		score += inRangeBonus
		if value >= min*10 && value <= max*0.1 {
			score += sweetSpotBonus
		}
	case value > max*10:
		score += overMaxPenalty
	case value < min*0.1:
		score += underMinPenalty
	}

	if cur.DecimalPlaces > 0 && value != math.Trunc(value) {
		score += decimalsBonus
	}

	if hasContextualKeyword(upper, matchStart) {
		score += contextualBonus
	}

	if region, ok := e.tables.Region(det.Region); ok &&
		strings.EqualFold(region.DefaultCurrency, code) &&
		region.TypicalMin > 0 &&
		value >= region.TypicalMin && value <= region.TypicalMax {
		score += regionalRangeBonus
	}

	return score
}

// hasContextualKeyword checks whether a high-value keyword sits close before
// the match. 80 characters covers a label plus intervening whitespace on the
// same or previous line.
func hasContextualKeyword(upper string, matchStart int) bool {
	lo := matchStart - 80
	if lo < 0 {
		lo = 0
	}
	window := upper[lo:matchStart]
	for _, kw := range highValueKeywords {
		if strings.Contains(window, kw) {
			return true
		}
	}
	return false
}

// dedupCandidates merges same-currency values within 2% relative difference,
// keeping the higher score at the earlier candidate's position.
func dedupCandidates(in []Candidate) []Candidate {
	out := make([]Candidate, 0, len(in))
	for _, c := range in {
		merged := false
		for i := range out {
			if out[i].Currency != c.Currency {
				continue
			}
			larger := math.Max(math.Abs(out[i].Value), math.Abs(c.Value))
			if larger == 0 || math.Abs(out[i].Value-c.Value) <= larger*dedupTolerance {
				if c.Score > out[i].Score {
					out[i] = c
				}
				merged = true
				break
			}
		}
		if !merged {
			out = append(out, c)
		}
	}
	return out
}
