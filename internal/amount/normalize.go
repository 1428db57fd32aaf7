package amount

import (
	"strconv"
	"strings"
)

// NormalizeNumeral rewrites a matched numeral substring into a form
// strconv.ParseFloat accepts, resolving US ("1,234.56") versus European
// ("1.234,56") separator conventions:
//
//   - when both ',' and '.' appear, whichever appears last is the decimal
//     separator and the other is grouping;
//   - a lone ',' is a decimal separator only when at most two digits follow
//     it, otherwise it is grouping;
//   - a lone '.' followed by exactly three digits in a groupable position is
//     treated as grouping (European "1.234"), otherwise it stays a decimal
//     point.
func NormalizeNumeral(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' || r == ',' || r == '.' {
			b.WriteRune(r)
		}
	}
	s := b.String()
	if s == "" {
		return ""
	}

	lastComma := strings.LastIndex(s, ",")
	lastDot := strings.LastIndex(s, ".")

	switch {
	case lastComma >= 0 && lastDot >= 0:
		if lastComma > lastDot {
			// European: 1.234,56
			s = strings.ReplaceAll(s, ".", "")
			s = strings.ReplaceAll(s, ",", ".")
		} else {
			// US: 1,234.56
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastComma >= 0:
		if strings.Count(s, ",") == 1 && len(s)-lastComma-1 <= 2 {
			// Decimal comma: 1234,56
			s = strings.ReplaceAll(s, ",", ".")
		} else {
			// Grouping: 1,234 or 1,234,567
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastDot >= 0:
		if isDotGrouping(s) {
			s = strings.ReplaceAll(s, ".", "")
		}
	}
	return s
}

// isDotGrouping reports whether every dot in s sits in a thousands-grouping
// position (groups of exactly three digits after the first).
func isDotGrouping(s string) bool {
	parts := strings.Split(s, ".")
	if len(parts) < 2 || len(parts[0]) == 0 || len(parts[0]) > 3 {
		return false
	}
	for _, p := range parts[1:] {
		if len(p) != 3 {
			return false
		}
	}
	return true
}

// ParseNumeral normalizes and parses a numeral substring. The bool result
// is false for anything unparseable; callers drop such candidates silently.
func ParseNumeral(raw string) (float64, bool) {
	s := NormalizeNumeral(raw)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
