package amount

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/vritti-ai/invoice-extractor/internal/lookup"
)

// Pattern priorities. Higher-priority templates name the total explicitly;
// the low ones are bare symbol/code sightings.
const (
	prioAmountDue   = 10
	prioPaymentDue  = 9
	prioGrandTotal  = 8
	prioTotalAmount = 8
	prioGrossAmount = 7
	prioBareTotal   = 5
	prioSymbol      = 4
	prioCode        = 3
)

type pattern struct {
	re       *regexp.Regexp
	priority int
	tag      string
}

// Numeral sub-patterns. Separators are resolved later by NormalizeNumeral,
// so both US and European grouping are accepted here.
const (
	numWithDecimals = `(\d{1,3}(?:[.,]\d{3})*(?:[.,]\d{1,2})?|\d+(?:[.,]\d{1,2})?)`
	numNoDecimals   = `(\d{1,3}(?:[.,]\d{3})*|\d+)`
)

// buildPatterns compiles the priority-ordered template list for every known
// currency. Templates run against uppercased text.
func buildPatterns(tables *lookup.Tables) map[string][]pattern {
	out := make(map[string][]pattern, len(tables.Currencies))

	codes := make([]string, 0, len(tables.Currencies))
	for code := range tables.Currencies {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	for _, code := range codes {
		c := tables.Currencies[code]
		sym := regexp.QuoteMeta(c.Symbol)
		num := numWithDecimals
		if c.DecimalPlaces == 0 {
			num = numNoDecimals
		}

		templates := []struct {
			priority int
			tag      string
			expr     string
		}{
			{prioAmountDue, "amount_due",
				fmt.Sprintf(`(?:TOTAL\s+AMOUNT\s+DUE|AMOUNT\s+DUE|TOTAL\s+DUE|BALANCE\s+DUE)[:\s]*%s?\s*%s`, sym, num)},
			{prioPaymentDue, "payment_due",
				fmt.Sprintf(`(?:THIS\s+AMOUNT\s+DUE|PAYMENT\s+DUE)[:\s]*%s?\s*%s`, sym, num)},
			{prioGrandTotal, "grand_total",
				fmt.Sprintf(`(?:GRAND\s+TOTAL|FINAL\s+TOTAL|ESTIMATE\s+TOTAL)[:\s]*%s?\s*%s`, sym, num)},
			{prioTotalAmount, "total_amount",
				fmt.Sprintf(`(?:TOTAL\s+AMOUNT|AMOUNT\s+TOTAL)[:\s]*%s?\s*%s`, sym, num)},
			{prioGrossAmount, "gross_amount",
				fmt.Sprintf(`(?:GROSS\s+AMOUNT|NET\s+AMOUNT|BETRAG\s+BRUTTO|MONTANT\s+TTC|IMPORTE\s+TOTAL)[:\s]*(?:INCL\.?\s*(?:VAT|TAX|MWST|TVA|IVA))?[:\s]*%s?\s*%s`, sym, num)},
			{prioBareTotal, "total",
				fmt.Sprintf(`TOTAL[:\s]*%s?\s*%s`, sym, num)},
			{prioSymbol, "symbol_amount",
				fmt.Sprintf(`%s\s*%s`, sym, num)},
			{prioCode, "code_amount",
				fmt.Sprintf(`%s\s*%s`, code, num)},
		}

		ps := make([]pattern, 0, len(templates))
		for _, t := range templates {
			ps = append(ps, pattern{
				re:       regexp.MustCompile(t.expr),
				priority: t.priority,
				tag:      t.tag,
			})
		}
		out[code] = ps
	}
	return out
}

// highValueKeywords mark amounts the document itself calls the total due.
var highValueKeywords = []string{
	"TOTAL AMOUNT DUE", "AMOUNT DUE", "TOTAL DUE", "BALANCE DUE",
	"GRAND TOTAL", "FINAL TOTAL", "GROSS AMOUNT", "PAYMENT DUE",
}
