package locale

import (
	"sort"
	"strings"
)

// Language vocabulary: a language is reported when at least two of its
// indicators appear in the text.
var languageIndicators = map[string][]string{
	"en": {"INVOICE", "TOTAL", "AMOUNT", "DUE", "DATE", "COMPANY"},
	"de": {"RECHNUNG", "BETRAG", "DATUM", "GMBH", "MWST"},
	"fr": {"FACTURE", "MONTANT", "SOCIETE", "TVA"},
	"es": {"FACTURA", "IMPORTE", "FECHA", "SOCIEDAD"},
	"it": {"FATTURA", "IMPORTO", "SOCIETA", "IVA"},
	"pt": {"FATURA", "VALOR", "SOCIEDADE"},
	"nl": {"FACTUUR", "BEDRAG", "DATUM", "BTW"},
	"zh": {"发票", "金额", "日期", "公司"},
	"ja": {"請求書", "金額", "日付", "会社"},
	"ru": {"СЧЕТ", "СУММА", "ДАТА", "НДС"},
}

const languageMinHits = 2

// detectLanguages reports every language with enough indicator hits, sorted
// for determinism. English is the default when nothing matches.
func detectLanguages(upper string) []string {
	var langs []string
	for lang, indicators := range languageIndicators {
		hits := 0
		for _, ind := range indicators {
			if strings.Contains(upper, ind) {
				hits++
			}
		}
		if hits >= languageMinHits {
			langs = append(langs, lang)
		}
	}
	if len(langs) == 0 {
		return []string{"en"}
	}
	sort.Strings(langs)
	return langs
}
