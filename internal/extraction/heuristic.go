package extraction

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Regex extractors are deterministic and side-effect-free.
var (
	idPattern    = regexp.MustCompile(`\b([A-Z]{2,}-?\d{4,}|\d{6,})\b`)
	emailPattern = regexp.MustCompile(`\b[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}\b`)
	ibanPattern  = regexp.MustCompile(`\b[A-Z]{2}\d{2}[ ]?[A-Z0-9]{1,30}(?:[ ][A-Z0-9]{1,4}){0,7}\b`)
	moneyPattern = regexp.MustCompile(`([$€£]|\b[A-Z]{3})\s?(\d{1,3}(?:[,.\s]\d{3})*(?:[.,]\d{2})?)`)

	isoDatePattern = regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})\b`)
	slashDatePattern = regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})/(\d{4})\b`)
)

var currencySymbols = map[string]string{
	"$": "USD",
	"€": "EUR",
	"£": "GBP",
}

// knownCurrencyCodes limits the ISO-code alternative of moneyPattern to
// real currencies, so an arbitrary uppercase 3-letter run before a number
// ("GDP 2023") never produces a phantom amount.
var knownCurrencyCodes = map[string]bool{
	"USD": true, "EUR": true, "GBP": true, "CHF": true, "CZK": true,
	"PLN": true, "SEK": true, "NOK": true, "DKK": true, "HUF": true,
	"RON": true, "BGN": true, "JPY": true, "CNY": true, "CAD": true,
	"AUD": true, "NZD": true, "INR": true, "BRL": true, "MXN": true,
}

// ExtractIDs returns identifier candidates: two-or-more uppercase letters
// followed by an optional hyphen and 4+ digits, or bare digit runs of
// length >= 6.
func ExtractIDs(text string) []string {
	return dedupe(idPattern.FindAllString(text, -1))
}

// ExtractEmails returns RFC-5322-lite email matches.
func ExtractEmails(text string) []string {
	return dedupe(emailPattern.FindAllString(text, -1))
}

// ExtractIBANs returns IBAN-shaped tokens: country code, two check digits,
// up to 30 alphanumerics, optionally spaced.
func ExtractIBANs(text string) []string {
	matches := ibanPattern.FindAllString(text, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		compact := strings.ReplaceAll(m, " ", "")
		if len(compact) >= 15 && len(compact) <= 34 {
			out = append(out, compact)
		}
	}
	return dedupe(out)
}

// ExtractMoney returns (currency, amount_cents) pairs for currency-symbol
// or ISO-code prefixed numeric amounts. Codes are matched case-sensitively
// at a word boundary and checked against knownCurrencyCodes, so prose like
// "report 2023" or "top 5" never yields an amount.
func ExtractMoney(text string) []MoneyAmount {
	matches := moneyPattern.FindAllStringSubmatch(text, -1)
	out := make([]MoneyAmount, 0, len(matches))
	for _, m := range matches {
		symbolOrCode, numeric := m[1], m[2]
		currency, ok := currencySymbols[symbolOrCode]
		if !ok {
			if !knownCurrencyCodes[symbolOrCode] {
				continue
			}
			currency = symbolOrCode
		}
		cents, err := parseAmountCents(numeric)
		if err != nil {
			continue
		}
		out = append(out, MoneyAmount{Currency: currency, AmountCents: cents})
	}
	return out
}

// parseAmountCents normalizes "1,234.56" / "1.234,56" / "1234" style
// numerics to integer minor-units, assuming the last separator (if any)
// before exactly two digits is the decimal point.
func parseAmountCents(numeric string) (int64, error) {
	cleaned := numeric
	lastDot := strings.LastIndexAny(cleaned, ".,")
	if lastDot != -1 && len(cleaned)-lastDot-1 == 2 {
		intPart := removeSeparators(cleaned[:lastDot])
		fracPart := cleaned[lastDot+1:]
		whole, err := strconv.ParseInt(intPart, 10, 64)
		if err != nil {
			return 0, err
		}
		frac, err := strconv.ParseInt(fracPart, 10, 64)
		if err != nil {
			return 0, err
		}
		return whole*100 + frac, nil
	}
	whole, err := strconv.ParseInt(removeSeparators(cleaned), 10, 64)
	if err != nil {
		return 0, err
	}
	return whole * 100, nil
}

func removeSeparators(s string) string {
	return strings.NewReplacer(",", "", ".", "", " ", "").Replace(s)
}

// ExtractDates returns ISO-8601 calendar dates (YYYY-MM-DD) parsed from
// ISO, DD/MM/YYYY, and MM/DD/YYYY forms. Slash dates use a locale
// heuristic: if the first numeric field exceeds 12, it must be the day.
func ExtractDates(text string) []string {
	out := make([]string, 0)
	for _, m := range isoDatePattern.FindAllStringSubmatch(text, -1) {
		out = append(out, fmt.Sprintf("%s-%s-%s", m[1], m[2], m[3]))
	}
	for _, m := range slashDatePattern.FindAllStringSubmatch(text, -1) {
		first, _ := strconv.Atoi(m[1])
		second, _ := strconv.Atoi(m[2])
		year := m[3]
		day, month := second, first
		if first > 12 {
			day, month = first, second
		}
		if month < 1 || month > 12 || day < 1 || day > 31 {
			continue
		}
		out = append(out, fmt.Sprintf("%s-%02d-%02d", year, month, day))
	}
	return dedupe(out)
}

// ExtractAll runs every regex extractor over text. LLM-backed entities and
// keywords are left empty; callers combine this with a SemanticExtractor
// call when one is configured.
func ExtractAll(text string) Result {
	return Result{
		IDs:    ExtractIDs(text),
		Emails: ExtractEmails(text),
		IBANs:  ExtractIBANs(text),
		Money:  ExtractMoney(text),
		Dates:  ExtractDates(text),
	}
}

func dedupe(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}
