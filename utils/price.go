package utils

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	symbolPriceRe = regexp.MustCompile(`([$£€])([\d,]+\.?\d*)`)
	barePriceRe   = regexp.MustCompile(`^[\d,]+\.?\d*$`)
)

// NormalizePrice turns a free-form price into "<symbol><amount>.<2 digits>".
// A bare number is taken as USD. Anything else yields ok == false; a missing
// price is a normal state, so this never returns an error.
func NormalizePrice(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}

	if m := symbolPriceRe.FindStringSubmatch(raw); m != nil {
		amount, ok := parseGrouped(m[2])
		if !ok {
			return "", false
		}
		return fmt.Sprintf("%s%.2f", m[1], amount), true
	}

	if barePriceRe.MatchString(raw) {
		amount, ok := parseGrouped(raw)
		if !ok {
			return "", false
		}
		return fmt.Sprintf("$%.2f", amount), true
	}

	return "", false
}

func parseGrouped(s string) (float64, bool) {
	s = strings.ReplaceAll(s, ",", "")
	if s == "" || s == "." {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// CurrencySymbol maps ISO codes to the symbols the badge can render. Empty means USD.
func CurrencySymbol(code string) (string, bool) {
	switch strings.ToUpper(strings.TrimSpace(code)) {
	case "", "USD":
		return "$", true
	case "GBP":
		return "£", true
	case "EUR":
		return "€", true
	}
	return "", false
}

// FormatAmount renders a structured amount (as found in JSON blobs and meta tags)
// with its currency. Currencies without a symbol produce "<amount> <CODE>", which
// NormalizePrice deliberately rejects.
func FormatAmount(amount float64, currency string) string {
	if sym, ok := CurrencySymbol(currency); ok {
		return fmt.Sprintf("%s%.2f", sym, amount)
	}
	return fmt.Sprintf("%.2f %s", amount, strings.ToUpper(currency))
}

// FormatCents is FormatAmount for integer minor units.
func FormatCents(cents float64, currency string) string {
	return FormatAmount(cents/100, currency)
}

// ParseAmount keeps only digits and dots and parses what is left.
// Used to rank price-looking elements, not to display them.
func ParseAmount(text string) (float64, bool) {
	var b strings.Builder
	for _, r := range text {
		if (r >= '0' && r <= '9') || r == '.' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return 0, false
	}
	v, err := strconv.ParseFloat(b.String(), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// HasCurrencySymbol reports whether text mentions $, £ or €.
func HasCurrencySymbol(text string) bool {
	return strings.ContainsAny(text, "$£€")
}

// AnyToFloat accepts the numeric shapes JSON blobs use for prices: numbers and numeric strings.
func AnyToFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(strings.ReplaceAll(n, ",", "")), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}
