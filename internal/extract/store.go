package extract

import (
	"regexp"
	"strings"
)

// storeRejectKeywords are total/tax/boilerplate words that never form part
// of a store name line.
var storeRejectKeywords = []string{
	"合計", "小計", "お会計", "消費税", "税込", "税抜", "内税", "外税",
	"領収書", "レシート", "明細", "お釣り", "お預り", "お預かり",
	"ポイント", "クーポン", "Total", "TOTAL", "Subtotal", "SUBTOTAL", "Tax", "TAX",
}

// honorificPrefixes mark addressee lines, not merchant names.
var honorificPrefixes = []string{"様", "御中", "殿", "お客様"}

var (
	storeDigitPrefixPattern    = regexp.MustCompile(`^\d+[)%）]`)
	storeCurrencyPrefixPattern = regexp.MustCompile(`^[¥￥$]`)
	storeDatePattern           = regexp.MustCompile(`\d{4}[/\-年]\d{1,2}[/\-月]\d{1,2}|\d{1,2}/\d{1,2}/\d{2,4}`)
	storeTimePattern           = regexp.MustCompile(`\d{1,2}:\d{2}`)
	leadingDigitPattern        = regexp.MustCompile(`^\d`)
)

// ExtractStoreName picks the merchant name out of the top of the receipt.
// The first 20 lines are scanned and lines that look like totals, prices,
// dates, times or single characters are rejected; the first survivor is the
// candidate unless it is an addressee line. Falls back to the first
// plausible line among the top five, or the empty string.
func ExtractStoreName(text string) string {
	lines := splitLines(text)

	limit := 20
	if len(lines) < limit {
		limit = len(lines)
	}
	for i := 0; i < limit; i++ {
		line := lines[i]
		if line == "" || len([]rune(line)) == 1 {
			continue
		}
		if containsAny(line, storeRejectKeywords) {
			continue
		}
		if storeDigitPrefixPattern.MatchString(line) || storeCurrencyPrefixPattern.MatchString(line) {
			continue
		}
		if storeDatePattern.MatchString(line) || storeTimePattern.MatchString(line) {
			continue
		}
		// An addressee line is not a merchant name; keep scanning.
		if hasAnyPrefix(line, honorificPrefixes) {
			continue
		}
		return line
	}

	limit = 5
	if len(lines) < limit {
		limit = len(lines)
	}
	for i := 0; i < limit; i++ {
		line := lines[i]
		if line == "" || leadingDigitPattern.MatchString(line) {
			continue
		}
		if len([]rune(line)) > 2 {
			return line
		}
	}
	return ""
}

func splitLines(text string) []string {
	raw := strings.Split(text, "\n")
	lines := make([]string, len(raw))
	for i, l := range raw {
		lines[i] = strings.TrimSpace(l)
	}
	return lines
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
