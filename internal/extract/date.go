package extract

import (
	"fmt"
	"regexp"
	"strconv"
)

// dateOrder says which capture group holds which date part. Group-to-field
// mapping is decided by pattern identity, not generic group position.
type dateOrder int

const (
	orderYMD dateOrder = iota // groups: year, month, day
	orderMDY                  // groups: month, day, year
)

type datePattern struct {
	re        *regexp.Regexp
	order     dateOrder
	shortYear bool // two-digit year, assumed 20XX
}

// datePatterns are tried in order; the first match that yields a valid
// calendar date wins. Four-digit-year shapes come first so a two-digit
// pattern cannot eat a prefix of a full year.
var datePatterns = []datePattern{
	{re: regexp.MustCompile(`(\d{4})年(\d{1,2})月(\d{1,2})日`), order: orderYMD},
	{re: regexp.MustCompile(`(\d{4})[/\-.](\d{1,2})[/\-.](\d{1,2})`), order: orderYMD},
	{re: regexp.MustCompile(`(\d{1,2})月(\d{1,2})日\s*(\d{4})年`), order: orderMDY},
	{re: regexp.MustCompile(`(\d{1,2})/(\d{1,2})/(\d{4})`), order: orderMDY},
	{re: regexp.MustCompile(`(\d{2})年(\d{1,2})月(\d{1,2})日`), order: orderYMD, shortYear: true},
	{re: regexp.MustCompile(`(\d{1,2})/(\d{1,2})/(\d{2})`), order: orderMDY, shortYear: true},
	{re: regexp.MustCompile(`(?i)date[:：]?\s*(\d{4})[/\-.](\d{1,2})[/\-.](\d{1,2})`), order: orderYMD},
	{re: regexp.MustCompile(`(?i)date[:：]?\s*(\d{1,2})[/\-.](\d{1,2})[/\-.](\d{4})`), order: orderMDY},
	// Loose fallback: any three digit runs separated by non-digits
	{re: regexp.MustCompile(`(\d{4})\D+(\d{1,2})\D+(\d{1,2})`), order: orderYMD},
}

// ExtractDate finds the transaction date and normalizes it to YYYY-MM-DD.
// Returns the empty string when no pattern yields a valid date.
func ExtractDate(text string) string {
	for _, p := range datePatterns {
		m := p.re.FindStringSubmatch(text)
		if m == nil {
			continue
		}

		var year, month, day int
		switch p.order {
		case orderYMD:
			year, _ = strconv.Atoi(m[1])
			month, _ = strconv.Atoi(m[2])
			day, _ = strconv.Atoi(m[3])
		case orderMDY:
			month, _ = strconv.Atoi(m[1])
			day, _ = strconv.Atoi(m[2])
			year, _ = strconv.Atoi(m[3])
		}
		if p.shortYear {
			year += 2000
		}

		if month < 1 || month > 12 || day < 1 || day > 31 {
			continue
		}
		return fmt.Sprintf("%04d-%02d-%02d", year, month, day)
	}
	return ""
}
