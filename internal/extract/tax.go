package extract

import (
	"regexp"
	"strconv"
	"strings"
)

// taxLabelPatterns match an explicit labeled tax percentage.
var taxLabelPatterns = []*regexp.Regexp{
	regexp.MustCompile(`税率[:：\s]*(\d{1,2}(?:\.\d+)?)\s*[%％]`),
	regexp.MustCompile(`消費税[^0-9]{0,8}(\d{1,2}(?:\.\d+)?)\s*[%％]`),
	regexp.MustCompile(`内税[^0-9]{0,8}(\d{1,2}(?:\.\d+)?)\s*[%％]`),
	regexp.MustCompile(`外税[^0-9]{0,8}(\d{1,2}(?:\.\d+)?)\s*[%％]`),
	regexp.MustCompile(`(?i)tax[:：\s]*(\d{1,2}(?:\.\d+)?)\s*[%％]`),
	regexp.MustCompile(`(?i)rate[:：\s]*(\d{1,2}(?:\.\d+)?)\s*[%％]`),
}

// ExtractTaxRate finds the consumption tax rate as a percentage. Labeled
// rates win; otherwise the reduced/standard Japanese rates are inferred from
// bare "8%"/"10%" mentions, and tax-inclusive wording falls back to the
// standard 10%. Returns 0 when nothing is found; callers must treat 0 as
// "unknown", not "zero-rated".
func ExtractTaxRate(text string) float64 {
	for _, re := range taxLabelPatterns {
		if m := re.FindStringSubmatch(text); m != nil {
			if v, err := strconv.ParseFloat(m[1], 64); err == nil {
				return v
			}
		}
	}

	switch {
	case strings.Contains(text, "8%") || strings.Contains(text, "8％") || strings.Contains(text, "0.08"):
		return 8
	case strings.Contains(text, "10%") || strings.Contains(text, "10％") || strings.Contains(text, "0.10"):
		return 10
	case strings.Contains(text, "内税") || strings.Contains(text, "税込"):
		return 10
	}
	return 0
}
