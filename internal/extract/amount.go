package extract

import (
	"regexp"
	"strconv"
	"strings"
)

// totalLabelPatterns match an amount following a grand-total style label.
// Several subtotal-like labels can appear before the true total, so all
// labeled matches are collected and the maximum wins: on a receipt the grand
// total is typically the largest labeled number.
var totalLabelPatterns = []*regexp.Regexp{
	regexp.MustCompile(`合計[:：\s]*[¥￥]?\s*([0-9][0-9,]*)`),
	regexp.MustCompile(`お会計[:：\s]*[¥￥]?\s*([0-9][0-9,]*)`),
	regexp.MustCompile(`お支払(?:い)?(?:金額)?[:：\s]*[¥￥]?\s*([0-9][0-9,]*)`),
	regexp.MustCompile(`(?i)total[:：\s]*[¥￥$]?\s*([0-9][0-9,]*)`),
	regexp.MustCompile(`計[:：\s]*[¥￥]?\s*([0-9][0-9,]*)`),
}

// currencyPatterns match any currency-marked number, label or not.
var currencyPatterns = []*regexp.Regexp{
	regexp.MustCompile(`[¥￥]\s*([0-9][0-9,]*)`),
	regexp.MustCompile(`([0-9][0-9,]*)\s*円`),
}

var digitRunPattern = regexp.MustCompile(`[0-9]+`)

// ExtractTotal finds the total amount in yen. It tries labeled totals first
// (max labeled match wins), then any currency-marked number, then any digit
// run in the text, always keeping the largest candidate. Returns 0 when
// nothing numeric is found. Deliberately recall-over-precision; downstream
// confidence scores and review absorb the false positives.
func ExtractTotal(text string) int {
	if max := maxSubmatch(totalLabelPatterns, text); max > 0 {
		return max
	}
	if max := maxSubmatch(currencyPatterns, text); max > 0 {
		return max
	}

	max := 0
	for _, m := range digitRunPattern.FindAllString(text, -1) {
		if v, err := strconv.Atoi(m); err == nil && v > max {
			max = v
		}
	}
	return max
}

func maxSubmatch(patterns []*regexp.Regexp, text string) int {
	max := 0
	for _, re := range patterns {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			v, err := strconv.Atoi(strings.ReplaceAll(m[1], ",", ""))
			if err == nil && v > max {
				max = v
			}
		}
	}
	return max
}
