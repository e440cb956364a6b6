package classify

import (
	"fmt"

	"github.com/keiri-app/receiptscan/internal/extract"
)

// DuplicateCheckResult is a transient verdict against caller-supplied
// history; nothing is stored.
type DuplicateCheckResult struct {
	IsDuplicate bool    `json:"isDuplicate"`
	Similarity  float64 `json:"similarity"`
	Reason      string  `json:"reason,omitempty"`
}

const (
	duplicateDateWeight   = 0.4
	duplicateStoreWeight  = 0.3
	duplicateAmountWeight = 0.3

	duplicateStoreSimilarity = 0.8
	duplicateAmountTolerance = 10 // yen
	duplicateThreshold       = 0.9
)

// DetectDuplicate checks the record against prior records. For each prior,
// three independent signals (exact date match, store-name similarity above
// 0.8, amount within 10 yen) are combined into a weighted score; the scan
// stops at the first prior reaching the threshold — one confirmed duplicate
// is enough.
func DetectDuplicate(rec *extract.ReceiptRecord, history []*extract.ReceiptRecord) DuplicateCheckResult {
	for _, prior := range history {
		var score float64
		if rec.Date == prior.Date {
			score += duplicateDateWeight
		}
		if StringSimilarity(rec.StoreName, prior.StoreName) > duplicateStoreSimilarity {
			score += duplicateStoreWeight
		}
		if absInt(rec.TotalAmount-prior.TotalAmount) < duplicateAmountTolerance {
			score += duplicateAmountWeight
		}

		if score >= duplicateThreshold {
			return DuplicateCheckResult{
				IsDuplicate: true,
				Similarity:  score,
				Reason:      fmt.Sprintf("%s の %s (%d円) と重複の可能性", prior.Date, prior.StoreName, prior.TotalAmount),
			}
		}
	}
	return DuplicateCheckResult{}
}

// StringSimilarity is normalized Levenshtein similarity:
// 1 - editDistance/max(len1, len2), over runes. Two empty strings are
// identical (1); one empty string is maximally distant (0).
func StringSimilarity(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 && len(rb) == 0 {
		return 1
	}
	max := len(ra)
	if len(rb) > max {
		max = len(rb)
	}
	return 1 - float64(levenshtein(ra, rb))/float64(max)
}

// levenshtein computes edit distance with a two-row dynamic program.
func levenshtein(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = minInt(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

func minInt(vals ...int) int {
	m := vals[0]
	for _, v := range vals[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
