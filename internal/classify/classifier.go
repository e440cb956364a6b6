package classify

import (
	"fmt"
	"strings"

	"github.com/keiri-app/receiptscan/internal/extract"
)

// Result is the outcome of classifying one receipt.
type Result struct {
	Category   Category `json:"category"`
	Confidence float64  `json:"confidence"`
	Reasoning  string   `json:"reasoning"`
}

// AccountSuggestion is a ledger account title plus review warnings. The
// warnings are independent additive conditions, several can apply at once.
type AccountSuggestion struct {
	AccountTitle string   `json:"accountTitle"`
	Warnings     []string `json:"warnings,omitempty"`
}

// Classifier scores receipts against an injected taxonomy. The taxonomy is
// treated as immutable; entry order decides ties.
type Classifier struct {
	taxonomy []Category
	fallback Category
}

// New creates a Classifier over the given taxonomy. The fallback for
// score-zero receipts is the taxonomy's non-deductible personal category, or
// the last entry when none is marked as such.
func New(taxonomy []Category) *Classifier {
	c := &Classifier{taxonomy: taxonomy}
	c.fallback = taxonomy[len(taxonomy)-1]
	for _, cat := range taxonomy {
		if cat.ID == fallbackCategoryID {
			c.fallback = cat
			break
		}
	}
	return c
}

// Scoring weights: a keyword hit in the store name is the strongest signal,
// a hit anywhere in the OCR text is weaker, and a line item whose guessed
// category overlaps the taxonomy category name is weakest.
const (
	storeNameScore = 10
	rawTextScore   = 5
	lineItemScore  = 3
)

// Classify picks the best-scoring category for the record. A zero score
// falls back to the personal/non-deductible category; that is the designed
// default, not an error. Confidence is min(score/20, 1).
func (c *Classifier) Classify(rec *extract.ReceiptRecord) Result {
	storeName := strings.ToLower(rec.StoreName)
	rawText := strings.ToLower(rec.RawText)

	var best Category
	bestScore := 0
	var bestReasons []string

	for _, cat := range c.taxonomy {
		score := 0
		var reasons []string
		for _, kw := range cat.Keywords {
			kwLower := strings.ToLower(kw)
			if storeName != "" && strings.Contains(storeName, kwLower) {
				score += storeNameScore
				reasons = append(reasons, fmt.Sprintf("店舗名に「%s」", kw))
			}
			if rawText != "" && strings.Contains(rawText, kwLower) {
				score += rawTextScore
				reasons = append(reasons, fmt.Sprintf("本文に「%s」", kw))
			}
		}
		for _, item := range rec.Items {
			if item.Category != "" && strings.Contains(cat.Name, item.Category) {
				score += lineItemScore
				reasons = append(reasons, fmt.Sprintf("品目「%s」(%s)", item.Name, item.Category))
			}
		}
		// Ties keep the first-seen category; taxonomy order is significant.
		if score > bestScore {
			best = cat
			bestScore = score
			bestReasons = reasons
		}
	}

	if bestScore == 0 {
		return Result{
			Category:   c.fallback,
			Confidence: 0,
			Reasoning:  "一致するキーワードなし",
		}
	}

	confidence := float64(bestScore) / 20
	if confidence > 1 {
		confidence = 1
	}
	return Result{
		Category:   best,
		Confidence: confidence,
		Reasoning:  strings.Join(bestReasons, "、"),
	}
}

// entertainmentAccountTitle triggers the stricter hospitality checks.
const entertainmentAccountTitle = "接待交際費"

// SuggestAccountTitle layers review warnings on top of a classification.
func (c *Classifier) SuggestAccountTitle(rec *extract.ReceiptRecord, result Result) AccountSuggestion {
	s := AccountSuggestion{AccountTitle: result.Category.AccountTitle}

	if rec.TotalAmount > 10000 {
		s.Warnings = append(s.Warnings, "1万円を超える支出です。領収書を保管してください。")
	}
	if rec.TotalAmount > 30000 {
		s.Warnings = append(s.Warnings, "3万円を超える支出です。内容の詳細な説明が必要です。")
	}
	if result.Category.AccountTitle == entertainmentAccountTitle {
		s.Warnings = append(s.Warnings, "接待交際費には参加者名と目的の記録が必要です。")
		if rec.TotalAmount > 5000 {
			s.Warnings = append(s.Warnings, "5千円を超える接待費です。一人あたり金額の確認が必要です。")
		}
	}
	if !result.Category.TaxDeductible {
		s.Warnings = append(s.Warnings, "この区分は経費計上できません。")
	}

	return s
}
