package classify

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/keiri-app/receiptscan/internal/extract"
)

// AnomalyCheckResult is a transient verdict; Type is one of
// "unusual_amount", "unusual_time", "suspicious_name".
type AnomalyCheckResult struct {
	IsAnomaly bool   `json:"isAnomaly"`
	Type      string `json:"type,omitempty"`
	Severity  string `json:"severity,omitempty"` // "low", "medium", "high"
	Message   string `json:"message,omitempty"`
}

// suspiciousNameTokens signal placeholder text, usually OCR garbage rather
// than fraud.
var suspiciousNameTokens = []string{"test", "テスト", "sample", "サンプル", "123", "xxx"}

const (
	anomalySigmaLimit     = 3.0
	anomalyHighMeanFactor = 5.0
	offHoursEnd           = 5 // hours [0, 5) are off-hours
)

// DetectAnomaly evaluates the fixed check order: amount z-score against
// history, off-hours purchase time, suspicious merchant name. The first
// triggered check is returned; anomalies are not aggregated.
func DetectAnomaly(rec *extract.ReceiptRecord, history []*extract.ReceiptRecord) AnomalyCheckResult {
	// Amount check needs a defined mean and deviation, so it is skipped
	// entirely on empty history.
	if len(history) > 0 {
		mean, stddev := amountStats(history)
		if math.Abs(float64(rec.TotalAmount)-mean) > anomalySigmaLimit*stddev {
			severity := "medium"
			if float64(rec.TotalAmount) > anomalyHighMeanFactor*mean {
				severity = "high"
			}
			return AnomalyCheckResult{
				IsAnomaly: true,
				Type:      "unusual_amount",
				Severity:  severity,
				Message:   fmt.Sprintf("金額 %d円 は過去平均 %.0f円 から大きく外れています", rec.TotalAmount, mean),
			}
		}
	}

	if hour, ok := purchaseHour(rec.Time); ok && hour < offHoursEnd {
		return AnomalyCheckResult{
			IsAnomaly: true,
			Type:      "unusual_time",
			Severity:  "low",
			Message:   fmt.Sprintf("深夜時間帯 (%s) の購入です", rec.Time),
		}
	}

	nameLower := strings.ToLower(rec.StoreName)
	for _, token := range suspiciousNameTokens {
		if strings.Contains(nameLower, strings.ToLower(token)) {
			return AnomalyCheckResult{
				IsAnomaly: true,
				Type:      "suspicious_name",
				Severity:  "high",
				Message:   fmt.Sprintf("店舗名「%s」が正しく読み取れていない可能性があります", rec.StoreName),
			}
		}
	}

	return AnomalyCheckResult{}
}

// amountStats returns the mean and population standard deviation of the
// history amounts.
func amountStats(history []*extract.ReceiptRecord) (float64, float64) {
	var sum float64
	for _, r := range history {
		sum += float64(r.TotalAmount)
	}
	mean := sum / float64(len(history))

	var variance float64
	for _, r := range history {
		d := float64(r.TotalAmount) - mean
		variance += d * d
	}
	variance /= float64(len(history))

	return mean, math.Sqrt(variance)
}

// purchaseHour parses the hour out of an HH:MM time field.
func purchaseHour(t string) (int, bool) {
	parts := strings.SplitN(t, ":", 2)
	if len(parts) != 2 {
		return 0, false
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, false
	}
	return hour, true
}
