// Package extract turns raw OCR text into a structured receipt record. Every
// field is extracted through an ordered cascade of patterns; a miss is never
// an error, it degrades to an empty/zero value paired with a low confidence
// score that callers branch on.
package extract

import "regexp"

// LineItem is one purchased product entry parsed from the receipt body.
type LineItem struct {
	Name     string `json:"name"`
	Price    int    `json:"price"` // yen
	Quantity int    `json:"quantity"`
	Category string `json:"category,omitempty"`
}

// Confidence carries independent per-field heuristic confidence in [0,1].
// These are fixed bands keyed by extraction outcome, not probabilities.
type Confidence struct {
	StoreName   float64 `json:"storeName"`
	Date        float64 `json:"date"`
	TotalAmount float64 `json:"totalAmount"`
	TaxRate     float64 `json:"taxRate"`
}

// ReceiptRecord is the structured result of field extraction. Empty string /
// zero values mean "not found" and correlate with low confidence for the
// field; they are sentinels, not errors.
type ReceiptRecord struct {
	StoreName   string     `json:"storeName"`
	Date        string     `json:"date"` // YYYY-MM-DD, empty if unextractable
	Time        string     `json:"time,omitempty"`
	TotalAmount int        `json:"totalAmount"` // yen, 0 means not found
	TaxRate     float64    `json:"taxRate"`     // percent, 0 means not found or 0%
	Confidence  Confidence `json:"confidence"`
	RawText     string     `json:"rawText"`
	Items       []LineItem `json:"items,omitempty"`
	ItemsCount  int        `json:"itemsCount"`
}

var purchaseTimePattern = regexp.MustCompile(`([01]?\d|2[0-3]):([0-5]\d)`)

// Parse extracts all receipt fields from raw OCR text.
func Parse(rawText string) *ReceiptRecord {
	rec := &ReceiptRecord{
		StoreName:   ExtractStoreName(rawText),
		Date:        ExtractDate(rawText),
		TotalAmount: ExtractTotal(rawText),
		TaxRate:     ExtractTaxRate(rawText),
		RawText:     rawText,
		Items:       ExtractItems(rawText),
	}
	rec.ItemsCount = len(rec.Items)

	if m := purchaseTimePattern.FindString(rawText); m != "" {
		rec.Time = m
	}

	rec.Confidence = scoreConfidence(rec)
	return rec
}

// scoreConfidence assigns the fixed per-field confidence bands. Downstream
// UI thresholds depend on these exact values.
func scoreConfidence(rec *ReceiptRecord) Confidence {
	var c Confidence

	if len([]rune(rec.StoreName)) > 1 {
		c.StoreName = 0.9
	} else {
		c.StoreName = 0.1
	}

	if len(rec.Date) >= 8 {
		c.Date = 0.95
	} else {
		c.Date = 0.2
	}

	if rec.TotalAmount > 0 {
		c.TotalAmount = 0.9
	} else {
		c.TotalAmount = 0.3
	}

	switch {
	case rec.TaxRate > 0:
		c.TaxRate = 0.85
	case rec.TaxRate == 0:
		// Cannot tell "0%" from "not found"
		c.TaxRate = 0.5
	default:
		c.TaxRate = 0.1
	}

	return c
}
