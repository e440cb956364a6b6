package receipt

import (
	"time"

	"github.com/keiri-app/receiptscan/internal/classify"
	"github.com/keiri-app/receiptscan/internal/extract"
)

// Receipt is a fully processed receipt: the extracted fields, the expense
// classification and the history checks, plus the stored source image.
type Receipt struct {
	ID             string                        `json:"id"`
	Extraction     extract.ReceiptRecord         `json:"extraction"`
	Classification classify.Result               `json:"classification"`
	Account        classify.AccountSuggestion    `json:"account"`
	Duplicate      classify.DuplicateCheckResult `json:"duplicate"`
	Anomaly        classify.AnomalyCheckResult   `json:"anomaly"`
	OCREngine      string                        `json:"ocrEngine"`
	OCRConfidence  float64                       `json:"ocrConfidence"`
	Filename       string                        `json:"filename"`
	ContentType    string                        `json:"contentType"`
	CreatedAt      time.Time                     `json:"createdAt"`
	UpdatedAt      time.Time                     `json:"updatedAt"`
}
