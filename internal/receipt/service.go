package receipt

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/keiri-app/receiptscan/internal/classify"
	"github.com/keiri-app/receiptscan/internal/extract"
	"github.com/keiri-app/receiptscan/internal/preprocess"
	"github.com/keiri-app/receiptscan/internal/scanning"
)

// IDGenerator generates unique IDs for receipts
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

// defaultIDGenerator generates IDs using UnixNano timestamp
type defaultIDGenerator struct{}

func (g *defaultIDGenerator) Generate() string {
	return fmt.Sprintf("%d", time.Now().UnixNano())
}

// defaultTimeSource provides the current time
type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// Preprocessor is the image preparation seam. The concrete implementation
// lives in the preprocess package; the service only needs the OCR path.
type Preprocessor interface {
	ProcessForOCR(data []byte, contentType string, opts preprocess.Options) ([]byte, error)
}

// Service runs the full receipt pipeline: store the image, preprocess it,
// OCR it, extract fields, classify the expense and check it against history.
type Service struct {
	db           DB
	storage      Storage
	preprocessor Preprocessor
	engines      []scanning.Engine
	classifier   *classify.Classifier
	opts         preprocess.Options
	idGenerator  IDGenerator
	timeSource   TimeSource
}

// NewService creates a Service with default ID generator and time source.
func NewService(db DB, storage Storage, pre Preprocessor, engines []scanning.Engine, classifier *classify.Classifier, opts preprocess.Options) *Service {
	return NewServiceWithDeps(db, storage, pre, engines, classifier, opts, &defaultIDGenerator{}, &defaultTimeSource{})
}

// NewServiceWithDeps creates a Service with custom dependencies for testing.
func NewServiceWithDeps(db DB, storage Storage, pre Preprocessor, engines []scanning.Engine, classifier *classify.Classifier, opts preprocess.Options, idGen IDGenerator, timeSrc TimeSource) *Service {
	return &Service{
		db:           db,
		storage:      storage,
		preprocessor: pre,
		engines:      engines,
		classifier:   classifier,
		opts:         opts,
		idGenerator:  idGen,
		timeSource:   timeSrc,
	}
}

// sanitizeFilename cleans up a filename by removing special characters and
// truncating length. Phone cameras produce long, messy names.
func sanitizeFilename(filename string) string {
	ext := filepath.Ext(filename)
	base := strings.TrimSuffix(filename, ext)

	base = regexp.MustCompile(`[^a-zA-Z0-9\s\-_]`).ReplaceAllString(base, "")
	base = regexp.MustCompile(`\s+`).ReplaceAllString(base, " ")
	base = strings.TrimSpace(base)

	maxLen := 50
	if len(base) > maxLen {
		base = base[:maxLen]
	}
	if base == "" {
		base = "receipt"
	}
	return base + ext
}

// ProcessReceipt runs the whole pipeline for one uploaded image and persists
// the result. Preprocessing failures are not fatal: the original image is
// handed to the OCR engines unmodified. OCR failure on every engine is fatal
// and rolls back the stored file.
func (s *Service) ProcessReceipt(filename string, data []byte, contentType string) (*Receipt, error) {
	id := s.idGenerator.Generate()
	now := s.timeSource.Now()

	cleanFilename := sanitizeFilename(filename)
	savedPath, err := s.storage.Save(fmt.Sprintf("%s_%s", id, cleanFilename), data)
	if err != nil {
		return nil, fmt.Errorf("saving file: %w", err)
	}

	processed, err := s.preprocessor.ProcessForOCR(data, contentType, s.opts)
	if err != nil {
		// Never-fail contract: fall back to the original image
		slog.Warn("Preprocessing failed, using original image",
			"filename", filename,
			"error", err,
		)
		processed = data
	}

	best, err := s.recognize(processed, filename)
	if err != nil {
		s.storage.Delete(savedPath)
		return nil, err
	}

	record := extract.Parse(best.Text)
	classification := s.classifier.Classify(record)
	account := s.classifier.SuggestAccountTitle(record, classification)

	history, err := s.history()
	if err != nil {
		slog.Warn("Could not load history, skipping duplicate/anomaly checks", "error", err)
	}
	duplicate := classify.DetectDuplicate(record, history)
	anomaly := classify.DetectAnomaly(record, history)

	receipt := &Receipt{
		ID:             id,
		Extraction:     *record,
		Classification: classification,
		Account:        account,
		Duplicate:      duplicate,
		Anomaly:        anomaly,
		OCREngine:      best.Engine,
		OCRConfidence:  best.Confidence,
		Filename:       savedPath,
		ContentType:    contentType,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.db.SaveReceipt(receipt); err != nil {
		s.storage.Delete(savedPath)
		return nil, fmt.Errorf("saving receipt to database: %w", err)
	}

	return receipt, nil
}

// recognize runs every configured engine on the image and keeps the result
// with the highest confidence × length score.
func (s *Service) recognize(imageData []byte, filename string) (*scanning.Result, error) {
	var results []*scanning.Result
	for _, engine := range s.engines {
		result, err := engine.RecognizeText(imageData)
		if err != nil {
			slog.Error("OCR engine failed",
				"engine", engine.Name(),
				"filename", filename,
				"error", err,
			)
			continue
		}
		results = append(results, result)
	}

	best := scanning.BestResult(results)
	if best == nil {
		return nil, fmt.Errorf("recognizing text: all OCR engines failed")
	}
	return best, nil
}

// history maps the stored receipts to their extraction records for the
// duplicate and anomaly checks.
func (s *Service) history() ([]*extract.ReceiptRecord, error) {
	stored, err := s.db.ListReceipts()
	if err != nil {
		return nil, fmt.Errorf("listing receipts: %w", err)
	}
	records := make([]*extract.ReceiptRecord, 0, len(stored))
	for _, r := range stored {
		rec := r.Extraction
		records = append(records, &rec)
	}
	return records, nil
}

// GetReceipt retrieves a receipt by ID.
func (s *Service) GetReceipt(id string) (*Receipt, error) {
	receipt, err := s.db.GetReceipt(id)
	if err != nil {
		return nil, fmt.Errorf("getting receipt: %w", err)
	}
	return receipt, nil
}

// ListReceipts returns all receipts.
func (s *Service) ListReceipts() ([]*Receipt, error) {
	receipts, err := s.db.ListReceipts()
	if err != nil {
		return nil, fmt.Errorf("listing receipts: %w", err)
	}
	return receipts, nil
}

// DeleteReceipt removes a receipt and its stored image.
func (s *Service) DeleteReceipt(id string) error {
	receipt, err := s.db.GetReceipt(id)
	if err != nil {
		return fmt.Errorf("getting receipt for deletion: %w", err)
	}

	if err := s.storage.Delete(receipt.Filename); err != nil {
		// Continue with database deletion regardless
		slog.Warn("Failed to delete file", "filename", receipt.Filename, "error", err)
	}

	if err := s.db.DeleteReceipt(id); err != nil {
		return fmt.Errorf("deleting receipt from database: %w", err)
	}
	return nil
}

// GetReceiptFile retrieves the stored image for a receipt.
func (s *Service) GetReceiptFile(id string) ([]byte, string, error) {
	receipt, err := s.db.GetReceipt(id)
	if err != nil {
		return nil, "", fmt.Errorf("getting receipt: %w", err)
	}

	data, err := s.storage.Get(receipt.Filename)
	if err != nil {
		return nil, "", fmt.Errorf("getting receipt file: %w", err)
	}

	return data, receipt.ContentType, nil
}
