package scanning

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// geminiBaseConfidence is the engine-side confidence estimate for a Gemini
// transcription; the model reads dense receipts reliably but reports no per
// character confidence of its own.
const geminiBaseConfidence = 0.9

// Gemini implements Engine using Google Gemini vision models.
type Gemini struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewGemini creates a Gemini OCR engine.
func NewGemini(apiKey string, modelName string) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if modelName == "" {
		modelName = "gemini-2.5-pro"
	}

	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	return &Gemini{
		client: client,
		model:  client.GenerativeModel(modelName),
	}, nil
}

// RecognizeText sends the preprocessed JPEG to Gemini and returns the raw
// transcription.
func (g *Gemini) RecognizeText(imageData []byte) (*Result, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	parts := []genai.Part{
		genai.ImageData("jpeg", imageData),
		genai.Text(ocrPrompt),
	}

	resp, err := g.model.GenerateContent(ctx, parts...)
	if err != nil {
		return nil, fmt.Errorf("generating content: %w", err)
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("no response from gemini")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}

	text := cleanResponse(sb.String())
	if text == "" {
		return nil, fmt.Errorf("empty transcription from gemini")
	}

	return &Result{
		Text:       text,
		Confidence: blendConfidence(geminiBaseConfidence, text),
		Engine:     g.Name(),
	}, nil
}

// Name identifies the engine.
func (g *Gemini) Name() string {
	return "gemini"
}

// Close closes the Gemini client.
func (g *Gemini) Close() error {
	return g.client.Close()
}
