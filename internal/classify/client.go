// Package classify implements the three Gemini-backed classifiers of the
// analysis pipeline: the text-only metadata classifier, the per-frame vision
// classifier, and the boring-category check. Each call site shares the same
// response parsing path (jsonutil) and degrades per its own documented policy
// rather than propagating classifier errors.
package classify

import (
	"context"
	"fmt"
	"os"

	"google.golang.org/genai"
)

// Gemini model defaults. Overridable via GEMINI_MODEL / GEMINI_VISION_MODEL.
const (
	// DefaultTextModel handles caption/hashtag classification and the boring
	// check on the lowest-cost tier.
	DefaultTextModel = "gemini-2.5-flash-lite"

	// DefaultVisionModel handles per-frame classification.
	DefaultVisionModel = "gemini-2.5-flash"
)

// NewClient creates a Gemini API client from the GEMINI_API_KEY environment
// variable.
func NewClient(ctx context.Context) (*genai.Client, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is not set")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create Gemini client: %w", err)
	}
	return client, nil
}

// TextModelName resolves the text model from GEMINI_MODEL.
func TextModelName() string {
	if env := os.Getenv("GEMINI_MODEL"); env != "" {
		return env
	}
	return DefaultTextModel
}

// VisionModelName resolves the vision model from GEMINI_VISION_MODEL, falling
// back to GEMINI_MODEL, then the default.
func VisionModelName() string {
	if env := os.Getenv("GEMINI_VISION_MODEL"); env != "" {
		return env
	}
	if env := os.Getenv("GEMINI_MODEL"); env != "" {
		return env
	}
	return DefaultVisionModel
}
