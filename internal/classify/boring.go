package classify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"

	"github.com/wanderlens/clipsight/internal/analyzer"
	"github.com/wanderlens/clipsight/internal/assets"
)

// Boring check verdict tokens. The system prompt instructs the model to answer
// with exactly one of these.
const (
	verdictBoring = "BORING"
	verdictEpic   = "EPIC"
)

// BoringClassifier asks the text model whether a detected activity is a
// mundane everyday one (dining, shopping, nightlife) rather than a trip-worthy
// experience. Errors propagate to the caller, which fails open.
type BoringClassifier struct {
	client *genai.Client
	model  string
}

// NewBoringClassifier creates the boring-category check.
func NewBoringClassifier(client *genai.Client, model string) *BoringClassifier {
	return &BoringClassifier{client: client, model: model}
}

// Compile-time interface check.
var _ analyzer.BoringClassifier = (*BoringClassifier)(nil)

// IsBoring returns true when the model judges the activity boring. Any API
// failure or off-script response is an error; callers decide the fallback.
func (c *BoringClassifier) IsBoring(ctx context.Context, activity string) (bool, error) {
	config := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: assets.BoringCheckSystemPrompt}},
		},
	}
	contents := []*genai.Content{{
		Role:  "user",
		Parts: []*genai.Part{{Text: fmt.Sprintf("Activity: %s", activity)}},
	}}

	start := time.Now()
	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, config)
	emitGeminiMetrics("boring-check", start, resp, err)
	if err != nil {
		return false, fmt.Errorf("boring check: %w", err)
	}
	if resp == nil || resp.Text() == "" {
		return false, fmt.Errorf("boring check: empty response")
	}

	verdict := strings.ToUpper(strings.TrimSpace(resp.Text()))
	log.Debug().Str("activity", activity).Str("verdict", verdict).Msg("Boring check complete")
	switch {
	case strings.HasPrefix(verdict, verdictBoring):
		return true, nil
	case strings.HasPrefix(verdict, verdictEpic):
		return false, nil
	default:
		return false, fmt.Errorf("boring check: unexpected verdict %q", verdict)
	}
}
