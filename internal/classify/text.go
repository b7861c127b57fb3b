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
	"github.com/wanderlens/clipsight/internal/jsonutil"
	"github.com/wanderlens/clipsight/internal/metrics"
)

// textVerdict is the JSON shape the text model is instructed to return.
type textVerdict struct {
	Activity   *string `json:"activity"`
	Location   *string `json:"location"`
	Confidence float64 `json:"confidence"`
}

// TextClassifier produces a preliminary signal from post text only. It never
// fails hard: any API error, empty response, or parse failure collapses to the
// zero-confidence no-opinion signal.
type TextClassifier struct {
	client *genai.Client
	model  string
}

// NewTextClassifier creates the metadata classifier.
func NewTextClassifier(client *genai.Client, model string) *TextClassifier {
	return &TextClassifier{client: client, model: model}
}

// Compile-time interface check.
var _ analyzer.TextClassifier = (*TextClassifier)(nil)

// ClassifyText classifies the post's caption, hashtags, and location tag.
// When all three are empty it short-circuits to a no-opinion signal without
// making an API call.
func (c *TextClassifier) ClassifyText(ctx context.Context, caption string, hashtags []string, locationTag string) analyzer.Signal {
	if caption == "" && len(hashtags) == 0 && locationTag == "" {
		log.Debug().Msg("No post text, skipping metadata classification")
		return analyzer.Signal{}
	}

	prompt := buildTextPrompt(caption, hashtags, locationTag)
	config := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: assets.TextClassifierSystemPrompt}},
		},
	}
	contents := []*genai.Content{{Role: "user", Parts: []*genai.Part{{Text: prompt}}}}

	start := time.Now()
	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, config)
	emitGeminiMetrics("metadata-classify", start, resp, err)
	if err != nil {
		log.Warn().Err(err).Msg("Metadata classification call failed, returning no opinion")
		return analyzer.Signal{}
	}
	if resp == nil || resp.Text() == "" {
		log.Warn().Msg("Metadata classification returned empty response, returning no opinion")
		return analyzer.Signal{}
	}

	verdict, err := jsonutil.ParseJSON[textVerdict](resp.Text())
	if err != nil {
		log.Warn().Err(err).Msg("Metadata classification response unparseable, returning no opinion")
		return analyzer.Signal{}
	}

	sig := analyzer.Signal{Confidence: clamp01(verdict.Confidence)}
	if verdict.Activity != nil && *verdict.Activity != "" {
		sig.Kind = analyzer.KindActivity
		sig.Activity = *verdict.Activity
	}
	if verdict.Location != nil {
		sig.Location = *verdict.Location
	}

	log.Debug().
		Str("activity", sig.Activity).
		Str("location", sig.Location).
		Float64("confidence", sig.Confidence).
		Msg("Metadata classification complete")
	return sig
}

// buildTextPrompt assembles the user prompt from the post's text fields.
func buildTextPrompt(caption string, hashtags []string, locationTag string) string {
	var sb strings.Builder
	sb.WriteString("Classify the following social post text.\n\n")
	if caption != "" {
		fmt.Fprintf(&sb, "Caption: %s\n", caption)
	}
	if len(hashtags) > 0 {
		fmt.Fprintf(&sb, "Hashtags: #%s\n", strings.Join(hashtags, " #"))
	}
	if locationTag != "" {
		fmt.Fprintf(&sb, "Location tag: %s\n", locationTag)
	}
	return sb.String()
}

// emitGeminiMetrics records latency, call, and token counters for one call.
func emitGeminiMetrics(operation string, start time.Time, resp *genai.GenerateContentResponse, err error) {
	m := metrics.New().
		Dimension("Operation", operation).
		Metric("GeminiApiLatencyMs", float64(time.Since(start).Milliseconds()), metrics.UnitMilliseconds).
		Count("GeminiApiCalls")
	if err != nil {
		m.Count("GeminiApiErrors")
	}
	if resp != nil && resp.UsageMetadata != nil {
		m.Metric("GeminiInputTokens", float64(resp.UsageMetadata.PromptTokenCount), metrics.UnitCount)
		m.Metric("GeminiOutputTokens", float64(resp.UsageMetadata.CandidatesTokenCount), metrics.UnitCount)
	}
	m.Flush()
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
