package classify

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"

	"github.com/wanderlens/clipsight/internal/analyzer"
	"github.com/wanderlens/clipsight/internal/assets"
	"github.com/wanderlens/clipsight/internal/jsonutil"
)

// DefaultVisionConcurrency bounds the per-frame worker pool. Overridable via
// CLIPSIGHT_VISION_CONCURRENCY; always clamped to the frame count.
const DefaultVisionConcurrency = 10

// VisionError is returned when not a single frame produced a parseable
// verdict. Distinct from a confident "irrelevant" classification.
type VisionError struct {
	Frames int
	Err    error
}

func (e *VisionError) Error() string {
	return fmt.Sprintf("vision classification: all %d frames failed: %v", e.Frames, e.Err)
}

func (e *VisionError) Unwrap() error {
	return e.Err
}

// frameVerdict is the JSON shape the vision model returns for one frame.
type frameVerdict struct {
	Type       string  `json:"type"`
	Activity   *string `json:"activity"`
	Location   *string `json:"location"`
	Confidence float64 `json:"confidence"`
}

// VisionClassifier classifies sampled frames with a bounded worker pool and
// reduces the per-frame verdicts to the single highest-confidence one.
type VisionClassifier struct {
	client      *genai.Client
	model       string
	concurrency int

	// classifyFrame is the per-frame call, a field so tests can substitute a
	// fake without a network round trip.
	classifyFrame func(ctx context.Context, frame analyzer.Frame) (frameVerdict, error)
}

// NewVisionClassifier creates the frame classifier. concurrency <= 0 selects
// the default.
func NewVisionClassifier(client *genai.Client, model string, concurrency int) *VisionClassifier {
	if concurrency <= 0 {
		concurrency = DefaultVisionConcurrency
	}
	v := &VisionClassifier{client: client, model: model, concurrency: concurrency}
	v.classifyFrame = v.classifyFrameGemini
	return v
}

// Compile-time interface check.
var _ analyzer.VisionClassifier = (*VisionClassifier)(nil)

// VisionConcurrencyFromEnv resolves CLIPSIGHT_VISION_CONCURRENCY.
func VisionConcurrencyFromEnv() int {
	if v := os.Getenv("CLIPSIGHT_VISION_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return DefaultVisionConcurrency
}

// ClassifyFrames fans frames out to the worker pool and returns the signal of
// the single most confident frame. Workers claim frame indices from an atomic
// counter and write into positionally indexed slots, so completion order never
// affects the result; the strictly-greater comparison in the reduction breaks
// confidence ties in favor of the lowest index.
func (v *VisionClassifier) ClassifyFrames(ctx context.Context, frames []analyzer.Frame) (analyzer.Signal, error) {
	if len(frames) == 0 {
		return analyzer.Signal{}, &VisionError{Frames: 0, Err: fmt.Errorf("no frames to classify")}
	}

	workers := v.concurrency
	if workers > len(frames) {
		workers = len(frames)
	}

	results := make([]*frameVerdict, len(frames))
	var next atomic.Int64
	var errMu sync.Mutex
	var lastErr error

	start := time.Now()
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for {
				i := int(next.Add(1)) - 1
				if i >= len(frames) {
					return
				}
				verdict, err := v.classifyFrame(ctx, frames[i])
				if err != nil {
					log.Warn().Err(err).Int("frame", i).Msg("Frame classification failed, excluding from reduction")
					errMu.Lock()
					lastErr = err
					errMu.Unlock()
					continue
				}
				results[i] = &verdict
			}
		}()
	}
	wg.Wait()

	var best *frameVerdict
	bestIndex := -1
	for i, r := range results {
		if r == nil {
			continue
		}
		if best == nil || r.Confidence > best.Confidence {
			best = r
			bestIndex = i
		}
	}
	if best == nil {
		if lastErr == nil {
			lastErr = fmt.Errorf("no parseable frame verdicts")
		}
		return analyzer.Signal{}, &VisionError{Frames: len(frames), Err: lastErr}
	}

	sig := analyzer.Signal{
		Kind:       normalizeKind(best.Type),
		Confidence: clamp01(best.Confidence),
	}
	if best.Activity != nil {
		sig.Activity = *best.Activity
	}
	if best.Location != nil {
		sig.Location = *best.Location
	}

	log.Debug().
		Int("frames", len(frames)).
		Int("workers", workers).
		Int("bestFrame", bestIndex).
		Str("kind", sig.Kind).
		Float64("confidence", sig.Confidence).
		Dur("elapsed", time.Since(start)).
		Msg("Vision classification complete")
	return sig, nil
}

// classifyFrameGemini issues one vision call for a single frame.
func (v *VisionClassifier) classifyFrameGemini(ctx context.Context, frame analyzer.Frame) (frameVerdict, error) {
	config := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: assets.VisionClassifierSystemPrompt}},
		},
	}
	contents := []*genai.Content{{
		Role: "user",
		Parts: []*genai.Part{
			{InlineData: &genai.Blob{MIMEType: "image/jpeg", Data: frame.Image}},
			{Text: "Classify this frame."},
		},
	}}

	start := time.Now()
	resp, err := v.client.Models.GenerateContent(ctx, v.model, contents, config)
	emitGeminiMetrics("frame-classify", start, resp, err)
	if err != nil {
		return frameVerdict{}, fmt.Errorf("frame %d: %w", frame.Index, err)
	}
	if resp == nil || resp.Text() == "" {
		return frameVerdict{}, fmt.Errorf("frame %d: empty response", frame.Index)
	}

	verdict, err := jsonutil.ParseJSON[frameVerdict](resp.Text())
	if err != nil {
		return frameVerdict{}, fmt.Errorf("frame %d: %w", frame.Index, err)
	}
	return verdict, nil
}

// normalizeKind maps model output onto the known signal kinds; anything
// unrecognized is treated as irrelevant.
func normalizeKind(kind string) string {
	switch kind {
	case analyzer.KindActivity, analyzer.KindLandscape, analyzer.KindIrrelevant:
		return kind
	default:
		return analyzer.KindIrrelevant
	}
}
