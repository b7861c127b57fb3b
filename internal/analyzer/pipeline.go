package analyzer

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/wanderlens/clipsight/internal/metrics"
)

// Analyzer orchestrates one analysis request end to end. All collaborators
// are injected; only Fetcher, Sampler, Text, Vision, and Filter are required.
// Frames (durable frame hosting) is optional; without it, thumbnails fall
// back to the provider URL subject to the expiring-CDN rule.
type Analyzer struct {
	fetcher Fetcher
	sampler Sampler
	text    TextClassifier
	vision  VisionClassifier
	filter  *AdmissionFilter
	frames  FrameStore
	cfg     Config
}

// New creates an Analyzer. frames may be nil.
func New(fetcher Fetcher, sampler Sampler, text TextClassifier, vision VisionClassifier, filter *AdmissionFilter, frames FrameStore, cfg Config) *Analyzer {
	return &Analyzer{
		fetcher: fetcher,
		sampler: sampler,
		text:    text,
		vision:  vision,
		filter:  filter,
		frames:  frames,
		cfg:     cfg,
	}
}

// Analyze runs the full pipeline for one post URL under the configured
// wall-clock budget.
//
// Only fetch and sampling failures surface as errors, since there is no content to
// analyze. Everything downstream degrades in place, and a pipeline timeout is
// converted into a structured irrelevant verdict: from the caller's point of
// view, "could not classify in time" is a content verdict, not an application
// error.
func (a *Analyzer) Analyze(ctx context.Context, postURL string) (*Analysis, error) {
	requestID := uuid.NewString()
	logger := log.With().Str("requestId", requestID).Str("postUrl", postURL).Logger()

	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
	defer cancel()

	type outcome struct {
		analysis *Analysis
		err      error
	}
	done := make(chan outcome, 1)
	go func() {
		analysis, err := a.run(ctx, requestID, &logger, postURL)
		done <- outcome{analysis, err}
	}()

	var result *Analysis
	var err error
	select {
	case <-ctx.Done():
		logger.Warn().Dur("elapsed", time.Since(start)).
			Msg("Pipeline budget exhausted, returning irrelevant verdict")
		result = timeoutVerdict()
	case o := <-done:
		if o.err != nil && ctx.Err() != nil {
			// The stage failure was induced by the expiring budget; report it
			// as a timeout verdict, not as a fetch/sample error.
			result = timeoutVerdict()
		} else {
			result, err = o.analysis, o.err
		}
	}

	m := metrics.New().
		Dimension("Operation", "analyze").
		Metric("PipelineLatencyMs", float64(time.Since(start).Milliseconds()), metrics.UnitMilliseconds).
		Count("Analyses").
		Property("requestId", requestID)
	if err != nil {
		m.Count("AnalysisErrors")
	} else {
		m.Property("verdict", result.Type)
	}
	m.Flush()

	if err != nil {
		return nil, err
	}
	result.RequestID = requestID
	logger.Info().
		Str("type", result.Type).
		Float64("confidence", result.Confidence).
		Str("source", result.Source).
		Dur("elapsed", time.Since(start)).
		Msg("Analysis complete")
	return result, nil
}

// run executes the pipeline stages in order. It is always raced against the
// pipeline deadline by Analyze.
func (a *Analyzer) run(ctx context.Context, requestID string, logger *zerolog.Logger, postURL string) (*Analysis, error) {
	// Fetch. Fatal on failure.
	raw, err := a.fetcher.Fetch(ctx, postURL)
	if err != nil {
		logger.Error().Err(err).Msg("Content fetch failed")
		return nil, err
	}
	logger.Debug().
		Int("videoBytes", len(raw.Video)).
		Int("hashtags", len(raw.Hashtags)).
		Bool("hasCaption", raw.Caption != "").
		Bool("hasLocation", raw.LocationTag != "").
		Msg("Content fetched")

	// Sample. Fatal on failure.
	frames, err := a.sampler.Sample(ctx, raw.Video, a.cfg.FrameCount)
	if err != nil {
		logger.Error().Err(err).Msg("Frame sampling failed")
		return nil, err
	}
	logger.Debug().Int("frames", len(frames)).Msg("Frames sampled")

	// Classify metadata and frames in parallel; host frames alongside.
	// Each goroutine writes its own variable, so no locking is needed.
	var (
		wg        sync.WaitGroup
		metaSig   Signal
		visionSig Signal
		frameURLs []string
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		metaSig = a.text.ClassifyText(ctx, raw.Caption, raw.Hashtags, raw.LocationTag)
	}()
	go func() {
		defer wg.Done()
		sig, verr := a.vision.ClassifyFrames(ctx, frames)
		if verr != nil {
			// Every frame failed to classify. Degrade to a no-opinion signal
			// rather than aborting the analysis.
			logger.Warn().Err(verr).Msg("Vision classification failed, degrading to no-opinion signal")
			return
		}
		visionSig = sig
	}()

	if a.frames != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			urls, serr := a.frames.StoreFrames(ctx, requestID, frames)
			if serr != nil {
				logger.Warn().Err(serr).Msg("Frame hosting failed, thumbnail falls back to provider URL")
				return
			}
			frameURLs = urls
		}()
	}
	wg.Wait()

	logger.Debug().
		Str("metaKind", metaSig.Kind).
		Float64("metaConfidence", metaSig.Confidence).
		Str("visionKind", visionSig.Kind).
		Float64("visionConfidence", visionSig.Confidence).
		Msg("Classification signals collected")

	merged := Merge(metaSig, visionSig)
	admitted := a.filter.Admit(ctx, merged)
	thumbnail := SelectThumbnail(frameURLs, raw.ThumbnailURL)

	return newAnalysis(admitted, thumbnail), nil
}

// timeoutVerdict is the structured result returned when the pipeline budget
// expires: a successful irrelevant verdict with no thumbnail.
func timeoutVerdict() *Analysis {
	return &Analysis{
		Success:    true,
		Type:       TypeIrrelevant,
		Confidence: 0,
		Source:     SourceError,
	}
}
