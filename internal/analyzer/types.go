// Package analyzer implements the social-video content analysis pipeline:
// fetch → sample → classify (metadata ∥ frames) → merge → admission gates →
// thumbnail selection. The package owns the shared data model and the pure
// decision logic; network-facing collaborators are injected as interfaces.
package analyzer

import "context"

// Signal kinds produced by the classifiers. An empty Kind means the classifier
// has no opinion.
const (
	KindActivity   = "activity"
	KindLandscape  = "landscape"
	KindIrrelevant = "irrelevant"
)

// Final result types. Activity and landscape survive the admission gates;
// boring and irrelevant are downgraded verdicts.
const (
	TypeActivity   = "activity"
	TypeLandscape  = "landscape"
	TypeBoring     = "boring"
	TypeIrrelevant = "irrelevant"
)

// Provenance tags for diagnostics. They must never influence downstream logic.
const (
	SourceMetadata    = "metadata"
	SourceFrames      = "frames"
	SourceValidation  = "validation"
	SourceBoringCheck = "boring-check"
	SourceError       = "error"
)

// RawContent is the ephemeral output of the content fetcher. It is consumed by
// the sampler and the metadata classifier and never persisted.
type RawContent struct {
	// Video is the raw downloaded video payload.
	Video []byte

	// Caption is the post caption, possibly empty.
	Caption string

	// Hashtags are #tokens scanned from the caption, in order of appearance.
	Hashtags []string

	// LocationTag is the free-text location supplied by the origin platform.
	LocationTag string

	// ThumbnailURL is the provider-supplied preview URL. It may reference an
	// expiring CDN and must pass SelectThumbnail before long-term use.
	ThumbnailURL string
}

// Frame is one still image sampled from the video. Index 0 is the earliest
// frame and the privileged default thumbnail candidate.
type Frame struct {
	Index int
	Image []byte
}

// Signal is the common classification output shape produced independently by
// the metadata classifier and by the vision classifier's frame reduction.
// A zero Signal means "no usable signal"; confidence 0 is never read as
// "confidently nothing".
type Signal struct {
	Kind       string
	Activity   string
	Location   string
	Confidence float64
}

// Merged is the combined classification produced by Merge and refined by the
// admission gates.
type Merged struct {
	Type       string
	Activity   string
	Location   string
	Confidence float64
	Source     string
}

// Analysis is the contract returned to callers. Created fresh per request and
// never mutated after return.
type Analysis struct {
	Success      bool    `json:"success"`
	RequestID    string  `json:"requestId"`
	Type         string  `json:"type"`
	Activity     *string `json:"activity"`
	Location     *string `json:"location"`
	Confidence   float64 `json:"confidence"`
	Source       string  `json:"source"`
	ThumbnailURL *string `json:"thumbnailUrl"`
}

// Fetcher resolves a social post URL into raw video bytes plus text metadata.
// Implementations try upstream providers in priority order and return a
// fetch.DownloadError when every provider fails.
type Fetcher interface {
	Fetch(ctx context.Context, postURL string) (*RawContent, error)
}

// Sampler extracts count evenly spaced frames from a video payload.
type Sampler interface {
	Sample(ctx context.Context, video []byte, count int) ([]Frame, error)
}

// TextClassifier produces a preliminary signal from post text only. It never
// fails hard: any internal error collapses to the zero no-opinion Signal.
type TextClassifier interface {
	ClassifyText(ctx context.Context, caption string, hashtags []string, locationTag string) Signal
}

// VisionClassifier classifies sampled frames and reduces them to the single
// highest-confidence per-frame result. It errors only when no frame produced a
// parseable verdict.
type VisionClassifier interface {
	ClassifyFrames(ctx context.Context, frames []Frame) (Signal, error)
}

// BoringClassifier decides whether a detected activity falls into the boring
// category denylist (Gate A).
type BoringClassifier interface {
	IsBoring(ctx context.Context, activity string) (bool, error)
}

// FrameStore persists sampled frames to durable hosting and returns their
// stable URLs in frame-index order. Hosted frame URLs never expire, which is
// what lets SelectThumbnail prefer them over provider URLs.
type FrameStore interface {
	StoreFrames(ctx context.Context, requestID string, frames []Frame) ([]string, error)
}

// newAnalysis converts a Merged verdict and selected thumbnail into the caller
// contract, normalizing empty strings to JSON null.
func newAnalysis(m Merged, thumbnailURL string) *Analysis {
	a := &Analysis{
		Success:    true,
		Type:       m.Type,
		Confidence: clamp01(m.Confidence),
		Source:     m.Source,
	}
	if m.Activity != "" {
		a.Activity = &m.Activity
	}
	if m.Location != "" {
		a.Location = &m.Location
	}
	if thumbnailURL != "" {
		a.ThumbnailURL = &thumbnailURL
	}
	return a
}

// clamp01 bounds a confidence value to [0,1]. Upstream classifiers self-report
// confidence and are not trusted to stay in range.
func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
