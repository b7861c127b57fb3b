package analyzer

import (
	"context"
	"errors"
	"testing"
	"time"
)

// --- pipeline stage fakes ---

type fakeFetcher struct {
	content *RawContent
	err     error
	delay   time.Duration
}

func (f *fakeFetcher) Fetch(ctx context.Context, _ string) (*RawContent, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.content, f.err
}

type fakeSampler struct {
	frames []Frame
	err    error
}

func (f *fakeSampler) Sample(_ context.Context, _ []byte, _ int) ([]Frame, error) {
	return f.frames, f.err
}

type fakeText struct{ sig Signal }

func (f *fakeText) ClassifyText(_ context.Context, _ string, _ []string, _ string) Signal {
	return f.sig
}

type fakeVision struct {
	sig Signal
	err error
}

func (f *fakeVision) ClassifyFrames(_ context.Context, _ []Frame) (Signal, error) {
	return f.sig, f.err
}

type fakeFrameStore struct {
	urls []string
	err  error
}

func (f *fakeFrameStore) StoreFrames(_ context.Context, _ string, _ []Frame) ([]string, error) {
	return f.urls, f.err
}

func testConfig() Config {
	return Config{FrameCount: 3, Timeout: 5 * time.Second}
}

func passthroughFilter() *AdmissionFilter {
	return NewAdmissionFilter(DefaultTaxonomy(), nil)
}

func sampleContent() *RawContent {
	return &RawContent{
		Video:    []byte("video-bytes"),
		Caption:  "surfing in bali #surf",
		Hashtags: []string{"surf"},
	}
}

func threeFrames() []Frame {
	return []Frame{{Index: 0, Image: []byte("f0")}, {Index: 1, Image: []byte("f1")}, {Index: 2, Image: []byte("f2")}}
}

// --- tests ---

func TestAnalyzeHappyPath(t *testing.T) {
	a := New(
		&fakeFetcher{content: sampleContent()},
		&fakeSampler{frames: threeFrames()},
		&fakeText{sig: Signal{Kind: KindActivity, Activity: "surfing", Confidence: 0.85}},
		&fakeVision{sig: Signal{Kind: KindLandscape, Location: "Bali", Confidence: 0.95}},
		passthroughFilter(),
		&fakeFrameStore{urls: []string{"https://cdn.wanderlens.app/a/frame_00.jpg"}},
		testConfig(),
	)

	res, err := a.Analyze(context.Background(), "https://instagram.com/p/abc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Success {
		t.Error("expected success=true")
	}
	if res.Type != TypeActivity {
		t.Errorf("expected activity, got %s", res.Type)
	}
	if res.Activity == nil || *res.Activity != "surfing" {
		t.Errorf("expected surfing, got %v", res.Activity)
	}
	if res.Confidence != 0.85 {
		t.Errorf("expected metadata confidence 0.85, got %v", res.Confidence)
	}
	if res.ThumbnailURL == nil || *res.ThumbnailURL != "https://cdn.wanderlens.app/a/frame_00.jpg" {
		t.Errorf("expected hosted frame thumbnail, got %v", res.ThumbnailURL)
	}
	if res.RequestID == "" {
		t.Error("expected a populated request ID")
	}
}

func TestAnalyzeFetchFailureIsFatal(t *testing.T) {
	wantErr := errors.New("all providers failed")
	a := New(
		&fakeFetcher{err: wantErr},
		&fakeSampler{frames: threeFrames()},
		&fakeText{}, &fakeVision{}, passthroughFilter(), nil, testConfig(),
	)

	if _, err := a.Analyze(context.Background(), "https://instagram.com/p/abc"); !errors.Is(err, wantErr) {
		t.Errorf("expected fetch error to propagate, got %v", err)
	}
}

func TestAnalyzeSampleFailureIsFatal(t *testing.T) {
	wantErr := errors.New("undecodable video")
	a := New(
		&fakeFetcher{content: sampleContent()},
		&fakeSampler{err: wantErr},
		&fakeText{}, &fakeVision{}, passthroughFilter(), nil, testConfig(),
	)

	if _, err := a.Analyze(context.Background(), "https://instagram.com/p/abc"); !errors.Is(err, wantErr) {
		t.Errorf("expected sampler error to propagate, got %v", err)
	}
}

func TestAnalyzeVisionFailureDegrades(t *testing.T) {
	// Vision fails entirely; metadata carries the verdict.
	a := New(
		&fakeFetcher{content: sampleContent()},
		&fakeSampler{frames: threeFrames()},
		&fakeText{sig: Signal{Kind: KindActivity, Activity: "surfing", Confidence: 0.75}},
		&fakeVision{err: errors.New("all frames failed")},
		passthroughFilter(), nil, testConfig(),
	)

	res, err := a.Analyze(context.Background(), "https://instagram.com/p/abc")
	if err != nil {
		t.Fatalf("vision failure must not abort the pipeline: %v", err)
	}
	if res.Type != TypeActivity || res.Activity == nil || *res.Activity != "surfing" {
		t.Errorf("expected metadata verdict, got %+v", res)
	}
}

func TestAnalyzeAllIrrelevantFrames(t *testing.T) {
	// Empty text metadata, three frames all irrelevant at 0.3.
	a := New(
		&fakeFetcher{content: &RawContent{Video: []byte("v")}},
		&fakeSampler{frames: threeFrames()},
		&fakeText{},
		&fakeVision{sig: Signal{Kind: KindIrrelevant, Confidence: 0.3}},
		passthroughFilter(), nil, testConfig(),
	)

	res, err := a.Analyze(context.Background(), "https://instagram.com/p/abc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Type != TypeIrrelevant {
		t.Errorf("expected irrelevant, got %s", res.Type)
	}
	if res.Activity != nil {
		t.Errorf("irrelevant result must have null activity, got %v", *res.Activity)
	}
}

func TestAnalyzeTimeoutReturnsStructuredVerdict(t *testing.T) {
	a := New(
		&fakeFetcher{content: sampleContent(), delay: time.Second},
		&fakeSampler{frames: threeFrames()},
		&fakeText{}, &fakeVision{}, passthroughFilter(), nil,
		Config{FrameCount: 3, Timeout: 20 * time.Millisecond},
	)

	res, err := a.Analyze(context.Background(), "https://instagram.com/p/abc")
	if err != nil {
		t.Fatalf("timeout must not surface as an error: %v", err)
	}
	if !res.Success {
		t.Error("timeout verdict must report success=true")
	}
	if res.Type != TypeIrrelevant || res.Confidence != 0 || res.Source != SourceError {
		t.Errorf("unexpected timeout verdict: %+v", res)
	}
	if res.ThumbnailURL != nil {
		t.Errorf("timeout verdict must have null thumbnail, got %v", *res.ThumbnailURL)
	}
	if res.RequestID == "" {
		t.Error("timeout verdict must still carry the request ID")
	}
}

func TestAnalyzeFrameStoreFailureFallsBackToProviderURL(t *testing.T) {
	content := sampleContent()
	content.ThumbnailURL = "https://img.provider.example/thumb.jpg"

	a := New(
		&fakeFetcher{content: content},
		&fakeSampler{frames: threeFrames()},
		&fakeText{sig: Signal{Kind: KindActivity, Activity: "surfing", Confidence: 0.9}},
		&fakeVision{sig: Signal{Kind: KindActivity, Activity: "surfing", Confidence: 0.5}},
		passthroughFilter(),
		&fakeFrameStore{err: errors.New("bucket unavailable")},
		testConfig(),
	)

	res, err := a.Analyze(context.Background(), "https://instagram.com/p/abc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.ThumbnailURL == nil || *res.ThumbnailURL != content.ThumbnailURL {
		t.Errorf("expected provider thumbnail fallback, got %v", res.ThumbnailURL)
	}
}

func TestAnalyzeExpiringProviderThumbnailDropped(t *testing.T) {
	content := &RawContent{Video: []byte("v"), ThumbnailURL: "https://scontent.cdninstagram.com/thumb.jpg"}

	a := New(
		&fakeFetcher{content: content},
		&fakeSampler{frames: threeFrames()},
		&fakeText{},
		&fakeVision{sig: Signal{Kind: KindIrrelevant, Confidence: 0.4}},
		passthroughFilter(), nil, testConfig(),
	)

	res, err := a.Analyze(context.Background(), "https://instagram.com/p/abc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.ThumbnailURL != nil {
		t.Errorf("expiring provider URL must never be returned, got %v", *res.ThumbnailURL)
	}
}
