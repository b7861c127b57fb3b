package sampler

import (
	"context"
	"math"
	"testing"
)

func TestSampleOffsetsEvenSpacing(t *testing.T) {
	offsets := SampleOffsets(30.1, 3)
	if len(offsets) != 3 {
		t.Fatalf("expected 3 offsets, got %d", len(offsets))
	}
	if offsets[0] != 0 {
		t.Errorf("first offset must be 0, got %v", offsets[0])
	}
	if math.Abs(offsets[1]-15.0) > 0.01 {
		t.Errorf("middle offset not centered: %v", offsets[1])
	}
	if math.Abs(offsets[2]-30.0) > 0.01 {
		t.Errorf("last offset should back off slightly from the end: %v", offsets[2])
	}
}

func TestSampleOffsetsMonotonic(t *testing.T) {
	offsets := SampleOffsets(12.7, 5)
	for i := 1; i < len(offsets); i++ {
		if offsets[i] <= offsets[i-1] {
			t.Fatalf("offsets not strictly increasing: %v", offsets)
		}
	}
}

func TestSampleOffsetsSingleFrame(t *testing.T) {
	offsets := SampleOffsets(45, 1)
	if len(offsets) != 1 || offsets[0] != 0 {
		t.Errorf("single frame should sample at 0, got %v", offsets)
	}
}

func TestSampleOffsetsTinyVideo(t *testing.T) {
	// Shorter than the end margin: all offsets collapse to 0 rather than
	// going negative.
	offsets := SampleOffsets(0.05, 3)
	for _, o := range offsets {
		if o < 0 {
			t.Errorf("negative offset %v", o)
		}
	}
}

func TestSampleEmptyPayload(t *testing.T) {
	s := &FFmpegSampler{}
	_, err := s.Sample(context.Background(), nil, 3)
	if err == nil {
		t.Fatal("expected error for empty payload")
	}
	if _, ok := err.(*ExtractionError); !ok {
		t.Errorf("expected ExtractionError, got %T", err)
	}
}
