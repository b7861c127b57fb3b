// Package sampler extracts evenly spaced still frames from a video payload
// using ffmpeg. The video is persisted to a per-request scratch directory for
// the duration of the extraction; scratch is removed on every exit path.
package sampler

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/wanderlens/clipsight/internal/analyzer"
)

// frameJPEGQuality is the qscale:v value for extracted frames. 2 is high
// quality (~95% JPEG), keeping vision classification free of compression
// artifacts.
const frameJPEGQuality = 2

// ExtractionError is the fatal failure for corrupt or undecodable video.
type ExtractionError struct {
	Stage  string
	Output string
	Err    error
}

func (e *ExtractionError) Error() string {
	if e.Output != "" {
		return fmt.Sprintf("frame extraction (%s): %v\nOutput: %s", e.Stage, e.Err, e.Output)
	}
	return fmt.Sprintf("frame extraction (%s): %v", e.Stage, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// FFmpegSampler samples frames with ffprobe + ffmpeg. ScratchDir overrides the
// base temp directory; empty means os.TempDir().
type FFmpegSampler struct {
	ScratchDir string
}

// Compile-time interface check.
var _ analyzer.Sampler = (*FFmpegSampler)(nil)

// Sample extracts count frames spread evenly across the video duration,
// including the first and last position, and returns them in index order.
func (s *FFmpegSampler) Sample(ctx context.Context, video []byte, count int) ([]analyzer.Frame, error) {
	if count <= 0 {
		count = analyzer.DefaultFrameCount
	}
	if len(video) == 0 {
		return nil, &ExtractionError{Stage: "input", Err: fmt.Errorf("empty video payload")}
	}

	base := s.ScratchDir
	if base == "" {
		base = os.TempDir()
	}

	// Scratch is namespaced per request so concurrent analyses never collide.
	scratch := filepath.Join(base, "clipsight-"+uuid.NewString())
	if err := os.MkdirAll(scratch, 0o755); err != nil {
		return nil, &ExtractionError{Stage: "scratch", Err: err}
	}
	defer func() {
		if err := os.RemoveAll(scratch); err != nil {
			log.Warn().Err(err).Str("dir", scratch).Msg("Failed to remove scratch directory")
		} else {
			log.Debug().Str("dir", scratch).Msg("Scratch directory removed")
		}
	}()

	videoPath := filepath.Join(scratch, "video.mp4")
	if err := os.WriteFile(videoPath, video, 0o644); err != nil {
		return nil, &ExtractionError{Stage: "scratch", Err: err}
	}

	duration, err := probeDuration(ctx, videoPath)
	if err != nil {
		return nil, err
	}

	offsets := SampleOffsets(duration, count)
	log.Debug().
		Float64("durationSeconds", duration).
		Int("frameCount", count).
		Floats64("offsets", offsets).
		Msg("Frame sampling parameters")

	ffmpegPath, err := exec.LookPath("ffmpeg")
	if err != nil {
		return nil, &ExtractionError{Stage: "ffmpeg", Err: fmt.Errorf("ffmpeg not found: %w", err)}
	}

	frames := make([]analyzer.Frame, 0, count)
	for i, offset := range offsets {
		framePath := filepath.Join(scratch, fmt.Sprintf("frame_%02d.jpg", i))
		args := []string{
			"-ss", strconv.FormatFloat(offset, 'f', 3, 64),
			"-i", videoPath,
			"-frames:v", "1",
			"-qscale:v", strconv.Itoa(frameJPEGQuality),
			"-y", framePath,
		}
		cmd := exec.CommandContext(ctx, ffmpegPath, args...)
		output, err := cmd.CombinedOutput()
		if err != nil {
			return nil, &ExtractionError{Stage: "ffmpeg", Output: string(output), Err: err}
		}

		data, err := os.ReadFile(framePath)
		if err != nil {
			return nil, &ExtractionError{Stage: "read-frame", Err: err}
		}
		if len(data) == 0 {
			return nil, &ExtractionError{Stage: "read-frame", Err: fmt.Errorf("frame %d is empty", i)}
		}
		frames = append(frames, analyzer.Frame{Index: i, Image: data})
	}

	log.Debug().Int("frames", len(frames)).Msg("Frame sampling complete")
	return frames, nil
}

// SampleOffsets returns count timestamps (seconds) spread evenly across the
// duration, first frame at 0 and last near the end. The final offset backs off
// slightly from the exact duration, since seeking to the very last instant yields
// no frame on many containers.
func SampleOffsets(duration float64, count int) []float64 {
	const endMargin = 0.1

	if duration < 0 {
		duration = 0
	}
	offsets := make([]float64, count)
	if count == 1 || duration == 0 {
		return offsets
	}

	last := duration - endMargin
	if last < 0 {
		last = 0
	}
	step := last / float64(count-1)
	for i := range offsets {
		offsets[i] = step * float64(i)
	}
	return offsets
}

// probeDuration reads the container duration in seconds via ffprobe.
func probeDuration(ctx context.Context, videoPath string) (float64, error) {
	ffprobePath, err := exec.LookPath("ffprobe")
	if err != nil {
		return 0, &ExtractionError{Stage: "ffprobe", Err: fmt.Errorf("ffprobe not found: %w", err)}
	}

	cmd := exec.CommandContext(ctx, ffprobePath,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		videoPath,
	)
	output, err := cmd.Output()
	if err != nil {
		return 0, &ExtractionError{Stage: "ffprobe", Output: string(output), Err: err}
	}

	duration, err := strconv.ParseFloat(strings.TrimSpace(string(output)), 64)
	if err != nil {
		return 0, &ExtractionError{Stage: "ffprobe", Err: fmt.Errorf("parse duration %q: %w", strings.TrimSpace(string(output)), err)}
	}
	if duration <= 0 {
		return 0, &ExtractionError{Stage: "ffprobe", Err: fmt.Errorf("non-positive duration %v", duration)}
	}
	return duration, nil
}
