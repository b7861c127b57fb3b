package analyzer

import (
	"os"
	"strconv"
	"time"
)

// Defaults for the environment-tunable pipeline knobs.
const (
	// DefaultFrameCount is the number of frames sampled per video.
	DefaultFrameCount = 3

	// DefaultPipelineTimeout is the wall-clock budget for one full analysis.
	DefaultPipelineTimeout = 60 * time.Second
)

// Config holds the pipeline knobs resolved once at startup.
type Config struct {
	// FrameCount is the number of evenly spaced frames to sample.
	FrameCount int

	// Timeout bounds the whole pipeline. When it fires, the caller receives a
	// structured irrelevant verdict rather than an error.
	Timeout time.Duration
}

// ConfigFromEnv resolves the pipeline configuration:
//   - CLIPSIGHT_FRAME_COUNT: frames per video (default 3)
//   - CLIPSIGHT_PIPELINE_TIMEOUT: overall budget, Go duration syntax (default 60s)
func ConfigFromEnv() Config {
	cfg := Config{
		FrameCount: DefaultFrameCount,
		Timeout:    DefaultPipelineTimeout,
	}
	if v := os.Getenv("CLIPSIGHT_FRAME_COUNT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.FrameCount = n
		}
	}
	if v := os.Getenv("CLIPSIGHT_PIPELINE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.Timeout = d
		}
	}
	return cfg
}
