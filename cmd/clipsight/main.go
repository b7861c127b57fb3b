package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/wanderlens/clipsight/internal/analyzer"
	"github.com/wanderlens/clipsight/internal/archive"
	"github.com/wanderlens/clipsight/internal/classify"
	"github.com/wanderlens/clipsight/internal/fetch"
	"github.com/wanderlens/clipsight/internal/logging"
	"github.com/wanderlens/clipsight/internal/sampler"
)

// CLI flags
var (
	framesFlag      int
	concurrencyFlag int
	modelFlag       string
	visionModelFlag string
	timeoutFlag     time.Duration
	taxonomyFlag    string
	debugArchive    string
)

// rootCmd is the main Cobra command for the clipsight CLI.
var rootCmd = &cobra.Command{
	Use:   "clipsight <post-url>",
	Short: "Classify a social video post as a travel activity or landscape",
	Long: `ClipSight downloads a social video post, samples frames from it, and uses
Gemini to decide whether the post shows a travel-worthy activity or landscape.
The verdict is printed as JSON.

Provider endpoints come from CLIPSIGHT_PRIMARY_PROVIDER_URL and
CLIPSIGHT_FALLBACK_PROVIDER_URL; the Gemini key from GEMINI_API_KEY.

Examples:
  clipsight https://instagram.com/p/abc123
  clipsight --frames 5 --timeout 90s https://instagram.com/p/abc123
  clipsight --taxonomy ./activities.json https://instagram.com/p/abc123
  clipsight --debug-archive ./debug.zip https://instagram.com/p/abc123`,
	Args: cobra.ExactArgs(1),
	Run:  runMain,
}

func init() {
	rootCmd.Flags().IntVar(&framesFlag, "frames", 0, "Frames to sample per video (default from CLIPSIGHT_FRAME_COUNT or 3)")
	rootCmd.Flags().IntVar(&concurrencyFlag, "concurrency", 0, "Vision worker pool size (default from CLIPSIGHT_VISION_CONCURRENCY or 10)")
	rootCmd.Flags().StringVarP(&modelFlag, "model", "m", "", "Gemini model for text classification")
	rootCmd.Flags().StringVar(&visionModelFlag, "vision-model", "", "Gemini model for frame classification")
	rootCmd.Flags().DurationVar(&timeoutFlag, "timeout", 0, "Pipeline wall-clock budget (default from CLIPSIGHT_PIPELINE_TIMEOUT or 60s)")
	rootCmd.Flags().StringVar(&taxonomyFlag, "taxonomy", "", "Path to a JSON array of valid activity names (default: embedded list)")
	rootCmd.Flags().StringVar(&debugArchive, "debug-archive", "", "Write a ZIP with the verdict and sampled frames to this path")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// runMain is the main execution logic called by Cobra.
func runMain(cmd *cobra.Command, args []string) {
	logging.Init()
	postURL := args[0]

	ctx := context.Background()
	client, err := classify.NewClient(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Gemini client")
	}

	providers := buildProviders()
	if len(providers) == 0 {
		log.Fatal().Msg("No content providers configured; set CLIPSIGHT_PRIMARY_PROVIDER_URL")
	}

	cfg := analyzer.ConfigFromEnv()
	if framesFlag > 0 {
		cfg.FrameCount = framesFlag
	}
	if timeoutFlag > 0 {
		cfg.Timeout = timeoutFlag
	}

	textModel := modelFlag
	if textModel == "" {
		textModel = classify.TextModelName()
	}
	visionModel := visionModelFlag
	if visionModel == "" {
		visionModel = classify.VisionModelName()
	}
	concurrency := concurrencyFlag
	if concurrency <= 0 {
		concurrency = classify.VisionConcurrencyFromEnv()
	}

	taxonomy := analyzer.DefaultTaxonomy()
	if taxonomyFlag != "" {
		taxonomy, err = analyzer.LoadTaxonomy(taxonomyFlag)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to load taxonomy")
		}
	}

	// The CLI keeps sampled frames in hand when a debug archive was requested.
	smplr := analyzer.Sampler(&sampler.FFmpegSampler{})
	var captured *capturingSampler
	if debugArchive != "" {
		captured = &capturingSampler{inner: smplr}
		smplr = captured
	}

	pipeline := analyzer.New(
		fetch.NewClient(providers...),
		smplr,
		classify.NewTextClassifier(client, textModel),
		classify.NewVisionClassifier(client, visionModel, concurrency),
		analyzer.NewAdmissionFilter(taxonomy, classify.NewBoringClassifier(client, textModel)),
		nil,
		cfg,
	)

	analysis, err := pipeline.Analyze(ctx, postURL)
	if err != nil {
		log.Fatal().Err(err).Str("postUrl", postURL).Msg("Analysis failed")
	}

	if debugArchive != "" {
		bundle := archive.Bundle{
			RequestID: analysis.RequestID,
			PostURL:   postURL,
			Analysis:  analysis,
			Frames:    captured.frames,
		}
		if err := archive.WriteDebugArchive(debugArchive, bundle); err != nil {
			log.Warn().Err(err).Str("path", debugArchive).Msg("Failed to write debug archive")
		} else {
			fmt.Fprintf(os.Stderr, "Debug archive written to %s\n", debugArchive)
		}
	}

	out, err := json.MarshalIndent(analysis, "", "  ")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to encode analysis")
	}
	fmt.Println(string(out))
}

// buildProviders assembles the ordered provider chain from the environment.
func buildProviders() []fetch.Provider {
	var providers []fetch.Provider
	if url := os.Getenv("CLIPSIGHT_PRIMARY_PROVIDER_URL"); url != "" {
		providers = append(providers, fetch.NewScrapeProvider(
			"primary", url, os.Getenv("CLIPSIGHT_PRIMARY_PROVIDER_KEY")))
	}
	if url := os.Getenv("CLIPSIGHT_FALLBACK_PROVIDER_URL"); url != "" {
		providers = append(providers, fetch.NewScrapeProvider(
			"fallback", url, os.Getenv("CLIPSIGHT_FALLBACK_PROVIDER_KEY")))
	}
	return providers
}

// capturingSampler wraps a Sampler and retains the sampled frames for the
// debug archive.
type capturingSampler struct {
	inner  analyzer.Sampler
	frames []analyzer.Frame
}

func (c *capturingSampler) Sample(ctx context.Context, video []byte, count int) ([]analyzer.Frame, error) {
	frames, err := c.inner.Sample(ctx, video, count)
	if err == nil {
		c.frames = frames
	}
	return frames, err
}
