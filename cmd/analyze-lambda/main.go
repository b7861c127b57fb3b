// analyze-lambda is the HTTP entry point for the analysis pipeline, deployed
// behind API Gateway. One route does the work: POST /api/analyze takes a post
// URL and returns the structured verdict. Completed analyses are persisted to
// the history table when one is configured.
package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/awslabs/aws-lambda-go-api-proxy/httpadapter"
	"github.com/rs/zerolog/log"

	"github.com/wanderlens/clipsight/internal/analyzer"
	"github.com/wanderlens/clipsight/internal/boot"
	"github.com/wanderlens/clipsight/internal/classify"
	"github.com/wanderlens/clipsight/internal/fetch"
	"github.com/wanderlens/clipsight/internal/framestore"
	"github.com/wanderlens/clipsight/internal/logging"
	"github.com/wanderlens/clipsight/internal/sampler"
	"github.com/wanderlens/clipsight/internal/store"
)

// Initialized at cold start.
var (
	pipeline *analyzer.Analyzer
	history  store.Store
)

func init() {
	initStart := time.Now()
	logging.Init()

	ctx := context.Background()
	aws, err := boot.InitAWS(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize AWS clients")
	}
	if err := aws.LoadGeminiKey(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to load Gemini API key")
	}

	gemini, err := classify.NewClient(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Gemini client")
	}

	providers := buildProviders()
	if len(providers) == 0 {
		log.Fatal().Msg("No content providers configured")
	}

	cfg := analyzer.ConfigFromEnv()

	var frames analyzer.FrameStore
	frameBucket := os.Getenv("CLIPSIGHT_FRAME_BUCKET")
	if frameBucket != "" {
		aws.WithS3()
		frames = framestore.NewS3Store(aws.S3, frameBucket, framestore.URLBaseFromEnv())
	}

	analysesTable := os.Getenv("CLIPSIGHT_ANALYSES_TABLE")
	if analysesTable != "" {
		aws.WithDynamo()
		history = store.NewDynamoStore(aws.Dynamo, analysesTable)
	}

	textModel := classify.TextModelName()
	pipeline = analyzer.New(
		fetch.NewClient(providers...),
		&sampler.FFmpegSampler{},
		classify.NewTextClassifier(gemini, textModel),
		classify.NewVisionClassifier(gemini, classify.VisionModelName(), classify.VisionConcurrencyFromEnv()),
		analyzer.NewAdmissionFilter(analyzer.DefaultTaxonomy(), classify.NewBoringClassifier(gemini, textModel)),
		frames,
		cfg,
	)

	logging.NewStartupLogger("analyze-lambda").
		S3Bucket("frames", frameBucket).
		DynamoTable("analyses", analysesTable).
		Feature("frameStore", frames != nil).
		Feature("history", history != nil).
		Config("frameCount", logging.EnvOrDefault("CLIPSIGHT_FRAME_COUNT", "3")).
		Config("textModel", textModel).
		Config("visionModel", classify.VisionModelName()).
		Config("pipelineTimeout", cfg.Timeout.String()).
		InitDuration(time.Since(initStart)).
		Log()
}

// buildProviders assembles the ordered provider chain from the environment.
// The primary provider is tried first; the fallback only runs when the primary
// fails.
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

func main() {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/health", handleHealth)
	mux.HandleFunc("/api/analyze", handleAnalyze)

	adapter := httpadapter.NewV2(mux)
	lambda.Start(adapter.ProxyWithContext)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "clipsight",
	})
}

// analyzeRequest is the POST /api/analyze body.
type analyzeRequest struct {
	PostURL string `json:"postUrl"`
}

func handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httpError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	req.PostURL = strings.TrimSpace(req.PostURL)
	if req.PostURL == "" {
		httpError(w, http.StatusBadRequest, "postUrl is required")
		return
	}
	if !strings.HasPrefix(req.PostURL, "https://") && !strings.HasPrefix(req.PostURL, "http://") {
		httpError(w, http.StatusBadRequest, "postUrl must be an absolute http(s) URL")
		return
	}

	analysis, err := pipeline.Analyze(r.Context(), req.PostURL)
	if err != nil {
		log.Error().Err(err).Str("postUrl", req.PostURL).Msg("Analysis failed")
		httpError(w, http.StatusBadGateway, "analysis failed", err.Error())
		return
	}

	// History write is best-effort; the verdict is already in hand.
	if history != nil {
		rec := store.Record{
			RequestID:  analysis.RequestID,
			PostURL:    req.PostURL,
			Analysis:   *analysis,
			AnalyzedAt: time.Now().UTC(),
		}
		if err := history.PutAnalysis(r.Context(), rec); err != nil {
			log.Warn().Err(err).Str("postUrl", req.PostURL).Msg("Failed to persist analysis history")
		}
	}

	respondJSON(w, http.StatusOK, analysis)
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// httpError sends a JSON error response. Optional internalDetails are logged
// server-side but never sent to the client.
func httpError(w http.ResponseWriter, status int, clientMsg string, internalDetails ...string) {
	if len(internalDetails) > 0 {
		log.Error().
			Int("status", status).
			Str("clientMsg", clientMsg).
			Strs("internalDetails", internalDetails).
			Msg("HTTP error with internal details")
	}
	respondJSON(w, status, map[string]string{"error": clientMsg})
}
