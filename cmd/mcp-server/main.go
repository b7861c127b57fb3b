// mcp-server exposes the analysis pipeline as an MCP tool over stdio, so
// agent frontends can classify posts without going through the HTTP API.
package main

import (
	"context"
	"os"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"

	"github.com/wanderlens/clipsight/internal/analyzer"
	"github.com/wanderlens/clipsight/internal/classify"
	"github.com/wanderlens/clipsight/internal/fetch"
	"github.com/wanderlens/clipsight/internal/logging"
	"github.com/wanderlens/clipsight/internal/sampler"
)

// analyzeInput is the analyze_post tool input schema.
type analyzeInput struct {
	PostURL string `json:"postUrl" jsonschema:"the social post URL to analyze"`
}

func main() {
	logging.Init()
	ctx := context.Background()

	client, err := classify.NewClient(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Gemini client")
	}

	providers := buildProviders()
	if len(providers) == 0 {
		log.Fatal().Msg("No content providers configured; set CLIPSIGHT_PRIMARY_PROVIDER_URL")
	}

	textModel := classify.TextModelName()
	pipeline := analyzer.New(
		fetch.NewClient(providers...),
		&sampler.FFmpegSampler{},
		classify.NewTextClassifier(client, textModel),
		classify.NewVisionClassifier(client, classify.VisionModelName(), classify.VisionConcurrencyFromEnv()),
		analyzer.NewAdmissionFilter(analyzer.DefaultTaxonomy(), classify.NewBoringClassifier(client, textModel)),
		nil,
		analyzer.ConfigFromEnv(),
	)

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "clipsight",
		Version: "1.0.0",
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name: "analyze_post",
		Description: "Download a social video post, sample frames, and classify it as a " +
			"travel activity, landscape, or irrelevant content. Returns the structured verdict.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, input analyzeInput) (*mcp.CallToolResult, *analyzer.Analysis, error) {
		analysis, err := pipeline.Analyze(ctx, input.PostURL)
		if err != nil {
			return nil, nil, err
		}
		return nil, analysis, nil
	})

	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil {
		log.Fatal().Err(err).Msg("MCP server exited")
	}
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
