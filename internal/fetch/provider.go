package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"
)

// providerTimeout is the HTTP timeout for a single provider resolve call.
// Scraping APIs routinely take 10-15s on cold posts.
const providerTimeout = 20 * time.Second

// ProviderMedia is a provider's answer for one post. VideoURL is required for
// the attempt to count as usable; the text fields are passthrough metadata.
type ProviderMedia struct {
	VideoURL     string `json:"videoUrl"`
	Caption      string `json:"caption"`
	LocationTag  string `json:"locationTag"`
	ThumbnailURL string `json:"thumbnailUrl"`
}

// Provider resolves a post URL to downloadable media via one upstream service.
type Provider interface {
	// Name identifies the provider in logs and errors.
	Name() string

	// Resolve returns the media descriptor for a post, or an error for any
	// network failure, non-2xx status, or missing video field.
	Resolve(ctx context.Context, postURL string) (*ProviderMedia, error)
}

// ScrapeProvider is a Provider backed by an HTTP scraping API that accepts the
// post URL as a query parameter and returns a JSON media descriptor.
type ScrapeProvider struct {
	name       string
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewScrapeProvider creates a provider for the given scraping API endpoint.
// apiKey may be empty for keyless endpoints.
func NewScrapeProvider(name, baseURL, apiKey string) *ScrapeProvider {
	return &ScrapeProvider{
		name:    name,
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: providerTimeout,
		},
	}
}

func (p *ScrapeProvider) Name() string {
	return p.name
}

// Resolve calls GET {baseURL}?url={postURL} and decodes the media descriptor.
func (p *ScrapeProvider) Resolve(ctx context.Context, postURL string) (*ProviderMedia, error) {
	reqURL := fmt.Sprintf("%s?url=%s", p.baseURL, url.QueryEscape(postURL))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if p.apiKey != "" {
		req.Header.Set("X-Api-Key", p.apiKey)
	}

	start := time.Now()
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("resolve via %s: %w", p.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("resolve via %s: status %d: %s", p.name, resp.StatusCode, string(body))
	}

	var media ProviderMedia
	if err := json.NewDecoder(resp.Body).Decode(&media); err != nil {
		return nil, fmt.Errorf("resolve via %s: decode response: %w", p.name, err)
	}
	if media.VideoURL == "" {
		return nil, fmt.Errorf("resolve via %s: response has no video URL", p.name)
	}

	log.Debug().
		Str("provider", p.name).
		Dur("elapsed", time.Since(start)).
		Bool("hasCaption", media.Caption != "").
		Bool("hasThumbnail", media.ThumbnailURL != "").
		Msg("Provider resolved post")

	return &media, nil
}
