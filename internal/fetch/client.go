package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/wanderlens/clipsight/internal/analyzer"
)

// downloadTimeout bounds the raw video byte download. Short social videos are
// typically well under 50 MB, but slow CDNs need headroom.
const downloadTimeout = 45 * time.Second

// maxVideoBytes caps the video download to guard scratch storage.
const maxVideoBytes = 200 * 1024 * 1024

// Client is the content fetcher: it tries providers strictly in order and
// downloads the first usable video URL in a separate call (the resolved URL is
// a pointer, not the content).
type Client struct {
	providers  []Provider
	httpClient *http.Client
}

// NewClient creates a fetcher over the given providers, tried in argument order.
func NewClient(providers ...Provider) *Client {
	return &Client{
		providers: providers,
		httpClient: &http.Client{
			Timeout: downloadTimeout,
		},
	}
}

// Compile-time interface check.
var _ analyzer.Fetcher = (*Client)(nil)

// Fetch resolves and downloads the post's video. On any provider error
// (network, non-2xx, missing video field, failed byte download) it logs and
// falls through to the next provider. When a provider succeeds, its caption,
// location, and thumbnail metadata ride along with the video bytes.
func (c *Client) Fetch(ctx context.Context, postURL string) (*analyzer.RawContent, error) {
	var lastErr error

	for _, p := range c.providers {
		media, err := p.Resolve(ctx, postURL)
		if err != nil {
			log.Warn().Err(err).Str("provider", p.Name()).Msg("Provider attempt failed, trying next")
			lastErr = err
			continue
		}

		video, err := c.download(ctx, media.VideoURL)
		if err != nil {
			log.Warn().Err(err).Str("provider", p.Name()).Msg("Video download failed, trying next provider")
			lastErr = err
			continue
		}

		log.Info().
			Str("provider", p.Name()).
			Int("videoBytes", len(video)).
			Msg("Post content fetched")

		return &analyzer.RawContent{
			Video:        video,
			Caption:      media.Caption,
			Hashtags:     ScanHashtags(media.Caption),
			LocationTag:  media.LocationTag,
			ThumbnailURL: media.ThumbnailURL,
		}, nil
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("no providers configured")
	}
	return nil, &DownloadError{PostURL: postURL, Attempts: len(c.providers), Err: lastErr}
}

// download fetches the raw video bytes from the resolved URL.
func (c *Client) download(ctx context.Context, videoURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, videoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download video: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download video: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxVideoBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read video body: %w", err)
	}
	if len(data) > maxVideoBytes {
		return nil, fmt.Errorf("video exceeds %d byte limit", maxVideoBytes)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("download video: empty body")
	}
	return data, nil
}
