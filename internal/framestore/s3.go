// Package framestore persists sampled frames to S3 so analyses can reference
// thumbnail URLs that never expire. Frames are downscaled before upload;
// vision classification already ran on the full-resolution bytes, so hosted
// copies only need to look good as thumbnails.
package framestore

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"
	"golang.org/x/image/draw"

	"github.com/wanderlens/clipsight/internal/analyzer"
	"github.com/wanderlens/clipsight/internal/metrics"
)

const (
	// defaultMaxDimension caps the longest edge of a hosted frame.
	defaultMaxDimension = 400

	// hostedJPEGQuality is the re-encode quality for hosted frames.
	hostedJPEGQuality = 85
)

// S3API is the subset of the S3 client the store uses.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Store uploads downscaled frames under analyses/{requestID}/frame_NN.jpg.
type S3Store struct {
	client  S3API
	bucket  string
	urlBase string
	maxDim  int
}

// Compile-time interface check.
var _ analyzer.FrameStore = (*S3Store)(nil)

// NewS3Store creates a frame store for the given bucket. urlBase overrides the
// public URL prefix (a CloudFront distribution, typically); empty falls back
// to the direct S3 URL.
func NewS3Store(client S3API, bucket, urlBase string) *S3Store {
	return &S3Store{
		client:  client,
		bucket:  bucket,
		urlBase: strings.TrimSuffix(urlBase, "/"),
		maxDim:  defaultMaxDimension,
	}
}

// URLBaseFromEnv resolves CLIPSIGHT_FRAME_URL_BASE.
func URLBaseFromEnv() string {
	return os.Getenv("CLIPSIGHT_FRAME_URL_BASE")
}

// StoreFrames uploads every frame and returns their public URLs in frame-index
// order. The first failed upload aborts the batch; partial uploads are
// harmless orphans cleaned up by the bucket lifecycle rule.
func (s *S3Store) StoreFrames(ctx context.Context, requestID string, frames []analyzer.Frame) ([]string, error) {
	start := time.Now()
	urls := make([]string, 0, len(frames))
	var totalBytes int

	for _, frame := range frames {
		data, err := downscaleJPEG(frame.Image, s.maxDim)
		if err != nil {
			// Undecodable frame bytes: upload the original rather than drop the
			// frame from the hosted set.
			log.Warn().Err(err).Int("frame", frame.Index).Msg("Frame downscale failed, uploading original")
			data = frame.Image
		}

		key := frameKey(requestID, frame.Index)
		contentType := "image/jpeg"
		_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket: &s.bucket, Key: &key,
			Body: bytes.NewReader(data), ContentType: &contentType,
		})
		if err != nil {
			return nil, fmt.Errorf("upload frame %d: %w", frame.Index, err)
		}
		totalBytes += len(data)
		urls = append(urls, s.publicURL(key))
	}

	metrics.New().
		Dimension("Operation", "frame-hosting").
		Metric("FrameUploadBytes", float64(totalBytes), metrics.UnitBytes).
		Metric("FrameUploadLatencyMs", float64(time.Since(start).Milliseconds()), metrics.UnitMilliseconds).
		Count("FrameUploads").
		Flush()

	log.Debug().
		Str("requestId", requestID).
		Int("frames", len(urls)).
		Int("bytes", totalBytes).
		Msg("Frames hosted")
	return urls, nil
}

func frameKey(requestID string, index int) string {
	return fmt.Sprintf("analyses/%s/frame_%02d.jpg", requestID, index)
}

func (s *S3Store) publicURL(key string) string {
	if s.urlBase != "" {
		return s.urlBase + "/" + key
	}
	return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", s.bucket, key)
}

// downscaleJPEG re-encodes a JPEG so its longest edge is at most maxDim,
// preserving aspect ratio. Images already within bounds are returned as-is.
func downscaleJPEG(data []byte, maxDim int) ([]byte, error) {
	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width <= maxDim && height <= maxDim {
		return data, nil
	}

	newWidth, newHeight := scaledDimensions(width, height, maxDim)
	resized := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
	draw.CatmullRom.Scale(resized, resized.Bounds(), img, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, resized, &jpeg.Options{Quality: hostedJPEGQuality}); err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	return buf.Bytes(), nil
}

// scaledDimensions fits width x height into maxDim on the longest edge.
func scaledDimensions(width, height, maxDim int) (int, int) {
	if width >= height {
		newHeight := height * maxDim / width
		if newHeight < 1 {
			newHeight = 1
		}
		return maxDim, newHeight
	}
	newWidth := width * maxDim / height
	if newWidth < 1 {
		newWidth = 1
	}
	return newWidth, maxDim
}
