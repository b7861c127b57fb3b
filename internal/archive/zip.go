// Package archive builds debug bundles: a zstd-compressed ZIP holding the
// analysis verdict plus every sampled frame, for offline inspection of why a
// post was classified the way it was.
package archive

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/rs/zerolog/log"

	"github.com/wanderlens/clipsight/internal/analyzer"
)

// zipMethodZstd is the ZIP compression method ID for Zstandard (APPNOTE 6.3.7).
const zipMethodZstd uint16 = 93

func init() {
	zip.RegisterCompressor(zipMethodZstd, func(w io.Writer) (io.WriteCloser, error) {
		return zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
	})
}

// Bundle is the input to WriteDebugArchive.
type Bundle struct {
	RequestID string
	PostURL   string
	Analysis  *analyzer.Analysis
	Frames    []analyzer.Frame
}

// manifest is the analysis.json payload inside the archive.
type manifest struct {
	RequestID  string             `json:"requestId"`
	PostURL    string             `json:"postUrl"`
	AnalyzedAt time.Time          `json:"analyzedAt"`
	Analysis   *analyzer.Analysis `json:"analysis"`
}

// WriteDebugArchive writes the bundle to path as a ZIP containing
// analysis.json and frame_NN.jpg entries. Frames are already JPEG-compressed,
// so zstd mainly earns its keep on the manifest; one method keeps the archive
// uniform.
func WriteDebugArchive(path string, b Bundle) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create debug archive: %w", err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)

	if err := writeManifest(zw, b); err != nil {
		zw.Close()
		return err
	}
	for _, frame := range b.Frames {
		if err := writeEntry(zw, fmt.Sprintf("frame_%02d.jpg", frame.Index), frame.Image); err != nil {
			zw.Close()
			return err
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("finalize debug archive: %w", err)
	}

	log.Debug().
		Str("path", path).
		Str("requestId", b.RequestID).
		Int("frames", len(b.Frames)).
		Msg("Debug archive written")
	return nil
}

func writeManifest(zw *zip.Writer, b Bundle) error {
	data, err := json.MarshalIndent(manifest{
		RequestID:  b.RequestID,
		PostURL:    b.PostURL,
		AnalyzedAt: time.Now().UTC(),
		Analysis:   b.Analysis,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal analysis manifest: %w", err)
	}
	return writeEntry(zw, "analysis.json", data)
}

func writeEntry(zw *zip.Writer, name string, data []byte) error {
	header := &zip.FileHeader{
		Name:     name,
		Method:   zipMethodZstd,
		Modified: time.Now(),
	}
	w, err := zw.CreateHeader(header)
	if err != nil {
		return fmt.Errorf("create archive entry %s: %w", name, err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write archive entry %s: %w", name, err)
	}
	return nil
}
