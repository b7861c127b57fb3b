package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
)

// newVideoServer serves fake video bytes at /video.mp4.
func newVideoServer(t *testing.T, payload []byte) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/video.mp4" {
			http.NotFound(w, r)
			return
		}
		w.Write(payload)
	}))
}

// newProviderServer serves a ProviderMedia JSON response.
func newProviderServer(t *testing.T, status int, media *ProviderMedia) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("url") == "" {
			t.Error("expected url query parameter")
		}
		w.WriteHeader(status)
		if media != nil {
			json.NewEncoder(w).Encode(media)
		}
	}))
}

func TestFetchFirstProviderWins(t *testing.T) {
	video := newVideoServer(t, []byte("first-provider-video"))
	defer video.Close()

	primary := newProviderServer(t, http.StatusOK, &ProviderMedia{
		VideoURL:     video.URL + "/video.mp4",
		Caption:      "sunrise hike #hiking #alps",
		LocationTag:  "Zermatt",
		ThumbnailURL: "https://img.provider.example/t.jpg",
	})
	defer primary.Close()

	fallbackCalled := false
	fallback := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fallbackCalled = true
	}))
	defer fallback.Close()

	client := NewClient(
		NewScrapeProvider("primary", primary.URL, "key-1"),
		NewScrapeProvider("fallback", fallback.URL, ""),
	)

	raw, err := client.Fetch(context.Background(), "https://instagram.com/p/abc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(raw.Video) != "first-provider-video" {
		t.Errorf("unexpected video bytes: %q", raw.Video)
	}
	if raw.Caption != "sunrise hike #hiking #alps" {
		t.Errorf("unexpected caption: %q", raw.Caption)
	}
	if !reflect.DeepEqual(raw.Hashtags, []string{"hiking", "alps"}) {
		t.Errorf("unexpected hashtags: %v", raw.Hashtags)
	}
	if raw.LocationTag != "Zermatt" {
		t.Errorf("unexpected location: %q", raw.LocationTag)
	}
	if fallbackCalled {
		t.Error("fallback provider must not be called when primary succeeds")
	}
}

func TestFetchFallsThroughOnProviderError(t *testing.T) {
	video := newVideoServer(t, []byte("fallback-video"))
	defer video.Close()

	primary := newProviderServer(t, http.StatusBadGateway, nil)
	defer primary.Close()

	fallback := newProviderServer(t, http.StatusOK, &ProviderMedia{VideoURL: video.URL + "/video.mp4"})
	defer fallback.Close()

	client := NewClient(
		NewScrapeProvider("primary", primary.URL, ""),
		NewScrapeProvider("fallback", fallback.URL, ""),
	)

	raw, err := client.Fetch(context.Background(), "https://instagram.com/p/abc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(raw.Video) != "fallback-video" {
		t.Errorf("expected fallback video, got %q", raw.Video)
	}
}

func TestFetchFallsThroughOnMissingVideoURL(t *testing.T) {
	video := newVideoServer(t, []byte("v"))
	defer video.Close()

	// Primary answers 200 but without a video URL.
	primary := newProviderServer(t, http.StatusOK, &ProviderMedia{Caption: "caption only"})
	defer primary.Close()

	fallback := newProviderServer(t, http.StatusOK, &ProviderMedia{VideoURL: video.URL + "/video.mp4"})
	defer fallback.Close()

	client := NewClient(
		NewScrapeProvider("primary", primary.URL, ""),
		NewScrapeProvider("fallback", fallback.URL, ""),
	)

	if _, err := client.Fetch(context.Background(), "https://instagram.com/p/abc"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestFetchAllProvidersFail(t *testing.T) {
	primary := newProviderServer(t, http.StatusInternalServerError, nil)
	defer primary.Close()
	fallback := newProviderServer(t, http.StatusNotFound, nil)
	defer fallback.Close()

	client := NewClient(
		NewScrapeProvider("primary", primary.URL, ""),
		NewScrapeProvider("fallback", fallback.URL, ""),
	)

	_, err := client.Fetch(context.Background(), "https://instagram.com/p/abc")
	var dlErr *DownloadError
	if !errors.As(err, &dlErr) {
		t.Fatalf("expected DownloadError, got %v", err)
	}
	if dlErr.Attempts != 2 {
		t.Errorf("expected 2 attempts, got %d", dlErr.Attempts)
	}
}

func TestFetchFailedByteDownloadFallsThrough(t *testing.T) {
	// Primary resolves a video URL that 404s on download.
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer broken.Close()

	video := newVideoServer(t, []byte("good"))
	defer video.Close()

	primary := newProviderServer(t, http.StatusOK, &ProviderMedia{VideoURL: broken.URL + "/gone.mp4"})
	defer primary.Close()
	fallback := newProviderServer(t, http.StatusOK, &ProviderMedia{VideoURL: video.URL + "/video.mp4"})
	defer fallback.Close()

	client := NewClient(
		NewScrapeProvider("primary", primary.URL, ""),
		NewScrapeProvider("fallback", fallback.URL, ""),
	)

	raw, err := client.Fetch(context.Background(), "https://instagram.com/p/abc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(raw.Video) != "good" {
		t.Errorf("expected fallback video, got %q", raw.Video)
	}
}

func TestScanHashtags(t *testing.T) {
	cases := []struct {
		caption string
		want    []string
	}{
		{"surf trip #surfing #bali2024 #fun_times", []string{"surfing", "bali2024", "fun_times"}},
		{"no tags here", nil},
		{"", nil},
		{"#solo", []string{"solo"}},
	}
	for _, tc := range cases {
		if got := ScanHashtags(tc.caption); !reflect.DeepEqual(got, tc.want) {
			t.Errorf("ScanHashtags(%q) = %v, want %v", tc.caption, got, tc.want)
		}
	}
}
