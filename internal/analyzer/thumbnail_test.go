package analyzer

import "testing"

func TestSelectThumbnailPrefersHostedFrame(t *testing.T) {
	frames := []string{"https://cdn.wanderlens.app/analyses/abc/frame_00.jpg"}
	provider := "https://scontent.cdninstagram.com/v/t51.2885-15/thumb.jpg"

	if got := SelectThumbnail(frames, provider); got != frames[0] {
		t.Errorf("expected hosted frame, got %q", got)
	}
}

func TestSelectThumbnailFrameBeatsNonExpiringProvider(t *testing.T) {
	frames := []string{"https://cdn.wanderlens.app/analyses/abc/frame_00.jpg"}
	provider := "https://img.provider.example/thumb.jpg"

	if got := SelectThumbnail(frames, provider); got != frames[0] {
		t.Errorf("expected hosted frame over provider URL, got %q", got)
	}
}

func TestSelectThumbnailProviderFallback(t *testing.T) {
	provider := "https://img.provider.example/thumb.jpg"

	if got := SelectThumbnail(nil, provider); got != provider {
		t.Errorf("expected provider URL, got %q", got)
	}
}

func TestSelectThumbnailNeverReturnsExpiringURL(t *testing.T) {
	provider := "https://scontent.cdninstagram.com/v/t51.2885-15/thumb.jpg"

	// Even as the only option, an expiring URL is never returned.
	if got := SelectThumbnail(nil, provider); got != "" {
		t.Errorf("expected empty result, got %q", got)
	}
}

func TestSelectThumbnailNothingAvailable(t *testing.T) {
	if got := SelectThumbnail(nil, ""); got != "" {
		t.Errorf("expected empty result, got %q", got)
	}
	if got := SelectThumbnail([]string{""}, ""); got != "" {
		t.Errorf("expected empty result for blank frame URL, got %q", got)
	}
}
