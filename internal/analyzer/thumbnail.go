package analyzer

import "strings"

// expiringCDNMarkers identifies provider thumbnail hosts whose URLs expire.
// A URL matching any marker is never returned; a missing thumbnail is better
// than a link that will break after the CDN token lapses.
var expiringCDNMarkers = []string{"cdninstagram"}

// SelectThumbnail chooses the preview image for an analysis. Priority, strictly:
//
//  1. the first hosted frame URL (frames are self-hosted and never expire)
//  2. the provider thumbnail URL, unless it references an expiring CDN
//  3. empty ("" maps to thumbnailUrl: null in the caller contract)
func SelectThumbnail(frameURLs []string, providerThumbnailURL string) string {
	if len(frameURLs) > 0 && frameURLs[0] != "" {
		return frameURLs[0]
	}
	if providerThumbnailURL != "" && !isExpiringURL(providerThumbnailURL) {
		return providerThumbnailURL
	}
	return ""
}

func isExpiringURL(url string) bool {
	for _, marker := range expiringCDNMarkers {
		if strings.Contains(url, marker) {
			return true
		}
	}
	return false
}
