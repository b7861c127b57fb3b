// Package fetch resolves a social post URL into raw video bytes plus the text
// metadata the origin platform exposes (caption, hashtags, location tag,
// provider thumbnail). Upstream scraping providers are tried strictly in
// priority order. Each call may have cost or side effects, so providers are
// never raced concurrently.
package fetch

import (
	"fmt"
	"regexp"
)

// DownloadError is the fatal failure returned when every provider attempt
// failed. Callers must treat it as "cannot analyze", never as "irrelevant
// content".
type DownloadError struct {
	PostURL  string
	Attempts int
	Err      error
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("download %s: all %d provider attempts failed: %v", e.PostURL, e.Attempts, e.Err)
}

func (e *DownloadError) Unwrap() error {
	return e.Err
}

// hashtagRe matches #tokens in captions.
var hashtagRe = regexp.MustCompile(`#([\pL\pN_]+)`)

// ScanHashtags extracts hashtag tokens (without the #) from a caption, in
// order of appearance.
func ScanHashtags(caption string) []string {
	matches := hashtagRe.FindAllStringSubmatch(caption, -1)
	if len(matches) == 0 {
		return nil
	}
	tags := make([]string, 0, len(matches))
	for _, m := range matches {
		tags = append(tags, m[1])
	}
	return tags
}
