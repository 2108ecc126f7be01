package musiclink

import (
	"net/url"
	"strings"
)

// Parse determines the source platform of rawURL and extracts a track
// identifier (or a raw hint when the link carries no ID). It never fails:
// malformed or unrecognized input yields a SourceRef with PlatformUnknown.
func Parse(rawURL string) SourceRef {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" {
		return SourceRef{Platform: PlatformUnknown}
	}

	host := strings.ToLower(u.Hostname())

	switch {
	case strings.Contains(host, "open.spotify.com"):
		return parseSpotify(u)
	case strings.Contains(host, "music.apple.com"):
		return parseAppleMusic(u)
	case strings.Contains(host, "music.youtube.com"), strings.Contains(host, "youtube.com"):
		return parseYouTubeWatch(u)
	case host == "youtu.be" || strings.HasSuffix(host, ".youtu.be"):
		return parseYouTubeShort(u)
	}

	return SourceRef{Platform: PlatformUnknown}
}

// firstQueryValue returns the first occurrence of the named query parameter.
// url.Values preserves per-key ordering, so Get already picks the first value
// when the parameter repeats.
func firstQueryValue(u *url.URL, name string) string {
	return u.Query().Get(name)
}

// pathSegments splits a URL path into its non-empty segments, which also
// discards trailing slashes.
func pathSegments(u *url.URL) []string {
	var segments []string
	for _, part := range strings.Split(u.Path, "/") {
		if part != "" {
			segments = append(segments, part)
		}
	}
	return segments
}
