package musiclink

import (
	"net/url"
)

// parseYouTubeWatch extracts the video ID from youtube.com and
// music.youtube.com watch links, where the ID is the "v" query parameter.
func parseYouTubeWatch(u *url.URL) SourceRef {
	if id := firstQueryValue(u, "v"); id != "" {
		return SourceRef{Platform: PlatformYouTube, ID: id}
	}
	return SourceRef{Platform: PlatformUnknown}
}

// parseYouTubeShort extracts the video ID from a youtu.be short link, where
// the ID is the first path segment.
func parseYouTubeShort(u *url.URL) SourceRef {
	segments := pathSegments(u)
	if len(segments) == 0 {
		return SourceRef{Platform: PlatformUnknown}
	}
	return SourceRef{Platform: PlatformYouTube, ID: segments[0]}
}
