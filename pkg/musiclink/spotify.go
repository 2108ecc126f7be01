package musiclink

import (
	"net/url"
)

// parseSpotify extracts the track ID from an open.spotify.com link.
// The ID is the path segment immediately following "track"; links without a
// /track/ segment carry no ID and are treated as unknown.
func parseSpotify(u *url.URL) SourceRef {
	segments := pathSegments(u)
	for i, segment := range segments {
		if segment == "track" && i+1 < len(segments) {
			return SourceRef{Platform: PlatformSpotify, ID: segments[i+1]}
		}
	}
	return SourceRef{Platform: PlatformUnknown}
}
