package musiclink

import (
	"net/url"
	"strings"
)

// parseAppleMusic extracts the track ID from a music.apple.com link.
// Song links inside an album carry the track ID in the "i" query parameter
// (music.apple.com/us/album/<album-slug>/<albumId>?i=<songId>). Album links
// without "i" cannot be resolved by ID; the path is kept as a raw hint so the
// caller can still show context, but it is not readable title/artist text.
func parseAppleMusic(u *url.URL) SourceRef {
	if id := firstQueryValue(u, "i"); id != "" {
		return SourceRef{Platform: PlatformAppleMusic, ID: id}
	}

	hint := strings.Trim(u.Path, "/")
	if hint == "" {
		return SourceRef{Platform: PlatformUnknown}
	}
	return SourceRef{Platform: PlatformAppleMusic, RawHint: hint}
}
