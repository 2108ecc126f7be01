// Package musiclink parses music streaming links into platform identifiers.
package musiclink

// Platform identifies a supported music streaming service.
type Platform string

const (
	// PlatformSpotify is the Spotify streaming service.
	PlatformSpotify Platform = "spotify"
	// PlatformAppleMusic is the Apple Music streaming service.
	PlatformAppleMusic Platform = "apple"
	// PlatformYouTube is YouTube / YouTube Music.
	PlatformYouTube Platform = "youtube"
	// PlatformUnknown is any unrecognized service.
	PlatformUnknown Platform = ""
)

// ParsePlatform maps a user-supplied platform name to a Platform.
// Unrecognized values map to PlatformUnknown.
func ParsePlatform(s string) Platform {
	switch s {
	case "spotify":
		return PlatformSpotify
	case "apple", "applemusic", "apple_music", "itunes":
		return PlatformAppleMusic
	case "youtube", "yt":
		return PlatformYouTube
	}
	return PlatformUnknown
}

// Known reports whether p is one of the supported platforms.
func (p Platform) Known() bool {
	return p == PlatformSpotify || p == PlatformAppleMusic || p == PlatformYouTube
}

// SourceRef is the result of parsing an inbound link: the platform the link
// belongs to and either a platform-native track ID or a raw textual hint.
// At most one of ID and RawHint is set; both are empty when the platform is
// unknown.
type SourceRef struct {
	Platform Platform
	ID       string
	RawHint  string
}
