package musiclink

import (
	"testing"
)

func TestParse_Spotify(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		expected SourceRef
	}{
		{
			name:     "Standard track URL",
			url:      "https://open.spotify.com/track/7ouMYWpwJ422jRcDASZB7P",
			expected: SourceRef{Platform: PlatformSpotify, ID: "7ouMYWpwJ422jRcDASZB7P"},
		},
		{
			name:     "Track URL with query parameters",
			url:      "https://open.spotify.com/track/7ouMYWpwJ422jRcDASZB7P?si=abc123",
			expected: SourceRef{Platform: PlatformSpotify, ID: "7ouMYWpwJ422jRcDASZB7P"},
		},
		{
			name:     "Localized track URL",
			url:      "https://open.spotify.com/intl-de/track/7ouMYWpwJ422jRcDASZB7P",
			expected: SourceRef{Platform: PlatformSpotify, ID: "7ouMYWpwJ422jRcDASZB7P"},
		},
		{
			name:     "Trailing slash",
			url:      "https://open.spotify.com/track/7ouMYWpwJ422jRcDASZB7P/",
			expected: SourceRef{Platform: PlatformSpotify, ID: "7ouMYWpwJ422jRcDASZB7P"},
		},
		{
			name:     "Uppercase host",
			url:      "https://OPEN.SPOTIFY.COM/track/7ouMYWpwJ422jRcDASZB7P",
			expected: SourceRef{Platform: PlatformSpotify, ID: "7ouMYWpwJ422jRcDASZB7P"},
		},
		{
			name:     "Album URL has no track ID",
			url:      "https://open.spotify.com/album/6DEjYFkNZh67HP7R9PSZvv",
			expected: SourceRef{Platform: PlatformUnknown},
		},
		{
			name:     "Bare track path",
			url:      "https://open.spotify.com/track/",
			expected: SourceRef{Platform: PlatformUnknown},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Parse(tt.url)
			if result != tt.expected {
				t.Errorf("Parse(%q) = %+v, want %+v", tt.url, result, tt.expected)
			}
		})
	}
}

func TestParse_AppleMusic(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		expected SourceRef
	}{
		{
			name:     "Song link with i parameter",
			url:      "https://music.apple.com/us/album/shape-of-you/1193700000?i=1193700001",
			expected: SourceRef{Platform: PlatformAppleMusic, ID: "1193700001"},
		},
		{
			name:     "Repeated i parameter takes the first",
			url:      "https://music.apple.com/us/album/x/1?i=111&i=222",
			expected: SourceRef{Platform: PlatformAppleMusic, ID: "111"},
		},
		{
			name:     "Album link keeps path as raw hint",
			url:      "https://music.apple.com/us/album/divide/1190000000",
			expected: SourceRef{Platform: PlatformAppleMusic, RawHint: "us/album/divide/1190000000"},
		},
		{
			name:     "Bare host",
			url:      "https://music.apple.com/",
			expected: SourceRef{Platform: PlatformUnknown},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Parse(tt.url)
			if result != tt.expected {
				t.Errorf("Parse(%q) = %+v, want %+v", tt.url, result, tt.expected)
			}
		})
	}
}

func TestParse_YouTube(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		expected SourceRef
	}{
		{
			name:     "Watch URL",
			url:      "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
			expected: SourceRef{Platform: PlatformYouTube, ID: "dQw4w9WgXcQ"},
		},
		{
			name:     "YouTube Music URL",
			url:      "https://music.youtube.com/watch?v=dQw4w9WgXcQ",
			expected: SourceRef{Platform: PlatformYouTube, ID: "dQw4w9WgXcQ"},
		},
		{
			name:     "Short URL",
			url:      "https://youtu.be/dQw4w9WgXcQ",
			expected: SourceRef{Platform: PlatformYouTube, ID: "dQw4w9WgXcQ"},
		},
		{
			name:     "Short URL with query parameters",
			url:      "https://youtu.be/dQw4w9WgXcQ?t=42",
			expected: SourceRef{Platform: PlatformYouTube, ID: "dQw4w9WgXcQ"},
		},
		{
			name:     "Watch URL with playlist parameter",
			url:      "https://www.youtube.com/watch?v=dQw4w9WgXcQ&list=PLabc",
			expected: SourceRef{Platform: PlatformYouTube, ID: "dQw4w9WgXcQ"},
		},
		{
			name:     "Repeated v parameter takes the first",
			url:      "https://www.youtube.com/watch?v=first&v=second",
			expected: SourceRef{Platform: PlatformYouTube, ID: "first"},
		},
		{
			name:     "Watch URL without video ID",
			url:      "https://www.youtube.com/feed/subscriptions",
			expected: SourceRef{Platform: PlatformUnknown},
		},
		{
			name:     "Empty short URL",
			url:      "https://youtu.be/",
			expected: SourceRef{Platform: PlatformUnknown},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Parse(tt.url)
			if result != tt.expected {
				t.Errorf("Parse(%q) = %+v, want %+v", tt.url, result, tt.expected)
			}
		})
	}
}

func TestParse_ShortFormAndWatchFormAgree(t *testing.T) {
	long := Parse("https://www.youtube.com/watch?v=dQw4w9WgXcQ")
	short := Parse("https://youtu.be/dQw4w9WgXcQ")

	if long.ID != short.ID || long.Platform != short.Platform {
		t.Errorf("watch form %+v and short form %+v should extract the same ID", long, short)
	}
}

func TestParse_Unknown(t *testing.T) {
	tests := []struct {
		name string
		url  string
	}{
		{name: "Unsupported domain", url: "https://example.com/song"},
		{name: "SoundCloud link", url: "https://soundcloud.com/artist/track"},
		{name: "Malformed URL", url: "://not-a-url"},
		{name: "Empty string", url: ""},
		{name: "No host", url: "/track/7ouMYWpwJ422jRcDASZB7P"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Parse(tt.url)
			if result.Platform != PlatformUnknown {
				t.Errorf("Parse(%q).Platform = %q, want unknown", tt.url, result.Platform)
			}
			if result.ID != "" || result.RawHint != "" {
				t.Errorf("Parse(%q) = %+v, want no ID and no hint", tt.url, result)
			}
		})
	}
}

func TestParsePlatform(t *testing.T) {
	tests := []struct {
		input    string
		expected Platform
	}{
		{input: "spotify", expected: PlatformSpotify},
		{input: "apple", expected: PlatformAppleMusic},
		{input: "applemusic", expected: PlatformAppleMusic},
		{input: "youtube", expected: PlatformYouTube},
		{input: "yt", expected: PlatformYouTube},
		{input: "tidal", expected: PlatformUnknown},
		{input: "", expected: PlatformUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParsePlatform(tt.input); got != tt.expected {
				t.Errorf("ParsePlatform(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}
