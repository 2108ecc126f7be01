package core

import (
	"time"
)

type Config struct {
	Spotify  SpotifyConfig
	ITunes   ITunesConfig
	YouTube  YouTubeConfig
	Resolver ResolverConfig
	Prefs    PrefsConfig
	Server   ServerConfig
	Log      LogConfig
}

// SpotifyConfig holds the client-credentials pair for the Spotify Web API.
// When either value is empty the Spotify client is disabled.
type SpotifyConfig struct {
	ClientID     string
	ClientSecret string
}

// ITunesConfig tunes the keyless iTunes Search API client.
type ITunesConfig struct {
	Country     string
	SearchLimit int
}

// YouTubeConfig holds the optional YouTube Data API key. When empty the
// YouTube client reports itself unavailable and is skipped.
type YouTubeConfig struct {
	APIKey string
}

type ResolverConfig struct {
	// ClientTimeout bounds every single provider call.
	ClientTimeout time.Duration
	// CacheSize is the maximum number of cached resolution results.
	CacheSize int
	// CacheTTL is how long a cached resolution result stays valid.
	CacheTTL time.Duration
}

type PrefsConfig struct {
	DBPath string
}

type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type LogConfig struct {
	Level  string
	Format string
}

func DefaultConfig() *Config {
	return &Config{
		ITunes: ITunesConfig{
			Country:     "US",
			SearchLimit: 5,
		},
		Resolver: ResolverConfig{
			ClientTimeout: 5 * time.Second,
			CacheSize:     4096,
			CacheTTL:      15 * time.Minute,
		},
		Prefs: PrefsConfig{
			DBPath: "./tunelink_prefs.db",
		},
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}
