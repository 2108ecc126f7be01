// Package spotify implements the Spotify platform adapter on top of the
// Spotify Web API with client-credentials auth.
package spotify

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/zmb3/spotify/v2"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"tunelink/internal/core"
	"tunelink/internal/creds"
	"tunelink/pkg/musiclink"
)

// searchLimit caps free-text search results before the comparator picks.
const searchLimit = 5

// Client wraps the Spotify Web API. Bearer tokens come from the credential
// manager on every call; the client itself holds no token state.
type Client struct {
	creds   *creds.Manager
	compare core.Comparator
	logger  *zap.Logger
	// baseURL overrides the Spotify API endpoint in tests; empty in
	// production.
	baseURL string
}

func NewClient(manager *creds.Manager, compare core.Comparator, logger *zap.Logger) *Client {
	if compare == nil {
		compare = core.DefaultComparator()
	}

	return &Client{
		creds:   manager,
		compare: compare,
		logger:  logger,
	}
}

func (c *Client) Platform() musiclink.Platform {
	return musiclink.PlatformSpotify
}

// Available reports whether Spotify credentials are configured.
func (c *Client) Available() bool {
	return c.creds.Registered(musiclink.PlatformSpotify)
}

// LookupByID fetches track metadata directly by Spotify track ID.
func (c *Client) LookupByID(ctx context.Context, id string) (*core.Track, error) {
	api, err := c.api(ctx)
	if err != nil {
		return nil, err
	}

	track, err := api.GetTrack(ctx, spotify.ID(id))
	if err != nil {
		return nil, c.classify(err)
	}

	return c.convert(track), nil
}

// Search issues a fielded track query first and falls back to a loose
// free-text query, then lets the comparator pick from the top results.
func (c *Client) Search(ctx context.Context, title, artist string) (*core.Track, error) {
	api, err := c.api(ctx)
	if err != nil {
		return nil, err
	}

	queries := []string{
		strictQuery(title, artist),
		strings.TrimSpace(title + " " + artist),
	}

	for _, query := range queries {
		if query == "" {
			continue
		}

		results, err := api.Search(ctx, query, spotify.SearchTypeTrack, spotify.Limit(searchLimit))
		if err != nil {
			return nil, c.classify(err)
		}
		if results.Tracks == nil || len(results.Tracks.Tracks) == 0 {
			continue
		}

		candidates := make([]core.Track, 0, len(results.Tracks.Tracks))
		for i := range results.Tracks.Tracks {
			candidates = append(candidates, *c.convert(&results.Tracks.Tracks[i]))
		}

		if match := c.compare(title, artist, candidates); match != nil {
			c.logger.Debug("Spotify search matched",
				zap.String("query", query),
				zap.String("trackID", match.ID))
			return match, nil
		}
	}

	return nil, core.NotFound(c.Platform())
}

// api builds a request-scoped API client carrying a valid bearer token.
func (c *Client) api(ctx context.Context) (*spotify.Client, error) {
	token, err := c.creds.Token(ctx, musiclink.PlatformSpotify)
	if err != nil {
		return nil, err
	}

	httpClient := oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))

	if c.baseURL != "" {
		return spotify.New(httpClient, spotify.WithBaseURL(c.baseURL)), nil
	}
	return spotify.New(httpClient), nil
}

func (c *Client) convert(track *spotify.FullTrack) *core.Track {
	var artists []string
	for _, artist := range track.Artists {
		artists = append(artists, artist.Name)
	}

	trackURL := track.ExternalURLs["spotify"]
	if trackURL == "" {
		trackURL = fmt.Sprintf("https://open.spotify.com/track/%s", track.ID)
	}

	return &core.Track{
		Platform:   musiclink.PlatformSpotify,
		ID:         string(track.ID),
		Title:      track.Name,
		Artist:     strings.Join(artists, ", "),
		Album:      track.Album.Name,
		URL:        trackURL,
		DurationMS: int(track.Duration),
	}
}

func (c *Client) classify(err error) error {
	var apiErr spotify.Error
	if errors.As(err, &apiErr) {
		return core.NewFailure(core.ClassifyStatus(apiErr.Status), c.Platform(), err)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return core.NewFailure(core.FailureTransient, c.Platform(), err)
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return core.NewFailure(core.FailureTransient, c.Platform(), err)
	}

	return core.NewFailure(core.FailurePermanent, c.Platform(), err)
}

// strictQuery builds a fielded Spotify search query constrained to track and
// artist names.
func strictQuery(title, artist string) string {
	var parts []string
	if title != "" {
		parts = append(parts, fmt.Sprintf("track:%q", title))
	}
	if artist != "" {
		parts = append(parts, fmt.Sprintf("artist:%q", artist))
	}
	return strings.Join(parts, " ")
}
