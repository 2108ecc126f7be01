// Package youtube implements the optional YouTube platform adapter on top of
// the YouTube Data API. Without an API key the client reports itself
// unavailable and the resolver skips it.
package youtube

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	youtubeapi "google.golang.org/api/youtube/v3"

	"tunelink/internal/core"
	"tunelink/pkg/musiclink"
)

const (
	// searchLimit caps search results before the comparator picks.
	searchLimit = 5
	// musicCategoryID restrains searches to the YouTube music category.
	musicCategoryID = "10"
)

// titleMarkerRegex strips video-only qualifiers so YouTube titles line up
// with catalog titles.
var titleMarkerRegex = regexp.MustCompile(`(?i)\s*[\(\[](official\s+(music\s+)?video|official\s+audio|lyric\s+video|lyrics|visualizer|hd|4k)[\)\]]`)

// Client talks to the YouTube Data API with an API key.
type Client struct {
	apiKey  string
	compare core.Comparator
	logger  *zap.Logger
	// extraOpts lets tests point the service at a fake endpoint.
	extraOpts []option.ClientOption
}

func NewClient(config *core.YouTubeConfig, compare core.Comparator, logger *zap.Logger) *Client {
	if compare == nil {
		compare = core.DefaultComparator()
	}

	return &Client{
		apiKey:  config.APIKey,
		compare: compare,
		logger:  logger,
	}
}

func (c *Client) Platform() musiclink.Platform {
	return musiclink.PlatformYouTube
}

// Available reports whether an API key is configured.
func (c *Client) Available() bool {
	return c.apiKey != ""
}

// LookupByID fetches video metadata for a known video ID.
func (c *Client) LookupByID(ctx context.Context, id string) (*core.Track, error) {
	service, err := c.service(ctx)
	if err != nil {
		return nil, err
	}

	response, err := service.Videos.List([]string{"snippet"}).Id(id).Context(ctx).Do()
	if err != nil {
		return nil, c.classify(err)
	}
	if len(response.Items) == 0 {
		return nil, core.NotFound(c.Platform())
	}

	snippet := response.Items[0].Snippet
	return c.track(id, snippet.Title, snippet.ChannelTitle), nil
}

// Search issues a video search in the music category and maps the pick to a
// Track with the video ID as a synthetic track ID.
func (c *Client) Search(ctx context.Context, title, artist string) (*core.Track, error) {
	query := strings.TrimSpace(title + " " + artist)
	if query == "" {
		return nil, core.NotFound(c.Platform())
	}

	service, err := c.service(ctx)
	if err != nil {
		return nil, err
	}

	response, err := service.Search.List([]string{"id", "snippet"}).
		Q(query).
		Type("video").
		VideoCategoryId(musicCategoryID).
		MaxResults(searchLimit).
		Context(ctx).
		Do()
	if err != nil {
		return nil, c.classify(err)
	}

	var candidates []core.Track
	for _, item := range response.Items {
		if item.Id == nil || item.Id.VideoId == "" || item.Snippet == nil {
			continue
		}
		candidates = append(candidates, *c.track(item.Id.VideoId, item.Snippet.Title, item.Snippet.ChannelTitle))
	}

	match := c.compare(title, artist, candidates)
	if match == nil {
		return nil, core.NotFound(c.Platform())
	}

	c.logger.Debug("YouTube search matched",
		zap.String("query", query),
		zap.String("videoID", match.ID))
	return match, nil
}

func (c *Client) service(ctx context.Context) (*youtubeapi.Service, error) {
	if !c.Available() {
		return nil, core.NewFailure(core.FailureAuth, c.Platform(),
			errors.New("no YouTube API key configured"))
	}

	opts := append([]option.ClientOption{option.WithAPIKey(c.apiKey)}, c.extraOpts...)
	service, err := youtubeapi.NewService(ctx, opts...)
	if err != nil {
		return nil, core.NewFailure(core.FailurePermanent, c.Platform(),
			fmt.Errorf("failed to create YouTube service: %w", err))
	}
	return service, nil
}

// track maps video metadata to a Track. The channel title stands in for the
// artist; auto-generated artist channels carry a " - Topic" suffix.
func (c *Client) track(videoID, title, channelTitle string) *core.Track {
	title = strings.TrimSpace(titleMarkerRegex.ReplaceAllString(title, ""))
	artist := strings.TrimSuffix(channelTitle, " - Topic")

	return &core.Track{
		Platform: musiclink.PlatformYouTube,
		ID:       videoID,
		Title:    title,
		Artist:   artist,
		URL:      fmt.Sprintf("https://www.youtube.com/watch?v=%s", videoID),
	}
}

func (c *Client) classify(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return core.NewFailure(core.ClassifyStatus(apiErr.Code), c.Platform(), err)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return core.NewFailure(core.FailureTransient, c.Platform(), err)
	}

	return core.NewFailure(core.FailureTransient, c.Platform(), err)
}
