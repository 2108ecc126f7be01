// Package itunes implements the Apple Music platform adapter on top of the
// keyless iTunes Search API.
package itunes

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"tunelink/internal/core"
	"tunelink/pkg/musiclink"
)

const (
	// defaultSearchURL is the iTunes Search API endpoint.
	defaultSearchURL = "https://itunes.apple.com/search"
	// defaultLookupURL is the iTunes lookup-by-ID endpoint.
	defaultLookupURL = "https://itunes.apple.com/lookup"
	// requestTimeout bounds every iTunes API request.
	requestTimeout = 10 * time.Second
)

// trackResult is one song entry in an iTunes API response.
type trackResult struct {
	WrapperType    string `json:"wrapperType"`
	TrackID        int64  `json:"trackId"`
	TrackName      string `json:"trackName"`
	ArtistName     string `json:"artistName"`
	CollectionName string `json:"collectionName"`
	TrackViewURL   string `json:"trackViewUrl"`
	TrackTimeMS    int    `json:"trackTimeMillis"`
}

type apiResponse struct {
	ResultCount int           `json:"resultCount"`
	Results     []trackResult `json:"results"`
}

// Client talks to the iTunes Search API. No credentials are required, so the
// client is always available.
type Client struct {
	httpClient  *http.Client
	searchURL   string
	lookupURL   string
	country     string
	searchLimit int
	compare     core.Comparator
	logger      *zap.Logger
}

func NewClient(config *core.ITunesConfig, compare core.Comparator, logger *zap.Logger) *Client {
	if compare == nil {
		compare = core.DefaultComparator()
	}
	limit := config.SearchLimit
	if limit <= 0 {
		limit = 5
	}

	return &Client{
		httpClient:  &http.Client{Timeout: requestTimeout},
		searchURL:   defaultSearchURL,
		lookupURL:   defaultLookupURL,
		country:     config.Country,
		searchLimit: limit,
		compare:     compare,
		logger:      logger,
	}
}

func (c *Client) Platform() musiclink.Platform {
	return musiclink.PlatformAppleMusic
}

func (c *Client) Available() bool {
	return true
}

// LookupByID fetches track metadata through the iTunes lookup endpoint.
func (c *Client) LookupByID(ctx context.Context, id string) (*core.Track, error) {
	params := url.Values{}
	params.Set("id", id)
	params.Set("entity", "song")

	resp, err := c.fetch(ctx, c.lookupURL, params)
	if err != nil {
		return nil, err
	}

	for i := range resp.Results {
		if track := c.convert(&resp.Results[i]); track != nil {
			return track, nil
		}
	}

	return nil, core.NotFound(c.Platform())
}

// Search issues a free-text term query limited to song entities and lets the
// comparator pick from the capped result list.
func (c *Client) Search(ctx context.Context, title, artist string) (*core.Track, error) {
	term := strings.TrimSpace(title + " " + artist)
	if term == "" {
		return nil, core.NotFound(c.Platform())
	}

	params := url.Values{}
	params.Set("term", term)
	params.Set("media", "music")
	params.Set("entity", "musicTrack")
	params.Set("limit", strconv.Itoa(c.searchLimit))
	if c.country != "" {
		params.Set("country", c.country)
	}

	resp, err := c.fetch(ctx, c.searchURL, params)
	if err != nil {
		return nil, err
	}

	var candidates []core.Track
	for i := range resp.Results {
		if track := c.convert(&resp.Results[i]); track != nil {
			candidates = append(candidates, *track)
		}
	}

	match := c.compare(title, artist, candidates)
	if match == nil {
		return nil, core.NotFound(c.Platform())
	}

	c.logger.Debug("iTunes search matched",
		zap.String("term", term),
		zap.String("trackID", match.ID))
	return match, nil
}

func (c *Client) fetch(ctx context.Context, endpoint string, params url.Values) (*apiResponse, error) {
	reqURL := endpoint + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, core.NewFailure(core.FailurePermanent, c.Platform(), err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, core.NewFailure(core.FailureTransient, c.Platform(), err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, core.NewFailure(core.ClassifyStatus(resp.StatusCode), c.Platform(),
			fmt.Errorf("iTunes API returned status %d", resp.StatusCode))
	}

	var decoded apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, core.NewFailure(core.FailurePermanent, c.Platform(),
			fmt.Errorf("failed to decode iTunes API response: %w", err))
	}

	return &decoded, nil
}

// convert maps one iTunes result to a Track, skipping non-song entries.
func (c *Client) convert(result *trackResult) *core.Track {
	if result.TrackName == "" || result.TrackViewURL == "" {
		return nil
	}
	if result.WrapperType != "" && result.WrapperType != "track" {
		return nil
	}

	return &core.Track{
		Platform:   musiclink.PlatformAppleMusic,
		ID:         strconv.FormatInt(result.TrackID, 10),
		Title:      result.TrackName,
		Artist:     result.ArtistName,
		Album:      result.CollectionName,
		URL:        result.TrackViewURL,
		DurationMS: result.TrackTimeMS,
	}
}
