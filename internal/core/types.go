// Package core defines the shared domain types, configuration and failure
// taxonomy for the resolution pipeline.
package core

import (
	"context"

	"tunelink/pkg/musiclink"
)

// Track is the canonical identity of a track on one platform. It is built by
// a platform client from a provider response and lives only for the duration
// of a single resolution request.
type Track struct {
	Platform musiclink.Platform
	ID       string
	Title    string
	Artist   string
	Album    string
	URL      string
	// DurationMS is the track length in milliseconds, 0 when the provider
	// does not report one. Available to comparators, unused by the default.
	DurationMS int
}

// Client is the common capability set of a platform adapter.
//
// Both lookup methods return a classified *Failure on any outcome other than
// success: a missing track is a NotFound failure, not a nil result.
type Client interface {
	// Platform identifies which service this client talks to.
	Platform() musiclink.Platform

	// Available reports whether the client is configured and usable.
	// Unavailable clients are skipped by the resolver.
	Available() bool

	// LookupByID fetches track metadata directly by platform-native ID.
	LookupByID(ctx context.Context, id string) (*Track, error)

	// Search finds the best match for a title/artist pair.
	Search(ctx context.Context, title, artist string) (*Track, error)
}

// Comparator selects the best candidate for a wanted title/artist pair from
// provider-ranked search results, or nil when none is acceptable. Clients
// take one at construction so tests can inject deterministic fixtures.
type Comparator func(title, artist string, candidates []Track) *Track

// Link is a known track URL on a specific platform, used on fallback pages.
type Link struct {
	Platform musiclink.Platform `json:"platform"`
	URL      string             `json:"url"`
}

// ResultKind distinguishes the two outcomes of a resolution.
type ResultKind int

const (
	// KindRedirect means a confident match was found on a target platform.
	KindRedirect ResultKind = iota
	// KindFallback means no confident match; Known lists every link we have.
	KindFallback
)

// Result is the outcome of resolving one inbound URL.
type Result struct {
	Kind      ResultKind
	TargetURL string
	// Known holds the original link plus any links found while trying
	// targets, in the order they were established.
	Known []Link
	// Track is the canonical source track when the source lookup succeeded.
	Track *Track
}

// Redirected reports whether the result is a redirect.
func (r Result) Redirected() bool {
	return r.Kind == KindRedirect
}
