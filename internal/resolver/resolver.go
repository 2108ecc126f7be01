// Package resolver orchestrates the parse, source lookup and target fan-out
// steps that turn an inbound music link into a redirect target or a fallback
// listing.
package resolver

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"tunelink/internal/core"
	"tunelink/internal/store"
	"tunelink/pkg/musiclink"
)

// Resolver turns an inbound music URL into either a redirect to the same
// track on a target platform or a fallback listing of known links.
type Resolver struct {
	clients []core.Client
	cache   *store.ResultCache
	timeout time.Duration
	logger  *zap.Logger
}

// New creates a Resolver over the given clients. Client order is the fixed
// priority used when broadening beyond the preferred platform.
func New(clients []core.Client, cache *store.ResultCache, config core.ResolverConfig, logger *zap.Logger) *Resolver {
	return &Resolver{
		clients: clients,
		cache:   cache,
		timeout: config.ClientTimeout,
		logger:  logger,
	}
}

// Resolve resolves rawURL for a user preferring pref. It never returns an
// error: every failure mode degrades to a fallback result. Fallbacks caused
// by transient provider failures are not cached, so a later request can
// retry once the provider recovers.
func (r *Resolver) Resolve(ctx context.Context, rawURL string, pref musiclink.Platform) core.Result {
	key := rawURL + "|" + string(pref)
	if result, ok := r.cache.Get(key); ok {
		r.logger.Debug("Resolution served from cache", zap.String("url", rawURL))
		return result
	}

	result, cacheable := r.resolve(ctx, rawURL, pref)
	if cacheable {
		r.cache.Put(key, result)
	}
	return result
}

func (r *Resolver) resolve(ctx context.Context, rawURL string, pref musiclink.Platform) (core.Result, bool) {
	source := musiclink.Parse(rawURL)
	original := core.Link{Platform: source.Platform, URL: rawURL}

	if !source.Platform.Known() {
		r.logger.Debug("Unknown source platform", zap.String("url", rawURL))
		return fallback(original, nil), true
	}

	track, err := r.sourceTrack(ctx, source, rawURL)
	if err != nil {
		r.logger.Warn("Source lookup failed",
			zap.String("platform", string(source.Platform)),
			zap.String("kind", core.KindOf(err).String()),
			zap.Error(err))
		return fallback(original, nil), core.KindOf(err) != core.FailureTransient
	}

	var sawTransient atomic.Bool
	match := r.findTarget(ctx, source.Platform, pref, track, &sawTransient)
	if match == nil {
		return fallback(original, track), !sawTransient.Load()
	}

	r.logger.Info("Resolved",
		zap.String("source", string(source.Platform)),
		zap.String("target", string(match.Platform)),
		zap.String("track", track.Title))

	return core.Result{
		Kind:      core.KindRedirect,
		TargetURL: match.URL,
		Known:     []core.Link{original, {Platform: match.Platform, URL: match.URL}},
		Track:     track,
	}, true
}

// sourceTrack obtains canonical track metadata from the source platform,
// by ID when the parser extracted one.
func (r *Resolver) sourceTrack(ctx context.Context, source musiclink.SourceRef, rawURL string) (*core.Track, error) {
	client := r.clientFor(source.Platform)
	if client == nil || !client.Available() {
		return nil, core.NewFailure(core.FailureAuth, source.Platform,
			errors.New("source platform not configured"))
	}

	if source.ID != "" {
		callCtx, cancel := context.WithTimeout(ctx, r.timeout)
		defer cancel()
		return client.LookupByID(callCtx, source.ID)
	}

	// A raw hint is only usable when it reads like free text. URL path
	// fragments never contain whitespace, so those fall through.
	if strings.ContainsAny(source.RawHint, " \t") {
		return &core.Track{
			Platform: source.Platform,
			Title:    source.RawHint,
			URL:      rawURL,
		}, nil
	}

	return nil, core.NotFound(source.Platform)
}

// findTarget queries the preferred platform first, then broadens to the
// remaining available targets concurrently.
func (r *Resolver) findTarget(ctx context.Context, source, pref musiclink.Platform, track *core.Track, sawTransient *atomic.Bool) *core.Track {
	var preferred core.Client
	var rest []core.Client
	for _, client := range r.clients {
		if client.Platform() == source || !client.Available() {
			continue
		}
		if pref.Known() && client.Platform() == pref {
			preferred = client
		} else {
			rest = append(rest, client)
		}
	}

	if preferred != nil {
		if match := r.search(ctx, preferred, track, sawTransient); match != nil {
			return match
		}
	}

	return r.fanOut(ctx, rest, track, sawTransient)
}

// fanOut searches the given targets concurrently. The first match wins and
// cancels the rest.
func (r *Resolver) fanOut(ctx context.Context, clients []core.Client, track *core.Track, sawTransient *atomic.Bool) *core.Track {
	if len(clients) == 0 {
		return nil
	}

	fanCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	matches := make(chan *core.Track, len(clients))
	var wg sync.WaitGroup
	for _, client := range clients {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if match := r.search(fanCtx, client, track, sawTransient); match != nil {
				matches <- match
			}
		}()
	}
	go func() {
		wg.Wait()
		close(matches)
	}()

	match, ok := <-matches
	if !ok {
		return nil
	}
	return match
}

// search runs one bounded target search. Failures degrade to a miss; a
// transient failure is logged distinctly but not retried, returning a result
// quickly beats exhausting every target.
func (r *Resolver) search(ctx context.Context, client core.Client, track *core.Track, sawTransient *atomic.Bool) *core.Track {
	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	match, err := client.Search(callCtx, track.Title, track.Artist)
	if err != nil {
		kind := core.KindOf(err)
		if kind == core.FailureTransient {
			sawTransient.Store(true)
		}

		switch {
		case core.IsNotFound(err):
			r.logger.Debug("No match on target",
				zap.String("platform", string(client.Platform())))
		case errors.Is(err, context.Canceled):
			// A sibling won the fan-out; nothing is wrong with the provider.
			r.logger.Debug("Target search cancelled",
				zap.String("platform", string(client.Platform())))
		default:
			r.logger.Warn("Target search failed",
				zap.String("platform", string(client.Platform())),
				zap.String("kind", kind.String()),
				zap.Error(err))
		}
		return nil
	}
	return match
}

func (r *Resolver) clientFor(platform musiclink.Platform) core.Client {
	for _, client := range r.clients {
		if client.Platform() == platform {
			return client
		}
	}
	return nil
}

func fallback(original core.Link, track *core.Track) core.Result {
	return core.Result{
		Kind:  core.KindFallback,
		Known: []core.Link{original},
		Track: track,
	}
}
