package http

import (
	"bytes"
	"encoding/json"
	"html/template"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"tunelink/internal/core"
	"tunelink/pkg/musiclink"
)

const (
	uidCookieName  = "tunelink_uid"
	prefCookieName = "music_pref"

	uidCookieMaxAge  = 365 * 24 * 60 * 60
	prefCookieMaxAge = 30 * 24 * 60 * 60
)

// handleRedirect resolves an inbound music link and answers with a 302 to the
// preferred platform, a fallback page, or a passthrough redirect when no
// resolution is wanted. Expected failures never produce a 5xx.
func (s *Server) handleRedirect(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	rawURL := r.URL.Query().Get("url")
	if rawURL == "" {
		s.badRequest(w, "redirect", "missing url parameter")
		return
	}
	if parsed, err := url.Parse(rawURL); err != nil || parsed.Host == "" {
		s.badRequest(w, "redirect", "url is not an absolute URL")
		return
	}

	userKey := s.userKey(w, r)
	pref := s.preference(r, userKey)
	source := musiclink.Parse(rawURL)

	// Without a preference, or when the link already points at the preferred
	// platform, pass the user through untouched.
	if !pref.Known() || pref == source.Platform {
		s.metrics.ResolutionsTotal.WithLabelValues(string(source.Platform), "passthrough").Inc()
		http.Redirect(w, r, rawURL, http.StatusFound)
		return
	}

	result := s.resolver.Resolve(r.Context(), rawURL, pref)
	outcome := "fallback"
	if result.Redirected() {
		outcome = "redirect"
	}
	s.metrics.ResolutionsTotal.WithLabelValues(string(source.Platform), outcome).Inc()
	s.metrics.ResolveDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())

	if result.Redirected() {
		s.setPrefCookie(w, pref)
		http.Redirect(w, r, result.TargetURL, http.StatusFound)
		return
	}

	s.renderFallback(w, result)
}

// handleSetPreference stores the preferred platform both in a cookie and in
// the preference store keyed by the user cookie.
func (s *Server) handleSetPreference(w http.ResponseWriter, r *http.Request) {
	pref := musiclink.ParsePlatform(r.URL.Query().Get("pref"))
	if !pref.Known() {
		s.badRequest(w, "set_preference", "unrecognized platform")
		return
	}

	userKey := s.userKey(w, r)
	if err := s.prefs.Set(r.Context(), userKey, pref); err != nil {
		s.logger.Error("Failed to persist preference", zap.Error(err))
		s.metrics.ErrorsTotal.WithLabelValues("set_preference", "store").Inc()
		s.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to store preference"})
		return
	}

	s.setPrefCookie(w, pref)
	s.metrics.PreferenceUpdates.Inc()
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "pref": string(pref)})
}

// preference determines the active preference: an explicit query parameter
// wins over the preference cookie, which wins over the stored value.
func (s *Server) preference(r *http.Request, userKey string) musiclink.Platform {
	if pref := musiclink.ParsePlatform(r.URL.Query().Get("pref")); pref.Known() {
		return pref
	}

	if cookie, err := r.Cookie(prefCookieName); err == nil {
		if pref := musiclink.ParsePlatform(cookie.Value); pref.Known() {
			return pref
		}
	}

	pref, err := s.prefs.Get(r.Context(), userKey)
	if err != nil {
		s.logger.Warn("Failed to read stored preference", zap.Error(err))
		return musiclink.PlatformUnknown
	}
	return pref
}

// userKey returns the caller's identity cookie, minting one when absent.
func (s *Server) userKey(w http.ResponseWriter, r *http.Request) string {
	if cookie, err := r.Cookie(uidCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	key := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     uidCookieName,
		Value:    key,
		Path:     "/",
		MaxAge:   uidCookieMaxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return key
}

func (s *Server) setPrefCookie(w http.ResponseWriter, pref musiclink.Platform) {
	http.SetCookie(w, &http.Cookie{
		Name:     prefCookieName,
		Value:    string(pref),
		Path:     "/",
		MaxAge:   prefCookieMaxAge,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) badRequest(w http.ResponseWriter, endpoint, message string) {
	s.metrics.ErrorsTotal.WithLabelValues(endpoint, "bad_request").Inc()
	s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": message})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("Failed to write response", zap.Error(err))
	}
}

var fallbackTemplate = template.Must(template.New("fallback").Parse(`<!DOCTYPE html>
<html>
<head>
    <title>TuneLink - no match found</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 40px; }
        .track { color: #333; }
        .link { margin: 10px 0; }
        .link a { text-decoration: none; color: #0066cc; }
        .link a:hover { text-decoration: underline; }
    </style>
</head>
<body>
    <h1>🎵 No match found</h1>
    {{if .Title}}<p class="track">{{.Title}}{{if .Artist}} — {{.Artist}}{{end}}</p>{{end}}
    <p>We could not find this track on your preferred platform. Known links:</p>
    {{range .Links}}<div class="link">🔗 <a href="{{.URL}}">{{.Name}}</a></div>
    {{end}}
</body>
</html>`))

type fallbackLink struct {
	Name string
	URL  string
}

type fallbackPage struct {
	Title  string
	Artist string
	Links  []fallbackLink
}

// renderFallback writes the 200 fallback page listing every known link.
func (s *Server) renderFallback(w http.ResponseWriter, result core.Result) {
	page := fallbackPage{}
	if result.Track != nil {
		page.Title = result.Track.Title
		page.Artist = result.Track.Artist
	}
	for _, link := range result.Known {
		page.Links = append(page.Links, fallbackLink{
			Name: displayName(link.Platform),
			URL:  link.URL,
		})
	}

	var buf bytes.Buffer
	if err := fallbackTemplate.Execute(&buf, page); err != nil {
		s.logger.Error("Failed to render fallback page", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func displayName(platform musiclink.Platform) string {
	switch platform {
	case musiclink.PlatformSpotify:
		return "Spotify"
	case musiclink.PlatformAppleMusic:
		return "Apple Music"
	case musiclink.PlatformYouTube:
		return "YouTube"
	default:
		return "Original link"
	}
}
