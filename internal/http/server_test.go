package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"tunelink/internal/core"
	"tunelink/pkg/musiclink"
)

const spotifyURL = "https://open.spotify.com/track/7ouMYWpwJ422jRcDASZB7P"

type stubResolver struct {
	result   core.Result
	calls    int
	lastURL  string
	lastPref musiclink.Platform
}

func (s *stubResolver) Resolve(_ context.Context, rawURL string, pref musiclink.Platform) core.Result {
	s.calls++
	s.lastURL = rawURL
	s.lastPref = pref
	return s.result
}

type memPrefs struct {
	prefs map[string]musiclink.Platform
}

func newMemPrefs() *memPrefs {
	return &memPrefs{prefs: make(map[string]musiclink.Platform)}
}

func (m *memPrefs) Get(_ context.Context, userKey string) (musiclink.Platform, error) {
	return m.prefs[userKey], nil
}

func (m *memPrefs) Set(_ context.Context, userKey string, platform musiclink.Platform) error {
	m.prefs[userKey] = platform
	return nil
}

func newTestServer(resolver TrackResolver, prefs PreferenceStore) *Server {
	config := &core.DefaultConfig().Server
	return NewServer(config, resolver, prefs, prometheus.NewRegistry(), zap.NewNop())
}

func get(server *Server, target string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	request := httptest.NewRequest(http.MethodGet, target, nil)
	for _, cookie := range cookies {
		request.AddCookie(cookie)
	}
	recorder := httptest.NewRecorder()
	server.Handler().ServeHTTP(recorder, request)
	return recorder
}

func cookieValue(recorder *httptest.ResponseRecorder, name string) string {
	for _, cookie := range recorder.Result().Cookies() {
		if cookie.Name == name {
			return cookie.Value
		}
	}
	return ""
}

func TestRedirect_MissingURL(t *testing.T) {
	server := newTestServer(&stubResolver{}, newMemPrefs())

	recorder := get(server, "/redirect")

	if recorder.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", recorder.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(recorder.Body.Bytes(), &body); err != nil {
		t.Fatalf("body is not JSON: %v", err)
	}
	if body["error"] == "" {
		t.Error("expected an error message in the body")
	}
}

func TestRedirect_UnparseableURL(t *testing.T) {
	server := newTestServer(&stubResolver{}, newMemPrefs())

	recorder := get(server, "/redirect?url=not-a-url")

	if recorder.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", recorder.Code)
	}
}

func TestRedirect_PassthroughWithoutPreference(t *testing.T) {
	resolver := &stubResolver{}
	server := newTestServer(resolver, newMemPrefs())

	recorder := get(server, "/redirect?url="+spotifyURL)

	if recorder.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", recorder.Code)
	}
	if got := recorder.Header().Get("Location"); got != spotifyURL {
		t.Errorf("Location = %q, want original URL", got)
	}
	if resolver.calls != 0 {
		t.Errorf("resolver called %d times without a preference, want 0", resolver.calls)
	}
}

func TestRedirect_PassthroughWhenSourceMatchesPreference(t *testing.T) {
	resolver := &stubResolver{}
	server := newTestServer(resolver, newMemPrefs())

	recorder := get(server, "/redirect?url="+spotifyURL+"&pref=spotify")

	if recorder.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", recorder.Code)
	}
	if got := recorder.Header().Get("Location"); got != spotifyURL {
		t.Errorf("Location = %q, want original URL", got)
	}
	if resolver.calls != 0 {
		t.Errorf("resolver called %d times for same-platform link, want 0", resolver.calls)
	}
}

func TestRedirect_ResolvedToPreferredPlatform(t *testing.T) {
	target := "https://music.apple.com/us/album/divide/1193701079?i=1193701392"
	resolver := &stubResolver{result: core.Result{Kind: core.KindRedirect, TargetURL: target}}
	server := newTestServer(resolver, newMemPrefs())

	recorder := get(server, "/redirect?url="+spotifyURL+"&pref=apple")

	if recorder.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", recorder.Code)
	}
	if got := recorder.Header().Get("Location"); got != target {
		t.Errorf("Location = %q, want resolved URL", got)
	}
	if resolver.lastPref != musiclink.PlatformAppleMusic {
		t.Errorf("resolver pref = %q, want apple", resolver.lastPref)
	}
	if got := cookieValue(recorder, prefCookieName); got != "apple" {
		t.Errorf("preference cookie = %q, want apple", got)
	}
	if cookieValue(recorder, uidCookieName) == "" {
		t.Error("expected a user cookie to be minted")
	}
}

func TestRedirect_FallbackPage(t *testing.T) {
	resolver := &stubResolver{result: core.Result{
		Kind: core.KindFallback,
		Known: []core.Link{
			{Platform: musiclink.PlatformSpotify, URL: spotifyURL},
		},
		Track: &core.Track{Title: "Shape of You", Artist: "Ed Sheeran"},
	}}
	server := newTestServer(resolver, newMemPrefs())

	recorder := get(server, "/redirect?url="+spotifyURL+"&pref=apple")

	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", recorder.Code)
	}
	if got := recorder.Header().Get("Content-Type"); got != "text/html" {
		t.Errorf("Content-Type = %q, want text/html", got)
	}
	body := recorder.Body.String()
	if !strings.Contains(body, spotifyURL) {
		t.Error("fallback page should list the original link")
	}
	if !strings.Contains(body, "Shape of You") {
		t.Error("fallback page should show the track title")
	}
}

func TestRedirect_PreferenceFromCookie(t *testing.T) {
	resolver := &stubResolver{result: core.Result{Kind: core.KindRedirect, TargetURL: "https://music.apple.com/x?i=1"}}
	server := newTestServer(resolver, newMemPrefs())

	get(server, "/redirect?url="+spotifyURL, &http.Cookie{Name: prefCookieName, Value: "apple"})

	if resolver.lastPref != musiclink.PlatformAppleMusic {
		t.Errorf("resolver pref = %q, want apple from cookie", resolver.lastPref)
	}
}

func TestRedirect_PreferenceFromStore(t *testing.T) {
	resolver := &stubResolver{result: core.Result{Kind: core.KindRedirect, TargetURL: "https://music.apple.com/x?i=1"}}
	prefs := newMemPrefs()
	prefs.prefs["user-1"] = musiclink.PlatformAppleMusic
	server := newTestServer(resolver, prefs)

	get(server, "/redirect?url="+spotifyURL, &http.Cookie{Name: uidCookieName, Value: "user-1"})

	if resolver.lastPref != musiclink.PlatformAppleMusic {
		t.Errorf("resolver pref = %q, want apple from store", resolver.lastPref)
	}
}

func TestRedirect_QueryParameterBeatsCookie(t *testing.T) {
	resolver := &stubResolver{result: core.Result{Kind: core.KindRedirect, TargetURL: "https://www.youtube.com/watch?v=x"}}
	server := newTestServer(resolver, newMemPrefs())

	get(server, "/redirect?url="+spotifyURL+"&pref=youtube",
		&http.Cookie{Name: prefCookieName, Value: "apple"})

	if resolver.lastPref != musiclink.PlatformYouTube {
		t.Errorf("resolver pref = %q, want youtube from query parameter", resolver.lastPref)
	}
}

func TestSetPreference(t *testing.T) {
	prefs := newMemPrefs()
	server := newTestServer(&stubResolver{}, prefs)

	recorder := get(server, "/set_preference?pref=apple",
		&http.Cookie{Name: uidCookieName, Value: "user-1"})

	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", recorder.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(recorder.Body.Bytes(), &body); err != nil {
		t.Fatalf("body is not JSON: %v", err)
	}
	if body["status"] != "ok" || body["pref"] != "apple" {
		t.Errorf("body = %v", body)
	}
	if prefs.prefs["user-1"] != musiclink.PlatformAppleMusic {
		t.Errorf("stored preference = %q, want apple", prefs.prefs["user-1"])
	}
	if got := cookieValue(recorder, prefCookieName); got != "apple" {
		t.Errorf("preference cookie = %q, want apple", got)
	}
}

func TestSetPreference_UnrecognizedPlatform(t *testing.T) {
	server := newTestServer(&stubResolver{}, newMemPrefs())

	recorder := get(server, "/set_preference?pref=tidal")

	if recorder.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", recorder.Code)
	}
}

func TestHealthEndpoints(t *testing.T) {
	server := newTestServer(&stubResolver{}, newMemPrefs())

	for _, path := range []string{"/healthz", "/readyz", "/metrics", "/"} {
		if recorder := get(server, path); recorder.Code != http.StatusOK {
			t.Errorf("GET %s = %d, want 200", path, recorder.Code)
		}
	}
}
