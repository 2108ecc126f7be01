package creds

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"go.uber.org/zap"
	"golang.org/x/oauth2/clientcredentials"

	"tunelink/internal/core"
	"tunelink/pkg/musiclink"
)

func newTokenServer(t *testing.T, hits *atomic.Int32, status int, expiresIn int) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := hits.Add(1)
		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"access_token":"token-%d","token_type":"Bearer","expires_in":%d}`, n, expiresIn)
	}))
}

func newTestManager(tokenURL string) *Manager {
	m := NewManager(zap.NewNop())
	m.Register(musiclink.PlatformSpotify, &clientcredentials.Config{
		ClientID:     "id",
		ClientSecret: "secret",
		TokenURL:     tokenURL,
	})
	return m
}

func TestManager_TokenCached(t *testing.T) {
	var hits atomic.Int32
	server := newTokenServer(t, &hits, http.StatusOK, 3600)
	defer server.Close()

	m := newTestManager(server.URL)

	first, err := m.Token(context.Background(), musiclink.PlatformSpotify)
	if err != nil {
		t.Fatalf("Token() unexpected error: %v", err)
	}
	second, err := m.Token(context.Background(), musiclink.PlatformSpotify)
	if err != nil {
		t.Fatalf("Token() unexpected error: %v", err)
	}

	if first.AccessToken != second.AccessToken {
		t.Errorf("expected cached token, got %q then %q", first.AccessToken, second.AccessToken)
	}
	if got := hits.Load(); got != 1 {
		t.Errorf("token endpoint hit %d times, want 1", got)
	}
}

func TestManager_TokenRefreshedBeforeExpiry(t *testing.T) {
	var hits atomic.Int32
	// expires_in below the refresh margin: every call must fetch anew.
	server := newTokenServer(t, &hits, http.StatusOK, 10)
	defer server.Close()

	m := newTestManager(server.URL)

	first, err := m.Token(context.Background(), musiclink.PlatformSpotify)
	if err != nil {
		t.Fatalf("Token() unexpected error: %v", err)
	}
	second, err := m.Token(context.Background(), musiclink.PlatformSpotify)
	if err != nil {
		t.Fatalf("Token() unexpected error: %v", err)
	}

	if first.AccessToken == second.AccessToken {
		t.Errorf("token with %ds lifetime should have been refreshed", 10)
	}
	if got := hits.Load(); got != 2 {
		t.Errorf("token endpoint hit %d times, want 2", got)
	}
}

func TestManager_RefreshFailureIsAuthFailure(t *testing.T) {
	var hits atomic.Int32
	server := newTokenServer(t, &hits, http.StatusInternalServerError, 0)
	defer server.Close()

	m := newTestManager(server.URL)

	_, err := m.Token(context.Background(), musiclink.PlatformSpotify)
	if err == nil {
		t.Fatal("Token() expected error")
	}
	if kind := core.KindOf(err); kind != core.FailureAuth {
		t.Errorf("KindOf() = %v, want auth", kind)
	}
}

func TestManager_UnregisteredProvider(t *testing.T) {
	m := NewManager(zap.NewNop())

	_, err := m.Token(context.Background(), musiclink.PlatformSpotify)
	if err == nil {
		t.Fatal("Token() expected error for unregistered provider")
	}
	if kind := core.KindOf(err); kind != core.FailureAuth {
		t.Errorf("KindOf() = %v, want auth", kind)
	}
}

func TestManager_ConcurrentRefreshSingleFlight(t *testing.T) {
	var hits atomic.Int32
	server := newTokenServer(t, &hits, http.StatusOK, 3600)
	defer server.Close()

	m := newTestManager(server.URL)

	var wg sync.WaitGroup
	const goroutines = 16
	errs := make(chan error, goroutines)
	for range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := m.Token(context.Background(), musiclink.PlatformSpotify)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("Token() unexpected error: %v", err)
		}
	}
	if got := hits.Load(); got != 1 {
		t.Errorf("token endpoint hit %d times under concurrency, want 1", got)
	}
}
