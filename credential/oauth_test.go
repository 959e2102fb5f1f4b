package credential

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"

	"github.com/kbukum/bkper/logger"
)

type countingSource struct {
	calls atomic.Int32
	next  func(n int32) (*oauth2.Token, error)
}

func (s *countingSource) Token() (*oauth2.Token, error) {
	return s.next(s.calls.Add(1))
}

func TestOAuth_CachesUntilSkew(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	src := &countingSource{next: func(n int32) (*oauth2.Token, error) {
		return &oauth2.Token{AccessToken: "tok-" + string(rune('0'+n)), Expiry: now.Add(10 * time.Minute)}, nil
	}}
	o := NewOAuth(src, WithExpirySkew(time.Minute), WithLogger(logger.Nop()))
	o.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		tok, err := o.Token(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if tok != "tok-1" {
			t.Errorf("expected cached tok-1, got %q", tok)
		}
	}
	if src.calls.Load() != 1 {
		t.Errorf("expected 1 fetch, got %d", src.calls.Load())
	}

	// Inside the skew window the token counts as expired.
	o.now = func() time.Time { return now.Add(9*time.Minute + 30*time.Second) }
	tok, err := o.Token(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tok != "tok-2" {
		t.Errorf("expected refreshed tok-2, got %q", tok)
	}
}

func TestOAuth_ZeroExpiryCachedForever(t *testing.T) {
	src := &countingSource{next: func(int32) (*oauth2.Token, error) {
		return &oauth2.Token{AccessToken: "opaque"}, nil
	}}
	o := NewOAuth(src, WithLogger(logger.Nop()))

	for i := 0; i < 5; i++ {
		if _, err := o.Token(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if src.calls.Load() != 1 {
		t.Errorf("expected 1 fetch, got %d", src.calls.Load())
	}
}

func TestOAuth_Invalidate(t *testing.T) {
	src := &countingSource{next: func(int32) (*oauth2.Token, error) {
		return &oauth2.Token{AccessToken: "t"}, nil
	}}
	o := NewOAuth(src, WithLogger(logger.Nop()))

	_, _ = o.Token(context.Background())
	o.Invalidate()
	_, _ = o.Token(context.Background())
	if src.calls.Load() != 2 {
		t.Errorf("expected refetch after Invalidate, got %d fetches", src.calls.Load())
	}
}

func TestOAuth_ConcurrentCallersShareRefresh(t *testing.T) {
	release := make(chan struct{})
	var fetches atomic.Int32
	o := newOAuth(func(context.Context) (*oauth2.Token, error) {
		fetches.Add(1)
		<-release
		return &oauth2.Token{AccessToken: "shared", Expiry: time.Now().Add(time.Hour)}, nil
	}, WithLogger(logger.Nop()))

	const callers = 20
	var wg sync.WaitGroup
	results := make([]string, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = o.Token(context.Background())
		}(i)
	}

	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	for i := range results {
		if errs[i] != nil {
			t.Fatalf("caller %d: unexpected error: %v", i, errs[i])
		}
		if results[i] != "shared" {
			t.Errorf("caller %d: expected shared, got %q", i, results[i])
		}
	}
	if fetches.Load() != 1 {
		t.Errorf("expected exactly 1 refresh, got %d", fetches.Load())
	}
}

func TestOAuth_WaiterContextCanceled(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	o := newOAuth(func(context.Context) (*oauth2.Token, error) {
		<-release
		return &oauth2.Token{AccessToken: "late"}, nil
	}, WithLogger(logger.Nop()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := o.Token(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestOAuth_RefreshError(t *testing.T) {
	boom := errors.New("invalid_grant")
	src := &countingSource{next: func(int32) (*oauth2.Token, error) { return nil, boom }}
	o := NewOAuth(src, WithLogger(logger.Nop()))

	_, err := o.Token(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("expected invalid_grant, got %v", err)
	}

	// Failures are not cached.
	_, _ = o.Token(context.Background())
	if src.calls.Load() != 2 {
		t.Errorf("expected retry on next call, got %d fetches", src.calls.Load())
	}
}

func TestOAuth_EmptyAccessToken(t *testing.T) {
	src := &countingSource{next: func(int32) (*oauth2.Token, error) { return &oauth2.Token{}, nil }}
	o := NewOAuth(src, WithLogger(logger.Nop()))

	if _, err := o.Token(context.Background()); !errors.Is(err, ErrNoToken) {
		t.Fatalf("expected ErrNoToken, got %v", err)
	}
}

func TestOAuth_JWTExpiryFallback(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(now.Add(5 * time.Minute)),
	}).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	src := &countingSource{next: func(int32) (*oauth2.Token, error) {
		return &oauth2.Token{AccessToken: signed}, nil
	}}
	o := NewOAuth(src, WithExpirySkew(time.Minute), WithLogger(logger.Nop()))
	o.now = func() time.Time { return now }

	_, _ = o.Token(context.Background())
	_, _ = o.Token(context.Background())
	if src.calls.Load() != 1 {
		t.Fatalf("expected cached token, got %d fetches", src.calls.Load())
	}

	o.now = func() time.Time { return now.Add(4*time.Minute + 30*time.Second) }
	_, _ = o.Token(context.Background())
	if src.calls.Load() != 2 {
		t.Errorf("expected refresh once the exp claim nears, got %d fetches", src.calls.Load())
	}
}

func TestJWTExpiry_Opaque(t *testing.T) {
	if !jwtExpiry("ya29.opaque-token").IsZero() {
		t.Error("expected zero expiry for opaque token")
	}
}

func newTokenServer(t *testing.T, hits *atomic.Int32, seen *[]string) *httptest.Server {
	t.Helper()
	var mu sync.Mutex
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := hits.Add(1)
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if got := r.PostForm.Get("grant_type"); got != "refresh_token" {
			t.Errorf("expected refresh_token grant, got %q", got)
		}
		mu.Lock()
		*seen = append(*seen, r.PostForm.Get("refresh_token"))
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "access-" + string(rune('0'+n)),
			"token_type":    "Bearer",
			"expires_in":    3600,
			"refresh_token": "rotated-" + string(rune('0'+n)),
		})
	}))
}

func TestNewRefreshToken_Exchange(t *testing.T) {
	var hits atomic.Int32
	var seen []string
	srv := newTokenServer(t, &hits, &seen)
	defer srv.Close()

	o := NewRefreshToken(RefreshConfig{
		ClientID:     "client",
		ClientSecret: "secret",
		TokenURL:     srv.URL,
		RefreshToken: "initial",
		HTTPClient:   srv.Client(),
	}, WithLogger(logger.Nop()))

	tok, err := o.Token(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tok != "access-1" {
		t.Errorf("expected access-1, got %q", tok)
	}

	// Cached: no second exchange.
	if tok, _ := o.Token(context.Background()); tok != "access-1" {
		t.Errorf("expected cached access-1, got %q", tok)
	}
	if hits.Load() != 1 {
		t.Errorf("expected 1 exchange, got %d", hits.Load())
	}

	o.Invalidate()
	if tok, _ := o.Token(context.Background()); tok != "access-2" {
		t.Errorf("expected access-2 after invalidate, got %q", tok)
	}
	if len(seen) != 2 || seen[0] != "initial" || seen[1] != "rotated-1" {
		t.Errorf("expected rotated refresh token on second exchange, got %v", seen)
	}
}

func TestNewRefreshToken_SeededAccessToken(t *testing.T) {
	var hits atomic.Int32
	var seen []string
	srv := newTokenServer(t, &hits, &seen)
	defer srv.Close()

	o := NewRefreshToken(RefreshConfig{
		TokenURL:     srv.URL,
		RefreshToken: "initial",
		AccessToken:  "seeded",
		Expiry:       time.Now().Add(time.Hour),
		HTTPClient:   srv.Client(),
	}, WithLogger(logger.Nop()))

	tok, err := o.Token(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tok != "seeded" {
		t.Errorf("expected seeded token, got %q", tok)
	}
	if hits.Load() != 0 {
		t.Errorf("expected no exchange, got %d", hits.Load())
	}
}

func TestNewRefreshToken_Rejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_grant","error_description":"Token has been revoked"}`))
	}))
	defer srv.Close()

	o := NewRefreshToken(RefreshConfig{
		TokenURL:     srv.URL,
		RefreshToken: "revoked",
		HTTPClient:   srv.Client(),
	}, WithLogger(logger.Nop()))

	_, err := o.Token(context.Background())
	var re *oauth2.RetrieveError
	if !errors.As(err, &re) {
		t.Fatalf("expected oauth2.RetrieveError, got %v", err)
	}
	if re.ErrorCode != "invalid_grant" {
		t.Errorf("expected invalid_grant, got %q", re.ErrorCode)
	}
}

func TestNewRefreshToken_StaleSeedExchanges(t *testing.T) {
	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
	}).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	tests := []struct {
		name string
		seed string
	}{
		{"opaque seed without expiry", "ya29.opaque-token"},
		{"expired jwt seed", expired},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var hits atomic.Int32
			var seen []string
			srv := newTokenServer(t, &hits, &seen)
			defer srv.Close()

			o := NewRefreshToken(RefreshConfig{
				TokenURL:     srv.URL,
				RefreshToken: "initial",
				AccessToken:  tc.seed,
				HTTPClient:   srv.Client(),
			}, WithLogger(logger.Nop()))

			tok, err := o.Token(context.Background())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tok != "access-1" {
				t.Errorf("expected exchanged access-1, got %q", tok)
			}
			if hits.Load() != 1 {
				t.Errorf("expected 1 exchange, got %d", hits.Load())
			}
		})
	}
}

func TestNewRefreshToken_FreshJWTSeedUsed(t *testing.T) {
	var hits atomic.Int32
	var seen []string
	srv := newTokenServer(t, &hits, &seen)
	defer srv.Close()

	fresh, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	o := NewRefreshToken(RefreshConfig{
		TokenURL:     srv.URL,
		RefreshToken: "initial",
		AccessToken:  fresh,
		HTTPClient:   srv.Client(),
	}, WithLogger(logger.Nop()))

	if tok, _ := o.Token(context.Background()); tok != fresh {
		t.Errorf("expected seeded jwt, got %q", tok)
	}
	if hits.Load() != 0 {
		t.Errorf("expected no exchange, got %d", hits.Load())
	}
}

func TestNewRefreshToken_HungEndpointTimesOut(t *testing.T) {
	var hits atomic.Int32
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	defer srv.Close()
	defer close(release)

	o := NewRefreshToken(RefreshConfig{
		TokenURL:     srv.URL,
		RefreshToken: "initial",
		HTTPClient:   srv.Client(),
	}, WithLogger(logger.Nop()), WithRefreshTimeout(50*time.Millisecond))

	for i := 1; i <= 3; i++ {
		start := time.Now()
		if _, err := o.Token(context.Background()); err == nil {
			t.Fatalf("call %d: expected error from hung token endpoint", i)
		}
		if elapsed := time.Since(start); elapsed > 5*time.Second {
			t.Fatalf("call %d: refresh not bounded, took %v", i, elapsed)
		}
	}
	if hits.Load() != 3 {
		t.Errorf("expected each call to start a new exchange, got %d", hits.Load())
	}
}

func TestWithRefreshTimeout_IgnoresNonPositive(t *testing.T) {
	o := NewOAuth(&countingSource{}, WithRefreshTimeout(0), WithRefreshTimeout(-time.Second))
	if o.refreshTimeout != DefaultRefreshTimeout {
		t.Errorf("expected default refresh timeout, got %v", o.refreshTimeout)
	}
	o = NewOAuth(&countingSource{}, WithRefreshTimeout(time.Second))
	if o.refreshTimeout != time.Second {
		t.Errorf("expected 1s, got %v", o.refreshTimeout)
	}
}
