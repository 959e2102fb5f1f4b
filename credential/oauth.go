package credential

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"

	"github.com/kbukum/bkper/logger"
	"github.com/kbukum/bkper/observability"
)

const (
	// DefaultExpirySkew is how long before expiry a cached token is refreshed.
	DefaultExpirySkew = time.Minute
	// DefaultRefreshTimeout bounds a single token exchange.
	DefaultRefreshTimeout = 30 * time.Second
)

// OAuthOption configures an OAuth provider.
type OAuthOption func(*OAuth)

// WithExpirySkew sets how early a cached token is treated as expired.
func WithExpirySkew(d time.Duration) OAuthOption {
	return func(o *OAuth) {
		if d >= 0 {
			o.skew = d
		}
	}
}

// WithRefreshTimeout bounds each refresh. A refresh outlives the caller
// that started it, so without a bound a hung token endpoint would stall
// every later call.
func WithRefreshTimeout(d time.Duration) OAuthOption {
	return func(o *OAuth) {
		if d > 0 {
			o.refreshTimeout = d
		}
	}
}

// WithLogger sets the provider logger.
func WithLogger(l *logger.Logger) OAuthOption {
	return func(o *OAuth) {
		if l != nil {
			o.log = l
		}
	}
}

// WithMetrics counts refreshes on m.
func WithMetrics(m *observability.Metrics) OAuthOption {
	return func(o *OAuth) {
		o.metrics = m
	}
}

// OAuth is a Provider backed by an OAuth2 token source. It caches the
// access token until shortly before it expires; concurrent callers that
// miss the cache share one refresh.
type OAuth struct {
	fetch          func(ctx context.Context) (*oauth2.Token, error)
	skew           time.Duration
	refreshTimeout time.Duration
	now            func() time.Time
	log            *logger.Logger
	metrics        *observability.Metrics

	mu     sync.RWMutex
	cached *oauth2.Token
	group  singleflight.Group
}

// NewOAuth wraps any oauth2.TokenSource.
func NewOAuth(src oauth2.TokenSource, opts ...OAuthOption) *OAuth {
	return newOAuth(func(context.Context) (*oauth2.Token, error) {
		return src.Token()
	}, opts...)
}

// RefreshConfig describes a refresh-token grant.
type RefreshConfig struct {
	ClientID     string
	ClientSecret string
	TokenURL     string
	RefreshToken string
	Scopes       []string
	// AccessToken seeds the cache until Expiry, or the JWT exp claim when
	// Expiry is zero. A seed with no known expiry is dropped so the first
	// call exchanges the refresh token.
	AccessToken string
	Expiry      time.Time
	// HTTPClient is used for the token exchange. Defaults to http.DefaultClient.
	HTTPClient *http.Client
}

// NewRefreshToken returns a provider that exchanges a refresh token at
// TokenURL whenever the cached access token is missing or stale. A rotated
// refresh token returned by the server replaces the old one.
func NewRefreshToken(cfg RefreshConfig, opts ...OAuthOption) *OAuth {
	conf := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint:     oauth2.Endpoint{TokenURL: cfg.TokenURL},
		Scopes:       cfg.Scopes,
	}

	var rtMu sync.Mutex
	refreshToken := cfg.RefreshToken

	o := newOAuth(func(ctx context.Context) (*oauth2.Token, error) {
		if cfg.HTTPClient != nil {
			ctx = context.WithValue(ctx, oauth2.HTTPClient, cfg.HTTPClient)
		}
		rtMu.Lock()
		rt := refreshToken
		rtMu.Unlock()

		// A source seeded without an access token always refreshes.
		tok, err := conf.TokenSource(ctx, &oauth2.Token{RefreshToken: rt}).Token()
		if err != nil {
			return nil, err
		}
		if tok.RefreshToken != "" && tok.RefreshToken != rt {
			rtMu.Lock()
			refreshToken = tok.RefreshToken
			rtMu.Unlock()
		}
		return tok, nil
	}, opts...)

	if cfg.AccessToken != "" {
		exp := cfg.Expiry
		if exp.IsZero() {
			exp = jwtExpiry(cfg.AccessToken)
		}
		if !exp.IsZero() {
			o.cached = &oauth2.Token{AccessToken: cfg.AccessToken, Expiry: exp}
		}
	}
	return o
}

func newOAuth(fetch func(ctx context.Context) (*oauth2.Token, error), opts ...OAuthOption) *OAuth {
	o := &OAuth{
		fetch:          fetch,
		skew:           DefaultExpirySkew,
		refreshTimeout: DefaultRefreshTimeout,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.log == nil {
		o.log = logger.GetGlobalLogger()
	}
	o.log = o.log.WithComponent("credential.oauth")
	return o
}

// Token returns the cached access token, refreshing it when absent or
// within the expiry skew. A caller whose ctx ends while waiting gets
// ctx.Err(); the shared refresh keeps running for the others.
func (o *OAuth) Token(ctx context.Context) (string, error) {
	if tok, ok := o.fresh(); ok {
		return tok, nil
	}

	ch := o.group.DoChan("refresh", func() (any, error) {
		if tok, ok := o.fresh(); ok {
			return tok, nil
		}
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.refreshTimeout)
		defer cancel()
		return o.refresh(rctx)
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

// Invalidate drops the cached token so the next Token call refreshes.
func (o *OAuth) Invalidate() {
	o.mu.Lock()
	o.cached = nil
	o.mu.Unlock()
}

func (o *OAuth) fresh() (string, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.cached == nil || o.cached.AccessToken == "" {
		return "", false
	}
	exp := o.cached.Expiry
	if exp.IsZero() {
		return o.cached.AccessToken, true
	}
	if o.now().Add(o.skew).Before(exp) {
		return o.cached.AccessToken, true
	}
	return "", false
}

func (o *OAuth) refresh(ctx context.Context) (string, error) {
	ctx, span := observability.StartSpan(ctx, observability.SpanTokenRefresh)
	start := o.now()

	tok, err := o.fetch(ctx)
	if err == nil && (tok == nil || tok.AccessToken == "") {
		err = ErrNoToken
	}
	o.metrics.RecordRefresh(ctx, err == nil)
	observability.EndSpan(span, 0, err)

	if err != nil {
		o.log.Warn("token refresh failed", logger.ErrorFields("oauth.refresh", err))
		return "", err
	}

	cached := &oauth2.Token{AccessToken: tok.AccessToken, Expiry: tok.Expiry}
	if cached.Expiry.IsZero() {
		cached.Expiry = jwtExpiry(tok.AccessToken)
	}

	o.mu.Lock()
	o.cached = cached
	o.mu.Unlock()

	o.log.Debug("token refreshed", logger.MergeWithDuration(logger.Fields(
		"expires_at", cached.Expiry,
	), o.now().Sub(start)))

	return cached.AccessToken, nil
}

// jwtExpiry reads the exp claim of a JWT access token without verifying it.
// Opaque tokens yield the zero time, meaning "no known expiry".
func jwtExpiry(token string) time.Time {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}
	}
	if claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time
}
