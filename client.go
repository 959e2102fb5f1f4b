package bkper

import (
	"net/http"
	"time"

	"github.com/kbukum/bkper/config"
	"github.com/kbukum/bkper/credential"
	"github.com/kbukum/bkper/httpclient"
	"github.com/kbukum/bkper/logger"
	"github.com/kbukum/bkper/observability"
	"github.com/kbukum/bkper/resilience"
	"github.com/kbukum/bkper/version"
)

// EnvAPIKey is read when no API key is configured.
const EnvAPIKey = "BKPER_API_KEY"

// Client talks to the Bkper API. It is safe for concurrent use.
type Client struct {
	http       *httpclient.Adapter
	creds      credential.Set
	apiKeyIn   string
	apiKeyName string
	log        *logger.Logger
	metrics    *observability.Metrics
}

type options struct {
	creds   *credential.Set
	doer    httpclient.Doer
	log     *logger.Logger
	metrics *observability.Metrics
}

// Option configures a Client.
type Option func(*options)

// WithCredentials replaces the providers derived from configuration.
func WithCredentials(s credential.Set) Option {
	return func(o *options) { o.creds = &s }
}

// WithDoer sends requests through d instead of a fresh *http.Client.
func WithDoer(d httpclient.Doer) Option {
	return func(o *options) { o.doer = d }
}

// WithLogger sets the client logger. Defaults to the global logger.
func WithLogger(l *logger.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithMetrics records request and refresh metrics on m.
func WithMetrics(m *observability.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// New builds a client from cfg. A nil cfg uses defaults. cfg is copied;
// later changes to it have no effect.
func New(cfg *config.Config, opts ...Option) (*Client, error) {
	var c config.Config
	if cfg != nil {
		c = *cfg
	}
	c.ApplyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}

	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = logger.GetGlobalLogger()
	}
	log := o.log.WithComponent("bkper")

	userAgent := c.UserAgent
	if userAgent == "" {
		userAgent = version.UserAgent()
	}

	httpCfg := httpclient.Config{
		Name:      "bkper",
		BaseURL:   c.BaseURL,
		Timeout:   c.Timeout,
		TLS:       c.TLS,
		ProxyURL:  c.ProxyURL,
		Headers:   c.Headers,
		UserAgent: userAgent,
	}
	if c.RateLimit.Rate > 0 {
		httpCfg.RateLimiter = &resilience.RateLimiterConfig{
			Name:  "bkper",
			Rate:  c.RateLimit.Rate,
			Burst: c.RateLimit.Burst,
			OnWait: func(name string, delay time.Duration) {
				log.Debug("rate limited", logger.MergeWithDuration(logger.Fields(
					logger.FieldComponent, name,
				), delay))
			},
		}
	}

	httpOpts := []httpclient.Option{
		httpclient.WithLogger(o.log),
		httpclient.WithMetrics(o.metrics),
	}
	if o.doer != nil {
		httpOpts = append(httpOpts, httpclient.WithDoer(o.doer))
	}
	adapter, err := httpclient.New(httpCfg, httpOpts...)
	if err != nil {
		return nil, err
	}

	creds := credentialsFromConfig(c, o, adapter.HTTPClient())
	if o.creds != nil {
		creds = *o.creds
	}

	return &Client{
		http:       adapter,
		creds:      creds,
		apiKeyIn:   c.APIKeyIn,
		apiKeyName: c.APIKeyName,
		log:        log,
		metrics:    o.metrics,
	}, nil
}

// credentialsFromConfig builds the configured providers. Token exchanges go
// through hc so they share the client's timeout, TLS and proxy settings.
func credentialsFromConfig(c config.Config, o options, hc *http.Client) credential.Set {
	var s credential.Set

	if c.APIKey != "" {
		s.APIKey = credential.Static(c.APIKey)
	} else {
		s.APIKey = credential.FromEnv(EnvAPIKey)
	}

	switch {
	case c.OAuth.RefreshToken != "":
		opts := []credential.OAuthOption{
			credential.WithLogger(o.log),
			credential.WithMetrics(o.metrics),
			credential.WithRefreshTimeout(c.Timeout),
		}
		if c.OAuth.ExpirySkew != nil {
			opts = append(opts, credential.WithExpirySkew(*c.OAuth.ExpirySkew))
		}
		s.OAuth = credential.NewRefreshToken(credential.RefreshConfig{
			ClientID:     c.OAuth.ClientID,
			ClientSecret: c.OAuth.ClientSecret,
			TokenURL:     c.OAuth.TokenURL,
			RefreshToken: c.OAuth.RefreshToken,
			Scopes:       c.OAuth.Scopes,
			AccessToken:  c.OAuth.AccessToken,
			HTTPClient:   hc,
		}, opts...)
	case c.OAuth.AccessToken != "":
		s.OAuth = credential.Static(c.OAuth.AccessToken)
	}
	return s
}

// Credentials returns the providers the client consults on every call.
func (c *Client) Credentials() credential.Set {
	return c.creds
}

// auth maps resolved credentials onto the transport's auth config. Returns
// nil when neither is present.
func (c *Client) auth(r credential.Resolved) *httpclient.AuthConfig {
	var bearer, key *httpclient.AuthConfig
	if r.Token != "" {
		bearer = httpclient.BearerAuth(r.Token)
	}
	if r.APIKey != "" {
		if c.apiKeyIn == "query" {
			key = httpclient.APIKeyAuthQuery(r.APIKey, c.apiKeyName)
		} else {
			key = httpclient.APIKeyAuthHeader(r.APIKey, c.apiKeyName)
		}
	}
	return httpclient.MultiAuth(bearer, key)
}
