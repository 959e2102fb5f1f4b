package httpclient

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/net/http2"
	"golang.org/x/net/proxy"
)

// HTTP/2 connection health checks. A connection idle for h2ReadIdleTimeout
// is pinged and dropped if no answer arrives within h2PingTimeout.
const (
	h2ReadIdleTimeout = 30 * time.Second
	h2PingTimeout     = 15 * time.Second
)

func newTransport(cfg Config) (*http.Transport, error) {
	t := http.DefaultTransport.(*http.Transport).Clone()

	if cfg.TLS != nil {
		tlsCfg, err := cfg.TLS.Build()
		if err != nil {
			return nil, err
		}
		if tlsCfg != nil {
			t.TLSClientConfig = tlsCfg
		}
	}

	if cfg.ProxyURL != "" {
		if err := applyProxy(t, cfg.ProxyURL); err != nil {
			return nil, err
		}
	}

	h2, err := http2.ConfigureTransports(t)
	if err != nil {
		return nil, fmt.Errorf("httpclient: configure http2: %w", err)
	}
	h2.ReadIdleTimeout = h2ReadIdleTimeout
	h2.PingTimeout = h2PingTimeout

	return t, nil
}

func parseProxyURL(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("httpclient: proxy url: %w", err)
	}
	switch u.Scheme {
	case "http", "https", "socks5", "socks5h":
	default:
		return nil, fmt.Errorf("httpclient: unsupported proxy scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("httpclient: proxy url %q has no host", raw)
	}
	return u, nil
}

// applyProxy routes t through an HTTP(S) proxy or a SOCKS5 dialer.
func applyProxy(t *http.Transport, raw string) error {
	u, err := parseProxyURL(raw)
	if err != nil {
		return err
	}

	if u.Scheme == "http" || u.Scheme == "https" {
		t.Proxy = http.ProxyURL(u)
		return nil
	}

	var auth *proxy.Auth
	if u.User != nil {
		password, _ := u.User.Password()
		auth = &proxy.Auth{User: u.User.Username(), Password: password}
	}
	dialer, err := proxy.SOCKS5("tcp", u.Host, auth, proxy.Direct)
	if err != nil {
		return fmt.Errorf("httpclient: socks5 proxy: %w", err)
	}

	t.Proxy = nil
	if cd, ok := dialer.(proxy.ContextDialer); ok {
		t.DialContext = cd.DialContext
	} else {
		t.DialContext = func(_ context.Context, network, addr string) (net.Conn, error) {
			return dialer.Dial(network, addr)
		}
	}
	return nil
}
