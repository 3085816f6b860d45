// Package transport builds the HTTP clients used to reach the commerce API.
package transport

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	utls "github.com/refraction-networking/utls"
	"golang.org/x/net/http2"
)

// =============================================================================
// BROWSER TLS FINGERPRINT
// =============================================================================
//
// Storefront APIs often sit behind CDNs that throttle clients whose TLS
// ClientHello does not look like a browser. With ChromeTLS enabled the client
// dials through uTLS using Chrome's hello, speaks HTTP/2 when ALPN agrees and
// falls back to HTTP/1.1 otherwise.
// =============================================================================

// Options configures NewHTTPClient.
type Options struct {
	Timeout   time.Duration
	ChromeTLS bool
}

// NewHTTPClient returns a client for the commerce API. Without ChromeTLS it
// uses the standard library transport with HTTP/2 enabled.
func NewHTTPClient(opts Options) *http.Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	var rt http.RoundTripper
	if opts.ChromeTLS {
		rt = NewChromeTransport(opts.Timeout)
	} else {
		t := http.DefaultTransport.(*http.Transport).Clone()
		t.ForceAttemptHTTP2 = true
		rt = t
	}
	return &http.Client{Timeout: opts.Timeout, Transport: rt}
}

// NewChromeTransport returns a RoundTripper presenting Chrome's TLS
// fingerprint upstream.
func NewChromeTransport(timeout time.Duration) http.RoundTripper {
	dialer := &net.Dialer{Timeout: timeout, KeepAlive: 30 * time.Second}

	return &chromeTransport{
		h2: &http2.Transport{
			DialTLSContext: func(ctx context.Context, network, addr string, _ *tls.Config) (net.Conn, error) {
				return dialChrome(ctx, dialer, network, addr)
			},
			ReadIdleTimeout: timeout,
		},
		h1: &http.Transport{
			DialContext: dialer.DialContext,
			DialTLSContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
				return dialChrome(ctx, dialer, network, addr)
			},
			MaxIdleConnsPerHost: 8,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

type chromeTransport struct {
	h2 *http2.Transport
	h1 *http.Transport
}

// RoundTrip prefers HTTP/2. Plain-http URLs and servers that refuse h2 are
// served over HTTP/1.1. A cancelled request is not retried.
func (t *chromeTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.URL.Scheme != "https" {
		return t.h1.RoundTrip(req)
	}
	resp, err := t.h2.RoundTrip(req)
	if err == nil {
		return resp, nil
	}
	if ctxErr := req.Context().Err(); ctxErr != nil {
		return nil, errors.Join(err, ctxErr)
	}
	if req.Body != nil && req.GetBody != nil {
		body, berr := req.GetBody()
		if berr != nil {
			return nil, err
		}
		req = req.Clone(req.Context())
		req.Body = body
	}
	return t.h1.RoundTrip(req)
}

func (t *chromeTransport) CloseIdleConnections() {
	t.h2.CloseIdleConnections()
	t.h1.CloseIdleConnections()
}

func dialChrome(ctx context.Context, dialer *net.Dialer, network, addr string) (net.Conn, error) {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
	}

	conn, err := dialer.DialContext(ctx, network, addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}

	tlsConn := utls.UClient(conn, &utls.Config{ServerName: host}, utls.HelloChrome_Auto)
	if err := tlsConn.Handshake(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("tls handshake with %s: %w", host, err)
	}
	return tlsConn, nil
}
