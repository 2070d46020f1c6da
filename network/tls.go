package network

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	utls "github.com/refraction-networking/utls"
	"golang.org/x/net/http2"
)

const dialTimeout = 30 * time.Second

// ChromeTransport is an http.RoundTripper whose TLS handshake carries a
// Chrome 120 ClientHello. Some streaming upstreams sit behind anti-bot
// fronts that reject the Go TLS fingerprint.
//
// Requests go over HTTP/2 first, since that is what the fingerprint
// advertises, and fall back to an HTTP/1.1-only handshake when that fails.
type ChromeTransport struct {
	h2Once sync.Once
	h2     *http2.Transport
	h1     *http.Transport
}

// NewChromeTransport builds a ChromeTransport.
func NewChromeTransport() *ChromeTransport {
	return &ChromeTransport{
		h1: &http.Transport{
			DialTLSContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
				return dialChrome(ctx, network, addr, []string{"http/1.1"})
			},
			MaxIdleConnsPerHost: 16,
			IdleConnTimeout:     30 * time.Second,
		},
	}
}

// NewChromeClient returns a client using a fresh ChromeTransport.
func NewChromeClient() *http.Client {
	return &http.Client{Transport: NewChromeTransport()}
}

func (t *ChromeTransport) h2Transport() *http2.Transport {
	t.h2Once.Do(func() {
		t.h2 = &http2.Transport{
			DialTLSContext: func(ctx context.Context, network, addr string, _ *tls.Config) (net.Conn, error) {
				return dialChrome(ctx, network, addr, nil)
			},
		}
	})
	return t.h2
}

// RoundTrip implements http.RoundTripper.
func (t *ChromeTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// Plain HTTP has no handshake to disguise.
	if req.URL.Scheme != "https" {
		return t.h1.RoundTrip(req)
	}

	resp, err := t.h2Transport().RoundTrip(req)
	if err == nil {
		return resp, nil
	}

	if req.Context().Err() != nil {
		return nil, err
	}

	retry := req.Clone(req.Context())
	if req.Body != nil && req.GetBody != nil {
		body, bodyErr := req.GetBody()
		if bodyErr != nil {
			return nil, err
		}
		retry.Body = body
	}

	return t.h1.RoundTrip(retry)
}

// CloseIdleConnections closes idle connections of both protocols.
func (t *ChromeTransport) CloseIdleConnections() {
	t.h1.CloseIdleConnections()
	if t.h2 != nil {
		t.h2.CloseIdleConnections()
	}
}

// dialChrome opens a TLS connection mimicking Chrome 120. nextProtos
// overrides ALPN; nil keeps Chrome's own h2 and http/1.1 advertisement.
func dialChrome(ctx context.Context, network, addr string, nextProtos []string) (net.Conn, error) {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
	}

	dialer := &net.Dialer{Timeout: dialTimeout}
	conn, err := dialer.DialContext(ctx, network, addr)
	if err != nil {
		return nil, err
	}

	tlsConn := utls.UClient(conn, &utls.Config{
		ServerName: host,
		MinVersion: tls.VersionTLS12,
		NextProtos: nextProtos,
	}, utls.HelloChrome_120)

	if err := tlsConn.HandshakeContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("tls handshake: %w", err)
	}

	return tlsConn, nil
}
