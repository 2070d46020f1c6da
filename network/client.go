// Package network provides the tuned HTTP clients and the retrying fetcher every upstream call goes through.
package network

import (
	"net/http"
	"time"
)

const (
	// DefaultTimeout bounds one attempt of a generic upstream call.
	DefaultTimeout = 10 * time.Second
	// LargePayloadTimeout bounds one attempt of a call expected to return a large body.
	LargePayloadTimeout = 15 * time.Second
)

// Client is the shared HTTP client for upstream calls. Deadlines are
// applied per attempt by the Fetcher, so the client itself has none.
var Client = &http.Client{
	Transport: NewTransport(),
}

// NewTransport initializes a tuned http.Transport with pool and timeout
// parameters suited to many concurrent requests against few hosts.
func NewTransport() *http.Transport {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.MaxIdleConns = 100
	t.MaxIdleConnsPerHost = 100
	t.MaxConnsPerHost = 200
	t.IdleConnTimeout = 30 * time.Second
	t.ResponseHeaderTimeout = LargePayloadTimeout
	t.ExpectContinueTimeout = time.Second
	// Bodies are passed through to players untouched, including their encoding.
	t.DisableCompression = true
	return t
}
