package network

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/anisan-cli/anistream/constant"
	"github.com/anisan-cli/anistream/log"
	"github.com/anisan-cli/anistream/metrics"
)

const (
	// DefaultMaxRetries is the total number of attempts of one fetch.
	DefaultMaxRetries = 3
	// DefaultBaseDelay is the wait before the second attempt; it doubles afterwards.
	DefaultBaseDelay = time.Second

	maxRetryAfter = time.Minute
)

// Request describes one logical upstream call.
type Request struct {
	URL    string
	Method string
	Header http.Header
	// Body is replayed on every attempt.
	Body []byte
	// Timeout bounds each attempt. Zero means DefaultTimeout.
	Timeout time.Duration
	// MaxRetries is the total number of attempts. Zero means the fetcher default.
	MaxRetries int
}

// RetryContext tracks the progress of one logical fetch.
type RetryContext struct {
	Attempt     int
	MaxAttempts int
	BaseDelay   time.Duration
}

// Backoff returns the wait after the current attempt failed: BaseDelay * 2^(Attempt-1).
func (r RetryContext) Backoff() time.Duration {
	if r.Attempt < 1 {
		return 0
	}
	return r.BaseDelay << (r.Attempt - 1)
}

// Exhausted reports whether no attempts remain.
func (r RetryContext) Exhausted() bool {
	return r.Attempt >= r.MaxAttempts
}

// Fetcher performs HTTP requests with a per-attempt deadline and exponential backoff.
// The deadline bounds the wait for response headers; afterwards it only
// bounds each body read, so long segments stream for as long as they flow.
// It is safe for concurrent use.
type Fetcher struct {
	Client     *http.Client
	MaxRetries int
	BaseDelay  time.Duration
	// Sleep waits between attempts. It returns early with the context error.
	Sleep func(ctx context.Context, d time.Duration) error
}

// NewFetcher builds a fetcher over client. A nil client uses the shared Client.
func NewFetcher(client *http.Client, maxRetries int, baseDelay time.Duration) *Fetcher {
	if client == nil {
		client = Client
	}
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	if baseDelay < 0 {
		baseDelay = DefaultBaseDelay
	}

	return &Fetcher{
		Client:     client,
		MaxRetries: maxRetries,
		BaseDelay:  baseDelay,
		Sleep:      sleep,
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Fetch performs req, retrying transport failures, timeouts, 429 and 5xx
// responses. Any other non-2xx status fails immediately. On success the
// caller must close the response body, which also releases the attempt context.
func (f *Fetcher) Fetch(ctx context.Context, req Request) (*http.Response, error) {
	rc := RetryContext{
		MaxAttempts: req.MaxRetries,
		BaseDelay:   f.BaseDelay,
	}
	if rc.MaxAttempts <= 0 {
		rc.MaxAttempts = f.MaxRetries
	}
	if rc.MaxAttempts <= 0 {
		rc.MaxAttempts = DefaultMaxRetries
	}

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	var lastErr *UpstreamError

	for rc.Attempt = 1; ; rc.Attempt++ {
		started := time.Now()
		resp, err := f.attempt(ctx, req, timeout)
		elapsed := time.Since(started)

		fields := log.Fields{
			"attempt": rc.Attempt,
			"max":     rc.MaxAttempts,
			"target":  req.URL,
			"elapsed": elapsed.Round(time.Millisecond).String(),
		}

		var retryAfter time.Duration

		switch {
		case err != nil:
			kind := KindTransport
			if IsTimeout(err) {
				kind = KindTimeout
			}
			lastErr = &UpstreamError{URL: req.URL, Kind: kind, Attempts: rc.Attempt, Err: err}

			fields["outcome"] = kind.String()
			metrics.FetchAttempt(kind.String())
			log.WithFields(fields).WithError(err).Warn("upstream attempt failed")

		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			fields["outcome"] = "ok"
			fields["status"] = resp.StatusCode
			metrics.FetchAttempt("ok")
			log.WithFields(fields).Debug("upstream attempt succeeded")
			return resp, nil

		case !retryable(resp.StatusCode):
			drain(resp)
			fields["outcome"] = "rejected"
			fields["status"] = resp.StatusCode
			metrics.FetchAttempt("rejected")
			log.WithFields(fields).Warn("upstream rejected request")
			return nil, &UpstreamError{URL: req.URL, Kind: KindHTTP, StatusCode: resp.StatusCode, Attempts: rc.Attempt}

		default:
			if resp.StatusCode == http.StatusTooManyRequests {
				retryAfter = parseRetryAfter(resp.Header.Get("Retry-After"))
			}
			drain(resp)
			lastErr = &UpstreamError{URL: req.URL, Kind: KindHTTP, StatusCode: resp.StatusCode, Attempts: rc.Attempt}

			fields["outcome"] = "http"
			fields["status"] = resp.StatusCode
			metrics.FetchAttempt("http")
			log.WithFields(fields).Warn("upstream attempt failed")
		}

		// The caller gave up; nothing left to retry for.
		if ctx.Err() != nil {
			return nil, &UpstreamError{URL: req.URL, Kind: KindTimeout, Attempts: rc.Attempt, Err: ctx.Err()}
		}

		if rc.Exhausted() {
			return nil, lastErr
		}

		wait := max(rc.Backoff(), retryAfter)
		if err := f.sleep(ctx, wait); err != nil {
			return nil, &UpstreamError{URL: req.URL, Kind: KindTimeout, Attempts: rc.Attempt, Err: err}
		}
	}
}

func (f *Fetcher) sleep(ctx context.Context, d time.Duration) error {
	if f.Sleep != nil {
		return f.Sleep(ctx, d)
	}
	return sleep(ctx, d)
}

func (f *Fetcher) attempt(ctx context.Context, req Request, timeout time.Duration) (*http.Response, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}

	// The deadline covers the wait for headers. Once they arrive the same
	// timer is rearmed around every body read instead.
	attemptCtx, cancel := context.WithCancel(ctx)
	timer := time.AfterFunc(timeout, cancel)

	httpReq, err := http.NewRequestWithContext(attemptCtx, method, req.URL, body)
	if err != nil {
		timer.Stop()
		cancel()
		return nil, fmt.Errorf("create request: %w", err)
	}

	for k, v := range req.Header {
		httpReq.Header[k] = v
	}
	if httpReq.Header.Get("User-Agent") == "" {
		httpReq.Header.Set("User-Agent", constant.UserAgent)
	}

	client := f.Client
	if client == nil {
		client = Client
	}

	resp, err := client.Do(httpReq)
	if !timer.Stop() && err == nil {
		// Headers raced the deadline; the body is cancelled or about to be.
		_ = resp.Body.Close()
		err = context.DeadlineExceeded
	}
	if err != nil {
		cancel()
		return nil, err
	}

	resp.Body = &idleBody{ReadCloser: resp.Body, timer: timer, idle: timeout, cancel: cancel}
	return resp, nil
}

// idleBody cancels the attempt when a single read waits longer than idle.
// Time spent by the caller between reads does not count, so a slow
// consumer never trips it. Close releases the attempt context.
type idleBody struct {
	io.ReadCloser
	timer  *time.Timer
	idle   time.Duration
	cancel context.CancelFunc
}

func (b *idleBody) Read(p []byte) (int, error) {
	b.timer.Reset(b.idle)
	n, err := b.ReadCloser.Read(p)
	b.timer.Stop()
	return n, err
}

func (b *idleBody) Close() error {
	b.timer.Stop()
	err := b.ReadCloser.Close()
	b.cancel()
	return err
}

func retryable(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	_ = resp.Body.Close()
}

// parseRetryAfter parses Retry-After (seconds or HTTP-date), capped at maxRetryAfter.
func parseRetryAfter(s string) time.Duration {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}

	if sec, err := strconv.Atoi(s); err == nil && sec >= 0 {
		return min(time.Duration(sec)*time.Second, maxRetryAfter)
	}

	t, err := http.ParseTime(s)
	if err != nil {
		return 0
	}
	return min(max(time.Until(t), 0), maxRetryAfter)
}

// ErrEmptyBody is reported by FetchJSON when a 2xx response carried no body.
var ErrEmptyBody = errors.New("empty response body")
