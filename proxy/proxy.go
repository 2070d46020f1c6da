// Package proxy serves HLS playlists and media segments fetched from upstream CDNs.
package proxy

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/anisan-cli/anistream/hls"
	"github.com/anisan-cli/anistream/log"
	"github.com/anisan-cli/anistream/metrics"
	"github.com/anisan-cli/anistream/network"
	"github.com/anisan-cli/anistream/util"
)

// State is a step of one proxied exchange.
type State string

const (
	StateReceived  State = "received"
	StateFetching  State = "fetching"
	StateRewriting State = "rewriting"
	StateStreaming State = "streaming"
	StateResponded State = "responded"
)

// maxPlaylist caps how much of a playlist is buffered for rewriting.
const maxPlaylist = 16 << 20

// Fetcher is the part of network.Fetcher the handler needs.
type Fetcher interface {
	Fetch(ctx context.Context, req network.Request) (*http.Response, error)
}

// Handler fetches an upstream playlist or segment and relays it.
type Handler struct {
	Fetcher Fetcher
	// ProxyBase is the public origin rewritten playlists point back at.
	// When empty it is derived from the incoming request.
	ProxyBase string
	// Timeout bounds each upstream attempt.
	Timeout time.Duration
}

// New returns a Handler.
func New(fetcher Fetcher, proxyBase string, timeout time.Duration) *Handler {
	return &Handler{
		Fetcher:   fetcher,
		ProxyBase: strings.TrimSuffix(proxyBase, "/"),
		Timeout:   timeout,
	}
}

// exchange carries one request through the handler states.
type exchange struct {
	state   State
	target  string
	headers map[string]string
	started time.Time
}

func (x *exchange) to(s State) {
	x.state = s
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	SetCORS(w.Header())

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	x := &exchange{state: StateReceived, started: time.Now()}

	target, headers, err := parseQuery(r.URL.Query())
	if err != nil {
		h.fail(w, x, http.StatusBadRequest, err.Error())
		return
	}
	x.target, x.headers = target, headers

	x.to(StateFetching)

	upstreamHeaders := mergeHeaders(headers)
	if rng := r.Header.Get("Range"); rng != "" {
		upstreamHeaders.Set("Range", rng)
	}

	resp, err := h.Fetcher.Fetch(r.Context(), network.Request{
		URL:     target,
		Header:  upstreamHeaders,
		Timeout: h.Timeout,
	})
	if err != nil {
		status := http.StatusInternalServerError
		if network.IsTimeout(err) {
			status = http.StatusGatewayTimeout
		}
		log.WithFields(log.Fields{"target": target}).WithError(err).Warn("manifest proxy fetch failed")
		h.fail(w, x, status, err.Error())
		return
	}
	defer util.Ignore(resp.Body.Close)

	body := bufio.NewReader(resp.Body)

	if isPlaylist(resp, body) {
		x.to(StateRewriting)
		h.rewrite(w, r, x, resp, body)
		return
	}

	x.to(StateStreaming)
	h.stream(w, x, resp, body)
}

func parseQuery(q url.Values) (target string, headers map[string]string, err error) {
	target = strings.TrimSpace(q.Get("url"))
	if target == "" {
		return "", nil, fmt.Errorf("missing required parameter: url")
	}

	u, err := url.Parse(target)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", nil, fmt.Errorf("url must be an absolute http(s) URL")
	}

	headers, err = hls.ParseHeaders(q.Get("headers"))
	if err != nil {
		return "", nil, fmt.Errorf("headers must be a JSON object: %v", err)
	}

	return target, headers, nil
}

// isPlaylist decides by content type, URL suffix or the #EXTM3U signature.
func isPlaylist(resp *http.Response, body *bufio.Reader) bool {
	if strings.Contains(strings.ToLower(resp.Header.Get("Content-Type")), "mpegurl") {
		return true
	}

	if resp.Request != nil && strings.HasSuffix(strings.ToLower(resp.Request.URL.Path), ".m3u8") {
		return true
	}

	// Compressed bodies cannot be sniffed without decoding them.
	if enc := resp.Header.Get("Content-Encoding"); enc != "" && !strings.EqualFold(enc, "identity") {
		return false
	}

	head, _ := body.Peek(len("#EXTM3U") + 3)
	head = bytes.TrimPrefix(head, []byte("\xef\xbb\xbf"))
	return bytes.HasPrefix(head, []byte("#EXTM3U"))
}

func (h *Handler) rewrite(w http.ResponseWriter, r *http.Request, x *exchange, resp *http.Response, body io.Reader) {
	decoded, _, err := network.Decode(body, resp.Header.Get("Content-Encoding"))
	if err != nil {
		h.fail(w, x, http.StatusInternalServerError, fmt.Sprintf("decode playlist: %v", err))
		return
	}

	data, err := io.ReadAll(io.LimitReader(decoded, maxPlaylist))
	if err != nil {
		status := http.StatusInternalServerError
		if network.IsTimeout(err) {
			status = http.StatusGatewayTimeout
		}
		h.fail(w, x, status, fmt.Sprintf("read playlist: %v", err))
		return
	}

	// Redirects move the directory relative references live in.
	playlistURL := x.target
	if resp.Request != nil && resp.Request.URL != nil {
		playlistURL = resp.Request.URL.String()
	}

	rewritten := hls.Rewrite(string(data), hls.BaseURL(playlistURL), x.headers, h.proxyBase(r))

	w.Header().Set("Content-Type", playlistContentType)
	w.Header().Set("Cache-Control", playlistCache)
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, rewritten)

	h.done(x, http.StatusOK)
}

func (h *Handler) stream(w http.ResponseWriter, x *exchange, resp *http.Response, body io.Reader) {
	for _, name := range passthroughHeaders {
		if v := resp.Header.Get(name); v != "" {
			w.Header().Set(name, v)
		}
	}
	if w.Header().Get("Cache-Control") == "" {
		w.Header().Set("Cache-Control", segmentCache)
	}

	w.WriteHeader(resp.StatusCode)

	if _, err := io.Copy(w, body); err != nil {
		// Headers are gone already; the player sees a truncated body.
		log.WithFields(log.Fields{"target": x.target}).WithError(err).Debug("segment stream interrupted")
	}

	h.done(x, resp.StatusCode)
}

func (h *Handler) proxyBase(r *http.Request) string {
	if h.ProxyBase != "" {
		return h.ProxyBase
	}

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if p := r.Header.Get("X-Forwarded-Proto"); p != "" {
		scheme = p
	}

	return scheme + "://" + r.Host
}

func (h *Handler) fail(w http.ResponseWriter, x *exchange, status int, message string) {
	util.WriteError(w, status, message)
	h.done(x, status)
}

func (h *Handler) done(x *exchange, code int) {
	last := x.state
	x.to(StateResponded)
	metrics.ProxyResponse(string(last), code)

	log.WithFields(log.Fields{
		"state":   last,
		"status":  code,
		"target":  x.target,
		"elapsed": time.Since(x.started).Round(time.Millisecond).String(),
	}).Debug("manifest proxy responded")
}
