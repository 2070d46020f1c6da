package proxy

import (
	"net/http"

	"github.com/anisan-cli/anistream/constant"
	"github.com/anisan-cli/anistream/network"
)

// defaultHeaders is the browser-like header set every upstream media
// request starts from; caller supplied headers override it.
func defaultHeaders() http.Header {
	return http.Header{
		"User-Agent":      {constant.UserAgent},
		"Accept":          {"*/*"},
		"Accept-Language": {"en-US,en;q=0.9"},
		"Accept-Encoding": {network.AcceptEncoding},
		"Sec-Fetch-Dest":  {"empty"},
		"Sec-Fetch-Mode":  {"cors"},
		"Sec-Fetch-Site":  {"cross-site"},
	}
}

// passthroughHeaders are the upstream response headers forwarded when streaming.
var passthroughHeaders = []string{
	"Content-Type",
	"Content-Length",
	"Content-Range",
	"Accept-Ranges",
	"Content-Encoding",
	"Content-Language",
	"Cache-Control",
	"Expires",
	"Last-Modified",
	"Etag",
}

const (
	playlistContentType = "application/vnd.apple.mpegurl"
	playlistCache       = "public, max-age=5"
	segmentCache        = "public, max-age=300"
)

// SetCORS sets the permissive CORS headers present on every proxy response.
func SetCORS(h http.Header) {
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Methods", "GET, OPTIONS")
	h.Set("Access-Control-Allow-Headers", "Range, Content-Type")
	h.Set("Access-Control-Expose-Headers", "Content-Length, Content-Range, Accept-Ranges")
}

func mergeHeaders(custom map[string]string) http.Header {
	h := defaultHeaders()
	for k, v := range custom {
		if v == "" {
			continue
		}
		h.Set(k, v)
	}
	return h
}
