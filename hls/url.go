package hls

import (
	"encoding/json"
	"net/url"
	"strings"
)

// ManifestPath is the proxy route every rewritten URI points at.
const ManifestPath = "/manifest"

// BaseURL returns the directory of a playlist URL: query and fragment are
// dropped and the path is truncated after its last slash.
func BaseURL(fetchURL string) string {
	u, err := url.Parse(fetchURL)
	if err != nil {
		if i := strings.LastIndex(fetchURL, "/"); i >= 0 {
			return fetchURL[:i+1]
		}
		return fetchURL
	}

	u.RawQuery = ""
	u.Fragment = ""
	if i := strings.LastIndex(u.Path, "/"); i >= 0 {
		u.Path = u.Path[:i+1]
	} else {
		u.Path = "/"
	}
	u.RawPath = ""

	return u.String()
}

// Resolve returns ref as an absolute URL. A reference starting with "http"
// is returned verbatim, anything else is resolved against base.
func Resolve(base, ref string) string {
	if strings.HasPrefix(ref, "http") {
		return ref
	}

	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}

	return b.ResolveReference(r).String()
}

// ProxyURL builds proxyBase/manifest?url=<target>&headers=<json>. The
// headers parameter is omitted when there are none.
func ProxyURL(proxyBase, target string, headers map[string]string) string {
	var b strings.Builder
	b.WriteString(strings.TrimSuffix(proxyBase, "/"))
	b.WriteString(ManifestPath)
	b.WriteString("?url=")
	b.WriteString(url.QueryEscape(target))

	if len(headers) > 0 {
		// Map keys are marshalled in sorted order, which keeps URLs stable.
		data, err := json.Marshal(headers)
		if err == nil {
			b.WriteString("&headers=")
			b.WriteString(url.QueryEscape(string(data)))
		}
	}

	return b.String()
}

// IsProxied reports whether u already points at the proxy under proxyBase.
func IsProxied(proxyBase, u string) bool {
	prefix := strings.TrimSuffix(proxyBase, "/") + ManifestPath + "?"
	return proxyBase != "" && strings.HasPrefix(u, prefix)
}

// Unwrap returns the upstream URL and headers carried by a proxy URL.
func Unwrap(proxyURL string) (target string, headers map[string]string, ok bool) {
	u, err := url.Parse(proxyURL)
	if err != nil || !strings.HasSuffix(u.Path, ManifestPath) {
		return "", nil, false
	}

	q := u.Query()
	target = q.Get("url")
	if target == "" {
		return "", nil, false
	}

	headers, err = ParseHeaders(q.Get("headers"))
	if err != nil {
		return "", nil, false
	}

	return target, headers, true
}

// ParseHeaders decodes the JSON object carried in the headers query
// parameter. An empty value yields no headers. Non-string values are
// rendered with their JSON text.
func ParseHeaders(raw string) (map[string]string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return map[string]string{}, nil
	}

	var values map[string]any
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return nil, err
	}

	headers := make(map[string]string, len(values))
	for k, v := range values {
		switch v := v.(type) {
		case string:
			headers[k] = v
		case nil:
		default:
			data, _ := json.Marshal(v)
			headers[k] = string(data)
		}
	}

	return headers, nil
}
