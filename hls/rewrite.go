// Package hls rewrites HLS playlists so every referenced URI is fetched back through the manifest proxy.
package hls

import (
	"strings"
)

// Kind is the class of URI reference a playlist line carries.
type Kind int

const (
	// KindNone marks lines that are never rewritten.
	KindNone Kind = iota
	// KindVariant is the URI line following #EXT-X-STREAM-INF.
	KindVariant
	// KindSegment is the URI line following #EXTINF.
	KindSegment
	// KindKey is the URI attribute of #EXT-X-KEY.
	KindKey
	// KindMap is the URI attribute of #EXT-X-MAP.
	KindMap
	// KindMedia is the URI attribute of #EXT-X-MEDIA renditions and
	// #EXT-X-I-FRAME-STREAM-INF variants.
	KindMedia
)

func (k Kind) String() string {
	switch k {
	case KindVariant:
		return "variant"
	case KindSegment:
		return "segment"
	case KindKey:
		return "key"
	case KindMap:
		return "map"
	case KindMedia:
		return "media"
	default:
		return "none"
	}
}

type directive struct {
	kind Kind
	// nextLine means the URI is on the following URI line rather than in an attribute.
	nextLine bool
}

var directives = map[string]directive{
	"#EXT-X-STREAM-INF": {kind: KindVariant, nextLine: true},
	"#EXTINF":           {kind: KindSegment, nextLine: true},
	"#EXT-X-KEY":        {kind: KindKey},
	"#EXT-X-MAP":        {kind: KindMap},

	"#EXT-X-MEDIA":              {kind: KindMedia},
	"#EXT-X-I-FRAME-STREAM-INF": {kind: KindMedia},
}

// directiveOf returns the directive a tag line starts with.
func directiveOf(line string) (directive, bool) {
	name, _, _ := strings.Cut(line, ":")
	d, ok := directives[strings.TrimSpace(name)]
	return d, ok
}

// Rewriter turns playlist references into proxy URLs.
// The zero value is not usable; ProxyBase must be set.
type Rewriter struct {
	// BaseURL is the directory relative references are resolved against.
	BaseURL string
	// Headers are forwarded with every proxied request.
	Headers map[string]string
	// ProxyBase is the public origin of the manifest proxy.
	ProxyBase string
}

// Rewrite is a shorthand for a Rewriter over the given parameters.
func Rewrite(playlist, baseURL string, headers map[string]string, proxyBase string) string {
	r := Rewriter{BaseURL: baseURL, Headers: headers, ProxyBase: proxyBase}
	return r.Rewrite(playlist)
}

// Rewrite scans the playlist line by line. Variant and segment URI lines
// are rewritten when they follow their tag. Key, map, rendition and
// I-frame tags have their URI attribute rewritten in place. Other lines and
// line endings are kept.
func (r Rewriter) Rewrite(playlist string) string {
	var (
		b       strings.Builder
		pending = KindNone
	)
	b.Grow(len(playlist) + len(playlist)/2)

	for _, raw := range strings.SplitAfter(playlist, "\n") {
		if raw == "" {
			continue
		}

		line, eol := splitEOL(raw)
		trimmed := strings.TrimSpace(line)

		switch {
		case trimmed == "":
			// Blank lines neither consume nor cancel a pending reference.

		case strings.HasPrefix(trimmed, "#"):
			if d, ok := directiveOf(trimmed); ok {
				if d.nextLine {
					pending = d.kind
				} else {
					line = r.RewriteLine(d.kind, line)
				}
			}

		case pending != KindNone:
			line = r.RewriteLine(pending, line)
			pending = KindNone
		}

		b.WriteString(line)
		b.WriteString(eol)
	}

	return b.String()
}

// RewriteLine applies the rule of one reference class to a single line.
func (r Rewriter) RewriteLine(kind Kind, line string) string {
	switch kind {
	case KindVariant, KindSegment:
		ref := strings.TrimSpace(line)
		if ref == "" {
			return line
		}
		lead := line[:strings.Index(line, ref)]
		return lead + r.proxy(ref)
	case KindKey, KindMap, KindMedia:
		return r.rewriteURIAttr(line)
	default:
		return line
	}
}

func (r Rewriter) proxy(ref string) string {
	if IsProxied(r.ProxyBase, ref) || !proxiable(ref) {
		return ref
	}
	return ProxyURL(r.ProxyBase, Resolve(r.BaseURL, ref), r.Headers)
}

// rewriteURIAttr replaces the quoted value of the URI attribute of a tag line.
func (r Rewriter) rewriteURIAttr(line string) string {
	start, end, ok := uriAttr(line)
	if !ok {
		return line
	}
	return line[:start] + r.proxy(line[start:end]) + line[end:]
}

// uriAttr locates the value of URI="..." in a tag's attribute list. The
// attribute must start the list or follow a comma, so KEYFORMATURI and
// similar names never match.
func uriAttr(line string) (start, end int, ok bool) {
	colon := strings.Index(line, ":")
	if colon < 0 {
		return 0, 0, false
	}

	inQuotes := false
	attrStart := colon + 1

	for i := colon + 1; i <= len(line); i++ {
		if i < len(line) && line[i] == '"' {
			inQuotes = !inQuotes
			continue
		}
		if i < len(line) && (inQuotes || line[i] != ',') {
			continue
		}

		attr := line[attrStart:i]
		name, value, found := strings.Cut(attr, "=")
		if found && strings.TrimSpace(name) == "URI" {
			value = strings.TrimSpace(value)
			if len(value) >= 2 && value[0] == '"' && value[len(value)-1] == '"' {
				q := attrStart + strings.Index(attr, value)
				return q + 1, q + len(value) - 1, true
			}
		}
		attrStart = i + 1
	}

	return 0, 0, false
}

// proxiable rejects references with a scheme other than http(s), such as
// data: keys or skd: key server addresses, which the proxy cannot fetch.
func proxiable(ref string) bool {
	if ref == "" {
		return false
	}
	if strings.HasPrefix(ref, "http") {
		return true
	}

	scheme, _, found := strings.Cut(ref, ":")
	if !found {
		return true
	}
	for _, c := range scheme {
		if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '+' || c == '-' || c == '.') {
			return true
		}
	}
	return false
}

func splitEOL(raw string) (line, eol string) {
	switch {
	case strings.HasSuffix(raw, "\r\n"):
		return raw[:len(raw)-2], "\r\n"
	case strings.HasSuffix(raw, "\n"):
		return raw[:len(raw)-1], "\n"
	default:
		return raw, ""
	}
}
