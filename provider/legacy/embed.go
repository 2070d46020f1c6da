package legacy

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/anisan-cli/anistream/hls"
	"github.com/anisan-cli/anistream/network"
	"github.com/anisan-cli/anistream/source"
)

var errNoStream = errors.New("no stream found in embed page")

// fileRe matches player setups such as file:"https://.../master.m3u8".
var fileRe = regexp.MustCompile(`(?:file|src|source)\s*[:=]\s*["']([^"']+\.m3u8[^"']*)["']`)

// scrapeEmbed loads an embedded player page and extracts the playlist it plays.
func (s *Source) scrapeEmbed(ctx context.Context, pageURL string, headers source.Headers) (string, error) {
	h := http.Header{"Accept": {"text/html,application/xhtml+xml"}}
	for k, v := range headers.Map() {
		h.Set(k, v)
	}

	body, err := s.fetcher.FetchBytes(ctx, network.Request{
		URL:     pageURL,
		Header:  h,
		Timeout: s.cfg.Timeout,
	})
	if err != nil {
		return "", err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", err
	}

	var found string
	doc.Find("video source[src], video[src], source[src], [data-src]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		for _, attr := range []string{"src", "data-src"} {
			if v, ok := sel.Attr(attr); ok && source.LooksLikeM3U8(v) {
				found = v
				return false
			}
		}
		return true
	})

	if found == "" {
		doc.Find("script").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
			if m := fileRe.FindStringSubmatch(sel.Text()); m != nil {
				found = m[1]
				return false
			}
			return true
		})
	}

	found = strings.TrimSpace(found)
	if found == "" {
		return "", errNoStream
	}

	return hls.Resolve(hls.BaseURL(pageURL), found), nil
}
