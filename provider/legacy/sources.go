package legacy

import (
	"bytes"
	"context"
	"errors"
	"net/url"

	"github.com/anisan-cli/anistream/hls"
	"github.com/anisan-cli/anistream/log"
	"github.com/anisan-cli/anistream/network"
	"github.com/anisan-cli/anistream/source"
	"github.com/samber/lo"
)

// GetSources implements source.Adapter. The primary upstream is asked first;
// any failure there, including an empty or garbled body, moves on to the
// alternate upstream.
func (s *Source) GetSources(ctx context.Context, ref source.EpisodeRef, track source.Track) (source.Resolution, error) {
	if err := s.requireBase(); err != nil {
		return source.Resolution{}, err
	}

	if ref.EpisodeID == "" {
		return source.Resolution{}, source.BadRequest("legacy: episodeId is required")
	}

	var errs []error
	for i, base := range s.upstreams() {
		res, err := s.watch(ctx, base, ref.EpisodeID, track)
		if err == nil {
			return res, nil
		}

		errs = append(errs, err)
		log.WithFields(log.Fields{
			"provider": s.ID(),
			"episode":  ref.EpisodeID,
			"upstream": i,
		}).WithError(err).Warn("legacy upstream failed")

		if ctx.Err() != nil {
			break
		}
	}

	return source.Resolution{}, errors.Join(errs...)
}

func (s *Source) watch(ctx context.Context, base, episodeID string, track source.Track) (source.Resolution, error) {
	q := url.Values{"category": {track.String()}}
	if s.cfg.Server != "" {
		q.Set("server", s.cfg.Server)
	}

	var w watchWire
	err := s.fetcher.FetchJSON(ctx, network.Request{
		URL:     base + "/watch/" + url.PathEscape(episodeID) + "?" + q.Encode(),
		Timeout: s.cfg.Timeout,
	}, &w)
	if err != nil {
		return source.Resolution{}, err
	}

	headers := source.Headers{Referer: w.Headers.Referer, UserAgent: w.Headers.UserAgent}

	entries := make([]source.SourceEntry, 0, len(w.Sources))
	for _, raw := range w.Sources {
		if raw.URL == "" {
			continue
		}

		if raw.Type == "embed" {
			scraped, err := s.scrapeEmbed(ctx, raw.URL, headers)
			if err != nil {
				log.WithFields(log.Fields{"embed": raw.URL}).WithError(err).Debug("embed page yielded no stream")
				continue
			}
			raw.URL, raw.IsM3U8 = scraped, true
		}

		isM3U8 := raw.IsM3U8 || source.LooksLikeM3U8(raw.URL)
		entries = append(entries, source.SourceEntry{
			URL:     raw.URL,
			Quality: source.NormalizeQuality(raw.Quality),
			IsM3U8:  isM3U8,
			Type:    source.StreamType(isM3U8),
			IsDub:   track == source.Dub,
		})
	}

	if len(entries) == 0 {
		return source.Resolution{}, source.Malformed("legacy: no sources for %s", episodeID)
	}

	entries = s.forwardHeaders(entries, headers)

	res := source.Resolution{
		Sources: entries,
		Subtitles: lo.FilterMap(w.Subtitles, func(sub subtitleWire, _ int) (source.Subtitle, bool) {
			return source.Subtitle{URL: sub.URL, Lang: sub.Lang}, sub.URL != ""
		}),
		Headers: headers,
	}

	if download := bytes.TrimSpace(w.Download); len(download) > 0 && !bytes.Equal(download, []byte("null")) {
		res.DownloadLinks = download
	}

	return res.Normalize(), nil
}

// forwardHeaders re-points m3u8 entries at the proxy when the upstream
// named the Referer or User-Agent its CDN expects.
func (s *Source) forwardHeaders(entries []source.SourceEntry, headers source.Headers) []source.SourceEntry {
	forward := headers.Map()
	if len(forward) == 0 || s.cfg.ProxyBase == "" {
		return entries
	}

	return lo.Map(entries, func(e source.SourceEntry, _ int) source.SourceEntry {
		if e.IsM3U8 && !hls.IsProxied(s.cfg.ProxyBase, e.URL) {
			e.URL = hls.ProxyURL(s.cfg.ProxyBase, e.URL, forward)
		}
		return e
	})
}
