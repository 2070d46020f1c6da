package session

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/anisan-cli/anistream/log"
	"github.com/anisan-cli/anistream/network"
	"github.com/anisan-cli/anistream/source"
	"github.com/samber/lo"
)

// GetSources implements source.Adapter. Both session tokens are required.
// When a dub is asked for and none exists, the sub entries are returned.
func (s *Source) GetSources(ctx context.Context, ref source.EpisodeRef, track source.Track) (source.Resolution, error) {
	if err := s.requireBase(); err != nil {
		return source.Resolution{}, err
	}

	if ref.ShowSession == "" || ref.EpisodeID == "" {
		return source.Resolution{}, source.BadRequest("session provider requires showSession and episodeSession")
	}

	u := fmt.Sprintf("%s/series/%s/episodes/%s/sources", s.cfg.BaseURL, url.PathEscape(ref.ShowSession), url.PathEscape(ref.EpisodeID))
	if s.cfg.Fast {
		u += "?" + url.Values{"fast": {strconv.FormatBool(true)}}.Encode()
	}

	var w sourcesWire
	if err := s.fetcher.FetchJSON(ctx, network.Request{URL: u, Timeout: s.cfg.Timeout}, &w); err != nil {
		return source.Resolution{}, err
	}

	all := lo.FilterMap(w.Sources, func(raw sourceWire, _ int) (source.SourceEntry, bool) {
		isM3U8 := raw.IsM3U8 || source.LooksLikeM3U8(raw.URL)
		return source.SourceEntry{
			URL:     raw.URL,
			Quality: source.NormalizeQuality(raw.Quality),
			IsM3U8:  isM3U8,
			Type:    source.StreamType(isM3U8),
			IsDub:   raw.IsDub,
		}, raw.URL != ""
	})

	entries, kind := selectTrack(all, track)

	entry := log.WithFields(log.Fields{
		"provider": s.ID(),
		"episode":  ref.EpisodeID,
		"type":     kind,
		"count":    len(entries),
	})
	if kind == fallbackKind {
		entry.Info("no dub sources, serving sub")
	} else {
		entry.Debug("session sources filtered")
	}

	if len(entries) == 0 {
		return source.Resolution{}, source.Malformed("session: no sources for %s", ref.EpisodeID)
	}

	res := source.Resolution{
		Sources: source.WithAuto(entries),
		Subtitles: lo.FilterMap(w.Subtitles, func(sub subtitleWire, _ int) (source.Subtitle, bool) {
			return source.Subtitle{URL: sub.URL, Lang: sub.Lang}, sub.URL != ""
		}),
		Headers: source.Headers{Referer: w.Headers.Referer, UserAgent: w.Headers.UserAgent},
	}

	if d := bytes.TrimSpace(w.Downloads); len(d) > 0 && !bytes.Equal(d, []byte("null")) {
		res.DownloadLinks = d
	}

	return res.Normalize(), nil
}

// fallbackKind annotates sub entries served for a dub request.
const fallbackKind = "sub (fallback)"

// selectTrack filters entries for track. An empty dub selection falls back
// to sub; kind names what was actually selected.
func selectTrack(entries []source.SourceEntry, track source.Track) (selected []source.SourceEntry, kind string) {
	selected = source.FilterTrack(entries, track)
	if len(selected) == 0 && track == source.Dub {
		return source.FilterTrack(entries, source.Sub), fallbackKind
	}
	return selected, track.String()
}
