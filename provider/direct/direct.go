// Package direct adapts a streaming API dedicated to a single provider.
// Its shapes map one to one onto the domain types, with no fallback chain.
package direct

import (
	"context"
	"net/url"
	"time"

	"github.com/anisan-cli/anistream/config"
	"github.com/anisan-cli/anistream/constant"
	"github.com/anisan-cli/anistream/key"
	"github.com/anisan-cli/anistream/network"
	"github.com/anisan-cli/anistream/source"
	"github.com/samber/lo"
)

// Config locates the API and bounds its calls.
type Config struct {
	BaseURL string
	Timeout time.Duration
	// LargeTimeout bounds the calls that return whole episode lists.
	LargeTimeout time.Duration
}

// Source is the source.Adapter over the dedicated API.
type Source struct {
	cfg     Config
	fetcher *network.Fetcher
}

// New returns a Source that fetches through fetcher.
func New(cfg Config, fetcher *network.Fetcher) *Source {
	return &Source{cfg: cfg, fetcher: fetcher}
}

// ID returns the provider identifier the adapter answers for.
func (s *Source) ID() string {
	return constant.ProviderDirect
}

type episodeWire struct {
	ID     string  `json:"id"`
	Number float64 `json:"number"`
	Title  string  `json:"title"`
	Image  string  `json:"image"`
	HasDub bool    `json:"isDub"`
}

type sourcesWire struct {
	Sources []struct {
		URL     string `json:"url"`
		Quality string `json:"quality"`
		Type    string `json:"type"`
	} `json:"sources"`
	Subtitles []source.Subtitle `json:"subtitles"`
	Headers   struct {
		Referer string `json:"Referer"`
	} `json:"headers"`
}

// ListEpisodes implements source.Adapter. Every episode has a sub; only
// those flagged upstream have a dub.
func (s *Source) ListEpisodes(ctx context.Context, showID string) (source.ProviderEpisodeList, error) {
	if s.cfg.BaseURL == "" {
		return source.ProviderEpisodeList{}, &config.Error{Key: key.DirectBaseURL}
	}

	var w struct {
		Episodes []episodeWire `json:"episodes"`
	}
	err := s.fetcher.FetchJSON(ctx, network.Request{
		URL:     s.cfg.BaseURL + "/episodes/" + url.PathEscape(showID),
		Timeout: s.cfg.LargeTimeout,
	}, &w)
	if err != nil {
		return source.ProviderEpisodeList{}, err
	}

	if len(w.Episodes) == 0 {
		return source.ProviderEpisodeList{}, source.Malformed("direct: no episodes for %s", showID)
	}

	ref := func(e episodeWire, _ int) source.EpisodeRef {
		return source.EpisodeRef{
			ProviderID: s.ID(),
			EpisodeID:  e.ID,
			Number:     e.Number,
			Title:      e.Title,
			ImageURL:   e.Image,
		}
	}

	return source.ProviderEpisodeList{
		ProviderID:     s.ID(),
		UsesTrackSplit: true,
		Sub:            lo.Map(w.Episodes, ref),
		Dub: lo.Map(lo.Filter(w.Episodes, func(e episodeWire, _ int) bool {
			return e.HasDub
		}), ref),
	}, nil
}

// GetSources implements source.Adapter.
func (s *Source) GetSources(ctx context.Context, ref source.EpisodeRef, track source.Track) (source.Resolution, error) {
	if s.cfg.BaseURL == "" {
		return source.Resolution{}, &config.Error{Key: key.DirectBaseURL}
	}

	if ref.EpisodeID == "" {
		return source.Resolution{}, source.BadRequest("direct: episodeId is required")
	}

	var w sourcesWire
	err := s.fetcher.FetchJSON(ctx, network.Request{
		URL:     s.cfg.BaseURL + "/sources/" + url.PathEscape(ref.EpisodeID) + "?" + url.Values{"category": {track.String()}}.Encode(),
		Timeout: s.cfg.Timeout,
	}, &w)
	if err != nil {
		return source.Resolution{}, err
	}

	entries := make([]source.SourceEntry, 0, len(w.Sources))
	for _, raw := range w.Sources {
		if raw.URL == "" {
			continue
		}
		isM3U8 := raw.Type == source.TypeHLS || source.LooksLikeM3U8(raw.URL)
		entries = append(entries, source.SourceEntry{
			URL:     raw.URL,
			Quality: source.NormalizeQuality(raw.Quality),
			IsM3U8:  isM3U8,
			Type:    source.StreamType(isM3U8),
			IsDub:   track == source.Dub,
		})
	}

	if len(entries) == 0 {
		return source.Resolution{}, source.Malformed("direct: no sources for %s", ref.EpisodeID)
	}

	return source.Resolution{
		Sources:   entries,
		Subtitles: w.Subtitles,
		Headers:   source.Headers{Referer: w.Headers.Referer},
	}.Normalize(), nil
}
