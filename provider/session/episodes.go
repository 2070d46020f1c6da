package session

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/anisan-cli/anistream/network"
	"github.com/anisan-cli/anistream/source"
	"github.com/samber/lo"
)

// ListEpisodes implements source.Adapter. The show id is first exchanged
// for a show session, whose episode pages are then walked in order.
func (s *Source) ListEpisodes(ctx context.Context, showID string) (source.ProviderEpisodeList, error) {
	if err := s.requireBase(); err != nil {
		return source.ProviderEpisodeList{}, err
	}

	var show lookupWire
	err := s.fetcher.FetchJSON(ctx, network.Request{
		URL:     s.cfg.BaseURL + "/lookup/" + url.PathEscape(showID),
		Timeout: s.cfg.Timeout,
	}, &show)
	if err != nil {
		return source.ProviderEpisodeList{}, err
	}

	if show.Session == "" {
		return source.ProviderEpisodeList{}, source.Malformed("session: no show session for %s", showID)
	}

	var episodes []episodeWire
	for page, last := 1, 1; page <= last && page <= maxPages; page++ {
		var p pageWire
		err := s.fetcher.FetchJSON(ctx, network.Request{
			URL:     fmt.Sprintf("%s/series/%s/episodes?page=%s", s.cfg.BaseURL, url.PathEscape(show.Session), strconv.Itoa(page)),
			Timeout: s.cfg.LargeTimeout,
		}, &p)
		if err != nil {
			return source.ProviderEpisodeList{}, err
		}

		episodes = append(episodes, p.Episodes...)
		last = p.LastPage
	}

	if len(episodes) == 0 {
		return source.ProviderEpisodeList{}, source.Malformed("session: no episodes for %s", showID)
	}

	refs := lo.Map(episodes, func(e episodeWire, _ int) source.EpisodeRef {
		title := e.Title
		if title == "" {
			title = "Episode " + strconv.FormatFloat(e.Number, 'f', -1, 64)
		}

		return source.EpisodeRef{
			ProviderID:  s.ID(),
			EpisodeID:   e.Session,
			Number:      e.Number,
			Title:       title,
			ImageURL:    e.Snapshot,
			ShowSession: show.Session,
		}
	})

	return source.Shared(s.ID(), refs), nil
}
