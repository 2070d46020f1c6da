package legacy

import (
	"context"
	"net/url"

	"github.com/anisan-cli/anistream/network"
	"github.com/anisan-cli/anistream/source"
	"github.com/samber/lo"
)

// ListEpisodes implements source.Adapter. The listing has no track split.
func (s *Source) ListEpisodes(ctx context.Context, showID string) (source.ProviderEpisodeList, error) {
	if err := s.requireBase(); err != nil {
		return source.ProviderEpisodeList{}, err
	}

	var info infoWire
	err := s.fetcher.FetchJSON(ctx, network.Request{
		URL:     s.cfg.BaseURL + "/info/" + url.PathEscape(showID),
		Timeout: s.cfg.LargeTimeout,
	}, &info)
	if err != nil {
		return source.ProviderEpisodeList{}, err
	}

	if len(info.Episodes) == 0 {
		return source.ProviderEpisodeList{}, source.Malformed("legacy: no episodes for %s", showID)
	}

	episodes := lo.Map(info.Episodes, func(e episodeWire, _ int) source.EpisodeRef {
		return source.EpisodeRef{
			ProviderID: s.ID(),
			EpisodeID:  e.ID,
			Number:     e.Number,
			Title:      e.Title,
			ImageURL:   e.Image,
		}
	})

	return source.Shared(s.ID(), episodes), nil
}
