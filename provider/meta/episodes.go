package meta

import (
	"context"
	"net/url"

	"github.com/anisan-cli/anistream/log"
	"github.com/anisan-cli/anistream/network"
	"github.com/anisan-cli/anistream/source"
	"github.com/samber/lo"
)

// ListEpisodes implements source.Adapter. The direct lookup by external id
// is tried first; when it yields nothing, or the id is excluded, the show
// is mapped to the target provider through search and listed from there.
func (s *Source) ListEpisodes(ctx context.Context, showID string) (source.ProviderEpisodeList, error) {
	if err := s.requireBase(); err != nil {
		return source.ProviderEpisodeList{}, err
	}

	if !s.skipsPrimary(showID) {
		episodes, err := s.primary(ctx, showID)
		if err == nil && len(episodes) > 0 {
			return s.list(episodes), nil
		}

		fields := log.Fields{"provider": s.ID(), "show": showID}
		if err != nil {
			log.WithFields(fields).WithError(err).Info("meta direct lookup failed, mapping through search")
		} else {
			log.WithFields(fields).Info("meta direct lookup empty, mapping through search")
		}
	}

	episodes, err := s.fallback(ctx, showID)
	if err != nil {
		return source.ProviderEpisodeList{}, err
	}

	if len(episodes) == 0 {
		return source.ProviderEpisodeList{}, source.Malformed("meta: no episodes for %s", showID)
	}

	return s.list(episodes), nil
}

func (s *Source) primary(ctx context.Context, showID string) ([]episodeWire, error) {
	var episodes []episodeWire
	err := s.fetcher.FetchJSON(ctx, network.Request{
		URL:     s.cfg.BaseURL + "/meta/episodes/" + url.PathEscape(showID) + "?" + url.Values{"provider": {s.cfg.Target}}.Encode(),
		Timeout: s.cfg.LargeTimeout,
	}, &episodes)
	return episodes, err
}

// fallback resolves the external id to the metadata catalog entry, maps it
// to the target provider's own id and lists that id's episodes.
func (s *Source) fallback(ctx context.Context, showID string) ([]episodeWire, error) {
	var info infoWire
	err := s.fetcher.FetchJSON(ctx, network.Request{
		URL:     s.cfg.BaseURL + "/meta/info/" + url.PathEscape(showID),
		Timeout: s.cfg.Timeout,
	}, &info)
	if err != nil {
		return nil, err
	}

	targetID, err := s.match(ctx, info)
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{"provider": s.ID(), "show": showID, "target": targetID}).Debug("meta mapped show to target provider")

	var target targetInfoWire
	err = s.fetcher.FetchJSON(ctx, network.Request{
		URL:     s.targetURL("info", targetID),
		Timeout: s.cfg.LargeTimeout,
	}, &target)
	if err != nil {
		return nil, err
	}

	return target.Episodes, nil
}

func (s *Source) targetURL(op, arg string) string {
	return s.cfg.BaseURL + "/anime/" + url.PathEscape(s.cfg.Target) + "/" + op + "/" + url.PathEscape(arg)
}

func (s *Source) list(episodes []episodeWire) source.ProviderEpisodeList {
	refs := lo.Map(episodes, func(e episodeWire, _ int) source.EpisodeRef {
		return source.EpisodeRef{
			ProviderID: s.ID(),
			EpisodeID:  e.ID,
			Number:     e.Number,
			Title:      e.Title,
			ImageURL:   e.Image,
		}
	})

	return source.Shared(s.ID(), refs)
}
