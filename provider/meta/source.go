// Package meta adapts the episode-mapping metadata service. It is the
// preferred provider: listings come from the metadata API and playback is
// delegated to the streaming adapter that scrapes the mapped target.
package meta

import (
	"time"

	"github.com/anisan-cli/anistream/config"
	"github.com/anisan-cli/anistream/constant"
	"github.com/anisan-cli/anistream/key"
	"github.com/anisan-cli/anistream/network"
	"github.com/anisan-cli/anistream/source"
)

// Config is what the adapter needs from the deployment.
type Config struct {
	BaseURL string
	// Target is the streaming provider the metadata service maps episodes to.
	Target string
	// SkipPrimary lists show ids whose direct episode lookup is known to be
	// wrong upstream; they go straight to the search fallback.
	SkipPrimary  []string
	Timeout      time.Duration
	LargeTimeout time.Duration
}

// Source is the meta adapter. It is safe for concurrent use.
type Source struct {
	cfg     Config
	fetcher *network.Fetcher
	// streams resolves playback for the mapped episode ids.
	streams source.Adapter
	skip    map[string]struct{}
}

// New returns a meta adapter. streams may be nil, in which case
// GetSources reports a configuration error.
func New(cfg Config, fetcher *network.Fetcher, streams source.Adapter) *Source {
	skip := make(map[string]struct{}, len(cfg.SkipPrimary))
	for _, id := range cfg.SkipPrimary {
		skip[id] = struct{}{}
	}

	return &Source{
		cfg:     cfg,
		fetcher: fetcher,
		streams: streams,
		skip:    skip,
	}
}

// ID implements source.Adapter.
func (s *Source) ID() string {
	return constant.ProviderMeta
}

func (s *Source) requireBase() error {
	if s.cfg.BaseURL == "" {
		return &config.Error{Key: key.MetaBaseURL}
	}
	return nil
}

func (s *Source) skipsPrimary(showID string) bool {
	_, ok := s.skip[showID]
	return ok
}
