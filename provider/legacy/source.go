// Package legacy adapts the scraping-style streaming API: a primary and an
// alternate upstream with the same contract, queried in that order.
package legacy

import (
	"time"

	"github.com/anisan-cli/anistream/config"
	"github.com/anisan-cli/anistream/constant"
	"github.com/anisan-cli/anistream/key"
	"github.com/anisan-cli/anistream/network"
)

// Config is what the adapter needs from the deployment.
type Config struct {
	BaseURL      string
	AlternateURL string
	// Server is passed through to the upstream's server selection, may be empty.
	Server string
	// ProxyBase is where m3u8 entries are re-pointed when the upstream
	// demands specific request headers.
	ProxyBase    string
	Timeout      time.Duration
	LargeTimeout time.Duration
}

// Source is the legacy adapter. It is safe for concurrent use.
type Source struct {
	cfg     Config
	fetcher *network.Fetcher
}

// New returns a legacy adapter fetching through fetcher.
func New(cfg Config, fetcher *network.Fetcher) *Source {
	return &Source{cfg: cfg, fetcher: fetcher}
}

// ID implements source.Adapter.
func (s *Source) ID() string {
	return constant.ProviderLegacy
}

func (s *Source) requireBase() error {
	if s.cfg.BaseURL == "" {
		return &config.Error{Key: key.LegacyBaseURL}
	}
	return nil
}

// upstreams returns the base URLs in the order they are tried.
func (s *Source) upstreams() []string {
	bases := []string{s.cfg.BaseURL}
	if s.cfg.AlternateURL != "" && s.cfg.AlternateURL != s.cfg.BaseURL {
		bases = append(bases, s.cfg.AlternateURL)
	}
	return bases
}
