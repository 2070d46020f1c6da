// Package session adapts the session-based streaming API, whose shows and
// episodes are addressed by opaque session tokens rather than flat ids.
package session

import (
	"time"

	"github.com/anisan-cli/anistream/config"
	"github.com/anisan-cli/anistream/constant"
	"github.com/anisan-cli/anistream/key"
	"github.com/anisan-cli/anistream/network"
)

// maxPages bounds episode pagination.
const maxPages = 100

// Config is what the adapter needs from the deployment.
type Config struct {
	BaseURL string
	// Fast asks the upstream to skip computing download links.
	Fast         bool
	Timeout      time.Duration
	LargeTimeout time.Duration
}

// Source is the session adapter. It is safe for concurrent use.
type Source struct {
	cfg     Config
	fetcher *network.Fetcher
}

// New returns a session adapter fetching through fetcher.
func New(cfg Config, fetcher *network.Fetcher) *Source {
	return &Source{cfg: cfg, fetcher: fetcher}
}

// ID implements source.Adapter.
func (s *Source) ID() string {
	return constant.ProviderSession
}

func (s *Source) requireBase() error {
	if s.cfg.BaseURL == "" {
		return &config.Error{Key: key.SessionBaseURL}
	}
	return nil
}
