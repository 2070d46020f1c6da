// Package provider manages the built-in upstream adapters.
package provider

import (
	"github.com/anisan-cli/anistream/config"
	"github.com/anisan-cli/anistream/constant"
	"github.com/anisan-cli/anistream/network"
	"github.com/anisan-cli/anistream/provider/direct"
	"github.com/anisan-cli/anistream/provider/legacy"
	"github.com/anisan-cli/anistream/provider/meta"
	"github.com/anisan-cli/anistream/provider/session"
	"github.com/anisan-cli/anistream/source"
	"github.com/samber/lo"
)

// Provider describes one registered adapter.
type Provider struct {
	ID          string
	Name        string
	Description string
	// Configured is false when the adapter's base URL is unset; calls
	// through it then fail with a configuration error.
	Configured bool
	Adapter    source.Adapter
}

func (p *Provider) String() string {
	return p.Name
}

// Registry maps provider ids to adapters.
type Registry struct {
	providers []*Provider
}

// New builds every adapter from the settings. The legacy upstream is
// reached through the browser TLS fingerprint when enabled.
func New(s *config.Settings) *Registry {
	fetcher := network.NewFetcher(network.Client, s.MaxRetries, s.BaseDelay)

	legacyFetcher := fetcher
	if s.TLSFingerprint {
		legacyFetcher = network.NewFetcher(network.NewChromeClient(), s.MaxRetries, s.BaseDelay)
	}

	streams := legacy.New(legacy.Config{
		BaseURL:      s.StreamingSourceBaseURL,
		AlternateURL: s.StreamingSourceAlternateURL,
		Server:       s.StreamingSourceServer,
		ProxyBase:    s.ProxyBaseURL,
		Timeout:      s.DefaultTimeout,
		LargeTimeout: s.LargePayloadTimeout,
	}, legacyFetcher)

	return NewRegistry(
		&Provider{
			ID:          constant.ProviderMeta,
			Name:        "Meta",
			Description: "episode mapping service, playback through the legacy API",
			Configured:  s.EpisodeMappingBaseURL != "",
			Adapter: meta.New(meta.Config{
				BaseURL:      s.EpisodeMappingBaseURL,
				Target:       s.EpisodeMappingTarget,
				SkipPrimary:  s.PrimaryExclusions,
				Timeout:      s.DefaultTimeout,
				LargeTimeout: s.LargePayloadTimeout,
			}, fetcher, streams),
		},
		&Provider{
			ID:          constant.ProviderSession,
			Name:        "Session",
			Description: "session-token streaming API with dub fallback",
			Configured:  s.SessionProviderBaseURL != "",
			Adapter: session.New(session.Config{
				BaseURL:      s.SessionProviderBaseURL,
				Fast:         s.SessionFast,
				Timeout:      s.DefaultTimeout,
				LargeTimeout: s.LargePayloadTimeout,
			}, fetcher),
		},
		&Provider{
			ID:          constant.ProviderLegacy,
			Name:        "Legacy",
			Description: "scraping-style streaming API with an alternate upstream",
			Configured:  s.StreamingSourceBaseURL != "",
			Adapter:     streams,
		},
		&Provider{
			ID:          constant.ProviderDirect,
			Name:        "Direct",
			Description: "single-provider streaming API",
			Configured:  s.DirectBaseURL != "",
			Adapter: direct.New(direct.Config{
				BaseURL:      s.DirectBaseURL,
				Timeout:      s.DefaultTimeout,
				LargeTimeout: s.LargePayloadTimeout,
			}, fetcher),
		},
	)
}

// NewRegistry registers providers in the given order.
func NewRegistry(providers ...*Provider) *Registry {
	return &Registry{providers: providers}
}

// All returns every registered provider.
func (r *Registry) All() []*Provider {
	return r.providers
}

// Get finds a provider by id.
func (r *Registry) Get(id string) (*Provider, bool) {
	return lo.Find(r.providers, func(p *Provider) bool {
		return p.ID == id
	})
}

// Adapter returns the adapter registered under id.
func (r *Registry) Adapter(id string) (source.Adapter, bool) {
	p, ok := r.Get(id)
	if !ok {
		return nil, false
	}
	return p.Adapter, true
}

// IDs lists the registered provider ids.
func (r *Registry) IDs() []string {
	return lo.Map(r.providers, func(p *Provider, _ int) string {
		return p.ID
	})
}
