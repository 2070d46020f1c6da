package cmd

import (
	"github.com/anisan-cli/anistream/aggregate"
	"github.com/anisan-cli/anistream/config"
	"github.com/anisan-cli/anistream/provider"
	"github.com/anisan-cli/anistream/resolve"
)

// core is the set of components shared by the server and the one-shot commands.
type core struct {
	settings   *config.Settings
	registry   *provider.Registry
	aggregator *aggregate.Aggregator
	resolver   *resolve.Resolver
}

func newCore() (*core, error) {
	s := config.Load()
	if err := s.Validate(); err != nil {
		return nil, err
	}

	registry := provider.New(s)

	return &core{
		settings:   s,
		registry:   registry,
		aggregator: aggregate.New(s, registry),
		resolver:   resolve.New(registry, s.ProxyBaseURL),
	}, nil
}
