// Package source defines the domain models and interfaces shared by provider adapters, the aggregator and the resolver.
package source

import (
	"context"
	"strings"
)

// Track selects the audio variant of an episode.
type Track string

const (
	Sub Track = "sub"
	Dub Track = "dub"
)

// ParseTrack maps a caller-supplied audio track to a Track. Anything other
// than "dub" (case-insensitive) is treated as sub.
func ParseTrack(s string) Track {
	if strings.EqualFold(strings.TrimSpace(s), string(Dub)) {
		return Dub
	}
	return Sub
}

func (t Track) String() string {
	return string(t)
}

// Adapter defines the capabilities every upstream provider adapter exposes.
type Adapter interface {
	// ID returns the provider identifier callers use to address this adapter.
	ID() string

	// ListEpisodes retrieves the episodes the provider has for a show.
	ListEpisodes(ctx context.Context, showID string) (ProviderEpisodeList, error)

	// GetSources retrieves the playable sources of one episode for the requested track.
	GetSources(ctx context.Context, ref EpisodeRef, track Track) (Resolution, error)
}
