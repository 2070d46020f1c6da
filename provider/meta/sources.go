package meta

import (
	"context"

	"github.com/anisan-cli/anistream/config"
	"github.com/anisan-cli/anistream/key"
	"github.com/anisan-cli/anistream/source"
)

// GetSources implements source.Adapter. Mapped episode ids belong to the
// target provider, which the streaming adapter knows how to play.
func (s *Source) GetSources(ctx context.Context, ref source.EpisodeRef, track source.Track) (source.Resolution, error) {
	if s.streams == nil {
		return source.Resolution{}, &config.Error{Key: key.LegacyBaseURL}
	}
	return s.streams.GetSources(ctx, ref, track)
}
