package source

import "encoding/json"

type episodesWire struct {
	Sub []EpisodeRef `json:"sub"`
	Dub []EpisodeRef `json:"dub"`
}

type providerEpisodeListWire struct {
	ProviderID string       `json:"providerId"`
	// Consumet carries UsesTrackSplit under the name clients read: true when
	// sub and dub are separate episode lists, false when one shared list is
	// served and the track is picked when sources are fetched.
	Consumet   bool         `json:"consumet"`
	Episodes   episodesWire `json:"episodes"`
}

// MarshalJSON renders the public episode listing shape:
// {providerId, consumet, episodes: {sub, dub}}.
func (l ProviderEpisodeList) MarshalJSON() ([]byte, error) {
	w := providerEpisodeListWire{
		ProviderID: l.ProviderID,
		Consumet:   l.UsesTrackSplit,
		Episodes: episodesWire{
			Sub: nonNil(l.Sub),
			Dub: nonNil(l.Dub),
		},
	}
	return json.Marshal(w)
}

// UnmarshalJSON accepts the shape produced by MarshalJSON.
func (l *ProviderEpisodeList) UnmarshalJSON(data []byte) error {
	var w providerEpisodeListWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*l = ProviderEpisodeList{
		ProviderID:     w.ProviderID,
		UsesTrackSplit: w.Consumet,
		Sub:            w.Episodes.Sub,
		Dub:            w.Episodes.Dub,
	}
	return nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
