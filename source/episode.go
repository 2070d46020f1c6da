package source

// EpisodeRef identifies one episode at one provider.
type EpisodeRef struct {
	// ProviderID is the adapter that produced this reference.
	ProviderID string `json:"providerId"`
	// EpisodeID is opaque to everything except the producing adapter.
	// Session-based providers store the episode-level session token here.
	EpisodeID string `json:"id"`
	// Number is the episode number as reported upstream.
	Number float64 `json:"number"`
	// Title is the display title, may be empty.
	Title string `json:"title"`
	// ImageURL is an optional thumbnail.
	ImageURL string `json:"image,omitempty"`
	// ShowSession is the show-level session token of session-based providers.
	ShowSession string `json:"session,omitempty"`
}

// ProviderEpisodeList is the episode listing one adapter returned for a show.
type ProviderEpisodeList struct {
	ProviderID string
	// UsesTrackSplit is false when Sub and Dub are the same list and the
	// track is only decided when sources are fetched.
	UsesTrackSplit bool
	Sub            []EpisodeRef
	Dub            []EpisodeRef
}

// Empty reports whether the provider returned no episodes at all.
func (l ProviderEpisodeList) Empty() bool {
	return len(l.Sub) == 0 && len(l.Dub) == 0
}

// Count returns the number of distinct episodes in the listing.
func (l ProviderEpisodeList) Count() int {
	if len(l.Dub) > len(l.Sub) {
		return len(l.Dub)
	}
	return len(l.Sub)
}

// Shared builds a listing where sub and dub share the same episodes.
func Shared(providerID string, episodes []EpisodeRef) ProviderEpisodeList {
	return ProviderEpisodeList{
		ProviderID: providerID,
		Sub:        episodes,
		Dub:        episodes,
	}
}
