package source

import (
	"strconv"
	"strings"

	"github.com/samber/lo"
)

// QualityAuto is the sentinel quality of the synthesized default entry.
const QualityAuto = "auto"

// Stream types of a SourceEntry.
const (
	TypeHLS = "hls"
	TypeMP4 = "mp4"
)

// SourceEntry is one playable stream of an episode.
type SourceEntry struct {
	URL string `json:"url"`
	// Quality is a resolution label such as "1080" or QualityAuto.
	Quality string `json:"quality"`
	IsM3U8  bool   `json:"isM3U8"`
	Type    string `json:"type"`
	IsDub   bool   `json:"isDub"`
}

// String returns the quality or URL for display.
func (e SourceEntry) String() string {
	if e.Quality != "" {
		return e.Quality
	}
	return e.URL
}

// Subtitle is an external subtitle track.
type Subtitle struct {
	URL  string `json:"url"`
	Lang string `json:"lang"`
}

// Headers are the request headers an upstream expects when its streams are fetched.
type Headers struct {
	Referer   string `json:"Referer,omitempty"`
	UserAgent string `json:"User-Agent,omitempty"`
}

// Map returns the non-empty headers keyed by their HTTP name.
func (h Headers) Map() map[string]string {
	m := make(map[string]string, 2)
	if h.Referer != "" {
		m["Referer"] = h.Referer
	}
	if h.UserAgent != "" {
		m["User-Agent"] = h.UserAgent
	}
	return m
}

// Resolution is the playable result of one episode at one provider.
type Resolution struct {
	Sources       []SourceEntry `json:"sources"`
	Subtitles     []Subtitle    `json:"subtitles"`
	DownloadLinks any           `json:"downloadLinks"`
	Headers       Headers       `json:"headers"`
}

// EmptyResolution is the result returned when a provider has nothing usable.
func EmptyResolution() Resolution {
	return Resolution{
		Sources:   []SourceEntry{},
		Subtitles: []Subtitle{},
	}
}

// Empty reports whether the resolution has no playable sources.
func (r Resolution) Empty() bool {
	return len(r.Sources) == 0
}

// Normalize replaces nil slices so the JSON form always carries arrays.
func (r Resolution) Normalize() Resolution {
	if r.Sources == nil {
		r.Sources = []SourceEntry{}
	}
	if r.Subtitles == nil {
		r.Subtitles = []Subtitle{}
	}
	return r
}

// PreferredQuality is chosen for the auto entry when present.
const PreferredQuality = "1080"

// WithAuto returns entries with exactly one leading auto entry. The auto
// entry copies the PreferredQuality entry, or the first entry when there is
// none. An existing auto entry is moved to the front and any other auto
// entries are dropped.
func WithAuto(entries []SourceEntry) []SourceEntry {
	if len(entries) == 0 {
		return entries
	}

	auto, hasAuto := lo.Find(entries, func(e SourceEntry) bool {
		return e.Quality == QualityAuto
	})

	rest := lo.Reject(entries, func(e SourceEntry, _ int) bool {
		return e.Quality == QualityAuto
	})

	if !hasAuto {
		if len(rest) == 0 {
			return entries
		}

		best, ok := lo.Find(rest, func(e SourceEntry) bool {
			return e.Quality == PreferredQuality
		})
		if !ok {
			best = rest[0]
		}

		auto = best
		auto.Quality = QualityAuto
	}

	return append([]SourceEntry{auto}, rest...)
}

// FilterTrack keeps the entries of the requested track.
func FilterTrack(entries []SourceEntry, track Track) []SourceEntry {
	wantDub := track == Dub
	return lo.Filter(entries, func(e SourceEntry, _ int) bool {
		return e.IsDub == wantDub
	})
}

// NormalizeQuality turns labels like "1080p" into "1080".
func NormalizeQuality(q string) string {
	q = strings.TrimSpace(q)
	if len(q) > 1 && (q[len(q)-1] == 'p' || q[len(q)-1] == 'P') {
		if _, err := strconv.Atoi(q[:len(q)-1]); err == nil {
			return q[:len(q)-1]
		}
	}
	return q
}

// LooksLikeM3U8 reports whether a URL path names an HLS playlist.
func LooksLikeM3U8(rawURL string) bool {
	path, _, _ := strings.Cut(rawURL, "?")
	return strings.HasSuffix(strings.ToLower(path), ".m3u8")
}

// StreamType returns TypeHLS for playlists and TypeMP4 otherwise.
func StreamType(isM3U8 bool) string {
	if isM3U8 {
		return TypeHLS
	}
	return TypeMP4
}
