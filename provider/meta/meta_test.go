package meta

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/anisan-cli/anistream/config"
	"github.com/anisan-cli/anistream/network"
	"github.com/anisan-cli/anistream/source"
	. "github.com/smartystreets/goconvey/convey"
)

func testFetcher() *network.Fetcher {
	f := network.NewFetcher(&http.Client{}, 1, 0)
	f.Sleep = func(context.Context, time.Duration) error { return nil }
	return f
}

// fakeMeta serves the metadata API. Show "1" has direct episodes, every
// other show only resolves through search.
type fakeMeta struct {
	mu   sync.Mutex
	hits map[string]int
}

func (f *fakeMeta) hit(path string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hits[path]++
}

func (f *fakeMeta) count(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hits[path]
}

func (f *fakeMeta) server() *httptest.Server {
	write := func(w http.ResponseWriter, v any) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(v)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/meta/episodes/", func(w http.ResponseWriter, r *http.Request) {
		f.hit(r.URL.Path)
		if r.URL.Path == "/meta/episodes/1" && r.URL.Query().Get("provider") == "gogoanime" {
			write(w, []episodeWire{{ID: "cowboy-bebop-episode-1", Number: 1, Title: "Asteroid Blues"}})
			return
		}
		write(w, []episodeWire{})
	})
	mux.HandleFunc("/meta/info/", func(w http.ResponseWriter, r *http.Request) {
		f.hit(r.URL.Path)
		write(w, infoWire{
			ID:       "21",
			Title:    titleWire{English: "One Piece", Romaji: "ONE PIECE"},
			Synonyms: []string{"OP"},
		})
	})
	mux.HandleFunc("/anime/gogoanime/search/", func(w http.ResponseWriter, r *http.Request) {
		f.hit("/search")
		write(w, searchWire{Results: []searchResultWire{
			{ID: "one-piece-film-red", Title: "One Piece Film: Red"},
			{ID: "one-piece", Title: "One Piece"},
			{ID: "one-piece-dub", Title: "One Piece (Dub)"},
		}})
	})
	mux.HandleFunc("/anime/gogoanime/info/one-piece", func(w http.ResponseWriter, r *http.Request) {
		f.hit(r.URL.Path)
		write(w, targetInfoWire{ID: "one-piece", Episodes: []episodeWire{
			{ID: "one-piece-episode-1", Number: 1},
			{ID: "one-piece-episode-2", Number: 2},
		}})
	})

	return httptest.NewServer(mux)
}

type fakeStreams struct {
	ref   source.EpisodeRef
	track source.Track
}

func (f *fakeStreams) ID() string { return "legacy" }

func (f *fakeStreams) ListEpisodes(context.Context, string) (source.ProviderEpisodeList, error) {
	return source.ProviderEpisodeList{}, nil
}

func (f *fakeStreams) GetSources(_ context.Context, ref source.EpisodeRef, track source.Track) (source.Resolution, error) {
	f.ref, f.track = ref, track
	return source.Resolution{Sources: []source.SourceEntry{{URL: "https://cdn/x.m3u8", Quality: "1080", IsM3U8: true}}}, nil
}

func TestListEpisodes(t *testing.T) {
	Convey("Given the metadata service", t, func() {
		fake := &fakeMeta{hits: map[string]int{}}
		srv := fake.server()
		defer srv.Close()

		s := New(Config{BaseURL: srv.URL, Target: "gogoanime", SkipPrimary: []string{"21"}}, testFetcher(), nil)

		Convey("The direct lookup is used when it has episodes", func() {
			list, err := s.ListEpisodes(context.Background(), "1")
			So(err, ShouldBeNil)
			So(list.ProviderID, ShouldEqual, "meta")
			So(list.UsesTrackSplit, ShouldBeFalse)
			So(list.Sub, ShouldHaveLength, 1)
			So(list.Sub[0].EpisodeID, ShouldEqual, "cowboy-bebop-episode-1")
			So(list.Dub, ShouldResemble, list.Sub)
			So(fake.count("/meta/info/1"), ShouldEqual, 0)
		})

		Convey("An empty direct lookup falls back to search and match", func() {
			list, err := s.ListEpisodes(context.Background(), "5")
			So(err, ShouldBeNil)
			So(fake.count("/meta/episodes/5"), ShouldEqual, 1)
			So(fake.count("/meta/info/5"), ShouldEqual, 1)
			So(list.Sub, ShouldHaveLength, 2)
			So(list.Sub[0].EpisodeID, ShouldEqual, "one-piece-episode-1")
		})

		Convey("An excluded id skips the direct lookup entirely", func() {
			list, err := s.ListEpisodes(context.Background(), "21")
			So(err, ShouldBeNil)
			So(fake.count("/meta/episodes/21"), ShouldEqual, 0)
			So(fake.count("/meta/info/21"), ShouldEqual, 1)
			So(list.Count(), ShouldEqual, 2)
		})
	})

	Convey("Without a base URL a configuration error is returned", t, func() {
		s := New(Config{}, testFetcher(), nil)
		_, err := s.ListEpisodes(context.Background(), "1")
		So(config.IsError(err), ShouldBeTrue)
	})
}

func TestGetSources(t *testing.T) {
	Convey("Playback is delegated to the streaming adapter", t, func() {
		streams := &fakeStreams{}
		s := New(Config{BaseURL: "https://meta.example"}, testFetcher(), streams)

		ref := source.EpisodeRef{ProviderID: "meta", EpisodeID: "one-piece-episode-1"}
		res, err := s.GetSources(context.Background(), ref, source.Dub)
		So(err, ShouldBeNil)
		So(res.Sources, ShouldHaveLength, 1)
		So(streams.ref, ShouldResemble, ref)
		So(streams.track, ShouldEqual, source.Dub)
	})

	Convey("Without a streaming adapter a configuration error is returned", t, func() {
		s := New(Config{BaseURL: "https://meta.example"}, testFetcher(), nil)
		_, err := s.GetSources(context.Background(), source.EpisodeRef{EpisodeID: "x"}, source.Sub)
		So(config.IsError(err), ShouldBeTrue)
	})
}

func TestClosest(t *testing.T) {
	Convey("closest prefers the nearest title over longer matches", t, func() {
		results := []searchResultWire{
			{ID: "a", Title: "Attack on Titan: Final Season"},
			{ID: "b", Title: "Attack on Titan"},
			{ID: "c", Title: "Titan Quest"},
		}
		So(closest([]string{"Attack on Titan", "Shingeki no Kyojin"}, results).ID, ShouldEqual, "b")
	})

	Convey("titles drops blanks and duplicates", t, func() {
		info := infoWire{Title: titleWire{English: "Naruto", Romaji: "Naruto", Native: ""}, Synonyms: []string{" NARUTO "}}
		So(info.titles(), ShouldResemble, []string{"Naruto", "NARUTO"})
	})
}
