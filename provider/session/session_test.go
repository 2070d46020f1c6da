package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
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

const subOnly = `{
	"sources": [
		{"url": "https://cdn.example/720.m3u8", "quality": "720", "isDub": false, "isM3U8": true},
		{"url": "https://cdn.example/1080.m3u8", "quality": "1080", "isDub": false, "isM3U8": true},
		{"url": "https://cdn.example/480.m3u8", "quality": "480", "isDub": false, "isM3U8": true}
	],
	"headers": {"Referer": "https://kwik.example/"}
}`

const mixed = `{
	"sources": [
		{"url": "https://cdn.example/sub-1080.m3u8", "quality": "1080p", "isDub": false},
		{"url": "https://cdn.example/dub-720.m3u8", "quality": "720p", "isDub": true},
		{"url": "https://cdn.example/dub-360.m3u8", "quality": "360p", "isDub": true}
	]
}`

func TestGetSources(t *testing.T) {
	ref := source.EpisodeRef{ProviderID: "session", EpisodeID: "ep-sess", ShowSession: "show-sess"}

	Convey("Given an upstream with only sub sources", t, func() {
		var gotPath, gotQuery string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath, gotQuery = r.URL.Path, r.URL.RawQuery
			_, _ = io.WriteString(w, subOnly)
		}))
		defer srv.Close()

		s := New(Config{BaseURL: srv.URL, Fast: true}, testFetcher())

		Convey("The compound key and fast variant are requested", func() {
			_, err := s.GetSources(context.Background(), ref, source.Sub)
			So(err, ShouldBeNil)
			So(gotPath, ShouldEqual, "/series/show-sess/episodes/ep-sess/sources")
			So(gotQuery, ShouldEqual, "fast=true")
		})

		Convey("A dub request falls back to the sub entries", func() {
			res, err := s.GetSources(context.Background(), ref, source.Dub)
			So(err, ShouldBeNil)
			So(res.Sources, ShouldHaveLength, 4)
			So(res.Sources[1:], ShouldHaveLength, 3)
			for _, e := range res.Sources {
				So(e.IsDub, ShouldBeFalse)
			}

			Convey("and the auto entry equals the best sub entry", func() {
				auto := res.Sources[0]
				So(auto.Quality, ShouldEqual, source.QualityAuto)
				So(auto.URL, ShouldEqual, "https://cdn.example/1080.m3u8")
			})
		})

		Convey("The upstream Referer is captured", func() {
			res, _ := s.GetSources(context.Background(), ref, source.Sub)
			So(res.Headers.Referer, ShouldEqual, "https://kwik.example/")
		})
	})

	Convey("Given an upstream with both tracks", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, mixed)
		}))
		defer srv.Close()

		s := New(Config{BaseURL: srv.URL}, testFetcher())

		Convey("Dub returns only dub entries, auto on the first without 1080", func() {
			res, err := s.GetSources(context.Background(), ref, source.Dub)
			So(err, ShouldBeNil)
			So(res.Sources, ShouldHaveLength, 3)
			So(res.Sources[0].URL, ShouldEqual, "https://cdn.example/dub-720.m3u8")
			So(res.Sources[0].Quality, ShouldEqual, source.QualityAuto)
			So(res.Sources[1].IsDub, ShouldBeTrue)
		})

		Convey("Sub returns the sub entry with a matching auto", func() {
			res, err := s.GetSources(context.Background(), ref, source.Sub)
			So(err, ShouldBeNil)
			So(res.Sources, ShouldHaveLength, 2)
			So(res.Sources[0].URL, ShouldEqual, res.Sources[1].URL)
			So(res.Sources[1].Quality, ShouldEqual, "1080")
			So(res.Sources[1].IsM3U8, ShouldBeTrue)
		})
	})

	Convey("Missing session tokens are a bad request", t, func() {
		s := New(Config{BaseURL: "https://session.example"}, testFetcher())
		_, err := s.GetSources(context.Background(), source.EpisodeRef{EpisodeID: "ep"}, source.Sub)
		So(source.IsBadRequest(err), ShouldBeTrue)
	})

	Convey("An empty source list is malformed", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `{"sources":[]}`)
		}))
		defer srv.Close()

		s := New(Config{BaseURL: srv.URL}, testFetcher())
		_, err := s.GetSources(context.Background(), ref, source.Dub)
		So(errors.Is(err, source.ErrMalformed), ShouldBeTrue)
	})

	Convey("Without a base URL a configuration error is returned", t, func() {
		_, err := New(Config{}, testFetcher()).GetSources(context.Background(), ref, source.Sub)
		So(config.IsError(err), ShouldBeTrue)
	})
}

func TestListEpisodes(t *testing.T) {
	Convey("Given a paginated upstream", t, func() {
		mux := http.NewServeMux()
		mux.HandleFunc("/lookup/42", func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `{"session":"show-sess","title":"Frieren"}`)
		})
		mux.HandleFunc("/lookup/404", func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `{"session":""}`)
		})
		mux.HandleFunc("/series/show-sess/episodes", func(w http.ResponseWriter, r *http.Request) {
			page := r.URL.Query().Get("page")
			n := 1
			if page == "2" {
				n = 2
			}
			fmt.Fprintf(w, `{"episodes":[{"session":"ep-%d","number":%d,"snapshot":"https://img/%d.jpg"}],"last_page":2}`, n, n, n)
		})
		srv := httptest.NewServer(mux)
		defer srv.Close()

		s := New(Config{BaseURL: srv.URL}, testFetcher())

		Convey("Every page is collected with both session tokens", func() {
			list, err := s.ListEpisodes(context.Background(), "42")
			So(err, ShouldBeNil)
			So(list.ProviderID, ShouldEqual, "session")
			So(list.Sub, ShouldHaveLength, 2)
			So(list.Sub[1].EpisodeID, ShouldEqual, "ep-2")
			So(list.Sub[1].ShowSession, ShouldEqual, "show-sess")
			So(list.Sub[1].Title, ShouldEqual, "Episode 2")
			So(list.Sub[0].ImageURL, ShouldEqual, "https://img/1.jpg")
		})

		Convey("A lookup without a session is malformed", func() {
			_, err := s.ListEpisodes(context.Background(), "404")
			So(errors.Is(err, source.ErrMalformed), ShouldBeTrue)
		})
	})
}

func TestSelectTrack(t *testing.T) {
	Convey("selectTrack names the fallback", t, func() {
		entries := []source.SourceEntry{{URL: "a"}}
		got, kind := selectTrack(entries, source.Dub)
		So(got, ShouldHaveLength, 1)
		So(kind, ShouldEqual, "sub (fallback)")

		_, kind = selectTrack(entries, source.Sub)
		So(kind, ShouldEqual, "sub")
	})
}
