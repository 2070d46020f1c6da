package legacy

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/anisan-cli/anistream/config"
	"github.com/anisan-cli/anistream/hls"
	"github.com/anisan-cli/anistream/network"
	"github.com/anisan-cli/anistream/source"
	. "github.com/smartystreets/goconvey/convey"
)

const proxyBase = "https://stream.example"

func testFetcher() *network.Fetcher {
	f := network.NewFetcher(&http.Client{}, 2, time.Millisecond)
	f.Sleep = func(context.Context, time.Duration) error { return nil }
	return f
}

func upstream(handler func(w http.ResponseWriter, r *http.Request)) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(handler))
}

func TestGetSources(t *testing.T) {
	ref := source.EpisodeRef{ProviderID: "meta", EpisodeID: "show-episode-1"}

	Convey("Given a working primary upstream", t, func() {
		var gotQuery string
		primary := upstream(func(w http.ResponseWriter, r *http.Request) {
			gotQuery = r.URL.RawQuery
			_, _ = io.WriteString(w, `{
				"headers": {"Referer": "https://player.example/"},
				"sources": [
					{"url": "https://cdn.example/720/index.m3u8", "quality": "720p", "isM3U8": true},
					{"url": "https://cdn.example/1080/index.m3u8", "quality": "1080p", "isM3U8": true},
					{"url": "https://cdn.example/file.mp4", "quality": "480p", "isM3U8": false}
				],
				"download": "https://dl.example/ep1"
			}`)
		})
		defer primary.Close()

		s := New(Config{BaseURL: primary.URL, Server: "vidstreaming", ProxyBase: proxyBase}, testFetcher())

		res, err := s.GetSources(context.Background(), ref, source.Dub)
		So(err, ShouldBeNil)

		Convey("The track and server are sent upstream", func() {
			So(gotQuery, ShouldContainSubstring, "category=dub")
			So(gotQuery, ShouldContainSubstring, "server=vidstreaming")
		})

		Convey("m3u8 entries are proxied with the upstream headers", func() {
			So(res.Sources, ShouldHaveLength, 3)
			So(hls.IsProxied(proxyBase, res.Sources[0].URL), ShouldBeTrue)

			target, headers, ok := hls.Unwrap(res.Sources[1].URL)
			So(ok, ShouldBeTrue)
			So(target, ShouldEqual, "https://cdn.example/1080/index.m3u8")
			So(headers["Referer"], ShouldEqual, "https://player.example/")
		})

		Convey("mp4 entries are untouched", func() {
			So(res.Sources[2].URL, ShouldEqual, "https://cdn.example/file.mp4")
			So(res.Sources[2].Type, ShouldEqual, source.TypeMP4)
		})

		Convey("Qualities are normalized and tracks recorded", func() {
			So(res.Sources[1].Quality, ShouldEqual, "1080")
			So(res.Sources[1].IsDub, ShouldBeTrue)
			So(res.Headers.Referer, ShouldEqual, "https://player.example/")
			So(res.DownloadLinks, ShouldNotBeNil)
		})
	})

	Convey("Given a primary that fails and an alternate that works", t, func() {
		primaryHits := 0
		primary := upstream(func(w http.ResponseWriter, r *http.Request) {
			primaryHits++
			w.WriteHeader(http.StatusInternalServerError)
		})
		defer primary.Close()

		alternate := upstream(func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `{"sources":[{"url":"https://cdn.example/a.m3u8","quality":"default","isM3U8":true}]}`)
		})
		defer alternate.Close()

		s := New(Config{BaseURL: primary.URL, AlternateURL: alternate.URL, ProxyBase: proxyBase}, testFetcher())

		Convey("The alternate answer is returned", func() {
			res, err := s.GetSources(context.Background(), ref, source.Sub)
			So(err, ShouldBeNil)
			So(primaryHits, ShouldEqual, 2)
			So(res.Sources, ShouldHaveLength, 1)
			So(res.Sources[0].URL, ShouldEqual, "https://cdn.example/a.m3u8")
			So(res.DownloadLinks, ShouldBeNil)
		})
	})

	Convey("Given a primary that answers with an empty source list", t, func() {
		primary := upstream(func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `{"sources":[]}`)
		})
		defer primary.Close()

		alternateHits := 0
		alternate := upstream(func(w http.ResponseWriter, r *http.Request) {
			alternateHits++
			_, _ = io.WriteString(w, `<html>blocked</html>`)
		})
		defer alternate.Close()

		s := New(Config{BaseURL: primary.URL, AlternateURL: alternate.URL}, testFetcher())

		Convey("Both failures are reported as malformed", func() {
			_, err := s.GetSources(context.Background(), ref, source.Sub)
			So(err, ShouldNotBeNil)
			So(errors.Is(err, source.ErrMalformed), ShouldBeTrue)
			So(alternateHits, ShouldEqual, 1)
		})
	})

	Convey("Given an embed entry", t, func() {
		mux := http.NewServeMux()
		srv := httptest.NewServer(mux)
		defer srv.Close()

		mux.HandleFunc("/watch/", func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `{"sources":[{"url":"`+srv.URL+`/embed/1","quality":"1080p","type":"embed"}]}`)
		})
		mux.HandleFunc("/embed/1", func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `<html><body><script>
				jwplayer("player").setup({ file: "/hls/1/master.m3u8", autostart: true });
			</script></body></html>`)
		})

		s := New(Config{BaseURL: srv.URL}, testFetcher())

		Convey("The playlist is scraped from the player page", func() {
			res, err := s.GetSources(context.Background(), ref, source.Sub)
			So(err, ShouldBeNil)
			So(res.Sources[0].URL, ShouldEqual, srv.URL+"/hls/1/master.m3u8")
			So(res.Sources[0].IsM3U8, ShouldBeTrue)
		})
	})

	Convey("Without a base URL a configuration error is returned", t, func() {
		s := New(Config{}, testFetcher())
		_, err := s.GetSources(context.Background(), ref, source.Sub)
		So(config.IsError(err), ShouldBeTrue)
	})

	Convey("Without an episode id the request is rejected", t, func() {
		s := New(Config{BaseURL: "https://legacy.example"}, testFetcher())
		_, err := s.GetSources(context.Background(), source.EpisodeRef{}, source.Sub)
		So(source.IsBadRequest(err), ShouldBeTrue)
	})
}

func TestListEpisodes(t *testing.T) {
	Convey("Given an info upstream", t, func() {
		srv := upstream(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/info/naruto" {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			_, _ = io.WriteString(w, `{"id":"naruto","episodes":[{"id":"naruto-episode-1","number":1},{"id":"naruto-episode-2","number":2}]}`)
		})
		defer srv.Close()

		s := New(Config{BaseURL: srv.URL}, testFetcher())

		Convey("Episodes are shared between tracks", func() {
			list, err := s.ListEpisodes(context.Background(), "naruto")
			So(err, ShouldBeNil)
			So(list.ProviderID, ShouldEqual, "legacy")
			So(list.Sub, ShouldHaveLength, 2)
			So(list.Dub, ShouldResemble, list.Sub)
		})

		Convey("An unknown show fails fast", func() {
			_, err := s.ListEpisodes(context.Background(), "missing")
			So(network.StatusCode(err), ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestScrapeEmbed(t *testing.T) {
	Convey("Video tags are preferred over scripts", t, func() {
		srv := upstream(func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `<video><source src="https://cdn.example/v.m3u8"></video>`)
		})
		defer srv.Close()

		s := New(Config{BaseURL: srv.URL}, testFetcher())
		got, err := s.scrapeEmbed(context.Background(), srv.URL+"/e", source.Headers{})
		So(err, ShouldBeNil)
		So(got, ShouldEqual, "https://cdn.example/v.m3u8")
	})

	Convey("A page without a stream is an error", t, func() {
		srv := upstream(func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `<html><p>nothing</p></html>`)
		})
		defer srv.Close()

		s := New(Config{BaseURL: srv.URL}, testFetcher())
		_, err := s.scrapeEmbed(context.Background(), srv.URL+"/e", source.Headers{})
		So(errors.Is(err, errNoStream), ShouldBeTrue)
	})
}
