package resolve

import (
	"context"
	"errors"
	"testing"

	"github.com/anisan-cli/anistream/config"
	"github.com/anisan-cli/anistream/hls"
	"github.com/anisan-cli/anistream/provider"
	"github.com/anisan-cli/anistream/source"
	. "github.com/smartystreets/goconvey/convey"
)

const proxyBase = "https://stream.example"

type fakeAdapter struct {
	id      string
	res     source.Resolution
	err     error
	gotRef  source.EpisodeRef
	gotTrak source.Track
}

func (f *fakeAdapter) ID() string { return f.id }

func (f *fakeAdapter) ListEpisodes(context.Context, string) (source.ProviderEpisodeList, error) {
	return source.ProviderEpisodeList{}, nil
}

func (f *fakeAdapter) GetSources(_ context.Context, ref source.EpisodeRef, track source.Track) (source.Resolution, error) {
	f.gotRef, f.gotTrak = ref, track
	if f.id == "panicky" {
		panic("boom")
	}
	return f.res, f.err
}

func registry(adapters ...*fakeAdapter) *provider.Registry {
	providers := make([]*provider.Provider, len(adapters))
	for i, a := range adapters {
		providers[i] = &provider.Provider{ID: a.id, Configured: true, Adapter: a}
	}
	return provider.NewRegistry(providers...)
}

func TestResolve(t *testing.T) {
	Convey("Given an adapter with playlists and a direct file", t, func() {
		a := &fakeAdapter{id: "legacy", res: source.Resolution{
			Sources: []source.SourceEntry{
				{URL: "https://cdn.example/720.m3u8", Quality: "720", IsM3U8: true, Type: source.TypeHLS},
				{URL: "https://cdn.example/1080.m3u8", Quality: "1080", IsM3U8: true, Type: source.TypeHLS},
				{URL: "https://cdn.example/file.mp4", Quality: "480", Type: source.TypeMP4},
			},
			Headers: source.Headers{Referer: "https://player.example/"},
		}}
		r := New(registry(a), proxyBase+"/")

		res, err := r.Resolve(context.Background(), Request{ProviderID: "legacy", EpisodeID: "ep-1", AudioTrack: "DUB"})
		So(err, ShouldBeNil)

		Convey("The track is parsed and passed on", func() {
			So(a.gotTrak, ShouldEqual, source.Dub)
			So(a.gotRef.EpisodeID, ShouldEqual, "ep-1")
		})

		Convey("Playlists are routed through the proxy with the upstream headers", func() {
			target, headers, ok := hls.Unwrap(res.Sources[1].URL)
			So(ok, ShouldBeTrue)
			So(hls.IsProxied(proxyBase, res.Sources[1].URL), ShouldBeTrue)
			So(target, ShouldEqual, "https://cdn.example/720.m3u8")
			So(headers, ShouldResemble, map[string]string{"Referer": "https://player.example/"})
		})

		Convey("Direct files pass through unmodified", func() {
			So(res.Sources[3].URL, ShouldEqual, "https://cdn.example/file.mp4")
		})

		Convey("A single auto entry leads and points at 1080", func() {
			So(res.Sources, ShouldHaveLength, 4)
			So(res.Sources[0].Quality, ShouldEqual, source.QualityAuto)
			So(res.Sources[0].URL, ShouldEqual, res.Sources[2].URL)
		})
	})

	Convey("Already proxied entries are not wrapped again", t, func() {
		proxied := hls.ProxyURL(proxyBase, "https://cdn.example/a.m3u8", map[string]string{"Referer": "r"})
		a := &fakeAdapter{id: "session", res: source.Resolution{Sources: []source.SourceEntry{
			{URL: proxied, Quality: source.QualityAuto, IsM3U8: true},
			{URL: proxied, Quality: "1080", IsM3U8: true},
		}}}

		res, err := New(registry(a), proxyBase).Resolve(context.Background(), Request{ProviderID: "session"})
		So(err, ShouldBeNil)
		So(res.Sources, ShouldHaveLength, 2)
		So(res.Sources[1].URL, ShouldEqual, proxied)
	})

	Convey("Session tokens are carried in the episode reference", t, func() {
		a := &fakeAdapter{id: "session", res: source.Resolution{}}
		_, _ = New(registry(a), proxyBase).Resolve(context.Background(), Request{
			ProviderID:     "session",
			EpisodeID:      "12",
			ShowSession:    "show-sess",
			EpisodeSession: "ep-sess",
		})
		So(a.gotRef.EpisodeID, ShouldEqual, "ep-sess")
		So(a.gotRef.ShowSession, ShouldEqual, "show-sess")
	})

	Convey("Adapter failures become the empty resolution", t, func() {
		for _, a := range []*fakeAdapter{
			{id: "legacy", err: errors.New("both upstreams down")},
			{id: "legacy", err: source.ErrMalformed},
			{id: "panicky"},
		} {
			res, err := New(registry(a), proxyBase).Resolve(context.Background(), Request{ProviderID: a.id})
			So(err, ShouldBeNil)
			So(res.Sources, ShouldNotBeNil)
			So(res.Sources, ShouldBeEmpty)
			So(res.Subtitles, ShouldBeEmpty)
			So(res.DownloadLinks, ShouldBeNil)
		}
	})

	Convey("Bad requests and configuration errors propagate", t, func() {
		a := &fakeAdapter{id: "session", err: source.BadRequest("session provider requires showSession and episodeSession")}
		_, err := New(registry(a), proxyBase).Resolve(context.Background(), Request{ProviderID: "session"})
		So(source.IsBadRequest(err), ShouldBeTrue)

		b := &fakeAdapter{id: "legacy", err: &config.Error{Key: "providers.legacy.base_url"}}
		_, err = New(registry(b), proxyBase).Resolve(context.Background(), Request{ProviderID: "legacy"})
		So(config.IsError(err), ShouldBeTrue)
	})

	Convey("Unknown or missing providers are bad requests", t, func() {
		r := New(registry(), proxyBase)
		_, err := r.Resolve(context.Background(), Request{ProviderID: "nope"})
		So(source.IsBadRequest(err), ShouldBeTrue)

		_, err = r.Resolve(context.Background(), Request{})
		So(source.IsBadRequest(err), ShouldBeTrue)
	})
}
