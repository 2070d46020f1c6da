package aggregate

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/anisan-cli/anistream/config"
	"github.com/anisan-cli/anistream/provider"
	"github.com/anisan-cli/anistream/source"
	. "github.com/smartystreets/goconvey/convey"
	"go.uber.org/ratelimit"
)

type fakeAdapter struct {
	id    string
	list  func(showID string) (source.ProviderEpisodeList, error)
	calls atomic.Int32
}

func (f *fakeAdapter) ID() string { return f.id }

func (f *fakeAdapter) ListEpisodes(_ context.Context, showID string) (source.ProviderEpisodeList, error) {
	f.calls.Add(1)
	return f.list(showID)
}

func (f *fakeAdapter) GetSources(context.Context, source.EpisodeRef, source.Track) (source.Resolution, error) {
	return source.EmptyResolution(), nil
}

func listing(id string, n int) source.ProviderEpisodeList {
	eps := make([]source.EpisodeRef, n)
	for i := range eps {
		eps[i] = source.EpisodeRef{ProviderID: id, EpisodeID: fmt.Sprintf("%s-%d", id, i+1), Number: float64(i + 1)}
	}
	return source.Shared(id, eps)
}

func ok(id string, n int) *fakeAdapter {
	return &fakeAdapter{id: id, list: func(string) (source.ProviderEpisodeList, error) {
		return listing(id, n), nil
	}}
}

func failing(id string, err error) *fakeAdapter {
	return &fakeAdapter{id: id, list: func(string) (source.ProviderEpisodeList, error) {
		return source.ProviderEpisodeList{}, err
	}}
}

// countingLimiter records takes without waiting.
type countingLimiter struct {
	takes int
}

func (c *countingLimiter) Take() time.Time {
	c.takes++
	return time.Now()
}

func TestAggregate(t *testing.T) {
	Convey("Given both providers succeed", t, func() {
		g := &Aggregator{Adapters: []source.Adapter{ok("meta", 3), ok("session", 2)}}

		Convey("Both lists are returned in priority order", func() {
			lists, err := g.Aggregate(context.Background(), "1")
			So(err, ShouldBeNil)
			So(lists, ShouldHaveLength, 2)
			So(lists[0].ProviderID, ShouldEqual, "meta")
			So(lists[1].ProviderID, ShouldEqual, "session")
		})
	})

	Convey("Given the mapping provider fails and the session provider succeeds", t, func() {
		g := &Aggregator{Adapters: []source.Adapter{
			failing("meta", errors.New("upstream exploded")),
			ok("session", 12),
		}}

		Convey("Only the session listing is returned, without an error", func() {
			lists, err := g.Aggregate(context.Background(), "1")
			So(err, ShouldBeNil)
			So(lists, ShouldHaveLength, 1)
			So(lists[0].ProviderID, ShouldEqual, "session")
			So(lists[0].Count(), ShouldEqual, 12)
		})

		Convey("The report keeps the cause", func() {
			_, details, err := g.Report(context.Background(), "1")
			So(err, ShouldBeNil)
			So(details[0].Status, ShouldEqual, StatusFailed)
			So(details[0].Error, ShouldContainSubstring, "exploded")
			So(details[1].Status, ShouldEqual, StatusOK)
		})
	})

	Convey("Given a provider that panics", t, func() {
		g := &Aggregator{Adapters: []source.Adapter{
			&fakeAdapter{id: "meta", list: func(string) (source.ProviderEpisodeList, error) {
				panic("nil map")
			}},
			ok("session", 1),
		}}

		Convey("The panic is contained", func() {
			lists, err := g.Aggregate(context.Background(), "1")
			So(err, ShouldBeNil)
			So(lists, ShouldHaveLength, 1)
		})
	})

	Convey("Given an empty listing and a failure", t, func() {
		g := &Aggregator{Adapters: []source.Adapter{ok("meta", 0), failing("session", source.ErrMalformed)}}

		Convey("The result is empty rather than an error", func() {
			lists, err := g.Aggregate(context.Background(), "1")
			So(err, ShouldBeNil)
			So(lists, ShouldBeEmpty)
		})
	})

	Convey("Configuration errors propagate", t, func() {
		g := &Aggregator{Adapters: []source.Adapter{failing("meta", &config.Error{Key: "providers.meta.base_url"}), ok("session", 1)}}
		_, err := g.Aggregate(context.Background(), "1")
		So(config.IsError(err), ShouldBeTrue)

		_, err = (&Aggregator{}).Aggregate(context.Background(), "1")
		So(config.IsError(err), ShouldBeTrue)
	})
}

func TestBulk(t *testing.T) {
	Convey("Given an aggregator where show 3 has no providers", t, func() {
		meta := &fakeAdapter{id: "meta", list: func(id string) (source.ProviderEpisodeList, error) {
			if id == "3" {
				return source.ProviderEpisodeList{}, errors.New("not found")
			}
			return listing("meta", 2), nil
		}}
		session := &fakeAdapter{id: "session", list: func(id string) (source.ProviderEpisodeList, error) {
			if id == "3" {
				return source.ProviderEpisodeList{}, nil
			}
			return listing("session", 1), nil
		}}

		limiter := &countingLimiter{}
		g := &Aggregator{
			Adapters:   []source.Adapter{meta, session},
			NewLimiter: func() ratelimit.Limiter { return limiter },
			MaxPost:    10,
			MaxGet:     5,
		}

		Convey("Eleven ids exceed the POST limit", func() {
			ids := make([]string, 11)
			for i := range ids {
				ids[i] = fmt.Sprint(i + 1)
			}
			_, err := g.Bulk(context.Background(), ids, g.Limit(true))
			So(source.IsBadRequest(err), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "10")
			So(meta.calls.Load(), ShouldEqual, 0)
		})

		Convey("Six ids exceed the GET limit", func() {
			_, err := g.Bulk(context.Background(), []string{"1", "2", "3", "4", "5", "6"}, g.Limit(false))
			So(err.Error(), ShouldContainSubstring, "5")
		})

		Convey("Ten ids yield ten entries across results and errors", func() {
			ids := make([]string, 10)
			for i := range ids {
				ids[i] = fmt.Sprint(i + 1)
			}

			res, err := g.Bulk(context.Background(), ids, g.Limit(true))
			So(err, ShouldBeNil)
			So(len(res.Results)+len(res.Errors), ShouldEqual, 10)
			So(res.Errors, ShouldHaveLength, 1)
			So(res.Errors[0].ID, ShouldEqual, "3")
			So(limiter.takes, ShouldEqual, 10)

			So(res.ProviderDetails["meta"].Succeeded, ShouldEqual, 9)
			So(res.ProviderDetails["meta"].Failed, ShouldEqual, 1)
			So(res.ProviderDetails["meta"].Episodes, ShouldEqual, 18)
			So(res.ProviderDetails["session"].Empty, ShouldEqual, 1)
		})

		Convey("Results keep the request order", func() {
			res, err := g.Bulk(context.Background(), []string{"2", "1"}, 0)
			So(err, ShouldBeNil)
			So(res.Results[0].ID, ShouldEqual, "2")
			So(res.Results[1].ID, ShouldEqual, "1")
		})

		Convey("No ids is a bad request", func() {
			_, err := g.Bulk(context.Background(), nil, 10)
			So(source.IsBadRequest(err), ShouldBeTrue)
		})

		Convey("A cancelled request still accounts for every id", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			res, err := g.Bulk(ctx, []string{"1", "2"}, 10)
			So(err, ShouldBeNil)
			So(res.Errors, ShouldHaveLength, 2)
			So(meta.calls.Load(), ShouldEqual, 0)
		})
	})

	Convey("Bulk listings are paced by the delay", t, func() {
		g := &Aggregator{Adapters: []source.Adapter{ok("meta", 1)}, Delay: 50 * time.Millisecond}

		started := time.Now()
		_, err := g.Bulk(context.Background(), []string{"1", "2", "3"}, 10)
		So(err, ShouldBeNil)
		So(time.Since(started), ShouldBeGreaterThanOrEqualTo, 90*time.Millisecond)
	})

	Convey("Concurrent bulk calls are paced independently", t, func() {
		g := &Aggregator{Adapters: []source.Adapter{ok("meta", 1)}, Delay: 200 * time.Millisecond}

		var wg sync.WaitGroup
		errs := make([]error, 3)
		started := time.Now()
		for i := range errs {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, errs[i] = g.Bulk(context.Background(), []string{"1", "2"}, 10)
			}(i)
		}
		wg.Wait()
		elapsed := time.Since(started)

		for _, err := range errs {
			So(err, ShouldBeNil)
		}
		So(elapsed, ShouldBeGreaterThanOrEqualTo, 190*time.Millisecond)
		So(elapsed, ShouldBeLessThan, 600*time.Millisecond)
	})
}

func TestNew(t *testing.T) {
	Convey("New keeps only configured listing providers", t, func() {
		s := &config.Settings{
			SessionProviderBaseURL: "https://session.example",
			BulkDelay:              500 * time.Millisecond,
			BulkMaxPost:            10,
			BulkMaxGet:             5,
		}
		g := New(s, provider.New(s))
		So(g.Adapters, ShouldHaveLength, 1)
		So(g.Adapters[0].ID(), ShouldEqual, "session")
		So(g.Limit(true), ShouldEqual, 10)
		So(g.Limit(false), ShouldEqual, 5)
		So(g.Delay, ShouldEqual, 500*time.Millisecond)
	})
}
