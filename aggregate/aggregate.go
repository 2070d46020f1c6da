// Package aggregate collects episode listings from the listing providers
// in priority order, isolating each provider's failures from the others.
package aggregate

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/anisan-cli/anistream/config"
	"github.com/anisan-cli/anistream/constant"
	"github.com/anisan-cli/anistream/key"
	"github.com/anisan-cli/anistream/log"
	"github.com/anisan-cli/anistream/metrics"
	"github.com/anisan-cli/anistream/provider"
	"github.com/anisan-cli/anistream/source"
	"github.com/samber/lo"
	"go.uber.org/ratelimit"
)

// Status of one provider in a listing.
const (
	StatusOK     = "ok"
	StatusEmpty  = "empty"
	StatusFailed = "failed"
)

// Detail reports how one provider answered for a show.
type Detail struct {
	ProviderID string `json:"providerId"`
	Status     string `json:"status"`
	Episodes   int    `json:"episodes"`
	Error      string `json:"error,omitempty"`
}

// Aggregator queries listing adapters. It is safe for concurrent use.
type Aggregator struct {
	// Adapters in priority order; index 0 of a listing is the default choice.
	Adapters []source.Adapter
	// Delay separates the shows of one bulk call.
	Delay time.Duration
	// NewLimiter builds the pacing limiter of a bulk call, one show per
	// take. Every call gets its own so concurrent calls do not wait on
	// each other. Nil uses Delay.
	NewLimiter func() ratelimit.Limiter
	MaxPost    int
	MaxGet     int
}

// New returns an aggregator over the episode-mapping provider followed by
// the session provider. Providers without a base URL are left out.
func New(s *config.Settings, registry *provider.Registry) *Aggregator {
	var adapters []source.Adapter
	for _, id := range []string{constant.ProviderMeta, constant.ProviderSession} {
		if p, ok := registry.Get(id); ok && p.Configured {
			adapters = append(adapters, p.Adapter)
		}
	}

	return &Aggregator{
		Adapters: adapters,
		Delay:    s.BulkDelay,
		MaxPost:  s.BulkMaxPost,
		MaxGet:   s.BulkMaxGet,
	}
}

func (g *Aggregator) limiter() ratelimit.Limiter {
	if g.NewLimiter != nil {
		return g.NewLimiter()
	}
	if g.Delay <= 0 {
		return ratelimit.NewUnlimited()
	}
	return ratelimit.New(1, ratelimit.Per(g.Delay), ratelimit.WithoutSlack)
}

// Aggregate returns the non-empty listings in priority order. Provider
// failures are logged and skipped; when every provider fails the result is
// empty and no error is returned. Only configuration errors propagate.
func (g *Aggregator) Aggregate(ctx context.Context, showID string) ([]source.ProviderEpisodeList, error) {
	lists, _, err := g.Report(ctx, showID)
	return lists, err
}

// Report is Aggregate plus how each provider answered.
func (g *Aggregator) Report(ctx context.Context, showID string) ([]source.ProviderEpisodeList, []Detail, error) {
	if len(g.Adapters) == 0 {
		return nil, nil, &config.Error{Key: key.MetaBaseURL, Reason: "or " + key.SessionBaseURL + " must be set"}
	}

	outcomes := make([]source.Outcome[source.ProviderEpisodeList], len(g.Adapters))

	var wg sync.WaitGroup
	for i, a := range g.Adapters {
		wg.Add(1)
		go func() {
			defer wg.Done()
			outcomes[i] = query(ctx, a, showID)
		}()
	}
	wg.Wait()

	lists := make([]source.ProviderEpisodeList, 0, len(outcomes))
	details := make([]Detail, 0, len(outcomes))

	for _, o := range outcomes {
		d := Detail{ProviderID: o.ProviderID}

		switch list := o.Value(); {
		case o.IsDegraded():
			cause := o.Cause()
			if config.IsError(cause) {
				return nil, nil, cause
			}

			d.Status, d.Error = StatusFailed, cause.Error()
			log.WithFields(log.Fields{"provider": o.ProviderID, "show": showID}).WithError(cause).Warn("provider listing failed")

		case list.Empty():
			d.Status = StatusEmpty

		default:
			d.Status, d.Episodes = StatusOK, list.Count()
			lists = append(lists, list)
		}

		metrics.ProviderOutcome(o.ProviderID, "episodes", d.Status)
		details = append(details, d)
	}

	return lists, details, nil
}

// query asks one adapter, turning errors and panics into a degraded outcome.
func query(ctx context.Context, a source.Adapter, showID string) (out source.Outcome[source.ProviderEpisodeList]) {
	id := a.ID()
	empty := source.ProviderEpisodeList{ProviderID: id}

	defer func() {
		if r := recover(); r != nil {
			out = source.Degraded(id, empty, fmt.Errorf("%s: panic: %v", id, r))
		}
	}()

	list, err := a.ListEpisodes(ctx, showID)
	if err != nil {
		return source.Degraded(id, empty, err)
	}

	if list.ProviderID == "" {
		list.ProviderID = id
	}

	return source.Ok(id, list)
}

// ShowResult is the listing of one show in a bulk call.
type ShowResult struct {
	ID        string                       `json:"id"`
	Providers []source.ProviderEpisodeList `json:"providers"`
}

// ShowError is a show of a bulk call with no usable provider.
type ShowError struct {
	ID    string `json:"id"`
	Error string `json:"error"`
}

// ProviderSummary counts how a provider fared across a bulk call.
type ProviderSummary struct {
	Succeeded int `json:"succeeded"`
	Empty     int `json:"empty"`
	Failed    int `json:"failed"`
	Episodes  int `json:"episodes"`
}

// BulkResult holds one entry per requested id, in Results or Errors.
type BulkResult struct {
	Results         []ShowResult                `json:"results"`
	ProviderDetails map[string]*ProviderSummary `json:"providerDetails"`
	Errors          []ShowError                 `json:"errors"`
}

// ErrNoProviders is recorded for shows no provider had episodes for.
var ErrNoProviders = errors.New("no providers available")

// Bulk lists several shows one after another, never in parallel, pacing
// upstream calls through the limiter. limit caps the number of ids.
func (g *Aggregator) Bulk(ctx context.Context, ids []string, limit int) (*BulkResult, error) {
	if len(ids) == 0 {
		return nil, source.BadRequest("ids is required")
	}
	if limit > 0 && len(ids) > limit {
		return nil, source.BadRequest("too many ids: at most %d per request", limit)
	}

	res := &BulkResult{
		Results:         []ShowResult{},
		ProviderDetails: map[string]*ProviderSummary{},
		Errors:          []ShowError{},
	}

	limiter := g.limiter()

	for _, id := range ids {
		if ctx.Err() != nil {
			res.Errors = append(res.Errors, ShowError{ID: id, Error: ctx.Err().Error()})
			continue
		}

		if id == "" {
			res.Errors = append(res.Errors, ShowError{ID: id, Error: "empty id"})
			continue
		}

		limiter.Take()

		lists, details, err := g.Report(ctx, id)
		if err != nil {
			return nil, err
		}

		for _, d := range details {
			summary := lo.ValueOr(res.ProviderDetails, d.ProviderID, nil)
			if summary == nil {
				summary = &ProviderSummary{}
				res.ProviderDetails[d.ProviderID] = summary
			}

			switch d.Status {
			case StatusOK:
				summary.Succeeded++
				summary.Episodes += d.Episodes
			case StatusEmpty:
				summary.Empty++
			default:
				summary.Failed++
			}
		}

		if len(lists) == 0 {
			res.Errors = append(res.Errors, ShowError{ID: id, Error: ErrNoProviders.Error()})
			continue
		}

		res.Results = append(res.Results, ShowResult{ID: id, Providers: lists})
	}

	return res, nil
}

// Limit returns the id cap for a bulk request made with method.
func (g *Aggregator) Limit(post bool) int {
	if post {
		return g.MaxPost
	}
	return g.MaxGet
}
