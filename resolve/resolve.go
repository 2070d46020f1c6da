// Package resolve turns an episode selection into playable, proxy-routed sources.
package resolve

import (
	"context"
	"fmt"
	"strings"

	"github.com/anisan-cli/anistream/config"
	"github.com/anisan-cli/anistream/hls"
	"github.com/anisan-cli/anistream/key"
	"github.com/anisan-cli/anistream/log"
	"github.com/anisan-cli/anistream/metrics"
	"github.com/anisan-cli/anistream/source"
	"github.com/samber/lo"
	"github.com/samber/mo"
)

// Request selects one episode at one provider.
type Request struct {
	ProviderID     string  `json:"providerId"`
	EpisodeID      string  `json:"episodeId"`
	EpisodeNumber  float64 `json:"episodeNumber"`
	ShowID         string  `json:"showId"`
	AudioTrack     string  `json:"audioTrack"`
	ShowSession    string  `json:"showSession,omitempty"`
	EpisodeSession string  `json:"episodeSession,omitempty"`
}

// Ref builds the episode reference the adapter expects. Session
// providers address episodes by their episode session.
func (r Request) Ref() source.EpisodeRef {
	episodeID := r.EpisodeID
	if r.EpisodeSession != "" {
		episodeID = r.EpisodeSession
	}

	return source.EpisodeRef{
		ProviderID:  r.ProviderID,
		EpisodeID:   episodeID,
		Number:      r.EpisodeNumber,
		ShowSession: r.ShowSession,
	}
}

// Adapters looks adapters up by provider id.
type Adapters interface {
	Adapter(id string) (source.Adapter, bool)
}

// Resolver dispatches to provider adapters and rewrites their playlists
// through the manifest proxy. It is safe for concurrent use.
type Resolver struct {
	adapters  Adapters
	proxyBase string
}

// New returns a Resolver whose playlists point at proxyBase.
func New(adapters Adapters, proxyBase string) *Resolver {
	return &Resolver{
		adapters:  adapters,
		proxyBase: strings.TrimSuffix(proxyBase, "/"),
	}
}

// Resolve returns the sources of the requested episode. Adapter failures
// yield the empty resolution so callers can move on to another provider;
// only bad requests and configuration errors are returned as errors.
func (r *Resolver) Resolve(ctx context.Context, req Request) (source.Resolution, error) {
	if req.ProviderID == "" {
		return source.Resolution{}, source.BadRequest("providerId is required")
	}

	adapter, ok := r.adapters.Adapter(req.ProviderID)
	if !ok {
		return source.Resolution{}, source.BadRequest("unknown provider: %s", req.ProviderID)
	}

	if r.proxyBase == "" {
		return source.Resolution{}, &config.Error{Key: key.ProxyBaseURL}
	}

	track := source.ParseTrack(req.AudioTrack)
	result := r.fetch(ctx, adapter, req.Ref(), track)

	fields := log.Fields{"provider": req.ProviderID, "episode": req.EpisodeID, "track": track}

	res, err := result.Get()
	if err != nil {
		if source.IsBadRequest(err) || config.IsError(err) {
			return source.Resolution{}, err
		}

		metrics.ProviderOutcome(req.ProviderID, "sources", "failed")
		log.WithFields(fields).WithError(err).Warn("source resolution degraded to empty")
		return source.EmptyResolution(), nil
	}

	res.Sources = source.WithAuto(r.rewrite(res.Sources, res.Headers))
	res = res.Normalize()

	status := "ok"
	if res.Empty() {
		status = "empty"
	}
	metrics.ProviderOutcome(req.ProviderID, "sources", status)
	log.WithFields(fields).WithField("sources", len(res.Sources)).Debug("sources resolved")

	return res, nil
}

func (r *Resolver) fetch(ctx context.Context, adapter source.Adapter, ref source.EpisodeRef, track source.Track) (result mo.Result[source.Resolution]) {
	defer func() {
		if p := recover(); p != nil {
			result = mo.Err[source.Resolution](fmt.Errorf("%s: panic: %v", adapter.ID(), p))
		}
	}()

	return mo.TupleToResult(adapter.GetSources(ctx, ref, track))
}

// rewrite routes every playlist entry through the proxy with the headers
// the upstream asked for. Direct files and already proxied entries are kept.
func (r *Resolver) rewrite(entries []source.SourceEntry, headers source.Headers) []source.SourceEntry {
	forward := headers.Map()

	return lo.Map(entries, func(e source.SourceEntry, _ int) source.SourceEntry {
		if e.IsM3U8 && !hls.IsProxied(r.proxyBase, e.URL) {
			e.URL = hls.ProxyURL(r.proxyBase, e.URL, forward)
		}
		return e
	})
}
