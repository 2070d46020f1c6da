// Package api exposes episode listing, source resolution and the manifest
// proxy over HTTP.
package api

import (
	"context"
	"net/http"

	"github.com/anisan-cli/anistream/aggregate"
	"github.com/anisan-cli/anistream/hls"
	"github.com/anisan-cli/anistream/metrics"
	"github.com/anisan-cli/anistream/resolve"
	"github.com/anisan-cli/anistream/source"
	"github.com/gorilla/mux"
)

// Episodes lists episodes for one or many shows.
type Episodes interface {
	Aggregate(ctx context.Context, showID string) ([]source.ProviderEpisodeList, error)
	Bulk(ctx context.Context, ids []string, limit int) (*aggregate.BulkResult, error)
	Limit(post bool) int
}

// Sources resolves one episode to playable sources.
type Sources interface {
	Resolve(ctx context.Context, req resolve.Request) (source.Resolution, error)
}

// Server holds the handler dependencies.
type Server struct {
	Episodes Episodes
	Sources  Sources
	Proxy    http.Handler
}

// Router wires every route and the middleware chain.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(recovery, requestID, accessLog)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/episodes/{id}", s.handleEpisodes).Methods(http.MethodGet)
	api.HandleFunc("/episodes", s.handleBulk).Methods(http.MethodGet, http.MethodPost)
	api.HandleFunc("/sources", s.handleSources).Methods(http.MethodGet, http.MethodPost)

	r.Handle(hls.ManifestPath, s.Proxy).Methods(http.MethodGet, http.MethodOptions)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/healthz", handleHealth).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	return r
}
