package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/anisan-cli/anistream/config"
	"github.com/anisan-cli/anistream/log"
	"github.com/anisan-cli/anistream/network"
	"github.com/anisan-cli/anistream/resolve"
	"github.com/anisan-cli/anistream/source"
	"github.com/anisan-cli/anistream/util"
	"github.com/gorilla/mux"
	"github.com/samber/lo"
)

const episodesCacheControl = "public, s-maxage=3600, stale-while-revalidate=7200"

// maxBody bounds JSON request bodies.
const maxBody = 1 << 20

func (s *Server) handleEpisodes(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(mux.Vars(r)["id"])
	if id == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	lists, err := s.Episodes.Aggregate(r.Context(), id)
	if err != nil {
		writeFailure(w, r, err)
		return
	}

	w.Header().Set("Cache-Control", episodesCacheControl)
	writeJSON(w, http.StatusOK, lo.Ternary(lists == nil, []source.ProviderEpisodeList{}, lists))
}

type bulkBody struct {
	IDs []string `json:"ids"`
}

func (s *Server) handleBulk(w http.ResponseWriter, r *http.Request) {
	post := r.Method == http.MethodPost

	var ids []string
	if post {
		var body bulkBody
		if err := decodeBody(w, r, &body); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		ids = lo.Map(body.IDs, func(id string, _ int) string { return strings.TrimSpace(id) })
	} else {
		ids = util.SplitList(r.URL.Query().Get("ids"))
	}

	res, err := s.Episodes.Bulk(r.Context(), ids, s.Episodes.Limit(post))
	if err != nil {
		writeFailure(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleSources(w http.ResponseWriter, r *http.Request) {
	var req resolve.Request
	if r.Method == http.MethodPost {
		if err := decodeBody(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	} else {
		var err error
		if req, err = requestFromQuery(r); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	res, err := s.Sources.Resolve(r.Context(), req)
	if err != nil {
		writeFailure(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func requestFromQuery(r *http.Request) (resolve.Request, error) {
	q := r.URL.Query()
	req := resolve.Request{
		ProviderID:     q.Get("providerId"),
		EpisodeID:      q.Get("episodeId"),
		ShowID:         q.Get("showId"),
		AudioTrack:     q.Get("audioTrack"),
		ShowSession:    q.Get("showSession"),
		EpisodeSession: q.Get("episodeSession"),
	}

	if n := q.Get("episodeNumber"); n != "" {
		number, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return req, errors.New("episodeNumber must be a number")
		}
		req.EpisodeNumber = number
	}

	return req, nil
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody))
	if err := dec.Decode(v); err != nil {
		return errors.New("invalid JSON body")
	}
	return nil
}

// writeFailure maps err onto a status: caller mistakes are 400, upstream
// timeouts 504 and everything else, configuration errors included, 500.
func writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case source.IsBadRequest(err):
		status = http.StatusBadRequest
	case network.IsTimeout(err), errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	case config.IsError(err):
		log.WithFields(log.Fields{"path": r.URL.Path, "request_id": RequestID(r.Context())}).
			WithError(err).Error("request failed on configuration")
	}

	writeError(w, status, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	util.WriteJSON(w, status, v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	util.WriteError(w, status, message)
}
