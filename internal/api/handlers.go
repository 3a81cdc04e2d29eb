package api

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"matchsync/internal/collector"
	"matchsync/internal/db"
	"matchsync/internal/history"
	"matchsync/internal/riot"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"
)

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("[API] Failed to encode response: %v", err)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	counts, err := s.counts.GetCounts(r.Context())
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, counts)
}

func (s *Server) platform(r *http.Request) string {
	if region := strings.TrimSpace(r.URL.Query().Get("region")); region != "" {
		return strings.ToLower(region)
	}
	return s.defaultPlatform
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	puuid := chi.URLParam(r, "puuid")

	count, err := intParam(r, "count", collector.DefaultSyncCount)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	weeks, err := intParam(r, "weeks", 0)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	if !s.locks.TryLock(puuid) {
		respondWithError(w, http.StatusConflict, collector.ErrSyncInProgress.Error())
		return
	}
	defer s.locks.Unlock(puuid)

	ctx, cancel := context.WithTimeout(r.Context(), s.syncTimeout)
	defer cancel()

	res := s.syncer.Sync(ctx, collector.SyncRequest{
		PUUID:       puuid,
		Platform:    s.platform(r),
		APIKey:      r.Header.Get("X-Riot-Token"),
		Count:       count,
		EnsureWeeks: weeks,
	})

	code := http.StatusOK
	if !res.Success {
		code = http.StatusBadGateway
	}
	respondWithJSON(w, code, res)
}

func (s *Server) handleMatches(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r, "limit", history.DefaultLimit)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	queues, err := queueParam(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	q := history.HistoryQuery{Limit: limit, QueueIDs: queues}
	if c := r.URL.Query().Get("cursor"); c != "" {
		cursor, err := strconv.ParseInt(c, 10, 64)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "cursor must be an integer")
			return
		}
		q.Cursor = &cursor
	}

	page, err := s.reader.GetMatchHistory(r.Context(), chi.URLParam(r, "puuid"), q)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, page)
}

func (s *Server) handlePlayerStats(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r, "limit", history.DefaultLimit)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	queues, err := queueParam(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	stats, err := s.reader.GetPlayerStats(r.Context(), chi.URLParam(r, "puuid"), history.StatsQuery{Limit: limit, QueueIDs: queues})
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, stats)
}

func (s *Server) handleMatchDetail(w http.ResponseWriter, r *http.Request) {
	detail, err := s.reader.GetMatchByID(r.Context(), chi.URLParam(r, "matchId"))
	if errors.Is(err, db.ErrNotFound) {
		respondWithError(w, http.StatusNotFound, "match not found")
		return
	}
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, detail)
}

func (s *Server) handleAccount(w http.ResponseWriter, r *http.Request) {
	if s.accounts == nil {
		respondWithError(w, http.StatusServiceUnavailable, "account lookup not configured")
		return
	}

	routing := riot.RoutingRegion(s.platform(r))
	account, err := s.accounts.GetAccountByRiotID(r.Context(), routing, chi.URLParam(r, "gameName"), chi.URLParam(r, "tagLine"))
	switch {
	case errors.Is(err, riot.ErrNotFound):
		respondWithError(w, http.StatusNotFound, "account not found")
	case err != nil:
		respondWithError(w, http.StatusBadGateway, err.Error())
	default:
		respondWithJSON(w, http.StatusOK, account)
	}
}

func intParam(r *http.Request, name string, def int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.New(name + " must be an integer")
	}
	return n, nil
}

// queueParam parses queue=420,440
func queueParam(r *http.Request) ([]int, error) {
	v := r.URL.Query().Get("queue")
	if v == "" {
		return nil, nil
	}
	var queues []int
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.Atoi(part)
		if err != nil {
			return nil, errors.New("queue must be a comma-separated list of integers")
		}
		queues = append(queues, id)
	}
	return queues, nil
}
