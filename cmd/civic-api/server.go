package main

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/civicpulse/congress-data-client/pkg/congress"
	"github.com/civicpulse/congress-data-client/pkg/fec"
	"github.com/civicpulse/congress-data-client/pkg/news"
	"github.com/civicpulse/congress-data-client/pkg/ratelimit"
	"github.com/civicpulse/congress-data-client/pkg/sections"
)

// Server bundles the data clients behind the HTTP API.
type Server struct {
	congress *congress.Client
	fec      *fec.Client
	news     *news.Client
	sections *sections.Service
	logger   zerolog.Logger
}

// NewServer creates the API server over the given clients.
func NewServer(c *congress.Client, f *fec.Client, n *news.Client, s *sections.Service, logger zerolog.Logger) *Server {
	return &Server{
		congress: c,
		fec:      f,
		news:     n,
		sections: s,
		logger:   logger.With().Str("component", "api").Logger(),
	}
}

// Handler builds the full route table wrapped in the rate limit
// middleware.
func (s *Server) Handler(limiter *ratelimit.Middleware) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /api/members/search", s.handleSearchMembers)
	mux.HandleFunc("GET /api/members/{bioguideID}", s.handleGetMember)
	mux.HandleFunc("GET /api/members/{bioguideID}/bills", s.handleGetBills)
	mux.HandleFunc("GET /api/members/{bioguideID}/cosponsored", s.handleGetCosponsored)
	mux.HandleFunc("GET /api/members/{bioguideID}/finances", s.handleGetFinances)
	mux.HandleFunc("GET /api/members/{bioguideID}/expenditures", s.handleGetExpenditures)
	mux.HandleFunc("GET /api/members/{bioguideID}/news", s.handleGetNews)
	mux.HandleFunc("GET /api/votes", s.handleGetVotes)
	mux.HandleFunc("POST /api/members/{bioguideID}/refresh", s.handleRefresh)

	if limiter == nil {
		return mux
	}
	return limiter.Handler(mux)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSearchMembers(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	state := r.URL.Query().Get("state")
	if query == "" && state == "" {
		writeError(w, http.StatusBadRequest, "q or state parameter required")
		return
	}

	resp, err := s.congress.SearchMembers(r.Context(), query, state)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetMember(w http.ResponseWriter, r *http.Request) {
	resp, err := s.congress.GetMember(r.Context(), r.PathValue("bioguideID"))
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	if resp.Data == nil {
		writeError(w, http.StatusNotFound, "member not found")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetBills(w http.ResponseWriter, r *http.Request) {
	resp, err := s.congress.GetMemberBills(r.Context(), r.PathValue("bioguideID"), queryLimit(r))
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetCosponsored(w http.ResponseWriter, r *http.Request) {
	resp, err := s.congress.GetCosponsoredBills(r.Context(), r.PathValue("bioguideID"), queryLimit(r))
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetFinances(w http.ResponseWriter, r *http.Request) {
	resp, err := s.fec.GetFinances(r.Context(), r.PathValue("bioguideID"))
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	if resp.Data == nil {
		writeError(w, http.StatusNotFound, "finance data not found")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetExpenditures(w http.ResponseWriter, r *http.Request) {
	resp, err := s.fec.GetExpenditures(r.Context(), r.PathValue("bioguideID"), queryLimit(r))
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetNews(w http.ResponseWriter, r *http.Request) {
	bioguideID := r.PathValue("bioguideID")

	// News queries need the member's name; resolve through the cached
	// directory first.
	member, err := s.congress.GetMember(r.Context(), bioguideID)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	if member.Data == nil {
		writeError(w, http.StatusNotFound, "member not found")
		return
	}

	resp, err := s.news.GetNews(r.Context(), bioguideID, member.Data.FullName, queryLimit(r))
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetVotes(w http.ResponseWriter, r *http.Request) {
	chamber := r.URL.Query().Get("chamber")
	if chamber == "" {
		chamber = "house"
	}

	votes, err := s.congress.GetRecentVotes(r.Context(), chamber, queryLimit(r))
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"votes": votes})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	bioguideID := r.PathValue("bioguideID")

	if name := r.URL.Query().Get("section"); name != "" {
		section, err := sections.Parse(name)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		ok := s.sections.RefreshSection(r.Context(), bioguideID, section)
		writeJSON(w, http.StatusOK, map[string]bool{name: ok})
		return
	}

	writeJSON(w, http.StatusOK, s.sections.RefreshAll(r.Context(), bioguideID))
}

func (s *Server) internalError(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.Error().Err(err).Str("path", r.URL.Path).Msg("Request failed")
	writeError(w, http.StatusInternalServerError, "internal error")
}

func queryLimit(r *http.Request) int {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit < 0 {
		return 0
	}
	return limit
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
