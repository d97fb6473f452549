// Package routes wires the gateway's HTTP surface
package routes

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/rs/zerolog/hlog"

	"github.com/watchtowerhq/watchtower/internal/provider"
	"github.com/watchtowerhq/watchtower/internal/store"
	"github.com/watchtowerhq/watchtower/internal/summary"
)

// maxBodyBytes bounds the summarize request body; headline clusters are small
const maxBodyBytes = 64 << 10

// Gateway is what the HTTP layer needs from the summarization service
type Gateway interface {
	Summarize(ctx context.Context, req provider.Request, clientID string) (*summary.Result, error)
	ProviderStates() map[string]string
}

type Server struct {
	Router *chi.Mux
	svc    Gateway
	store  store.Store
}

type ServerOptions struct {
	Svc   Gateway
	Store store.Store
	// HTTPRatePerMinute is the outer per-IP throttle over the whole surface;
	// the shared-store limiter inside the service remains the authoritative
	// quota gate for the AI path. Zero disables the outer throttle.
	HTTPRatePerMinute int
}

func New(opts ServerOptions) *Server {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	if opts.HTTPRatePerMinute > 0 {
		r.Use(httprate.LimitByIP(opts.HTTPRatePerMinute, time.Minute))
	}

	s := &Server{Router: r, svc: opts.Svc, store: opts.Store}

	r.Get("/healthz", s.handleHealthz)
	r.Post("/api/summarize", s.handleSummarize)

	return s
}

type summarizeRequest struct {
	Text    string `json:"text"`
	Context string `json:"context,omitempty"`
}

type errorResponse struct {
	Kind       string `json:"kind"`
	Error      string `json:"error"`
	RetryAfter int    `json:"retryAfter,omitempty"` // seconds
}

func (s *Server) handleSummarize(w http.ResponseWriter, r *http.Request) {
	var body summarizeRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Kind: "invalid_input", Error: "malformed request body"})
		return
	}

	res, err := s.svc.Summarize(r.Context(), provider.Request{Text: body.Text, Context: body.Context}, clientID(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var rl *summary.RateLimitError
	switch {
	case errors.Is(err, summary.ErrInvalidInput):
		writeJSON(w, http.StatusBadRequest, errorResponse{Kind: "invalid_input", Error: "text required"})
	case errors.As(err, &rl):
		secs := int(rl.RetryAfter.Round(time.Second).Seconds())
		if secs < 1 {
			secs = 1
		}
		w.Header().Set("Retry-After", strconv.Itoa(secs))
		writeJSON(w, http.StatusTooManyRequests, errorResponse{Kind: "rate_limited", Error: "too many requests", RetryAfter: secs})
	case errors.Is(err, summary.ErrExhausted):
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Kind: "all_providers_unavailable", Error: "all providers unavailable"})
	default:
		hlog.FromRequest(r).Error().Err(err).Msg("summarize failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Kind: "internal", Error: "internal server error"})
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), time.Second)
	defer cancel()

	storeStatus := "ok"
	if err := s.store.Ping(ctx); err != nil {
		storeStatus = "unreachable"
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"store":     storeStatus,
		"providers": s.svc.ProviderStates(),
	})
}

// clientID reduces the caller to an opaque identifier for rate limiting.
// RealIP has already folded X-Forwarded-For into RemoteAddr.
func clientID(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
