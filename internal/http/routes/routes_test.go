package routes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/watchtowerhq/watchtower/internal/provider"
	"github.com/watchtowerhq/watchtower/internal/store"
	"github.com/watchtowerhq/watchtower/internal/summary"
)

type stubGateway struct {
	res      *summary.Result
	err      error
	lastReq  provider.Request
	clientID string
}

func (g *stubGateway) Summarize(_ context.Context, req provider.Request, clientID string) (*summary.Result, error) {
	g.lastReq = req
	g.clientID = clientID
	return g.res, g.err
}

func (g *stubGateway) ProviderStates() map[string]string {
	return map[string]string{"openai": "closed"}
}

func newTestServer(g *stubGateway) *Server {
	return New(ServerOptions{Svc: g, Store: store.NewMemoryStore()})
}

func postSummarize(t *testing.T, s *Server, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/summarize", strings.NewReader(body))
	req.RemoteAddr = "203.0.113.9:51234"
	rec := httptest.NewRecorder()
	s.Router.ServeHTTP(rec, req)
	return rec
}

func TestSummarizeOK(t *testing.T) {
	g := &stubGateway{res: &summary.Result{Summary: "Convoy moving north.", Source: "openai"}}
	s := newTestServer(g)

	rec := postSummarize(t, s, `{"text":"convoy sighted","context":"AIS"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var res summary.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.Equal(t, "Convoy moving north.", res.Summary)
	require.Equal(t, "openai", res.Source)
	require.False(t, res.Degraded)

	require.Equal(t, "convoy sighted", g.lastReq.Text)
	require.Equal(t, "AIS", g.lastReq.Context)
	require.Equal(t, "203.0.113.9", g.clientID, "client id should be the bare IP")
}

func TestSummarizeStaleTagged(t *testing.T) {
	g := &stubGateway{res: &summary.Result{Summary: "old", Source: summary.SourceStaleCache, Degraded: true}}
	rec := postSummarize(t, newTestServer(g), `{"text":"x"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var res summary.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.True(t, res.Degraded)
	require.Equal(t, summary.SourceStaleCache, res.Source)
}

func TestSummarizeMalformedBody(t *testing.T) {
	g := &stubGateway{}
	rec := postSummarize(t, newTestServer(g), `{"text": `)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSummarizeInvalidInput(t *testing.T) {
	g := &stubGateway{err: summary.ErrInvalidInput}
	rec := postSummarize(t, newTestServer(g), `{"text":""}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var er errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &er))
	require.Equal(t, "invalid_input", er.Kind)
}

func TestSummarizeRateLimited(t *testing.T) {
	g := &stubGateway{err: &summary.RateLimitError{RetryAfter: 90 * time.Second}}
	rec := postSummarize(t, newTestServer(g), `{"text":"x"}`)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.Equal(t, "90", rec.Header().Get("Retry-After"))

	var er errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &er))
	require.Equal(t, "rate_limited", er.Kind)
	require.Equal(t, 90, er.RetryAfter)
}

func TestSummarizeExhausted(t *testing.T) {
	g := &stubGateway{err: summary.ErrExhausted}
	rec := postSummarize(t, newTestServer(g), `{"text":"x"}`)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var er errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &er))
	require.Equal(t, "all_providers_unavailable", er.Kind)
}

func TestHealthz(t *testing.T) {
	g := &stubGateway{}
	s := newTestServer(g)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.Router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Status    string            `json:"status"`
		Store     string            `json:"store"`
		Providers map[string]string `json:"providers"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "ok", body.Status)
	require.Equal(t, "ok", body.Store)
	require.Equal(t, "closed", body.Providers["openai"])
}

func TestOuterThrottle(t *testing.T) {
	g := &stubGateway{res: &summary.Result{Summary: "ok", Source: "openai"}}
	s := New(ServerOptions{Svc: g, Store: store.NewMemoryStore(), HTTPRatePerMinute: 2})

	for i := 0; i < 2; i++ {
		rec := postSummarize(t, s, `{"text":"x"}`)
		require.Equal(t, http.StatusOK, rec.Code)
	}
	rec := postSummarize(t, s, `{"text":"x"}`)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
}
