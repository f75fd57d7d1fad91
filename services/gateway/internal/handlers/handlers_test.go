package handlers

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/diagnosis/gatepass/services/gateway/internal/proxy"
)

type seen struct {
	method, uri, auth, forwarded, body string
}

func backend(t *testing.T, got *seen) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		*got = seen{
			method:    r.Method,
			uri:       r.URL.RequestURI(),
			auth:      r.Header.Get("Authorization"),
			forwarded: r.Header.Get("X-Gateway-Forwarded"),
			body:      string(b),
		}
		if r.URL.Path == "/display" {
			w.Header().Set("Location", "/forms")
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`{"code":"PASS_UNAVAILABLE"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func router(h *Handlers) chi.Router {
	r := chi.NewRouter()
	h.Routes(r)
	return r
}

func TestForwardsToPasses(t *testing.T) {
	var got seen
	srv := backend(t, &got)
	r := router(New(proxy.NewServiceProxy("passes", srv.URL), nil))

	req := httptest.NewRequest(http.MethodPut, "/v1/forms/f-1/from-date", strings.NewReader(`{"date":"2025-05-01"}`))
	req.Header.Set("Authorization", "Bearer tok")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.JSONEq(t, `{"ok":true}`, rec.Body.String())
	require.Equal(t, seen{
		method:    http.MethodPut,
		uri:       "/forms/f-1/from-date",
		auth:      "Bearer tok",
		forwarded: "true",
		body:      `{"date":"2025-05-01"}`,
	}, got)
}

func TestKeepsQueryAndBlockedRedirect(t *testing.T) {
	var got seen
	srv := backend(t, &got)
	r := router(New(proxy.NewServiceProxy("passes", srv.URL), nil))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/display?token=abc&format=pdf", nil))

	require.Equal(t, "/display?token=abc&format=pdf", got.uri)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	loc := rec.Header().Get("Location")
	require.Equal(t, "/v1/forms", loc)

	// the redirect target is itself routed
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, loc, nil))
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, "/forms", got.uri)
	require.Equal(t, http.MethodGet, got.method)
}

func TestPublicLocation(t *testing.T) {
	require.Equal(t, "/v1/forms/visitor", publicLocation("/forms/visitor"))
	require.Equal(t, "https://example.com/x", publicLocation("https://example.com/x"))
	require.Equal(t, "//cdn.example.com/x", publicLocation("//cdn.example.com/x"))
}

func TestLimitGuardsSubmitOnly(t *testing.T) {
	var got seen
	srv := backend(t, &got)
	deny := func(http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		})
	}
	r := router(New(proxy.NewServiceProxy("passes", srv.URL), deny))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/forms/f-1/submit", nil))
	require.Equal(t, http.StatusTooManyRequests, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/forms/visitor", nil))
	require.Equal(t, http.StatusCreated, rec.Code)
}

func TestServiceDown(t *testing.T) {
	r := router(New(proxy.NewServiceProxy("passes", "http://127.0.0.1:1"), nil))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/forms/f-1", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Contains(t, rec.Body.String(), "SERVICE_UNAVAILABLE")
}

func TestShouldCopyHeader(t *testing.T) {
	require.False(t, shouldCopyHeader("Connection"))
	require.False(t, shouldCopyHeader("Transfer-Encoding"))
	require.True(t, shouldCopyHeader("Authorization"))
	require.True(t, shouldCopyHeader("Location"))
}
