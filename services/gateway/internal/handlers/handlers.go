package handlers

import (
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/diagnosis/gatepass/internal/http/response"
	"github.com/diagnosis/gatepass/pkg/logger"
	"github.com/diagnosis/gatepass/services/gateway/internal/proxy"
)

// APIPrefix is stripped before a request reaches a backend service.
const APIPrefix = "/v1"

type Handlers struct {
	passesProxy *proxy.ServiceProxy
	limit       func(http.Handler) http.Handler
}

// New wires the public API. limit guards the expensive and abuse-prone endpoints (submit and
// the pass display); pass nil to disable it.
func New(passesProxy *proxy.ServiceProxy, limit func(http.Handler) http.Handler) *Handlers {
	if limit == nil {
		limit = func(next http.Handler) http.Handler { return next }
	}
	return &Handlers{passesProxy: passesProxy, limit: limit}
}

func (h *Handlers) Routes(r chi.Router) {
	r.Route(APIPrefix, func(r chi.Router) {
		passes := h.forward(h.passesProxy)

		r.Get("/forms", passes)
		r.Post("/forms/{variant}", passes)
		r.Get("/forms/{id}", passes)
		r.Patch("/forms/{id}", passes)
		r.Put("/forms/{id}/{step}", passes)
		r.Post("/forms/{id}/picker", passes)
		r.Post("/forms/{id}/reset", passes)
		r.With(h.limit).Post("/forms/{id}/submit", passes)

		r.With(h.limit).Get("/display", passes)
		r.Get("/passes/{variant}/{id}", passes)
	})
}

func (h *Handlers) forward(p *proxy.ServiceProxy) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimPrefix(r.URL.Path, APIPrefix)
		if r.URL.RawQuery != "" {
			path += "?" + r.URL.RawQuery
		}
		h.proxyRequest(w, r, p, path)
	}
}

func (h *Handlers) proxyRequest(w http.ResponseWriter, r *http.Request, serviceProxy *proxy.ServiceProxy, path string) {
	defer r.Body.Close()

	headers := make(http.Header)
	for key, values := range r.Header {
		if shouldCopyHeader(key) {
			headers[key] = values
		}
	}

	resp, err := serviceProxy.ProxyRequest(r.Context(), r.Method, path, r.Body, headers)
	if err != nil {
		logger.ErrorContext(r.Context(), "Service proxy error", "error", err, "service", serviceProxy.Name(), "path", path)
		response.WriteError(w, http.StatusServiceUnavailable, "Service unavailable", response.CodeServiceUnavailable)
		return
	}
	defer resp.Body.Close()

	for key, values := range resp.Header {
		if !shouldCopyHeader(key) {
			continue
		}
		for _, value := range values {
			if http.CanonicalHeaderKey(key) == "Location" {
				value = publicLocation(value)
			}
			w.Header().Add(key, value)
		}
	}
	w.WriteHeader(resp.StatusCode)

	if _, err := io.Copy(w, resp.Body); err != nil {
		logger.ErrorContext(r.Context(), "Failed to copy response body", "error", err)
	}
}

// publicLocation maps a service-relative redirect onto the gateway's API prefix.
func publicLocation(loc string) string {
	if strings.HasPrefix(loc, "/") && !strings.HasPrefix(loc, "//") {
		return APIPrefix + loc
	}
	return loc
}

var hopByHop = map[string]struct{}{
	"host":                {},
	"connection":          {},
	"upgrade":             {},
	"proxy-connection":    {},
	"proxy-authenticate":  {},
	"proxy-authorization": {},
	"te":                  {},
	"trailers":            {},
	"transfer-encoding":   {},
	"keep-alive":          {},
	"content-length":      {},
}

func shouldCopyHeader(key string) bool {
	_, skip := hopByHop[strings.ToLower(key)]
	return !skip
}
