package proxy

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/diagnosis/gatepass/pkg/logger"
)

type ServiceProxy struct {
	name    string
	baseURL string
	client  *http.Client
}

func NewServiceProxy(name, baseURL string) *ServiceProxy {
	return &ServiceProxy{
		name:    name,
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 30 * time.Second,
			// Redirects such as a blocked pass's Location header belong to the caller.
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

func (p *ServiceProxy) Name() string { return p.name }

// ProxyRequest forwards one request; pathAndQuery is appended to the service base URL as is.
func (p *ServiceProxy) ProxyRequest(ctx context.Context, method, pathAndQuery string, body io.Reader, headers http.Header) (*http.Response, error) {
	url := p.baseURL + pathAndQuery

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for key, values := range headers {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}

	if requestID, ok := ctx.Value(logger.RequestIDKey).(string); ok && requestID != "" {
		req.Header.Set("X-Request-ID", requestID)
	}
	req.Header.Set("X-Gateway-Forwarded", "true")
	req.Header.Set("X-Gateway-Service", "gatepass-gateway")

	logger.DebugContext(ctx, "Proxying request", "service", p.name, "method", method, "url", url)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", p.name, err)
	}
	return resp, nil
}
