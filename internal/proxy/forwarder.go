package proxy

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

var (
	ErrMissingEndpoint = errors.New("missing endpoint parameter")
	// ErrUpstreamTimeout marks a bounded-deadline expiry; unlike other
	// upstream failures it is safe to retry.
	ErrUpstreamTimeout = errors.New("upstream request timed out")
)

// Result carries the upstream response back verbatim: the forwarder
// never reinterprets status or body.
type Result struct {
	StatusCode int
	Body       []byte
}

// Request is one logical operation against the upstream REST store.
type Request struct {
	Endpoint string
	Method   string
	Body     any
	Headers  map[string]string
}

// Forwarder translates browser-issued logical operations into upstream
// REST calls, substituting the service credential on the way through.
type Forwarder struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewForwarder(baseURL, apiKey string, timeout time.Duration) *Forwarder {
	return &Forwarder{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

// Forward issues the upstream call. The service apikey is always
// attached; a caller Authorization header is forwarded only when it is a
// syntactically well-formed bearer JWT, and silently dropped otherwise
// so a garbage token cannot poison the upstream authorization check.
func (f *Forwarder) Forward(ctx context.Context, req Request) (*Result, error) {
	if req.Endpoint == "" {
		return nil, ErrMissingEndpoint
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if req.Body != nil && hasBody(method) {
		switch b := req.Body.(type) {
		case string:
			body = strings.NewReader(b)
		default:
			encoded, err := json.Marshal(b)
			if err != nil {
				return nil, fmt.Errorf("failed to encode body: %w", err)
			}
			body = bytes.NewReader(encoded)
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, f.baseURL+req.Endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build upstream request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("apikey", f.apiKey)

	for key, value := range req.Headers {
		lower := strings.ToLower(key)
		if lower == "authorization" {
			if WellFormedBearer(value) {
				httpReq.Header.Set("Authorization", value)
			}
			continue
		}
		if lower == "content-type" || lower == "apikey" {
			continue
		}
		httpReq.Header.Set(key, value)
	}

	resp, err := f.client.Do(httpReq)
	if err != nil {
		if isTimeout(err) {
			return nil, ErrUpstreamTimeout
		}
		return nil, fmt.Errorf("upstream request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read upstream response: %w", err)
	}

	return &Result{StatusCode: resp.StatusCode, Body: data}, nil
}

// WellFormedBearer reports whether header is "Bearer x.y.z" with three
// non-empty dot-separated segments. This is a syntax check only; the
// upstream store owns verification.
func WellFormedBearer(header string) bool {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return false
	}
	parts := strings.Split(header[len(prefix):], ".")
	if len(parts) != 3 {
		return false
	}
	for _, p := range parts {
		if p == "" {
			return false
		}
	}
	return true
}

func hasBody(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return true
	}
	return false
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return false
}
