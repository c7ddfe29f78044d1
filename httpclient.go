package krakengo

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/sonirico/vago/lol"
)

// httpTransport is the shared GET/POST plumbing both the Spot and Futures
// REST clients build on: URL validation, debug logging of request and
// response bodies, and raw body retrieval. Envelope parsing (the two
// clients disagree on shape) happens one layer up.
type httpTransport struct {
	logger     lol.Logger
	debug      bool
	baseURL    string
	httpClient *http.Client
}

func newHTTPTransport(baseURL string) *httpTransport {
	return &httpTransport{
		baseURL:    baseURL,
		httpClient: new(http.Client),
	}
}

// validateBaseURL rejects non-HTTPS base URLs except for localhost, to
// avoid a misconfigured client silently sending signed requests in the
// clear.
func validateBaseURL(raw string) error {
	parsed, err := url.Parse(raw)
	if err != nil {
		return &SerializationError{Op: "validate base URL", Err: err}
	}

	if parsed.Scheme == "https" {
		return nil
	}

	if parsed.Scheme == "http" {
		host := strings.ToLower(parsed.Hostname())
		if host == "localhost" || host == "127.0.0.1" || host == "::1" {
			return nil
		}
		return &AuthError{Reason: "HTTP scheme only allowed for localhost, got: " + parsed.Host}
	}

	return &AuthError{Reason: "URL must use HTTPS (or HTTP for localhost only), got: " + parsed.Scheme}
}

type httpRequest struct {
	method  string
	path    string
	query   string
	body    string
	headers map[string]string
}

func (t *httpTransport) do(ctx context.Context, req httpRequest) ([]byte, int, error) {
	targetURL := t.baseURL + req.path
	if req.query != "" {
		targetURL += "?" + req.query
	}

	if err := validateBaseURL(targetURL); err != nil {
		return nil, 0, err
	}

	var bodyReader io.Reader
	if req.body != "" {
		bodyReader = strings.NewReader(req.body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, targetURL, bodyReader)
	if err != nil {
		return nil, 0, &TransportError{Op: "build request", Err: err}
	}
	for k, v := range req.headers {
		httpReq.Header.Set(k, v)
	}

	if t.debug {
		t.logger.WithFields(lol.Fields{
			"method": req.method,
			"url":    targetURL,
			"body":   req.body,
		}).Debug("HTTP request")
	}

	resp, err := t.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, 0, &TimeoutError{Op: req.path}
		}
		return nil, 0, &TransportError{Op: "do request", Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, &TransportError{Op: "read response body", Err: err}
	}

	if t.debug {
		t.logger.WithFields(lol.Fields{
			"status": resp.Status,
			"body":   string(body),
		}).Debug("HTTP response")
	}

	return body, resp.StatusCode, nil
}
