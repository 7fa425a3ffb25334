package cloud

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// authAttempt is the retry state threaded through the request
// pipeline. The two values make the "at most one re-login" bound
// structural: only a first attempt may trigger a re-login, and the
// replay is always issued as attemptRetry, which fails hard.
type authAttempt int

const (
	// attemptFirst may perform one re-login and replay on failure.
	attemptFirst authAttempt = iota

	// attemptRetry is the replay after a re-login (or a request that
	// must never retry, such as login itself). Failures surface.
	attemptRetry
)

// payload is a decoded response body. JSON responses keep their raw
// bytes for typed decoding; everything else (media downloads) is
// returned as raw bytes.
type payload struct {
	data        []byte
	contentType string
}

// IsJSON reports whether the response declared a JSON content type.
func (p *payload) IsJSON() bool {
	return strings.HasPrefix(p.contentType, "application/json")
}

// Decode unmarshals a JSON payload into v.
func (p *payload) Decode(v any) error {
	if !p.IsJSON() {
		return fmt.Errorf("%w: expected JSON response, got %q", ErrCloud, p.contentType)
	}
	if err := json.Unmarshal(p.data, v); err != nil {
		return fmt.Errorf("%w: decoding response: %w", ErrCloud, err)
	}
	return nil
}

// Bytes returns the raw response body.
func (p *payload) Bytes() []byte {
	return p.data
}

// request issues an authenticated request with the standard retry
// budget: on a non-401 failure the session re-logs-in once and
// replays the request once.
//
// Returns (nil, nil) for 403/404 responses: the cloud expires
// pre-signed URLs and drops sub-resources, so "gone" is a degraded
// state callers must tolerate, not an error.
func (s *Session) request(ctx context.Context, method, rawURL string, body any) (*payload, error) {
	return s.do(ctx, method, rawURL, body, attemptFirst)
}

// do is the single dispatch point for all cloud traffic.
func (s *Session) do(ctx context.Context, method, rawURL string, body any, attempt authAttempt) (*payload, error) {
	// A request without a token triggers an implicit login, except for
	// the login call itself.
	if s.AccessToken() == "" && rawURL != s.loginURL() {
		if err := s.Login(ctx); err != nil {
			return nil, err
		}
	}

	req, err := s.newRequest(ctx, method, rawURL, body)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("cloud request", "method", method, "url", rawURL, "attempt", int(attempt))

	resp, err := s.http.Do(req)
	if err != nil {
		return s.retryOrFail(ctx, method, rawURL, body, attempt, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return s.retryOrFail(ctx, method, rawURL, body, attempt, err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, fmt.Errorf("%w: %s", ErrAuthentication, summarizeBody(data))
	case resp.StatusCode == http.StatusForbidden, resp.StatusCode == http.StatusNotFound:
		// Expired pre-signed URL or a sub-resource no longer backed by
		// storage. Degraded-empty, not an error.
		s.logger.Warn("resource not currently available",
			"url", rawURL,
			"status", resp.StatusCode,
			"body", summarizeBody(data),
		)
		return nil, nil
	case resp.StatusCode >= http.StatusBadRequest:
		statusErr := fmt.Errorf("status %d: %s", resp.StatusCode, summarizeBody(data))
		return s.retryOrFail(ctx, method, rawURL, body, attempt, statusErr)
	}

	return &payload{
		data:        data,
		contentType: resp.Header.Get("Content-Type"),
	}, nil
}

// retryOrFail applies the bounded retry policy: a first attempt gets
// one re-login and one replay; a retry attempt surfaces the failure.
func (s *Session) retryOrFail(ctx context.Context, method, rawURL string, body any, attempt authAttempt, cause error) (*payload, error) {
	if attempt == attemptFirst {
		s.logger.Warn("cloud request failed, re-authenticating once",
			"method", method,
			"url", rawURL,
			"error", cause,
		)
		if err := s.Login(ctx); err != nil {
			return nil, err
		}
		return s.do(ctx, method, rawURL, body, attemptRetry)
	}
	return nil, fmt.Errorf("%w: %s %s: %w", ErrCloud, method, rawURL, cause)
}

// newRequest builds the HTTP request, attaching identity headers only
// for the primary API host. Pre-signed media URLs live on other hosts
// and must not receive the bearer token.
func (s *Session) newRequest(ctx context.Context, method, rawURL string, body any) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("%w: encoding request body: %w", ErrCloud, err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return nil, fmt.Errorf("%w: building request: %w", ErrCloud, err)
	}

	if s.isPrimaryHost(rawURL) {
		s.recordMu.Lock()
		token, appID, clientID := s.record.AccessToken, s.record.AppID, s.record.ClientID
		s.recordMu.Unlock()

		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "*/*")
		req.Header.Set(headerAppID, appID)
		req.Header.Set(headerClientID, clientID)
	}

	return req, nil
}

// isPrimaryHost reports whether the URL targets the configured API host.
func (s *Session) isPrimaryHost(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return u.Host == s.apiHost
}

// summarizeBody trims a response body for log/error output.
const maxBodySummary = 200

func summarizeBody(data []byte) string {
	trimmed := strings.TrimSpace(string(data))
	if len(trimmed) > maxBodySummary {
		return trimmed[:maxBodySummary] + "..."
	}
	return trimmed
}
