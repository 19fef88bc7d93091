package pimsclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/dmitrijs2005/pimsclient/internal/logging"
)

// Server is a PIMS API deployment at a certain base URL.
type Server struct {
	URL string
}

// NewServer validates the base URL. A trailing slash is rejected up front
// because it silently doubles up in every request path later.
func NewServer(baseURL string) (*Server, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("server base URL is required")
	}
	if strings.HasSuffix(baseURL, "/") {
		return nil, fmt.Errorf("trailing slash in base URL %q will cause misery later, please remove it", baseURL)
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("invalid server base URL %q: %w", baseURL, err)
	}
	return &Server{URL: baseURL}, nil
}

// Session couples a Server with an authenticated *http.Client. The session
// holds no state of its own beyond those two; it is safe for concurrent use
// if the underlying client is. Credential handling, timeouts and TLS all
// belong to the supplied client.
type Session struct {
	server     *Server
	httpClient *http.Client
	log        logging.Logger
}

// SessionOption customizes a Session.
type SessionOption func(*Session)

// WithLogger attaches a logger to the session. The default discards
// everything.
func WithLogger(l logging.Logger) SessionOption {
	return func(s *Session) { s.log = l }
}

// NewSession wraps an already-authenticated httpClient for use against
// server. A nil httpClient falls back to http.DefaultClient.
func NewSession(server *Server, httpClient *http.Client, opts ...SessionOption) *Session {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	s := &Session{server: server, httpClient: httpClient, log: logging.NewNoop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// get performs a GET against path and decodes the JSON response into out.
func (s *Session) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.server.URL+path, nil)
	if err != nil {
		return fmt.Errorf("building request for %s: %w", path, err)
	}
	return s.do(req, out)
}

// post sends body as JSON to path, with optional query parameters, and
// decodes the response into out. A nil out discards the response body.
func (s *Session) post(ctx context.Context, path string, query url.Values, body, out any) error {
	var payload io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request for %s: %w", path, err)
		}
		payload = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.server.URL+path, payload)
	if err != nil {
		return fmt.Errorf("building request for %s: %w", path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if len(query) > 0 {
		req.URL.RawQuery = query.Encode()
	}
	return s.do(req, out)
}

func (s *Session) do(req *http.Request, out any) error {
	s.log.Info(req.Context(), "pims request", "method", req.Method, "url", req.URL.String())

	resp, err := s.httpClient.Do(req)
	if err != nil {
		// Transport failures pass through unchanged apart from context.
		return fmt.Errorf("request to %s failed: %w", req.URL, err)
	}
	defer resp.Body.Close()

	if err := checkResponse(resp); err != nil {
		s.log.Error(req.Context(), "pims request failed", "url", req.URL.String(), "status", resp.StatusCode)
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return wrapDecodeError(err)
	}
	return nil
}

// checkResponse maps a non-2xx response onto the error taxonomy: 401 becomes
// ErrUnauthorized, everything else a *ServerError carrying the server's text
// truncated to 300 characters.
func checkResponse(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	if resp.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return &ServerError{
		StatusCode: resp.StatusCode,
		Message:    truncate(string(body), maxServerMessage),
	}
}

// wrapDecodeError converts JSON type mismatches into *ValidationError naming
// the offending field. Other decode failures are wrapped as-is.
func wrapDecodeError(err error) error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return &ValidationError{Field: typeErr.Field}
	}
	return fmt.Errorf("decoding server response: %w", err)
}
