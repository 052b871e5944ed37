package datastore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/nerrad567/gray-logic-irrigation/internal/query"
)

const (
	defaultRequestTimeout = 10 * time.Second

	// maxResponseSize bounds how much of a response body is read.
	maxResponseSize = 10 << 20

	// maxErrorBody bounds the body excerpt kept in a StatusError.
	maxErrorBody = 512
)

// HTTPStoreOptions configures an HTTPStore.
type HTTPStoreOptions struct {
	// BaseURL is prepended to every interpolated template.
	BaseURL string

	// Token, when set, is sent as "Authorization: Bearer <token>".
	Token string

	// Timeout bounds each request. Zero uses a 10 second default.
	Timeout time.Duration

	// Client overrides the HTTP client (tests pass httptest clients).
	Client *http.Client

	Logger Logger
}

// HTTPStore is a Store backed by a JSON-over-HTTP API.
//
// Reads are GET requests; writes are PUT requests with the arguments as the
// JSON body. Compiled templates are cached per store.
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
type HTTPStore struct {
	baseURL    string
	token      string
	timeout    time.Duration
	httpClient *http.Client
	logger     Logger

	templates   map[string]query.Interpolator
	templatesMu sync.RWMutex
}

// NewHTTPStore creates an HTTPStore.
//
// Parameters:
//   - opts: Base URL, token, timeout and optional HTTP client
//
// Returns:
//   - *HTTPStore: Store ready for use
//   - error: ErrInvalidBaseURL if the base URL is empty or not absolute
func NewHTTPStore(opts HTTPStoreOptions) (*HTTPStore, error) {
	u, err := url.Parse(opts.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidBaseURL, opts.BaseURL)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	client := opts.Client
	if client == nil {
		client = &http.Client{}
	}
	var logger Logger = noopLogger{}
	if opts.Logger != nil {
		logger = opts.Logger
	}

	return &HTTPStore{
		baseURL:    strings.TrimRight(opts.BaseURL, "/") + "/",
		token:      opts.Token,
		timeout:    timeout,
		httpClient: client,
		logger:     logger,
		templates:  make(map[string]query.Interpolator),
	}, nil
}

// SetLogger sets the logger for the store.
func (s *HTTPStore) SetLogger(logger Logger) {
	s.logger = logger
}

// Fetch performs a GET on the interpolated template and returns the body.
func (s *HTTPStore) Fetch(ctx context.Context, template string, args Args) (json.RawMessage, error) {
	body, err := s.do(ctx, http.MethodGet, s.resolve(template, args), nil)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(body), nil
}

// Write performs a PUT on the interpolated template with args as JSON body.
func (s *HTTPStore) Write(ctx context.Context, template string, args Args) error {
	payload, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("encoding request body: %w", err)
	}
	_, err = s.do(ctx, http.MethodPut, s.resolve(template, args), payload)
	return err
}

// resolve interpolates template with args, compiling it on first use.
func (s *HTTPStore) resolve(template string, args Args) string {
	s.templatesMu.RLock()
	interp, ok := s.templates[template]
	s.templatesMu.RUnlock()

	if !ok {
		interp = query.NewURLInterpolator(template)
		s.templatesMu.Lock()
		s.templates[template] = interp
		s.templatesMu.Unlock()
	}

	return interp.Interpolate(args)
}

func (s *HTTPStore) do(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	start := time.Now()
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	s.logger.Debug("datastore request",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"duration", time.Since(start),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		excerpt := strings.TrimSpace(string(data))
		if len(excerpt) > maxErrorBody {
			excerpt = excerpt[:maxErrorBody]
		}
		return nil, &StatusError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Body:       excerpt,
		}
	}

	return data, nil
}
