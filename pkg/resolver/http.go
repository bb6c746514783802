package resolver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/arpanauts/biomapper/pkg/logging"
)

// HTTPOptions configures an HTTPService.
type HTTPOptions struct {
	// Timeout bounds each HTTP request.
	Timeout time.Duration

	// MaxRetries is the number of retries after a retryable failure
	// (transport errors and 5xx responses).
	MaxRetries int

	// RetryBackoff is the delay before the first retry; it doubles per
	// attempt.
	RetryBackoff time.Duration

	// Logger receives request diagnostics. Defaults to a no-op logger.
	Logger logging.Logger
}

// DefaultHTTPOptions returns sensible client defaults.
func DefaultHTTPOptions() *HTTPOptions {
	return &HTTPOptions{
		Timeout:      20 * time.Second,
		MaxRetries:   2,
		RetryBackoff: 500 * time.Millisecond,
	}
}

// HTTPService resolves historical accessions against a JSON lookup
// endpoint. The endpoint accepts POST {"ids": [...]} and returns
// {"results": [{"input_id": ..., "resolution": "secondary:P67890",
// "primary_ids": [...]}, ...]}.
type HTTPService struct {
	baseURL string
	client  *http.Client
	options *HTTPOptions
	logger  logging.Logger
}

// NewHTTPService creates a client for the resolution endpoint at baseURL.
func NewHTTPService(baseURL string, opts *HTTPOptions) *HTTPService {
	if opts == nil {
		opts = DefaultHTTPOptions()
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &HTTPService{
		baseURL: baseURL,
		client:  &http.Client{Timeout: opts.Timeout},
		options: opts,
		logger:  logger,
	}
}

type resolveRequest struct {
	IDs []string `json:"ids"`
}

type resolveResult struct {
	InputID    string   `json:"input_id"`
	Resolution string   `json:"resolution"`
	PrimaryIDs []string `json:"primary_ids"`
}

type resolveResponse struct {
	Results []resolveResult `json:"results"`
}

// Resolve looks up one batch of identifiers.
func (s *HTTPService) Resolve(ctx context.Context, ids []string) (map[string]Resolution, error) {
	body, err := json.Marshal(resolveRequest{IDs: ids})
	if err != nil {
		return nil, fmt.Errorf("encoding resolution request: %w", err)
	}

	var resp resolveResponse
	if err := s.post(ctx, body, &resp); err != nil {
		return nil, err
	}

	out := make(map[string]Resolution, len(resp.Results))
	for _, result := range resp.Results {
		resType, detail := ParseTag(result.Resolution)
		primaries := result.PrimaryIDs
		// A secondary tag carries the primary accession as detail when the
		// endpoint omits the explicit list.
		if len(primaries) == 0 && detail != "" {
			primaries = []string{detail}
		}
		out[result.InputID] = Resolution{
			InputID:    result.InputID,
			PrimaryIDs: primaries,
			Type:       resType,
		}
	}
	return out, nil
}

func (s *HTTPService) post(ctx context.Context, body []byte, out any) error {
	backoff := s.options.RetryBackoff
	var lastErr error

	for attempt := 0; attempt <= s.options.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
			backoff *= 2
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("building resolution request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := s.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = err
			s.logger.Warn("resolution request failed",
				logging.F("attempt", attempt+1), logging.Err(err))
			continue
		}

		data, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()

		switch {
		case resp.StatusCode >= 500:
			lastErr = fmt.Errorf("resolution service returned %d", resp.StatusCode)
			s.logger.Warn("resolution request failed",
				logging.F("attempt", attempt+1),
				logging.F("status", resp.StatusCode))
			continue
		case resp.StatusCode != http.StatusOK:
			return fmt.Errorf("resolution service returned %d", resp.StatusCode)
		}

		if readErr != nil {
			lastErr = fmt.Errorf("reading resolution response: %w", readErr)
			continue
		}
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decoding resolution response: %w", err)
		}
		return nil
	}

	return fmt.Errorf("resolution request exhausted retries: %w", lastErr)
}

// Verify interface compliance
var _ Service = (*HTTPService)(nil)
