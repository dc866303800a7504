package fetcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"home-energy-dashboard/internal/telemetry"
)

const dataPath = "/data"

// Options parameterise the HTTP payload fetcher.
type Options struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
}

// Client fetches dashboard payloads over HTTP.
type Client struct {
	opts    Options
	logger  zerolog.Logger
	client  *http.Client
	baseURL string
}

// NewClient constructs an HTTP payload fetcher.
func NewClient(opts Options, logger zerolog.Logger) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		opts:    opts,
		logger:  logger.With().Str("component", "payload_fetcher").Logger(),
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
	}
}

// FetchPayload performs a GET against the configured endpoint and decodes the
// dashboard payload. Records that fail validation are dropped, not fatal.
func (c *Client) FetchPayload(ctx context.Context) (telemetry.Payload, error) {
	if c.baseURL == "" {
		return telemetry.Payload{}, errors.New("api base url not configured")
	}

	endpoint := c.baseURL + dataPath
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return telemetry.Payload{}, err
	}
	req.Header.Set("Accept", "application/json")
	if ua := strings.TrimSpace(c.opts.UserAgent); ua != "" {
		req.Header.Set("User-Agent", ua)
	} else {
		req.Header.Set("User-Agent", "homewatch/1.0")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return telemetry.Payload{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return telemetry.Payload{}, err
	}

	if resp.StatusCode != http.StatusOK {
		return telemetry.Payload{}, parseHTTPError(resp.StatusCode, body)
	}

	payload, skipped, err := telemetry.ParsePayload(body)
	if err != nil {
		return telemetry.Payload{}, err
	}
	if skipped > 0 {
		c.logger.Debug().Int("skipped", skipped).Msg("dropped malformed records from payload")
	}

	return payload, nil
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func parseHTTPError(status int, payload []byte) error {
	var apiErr errorResponse
	if err := json.Unmarshal(payload, &apiErr); err == nil {
		if apiErr.Message != "" {
			return fmt.Errorf("telemetry api error (%d): %s", status, apiErr.Message)
		}
		if apiErr.Error != "" {
			return fmt.Errorf("telemetry api error (%d): %s", status, apiErr.Error)
		}
	}
	if len(payload) > 0 {
		return fmt.Errorf("telemetry api error (%d): %s", status, strings.TrimSpace(string(payload)))
	}
	return fmt.Errorf("telemetry api error (%d)", status)
}

var _ PayloadFetcher = (*Client)(nil)
