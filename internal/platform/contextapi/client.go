package contextapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	types "github.com/yungbote/suggestion-engine/internal/domain"
	"github.com/yungbote/suggestion-engine/internal/platform/envutil"
	"github.com/yungbote/suggestion-engine/internal/platform/httpx"
	"github.com/yungbote/suggestion-engine/internal/platform/logger"
)

const contextPath = "/v1/context"

type Config struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	MaxRetries int
}

func ConfigFromEnv() Config {
	return Config{
		BaseURL:    envutil.String("CONTEXT_API_URL", ""),
		APIKey:     envutil.String("CONTEXT_API_KEY", ""),
		Timeout:    envutil.Seconds("CONTEXT_API_TIMEOUT_SECONDS", 10),
		MaxRetries: envutil.Int("CONTEXT_API_MAX_RETRIES", 1),
	}
}

// Client fetches business context snapshots from the workspace service.
type Client struct {
	log        *logger.Logger
	baseURL    string
	apiKey     string
	httpClient *http.Client
	maxRetries int
	backoff    time.Duration
}

func New(log *logger.Logger, cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("missing CONTEXT_API_URL")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Client{
		log:        log.With("client", "ContextAPIClient"),
		baseURL:    base,
		apiKey:     strings.TrimSpace(cfg.APIKey),
		httpClient: &http.Client{Timeout: cfg.Timeout},
		maxRetries: cfg.MaxRetries,
		backoff:    250 * time.Millisecond,
	}, nil
}

func (c *Client) GetContext(ctx context.Context, userID uuid.UUID, projectID *string) (*types.BusinessContext, error) {
	q := url.Values{}
	q.Set("user_id", userID.String())
	if projectID != nil && strings.TrimSpace(*projectID) != "" {
		q.Set("project_id", strings.TrimSpace(*projectID))
	}
	endpoint := c.baseURL + contextPath + "?" + q.Encode()

	backoff := c.backoff
	for attempt := 0; ; attempt++ {
		out, resp, err := c.fetch(ctx, endpoint)
		if err == nil {
			if out.FetchedAt.IsZero() {
				out.FetchedAt = time.Now().UTC()
			}
			return out, nil
		}
		if !httpx.IsRetryableError(err) || attempt >= c.maxRetries {
			return nil, err
		}
		sleepFor := httpx.JitterSleep(httpx.RetryAfterDuration(resp, backoff, 2*time.Second))
		c.log.Warn("context api retrying", "attempt", attempt+1, "sleep", sleepFor.String(), "error", err)
		if sErr := httpx.Sleep(ctx, sleepFor); sErr != nil {
			return nil, sErr
		}
		backoff *= 2
	}
}

func (c *Client) fetch(ctx context.Context, endpoint string) (*types.BusinessContext, *http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, err
	}
	raw, readErr := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	_ = resp.Body.Close()
	if readErr != nil {
		return nil, resp, readErr
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, resp, &httpx.StatusError{Service: "context_api", StatusCode: resp.StatusCode, Body: string(raw)}
	}
	var out types.BusinessContext
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, resp, fmt.Errorf("context api decode: %w", err)
	}
	return &out, resp, nil
}
