package bazaar

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"bazaarmcp/internal/domain"
)

const redactedKey = "REDACTED"

// Client fetches the bazaar feed. Every call issues exactly one GET; there
// are no retries and no caching.
type Client struct {
	endpoint *url.URL
	apiKey   string
	http     *http.Client
	logger   *zap.Logger
	metrics  domain.Metrics
}

type ClientOptions struct {
	HTTPClient *http.Client
	Metrics    domain.Metrics
}

func NewClient(cfg domain.BazaarConfig, logger *zap.Logger, opts ClientOptions) (*Client, error) {
	base := strings.TrimSpace(cfg.BaseURL)
	if base == "" {
		base = domain.DefaultBazaarBaseURL
	}
	parsed, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("parse bazaar base url: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("bazaar base url must be absolute: %q", base)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout()
		if timeout <= 0 {
			timeout = time.Duration(domain.DefaultBazaarTimeoutSeconds) * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = domain.NoopMetrics{}
	}
	return &Client{
		endpoint: parsed.JoinPath(domain.BazaarPath),
		apiKey:   cfg.APIKey,
		http:     httpClient,
		logger:   logger.Named("bazaar"),
		metrics:  metrics,
	}, nil
}

// FetchAll returns the bazaar response body unchanged.
func (c *Client) FetchAll(ctx context.Context) (domain.Dataset, error) {
	start := time.Now()
	dataset, err := c.fetch(ctx)
	c.metrics.ObserveFetch(time.Since(start), err)
	if err != nil {
		c.logger.Warn("bazaar fetch failed", zap.Error(err), zap.Duration("elapsed", time.Since(start)))
		return nil, err
	}
	c.logger.Debug("bazaar fetched", zap.Int("bytes", len(dataset)), zap.Duration("elapsed", time.Since(start)))
	return dataset, nil
}

// FetchOne fetches the feed and returns the record for itemID. A missing
// item is reported with found=false and a nil error.
func (c *Client) FetchOne(ctx context.Context, itemID string) (json.RawMessage, bool, error) {
	dataset, err := c.FetchAll(ctx)
	if err != nil {
		return nil, false, err
	}
	products, err := Products(dataset)
	if err != nil {
		return nil, false, err
	}
	record, ok := products[itemID]
	if !ok {
		return nil, false, nil
	}
	return record, true, nil
}

// Products decodes the top-level products mapping of a dataset. A dataset
// without the field yields an empty mapping.
func Products(dataset domain.Dataset) (map[string]json.RawMessage, error) {
	var envelope struct {
		Products map[string]json.RawMessage `json:"products"`
	}
	if err := json.Unmarshal(dataset, &envelope); err != nil {
		return nil, fmt.Errorf("decode bazaar products: %w", err)
	}
	if envelope.Products == nil {
		return map[string]json.RawMessage{}, nil
	}
	return envelope.Products, nil
}

func (c *Client) fetch(ctx context.Context) (domain.Dataset, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.requestURL(c.apiKey), nil)
	if err != nil {
		return nil, fmt.Errorf("build bazaar request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "bazaarmcp/"+domain.DefaultServerVersion)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("bazaar request: %w", scrubURLError(err, c.requestURL(redactedKey)))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &domain.HTTPError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			URL:        c.requestURL(redactedKey),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read bazaar response: %w", err)
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("decode bazaar response: %w", domain.ErrInvalidDataset)
	}
	return domain.Dataset(body), nil
}

func (c *Client) requestURL(key string) string {
	u := *c.endpoint
	if c.apiKey != "" {
		q := u.Query()
		q.Set("key", key)
		u.RawQuery = q.Encode()
	}
	return u.String()
}

// scrubURLError keeps the credential out of transport errors, which embed
// the full request URL.
func scrubURLError(err error, redacted string) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return &url.Error{Op: urlErr.Op, URL: redacted, Err: urlErr.Err}
	}
	return err
}
