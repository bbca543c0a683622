// Package client provides the rank API HTTP client with page caching,
// error classification and request metrics.
package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/apamidi800/rank-export/pkg/cache"
	"github.com/apamidi800/rank-export/pkg/pagination"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for rank API requests.
var (
	rankRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rank_api_requests_total",
		Help: "Total rank API requests by status",
	}, []string{"status"})

	rankRequestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "rank_api_request_duration_seconds",
		Help:    "Rank API request duration in seconds",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
	})

	rankErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rank_api_errors_total",
		Help: "Total rank API errors by class",
	}, []string{"class"})
)

// Query parameter names understood by the rank API.
const (
	ParamAccessToken = "access_token"
	ParamStartDate   = "sDate"
	ParamEndDate     = "eDate"
	ParamEngine      = "Engine"
	ParamMarket      = "Market"
	ParamDevice      = "device"
	ParamLimit       = "limit"
	ParamOffset      = "offset"
)

// MaxBodyBytes caps the size of a single page body.
const MaxBodyBytes = 64 << 20

// Client fetches keyword pages from the rank API.
type Client struct {
	httpClient *http.Client
	baseURL    *url.URL
	cache      *cache.Manager
	config     Config
	logger     zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// BaseURL is the endpoint; query parameters already present are kept
	BaseURL string

	// Fixed query parameters sent with every page request
	AccessToken string
	StartDate   string // YYYYMMDD
	EndDate     string // YYYYMMDD
	Engine      string
	Market      string
	Devices     []string

	// Timeout per request
	Timeout time.Duration

	// UserAgent header, optional
	UserAgent string

	// Cache is an optional page cache
	Cache *cache.Manager
}

// DefaultConfig returns a default configuration for the given endpoint.
func DefaultConfig(baseURL, accessToken string) Config {
	return Config{
		BaseURL:     baseURL,
		AccessToken: accessToken,
		Engine:      "google",
		Market:      "en-us",
		Timeout:     30 * time.Second,
		UserAgent:   "rank-export/1.0",
	}
}

// New creates a new rank API client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("%w: base url is required", ErrInvalidConfig)
	}

	baseURL, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: parse base url: %v", ErrInvalidConfig, err)
	}
	if !baseURL.IsAbs() || baseURL.Host == "" {
		return nil, fmt.Errorf("%w: base url must be absolute (got %q)", ErrInvalidConfig, RedactURL(cfg.BaseURL))
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	logger := log.With().Str("component", "rank-client").Logger()

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL: baseURL,
		cache:   cfg.Cache,
		config:  cfg,
		logger:  logger,
	}, nil
}

// PageURL returns the request URL for the page at cursor.
func (c *Client) PageURL(cursor pagination.Cursor) string {
	u := *c.baseURL
	q := u.Query()

	setIfNotEmpty(q, ParamAccessToken, c.config.AccessToken)
	setIfNotEmpty(q, ParamStartDate, c.config.StartDate)
	setIfNotEmpty(q, ParamEndDate, c.config.EndDate)
	setIfNotEmpty(q, ParamEngine, c.config.Engine)
	setIfNotEmpty(q, ParamMarket, c.config.Market)
	if len(c.config.Devices) > 0 {
		q.Set(ParamDevice, strings.Join(c.config.Devices, ","))
	}
	q.Set(ParamLimit, strconv.Itoa(cursor.Limit))
	q.Set(ParamOffset, strconv.Itoa(cursor.Offset))

	u.RawQuery = q.Encode()
	return u.String()
}

// FetchPage performs one GET for the page at cursor.
// It implements pagination.PageFetcher.
func (c *Client) FetchPage(ctx context.Context, cursor pagination.Cursor) (*pagination.Page, error) {
	pageURL := c.PageURL(cursor)
	redacted := RedactURL(pageURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	// Check Cache
	cacheKey := cache.KeyFromURL(req.URL)
	if c.cache != nil {
		entry, err := c.cache.Get(ctx, cacheKey)
		switch {
		case err == nil:
			c.logger.Debug().Str("url", redacted).Msg("Page served from cache")
			return &pagination.Page{URL: redacted, Body: entry.Data, Cached: true}, nil
		case !errors.Is(err, cache.ErrCacheMiss):
			c.logger.Warn().Err(err).Str("url", redacted).Msg("Cache get error")
		}
	}

	if c.config.UserAgent != "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}
	req.Header.Set("Accept", "application/xml, text/xml")

	c.logger.Debug().
		Str("url", redacted).
		Int("offset", cursor.Offset).
		Msg("Executing rank API request")

	startTime := time.Now()
	resp, err := c.httpClient.Do(req)
	rankRequestDuration.Observe(time.Since(startTime).Seconds())
	if err != nil {
		errClass := c.classifyError(nil, err)
		rankErrorsTotal.WithLabelValues(string(errClass)).Inc()
		rankRequestsTotal.WithLabelValues("network_error").Inc()
		c.logger.Error().Err(err).Str("url", redacted).Msg("HTTP request failed")
		return nil, &APIError{
			ErrorClass: errClass,
			Message:    "request failed",
			URL:        redacted,
			Err:        redactError(err, pageURL, redacted),
		}
	}
	defer resp.Body.Close()

	rankRequestsTotal.WithLabelValues(strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		errClass := c.classifyError(resp, nil)
		rankErrorsTotal.WithLabelValues(string(errClass)).Inc()

		c.logger.Warn().
			Str("url", redacted).
			Int("status", resp.StatusCode).
			Str("error_class", string(errClass)).
			Msg("Rank API request error")

		return nil, &APIError{
			StatusCode: resp.StatusCode,
			ErrorClass: errClass,
			Message:    resp.Status,
			URL:        redacted,
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodyBytes+1))
	if err != nil {
		rankErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			ErrorClass: ErrorClassNetwork,
			Message:    "read body",
			URL:        redacted,
			Err:        redactError(err, pageURL, redacted),
		}
	}
	if len(body) > MaxBodyBytes {
		return nil, fmt.Errorf("%w: more than %d bytes from %s", ErrBodyTooLarge, MaxBodyBytes, redacted)
	}

	// Update Cache on success
	if c.cache != nil && resp.StatusCode == http.StatusOK && len(body) > 0 {
		entry := cache.ResponseToEntry(resp, body, c.cache.TTL())
		if err := c.cache.Set(ctx, cacheKey, entry); err != nil {
			c.logger.Warn().Err(err).Msg("Failed to cache page")
		} else {
			c.logger.Debug().
				Str("url", redacted).
				Dur("ttl", entry.TTL()).
				Msg("Cached page")
		}
	}

	return &pagination.Page{URL: redacted, Body: body}, nil
}

// classifyError categorizes an error for observability and handling.
func (c *Client) classifyError(resp *http.Response, err error) ErrorClass {
	if err != nil {
		c.logger.Debug().Str("class", string(ErrorClassNetwork)).Msg("Error classified")
		return ErrorClassNetwork
	}

	switch {
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		c.logger.Debug().Str("class", string(ErrorClassClient)).Msg("Error classified")
		return ErrorClassClient
	case resp.StatusCode >= 500:
		c.logger.Debug().Str("class", string(ErrorClassServer)).Msg("Error classified")
		return ErrorClassServer
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return ErrorClassUnexpected
	default:
		return ""
	}
}

// Close closes the client and releases resources.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// RedactURL replaces the access token in a URL with a placeholder.
func RedactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	if q.Get(ParamAccessToken) == "" {
		return raw
	}
	q.Set(ParamAccessToken, "REDACTED")
	u.RawQuery = q.Encode()
	return u.String()
}

// redactError keeps the token out of *url.Error messages.
func redactError(err error, rawURL, redacted string) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return &url.Error{Op: urlErr.Op, URL: redacted, Err: urlErr.Err}
	}
	if strings.Contains(err.Error(), rawURL) {
		return errors.New(strings.ReplaceAll(err.Error(), rawURL, redacted))
	}
	return err
}

func setIfNotEmpty(q url.Values, key, value string) {
	if value != "" {
		q.Set(key, value)
	}
}
