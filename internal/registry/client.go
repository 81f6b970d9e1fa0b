// Package registry is the HTTP client for a DHIS2 metadata registry. It
// covers the handful of read-only endpoints the indicator scan needs:
// typed record fetches, the generic identifiableObjects lookup, indicator
// type factors, and group membership.
package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
)

// ErrNotFound is returned when the registry has no record for an id.
var ErrNotFound = errors.New("registry: object not found")

const (
	defaultTimeout = 30 * time.Second
	defaultRetries = 3
)

// Config holds connection settings for one registry instance. Either
// Token (bearer auth) or Username/Password (basic auth) must be set.
type Config struct {
	// BaseURL is the registry host, with or without the https scheme,
	// e.g. "play.dhis2.org/demo".
	BaseURL  string
	Username string
	Password string
	Token    string
	Timeout  time.Duration
	Retries  uint64
	Logger   *slog.Logger
}

// Client talks to one DHIS2 registry.
type Client struct {
	baseURL string
	cfg     Config
	http    *http.Client
	logger  *slog.Logger
}

// New creates a Client from cfg.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("registry: base URL is required")
	}
	base := cfg.BaseURL
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "https://" + base
	}
	base = strings.TrimRight(base, "/")

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	if cfg.Retries == 0 {
		cfg.Retries = defaultRetries
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL: base,
		cfg:     cfg,
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}, nil
}

// BaseURL returns the credential-free base URL, usable in output links.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// get fetches one API path and returns the response body. Server errors
// and transport failures are retried with exponential backoff; a 404
// maps to ErrNotFound.
func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	url := c.baseURL + path

	var body []byte
	backoff := retry.WithMaxRetries(c.cfg.Retries, retry.NewExponential(250*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")
		if c.cfg.Token != "" {
			req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
		} else {
			req.SetBasicAuth(c.cfg.Username, c.cfg.Password)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return retry.RetryableError(err)
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusNotFound:
			return ErrNotFound
		case resp.StatusCode >= 500:
			c.logger.Debug("registry request failed, retrying",
				"url", path, "status", resp.StatusCode)
			return retry.RetryableError(
				fmt.Errorf("registry: GET %s: status %d", path, resp.StatusCode))
		case resp.StatusCode != http.StatusOK:
			return fmt.Errorf("registry: GET %s: status %d", path, resp.StatusCode)
		}

		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

// getJSON fetches a path and decodes the body into v.
func (c *Client) getJSON(ctx context.Context, path string, v any) error {
	body, err := c.get(ctx, path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("registry: decode %s: %w", path, err)
	}
	return nil
}

// collectionFromHref extracts the registry collection from a record's
// self link, e.g. ".../api/dataElements/fbfJHSPpUQD" -> "dataElements".
func collectionFromHref(href string) string {
	parts := strings.Split(strings.TrimRight(href, "/"), "/")
	if len(parts) < 2 {
		return ""
	}
	return parts[len(parts)-2]
}
