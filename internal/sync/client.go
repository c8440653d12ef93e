package sync

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/tabmirror/backend/internal/domain/session"
	"github.com/tabmirror/backend/internal/infrastructure/logging"
	"go.uber.org/zap"
)

// Config defines sync client configuration.
type Config struct {
	Address    string
	Timeout    time.Duration
	ServeStale bool
	CachePath  string
}

// probeInterval bounds how often an inactive client re-checks the
// engine from the Active path.
const probeInterval = 30 * time.Second

// Client talks to the sync engine. It implements session.Source.
type Client struct {
	resty      *resty.Client
	cache      *SnapshotCache
	serveStale bool
	active     atomic.Bool
	lastProbe  atomic.Int64
	log        *logging.Logger
}

// NewClient creates a sync engine client.
func NewClient(cfg Config, log *logging.Logger) *Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 3
	retryClient.RetryWaitMin = 500 * time.Millisecond
	retryClient.RetryWaitMax = 5 * time.Second
	retryClient.Logger = nil

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	restyClient := resty.New().
		SetBaseURL(cfg.Address).
		SetTimeout(timeout).
		SetHeader("User-Agent", "TabMirror/1.0")
	restyClient.SetTransport(retryClient.HTTPClient.Transport)

	var cache *SnapshotCache
	if cfg.CachePath != "" {
		cache = NewSnapshotCache(cfg.CachePath)
	}

	return &Client{
		resty:      restyClient,
		cache:      cache,
		serveStale: cfg.ServeStale,
		log:        log,
	}
}

// statusResponse is the engine's /v1/status payload.
type statusResponse struct {
	Active bool `json:"active"`
}

// Probe queries engine status and updates the active flag.
func (c *Client) Probe(ctx context.Context) bool {
	c.lastProbe.Store(time.Now().UnixNano())
	resp, err := c.resty.R().SetContext(ctx).Get("/v1/status")
	if err != nil || resp.IsError() {
		c.active.Store(false)
		return false
	}
	var status statusResponse
	if err := sonic.Unmarshal(resp.Body(), &status); err != nil {
		c.active.Store(false)
		return false
	}
	c.active.Store(status.Active)
	return status.Active
}

// Active implements session.Source. A client that last saw the engine
// down re-probes it, at most once per probeInterval, so a recovered
// engine is picked up without a restart. While the engine stays down
// the client remains available in degraded mode as long as a cached
// snapshot can still be served.
func (c *Client) Active() bool {
	if c.active.Load() {
		return true
	}
	if c.shouldProbe() && c.Probe(context.Background()) {
		return true
	}
	return c.canServeStale()
}

func (c *Client) shouldProbe() bool {
	last := c.lastProbe.Load()
	return time.Since(time.Unix(0, last)) >= probeInterval
}

func (c *Client) canServeStale() bool {
	return c.serveStale && c.cache != nil && c.cache.Available()
}

// Sessions implements session.Source. On transport failure the cached
// snapshot is served when stale serving is enabled; otherwise the
// failure propagates with no partial results.
func (c *Client) Sessions(ctx context.Context) ([]*session.Session, error) {
	resp, err := c.resty.R().SetContext(ctx).Get("/v1/sessions")
	if err != nil || resp.IsError() {
		c.active.Store(false)
		if stale, ok := c.loadStale(); ok {
			return stale, nil
		}
		if err != nil {
			return nil, fmt.Errorf("sync engine unreachable: %w", err)
		}
		return nil, fmt.Errorf("sync engine returned %s", resp.Status())
	}
	c.active.Store(true)

	var sessions []*session.Session
	if err := sonic.Unmarshal(resp.Body(), &sessions); err != nil {
		return nil, fmt.Errorf("failed to decode session snapshot: %w", err)
	}

	if c.cache != nil {
		if err := c.cache.Store(sessions); err != nil {
			c.log.Warn("failed to cache session snapshot", zap.Error(err))
		}
	}
	return sessions, nil
}

// SessionTabs implements session.Source. The engine returns tabs most
// recent first; the order is passed through untouched.
func (c *Client) SessionTabs(ctx context.Context, tag string) ([]*session.Tab, error) {
	resp, err := c.resty.R().
		SetContext(ctx).
		SetPathParam("tag", tag).
		SetQueryParam("order", "recency").
		Get("/v1/sessions/{tag}/tabs")
	if err != nil {
		c.active.Store(false)
		return nil, fmt.Errorf("sync engine unreachable: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("sync engine returned %s", resp.Status())
	}

	var tabs []*session.Tab
	if err := sonic.Unmarshal(resp.Body(), &tabs); err != nil {
		return nil, fmt.Errorf("failed to decode tabs: %w", err)
	}
	return tabs, nil
}

// Tab implements session.Source.
func (c *Client) Tab(ctx context.Context, tag string, tabID int) (*session.Tab, error) {
	resp, err := c.resty.R().
		SetContext(ctx).
		SetPathParam("tag", tag).
		SetPathParam("id", fmt.Sprintf("%d", tabID)).
		Get("/v1/sessions/{tag}/tabs/{id}")
	if err != nil {
		c.active.Store(false)
		return nil, fmt.Errorf("sync engine unreachable: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("tab %d not found in session %q", tabID, tag)
	}

	var tab session.Tab
	if err := sonic.Unmarshal(resp.Body(), &tab); err != nil {
		return nil, fmt.Errorf("failed to decode tab: %w", err)
	}
	return &tab, nil
}

// Delete implements session.Source.
func (c *Client) Delete(ctx context.Context, tag string) error {
	resp, err := c.resty.R().
		SetContext(ctx).
		SetPathParam("tag", tag).
		Delete("/v1/sessions/{tag}")
	if err != nil {
		c.active.Store(false)
		return fmt.Errorf("sync engine unreachable: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("sync engine returned %s", resp.Status())
	}
	return nil
}

// Refresh implements session.Source.
func (c *Client) Refresh(ctx context.Context) error {
	resp, err := c.resty.R().SetContext(ctx).Post("/v1/refresh")
	if err != nil {
		c.active.Store(false)
		return fmt.Errorf("sync engine unreachable: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("sync engine returned %s", resp.Status())
	}
	return nil
}

func (c *Client) loadStale() ([]*session.Session, bool) {
	if !c.serveStale || c.cache == nil {
		return nil, false
	}
	stale, err := c.cache.Load()
	if err != nil {
		c.log.Warn("failed to load cached snapshot", zap.Error(err))
		return nil, false
	}
	if len(stale) == 0 {
		return nil, false
	}
	c.log.Warn("serving stale session snapshot", zap.Int("sessions", len(stale)))
	return stale, true
}
