// Package client embeds registry participation into a service: it announces
// the service on startup, keeps the registration alive with periodic
// heartbeats, and resolves peers by name.
//
// Every method degrades instead of escalating: transport failures and
// non-2xx responses come back as error values alongside a usable zero result,
// so a service keeps running when the registry is flaky or absent.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"svcreg/internal/domain"
)

// Config is the identity and tuning a Client is constructed with.
type Config struct {
	RegistryURL    string
	ServiceName    string
	ServiceURL     string
	HealthCheckURL string
	Metadata       map[string]any
	// HeartbeatInterval defaults to 30s.
	HeartbeatInterval time.Duration
	// Timeout bounds every outbound call, default 5s.
	Timeout time.Duration
	Logger  *zap.Logger
}

type Client struct {
	cfg        Config
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger

	mu         sync.Mutex
	registered bool
	hbCancel   context.CancelFunc
}

func New(cfg Config) *Client {
	if cfg.HeartbeatInterval <= 0 {
		cfg.HeartbeatInterval = domain.DefaultHeartbeatIntervalSeconds * time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = domain.DefaultClientTimeoutSeconds * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		cfg:        cfg,
		baseURL:    strings.TrimRight(cfg.RegistryURL, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger.With(zap.String("service", cfg.ServiceName)),
	}
}

// Register announces the configured identity and, on success, starts the
// heartbeat task. A failed registration is non-fatal: the cause is logged and
// returned, and the service can keep running unregistered.
func (c *Client) Register(ctx context.Context) error {
	req := domain.RegisterRequest{
		Name:           c.cfg.ServiceName,
		URL:            c.cfg.ServiceURL,
		HealthCheckURL: c.cfg.HealthCheckURL,
		Metadata:       c.cfg.Metadata,
	}

	if err := c.call(ctx, http.MethodPost, "/register", req, nil); err != nil {
		c.logger.Warn("registration failed", zap.Error(err))
		return domain.Wrap(domain.CodeUnavailable, "client.Register", err)
	}

	c.mu.Lock()
	c.registered = true
	alreadyBeating := c.hbCancel != nil
	c.mu.Unlock()

	c.logger.Info("registered with service registry", zap.String("registry", c.baseURL))
	if !alreadyBeating {
		c.startHeartbeat(ctx)
	}
	return nil
}

// Unregister stops the heartbeat task and, if currently registered, removes
// this service's record. Calling it without a prior successful Register is a
// no-op. Idempotent.
func (c *Client) Unregister(ctx context.Context) error {
	c.stopHeartbeat()

	c.mu.Lock()
	registered := c.registered
	c.mu.Unlock()
	if !registered {
		return nil
	}

	if err := c.call(ctx, http.MethodDelete, "/services/"+c.cfg.ServiceName, nil, nil); err != nil {
		c.logger.Warn("unregister failed", zap.Error(err))
		return domain.Wrap(domain.CodeUnavailable, "client.Unregister", err)
	}

	c.mu.Lock()
	c.registered = false
	c.mu.Unlock()

	c.logger.Info("unregistered from service registry")
	return nil
}

// Discover resolves one service by name. The record is nil when the name is
// unknown or the registry could not be reached; the error says which.
func (c *Client) Discover(ctx context.Context, serviceName string) (*domain.ServiceRecord, error) {
	var record domain.ServiceRecord
	if err := c.call(ctx, http.MethodGet, "/services/"+serviceName, nil, &record); err != nil {
		c.logger.Debug("discover failed", zap.String("target", serviceName), zap.Error(err))
		return nil, err
	}
	return &record, nil
}

// ListAll returns a snapshot of every registered service. The map is empty
// (never nil) on failure.
func (c *Client) ListAll(ctx context.Context) (map[string]domain.ServiceRecord, error) {
	records := make(map[string]domain.ServiceRecord)
	if err := c.call(ctx, http.MethodGet, "/services", nil, &records); err != nil {
		c.logger.Debug("list services failed", zap.Error(err))
		return map[string]domain.ServiceRecord{}, err
	}
	return records, nil
}

// Update merges the given fields over this service's record.
func (c *Client) Update(ctx context.Context, update domain.RecordUpdate) error {
	if err := c.call(ctx, http.MethodPut, "/services/"+c.cfg.ServiceName, update, nil); err != nil {
		c.logger.Warn("update failed", zap.Error(err))
		return err
	}
	return nil
}

// Heartbeat sends one explicit heartbeat for the named service. The periodic
// task uses it for this client's own name; tooling may beat on behalf of
// another service.
func (c *Client) Heartbeat(ctx context.Context, serviceName string) error {
	return c.call(ctx, http.MethodPost, "/heartbeat/"+serviceName, nil, nil)
}

// Remove deletes the named service's record. Administrative; a service
// removing itself should use Unregister.
func (c *Client) Remove(ctx context.Context, serviceName string) error {
	return c.call(ctx, http.MethodDelete, "/services/"+serviceName, nil, nil)
}

// Health reports the registry's own health endpoint.
func (c *Client) Health(ctx context.Context) (domain.HealthStatus, error) {
	var health domain.HealthStatus
	err := c.call(ctx, http.MethodGet, "/health", nil, &health)
	return health, err
}

// Registered reports whether the last Register succeeded without a matching
// Unregister.
func (c *Client) Registered() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.registered
}

func (c *Client) startHeartbeat(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	hbCtx, cancel := context.WithCancel(ctx)

	c.mu.Lock()
	c.hbCancel = cancel
	c.mu.Unlock()

	interval := c.cfg.HeartbeatInterval
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-hbCtx.Done():
				return
			case <-ticker.C:
				// A missed beat is logged and swallowed; the server-side
				// sweep, not the client, decides when a service is dead.
				if err := c.Heartbeat(hbCtx, c.cfg.ServiceName); err != nil {
					c.logger.Warn("heartbeat failed", zap.Error(err))
				}
			}
		}
	}()

	c.logger.Info("heartbeat started", zap.Duration("interval", interval))
}

func (c *Client) stopHeartbeat() {
	c.mu.Lock()
	cancel := c.hbCancel
	c.hbCancel = nil
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// call performs one JSON exchange against the registry. A nil out discards the
// response body.
func (c *Client) call(ctx context.Context, method, path string, body, out any) error {
	if ctx == nil {
		ctx = context.Background()
	}
	callCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	var payload io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return domain.E(domain.CodeInternal, "client.call", "encode request", err)
		}
		payload = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(callCtx, method, c.baseURL+path, payload)
	if err != nil {
		return domain.E(domain.CodeInternal, "client.call", "build request", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.E(domain.CodeUnavailable, "client.call", "registry unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return domain.Wrap(domain.CodeNotFound, "client.call", domain.ErrServiceNotFound)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var wireErr domain.ErrorResponse
		if decodeErr := json.NewDecoder(resp.Body).Decode(&wireErr); decodeErr == nil && wireErr.Error != "" {
			return domain.E(domain.ErrorCode(wireErr.Error), "client.call", wireErr.Message, nil)
		}
		return domain.E(domain.CodeUnavailable, "client.call",
			fmt.Sprintf("registry returned status %d", resp.StatusCode), nil)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return domain.E(domain.CodeInternal, "client.call", "decode response", err)
	}
	return nil
}
