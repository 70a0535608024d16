package onchain

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

const maxResourceBytes = 1 << 20

// Watcher polls a fullnode for the keyless account resources and keeps the
// last successfully fetched snapshot of each. A nil snapshot means the
// resource has never been fetched.
type Watcher struct {
	vkURL     string
	configURL string

	client *http.Client
	logger *slog.Logger

	mu     sync.RWMutex
	vk     *Groth16VerificationKey
	config *KeylessConfiguration
}

func NewWatcher(vkURL, configURL string, logger *slog.Logger) *Watcher {
	return &Watcher{
		vkURL:     vkURL,
		configURL: configURL,
		client:    &http.Client{Timeout: 10 * time.Second},
		logger:    logger,
	}
}

// VerificationKey returns the last fetched on-chain VK, or nil.
func (w *Watcher) VerificationKey() *Groth16VerificationKey {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.vk
}

// Configuration returns the last fetched keyless configuration, or nil.
func (w *Watcher) Configuration() *KeylessConfiguration {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.config
}

// Start launches the background refresh loop. It fetches immediately, then on
// a fixed interval, and keeps running through fetch failures: a fullnode
// outage must not evict the last good snapshot.
func (w *Watcher) Start(ctx context.Context, interval time.Duration) {
	go func() {
		w.refreshOnce(ctx)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				w.refreshOnce(ctx)
			}
		}
	}()
}

func (w *Watcher) refreshOnce(ctx context.Context) {
	if w.vkURL != "" {
		var vk Groth16VerificationKey
		if err := w.fetchResource(ctx, w.vkURL, &vk); err != nil {
			w.logger.Warn("on-chain vk refresh failed, keeping previous snapshot",
				"url", w.vkURL,
				"error", err)
		} else {
			w.mu.Lock()
			w.vk = &vk
			w.mu.Unlock()
			w.logger.Info("refreshed on-chain verification key", "url", w.vkURL)
		}
	}

	if w.configURL != "" {
		var cfg KeylessConfiguration
		if err := w.fetchResource(ctx, w.configURL, &cfg); err != nil {
			w.logger.Warn("on-chain keyless config refresh failed, keeping previous snapshot",
				"url", w.configURL,
				"error", err)
		} else {
			w.mu.Lock()
			w.config = &cfg
			w.mu.Unlock()
			w.logger.Info("refreshed on-chain keyless configuration", "url", w.configURL)
		}
	}
}

func (w *Watcher) fetchResource(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetching resource: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResourceBytes))
	if err != nil {
		return fmt.Errorf("reading resource body: %w", err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("parsing resource json: %w", err)
	}
	return nil
}
