package jwk

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// ErrUnknownIssuer means the issuer is neither cached nor recognized as a
// federated provider.
var ErrUnknownIssuer = errors.New("issuer is not supported")

// ErrUnknownKid means the issuer is known but has no key under the requested
// kid, typically because the provider rotated keys since the last refresh.
var ErrUnknownKid = errors.New("no jwk found for kid")

// Issuer pairs an OIDC issuer with the URL its JWK set is served from.
type Issuer struct {
	Iss     string `yaml:"iss"`
	JWKSURL string `yaml:"jwks_url"`
}

// Cache holds the current key sets of all configured issuers. Each issuer's
// set is replaced wholesale on refresh so readers never observe a partially
// updated set.
type Cache struct {
	mu   sync.RWMutex
	keys map[string]KeySet

	fetcher *Fetcher
	logger  *slog.Logger

	// OnRefresh, when set before StartRefreshLoops, observes every refresh
	// attempt. Used to feed fetch metrics.
	OnRefresh func(iss string, ok bool)
}

func NewCache(fetcher *Fetcher, logger *slog.Logger) *Cache {
	return &Cache{
		keys:    make(map[string]KeySet),
		fetcher: fetcher,
		logger:  logger,
	}
}

// Get returns the key for (issuer, kid).
func (c *Cache) Get(iss, kid string) (RSAKey, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	set, ok := c.keys[iss]
	if !ok {
		return RSAKey{}, fmt.Errorf("%w: %s", ErrUnknownIssuer, iss)
	}
	key, ok := set[kid]
	if !ok {
		return RSAKey{}, fmt.Errorf("%w: %s (issuer %s)", ErrUnknownKid, kid, iss)
	}
	return key, nil
}

// Issuers lists the issuers currently cached.
func (c *Cache) Issuers() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]string, 0, len(c.keys))
	for iss := range c.keys {
		out = append(out, iss)
	}
	return out
}

// Snapshot returns a copy of all cached key sets keyed by issuer.
func (c *Cache) Snapshot() map[string]KeySet {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]KeySet, len(c.keys))
	for iss, set := range c.keys {
		copied := make(KeySet, len(set))
		for kid, key := range set {
			copied[kid] = key
		}
		out[iss] = copied
	}
	return out
}

// Replace swaps in a new key set for one issuer.
func (c *Cache) Replace(iss string, set KeySet) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.keys[iss] = set
}

// StartRefreshLoops launches one background refresh loop per issuer. Each
// loop fetches immediately, then on a fixed interval, and keeps running
// through fetch failures: a provider outage must not evict the last good
// key set.
func (c *Cache) StartRefreshLoops(ctx context.Context, issuers []Issuer, interval time.Duration) {
	for _, issuer := range issuers {
		go c.refreshLoop(ctx, issuer, interval)
	}
}

func (c *Cache) refreshLoop(ctx context.Context, issuer Issuer, interval time.Duration) {
	c.refreshOnce(ctx, issuer)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.refreshOnce(ctx, issuer)
		}
	}
}

func (c *Cache) refreshOnce(ctx context.Context, issuer Issuer) {
	set, err := c.fetcher.Fetch(ctx, issuer.JWKSURL)
	if c.OnRefresh != nil {
		c.OnRefresh(issuer.Iss, err == nil)
	}
	if err != nil {
		c.logger.Warn("jwk refresh failed, keeping previous keys",
			"issuer", issuer.Iss,
			"jwks_url", issuer.JWKSURL,
			"error", err)
		return
	}
	c.Replace(issuer.Iss, set)
	c.logger.Info("refreshed jwks",
		"issuer", issuer.Iss,
		"num_keys", len(set))
}
