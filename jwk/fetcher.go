package jwk

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// rsaExponent is the only public exponent the circuit supports. Keys with a
// different exponent are dropped during parsing.
const rsaExponent = "AQAB"

type jwksDocument struct {
	Keys []RSAKey `json:"keys"`
}

// KeySet maps kid to key for one issuer.
type KeySet map[string]RSAKey

// Fetcher retrieves and parses JWK sets over HTTP.
type Fetcher struct {
	client *http.Client
}

func NewFetcher() *Fetcher {
	return &Fetcher{client: &http.Client{Timeout: 10 * time.Second}}
}

// Fetch downloads the JWK set at jwksURL and returns its usable RS256 keys.
func (f *Fetcher) Fetch(ctx context.Context, jwksURL string) (KeySet, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, jwksURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building jwks request: %w", err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching jwks from %s: %w", jwksURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching jwks from %s: status %d", jwksURL, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("reading jwks response: %w", err)
	}
	return ParseKeySet(body)
}

// ParseKeySet parses a JWKS document, keeping only keys the circuit can
// verify against. Unsupported keys are skipped, not rejected, because
// providers routinely mix key types in one set.
func ParseKeySet(doc []byte) (KeySet, error) {
	var parsed jwksDocument
	if err := json.Unmarshal(doc, &parsed); err != nil {
		return nil, fmt.Errorf("unmarshaling jwks: %w", err)
	}

	keys := make(KeySet)
	for _, k := range parsed.Keys {
		if k.Kty != "RSA" || k.E != rsaExponent {
			continue
		}
		keys[k.Kid] = k
	}
	return keys, nil
}
