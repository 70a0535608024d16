package jwk

import (
	"context"
	"errors"
	"fmt"
	"regexp"
)

// FederatedProvider recognizes a family of tenant-scoped issuers by URL
// shape. The JWKS URL is derived from the issuer itself, so tenants need no
// per-tenant configuration.
type FederatedProvider struct {
	Name       string
	IssPattern *regexp.Regexp
	// JWKSSuffix is appended to the issuer URL to form the JWKS URL.
	JWKSSuffix string
}

// DefaultFederatedProviders lists the tenant-scoped providers accepted out of
// the box. Matching is first-wins in table order.
var DefaultFederatedProviders = []FederatedProvider{
	{
		Name:       "auth0",
		IssPattern: regexp.MustCompile(`^https://[a-zA-Z0-9-]+\.us\.auth0\.com/$`),
		JWKSSuffix: ".well-known/jwks.json",
	},
	{
		Name:       "cognito",
		IssPattern: regexp.MustCompile(`^https://cognito-idp\.[a-zA-Z0-9-_]+\.amazonaws\.com/[a-zA-Z0-9-_]+$`),
		JWKSSuffix: "/.well-known/jwks.json",
	},
}

// FederatedResolver fetches keys for federated issuers on demand. Results are
// not cached: tenant issuers are unbounded in number and requests for any one
// tenant are rare.
type FederatedResolver struct {
	providers []FederatedProvider
	fetcher   *Fetcher
}

func NewFederatedResolver(providers []FederatedProvider, fetcher *Fetcher) *FederatedResolver {
	return &FederatedResolver{providers: providers, fetcher: fetcher}
}

// JWKSURLFor returns the JWKS URL for a federated issuer, or ok=false when no
// provider pattern matches.
func (r *FederatedResolver) JWKSURLFor(iss string) (string, bool) {
	for _, p := range r.providers {
		if p.IssPattern.MatchString(iss) {
			return iss + p.JWKSSuffix, true
		}
	}
	return "", false
}

// Resolve fetches the key for (iss, kid) from a recognized federated
// provider.
func (r *FederatedResolver) Resolve(ctx context.Context, iss, kid string) (RSAKey, error) {
	jwksURL, ok := r.JWKSURLFor(iss)
	if !ok {
		return RSAKey{}, fmt.Errorf("%w: %s", ErrUnknownIssuer, iss)
	}
	set, err := r.fetcher.Fetch(ctx, jwksURL)
	if err != nil {
		return RSAKey{}, err
	}
	key, ok := set[kid]
	if !ok {
		return RSAKey{}, fmt.Errorf("%w: %s (federated issuer %s)", ErrUnknownKid, kid, iss)
	}
	return key, nil
}

// Provider reports which provider family, if any, recognizes the issuer.
func (r *FederatedResolver) Provider(iss string) (string, bool) {
	for _, p := range r.providers {
		if p.IssPattern.MatchString(iss) {
			return p.Name, true
		}
	}
	return "", false
}

// Resolver answers key lookups for both configured and federated issuers:
// the cache is consulted first, then the federated table.
type Resolver struct {
	Cache     *Cache
	Federated *FederatedResolver
}

// Get resolves (iss, kid) to a key. A kid miss on a configured issuer is
// final; the federated path only applies to issuers the cache has never
// heard of.
func (r *Resolver) Get(ctx context.Context, iss, kid string) (RSAKey, error) {
	key, err := r.Cache.Get(iss, kid)
	if err == nil {
		return key, nil
	}
	if r.Federated != nil && errors.Is(err, ErrUnknownIssuer) {
		if _, ok := r.Federated.Provider(iss); ok {
			return r.Federated.Resolve(ctx, iss, kid)
		}
	}
	return RSAKey{}, err
}
