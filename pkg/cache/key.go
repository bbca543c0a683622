package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// KeyPrefix namespaces all page cache keys in Redis.
const KeyPrefix = "rank"

// SensitiveParams are query parameters never written into a cache key in
// clear text. Their values are folded into the key as a digest, so pages of
// different accounts never share a key.
var SensitiveParams = map[string]bool{
	"access_token": true,
}

// Key represents a unique identifier for a cached page.
type Key struct {
	// Host of the rank API
	Host string

	// Endpoint is the request path
	Endpoint string

	// QueryParams are the request query parameters, offset included
	QueryParams url.Values
}

// KeyFromURL builds the cache key of a request URL.
func KeyFromURL(u *url.URL) Key {
	return Key{
		Host:        u.Host,
		Endpoint:    u.Path,
		QueryParams: u.Query(),
	}
}

// String generates a deterministic cache key string.
// Format: rank:host:endpoint:query1=val1:query2=val2[:tok=digest]
//
// Example:
//
//	rank:api.example.com:keywords:Engine=google:limit=100:offset=200:tok=2bb80d537b1da3e3
func (k Key) String() string {
	parts := []string{KeyPrefix}

	if k.Host != "" {
		parts = append(parts, k.Host)
	}

	// Add endpoint (normalize path)
	endpoint := strings.Trim(k.Endpoint, "/")
	if endpoint != "" {
		parts = append(parts, endpoint)
	}

	// Add query params (sorted for determinism)
	if len(k.QueryParams) > 0 {
		queryKeys := make([]string, 0, len(k.QueryParams))
		var secrets []string
		for key := range k.QueryParams {
			if SensitiveParams[key] {
				secrets = append(secrets, key)
				continue
			}
			queryKeys = append(queryKeys, key)
		}
		sort.Strings(queryKeys)

		for _, key := range queryKeys {
			parts = append(parts, fmt.Sprintf("%s=%s", key, strings.Join(k.QueryParams[key], ",")))
		}

		if len(secrets) > 0 {
			sort.Strings(secrets)
			h := sha256.New()
			for _, key := range secrets {
				fmt.Fprintf(h, "%s=%s\n", key, strings.Join(k.QueryParams[key], ","))
			}
			parts = append(parts, "tok="+hex.EncodeToString(h.Sum(nil))[:16])
		}
	}

	return strings.Join(parts, ":")
}
