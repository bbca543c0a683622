package cache

import (
	"net/http"
	"time"
)

// ResponseToEntry builds a cache entry from a response and its already read body.
// The entry expires after ttl, or earlier when the response carries a sooner
// Expires header.
func ResponseToEntry(resp *http.Response, body []byte, ttl time.Duration) *Entry {
	now := time.Now()
	entry := &Entry{
		Data:     body,
		CachedAt: now,
		Expires:  now.Add(ttl),
	}
	if resp == nil {
		return entry
	}

	entry.StatusCode = resp.StatusCode
	entry.ContentType = resp.Header.Get("Content-Type")

	if expires, ok := parseExpires(resp.Header); ok && expires.Before(entry.Expires) {
		entry.Expires = expires
	}

	return entry
}

// parseExpires parses the Expires header from HTTP headers.
func parseExpires(headers http.Header) (time.Time, bool) {
	expiresStr := headers.Get("Expires")
	if expiresStr == "" {
		return time.Time{}, false
	}

	expires, err := http.ParseTime(expiresStr)
	if err != nil {
		return time.Time{}, false
	}

	return expires, true
}
