// Package cache provides rank API page caching with a Redis backend.
//
// Re-running an export for the same date range, engine and market requests
// the same offsets again. With a cache configured those pages are served
// from Redis until they expire, so a rerun after a failure only hits the
// API for the pages it never got.
//
// # Basic Usage
//
//	redisClient := redis.NewClient(&redis.Options{
//		Addr: "localhost:6379",
//	})
//
//	manager := cache.NewManager(redisClient, time.Hour)
//
//	key := cache.KeyFromURL(req.URL)
//
//	entry, err := manager.Get(ctx, key)
//	if err == cache.ErrCacheMiss {
//		// fetch from the API, then
//		_ = manager.Set(ctx, key, cache.ResponseToEntry(resp, body, manager.TTL()))
//	}
//
// # Keys
//
// Keys are built from host, path and the sorted query parameters, offset
// and limit included. The access token never reaches Redis in clear text;
// the key carries a short sha256 digest of it instead, so runs with
// different tokens sharing one Redis never read each other's pages.
//
// # Metrics
//
//   - rank_cache_hits_total - Cache hits
//   - rank_cache_misses_total - Cache misses
//   - rank_cache_written_bytes_total - Bytes written to Redis
//   - rank_cache_errors_total{operation} - Cache operation errors
package cache
