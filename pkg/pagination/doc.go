// Package pagination provides sequential offset paging for the rank API.
//
// The rank API takes limit/offset query parameters and gives no total count,
// so the only way to find the end is to ask for the next page. The loop:
//   - Starts at offset 0 with a fixed limit
//   - Fetches one page at a time, never more than one request in flight
//   - Normalizes each page into keyword records and fills device/engine defaults
//   - Advances the offset by the limit
//   - Stops when a page has no keyword entries, and only then. A page of
//     only empty <keyword/> entries yields no records but does not stop it
//
// Example usage:
//
//	loop := pagination.NewLoop(rankClient, pagination.DefaultConfig())
//	result, err := loop.Run(ctx)
//
// Any fetch or parse error aborts the run; nothing is returned for a failed run.
package pagination
