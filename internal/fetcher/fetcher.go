// Package fetcher is the HTTP layer for the exchange portals: a browser-headed
// client with a shared cookie jar, per-host politeness rate limiters, and
// size-thresholded document retrieval.
package fetcher

import "context"

// Fetcher defines the exchange-facing HTTP operations.
type Fetcher interface {
	// Prime performs best-effort warm-up page requests to obtain session
	// cookies. Failures are ignored; a later data call simply finds nothing.
	Prime(ctx context.Context, urls ...string)

	// GetJSON fetches the URL and decodes the response body as JSON into an
	// untyped value (array or object).
	GetJSON(ctx context.Context, url string) (any, error)

	// FetchDocument retrieves the document bytes at the URL. Responses below
	// the minimum byte threshold are treated as disguised error pages.
	FetchDocument(ctx context.Context, url string) ([]byte, error)

	// Probe reports whether a lightweight HEAD check of the URL succeeds.
	Probe(ctx context.Context, url string) bool
}
