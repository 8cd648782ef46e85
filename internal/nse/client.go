// Package nse implements the NSE resolution and report-location pipeline.
// NSE keys securities by alphabetic trading symbol and labels filings with
// the fiscal year *starting* in the named calendar year ("2023-24").
package nse

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/report-cli/internal/model"
	"github.com/sells-group/report-cli/internal/schema"
)

// httpClient is the slice of the fetcher the client needs.
type httpClient interface {
	Prime(ctx context.Context, urls ...string)
	GetJSON(ctx context.Context, url string) (any, error)
}

// Search results arrive either bare or wrapped.
var searchContainerKeys = []string{"symbols", "data"}

// ISIN locations observed in the quote-equity response.
var quoteISINPaths = []string{"metadata.isin", "info.isin", "securityInfo.isin"}

var quoteNamePaths = []string{"info.companyName", "metadata.companyName"}

// Client wraps NSE's unauthenticated JSON API. Data calls fail without the
// session cookies set by the homepage, so the first call primes the session.
type Client struct {
	http      httpClient
	base      string
	primeOnce sync.Once
}

// NewClient creates a client against the given portal base URL.
func NewClient(http httpClient, baseURL string) *Client {
	return &Client{http: http, base: baseURL}
}

func (c *Client) prime(ctx context.Context) {
	c.primeOnce.Do(func() {
		c.http.Prime(ctx, c.base)
	})
}

// Search queries the free-text autocomplete endpoint.
func (c *Client) Search(ctx context.Context, query string) ([]schema.Record, error) {
	c.prime(ctx)
	u := fmt.Sprintf("%s/api/search/autocomplete?q=%s", c.base, url.QueryEscape(query))
	payload, err := c.http.GetJSON(ctx, u)
	if err != nil {
		return nil, eris.Wrap(err, "nse: search")
	}
	return schema.UnwrapRecords(payload, searchContainerKeys), nil
}

// Quote fetches the per-symbol equity detail record.
func (c *Client) Quote(ctx context.Context, symbol string) (schema.Record, error) {
	c.prime(ctx)
	u := fmt.Sprintf("%s/api/quote-equity?symbol=%s", c.base, url.QueryEscape(symbol))
	payload, err := c.http.GetJSON(ctx, u)
	if err != nil {
		return nil, eris.Wrap(err, "nse: quote")
	}
	rec, ok := payload.(map[string]any)
	if !ok {
		return nil, eris.New("nse: quote response is not an object")
	}
	return rec, nil
}

// AnnualReports fetches the filing list, trying the known endpoint variants
// in order and accepting the first that parses to a non-empty record set.
func (c *Client) AnnualReports(ctx context.Context, symbol string) ([]schema.Record, error) {
	c.prime(ctx)
	endpoints := []string{
		fmt.Sprintf("%s/api/annual-reports?index=equities&symbol=%s", c.base, url.QueryEscape(symbol)),
		fmt.Sprintf("%s/api/annual-reports?index=equities&symbol=%s&category=annual-report", c.base, url.QueryEscape(symbol)),
	}
	var lastErr error
	for _, u := range endpoints {
		payload, err := c.http.GetJSON(ctx, u)
		if err != nil {
			lastErr = err
			zap.L().Debug("nse: report endpoint failed",
				zap.String("url", u),
				zap.Error(err),
			)
			continue
		}
		if records := schema.UnwrapRecords(payload, []string{"data", "reports", "annualReports"}); len(records) > 0 {
			return records, nil
		}
	}
	if lastErr != nil {
		return nil, eris.Wrap(lastErr, "nse: annual reports")
	}
	return nil, nil
}

// CandidateISINs searches by keyword and fetches per-candidate detail to
// obtain ISINs, for cross-exchange bridging. Best-effort: backend failures
// shrink the candidate set instead of erroring.
func (c *Client) CandidateISINs(ctx context.Context, keyword string, limit int) []model.ISINCandidate {
	results, err := c.Search(ctx, keyword)
	if err != nil {
		zap.L().Debug("nse: bridge search failed", zap.Error(err))
		return nil
	}
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}

	var candidates []model.ISINCandidate
	for _, hit := range results {
		symbol := schema.FirstString(hit, []string{"symbol"})
		if symbol == "" {
			continue
		}
		info, err := c.Quote(ctx, symbol)
		if err != nil {
			zap.L().Debug("nse: bridge quote failed",
				zap.String("symbol", symbol),
				zap.Error(err),
			)
			continue
		}
		name := schema.FirstAtPaths(info, quoteNamePaths)
		if name == "" {
			name = symbol
		}
		candidates = append(candidates, model.ISINCandidate{
			Symbol: symbol,
			Name:   name,
			ISIN:   schema.FirstAtPaths(info, quoteISINPaths),
		})
	}
	return candidates
}
