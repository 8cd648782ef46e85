package nse

import (
	"context"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/report-cli/internal/model"
	"github.com/sells-group/report-cli/internal/schema"
)

// Symbol and name aliases seen in autocomplete results.
var (
	symbolAliases = []string{"symbol", "data"}
	nameAliases   = []string{"company_name", "companyName"}
)

// Resolver maps a free-text identifier to an NSE trading symbol.
type Resolver struct {
	client *Client
}

// NewResolver creates an NSE resolver.
func NewResolver(client *Client) *Resolver {
	return &Resolver{client: client}
}

// Resolve returns the resolved company or nil when no match is found.
// Backend failures degrade to not-found; nothing is raised to the caller.
func (r *Resolver) Resolve(ctx context.Context, query string, log *model.RunLog) *model.ResolvedCompany {
	q := strings.TrimSpace(query)
	if q == "" {
		return nil
	}

	// A portal URL carrying the symbol resolves without any network call.
	if strings.Contains(q, "nseindia.com") {
		if u, err := url.Parse(q); err == nil {
			if symbol := strings.ToUpper(u.Query().Get("symbol")); symbol != "" {
				return &model.ResolvedCompany{Code: symbol, Name: symbol}
			}
		}
	}

	log.Logf("[NSE] Searching: %q", q)

	results, err := r.client.Search(ctx, q)
	if err != nil {
		zap.L().Warn("nse: search failed", zap.String("query", q), zap.Error(err))
	}
	if len(results) > 0 {
		first := results[0]
		symbol := schema.FirstString(first, symbolAliases)
		if symbol != "" {
			name := schema.FirstString(first, nameAliases)
			if name == "" {
				name = symbol
			}
			log.Logf("[NSE] Found: %s (%s)", name, symbol)
			return &model.ResolvedCompany{Code: strings.ToUpper(symbol), Name: name}
		}
	}

	log.Logf("[NSE] Company not found: %q", q)
	return nil
}
