// Package bse implements the BSE resolution and report-location pipeline.
// BSE keys securities by 6-digit numeric scrip code and labels filings with
// the fiscal year *ending* in the named calendar year.
package bse

import (
	"context"
	"regexp"
	"strings"

	"github.com/sells-group/report-cli/internal/model"
	"github.com/sells-group/report-cli/internal/scripmaster"
)

// Bridge supplies cross-exchange ISIN candidates for a search keyword.
type Bridge interface {
	CandidateISINs(ctx context.Context, keyword string, limit int) []model.ISINCandidate
}

const bridgeCandidateLimit = 5

var (
	urlCodeRe   = regexp.MustCompile(`/(\d{6})/`)
	scripCodeRe = regexp.MustCompile(`^\d{6}$`)
)

// Resolver maps a free-text identifier to a BSE scrip code using a
// three-strategy cascade: direct parse, NSE/ISIN bridge, then fuzzy search
// against the cached master. First success wins; backend failures degrade
// to not-found.
type Resolver struct {
	master *scripmaster.Cache
	bridge Bridge
}

// NewResolver creates a BSE resolver. bridge may be nil to disable the
// cross-exchange strategy.
func NewResolver(master *scripmaster.Cache, bridge Bridge) *Resolver {
	return &Resolver{master: master, bridge: bridge}
}

// Resolve returns the resolved company or nil when no strategy matches.
func (r *Resolver) Resolve(ctx context.Context, query string, log *model.RunLog) *model.ResolvedCompany {
	q := strings.TrimSpace(query)
	if q == "" {
		return nil
	}

	// Strategy 1: the input already carries the scrip code.
	if strings.Contains(q, "bseindia.com") {
		if m := urlCodeRe.FindStringSubmatch(q); m != nil {
			return &model.ResolvedCompany{Code: m[1], Name: q}
		}
	}
	if scripCodeRe.MatchString(q) {
		return &model.ResolvedCompany{Code: q, Name: q}
	}

	log.Logf("[BSE] Searching: %q", q)

	// Strategy 2: NSE search -> ISIN -> exact master lookup. The master is
	// loaded before iterating candidates so the first hit can resolve.
	if r.bridge != nil {
		ds := r.master.Dataset(ctx)
		if ds.Len() > 0 {
			keyword := strings.Fields(q)[0]
			for _, cand := range r.bridge.CandidateISINs(ctx, keyword, bridgeCandidateLimit) {
				if cand.ISIN == "" {
					continue
				}
				log.Logf("[BSE] NSE hit: %s | ISIN: %s", cand.Name, cand.ISIN)
				if e, ok := ds.LookupISIN(cand.ISIN); ok {
					log.Logf("[BSE] Resolved via ISIN %s: %s (%s)", cand.ISIN, e.Name, e.Code)
					return &model.ResolvedCompany{Code: e.Code, Name: e.Name}
				}
			}
		}
	}

	// Strategy 3: fuzzy search against the master.
	if e, ok := r.master.Dataset(ctx).Find(q); ok {
		log.Logf("[BSE] Found via master: %s (%s)", e.Name, e.Code)
		return &model.ResolvedCompany{Code: e.Code, Name: e.Name}
	}

	log.Logf("[BSE] Not found: %q", q)
	log.Logf("[BSE] Hint: enter the 6-digit scrip code directly")
	return nil
}
