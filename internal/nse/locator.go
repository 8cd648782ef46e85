package nse

import (
	"context"
	"strconv"
	"strings"

	"github.com/sells-group/report-cli/internal/fiscal"
	"github.com/sells-group/report-cli/internal/model"
	"github.com/sells-group/report-cli/internal/schema"
)

var fileAliases = []string{"fileName", "file_name"}

// Locator finds the annual report document URL for a resolved symbol and
// target year.
type Locator struct {
	client   *Client
	base     string
	yearPred fiscal.Predicate
}

// NewLocator creates an NSE locator. The base URL prefixes relative
// document references.
func NewLocator(client *Client, baseURL string) *Locator {
	return &Locator{client: client, base: baseURL, yearPred: fiscal.StartYear}
}

// Locate returns the document URL for the target year, or ok=false when the
// listing is unavailable or no record matches. Both are reportable outcomes,
// never errors.
func (l *Locator) Locate(ctx context.Context, company *model.ResolvedCompany, year int, log *model.RunLog) (string, bool) {
	log.Logf("[NSE] Fetching report list for %s...", company.Code)

	records, err := l.client.AnnualReports(ctx, company.Code)
	if err != nil || len(records) == 0 {
		log.Logf("[NSE] No report list returned for %s", company.Code)
		return "", false
	}

	target := strconv.Itoa(year)
	for _, rec := range records {
		fromYr := schema.FirstString(rec, []string{"fromYr"})
		toYr := schema.FirstString(rec, []string{"toYr"})

		var matched bool
		if fromYr != "" || toYr != "" {
			// Structured year fields, when present, beat label matching.
			matched = toYr == target || fromYr == target
		} else {
			matched = l.yearPred(schema.AllValues(rec), year)
		}
		if !matched {
			continue
		}

		ref := schema.FirstString(rec, fileAliases)
		if ref == "" {
			log.Logf("[NSE] Year matched (fromYr=%s toYr=%s) but document reference is empty", fromYr, toYr)
			continue
		}
		log.Logf("[NSE] Matched: fromYr=%s toYr=%s", fromYr, toYr)
		if !strings.HasPrefix(ref, "http") {
			ref = l.base + ref
		}
		return ref, true
	}

	log.Logf("[NSE] No report found for year %d (checked %d entries)", year, len(records))
	return "", false
}
