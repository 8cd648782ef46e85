package bse

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sells-group/report-cli/internal/fiscal"
	"github.com/sells-group/report-cli/internal/model"
	"github.com/sells-group/report-cli/internal/schema"
)

// Known container field names wrapping the filing list.
var containerKeys = []string{"Table", "data", "AnnualReportList", "reports"}

// Period field aliases, most-recently-observed first.
var periodAliases = []string{"year", "PERIOD", "YEAR", "TO_PERIOD", "toDate", "FromDate"}

// Document reference field aliases.
var documentAliases = []string{
	"file_name", "FILENAME", "fileName", "PDFNAME",
	"DOCUMENT_NAME", "PDF_LINK", "ATTACHMENTNAME", "FILECODE",
	"FileNm", "STRFILEPATH", "FILEPATH", "FileName",
}

// jsonGetter fetches and decodes a listing endpoint, priming session cookies
// first when asked.
type jsonGetter interface {
	Prime(ctx context.Context, urls ...string)
	GetJSON(ctx context.Context, url string) (any, error)
}

// Prober performs the lightweight existence check on candidate URLs.
type Prober interface {
	Probe(ctx context.Context, url string) bool
}

// Locator finds the annual report document URL for a scrip code and target
// year, tolerating schema drift and guessing base paths for bare filenames.
type Locator struct {
	http      jsonGetter
	prober    Prober
	apiBase   string
	siteBase  string
	warmups   []string
	primeOnce sync.Once
	yearPred  fiscal.Predicate
}

// NewLocator creates a BSE locator. prober may be nil to skip existence
// checks and always return the top-priority candidate. The listing API
// returns empty without session cookies, so the warm-up pages are fetched
// before the first listing call.
func NewLocator(http jsonGetter, prober Prober, apiBase, siteBase string, warmups ...string) *Locator {
	return &Locator{
		http:     http,
		prober:   prober,
		apiBase:  apiBase,
		siteBase: siteBase,
		warmups:  warmups,
		yearPred: fiscal.EndYear,
	}
}

func (l *Locator) prime(ctx context.Context) {
	l.primeOnce.Do(func() {
		if len(l.warmups) > 0 {
			l.http.Prime(ctx, l.warmups...)
		}
	})
}

func (l *Locator) endpoints(code string) []string {
	return []string{
		fmt.Sprintf("%s/AnnualReport/w?scripcode=%s", l.apiBase, code),
		fmt.Sprintf("%s/AnnRptList/w?scripcode=%s&type=C", l.apiBase, code),
		fmt.Sprintf("%s/AnnualReportNew/w?scripcode=%s", l.apiBase, code),
	}
}

func (l *Locator) basePaths(guid bool) []string {
	attachHis := l.siteBase + "/xml-data/corpfiling/AttachHis/"
	if guid {
		// GUID-style filenames only ever live under AttachHis.
		return []string{attachHis}
	}
	return []string{
		attachHis,
		l.siteBase + "/AnnualReports/",
		l.siteBase + "/bseplus/AnnualReport/",
	}
}

// Locate returns the document URL for the target year, or ok=false when the
// listing is unavailable or no record matches.
func (l *Locator) Locate(ctx context.Context, company *model.ResolvedCompany, year int, log *model.RunLog) (string, bool) {
	log.Logf("[BSE] Fetching report list for scrip %s...", company.Code)

	records := l.fetchListing(ctx, company.Code)
	if len(records) == 0 {
		log.Logf("[BSE] No report list returned for %s", company.Code)
		log.Logf("[BSE] Hint: verify the scrip code on the company's share-price page")
		return "", false
	}

	for _, rec := range records {
		period := schema.FirstString(rec, periodAliases)
		// Scan every value as a safety net against period-field drift.
		text := period + " " + schema.AllValues(rec)
		if !l.yearPred(text, year) {
			continue
		}

		ref := schema.FirstString(rec, documentAliases)
		// Some entries carry an accidental double extension.
		if strings.HasSuffix(ref, ".pdf.pdf") {
			ref = strings.TrimSuffix(ref, ".pdf")
		}
		log.Logf("[BSE] Year %q matched", period)
		if ref == "" {
			zap.L().Debug("bse: matched record has no document field", zap.Any("record", rec))
			continue
		}
		return l.resolveURL(ctx, ref, log), true
	}

	log.Logf("[BSE] No report matched year %d in %d entries", year, len(records))
	return "", false
}

// fetchListing tries the known endpoint variants in priority order and
// returns the first non-empty record set.
func (l *Locator) fetchListing(ctx context.Context, code string) []schema.Record {
	l.prime(ctx)
	for _, u := range l.endpoints(code) {
		payload, err := l.http.GetJSON(ctx, u)
		if err != nil {
			zap.L().Debug("bse: report endpoint failed", zap.String("url", u), zap.Error(err))
			continue
		}
		if records := schema.UnwrapRecords(payload, containerKeys); len(records) > 0 {
			zap.L().Debug("bse: report endpoint worked", zap.String("url", u))
			return records
		}
	}
	return nil
}

// resolveURL turns a document reference into a fetchable URL. Absolute URLs
// pass through; bare filenames get a base path, existence-checked when a
// prober is available, falling back to the top candidate unchecked.
func (l *Locator) resolveURL(ctx context.Context, ref string, log *model.RunLog) string {
	if strings.HasPrefix(ref, "http") {
		return ref
	}

	bases := l.basePaths(isGUIDName(ref))
	if l.prober != nil {
		for _, base := range bases {
			candidate := base + ref
			if l.prober.Probe(ctx, candidate) {
				log.Logf("[BSE] URL confirmed: %s", candidate)
				return candidate
			}
		}
	}

	// Probes failed or were blocked: return the best guess unchecked.
	best := bases[0] + ref
	log.Logf("[BSE] Returning best-guess URL: %s", best)
	return best
}

// isGUIDName reports whether the filename starts with a UUID, the shape the
// portal uses for documents filed under AttachHis.
func isGUIDName(ref string) bool {
	if len(ref) < 36 {
		return false
	}
	return uuid.Validate(ref[:36]) == nil
}
