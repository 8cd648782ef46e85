package scripmaster

import (
	"bytes"
	"context"
	"encoding/csv"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/report-cli/internal/schema"
)

// httpClient is the slice of the fetcher used by the loader.
type httpClient interface {
	Prime(ctx context.Context, urls ...string)
	GetJSON(ctx context.Context, url string) (any, error)
	GetHTML(ctx context.Context, url string) ([]byte, error)
}

// LoaderConfig holds the bulk-listing sources in priority order.
type LoaderConfig struct {
	CSVURL     string   // primary: full equity master CSV
	JSONURL    string   // fallback: structured API endpoint
	PageURL    string   // last resort: listing page, scraped by selector
	WarmupURLs []string // cookie-priming pages required before the JSON call
}

// CSV column aliases for the master list.
var (
	csvCodeAliases = []string{"Security Code", "Scrip Code"}
	csvNameAliases = []string{"Security Name", "Scrip Name"}
	csvISINAliases = []string{"ISIN No", "ISIN"}
)

// JSON field aliases for the master API. The portal has renamed these fields
// more than once; order reflects most-recently-observed first.
var (
	jsonCodeAliases = []string{
		"SCRIP_CD", "SECURITY_CODE", "scripcode", "Scrip_Code",
		"scrip_cd", "Scripcode", "ScripCode",
	}
	jsonNameAliases = []string{
		"Scrip_Name", "SECURITY_NAME", "Issuer_Name", "long_name",
		"SCRIP_NAME", "scrip_name", "ScripName",
	}
	jsonISINAliases = []string{"ISIN_NUMBER", "isin_code", "ISIN_CODE", "isin"}
)

// HTTPLoader populates the dataset from the exchange's public bulk sources,
// trying CSV, then the JSON API, then scraping the listing page.
type HTTPLoader struct {
	client httpClient
	cfg    LoaderConfig
}

// NewHTTPLoader creates a loader using the given client and sources.
func NewHTTPLoader(client httpClient, cfg LoaderConfig) *HTTPLoader {
	return &HTTPLoader{client: client, cfg: cfg}
}

// Load implements Loader.
func (l *HTTPLoader) Load(ctx context.Context) (*Dataset, error) {
	if ds, err := l.loadCSV(ctx); err == nil && ds.Len() > 0 {
		zap.L().Debug("scripmaster: loaded from CSV", zap.Int("entries", ds.Len()))
		return ds, nil
	} else if err != nil {
		zap.L().Debug("scripmaster: CSV load failed", zap.Error(err))
	}

	if ds, err := l.loadJSON(ctx); err == nil && ds.Len() > 0 {
		zap.L().Debug("scripmaster: loaded from JSON API", zap.Int("entries", ds.Len()))
		return ds, nil
	} else if err != nil {
		zap.L().Debug("scripmaster: JSON load failed", zap.Error(err))
	}

	// Deprecated fallback: selector-based discovery on the listing page,
	// used only when both API strategies are unavailable.
	if ds, err := l.loadPage(ctx); err == nil && ds.Len() > 0 {
		zap.L().Debug("scripmaster: scraped listing page", zap.Int("entries", ds.Len()))
		return ds, nil
	} else if err != nil {
		zap.L().Debug("scripmaster: page scrape failed", zap.Error(err))
	}

	return nil, eris.New("scripmaster: all load strategies failed")
}

func (l *HTTPLoader) loadCSV(ctx context.Context) (*Dataset, error) {
	if l.cfg.CSVURL == "" {
		return nil, eris.New("scripmaster: no csv url configured")
	}
	body, err := l.client.GetHTML(ctx, l.cfg.CSVURL)
	if err != nil {
		return nil, err
	}
	head := body
	if len(head) > 100 {
		head = head[:100]
	}
	if !bytes.ContainsRune(head, ',') {
		return nil, eris.New("scripmaster: csv response has no delimiter, likely an error page")
	}

	reader := csv.NewReader(bytes.NewReader(body))
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, eris.Wrap(err, "scripmaster: parse csv")
	}
	if len(rows) < 2 {
		return nil, eris.New("scripmaster: csv has no data rows")
	}

	header := rows[0]
	codeIdx := columnIndex(header, csvCodeAliases)
	nameIdx := columnIndex(header, csvNameAliases)
	isinIdx := columnIndex(header, csvISINAliases)
	if codeIdx < 0 || nameIdx < 0 {
		return nil, eris.New("scripmaster: csv header missing code or name column")
	}

	ds := NewDataset()
	for _, row := range rows[1:] {
		code := cell(row, codeIdx)
		name := cell(row, nameIdx)
		isin := cell(row, isinIdx)
		ds.Add(code, name, isin)
	}
	return ds, nil
}

func (l *HTTPLoader) loadJSON(ctx context.Context) (*Dataset, error) {
	if l.cfg.JSONURL == "" {
		return nil, eris.New("scripmaster: no json url configured")
	}
	// The JSON API returns empty without session cookies.
	l.client.Prime(ctx, l.cfg.WarmupURLs...)

	payload, err := l.client.GetJSON(ctx, l.cfg.JSONURL)
	if err != nil {
		return nil, err
	}
	records := schema.UnwrapRecords(payload, []string{"Table", "data"})
	if len(records) == 0 {
		return nil, eris.New("scripmaster: json master returned no records")
	}

	ds := NewDataset()
	for _, rec := range records {
		code := schema.FirstString(rec, jsonCodeAliases)
		name := schema.FirstString(rec, jsonNameAliases)
		isin := schema.FirstString(rec, jsonISINAliases)
		ds.Add(code, name, isin)
	}
	return ds, nil
}

var (
	scripCodeRe = regexp.MustCompile(`^\d{6}$`)
	isinRe      = regexp.MustCompile(`^IN[A-Z0-9]{10}$`)
)

func (l *HTTPLoader) loadPage(ctx context.Context) (*Dataset, error) {
	if l.cfg.PageURL == "" {
		return nil, eris.New("scripmaster: no page url configured")
	}
	body, err := l.client.GetHTML(ctx, l.cfg.PageURL)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "scripmaster: parse listing page")
	}

	ds := NewDataset()
	doc.Find("table tr").Each(func(_ int, row *goquery.Selection) {
		var code, name, isin string
		row.Find("td").Each(func(_ int, td *goquery.Selection) {
			text := strings.TrimSpace(td.Text())
			switch {
			case scripCodeRe.MatchString(text):
				code = text
			case isinRe.MatchString(text):
				isin = text
			case name == "" && text != "" && !strings.EqualFold(text, "Security Name"):
				name = text
			}
		})
		ds.Add(code, name, isin)
	})
	return ds, nil
}

func columnIndex(header []string, aliases []string) int {
	for _, alias := range aliases {
		for i, col := range header {
			if strings.EqualFold(strings.TrimSpace(col), alias) {
				return i
			}
		}
	}
	return -1
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
