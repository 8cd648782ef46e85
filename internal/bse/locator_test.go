package bse

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/report-cli/internal/model"
)

type fakeJSON struct {
	responses map[string]string
	calls     []string
	primed    []string
	// gated mimics the portal's behavior of serving data only to sessions
	// that carry the warm-up cookies.
	gated bool
}

func (f *fakeJSON) Prime(_ context.Context, urls ...string) {
	f.primed = append(f.primed, urls...)
}

func (f *fakeJSON) GetJSON(_ context.Context, url string) (any, error) {
	f.calls = append(f.calls, url)
	if f.gated && len(f.primed) == 0 {
		return nil, eris.New("session cookies missing")
	}
	for key, raw := range f.responses {
		if strings.Contains(url, key) {
			var v any
			if err := json.Unmarshal([]byte(raw), &v); err != nil {
				return nil, err
			}
			return v, nil
		}
	}
	return nil, eris.Errorf("no canned response for %s", url)
}

type fakeProber struct {
	alive   map[string]bool
	blocked bool
	probes  []string
}

func (f *fakeProber) Probe(_ context.Context, url string) bool {
	f.probes = append(f.probes, url)
	if f.blocked {
		return false
	}
	return f.alive[url]
}

const (
	apiBase  = "https://api.bseindia.com/BseIndiaAPI/api"
	siteBase = "https://www.bseindia.com"
)

func scrip() *model.ResolvedCompany {
	return &model.ResolvedCompany{Code: "500325", Name: "Reliance Industries Ltd"}
}

func TestLocateAbsoluteURLVerbatim(t *testing.T) {
	t.Parallel()

	l := NewLocator(&fakeJSON{responses: map[string]string{
		"AnnualReport/w": `[{"year":"2023-24","file_name":"https://www.bseindia.com/AnnualReports/rel24.pdf"}]`,
	}}, nil, apiBase, siteBase)

	url, ok := l.Locate(context.Background(), scrip(), 2024, model.NewRunLog())
	require.True(t, ok)
	assert.Equal(t, "https://www.bseindia.com/AnnualReports/rel24.pdf", url)
}

func TestLocatePrimesSessionBeforeListing(t *testing.T) {
	t.Parallel()

	f := &fakeJSON{
		gated: true,
		responses: map[string]string{
			"AnnualReport/w": `[{"year":"2023-24","file_name":"https://x/rel24.pdf"}]`,
		},
	}
	warmups := []string{siteBase, siteBase + "/markets/equity/EQReports/MarketWatch.aspx"}
	l := NewLocator(f, nil, apiBase, siteBase, warmups...)

	_, ok := l.Locate(context.Background(), scrip(), 2024, model.NewRunLog())
	require.True(t, ok)
	assert.Equal(t, warmups, f.primed)

	// Priming happens once per locator, not per listing call.
	_, ok = l.Locate(context.Background(), scrip(), 2024, model.NewRunLog())
	require.True(t, ok)
	assert.Len(t, f.primed, 2)
}

func TestLocateEndpointFallback(t *testing.T) {
	t.Parallel()

	// Primary endpoint errors, second returns an empty wrapped list, the
	// third finally yields records.
	f := &fakeJSON{responses: map[string]string{
		"AnnRptList":      `{"Table":[]}`,
		"AnnualReportNew": `{"Table":[{"year":"2023-24","file_name":"https://x/rel24.pdf"}]}`,
	}}
	l := NewLocator(f, nil, apiBase, siteBase)

	url, ok := l.Locate(context.Background(), scrip(), 2024, model.NewRunLog())
	require.True(t, ok)
	assert.Equal(t, "https://x/rel24.pdf", url)
	assert.Len(t, f.calls, 3)
}

func TestLocateListingUnavailable(t *testing.T) {
	t.Parallel()

	l := NewLocator(&fakeJSON{responses: map[string]string{}}, nil, apiBase, siteBase)

	log := model.NewRunLog()
	_, ok := l.Locate(context.Background(), scrip(), 2024, log)
	assert.False(t, ok)

	joined := strings.Join(log.Entries(), "\n")
	assert.Contains(t, joined, "No report list returned")
}

func TestLocateYearNotMatched(t *testing.T) {
	t.Parallel()

	l := NewLocator(&fakeJSON{responses: map[string]string{
		"AnnualReport/w": `[{"year":"2021-22","file_name":"old.pdf"}]`,
	}}, nil, apiBase, siteBase)

	log := model.NewRunLog()
	_, ok := l.Locate(context.Background(), scrip(), 2024, log)
	assert.False(t, ok)
	assert.Contains(t, strings.Join(log.Entries(), "\n"), "No report matched year 2024")
}

func TestLocatePeriodFieldDrift(t *testing.T) {
	t.Parallel()

	// Period lives under an alias further down the list.
	l := NewLocator(&fakeJSON{responses: map[string]string{
		"AnnualReport/w": `[{"TO_PERIOD":"31-03-2024","FILENAME":"https://x/rel24.pdf"}]`,
	}}, nil, apiBase, siteBase)

	url, ok := l.Locate(context.Background(), scrip(), 2024, model.NewRunLog())
	require.True(t, ok)
	assert.Equal(t, "https://x/rel24.pdf", url)
}

func TestLocateDoublePDFExtensionTrimmed(t *testing.T) {
	t.Parallel()

	l := NewLocator(&fakeJSON{responses: map[string]string{
		"AnnualReport/w": `[{"year":"2023-24","file_name":"rel24.pdf.pdf"}]`,
	}}, nil, apiBase, siteBase)

	url, ok := l.Locate(context.Background(), scrip(), 2024, model.NewRunLog())
	require.True(t, ok)
	assert.True(t, strings.HasSuffix(url, "/rel24.pdf"), url)
	assert.False(t, strings.HasSuffix(url, ".pdf.pdf"))
}

func TestLocateBasePathProbe(t *testing.T) {
	t.Parallel()

	prober := &fakeProber{alive: map[string]bool{
		siteBase + "/AnnualReports/rel24.pdf": true,
	}}
	l := NewLocator(&fakeJSON{responses: map[string]string{
		"AnnualReport/w": `[{"year":"2023-24","file_name":"rel24.pdf"}]`,
	}}, prober, apiBase, siteBase)

	url, ok := l.Locate(context.Background(), scrip(), 2024, model.NewRunLog())
	require.True(t, ok)
	assert.Equal(t, siteBase+"/AnnualReports/rel24.pdf", url)
	// AttachHis was probed first and rejected.
	assert.Equal(t, siteBase+"/xml-data/corpfiling/AttachHis/rel24.pdf", prober.probes[0])
}

func TestLocateProbeBlockedFallsBackToBestGuess(t *testing.T) {
	t.Parallel()

	prober := &fakeProber{blocked: true}
	l := NewLocator(&fakeJSON{responses: map[string]string{
		"AnnualReport/w": `[{"year":"2023-24","file_name":"rel24.pdf"}]`,
	}}, prober, apiBase, siteBase)

	log := model.NewRunLog()
	url, ok := l.Locate(context.Background(), scrip(), 2024, log)
	require.True(t, ok)
	assert.Equal(t, siteBase+"/xml-data/corpfiling/AttachHis/rel24.pdf", url)
	assert.Contains(t, strings.Join(log.Entries(), "\n"), "best-guess")
}

func TestLocateGUIDNameProbesOnlyAttachHis(t *testing.T) {
	t.Parallel()

	guid := "1c9378d8-37fa-4c6e-9cd1-90c86e849a9f.pdf"
	prober := &fakeProber{blocked: true}
	l := NewLocator(&fakeJSON{responses: map[string]string{
		"AnnualReport/w": `[{"year":"2023-24","file_name":"` + guid + `"}]`,
	}}, prober, apiBase, siteBase)

	url, ok := l.Locate(context.Background(), scrip(), 2024, model.NewRunLog())
	require.True(t, ok)
	assert.Equal(t, siteBase+"/xml-data/corpfiling/AttachHis/"+guid, url)
	assert.Len(t, prober.probes, 1)
}

func TestLocateNoProberReturnsTopCandidate(t *testing.T) {
	t.Parallel()

	l := NewLocator(&fakeJSON{responses: map[string]string{
		"AnnualReport/w": `[{"year":"2023-24","file_name":"rel24.pdf"}]`,
	}}, nil, apiBase, siteBase)

	url, ok := l.Locate(context.Background(), scrip(), 2024, model.NewRunLog())
	require.True(t, ok)
	assert.Equal(t, siteBase+"/xml-data/corpfiling/AttachHis/rel24.pdf", url)
}

func TestLocateEmptyDocumentFieldSkipsRecord(t *testing.T) {
	t.Parallel()

	l := NewLocator(&fakeJSON{responses: map[string]string{
		"AnnualReport/w": `[
			{"year":"2023-24"},
			{"year":"2023-24","file_name":"rel24.pdf"}
		]`,
	}}, nil, apiBase, siteBase)

	url, ok := l.Locate(context.Background(), scrip(), 2024, model.NewRunLog())
	require.True(t, ok)
	assert.True(t, strings.HasSuffix(url, "rel24.pdf"))
}
