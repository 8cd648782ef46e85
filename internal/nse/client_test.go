package nse

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeHTTP serves canned JSON payloads keyed by URL substring.
type fakeHTTP struct {
	primed    []string
	responses map[string]string
	calls     []string
}

func (f *fakeHTTP) Prime(_ context.Context, urls ...string) {
	f.primed = append(f.primed, urls...)
}

func (f *fakeHTTP) GetJSON(_ context.Context, url string) (any, error) {
	f.calls = append(f.calls, url)
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

func newTestClient(responses map[string]string) (*Client, *fakeHTTP) {
	f := &fakeHTTP{responses: responses}
	return NewClient(f, "https://www.nseindia.com"), f
}

func TestSearchUnwrapsShapes(t *testing.T) {
	t.Parallel()

	t.Run("bare array", func(t *testing.T) {
		t.Parallel()
		c, _ := newTestClient(map[string]string{
			"autocomplete": `[{"symbol":"INFY","company_name":"Infosys Limited"}]`,
		})
		results, err := c.Search(context.Background(), "infosys")
		require.NoError(t, err)
		require.Len(t, results, 1)
	})

	t.Run("wrapped in symbols", func(t *testing.T) {
		t.Parallel()
		c, _ := newTestClient(map[string]string{
			"autocomplete": `{"symbols":[{"symbol":"TCS"}]}`,
		})
		results, err := c.Search(context.Background(), "tcs")
		require.NoError(t, err)
		require.Len(t, results, 1)
	})
}

func TestSearchPrimesSessionOnce(t *testing.T) {
	t.Parallel()

	c, f := newTestClient(map[string]string{"autocomplete": `[]`})
	_, err := c.Search(context.Background(), "a")
	require.NoError(t, err)
	_, err = c.Search(context.Background(), "b")
	require.NoError(t, err)

	assert.Equal(t, []string{"https://www.nseindia.com"}, f.primed)
}

func TestAnnualReportsEndpointFallback(t *testing.T) {
	t.Parallel()

	// The primary endpoint errors (no canned response); the variant with
	// the category parameter succeeds.
	c, f := newTestClient(map[string]string{
		"category=annual-report": `{"data":[{"fromYr":2023,"toYr":2024,"fileName":"/r.pdf"}]}`,
	})

	records, err := c.AnnualReports(context.Background(), "RELIANCE")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Len(t, f.calls, 2)
}

func TestAnnualReportsEmptyListNotError(t *testing.T) {
	t.Parallel()

	c, _ := newTestClient(map[string]string{"annual-reports": `{"data":[]}`})
	records, err := c.AnnualReports(context.Background(), "INFY")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestCandidateISINs(t *testing.T) {
	t.Parallel()

	c, _ := newTestClient(map[string]string{
		"autocomplete":         `[{"symbol":"RELIANCE"},{"symbol":"RELINFRA"},{"symbol":""}]`,
		"quote-equity?symbol=RELIANCE": `{"metadata":{"isin":"INE002A01018"},"info":{"companyName":"Reliance Industries"}}`,
		"quote-equity?symbol=RELINFRA": `{"securityInfo":{"isin":"INE036A01016"}}`,
	})

	candidates := c.CandidateISINs(context.Background(), "reliance", 5)
	require.Len(t, candidates, 2)
	assert.Equal(t, "INE002A01018", candidates[0].ISIN)
	assert.Equal(t, "Reliance Industries", candidates[0].Name)
	// Name falls back to the symbol when the quote omits it.
	assert.Equal(t, "RELINFRA", candidates[1].Name)
	assert.Equal(t, "INE036A01016", candidates[1].ISIN)
}

func TestCandidateISINsLimit(t *testing.T) {
	t.Parallel()

	c, _ := newTestClient(map[string]string{
		"autocomplete": `[{"symbol":"A"},{"symbol":"B"},{"symbol":"C"}]`,
		"quote-equity": `{"metadata":{"isin":"INE000000001"}}`,
	})

	candidates := c.CandidateISINs(context.Background(), "x", 2)
	assert.Len(t, candidates, 2)
}

func TestCandidateISINsSearchFailure(t *testing.T) {
	t.Parallel()

	c, _ := newTestClient(map[string]string{})
	assert.Empty(t, c.CandidateISINs(context.Background(), "x", 5))
}
