package nse

import (
	"context"
	"strings"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/report-cli/internal/model"
)

type fakeDocs struct {
	data map[string][]byte
}

func (f *fakeDocs) FetchDocument(_ context.Context, url string) ([]byte, error) {
	if data, ok := f.data[url]; ok {
		return data, nil
	}
	return nil, eris.Errorf("fetch failed: %s", url)
}

func newTestPipeline(responses map[string]string, docs map[string][]byte) *Pipeline {
	c, _ := newTestClient(responses)
	return NewPipeline(NewResolver(c), NewLocator(c, "https://www.nseindia.com"), &fakeDocs{data: docs})
}

func TestPipelineFetchSuccess(t *testing.T) {
	t.Parallel()

	payload := strings.Repeat("p", 4096)
	p := newTestPipeline(map[string]string{
		"autocomplete":   `[{"symbol":"INFY","company_name":"Infosys Limited"}]`,
		"annual-reports": `{"data":[{"fromYr":2023,"toYr":2024,"fileName":"/annual/infy24.pdf"}]}`,
	}, map[string][]byte{
		"https://www.nseindia.com/annual/infy24.pdf": []byte(payload),
	})

	log := model.NewRunLog()
	doc := p.Fetch(context.Background(), "Infosys", 2023, log)
	require.NotNil(t, doc)
	assert.Equal(t, model.ExchangeNSE, doc.Exchange)
	assert.Equal(t, "Infosys Limited", doc.Company)
	assert.Equal(t, "NSE_Infosys Limited_2023_AnnualReport.pdf", doc.Filename)
	assert.Equal(t, []byte(payload), doc.Data)
}

func TestPipelineFetchDownloadFailure(t *testing.T) {
	t.Parallel()

	p := newTestPipeline(map[string]string{
		"autocomplete":   `[{"symbol":"INFY","company_name":"Infosys Limited"}]`,
		"annual-reports": `{"data":[{"fromYr":2023,"toYr":2024,"fileName":"/annual/infy24.pdf"}]}`,
	}, nil)

	log := model.NewRunLog()
	doc := p.Fetch(context.Background(), "Infosys", 2023, log)
	assert.Nil(t, doc)

	joined := strings.Join(log.Entries(), "\n")
	assert.Contains(t, joined, "PDF download failed")
}

func TestPipelineFetchUnresolved(t *testing.T) {
	t.Parallel()

	p := newTestPipeline(map[string]string{"autocomplete": `[]`}, nil)
	assert.Nil(t, p.Fetch(context.Background(), "Unknown Co", 2024, model.NewRunLog()))
}
