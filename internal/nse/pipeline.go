package nse

import (
	"context"

	"go.uber.org/zap"

	"github.com/sells-group/report-cli/internal/model"
)

// docFetcher retrieves document bytes.
type docFetcher interface {
	FetchDocument(ctx context.Context, url string) ([]byte, error)
}

// Pipeline chains resolution, location, and retrieval for NSE.
type Pipeline struct {
	resolver *Resolver
	locator  *Locator
	docs     docFetcher
}

// NewPipeline assembles the NSE pipeline.
func NewPipeline(resolver *Resolver, locator *Locator, docs docFetcher) *Pipeline {
	return &Pipeline{resolver: resolver, locator: locator, docs: docs}
}

// Exchange identifies this pipeline.
func (p *Pipeline) Exchange() model.Exchange {
	return model.ExchangeNSE
}

// Fetch runs the full pipeline for one company. A nil return means "no
// document"; the reason is on the run log.
func (p *Pipeline) Fetch(ctx context.Context, company string, year int, log *model.RunLog) *model.Document {
	resolved := p.resolver.Resolve(ctx, company, log)
	if resolved == nil {
		return nil
	}

	docURL, ok := p.locator.Locate(ctx, resolved, year, log)
	if !ok {
		return nil
	}

	log.Logf("[NSE] Downloading PDF...")
	data, err := p.docs.FetchDocument(ctx, docURL)
	if err != nil {
		zap.L().Warn("nse: document fetch failed", zap.String("url", docURL), zap.Error(err))
		log.Logf("[NSE] PDF download failed: %s", docURL)
		return nil
	}

	filename := model.ReportFilename(model.ExchangeNSE, resolved.Name, year)
	log.Logf("[NSE] Saved %s (%.2f MB)", filename, float64(len(data))/1048576)
	return &model.Document{
		Exchange: model.ExchangeNSE,
		Company:  resolved.Name,
		Filename: filename,
		Data:     data,
	}
}
