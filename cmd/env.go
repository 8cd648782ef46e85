package main

import (
	"time"

	"github.com/sells-group/report-cli/internal/bse"
	"github.com/sells-group/report-cli/internal/config"
	"github.com/sells-group/report-cli/internal/fetcher"
	"github.com/sells-group/report-cli/internal/nse"
	"github.com/sells-group/report-cli/internal/runner"
	"github.com/sells-group/report-cli/internal/scripmaster"
)

// env holds the wired pipeline graph for a command invocation.
type env struct {
	client *fetcher.Client
	runner *runner.Runner
}

// initEnv builds the HTTP client, the scrip master cache, both exchange
// pipelines, and the batch runner from configuration.
func initEnv(cfg *config.Config) *env {
	client := fetcher.New(fetcher.Options{
		UserAgent:    cfg.HTTP.UserAgent,
		Timeout:      time.Duration(cfg.HTTP.TimeoutSecs) * time.Second,
		DocTimeout:   time.Duration(cfg.HTTP.DocTimeoutSecs) * time.Second,
		MinDocBytes:  cfg.HTTP.MinDocBytes,
		RateLimiters: fetcher.DefaultRateLimiters(),
	})

	master := scripmaster.NewCache(scripmaster.NewHTTPLoader(client, scripmaster.LoaderConfig{
		CSVURL:     cfg.BSE.MasterCSVURL,
		JSONURL:    cfg.BSE.MasterJSONURL,
		PageURL:    cfg.BSE.MasterPageURL,
		WarmupURLs: cfg.BSE.WarmupURLs,
	}).Load)

	nseClient := nse.NewClient(client, cfg.NSE.Base)
	nsePipeline := nse.NewPipeline(
		nse.NewResolver(nseClient),
		nse.NewLocator(nseClient, cfg.NSE.Base),
		client,
	)
	bsePipeline := bse.NewPipeline(
		bse.NewResolver(master, nseClient),
		bse.NewLocator(client, client, cfg.BSE.APIBase, cfg.BSE.SiteBase, cfg.BSE.WarmupURLs...),
		client,
	)

	delay := time.Duration(cfg.Batch.CompanyDelaySecs) * time.Second
	return &env{
		client: client,
		runner: runner.New([]runner.Pipeline{bsePipeline, nsePipeline}, delay),
	}
}
