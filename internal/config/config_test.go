package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Contains(t, cfg.HTTP.UserAgent, "Chrome/124")
	assert.Equal(t, 30, cfg.HTTP.TimeoutSecs)
	assert.Equal(t, 60, cfg.HTTP.DocTimeoutSecs)
	assert.Equal(t, 1000, cfg.HTTP.MinDocBytes)
	assert.InDelta(t, 3, cfg.HTTP.RatePerHost, 0.001)
	assert.Equal(t, "https://api.bseindia.com/BseIndiaAPI/api", cfg.BSE.APIBase)
	assert.Equal(t, "https://www.bseindia.com", cfg.BSE.SiteBase)
	assert.Equal(t, "https://www.bseindia.com/downloads/BseIndiaAPI/ListofScrips.csv", cfg.BSE.MasterCSVURL)
	assert.Equal(t, "https://api.bseindia.com/BseIndiaAPI/api/ListofScripData/w?segment=equity&status=Active", cfg.BSE.MasterJSONURL)
	assert.Contains(t, cfg.BSE.MasterPageURL, "List_Scrips.aspx")
	// Both warm-up pages are required before the listing API serves data.
	assert.Equal(t, []string{
		"https://www.bseindia.com",
		"https://www.bseindia.com/markets/equity/EQReports/MarketWatch.aspx",
	}, cfg.BSE.WarmupURLs)
	assert.Equal(t, "https://www.nseindia.com", cfg.NSE.Base)
	assert.Equal(t, 0, cfg.Batch.CompanyDelaySecs)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
http:
  min_doc_bytes: 4096
nse:
  base: https://nse.test
batch:
  company_delay_secs: 2
log:
  level: debug
  format: console
server:
  port: 9090
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 4096, cfg.HTTP.MinDocBytes)
	assert.Equal(t, "https://nse.test", cfg.NSE.Base)
	assert.Equal(t, 2, cfg.Batch.CompanyDelaySecs)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
	// Untouched keys keep their defaults.
	assert.Equal(t, "https://api.bseindia.com/BseIndiaAPI/api", cfg.BSE.APIBase)
}

func TestInitLogger(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	assert.NotNil(t, zap.L())

	assert.Error(t, InitLogger(LogConfig{Level: "nope", Format: "json"}))
}
