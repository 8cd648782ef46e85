// Package model defines the data types flowing through the report pipeline.
package model

import (
	"fmt"
	"strings"
)

// Exchange identifies one of the two supported stock exchanges.
type Exchange string

const (
	ExchangeBSE Exchange = "BSE"
	ExchangeNSE Exchange = "NSE"
)

// ResolvedCompany is the outcome of identifier resolution: the exchange's
// primary key for the security plus a display name. Resolution is best-effort,
// so repeated calls may return a different match if the exchange's backing
// data changes.
type ResolvedCompany struct {
	Code string `json:"code"` // scrip code (BSE) or trading symbol (NSE)
	Name string `json:"name"`
}

// ReportEntry is one exchange-reported filing period with its document
// reference, normalized from whatever field names the exchange used.
type ReportEntry struct {
	PeriodLabel string `json:"period_label"`
	DocumentRef string `json:"document_ref"`
}

// ISINCandidate is a cross-exchange bridge hit: an NSE search result carrying
// the ISIN used to look the security up on BSE.
type ISINCandidate struct {
	Symbol string
	Name   string
	ISIN   string
}

// Document is the terminal artifact of one successful pipeline run.
type Document struct {
	Exchange Exchange `json:"exchange"`
	Company  string   `json:"company"`
	Filename string   `json:"filename"`
	Data     []byte   `json:"-"`
}

var filenameReplacer = strings.NewReplacer(
	"<", "_", ">", "_", ":", "_", `"`, "_",
	"/", "_", `\`, "_", "|", "_", "?", "_", "*", "_",
)

// SanitizeFilename replaces filesystem-unsafe characters with underscores.
func SanitizeFilename(name string) string {
	return strings.TrimSpace(filenameReplacer.Replace(name))
}

// ReportFilename builds the canonical output filename for a fetched report.
func ReportFilename(ex Exchange, company string, year int) string {
	return SanitizeFilename(fmt.Sprintf("%s_%s_%d_AnnualReport.pdf", ex, company, year))
}
