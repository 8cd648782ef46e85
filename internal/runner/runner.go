// Package runner drives the per-company pipelines over a batch of inputs.
// Companies are processed strictly one at a time so the portals see the
// request pattern of a single browsing user.
package runner

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/report-cli/internal/model"
)

// Selector names which exchanges a run should cover.
type Selector string

const (
	SelectBSE  Selector = "BSE"
	SelectNSE  Selector = "NSE"
	SelectBoth Selector = "BOTH"
)

// ParseSelector normalizes a user-supplied exchange selector.
func ParseSelector(s string) (Selector, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "BSE":
		return SelectBSE, nil
	case "NSE":
		return SelectNSE, nil
	case "BOTH", "":
		return SelectBoth, nil
	}
	return "", eris.Errorf("runner: unknown exchange %q (want BSE, NSE, or BOTH)", s)
}

// Pipeline is one exchange's resolve-locate-fetch chain.
type Pipeline interface {
	Exchange() model.Exchange
	Fetch(ctx context.Context, company string, year int, log *model.RunLog) *model.Document
}

// Result is the outcome of a batch run: every document that could be
// retrieved plus the full narration of what happened, including failures.
type Result struct {
	Documents []*model.Document
	Log       *model.RunLog
}

// Runner executes pipelines sequentially over a company list.
type Runner struct {
	pipelines []Pipeline
	delay     time.Duration
	sleep     func(context.Context, time.Duration)
}

// New creates a runner over the given pipelines. delay is inserted between
// consecutive companies; zero disables it.
func New(pipelines []Pipeline, delay time.Duration) *Runner {
	return &Runner{pipelines: pipelines, delay: delay, sleep: contextSleep}
}

func contextSleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// selected returns the pipelines matching the selector, preserving order.
func (r *Runner) selected(sel Selector) []Pipeline {
	if sel == SelectBoth {
		return r.pipelines
	}
	var out []Pipeline
	for _, p := range r.pipelines {
		if string(p.Exchange()) == string(sel) {
			out = append(out, p)
		}
	}
	return out
}

// Run processes every company against every selected pipeline. A company
// that yields nothing is logged and skipped; it never aborts the batch.
func (r *Runner) Run(ctx context.Context, companies []string, year int, sel Selector) (*Result, error) {
	if err := ValidateYear(year); err != nil {
		return nil, err
	}
	pipelines := r.selected(sel)
	if len(pipelines) == 0 {
		return nil, eris.Errorf("runner: no pipeline for selector %q", sel)
	}

	res := &Result{Log: model.NewRunLog()}
	for i, company := range companies {
		company = strings.TrimSpace(company)
		if company == "" {
			continue
		}
		if i > 0 && r.delay > 0 {
			r.sleep(ctx, r.delay)
		}
		if err := ctx.Err(); err != nil {
			return res, eris.Wrap(err, "runner: batch interrupted")
		}

		res.Log.Logf("=== %s ===", company)
		got := 0
		for _, p := range pipelines {
			doc := p.Fetch(ctx, company, year, res.Log)
			if doc == nil {
				continue
			}
			res.Documents = append(res.Documents, doc)
			got++
		}
		if got == 0 {
			res.Log.Logf("No annual report found for %q (year %d)", company, year)
			zap.L().Warn("runner: company yielded no documents",
				zap.String("company", company), zap.Int("year", year))
		}
	}

	zap.L().Info("runner: batch complete",
		zap.Int("companies", len(companies)),
		zap.Int("documents", len(res.Documents)))
	return res, nil
}

// SplitCompanies parses a newline- or comma-separated company list,
// dropping blanks.
func SplitCompanies(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == '\n' || r == ','
	})
	var out []string
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// ValidateYear rejects years outside the range the portals can serve.
func ValidateYear(year int) error {
	current := time.Now().Year()
	if year < 2000 || year > current {
		return eris.Errorf("runner: year %d out of range (2000..%d)", year, current)
	}
	return nil
}
