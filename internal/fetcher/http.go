package fetcher

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Options configures the HTTP client.
type Options struct {
	UserAgent    string
	Timeout      time.Duration // search/list calls
	DocTimeout   time.Duration // document bodies
	MinDocBytes  int           // smaller responses are disguised error pages
	RateLimiters map[string]*rate.Limiter
}

// ChromeUserAgent is the browser identity both portals expect.
const ChromeUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
	"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

// Client implements Fetcher using net/http with a shared cookie jar.
type Client struct {
	http       *http.Client
	doc        *http.Client
	opts       Options
	limiters   map[string]*rate.Limiter
	defaultLim *rate.Limiter
}

// DefaultRateLimiters returns the per-host politeness limiters.
func DefaultRateLimiters() map[string]*rate.Limiter {
	return map[string]*rate.Limiter{
		"www.nseindia.com": rate.NewLimiter(3, 3),
		"www.bseindia.com": rate.NewLimiter(3, 3),
		"api.bseindia.com": rate.NewLimiter(3, 3),
	}
}

// New creates a Client with the given options.
func New(opts Options) *Client {
	if opts.UserAgent == "" {
		opts.UserAgent = ChromeUserAgent
	}
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.DocTimeout == 0 {
		opts.DocTimeout = 60 * time.Second
	}
	if opts.MinDocBytes == 0 {
		opts.MinDocBytes = 1000
	}
	limiters := make(map[string]*rate.Limiter)
	for k, v := range opts.RateLimiters {
		limiters[k] = v
	}
	jar, _ := cookiejar.New(nil)
	transport := &http.Transport{
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     90 * time.Second,
	}
	return &Client{
		http: &http.Client{
			Timeout:   opts.Timeout,
			Transport: transport,
			Jar:       jar,
		},
		doc: &http.Client{
			Timeout:   opts.DocTimeout,
			Transport: transport,
			Jar:       jar,
		},
		opts:       opts,
		limiters:   limiters,
		defaultLim: rate.NewLimiter(10, 10),
	}
}

func (c *Client) limiterFor(rawURL string) *rate.Limiter {
	u, err := url.Parse(rawURL)
	if err != nil {
		return c.defaultLim
	}
	if lim, ok := c.limiters[u.Host]; ok {
		return lim
	}
	return c.defaultLim
}

// headersFor builds the browser-like header set with the exchange-appropriate
// referring page. BSE additionally requires a matching Origin header.
func (c *Client) headersFor(rawURL string) http.Header {
	h := http.Header{}
	h.Set("User-Agent", c.opts.UserAgent)
	h.Set("Accept", "application/json, text/plain, */*")
	switch {
	case strings.Contains(rawURL, "nseindia"):
		h.Set("Referer", "https://www.nseindia.com/")
		h.Set("Accept-Language", "en-US,en;q=0.9")
	case strings.Contains(rawURL, "bseindia"):
		h.Set("Referer", "https://www.bseindia.com/")
		h.Set("Origin", "https://www.bseindia.com")
	default:
		h.Set("Referer", "https://www.google.com/")
	}
	return h
}

func (c *Client) newRequest(ctx context.Context, method, rawURL string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "fetcher: create request")
	}
	req.Header = c.headersFor(rawURL)
	return req, nil
}

// Prime performs best-effort warm-up requests so the jar holds the session
// cookies the data endpoints check for. Errors are logged and ignored.
func (c *Client) Prime(ctx context.Context, urls ...string) {
	for _, rawURL := range urls {
		req, err := c.newRequest(ctx, http.MethodGet, rawURL)
		if err != nil {
			continue
		}
		if err := c.limiterFor(rawURL).Wait(ctx); err != nil {
			return
		}
		resp, err := c.http.Do(req)
		if err != nil {
			zap.L().Debug("fetcher: warm-up request failed",
				zap.String("url", rawURL),
				zap.Error(err),
			)
			continue
		}
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}
}

// GetJSON fetches the URL and decodes the body as untyped JSON.
func (c *Client) GetJSON(ctx context.Context, rawURL string) (any, error) {
	req, err := c.newRequest(ctx, http.MethodGet, rawURL)
	if err != nil {
		return nil, err
	}
	if err := c.limiterFor(rawURL).Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "fetcher: rate limiter wait")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "fetcher: get json")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("fetcher: unexpected status %d from %s", resp.StatusCode, rawURL)
	}

	var payload any
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, eris.Wrap(err, "fetcher: decode json")
	}
	return payload, nil
}

// GetHTML fetches the URL and returns the raw body for HTML parsing.
func (c *Client) GetHTML(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := c.newRequest(ctx, http.MethodGet, rawURL)
	if err != nil {
		return nil, err
	}
	if err := c.limiterFor(rawURL).Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "fetcher: rate limiter wait")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "fetcher: get html")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("fetcher: unexpected status %d from %s", resp.StatusCode, rawURL)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "fetcher: read body")
	}
	return body, nil
}

// FetchDocument retrieves the document bytes with the longer timeout. A body
// below the minimum byte threshold is reported as a failure, never returned.
func (c *Client) FetchDocument(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := c.newRequest(ctx, http.MethodGet, rawURL)
	if err != nil {
		return nil, err
	}
	if err := c.limiterFor(rawURL).Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "fetcher: rate limiter wait")
	}

	resp, err := c.doc.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "fetcher: fetch document")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("fetcher: unexpected status %d from %s", resp.StatusCode, rawURL)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "fetcher: read document body")
	}
	if len(data) < c.opts.MinDocBytes {
		return nil, eris.Errorf("fetcher: response too small (%d bytes) from %s, likely an error page",
			len(data), rawURL)
	}
	return data, nil
}

// Probe performs a HEAD existence check. Any transport failure or status
// >= 400 reports false; some deployments block HEAD outright, so callers
// must tolerate a false negative.
func (c *Client) Probe(ctx context.Context, rawURL string) bool {
	req, err := c.newRequest(ctx, http.MethodHead, rawURL)
	if err != nil {
		return false
	}
	if err := c.limiterFor(rawURL).Wait(ctx); err != nil {
		return false
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return false
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
	return resp.StatusCode < 400
}
