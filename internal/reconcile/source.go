package reconcile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/angelmondragon/sitestock/pkg/config"
	pkgerrors "github.com/angelmondragon/sitestock/pkg/errors"
	"github.com/angelmondragon/sitestock/pkg/logger"
	"github.com/angelmondragon/sitestock/pkg/metrics"
	"github.com/angelmondragon/sitestock/pkg/sheets"
)

const (
	sheetsHost       = "docs.google.com/spreadsheets/d/"
	defaultMaxBytes  = 32 << 20
	defaultTimeout   = 20 * time.Second
	defaultBackoff   = 500 * time.Millisecond
	fetchUserAgent   = "sitestock/1.0"
	sheetsExportPath = "/export?format=xlsx"
)

// RewriteURL turns a spreadsheet editor link into its xlsx export link. Other
// URLs are returned trimmed but otherwise unchanged.
func RewriteURL(raw string) string {
	raw = strings.TrimSpace(raw)
	start := strings.Index(raw, sheetsHost)
	if start < 0 {
		return raw
	}
	idStart := start + len(sheetsHost)
	end := strings.Index(raw[idStart:], "/edit")
	if end <= 0 {
		return raw
	}
	id := raw[idStart : idStart+end]
	return "https://" + sheetsHost + id + sheetsExportPath
}

// Fetcher downloads stock sheets over HTTP with a bounded timeout and retry.
type Fetcher struct {
	client   *http.Client
	retries  uint64
	backoff  time.Duration
	maxBytes int64
	metrics  *metrics.ReconcileMetrics
	logg     *logger.Logger
}

// FetcherOption customises a Fetcher.
type FetcherOption func(*Fetcher)

// WithHTTPClient replaces the HTTP client. Its timeout is left as provided.
func WithHTTPClient(c *http.Client) FetcherOption {
	return func(f *Fetcher) {
		if c != nil {
			f.client = c
		}
	}
}

// WithFetchMetrics attaches fetch counters.
func WithFetchMetrics(m *metrics.ReconcileMetrics) FetcherOption {
	return func(f *Fetcher) { f.metrics = m }
}

// WithFetchLogger attaches a logger.
func WithFetchLogger(logg *logger.Logger) FetcherOption {
	return func(f *Fetcher) {
		if logg != nil {
			f.logg = logg
		}
	}
}

// NewFetcher builds a Fetcher from stock configuration.
func NewFetcher(cfg config.StockConfig, opts ...FetcherOption) *Fetcher {
	timeout := cfg.FetchTimeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	backoff := cfg.RetryBackoff
	if backoff <= 0 {
		backoff = defaultBackoff
	}
	maxBytes := cfg.MaxBytes
	if maxBytes <= 0 {
		maxBytes = defaultMaxBytes
	}
	f := &Fetcher{
		client:   &http.Client{Timeout: timeout},
		retries:  cfg.FetchRetries,
		backoff:  backoff,
		maxBytes: maxBytes,
		logg:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch downloads rawURL after rewriting editor links. Network errors and 5xx
// responses are retried; everything else fails at once.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	target := RewriteURL(rawURL)
	parsed, err := url.Parse(target)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "stock url %q must be an absolute http(s) url", rawURL)
	}

	ctx = f.logg.WithField(ctx, "stock_url", parsed.Redacted())
	var body []byte
	attempt := 0
	backoff := retry.WithMaxRetries(f.retries, retry.NewExponential(f.backoff))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		data, err := f.get(ctx, target)
		if err != nil {
			var retryable *retryableError
			if errors.As(err, &retryable) {
				f.metrics.IncFetch("retry")
				f.logg.Warn(f.logg.WithFields(ctx, map[string]any{"attempt": attempt, "error": err.Error()}), "stock.fetch_retry")
				return retry.RetryableError(retryable.err)
			}
			return err
		}
		body = data
		return nil
	})
	if err != nil {
		f.metrics.IncFetch("error")
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "stock source could not be fetched")
	}
	f.metrics.IncFetch("ok")
	return body, nil
}

type retryableError struct{ err error }

func (e *retryableError) Error() string { return e.err.Error() }
func (e *retryableError) Unwrap() error { return e.err }

func (f *Fetcher) get(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", fetchUserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &retryableError{err: fmt.Errorf("request stock source: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return nil, &retryableError{err: fmt.Errorf("stock source returned %s", resp.Status)}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("stock source returned %s", resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, &retryableError{err: fmt.Errorf("read stock source: %w", err)}
	}
	if int64(len(data)) > f.maxBytes {
		return nil, fmt.Errorf("stock source exceeds %d bytes", f.maxBytes)
	}
	return data, nil
}

// DecodeGrid reads fetched bytes as a headerless grid.
func DecodeGrid(data []byte) ([][]string, error) {
	grid, err := sheets.ReadGrid(data)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "stock source could not be parsed")
	}
	return grid, nil
}

// Load fetches and decodes rawURL.
func (f *Fetcher) Load(ctx context.Context, rawURL string) ([][]string, error) {
	data, err := f.Fetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	return DecodeGrid(data)
}
