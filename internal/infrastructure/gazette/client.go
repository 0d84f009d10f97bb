package gazette

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"DOUMonitor/internal/config"
	"DOUMonitor/internal/domain"
	"DOUMonitor/internal/ports"
)

// Client talks to the two public in.gov.br surfaces: the full-history search
// endpoint and the daily-bulletin (leiturajornal) endpoint. Both return HTML
// with embedded JSON payloads.
type Client struct {
	http      *http.Client
	cfg       config.GazetteConfig
	extractor *Extractor
	logger    *slog.Logger
	sleep     func(ctx context.Context, d time.Duration) error
}

var _ ports.BulletinSource = (*Client)(nil)
var _ ports.ArchiveSearcher = (*Client)(nil)

// NewClient wires an HTTP client; pass nil to use one with the configured timeout.
func NewClient(httpClient *http.Client, cfg config.GazetteConfig, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout()}
	}
	return &Client{
		http:      httpClient,
		cfg:       cfg,
		extractor: NewExtractor(logger),
		logger:    logger,
		sleep:     sleepCtx,
	}
}

// Search requests one page of the public archive search for a term.
func (c *Client) Search(ctx context.Context, q ports.SearchQuery) (ports.SearchPage, error) {
	u, err := url.Parse(c.cfg.SearchURL)
	if err != nil {
		return ports.SearchPage{}, fmt.Errorf("invalid search url %s: %w", c.cfg.SearchURL, err)
	}

	query := u.Query()
	query.Set("q", q.Term)
	section := q.Section
	if section == "" {
		section = c.cfg.Section
	}
	query.Set("s", section)
	if q.FromDate != "" {
		query.Set("publishFrom", q.FromDate)
	}
	if q.ToDate != "" {
		query.Set("publishTo", q.ToDate)
	}
	query.Set("sortType", "0")
	if q.Page > 1 {
		query.Set("currentPage", strconv.Itoa(q.Page))
	}
	u.RawQuery = query.Encode()

	c.logger.Info("searching archive", "url", u.String())

	body, err := c.fetch(ctx, u.String())
	if err != nil {
		return ports.SearchPage{}, err
	}

	return c.extractor.ParseSearch(string(body)), nil
}

// FetchDaily downloads all publications of one edition day from the bulletin
// endpoint.
func (c *Client) FetchDaily(ctx context.Context, day time.Time) ([]domain.Publication, error) {
	dateStr := day.Format("02-01-2006")

	u, err := url.Parse(c.cfg.BulletinURL)
	if err != nil {
		return nil, fmt.Errorf("invalid bulletin url %s: %w", c.cfg.BulletinURL, err)
	}
	query := u.Query()
	query.Set("data", dateStr)
	query.Set("secao", c.cfg.Section)
	u.RawQuery = query.Encode()

	c.logger.Info("downloading bulletin", "url", u.String())

	body, err := c.fetch(ctx, u.String())
	if err != nil {
		return nil, err
	}

	pubs := c.extractor.ParseBulletin(string(body))
	c.logger.Info("bulletin parsed", "date", dateStr, "publications", len(pubs))
	return pubs, nil
}

// fetch issues a GET and retries 429, any other non-2xx status and transport
// errors with exponential backoff. The last failure surfaces to the caller.
func (c *Client) fetch(ctx context.Context, pageURL string) ([]byte, error) {
	attempts := c.cfg.RetryAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		body, err := c.get(ctx, pageURL)
		if err == nil {
			return body, nil
		}
		lastErr = err

		if attempt == attempts {
			break
		}

		delay := c.cfg.RetryBaseDelay() * time.Duration(1<<(attempt-1))
		c.logger.Warn("fetch failed, retrying", "attempt", attempt, "delay", delay, "error", err)
		if sleepErr := c.sleep(ctx, delay); sleepErr != nil {
			return nil, sleepErr
		}
	}

	return nil, fmt.Errorf("fetch %s: %w", pageURL, lastErr)
}

func (c *Client) get(ctx context.Context, pageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "pt-BR,pt;q=0.9,en;q=0.8")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("gazette returned %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	return body, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
