package source

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/bayhub-app/deals/internal/config"
	"github.com/bayhub-app/deals/internal/models"
	"github.com/bayhub-app/deals/internal/util"
)

// maxFeedBytes bounds how much of an upstream response is read.
const maxFeedBytes = 4 << 20

// Feed pairs an adapter with its endpoint.
type Feed struct {
	Adapter *Adapter
	URL     string
}

// Result is the outcome of fetching one source. A failed or timed-out source
// yields Records == nil with Err set; callers treat that as an empty feed, not
// an aggregate failure.
type Result struct {
	Source  string
	Records []models.RawDealRecord
	Skipped int
	Err     error
}

// Fetcher retrieves all configured feeds for one aggregation cycle.
type Fetcher interface {
	FetchAll(ctx context.Context) []Result
}

type Client struct {
	httpClient *http.Client
	feeds      []Feed
	retries    int
	timeout    time.Duration
}

// New builds a client over the configured feeds, ordered by source priority.
// Feeds with no configured URL are kept so their soft failure is reported.
func New(cfg *config.Config) *Client {
	byName := map[string]Feed{
		config.SourceFood:    {Adapter: FoodAdapter(), URL: cfg.FoodFeedURL},
		config.SourceCoupons: {Adapter: CouponAdapter(), URL: cfg.CouponFeedURL},
		config.SourceForum:   {Adapter: ForumAdapter(), URL: cfg.ForumFeedURL},
	}

	feeds := make([]Feed, 0, len(cfg.SourcePriority))
	for _, name := range cfg.SourcePriority {
		if feed, ok := byName[name]; ok {
			feeds = append(feeds, feed)
		}
	}

	return &Client{
		httpClient: &http.Client{Timeout: cfg.SourceTimeout},
		feeds:      feeds,
		retries:    cfg.SourceRetries,
		timeout:    cfg.SourceTimeout,
	}
}

// FetchAll fetches every feed concurrently and returns one Result per feed in
// source-priority order. Each branch is isolated: a network failure, non-2xx
// status, or malformed envelope degrades that source to an empty result and
// never aborts the others.
func (c *Client) FetchAll(ctx context.Context) []Result {
	results := make([]Result, len(c.feeds))

	g, gctx := errgroup.WithContext(ctx)
	for i, feed := range c.feeds {
		g.Go(func() error {
			results[i] = c.fetchOne(gctx, feed)
			// Per-branch errors are absorbed into the Result.
			return nil
		})
	}
	_ = g.Wait()

	for _, res := range results {
		if res.Err != nil {
			slog.Warn("Source degraded to empty", "source", res.Source, "error", res.Err)
		}
	}
	return results
}

func (c *Client) fetchOne(ctx context.Context, feed Feed) Result {
	res := Result{Source: feed.Adapter.Source}
	if feed.URL == "" {
		res.Err = fmt.Errorf("no endpoint configured for source %s", feed.Adapter.Source)
		return res
	}

	var body []byte
	err := util.RetryWithBackoff(ctx, c.retries, func(attempt int) error {
		fetchCtx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		var fetchErr error
		body, fetchErr = c.fetchBody(fetchCtx, feed.URL)
		if fetchErr != nil && attempt < c.retries {
			slog.Warn("Feed fetch attempt failed", "source", feed.Adapter.Source, "attempt", attempt+1, "error", fetchErr)
		}
		return fetchErr
	})
	if err != nil {
		res.Err = err
		return res
	}

	res.Records, res.Skipped, res.Err = feed.Adapter.Parse(body)
	if res.Skipped > 0 {
		slog.Info("Skipped unparseable feed records", "source", feed.Adapter.Source, "skipped", res.Skipped)
	}
	return res
}

func (c *Client) fetchBody(ctx context.Context, urlStr string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request for %s: %w", urlStr, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", urlStr, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch %s: status code %d", urlStr, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read body from %s: %w", urlStr, err)
	}
	return body, nil
}
