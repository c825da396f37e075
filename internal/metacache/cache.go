// Package metacache resolves and caches preview images per deal URL. It is
// the only shared mutable state across consumers: written by the resolution
// path, read by any number of renderers, keyed by URL because the same URL
// recurs across cycles and sources.
package metacache

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/bayhub-app/deals/internal/config"
)

// Entry is one cached metadata record. Image is empty when the last fetch
// found nothing; such entries carry the shorter negative TTL so dead URLs are
// retried without being hammered.
type Entry struct {
	Image     string        `json:"image,omitempty"`
	FetchedAt time.Time     `json:"fetched_at"`
	TTL       time.Duration `json:"ttl"`
}

// Fresh reports whether the entry is still within its TTL.
func (e Entry) Fresh(now time.Time) bool {
	return now.Sub(e.FetchedAt) < e.TTL
}

// Update is broadcast to subscribers when an image resolves, so an
// already-rendered consumer can replace its placeholder out-of-band.
type Update struct {
	URL   string
	Image string
}

type Cache struct {
	mu      sync.RWMutex
	entries map[string]Entry
	subs    map[int]func(Update)
	nextSub int

	group      singleflight.Group
	limiter    *rate.Limiter
	httpClient *http.Client

	ttl         time.Duration
	negativeTTL time.Duration

	// now is swappable for TTL tests.
	now func() time.Time
}

func New(cfg *config.Config) *Cache {
	return &Cache{
		entries:     make(map[string]Entry),
		subs:        make(map[int]func(Update)),
		limiter:     rate.NewLimiter(rate.Limit(cfg.MetadataRatePerSec), 1),
		httpClient:  &http.Client{Timeout: 10 * time.Second},
		ttl:         cfg.MetadataTTL,
		negativeTTL: cfg.MetadataNegativeTTL,
		now:         time.Now,
	}
}

// Get returns the cached entry for a URL. Synchronous and non-blocking:
// consumers render a placeholder when no entry exists yet.
func (c *Cache) Get(url string) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[url]
	return entry, ok
}

// Resolve returns the preview image for a URL, fetching when no fresh entry
// exists. A stale entry is served immediately while a refresh proceeds in the
// background (stale-while-revalidate); the caller is never blocked on a
// refresh it didn't cause. Concurrent resolutions of the same URL are
// coalesced into one network fetch.
func (c *Cache) Resolve(ctx context.Context, url string) (string, error) {
	if entry, ok := c.Get(url); ok {
		if entry.Fresh(c.now()) {
			return entry.Image, nil
		}
		go func() {
			refreshCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 15*time.Second)
			defer cancel()
			c.refresh(refreshCtx, url)
		}()
		return entry.Image, nil
	}
	return c.refresh(ctx, url)
}

// refresh performs the coalesced fetch-store-broadcast cycle for one URL.
func (c *Cache) refresh(ctx context.Context, url string) (string, error) {
	v, err, _ := c.group.Do(url, func() (interface{}, error) {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", err
		}

		image, fetchErr := c.fetchImage(ctx, url)
		entry := Entry{Image: image, FetchedAt: c.now(), TTL: c.ttl}
		if fetchErr != nil || image == "" {
			// Negative entry: placeholder stays, retry after the shorter TTL.
			entry.Image = ""
			entry.TTL = c.negativeTTL
		}

		c.mu.Lock()
		c.entries[url] = entry
		c.mu.Unlock()

		if entry.Image != "" {
			c.broadcast(Update{URL: url, Image: entry.Image})
		}
		return entry.Image, fetchErr
	})
	image, _ := v.(string)
	return image, err
}

// Subscribe registers a callback for resolved-image updates and returns an id
// for Unsubscribe. Callbacks run outside the cache lock and must not block
// for long.
func (c *Cache) Subscribe(fn func(Update)) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextSub++
	c.subs[c.nextSub] = fn
	return c.nextSub
}

func (c *Cache) Unsubscribe(id int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.subs, id)
}

func (c *Cache) broadcast(update Update) {
	c.mu.RLock()
	callbacks := make([]func(Update), 0, len(c.subs))
	for _, fn := range c.subs {
		callbacks = append(callbacks, fn)
	}
	c.mu.RUnlock()

	for _, fn := range callbacks {
		fn(update)
	}
}

// Reset clears all entries and subscribers. Test isolation hook.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]Entry)
	c.subs = make(map[int]func(Update))
}

// fetchImage pulls the page at url and extracts a preview image: og:image,
// then twitter:image, then the first plain <img>.
func (c *Cache) fetchImage(ctx context.Context, urlStr string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request for %s: %w", urlStr, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch %s: %w", urlStr, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to fetch %s: status code %d", urlStr, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML from %s: %w", urlStr, err)
	}

	if img, ok := doc.Find(`meta[property="og:image"]`).Attr("content"); ok && strings.TrimSpace(img) != "" {
		return strings.TrimSpace(img), nil
	}
	if img, ok := doc.Find(`meta[name="twitter:image"]`).Attr("content"); ok && strings.TrimSpace(img) != "" {
		return strings.TrimSpace(img), nil
	}
	if img, ok := doc.Find("img").First().Attr("src"); ok && strings.TrimSpace(img) != "" {
		return strings.TrimSpace(img), nil
	}
	return "", nil
}
