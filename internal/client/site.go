package client

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"artworks/crawler/internal/config"
	"artworks/crawler/internal/crawler"
	"artworks/crawler/internal/proxy"

	log "github.com/sirupsen/logrus"
	"go.uber.org/ratelimit"
	"resty.dev/v3"
)

// SiteClient fetches pages from the catalog site and parses them
type SiteClient interface {
	FetchPage(ctx context.Context, url string) (*crawler.Page, error)
}

type siteClient struct {
	rl            ratelimit.Limiter
	httpClient    *resty.Client
	proxySupplier proxy.ProxySupplier
	timeout       time.Duration

	// Circuit breaker for 429 responses
	circuitBreakerMutex sync.RWMutex
	blockedUntil        time.Time
	circuitBreakerDelay time.Duration
}

// BlockedError is returned while the circuit breaker keeps requests disabled
type BlockedError struct {
	Until time.Time
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("circuit breaker is open - requests disabled for %v more", e.RetryAfter().Round(time.Second))
}

// RetryAfter is how long callers should wait before fetching again.
func (e *BlockedError) RetryAfter() time.Duration {
	return max(0, time.Until(e.Until))
}

func NewSiteClient(cfg config.CrawlerConfig, proxySupplier proxy.ProxySupplier) SiteClient {
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(cfg.MaxRetries).
		SetRetryWaitTime(1*time.Second).
		SetRetryMaxWaitTime(10*time.Second).
		SetHeader("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36").
		SetHeader("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8").
		SetHeader("Accept-Language", "en-US,en;q=0.5")

	if proxySupplier != nil {
		if proxyURL := proxySupplier.Get(); proxyURL != "" {
			client.SetProxy(proxyURL)
			log.Infof("🔗 Using initial proxy: %s", proxyURL)
		}
	}

	rl := ratelimit.NewUnlimited()
	if cfg.MaxRequestsPerSecond > 0 {
		rl = ratelimit.New(cfg.MaxRequestsPerSecond)
	}

	return &siteClient{
		rl:                  rl,
		httpClient:          client,
		proxySupplier:       proxySupplier,
		timeout:             timeout,
		circuitBreakerDelay: 5 * time.Minute,
	}
}

func (c *siteClient) FetchPage(ctx context.Context, url string) (*crawler.Page, error) {
	html, err := c.fetchHTML(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}

	page, err := crawler.NewPageFromString(url, html)
	if err != nil {
		return nil, err
	}

	log.Debugf("Fetched and parsed %s", url)
	return page, nil
}

func (c *siteClient) isCircuitBreakerOpen() (bool, time.Time) {
	c.circuitBreakerMutex.RLock()
	defer c.circuitBreakerMutex.RUnlock()

	return time.Now().Before(c.blockedUntil), c.blockedUntil
}

func (c *siteClient) triggerCircuitBreaker() time.Time {
	c.circuitBreakerMutex.Lock()
	defer c.circuitBreakerMutex.Unlock()

	c.blockedUntil = time.Now().Add(c.circuitBreakerDelay)
	log.Warnf("🚫 Circuit breaker activated! Requests disabled until %v",
		c.blockedUntil.Format("15:04:05"))
	return c.blockedUntil
}

func (c *siteClient) get(ctx context.Context, url string) (*resty.Response, error) {
	reqCtx, cancel := context.WithTimeout(ctx, 3*c.timeout)
	defer cancel()

	resp, err := c.httpClient.R().
		SetContext(reqCtx).
		Get(url)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("request cancelled: %w", ctx.Err())
		}
		return nil, fmt.Errorf("failed to fetch URL: %w", err)
	}
	return resp, nil
}

func (c *siteClient) fetchHTML(ctx context.Context, url string) (string, error) {
	if open, until := c.isCircuitBreakerOpen(); open {
		return "", &BlockedError{Until: until}
	}

	c.rl.Take()

	resp, err := c.get(ctx, url)
	if err != nil {
		return "", err
	}

	if resp.StatusCode() == http.StatusTooManyRequests {
		log.Warnf("🚫 Rate limited on %s", url)

		if c.proxySupplier != nil && c.proxySupplier.Len() > 0 {
			newProxy := c.proxySupplier.Get()
			log.Infof("🔄 Switching to proxy %s and retrying", newProxy)
			c.httpClient.SetProxy(newProxy)

			resp, err = c.get(ctx, url)
			if err != nil {
				return "", err
			}
		}

		if resp.StatusCode() == http.StatusTooManyRequests {
			until := c.triggerCircuitBreaker()
			return "", fmt.Errorf("rate limited - circuit breaker activated: %w", &BlockedError{Until: until})
		}
	}

	if resp.IsError() {
		return "", fmt.Errorf("HTTP error: %d %s", resp.StatusCode(), strings.TrimSpace(resp.Status()))
	}

	return resp.String(), nil
}
