// Package enrich looks for contact details on an organization's own website.
package enrich

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/JakeFAU/orgextract/internal/patterns"
)

// Link keywords that mark pages worth visiting after the home page.
var DefaultLinkKeywords = []string{"contact", "about", "impressum", "kontakt"}

// Config bounds the crawl of one website.
type Config struct {
	MaxPages     int           `mapstructure:"max_pages"`
	Timeout      time.Duration `mapstructure:"timeout"`
	UserAgent    string        `mapstructure:"user_agent"`
	LinkKeywords []string      `mapstructure:"link_keywords"`
}

// Crawler fetches the home page plus a few same-host contact pages with
// colly and scans each body for contacts.
type Crawler struct {
	cfg     Config
	scanner *patterns.Scanner
	logger  *zap.Logger
}

// New builds a Crawler. Zero config values fall back to defaults.
func New(cfg Config, scanner *patterns.Scanner, logger *zap.Logger) *Crawler {
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = 3
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if len(cfg.LinkKeywords) == 0 {
		cfg.LinkKeywords = DefaultLinkKeywords
	}
	if scanner == nil {
		scanner = patterns.NewScanner(patterns.DefaultEmailSkip)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Crawler{cfg: cfg, scanner: scanner, logger: logger}
}

// Enrich crawls website and returns the merged contacts of every page it
// fetched. Failed pages are logged and skipped; an error is returned only
// when the website URL is unusable or the home page could not be visited.
func (c *Crawler) Enrich(ctx context.Context, website string) (patterns.Contacts, error) {
	home, err := homeURL(website)
	if err != nil {
		return patterns.Contacts{}, err
	}
	if err := ctx.Err(); err != nil {
		return patterns.Contacts{}, err
	}

	var (
		mu      sync.Mutex
		found   patterns.Contacts
		visited int
	)

	collector := colly.NewCollector(
		colly.MaxDepth(2),
		colly.IgnoreRobotsTxt(),
	)
	if c.cfg.UserAgent != "" {
		collector.UserAgent = c.cfg.UserAgent
	}
	collector.SetRequestTimeout(c.cfg.Timeout)

	collector.OnRequest(func(r *colly.Request) {
		mu.Lock()
		defer mu.Unlock()
		if ctx.Err() != nil || visited >= c.cfg.MaxPages {
			r.Abort()
			return
		}
		visited++
	})
	collector.OnResponse(func(r *colly.Response) {
		contacts := c.scanner.Scan(string(r.Body))
		mu.Lock()
		found = found.Merge(contacts)
		mu.Unlock()
		c.logger.Debug("enrich page scanned",
			zap.String("url", r.Request.URL.String()),
			zap.Int("emails", len(contacts.Emails)),
			zap.Int("phones", len(contacts.Phones)),
		)
	})
	collector.OnHTML("a[href]", func(e *colly.HTMLElement) {
		link, err := url.Parse(e.Request.AbsoluteURL(e.Attr("href")))
		if err != nil || link.Host != home.Host || !c.interesting(link, e.Text) {
			return
		}
		link.Fragment = ""
		if err := e.Request.Visit(link.String()); err != nil {
			c.logger.Debug("enrich link skipped", zap.String("url", link.String()), zap.Error(err))
		}
	})
	collector.OnError(func(r *colly.Response, err error) {
		c.logger.Warn("enrich fetch failed",
			zap.String("url", r.Request.URL.String()),
			zap.Int("status_code", r.StatusCode),
			zap.Error(err),
		)
	})

	if err := collector.Visit(home.String()); err != nil {
		return patterns.Contacts{}, fmt.Errorf("visit %s: %w", home, err)
	}
	collector.Wait()
	if err := ctx.Err(); err != nil {
		return found, err
	}
	return found, nil
}

func (c *Crawler) interesting(link *url.URL, text string) bool {
	haystack := strings.ToLower(link.Path + " " + text)
	for _, kw := range c.cfg.LinkKeywords {
		if strings.Contains(haystack, kw) {
			return true
		}
	}
	return false
}

func homeURL(website string) (*url.URL, error) {
	site := strings.TrimSpace(website)
	if site == "" {
		return nil, errors.New("website is required")
	}
	if !strings.Contains(site, "://") {
		site = "https://" + site
	}
	u, err := url.Parse(site)
	if err != nil {
		return nil, fmt.Errorf("parse website %q: %w", website, err)
	}
	if u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, fmt.Errorf("website %q is not an http(s) url", website)
	}
	return u, nil
}
