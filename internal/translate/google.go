// Package translate converts organization descriptions to the target
// language through Google's web translation endpoint.
package translate

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"

	"github.com/JakeFAU/orgextract/internal/extractor"
)

// Defaults for Config.
const (
	DefaultBaseURL   = "https://translate.google.com"
	DefaultTimeout   = 15 * time.Second
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

	// maxChars is the longest text the endpoint accepts in one request.
	maxChars = 5000
)

// Config controls the Google client.
type Config struct {
	BaseURL   string
	Source    string
	Target    string
	Timeout   time.Duration
	UserAgent string
}

// Google translates with the mobile web endpoint and parses the result page.
type Google struct {
	client *resty.Client
	source string
	target string
}

// NewGoogle builds a Google translator.
func NewGoogle(cfg Config) *Google {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Source == "" {
		cfg.Source = "auto"
	}
	if cfg.Target == "" {
		cfg.Target = "en"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetHeader("user-agent", cfg.UserAgent)
	return &Google{client: client, source: cfg.Source, target: cfg.Target}
}

// Target returns the target language code.
func (g *Google) Target() string {
	return g.target
}

// Translate returns text in the target language.
func (g *Google) Translate(ctx context.Context, text string) (string, error) {
	if len(text) > maxChars {
		return "", fmt.Errorf("%w: text exceeds %d characters", extractor.ErrTranslationUnavailable, maxChars)
	}
	resp, err := g.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"sl": g.source,
			"tl": g.target,
			"hl": g.target,
			"q":  text,
		}).
		Get("/m")
	if err != nil {
		return "", fmt.Errorf("%w: %v", extractor.ErrTranslationUnavailable, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("%w: status %d", extractor.ErrTranslationUnavailable, resp.StatusCode())
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(resp.Body())))
	if err != nil {
		return "", fmt.Errorf("%w: parse result: %v", extractor.ErrTranslationUnavailable, err)
	}
	for _, sel := range []string{"div.result-container", "div.t0"} {
		if out := strings.TrimSpace(doc.Find(sel).First().Text()); out != "" {
			return out, nil
		}
	}
	return "", fmt.Errorf("%w: empty result", extractor.ErrTranslationUnavailable)
}
