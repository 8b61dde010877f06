// Package headless implements extractor.Browser on top of chromedp and a
// headed or headless Chrome instance.
package headless

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/JakeFAU/orgextract/internal/browser/dom"
	"github.com/JakeFAU/orgextract/internal/extractor"
)

const hideWebdriverScript = `Object.defineProperty(navigator, 'webdriver', {get: () => undefined})`

// Config controls the Chrome session.
type Config struct {
	Headless          bool
	UserAgent         string
	AcceptLanguage    string
	WindowWidth       int
	WindowHeight      int
	ExecPath          string
	NavigationTimeout time.Duration
	ActionTimeout     time.Duration
}

// Browser drives one Chrome tab. Query, Text and Attribute are served from a
// DOM snapshot that is refreshed after any call that can change the page.
type Browser struct {
	cfg    Config
	logger *zap.Logger

	allocCancel context.CancelFunc
	tabCtx      context.Context
	tabCancel   context.CancelFunc

	mu       sync.Mutex
	snapshot *dom.Document
}

// New launches Chrome and opens a single tab.
func New(cfg Config, logger *zap.Logger) (*Browser, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.NavigationTimeout <= 0 {
		cfg.NavigationTimeout = 45 * time.Second
	}
	if cfg.ActionTimeout <= 0 {
		cfg.ActionTimeout = 10 * time.Second
	}
	if cfg.WindowWidth <= 0 || cfg.WindowHeight <= 0 {
		cfg.WindowWidth, cfg.WindowHeight = 1920, 1080
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("enable-automation", false),
		chromedp.WindowSize(cfg.WindowWidth, cfg.WindowHeight),
	)
	if cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(cfg.UserAgent))
	}
	if cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
	}
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx, chromedp.WithLogf(logger.Sugar().Debugf))

	b := &Browser{
		cfg:         cfg,
		logger:      logger,
		allocCancel: allocCancel,
		tabCtx:      tabCtx,
		tabCancel:   tabCancel,
	}
	if err := chromedp.Run(tabCtx, b.setupAction()); err != nil {
		b.Close()
		return nil, fmt.Errorf("start chrome: %w", err)
	}
	return b, nil
}

// Close shuts the tab and the browser process.
func (b *Browser) Close() {
	b.tabCancel()
	b.allocCancel()
}

func (b *Browser) setupAction() chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		if err := network.Enable().Do(ctx); err != nil {
			return fmt.Errorf("enable network domain: %w", err)
		}
		if b.cfg.UserAgent != "" {
			override := emulation.SetUserAgentOverride(b.cfg.UserAgent)
			if b.cfg.AcceptLanguage != "" {
				override = override.WithAcceptLanguage(b.cfg.AcceptLanguage)
			}
			if err := override.Do(ctx); err != nil {
				return fmt.Errorf("set user-agent: %w", err)
			}
		}
		if _, err := page.AddScriptToEvaluateOnNewDocument(hideWebdriverScript).Do(ctx); err != nil {
			return fmt.Errorf("hide webdriver flag: %w", err)
		}
		return nil
	})
}

// Navigate loads url in the tab. A load that exceeds NavigationTimeout is
// reported as extractor.ErrNavigationTimeout.
func (b *Browser) Navigate(ctx context.Context, url string) error {
	b.invalidate()
	if err := b.run(ctx, b.cfg.NavigationTimeout, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	return nil
}

// WaitReady blocks until marker matches a node that is ready in the DOM.
func (b *Browser) WaitReady(ctx context.Context, marker extractor.Strategy, timeout time.Duration) error {
	if marker.Kind == extractor.KindPattern {
		return fmt.Errorf("wait on %s: pattern markers are not supported", marker)
	}
	defer b.invalidate()
	if err := b.run(ctx, timeout, chromedp.WaitReady(marker.Expr, queryOption(marker))); err != nil {
		return fmt.Errorf("wait on %s: %w", marker, err)
	}
	return nil
}

// Query evaluates s against the current DOM snapshot.
func (b *Browser) Query(ctx context.Context, s extractor.Strategy, scope extractor.Node) ([]extractor.Node, error) {
	doc, err := b.document(ctx)
	if err != nil {
		return nil, err
	}
	return doc.Query(s, scope)
}

// Text returns the visible text of n.
func (b *Browser) Text(_ context.Context, n extractor.Node) (string, error) {
	return dom.Text(n), nil
}

// Attribute returns the named attribute of n.
func (b *Browser) Attribute(ctx context.Context, n extractor.Node, name string) (string, bool, error) {
	doc, err := b.document(ctx)
	if err != nil {
		return "", false, err
	}
	val, ok := doc.Attribute(n, name)
	return val, ok, nil
}

// Execute evaluates script in the page and discards its result.
func (b *Browser) Execute(ctx context.Context, script string) error {
	defer b.invalidate()
	if err := b.run(ctx, b.cfg.ActionTimeout, chromedp.Evaluate(script, nil)); err != nil {
		return fmt.Errorf("execute script: %w", err)
	}
	return nil
}

// CurrentURL returns the tab location.
func (b *Browser) CurrentURL(ctx context.Context) (string, error) {
	var location string
	if err := b.run(ctx, b.cfg.ActionTimeout, chromedp.Location(&location)); err != nil {
		return "", fmt.Errorf("read location: %w", err)
	}
	return location, nil
}

// PageSource returns the serialized DOM.
func (b *Browser) PageSource(ctx context.Context) (string, error) {
	doc, err := b.document(ctx)
	if err != nil {
		return "", err
	}
	return doc.Source(), nil
}

// Fill replaces the value of the matched input by typing into it.
func (b *Browser) Fill(ctx context.Context, selector extractor.Strategy, value string) error {
	defer b.invalidate()
	by := queryOption(selector)
	err := b.run(ctx, b.cfg.ActionTimeout,
		chromedp.WaitVisible(selector.Expr, by),
		chromedp.SetValue(selector.Expr, "", by),
		chromedp.SendKeys(selector.Expr, value, by),
	)
	if err != nil {
		return fmt.Errorf("fill %s: %w", selector, err)
	}
	return nil
}

// Click clicks the first visible element matched by selector.
func (b *Browser) Click(ctx context.Context, selector extractor.Strategy) error {
	defer b.invalidate()
	if err := b.run(ctx, b.cfg.ActionTimeout, chromedp.Click(selector.Expr, queryOption(selector), chromedp.NodeVisible)); err != nil {
		return fmt.Errorf("click %s: %w", selector, err)
	}
	return nil
}

func (b *Browser) document(ctx context.Context) (*dom.Document, error) {
	b.mu.Lock()
	cached := b.snapshot
	b.mu.Unlock()
	if cached != nil {
		return cached, nil
	}

	var (
		source   string
		location string
	)
	err := b.run(ctx, b.cfg.ActionTimeout,
		chromedp.Location(&location),
		chromedp.OuterHTML("html", &source, chromedp.ByQuery),
	)
	if err != nil {
		return nil, fmt.Errorf("snapshot dom: %w", err)
	}
	doc, err := dom.Parse(source, location)
	if err != nil {
		return nil, err
	}
	b.mu.Lock()
	b.snapshot = doc
	b.mu.Unlock()
	return doc, nil
}

func (b *Browser) invalidate() {
	b.mu.Lock()
	b.snapshot = nil
	b.mu.Unlock()
}

// run executes actions on the tab, bounded by timeout and by the caller's ctx.
func (b *Browser) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithTimeout(b.tabCtx, timeout)
	defer cancel()
	stop := forwardCancel(ctx, cancel)
	defer stop()

	err := chromedp.Run(runCtx, actions...)
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w after %s: %v", extractor.ErrNavigationTimeout, timeout, err)
	}
	return err
}

// forwardCancel cancels the chromedp context when parent is done.
func forwardCancel(parent context.Context, cancel context.CancelFunc) func() {
	if parent == nil || parent.Done() == nil {
		return func() {}
	}
	done := make(chan struct{})
	go func() {
		select {
		case <-parent.Done():
			cancel()
		case <-done:
		}
	}()
	return func() { close(done) }
}

func queryOption(s extractor.Strategy) chromedp.QueryOption {
	if s.Kind == extractor.KindXPath {
		return chromedp.BySearch
	}
	return chromedp.ByQuery
}
