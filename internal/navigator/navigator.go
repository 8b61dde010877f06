// Package navigator owns every page transition of a session: it enforces the
// authentication gate, rate limits navigations, waits for readiness and paces
// the session.
package navigator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/orgextract/internal/extractor"
	"github.com/JakeFAU/orgextract/internal/metrics"
	"github.com/JakeFAU/orgextract/internal/selector"
)

const (
	scrollMidpoint = "window.scrollTo(0, document.body.scrollHeight/2);"
	scrollBottom   = "window.scrollTo(0, document.body.scrollHeight);"
	scrollTop      = "window.scrollTo(0, 0);"

	defaultReadyTimeout = 15 * time.Second
)

// Limiter throttles navigations.
type Limiter interface {
	Wait(ctx context.Context, url string) error
}

type unlimited struct{}

func (unlimited) Wait(context.Context, string) error { return nil }

// Options configure a Navigator.
type Options struct {
	ReadyTimeout time.Duration
	Delays       DelayPolicy
	Limiter      Limiter
	Logger       *zap.Logger
}

// Navigator performs guarded page transitions.
type Navigator struct {
	browser      extractor.Browser
	gate         extractor.SessionGate
	delays       DelayPolicy
	limiter      Limiter
	readyTimeout time.Duration
	logger       *zap.Logger
}

// New builds a Navigator.
func New(browser extractor.Browser, gate extractor.SessionGate, opts Options) *Navigator {
	n := &Navigator{
		browser:      browser,
		gate:         gate,
		delays:       opts.Delays,
		limiter:      opts.Limiter,
		readyTimeout: opts.ReadyTimeout,
		logger:       opts.Logger,
	}
	if n.delays == nil {
		n.delays = NewRandomPolicy(nil)
	}
	if n.limiter == nil {
		n.limiter = unlimited{}
	}
	if n.readyTimeout <= 0 {
		n.readyTimeout = defaultReadyTimeout
	}
	if n.logger == nil {
		n.logger = zap.NewNop()
	}
	return n
}

// Goto navigates to url. It refuses with extractor.ErrNotAuthenticated unless
// the session is authenticated.
func (n *Navigator) Goto(ctx context.Context, url string) error {
	if n.gate == nil || n.gate.State() != extractor.Authenticated {
		metrics.ObserveNavigation(url, "refused")
		return fmt.Errorf("goto %s: %w", url, extractor.ErrNotAuthenticated)
	}
	return n.navigate(ctx, url)
}

// GotoUnguarded navigates without consulting the session gate. Only the login
// flow uses it.
func (n *Navigator) GotoUnguarded(ctx context.Context, url string) error {
	return n.navigate(ctx, url)
}

func (n *Navigator) navigate(ctx context.Context, url string) error {
	if err := n.limiter.Wait(ctx, url); err != nil {
		return err
	}
	if err := n.browser.Navigate(ctx, url); err != nil {
		if !errors.Is(err, extractor.ErrNavigationTimeout) || ctx.Err() != nil {
			metrics.ObserveNavigation(url, "error")
			return fmt.Errorf("navigate %s: %w", url, err)
		}
		n.timedOut(url, err)
	}
	if err := n.browser.WaitReady(ctx, selector.ReadyMarker.Strategies[0], n.readyTimeout); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		n.timedOut(url, err)
		return nil
	}
	metrics.ObserveNavigation(url, "ok")
	return nil
}

func (n *Navigator) timedOut(url string, err error) {
	metrics.ObserveNavigation(url, "timeout")
	metrics.ObserveNavigationTimeout()
	n.logger.Warn("page not ready, continuing", zap.String("url", url), zap.Error(err))
}

// Pause sleeps for the delay of c without touching the page.
func (n *Navigator) Pause(ctx context.Context, c Context) error {
	d := n.delays.Delay(c)
	n.logger.Debug("pausing", zap.Stringer("context", c), zap.Duration("delay", d))
	return Sleep(ctx, d)
}

// Settle lets freshly loaded content render. The About context scrolls to the
// bottom and back to the top; every other context scrolls to the midpoint.
// Scroll failures are logged and ignored.
func (n *Navigator) Settle(ctx context.Context, c Context) error {
	if c == About {
		n.scroll(ctx, scrollBottom)
		if err := n.Pause(ctx, About); err != nil {
			return err
		}
		n.scroll(ctx, scrollTop)
		return n.Pause(ctx, About)
	}
	if err := n.Pause(ctx, c); err != nil {
		return err
	}
	n.scroll(ctx, scrollMidpoint)
	return nil
}

// Execute runs script in the current page.
func (n *Navigator) Execute(ctx context.Context, script string) error {
	return n.browser.Execute(ctx, script)
}

func (n *Navigator) scroll(ctx context.Context, script string) {
	if err := n.browser.Execute(ctx, script); err != nil {
		n.logger.Debug("scroll failed", zap.Error(err))
	}
}
