// Package session authenticates the browsing session and exposes its state.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/orgextract/internal/extractor"
	"github.com/JakeFAU/orgextract/internal/navigator"
	"github.com/JakeFAU/orgextract/internal/selector"
)

const submitScript = `(function(){var f=document.querySelector('form'); if (f) { f.submit(); }})();`

// Defaults for Config.
const (
	DefaultLoginURL     = "https://www.linkedin.com/login"
	DefaultSubmitWait   = 8 * time.Second
	DefaultFieldTimeout = 10 * time.Second
)

// DefaultSuccessFragments mark a post-login location.
var DefaultSuccessFragments = []string{"feed", "mynetwork", "in/", "home"}

var challengeFragments = []string{"/checkpoint/challenge", "/checkpoint/lg/"}

// Credentials are used exactly as supplied.
type Credentials struct {
	Email    string
	Password string
}

// Config controls the login flow.
type Config struct {
	LoginURL         string
	SubmitWait       time.Duration
	FieldTimeout     time.Duration
	SuccessFragments []string
}

// Navigator is the unguarded transition the login flow needs.
type Navigator interface {
	GotoUnguarded(ctx context.Context, url string) error
}

// Controller owns the session state machine:
// Unauthenticated -> Authenticating -> Authenticated | Failed. Failed is
// terminal.
type Controller struct {
	browser  extractor.Browser
	nav      Navigator
	resolver *selector.Resolver
	creds    Credentials
	cfg      Config
	logger   *zap.Logger

	mu     sync.RWMutex
	state  extractor.SessionState
	reason string
}

// New builds a Controller in the Unauthenticated state.
func New(browser extractor.Browser, nav Navigator, creds Credentials, cfg Config, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.LoginURL == "" {
		cfg.LoginURL = DefaultLoginURL
	}
	if cfg.SubmitWait < 0 {
		cfg.SubmitWait = 0
	}
	if cfg.FieldTimeout <= 0 {
		cfg.FieldTimeout = DefaultFieldTimeout
	}
	if len(cfg.SuccessFragments) == 0 {
		cfg.SuccessFragments = DefaultSuccessFragments
	}
	return &Controller{
		browser:  browser,
		nav:      nav,
		resolver: selector.New(browser, logger),
		creds:    creds,
		cfg:      cfg,
		logger:   logger,
	}
}

// State returns the current session state.
func (c *Controller) State() extractor.SessionState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Reason describes why the session failed; empty otherwise.
func (c *Controller) Reason() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.reason
}

// Authenticate logs in once. An authenticated session returns nil without
// acting; a failed session returns extractor.ErrAuthenticationFailed without
// touching the browser.
func (c *Controller) Authenticate(ctx context.Context) error {
	c.mu.Lock()
	switch c.state {
	case extractor.Authenticated:
		c.mu.Unlock()
		return nil
	case extractor.Failed:
		reason := c.reason
		c.mu.Unlock()
		return fmt.Errorf("%w: %s", extractor.ErrAuthenticationFailed, reason)
	case extractor.Authenticating:
		c.mu.Unlock()
		return errors.New("authentication already in progress")
	}
	c.state = extractor.Authenticating
	c.mu.Unlock()

	if err := c.login(ctx); err != nil {
		return c.fail(err)
	}
	c.mu.Lock()
	c.state = extractor.Authenticated
	c.mu.Unlock()
	c.logger.Info("session authenticated")
	return nil
}

func (c *Controller) login(ctx context.Context) error {
	if c.creds.Email == "" || c.creds.Password == "" {
		return errors.New("credentials missing")
	}
	if err := c.nav.GotoUnguarded(ctx, c.cfg.LoginURL); err != nil {
		return fmt.Errorf("open login page: %w", err)
	}
	if err := c.waitForForm(ctx); err != nil {
		return err
	}
	if err := c.fill(ctx, selector.LoginUsername, c.creds.Email); err != nil {
		return err
	}
	if err := c.fill(ctx, selector.LoginPassword, c.creds.Password); err != nil {
		return err
	}
	c.submit(ctx)

	if err := navigator.Sleep(ctx, c.cfg.SubmitWait); err != nil {
		return err
	}
	location, err := c.browser.CurrentURL(ctx)
	if err != nil {
		return fmt.Errorf("read post-login location: %w", err)
	}
	lower := strings.ToLower(location)
	for _, frag := range challengeFragments {
		if strings.Contains(lower, frag) {
			return fmt.Errorf("checkpoint challenge at %s", location)
		}
	}
	if _, _, found := c.resolver.ResolveNodes(ctx, selector.Challenge, nil); found {
		return errors.New("captcha challenge present")
	}
	for _, frag := range c.cfg.SuccessFragments {
		if strings.Contains(lower, strings.ToLower(frag)) {
			return nil
		}
	}
	return fmt.Errorf("unexpected post-login location %s", location)
}

func (c *Controller) waitForForm(ctx context.Context) error {
	first := selector.LoginUsername.Strategies[0]
	err := c.browser.WaitReady(ctx, first, c.cfg.FieldTimeout)
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	c.logger.Debug("username field not ready", zap.Error(err))
	if _, _, ok := c.resolver.ResolveNodes(ctx, selector.LoginUsername, nil); ok {
		return nil
	}
	return fmt.Errorf("login form absent: %w", extractor.ErrLookupAbsent)
}

func (c *Controller) fill(ctx context.Context, chain extractor.SelectorChain, value string) error {
	var lastErr error
	for _, s := range chain.Strategies {
		if lastErr = c.browser.Fill(ctx, s, value); lastErr == nil {
			return nil
		}
	}
	return fmt.Errorf("fill %s: %w", chain.Field, lastErr)
}

// submit clicks the submit button, falling back to a scripted form submit.
func (c *Controller) submit(ctx context.Context) {
	for _, s := range selector.LoginSubmit.Strategies {
		err := c.browser.Click(ctx, s)
		if err == nil {
			return
		}
		c.logger.Debug("submit click failed", zap.Stringer("strategy", s), zap.Error(err))
	}
	if err := c.browser.Execute(ctx, submitScript); err != nil {
		c.logger.Warn("scripted submit failed", zap.Error(err))
	}
}

func (c *Controller) fail(err error) error {
	c.mu.Lock()
	c.state = extractor.Failed
	c.reason = err.Error()
	c.mu.Unlock()
	c.logger.Error("authentication failed", zap.Error(err))
	return fmt.Errorf("%w: %v", extractor.ErrAuthenticationFailed, err)
}

var _ extractor.SessionGate = (*Controller)(nil)
