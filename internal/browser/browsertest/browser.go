// Package browsertest provides a scripted, in-memory extractor.Browser for
// exercising the engine without Chrome.
package browsertest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/JakeFAU/orgextract/internal/browser/dom"
	"github.com/JakeFAU/orgextract/internal/extractor"
)

const blankPage = `<html><head></head><body></body></html>`

// Browser serves registered HTML pages by exact URL. Unknown URLs load an
// empty body. All recorded interactions can be inspected after a run.
type Browser struct {
	mu sync.Mutex

	pages        map[string]string
	navigateErrs map[string]error
	queryErrs    map[string]error
	redirects    map[string]string
	submitURL    string
	clickErr     error

	current string
	doc     *dom.Document

	navigations []string
	scripts     []string
	fills       map[string]string
	clicks      []string
}

// New returns an empty Browser positioned on about:blank.
func New() *Browser {
	doc, _ := dom.Parse(blankPage, "")
	return &Browser{
		pages:        map[string]string{},
		navigateErrs: map[string]error{},
		queryErrs:    map[string]error{},
		redirects:    map[string]string{},
		fills:        map[string]string{},
		current:      "about:blank",
		doc:          doc,
	}
}

// SetPage registers the HTML served for url.
func (b *Browser) SetPage(url, html string) *Browser {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pages[url] = html
	return b
}

// FailNavigate makes Navigate(url) return err.
func (b *Browser) FailNavigate(url string, err error) *Browser {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.navigateErrs[url] = err
	return b
}

// FailQuery makes any query with the given expression return err.
func (b *Browser) FailQuery(expr string, err error) *Browser {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.queryErrs[expr] = err
	return b
}

// RedirectOnClick loads url after a click on the element matched by expr.
func (b *Browser) RedirectOnClick(expr, url string) *Browser {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.redirects[expr] = url
	return b
}

// RedirectOnSubmit loads url after a script that submits a form runs.
func (b *Browser) RedirectOnSubmit(url string) *Browser {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.submitURL = url
	return b
}

// FailClicks makes every Click return err.
func (b *Browser) FailClicks(err error) *Browser {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.clickErr = err
	return b
}

// Navigations returns every URL passed to Navigate, in order.
func (b *Browser) Navigations() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.navigations...)
}

// Scripts returns every executed script, in order.
func (b *Browser) Scripts() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.scripts...)
}

// Clicks returns the expressions of every clicked selector.
func (b *Browser) Clicks() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.clicks...)
}

// Filled returns the value last filled into the input matched by expr.
func (b *Browser) Filled(expr string) (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	v, ok := b.fills[expr]
	return v, ok
}

// Navigate records url and loads its registered page.
func (b *Browser) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.navigations = append(b.navigations, url)
	if err, ok := b.navigateErrs[url]; ok {
		return err
	}
	return b.loadLocked(url)
}

func (b *Browser) loadLocked(url string) error {
	source, ok := b.pages[url]
	if !ok {
		source = blankPage
	}
	doc, err := dom.Parse(source, url)
	if err != nil {
		return err
	}
	b.current = url
	b.doc = doc
	return nil
}

// WaitReady succeeds immediately when the marker is present and reports a
// navigation timeout otherwise.
func (b *Browser) WaitReady(ctx context.Context, marker extractor.Strategy, timeout time.Duration) error {
	nodes, err := b.Query(ctx, marker, nil)
	if err != nil {
		return err
	}
	if len(nodes) == 0 {
		return fmt.Errorf("wait on %s: %w after %s", marker, extractor.ErrNavigationTimeout, timeout)
	}
	return nil
}

// Query evaluates s on the current page.
func (b *Browser) Query(ctx context.Context, s extractor.Strategy, scope extractor.Node) ([]extractor.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if err, ok := b.queryErrs[s.Expr]; ok {
		return nil, err
	}
	return b.doc.Query(s, scope)
}

// Text returns the visible text of n.
func (b *Browser) Text(_ context.Context, n extractor.Node) (string, error) {
	return dom.Text(n), nil
}

// Attribute returns the named attribute of n.
func (b *Browser) Attribute(_ context.Context, n extractor.Node, name string) (string, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	v, ok := b.doc.Attribute(n, name)
	return v, ok, nil
}

// Execute records script. Scripts calling submit() follow the submit redirect.
func (b *Browser) Execute(ctx context.Context, script string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.scripts = append(b.scripts, script)
	if b.submitURL != "" && strings.Contains(script, "submit()") {
		return b.loadLocked(b.submitURL)
	}
	return nil
}

// CurrentURL returns the URL of the loaded page.
func (b *Browser) CurrentURL(context.Context) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current, nil
}

// PageSource returns the HTML of the loaded page.
func (b *Browser) PageSource(context.Context) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.doc.Source(), nil
}

// Fill records value for the matched input. The input must exist.
func (b *Browser) Fill(ctx context.Context, selector extractor.Strategy, value string) error {
	nodes, err := b.Query(ctx, selector, nil)
	if err != nil {
		return err
	}
	if len(nodes) == 0 {
		return fmt.Errorf("fill %s: %w", selector, extractor.ErrLookupAbsent)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fills[selector.Expr] = value
	return nil
}

// Click records the click and follows any registered redirect.
func (b *Browser) Click(ctx context.Context, selector extractor.Strategy) error {
	nodes, err := b.Query(ctx, selector, nil)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.clicks = append(b.clicks, selector.Expr)
	if b.clickErr != nil {
		return b.clickErr
	}
	if len(nodes) == 0 {
		return fmt.Errorf("click %s: %w", selector, extractor.ErrLookupAbsent)
	}
	if url, ok := b.redirects[selector.Expr]; ok {
		return b.loadLocked(url)
	}
	return nil
}

var _ extractor.Browser = (*Browser)(nil)
