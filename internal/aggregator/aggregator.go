// Package aggregator builds one Record per target by visiting its profile,
// about, jobs and people sections in that order.
package aggregator

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/orgextract/internal/browser/dom"
	"github.com/JakeFAU/orgextract/internal/extractor"
	"github.com/JakeFAU/orgextract/internal/navigator"
	"github.com/JakeFAU/orgextract/internal/patterns"
	"github.com/JakeFAU/orgextract/internal/people"
	"github.com/JakeFAU/orgextract/internal/selector"
	"github.com/JakeFAU/orgextract/internal/translate"
)

// Defaults for Options.
const (
	DefaultMinParagraph      = 30
	DefaultParagraphs        = 2
	DefaultJobCardsInspected = 10
)

// Navigator is the subset of navigator.Navigator the aggregator drives.
type Navigator interface {
	Goto(ctx context.Context, url string) error
	Settle(ctx context.Context, c navigator.Context) error
}

// Enricher looks up contacts on an organization's own website.
type Enricher interface {
	Enrich(ctx context.Context, website string) (patterns.Contacts, error)
}

// Options configure an Aggregator.
type Options struct {
	FounderKeywords     []string
	EngineeringKeywords []string
	People              people.Options
	MinParagraph        int
	Paragraphs          int
	JobCardsInspected   int
	EmailSkip           []string

	Translator extractor.Translator
	Enricher   Enricher
	Clock      extractor.Clock
	Logger     *zap.Logger
}

// Result is the output of one target.
type Result struct {
	Record extractor.Record
	// ProfileHTML is the profile page source, empty when it was not reached.
	ProfileHTML string
}

// Aggregator combines per-section lookups into a Record.
type Aggregator struct {
	browser  extractor.Browser
	nav      Navigator
	resolver *selector.Resolver
	people   *people.Engine
	scanner  *patterns.Scanner
	opts     Options
	logger   *zap.Logger
}

// New builds an Aggregator.
func New(browser extractor.Browser, nav Navigator, resolver *selector.Resolver, engine *people.Engine, opts Options) *Aggregator {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.FounderKeywords == nil {
		opts.FounderKeywords = people.FounderKeywords
	}
	if opts.EngineeringKeywords == nil {
		opts.EngineeringKeywords = people.EngineeringKeywords
	}
	if opts.MinParagraph <= 0 {
		opts.MinParagraph = DefaultMinParagraph
	}
	if opts.Paragraphs <= 0 {
		opts.Paragraphs = DefaultParagraphs
	}
	if opts.JobCardsInspected <= 0 {
		opts.JobCardsInspected = DefaultJobCardsInspected
	}
	if resolver == nil {
		resolver = selector.New(browser, opts.Logger)
	}
	if engine == nil {
		engine = people.New(browser, nav, resolver, opts.Logger)
	}
	return &Aggregator{
		browser:  browser,
		nav:      nav,
		resolver: resolver,
		people:   engine,
		scanner:  patterns.NewScanner(opts.EmailSkip),
		opts:     opts,
		logger:   opts.Logger,
	}
}

// build carries the partially assembled record between sections.
type build struct {
	rec      extractor.Record
	contacts patterns.Contacts
	source   string
}

// Build aggregates target. It always returns a finalized record: a failed
// profile navigation yields an error record, any later section failure just
// leaves its fields to the sentinels.
func (a *Aggregator) Build(ctx context.Context, target extractor.Target) Result {
	logger := a.logger.With(zap.String("target", target.String()))
	b := &build{rec: extractor.Record{SourceURL: target.String()}}

	if err := a.profile(ctx, target, b); err != nil {
		logger.Warn("profile unavailable", zap.Error(err))
		rec := extractor.ErrorRecord(target, err)
		rec.ExtractedAt = a.now()
		return Result{Record: rec}
	}
	a.section(ctx, logger, "about", func() error { return a.about(ctx, target, b) })
	b.rec.Domain = patterns.DeriveDomain(b.rec.Website)
	a.section(ctx, logger, "jobs", func() error { return a.jobs(ctx, target, b) })
	a.section(ctx, logger, "people", func() error { return a.roster(ctx, target, b) })
	a.section(ctx, logger, "enrich", func() error { return a.enrich(ctx, b) })

	b.rec.Emails = b.contacts.EmailField()
	b.rec.Phones = b.contacts.PhoneField()
	b.rec.ExtractedAt = a.now()
	return Result{Record: b.rec.Finalize(), ProfileHTML: b.source}
}

func (a *Aggregator) section(ctx context.Context, logger *zap.Logger, name string, fn func() error) {
	if ctx.Err() != nil {
		return
	}
	start := time.Now()
	if err := fn(); err != nil {
		logger.Warn("section failed", zap.String("section", name), zap.Error(err))
		return
	}
	logger.Debug("section done", zap.String("section", name), zap.Duration("elapsed", time.Since(start)))
}

func (a *Aggregator) profile(ctx context.Context, target extractor.Target, b *build) error {
	if err := a.nav.Goto(ctx, target.MainURL()); err != nil {
		return err
	}
	if err := a.nav.Settle(ctx, navigator.Page); err != nil {
		return err
	}
	if v, ok := a.resolver.Resolve(ctx, selector.CompanyName, nil); ok {
		b.rec.Name = v.Text
	}
	source, err := a.browser.PageSource(ctx)
	if err != nil {
		a.logger.Debug("profile source unavailable", zap.Error(err))
		return nil
	}
	b.source = source
	b.contacts = a.scanner.Scan(source)
	b.rec.Employees = patterns.EmployeeCount(source)
	b.rec.Website = patterns.NormalizeWebsite(patterns.Website(source))
	b.rec.Industry = patterns.IndustryHint(source)
	return nil
}

func (a *Aggregator) about(ctx context.Context, target extractor.Target, b *build) error {
	if err := a.nav.Goto(ctx, target.Section("about/")); err != nil {
		return err
	}
	if err := a.nav.Settle(ctx, navigator.About); err != nil {
		return err
	}

	paragraphs := a.resolver.ResolveAllText(ctx, selector.Description, nil, func(s string) bool {
		return len(s) > a.opts.MinParagraph
	}, a.opts.Paragraphs)
	if len(paragraphs) > 0 {
		b.rec.Description = translate.Best(ctx, a.opts.Translator, strings.Join(paragraphs, " "), a.logger)
	}

	details := patterns.Details{
		Industry:  b.rec.Industry,
		Location:  b.rec.Location,
		Employees: b.rec.Employees,
		Website:   b.rec.Website,
	}.Classify(a.resolver.CollectText(ctx, selector.DetailDefinitions, nil))

	fill := func(dst *string, chain extractor.SelectorChain) {
		if *dst != "" {
			return
		}
		if v, ok := a.resolver.Resolve(ctx, chain, nil); ok {
			*dst = v.Text
		}
	}
	fill(&details.Industry, selector.Industry)
	fill(&details.Employees, selector.CompanySize)
	fill(&details.Location, selector.Headquarters)
	fill(&details.Website, selector.Website)

	b.rec.Industry = details.Industry
	b.rec.Location = details.Location
	b.rec.Employees = details.Employees
	b.rec.Website = patterns.NormalizeWebsite(details.Website)
	return nil
}

func (a *Aggregator) jobs(ctx context.Context, target extractor.Target, b *build) error {
	if err := a.nav.Goto(ctx, target.Section("jobs/")); err != nil {
		return err
	}
	if err := a.nav.Settle(ctx, navigator.Page); err != nil {
		return err
	}
	titles := a.jobTitles(ctx)
	if len(titles) == 0 {
		if source, err := a.browser.PageSource(ctx); err == nil {
			titles = patterns.JobTitlesFromSource(source, extractor.MaxJobPosts)
		}
	}
	if len(titles) > extractor.MaxJobPosts {
		titles = titles[:extractor.MaxJobPosts]
	}
	b.rec.JobPosts = titles
	return nil
}

// jobTitles reads the first strategy of the JobTitles chain that yields any
// accepted title.
func (a *Aggregator) jobTitles(ctx context.Context) []string {
	for _, s := range selector.JobTitles.Strategies {
		nodes, err := a.browser.Query(ctx, s, nil)
		if err != nil || len(nodes) == 0 {
			continue
		}
		if len(nodes) > a.opts.JobCardsInspected {
			nodes = nodes[:a.opts.JobCardsInspected]
		}
		seen := map[string]struct{}{}
		var titles []string
		for _, n := range nodes {
			title := patterns.CleanJobTitle(a.jobLabel(ctx, n))
			if !patterns.AcceptJobTitle(title) {
				continue
			}
			if _, dup := seen[title]; dup {
				continue
			}
			seen[title] = struct{}{}
			titles = append(titles, title)
		}
		if len(titles) > 0 {
			return titles
		}
	}
	return nil
}

func (a *Aggregator) jobLabel(ctx context.Context, n extractor.Node) string {
	if text, err := a.browser.Text(ctx, n); err == nil {
		if text = dom.NormalizeSpace(text); text != "" {
			return text
		}
	}
	if !dom.IsAnchor(n) {
		return ""
	}
	for _, attr := range []string{"aria-label", "title"} {
		if v, ok, err := a.browser.Attribute(ctx, n, attr); err == nil && ok && v != "" {
			return v
		}
	}
	return ""
}

func (a *Aggregator) roster(ctx context.Context, target extractor.Target, b *build) error {
	founders := a.people.Find(ctx, target, a.opts.FounderKeywords, a.opts.People)
	b.rec.FounderCandidates = founders
	b.rec.Founders = extractor.Roster(founders)

	engineering := a.people.Find(ctx, target, a.opts.EngineeringKeywords, a.opts.People)
	b.rec.EngineeringCandidates = engineering
	b.rec.EngineeringHeads = extractor.Roster(engineering)
	return nil
}

func (a *Aggregator) enrich(ctx context.Context, b *build) error {
	if a.opts.Enricher == nil || !b.contacts.Empty() || b.rec.Website == "" {
		return nil
	}
	found, err := a.opts.Enricher.Enrich(ctx, b.rec.Website)
	if err != nil {
		return err
	}
	b.contacts = b.contacts.Merge(found)
	return nil
}

func (a *Aggregator) now() time.Time {
	if a.opts.Clock != nil {
		return a.opts.Clock.Now()
	}
	return time.Now().UTC()
}
