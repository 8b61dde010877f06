// Package people finds role-holders of an organization through its people
// search.
package people

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/JakeFAU/orgextract/internal/browser/dom"
	"github.com/JakeFAU/orgextract/internal/extractor"
	"github.com/JakeFAU/orgextract/internal/metrics"
	"github.com/JakeFAU/orgextract/internal/navigator"
	"github.com/JakeFAU/orgextract/internal/selector"
)

// Default caps.
const (
	DefaultPerKeyword = 5
	DefaultMax        = 10
)

// Role keyword tables.
var (
	FounderKeywords = []string{"CEO", "CTO", "Founder", "Co-Founder", "Chief Executive", "Chief Technology"}

	EngineeringKeywords = []string{
		"Tech Lead", "Engineering Manager", "Director of Engineering", "Engineering Lead",
		"VP Engineering", "Head of Engineering", "Senior Engineering Manager",
		"Principal Engineer", "Staff Engineer",
	}
)

// Navigator is the subset of navigator.Navigator the engine drives.
type Navigator interface {
	Goto(ctx context.Context, url string) error
	Settle(ctx context.Context, c navigator.Context) error
}

// Options cap a search. Zero values use the defaults.
type Options struct {
	PerKeyword int
	Max        int
}

func (o Options) withDefaults() Options {
	if o.PerKeyword <= 0 {
		o.PerKeyword = DefaultPerKeyword
	}
	if o.Max <= 0 {
		o.Max = DefaultMax
	}
	return o
}

// Engine runs keyword searches against an organization's people page.
type Engine struct {
	browser  extractor.Browser
	nav      Navigator
	resolver *selector.Resolver
	logger   *zap.Logger
}

// New builds an Engine.
func New(browser extractor.Browser, nav Navigator, resolver *selector.Resolver, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if resolver == nil {
		resolver = selector.New(browser, logger)
	}
	return &Engine{browser: browser, nav: nav, resolver: resolver, logger: logger}
}

// SearchURL is the people-search URL for keyword under target.
func SearchURL(target extractor.Target, keyword string) string {
	return target.Section("people/") + "?keywords=" + strings.ReplaceAll(url.QueryEscape(keyword), "+", "%20")
}

// Find searches each keyword in order and returns at most opts.Max distinct
// candidates. Every candidate's name or title contains the keyword that
// found it. Failures are logged; an empty slice means nothing was found.
func (e *Engine) Find(ctx context.Context, target extractor.Target, keywords []string, opts Options) []extractor.PersonCandidate {
	opts = opts.withDefaults()
	seen := map[string]struct{}{}
	found := make([]extractor.PersonCandidate, 0, opts.Max)

	for _, kw := range keywords {
		if len(found) >= opts.Max || ctx.Err() != nil {
			break
		}
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		logger := e.logger.With(zap.String("target", target.String()), zap.String("keyword", kw))

		if err := e.nav.Goto(ctx, SearchURL(target, kw)); err != nil {
			logger.Warn("people search navigation failed", zap.Error(err))
			if errors.Is(err, extractor.ErrNotAuthenticated) {
				break
			}
			continue
		}
		if err := e.nav.Settle(ctx, navigator.Search); err != nil {
			break
		}

		for _, c := range e.searchPage(ctx, kw, opts.PerKeyword, seen) {
			if len(found) >= opts.Max {
				break
			}
			found = append(found, c)
		}
		logger.Debug("people search done", zap.Int("total", len(found)))
	}
	return found
}

// searchPage tries container strategies in order and stops at the first one
// that yields a new accepted candidate.
func (e *Engine) searchPage(ctx context.Context, keyword string, perKeyword int, seen map[string]struct{}) []extractor.PersonCandidate {
	for _, s := range selector.PeopleContainers.Strategies {
		cards, err := e.browser.Query(ctx, s, nil)
		if err != nil || len(cards) == 0 {
			continue
		}
		if len(cards) > perKeyword {
			cards = cards[:perKeyword]
		}
		var accepted []extractor.PersonCandidate
		for _, card := range cards {
			c, ok := e.candidate(ctx, card, keyword)
			metrics.ObserveCandidate(ok)
			if !ok {
				continue
			}
			if _, dup := seen[c.Key()]; dup {
				continue
			}
			seen[c.Key()] = struct{}{}
			accepted = append(accepted, c)
		}
		if len(accepted) > 0 {
			return accepted
		}
	}
	return nil
}

// candidate reads one card. It is accepted only with a name and when the
// keyword occurs in the name or the title as displayed.
func (e *Engine) candidate(ctx context.Context, card extractor.Node, keyword string) (extractor.PersonCandidate, bool) {
	name, profile := e.nameAndProfile(ctx, card)
	title := ""
	if v, ok := e.resolver.Resolve(ctx, selector.PersonTitle, card); ok {
		title = v.Text
	}
	if name == "" || !Matches(keyword, name, title) {
		return extractor.PersonCandidate{}, false
	}
	if title == "" {
		title = keyword
	}
	if profile == "" {
		profile = extractor.ProfileURLNotFound
	}
	return extractor.PersonCandidate{Name: name, Title: title, ProfileURL: profile, Keyword: keyword}, true
}

func (e *Engine) nameAndProfile(ctx context.Context, card extractor.Node) (string, string) {
	for _, s := range selector.PersonName.Strategies {
		nodes, err := e.browser.Query(ctx, s, card)
		if err != nil {
			continue
		}
		for _, n := range nodes {
			name := e.resolver.NodeText(ctx, s, n)
			if name == "" {
				continue
			}
			profile := ""
			if dom.IsAnchor(n) {
				if href, ok, err := e.browser.Attribute(ctx, n, "href"); err == nil && ok {
					profile = href
				}
			}
			if profile == "" {
				if v, ok := e.resolver.Resolve(ctx, selector.ProfileLink, card); ok {
					profile = v.Text
				}
			}
			return name, profile
		}
	}
	return "", ""
}

// Matches reports whether keyword occurs, case-insensitively, in name+title.
func Matches(keyword, name, title string) bool {
	return strings.Contains(strings.ToLower(name+" "+title), strings.ToLower(keyword))
}
