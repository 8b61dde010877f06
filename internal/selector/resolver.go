// Package selector resolves logical fields through ordered selector chains.
//
// A chain holds every known way of locating a field, most specific first.
// One resolution algorithm serves all fields: strategies are tried in order,
// lookup errors are treated as "try the next one", and the first non-empty
// value wins. Absence is reported as a typed result, never an error.
package selector

import (
	"context"
	"regexp"
	"sync"

	"go.uber.org/zap"

	"github.com/JakeFAU/orgextract/internal/browser/dom"
	"github.com/JakeFAU/orgextract/internal/extractor"
)

// Value is a resolved field value and the strategy that produced it.
type Value struct {
	Text     string
	Strategy extractor.Strategy
}

// Resolver evaluates selector chains against a Browser.
type Resolver struct {
	browser extractor.Browser
	logger  *zap.Logger
	onMiss  func(extractor.Field)

	mu       sync.Mutex
	patterns map[string]*regexp.Regexp
}

// Option customizes a Resolver.
type Option func(*Resolver)

// WithMissHook registers fn to be called whenever a chain resolves to nothing.
func WithMissHook(fn func(extractor.Field)) Option {
	return func(r *Resolver) {
		r.onMiss = fn
	}
}

// New builds a Resolver.
func New(browser extractor.Browser, logger *zap.Logger, opts ...Option) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Resolver{
		browser:  browser,
		logger:   logger,
		patterns: map[string]*regexp.Regexp{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the first non-empty value produced by the chain. Pattern
// strategies match the page source when scope is nil and the scope text
// otherwise.
func (r *Resolver) Resolve(ctx context.Context, chain extractor.SelectorChain, scope extractor.Node) (Value, bool) {
	for _, s := range chain.Strategies {
		if ctx.Err() != nil {
			return Value{}, false
		}
		var text string
		if s.Kind == extractor.KindPattern {
			text = r.matchPattern(ctx, chain.Field, s, scope)
		} else {
			text = r.firstText(ctx, chain.Field, s, scope)
		}
		if text != "" {
			return Value{Text: text, Strategy: s}, true
		}
	}
	r.miss(chain.Field)
	return Value{}, false
}

// ResolveNodes returns the nodes of the first strategy that yields any.
// Pattern strategies are skipped.
func (r *Resolver) ResolveNodes(ctx context.Context, chain extractor.SelectorChain, scope extractor.Node) ([]extractor.Node, extractor.Strategy, bool) {
	for _, s := range chain.Strategies {
		if ctx.Err() != nil {
			break
		}
		nodes := r.query(ctx, chain.Field, s, scope)
		if len(nodes) > 0 {
			return nodes, s, true
		}
	}
	r.miss(chain.Field)
	return nil, extractor.Strategy{}, false
}

// ResolveAllText collects distinct accepted texts from the first strategy
// that yields at least one, keeping at most limit (0 means no limit).
func (r *Resolver) ResolveAllText(ctx context.Context, chain extractor.SelectorChain, scope extractor.Node, accept func(string) bool, limit int) []string {
	for _, s := range chain.Strategies {
		if ctx.Err() != nil {
			break
		}
		texts := r.collect(ctx, chain.Field, s, scope, accept, limit, nil)
		if len(texts) > 0 {
			return texts
		}
	}
	r.miss(chain.Field)
	return nil
}

// CollectText unions the distinct non-empty texts of every strategy in the
// chain, in chain order.
func (r *Resolver) CollectText(ctx context.Context, chain extractor.SelectorChain, scope extractor.Node) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, s := range chain.Strategies {
		if ctx.Err() != nil {
			break
		}
		out = append(out, r.collect(ctx, chain.Field, s, scope, nil, 0, seen)...)
	}
	if len(out) == 0 {
		r.miss(chain.Field)
	}
	return out
}

// NodeText reads the value s designates on n: the attribute when s names one,
// the visible text otherwise.
func (r *Resolver) NodeText(ctx context.Context, s extractor.Strategy, n extractor.Node) string {
	if s.Attr != "" {
		val, ok, err := r.browser.Attribute(ctx, n, s.Attr)
		if err != nil || !ok {
			return ""
		}
		return dom.NormalizeSpace(val)
	}
	text, err := r.browser.Text(ctx, n)
	if err != nil {
		return ""
	}
	return dom.NormalizeSpace(text)
}

func (r *Resolver) collect(ctx context.Context, field extractor.Field, s extractor.Strategy, scope extractor.Node,
	accept func(string) bool, limit int, seen map[string]struct{},
) []string {
	if s.Kind == extractor.KindPattern {
		text := r.matchPattern(ctx, field, s, scope)
		if text == "" || (accept != nil && !accept(text)) {
			return nil
		}
		if seen != nil {
			if _, dup := seen[text]; dup {
				return nil
			}
			seen[text] = struct{}{}
		}
		return []string{text}
	}
	if seen == nil {
		seen = map[string]struct{}{}
	}
	var out []string
	for _, n := range r.query(ctx, field, s, scope) {
		text := r.NodeText(ctx, s, n)
		if text == "" || (accept != nil && !accept(text)) {
			continue
		}
		if _, dup := seen[text]; dup {
			continue
		}
		seen[text] = struct{}{}
		out = append(out, text)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}

func (r *Resolver) firstText(ctx context.Context, field extractor.Field, s extractor.Strategy, scope extractor.Node) string {
	for _, n := range r.query(ctx, field, s, scope) {
		if text := r.NodeText(ctx, s, n); text != "" {
			return text
		}
	}
	return ""
}

func (r *Resolver) query(ctx context.Context, field extractor.Field, s extractor.Strategy, scope extractor.Node) []extractor.Node {
	if s.Kind == extractor.KindPattern {
		return nil
	}
	nodes, err := r.browser.Query(ctx, s, scope)
	if err != nil {
		r.logger.Debug("selector lookup failed",
			zap.String("field", string(field)),
			zap.Stringer("strategy", s),
			zap.Error(err),
		)
		return nil
	}
	return nodes
}

func (r *Resolver) matchPattern(ctx context.Context, field extractor.Field, s extractor.Strategy, scope extractor.Node) string {
	re, err := r.compile(s.Expr)
	if err != nil {
		r.logger.Debug("invalid pattern strategy", zap.String("field", string(field)), zap.Error(err))
		return ""
	}
	var haystack string
	if scope == nil {
		haystack, err = r.browser.PageSource(ctx)
		if err != nil {
			r.logger.Debug("page source unavailable", zap.String("field", string(field)), zap.Error(err))
			return ""
		}
	} else {
		haystack, _ = r.browser.Text(ctx, scope)
	}
	m := re.FindStringSubmatch(haystack)
	if m == nil {
		return ""
	}
	if len(m) > 1 {
		return dom.NormalizeSpace(m[1])
	}
	return dom.NormalizeSpace(m[0])
}

func (r *Resolver) compile(expr string) (*regexp.Regexp, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if re, ok := r.patterns[expr]; ok {
		return re, nil
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, err
	}
	r.patterns[expr] = re
	return re, nil
}

func (r *Resolver) miss(field extractor.Field) {
	r.logger.Debug("field absent", zap.String("field", string(field)), zap.Error(extractor.ErrLookupAbsent))
	if r.onMiss != nil {
		r.onMiss(field)
	}
}
