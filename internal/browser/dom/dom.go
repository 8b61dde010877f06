// Package dom wraps a parsed HTML snapshot and evaluates lookup strategies
// against it: CSS selectors through goquery/cascadia and XPath through
// htmlquery.
package dom

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"

	"github.com/JakeFAU/orgextract/internal/extractor"
)

// Document is an immutable snapshot of one rendered page.
type Document struct {
	root   *html.Node
	source string
	base   *url.URL
}

// Parse builds a Document from serialized HTML. pageURL is used to resolve
// relative link attributes and may be empty.
func Parse(source, pageURL string) (*Document, error) {
	root, err := html.Parse(strings.NewReader(source))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	doc := &Document{root: root, source: source}
	if pageURL != "" {
		if base, err := url.Parse(pageURL); err == nil {
			doc.base = base
		}
	}
	return doc, nil
}

// Source returns the serialized HTML the document was parsed from.
func (d *Document) Source() string {
	return d.source
}

// Root returns the document node.
func (d *Document) Root() *html.Node {
	return d.root
}

// Query evaluates s under scope, or the whole document when scope is nil.
func (d *Document) Query(s extractor.Strategy, scope *html.Node) ([]*html.Node, error) {
	if scope == nil {
		scope = d.root
	}
	switch s.Kind {
	case extractor.KindCSS:
		sel, err := cascadia.Compile(s.Expr)
		if err != nil {
			return nil, fmt.Errorf("compile css %q: %w", s.Expr, err)
		}
		return goquery.NewDocumentFromNode(scope).FindMatcher(sel).Nodes, nil
	case extractor.KindXPath:
		nodes, err := htmlquery.QueryAll(scope, s.Expr)
		if err != nil {
			return nil, fmt.Errorf("evaluate xpath %q: %w", s.Expr, err)
		}
		return nodes, nil
	default:
		return nil, fmt.Errorf("strategy kind %q is not a node query", s.Kind)
	}
}

// Attribute returns the named attribute of n. Link attributes are resolved
// against the page URL the way a browser reports them.
func (d *Document) Attribute(n *html.Node, name string) (string, bool) {
	if n == nil {
		return "", false
	}
	for _, attr := range n.Attr {
		if !strings.EqualFold(attr.Key, name) {
			continue
		}
		val := strings.TrimSpace(attr.Val)
		if isLinkAttr(name) && d.base != nil && val != "" {
			if ref, err := url.Parse(val); err == nil {
				val = d.base.ResolveReference(ref).String()
			}
		}
		return val, true
	}
	return "", false
}

func isLinkAttr(name string) bool {
	switch strings.ToLower(name) {
	case "href", "src":
		return true
	default:
		return false
	}
}

// Text returns the visible text of n with whitespace normalized.
func Text(n *html.Node) string {
	if n == nil {
		return ""
	}
	var b strings.Builder
	collectText(n, &b)
	return NormalizeSpace(b.String())
}

func collectText(n *html.Node, b *strings.Builder) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(n.Data)
		return
	case html.ElementNode:
		switch n.Data {
		case "script", "style", "noscript", "template":
			return
		case "br", "p", "div", "li", "dd", "dt", "h1", "h2", "h3", "h4", "section":
			b.WriteByte(' ')
		}
	case html.CommentNode:
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, b)
	}
}

// NormalizeSpace replaces non-breaking spaces and collapses whitespace runs.
func NormalizeSpace(s string) string {
	s = strings.ReplaceAll(s, " ", " ")
	return strings.Join(strings.Fields(s), " ")
}

// IsAnchor reports whether n is an <a> element.
func IsAnchor(n *html.Node) bool {
	return n != nil && n.Type == html.ElementNode && strings.EqualFold(n.Data, "a")
}
