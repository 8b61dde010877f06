package extractor

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/net/html"
)

// Target identifies one organization page by its canonical URL.
type Target string

// String returns the target URL.
func (t Target) String() string {
	return string(t)
}

// MainURL normalizes the target to the organization's main profile URL:
// life sections are dropped and a trailing slash is guaranteed.
func (t Target) MainURL() string {
	u := strings.TrimSpace(string(t))
	u = strings.Replace(u, "/life/", "/", 1)
	u = strings.TrimSuffix(u, "/life")
	if !strings.HasSuffix(u, "/") {
		u += "/"
	}
	return u
}

// Section returns the URL of a sub-section of the main profile, e.g. "about/".
func (t Target) Section(path string) string {
	return t.MainURL() + strings.TrimPrefix(path, "/")
}

// Node is a DOM node handle returned by a Browser query.
type Node = *html.Node

// Field names a logical record field resolved by a SelectorChain.
type Field string

// Logical fields resolved through selector chains.
const (
	FieldName          Field = "name"
	FieldDescription   Field = "description"
	FieldDetails       Field = "details"
	FieldIndustry      Field = "industry"
	FieldCompanySize   Field = "company_size"
	FieldHeadquarters  Field = "headquarters"
	FieldWebsite       Field = "website"
	FieldJobTitle      Field = "job_title"
	FieldPeopleCard    Field = "people_card"
	FieldPersonName    Field = "person_name"
	FieldPersonTitle   Field = "person_title"
	FieldLoginUsername Field = "login_username"
	FieldLoginPassword Field = "login_password"
	FieldLoginSubmit   Field = "login_submit"
	FieldChallenge     Field = "challenge"
	FieldReadyMarker   Field = "ready_marker"
)

// StrategyKind selects how a Strategy expression is evaluated.
type StrategyKind string

// Supported lookup strategy kinds.
const (
	KindCSS     StrategyKind = "css"
	KindXPath   StrategyKind = "xpath"
	KindPattern StrategyKind = "pattern"
)

// Strategy is one way of locating a field on a page. When Attr is set the
// attribute value is read instead of the node text.
type Strategy struct {
	Kind StrategyKind
	Expr string
	Attr string
}

// CSS builds a CSS selector strategy.
func CSS(expr string) Strategy {
	return Strategy{Kind: KindCSS, Expr: expr}
}

// XPath builds an XPath strategy.
func XPath(expr string) Strategy {
	return Strategy{Kind: KindXPath, Expr: expr}
}

// Pattern builds a regular-expression strategy evaluated against page content.
func Pattern(expr string) Strategy {
	return Strategy{Kind: KindPattern, Expr: expr}
}

// WithAttr returns a copy of s that reads the named attribute.
func (s Strategy) WithAttr(name string) Strategy {
	s.Attr = name
	return s
}

func (s Strategy) String() string {
	if s.Attr != "" {
		return fmt.Sprintf("%s(%s)@%s", s.Kind, s.Expr, s.Attr)
	}
	return fmt.Sprintf("%s(%s)", s.Kind, s.Expr)
}

// SelectorChain is an ordered list of strategies for one logical field. The
// order encodes confidence, most specific first.
type SelectorChain struct {
	Field      Field
	Strategies []Strategy
}

// NewChain builds a SelectorChain.
func NewChain(field Field, strategies ...Strategy) SelectorChain {
	return SelectorChain{Field: field, Strategies: strategies}
}

// SessionState is the authentication state of the browsing session.
type SessionState int

// Session states.
const (
	Unauthenticated SessionState = iota
	Authenticating
	Authenticated
	Failed
)

func (s SessionState) String() string {
	switch s {
	case Unauthenticated:
		return "unauthenticated"
	case Authenticating:
		return "authenticating"
	case Authenticated:
		return "authenticated"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// SessionGate exposes the session state to components that must not act
// without an authenticated session.
type SessionGate interface {
	State() SessionState
}

// ProfileURLNotFound is used when a candidate has no profile link.
const ProfileURLNotFound = "URL not found"

// PersonCandidate is one role-holder discovered by a people search.
type PersonCandidate struct {
	Name       string `json:"name"`
	Title      string `json:"title"`
	ProfileURL string `json:"profile_url"`
	Keyword    string `json:"keyword"`
}

// Key is the deduplication key of a candidate.
func (p PersonCandidate) Key() string {
	return p.Name + "\x00" + p.Title
}

// String formats the candidate as a roster entry.
func (p PersonCandidate) String() string {
	return fmt.Sprintf("%s (%s) - %s", p.Name, p.Title, p.ProfileURL)
}

// Roster joins candidates into a roster field value; empty when no candidates.
func Roster(candidates []PersonCandidate) string {
	parts := make([]string, 0, len(candidates))
	for _, c := range candidates {
		parts = append(parts, c.String())
	}
	return strings.Join(parts, "; ")
}

// Run is metadata describing one extraction run.
type Run struct {
	ID        string
	StartedAt time.Time
}
