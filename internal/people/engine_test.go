package people

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/orgextract/internal/browser/browsertest"
	"github.com/JakeFAU/orgextract/internal/extractor"
	"github.com/JakeFAU/orgextract/internal/navigator"
)

const target = extractor.Target("https://www.linkedin.com/company/acme")

type fixedGate extractor.SessionState

func (g fixedGate) State() extractor.SessionState { return extractor.SessionState(g) }

func card(name, title, href string) string {
	return `<div class="org-people-profile-card">
		<div class="org-people-profile-card__profile-title"><a href="` + href + `">` + name + `</a></div>
		<div class="org-people-profile-card__profile-subtitle">` + title + `</div>
	</div>`
}

func page(cards ...string) string {
	return "<html><body>" + strings.Join(cards, "\n") + "</body></html>"
}

func newEngine(b *browsertest.Browser, state extractor.SessionState) *Engine {
	nav := navigator.New(b, fixedGate(state), navigator.Options{Delays: navigator.ZeroPolicy{}})
	return New(b, nav, nil, zap.NewNop())
}

func TestSearchURL(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "https://www.linkedin.com/company/acme/people/?keywords=Chief%20Executive", SearchURL(target, "Chief Executive"))
	assert.Equal(t, "https://www.linkedin.com/company/acme/people/?keywords=Co-Founder", SearchURL(target, "Co-Founder"))
}

func TestFindKeywordOrderAndDedup(t *testing.T) {
	t.Parallel()

	b := browsertest.New().
		SetPage(SearchURL(target, "CEO"), page(
			card("Ada Lovelace", "CEO & Founder", "/in/ada/"),
			card("Grace Hopper", "Co-CEO", "/in/grace/"),
			card("Linus T", "Engineer", "/in/linus/"),
		)).
		SetPage(SearchURL(target, "Founder"), page(
			card("Ada Lovelace", "CEO & Founder", "/in/ada/"),
			card("Alan Turing", "Founder", "/in/alan/"),
		))

	got := newEngine(b, extractor.Authenticated).Find(context.Background(), target, []string{"CEO", "Founder"}, Options{})
	require.Len(t, got, 3)
	assert.Equal(t, extractor.PersonCandidate{
		Name: "Ada Lovelace", Title: "CEO & Founder", ProfileURL: "https://www.linkedin.com/in/ada/", Keyword: "CEO",
	}, got[0])
	assert.Equal(t, "Grace Hopper", got[1].Name)
	assert.Equal(t, "Alan Turing", got[2].Name)
	assert.Equal(t, "Founder", got[2].Keyword)
}

func TestFindNeverReturnsUnmatchedCandidates(t *testing.T) {
	t.Parallel()

	b := browsertest.New().
		SetPage(SearchURL(target, "CTO"), page(
			card("Dana Scully", "Chief Technology Officer", "/in/dana/"),
			card("Fox Mulder", "VP Sales", "/in/fox/"),
			card("Walter CTOfficer", "", "/in/walter/"),
		))

	got := newEngine(b, extractor.Authenticated).Find(context.Background(), target, []string{"CTO"}, Options{})
	for _, c := range got {
		assert.True(t, Matches(c.Keyword, c.Name, c.Title), c.String())
	}
	require.Len(t, got, 1)
	assert.Equal(t, "Walter CTOfficer", got[0].Name)
	assert.Equal(t, "CTO", got[0].Title, "empty title falls back to the keyword")
}

func TestFindCaps(t *testing.T) {
	t.Parallel()

	var cards []string
	for _, n := range []string{"A", "B", "C", "D", "E", "F", "G"} {
		cards = append(cards, card(n+" Person", "Staff Engineer", "/in/"+strings.ToLower(n)+"/"))
	}
	b := browsertest.New().
		SetPage(SearchURL(target, "Staff Engineer"), page(cards...)).
		SetPage(SearchURL(target, "Engineer"), page(cards...))
	eng := newEngine(b, extractor.Authenticated)

	got := eng.Find(context.Background(), target, []string{"Staff Engineer"}, Options{})
	assert.Len(t, got, DefaultPerKeyword)

	got = eng.Find(context.Background(), target, []string{"Staff Engineer", "Engineer"}, Options{PerKeyword: 5, Max: 3})
	assert.Len(t, got, 3)
}

func TestFindContainerFallThrough(t *testing.T) {
	t.Parallel()

	b := browsertest.New().SetPage(SearchURL(target, "CTO"), page(
		`<div class="org-people-profile-card"><span>hidden member</span></div>`,
		`<div class="artdeco-entity-lockup"><div class="artdeco-entity-lockup__title">Xi CTO</div></div>`,
	))

	got := newEngine(b, extractor.Authenticated).Find(context.Background(), target, []string{"CTO"}, Options{})
	require.Len(t, got, 1)
	assert.Equal(t, "Xi CTO", got[0].Name)
	assert.Equal(t, extractor.ProfileURLNotFound, got[0].ProfileURL)
}

func TestFindSkipsFailedKeyword(t *testing.T) {
	t.Parallel()

	b := browsertest.New().
		FailNavigate(SearchURL(target, "CEO"), errors.New("net::ERR_ABORTED")).
		SetPage(SearchURL(target, "Founder"), page(card("Alan Turing", "Founder", "/in/alan/")))

	got := newEngine(b, extractor.Authenticated).Find(context.Background(), target, []string{"CEO", "Founder"}, Options{})
	require.Len(t, got, 1)
	assert.Equal(t, "Alan Turing", got[0].Name)
}

func TestFindWithoutSessionReturnsEmpty(t *testing.T) {
	t.Parallel()

	b := browsertest.New()
	got := newEngine(b, extractor.Unauthenticated).Find(context.Background(), target, FounderKeywords, Options{})
	assert.Empty(t, got)
	assert.Empty(t, b.Navigations())
}

func TestMatches(t *testing.T) {
	t.Parallel()

	assert.True(t, Matches("vp engineering", "Sam", "VP Engineering, Platform"))
	assert.True(t, Matches("CEO", "Ada", "ceo"))
	assert.False(t, Matches("CTO", "Ada", "Chief Technology Officer"))
}
