package dom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/orgextract/internal/extractor"
)

const fixture = `<html><body>
<h1 class="org-top-card-summary__title">  Acme&nbsp;GmbH </h1>
<dl>
  <dt>Industry</dt><dd>Software Development</dd>
  <dt>Website</dt><dd><a href="/redir?u=acme">acme.io</a></dd>
</dl>
<div class="card"><a class="name" href="/in/ada/">Ada</a><script>var x = 1;</script></div>
</body></html>`

func TestDocumentQueryCSSAndXPath(t *testing.T) {
	t.Parallel()

	doc, err := Parse(fixture, "https://www.linkedin.com/company/acme/about/")
	require.NoError(t, err)

	nodes, err := doc.Query(extractor.CSS("h1.org-top-card-summary__title"), nil)
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	assert.Equal(t, "Acme GmbH", Text(nodes[0]))

	nodes, err = doc.Query(extractor.XPath("//dt[contains(text(), 'Industry')]/following-sibling::dd"), nil)
	require.NoError(t, err)
	require.NotEmpty(t, nodes)
	assert.Equal(t, "Software Development", Text(nodes[0]))
}

func TestDocumentQueryScoped(t *testing.T) {
	t.Parallel()

	doc, err := Parse(fixture, "https://www.linkedin.com/company/acme/people/")
	require.NoError(t, err)

	cards, err := doc.Query(extractor.CSS(".card"), nil)
	require.NoError(t, err)
	require.Len(t, cards, 1)

	links, err := doc.Query(extractor.CSS("a.name"), cards[0])
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.True(t, IsAnchor(links[0]))

	href, ok := doc.Attribute(links[0], "href")
	assert.True(t, ok)
	assert.Equal(t, "https://www.linkedin.com/in/ada/", href)
	assert.Equal(t, "Ada", Text(cards[0]), "script text must be skipped")
}

func TestDocumentQueryErrors(t *testing.T) {
	t.Parallel()

	doc, err := Parse(fixture, "")
	require.NoError(t, err)

	_, err = doc.Query(extractor.CSS("div[["), nil)
	assert.Error(t, err)
	_, err = doc.Query(extractor.XPath("//dt[("), nil)
	assert.Error(t, err)
	_, err = doc.Query(extractor.Pattern(`\d+`), nil)
	assert.Error(t, err)

	_, ok := doc.Attribute(nil, "href")
	assert.False(t, ok)
}

func TestNormalizeSpace(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "a b c", NormalizeSpace(" a  b\n\tc "))
	assert.Equal(t, "", NormalizeSpace(" \n "))
}
