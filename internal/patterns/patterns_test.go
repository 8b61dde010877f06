package patterns

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/orgextract/internal/extractor"
)

const contactPage = `<p>Write to sales@acme.io or <a href="mailto:press@acme.io">press</a>.
Do not reply to noreply@x.com or NO-REPLY@acme.io, and skip help@acme.io.
Call +1 415-555-0100 or (415) 555-0199. Extension 12-34.</p>`

func TestScannerFindsContacts(t *testing.T) {
	t.Parallel()

	got := NewScanner(nil).Scan(contactPage)
	assert.Equal(t, []string{"press@acme.io", "sales@acme.io"}, got.Emails)
	assert.Contains(t, got.Phones, "+1 415-555-0100")
	assert.Contains(t, got.Phones, "(415) 555-0199")
	for _, p := range got.Phones {
		assert.NotContains(t, p, "12-34")
	}
}

func TestScannerSkipsNoReply(t *testing.T) {
	t.Parallel()

	got := NewScanner(nil).Scan("noreply@x.com no-reply@y.org support@z.io info@linkedin.com")
	assert.Empty(t, got.Emails)
	assert.Equal(t, extractor.SentinelEmail, got.EmailField())
	assert.Equal(t, extractor.SentinelPhone, got.PhoneField())
	assert.True(t, got.Empty())
}

func TestScannerIdempotent(t *testing.T) {
	t.Parallel()

	s := NewScanner(nil)
	first := s.Scan(contactPage)
	second := s.Scan(contactPage)
	assert.Equal(t, first, second)
	assert.Equal(t, first, first.Merge(second))
}

func TestContactsFieldsCapped(t *testing.T) {
	t.Parallel()

	c := Contacts{
		Emails: []string{"a@x.io", "b@x.io", "c@x.io", "d@x.io"},
		Phones: []string{"1", "2", "3"},
	}
	assert.Equal(t, "a@x.io; b@x.io; c@x.io", c.EmailField())
	assert.Equal(t, "1; 2", c.PhoneField())
}

func TestScannerCustomSkip(t *testing.T) {
	t.Parallel()

	got := NewScanner([]string{"Careers"}).Scan("careers@acme.io help@acme.io")
	assert.Equal(t, []string{"help@acme.io"}, got.Emails)
}

func TestDeriveDomain(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"https://www.Example.com/path", "example.com"},
		{"acme.io", "acme.io"},
		{"http://WWW.acme.co.uk", "acme.co.uk"},
		{"not a url", ""},
		{"http://localhost", ""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DeriveDomain(tt.in), tt.in)
	}
	assert.Equal(t, "https://acme.io", NormalizeWebsite("acme.io"))
	assert.Equal(t, "http://acme.io", NormalizeWebsite("http://acme.io"))
}

func TestEmployeeCount(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"We are 1,234 employees strong", "1,234 employees"},
		{"Company size 51-200 employees", "51-200 employees"},
		{"12,345 followers on the page", "12,345 employees"},
		{"Size: 11-50", "11-50 employees"},
		{"no counts here", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, EmployeeCount(tt.in), tt.in)
	}
}

func TestWebsite(t *testing.T) {
	t.Parallel()

	src := `<a href="https://www.linkedin.com/company/acme">x</a> <link href="https://static.licdn.com/a.css">
		{"website":"https:\/\/acme.io\/en"} see https://blog.acme.io/post`
	assert.Equal(t, "https://acme.io/en", Website(src))
	assert.Equal(t, "https://blog.acme.io/post", Website(`https://www.linkedin.com/in/x https://blog.acme.io/post`))
	assert.Equal(t, "", Website(`https://www.linkedin.com/feed/`))
}

func TestIndustryHint(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Technology", IndustryHint("We build software and TECHNOLOGY"))
	assert.Equal(t, "", IndustryHint("nothing relevant"))
}

func TestClassifyDetails(t *testing.T) {
	t.Parallel()

	got := ClassifyDetails([]string{
		"Software Development",
		"San Francisco, California",
		"51-200 employees",
		"https://acme.io",
		"Headquarters: Berlin",
	})
	assert.Equal(t, Details{
		Industry:  "Software Development",
		Location:  "Headquarters: Berlin",
		Employees: "51-200 employees",
		Website:   "https://acme.io",
	}, got)

	kept := Details{Industry: "Technology"}.Classify([]string{"Software", "https://www.linkedin.com/company/acme"})
	assert.Equal(t, "Technology", kept.Industry)
	assert.Empty(t, kept.Website)
}

func TestJobTitlesFromSource(t *testing.T) {
	t.Parallel()

	src := `{"jobTitle":"Senior Go Engineer"},{"jobTitle":"Senior Go Engineer"},{"jobTitle":"QA"}
		<a aria-label="Staff Engineer Apply now"></a><button aria-label="Open menu"></button>`
	got := JobTitlesFromSource(src, 5)
	require.Len(t, got, 2)
	assert.Equal(t, []string{"Senior Go Engineer", "Staff Engineer"}, got)
	assert.Len(t, JobTitlesFromSource(src, 1), 1)
}

func TestAcceptJobTitle(t *testing.T) {
	t.Parallel()

	assert.False(t, AcceptJobTitle("Dev"))
	assert.True(t, AcceptJobTitle("Go Dev"))
	assert.Equal(t, "Platform Engineer", CleanJobTitle("  Platform Engineer\n Apply now "))
}
