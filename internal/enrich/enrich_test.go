package enrich

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newSite(t *testing.T, hits *int32) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><body>
<a href="/contact-us">Contact</a>
<a href="/impressum">Legal</a>
<a href="/careers">Careers</a>
<a href="https://elsewhere.example/contact">Partner</a>
<p>Write to noreply@acme.example</p>
</body></html>`)
	})
	mux.HandleFunc("/contact-us", func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(hits, 1)
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><body>Email sales@acme.example or call +1 (415) 555-0100</body></html>`)
	})
	mux.HandleFunc("/impressum", func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(hits, 1)
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><body>Kontakt: legal@acme.example</body></html>`)
	})
	mux.HandleFunc("/careers", func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(hits, 1)
		fmt.Fprint(w, `jobs@acme.example`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestEnrichCollectsContactsFromContactPages(t *testing.T) {
	t.Parallel()

	var hits int32
	srv := newSite(t, &hits)
	c := New(Config{MaxPages: 5}, nil, zap.NewNop())

	got, err := c.Enrich(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, []string{"legal@acme.example", "sales@acme.example"}, got.Emails)
	require.Len(t, got.Phones, 1)
	assert.Contains(t, got.Phones[0], "555-0100")
	assert.NotContains(t, got.Emails, "jobs@acme.example", "careers page is not a contact page")
	assert.Equal(t, int32(3), atomic.LoadInt32(&hits))
}

func TestEnrichHonoursMaxPages(t *testing.T) {
	t.Parallel()

	var hits int32
	srv := newSite(t, &hits)
	c := New(Config{MaxPages: 1}, nil, zap.NewNop())

	got, err := c.Enrich(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Empty(t, got.Emails, "home page only carries a skipped address")
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestEnrichRejectsBadWebsite(t *testing.T) {
	t.Parallel()

	c := New(Config{}, nil, nil)
	for _, site := range []string{"", "ftp://acme.example", "https://"} {
		_, err := c.Enrich(context.Background(), site)
		assert.Error(t, err, site)
	}
}

func TestEnrichCancelledContext(t *testing.T) {
	t.Parallel()

	var hits int32
	srv := newSite(t, &hits)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(Config{}, nil, nil).Enrich(ctx, srv.URL)
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, atomic.LoadInt32(&hits))
}

func TestHomeURLAddsScheme(t *testing.T) {
	t.Parallel()

	u, err := homeURL("acme.example")
	require.NoError(t, err)
	assert.Equal(t, "https://acme.example", u.String())
}
