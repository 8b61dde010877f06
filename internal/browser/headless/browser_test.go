package headless

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/orgextract/internal/extractor"
)

func TestQueryOption(t *testing.T) {
	t.Parallel()

	assert.NotNil(t, queryOption(extractor.CSS("body")))
	assert.NotNil(t, queryOption(extractor.XPath("//body")))
}

func TestForwardCancel(t *testing.T) {
	t.Parallel()

	parent, cancelParent := context.WithCancel(context.Background())
	child, cancelChild := context.WithCancel(context.Background())
	defer cancelChild()

	stop := forwardCancel(parent, cancelChild)
	defer stop()
	cancelParent()

	select {
	case <-child.Done():
	case <-time.After(time.Second):
		t.Fatal("child context was not cancelled")
	}
}

func TestForwardCancelStop(t *testing.T) {
	t.Parallel()

	child, cancelChild := context.WithCancel(context.Background())
	defer cancelChild()
	stop := forwardCancel(context.Background(), cancelChild)
	stop()
	assert.NoError(t, child.Err())
}

func TestBrowserAgainstLocalPage(t *testing.T) {
	if os.Getenv("ORGEXTRACT_CHROME_TESTS") == "" {
		t.Skip("set ORGEXTRACT_CHROME_TESTS=1 to run against a local Chrome")
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><body><h1 class="title">Acme</h1><a href="/jobs/">Jobs</a></body></html>`))
	}))
	defer srv.Close()

	b, err := New(Config{Headless: true, NavigationTimeout: 20 * time.Second}, zap.NewNop())
	if err != nil {
		t.Skipf("chrome unavailable: %v", err)
	}
	defer b.Close()

	ctx := context.Background()
	require.NoError(t, b.Navigate(ctx, srv.URL))
	require.NoError(t, b.WaitReady(ctx, extractor.CSS("body"), 5*time.Second))

	nodes, err := b.Query(ctx, extractor.CSS("h1.title"), nil)
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	text, err := b.Text(ctx, nodes[0])
	require.NoError(t, err)
	assert.Equal(t, "Acme", text)

	links, err := b.Query(ctx, extractor.XPath("//a"), nil)
	require.NoError(t, err)
	require.Len(t, links, 1)
	href, ok, err := b.Attribute(ctx, links[0], "href")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, srv.URL+"/jobs/", href)
}
