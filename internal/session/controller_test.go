package session

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/orgextract/internal/browser/browsertest"
	"github.com/JakeFAU/orgextract/internal/extractor"
	"github.com/JakeFAU/orgextract/internal/navigator"
)

const (
	loginPage = `<html><body><form>
		<input id="username" name="session_key"><input id="password" name="session_password">
		<button type="submit">Sign in</button>
	</form></body></html>`
	feedURL      = "https://www.linkedin.com/feed/"
	submitButton = "//button[@type='submit']"
)

var creds = Credentials{Email: "me@acme.io", Password: "hunter2"}

func newController(b *browsertest.Browser, c Credentials) *Controller {
	nav := navigator.New(b, nil, navigator.Options{Delays: navigator.ZeroPolicy{}})
	return New(b, nav, c, Config{}, zap.NewNop())
}

func loginBrowser() *browsertest.Browser {
	return browsertest.New().SetPage(DefaultLoginURL, loginPage)
}

func TestAuthenticateSuccess(t *testing.T) {
	t.Parallel()

	b := loginBrowser().
		SetPage(feedURL, `<html><body><main>feed</main></body></html>`).
		RedirectOnClick(submitButton, feedURL)
	ctrl := newController(b, creds)
	require.Equal(t, extractor.Unauthenticated, ctrl.State())

	require.NoError(t, ctrl.Authenticate(context.Background()))
	assert.Equal(t, extractor.Authenticated, ctrl.State())

	user, _ := b.Filled("#username")
	pass, _ := b.Filled("#password")
	assert.Equal(t, "me@acme.io", user)
	assert.Equal(t, "hunter2", pass)

	// A second call is a no-op.
	require.NoError(t, ctrl.Authenticate(context.Background()))
	assert.Equal(t, []string{DefaultLoginURL}, b.Navigations())
}

func TestAuthenticateMatchesLocationCaseInsensitively(t *testing.T) {
	t.Parallel()

	upper := "https://www.linkedin.com/FEED/?trk=Login"
	b := loginBrowser().
		SetPage(upper, `<html><body><main>feed</main></body></html>`).
		RedirectOnClick(submitButton, upper)
	ctrl := newController(b, creds)

	require.NoError(t, ctrl.Authenticate(context.Background()))
	assert.Equal(t, extractor.Authenticated, ctrl.State())
}

func TestAuthenticateFallsBackToScriptedSubmit(t *testing.T) {
	t.Parallel()

	b := loginBrowser().
		FailClicks(errors.New("element not interactable")).
		RedirectOnSubmit("https://www.linkedin.com/mynetwork/")
	ctrl := newController(b, creds)

	require.NoError(t, ctrl.Authenticate(context.Background()))
	assert.Equal(t, extractor.Authenticated, ctrl.State())
	assert.Len(t, b.Scripts(), 1)
}

func TestAuthenticateFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		browser  func() *browsertest.Browser
		creds    Credentials
		wantNavs int
	}{
		{
			name:     "wrong credentials stay on login",
			browser:  loginBrowser,
			creds:    creds,
			wantNavs: 1,
		},
		{
			name: "checkpoint challenge",
			browser: func() *browsertest.Browser {
				return loginBrowser().RedirectOnClick(submitButton, "https://www.linkedin.com/checkpoint/challenge/AgH")
			},
			creds:    creds,
			wantNavs: 1,
		},
		{
			name: "mixed-case checkpoint challenge",
			browser: func() *browsertest.Browser {
				return loginBrowser().RedirectOnClick(submitButton, "https://www.linkedin.com/Checkpoint/Challenge/AgH")
			},
			creds:    creds,
			wantNavs: 1,
		},
		{
			name: "captcha frame",
			browser: func() *browsertest.Browser {
				return loginBrowser().
					SetPage(feedURL, `<html><body><iframe src="https://www.linkedin.com/captcha/v2"></iframe></body></html>`).
					RedirectOnClick(submitButton, feedURL)
			},
			creds:    creds,
			wantNavs: 1,
		},
		{
			name:     "missing credentials",
			browser:  loginBrowser,
			creds:    Credentials{Email: "me@acme.io"},
			wantNavs: 0,
		},
		{
			name: "login form absent",
			browser: func() *browsertest.Browser {
				return browsertest.New()
			},
			creds:    creds,
			wantNavs: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			b := tt.browser()
			ctrl := newController(b, tt.creds)
			err := ctrl.Authenticate(context.Background())
			require.ErrorIs(t, err, extractor.ErrAuthenticationFailed)
			assert.Equal(t, extractor.Failed, ctrl.State())
			assert.NotEmpty(t, ctrl.Reason())
			assert.Len(t, b.Navigations(), tt.wantNavs)

			// Failed is terminal and never touches the browser again.
			require.ErrorIs(t, ctrl.Authenticate(context.Background()), extractor.ErrAuthenticationFailed)
			assert.Len(t, b.Navigations(), tt.wantNavs)
		})
	}
}

func TestFailedSessionBlocksNavigation(t *testing.T) {
	t.Parallel()

	b := loginBrowser()
	ctrl := newController(b, creds)
	require.Error(t, ctrl.Authenticate(context.Background()))

	guarded := navigator.New(b, ctrl, navigator.Options{Delays: navigator.ZeroPolicy{}})
	err := guarded.Goto(context.Background(), "https://www.linkedin.com/company/acme/")
	require.ErrorIs(t, err, extractor.ErrNotAuthenticated)
	assert.Equal(t, []string{DefaultLoginURL}, b.Navigations())
}
