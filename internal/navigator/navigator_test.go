package navigator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/orgextract/internal/browser/browsertest"
	"github.com/JakeFAU/orgextract/internal/extractor"
)

type fixedGate extractor.SessionState

func (g fixedGate) State() extractor.SessionState { return extractor.SessionState(g) }

type neverReady struct {
	*browsertest.Browser
}

func (neverReady) WaitReady(context.Context, extractor.Strategy, time.Duration) error {
	return extractor.ErrNavigationTimeout
}

func newNavigator(b extractor.Browser, state extractor.SessionState) *Navigator {
	return New(b, fixedGate(state), Options{Delays: ZeroPolicy{}, Logger: zap.NewNop()})
}

func TestGotoRefusesWithoutSession(t *testing.T) {
	t.Parallel()

	for _, state := range []extractor.SessionState{extractor.Unauthenticated, extractor.Authenticating, extractor.Failed} {
		b := browsertest.New()
		err := newNavigator(b, state).Goto(context.Background(), "https://www.linkedin.com/company/acme/")
		require.ErrorIs(t, err, extractor.ErrNotAuthenticated, state.String())
		assert.Empty(t, b.Navigations())
	}
}

func TestGotoAuthenticated(t *testing.T) {
	t.Parallel()

	b := browsertest.New()
	nav := newNavigator(b, extractor.Authenticated)
	require.NoError(t, nav.Goto(context.Background(), "https://www.linkedin.com/company/acme/"))
	assert.Equal(t, []string{"https://www.linkedin.com/company/acme/"}, b.Navigations())
}

func TestGotoUnguardedIgnoresGate(t *testing.T) {
	t.Parallel()

	b := browsertest.New()
	nav := newNavigator(b, extractor.Unauthenticated)
	require.NoError(t, nav.GotoUnguarded(context.Background(), "https://www.linkedin.com/login"))
	assert.Len(t, b.Navigations(), 1)
}

func TestGotoReadinessTimeoutIsNotFatal(t *testing.T) {
	t.Parallel()

	b := neverReady{browsertest.New()}
	nav := newNavigator(b, extractor.Authenticated)
	assert.NoError(t, nav.Goto(context.Background(), "https://www.linkedin.com/company/slow/"))
}

func TestGotoReturnsTransportError(t *testing.T) {
	t.Parallel()

	boom := errors.New("net::ERR_CONNECTION_RESET")
	b := browsertest.New().FailNavigate("https://www.linkedin.com/company/down/", boom)
	err := newNavigator(b, extractor.Authenticated).Goto(context.Background(), "https://www.linkedin.com/company/down/")
	require.ErrorIs(t, err, boom)
	assert.Len(t, b.Navigations(), 1, "no automatic retry")
}

func TestSettleScrolls(t *testing.T) {
	t.Parallel()

	b := browsertest.New()
	nav := newNavigator(b, extractor.Authenticated)
	ctx := context.Background()

	require.NoError(t, nav.Settle(ctx, Search))
	require.NoError(t, nav.Settle(ctx, About))
	assert.Equal(t, []string{scrollMidpoint, scrollBottom, scrollTop}, b.Scripts())
}

func TestSleep(t *testing.T) {
	t.Parallel()

	require.NoError(t, Sleep(context.Background(), 0))
	require.NoError(t, Sleep(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, Sleep(ctx, time.Hour), context.Canceled)
	require.ErrorIs(t, Sleep(ctx, 0), context.Canceled)
}

func TestSettleHonoursCancellation(t *testing.T) {
	t.Parallel()

	nav := New(browsertest.New(), fixedGate(extractor.Authenticated), Options{
		Delays: NewRandomPolicy(map[Context]Range{Target: {Min: time.Hour, Max: time.Hour}}),
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, nav.Pause(ctx, Target), context.Canceled)
}

func TestRandomPolicyWithinRange(t *testing.T) {
	t.Parallel()

	p := NewRandomPolicy(nil)
	for c, r := range DefaultRanges() {
		for i := 0; i < 20; i++ {
			d := p.Delay(c)
			assert.GreaterOrEqual(t, d, r.Min, c.String())
			assert.LessOrEqual(t, d, r.Max, c.String())
		}
	}
	assert.Equal(t, 5*time.Second, p.Delay(PostLogin))
	assert.Zero(t, ZeroPolicy{}.Delay(Target))
	assert.Equal(t, "context(42)", Context(42).String())
}
