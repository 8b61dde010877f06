package navigator

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

// Context names a point in the run where the navigator pauses.
type Context int

// Pacing contexts.
const (
	// Page follows a profile or sub-section load.
	Page Context = iota
	// About follows the about-page load; used for each scroll pause.
	About
	// Search separates people searches.
	Search
	// Target separates two targets.
	Target
	// PostLogin follows a successful login.
	PostLogin
)

func (c Context) String() string {
	switch c {
	case Page:
		return "page"
	case About:
		return "about"
	case Search:
		return "search"
	case Target:
		return "target"
	case PostLogin:
		return "post_login"
	default:
		return fmt.Sprintf("context(%d)", int(c))
	}
}

// Range is an inclusive delay range.
type Range struct {
	Min time.Duration
	Max time.Duration
}

// DelayPolicy decides how long to pause in a given context.
type DelayPolicy interface {
	Delay(c Context) time.Duration
}

// DefaultRanges are the pauses a human-paced session uses.
func DefaultRanges() map[Context]Range {
	return map[Context]Range{
		Page:      {Min: 3 * time.Second, Max: 5 * time.Second},
		About:     {Min: 2 * time.Second, Max: 3 * time.Second},
		Search:    {Min: 2 * time.Second, Max: 4 * time.Second},
		Target:    {Min: 10 * time.Second, Max: 18 * time.Second},
		PostLogin: {Min: 5 * time.Second, Max: 5 * time.Second},
	}
}

// RandomPolicy draws a uniform delay from the range of each context.
type RandomPolicy struct {
	ranges map[Context]Range
}

// NewRandomPolicy builds a policy; contexts missing from ranges use
// DefaultRanges.
func NewRandomPolicy(ranges map[Context]Range) *RandomPolicy {
	merged := DefaultRanges()
	for c, r := range ranges {
		merged[c] = r
	}
	return &RandomPolicy{ranges: merged}
}

// Delay returns a random duration within the context's range.
func (p *RandomPolicy) Delay(c Context) time.Duration {
	r, ok := p.ranges[c]
	if !ok {
		return 0
	}
	if r.Max <= r.Min {
		return r.Min
	}
	return r.Min + randomJitter(r.Max-r.Min)
}

func randomJitter(limit time.Duration) time.Duration {
	if limit <= 0 {
		return 0
	}
	n, err := rand.Int(rand.Reader, big.NewInt(int64(limit)+1))
	if err != nil {
		return limit / 2
	}
	return time.Duration(n.Int64())
}

// ZeroPolicy never pauses.
type ZeroPolicy struct{}

// Delay always returns 0.
func (ZeroPolicy) Delay(Context) time.Duration { return 0 }

// Sleep pauses for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
