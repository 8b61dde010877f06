package extractor

import "errors"

// Error taxonomy for the extraction engine. Field and section failures are
// absorbed by the engine; only ErrAuthenticationFailed aborts a run.
var (
	// ErrLookupAbsent means a selector chain found nothing.
	ErrLookupAbsent = errors.New("lookup absent")
	// ErrNavigationTimeout means the page readiness wait exceeded its bound.
	ErrNavigationTimeout = errors.New("navigation readiness timeout")
	// ErrAuthenticationFailed means the session reached the Failed state.
	ErrAuthenticationFailed = errors.New("authentication failed")
	// ErrNotAuthenticated is returned when navigation is attempted without a session.
	ErrNotAuthenticated = errors.New("session not authenticated")
	// ErrTranslationUnavailable wraps translation service failures.
	ErrTranslationUnavailable = errors.New("translation unavailable")
	// ErrSinkWrite wraps persistence failures for a single row.
	ErrSinkWrite = errors.New("sink write failed")
)
