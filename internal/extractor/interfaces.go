package extractor

import (
	"context"
	"io"
	"time"
)

// Browser is the document-automation substrate. Every call is fallible and
// the engine never assumes success.
type Browser interface {
	// Navigate issues a page transition.
	Navigate(ctx context.Context, url string) error
	// WaitReady blocks until marker matches at least one node or timeout elapses.
	WaitReady(ctx context.Context, marker Strategy, timeout time.Duration) error
	// Query returns the nodes matching s under scope; a nil scope is the document.
	Query(ctx context.Context, s Strategy, scope Node) ([]Node, error)
	// Text returns the rendered text of n.
	Text(ctx context.Context, n Node) (string, error)
	// Attribute returns the named attribute of n and whether it is present.
	Attribute(ctx context.Context, n Node, name string) (string, bool, error)
	// Execute runs a script in the page.
	Execute(ctx context.Context, script string) error
	// CurrentURL returns the URL of the current page.
	CurrentURL(ctx context.Context) (string, error)
	// PageSource returns the serialized DOM of the current page.
	PageSource(ctx context.Context) (string, error)
	// Fill sets the value of the input matched by selector.
	Fill(ctx context.Context, selector Strategy, value string) error
	// Click clicks the element matched by selector.
	Click(ctx context.Context, selector Strategy) error
}

// Translator converts text to the target language.
type Translator interface {
	Translate(ctx context.Context, text string) (string, error)
}

// Sink is an append-only row destination for finalized records.
type Sink interface {
	Append(ctx context.Context, rec Record) error
	Close() error
}

// BlobStore writes raw artifacts and returns a URI.
type BlobStore interface {
	PutObject(ctx context.Context, path string, contentType string, r io.Reader) (string, error)
}

// Publisher pushes record events to a topic.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces run identifiers.
type IDGenerator interface {
	NewID() (string, error)
}
