// Package sink fans records out to one or more persistence backends.
package sink

import (
	"context"
	"errors"
	"fmt"

	"github.com/JakeFAU/orgextract/internal/extractor"
)

// Named pairs a sink with the label used in logs and metrics.
type Named struct {
	Name string
	Sink extractor.Sink
}

// Multi appends every record to each of its sinks in order. A failing sink
// does not stop the others.
type Multi struct {
	sinks []Named
}

// NewMulti builds a fan-out sink. Nil sinks are skipped.
func NewMulti(sinks ...Named) *Multi {
	m := &Multi{}
	for _, s := range sinks {
		if s.Sink != nil {
			m.sinks = append(m.sinks, s)
		}
	}
	return m
}

// Len reports the number of wrapped sinks.
func (m *Multi) Len() int {
	return len(m.sinks)
}

// Names lists the wrapped sink names.
func (m *Multi) Names() []string {
	names := make([]string, 0, len(m.sinks))
	for _, s := range m.sinks {
		names = append(names, s.Name)
	}
	return names
}

// Append writes rec to every sink. The returned error wraps
// extractor.ErrSinkWrite and every individual failure.
func (m *Multi) Append(ctx context.Context, rec extractor.Record) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Sink.Append(ctx, rec); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.Name, err))
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", extractor.ErrSinkWrite, errors.Join(errs...))
}

// Close closes every sink and joins their errors.
func (m *Multi) Close() error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Sink.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", s.Name, err))
		}
	}
	return errors.Join(errs...)
}
