package sink

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/orgextract/internal/extractor"
)

type recordingSink struct {
	records  []extractor.Record
	err      error
	closeErr error
	closed   bool
}

func (s *recordingSink) Append(_ context.Context, rec extractor.Record) error {
	if s.err != nil {
		return s.err
	}
	s.records = append(s.records, rec)
	return nil
}

func (s *recordingSink) Close() error {
	s.closed = true
	return s.closeErr
}

func TestMultiAppendReachesEverySink(t *testing.T) {
	t.Parallel()

	boom := errors.New("disk full")
	failing := &recordingSink{err: boom}
	healthy := &recordingSink{}
	m := NewMulti(Named{Name: "csv", Sink: failing}, Named{Name: "nil"}, Named{Name: "jsonl", Sink: healthy})

	assert.Equal(t, 2, m.Len())
	assert.Equal(t, []string{"csv", "jsonl"}, m.Names())

	err := m.Append(context.Background(), extractor.Record{Name: "Acme"})
	require.ErrorIs(t, err, extractor.ErrSinkWrite)
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "csv")
	require.Len(t, healthy.records, 1)
	assert.Equal(t, "Acme", healthy.records[0].Name)
}

func TestMultiAppendSuccess(t *testing.T) {
	t.Parallel()

	a, b := &recordingSink{}, &recordingSink{}
	m := NewMulti(Named{Name: "a", Sink: a}, Named{Name: "b", Sink: b})
	require.NoError(t, m.Append(context.Background(), extractor.Record{}))
	assert.Len(t, a.records, 1)
	assert.Len(t, b.records, 1)
}

func TestMultiCloseJoinsErrors(t *testing.T) {
	t.Parallel()

	boom := errors.New("flush failed")
	a := &recordingSink{closeErr: boom}
	b := &recordingSink{}
	m := NewMulti(Named{Name: "a", Sink: a}, Named{Name: "b", Sink: b})

	err := m.Close()
	require.ErrorIs(t, err, boom)
	assert.True(t, a.closed)
	assert.True(t, b.closed)
}
