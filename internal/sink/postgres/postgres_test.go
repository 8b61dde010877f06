package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/orgextract/internal/extractor"
)

func TestAppendInsertsRow(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s, err := NewWithPool(mock, "")
	require.NoError(t, err)

	now := time.Unix(1700000000, 0).UTC()
	rec := extractor.Record{
		Name:              "Acme",
		JobPosts:          []string{"Backend Engineer"},
		SourceURL:         "https://www.linkedin.com/company/acme/",
		RunID:             "run-1",
		ExtractedAt:       now,
		FounderCandidates: []extractor.PersonCandidate{{Name: "Jane Roe", Title: "CEO", ProfileURL: "https://www.linkedin.com/in/jane", Keyword: "CEO"}},
	}

	mock.ExpectExec("INSERT INTO organization_records").
		WithArgs(
			"run-1",
			rec.SourceURL,
			"Acme",
			extractor.SentinelDescription,
			[]string{"Backend Engineer"},
			extractor.SentinelEmployees,
			extractor.SentinelIndustry,
			extractor.SentinelLocation,
			extractor.SentinelWebsite,
			extractor.SentinelDomain,
			extractor.SentinelPhone,
			extractor.SentinelEmail,
			extractor.SentinelFounders,
			extractor.SentinelEngineering,
			[]byte(`[{"name":"Jane Roe","title":"CEO","profile_url":"https://www.linkedin.com/in/jane","keyword":"CEO"}]`),
			[]byte(`[]`),
			(*string)(nil),
			now,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, s.Append(context.Background(), rec))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAppendStoresJobPostsSentinel(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s, err := NewWithPool(mock, "")
	require.NoError(t, err)

	args := make([]any, 18)
	for i := range args {
		args[i] = pgxmock.AnyArg()
	}
	args[4] = []string{extractor.SentinelJobPosts}
	mock.ExpectExec("INSERT INTO organization_records").
		WithArgs(args...).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, s.Append(context.Background(), extractor.Record{SourceURL: "https://www.linkedin.com/company/acme/"}))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAppendWrapsExecError(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s, err := NewWithPool(mock, "orgs")
	require.NoError(t, err)

	boom := errors.New("connection reset")
	mock.ExpectExec("INSERT INTO orgs").WillReturnError(boom)

	err = s.Append(context.Background(), extractor.Record{Name: "Acme"})
	require.ErrorIs(t, err, extractor.ErrSinkWrite)
	require.ErrorIs(t, err, boom)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureTable(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s, err := NewWithPool(mock, "orgs")
	require.NoError(t, err)
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS orgs").WillReturnResult(pgxmock.NewResult("CREATE", 0))
	require.NoError(t, s.EnsureTable(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNewWithPoolValidation(t *testing.T) {
	t.Parallel()

	_, err := NewWithPool(nil, "orgs")
	require.Error(t, err)

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	_, err = NewWithPool(mock, "orgs; DROP TABLE x")
	require.Error(t, err)
}

func TestOpenRequiresDSN(t *testing.T) {
	t.Parallel()

	_, err := Open(context.Background(), Config{})
	require.Error(t, err)
	_, err = Open(context.Background(), Config{DSN: "postgres://localhost/db", Table: "bad name"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid table name")
}
