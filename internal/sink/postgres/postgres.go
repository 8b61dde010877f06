// Package postgres persists records into a Postgres table.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JakeFAU/orgextract/internal/extractor"
)

const defaultTable = "organization_records"

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Config controls the connection pool and target table.
type Config struct {
	DSN             string        `mapstructure:"dsn"`
	Table           string        `mapstructure:"table"`
	CreateTable     bool          `mapstructure:"create_table"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

type execCloser interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Close()
}

// Sink inserts one row per record.
type Sink struct {
	pool  execCloser
	table string
}

// Open connects a pool and optionally creates the table.
func Open(ctx context.Context, cfg Config) (*Sink, error) {
	if cfg.DSN == "" {
		return nil, errors.New("sink.postgres.dsn is required")
	}
	table, err := tableName(cfg.Table)
	if err != nil {
		return nil, err
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	s := &Sink{pool: pool, table: table}
	if cfg.CreateTable {
		if err := s.EnsureTable(ctx); err != nil {
			pool.Close()
			return nil, err
		}
	}
	return s, nil
}

// NewWithPool builds a sink over an existing pool.
func NewWithPool(pool execCloser, table string) (*Sink, error) {
	if pool == nil {
		return nil, errors.New("pool is required")
	}
	name, err := tableName(table)
	if err != nil {
		return nil, err
	}
	return &Sink{pool: pool, table: name}, nil
}

func tableName(table string) (string, error) {
	if table == "" {
		table = defaultTable
	}
	if !validTableName.MatchString(table) {
		return "", fmt.Errorf("invalid table name %q", table)
	}
	return table, nil
}

// EnsureTable creates the record table when it does not exist.
func (s *Sink) EnsureTable(ctx context.Context) error {
	ddl := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	id                     BIGSERIAL PRIMARY KEY,
	run_id                 TEXT NOT NULL,
	source_url             TEXT NOT NULL,
	company_name           TEXT NOT NULL,
	description            TEXT NOT NULL,
	job_posts              TEXT[] NOT NULL,
	employees              TEXT NOT NULL,
	industry               TEXT NOT NULL,
	location               TEXT NOT NULL,
	website                TEXT NOT NULL,
	domain                 TEXT NOT NULL,
	phone_numbers          TEXT NOT NULL,
	email_contacts         TEXT NOT NULL,
	founders               TEXT NOT NULL,
	engineering_heads      TEXT NOT NULL,
	founder_candidates     JSONB NOT NULL,
	engineering_candidates JSONB NOT NULL,
	error                  TEXT,
	extracted_at           TIMESTAMPTZ NOT NULL
)`, s.table)
	if _, err := s.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("create table %s: %w", s.table, err)
	}
	return nil
}

// Append inserts the finalized record.
func (s *Sink) Append(ctx context.Context, rec extractor.Record) error {
	if s == nil || s.pool == nil {
		return fmt.Errorf("%w: postgres sink is not configured", extractor.ErrSinkWrite)
	}
	rec = rec.Finalize()
	founders, err := candidatesJSON(rec.FounderCandidates)
	if err != nil {
		return fmt.Errorf("%w: %w", extractor.ErrSinkWrite, err)
	}
	engineering, err := candidatesJSON(rec.EngineeringCandidates)
	if err != nil {
		return fmt.Errorf("%w: %w", extractor.ErrSinkWrite, err)
	}
	var recErr *string
	if rec.Err != "" {
		recErr = &rec.Err
	}

	query := fmt.Sprintf(`
INSERT INTO %s (
	run_id,
	source_url,
	company_name,
	description,
	job_posts,
	employees,
	industry,
	location,
	website,
	domain,
	phone_numbers,
	email_contacts,
	founders,
	engineering_heads,
	founder_candidates,
	engineering_candidates,
	error,
	extracted_at
) VALUES (
	$1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18
)`, s.table)

	args := []any{
		rec.RunID,
		rec.SourceURL,
		rec.Name,
		rec.Description,
		rec.JobPosts,
		rec.Employees,
		rec.Industry,
		rec.Location,
		rec.Website,
		rec.Domain,
		rec.Phones,
		rec.Emails,
		rec.Founders,
		rec.EngineeringHeads,
		founders,
		engineering,
		recErr,
		rec.ExtractedAt,
	}
	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: insert record: %w", extractor.ErrSinkWrite, err)
	}
	return nil
}

// Close releases the pool.
func (s *Sink) Close() error {
	if s != nil && s.pool != nil {
		s.pool.Close()
	}
	return nil
}

func candidatesJSON(c []extractor.PersonCandidate) ([]byte, error) {
	if c == nil {
		c = []extractor.PersonCandidate{}
	}
	data, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshal candidates: %w", err)
	}
	return data, nil
}
