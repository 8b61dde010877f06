// Package sheets appends records to a Google Sheets worksheet.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/JakeFAU/orgextract/internal/extractor"
)

const valueInputRaw = "RAW"

// Config selects the spreadsheet and worksheet.
type Config struct {
	SpreadsheetID   string `mapstructure:"spreadsheet_id"`
	Sheet           string `mapstructure:"sheet"`
	CredentialsFile string `mapstructure:"credentials_file"`
}

// Sink appends one row per record below a fixed header row.
type Sink struct {
	svc    *sheets.Service
	id     string
	sheet  string
	logger *zap.Logger
	mu     sync.Mutex
}

// Open connects to the Sheets API and makes sure the worksheet starts with
// the expected header row. An empty sheet gets the header; a sheet whose
// first row differs is cleared and rewritten.
func Open(ctx context.Context, cfg Config, logger *zap.Logger, opts ...option.ClientOption) (*Sink, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("spreadsheet id is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Sheet == "" {
		cfg.Sheet = "Sheet1"
	}
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	opts = append(opts, option.WithScopes(sheets.SpreadsheetsScope))

	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	s := &Sink{svc: svc, id: cfg.SpreadsheetID, sheet: cfg.Sheet, logger: logger}
	if err := s.ensureHeader(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Sink) ensureHeader(ctx context.Context) error {
	resp, err := s.svc.Spreadsheets.Values.Get(s.id, s.headerRange()).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read header row: %w", err)
	}
	var current []any
	if len(resp.Values) > 0 {
		current = resp.Values[0]
	}
	switch {
	case len(current) == 0:
		s.logger.Info("writing header to empty sheet", zap.String("sheet", s.sheet))
	case headerMatches(current):
		return nil
	default:
		s.logger.Warn("unexpected header row, clearing sheet", zap.String("sheet", s.sheet), zap.Int("columns", len(current)))
		if _, err := s.svc.Spreadsheets.Values.Clear(s.id, s.sheet, &sheets.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
			return fmt.Errorf("clear sheet: %w", err)
		}
	}
	header := &sheets.ValueRange{Values: [][]any{toCells(extractor.Headers)}}
	if _, err := s.svc.Spreadsheets.Values.Update(s.id, s.headerRange(), header).
		ValueInputOption(valueInputRaw).Context(ctx).Do(); err != nil {
		return fmt.Errorf("write header row: %w", err)
	}
	return nil
}

// Append adds the record row after the last row of the sheet.
func (s *Sink) Append(ctx context.Context, rec extractor.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row := &sheets.ValueRange{Values: [][]any{toCells(rec.Row())}}
	_, err := s.svc.Spreadsheets.Values.Append(s.id, s.sheet, row).
		ValueInputOption(valueInputRaw).
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("%w: append row: %w", extractor.ErrSinkWrite, err)
	}
	return nil
}

// Close is a no-op; the API client holds no open resources.
func (s *Sink) Close() error {
	return nil
}

func (s *Sink) headerRange() string {
	return fmt.Sprintf("%s!A1:%s1", s.sheet, column(len(extractor.Headers)))
}

func headerMatches(row []any) bool {
	if len(row) != len(extractor.Headers) {
		return false
	}
	for i, cell := range row {
		if strings.TrimSpace(fmt.Sprint(cell)) != extractor.Headers[i] {
			return false
		}
	}
	return true
}

func toCells(values []string) []any {
	cells := make([]any, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return cells
}

// column converts a 1-based column index to its A1 letter form.
func column(n int) string {
	var out []byte
	for n > 0 {
		n--
		out = append([]byte{byte('A' + n%26)}, out...)
		n /= 26
	}
	return string(out)
}
