// Package file writes records to local CSV or JSON-lines files.
package file

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/JakeFAU/orgextract/internal/extractor"
)

// CSV appends one row per record. A header row is written when the file is
// new or empty.
type CSV struct {
	mu   sync.Mutex
	f    *os.File
	w    *csv.Writer
	path string
}

// OpenCSV opens path for appending, creating parent directories as needed.
func OpenCSV(path string) (*CSV, error) {
	f, size, err := openAppend(path)
	if err != nil {
		return nil, err
	}
	s := &CSV{f: f, w: csv.NewWriter(f), path: path}
	if size == 0 {
		if err := s.write(extractor.Headers); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("write csv header: %w", err)
		}
	}
	return s, nil
}

// Path returns the output file path.
func (s *CSV) Path() string {
	return s.path
}

// Append writes the record row and flushes it to the file.
func (s *CSV) Append(ctx context.Context, rec extractor.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f == nil {
		return fmt.Errorf("%w: csv sink closed", extractor.ErrSinkWrite)
	}
	if err := s.write(rec.Row()); err != nil {
		return fmt.Errorf("%w: %w", extractor.ErrSinkWrite, err)
	}
	return nil
}

func (s *CSV) write(row []string) error {
	if err := s.w.Write(row); err != nil {
		return err
	}
	s.w.Flush()
	return s.w.Error()
}

// Close flushes and closes the file. It is safe to call more than once.
func (s *CSV) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f == nil {
		return nil
	}
	s.w.Flush()
	err := errors.Join(s.w.Error(), s.f.Close())
	s.f = nil
	return err
}

func openAppend(path string) (*os.File, int64, error) {
	if path == "" {
		return nil, 0, errors.New("output path is required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, 0, fmt.Errorf("create output directory: %w", err)
		}
	}
	f, err := os.OpenFile(filepath.Clean(path), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, 0, fmt.Errorf("open %s: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, 0, fmt.Errorf("stat %s: %w", path, err)
	}
	return f, info.Size(), nil
}
