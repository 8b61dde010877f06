package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/JakeFAU/orgextract/internal/extractor"
)

// JSONL appends one JSON object per line, including people candidates and
// run metadata the tabular sinks omit.
type JSONL struct {
	mu   sync.Mutex
	f    *os.File
	enc  *json.Encoder
	path string
}

// OpenJSONL opens path for appending.
func OpenJSONL(path string) (*JSONL, error) {
	f, _, err := openAppend(path)
	if err != nil {
		return nil, err
	}
	enc := json.NewEncoder(f)
	enc.SetEscapeHTML(false)
	return &JSONL{f: f, enc: enc, path: path}, nil
}

// Path returns the output file path.
func (s *JSONL) Path() string {
	return s.path
}

// Append encodes the finalized record as a single line.
func (s *JSONL) Append(ctx context.Context, rec extractor.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f == nil {
		return fmt.Errorf("%w: jsonl sink closed", extractor.ErrSinkWrite)
	}
	if err := s.enc.Encode(rec.Finalize()); err != nil {
		return fmt.Errorf("%w: %w", extractor.ErrSinkWrite, err)
	}
	return nil
}

// Close closes the file. It is safe to call more than once.
func (s *JSONL) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f == nil {
		return nil
	}
	err := s.f.Close()
	s.f = nil
	return err
}
