package audit

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"geladeira/api/internal/payment"
)

// FileSink appends newline-delimited JSON records to a file.
//
// Each record is a single write on an O_APPEND descriptor, so lines from
// one process never interleave. Several processes sharing the file should
// use SQLiteSink instead.
type FileSink struct {
	path string
	mu   sync.Mutex
}

// NewFileSink creates a sink appending to path.
func NewFileSink(path string) *FileSink {
	return &FileSink{path: path}
}

func (s *FileSink) Name() string { return "file" }

func (s *FileSink) Write(_ context.Context, rec payment.AuditRecord) error {
	line, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	line = append(line, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	if _, err := f.Write(line); err != nil {
		f.Close()
		return fmt.Errorf("write: %w", err)
	}
	return f.Close()
}

// Recent returns the newest records first.
func (s *FileSink) Recent(_ context.Context, limit int) ([]payment.AuditRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ReadFile(s.path, limit)
}

// ReadFile returns the last limit records of an audit log, newest first.
// A missing file yields no records. Lines that fail to decode are skipped.
func ReadFile(path string, limit int) ([]payment.AuditRecord, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var all []payment.AuditRecord
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var rec payment.AuditRecord
		if err := json.Unmarshal(sc.Bytes(), &rec); err != nil {
			continue
		}
		all = append(all, rec)
		if limit > 0 && len(all) > limit {
			all = all[1:]
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	for i, j := 0, len(all)-1; i < j; i, j = i+1, j-1 {
		all[i], all[j] = all[j], all[i]
	}
	return all, nil
}
