package sink

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// ErrWrite reports a failed append: lock acquisition timed out or the durable
// write failed. Callers treat this as an item-level failure, not process-fatal.
var ErrWrite = errors.New("sink write")

const lockRetryDelay = 100 * time.Millisecond

// Sink appends result records to a persisted JSON array, one record at a time,
// safe under concurrent appenders in this process and across processes.
//
// Each append acquires an exclusive file lock, reads the full collection,
// appends, and writes the whole collection back via write-then-rename. The
// read-modify-write under the lock is what prevents lost updates; a plain
// append would interleave under concurrency.
type Sink struct {
	path        string
	lock        *flock.Flock
	lockTimeout time.Duration
}

// New binds a sink to path. No file is created until the first append.
func New(path string, lockTimeout time.Duration) *Sink {
	if lockTimeout <= 0 {
		lockTimeout = 30 * time.Second
	}
	return &Sink{
		path:        path,
		lock:        flock.New(path + ".lock"),
		lockTimeout: lockTimeout,
	}
}

// Path returns the sink file location.
func (s *Sink) Path() string {
	return s.path
}

// Append durably adds one record to the collection. Two concurrent Append
// calls never lose a record. Failures wrap ErrWrite.
func (s *Sink) Append(ctx context.Context, record Record) error {
	lockCtx, cancel := context.WithTimeout(ctx, s.lockTimeout)
	defer cancel()

	locked, err := s.lock.TryLockContext(lockCtx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("%w: acquire lock for %s: %v", ErrWrite, s.path, err)
	}
	if !locked {
		return fmt.Errorf("%w: lock %s not acquired within %s", ErrWrite, s.path, s.lockTimeout)
	}
	defer s.lock.Unlock()

	records, err := s.readLocked()
	if err != nil {
		return err
	}
	records = append(records, record)

	if err := s.writeLocked(records); err != nil {
		return err
	}
	return nil
}

// Records reads the full persisted collection. A missing file yields an empty
// slice.
func (s *Sink) Records() ([]Record, error) {
	records, err := ReadRecords(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	return records, nil
}

// Finalize returns the simplified projection over every success record. Pure
// with respect to the primary sink artifact.
func (s *Sink) Finalize() ([]SimplifiedRecord, error) {
	records, err := s.Records()
	if err != nil {
		return nil, err
	}
	simplified := make([]SimplifiedRecord, 0, len(records))
	for _, record := range records {
		if !record.IsSuccess() {
			continue
		}
		simplified = append(simplified, record.Simplify())
	}
	return simplified, nil
}

// ReadRecords loads a sink collection from path without locking. Intended for
// read-only consumers such as the recovery inspector.
func ReadRecords(path string) ([]Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		return nil, fmt.Errorf("read sink %s: %w", path, err)
	}
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse sink %s: %w", path, err)
	}
	return records, nil
}

func (s *Sink) readLocked() ([]Record, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: read %s: %v", ErrWrite, s.path, err)
	}
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		// Appending over an unparseable collection would rewrite the file and
		// discard every previously persisted record.
		return nil, fmt.Errorf("%w: parse %s: %v", ErrWrite, s.path, err)
	}
	return records, nil
}

func (s *Sink) writeLocked(records []Record) error {
	if dir := filepath.Dir(s.path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("%w: create sink directory: %v", ErrWrite, err)
		}
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encode records: %v", ErrWrite, err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("%w: write temp file: %v", ErrWrite, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("%w: replace %s: %v", ErrWrite, s.path, err)
	}
	return nil
}

// WriteSimplified persists a simplified projection to path.
func WriteSimplified(path string, records []SimplifiedRecord) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode simplified records: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write simplified results: %w", err)
	}
	return nil
}
