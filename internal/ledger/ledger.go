package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/gofrs/flock"
)

// ErrCorrupt reports a ledger file that exists but cannot be parsed. Callers
// decide whether to restart with an empty ledger or abort (strict mode).
var ErrCorrupt = errors.New("corrupt ledger")

// Entry records completion metadata for one work-item identifier.
type Entry struct {
	CompletedAt time.Time `json:"completed_at"`
}

// fileState is the persisted ledger encoding. The whole document is rewritten
// on every mark so a reader between writes always sees a parseable file.
type fileState struct {
	Completed map[string]Entry `json:"completed"`
	UpdatedAt time.Time        `json:"updated_at"`
	Total     int              `json:"total"`
}

// Ledger tracks the set of completed work-item identifiers for one run session
// and persists it durably after every mutation.
//
// MarkComplete must be serialized by the caller; the dispatcher funnels all
// completions through a single-writer path. The internal mutex only protects
// concurrent membership reads against that writer.
type Ledger struct {
	path string
	lock *flock.Flock

	mu        sync.RWMutex
	completed map[string]Entry
	persisted bool
}

// New returns an empty ledger bound to path without touching the filesystem.
// No file is created until the first MarkComplete.
func New(path string) *Ledger {
	return &Ledger{
		path:      path,
		lock:      flock.New(lockPath(path)),
		completed: make(map[string]Entry),
	}
}

// Load reads a persisted ledger. A missing file yields an empty ledger; a file
// that exists but cannot be parsed yields an error wrapping ErrCorrupt.
func Load(path string) (*Ledger, error) {
	l := New(path)

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return l, nil
		}
		return nil, fmt.Errorf("read ledger %s: %w", path, err)
	}

	var state fileState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", ErrCorrupt, path, err)
	}
	if state.Completed != nil {
		l.completed = state.Completed
	}
	l.persisted = true
	return l, nil
}

// Path returns the ledger file location.
func (l *Ledger) Path() string {
	return l.path
}

// IsComplete reports whether id has been marked complete.
func (l *Ledger) IsComplete(id string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.completed[id]
	return ok
}

// Len returns the number of completed identifiers.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.completed)
}

// IDs returns the completed identifiers in sorted order.
func (l *Ledger) IDs() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	ids := make([]string, 0, len(l.completed))
	for id := range l.completed {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Entry returns the completion metadata for id.
func (l *Ledger) Entry(id string) (Entry, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	entry, ok := l.completed[id]
	return entry, ok
}

// MarkComplete adds id to the completed set and synchronously persists the
// updated ledger before returning. The write goes to a temporary file that is
// renamed over the ledger, so a crash mid-write leaves the prior state intact.
// Marking an already-complete id refreshes its metadata; replay stays idempotent.
func (l *Ledger) MarkComplete(id string, completedAt time.Time) error {
	if id == "" {
		return errors.New("ledger: empty identifier")
	}
	if completedAt.IsZero() {
		completedAt = time.Now().UTC()
	}

	l.mu.Lock()
	l.completed[id] = Entry{CompletedAt: completedAt.UTC()}
	snapshot := fileState{
		Completed: make(map[string]Entry, len(l.completed)),
		UpdatedAt: time.Now().UTC(),
		Total:     len(l.completed),
	}
	for k, v := range l.completed {
		snapshot.Completed[k] = v
	}
	l.mu.Unlock()

	if err := l.persist(snapshot); err != nil {
		return err
	}

	l.mu.Lock()
	l.persisted = true
	l.mu.Unlock()
	return nil
}

func (l *Ledger) persist(state fileState) error {
	if err := l.lock.Lock(); err != nil {
		return fmt.Errorf("lock ledger %s: %w", l.path, err)
	}
	defer l.lock.Unlock()

	if dir := filepath.Dir(l.path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create ledger directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("encode ledger: %w", err)
	}

	tmp := l.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write ledger temp file: %w", err)
	}
	if err := os.Rename(tmp, l.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace ledger %s: %w", l.path, err)
	}
	return nil
}

func lockPath(path string) string {
	return path + ".lock"
}
