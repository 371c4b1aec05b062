package runs

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// sessionTimeFormat matches the timestamp embedded in artifact names.
const sessionTimeFormat = "20060102_150405"

const (
	sinkSuffix       = ".json"
	ledgerSuffix     = ".progress.json"
	simplifiedSuffix = "_simplified.json"
)

// Session is the identity of one batch execution. It groups a progress ledger
// and a result sink under a shared timestamp-derived name, which is what makes
// interrupted runs resumable.
type Session struct {
	Domain    string
	StartedAt time.Time
}

// NewSession mints a fresh session identity for a domain. Every run that does
// not explicitly resume gets a new timestamp and therefore new artifacts.
func NewSession(domain string, now time.Time) Session {
	if now.IsZero() {
		now = time.Now()
	}
	return Session{Domain: domain, StartedAt: now}
}

// ID returns the canonical session identifier, e.g. "handwriting_20260824_153012".
func (s Session) ID() string {
	return fmt.Sprintf("%s_%s", s.Domain, s.StartedAt.Format(sessionTimeFormat))
}

// baseName is the artifact stem shared by the sink, ledger, and projection.
func (s Session) baseName() string {
	return fmt.Sprintf("%s_reasoning_%s", s.Domain, s.StartedAt.Format(sessionTimeFormat))
}

// SinkPath returns the result artifact location under dir.
func (s Session) SinkPath(dir string) string {
	return filepath.Join(dir, s.baseName()+sinkSuffix)
}

// LedgerPath returns the progress ledger location under dir.
func (s Session) LedgerPath(dir string) string {
	return filepath.Join(dir, s.baseName()+ledgerSuffix)
}

// SimplifiedPath returns the simplified projection location under dir.
func (s Session) SimplifiedPath(dir string) string {
	return filepath.Join(dir, s.baseName()+simplifiedSuffix)
}

// ParseID reconstructs a session from its canonical identifier.
func ParseID(id string) (Session, error) {
	idx := strings.LastIndex(id, "_")
	if idx <= 0 {
		return Session{}, fmt.Errorf("parse session id %q: missing timestamp", id)
	}
	// The timestamp spans the last two underscore-separated fields.
	idx = strings.LastIndex(id[:idx], "_")
	if idx <= 0 {
		return Session{}, fmt.Errorf("parse session id %q: missing timestamp", id)
	}
	domain, stamp := id[:idx], id[idx+1:]
	startedAt, err := time.ParseInLocation(sessionTimeFormat, stamp, time.Local)
	if err != nil {
		return Session{}, fmt.Errorf("parse session id %q: %w", id, err)
	}
	return Session{Domain: domain, StartedAt: startedAt}, nil
}

// Latest scans dir for the most recent resumable session of a domain, judged
// by the timestamp embedded in ledger artifact names.
func Latest(dir, domain string) (Session, bool, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Session{}, false, nil
		}
		return Session{}, false, fmt.Errorf("scan results directory: %w", err)
	}

	prefix := domain + "_reasoning_"
	var found []Session
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, ledgerSuffix) {
			continue
		}
		stamp := strings.TrimSuffix(strings.TrimPrefix(name, prefix), ledgerSuffix)
		startedAt, err := time.ParseInLocation(sessionTimeFormat, stamp, time.Local)
		if err != nil {
			continue
		}
		found = append(found, Session{Domain: domain, StartedAt: startedAt})
	}
	if len(found) == 0 {
		return Session{}, false, nil
	}
	sort.Slice(found, func(i, j int) bool { return found[i].StartedAt.After(found[j].StartedAt) })
	return found[0], true, nil
}
