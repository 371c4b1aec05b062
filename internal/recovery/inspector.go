package recovery

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"

	"traceloom/internal/ledger"
	"traceloom/internal/sink"
)

// ErrMissingArtifacts reports that neither a ledger nor a sink exists for the
// requested session. Callers surface this as a no-op report, not a crash.
var ErrMissingArtifacts = errors.New("no run artifacts found")

// Report describes the reconciliation of a progress ledger against its result
// sink. The inspector never repairs; the caller decides whether to re-run
// identifiers or discard the ledger.
type Report struct {
	LedgerPath string
	SinkPath   string

	LedgerExists bool
	SinkExists   bool

	// TotalCompleted is the number of identifiers the ledger marks complete.
	TotalCompleted int
	// TotalAttempted is the number of distinct identifiers with at least one
	// sink record.
	TotalAttempted int

	// MissingResults lists identifiers marked complete in the ledger with no
	// record in the sink: the ledger-ahead anomaly. These items completed on
	// paper but their results are gone.
	MissingResults []string

	// UnledgeredSuccesses lists identifiers with a success record in the sink
	// but no ledger entry. Given the append-before-mark ordering this is the
	// expected crash window; a resume retries these items.
	UnledgeredSuccesses []string

	// FailedAttempts lists identifiers whose only sink records are failures
	// and which the ledger does not mark complete. Expected: failures are
	// never marked, so a resume retries them.
	FailedAttempts []string
}

// Consistent reports whether the ledger and sink agree.
func (r *Report) Consistent() bool {
	return len(r.MissingResults) == 0 && len(r.UnledgeredSuccesses) == 0
}

// Inspect loads a ledger and a sink and reconciles them. A corrupt ledger
// propagates ledger.ErrCorrupt; when neither artifact exists the error wraps
// ErrMissingArtifacts.
func Inspect(ledgerPath, sinkPath string) (*Report, error) {
	report := &Report{LedgerPath: ledgerPath, SinkPath: sinkPath}

	led, err := ledger.Load(ledgerPath)
	if err != nil {
		return nil, fmt.Errorf("inspect ledger: %w", err)
	}
	report.LedgerExists = ledgerFileExists(ledgerPath)

	records, err := sink.ReadRecords(sinkPath)
	switch {
	case err == nil:
		report.SinkExists = true
	case errors.Is(err, fs.ErrNotExist):
		report.SinkExists = false
	default:
		return nil, fmt.Errorf("inspect sink: %w", err)
	}

	if !report.LedgerExists && !report.SinkExists {
		return nil, fmt.Errorf("%w: checked %s and %s", ErrMissingArtifacts, ledgerPath, sinkPath)
	}

	succeeded := make(map[string]struct{})
	attempted := make(map[string]struct{})
	for _, record := range records {
		attempted[record.ItemID] = struct{}{}
		if record.IsSuccess() {
			succeeded[record.ItemID] = struct{}{}
		}
	}

	report.TotalCompleted = led.Len()
	report.TotalAttempted = len(attempted)

	for _, id := range led.IDs() {
		if _, ok := attempted[id]; !ok {
			report.MissingResults = append(report.MissingResults, id)
		}
	}
	for id := range succeeded {
		if !led.IsComplete(id) {
			report.UnledgeredSuccesses = append(report.UnledgeredSuccesses, id)
		}
	}
	for id := range attempted {
		if _, ok := succeeded[id]; ok {
			continue
		}
		if !led.IsComplete(id) {
			report.FailedAttempts = append(report.FailedAttempts, id)
		}
	}
	sort.Strings(report.UnledgeredSuccesses)
	sort.Strings(report.FailedAttempts)

	return report, nil
}

func ledgerFileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
