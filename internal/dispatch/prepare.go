package dispatch

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"traceloom/internal/ledger"
	"traceloom/internal/logging"
	"traceloom/internal/runs"
	"traceloom/internal/sink"
)

// Setup binds a resolved session identity to its opened artifacts.
type Setup struct {
	Session runs.Session
	Ledger  *ledger.Ledger
	Sink    *sink.Sink
	// Resumed reports whether an existing session's artifacts were adopted.
	Resumed bool
}

// PrepareOptions controls session resolution.
type PrepareOptions struct {
	ResultsDir string
	Domain     string
	// Resume adopts the most recent session for the domain when one exists.
	// False always mints a fresh timestamp-derived identity.
	Resume bool
	// StrictLedger aborts on a corrupt ledger instead of restarting empty.
	StrictLedger bool
	// SinkLockTimeout bounds waiting for the result file lock per append.
	SinkLockTimeout time.Duration
	// Now overrides the session start time, for tests. Zero means wall clock.
	Now time.Time
}

// Prepare resolves which session a run belongs to and opens its ledger and
// sink. A corrupt ledger is restarted empty unless strict mode is on; the
// prior completions are then lost and the whole batch reruns, which is safe
// because the sink is append-only.
func Prepare(opts PrepareOptions, logger *slog.Logger) (Setup, error) {
	logger = logging.WithComponent(logger, "dispatch")

	session := runs.NewSession(opts.Domain, opts.Now)
	resumed := false
	if opts.Resume {
		latest, ok, err := runs.Latest(opts.ResultsDir, opts.Domain)
		if err != nil {
			return Setup{}, fmt.Errorf("find resumable session: %w", err)
		}
		if ok {
			session = latest
			resumed = true
		}
	}

	ledgerPath := session.LedgerPath(opts.ResultsDir)
	var (
		led *ledger.Ledger
		err error
	)
	if resumed {
		led, err = ledger.Load(ledgerPath)
		switch {
		case err == nil:
		case errors.Is(err, ledger.ErrCorrupt) && !opts.StrictLedger:
			logger.Warn("ledger unreadable, restarting progress from scratch",
				logging.String(logging.FieldSession, session.ID()),
				logging.Error(err),
			)
			led = ledger.New(ledgerPath)
		default:
			return Setup{}, fmt.Errorf("load ledger: %w", err)
		}
	} else {
		led = ledger.New(ledgerPath)
	}

	if resumed {
		logger.Info("resuming session",
			logging.String(logging.FieldSession, session.ID()),
			logging.Int("already_complete", led.Len()),
		)
	} else {
		logger.Info("starting fresh session",
			logging.String(logging.FieldSession, session.ID()),
		)
	}

	return Setup{
		Session: session,
		Ledger:  led,
		Sink:    sink.New(session.SinkPath(opts.ResultsDir), opts.SinkLockTimeout),
		Resumed: resumed,
	}, nil
}
