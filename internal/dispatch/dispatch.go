package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"traceloom/internal/dataset"
	"traceloom/internal/ledger"
	"traceloom/internal/logging"
	"traceloom/internal/runs"
	"traceloom/internal/sink"
)

const (
	defaultWorkers = 4
	maxWorkers     = 64
)

// PipelineFunc produces the terminal record for one work item. The dispatcher
// treats it as a black box: any error or panic becomes an error record and the
// batch continues.
type PipelineFunc func(ctx context.Context, item dataset.Item) (sink.Record, error)

// Config tunes one batch execution.
type Config struct {
	// MaxWorkers bounds concurrent in-flight items. Clamped to 1..64.
	MaxWorkers int
	// ItemTimeout bounds a single pipeline invocation. Zero means no bound.
	ItemTimeout time.Duration
	// OnItemDone, when set, is called after each terminal outcome with the
	// number of pending items finished so far and the pending total.
	OnItemDone func(done, total int)
}

// Summary is the end-of-run accounting for a batch.
type Summary struct {
	Session   runs.Session
	Skipped   int
	Succeeded int
	Failed    int
}

// Total returns the number of items the batch was asked to cover.
func (s Summary) Total() int {
	return s.Skipped + s.Succeeded + s.Failed
}

// Dispatcher runs work items through a pipeline on a bounded worker pool and
// owns the completion sequence: every outcome is appended to the sink first,
// and only success records are then marked in the ledger. That ordering is
// what makes a crash mid-batch resumable without losing or double-counting
// work.
type Dispatcher struct {
	session runs.Session
	ledger  *ledger.Ledger
	sink    *sink.Sink
	cfg     Config
	logger  *slog.Logger
}

// New builds a dispatcher over an already-loaded ledger and sink.
func New(session runs.Session, led *ledger.Ledger, snk *sink.Sink, cfg Config, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		session: session,
		ledger:  led,
		sink:    snk,
		cfg:     cfg,
		logger:  logging.WithComponent(logger, "dispatch"),
	}
}

// outcome pairs a terminal record with the item that produced it.
type outcome struct {
	item   dataset.Item
	record sink.Record
}

// Run executes the batch. Items already in the ledger are skipped. Context
// cancellation stops dispatching new items; in-flight items finish and are
// recorded. Ledger write failures abort the batch; sink write failures are
// item-level and count the item as failed.
func (d *Dispatcher) Run(ctx context.Context, items []dataset.Item, fn PipelineFunc) (Summary, error) {
	summary := Summary{Session: d.session}

	var pending []dataset.Item
	for _, item := range items {
		if d.ledger.IsComplete(item.ID) {
			summary.Skipped++
			continue
		}
		pending = append(pending, item)
	}

	d.logger.Info("batch starting",
		logging.String(logging.FieldSession, d.session.ID()),
		logging.String(logging.FieldDomain, d.session.Domain),
		logging.Int("total", len(items)),
		logging.Int("skipped", summary.Skipped),
		logging.Int("pending", len(pending)),
	)
	if len(pending) == 0 {
		return summary, nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	workers := d.cfg.MaxWorkers
	if workers <= 0 {
		workers = defaultWorkers
	}
	if workers > maxWorkers {
		workers = maxWorkers
	}
	if workers > len(pending) {
		workers = len(pending)
	}

	work := make(chan dataset.Item)
	outcomes := make(chan outcome)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range work {
				outcomes <- outcome{item: item, record: d.runItem(runCtx, item, fn)}
			}
		}()
	}

	go func() {
		defer close(work)
		for _, item := range pending {
			select {
			case <-runCtx.Done():
				return
			case work <- item:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(outcomes)
	}()

	// Persistence runs here, on the single consumer, so the ledger sees one
	// logical writer. Cancellation of the run context must not block an
	// in-flight item from being recorded, hence WithoutCancel.
	persistCtx := context.WithoutCancel(ctx)
	var runErr error
	done := 0
	for out := range outcomes {
		done++
		if runErr != nil {
			continue
		}
		if err := d.record(persistCtx, out, &summary); err != nil {
			runErr = err
			cancel()
			continue
		}
		if d.cfg.OnItemDone != nil {
			d.cfg.OnItemDone(done, len(pending))
		}
	}
	if runErr != nil {
		return summary, runErr
	}
	if err := ctx.Err(); err != nil {
		d.logger.Warn("batch stopped early",
			logging.String(logging.FieldSession, d.session.ID()),
			logging.Int("finished", done),
			logging.Int("pending", len(pending)),
		)
		return summary, fmt.Errorf("batch interrupted: %w", err)
	}

	d.logger.Info("batch finished",
		logging.String(logging.FieldSession, d.session.ID()),
		logging.Int("succeeded", summary.Succeeded),
		logging.Int("failed", summary.Failed),
		logging.Int("skipped", summary.Skipped),
	)
	return summary, nil
}

// record persists one terminal outcome. Sink append must complete before the
// ledger mark, and only success records are ever marked; error records stay
// unledgered so resumption retries them.
func (d *Dispatcher) record(ctx context.Context, out outcome, summary *Summary) error {
	if err := d.sink.Append(ctx, out.record); err != nil {
		d.logger.Error("result append failed",
			logging.String(logging.FieldItemID, out.item.ID),
			logging.Error(err),
		)
		summary.Failed++
		return nil
	}
	if !out.record.IsSuccess() {
		d.logger.Warn("item failed",
			logging.String(logging.FieldItemID, out.item.ID),
			logging.String("reason", out.record.Error),
		)
		summary.Failed++
		return nil
	}
	if err := d.ledger.MarkComplete(out.item.ID, out.record.FinishedAt); err != nil {
		return fmt.Errorf("mark item %s complete: %w", out.item.ID, err)
	}
	summary.Succeeded++
	d.logger.Info("item completed",
		logging.String(logging.FieldItemID, out.item.ID),
		logging.String(logging.FieldAttempt, out.record.AttemptID),
	)
	return nil
}

// runItem invokes the pipeline under the per-item timeout, converting errors
// and panics into error records so one bad item cannot take the batch down.
func (d *Dispatcher) runItem(ctx context.Context, item dataset.Item, fn PipelineFunc) (rec sink.Record) {
	startedAt := time.Now()
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("pipeline panicked",
				logging.String(logging.FieldItemID, item.ID),
				logging.Any("panic", r),
				logging.String("stack", string(debug.Stack())),
			)
			rec = d.errorRecord(item, startedAt, fmt.Sprintf("pipeline panic: %v", r))
		}
	}()

	itemCtx := ctx
	if d.cfg.ItemTimeout > 0 {
		var cancel context.CancelFunc
		itemCtx, cancel = context.WithTimeout(ctx, d.cfg.ItemTimeout)
		defer cancel()
	}

	record, err := fn(itemCtx, item)
	if err != nil {
		return d.errorRecord(item, startedAt, err.Error())
	}
	if record.ItemID == "" {
		record.ItemID = item.ID
	}
	if record.StartedAt.IsZero() {
		record.StartedAt = startedAt
	}
	if record.FinishedAt.IsZero() {
		record.FinishedAt = time.Now()
	}
	return record
}

func (d *Dispatcher) errorRecord(item dataset.Item, startedAt time.Time, message string) sink.Record {
	sourcePath := ""
	if len(item.ImagePaths) > 0 {
		sourcePath = item.ImagePaths[0]
	}
	return sink.Record{
		ItemID:      item.ID,
		Domain:      item.Domain,
		SourcePath:  sourcePath,
		Status:      sink.StatusError,
		Question:    item.Question,
		GroundTruth: item.GroundTruth,
		Error:       message,
		StartedAt:   startedAt,
		FinishedAt:  time.Now(),
	}
}
