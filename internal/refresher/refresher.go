package refresher

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"weekgrid-service/internal/availability"
	"weekgrid-service/pkg/sl"
)

const runTimeout = 30 * time.Second

type SnapshotRefresher interface {
	Refresh(ctx context.Context) (*availability.Table, error)
}

// Refresher rebuilds the availability snapshot on a cron schedule so
// writes from other instances become visible without a request.
type Refresher struct {
	log  *slog.Logger
	src  SnapshotRefresher
	cron *cron.Cron
}

func New(log *slog.Logger, src SnapshotRefresher, schedule string) (*Refresher, error) {
	const op = "refresher.New"

	log = log.With(slog.String("component", "refresher"))

	r := &Refresher{log: log, src: src}

	logger := cronLogger{log: log}
	r.cron = cron.New(
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)

	if _, err := r.cron.AddFunc(schedule, r.run); err != nil {
		return nil, fmt.Errorf("%s: schedule %q: %w", op, schedule, err)
	}

	return r, nil
}

func (r *Refresher) Start() {
	r.log.Info("Starting snapshot refresher")
	r.cron.Start()
}

// Stop halts the schedule and waits for a running refresh, up to ctx.
func (r *Refresher) Stop(ctx context.Context) error {
	const op = "refresher.Stop"

	select {
	case <-r.cron.Stop().Done():
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	}
}

func (r *Refresher) run() {
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	table, err := r.src.Refresh(ctx)
	if err != nil {
		r.log.Error("Scheduled refresh failed", sl.Err(err))
		return
	}

	r.log.Debug("Scheduled refresh done", slog.Uint64("version", table.Version), slog.Int("records", table.Len()))
}

// cronLogger routes cron's own logging into slog.
type cronLogger struct {
	log *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error(msg, append([]any{sl.Err(err)}, keysAndValues...)...)
}
